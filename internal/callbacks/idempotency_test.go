package callbacks

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateEventID(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := generateEventID()

		if !strings.HasPrefix(id, "evt_") {
			t.Errorf("EventID missing 'evt_' prefix: %s", id)
		}

		hexPart := strings.TrimPrefix(id, "evt_")
		if len(hexPart) != 24 {
			t.Errorf("EventID hex part wrong length (expected 24, got %d): %s", len(hexPart), id)
		}

		for _, c := range hexPart {
			if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
				t.Errorf("EventID contains non-hex character '%c': %s", c, id)
			}
		}

		if ids[id] {
			t.Errorf("Duplicate EventID generated: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != 1000 {
		t.Errorf("Expected 1000 unique IDs, got %d", len(ids))
	}
}

func TestPrepareReferralPayoutEvent(t *testing.T) {
	tests := []struct {
		name  string
		event ReferralPayoutEvent
		check func(t *testing.T, event ReferralPayoutEvent)
	}{
		{
			name:  "generates event ID when missing",
			event: ReferralPayoutEvent{RiderID: "rider-1", ReferralID: "ref-1"},
			check: func(t *testing.T, event ReferralPayoutEvent) {
				if event.EventID == "" {
					t.Error("EventID not generated")
				}
				if !strings.HasPrefix(event.EventID, "evt_") {
					t.Errorf("EventID has wrong format: %s", event.EventID)
				}
			},
		},
		{
			name:  "preserves existing event ID",
			event: ReferralPayoutEvent{eventMeta: eventMeta{EventID: "evt_existing123"}, RiderID: "rider-1"},
			check: func(t *testing.T, event ReferralPayoutEvent) {
				if event.EventID != "evt_existing123" {
					t.Errorf("EventID changed from evt_existing123 to %s", event.EventID)
				}
			},
		},
		{
			name:  "sets event type to referral.payout",
			event: ReferralPayoutEvent{RiderID: "rider-1"},
			check: func(t *testing.T, event ReferralPayoutEvent) {
				if event.EventType != "referral.payout" {
					t.Errorf("EventType = %s, want referral.payout", event.EventType)
				}
			},
		},
		{
			name:  "sets event timestamp when missing",
			event: ReferralPayoutEvent{RiderID: "rider-1"},
			check: func(t *testing.T, event ReferralPayoutEvent) {
				if event.EventTimestamp.IsZero() {
					t.Error("EventTimestamp not set")
				}
				if time.Since(event.EventTimestamp) > time.Second {
					t.Errorf("EventTimestamp too old: %v", event.EventTimestamp)
				}
			},
		},
		{
			name:  "sets credited at when missing",
			event: ReferralPayoutEvent{RiderID: "rider-1"},
			check: func(t *testing.T, event ReferralPayoutEvent) {
				if event.CreditedAt.IsZero() {
					t.Error("CreditedAt not set")
				}
			},
		},
		{
			name: "preserves existing credited at",
			event: ReferralPayoutEvent{
				RiderID:    "rider-1",
				CreditedAt: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
			},
			check: func(t *testing.T, event ReferralPayoutEvent) {
				expected := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
				if !event.CreditedAt.Equal(expected) {
					t.Errorf("CreditedAt changed from %v to %v", expected, event.CreditedAt)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			PrepareReferralPayoutEvent(&tt.event)
			tt.check(t, tt.event)
		})
	}
}

func TestPreparePayoutStatusEvent(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		event     PayoutStatusEvent
		check     func(t *testing.T, event PayoutStatusEvent)
	}{
		{
			name:      "generates event ID when missing",
			eventType: "payout.blocked",
			event:     PayoutStatusEvent{RiderID: "rider-1"},
			check: func(t *testing.T, event PayoutStatusEvent) {
				if event.EventID == "" {
					t.Error("EventID not generated")
				}
			},
		},
		{
			name:      "sets event type to the requested transition",
			eventType: "payout.strike",
			event:     PayoutStatusEvent{RiderID: "rider-1"},
			check: func(t *testing.T, event PayoutStatusEvent) {
				if event.EventType != "payout.strike" {
					t.Errorf("EventType = %s, want payout.strike", event.EventType)
				}
			},
		},
		{
			name:      "sets occurred at when missing",
			eventType: "rider.deactivated",
			event:     PayoutStatusEvent{RiderID: "rider-1"},
			check: func(t *testing.T, event PayoutStatusEvent) {
				if event.OccurredAt.IsZero() {
					t.Error("OccurredAt not set")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			PreparePayoutStatusEvent(&tt.event, tt.eventType)
			tt.check(t, tt.event)
		})
	}
}

func TestIdempotencyAcrossRetries(t *testing.T) {
	event := ReferralPayoutEvent{
		RiderID:    "rider-1",
		ReferralID: "ref-1",
	}

	PrepareReferralPayoutEvent(&event)
	firstEventID := event.EventID
	firstTimestamp := event.EventTimestamp

	if firstEventID == "" {
		t.Fatal("First preparation did not generate EventID")
	}

	// Simulate retry - prepare the SAME event again.
	PrepareReferralPayoutEvent(&event)
	secondEventID := event.EventID
	secondTimestamp := event.EventTimestamp

	if secondEventID != firstEventID {
		t.Errorf("EventID changed on retry: %s -> %s (breaks idempotency)", firstEventID, secondEventID)
	}
	if !secondTimestamp.Equal(firstTimestamp) {
		t.Errorf("EventTimestamp changed on retry: %v -> %v", firstTimestamp, secondTimestamp)
	}
}

func TestMultipleEventsGetUniqueIDs(t *testing.T) {
	eventIDs := make(map[string]bool)

	for i := 0; i < 100; i++ {
		event := ReferralPayoutEvent{RiderID: "rider-1", ReferralID: "ref-1"}
		PrepareReferralPayoutEvent(&event)

		if eventIDs[event.EventID] {
			t.Errorf("Duplicate EventID generated: %s", event.EventID)
		}
		eventIDs[event.EventID] = true
	}

	if len(eventIDs) != 100 {
		t.Errorf("Expected 100 unique event IDs, got %d", len(eventIDs))
	}
}

func BenchmarkGenerateEventID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = generateEventID()
	}
}

func BenchmarkPrepareReferralPayoutEvent(b *testing.B) {
	for i := 0; i < b.N; i++ {
		event := ReferralPayoutEvent{RiderID: "rider-1"}
		PrepareReferralPayoutEvent(&event)
	}
}
