package callbacks

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/toyorcee/9thwaka-earnings-core/internal/config"
	"github.com/toyorcee/9thwaka-earnings-core/internal/httputil"
)

// Notifier delivers domain events to an outbound collaborator (e.g. the
// rider-facing push/SMS service) after the transaction that produced them
// has committed. Delivery is best-effort: callers never block a commit
// on Notifier success, and a failed delivery lands in a DLQ rather than
// rolling back domain state.
type Notifier interface {
	ReferralPayout(ctx context.Context, event ReferralPayoutEvent)
	GoldStatusUnlocked(ctx context.Context, event GoldStatusEvent)
	PayoutOverdue(ctx context.Context, event PayoutStatusEvent)
	PayoutBlocked(ctx context.Context, event PayoutStatusEvent)
	PayoutStrikeIssued(ctx context.Context, event PayoutStatusEvent)
	RiderDeactivated(ctx context.Context, event PayoutStatusEvent)
	PayoutMarkedPaid(ctx context.Context, event PayoutMarkedPaidEvent)
}

// NoopNotifier discards every event. Used when no target URL is configured.
type NoopNotifier struct{}

func (NoopNotifier) ReferralPayout(context.Context, ReferralPayoutEvent)        {}
func (NoopNotifier) GoldStatusUnlocked(context.Context, GoldStatusEvent)        {}
func (NoopNotifier) PayoutOverdue(context.Context, PayoutStatusEvent)           {}
func (NoopNotifier) PayoutBlocked(context.Context, PayoutStatusEvent)           {}
func (NoopNotifier) PayoutStrikeIssued(context.Context, PayoutStatusEvent)      {}
func (NoopNotifier) RiderDeactivated(context.Context, PayoutStatusEvent)        {}
func (NoopNotifier) PayoutMarkedPaid(context.Context, PayoutMarkedPaidEvent)    {}

// eventMeta carries the idempotency fields shared by every notification.
// EventID is the idempotency key; a consumer MUST use it to dedupe
// redelivered events.
type eventMeta struct {
	EventID        string    `json:"eventId"`
	EventType      string    `json:"eventType"`
	EventTimestamp time.Time `json:"eventTimestamp"`
}

// ReferralPayoutEvent fires once a referral reward has been credited to
// the referrer's wallet (§4.4 "best-effort, after commit").
type ReferralPayoutEvent struct {
	eventMeta
	RiderID        string `json:"riderId"`
	ReferralID     string `json:"referralId"`
	ReferredUserID string `json:"referredUserId"`
	RewardKobo     int64  `json:"rewardKobo"`
	CreditedAt     time.Time `json:"creditedAt"`
}

// GoldStatusEvent fires when a rider crosses the Gold Status threshold.
type GoldStatusEvent struct {
	eventMeta
	RiderID      string    `json:"riderId"`
	EffectivePct int       `json:"effectivePct"`
	UnlockedAt   time.Time `json:"unlockedAt"`
}

// PayoutStatusEvent covers the payout-window enforcement transitions that
// share a shape: overdue warning, blocked, strike issued, deactivated.
type PayoutStatusEvent struct {
	eventMeta
	RiderID    string `json:"riderId"`
	PayoutID   string `json:"payoutId,omitempty"`
	Reason     string `json:"reason,omitempty"`
	StrikeCount int   `json:"strikeCount,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// PayoutMarkedPaidEvent fires when an admin marks a rider payout as paid.
type PayoutMarkedPaidEvent struct {
	eventMeta
	RiderID     string    `json:"riderId"`
	PayoutID    string    `json:"payoutId"`
	AmountKobo  int64     `json:"amountKobo"`
	MarkedBy    string    `json:"markedBy"`
	PaidAt      time.Time `json:"paidAt"`
}

// ErrCallbackDisabled is returned when no notifier target is configured.
var ErrCallbackDisabled = errors.New("callbacks: disabled")

// generateEventID creates a unique event identifier for idempotency.
// Format: "evt_" + 24 hex characters (12 random bytes).
func generateEventID() string {
	randomBytes := make([]byte, 12)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Sprintf("evt_%d", time.Now().UnixNano())
	}
	return "evt_" + hex.EncodeToString(randomBytes)
}

// prepareMeta sets the idempotency fields on a not-yet-sent event. If
// EventID is already set (a retry) it's preserved.
func prepareMeta(meta *eventMeta, defaultEventType string) {
	if meta.EventID == "" {
		meta.EventID = generateEventID()
	}
	if meta.EventType == "" {
		meta.EventType = defaultEventType
	}
	if meta.EventTimestamp.IsZero() {
		meta.EventTimestamp = time.Now().UTC()
	}
}

// PrepareReferralPayoutEvent ensures idempotency fields and CreditedAt are set.
func PrepareReferralPayoutEvent(event *ReferralPayoutEvent) {
	prepareMeta(&event.eventMeta, "referral.payout")
	if event.CreditedAt.IsZero() {
		event.CreditedAt = time.Now().UTC()
	}
}

// PrepareGoldStatusEvent ensures idempotency fields and UnlockedAt are set.
func PrepareGoldStatusEvent(event *GoldStatusEvent) {
	prepareMeta(&event.eventMeta, "gold_status.unlocked")
	if event.UnlockedAt.IsZero() {
		event.UnlockedAt = time.Now().UTC()
	}
}

// PreparePayoutStatusEvent ensures idempotency fields and OccurredAt are set.
// eventType distinguishes overdue/blocked/strike/deactivated.
func PreparePayoutStatusEvent(event *PayoutStatusEvent, eventType string) {
	prepareMeta(&event.eventMeta, eventType)
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
}

// PreparePayoutMarkedPaidEvent ensures idempotency fields and PaidAt are set.
func PreparePayoutMarkedPaidEvent(event *PayoutMarkedPaidEvent) {
	prepareMeta(&event.eventMeta, "payout.marked_paid")
	if event.PaidAt.IsZero() {
		event.PaidAt = time.Now().UTC()
	}
}

// SendOnce posts a single event to the configured target without retry
// logic (for operational tools / manual re-delivery).
func SendOnce(ctx context.Context, cfg config.CallbacksConfig, payload any) error {
	if cfg.TargetURL == "" {
		return ErrCallbackDisabled
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := httputil.NewClient(timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.TargetURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	contentType := cfg.Headers["Content-Type"]
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)

	for k, v := range cfg.Headers {
		if k == "" || k == "Content-Type" {
			continue
		}
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("received status %d from %s", resp.StatusCode, cfg.TargetURL)
	}

	return nil
}
