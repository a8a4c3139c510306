package eventbus

import (
	"sync"
	"testing"
)

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	b := New()

	var mu sync.Mutex
	var got []string

	b.Subscribe(TopicOrderDelivered, func(payload any) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, "referral")
	})
	b.Subscribe(TopicOrderDelivered, func(payload any) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, "streak")
	})
	b.Subscribe(TopicOrderDelivered, func(payload any) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, "goldstatus")
	})

	b.Publish(TopicOrderDelivered, OrderDelivered{OrderID: "o1"})

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(got))
	}
	want := []string{"referral", "streak", "goldstatus"}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("delivery order[%d] = %q, want %q", i, got[i], w)
		}
	}
}

func TestBus_NoSubscribersIsNoop(t *testing.T) {
	b := New()
	b.Publish(TopicPayoutPaid, PayoutPaid{PayoutID: "p1"})
}

func TestBus_OneSubscriberPanicDoesNotBlockOthers(t *testing.T) {
	b := New()

	var mu sync.Mutex
	secondRan := false

	b.Subscribe(TopicRiderBlocked, func(payload any) {
		panic("boom")
	})
	b.Subscribe(TopicRiderBlocked, func(payload any) {
		mu.Lock()
		defer mu.Unlock()
		secondRan = true
	})

	b.Publish(TopicRiderBlocked, RiderBlocked{RiderID: "r1"})

	mu.Lock()
	defer mu.Unlock()
	if !secondRan {
		t.Error("expected second subscriber to run despite first panicking")
	}
}

func TestBus_TopicsAreIndependent(t *testing.T) {
	b := New()

	deliveredCount := 0
	b.Subscribe(TopicOrderDelivered, func(payload any) {
		deliveredCount++
	})

	b.Publish(TopicOrderAccepted, OrderAccepted{OrderID: "o1"})

	if deliveredCount != 0 {
		t.Errorf("expected 0 deliveries on unrelated topic, got %d", deliveredCount)
	}
}

func TestBus_PayloadTypeRoundTrips(t *testing.T) {
	b := New()

	var received OrderDelivered
	b.Subscribe(TopicOrderDelivered, func(payload any) {
		received = payload.(OrderDelivered)
	})

	b.Publish(TopicOrderDelivered, OrderDelivered{
		OrderID:     "o1",
		RiderID:     "r1",
		CustomerID:  "c1",
		ServiceType: "ride",
	})

	if received.OrderID != "o1" || received.RiderID != "r1" {
		t.Errorf("payload not delivered correctly: %+v", received)
	}
}
