package eventbus

import "time"

// OrderDelivered is published by the Commission Splitter once an order's
// financial split has committed. The referral, streak, and gold status
// engines each subscribe to it.
type OrderDelivered struct {
	OrderID     string
	RiderID     string
	CustomerID  string
	ServiceType string
	DeliveredAt time.Time
}

// OrderAccepted is published when an order's status transitions to
// assigned with a rider set. The streak engine subscribes to it.
type OrderAccepted struct {
	OrderID     string
	RiderID     string
	AcceptedAt  time.Time
}

// OrderCancelled is published on a rider-initiated cancel/decline. The
// streak engine subscribes to it to reset the counter.
type OrderCancelled struct {
	OrderID    string
	RiderID    string
	CancelledAt time.Time
}

// PayoutPaid is published by markPaid once a RiderPayout transitions to paid.
type PayoutPaid struct {
	PayoutID   string
	RiderID    string
	AmountKobo int64
	MarkedBy   string
	PaidAt     time.Time
}

// PayoutOverdue is published by the payment window sweep the first time a
// pending payout crosses isOverdue=true.
type PayoutOverdue struct {
	PayoutID string
	RiderID  string
	WeekEnd  time.Time
}

// RiderBlocked is published by Enforcement Actions on block().
type RiderBlocked struct {
	RiderID  string
	Reason   string
	PayoutID string
}

// RiderDeactivated is published by Enforcement Actions on deactivate().
type RiderDeactivated struct {
	RiderID string
	Reason  string
}
