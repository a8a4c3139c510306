package psp

import (
	"encoding/json"
	"time"

	waerrors "github.com/toyorcee/9thwaka-earnings-core/internal/errors"
)

// EventType is the subset of Paystack-shaped webhook events this
// package understands. Anything else is accepted and ignored so an
// unrecognized event never causes a 4xx retry storm from the PSP.
type EventType string

const (
	EventChargeSuccess  EventType = "charge.success"
	EventTransferSuccess EventType = "transfer.success"
	EventTransferFailed  EventType = "transfer.failed"
	EventTransferReversed EventType = "transfer.reversed"
)

// Data is the transaction/transfer payload nested under a webhook
// envelope. Reference matches the RiderPayout.paymentReferenceCode this
// delivery reconciles against.
type Data struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	PaidAt    string `json:"paid_at"`
}

// Envelope is the outer shape of an inbound webhook delivery.
type Envelope struct {
	Event EventType `json:"event"`
	Data  Data      `json:"data"`
}

// ParseWebhook decodes the raw body into an Envelope. A malformed body
// is an InvalidInput, not Internal — the fault is the caller's.
func ParseWebhook(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, waerrors.Wrap(waerrors.InvalidInput, "psp: malformed webhook body", err)
	}
	if env.Data.Reference == "" {
		return Envelope{}, waerrors.New(waerrors.InvalidInput, "psp: webhook missing data.reference")
	}
	return env, nil
}

// IsSettled reports whether this event represents money having actually
// moved, i.e. the only case that should transition a RiderPayout to
// paid.
func (e Envelope) IsSettled() bool {
	switch e.Event {
	case EventChargeSuccess, EventTransferSuccess:
		return e.Data.Status == "success"
	default:
		return false
	}
}

// parsedPaidAt parses the data.paid_at timestamp, falling back to now if the
// PSP omitted or malformed it rather than failing the whole delivery.
func (d Data) parsedPaidAt() time.Time {
	if d.PaidAt == "" {
		return time.Now()
	}
	t, err := time.Parse(time.RFC3339, d.PaidAt)
	if err != nil {
		return time.Now()
	}
	return t
}
