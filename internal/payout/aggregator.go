package payout

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/toyorcee/9thwaka-earnings-core/internal/dbretry"
	"github.com/toyorcee/9thwaka-earnings-core/internal/metrics"
	"github.com/toyorcee/9thwaka-earnings-core/internal/orders"
	"github.com/toyorcee/9thwaka-earnings-core/internal/users"
	"github.com/toyorcee/9thwaka-earnings-core/internal/eventbus"
	"github.com/toyorcee/9thwaka-earnings-core/internal/callbacks"
	"github.com/google/uuid"
)

// OrdersClient supplies the sweep with every order delivered in a given
// week, across all riders.
type OrdersClient interface {
	ListDeliveredBetween(ctx context.Context, start, end time.Time) ([]orders.Order, error)
}

// Aggregator implements the Payout Aggregator (C7): it groups delivered
// orders per rider per platform week into one RiderPayout document,
// generating payment reference codes and keeping totals derived rather
// than accumulated (§4.7, §8 invariant 1).
type Aggregator struct {
	repo     Repository
	ordersC  OrdersClient
	notifier callbacks.Notifier
	bus      *eventbus.Bus
	locks    *users.Locker
	metrics  *metrics.Metrics
	loc      *time.Location
}

func NewAggregator(repo Repository, ordersClient OrdersClient, notifier callbacks.Notifier, bus *eventbus.Bus, m *metrics.Metrics, loc *time.Location) *Aggregator {
	if notifier == nil {
		notifier = callbacks.NoopNotifier{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{
		repo:     repo,
		ordersC:  ordersClient,
		notifier: notifier,
		bus:      bus,
		locks:    users.NewLocker(),
		metrics:  m,
		loc:      loc,
	}
}

// UpsertPayoutForDelivery implements the five-step operation from §4.7.
// Per-(riderId, weekStart) serialization is provided both by the
// per-rider lock here and by the repository's storage-level unique
// index, so concurrent deliveries for the same rider and week never
// race past each other's find-or-create.
func (a *Aggregator) UpsertPayoutForDelivery(ctx context.Context, order orders.Order) error {
	if !order.IsDelivered() || order.RiderID == "" {
		return nil
	}
	deliveredAt := order.DeliveredAt()
	if deliveredAt.IsZero() {
		deliveredAt = time.Now()
	}

	weekStart, weekEnd := GetWeekRange(deliveredAt, a.loc)

	unlock := a.locks.Lock(order.RiderID)
	defer unlock()

	_, err := dbretry.WithRetry(ctx, func() (struct{}, error) {
		payout, err := a.repo.GetByRiderWeek(ctx, order.RiderID, weekStart)
		if err == ErrNotFound {
			payout, err = a.createPayout(ctx, order.RiderID, weekStart, weekEnd)
			if err != nil {
				return struct{}{}, err
			}
		} else if err != nil {
			return struct{}{}, err
		}

		if payout.HasOrder(order.ID) {
			return struct{}{}, nil
		}

		snapshot := OrderSnapshot{
			OrderID:     order.ID,
			DeliveredAt: deliveredAt,
			Gross:       order.Financial.GrossAmount,
			Commission:  order.Financial.CommissionAmount,
			RiderNet:    order.Financial.RiderNetAmount,
			ServiceType: order.ServiceType,
		}
		payout.Orders = append(payout.Orders, snapshot)
		payout.Totals = recomputeTotals(payout.Orders)

		return struct{}{}, a.repo.Update(ctx, payout)
	})
	return err
}

// createPayout inserts a fresh pending RiderPayout with a freshly
// generated, collision-checked payment reference code (§4.7 step 3).
func (a *Aggregator) createPayout(ctx context.Context, riderID string, weekStart, weekEnd time.Time) (RiderPayout, error) {
	code, err := a.freshReferenceCode(ctx, riderID)
	if err != nil {
		return RiderPayout{}, err
	}

	payout := RiderPayout{
		ID:                   uuid.New().String(),
		RiderID:              riderID,
		WeekStart:            weekStart,
		WeekEnd:              weekEnd,
		Orders:               nil,
		Totals:               recomputeTotals(nil),
		Status:               StatusPending,
		PaymentReferenceCode: code,
	}

	if err := a.repo.Create(ctx, payout); err != nil {
		if err == ErrAlreadyExists {
			return a.repo.GetByRiderWeek(ctx, riderID, weekStart)
		}
		return RiderPayout{}, err
	}
	return payout, nil
}

// freshReferenceCode retries code generation on collision (§4.7: "globally
// unique — retry on collision").
func (a *Aggregator) freshReferenceCode(ctx context.Context, riderID string) (string, error) {
	const maxAttempts = 5
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := generateReferenceCode(riderID, time.Now())
		if err != nil {
			return "", err
		}
		taken, err := a.repo.ExistsReferenceCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrReferenceCodeTaken
}

// GeneratePayoutsForWeek is the admin generation sweep from §4.7: it
// scans every order delivered in the week and inserts any not yet
// present in a payout. Re-running it is a no-op for orders already
// embedded (§8 invariant 7).
func (a *Aggregator) GeneratePayoutsForWeek(ctx context.Context, weekStart time.Time) (int, error) {
	_, weekEnd := GetWeekRange(weekStart, a.loc)

	delivered, err := a.ordersC.ListDeliveredBetween(ctx, weekStart, weekEnd)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, order := range delivered {
		if order.RiderID == "" {
			continue
		}
		if err := a.UpsertPayoutForDelivery(ctx, order); err != nil {
			log.Error().Err(err).Str("order_id", order.ID).Str("rider_id", order.RiderID).Msg("payout.upsert_failed")
			continue
		}
		inserted++
	}

	a.metrics.ObservePayoutsGenerated(inserted)
	log.Info().Time("week_start", weekStart).Int("orders_processed", inserted).Msg("payout.week_generated")
	return inserted, nil
}

// ListPayouts returns the filtered documents (§4.7). Derived window
// flags (§4.8) are computed by internal/paymentwindow against these
// results rather than stored, since they are pure functions of
// (weekEnd, totals.commission, now, status).
func (a *Aggregator) ListPayouts(ctx context.Context, filter Filter) ([]RiderPayout, error) {
	return a.repo.List(ctx, filter)
}

// MarkPaid transitions a pending payout to paid (§4.8). Calling it
// twice leaves paidAt unchanged (§8 invariant 7).
func (a *Aggregator) MarkPaid(ctx context.Context, payoutID string, by MarkedPaidBy, proofURL string) (RiderPayout, error) {
	return a.markPaid(ctx, func() (RiderPayout, error) { return a.repo.Get(ctx, payoutID) }, by, proofURL, nil)
}

// MarkPaidByReference reconciles an inbound PSP webhook against the
// payout carrying the matching payment reference code, stamping its
// PaystackPayment fields alongside the usual paid transition. A webhook
// whose reference doesn't match any payout returns ErrNotFound.
func (a *Aggregator) MarkPaidByReference(ctx context.Context, referenceCode string, pspStatus string, pspPaidAt time.Time) (RiderPayout, error) {
	return a.markPaid(ctx, func() (RiderPayout, error) { return a.repo.GetByReferenceCode(ctx, referenceCode) }, MarkedByPSP, "", &PaystackPayment{
		Reference: referenceCode,
		Status:    pspStatus,
		PaidAt:    &pspPaidAt,
	})
}

func (a *Aggregator) markPaid(ctx context.Context, lookup func() (RiderPayout, error), by MarkedPaidBy, proofURL string, paystack *PaystackPayment) (RiderPayout, error) {
	payout, err := lookup()
	if err != nil {
		return RiderPayout{}, err
	}

	// Lock per payout ID, mirroring UpsertPayoutForDelivery's per-rider
	// lock: two concurrent mark-paid calls for the same payout must not
	// both observe status=pending before either writes. The lookup above
	// runs unlocked (it may key by reference code rather than ID), so
	// re-read by ID once the lock is held in case another caller already
	// transitioned it in between.
	unlock := a.locks.Lock(payout.ID)
	defer unlock()

	payout, err = a.repo.Get(ctx, payout.ID)
	if err != nil {
		return RiderPayout{}, err
	}

	if payout.Status == StatusPaid {
		if paystack != nil {
			payout.PaystackPayment = *paystack
			_ = a.repo.Update(ctx, payout)
		}
		return payout, nil
	}

	now := time.Now()
	payout.Status = StatusPaid
	payout.PaidAt = &now
	payout.MarkedPaidBy = by
	payout.PaymentProofURL = proofURL
	if paystack != nil {
		payout.PaystackPayment = *paystack
	}

	if err := a.repo.Update(ctx, payout); err != nil {
		return RiderPayout{}, err
	}

	a.metrics.ObservePayoutMarkedPaid(string(by), payout.Totals.Commission.Atomic)

	if a.bus != nil {
		a.bus.Publish(eventbus.TopicPayoutPaid, eventbus.PayoutPaid{
			PayoutID:   payout.ID,
			RiderID:    payout.RiderID,
			AmountKobo: payout.Totals.Commission.Atomic,
			MarkedBy:   string(by),
			PaidAt:     now,
		})
	}

	notifyEvent := callbacks.PayoutMarkedPaidEvent{
		RiderID:    payout.RiderID,
		PayoutID:   payout.ID,
		AmountKobo: payout.Totals.Commission.Atomic,
		MarkedBy:   string(by),
	}
	callbacks.PreparePayoutMarkedPaidEvent(&notifyEvent)
	a.notifier.PayoutMarkedPaid(ctx, notifyEvent)

	return payout, nil
}
