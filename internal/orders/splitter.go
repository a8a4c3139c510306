package orders

import (
	"context"
	"time"

	waerrors "github.com/toyorcee/9thwaka-earnings-core/internal/errors"
	"github.com/toyorcee/9thwaka-earnings-core/internal/eventbus"
	"github.com/toyorcee/9thwaka-earnings-core/internal/metrics"
	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
	"github.com/rs/zerolog/log"
)

// RateProvider supplies the currently-configured commission rate. It is
// satisfied by internal/promoconfig's cached store, but the splitter
// only depends on this narrow slice of it.
type RateProvider interface {
	CommissionRatePercent(ctx context.Context) (int, error)
}

// GoldDiscountProvider reports the active Gold Status discount percent
// for a rider, or 0 if the rider has no active discount. Satisfied by
// internal/goldstatus.
type GoldDiscountProvider interface {
	ActiveDiscountPercent(ctx context.Context, riderID string) (int, error)
}

// Splitter is the Commission Splitter (C3): on delivery it computes and
// freezes financial{} onto the order and publishes order.delivered.
type Splitter struct {
	repo     Repository
	rates    RateProvider
	discount GoldDiscountProvider
	bus      *eventbus.Bus
	metrics  *metrics.Metrics
}

func NewSplitter(repo Repository, rates RateProvider, discount GoldDiscountProvider, bus *eventbus.Bus, m *metrics.Metrics) *Splitter {
	return &Splitter{repo: repo, rates: rates, discount: discount, bus: bus, metrics: m}
}

// Split processes the delivery of orderID: it reads the order, computes
// the commission split if not already computed, writes it, and publishes
// order.delivered after the write commits. Re-invocation on an
// already-split order is a no-op that still returns the (unchanged)
// order — callers processing duplicate delivery signals are safe.
func (s *Splitter) Split(ctx context.Context, orderID string) (Order, error) {
	start := time.Now()

	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		s.metrics.ObserveCommissionSplitFailure("order_not_found")
		return Order{}, waerrors.Wrap(waerrors.NotFound, "order not found", err)
	}
	if order.Status != StatusDelivered {
		s.metrics.ObserveCommissionSplitFailure("not_delivered")
		return Order{}, waerrors.New(waerrors.InvalidInput, "order is not delivered")
	}
	if order.IsSplit() {
		return order, nil
	}

	ratePct, err := s.rates.CommissionRatePercent(ctx)
	if err != nil {
		s.metrics.ObserveCommissionSplitFailure("rate_lookup")
		return Order{}, waerrors.Wrap(waerrors.Internal, "failed to read commission rate", err)
	}

	discountPct := 0
	if order.RiderID != "" {
		discountPct, err = s.discount.ActiveDiscountPercent(ctx, order.RiderID)
		if err != nil {
			s.metrics.ObserveCommissionSplitFailure("discount_lookup")
			return Order{}, waerrors.Wrap(waerrors.Internal, "failed to read gold status discount", err)
		}
	}

	financial, err := computeFinancial(order.Price, ratePct, discountPct)
	if err != nil {
		s.metrics.ObserveCommissionSplitFailure("arithmetic")
		return Order{}, waerrors.Wrap(waerrors.Internal, "failed to compute commission split", err)
	}

	order.Financial = financial
	if err := s.repo.Update(ctx, order); err != nil {
		s.metrics.ObserveCommissionSplitFailure("storage")
		return Order{}, waerrors.Wrap(waerrors.Internal, "failed to persist commission split", err)
	}

	s.metrics.ObserveCommissionSplit("success", financial.CommissionAmount.Atomic, time.Since(start))

	if s.bus != nil {
		s.bus.Publish(eventbus.TopicOrderDelivered, eventbus.OrderDelivered{
			OrderID:     order.ID,
			RiderID:     order.RiderID,
			CustomerID:  order.CustomerID,
			ServiceType: string(order.ServiceType),
			DeliveredAt: order.DeliveredAt(),
		})
	}

	log.Info().Str("order_id", order.ID).Int64("commission_kobo", financial.CommissionAmount.Atomic).Msg("orders.commission_split")
	return order, nil
}

// computeFinancial applies effectivePct = ratePct * (1 - discountPct/100)
// as basis points (ratePct*(100-discountPct) == effectivePct*100, so the
// two percent-to-basis-point scalings cancel exactly — no floating point
// needed) and freezes gross = commission + riderNet by construction.
func computeFinancial(price money.Money, ratePct, discountPct int) (Financial, error) {
	effectiveBasisPoints := int64(ratePct) * int64(100-discountPct)

	commission, err := price.MulBasisPoints(effectiveBasisPoints)
	if err != nil {
		return Financial{}, err
	}
	riderNet, err := price.Sub(commission)
	if err != nil {
		return Financial{}, err
	}

	return Financial{
		GrossAmount:       price,
		CommissionRatePct: float64(effectiveBasisPoints) / 100,
		CommissionAmount:  commission,
		RiderNetAmount:    riderNet,
	}, nil
}
