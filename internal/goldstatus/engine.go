// Package goldstatus implements the Gold Status Engine (C6): a
// sliding-window eligibility check for ride riders that grants a
// time-bounded commission discount. All state lives on users.User's
// GoldStatus sub-document; expiry is lazy (§4.6).
package goldstatus

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/toyorcee/9thwaka-earnings-core/internal/callbacks"
	"github.com/toyorcee/9thwaka-earnings-core/internal/eventbus"
	"github.com/toyorcee/9thwaka-earnings-core/internal/metrics"
	"github.com/toyorcee/9thwaka-earnings-core/internal/orders"
	"github.com/toyorcee/9thwaka-earnings-core/internal/promoconfig"
	"github.com/toyorcee/9thwaka-earnings-core/internal/users"
)

// UsersClient is the narrow slice of users.Repository the Gold Status
// Engine needs.
type UsersClient interface {
	Get(ctx context.Context, id string) (users.User, error)
	Update(ctx context.Context, u users.User) error
}

// OrdersClient supplies the rider's delivered-order history for the
// sliding-window eligibility count.
type OrdersClient interface {
	ListDeliveredByRiderBetween(ctx context.Context, riderID string, start, end time.Time) ([]orders.Order, error)
}

// Engine is the Gold Status Engine (C6). It subscribes to order.delivered
// and satisfies orders.GoldDiscountProvider so the Commission Splitter
// can read the active discount without an import cycle.
type Engine struct {
	users    UsersClient
	ordersC  OrdersClient
	promos   *promoconfig.Store
	notifier callbacks.Notifier
	locks    *users.Locker
	metrics  *metrics.Metrics
}

func NewEngine(usersClient UsersClient, ordersClient OrdersClient, promos *promoconfig.Store, notifier callbacks.Notifier, m *metrics.Metrics) *Engine {
	if notifier == nil {
		notifier = callbacks.NoopNotifier{}
	}
	return &Engine{
		users:    usersClient,
		ordersC:  ordersClient,
		promos:   promos,
		notifier: notifier,
		locks:    users.NewLocker(),
		metrics:  m,
	}
}

// Subscribe registers the engine's order.delivered handler on bus.
func (e *Engine) Subscribe(bus *eventbus.Bus) {
	bus.Subscribe(eventbus.TopicOrderDelivered, func(payload any) {
		event, ok := payload.(eventbus.OrderDelivered)
		if !ok {
			return
		}
		e.HandleOrderDelivered(context.Background(), event)
	})
}

// ActiveDiscountPercent satisfies orders.GoldDiscountProvider: it reports
// the rider's active discount percent, lazily expiring a status that has
// crossed its expiresAt.
func (e *Engine) ActiveDiscountPercent(ctx context.Context, riderID string) (int, error) {
	unlock := e.locks.Lock(riderID)
	defer unlock()

	rider, err := e.users.Get(ctx, riderID)
	if err != nil {
		return 0, err
	}

	rider, changed := e.lazilyExpire(rider)
	if changed {
		if err := e.users.Update(ctx, rider); err != nil {
			log.Error().Err(err).Str("rider_id", riderID).Msg("goldstatus.expiry_persist_failed")
		}
	}

	if rider.GoldStatus.IsActiveAt(time.Now()) {
		return rider.GoldStatus.DiscountPercent, nil
	}
	return 0, nil
}

// lazilyExpire clears IsActive and sets ExpiryNotified the first time a
// now-expired status is observed. It sends no notification: the
// Notifier has no gold-status expiry method.
func (e *Engine) lazilyExpire(rider users.User) (users.User, bool) {
	if !rider.GoldStatus.IsActive || rider.GoldStatus.ExpiresAt.After(time.Now()) {
		return rider, false
	}
	rider.GoldStatus.IsActive = false
	changed := true
	if !rider.GoldStatus.ExpiryNotified {
		rider.GoldStatus.ExpiryNotified = true
	}
	return rider, changed
}

// HandleOrderDelivered evaluates sliding-window eligibility for ride
// deliveries (§4.6).
func (e *Engine) HandleOrderDelivered(ctx context.Context, event eventbus.OrderDelivered) {
	if event.RiderID == "" || event.ServiceType != string(orders.ServiceTypeRide) {
		return
	}

	unlock := e.locks.Lock(event.RiderID)
	defer unlock()

	rider, err := e.users.Get(ctx, event.RiderID)
	if err != nil {
		log.Error().Err(err).Str("rider_id", event.RiderID).Msg("goldstatus.rider_lookup_failed")
		return
	}
	if rider.IsDeactivated() {
		return
	}

	cfg, err := e.promos.Get(ctx)
	if err != nil {
		log.Error().Err(err).Msg("goldstatus.promo_config_load_failed")
		return
	}
	if !cfg.GoldStatus.Enabled {
		return
	}

	rider, expiredNow := e.lazilyExpire(rider)
	if rider.GoldStatus.IsActiveAt(time.Now()) {
		if expiredNow {
			if err := e.users.Update(ctx, rider); err != nil {
				log.Error().Err(err).Str("rider_id", rider.ID).Msg("goldstatus.expiry_persist_failed")
			}
		}
		return
	}

	now := time.Now()
	windowStart := now.AddDate(0, 0, -cfg.GoldStatus.WindowDays)
	rideOrders, err := e.ordersC.ListDeliveredByRiderBetween(ctx, event.RiderID, windowStart, now)
	if err != nil {
		log.Error().Err(err).Str("rider_id", event.RiderID).Msg("goldstatus.window_query_failed")
		return
	}

	count := 0
	for _, o := range rideOrders {
		if o.ServiceType == orders.ServiceTypeRide {
			count++
		}
	}

	if count < cfg.GoldStatus.RequiredRides {
		if expiredNow {
			if err := e.users.Update(ctx, rider); err != nil {
				log.Error().Err(err).Str("rider_id", rider.ID).Msg("goldstatus.expiry_persist_failed")
			}
		}
		return
	}

	rider.GoldStatus = users.GoldStatus{
		IsActive:        true,
		UnlockedAt:      now,
		ExpiresAt:       now.AddDate(0, 0, cfg.GoldStatus.DurationDays),
		DiscountPercent: cfg.GoldStatus.DiscountPercent,
		TotalUnlocks:    rider.GoldStatus.TotalUnlocks + 1,
		ExpiryNotified:  false,
	}
	if err := e.users.Update(ctx, rider); err != nil {
		log.Error().Err(err).Str("rider_id", rider.ID).Msg("goldstatus.grant_persist_failed")
		return
	}

	e.metrics.ObserveGoldStatusUpgrade()
	log.Info().Str("rider_id", rider.ID).Int("discount_pct", rider.GoldStatus.DiscountPercent).Msg("goldstatus.unlocked")

	event2 := callbacks.GoldStatusEvent{
		RiderID:      rider.ID,
		EffectivePct: rider.GoldStatus.DiscountPercent,
	}
	callbacks.PrepareGoldStatusEvent(&event2)
	e.notifier.GoldStatusUnlocked(ctx, event2)
}
