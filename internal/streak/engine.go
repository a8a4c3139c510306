// Package streak implements the Streak Engine (C5): a per-rider
// consecutive-acceptance counter that fires a bonus on threshold. All
// state lives on users.User — there is no separate streak document.
package streak

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/toyorcee/9thwaka-earnings-core/internal/callbacks"
	"github.com/toyorcee/9thwaka-earnings-core/internal/eventbus"
	"github.com/toyorcee/9thwaka-earnings-core/internal/metrics"
	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
	"github.com/toyorcee/9thwaka-earnings-core/internal/promoconfig"
	"github.com/toyorcee/9thwaka-earnings-core/internal/users"
	"github.com/toyorcee/9thwaka-earnings-core/internal/wallet"
)

// maxSeenOrders bounds the dedup set's memory footprint (the same LRU
// cap idempotency.MemoryStore applies to its cache).
const maxSeenOrders = 10000

// UsersClient is the narrow slice of users.Repository the Streak Engine
// needs.
type UsersClient interface {
	Get(ctx context.Context, id string) (users.User, error)
	Update(ctx context.Context, u users.User) error
}

// Engine is the Streak Engine (C5). It subscribes to order.accepted
// (increment) and order.cancelled (reset).
//
// Event delivery is at-least-once per §5/§10.5; the engine keeps an
// LRU-bounded in-process set of already-processed order IDs (capped at
// maxSeenOrders, same eviction shape as idempotency.MemoryStore's cache)
// so a redelivered acceptance or cancel event does not double-increment
// or double-reset the counter. This is a process-local safeguard, not a
// persisted idempotency key — acceptable here because the event bus is
// itself in-process and non-persistent (§4.10), so a redelivery can only
// originate from the same process instance that already saw it once.
type Engine struct {
	users     UsersClient
	wallet    *wallet.Ledger
	promos    *promoconfig.Store
	notifier  callbacks.Notifier
	locks     *users.Locker
	metrics   *metrics.Metrics
	seenMu    sync.Mutex
	seen      map[string]*list.Element
	seenOrder *list.List
}

func NewEngine(usersClient UsersClient, ledger *wallet.Ledger, promos *promoconfig.Store, notifier callbacks.Notifier, m *metrics.Metrics) *Engine {
	if notifier == nil {
		notifier = callbacks.NoopNotifier{}
	}
	return &Engine{
		users:     usersClient,
		wallet:    ledger,
		promos:    promos,
		notifier:  notifier,
		locks:     users.NewLocker(),
		metrics:   m,
		seen:      make(map[string]*list.Element),
		seenOrder: list.New(),
	}
}

// Subscribe registers the engine's order.accepted and order.cancelled
// handlers on bus.
func (e *Engine) Subscribe(bus *eventbus.Bus) {
	bus.Subscribe(eventbus.TopicOrderAccepted, func(payload any) {
		event, ok := payload.(eventbus.OrderAccepted)
		if !ok {
			return
		}
		e.HandleOrderAccepted(context.Background(), event)
	})
	bus.Subscribe(eventbus.TopicOrderCancelled, func(payload any) {
		event, ok := payload.(eventbus.OrderCancelled)
		if !ok {
			return
		}
		e.HandleOrderCancelled(context.Background(), event)
	})
}

// markSeen reports whether key has already been processed, recording it
// as seen if not. The set is capped at maxSeenOrders, evicting the
// least-recently-seen key once full.
func (e *Engine) markSeen(key string) bool {
	e.seenMu.Lock()
	defer e.seenMu.Unlock()

	if el, ok := e.seen[key]; ok {
		e.seenOrder.MoveToFront(el)
		return true
	}

	if e.seenOrder.Len() >= maxSeenOrders {
		oldest := e.seenOrder.Back()
		if oldest != nil {
			e.seenOrder.Remove(oldest)
			delete(e.seen, oldest.Value.(string))
		}
	}

	e.seen[key] = e.seenOrder.PushFront(key)
	return false
}

// HandleOrderAccepted increments the rider's consecutive-accept counter
// and fires the bonus on threshold (§4.5).
func (e *Engine) HandleOrderAccepted(ctx context.Context, event eventbus.OrderAccepted) {
	if event.RiderID == "" {
		return
	}
	if e.markSeen("accept:" + event.OrderID) {
		return
	}

	unlock := e.locks.Lock(event.RiderID)
	defer unlock()

	rider, err := e.users.Get(ctx, event.RiderID)
	if err != nil {
		log.Error().Err(err).Str("rider_id", event.RiderID).Msg("streak.rider_lookup_failed")
		return
	}
	if rider.IsDeactivated() {
		return
	}

	rider.CurrentStreak++

	cfg, err := e.promos.Get(ctx)
	if err != nil {
		log.Error().Err(err).Msg("streak.promo_config_load_failed")
		_ = e.users.Update(ctx, rider)
		return
	}

	if !cfg.Streak.Enabled || rider.CurrentStreak < cfg.Streak.RequiredStreak {
		if err := e.users.Update(ctx, rider); err != nil {
			log.Error().Err(err).Str("rider_id", rider.ID).Msg("streak.counter_persist_failed")
		}
		return
	}

	e.award(ctx, rider, cfg.Streak.BonusAmount)
}

// award credits the bonus, resets the counter, and persists the rider.
// Mirrors the wallet-credit-then-persist ordering of the referral
// engine's award flow (internal/referral.Engine.award) so a crash
// between the two steps is recovered by reprocessing rather than lost.
func (e *Engine) award(ctx context.Context, rider users.User, bonusAmount money.Money) {
	_, _, err := e.wallet.Credit(ctx, rider.ID, bonusAmount, wallet.Meta{Type: wallet.TransactionStreakBonus})
	if err != nil {
		log.Error().Err(err).Str("rider_id", rider.ID).Msg("streak.award_credit_failed")
		if updateErr := e.users.Update(ctx, rider); updateErr != nil {
			log.Error().Err(updateErr).Str("rider_id", rider.ID).Msg("streak.counter_persist_failed")
		}
		return
	}

	now := time.Now()
	rider.CurrentStreak = 0
	rider.LastStreakBonusAt = &now
	rider.TotalStreakBonuses++
	if err := e.users.Update(ctx, rider); err != nil {
		log.Error().Err(err).Str("rider_id", rider.ID).Msg("streak.award_persist_failed")
		return
	}

	e.metrics.ObserveStreakBonus()
	log.Info().Str("rider_id", rider.ID).Int64("bonus_kobo", bonusAmount.Atomic).Msg("streak.bonus_awarded")
}

// HandleOrderCancelled resets the rider's consecutive-accept counter to
// zero on a rider-initiated decline/cancel (§4.5).
func (e *Engine) HandleOrderCancelled(ctx context.Context, event eventbus.OrderCancelled) {
	if event.RiderID == "" {
		return
	}
	if e.markSeen("cancel:" + event.OrderID) {
		return
	}

	unlock := e.locks.Lock(event.RiderID)
	defer unlock()

	rider, err := e.users.Get(ctx, event.RiderID)
	if err != nil {
		log.Error().Err(err).Str("rider_id", event.RiderID).Msg("streak.rider_lookup_failed")
		return
	}
	if rider.CurrentStreak == 0 {
		return
	}
	rider.CurrentStreak = 0
	if err := e.users.Update(ctx, rider); err != nil {
		log.Error().Err(err).Str("rider_id", rider.ID).Msg("streak.reset_persist_failed")
	}
}
