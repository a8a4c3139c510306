package paymentwindow

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/toyorcee/9thwaka-earnings-core/internal/callbacks"
	"github.com/toyorcee/9thwaka-earnings-core/internal/enforcement"
	"github.com/toyorcee/9thwaka-earnings-core/internal/eventbus"
	"github.com/toyorcee/9thwaka-earnings-core/internal/payout"
	"github.com/toyorcee/9thwaka-earnings-core/internal/users"
)

// UsersClient supplies the rider's current block state to the sweep.
type UsersClient interface {
	Get(ctx context.Context, id string) (users.User, error)
}

// maxRidersPerTick bounds per-iteration work (§5: "process at most K
// riders per tick").
const maxRidersPerTick = 200

// Sweep is the scheduled enforcement loop described in §4.8: it walks
// every pending payout, blocks riders whose grace period has lapsed,
// strikes riders blocked for more than the configured window on the
// same payout, and deactivates on the third strike (delegated to
// internal/enforcement; its Block is idempotent, its AddStrike appends
// on every call).
type Sweep struct {
	payouts  payout.Repository
	usersC   UsersClient
	actions  *enforcement.Actions
	bus      *eventbus.Bus
	notifier callbacks.Notifier
	loc      *time.Location

	gracePeriod  time.Duration
	strikeWindow time.Duration
	tick         time.Duration
}

func NewSweep(payouts payout.Repository, usersClient UsersClient, actions *enforcement.Actions, bus *eventbus.Bus, notifier callbacks.Notifier, loc *time.Location, gracePeriod, strikeWindow, tick time.Duration) *Sweep {
	if notifier == nil {
		notifier = callbacks.NoopNotifier{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if tick <= 0 {
		tick = 15 * time.Minute
	}
	return &Sweep{
		payouts:      payouts,
		usersC:       usersClient,
		actions:      actions,
		bus:          bus,
		notifier:     notifier,
		loc:          loc,
		gracePeriod:  gracePeriod,
		strikeWindow: strikeWindow,
		tick:         tick,
	}
}

// Run ticks every configured interval until ctx is cancelled.
func (s *Sweep) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				log.Error().Err(err).Msg("paymentwindow.sweep_failed")
			}
		}
	}
}

// RunOnce performs a single sweep pass and is cancellable mid-pass via
// ctx (§5: "sweeps must be cancellable by a parent-scoped cancellation
// token").
func (s *Sweep) RunOnce(ctx context.Context) error {
	pending, err := s.payouts.List(ctx, payout.Filter{Status: payout.StatusPending})
	if err != nil {
		return err
	}

	now := time.Now()
	processed := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if processed >= maxRidersPerTick {
			log.Warn().Int("remaining", len(pending)-processed).Msg("paymentwindow.sweep_tick_budget_exhausted")
			break
		}
		processed++

		flags := Compute(p.WeekEnd, p.Totals.Commission, now, p.Status, s.gracePeriod)
		if !flags.IsOverdue {
			continue
		}

		rider, err := s.usersC.Get(ctx, p.RiderID)
		if err != nil {
			log.Error().Err(err).Str("rider_id", p.RiderID).Msg("paymentwindow.rider_lookup_failed")
			continue
		}

		if !rider.PaymentBlocked {
			s.publishOverdue(ctx, p)
			if err := s.actions.Block(ctx, p.RiderID, "payout overdue", p.ID); err != nil {
				log.Error().Err(err).Str("rider_id", p.RiderID).Msg("paymentwindow.block_failed")
			}
			continue
		}

		if rider.PaymentBlockedPayoutID != p.ID || rider.PaymentBlockedAt == nil {
			continue
		}

		// Escalation is spaced by strikeWindow from the last strike on
		// this payout (falling back to the block time before any strike
		// has been issued), not from the block time on every tick —
		// otherwise a rider would race from strike #1 to deactivation
		// within a few ticks instead of over successive strikeWindow
		// crossings.
		reference := rider.PaymentBlockedAt
		for _, strike := range rider.Strikes {
			if strike.PayoutID != p.ID {
				continue
			}
			if reference == nil || strike.At.After(*reference) {
				at := strike.At
				reference = &at
			}
		}
		if now.Sub(*reference) <= s.strikeWindow {
			continue
		}

		if err := s.actions.AddStrike(ctx, p.RiderID, p.ID, "blocked beyond strike window"); err != nil {
			log.Error().Err(err).Str("rider_id", p.RiderID).Msg("paymentwindow.add_strike_failed")
		}
	}

	return nil
}

func (s *Sweep) publishOverdue(ctx context.Context, p payout.RiderPayout) {
	if s.bus != nil {
		s.bus.Publish(eventbus.TopicPayoutOverdue, eventbus.PayoutOverdue{
			PayoutID: p.ID,
			RiderID:  p.RiderID,
			WeekEnd:  p.WeekEnd,
		})
	}

	ev := callbacks.PayoutStatusEvent{RiderID: p.RiderID, PayoutID: p.ID, OccurredAt: time.Now()}
	callbacks.PreparePayoutStatusEvent(&ev, "payout.overdue")
	s.notifier.PayoutOverdue(ctx, ev)
}
