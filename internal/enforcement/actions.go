package enforcement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/toyorcee/9thwaka-earnings-core/internal/callbacks"
	"github.com/toyorcee/9thwaka-earnings-core/internal/eventbus"
	"github.com/toyorcee/9thwaka-earnings-core/internal/metrics"
	"github.com/toyorcee/9thwaka-earnings-core/internal/users"
)

// UsersClient is the narrow slice of users.Repository Enforcement
// Actions needs.
type UsersClient interface {
	Get(ctx context.Context, id string) (users.User, error)
	Update(ctx context.Context, u users.User) error
}

// Actions implements C9: block, unblock, addStrike, deactivate,
// reactivate. Block, Unblock, Deactivate and Reactivate are idempotent:
// calling any of them twice leaves the rider in the same state. AddStrike
// is not: every call appends another strike.
type Actions struct {
	users      UsersClient
	blocked    Repository
	bus        *eventbus.Bus
	notifier   callbacks.Notifier
	locks      *users.Locker
	metrics    *metrics.Metrics
	maxStrikes int
}

func NewActions(usersClient UsersClient, blockedRepo Repository, bus *eventbus.Bus, notifier callbacks.Notifier, m *metrics.Metrics, maxStrikes int) *Actions {
	if notifier == nil {
		notifier = callbacks.NoopNotifier{}
	}
	if maxStrikes <= 0 {
		maxStrikes = 3
	}
	return &Actions{
		users:      usersClient,
		blocked:    blockedRepo,
		bus:        bus,
		notifier:   notifier,
		locks:      users.NewLocker(),
		metrics:    m,
		maxStrikes: maxStrikes,
	}
}

// Block sets paymentBlocked=true. Idempotent: a second call with the
// same reason leaves the original paymentBlockedAt unchanged.
func (a *Actions) Block(ctx context.Context, riderID, reason, payoutID string) error {
	unlock := a.locks.Lock(riderID)
	defer unlock()

	rider, err := a.users.Get(ctx, riderID)
	if err != nil {
		return err
	}
	if rider.PaymentBlocked {
		return nil
	}

	now := time.Now()
	rider.PaymentBlocked = true
	rider.PaymentBlockedAt = &now
	rider.PaymentBlockedReason = reason
	rider.PaymentBlockedPayoutID = payoutID
	if err := a.users.Update(ctx, rider); err != nil {
		return err
	}

	a.metrics.ObserveRiderBlocked()
	log.Warn().Str("rider_id", riderID).Str("reason", reason).Msg("enforcement.rider_blocked")

	if a.bus != nil {
		a.bus.Publish(eventbus.TopicRiderBlocked, eventbus.RiderBlocked{RiderID: riderID, Reason: reason, PayoutID: payoutID})
	}

	ev := callbacks.PayoutStatusEvent{RiderID: riderID, PayoutID: payoutID, Reason: reason, OccurredAt: now}
	callbacks.PreparePayoutStatusEvent(&ev, "payout.rider_blocked")
	a.notifier.PayoutBlocked(ctx, ev)
	return nil
}

// Unblock clears paymentBlocked. Idempotent: a no-op on an already
// unblocked rider.
func (a *Actions) Unblock(ctx context.Context, riderID string) error {
	unlock := a.locks.Lock(riderID)
	defer unlock()

	rider, err := a.users.Get(ctx, riderID)
	if err != nil {
		return err
	}
	if !rider.PaymentBlocked {
		return nil
	}

	rider.PaymentBlocked = false
	rider.PaymentBlockedAt = nil
	rider.PaymentBlockedReason = ""
	rider.PaymentBlockedPayoutID = ""
	if err := a.users.Update(ctx, rider); err != nil {
		return err
	}

	a.metrics.ObserveRiderUnblocked()
	log.Info().Str("rider_id", riderID).Msg("enforcement.rider_unblocked")
	return nil
}

// AddStrike appends a strike and, on crossing maxStrikes, deactivates
// the rider (§4.8 sweep: "on the third strike, invoke deactivate").
// It always appends, even when a strike for the same payoutID already
// exists; the sweep spaces its calls for one payout by the strike window
// measured from the last strike on that payout.
func (a *Actions) AddStrike(ctx context.Context, riderID, payoutID, reason string) error {
	unlock := a.locks.Lock(riderID)
	defer unlock()

	rider, err := a.users.Get(ctx, riderID)
	if err != nil {
		return err
	}

	now := time.Now()
	rider.Strikes = append(rider.Strikes, users.StrikeEvent{At: now, Reason: reason, PayoutID: payoutID})
	if err := a.users.Update(ctx, rider); err != nil {
		return err
	}

	a.metrics.ObserveStrike()
	log.Warn().Str("rider_id", riderID).Int("strike_count", len(rider.Strikes)).Msg("enforcement.strike_issued")

	ev := callbacks.PayoutStatusEvent{RiderID: riderID, PayoutID: payoutID, Reason: reason, StrikeCount: len(rider.Strikes), OccurredAt: now}
	callbacks.PreparePayoutStatusEvent(&ev, "payout.strike_issued")
	a.notifier.PayoutStrikeIssued(ctx, ev)

	if len(rider.Strikes) >= a.maxStrikes && !rider.AccountDeactivated {
		return a.deactivateLocked(ctx, rider, "exceeded maximum strikes")
	}
	return nil
}

// Deactivate sets accountDeactivated=true, forces the rider offline,
// and inserts a BlockedCredentials record so re-registration with the
// same NIN, email, or phone is impossible. Idempotent.
func (a *Actions) Deactivate(ctx context.Context, riderID, reason string) error {
	unlock := a.locks.Lock(riderID)
	defer unlock()

	rider, err := a.users.Get(ctx, riderID)
	if err != nil {
		return err
	}
	return a.deactivateLocked(ctx, rider, reason)
}

// deactivateLocked assumes the caller already holds the per-rider lock.
func (a *Actions) deactivateLocked(ctx context.Context, rider users.User, reason string) error {
	if rider.AccountDeactivated {
		return nil
	}

	now := time.Now()
	rider.AccountDeactivated = true
	rider.AccountDeactivatedAt = &now
	rider.AccountDeactivatedReason = reason
	if err := a.users.Update(ctx, rider); err != nil {
		return err
	}

	if err := a.blocked.Create(ctx, BlockedCredentials{
		ID:          uuid.New().String(),
		RiderID:     rider.ID,
		NIN:         rider.NIN,
		Email:       rider.Email,
		PhoneNumber: rider.Phone,
		Reason:      reason,
		CreatedAt:   now,
	}); err != nil {
		log.Error().Err(err).Str("rider_id", rider.ID).Msg("enforcement.blocked_credentials_insert_failed")
	}

	a.metrics.ObserveRiderDeactivated()
	log.Warn().Str("rider_id", rider.ID).Str("reason", reason).Msg("enforcement.rider_deactivated")

	if a.bus != nil {
		a.bus.Publish(eventbus.TopicRiderDeactivated, eventbus.RiderDeactivated{RiderID: rider.ID, Reason: reason})
	}

	ev := callbacks.PayoutStatusEvent{RiderID: rider.ID, Reason: reason, OccurredAt: now}
	callbacks.PreparePayoutStatusEvent(&ev, "payout.rider_deactivated")
	a.notifier.RiderDeactivated(ctx, ev)
	return nil
}

// ReactivateOptions controls whether the payment block is also cleared
// on reactivation (§4.9).
type ReactivateOptions struct {
	UnblockPayment bool
}

// Reactivate clears deactivation and, optionally, the payment block. It
// does not remove the BlockedCredentials record — that is an
// admin-only purge not modeled as a normal operation.
func (a *Actions) Reactivate(ctx context.Context, riderID string, opts ReactivateOptions) error {
	unlock := a.locks.Lock(riderID)
	defer unlock()

	rider, err := a.users.Get(ctx, riderID)
	if err != nil {
		return err
	}
	if !rider.AccountDeactivated {
		if opts.UnblockPayment && rider.PaymentBlocked {
			rider.PaymentBlocked = false
			rider.PaymentBlockedAt = nil
			rider.PaymentBlockedReason = ""
			rider.PaymentBlockedPayoutID = ""
			return a.users.Update(ctx, rider)
		}
		return nil
	}

	rider.AccountDeactivated = false
	rider.AccountDeactivatedAt = nil
	rider.AccountDeactivatedReason = ""
	if opts.UnblockPayment {
		rider.PaymentBlocked = false
		rider.PaymentBlockedAt = nil
		rider.PaymentBlockedReason = ""
		rider.PaymentBlockedPayoutID = ""
	}
	if err := a.users.Update(ctx, rider); err != nil {
		return err
	}

	log.Info().Str("rider_id", riderID).Bool("unblock_payment", opts.UnblockPayment).Msg("enforcement.rider_reactivated")
	return nil
}
