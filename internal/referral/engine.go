package referral

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/toyorcee/9thwaka-earnings-core/internal/callbacks"
	waerrors "github.com/toyorcee/9thwaka-earnings-core/internal/errors"
	"github.com/toyorcee/9thwaka-earnings-core/internal/eventbus"
	"github.com/toyorcee/9thwaka-earnings-core/internal/metrics"
	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
	"github.com/toyorcee/9thwaka-earnings-core/internal/promoconfig"
	"github.com/toyorcee/9thwaka-earnings-core/internal/users"
	"github.com/toyorcee/9thwaka-earnings-core/internal/wallet"
)

// UsersClient is the narrow slice of users.Repository the Referral
// Engine needs: identity lookups, role-aware trip counting, and the
// write of ReferredBy/ReferralRewardEarned.
type UsersClient interface {
	Get(ctx context.Context, id string) (users.User, error)
	GetByReferralCode(ctx context.Context, code string) (users.User, error)
	Update(ctx context.Context, u users.User) error
	CountDeliveredOrders(ctx context.Context, userID string, role users.Role) (int, error)
}

// Engine is the Referral Engine (C4). It subscribes to order.delivered
// and owns code redemption.
type Engine struct {
	repo     Repository
	users    UsersClient
	wallet   *wallet.Ledger
	promos   *promoconfig.Store
	notifier callbacks.Notifier
	locks    *users.Locker
	metrics  *metrics.Metrics
}

func NewEngine(repo Repository, usersClient UsersClient, ledger *wallet.Ledger, promos *promoconfig.Store, notifier callbacks.Notifier, m *metrics.Metrics) *Engine {
	if notifier == nil {
		notifier = callbacks.NoopNotifier{}
	}
	return &Engine{
		repo:     repo,
		users:    usersClient,
		wallet:   ledger,
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

// ClaimCode redeems a referral code for a not-yet-referred user (§4.4,
// §6 POST /referral/use). Self-referral and re-redemption are rejected
// here, at code-redemption time (spec §9 "Cycles").
func (e *Engine) ClaimCode(ctx context.Context, referredUserID, code string) (Referral, error) {
	referredUser, err := e.users.Get(ctx, referredUserID)
	if err != nil {
		return Referral{}, waerrors.Wrap(waerrors.NotFound, "referred user not found", err)
	}
	if referredUser.ReferredBy != "" {
		e.metrics.ObserveReferralRedemption("already_referred")
		return Referral{}, waerrors.New(waerrors.Conflict, "user has already redeemed a referral code")
	}

	referrer, err := e.users.GetByReferralCode(ctx, code)
	if err != nil {
		e.metrics.ObserveReferralRedemption("unknown_code")
		return Referral{}, waerrors.Wrap(waerrors.NotFound, "unknown referral code", err)
	}
	if referrer.ID == referredUserID {
		e.metrics.ObserveReferralRedemption("self_referral")
		return Referral{}, waerrors.New(waerrors.InvalidInput, "self-referral is not allowed")
	}

	ref := Referral{
		ID:             uuid.New().String(),
		ReferrerID:     referrer.ID,
		ReferredUserID: referredUserID,
		ReferralCode:   code,
	}
	if err := e.repo.Create(ctx, ref); err != nil {
		if err == ErrAlreadyExists {
			e.metrics.ObserveReferralRedemption("already_referred")
			return Referral{}, waerrors.New(waerrors.Conflict, "user has already redeemed a referral code")
		}
		return Referral{}, waerrors.Wrap(waerrors.Internal, "failed to persist referral", err)
	}

	referredUser.ReferredBy = referrer.ID
	if err := e.users.Update(ctx, referredUser); err != nil {
		return Referral{}, waerrors.Wrap(waerrors.Internal, "failed to stamp referredBy", err)
	}

	e.metrics.ObserveReferralRedemption("claimed")
	return ref, nil
}

// HandleOrderDelivered processes an order.delivered event for every
// distinct participant (§4.4: "for each of the participants").
func (e *Engine) HandleOrderDelivered(ctx context.Context, event eventbus.OrderDelivered) {
	participants := []string{event.CustomerID}
	if event.RiderID != "" && event.RiderID != event.CustomerID {
		participants = append(participants, event.RiderID)
	}
	for _, participantID := range participants {
		if participantID == "" {
			continue
		}
		e.processParticipant(ctx, participantID)
	}
}

func (e *Engine) processParticipant(ctx context.Context, userID string) {
	user, err := e.users.Get(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("referral.user_lookup_failed")
		return
	}
	if user.ReferredBy == "" {
		return
	}
	if user.Role == users.RoleRider && user.IsDeactivated() {
		// §8 invariant 6: deactivation is terminal for promo awards.
		return
	}

	unlock := e.locks.Lock(userID)
	defer unlock()

	ref, err := e.repo.GetByReferredUser(ctx, userID)
	if err == ErrNotFound {
		return
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("referral.lookup_failed")
		return
	}
	if ref.IsTerminal() {
		return
	}

	count, err := e.users.CountDeliveredOrders(ctx, userID, user.Role)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("referral.trip_count_failed")
		return
	}
	ref.CompletedTrips = count

	cfg, err := e.promos.Get(ctx)
	if err != nil {
		log.Error().Err(err).Msg("referral.promo_config_load_failed")
		_ = e.repo.Update(ctx, ref)
		return
	}

	if !cfg.Referral.Enabled || ref.CompletedTrips < cfg.Referral.RequiredTrips {
		if err := e.repo.Update(ctx, ref); err != nil {
			log.Error().Err(err).Str("referral_id", ref.ID).Msg("referral.trip_count_persist_failed")
		}
		return
	}

	e.award(ctx, ref, cfg.Referral.RewardAmount)
}

// award performs the five-step award flow from §4.4. The wallet credit
// is performed first; if it fails the referral remains unpaid and a
// future order.delivered reprocesses it. Only once the credit has
// committed is the referral flipped to rewardPaid=true, so a crash
// between the two steps is recovered by reprocessing rather than by a
// cross-repository storage transaction (no file in the retrieved pack
// performs a multi-document Mongo transaction spanning two different
// collections' drivers; internal/wallet's ApplyTransaction does commit
// the wallet balance and its transaction-log entry together).
func (e *Engine) award(ctx context.Context, ref Referral, rewardAmount money.Money) {
	_, txn, err := e.wallet.Credit(ctx, ref.ReferrerID, rewardAmount, wallet.Meta{
		Type:       wallet.TransactionReferralReward,
		ReferralID: ref.ID,
	})
	if err != nil {
		log.Error().Err(err).Str("referral_id", ref.ID).Msg("referral.award_credit_failed")
		if updateErr := e.repo.Update(ctx, ref); updateErr != nil {
			log.Error().Err(updateErr).Str("referral_id", ref.ID).Msg("referral.trip_count_persist_failed")
		}
		return
	}

	now := time.Now()
	ref.RewardPaid = true
	ref.RewardAmount = rewardAmount
	ref.PaidAt = &now
	ref.TransactionID = txn.ID
	if err := e.repo.Update(ctx, ref); err != nil {
		log.Error().Err(err).Str("referral_id", ref.ID).Msg("referral.award_persist_failed")
		return
	}

	referrer, err := e.users.Get(ctx, ref.ReferrerID)
	if err == nil {
		referrer.ReferralRewardEarned += rewardAmount.Atomic
		if err := e.users.Update(ctx, referrer); err != nil {
			log.Error().Err(err).Str("referrer_id", ref.ReferrerID).Msg("referral.referrer_total_update_failed")
		}
	}

	e.metrics.ObserveReferralRedemption("awarded")

	event := callbacks.ReferralPayoutEvent{
		RiderID:        ref.ReferrerID,
		ReferralID:     ref.ID,
		ReferredUserID: ref.ReferredUserID,
		RewardKobo:     rewardAmount.Atomic,
	}
	callbacks.PrepareReferralPayoutEvent(&event)
	e.notifier.ReferralPayout(ctx, event)
}

// Stats computes the per-referrer aggregation behind GET /referral/stats.
func (e *Engine) Stats(ctx context.Context, referrerID string) (ReferrerStats, error) {
	refs, err := e.repo.ListByReferrer(ctx, referrerID)
	if err != nil {
		return ReferrerStats{}, waerrors.Wrap(waerrors.Internal, "failed to load referrals", err)
	}

	stats := ReferrerStats{ReferrerID: referrerID, LifetimeRewarded: money.Zero(money.NGN)}
	for _, ref := range refs {
		stats.TotalReferred++
		if ref.RewardPaid {
			stats.Paid++
			if sum, err := stats.LifetimeRewarded.Add(ref.RewardAmount); err == nil {
				stats.LifetimeRewarded = sum
			}
		} else {
			stats.Pending++
		}
	}
	return stats, nil
}
