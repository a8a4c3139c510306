package promoconfig

import (
	"context"
	"sync"
	"time"

	"github.com/toyorcee/9thwaka-earnings-core/internal/cacheutil"
	waerrors "github.com/toyorcee/9thwaka-earnings-core/internal/errors"
)

const SectionAll Section = "all"

// Store is the PromoConfig Store (C1): a read-through cache in front of
// Repository with write-through invalidation, so a successful update on
// any worker is visible to the next get() on any other worker within
// one TTL window (§4.1's "single-process: in-memory cache cleared;
// multi-process: version stamp polled" — this implementation polls via
// TTL expiry rather than a separate invalidation channel).
type Store struct {
	repo  Repository
	mu    sync.RWMutex
	cache cacheutil.CachedValue[PromoConfig]
	ttl   time.Duration
}

func NewStore(repo Repository) *Store {
	return &Store{repo: repo, ttl: 30 * time.Second}
}

// Get returns the current PromoConfig, from cache if fresh.
func (s *Store) Get(ctx context.Context) (PromoConfig, error) {
	return cacheutil.ReadThrough(
		&s.mu,
		func(now time.Time) (PromoConfig, bool) {
			if !s.cache.FetchedAt.IsZero() && now.Sub(s.cache.FetchedAt) < s.ttl {
				return s.cache.Value, true
			}
			return PromoConfig{}, false
		},
		func(now time.Time) (PromoConfig, error) {
			cfg, err := s.repo.Get(ctx)
			if err != nil {
				return PromoConfig{}, waerrors.Wrap(waerrors.Internal, "failed to load promo config", err)
			}
			s.cache = cacheutil.CachedValue[PromoConfig]{Value: cfg, FetchedAt: now}
			return cfg, nil
		},
	)
}

func (s *Store) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = cacheutil.CachedValue[PromoConfig]{}
}

// UpdateReferral applies a partial update to the referral sub-config.
func (s *Store) UpdateReferral(ctx context.Context, partial ReferralPartial, actorID string) (PromoConfig, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return PromoConfig{}, err
	}
	updated := current
	updated.Referral = applyReferralPartial(current.Referral, partial)
	if err := updated.Referral.Validate(); err != nil {
		return PromoConfig{}, err
	}
	return s.commit(ctx, current, updated, SectionReferral, actorID)
}

// UpdateStreak applies a partial update to the streak sub-config.
func (s *Store) UpdateStreak(ctx context.Context, partial StreakPartial, actorID string) (PromoConfig, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return PromoConfig{}, err
	}
	updated := current
	updated.Streak = applyStreakPartial(current.Streak, partial)
	if err := updated.Streak.Validate(); err != nil {
		return PromoConfig{}, err
	}
	return s.commit(ctx, current, updated, SectionStreak, actorID)
}

// UpdateGoldStatus applies a partial update to the Gold Status sub-config.
func (s *Store) UpdateGoldStatus(ctx context.Context, partial GoldStatusPartial, actorID string) (PromoConfig, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return PromoConfig{}, err
	}
	updated := current
	updated.GoldStatus = applyGoldStatusPartial(current.GoldStatus, partial)
	if err := updated.GoldStatus.Validate(); err != nil {
		return PromoConfig{}, err
	}
	return s.commit(ctx, current, updated, SectionGoldStatus, actorID)
}

// ToggleAll enables or disables all three promotions in one update.
func (s *Store) ToggleAll(ctx context.Context, enabled bool, actorID string) (PromoConfig, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return PromoConfig{}, err
	}
	updated := current
	updated.Referral.Enabled = enabled
	updated.Streak.Enabled = enabled
	updated.GoldStatus.Enabled = enabled
	return s.commit(ctx, current, updated, SectionAll, actorID)
}

// History returns the audit trail, most recent first.
func (s *Store) History(ctx context.Context) ([]AuditRecord, error) {
	records, err := s.repo.ListAudit(ctx)
	if err != nil {
		return nil, waerrors.Wrap(waerrors.Internal, "failed to load promo config history", err)
	}
	return records, nil
}

func (s *Store) commit(ctx context.Context, old, updated PromoConfig, section Section, actorID string) (PromoConfig, error) {
	updated.UpdatedAt = time.Now()
	updated.UpdatedBy = actorID

	err := cacheutil.WriteThrough(s.invalidate, func() error {
		if err := s.repo.Save(ctx, updated); err != nil {
			return err
		}
		return s.repo.AppendAudit(ctx, AuditRecord{
			Section:  section,
			ActorID:  actorID,
			OldValue: old,
			NewValue: updated,
			At:       updated.UpdatedAt,
		})
	})
	if err != nil {
		return PromoConfig{}, waerrors.Wrap(waerrors.Internal, "failed to persist promo config update", err)
	}
	return updated, nil
}
