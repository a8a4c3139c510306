package promoconfig

import (
	"context"
	"testing"

	waerrors "github.com/toyorcee/9thwaka-earnings-core/internal/errors"
	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
)

func newTestStore() *Store {
	return NewStore(NewMemoryRepository())
}

func TestStore_GetReturnsDefaultOnFirstCall(t *testing.T) {
	store := newTestStore()

	cfg, err := store.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	want := Default()
	if cfg.Referral.RequiredTrips != want.Referral.RequiredTrips {
		t.Fatalf("RequiredTrips = %d, want %d", cfg.Referral.RequiredTrips, want.Referral.RequiredTrips)
	}
	if cfg.GoldStatus.DiscountPercent != want.GoldStatus.DiscountPercent {
		t.Fatalf("DiscountPercent = %d, want %d", cfg.GoldStatus.DiscountPercent, want.GoldStatus.DiscountPercent)
	}
}

func TestStore_UpdateReferral_PersistsAndIsVisibleImmediately(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	trips := 10
	updated, err := store.UpdateReferral(ctx, ReferralPartial{RequiredTrips: &trips}, "admin-1")
	if err != nil {
		t.Fatalf("UpdateReferral() error = %v", err)
	}
	if updated.Referral.RequiredTrips != 10 {
		t.Fatalf("RequiredTrips = %d, want 10", updated.Referral.RequiredTrips)
	}
	if updated.UpdatedBy != "admin-1" {
		t.Fatalf("UpdatedBy = %q, want admin-1", updated.UpdatedBy)
	}

	// A fresh Get must reflect the new value immediately, proving the
	// cache was invalidated on write rather than served stale until TTL.
	again, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again.Referral.RequiredTrips != 10 {
		t.Fatalf("cached Get RequiredTrips = %d, want 10", again.Referral.RequiredTrips)
	}
}

func TestStore_UpdateReferral_RejectsOutOfRangeValue(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	tooMany := 500
	_, err := store.UpdateReferral(ctx, ReferralPartial{RequiredTrips: &tooMany}, "admin-1")
	if err == nil {
		t.Fatal("expected error for out-of-range RequiredTrips")
	}
	if waerrors.KindOf(err) != waerrors.InvalidInput {
		t.Fatalf("expected InvalidInput, got %v", waerrors.KindOf(err))
	}

	// Rejected update must not have persisted.
	cfg, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if cfg.Referral.RequiredTrips == 500 {
		t.Fatal("invalid update should not have been persisted")
	}
}

func TestStore_UpdateStreak_AppliesPartial(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	amount := money.New(money.NGN, 750)
	updated, err := store.UpdateStreak(ctx, StreakPartial{BonusAmount: &amount}, "admin-2")
	if err != nil {
		t.Fatalf("UpdateStreak() error = %v", err)
	}
	if updated.Streak.BonusAmount.Atomic != 750 {
		t.Fatalf("BonusAmount = %d, want 750", updated.Streak.BonusAmount.Atomic)
	}
	// RequiredStreak untouched.
	if updated.Streak.RequiredStreak != Default().Streak.RequiredStreak {
		t.Fatalf("RequiredStreak changed unexpectedly: %d", updated.Streak.RequiredStreak)
	}
}

func TestStore_UpdateGoldStatus_RejectsInvalidDiscount(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	bad := 150
	_, err := store.UpdateGoldStatus(ctx, GoldStatusPartial{DiscountPercent: &bad}, "admin-3")
	if waerrors.KindOf(err) != waerrors.InvalidInput {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestStore_ToggleAll_FlipsAllThreeSections(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	updated, err := store.ToggleAll(ctx, false, "admin-4")
	if err != nil {
		t.Fatalf("ToggleAll() error = %v", err)
	}
	if updated.Referral.Enabled || updated.Streak.Enabled || updated.GoldStatus.Enabled {
		t.Fatal("expected all sections disabled")
	}

	updated, err = store.ToggleAll(ctx, true, "admin-4")
	if err != nil {
		t.Fatalf("ToggleAll() error = %v", err)
	}
	if !updated.Referral.Enabled || !updated.Streak.Enabled || !updated.GoldStatus.Enabled {
		t.Fatal("expected all sections enabled")
	}
}

func TestStore_History_ReturnsMostRecentFirst(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	trips := 3
	if _, err := store.UpdateReferral(ctx, ReferralPartial{RequiredTrips: &trips}, "admin-5"); err != nil {
		t.Fatalf("UpdateReferral() error = %v", err)
	}
	if _, err := store.ToggleAll(ctx, false, "admin-6"); err != nil {
		t.Fatalf("ToggleAll() error = %v", err)
	}

	history, err := store.History(ctx)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(history))
	}
	if history[0].Section != SectionAll || history[0].ActorID != "admin-6" {
		t.Fatalf("unexpected first record: %+v", history[0])
	}
	if history[1].Section != SectionReferral || history[1].ActorID != "admin-5" {
		t.Fatalf("unexpected second record: %+v", history[1])
	}
	if history[1].ID == "" {
		t.Fatal("audit record should have a generated ID")
	}
}
