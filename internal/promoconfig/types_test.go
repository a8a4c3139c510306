package promoconfig

import (
	"testing"

	waerrors "github.com/toyorcee/9thwaka-earnings-core/internal/errors"
	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
)

func TestReferralConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ReferralConfig
		wantErr bool
	}{
		{"valid", ReferralConfig{RewardAmount: money.New(money.NGN, 1000), RequiredTrips: 2}, false},
		{"reward too low", ReferralConfig{RewardAmount: money.New(money.NGN, -1), RequiredTrips: 2}, true},
		{"reward too high", ReferralConfig{RewardAmount: money.New(money.NGN, 100001), RequiredTrips: 2}, true},
		{"trips zero", ReferralConfig{RewardAmount: money.New(money.NGN, 1000), RequiredTrips: 0}, true},
		{"trips too high", ReferralConfig{RewardAmount: money.New(money.NGN, 1000), RequiredTrips: 101}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && waerrors.KindOf(err) != waerrors.InvalidInput {
				t.Fatalf("expected InvalidInput kind, got %v", waerrors.KindOf(err))
			}
		})
	}
}

func TestStreakConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     StreakConfig
		wantErr bool
	}{
		{"valid", StreakConfig{BonusAmount: money.New(money.NGN, 500), RequiredStreak: 3}, false},
		{"bonus too high", StreakConfig{BonusAmount: money.New(money.NGN, 100001), RequiredStreak: 3}, true},
		{"streak too high", StreakConfig{BonusAmount: money.New(money.NGN, 500), RequiredStreak: 101}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGoldStatusConfig_Validate(t *testing.T) {
	base := GoldStatusConfig{RequiredRides: 7, WindowDays: 10, DurationDays: 30, DiscountPercent: 5}

	tests := []struct {
		name    string
		mutate  func(c GoldStatusConfig) GoldStatusConfig
		wantErr bool
	}{
		{"valid", func(c GoldStatusConfig) GoldStatusConfig { return c }, false},
		{"rides zero", func(c GoldStatusConfig) GoldStatusConfig { c.RequiredRides = 0; return c }, true},
		{"window too high", func(c GoldStatusConfig) GoldStatusConfig { c.WindowDays = 366; return c }, true},
		{"duration zero", func(c GoldStatusConfig) GoldStatusConfig { c.DurationDays = 0; return c }, true},
		{"discount negative", func(c GoldStatusConfig) GoldStatusConfig { c.DiscountPercent = -1; return c }, true},
		{"discount over 100", func(c GoldStatusConfig) GoldStatusConfig { c.DiscountPercent = 101; return c }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(base).Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyReferralPartial_LeavesUnsetFieldsUnchanged(t *testing.T) {
	current := ReferralConfig{Enabled: true, RewardAmount: money.New(money.NGN, 1000), RequiredTrips: 2}
	trips := 5

	updated := applyReferralPartial(current, ReferralPartial{RequiredTrips: &trips})

	if updated.RequiredTrips != 5 {
		t.Fatalf("RequiredTrips = %d, want 5", updated.RequiredTrips)
	}
	if !updated.Enabled {
		t.Fatal("Enabled should be left unchanged (true)")
	}
	if updated.RewardAmount.Atomic != 1000 {
		t.Fatalf("RewardAmount should be left unchanged, got %d", updated.RewardAmount.Atomic)
	}
}
