package promoconfig

import (
	"context"
	"fmt"
	"os"

	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
	"gopkg.in/yaml.v3"
)

// yamlPromoConfig mirrors PromoConfig with plain integer fields, the way
// the teacher's coupons.yaml_repository reads plain config.Coupon
// structs before converting them into the domain type — PromoConfig
// amounts are declared in kobo directly in the seed file rather than
// round-tripping through money.Money's JSON codec.
type yamlPromoConfig struct {
	Referral struct {
		Enabled       bool  `yaml:"enabled"`
		RewardAtomic  int64 `yaml:"rewardAtomicKobo"`
		RequiredTrips int   `yaml:"requiredTrips"`
	} `yaml:"referral"`
	Streak struct {
		Enabled        bool  `yaml:"enabled"`
		BonusAtomic    int64 `yaml:"bonusAtomicKobo"`
		RequiredStreak int   `yaml:"requiredStreak"`
	} `yaml:"streak"`
	GoldStatus struct {
		Enabled         bool `yaml:"enabled"`
		RequiredRides   int  `yaml:"requiredRides"`
		WindowDays      int  `yaml:"windowDays"`
		DurationDays    int  `yaml:"durationDays"`
		DiscountPercent int  `yaml:"discountPercent"`
	} `yaml:"goldStatus"`
}

// LoadSeedFile parses a PromoConfig seed YAML file into PromoConfig.
func LoadSeedFile(path string) (PromoConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PromoConfig{}, fmt.Errorf("read promo config seed file: %w", err)
	}

	var parsed yamlPromoConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return PromoConfig{}, fmt.Errorf("parse promo config seed file: %w", err)
	}

	cfg := PromoConfig{
		Referral: ReferralConfig{
			Enabled:       parsed.Referral.Enabled,
			RewardAmount:  money.New(money.NGN, parsed.Referral.RewardAtomic),
			RequiredTrips: parsed.Referral.RequiredTrips,
		},
		Streak: StreakConfig{
			Enabled:        parsed.Streak.Enabled,
			BonusAmount:    money.New(money.NGN, parsed.Streak.BonusAtomic),
			RequiredStreak: parsed.Streak.RequiredStreak,
		},
		GoldStatus: GoldStatusConfig{
			Enabled:         parsed.GoldStatus.Enabled,
			RequiredRides:   parsed.GoldStatus.RequiredRides,
			WindowDays:      parsed.GoldStatus.WindowDays,
			DurationDays:    parsed.GoldStatus.DurationDays,
			DiscountPercent: parsed.GoldStatus.DiscountPercent,
		},
	}
	return cfg, nil
}

// SeedIfEmpty writes cfg to repo only if no PromoConfig document exists
// yet (Get returns ErrNotFound) — it never clobbers an admin's prior
// changes on restart, matching the "seeded on first use" contract in
// SPEC_FULL §10.2.
func SeedIfEmpty(ctx context.Context, repo Repository, cfg PromoConfig) error {
	_, err := repo.Get(ctx)
	if err == nil {
		return nil
	}
	if err != ErrNotFound {
		return fmt.Errorf("check existing promo config: %w", err)
	}

	cfg.UpdatedBy = "seed"
	return repo.Save(ctx, cfg)
}
