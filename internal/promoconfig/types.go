package promoconfig

import (
	"time"

	waerrors "github.com/toyorcee/9thwaka-earnings-core/internal/errors"
	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
)

type Section string

const (
	SectionReferral   Section = "referral"
	SectionStreak     Section = "streak"
	SectionGoldStatus Section = "gold-status"
)

type ReferralConfig struct {
	Enabled       bool        `bson:"enabled" json:"enabled"`
	RewardAmount  money.Money `bson:"rewardAmount" json:"rewardAmount"`
	RequiredTrips int         `bson:"requiredTrips" json:"requiredTrips"`
}

func (c ReferralConfig) Validate() error {
	if c.RewardAmount.Atomic < 0 || c.RewardAmount.Atomic > 100000 {
		return waerrors.New(waerrors.InvalidInput, "referral.rewardAmount must be in [0,100000]")
	}
	if c.RequiredTrips < 1 || c.RequiredTrips > 100 {
		return waerrors.New(waerrors.InvalidInput, "referral.requiredTrips must be in [1,100]")
	}
	return nil
}

type StreakConfig struct {
	Enabled        bool        `bson:"enabled" json:"enabled"`
	BonusAmount    money.Money `bson:"bonusAmount" json:"bonusAmount"`
	RequiredStreak int         `bson:"requiredStreak" json:"requiredStreak"`
}

func (c StreakConfig) Validate() error {
	if c.BonusAmount.Atomic < 0 || c.BonusAmount.Atomic > 100000 {
		return waerrors.New(waerrors.InvalidInput, "streak.bonusAmount must be in [0,100000]")
	}
	if c.RequiredStreak < 1 || c.RequiredStreak > 100 {
		return waerrors.New(waerrors.InvalidInput, "streak.requiredStreak must be in [1,100]")
	}
	return nil
}

type GoldStatusConfig struct {
	Enabled         bool `bson:"enabled" json:"enabled"`
	RequiredRides   int  `bson:"requiredRides" json:"requiredRides"`
	WindowDays      int  `bson:"windowDays" json:"windowDays"`
	DurationDays    int  `bson:"durationDays" json:"durationDays"`
	DiscountPercent int  `bson:"discountPercent" json:"discountPercent"`
}

func (c GoldStatusConfig) Validate() error {
	if c.RequiredRides < 1 || c.RequiredRides > 100 {
		return waerrors.New(waerrors.InvalidInput, "goldStatus.requiredRides must be in [1,100]")
	}
	if c.WindowDays < 1 || c.WindowDays > 365 {
		return waerrors.New(waerrors.InvalidInput, "goldStatus.windowDays must be in [1,365]")
	}
	if c.DurationDays < 1 || c.DurationDays > 365 {
		return waerrors.New(waerrors.InvalidInput, "goldStatus.durationDays must be in [1,365]")
	}
	if c.DiscountPercent < 0 || c.DiscountPercent > 100 {
		return waerrors.New(waerrors.InvalidInput, "goldStatus.discountPercent must be in [0,100]")
	}
	return nil
}

// PromoConfig is the process-wide singleton document (§4.1).
type PromoConfig struct {
	Referral   ReferralConfig   `bson:"referral" json:"referral"`
	Streak     StreakConfig     `bson:"streak" json:"streak"`
	GoldStatus GoldStatusConfig `bson:"goldStatus" json:"goldStatus"`
	UpdatedAt  time.Time        `bson:"updatedAt" json:"updatedAt"`
	UpdatedBy  string           `bson:"updatedBy" json:"updatedBy"`
}

// AuditRecord is an immutable log entry appended on every admin change
// to PromoConfig (§13 supplemented admin audit trail).
type AuditRecord struct {
	ID        string      `bson:"_id" json:"id"`
	Section   Section     `bson:"section" json:"section"`
	ActorID   string      `bson:"actorId" json:"actorId"`
	OldValue  PromoConfig `bson:"oldValue" json:"oldValue"`
	NewValue  PromoConfig `bson:"newValue" json:"newValue"`
	At        time.Time   `bson:"at" json:"at"`
}

// ReferralPartial, StreakPartial and GoldStatusPartial carry optional
// fields for a PATCH-style updateSection call; nil fields are left
// unchanged.
type ReferralPartial struct {
	Enabled       *bool
	RewardAmount  *money.Money
	RequiredTrips *int
}

type StreakPartial struct {
	Enabled        *bool
	BonusAmount    *money.Money
	RequiredStreak *int
}

type GoldStatusPartial struct {
	Enabled         *bool
	RequiredRides   *int
	WindowDays      *int
	DurationDays    *int
	DiscountPercent *int
}

func applyReferralPartial(cfg ReferralConfig, p ReferralPartial) ReferralConfig {
	if p.Enabled != nil {
		cfg.Enabled = *p.Enabled
	}
	if p.RewardAmount != nil {
		cfg.RewardAmount = *p.RewardAmount
	}
	if p.RequiredTrips != nil {
		cfg.RequiredTrips = *p.RequiredTrips
	}
	return cfg
}

func applyStreakPartial(cfg StreakConfig, p StreakPartial) StreakConfig {
	if p.Enabled != nil {
		cfg.Enabled = *p.Enabled
	}
	if p.BonusAmount != nil {
		cfg.BonusAmount = *p.BonusAmount
	}
	if p.RequiredStreak != nil {
		cfg.RequiredStreak = *p.RequiredStreak
	}
	return cfg
}

func applyGoldStatusPartial(cfg GoldStatusConfig, p GoldStatusPartial) GoldStatusConfig {
	if p.Enabled != nil {
		cfg.Enabled = *p.Enabled
	}
	if p.RequiredRides != nil {
		cfg.RequiredRides = *p.RequiredRides
	}
	if p.WindowDays != nil {
		cfg.WindowDays = *p.WindowDays
	}
	if p.DurationDays != nil {
		cfg.DurationDays = *p.DurationDays
	}
	if p.DiscountPercent != nil {
		cfg.DiscountPercent = *p.DiscountPercent
	}
	return cfg
}

// Default returns the out-of-the-box PromoConfig used when no document
// exists yet and no YAML seed is configured.
func Default() PromoConfig {
	return PromoConfig{
		Referral:   ReferralConfig{Enabled: true, RewardAmount: money.New(money.NGN, 1000), RequiredTrips: 2},
		Streak:     StreakConfig{Enabled: true, BonusAmount: money.New(money.NGN, 500), RequiredStreak: 3},
		GoldStatus: GoldStatusConfig{Enabled: true, RequiredRides: 7, WindowDays: 10, DurationDays: 30, DiscountPercent: 5},
	}
}
