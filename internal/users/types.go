// Package users holds the User entity shared by every engine in the
// earnings core: the Commission Splitter reads serviceType eligibility
// off it, the promotion engines read and write its promo-state fields,
// and Enforcement Actions writes its blocking/deactivation fields.
package users

import "time"

// Role is the three-way identity a User can hold on the platform.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleRider    Role = "rider"
	RoleAdmin    Role = "admin"
)

// StrikeEvent is one entry in a rider's ordered strike history, appended
// by Enforcement Actions' addStrike.
type StrikeEvent struct {
	At       time.Time `bson:"at" json:"at"`
	Reason   string    `bson:"reason" json:"reason"`
	PayoutID string    `bson:"payoutId" json:"payoutId"`
}

// GoldStatus is the rider's current Gold Status standing, graded by the
// Gold Status Engine. Expiry is lazy: IsActiveAt tests ExpiresAt against
// the caller's now rather than eagerly clearing the record.
type GoldStatus struct {
	IsActive        bool      `bson:"isActive" json:"isActive"`
	UnlockedAt      time.Time `bson:"unlockedAt" json:"unlockedAt"`
	ExpiresAt       time.Time `bson:"expiresAt" json:"expiresAt"`
	DiscountPercent int       `bson:"discountPercent" json:"discountPercent"`
	TotalUnlocks    int       `bson:"totalUnlocks" json:"totalUnlocks"`
	ExpiryNotified  bool      `bson:"expiryNotified" json:"expiryNotified"`
}

// IsActiveAt reports whether the discount applies at t. isActive is
// maintained eagerly at grant time but a read must still test expiry.
func (g GoldStatus) IsActiveAt(t time.Time) bool {
	return g.IsActive && g.ExpiresAt.After(t)
}

// User is the identity record for a customer, rider, or admin.
type User struct {
	ID    string `bson:"_id" json:"id"`
	Role  Role   `bson:"role" json:"role"`
	Email string `bson:"email" json:"email"`
	Phone string `bson:"phoneNumber" json:"phoneNumber"`
	NIN   string `bson:"nin,omitempty" json:"nin,omitempty"`

	// Referral graph. ReferralCode is unique and stamped on every user;
	// ReferredBy is a lookup edge only, set at most once.
	ReferralCode string `bson:"referralCode" json:"referralCode"`
	ReferredBy   string `bson:"referredBy,omitempty" json:"referredBy,omitempty"`

	// Rider-only enforcement state.
	PaymentBlocked       bool          `bson:"paymentBlocked" json:"paymentBlocked"`
	PaymentBlockedAt     *time.Time    `bson:"paymentBlockedAt,omitempty" json:"paymentBlockedAt,omitempty"`
	PaymentBlockedReason string        `bson:"paymentBlockedReason,omitempty" json:"paymentBlockedReason,omitempty"`
	PaymentBlockedPayoutID string      `bson:"paymentBlockedPayoutId,omitempty" json:"paymentBlockedPayoutId,omitempty"`
	Strikes              []StrikeEvent `bson:"strikes" json:"strikes"`
	AccountDeactivated   bool          `bson:"accountDeactivated" json:"accountDeactivated"`
	AccountDeactivatedAt *time.Time    `bson:"accountDeactivatedAt,omitempty" json:"accountDeactivatedAt,omitempty"`
	AccountDeactivatedReason string    `bson:"accountDeactivatedReason,omitempty" json:"accountDeactivatedReason,omitempty"`

	// Rider-only promotion state.
	CompletedTrips       int        `bson:"completedTrips" json:"completedTrips"`
	CurrentStreak        int        `bson:"currentStreak" json:"currentStreak"`
	LastStreakBonusAt    *time.Time `bson:"lastStreakBonusAt,omitempty" json:"lastStreakBonusAt,omitempty"`
	TotalStreakBonuses   int        `bson:"totalStreakBonuses" json:"totalStreakBonuses"`
	ReferralRewardEarned int64      `bson:"referralRewardEarned" json:"referralRewardEarned"`
	GoldStatus           GoldStatus `bson:"goldStatus" json:"goldStatus"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsBlocked reports whether the rider is currently payment-blocked.
func (u User) IsBlocked() bool {
	return u.PaymentBlocked
}

// IsDeactivated reports whether the rider's account has been deactivated.
// Per §8 invariant 6, deactivation is terminal until an explicit reactivate.
func (u User) IsDeactivated() bool {
	return u.AccountDeactivated
}

// TripCountField names which counter a role contributes to when the
// Referral Engine counts a participant's delivered orders (§4.4: "count
// the user's delivered orders, role-aware").
func (u User) TripCountField() string {
	if u.Role == RoleRider {
		return "rider"
	}
	return "customer"
}
