// Package enforcement implements Enforcement Actions (C9): blocking,
// striking, and deactivating riders, plus the BlockedCredentials record
// that makes a deactivated rider's identity permanently unable to
// re-register (§4.9).
package enforcement

import "time"

// BlockedCredentials is inserted on deactivate, copying the rider's
// identity fields so registration can reject them even after the
// original User document is gone. Only an admin-only purge (not
// modeled here as a normal operation) removes a record.
type BlockedCredentials struct {
	ID          string    `bson:"_id" json:"id"`
	RiderID     string    `bson:"riderId" json:"riderId"`
	NIN         string    `bson:"nin,omitempty" json:"nin,omitempty"`
	Email       string    `bson:"email,omitempty" json:"email,omitempty"`
	PhoneNumber string    `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Reason      string    `bson:"reason" json:"reason"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}
