package orders

import (
	"time"

	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
)

type ServiceType string

const (
	ServiceTypeCourier ServiceType = "courier"
	ServiceTypeRide    ServiceType = "ride"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusPickedUp   Status = "picked_up"
	StatusDelivering Status = "delivering"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Financial is frozen onto an Order the moment the Commission Splitter
// processes its delivery. CommissionRatePct is the effective percent
// actually applied (post Gold Status discount, if any), not the raw
// configured rate.
type Financial struct {
	GrossAmount       money.Money `bson:"grossAmount" json:"grossAmount"`
	CommissionRatePct float64     `bson:"commissionRatePct" json:"commissionRatePct"`
	CommissionAmount  money.Money `bson:"commissionAmount" json:"commissionAmount"`
	RiderNetAmount    money.Money `bson:"riderNetAmount" json:"riderNetAmount"`
}

// IsSet reports whether the Commission Splitter has already run for this
// order — every delivered order has a strictly positive gross amount, so
// a zero GrossAmount means the split has not happened yet.
func (f Financial) IsSet() bool {
	return f.GrossAmount.Atomic != 0
}

type Delivery struct {
	DeliveredAt *time.Time `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
}

type Order struct {
	ID          string      `bson:"_id" json:"id"`
	CustomerID  string      `bson:"customerId" json:"customerId"`
	RiderID     string      `bson:"riderId,omitempty" json:"riderId,omitempty"`
	ServiceType ServiceType `bson:"serviceType" json:"serviceType"`
	Price       money.Money `bson:"price" json:"price"`
	Status      Status      `bson:"status" json:"status"`
	Delivery    Delivery    `bson:"delivery" json:"delivery"`
	Financial   Financial   `bson:"financial" json:"financial"`
	CreatedAt   time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time   `bson:"updatedAt" json:"updatedAt"`
}

func (o Order) IsDelivered() bool { return o.Status == StatusDelivered }
func (o Order) IsSplit() bool     { return o.Financial.IsSet() }

// DeliveredAt is a convenience accessor; it panics-free zero value when
// the order has not been delivered yet.
func (o Order) DeliveredAt() time.Time {
	if o.Delivery.DeliveredAt == nil {
		return time.Time{}
	}
	return *o.Delivery.DeliveredAt
}
