package models

import "time"

// Coupon discount types.
const (
	CouponTypePercent = "percent"
	CouponTypeAmount  = "amount"
)

// Coupon is a discount code redeemable at checkout. Codes are stored upper-case.
type Coupon struct {
	ID          string    `bson:"id" json:"id"`
	Code        string    `bson:"code" json:"code"`
	Type        string    `bson:"type" json:"type"` // "percent" or "amount"
	Value       float64   `bson:"value" json:"value"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}
