package checkout

import (
	"fmt"

	"sportivox/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeDiscount converts a coupon into a monetary discount against subtotal.
// Amount coupons are not capped here; FinalPrice clamps the result.
func ComputeDiscount(coupon models.Coupon, subtotal float64) (float64, error) {
	if coupon.Value < 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCouponValue, coupon.Value)
	}
	value := decimal.NewFromFloat(coupon.Value)

	switch coupon.Type {
	case models.CouponTypePercent:
		d := decimal.NewFromFloat(subtotal).Mul(value).Div(hundred)
		return d.Round(2).InexactFloat64(), nil
	case models.CouponTypeAmount:
		return value.Round(2).InexactFloat64(), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedCouponType, coupon.Type)
	}
}

// FinalPrice returns max(0, subtotal - discount).
func FinalPrice(subtotal, discount float64) float64 {
	final := decimal.NewFromFloat(subtotal).Sub(decimal.NewFromFloat(discount))
	if final.IsNegative() {
		return 0
	}
	return final.Round(2).InexactFloat64()
}

// ToMinorUnits converts an amount to the processor's smallest currency unit.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(hundred).Round(0).IntPart()
}
