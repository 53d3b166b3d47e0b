package checkout

import (
	"testing"

	"sportivox/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDiscount(t *testing.T) {
	tests := []struct {
		name     string
		coupon   models.Coupon
		subtotal float64
		want     float64
	}{
		{"percent", models.Coupon{Type: models.CouponTypePercent, Value: 10}, 100, 10},
		{"percent rounds to cents", models.Coupon{Type: models.CouponTypePercent, Value: 15}, 33.33, 5},
		{"amount", models.Coupon{Type: models.CouponTypeAmount, Value: 5}, 40, 5},
		{"amount above subtotal is not capped", models.Coupon{Type: models.CouponTypeAmount, Value: 50}, 40, 50},
		{"zero percent", models.Coupon{Type: models.CouponTypePercent, Value: 0}, 40, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeDiscount(tt.coupon, tt.subtotal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeDiscountRejects(t *testing.T) {
	_, err := ComputeDiscount(models.Coupon{Type: "bogo", Value: 1}, 10)
	assert.ErrorIs(t, err, ErrUnsupportedCouponType)

	_, err = ComputeDiscount(models.Coupon{Type: models.CouponTypeAmount, Value: -3}, 10)
	assert.ErrorIs(t, err, ErrInvalidCouponValue)
}

func TestFinalPrice(t *testing.T) {
	assert.Equal(t, 90.0, FinalPrice(100, 10))
	assert.Equal(t, 0.0, FinalPrice(40, 50))
	assert.Equal(t, 0.0, FinalPrice(40, 40))
	assert.Equal(t, 0.3, FinalPrice(0.5, 0.2))
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(9000), ToMinorUnits(90))
	assert.Equal(t, int64(1999), ToMinorUnits(19.99))
	assert.Equal(t, int64(30), ToMinorUnits(0.3))
	assert.Equal(t, int64(0), ToMinorUnits(0))
}
