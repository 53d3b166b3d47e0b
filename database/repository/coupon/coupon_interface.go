package couponRepo

import (
	"context"
	"errors"

	"sportivox/models"
)

// CollectionName is the MongoDB collection holding coupons.
const CollectionName = "coupons"

var (
	ErrCouponExists   = errors.New("coupon code already exists")
	ErrCouponNotFound = errors.New("coupon not found")
)

// CouponRepository defines methods for coupon data access.
type CouponRepository interface {
	// GetByCode returns the coupon with the given upper-case code, or nil when none exists.
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	// List returns every coupon, newest first.
	List(ctx context.Context) ([]models.Coupon, error)
	// Create inserts a new coupon.
	Create(ctx context.Context, coupon *models.Coupon) error
	// DeleteByCode removes a coupon.
	DeleteByCode(ctx context.Context, code string) error
}
