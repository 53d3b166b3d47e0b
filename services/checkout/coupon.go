package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sportivox/models"
)

// CouponState is a step of the coupon application workflow.
type CouponState string

const (
	CouponNoneEntered CouponState = "no_coupon_entered"
	CouponEntered     CouponState = "coupon_entered"
	CouponValidating  CouponState = "coupon_validating"
	CouponApplied     CouponState = "coupon_applied"
)

// CouponLookup finds a coupon by its normalized code. A miss is (nil, nil).
type CouponLookup interface {
	Lookup(ctx context.Context, code string) (*models.Coupon, error)
}

// NormalizeCode trims and upper-cases a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CouponApplication tracks the single coupon a checkout may carry.
// A rejection returns it to CouponNoneEntered with the input kept, so the
// member can edit and retry. Once applied it can not be replaced.
type CouponApplication struct {
	State         CouponState    `json:"state"`
	Input         string         `json:"input,omitempty"`
	Coupon        *models.Coupon `json:"coupon,omitempty"`
	Discount      float64        `json:"discount"`
	LastRejection string         `json:"lastRejection,omitempty"`
}

// Applied reports whether a coupon is active.
func (a *CouponApplication) Applied() bool {
	return a.State == CouponApplied
}

// Code returns the applied coupon code, or "".
func (a *CouponApplication) Code() string {
	if !a.Applied() || a.Coupon == nil {
		return ""
	}
	return a.Coupon.Code
}

// Enter records the member's input. It is ignored once a coupon is applied
// or while validation runs.
func (a *CouponApplication) Enter(code string) {
	if a.State == CouponApplied || a.State == CouponValidating {
		return
	}
	a.Input = code
	if strings.TrimSpace(code) == "" {
		a.State = CouponNoneEntered
		return
	}
	a.State = CouponEntered
}

// Begin checks the guards and moves to CouponValidating, returning the
// normalized code to look up. A guard failure leaves the state untouched.
func (a *CouponApplication) Begin() (string, error) {
	switch {
	case a.State == CouponApplied:
		return "", ErrCouponAlreadyApplied
	case a.State == CouponValidating:
		return "", ErrCouponValidationInFlight
	}
	code := NormalizeCode(a.Input)
	if code == "" {
		return "", ErrEmptyCouponCode
	}
	a.State = CouponValidating
	return code, nil
}

// Resolve completes validation with the lookup result.
func (a *CouponApplication) Resolve(coupon *models.Coupon, subtotal float64) error {
	if coupon == nil {
		return a.Reject(ErrCouponNotFound)
	}
	discount, err := ComputeDiscount(*coupon, subtotal)
	if err != nil {
		return a.Reject(err)
	}
	a.State = CouponApplied
	a.Coupon = coupon
	a.Discount = discount
	a.LastRejection = ""
	return nil
}

// Reject records a failed validation and reopens the input. It returns err.
func (a *CouponApplication) Reject(err error) error {
	a.State = CouponNoneEntered
	a.Coupon = nil
	a.Discount = 0
	a.LastRejection = err.Error()
	return err
}

// Apply runs the whole workflow against lookup and returns the discount.
// Guard failures issue no lookup.
func (a *CouponApplication) Apply(ctx context.Context, lookup CouponLookup, subtotal float64) (float64, error) {
	code, err := a.Begin()
	if err != nil {
		return 0, err
	}
	coupon, err := lookup.Lookup(ctx, code)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return 0, a.Reject(ErrCouponNotFound)
		}
		return 0, a.Reject(fmt.Errorf("%w: %v", ErrCouponLookupFailed, err))
	}
	if err := a.Resolve(coupon, subtotal); err != nil {
		return 0, err
	}
	return a.Discount, nil
}
