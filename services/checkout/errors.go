package checkout

import (
	"errors"
	"fmt"

	"sportivox/models"
)

// Validation errors are raised before any remote call is made.
var (
	ErrEmptyCouponCode          = errors.New("coupon code is empty")
	ErrCouponAlreadyApplied     = errors.New("a coupon is already applied to this checkout")
	ErrCouponValidationInFlight = errors.New("coupon validation already in progress")
	ErrMissingPaymentMethod     = errors.New("payment method is required")
	ErrInvalidAmount            = errors.New("invalid payment amount")
	ErrAmountTooSmall           = errors.New("amount is below the processor minimum")
)

// Coupon rejections. The checkout stays open and the member may retry.
var (
	ErrCouponNotFound        = errors.New("coupon not found")
	ErrUnsupportedCouponType = errors.New("unsupported coupon type")
	ErrInvalidCouponValue    = errors.New("invalid coupon value")
	ErrCouponLookupFailed    = errors.New("coupon lookup failed")
)

// Session and settlement errors.
var (
	ErrSessionNotFound   = errors.New("checkout session not found")
	ErrSessionSettled    = errors.New("checkout session already settled")
	ErrPaymentInFlight   = errors.New("payment already in progress")
	ErrBookingNotPayable = errors.New("booking cannot be paid")
	ErrPartialSettlement = errors.New("payment recorded but booking still unpaid")
	ErrSettlementPending = errors.New("payment received but not yet recorded")
)

// PaymentErrorKind separates processor declines from service failures.
type PaymentErrorKind string

const (
	PaymentErrorService  PaymentErrorKind = "service"
	PaymentErrorDeclined PaymentErrorKind = "declined"
)

// PaymentError is returned when the processor step of a settlement fails.
// Nothing has been persisted when it is returned.
type PaymentError struct {
	Kind    PaymentErrorKind
	Step    string // "create_intent" or "confirm_intent"
	Message string // processor message for declines
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Kind == PaymentErrorDeclined {
		return "payment failed: " + e.Message
	}
	return fmt.Sprintf("payment could not be processed (%s): %v", e.Step, e.Err)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// CardDeclinedError is what a PaymentGateway returns when the processor refuses the card.
type CardDeclinedError struct {
	Code        string
	DeclineCode string
	Message     string
}

func (e *CardDeclinedError) Error() string {
	if e.DeclineCode != "" {
		return fmt.Sprintf("card declined (%s): %s", e.DeclineCode, e.Message)
	}
	return "card declined: " + e.Message
}

// PartialSettlementError reports that the payment record was persisted but the
// booking could not be marked paid. Payment carries the stored record.
type PartialSettlementError struct {
	Payment *models.PaymentRecord
	Err     error
}

func (e *PartialSettlementError) Error() string {
	return fmt.Sprintf("%v (payment %s): %v", ErrPartialSettlement, e.Payment.ID, e.Err)
}

func (e *PartialSettlementError) Unwrap() []error {
	return []error{ErrPartialSettlement, e.Err}
}
