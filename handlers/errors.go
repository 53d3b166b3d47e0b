package handlers

import (
	"context"
	"errors"
	"net/http"

	bookingRepo "sportivox/database/repository/booking"
	couponRepo "sportivox/database/repository/coupon"
	paymentRepo "sportivox/database/repository/payment"
	"sportivox/services/booking"
	"sportivox/services/checkout"
	"sportivox/services/coupon"
	"sportivox/utils"

	"github.com/gin-gonic/gin"
)

// errorStatus maps service errors to an HTTP status and a member-facing message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, checkout.ErrAmountTooSmall):
		return http.StatusBadRequest, "Amount is below the minimum that can be charged"
	case errors.Is(err, checkout.ErrSettlementPending):
		return http.StatusAccepted, "Payment received, confirmation is pending"
	}

	var payErr *checkout.PaymentError
	if errors.As(err, &payErr) {
		if payErr.Kind == checkout.PaymentErrorDeclined {
			return http.StatusPaymentRequired, payErr.Message
		}
		return http.StatusBadGateway, "Payment could not be processed"
	}

	switch {
	case errors.Is(err, checkout.ErrPartialSettlement):
		return http.StatusInternalServerError, "Payment received but booking could not be updated"
	case errors.Is(err, checkout.ErrEmptyCouponCode),
		errors.Is(err, checkout.ErrMissingPaymentMethod),
		errors.Is(err, checkout.ErrInvalidAmount),
		errors.Is(err, coupon.ErrInvalidCoupon),
		errors.Is(err, booking.ErrInvalidPaymentStatus):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, checkout.ErrCouponAlreadyApplied):
		return http.StatusConflict, "A coupon is already applied"
	case errors.Is(err, checkout.ErrCouponValidationInFlight),
		errors.Is(err, checkout.ErrPaymentInFlight):
		return http.StatusConflict, "Another request for this checkout is in progress"
	case errors.Is(err, checkout.ErrCouponNotFound):
		return http.StatusNotFound, "Coupon not found"
	case errors.Is(err, checkout.ErrUnsupportedCouponType),
		errors.Is(err, checkout.ErrInvalidCouponValue):
		return http.StatusUnprocessableEntity, "Coupon cannot be applied"
	case errors.Is(err, checkout.ErrCouponLookupFailed):
		return http.StatusBadGateway, "Coupon could not be checked, please retry"
	case errors.Is(err, checkout.ErrSessionNotFound):
		return http.StatusNotFound, "Checkout not found or expired"
	case errors.Is(err, bookingRepo.ErrBookingNotFound):
		return http.StatusNotFound, "Booking not found"
	case errors.Is(err, couponRepo.ErrCouponNotFound):
		return http.StatusNotFound, "Coupon not found"
	case errors.Is(err, paymentRepo.ErrPaymentNotFound):
		return http.StatusNotFound, "Payment not found"
	case errors.Is(err, checkout.ErrSessionSettled),
		errors.Is(err, checkout.ErrBookingNotPayable),
		errors.Is(err, couponRepo.ErrCouponExists),
		errors.Is(err, paymentRepo.ErrDuplicatePayment):
		return http.StatusConflict, "Request conflicts with the current state"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "The request timed out, please retry"
	}
	return http.StatusInternalServerError, "Internal Server Error"
}

// respondError writes err with the standard error body.
func respondError(c *gin.Context, err error) {
	status, message := errorStatus(err)
	utils.JSONError(c, status, message, err.Error())
}
