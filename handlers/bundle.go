package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	AdminToken string

	// Coupon endpoints
	GetCouponsHandler   gin.HandlerFunc
	CreateCouponHandler gin.HandlerFunc
	DeleteCouponHandler gin.HandlerFunc

	// Checkout endpoints
	StartCheckoutHandler  gin.HandlerFunc
	GetCheckoutHandler    gin.HandlerFunc
	ApplyCouponHandler    gin.HandlerFunc
	PayCheckoutHandler    gin.HandlerFunc
	CancelCheckoutHandler gin.HandlerFunc

	// Payment endpoints
	CreatePaymentIntentHandler gin.HandlerFunc
	RecordPaymentHandler       gin.HandlerFunc
	ListPaymentsHandler        gin.HandlerFunc
	StripeWebhookHandler       gin.HandlerFunc

	// Booking endpoints
	ListBookingsHandler        gin.HandlerFunc
	GetBookingHandler          gin.HandlerFunc
	GetApprovedBookingsHandler gin.HandlerFunc
	UpdatePaymentStatusHandler gin.HandlerFunc

	HealthHandler gin.HandlerFunc
}
