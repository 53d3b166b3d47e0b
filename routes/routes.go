package routes

import (
	"time"

	"sportivox/handlers"
	"sportivox/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterCouponRoutes registers the public coupon lookup.
func RegisterCouponRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/coupons")
	{
		api.GET("", hb.GetCouponsHandler)
	}
}

// RegisterCheckoutRoutes registers the member checkout flow.
func RegisterCheckoutRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/checkout")
	{
		api.Use(middleware.JWTAuthMemberMiddleware())
		api.POST("", hb.StartCheckoutHandler)
		api.GET("/:id", hb.GetCheckoutHandler)
		api.POST("/:id/coupon", hb.ApplyCouponHandler)
		api.POST("/:id/pay", hb.PayCheckoutHandler)
		api.DELETE("/:id", hb.CancelCheckoutHandler)
	}
}

// RegisterPaymentRoutes registers the processor and payment-record endpoints.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		protected := api.Group("")
		protected.Use(middleware.JWTAuthMemberMiddleware())
		protected.POST("/create-payment-intent", hb.CreatePaymentIntentHandler)
		protected.POST("/payments", hb.RecordPaymentHandler)
		protected.GET("/payments", hb.ListPaymentsHandler)

		// Stripe signs the body; no member token.
		api.POST("/stripe/webhook", hb.StripeWebhookHandler)
	}
}

// RegisterBookingRoutes registers booking reads and the payment-status patch.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookingGroup := r.Group("/api/bookings")
	{
		bookingGroup.Use(middleware.JWTAuthMemberMiddleware())
		bookingGroup.GET("", hb.ListBookingsHandler)
		bookingGroup.GET("/approved", hb.GetApprovedBookingsHandler)
		bookingGroup.GET("/:id", hb.GetBookingHandler)
		bookingGroup.PATCH("/payment/:id", hb.UpdatePaymentStatusHandler)
	}
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.JWTAuthAdminMiddleware(hb.AdminToken))
		adminGroup.POST("/coupons", hb.CreateCouponHandler)
		adminGroup.DELETE("/coupons/:code", hb.DeleteCouponHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterCouponRoutes(r, hb)
	RegisterCheckoutRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
