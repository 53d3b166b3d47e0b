package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sportivox/config"
	"sportivox/cron"
	"sportivox/database"
	bookingRepo "sportivox/database/repository/booking"
	couponRepo "sportivox/database/repository/coupon"
	paymentRepo "sportivox/database/repository/payment"
	"sportivox/handlers"
	"sportivox/middleware"
	"sportivox/routes"
	"sportivox/services/booking"
	"sportivox/services/checkout"
	"sportivox/services/coupon"
	"sportivox/services/payment"
	"sportivox/services/tasks"
	"sportivox/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database.InitDB()
	utils.InitCache()
	utils.InitSessionCache()
	db := database.Database()

	// repositories.
	couponStore := couponRepo.NewMongoCouponRepo(db)
	bookingStore := bookingRepo.NewMongoBookingRepo(db)
	paymentStore := paymentRepo.NewMongoPaymentRepo(db)
	recorder := paymentRepo.NewMongoSettlementRecorder(db, paymentStore, bookingStore)

	// services.
	couponService := coupon.NewService(couponStore, utils.GetCacheClient(), config.AppConfig.CouponCacheTTL, logger)
	bookingService := booking.NewService(bookingStore, utils.GetCacheClient(), config.AppConfig.SummaryCacheTTL, logger)
	gateway := payment.NewStripeGateway(config.AppConfig.StripeKey, logger)

	queue := asynq.NewClient(cron.RedisOpt())
	defer queue.Close()

	settler := checkout.NewSettler(gateway, recorder, checkout.SettlerConfig{
		Currency:   config.AppConfig.Currency,
		Atomic:     config.AppConfig.AtomicSettlement,
		Reconciler: tasks.NewAsynqEnqueuer(queue),
	}, logger)
	settler.OnSettled(bookingService.OnSettled)

	checkoutService := checkout.NewService(
		checkout.NewRedisSessionStore(utils.GetSessionClient()),
		bookingStore,
		paymentStore,
		couponService,
		settler,
		checkout.ServiceConfig{
			SessionTTL:     config.AppConfig.CheckoutSessionTTL,
			LookupTimeout:  config.AppConfig.CheckoutLookupTimeout,
			PaymentTimeout: config.AppConfig.CheckoutPaymentTimeout,
		},
		logger,
	)

	reconciler := tasks.NewReconciler(paymentStore, bookingService, recorder, logger)
	stopWorker := cron.InitSettlementWorker(reconciler, logger)

	// handlers.
	couponHandler := handlers.NewCouponHandler(couponService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	bookingHandler := handlers.NewBookingHandler(bookingService, paymentStore)
	paymentHandler := &handlers.PaymentHandler{
		Gateway:  gateway,
		Verifier: gateway,
		Recorder: recorder,
		Records:  paymentStore,
		Bookings: bookingStore,
		Coupons:  couponService,
		Currency: config.AppConfig.Currency,
	}
	webhookHandler := &handlers.WebhookHandler{
		Secret:     config.AppConfig.StripeWebhookSecret,
		Reconciler: reconciler,
	}

	handlerBundle := &handlers.HandlerBundle{
		AdminToken: config.AppConfig.AdminToken,

		// Coupon endpoints.
		GetCouponsHandler:   couponHandler.GetCoupons,
		CreateCouponHandler: couponHandler.CreateCoupon,
		DeleteCouponHandler: couponHandler.DeleteCoupon,

		// Checkout endpoints.
		StartCheckoutHandler:  checkoutHandler.StartCheckout,
		GetCheckoutHandler:    checkoutHandler.GetCheckout,
		ApplyCouponHandler:    checkoutHandler.ApplyCoupon,
		PayCheckoutHandler:    checkoutHandler.Pay,
		CancelCheckoutHandler: checkoutHandler.CancelCheckout,

		// Payment endpoints.
		CreatePaymentIntentHandler: paymentHandler.CreatePaymentIntent,
		RecordPaymentHandler:       paymentHandler.RecordPayment,
		ListPaymentsHandler:        paymentHandler.ListPayments,
		StripeWebhookHandler:       webhookHandler.StripeWebhook,

		// Booking endpoints.
		ListBookingsHandler:        bookingHandler.ListBookings,
		GetBookingHandler:          bookingHandler.GetBooking,
		GetApprovedBookingsHandler: bookingHandler.GetApprovedBookings,
		UpdatePaymentStatusHandler: bookingHandler.UpdatePaymentStatus,

		HealthHandler: handlers.Health,
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))
	routes.RegisterRoutes(router, handlerBundle)

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	utils.StartHealthMonitor(monitorCtx, 30*time.Second,
		[]*redis.Client{utils.GetCacheClient(), utils.GetSessionClient()}, database.MongoClient)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Info("starting server", zap.String("addr", srv.Addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("server is shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	stopWorker()
	if err := database.CloseDB(ctx); err != nil {
		logger.Warn("mongo disconnect failed", zap.Error(err))
	}

	logger.Info("server stopped gracefully")
}
