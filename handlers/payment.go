package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	bookingRepo "sportivox/database/repository/booking"
	paymentRepo "sportivox/database/repository/payment"
	"sportivox/models"
	"sportivox/services/checkout"
	"sportivox/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IntentVerifier reads back a processor intent.
type IntentVerifier interface {
	GetIntent(ctx context.Context, intentID string) (*models.PaymentIntent, error)
}

// PaymentRecordLister lists a member's payment records.
type PaymentRecordLister interface {
	ListByEmail(ctx context.Context, email string) ([]models.PaymentRecord, error)
}

// PaymentHandler serves the processor and payment-record endpoints used by
// clients that drive the settlement steps themselves.
type PaymentHandler struct {
	Gateway  checkout.PaymentGateway
	Verifier IntentVerifier
	Recorder checkout.SettlementRecorder
	Records  PaymentRecordLister
	Bookings checkout.BookingReader
	Coupons  checkout.CouponLookup
	Currency string
}

// CreatePaymentIntent handles POST /create-payment-intent {amount, bookingId}.
// The intent is tagged with the booking so RecordPayment can match it.
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	var input struct {
		Amount    float64 `json:"amount" binding:"required,gt=0"`
		BookingID string  `json:"bookingId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}
	b, err := h.Bookings.GetByID(c.Request.Context(), input.BookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !isAdmin(c) && !strings.EqualFold(b.UserEmail, memberEmail(c)) {
		respondError(c, bookingRepo.ErrBookingNotFound)
		return
	}

	req := checkout.IntentRequest{
		Amount:       checkout.ToMinorUnits(input.Amount),
		Currency:     h.Currency,
		ReceiptEmail: b.UserEmail,
		Metadata:     map[string]string{"booking_id": b.ID},
	}
	intent, err := h.Gateway.CreateIntent(c.Request.Context(), req)
	if err != nil {
		getLogger(c).Warn("payment intent creation failed", zap.Error(err))
		respondError(c, &checkout.PaymentError{Kind: checkout.PaymentErrorService, Step: "create_intent", Err: err})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clientSecret": intent.ClientSecret})
}

type recordPaymentInput struct {
	BookingID     string    `json:"bookingId" binding:"required"`
	UserEmail     string    `json:"userEmail" binding:"required"`
	Amount        float64   `json:"amount" binding:"required,gt=0"`
	TransactionID string    `json:"transactionId" binding:"required"`
	Discount      float64   `json:"discount"`
	CouponUsed    string    `json:"couponUsed"`
	Date          time.Time `json:"date"`
	Status        string    `json:"status"`
}

// RecordPayment handles POST /payments. The price is recomputed from the
// booking and the coupon, and the processor intent must be a succeeded
// charge of exactly that price for this booking before anything is written.
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	var input recordPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}
	ctx := c.Request.Context()

	if !isAdmin(c) && !strings.EqualFold(input.UserEmail, memberEmail(c)) {
		utils.JSONError(c, http.StatusForbidden, "Forbidden", "payments can only be recorded for your own bookings")
		return
	}
	b, err := h.Bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !strings.EqualFold(b.UserEmail, input.UserEmail) {
		utils.JSONError(c, http.StatusForbidden, "Forbidden", "booking belongs to another member")
		return
	}
	if b.Status != models.BookingStatusApproved {
		respondError(c, fmt.Errorf("%w: booking is %s", checkout.ErrBookingNotPayable, b.Status))
		return
	}

	code := checkout.NormalizeCode(input.CouponUsed)
	discount, err := h.couponDiscount(ctx, code, b.Subtotal())
	if err != nil {
		respondError(c, err)
		return
	}
	final := checkout.FinalPrice(b.Subtotal(), discount)
	if checkout.ToMinorUnits(input.Amount) != checkout.ToMinorUnits(final) {
		utils.JSONError(c, http.StatusUnprocessableEntity, "Amount does not match the booking price",
			fmt.Sprintf("expected %.2f after a discount of %.2f", final, discount))
		return
	}

	intent, err := h.Verifier.GetIntent(ctx, input.TransactionID)
	if err != nil {
		respondError(c, &checkout.PaymentError{Kind: checkout.PaymentErrorService, Step: "verify_intent", Err: err})
		return
	}
	if intent.Status != "succeeded" || intent.Amount != checkout.ToMinorUnits(final) || intent.Metadata["booking_id"] != b.ID {
		utils.JSONError(c, http.StatusUnprocessableEntity, "Transaction does not match a completed payment",
			fmt.Sprintf("intent %s is %s for %d on booking %q", intent.ID, intent.Status, intent.Amount, intent.Metadata["booking_id"]))
		return
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now()
	}
	rec, err := h.Recorder.RecordPayment(ctx, &models.PaymentRecord{
		BookingID:      b.ID,
		BookingKind:    b.Kind,
		UserEmail:      b.UserEmail,
		Amount:         final,
		TransactionID:  input.TransactionID,
		Discount:       discount,
		CouponUsed:     code,
		Date:           date,
		Status:         models.PaymentStatusPaid,
		IdempotencyKey: input.TransactionID,
	})
	if err != nil {
		getLogger(c).Error("failed to record payment", zap.String("transactionId", input.TransactionID), zap.Error(err))
		respondError(c, err)
		return
	}
	if rec.TransactionID != input.TransactionID {
		getLogger(c).Error("booking already paid by another transaction",
			zap.String("bookingId", b.ID),
			zap.String("transactionId", input.TransactionID),
			zap.String("storedTransactionId", rec.TransactionID),
		)
		respondError(c, fmt.Errorf("%w: booking %s", paymentRepo.ErrDuplicatePayment, b.ID))
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *PaymentHandler) couponDiscount(ctx context.Context, code string, subtotal float64) (float64, error) {
	if code == "" {
		return 0, nil
	}
	coupon, err := h.Coupons.Lookup(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", checkout.ErrCouponLookupFailed, err)
	}
	if coupon == nil {
		return 0, checkout.ErrCouponNotFound
	}
	return checkout.ComputeDiscount(*coupon, subtotal)
}

// ListPayments returns the caller's payments; admins may pass ?email=.
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	email := memberEmail(c)
	if q := c.Query("email"); q != "" && isAdmin(c) {
		email = strings.ToLower(q)
	}
	records, err := h.Records.ListByEmail(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
