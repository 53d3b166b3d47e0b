package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	bookingRepo "sportivox/database/repository/booking"
	"sportivox/models"
	"sportivox/services/booking"
	"sportivox/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentFinder tells whether a booking has a recorded payment.
type PaymentFinder interface {
	GetByBookingID(ctx context.Context, bookingID string) (*models.PaymentRecord, error)
}

// BookingHandler serves booking reads and the payment-status patch.
type BookingHandler struct {
	Service  *booking.Service
	Payments PaymentFinder
}

func NewBookingHandler(svc *booking.Service, payments PaymentFinder) *BookingHandler {
	return &BookingHandler{Service: svc, Payments: payments}
}

// loadOwned fetches a booking visible to the caller. Other members' bookings
// are reported as not found.
func (h *BookingHandler) loadOwned(c *gin.Context, id string) (*models.Booking, bool) {
	b, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if !isAdmin(c) && !strings.EqualFold(b.UserEmail, memberEmail(c)) {
		respondError(c, bookingRepo.ErrBookingNotFound)
		return nil, false
	}
	return b, true
}

// GetBooking returns one booking.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, ok := h.loadOwned(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, b)
}

// ListBookings returns the caller's bookings, optionally ?status=approved|pending|rejected.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", models.BookingStatusApproved, models.BookingStatusPending, models.BookingStatusRejected:
	default:
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", "unknown status "+status)
		return
	}
	bookings, err := h.Service.ListByEmail(c.Request.Context(), memberEmail(c), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// GetApprovedBookings returns approved court and coach bookings with totals.
// Admins may pass ?email= to inspect another member.
func (h *BookingHandler) GetApprovedBookings(c *gin.Context) {
	email := memberEmail(c)
	if q := c.Query("email"); q != "" && isAdmin(c) {
		email = strings.ToLower(q)
	}
	if email == "" {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", "email is required")
		return
	}
	summary, err := h.Service.ApprovedSummary(c.Request.Context(), email)
	if err != nil {
		getLogger(c).Error("failed to build booking summary", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// UpdatePaymentStatus handles PATCH /bookings/payment/:id. The booking can
// only be marked paid once a payment has been recorded for it.
func (h *BookingHandler) UpdatePaymentStatus(c *gin.Context) {
	var input struct {
		PaymentStatus string `json:"paymentStatus" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}

	id := c.Param("id")
	if _, ok := h.loadOwned(c, id); !ok {
		return
	}
	if input.PaymentStatus != models.PaymentStatusPaid {
		respondError(c, booking.ErrInvalidPaymentStatus)
		return
	}
	if _, err := h.Payments.GetByBookingID(c.Request.Context(), id); err != nil {
		utils.JSONError(c, http.StatusConflict, "No payment recorded for this booking", err.Error())
		return
	}

	updated, err := h.Service.MarkPaid(c.Request.Context(), id, input.PaymentStatus)
	if err != nil {
		if !errors.Is(err, bookingRepo.ErrBookingNotFound) {
			getLogger(c).Error("failed to patch payment status", zap.String("bookingId", id), zap.Error(err))
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
