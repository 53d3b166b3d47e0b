package handlers

import (
	"context"
	"io"
	"net/http"

	"sportivox/services/payment"
	"sportivox/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 65536

// BookingReconciler marks a booking paid once its payment is recorded.
type BookingReconciler interface {
	Reconcile(ctx context.Context, bookingID string) error
}

// WebhookHandler receives Stripe events.
type WebhookHandler struct {
	Secret     string
	Reconciler BookingReconciler
}

// StripeWebhook reconciles the booking of a succeeded payment intent.
// Unknown or unrelated events are acknowledged so Stripe stops resending them.
func (h *WebhookHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "Could not read body", err.Error())
		return
	}

	event, err := payment.ParseIntentEvent(payload, c.GetHeader("Stripe-Signature"), h.Secret)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid webhook", err.Error())
		return
	}

	log := getLogger(c).With(zap.String("event", event.Type), zap.String("intentId", event.IntentID))
	if event.Type != payment.EventIntentSucceeded || event.BookingID == "" {
		log.Debug("webhook ignored")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.Reconciler.Reconcile(c.Request.Context(), event.BookingID); err != nil {
		// Not recorded yet: the checkout that created the intent is still settling.
		log.Info("booking not reconciled from webhook", zap.String("bookingId", event.BookingID), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"received": true, "reconciled": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "reconciled": true})
}
