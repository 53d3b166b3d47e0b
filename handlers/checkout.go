package handlers

import (
	"errors"
	"net/http"

	"sportivox/services/checkout"
	"sportivox/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CheckoutHandler serves the checkout session endpoints.
type CheckoutHandler struct {
	Service *checkout.Service
}

func NewCheckoutHandler(svc *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{Service: svc}
}

type checkoutView struct {
	*checkout.Session
	FinalPrice float64 `json:"finalPrice"`
}

func viewOf(sess *checkout.Session) checkoutView {
	return checkoutView{Session: sess, FinalPrice: sess.FinalPrice()}
}

// StartCheckout opens a checkout for a booking.
func (h *CheckoutHandler) StartCheckout(c *gin.Context) {
	var input struct {
		BookingID string `json:"bookingId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}
	sess, err := h.Service.Start(c.Request.Context(), input.BookingID, memberEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewOf(sess))
}

// GetCheckout returns the current checkout state.
func (h *CheckoutHandler) GetCheckout(c *gin.Context) {
	sess, err := h.Service.Get(c.Request.Context(), c.Param("id"), memberEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

// ApplyCoupon applies a coupon code to the checkout.
func (h *CheckoutHandler) ApplyCoupon(c *gin.Context) {
	var input struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}

	sess, err := h.Service.ApplyCoupon(c.Request.Context(), c.Param("id"), memberEmail(c), input.Code)
	if err != nil {
		if sess == nil {
			respondError(c, err)
			return
		}
		status, message := errorStatus(err)
		getLogger(c).Info("coupon not applied", zap.String("sessionId", sess.ID), zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{
			"message":  message,
			"details":  err.Error(),
			"checkout": viewOf(sess),
		})
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

// Pay settles the checkout with a card payment method.
func (h *CheckoutHandler) Pay(c *gin.Context) {
	var input struct {
		PaymentMethodID string `json:"paymentMethodId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}

	rec, sess, err := h.Service.Pay(c.Request.Context(), c.Param("id"), memberEmail(c), input.PaymentMethodID)
	if err != nil {
		var partial *checkout.PartialSettlementError
		if errors.As(err, &partial) {
			getLogger(c).Error("partial settlement", zap.String("paymentId", partial.Payment.ID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"message": "Payment received but booking could not be updated",
				"details": err.Error(),
				"payment": partial.Payment,
			})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"payment":  rec,
		"checkout": viewOf(sess),
	})
}

// CancelCheckout abandons an open checkout.
func (h *CheckoutHandler) CancelCheckout(c *gin.Context) {
	if err := h.Service.Cancel(c.Request.Context(), c.Param("id"), memberEmail(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
