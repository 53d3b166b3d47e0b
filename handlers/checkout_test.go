package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"sportivox/models"
	"sportivox/services/checkout"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type checkoutFixture struct {
	router  *gin.Engine
	backend *memoryBackend
	gateway *stubGateway
}

func newCheckoutFixture(bookings ...models.Booking) *checkoutFixture {
	backend := newMemoryBackend(bookings...)
	gateway := &stubGateway{}
	settler := checkout.NewSettler(gateway, backend, checkout.SettlerConfig{Currency: "usd"}, zap.NewNop())
	svc := checkout.NewService(
		checkout.NewMemorySessionStore(),
		backend,
		paymentsByID{m: backend},
		stubCoupons{"SAVE10": {Code: "SAVE10", Type: models.CouponTypePercent, Value: 10}},
		settler,
		checkout.ServiceConfig{SessionTTL: time.Minute},
		zap.NewNop(),
	)
	h := NewCheckoutHandler(svc)

	r := newTestRouter()
	r.POST("/api/checkout", h.StartCheckout)
	r.GET("/api/checkout/:id", h.GetCheckout)
	r.POST("/api/checkout/:id/coupon", h.ApplyCoupon)
	r.POST("/api/checkout/:id/pay", h.Pay)
	r.DELETE("/api/checkout/:id", h.CancelCheckout)
	return &checkoutFixture{router: r, backend: backend, gateway: gateway}
}

func (f *checkoutFixture) start(t *testing.T, bookingID string) string {
	t.Helper()
	w := doJSON(t, f.router, http.MethodPost, "/api/checkout", "ana@example.com", gin.H{"bookingId": bookingID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["id"].(string)
}

func TestCheckoutEndpointsHappyPath(t *testing.T) {
	f := newCheckoutFixture(approvedCoach("b1", "ana@example.com", 60))
	id := f.start(t, "b1")

	w := doJSON(t, f.router, http.MethodPost, "/api/checkout/"+id+"/coupon", "ana@example.com", gin.H{"code": "save10"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 54.0, decode(t, w)["finalPrice"])

	w = doJSON(t, f.router, http.MethodPost, "/api/checkout/"+id+"/pay", "ana@example.com", gin.H{"paymentMethodId": "pm_card_visa"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	payment := body["payment"].(map[string]any)
	assert.Equal(t, 54.0, payment["amount"])
	assert.Equal(t, "SAVE10", payment["couponUsed"])
	assert.Equal(t, "settled", body["checkout"].(map[string]any)["status"])
	require.Len(t, f.gateway.created, 1)
	assert.Equal(t, int64(5400), f.gateway.created[0].Amount)
}

func TestCheckoutCouponRejectionReturnsSession(t *testing.T) {
	f := newCheckoutFixture(approvedCoach("b1", "ana@example.com", 60))
	id := f.start(t, "b1")

	w := doJSON(t, f.router, http.MethodPost, "/api/checkout/"+id+"/coupon", "ana@example.com", gin.H{"code": "NOPE"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Coupon not found", body["message"])
	coupon := body["checkout"].(map[string]any)["coupon"].(map[string]any)
	assert.Equal(t, "no_coupon_entered", coupon["state"])
	assert.Equal(t, "NOPE", coupon["input"])

	w = doJSON(t, f.router, http.MethodPost, "/api/checkout/"+id+"/coupon", "ana@example.com", gin.H{"code": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutSecondCouponConflicts(t *testing.T) {
	f := newCheckoutFixture(approvedCoach("b1", "ana@example.com", 60))
	id := f.start(t, "b1")

	w := doJSON(t, f.router, http.MethodPost, "/api/checkout/"+id+"/coupon", "ana@example.com", gin.H{"code": "SAVE10"})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, f.router, http.MethodPost, "/api/checkout/"+id+"/coupon", "ana@example.com", gin.H{"code": "SAVE10"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCheckoutDeclineReturns402(t *testing.T) {
	f := newCheckoutFixture(approvedCoach("b1", "ana@example.com", 60))
	f.gateway.confirmErr = &checkout.CardDeclinedError{Code: "card_declined", Message: "Your card was declined."}
	id := f.start(t, "b1")

	w := doJSON(t, f.router, http.MethodPost, "/api/checkout/"+id+"/pay", "ana@example.com", gin.H{"paymentMethodId": "pm_card_chargeDeclined"})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, "Your card was declined.", decode(t, w)["message"])
	assert.Empty(t, f.backend.payments)
}

func TestCheckoutServiceFailureReturns502(t *testing.T) {
	f := newCheckoutFixture(approvedCoach("b1", "ana@example.com", 60))
	f.gateway.createErr = errors.New("stripe unavailable")
	id := f.start(t, "b1")

	w := doJSON(t, f.router, http.MethodPost, "/api/checkout/"+id+"/pay", "ana@example.com", gin.H{"paymentMethodId": "pm_card_visa"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Payment could not be processed", decode(t, w)["message"])
}

func TestCheckoutMissingPaymentMethod(t *testing.T) {
	f := newCheckoutFixture(approvedCoach("b1", "ana@example.com", 60))
	id := f.start(t, "b1")

	w := doJSON(t, f.router, http.MethodPost, "/api/checkout/"+id+"/pay", "ana@example.com", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.gateway.created)
}

func TestCheckoutPartialSettlement(t *testing.T) {
	f := newCheckoutFixture(approvedCoach("b1", "ana@example.com", 60))
	f.backend.markErr = errors.New("write conflict")
	id := f.start(t, "b1")

	w := doJSON(t, f.router, http.MethodPost, "/api/checkout/"+id+"/pay", "ana@example.com", gin.H{"paymentMethodId": "pm_card_visa"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "b1", body["payment"].(map[string]any)["bookingId"])
	assert.Len(t, f.backend.payments, 1)
}

func TestCheckoutOfOtherMember(t *testing.T) {
	f := newCheckoutFixture(approvedCoach("b1", "ana@example.com", 60))
	id := f.start(t, "b1")

	w := doJSON(t, f.router, http.MethodGet, "/api/checkout/"+id, "bob@example.com", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, f.router, http.MethodPost, "/api/checkout", "bob@example.com", gin.H{"bookingId": "b1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, f.router, http.MethodPost, "/api/checkout", "ana@example.com", gin.H{"bookingId": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutCancel(t *testing.T) {
	f := newCheckoutFixture(approvedCoach("b1", "ana@example.com", 60))
	id := f.start(t, "b1")

	w := doJSON(t, f.router, http.MethodDelete, "/api/checkout/"+id, "bob@example.com", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(t, f.router, http.MethodDelete, "/api/checkout/"+id, "ana@example.com", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(t, f.router, http.MethodGet, "/api/checkout/"+id, "ana@example.com", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutSecondSessionAfterPartialSettlement(t *testing.T) {
	f := newCheckoutFixture(approvedCoach("b1", "ana@example.com", 60))
	f.backend.markErr = errors.New("write conflict")
	id := f.start(t, "b1")

	w := doJSON(t, f.router, http.MethodPost, "/api/checkout/"+id+"/pay", "ana@example.com", gin.H{"paymentMethodId": "pm_card_visa"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	f.backend.markErr = nil

	w = doJSON(t, f.router, http.MethodPost, "/api/checkout", "ana@example.com", gin.H{"bookingId": "b1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Len(t, f.gateway.created, 1)
}

func TestCheckoutUnrecordedChargeIsAccepted(t *testing.T) {
	f := newCheckoutFixture(approvedCoach("b1", "ana@example.com", 60))
	f.backend.recErr = errors.New("no primary")
	id := f.start(t, "b1")

	w := doJSON(t, f.router, http.MethodPost, "/api/checkout/"+id+"/pay", "ana@example.com", gin.H{"paymentMethodId": "pm_card_visa"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "Payment received, confirmation is pending", decode(t, w)["message"])
	assert.Empty(t, f.backend.payments)
}

func TestCheckoutBelowProcessorMinimum(t *testing.T) {
	f := newCheckoutFixture(approvedCoach("b1", "ana@example.com", 60))
	f.gateway.createErr = fmt.Errorf("%w: Amount must be at least $0.50 usd", checkout.ErrAmountTooSmall)
	id := f.start(t, "b1")

	w := doJSON(t, f.router, http.MethodPost, "/api/checkout/"+id+"/pay", "ana@example.com", gin.H{"paymentMethodId": "pm_card_visa"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
