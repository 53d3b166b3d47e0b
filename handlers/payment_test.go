package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"sportivox/models"
	"sportivox/services/checkout"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaymentRouter(backend *memoryBackend, gateway *stubGateway) *gin.Engine {
	h := &PaymentHandler{
		Gateway:  gateway,
		Verifier: gateway,
		Recorder: backend,
		Records:  backend,
		Bookings: backend,
		Coupons:  stubCoupons{"SAVE10": {Code: "SAVE10", Type: models.CouponTypePercent, Value: 10}},
		Currency: "usd",
	}
	r := newTestRouter()
	r.POST("/api/create-payment-intent", h.CreatePaymentIntent)
	r.POST("/api/payments", h.RecordPayment)
	r.GET("/api/payments", h.ListPayments)
	return r
}

func TestCreatePaymentIntent(t *testing.T) {
	gateway := &stubGateway{}
	r := newPaymentRouter(newMemoryBackend(approvedCoach("b1", "ana@example.com", 60)), gateway)

	w := doJSON(t, r, http.MethodPost, "/api/create-payment-intent", "ana@example.com", gin.H{"amount": 54.5, "bookingId": "b1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "pi_1_secret", decode(t, w)["clientSecret"])
	require.Len(t, gateway.created, 1)
	assert.Equal(t, int64(5450), gateway.created[0].Amount)
	assert.Equal(t, "usd", gateway.created[0].Currency)
	assert.Equal(t, "b1", gateway.created[0].Metadata["booking_id"])

	w = doJSON(t, r, http.MethodPost, "/api/create-payment-intent", "ana@example.com", gin.H{"amount": 0, "bookingId": "b1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/create-payment-intent", "ana@example.com", gin.H{"amount": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/create-payment-intent", "bob@example.com", gin.H{"amount": 10, "bookingId": "b1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Len(t, gateway.created, 1)
}

func TestCreatePaymentIntentBelowMinimum(t *testing.T) {
	gateway := &stubGateway{createErr: fmt.Errorf("%w: Amount must be at least $0.50 usd", checkout.ErrAmountTooSmall)}
	r := newPaymentRouter(newMemoryBackend(approvedCoach("b1", "ana@example.com", 60)), gateway)

	w := doJSON(t, r, http.MethodPost, "/api/create-payment-intent", "ana@example.com", gin.H{"amount": 0.2, "bookingId": "b1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordPaymentVerifiesIntent(t *testing.T) {
	backend := newMemoryBackend(approvedCoach("b1", "ana@example.com", 60))
	gateway := &stubGateway{intents: map[string]*models.PaymentIntent{
		"pi_ok":      {ID: "pi_ok", Amount: 5400, Status: "succeeded", Metadata: map[string]string{"booking_id": "b1"}},
		"pi_pending": {ID: "pi_pending", Amount: 5400, Status: "requires_payment_method", Metadata: map[string]string{"booking_id": "b1"}},
	}}
	r := newPaymentRouter(backend, gateway)

	input := gin.H{
		"bookingId":     "b1",
		"userEmail":     "ana@example.com",
		"amount":        54,
		"transactionId": "pi_pending",
		"discount":      6,
		"couponUsed":    "save10",
	}
	w := doJSON(t, r, http.MethodPost, "/api/payments", "ana@example.com", input)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	input["transactionId"] = "pi_ok"
	input["amount"] = 60
	w = doJSON(t, r, http.MethodPost, "/api/payments", "ana@example.com", input)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, backend.payments)

	input["amount"] = 54
	w = doJSON(t, r, http.MethodPost, "/api/payments", "ana@example.com", input)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "SAVE10", body["couponUsed"])
	assert.Equal(t, 54.0, body["amount"])
	assert.Equal(t, 6.0, body["discount"])
	assert.Equal(t, "paid", body["status"])

	// Replaying the same transaction returns the stored record.
	w = doJSON(t, r, http.MethodPost, "/api/payments", "ana@example.com", input)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, backend.payments, 1)
}

func TestRecordPaymentRejectsUnderpaidIntent(t *testing.T) {
	backend := newMemoryBackend(approvedCoach("b1", "ana@example.com", 60), approvedCoach("b2", "ana@example.com", 60))
	gateway := &stubGateway{intents: map[string]*models.PaymentIntent{
		"pi_cheap": {ID: "pi_cheap", Amount: 100, Status: "succeeded", Metadata: map[string]string{"booking_id": "b1"}},
		"pi_other": {ID: "pi_other", Amount: 6000, Status: "succeeded", Metadata: map[string]string{"booking_id": "b2"}},
	}}
	r := newPaymentRouter(backend, gateway)

	for _, tc := range []struct {
		name   string
		input  gin.H
		status int
	}{
		{"amount below price", gin.H{"amount": 1, "transactionId": "pi_cheap"}, http.StatusUnprocessableEntity},
		{"intent below price", gin.H{"amount": 60, "transactionId": "pi_cheap"}, http.StatusUnprocessableEntity},
		{"client discount ignored", gin.H{"amount": 1, "discount": 59, "transactionId": "pi_cheap"}, http.StatusUnprocessableEntity},
		{"intent of another booking", gin.H{"amount": 60, "transactionId": "pi_other"}, http.StatusUnprocessableEntity},
		{"unknown coupon", gin.H{"amount": 54, "couponUsed": "FREE", "transactionId": "pi_cheap"}, http.StatusNotFound},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tc.input["bookingId"] = "b1"
			tc.input["userEmail"] = "ana@example.com"
			w := doJSON(t, r, http.MethodPost, "/api/payments", "ana@example.com", tc.input)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
	assert.Empty(t, backend.payments)
}

func TestRecordPaymentSecondTransactionConflicts(t *testing.T) {
	backend := newMemoryBackend(approvedCoach("b1", "ana@example.com", 60))
	gateway := &stubGateway{intents: map[string]*models.PaymentIntent{
		"pi_a": {ID: "pi_a", Amount: 6000, Status: "succeeded", Metadata: map[string]string{"booking_id": "b1"}},
		"pi_b": {ID: "pi_b", Amount: 6000, Status: "succeeded", Metadata: map[string]string{"booking_id": "b1"}},
	}}
	r := newPaymentRouter(backend, gateway)
	input := gin.H{"bookingId": "b1", "userEmail": "ana@example.com", "amount": 60, "transactionId": "pi_a"}

	w := doJSON(t, r, http.MethodPost, "/api/payments", "ana@example.com", input)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	input["transactionId"] = "pi_b"
	w = doJSON(t, r, http.MethodPost, "/api/payments", "ana@example.com", input)
	assert.Equal(t, http.StatusConflict, w.Code)
	require.Len(t, backend.payments, 1)
	assert.Equal(t, "pi_a", backend.payments[0].TransactionID)
}

func TestRecordPaymentForOtherMember(t *testing.T) {
	backend := newMemoryBackend(approvedCoach("b1", "ana@example.com", 60))
	r := newPaymentRouter(backend, &stubGateway{})

	w := doJSON(t, r, http.MethodPost, "/api/payments", "bob@example.com", gin.H{
		"bookingId": "b1", "userEmail": "ana@example.com", "amount": 60, "transactionId": "pi_x",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListPayments(t *testing.T) {
	backend := newMemoryBackend()
	backend.payments = []models.PaymentRecord{
		{ID: "p1", UserEmail: "ana@example.com"},
		{ID: "p2", UserEmail: "bob@example.com"},
	}
	r := newPaymentRouter(backend, &stubGateway{})

	w := doJSON(t, r, http.MethodGet, "/api/payments?email=bob@example.com", "ana@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":"p1","bookingId":"","userEmail":"ana@example.com","amount":0,"transactionId":"","discount":0,"date":"0001-01-01T00:00:00Z","status":""}]`, w.Body.String())
}
