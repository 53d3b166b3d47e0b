package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	bookingRepo "sportivox/database/repository/booking"
	paymentRepo "sportivox/database/repository/payment"
	"sportivox/models"
	"sportivox/services/checkout"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testMember stands in for the JWT middleware.
func testMember(c *gin.Context) {
	if email := c.GetHeader("X-Test-Email"); email != "" {
		c.Set("userEmail", email)
	}
	c.Set("isAdmin", c.GetHeader("X-Test-Admin") == "true")
	c.Next()
}

func newTestRouter() *gin.Engine {
	r := gin.New()
	r.Use(testMember)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, email string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req.Header.Set("X-Test-Email", email)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// memoryBackend is an in-memory stand-in for the booking and payment stores.
type memoryBackend struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
	payments []models.PaymentRecord
	markErr  error
	recErr   error
}

func newMemoryBackend(bookings ...models.Booking) *memoryBackend {
	m := &memoryBackend{bookings: make(map[string]models.Booking)}
	for _, b := range bookings {
		m.bookings[b.ID] = b
	}
	return m
}

func (m *memoryBackend) GetByID(_ context.Context, id string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return &b, nil
}

func (m *memoryBackend) RecordPayment(_ context.Context, rec *models.PaymentRecord) (*models.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recErr != nil {
		return nil, m.recErr
	}
	for _, p := range m.payments {
		if p.IdempotencyKey == rec.IdempotencyKey || p.BookingID == rec.BookingID {
			return &p, nil
		}
	}
	if rec.ID == "" {
		rec.ID = "pay-" + rec.BookingID
	}
	m.payments = append(m.payments, *rec)
	return rec, nil
}

func (m *memoryBackend) MarkBookingPaid(_ context.Context, id string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return nil, m.markErr
	}
	b := m.bookings[id]
	b.PaymentStatus = models.PaymentStatusPaid
	m.bookings[id] = b
	return &b, nil
}

func (m *memoryBackend) ListByEmail(_ context.Context, email string) ([]models.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.PaymentRecord{}
	for _, p := range m.payments {
		if p.UserEmail == email {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryBackend) GetByBookingID(_ context.Context, bookingID string) (*models.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.BookingID == bookingID {
			return &p, nil
		}
	}
	return nil, paymentRepo.ErrPaymentNotFound
}

// paymentsByID serves checkout.PaymentReader.
type paymentsByID struct{ m *memoryBackend }

func (p paymentsByID) GetByID(_ context.Context, id string) (*models.PaymentRecord, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	for _, rec := range p.m.payments {
		if rec.ID == id {
			return &rec, nil
		}
	}
	return nil, paymentRepo.ErrPaymentNotFound
}

func (p paymentsByID) GetByBookingID(ctx context.Context, bookingID string) (*models.PaymentRecord, error) {
	return p.m.GetByBookingID(ctx, bookingID)
}

type stubGateway struct {
	intents    map[string]*models.PaymentIntent
	confirmErr error
	createErr  error
	created    []checkout.IntentRequest
}

func (g *stubGateway) CreateIntent(_ context.Context, req checkout.IntentRequest) (*models.PaymentIntent, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, req)
	return &models.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret", Amount: req.Amount, Status: "requires_payment_method", Metadata: req.Metadata}, nil
}

func (g *stubGateway) ConfirmIntent(_ context.Context, intentID, _ string) (*models.PaymentIntent, error) {
	if g.confirmErr != nil {
		return nil, g.confirmErr
	}
	return &models.PaymentIntent{ID: intentID, Status: "succeeded"}, nil
}

func (g *stubGateway) GetIntent(_ context.Context, intentID string) (*models.PaymentIntent, error) {
	pi, ok := g.intents[intentID]
	if !ok {
		return nil, errors.New("no such payment_intent")
	}
	return pi, nil
}

type stubCoupons map[string]models.Coupon

func (s stubCoupons) Lookup(_ context.Context, code string) (*models.Coupon, error) {
	c, ok := s[code]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func approvedCoach(id, email string, price float64) models.Booking {
	return models.Booking{
		ID:            id,
		UserEmail:     email,
		Kind:          models.BookingKindCoach,
		Coach:         &models.CoachDetails{Name: "Dana"},
		Price:         price,
		Status:        models.BookingStatusApproved,
		PaymentStatus: models.PaymentStatusUnpaid,
	}
}
