package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"

	paymentRepo "sportivox/database/repository/payment"
	"sportivox/models"

	"github.com/google/uuid"
)

type fakeLookup struct {
	mu      sync.Mutex
	coupons map[string]*models.Coupon
	err     error
	calls   int
	codes   []string
}

func newFakeLookup(coupons ...models.Coupon) *fakeLookup {
	f := &fakeLookup{coupons: make(map[string]*models.Coupon)}
	for i := range coupons {
		c := coupons[i]
		f.coupons[c.Code] = &c
	}
	return f
}

func (f *fakeLookup) Lookup(_ context.Context, code string) (*models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.codes = append(f.codes, code)
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.coupons[code]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// fakeGateway behaves like the processor's idempotency layer: a key replays
// its first intent and refuses different parameters.
type fakeGateway struct {
	mu          sync.Mutex
	createErr   error
	confirmErr  error
	status      string
	onConfirm   func()
	created     []IntentRequest
	confirmed   []string
	paymentMeth []string
	byKey       map[string]idempotentIntent
}

type idempotentIntent struct {
	req    IntentRequest
	intent models.PaymentIntent
}

var errIdempotencyMismatch = errors.New("keys for idempotent requests can only be used with the same parameters")

func (g *fakeGateway) CreateIntent(_ context.Context, req IntentRequest) (*models.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created = append(g.created, req)
	if g.createErr != nil {
		return nil, g.createErr
	}
	if prev, ok := g.byKey[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		if prev.req.Amount != req.Amount || prev.req.Metadata["coupon"] != req.Metadata["coupon"] {
			return nil, errIdempotencyMismatch
		}
		pi := prev.intent
		return &pi, nil
	}
	pi := models.PaymentIntent{
		ID:           "pi_" + uuid.New().String()[:8],
		ClientSecret: "secret",
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       "requires_confirmation",
		Metadata:     req.Metadata,
	}
	if g.byKey == nil {
		g.byKey = make(map[string]idempotentIntent)
	}
	g.byKey[req.IdempotencyKey] = idempotentIntent{req: req, intent: pi}
	return &pi, nil
}

func (g *fakeGateway) ConfirmIntent(_ context.Context, intentID, paymentMethod string) (*models.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.confirmed = append(g.confirmed, intentID)
	g.paymentMeth = append(g.paymentMeth, paymentMethod)
	if g.onConfirm != nil {
		g.onConfirm()
	}
	if g.confirmErr != nil {
		return nil, g.confirmErr
	}
	status := g.status
	if status == "" {
		status = "succeeded"
	}
	return &models.PaymentIntent{ID: intentID, Status: status}, nil
}

func (g *fakeGateway) calls() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.created), len(g.confirmed)
}

// fakeRecorder is an in-memory recorder with optional atomic support.
type fakeRecorder struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	payments map[string]*models.PaymentRecord // by idempotency key
	markErr  error
	recErr   error
	settled  int
}

func newFakeRecorder(bookings ...models.Booking) *fakeRecorder {
	r := &fakeRecorder{
		bookings: make(map[string]*models.Booking),
		payments: make(map[string]*models.PaymentRecord),
	}
	for i := range bookings {
		b := bookings[i]
		r.bookings[b.ID] = &b
	}
	return r
}

func (r *fakeRecorder) RecordPayment(ctx context.Context, rec *models.PaymentRecord) (*models.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.recErr != nil {
		return nil, r.recErr
	}
	if existing, ok := r.payments[rec.IdempotencyKey]; ok {
		return existing, nil
	}
	cp := *rec
	r.payments[rec.IdempotencyKey] = &cp
	return &cp, nil
}

func (r *fakeRecorder) MarkBookingPaid(ctx context.Context, bookingID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.markErr != nil {
		return nil, r.markErr
	}
	b, ok := r.bookings[bookingID]
	if !ok {
		return nil, errors.New("booking not found")
	}
	b.PaymentStatus = models.PaymentStatusPaid
	cp := *b
	return &cp, nil
}

func (r *fakeRecorder) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, errors.New("booking not found")
	}
	cp := *b
	return &cp, nil
}

func (r *fakeRecorder) paymentCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payments)
}

func (r *fakeRecorder) booking(id string) models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.bookings[id]
}

// fakePayments serves PaymentReader from the recorder's records.
type fakePayments struct{ rec *fakeRecorder }

func (p fakePayments) GetByID(_ context.Context, id string) (*models.PaymentRecord, error) {
	p.rec.mu.Lock()
	defer p.rec.mu.Unlock()
	for _, rec := range p.rec.payments {
		if rec.ID == id {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, paymentRepo.ErrPaymentNotFound
}

func (p fakePayments) GetByBookingID(_ context.Context, bookingID string) (*models.PaymentRecord, error) {
	p.rec.mu.Lock()
	defer p.rec.mu.Unlock()
	for _, rec := range p.rec.payments {
		if rec.BookingID == bookingID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, paymentRepo.ErrPaymentNotFound
}

type atomicRecorder struct {
	*fakeRecorder
	settleErr error
}

func (a *atomicRecorder) Settle(ctx context.Context, rec *models.PaymentRecord) (*models.PaymentRecord, error) {
	if a.settleErr != nil {
		return nil, a.settleErr
	}
	a.mu.Lock()
	if existing, ok := a.payments[rec.IdempotencyKey]; ok {
		a.mu.Unlock()
		return existing, nil
	}
	a.settled++
	a.mu.Unlock()
	stored, err := a.RecordPayment(ctx, rec)
	if err != nil {
		return nil, err
	}
	if _, err := a.MarkBookingPaid(ctx, rec.BookingID); err != nil {
		return nil, err
	}
	return stored, nil
}

type fakeEnqueuer struct {
	mu       sync.Mutex
	bookings []string
	records  []models.PaymentRecord
}

func (e *fakeEnqueuer) EnqueueReconcile(_ context.Context, bookingID, _ string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bookings = append(e.bookings, bookingID)
	return nil
}

func (e *fakeEnqueuer) EnqueueRecord(_ context.Context, rec models.PaymentRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.records = append(e.records, rec)
	return nil
}

func courtBooking(id, email string, price float64, slots ...string) models.Booking {
	return models.Booking{
		ID:            id,
		UserEmail:     strings.ToLower(email),
		Kind:          models.BookingKindCourt,
		CourtType:     "padel",
		Date:          "2026-10-20",
		Slots:         slots,
		Price:         price,
		Status:        models.BookingStatusApproved,
		PaymentStatus: models.PaymentStatusUnpaid,
	}
}

func coachBooking(id, email string, price float64) models.Booking {
	return models.Booking{
		ID:            id,
		UserEmail:     strings.ToLower(email),
		Kind:          models.BookingKindCoach,
		Coach:         &models.CoachDetails{Name: "Dana", Sport: "tennis"},
		Date:          "2026-10-21",
		TimeSlot:      "10:00-11:00",
		Price:         price,
		Status:        models.BookingStatusApproved,
		PaymentStatus: models.PaymentStatusUnpaid,
	}
}
