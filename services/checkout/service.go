package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	paymentRepo "sportivox/database/repository/payment"
	"sportivox/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingReader loads the booking a checkout is for.
type BookingReader interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
}

// PaymentReader loads stored payment records. Misses return
// paymentRepo.ErrPaymentNotFound.
type PaymentReader interface {
	GetByID(ctx context.Context, id string) (*models.PaymentRecord, error)
	GetByBookingID(ctx context.Context, bookingID string) (*models.PaymentRecord, error)
}

// ServiceConfig holds the checkout timeouts.
type ServiceConfig struct {
	SessionTTL     time.Duration
	LookupTimeout  time.Duration
	PaymentTimeout time.Duration
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * time.Minute
	}
	if c.LookupTimeout <= 0 {
		c.LookupTimeout = 5 * time.Second
	}
	if c.PaymentTimeout <= 0 {
		c.PaymentTimeout = 30 * time.Second
	}
	return c
}

// Service runs checkout sessions: one booking, at most one coupon, one settlement.
type Service struct {
	store    SessionStore
	bookings BookingReader
	payments PaymentReader
	coupons  CouponLookup
	settler  *Settler
	cfg      ServiceConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a checkout Service.
func NewService(store SessionStore, bookings BookingReader, payments PaymentReader, coupons CouponLookup, settler *Settler, cfg ServiceConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.L()
	}
	return &Service{
		store:    store,
		bookings: bookings,
		payments: payments,
		coupons:  coupons,
		settler:  settler,
		cfg:      cfg.withDefaults(),
		logger:   logger.Named("checkout"),
		now:      time.Now,
	}
}

// Start opens a checkout for bookingID on behalf of email.
func (s *Service) Start(ctx context.Context, bookingID, email string) (*Session, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := payable(booking, email); err != nil {
		return nil, err
	}
	existing, err := s.recordedPayment(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: payment %s already recorded", ErrBookingNotPayable, existing.ID)
	}

	now := s.now()
	sess := &Session{
		ID:        uuid.New().String(),
		BookingID: booking.ID,
		UserEmail: booking.UserEmail,
		Subtotal:  booking.Subtotal(),
		Coupon:    CouponApplication{State: CouponNoneEntered},
		Status:    SessionOpen,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}
	if err := s.store.Save(ctx, sess, s.cfg.SessionTTL); err != nil {
		return nil, err
	}
	s.logger.Info("checkout started",
		zap.String("sessionId", sess.ID),
		zap.String("bookingId", booking.ID),
		zap.Float64("subtotal", sess.Subtotal),
	)
	return sess, nil
}

// Get returns the session when it belongs to email.
func (s *Service) Get(ctx context.Context, id, email string) (*Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ownedBy(sess.UserEmail, email) {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// ApplyCoupon runs the coupon workflow for the session. Guard failures
// (coupon already applied, empty code, validation in flight) leave the
// session unchanged and perform no lookup. Rejections are saved so the
// member sees the notice and can retry.
func (s *Service) ApplyCoupon(ctx context.Context, id, email, code string) (*Session, error) {
	release, holder, err := s.store.Acquire(ctx, id, lockCoupon, s.cfg.LookupTimeout)
	if err != nil {
		return nil, err
	}
	if holder != "" {
		return nil, busyError(holder)
	}
	defer release()

	sess, err := s.Get(ctx, id, email)
	if err != nil {
		return nil, err
	}
	if sess.Settled() {
		return sess, ErrSessionSettled
	}

	before := sess.Coupon
	sess.Coupon.Enter(code)

	lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.LookupTimeout)
	defer cancel()
	_, applyErr := sess.Coupon.Apply(lookupCtx, s.coupons, sess.Subtotal)

	if errors.Is(applyErr, ErrCouponAlreadyApplied) || errors.Is(applyErr, ErrEmptyCouponCode) || errors.Is(applyErr, ErrCouponValidationInFlight) {
		sess.Coupon = before
		return sess, applyErr
	}

	if err := s.store.Save(ctx, sess, s.remainingTTL(sess)); err != nil {
		return nil, err
	}

	log := s.logger.With(zap.String("sessionId", sess.ID), zap.String("code", NormalizeCode(code)))
	if applyErr != nil {
		log.Info("coupon rejected", zap.Error(applyErr))
		return sess, applyErr
	}
	log.Info("coupon applied", zap.Float64("discount", sess.Coupon.Discount))
	return sess, nil
}

// Pay settles the session with paymentMethod. Paying a settled session
// returns the stored payment without charging again.
func (s *Service) Pay(ctx context.Context, id, email, paymentMethod string) (*models.PaymentRecord, *Session, error) {
	release, holder, err := s.store.Acquire(ctx, id, lockPayment, s.cfg.PaymentTimeout)
	if err != nil {
		return nil, nil, err
	}
	if holder != "" {
		return nil, nil, busyError(holder)
	}
	defer release()

	sess, err := s.Get(ctx, id, email)
	if err != nil {
		return nil, nil, err
	}
	if sess.Settled() {
		rec, err := s.payments.GetByID(ctx, sess.PaymentID)
		if err != nil {
			return nil, sess, fmt.Errorf("load settled payment: %w", err)
		}
		return rec, sess, nil
	}

	// Sessions of the same booking share one payment lock.
	releaseBooking, holder, err := s.store.Acquire(ctx, bookingLockID(sess.BookingID), lockPayment, s.cfg.PaymentTimeout)
	if err != nil {
		return nil, sess, err
	}
	if holder != "" {
		return nil, sess, ErrPaymentInFlight
	}
	defer releaseBooking()

	existing, err := s.recordedPayment(ctx, sess.BookingID)
	if err != nil {
		return nil, sess, err
	}
	if existing != nil {
		if existing.IdempotencyKey != sess.ID {
			return nil, sess, fmt.Errorf("%w: payment %s already recorded", ErrBookingNotPayable, existing.ID)
		}
		// A queued record of this session's charge has landed.
		s.markSettled(ctx, sess, existing.ID)
		return existing, sess, nil
	}

	booking, err := s.bookings.GetByID(ctx, sess.BookingID)
	if err != nil {
		return nil, sess, err
	}
	if err := payable(booking, email); err != nil {
		return nil, sess, err
	}

	payCtx, cancel := context.WithTimeout(ctx, s.cfg.PaymentTimeout)
	defer cancel()
	rec, err := s.settler.SubmitPayment(payCtx, SettlementRequest{
		Booking:        *booking,
		FinalPrice:     sess.FinalPrice(),
		Discount:       sess.Coupon.Discount,
		CouponCode:     sess.Coupon.Code(),
		PaymentMethod:  paymentMethod,
		IdempotencyKey: sess.ID,
	})

	var partial *PartialSettlementError
	switch {
	case errors.As(err, &partial):
		// The card was charged and the record exists; never charge this session again.
		s.markSettled(ctx, sess, partial.Payment.ID)
		return partial.Payment, sess, err
	case err != nil:
		return nil, sess, err
	}

	s.markSettled(ctx, sess, rec.ID)
	return rec, sess, nil
}

// Cancel abandons an open session. Settled sessions are kept so repeated
// Pay calls keep returning the stored payment.
func (s *Service) Cancel(ctx context.Context, id, email string) error {
	release, holder, err := s.store.Acquire(ctx, id, lockPayment, s.cfg.LookupTimeout)
	if err != nil {
		return err
	}
	if holder != "" {
		return busyError(holder)
	}
	defer release()

	sess, err := s.Get(ctx, id, email)
	if err != nil {
		return err
	}
	if sess.Settled() {
		return ErrSessionSettled
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("checkout cancelled", zap.String("sessionId", id), zap.String("bookingId", sess.BookingID))
	return nil
}

// recordedPayment returns the payment stored for bookingID, or nil.
func (s *Service) recordedPayment(ctx context.Context, bookingID string) (*models.PaymentRecord, error) {
	rec, err := s.payments.GetByBookingID(ctx, bookingID)
	if errors.Is(err, paymentRepo.ErrPaymentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load payment for booking %s: %w", bookingID, err)
	}
	return rec, nil
}

func bookingLockID(bookingID string) string {
	return "booking:" + bookingID
}

func (s *Service) markSettled(ctx context.Context, sess *Session, paymentID string) {
	sess.Status = SessionSettled
	sess.PaymentID = paymentID
	// Settled sessions are kept a full TTL so repeated Pay calls find the payment.
	if err := s.store.Save(context.WithoutCancel(ctx), sess, s.cfg.SessionTTL); err != nil {
		s.logger.Error("settled checkout not saved",
			zap.String("sessionId", sess.ID), zap.String("paymentId", paymentID), zap.Error(err))
	}
}

func (s *Service) remainingTTL(sess *Session) time.Duration {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return time.Second
	}
	return ttl
}

func payable(booking *models.Booking, email string) error {
	if !ownedBy(booking.UserEmail, email) {
		return fmt.Errorf("%w: booking belongs to another member", ErrBookingNotPayable)
	}
	if booking.Status != models.BookingStatusApproved {
		return fmt.Errorf("%w: booking is %s", ErrBookingNotPayable, booking.Status)
	}
	if booking.IsPaid() {
		return fmt.Errorf("%w: booking already paid", ErrBookingNotPayable)
	}
	return nil
}

func busyError(holder string) error {
	if holder == lockCoupon {
		return ErrCouponValidationInFlight
	}
	return ErrPaymentInFlight
}
