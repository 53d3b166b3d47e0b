package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sportivox/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentGateway is the card processor: a server-side intent plus its confirmation.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*models.PaymentIntent, error)
	// ConfirmIntent returns a *CardDeclinedError when the processor refuses the card.
	ConfirmIntent(ctx context.Context, intentID, paymentMethod string) (*models.PaymentIntent, error)
}

// IntentRequest describes a payment intent to create.
type IntentRequest struct {
	Amount         int64 // minor units
	Currency       string
	IdempotencyKey string
	ReceiptEmail   string
	Metadata       map[string]string
}

// SettlementRecorder persists a settled payment in two separate writes.
// RecordPayment returns the already stored record when the idempotency key
// was seen before; MarkBookingPaid succeeds when the booking is already paid.
type SettlementRecorder interface {
	RecordPayment(ctx context.Context, rec *models.PaymentRecord) (*models.PaymentRecord, error)
	MarkBookingPaid(ctx context.Context, bookingID string) (*models.Booking, error)
}

// AtomicSettlementRecorder can also persist the record and the booking
// transition together.
type AtomicSettlementRecorder interface {
	SettlementRecorder
	Settle(ctx context.Context, rec *models.PaymentRecord) (*models.PaymentRecord, error)
}

// ReconcileEnqueuer schedules later attempts to finish a settlement:
// marking a booking paid, or persisting the record of a charge that went through.
type ReconcileEnqueuer interface {
	EnqueueReconcile(ctx context.Context, bookingID, paymentID string) error
	EnqueueRecord(ctx context.Context, rec models.PaymentRecord) error
}

// SettledHook runs after a settlement has been fully persisted.
type SettledHook func(ctx context.Context, booking models.Booking, rec models.PaymentRecord)

// SettlementRequest is one submission of the checkout.
type SettlementRequest struct {
	Booking        models.Booking
	FinalPrice     float64
	Discount       float64
	CouponCode     string
	PaymentMethod  string
	IdempotencyKey string
	// OnSuccess is called with the stored record once settlement completes.
	OnSuccess func(rec *models.PaymentRecord)
}

// SettlerConfig tunes a Settler.
type SettlerConfig struct {
	Currency   string
	Atomic     bool
	Reconciler ReconcileEnqueuer
	Hooks      []SettledHook
	// RecordTimeout bounds the writes after a successful charge. They run
	// detached from the request so a client disconnect cannot drop them.
	RecordTimeout time.Duration
}

// Settler drives a checkout from payment intent to persisted settlement.
// Steps run strictly in order and none is retried automatically.
type Settler struct {
	gateway  PaymentGateway
	recorder SettlementRecorder
	cfg      SettlerConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewSettler builds a Settler. A nil logger falls back to the global zap logger.
func NewSettler(gateway PaymentGateway, recorder SettlementRecorder, cfg SettlerConfig, logger *zap.Logger) *Settler {
	if logger == nil {
		logger = zap.L()
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = 15 * time.Second
	}
	return &Settler{
		gateway:  gateway,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger.Named("settlement"),
		now:      time.Now,
	}
}

// OnSettled registers a hook run after every completed settlement.
func (s *Settler) OnSettled(hook SettledHook) {
	s.cfg.Hooks = append(s.cfg.Hooks, hook)
}

// SubmitPayment charges req.FinalPrice and records the settlement.
//
// Processor failures return a *PaymentError and write nothing. In two-step
// mode a failure to mark the booking paid returns a *PartialSettlementError:
// the payment record stays persisted and the booking stays unpaid. When the
// charge succeeds but the record can not be written, the record is queued
// and the error wraps ErrSettlementPending.
func (s *Settler) SubmitPayment(ctx context.Context, req SettlementRequest) (*models.PaymentRecord, error) {
	if err := validateSettlement(req); err != nil {
		return nil, err
	}
	log := s.logger.With(
		zap.String("bookingId", req.Booking.ID),
		zap.String("idempotencyKey", req.IdempotencyKey),
		zap.Float64("amount", req.FinalPrice),
	)

	transactionID, err := s.charge(ctx, req, log)
	if err != nil {
		return nil, err
	}

	rec := &models.PaymentRecord{
		ID:             uuid.New().String(),
		BookingID:      req.Booking.ID,
		BookingKind:    req.Booking.Kind,
		UserEmail:      req.Booking.UserEmail,
		Amount:         req.FinalPrice,
		TransactionID:  transactionID,
		Discount:       req.Discount,
		CouponUsed:     req.CouponCode,
		Date:           s.now(),
		Status:         models.PaymentStatusPaid,
		IdempotencyKey: req.IdempotencyKey,
	}

	stored, err := s.record(ctx, rec, log)
	if err != nil {
		return nil, err
	}

	log.Info("settlement completed",
		zap.String("paymentId", stored.ID),
		zap.String("transactionId", stored.TransactionID),
	)
	for _, hook := range s.cfg.Hooks {
		hook(ctx, req.Booking, *stored)
	}
	if req.OnSuccess != nil {
		req.OnSuccess(stored)
	}
	return stored, nil
}

func validateSettlement(req SettlementRequest) error {
	if req.Booking.ID == "" {
		return fmt.Errorf("%w: missing booking", ErrBookingNotPayable)
	}
	if req.Booking.IsPaid() {
		return ErrBookingNotPayable
	}
	if req.FinalPrice < 0 {
		return ErrInvalidAmount
	}
	if req.FinalPrice > 0 && req.PaymentMethod == "" {
		return ErrMissingPaymentMethod
	}
	return nil
}

// charge runs intent creation and confirmation. A zero final price never
// reaches the processor.
func (s *Settler) charge(ctx context.Context, req SettlementRequest, log *zap.Logger) (string, error) {
	if req.FinalPrice == 0 {
		log.Info("final price is zero, skipping processor")
		return "free_" + uuid.New().String(), nil
	}

	intent, err := s.gateway.CreateIntent(ctx, IntentRequest{
		Amount:         ToMinorUnits(req.FinalPrice),
		Currency:       s.cfg.Currency,
		IdempotencyKey: intentKey(req),
		ReceiptEmail:   req.Booking.UserEmail,
		Metadata: map[string]string{
			"booking_id": req.Booking.ID,
			"coupon":     req.CouponCode,
		},
	})
	if err != nil {
		log.Warn("payment intent creation failed", zap.Error(err))
		return "", &PaymentError{Kind: PaymentErrorService, Step: "create_intent", Err: err}
	}

	confirmed, err := s.gateway.ConfirmIntent(ctx, intent.ID, req.PaymentMethod)
	if err != nil {
		var declined *CardDeclinedError
		if errors.As(err, &declined) {
			log.Info("card declined", zap.String("code", declined.Code), zap.String("declineCode", declined.DeclineCode))
			return "", &PaymentError{Kind: PaymentErrorDeclined, Step: "confirm_intent", Message: declined.Message, Err: err}
		}
		log.Warn("payment confirmation failed", zap.Error(err))
		return "", &PaymentError{Kind: PaymentErrorService, Step: "confirm_intent", Err: err}
	}
	if confirmed.Status != "succeeded" {
		err := fmt.Errorf("intent %s ended in status %q", confirmed.ID, confirmed.Status)
		log.Warn("payment not completed", zap.Error(err))
		return "", &PaymentError{Kind: PaymentErrorService, Step: "confirm_intent", Err: err}
	}
	return confirmed.ID, nil
}

// intentKey scopes the processor idempotency key to the amount and coupon
// being charged, so a retry after a decline with a new coupon creates a new intent.
func intentKey(req SettlementRequest) string {
	if req.IdempotencyKey == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d:%s", req.IdempotencyKey, ToMinorUnits(req.FinalPrice), req.CouponCode)
}

func (s *Settler) record(ctx context.Context, rec *models.PaymentRecord, log *zap.Logger) (*models.PaymentRecord, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RecordTimeout)
	defer cancel()

	if atomic, ok := s.recorder.(AtomicSettlementRecorder); ok && s.cfg.Atomic {
		stored, err := atomic.Settle(ctx, rec)
		if err != nil {
			log.Error("atomic settlement failed after successful charge",
				zap.String("transactionId", rec.TransactionID), zap.Error(err))
			return nil, s.queueRecord(ctx, rec, err, log)
		}
		return stored, nil
	}

	stored, err := s.recorder.RecordPayment(ctx, rec)
	if err != nil {
		log.Error("payment record not persisted after successful charge",
			zap.String("transactionId", rec.TransactionID), zap.Error(err))
		return nil, s.queueRecord(ctx, rec, err, log)
	}

	if _, err := s.recorder.MarkBookingPaid(ctx, stored.BookingID); err != nil {
		log.Error("booking not marked paid, settlement is partial",
			zap.String("paymentId", stored.ID), zap.Error(err))
		if s.cfg.Reconciler != nil {
			if qerr := s.cfg.Reconciler.EnqueueReconcile(context.WithoutCancel(ctx), stored.BookingID, stored.ID); qerr != nil {
				log.Error("reconcile task not enqueued", zap.Error(qerr))
			}
		}
		return nil, &PartialSettlementError{Payment: stored, Err: err}
	}
	return stored, nil
}

// queueRecord hands a charged but unrecorded payment to the worker.
func (s *Settler) queueRecord(ctx context.Context, rec *models.PaymentRecord, cause error, log *zap.Logger) error {
	err := fmt.Errorf("%w: transaction %s: %v", ErrSettlementPending, rec.TransactionID, cause)
	if s.cfg.Reconciler == nil {
		return err
	}
	qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if qerr := s.cfg.Reconciler.EnqueueRecord(qctx, *rec); qerr != nil {
		log.Error("record task not enqueued, charge needs manual reconciliation",
			zap.String("transactionId", rec.TransactionID), zap.Error(qerr))
	}
	return err
}
