package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sportivox/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeSettlementReconcile = "settlement:reconcile"
	TypeSettlementRecord    = "settlement:record"
)

// ReconcilePayload names a booking whose payment was recorded but whose
// paymentStatus patch failed.
type ReconcilePayload struct {
	BookingID string `json:"bookingId"`
	PaymentID string `json:"paymentId,omitempty"`
}

func NewReconcileTask(payload ReconcilePayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSettlementReconcile, b)
	opts := []asynq.Option{
		asynq.MaxRetry(10),
		asynq.Timeout(30 * time.Second),
		asynq.TaskID("reconcile:" + payload.BookingID),
	}
	return task, opts, nil
}

// RecordPayload carries a charge that went through but whose payment record
// was not written.
type RecordPayload struct {
	Payment models.PaymentRecord `json:"payment"`
}

func NewRecordTask(payload RecordPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSettlementRecord, b)
	opts := []asynq.Option{
		asynq.MaxRetry(25),
		asynq.Timeout(30 * time.Second),
		asynq.TaskID("record:" + payload.Payment.TransactionID),
	}
	return task, opts, nil
}

// AsynqEnqueuer implements checkout.ReconcileEnqueuer.
type AsynqEnqueuer struct {
	client *asynq.Client
}

func NewAsynqEnqueuer(client *asynq.Client) *AsynqEnqueuer {
	return &AsynqEnqueuer{client: client}
}

func (e *AsynqEnqueuer) EnqueueReconcile(ctx context.Context, bookingID, paymentID string) error {
	task, opts, err := NewReconcileTask(ReconcilePayload{BookingID: bookingID, PaymentID: paymentID})
	if err != nil {
		return err
	}
	if _, err := e.client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("enqueue reconcile for booking %s: %w", bookingID, err)
	}
	return nil
}

func (e *AsynqEnqueuer) EnqueueRecord(ctx context.Context, rec models.PaymentRecord) error {
	task, opts, err := NewRecordTask(RecordPayload{Payment: rec})
	if err != nil {
		return err
	}
	if _, err := e.client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("enqueue record for transaction %s: %w", rec.TransactionID, err)
	}
	return nil
}

// PaymentLookup finds the payment recorded for a booking.
type PaymentLookup interface {
	GetByBookingID(ctx context.Context, bookingID string) (*models.PaymentRecord, error)
}

// BookingPayer marks a booking paid.
type BookingPayer interface {
	MarkPaid(ctx context.Context, id, status string) (*models.Booking, error)
}

// PaymentWriter persists a payment record; a repeated idempotency key
// returns the stored record.
type PaymentWriter interface {
	RecordPayment(ctx context.Context, rec *models.PaymentRecord) (*models.PaymentRecord, error)
}

// Reconciler completes partial settlements: a booking is only marked paid
// when a payment record exists for it.
type Reconciler struct {
	payments PaymentLookup
	bookings BookingPayer
	recorder PaymentWriter
	logger   *zap.Logger
}

func NewReconciler(payments PaymentLookup, bookings BookingPayer, recorder PaymentWriter, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.L()
	}
	return &Reconciler{payments: payments, bookings: bookings, recorder: recorder, logger: logger.Named("reconcile")}
}

// Reconcile marks bookingID paid if its payment was recorded.
func (r *Reconciler) Reconcile(ctx context.Context, bookingID string) error {
	rec, err := r.payments.GetByBookingID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("no payment recorded for booking %s: %w", bookingID, err)
	}
	booking, err := r.bookings.MarkPaid(ctx, bookingID, models.PaymentStatusPaid)
	if err != nil {
		return fmt.Errorf("mark booking %s paid: %w", bookingID, err)
	}
	r.logger.Info("booking reconciled",
		zap.String("bookingId", booking.ID),
		zap.String("paymentId", rec.ID),
		zap.String("paymentStatus", booking.PaymentStatus),
	)
	return nil
}

// HandleReconcileTask is the asynq handler for TypeSettlementReconcile.
func (r *Reconciler) HandleReconcileTask(ctx context.Context, task *asynq.Task) error {
	var p ReconcilePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		r.logger.Error("invalid reconcile payload", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if p.BookingID == "" {
		return fmt.Errorf("missing booking id: %w", asynq.SkipRetry)
	}
	return r.Reconcile(ctx, p.BookingID)
}

// HandleRecordTask is the asynq handler for TypeSettlementRecord. It writes
// the queued record, then marks the booking paid.
func (r *Reconciler) HandleRecordTask(ctx context.Context, task *asynq.Task) error {
	var p RecordPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		r.logger.Error("invalid record payload", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if p.Payment.BookingID == "" || p.Payment.TransactionID == "" {
		return fmt.Errorf("record payload without booking or transaction: %w", asynq.SkipRetry)
	}

	stored, err := r.recorder.RecordPayment(ctx, &p.Payment)
	if err != nil {
		return fmt.Errorf("record payment for transaction %s: %w", p.Payment.TransactionID, err)
	}
	if stored.TransactionID != p.Payment.TransactionID {
		// The booking already carries another charge; this one needs a refund.
		r.logger.Error("booking already has a different payment",
			zap.String("bookingId", p.Payment.BookingID),
			zap.String("transactionId", p.Payment.TransactionID),
			zap.String("storedTransactionId", stored.TransactionID),
		)
	}
	return r.Reconcile(ctx, p.Payment.BookingID)
}
