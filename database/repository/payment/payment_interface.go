package paymentRepo

import (
	"context"
	"errors"

	"sportivox/models"
)

// CollectionName is the MongoDB collection holding payment records.
const CollectionName = "payments"

var (
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrDuplicatePayment = errors.New("payment already recorded")
)

// PaymentRepository defines methods for payment record access. Records are append-only.
type PaymentRepository interface {
	// Create inserts rec. A record with the same idempotency key or booking
	// yields ErrDuplicatePayment together with the existing record.
	Create(ctx context.Context, rec *models.PaymentRecord) (*models.PaymentRecord, error)
	GetByID(ctx context.Context, id string) (*models.PaymentRecord, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.PaymentRecord, error)
	GetByBookingID(ctx context.Context, bookingID string) (*models.PaymentRecord, error)
	ListByEmail(ctx context.Context, email string) ([]models.PaymentRecord, error)
}
