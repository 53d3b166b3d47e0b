package paymentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "sportivox/database/repository/booking"
	"sportivox/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoSettlementRecorder persists settlements. RecordPayment and
// MarkBookingPaid are the two-step sequence; Settle performs both inside
// one MongoDB transaction.
type MongoSettlementRecorder struct {
	payments PaymentRepository
	bookings bookingRepo.BookingRepository

	paymentColl *mongo.Collection
	bookingColl *mongo.Collection
}

// NewMongoSettlementRecorder builds a recorder over the payments and bookings collections of db.
func NewMongoSettlementRecorder(db *mongo.Database, payments PaymentRepository, bookings bookingRepo.BookingRepository) *MongoSettlementRecorder {
	return &MongoSettlementRecorder{
		payments:    payments,
		bookings:    bookings,
		paymentColl: db.Collection(CollectionName),
		bookingColl: db.Collection(bookingRepo.CollectionName),
	}
}

// RecordPayment persists rec. A replayed idempotency key returns the stored record.
func (s *MongoSettlementRecorder) RecordPayment(ctx context.Context, rec *models.PaymentRecord) (*models.PaymentRecord, error) {
	stored, err := s.payments.Create(ctx, rec)
	if errors.Is(err, ErrDuplicatePayment) && stored != nil {
		return stored, nil
	}
	return stored, err
}

// MarkBookingPaid flips the booking to paid. An already paid booking is not an error.
func (s *MongoSettlementRecorder) MarkBookingPaid(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.bookings.MarkPaid(ctx, bookingID, time.Now())
	if errors.Is(err, bookingRepo.ErrAlreadyPaid) {
		return s.bookings.GetByID(ctx, bookingID)
	}
	return booking, err
}

// Settle inserts rec and marks its booking paid in a single transaction.
// A replayed idempotency key returns the stored record without writing.
func (s *MongoSettlementRecorder) Settle(ctx context.Context, rec *models.PaymentRecord) (*models.PaymentRecord, error) {
	client := s.paymentColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		if err := insertInCollection(sc, s.paymentColl, rec); err != nil {
			return err
		}
		if _, err := bookingRepo.MarkPaidInCollection(sc, s.bookingColl, rec.BookingID, rec.Date); err != nil {
			return err
		}
		return nil
	}

	err = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
	if errors.Is(err, ErrDuplicatePayment) {
		// The aborted transaction wrote nothing; hand back what the first settlement stored.
		existing, ferr := s.payments.GetByIdempotencyKey(ctx, rec.IdempotencyKey)
		if ferr != nil {
			existing, ferr = s.payments.GetByBookingID(ctx, rec.BookingID)
		}
		if ferr != nil {
			return nil, fmt.Errorf("load settled payment: %w", ferr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settlement transaction failed: %w", err)
	}
	return rec, nil
}
