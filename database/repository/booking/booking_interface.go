package bookingRepo

import (
	"context"
	"errors"
	"time"

	"sportivox/models"
)

// CollectionName is the MongoDB collection holding court and coach bookings.
const CollectionName = "bookings"

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrAlreadyPaid     = errors.New("booking already paid")
)

// BookingRepository defines methods for booking data access.
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ListByEmail(ctx context.Context, email, status string) ([]models.Booking, error)
	// MarkPaid flips paymentStatus from unpaid to paid. It returns ErrAlreadyPaid
	// when the booking was settled before, so the transition happens once.
	MarkPaid(ctx context.Context, id string, paidAt time.Time) (*models.Booking, error)
}
