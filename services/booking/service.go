package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bookingRepo "sportivox/database/repository/booking"
	"sportivox/models"
	"sportivox/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var ErrInvalidPaymentStatus = errors.New("paymentStatus can only be set to paid")

// Service exposes member bookings and their payment state.
type Service struct {
	repo   bookingRepo.BookingRepository
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewService creates a booking Service. A nil cache disables summary caching.
func NewService(repo bookingRepo.BookingRepository, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.L()
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, logger: logger.Named("booking")}
}

func summaryKey(email string) string {
	return utils.SummaryCachePrefix + email
}

func (s *Service) Get(ctx context.Context, id string) (*models.Booking, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByEmail returns the member's bookings, optionally filtered by approval status.
func (s *Service) ListByEmail(ctx context.Context, email, status string) ([]models.Booking, error) {
	bookings, err := s.repo.ListByEmail(ctx, email, status)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

// MarkPaid applies a paymentStatus patch. Only "paid" is accepted and an
// already paid booking is returned unchanged.
func (s *Service) MarkPaid(ctx context.Context, id, status string) (*models.Booking, error) {
	if status != models.PaymentStatusPaid {
		return nil, ErrInvalidPaymentStatus
	}
	booking, err := s.repo.MarkPaid(ctx, id, time.Now())
	if errors.Is(err, bookingRepo.ErrAlreadyPaid) {
		return s.repo.GetByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("booking marked paid", zap.String("bookingId", id))
	s.InvalidateSummary(ctx, booking.UserEmail)
	return booking, nil
}

// ApprovedSummary aggregates the member's approved court and coach bookings.
func (s *Service) ApprovedSummary(ctx context.Context, email string) (*models.BookingSummary, error) {
	if s.cache != nil {
		data, err := s.cache.Get(ctx, summaryKey(email)).Bytes()
		if err == nil {
			var cached models.BookingSummary
			if jerr := json.Unmarshal(data, &cached); jerr == nil {
				return &cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("summary cache unavailable", zap.Error(err))
		}
	}

	bookings, err := s.repo.ListByEmail(ctx, email, models.BookingStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("load approved bookings: %w", err)
	}
	summary := Summarize(email, bookings)

	if s.cache != nil {
		if data, err := json.Marshal(summary); err == nil {
			_ = s.cache.Set(ctx, summaryKey(email), data, s.ttl).Err()
		}
	}
	return &summary, nil
}

// InvalidateSummary drops the cached summary of email.
func (s *Service) InvalidateSummary(ctx context.Context, email string) {
	if s.cache == nil || email == "" {
		return
	}
	if err := s.cache.Del(ctx, summaryKey(email)).Err(); err != nil {
		s.logger.Warn("failed to invalidate booking summary", zap.String("email", email), zap.Error(err))
	}
}

// OnSettled is a checkout.SettledHook keeping summaries fresh after payment.
func (s *Service) OnSettled(ctx context.Context, booking models.Booking, rec models.PaymentRecord) {
	s.InvalidateSummary(ctx, rec.UserEmail)
}
