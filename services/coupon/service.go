package coupon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	couponRepo "sportivox/database/repository/coupon"
	"sportivox/models"
	"sportivox/services/checkout"
	"sportivox/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var ErrInvalidCoupon = errors.New("invalid coupon")

// CreateCouponInput is the admin payload for a new coupon.
type CreateCouponInput struct {
	Code        string  `json:"code" binding:"required"`
	Type        string  `json:"type" binding:"required,oneof=percent amount"`
	Value       float64 `json:"value" binding:"required,gt=0"`
	Description string  `json:"description"`
}

// Service looks coupons up by code, read-through cached in Redis.
type Service struct {
	repo   couponRepo.CouponRepository
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewService creates a coupon Service. A nil cache disables caching.
func NewService(repo couponRepo.CouponRepository, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.L()
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, logger: logger.Named("coupon")}
}

func cacheKey(code string) string {
	return utils.CouponCachePrefix + code
}

// Lookup returns the coupon for code, or (nil, nil) when none matches.
// Misses are not cached so a newly created coupon is visible at once.
func (s *Service) Lookup(ctx context.Context, code string) (*models.Coupon, error) {
	code = checkout.NormalizeCode(code)
	if code == "" {
		return nil, nil
	}

	if s.cache != nil {
		data, err := s.cache.Get(ctx, cacheKey(code)).Bytes()
		switch {
		case err == nil:
			var c models.Coupon
			if jerr := json.Unmarshal(data, &c); jerr == nil {
				return &c, nil
			}
			s.logger.Warn("dropping unreadable cached coupon", zap.String("code", code))
			_ = s.cache.Del(ctx, cacheKey(code)).Err()
		case !errors.Is(err, redis.Nil):
			s.logger.Warn("coupon cache unavailable, falling back to database", zap.Error(err))
		}
	}

	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}

	if s.cache != nil {
		if data, err := json.Marshal(c); err == nil {
			if err := s.cache.Set(ctx, cacheKey(code), data, s.ttl).Err(); err != nil {
				s.logger.Warn("failed to cache coupon", zap.String("code", code), zap.Error(err))
			}
		}
	}
	return c, nil
}

// List returns every coupon for suggestion display.
func (s *Service) List(ctx context.Context) ([]models.Coupon, error) {
	return s.repo.List(ctx)
}

// Create validates and stores a new coupon.
func (s *Service) Create(ctx context.Context, in CreateCouponInput) (*models.Coupon, error) {
	c := &models.Coupon{
		Code:        checkout.NormalizeCode(in.Code),
		Type:        in.Type,
		Value:       in.Value,
		Description: in.Description,
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("coupon created", zap.String("code", c.Code), zap.String("type", c.Type), zap.Float64("value", c.Value))
	return c, nil
}

// Delete removes a coupon and its cache entry.
func (s *Service) Delete(ctx context.Context, code string) error {
	code = checkout.NormalizeCode(code)
	if err := s.repo.DeleteByCode(ctx, code); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, cacheKey(code)).Err()
	}
	return nil
}

func validate(c *models.Coupon) error {
	if c.Code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidCoupon)
	}
	if c.Value <= 0 {
		return fmt.Errorf("%w: value must be positive", ErrInvalidCoupon)
	}
	switch c.Type {
	case models.CouponTypePercent:
		if c.Value > 100 {
			return fmt.Errorf("%w: percent value above 100", ErrInvalidCoupon)
		}
	case models.CouponTypeAmount:
	default:
		return fmt.Errorf("%w: type must be percent or amount", ErrInvalidCoupon)
	}
	return nil
}
