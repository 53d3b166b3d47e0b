package couponRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sportivox/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoCouponRepo implements CouponRepository using MongoDB.
type MongoCouponRepo struct {
	coll *mongo.Collection
}

// NewMongoCouponRepo creates a new CouponRepository backed by db.
func NewMongoCouponRepo(db *mongo.Database) CouponRepository {
	repo := &MongoCouponRepo{coll: db.Collection(CollectionName)}
	if err := repo.ensureIndexes(); err != nil {
		zap.L().Warn("coupon indexes not created", zap.Error(err))
	}
	return repo
}

func (r *MongoCouponRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoCouponRepo) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.coll.FindOne(ctx, bson.M{"code": code}).Decode(&coupon)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find coupon %q: %w", code, err)
	}
	return &coupon, nil
}

func (r *MongoCouponRepo) List(ctx context.Context) ([]models.Coupon, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer cursor.Close(ctx)

	coupons := []models.Coupon{}
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, fmt.Errorf("decode coupons: %w", err)
	}
	return coupons, nil
}

func (r *MongoCouponRepo) Create(ctx context.Context, coupon *models.Coupon) error {
	if coupon.ID == "" {
		coupon.ID = uuid.New().String()
	}
	if coupon.CreatedAt.IsZero() {
		coupon.CreatedAt = time.Now()
	}
	if _, err := r.coll.InsertOne(ctx, coupon); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrCouponExists
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

func (r *MongoCouponRepo) DeleteByCode(ctx context.Context, code string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"code": code})
	if err != nil {
		return fmt.Errorf("delete coupon %q: %w", code, err)
	}
	if res.DeletedCount == 0 {
		return ErrCouponNotFound
	}
	return nil
}
