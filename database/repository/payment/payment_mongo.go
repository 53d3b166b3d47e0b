package paymentRepo

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

// MongoPaymentRepo implements PaymentRepository using MongoDB.
type MongoPaymentRepo struct {
	coll *mongo.Collection
}

// NewMongoPaymentRepo creates a new PaymentRepository backed by db.
func NewMongoPaymentRepo(db *mongo.Database) PaymentRepository {
	repo := &MongoPaymentRepo{coll: db.Collection(CollectionName)}
	if err := repo.ensureIndexes(); err != nil {
		zap.L().Warn("payment indexes not created", zap.Error(err))
	}
	return repo
}

func (r *MongoPaymentRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "idempotencyKey", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "bookingId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userEmail", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// prepare fills the generated fields of rec.
func prepare(rec *models.PaymentRecord) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.IdempotencyKey == "" {
		rec.IdempotencyKey = rec.ID
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now()
	}
}

func (r *MongoPaymentRepo) Create(ctx context.Context, rec *models.PaymentRecord) (*models.PaymentRecord, error) {
	if err := insertInCollection(ctx, r.coll, rec); err != nil {
		if !errors.Is(err, ErrDuplicatePayment) {
			return nil, err
		}
		existing, ferr := r.findDuplicate(ctx, rec)
		if ferr != nil {
			return nil, fmt.Errorf("load duplicate payment: %w", ferr)
		}
		return existing, ErrDuplicatePayment
	}
	return rec, nil
}

// findDuplicate loads the record that collided with rec on a unique index.
func (r *MongoPaymentRepo) findDuplicate(ctx context.Context, rec *models.PaymentRecord) (*models.PaymentRecord, error) {
	return findOne(ctx, r.coll, bson.M{"$or": bson.A{
		bson.M{"idempotencyKey": rec.IdempotencyKey},
		bson.M{"bookingId": rec.BookingID},
	}})
}

// insertInCollection is shared with the settlement transaction. A unique
// index violation is reported as ErrDuplicatePayment.
func insertInCollection(ctx context.Context, coll *mongo.Collection, rec *models.PaymentRecord) error {
	prepare(rec)
	if _, err := coll.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicatePayment
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func findOne(ctx context.Context, coll *mongo.Collection, filter bson.M) (*models.PaymentRecord, error) {
	var rec models.PaymentRecord
	err := coll.FindOne(ctx, filter).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *MongoPaymentRepo) GetByID(ctx context.Context, id string) (*models.PaymentRecord, error) {
	return findOne(ctx, r.coll, bson.M{"id": id})
}

func (r *MongoPaymentRepo) GetByIdempotencyKey(ctx context.Context, key string) (*models.PaymentRecord, error) {
	return findOne(ctx, r.coll, bson.M{"idempotencyKey": key})
}

func (r *MongoPaymentRepo) GetByBookingID(ctx context.Context, bookingID string) (*models.PaymentRecord, error) {
	return findOne(ctx, r.coll, bson.M{"bookingId": bookingID})
}

func (r *MongoPaymentRepo) ListByEmail(ctx context.Context, email string) ([]models.PaymentRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"userEmail": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer cursor.Close(ctx)

	records := []models.PaymentRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode payments: %w", err)
	}
	return records, nil
}
