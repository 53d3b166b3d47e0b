package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sportivox/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo creates a new BookingRepository backed by db.
func NewMongoBookingRepo(db *mongo.Database) BookingRepository {
	repo := &MongoBookingRepo{coll: db.Collection(CollectionName)}
	if err := repo.ensureIndexes(); err != nil {
		zap.L().Warn("booking indexes not created", zap.Error(err))
	}
	return repo
}

func (r *MongoBookingRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userEmail", Value: 1}, {Key: "status", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find booking %s: %w", id, err)
	}
	return &booking, nil
}

func (r *MongoBookingRepo) ListByEmail(ctx context.Context, email, status string) ([]models.Booking, error) {
	filter := bson.M{"userEmail": email}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *MongoBookingRepo) MarkPaid(ctx context.Context, id string, paidAt time.Time) (*models.Booking, error) {
	return MarkPaidInCollection(ctx, r.coll, id, paidAt)
}

// MarkPaidInCollection performs the unpaid -> paid transition on coll. It is
// shared with the settlement transaction, which passes a session context.
func MarkPaidInCollection(ctx context.Context, coll *mongo.Collection, id string, paidAt time.Time) (*models.Booking, error) {
	filter := bson.M{"id": id, "paymentStatus": bson.M{"$ne": models.PaymentStatusPaid}}
	update := bson.M{"$set": bson.M{
		"paymentStatus": models.PaymentStatusPaid,
		"paidAt":        paidAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking models.Booking
	err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if err == nil {
		return &booking, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("mark booking %s paid: %w", id, err)
	}

	count, cerr := coll.CountDocuments(ctx, bson.M{"id": id})
	if cerr != nil {
		return nil, fmt.Errorf("check booking %s: %w", id, cerr)
	}
	if count == 0 {
		return nil, ErrBookingNotFound
	}
	return nil, ErrAlreadyPaid
}
