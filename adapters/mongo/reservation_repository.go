package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/hrdiansyah/serena/domain/entities"
	"github.com/hrdiansyah/serena/domain/repositories"
)

const reservationCollection = "hotel_reservations"

// ReservationRepository stores reservation records in the hosted
// hotel_reservations collection.
type ReservationRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

var _ repositories.ReservationSink = (*ReservationRepository)(nil)

// NewReservationRepository creates a new MongoDB reservation repository
func NewReservationRepository(db *mongo.Database, logger *zap.Logger) *ReservationRepository {
	return &ReservationRepository{
		collection: db.Collection(reservationCollection),
		logger:     logger,
	}
}

// InsertAll uploads the given records and returns how many were inserted.
// An empty batch is a no-op.
func (r *ReservationRepository) InsertAll(ctx context.Context, records []entities.ReservationRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, len(records))
	for i, record := range records {
		docs[i] = record
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("failed to insert reservations: %w", err)
	}

	inserted := len(result.InsertedIDs)
	r.logger.Info("Reservations uploaded",
		zap.Int("inserted", inserted))

	return inserted, nil
}

// List returns all stored reservations, newest first.
func (r *ReservationRepository) List(ctx context.Context) ([]entities.ReservationRecord, error) {
	opts := options.Find().SetSort(bson.M{"_id": -1})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer cursor.Close(ctx)

	records := []entities.ReservationRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}
	return records, nil
}
