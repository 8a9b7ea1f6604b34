package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hrdiansyah/serena/domain/entities"
	"github.com/hrdiansyah/serena/domain/repositories"
)

// ReservationService moves locally captured reservations into the hosted
// database.
type ReservationService struct {
	store  repositories.ReservationStore
	sink   repositories.ReservationSink
	logger *zap.Logger
}

// NewReservationService creates a new reservation service
func NewReservationService(
	store repositories.ReservationStore,
	sink repositories.ReservationSink,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		store:  store,
		sink:   sink,
		logger: logger,
	}
}

// Sync uploads every record from the local store and returns how many were
// inserted.
func (s *ReservationService) Sync(ctx context.Context) (int, error) {
	records, err := s.store.Load()
	if err != nil {
		return 0, fmt.Errorf("failed to load local reservations: %w", err)
	}

	if len(records) == 0 {
		s.logger.Info("No local reservations to upload")
		return 0, nil
	}

	inserted, err := s.sink.InsertAll(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("failed to upload reservations: %w", err)
	}

	s.logger.Info("Reservations synced",
		zap.Int("loaded", len(records)),
		zap.Int("inserted", inserted))

	return inserted, nil
}

// Pending returns the records currently waiting in the local store.
func (s *ReservationService) Pending() ([]entities.ReservationRecord, error) {
	return s.store.Load()
}
