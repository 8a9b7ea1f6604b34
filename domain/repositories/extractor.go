package repositories

import (
	"context"

	"github.com/hrdiansyah/serena/domain/entities"
)

// ReservationExtractor turns free-text conversation into a structured
// reservation record via a hosted model.
type ReservationExtractor interface {
	Extract(ctx context.Context, transcript string) (*entities.ReservationRecord, error)
}
