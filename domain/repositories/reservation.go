package repositories

import (
	"context"

	"github.com/hrdiansyah/serena/domain/entities"
)

// ReservationStore persists reservation records locally, one JSON array file
// with read-modify-rewrite semantics.
type ReservationStore interface {
	Load() ([]entities.ReservationRecord, error)
	Append(record entities.ReservationRecord) error
}

// ReservationSink uploads reservation records to the hosted table store.
type ReservationSink interface {
	// InsertAll inserts the given records and returns how many were written.
	InsertAll(ctx context.Context, records []entities.ReservationRecord) (int, error)
}
