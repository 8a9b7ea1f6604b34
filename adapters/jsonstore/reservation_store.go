package jsonstore

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/hrdiansyah/serena/domain/entities"
	"github.com/hrdiansyah/serena/domain/repositories"
)

// ReservationStore keeps reservation records in a local JSON array file.
// The file is the source of truth; every Append rewrites it in full so the
// array stays valid even if the process dies between sessions.
type ReservationStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

var _ repositories.ReservationStore = (*ReservationStore)(nil)

// NewReservationStore creates a store backed by the given file path.
func NewReservationStore(path string, logger *zap.Logger) (*ReservationStore, error) {
	if path == "" {
		return nil, fmt.Errorf("reservation file path is required")
	}
	return &ReservationStore{path: path, logger: logger}, nil
}

// Load reads all stored records. A missing file is an empty store, not an
// error.
func (s *ReservationStore) Load() ([]entities.ReservationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *ReservationStore) load() ([]entities.ReservationRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []entities.ReservationRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read reservation file: %w", err)
	}

	var records []entities.ReservationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse reservation file: %w", err)
	}
	return records, nil
}

// Append adds one record to the file.
func (s *ReservationStore) Append(record entities.ReservationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	records = append(records, record)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode reservation records: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write reservation file: %w", err)
	}

	s.logger.Info("Reservation saved",
		zap.String("guest", record.GuestName),
		zap.Int("total_records", len(records)))

	return nil
}
