package device

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hrdiansyah/serena/domain/entities"
	"github.com/hrdiansyah/serena/domain/repositories"
)

// MemoryRepository is an in-memory DeviceRepository seeded from configured
// serial/secret pairs. The device fleet is small and provisioned through
// configuration, so a simple map backend is enough.
type MemoryRepository struct {
	mu      sync.RWMutex
	serials map[string]*entities.Device // serial_number -> device
	secrets map[string]string           // serial_number -> secret_key
}

var _ repositories.DeviceRepository = (*MemoryRepository)(nil)

// NewMemoryRepository creates a repository seeded with the given
// serial number to secret pairs.
func NewMemoryRepository(credentials map[string]string) *MemoryRepository {
	repo := &MemoryRepository{
		serials: make(map[string]*entities.Device),
		secrets: make(map[string]string),
	}
	for serial, secret := range credentials {
		repo.serials[serial] = &entities.Device{
			ID:           uuid.New().String(),
			SerialNumber: serial,
			Label:        serial,
			CreatedAt:    time.Now(),
		}
		repo.secrets[serial] = secret
	}
	return repo
}

// Register adds or replaces the credentials of one device.
func (m *MemoryRepository) Register(serialNumber, secret string) error {
	if serialNumber == "" {
		return errors.New("serial number cannot be empty")
	}
	if secret == "" {
		return errors.New("secret cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.serials[serialNumber]; !exists {
		m.serials[serialNumber] = &entities.Device{
			ID:           uuid.New().String(),
			SerialNumber: serialNumber,
			Label:        serialNumber,
			CreatedAt:    time.Now(),
		}
	}
	m.secrets[serialNumber] = secret
	return nil
}

// ValidateDevice checks the serial number and secret and returns the device.
func (m *MemoryRepository) ValidateDevice(serialNumber, secret string) (*entities.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	storedSecret, exists := m.secrets[serialNumber]
	if !exists {
		return nil, errors.New("device not found")
	}
	if storedSecret != secret {
		return nil, errors.New("invalid credentials")
	}

	device, exists := m.serials[serialNumber]
	if !exists {
		return nil, errors.New("device not found")
	}

	// Return a copy to prevent external modifications
	deviceCopy := *device
	return &deviceCopy, nil
}
