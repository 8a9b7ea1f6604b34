package repositories

import "github.com/hrdiansyah/serena/domain/entities"

// DeviceRepository validates lobby terminal credentials.
type DeviceRepository interface {
	ValidateDevice(serialNumber, secret string) (*entities.Device, error)
}
