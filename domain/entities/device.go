package entities

import (
	"errors"
	"time"
)

// Device represents a lobby terminal that streams guest audio to the server.
type Device struct {
	ID           string    `json:"id"`
	SerialNumber string    `json:"serial_number"`
	Label        string    `json:"label"`
	CreatedAt    time.Time `json:"created_at"`
}

func (d *Device) Validate() error {
	if d.SerialNumber == "" {
		return errors.New("serial number is required")
	}
	return nil
}
