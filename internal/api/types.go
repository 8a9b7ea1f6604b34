package api

import (
	"time"

	"github.com/hrdiansyah/serena/domain/entities"
)

// DeviceAuthRequest represents the request payload for device authentication
type DeviceAuthRequest struct {
	SerialNumber string `json:"serial_number" validate:"required"`
	SecretKey    string `json:"secret_key" validate:"required"`
}

// DeviceAuthResponse represents the response payload for device authentication
type DeviceAuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	DeviceID  string    `json:"device_id"`
}

// ConversationResponse carries the outcome of one finished conversation.
type ConversationResponse struct {
	Reservation    *entities.ReservationRecord `json:"reservation"`
	TranscriptFile string                      `json:"transcript_file"`
	BilingualFile  string                      `json:"bilingual_file,omitempty"`
	JSONFile       string                      `json:"json_file"`
}

// SyncResponse reports a reservation upload.
type SyncResponse struct {
	Status          string `json:"status"`
	InsertedRecords int    `json:"inserted_records"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
