package entities

import (
	"errors"
	"time"
)

// ReservationRecord is the structured outcome of one completed conversation.
// The JSON keys match the reservation store file schema consumed by staff
// tooling, so they are kept as-is even where the casing is inconsistent.
type ReservationRecord struct {
	Available       bool   `json:"Available" bson:"available"`
	CheckInDate     string `json:"CheckInDate" bson:"check_in_date"`
	CheckoutDate    string `json:"CheckoutDate" bson:"checkout_date"`
	NumberOfGuests  int    `json:"NumberOfGuests" bson:"number_of_guests"`
	GuestName       string `json:"guest_name" bson:"guest_name"`
	RoomType        string `json:"room_type" bson:"room_type"`
	SpecialRequests string `json:"special_requests" bson:"special_requests"`
}

const reservationDateLayout = "2006-01-02"

// Validate checks the record before it is persisted.
func (r *ReservationRecord) Validate() error {
	if r.GuestName == "" {
		return errors.New("guest name is required")
	}
	if r.NumberOfGuests < 1 {
		return errors.New("number of guests must be at least 1")
	}
	if _, err := time.Parse(reservationDateLayout, r.CheckInDate); err != nil {
		return errors.New("check-in date must be in YYYY-MM-DD format")
	}
	if _, err := time.Parse(reservationDateLayout, r.CheckoutDate); err != nil {
		return errors.New("checkout date must be in YYYY-MM-DD format")
	}
	return nil
}
