package store

import (
	"time"

	"parking-reservation-backend/internal/model"
)

// BookingFilter narrows ListBookings. Zero values match everything.
type BookingFilter struct {
	UserID      string
	SlotID      string
	Status      model.BookingStatus
	StartAfter  *time.Time // start_time >= StartAfter
	StartBefore *time.Time // start_time < StartBefore
	Limit       int
}

// SlotFilter narrows ListSlots. Zero values match everything.
type SlotFilter struct {
	Floor int
	Type  model.SlotType
}
