package booking

import (
	"context"
	"errors"
	"fmt"

	"parking-reservation-backend/internal/store"
)

var (
	ErrInvalidInterval   = errors.New("end time must be after start time")
	ErrInvalidSlot       = errors.New("invalid slot")
	ErrInvalidFilter     = errors.New("invalid filter")
	ErrSlotNotFound      = errors.New("slot not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrForbidden         = errors.New("not allowed to act on this resource")
	ErrTimeConflict      = errors.New("slot is already booked for an overlapping time")
	ErrAlreadyOccupied   = errors.New("slot is currently occupied")
	ErrAlreadyInactive   = errors.New("booking is no longer active")
	ErrSlotInUse         = errors.New("slot has active bookings")
	ErrDuplicateSlotName = errors.New("a slot with this name already exists")
	ErrTimeout           = errors.New("operation timed out")
	ErrUnavailable       = errors.New("service temporarily unavailable")
)

var domainErrors = []error{
	ErrInvalidInterval, ErrInvalidSlot, ErrInvalidFilter, ErrSlotNotFound, ErrBookingNotFound, ErrForbidden,
	ErrTimeConflict, ErrAlreadyOccupied, ErrAlreadyInactive, ErrSlotInUse, ErrDuplicateSlotName,
	ErrTimeout, ErrUnavailable,
}

// classify maps a failure from the store onto the engine's error taxonomy.
// Errors already in the taxonomy pass through untouched.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, domainErr := range domainErrors {
		if errors.Is(err, domainErr) {
			return err
		}
	}

	switch {
	case errors.Is(err, store.ErrOverlap):
		return ErrTimeConflict
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	default:
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
}
