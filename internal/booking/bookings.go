package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"parking-reservation-backend/internal/model"
	"parking-reservation-backend/internal/realtime"
	"parking-reservation-backend/internal/store"
)

// BookSlot reserves slotID for [start, end) on behalf of requester.
//
// The slot row is locked for the duration of the check and insert, so two callers racing
// for the same interval are serialized; the loser sees ErrTimeConflict.
func (e *Engine) BookSlot(ctx context.Context, slotID string, start, end time.Time, requester model.Principal) (*model.Booking, error) {
	if requester.ID == "" {
		return nil, ErrForbidden
	}
	start, end = start.UTC(), end.UTC()
	if !end.After(start) {
		return nil, ErrInvalidInterval
	}

	now := e.Now()
	var created *model.Booking
	var occupied bool

	err := e.store.Transaction(ctx, func(tx store.Store) error {
		slot, err := tx.LockSlot(ctx, slotID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrSlotNotFound
		}
		if err != nil {
			return err
		}

		existing, err := tx.ActiveBookingsBetween(ctx, slotID, start, end)
		if err != nil {
			return err
		}
		if conflict := FindConflict(existing, slotID, start, end); conflict != nil {
			return fmt.Errorf("%w: %s is booked from %s to %s", ErrTimeConflict, slot.Name,
				conflict.StartTime.Format(time.RFC3339), conflict.EndTime.Format(time.RFC3339))
		}

		// Coarse check: an occupied slot takes no new bookings until it is freed,
		// whatever interval is asked for.
		if slot.Status == model.SlotStatusOccupied {
			return fmt.Errorf("%w: %s", ErrAlreadyOccupied, slot.Name)
		}

		b := model.Booking{
			ID:        uuid.NewString(),
			UserID:    requester.ID,
			UserName:  requester.Name,
			SlotID:    slot.ID,
			SlotName:  slot.Name,
			SlotType:  slot.Type,
			StartTime: start,
			EndTime:   end,
			Status:    model.BookingStatusActive,
			CreatedAt: now,
		}

		if b.Covers(now) {
			if err := tx.UpdateSlotStatus(ctx, slot.ID, model.SlotStatusOccupied); err != nil {
				return err
			}
			occupied = true
		}

		if err := tx.CreateBooking(ctx, &b); err != nil {
			return err
		}
		created = &b
		return nil
	})
	if err != nil {
		return nil, classify("book slot", err)
	}

	e.publish(realtime.TypeBookingsChanged, created.ID, "created")
	if occupied {
		e.publish(realtime.TypeSlotsChanged, created.SlotID, "occupied")
	}
	return created, nil
}

// CancelBooking cancels an active booking. Only the owner or an admin may cancel.
func (e *Engine) CancelBooking(ctx context.Context, bookingID string, requester model.Principal) (*model.Booking, error) {
	now := e.Now()
	var cancelled *model.Booking
	var freed bool

	err := e.store.Transaction(ctx, func(tx store.Store) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		if b.UserID != requester.ID && !requester.IsAdmin() {
			return ErrForbidden
		}
		if b.Status != model.BookingStatusActive {
			return ErrAlreadyInactive
		}

		slot, err := tx.LockSlot(ctx, b.SlotID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if err := tx.TransitionBooking(ctx, b.ID, model.BookingStatusActive, model.BookingStatusCancelled, now); err != nil {
			if errors.Is(err, store.ErrStale) {
				return ErrAlreadyInactive
			}
			return err
		}
		b.Status = model.BookingStatusCancelled
		b.CancelledAt = &now
		cancelled = b

		if slot == nil || !b.Covers(now) || slot.Status != model.SlotStatusOccupied {
			return nil
		}
		status, err := projectStatus(ctx, tx, slot.ID, now)
		if err != nil {
			return err
		}
		if status == model.SlotStatusAvailable {
			if err := tx.UpdateSlotStatus(ctx, slot.ID, model.SlotStatusAvailable); err != nil {
				return err
			}
			freed = true
		}
		return nil
	})
	if err != nil {
		return nil, classify("cancel booking", err)
	}

	e.publish(realtime.TypeBookingsChanged, cancelled.ID, "cancelled")
	if freed {
		e.publish(realtime.TypeSlotsChanged, cancelled.SlotID, "available")
	}
	if cancelled.UserID != requester.ID {
		e.notify(cancelled.UserID, "Booking cancelled",
			fmt.Sprintf("Your booking for %s starting %s was cancelled by an administrator.",
				cancelled.SlotName, cancelled.StartTime.Format("2006-01-02 15:04")))
	}
	return cancelled, nil
}

// GetBooking returns a booking visible to requester.
func (e *Engine) GetBooking(ctx context.Context, bookingID string, requester model.Principal) (*model.Booking, error) {
	b, err := e.store.GetBooking(ctx, bookingID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, classify("get booking", err)
	}
	if b.UserID != requester.ID && !requester.IsAdmin() {
		return nil, ErrForbidden
	}
	return b, nil
}

// ListBookings returns bookings matching filter, newest first. Non-admins only see their own.
func (e *Engine) ListBookings(ctx context.Context, requester model.Principal, filter store.BookingFilter) ([]model.Booking, error) {
	if !requester.IsAdmin() {
		filter.UserID = requester.ID
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown booking status %q", ErrInvalidFilter, filter.Status)
	}
	bookings, err := e.store.ListBookings(ctx, filter)
	if err != nil {
		return nil, classify("list bookings", err)
	}
	return bookings, nil
}
