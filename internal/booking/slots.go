package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"parking-reservation-backend/internal/model"
	"parking-reservation-backend/internal/parse"
	"parking-reservation-backend/internal/realtime"
	"parking-reservation-backend/internal/store"
)

// SlotInput carries the admin-editable fields of a slot. Nil fields are left unchanged on update.
type SlotInput struct {
	Name   *string           `json:"name"`
	Type   *model.SlotType   `json:"type"`
	Floor  *int              `json:"floor"`
	Status *model.SlotStatus `json:"status"`
}

func (in SlotInput) apply(slot *model.ParkingSlot) error {
	if in.Name != nil {
		name, err := parse.ParseSlotName(*in.Name)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSlot, err)
		}
		slot.Name = name.String()
	}
	if in.Type != nil {
		slot.Type = *in.Type
	}
	if in.Floor != nil {
		slot.Floor = *in.Floor
	}
	if in.Status != nil {
		slot.Status = *in.Status
	}

	switch {
	case slot.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidSlot)
	case !slot.Type.Valid():
		return fmt.Errorf("%w: type must be normal or electric", ErrInvalidSlot)
	case slot.Floor < 1:
		return fmt.Errorf("%w: floor must be a positive number", ErrInvalidSlot)
	case !slot.Status.Valid():
		return fmt.Errorf("%w: status must be available or occupied", ErrInvalidSlot)
	}
	return nil
}

// ListSlots returns slots ordered by floor, then naturally by name.
func (e *Engine) ListSlots(ctx context.Context, filter store.SlotFilter) ([]model.ParkingSlot, error) {
	slots, err := e.store.ListSlots(ctx, filter)
	if err != nil {
		return nil, classify("list slots", err)
	}
	sortSlots(slots)
	return slots, nil
}

// GetSlot returns a single slot.
func (e *Engine) GetSlot(ctx context.Context, id string) (*model.ParkingSlot, error) {
	slot, err := e.store.GetSlot(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, classify("get slot", err)
	}
	return slot, nil
}

// GetAvailableSlots returns every slot with no active booking containing asOf.
// It reads bookings directly and never trusts or rewrites the cached status.
func (e *Engine) GetAvailableSlots(ctx context.Context, asOf time.Time) ([]model.ParkingSlot, error) {
	asOf = asOf.UTC()

	slots, err := e.store.ListSlots(ctx, store.SlotFilter{})
	if err != nil {
		return nil, classify("list available slots", err)
	}
	bookings, err := e.store.ActiveBookingsBetween(ctx, "", asOf, asOf)
	if err != nil {
		return nil, classify("list available slots", err)
	}

	available := make([]model.ParkingSlot, 0, len(slots))
	for _, slot := range slots {
		if FindConflict(bookings, slot.ID, asOf, asOf) == nil {
			available = append(available, slot)
		}
	}
	sortSlots(available)
	return available, nil
}

// AddSlot creates a slot. Admin only.
func (e *Engine) AddSlot(ctx context.Context, requester model.Principal, in SlotInput) (*model.ParkingSlot, error) {
	if !requester.IsAdmin() {
		return nil, ErrForbidden
	}

	slot := &model.ParkingSlot{
		ID:     uuid.NewString(),
		Status: model.SlotStatusAvailable,
	}
	if err := in.apply(slot); err != nil {
		return nil, err
	}

	if err := e.store.CreateSlot(ctx, slot); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateSlotName
		}
		return nil, classify("add slot", err)
	}

	e.publish(realtime.TypeSlotsChanged, slot.ID, "created")
	return slot, nil
}

// UpdateSlot changes the fields set in in. Admin only.
func (e *Engine) UpdateSlot(ctx context.Context, requester model.Principal, id string, in SlotInput) (*model.ParkingSlot, error) {
	if !requester.IsAdmin() {
		return nil, ErrForbidden
	}

	var updated *model.ParkingSlot
	err := e.store.Transaction(ctx, func(tx store.Store) error {
		slot, err := tx.LockSlot(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return ErrSlotNotFound
		}
		if err != nil {
			return err
		}
		if err := in.apply(slot); err != nil {
			return err
		}
		if err := tx.UpdateSlot(ctx, slot); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrDuplicateSlotName
			}
			return err
		}
		updated = slot
		return nil
	})
	if err != nil {
		return nil, classify("update slot", err)
	}

	e.publish(realtime.TypeSlotsChanged, updated.ID, "updated")
	return updated, nil
}

// DeleteSlot removes a slot that has no active bookings, current or future. Admin only.
func (e *Engine) DeleteSlot(ctx context.Context, requester model.Principal, id string) error {
	if !requester.IsAdmin() {
		return ErrForbidden
	}

	err := e.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.LockSlot(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrSlotNotFound
			}
			return err
		}

		active, err := tx.CountActiveBookings(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: %d active booking(s)", ErrSlotInUse, active)
		}
		return tx.DeleteSlot(ctx, id)
	})
	if err != nil {
		return classify("delete slot", err)
	}

	e.publish(realtime.TypeSlotsChanged, id, "deleted")
	return nil
}
