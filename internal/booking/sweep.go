package booking

import (
	"context"
	"errors"
	"fmt"
	"log"

	"parking-reservation-backend/internal/model"
	"parking-reservation-backend/internal/realtime"
	"parking-reservation-backend/internal/store"
)

const sweepBatchSize = 100

// CompleteExpired moves every active booking whose end time has passed to completed and
// frees the slots they held. It is safe to run repeatedly and concurrently with commands.
func (e *Engine) CompleteExpired(ctx context.Context) (int, error) {
	now := e.Now()
	completed := 0

	for {
		expired, err := e.store.ListExpiredActive(ctx, now, sweepBatchSize)
		if err != nil {
			return completed, classify("complete expired bookings", err)
		}

		progressed := 0
		for i := range expired {
			done, err := e.completeOne(ctx, &expired[i])
			if err != nil {
				return completed, classify("complete expired bookings", err)
			}
			if done {
				completed++
				progressed++
			}
		}
		// A batch with no transitions means the remaining rows were taken by another sweeper.
		if len(expired) < sweepBatchSize || progressed == 0 {
			break
		}
	}

	if completed > 0 {
		e.publish(realtime.TypeBookingsChanged, "", "completed")
	}
	return completed, nil
}

func (e *Engine) completeOne(ctx context.Context, b *model.Booking) (bool, error) {
	now := e.Now()
	freed := false

	err := e.store.Transaction(ctx, func(tx store.Store) error {
		slot, err := tx.LockSlot(ctx, b.SlotID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if err := tx.TransitionBooking(ctx, b.ID, model.BookingStatusActive, model.BookingStatusCompleted, now); err != nil {
			return err
		}

		if slot == nil || slot.Status != model.SlotStatusOccupied {
			return nil
		}
		status, err := projectStatus(ctx, tx, slot.ID, now)
		if err != nil {
			return err
		}
		if status == model.SlotStatusAvailable {
			freed = true
			return tx.UpdateSlotStatus(ctx, slot.ID, model.SlotStatusAvailable)
		}
		return nil
	})
	if errors.Is(err, store.ErrStale) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if freed {
		e.publish(realtime.TypeSlotsChanged, b.SlotID, "available")
	}
	e.notify(b.UserID, "Booking completed",
		fmt.Sprintf("Your booking for %s has ended. Thanks for parking with us!", b.SlotName))
	return true, nil
}

// ReconcileSlots recomputes every slot's cached status from its active bookings and
// rewrites the ones that drifted. It returns the number of slots changed.
func (e *Engine) ReconcileSlots(ctx context.Context) (int, error) {
	slots, err := e.store.ListSlots(ctx, store.SlotFilter{})
	if err != nil {
		return 0, classify("reconcile slots", err)
	}

	now := e.Now()
	changed := 0
	for _, s := range slots {
		var fixed bool
		err := e.store.Transaction(ctx, func(tx store.Store) error {
			slot, err := tx.LockSlot(ctx, s.ID)
			if err != nil {
				return err
			}
			want, err := projectStatus(ctx, tx, slot.ID, now)
			if err != nil {
				return err
			}
			if slot.Status == want {
				return nil
			}
			fixed = true
			return tx.UpdateSlotStatus(ctx, slot.ID, want)
		})
		if errors.Is(err, store.ErrNotFound) {
			// Deleted since the listing.
			continue
		}
		if err != nil {
			return changed, classify("reconcile slots", err)
		}
		if fixed {
			log.Printf("Reconciled slot %s (%s) to match its bookings", s.Name, s.ID)
			changed++
		}
	}

	if changed > 0 {
		e.publish(realtime.TypeSlotsChanged, "", "reconciled")
	}
	return changed, nil
}
