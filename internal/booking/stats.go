package booking

import (
	"context"
	"time"

	"parking-reservation-backend/internal/model"
	"parking-reservation-backend/internal/store"
)

// Stats summarizes the car park for the admin dashboard.
type Stats struct {
	TotalSlots     int `json:"totalSlots"`
	NormalSlots    int `json:"normalSlots"`
	ElectricSlots  int `json:"electricSlots"`
	OccupiedSlots  int `json:"occupiedSlots"`
	AvailableSlots int `json:"availableSlots"`
	ActiveBookings int `json:"activeBookings"`
	BookingsToday  int `json:"bookingsToday"`
}

// Stats computes dashboard figures at now. Occupancy comes from bookings, not the cached status.
func (e *Engine) Stats(ctx context.Context, requester model.Principal) (*Stats, error) {
	if !requester.IsAdmin() {
		return nil, ErrForbidden
	}
	now := e.Now()

	slots, err := e.store.ListSlots(ctx, store.SlotFilter{})
	if err != nil {
		return nil, classify("stats", err)
	}
	current, err := e.store.ActiveBookingsBetween(ctx, "", now, now)
	if err != nil {
		return nil, classify("stats", err)
	}
	active, err := e.store.ListBookings(ctx, store.BookingFilter{Status: model.BookingStatusActive})
	if err != nil {
		return nil, classify("stats", err)
	}
	// Bookings of any status whose start falls on today's UTC date.
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tomorrow := midnight.AddDate(0, 0, 1)
	today, err := e.store.ListBookings(ctx, store.BookingFilter{StartAfter: &midnight, StartBefore: &tomorrow})
	if err != nil {
		return nil, classify("stats", err)
	}

	st := &Stats{
		TotalSlots:     len(slots),
		ActiveBookings: len(active),
		BookingsToday:  len(today),
	}
	for _, slot := range slots {
		if slot.Type == model.SlotTypeElectric {
			st.ElectricSlots++
		} else {
			st.NormalSlots++
		}
		if FindConflict(current, slot.ID, now, now) != nil {
			st.OccupiedSlots++
		} else {
			st.AvailableSlots++
		}
	}
	return st, nil
}
