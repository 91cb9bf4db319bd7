package booking

import (
	"time"

	"parking-reservation-backend/internal/model"
)

// IsOverlapping reports whether the half-open intervals [aStart, aEnd) and [bStart, bEnd) intersect.
// Intervals that only touch at a boundary do not overlap.
func IsOverlapping(aStart, aEnd, bStart, bEnd time.Time) bool {
	startsInside := !aStart.Before(bStart) && aStart.Before(bEnd)
	endsInside := aEnd.After(bStart) && !aEnd.After(bEnd)
	contains := !aStart.After(bStart) && !aEnd.Before(bEnd)
	return startsInside || endsInside || contains
}

// containsInstant reports whether t lies in [start, end).
func containsInstant(start, end, t time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

// FindConflict returns the first active booking on slotID that overlaps [start, end), or nil.
// When start equals end the interval is treated as the single instant start.
func FindConflict(bookings []model.Booking, slotID string, start, end time.Time) *model.Booking {
	for i := range bookings {
		b := &bookings[i]
		if b.SlotID != slotID || b.Status != model.BookingStatusActive {
			continue
		}
		if start.Equal(end) {
			if containsInstant(b.StartTime, b.EndTime, start) {
				return b
			}
			continue
		}
		if IsOverlapping(start, end, b.StartTime, b.EndTime) {
			return b
		}
	}
	return nil
}
