package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"parking-reservation-backend/internal/model"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func at(hours float64) time.Time {
	return t0.Add(time.Duration(hours * float64(time.Hour)))
}

func TestIsOverlapping(t *testing.T) {
	testCases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		expected                   bool
	}{
		{name: "identical", aStart: at(0), aEnd: at(2), bStart: at(0), bEnd: at(2), expected: true},
		{name: "a starts inside b", aStart: at(1), aEnd: at(3), bStart: at(0), bEnd: at(2), expected: true},
		{name: "a ends inside b", aStart: at(-1), aEnd: at(1), bStart: at(0), bEnd: at(2), expected: true},
		{name: "a contains b", aStart: at(-1), aEnd: at(3), bStart: at(0), bEnd: at(2), expected: true},
		{name: "b contains a", aStart: at(0.5), aEnd: at(1), bStart: at(0), bEnd: at(2), expected: true},
		{name: "a ends where b starts", aStart: at(-2), aEnd: at(0), bStart: at(0), bEnd: at(2), expected: false},
		{name: "b ends where a starts", aStart: at(2), aEnd: at(4), bStart: at(0), bEnd: at(2), expected: false},
		{name: "disjoint before", aStart: at(-3), aEnd: at(-1), bStart: at(0), bEnd: at(2), expected: false},
		{name: "disjoint after", aStart: at(3), aEnd: at(4), bStart: at(0), bEnd: at(2), expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsOverlapping(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd))
			// Overlap is symmetric.
			assert.Equal(t, tc.expected, IsOverlapping(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd))
		})
	}
}

func TestIsOverlapping_IdenticalIntervalsAlwaysOverlap(t *testing.T) {
	for _, d := range []time.Duration{time.Second, time.Minute, 90 * time.Minute, 48 * time.Hour} {
		assert.True(t, IsOverlapping(t0, t0.Add(d), t0, t0.Add(d)), d.String())
	}
}

func TestFindConflict(t *testing.T) {
	bookings := []model.Booking{
		{ID: "other-slot", SlotID: "B-1", StartTime: at(0), EndTime: at(2), Status: model.BookingStatusActive},
		{ID: "cancelled", SlotID: "A-1", StartTime: at(0), EndTime: at(2), Status: model.BookingStatusCancelled},
		{ID: "completed", SlotID: "A-1", StartTime: at(0), EndTime: at(2), Status: model.BookingStatusCompleted},
		{ID: "active", SlotID: "A-1", StartTime: at(0), EndTime: at(2), Status: model.BookingStatusActive},
	}

	conflict := FindConflict(bookings, "A-1", at(1), at(3))
	if assert.NotNil(t, conflict) {
		assert.Equal(t, "active", conflict.ID)
	}

	assert.Nil(t, FindConflict(bookings, "A-1", at(2), at(3)), "touching interval")
	assert.Nil(t, FindConflict(bookings, "C-1", at(0), at(2)), "unknown slot")
	assert.Nil(t, FindConflict(nil, "A-1", at(0), at(2)))
}

func TestFindConflict_Instant(t *testing.T) {
	bookings := []model.Booking{
		{ID: "active", SlotID: "A-1", StartTime: at(0), EndTime: at(2), Status: model.BookingStatusActive},
	}

	assert.NotNil(t, FindConflict(bookings, "A-1", at(0), at(0)), "start instant is inside")
	assert.NotNil(t, FindConflict(bookings, "A-1", at(1), at(1)))
	assert.Nil(t, FindConflict(bookings, "A-1", at(2), at(2)), "end instant is outside")
	assert.Nil(t, FindConflict(bookings, "A-1", at(-1), at(-1)))
}
