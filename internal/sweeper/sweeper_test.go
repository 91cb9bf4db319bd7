package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-reservation-backend/internal/booking"
	"parking-reservation-backend/internal/db/dbtest"
	"parking-reservation-backend/internal/model"
	"parking-reservation-backend/internal/store"
)

type mockEngine struct {
	CompleteFunc  func(ctx context.Context) (int, error)
	ReconcileFunc func(ctx context.Context) (int, error)
}

func (m *mockEngine) CompleteExpired(ctx context.Context) (int, error) { return m.CompleteFunc(ctx) }
func (m *mockEngine) ReconcileSlots(ctx context.Context) (int, error)  { return m.ReconcileFunc(ctx) }

func TestSweepOnce_ReconcilesEvenWhenCompletionFails(t *testing.T) {
	reconciled := false
	s := New(&mockEngine{
		CompleteFunc: func(context.Context) (int, error) { return 2, errors.New("db hiccup") },
		ReconcileFunc: func(context.Context) (int, error) {
			reconciled = true
			return 1, nil
		},
	}, time.Second)

	res, err := s.SweepOnce(context.Background())
	assert.Error(t, err)
	assert.True(t, reconciled)
	assert.Equal(t, Result{Completed: 2, Reconciled: 1}, res)
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	s := New(&mockEngine{}, time.Second)
	assert.Error(t, s.Start("every now and then"))
}

func TestStart_RunsOnSchedule(t *testing.T) {
	var runs atomic.Int32
	s := New(&mockEngine{
		CompleteFunc:  func(context.Context) (int, error) { runs.Add(1); return 0, nil },
		ReconcileFunc: func(context.Context) (int, error) { return 0, nil },
	}, time.Second)

	require.NoError(t, s.Start("@every 1s"))
	defer s.Stop()

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestSweepOnce_WithEngine(t *testing.T) {
	st := store.NewGormStore(dbtest.NewSQLite(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	engine := booking.NewEngine(st, nil, nil, booking.WithClock(func() time.Time { return now }))

	require.NoError(t, st.CreateSlot(ctx, &model.ParkingSlot{
		ID: "slot-1", Name: "A-1", Type: model.SlotTypeNormal, Status: model.SlotStatusOccupied, Floor: 1,
	}))
	require.NoError(t, st.CreateSlot(ctx, &model.ParkingSlot{
		ID: "slot-2", Name: "A-2", Type: model.SlotTypeNormal, Status: model.SlotStatusAvailable, Floor: 1,
	}))
	require.NoError(t, st.CreateBooking(ctx, &model.Booking{
		ID: "expired", UserID: "u", SlotID: "slot-1", Status: model.BookingStatusActive,
		StartTime: now.Add(-3 * time.Hour), EndTime: now.Add(-time.Hour), CreatedAt: now.Add(-4 * time.Hour),
	}))
	require.NoError(t, st.CreateBooking(ctx, &model.Booking{
		ID: "current", UserID: "u", SlotID: "slot-2", Status: model.BookingStatusActive,
		StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour), CreatedAt: now.Add(-2 * time.Hour),
	}))

	res, err := New(engine, time.Second).SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Completed: 1, Reconciled: 1}, res)

	s1, err := st.GetSlot(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusAvailable, s1.Status)
	s2, err := st.GetSlot(ctx, "slot-2")
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusOccupied, s2.Status)

	res, err = New(engine, time.Second).SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res, "a second sweep finds nothing to do")
}
