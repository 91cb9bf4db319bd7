package qr

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-reservation-backend/internal/db/dbtest"
	"parking-reservation-backend/internal/model"
	"parking-reservation-backend/internal/store"
)

var base = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, store.Store, *model.Booking) {
	t.Helper()
	s := store.NewGormStore(dbtest.NewSQLite(t))
	b := &model.Booking{
		ID:        "booking-1",
		UserID:    "user-1",
		UserName:  "Alice",
		SlotID:    "slot-1",
		SlotName:  "A-1",
		SlotType:  model.SlotTypeElectric,
		StartTime: base,
		EndTime:   base.Add(2 * time.Hour),
		Status:    model.BookingStatusActive,
		CreatedAt: base.Add(-time.Hour),
	}
	require.NoError(t, s.CreateBooking(context.Background(), b))

	svc := NewService(s, "qr-secret")
	svc.now = func() time.Time { return base.Add(time.Hour) }
	return svc, s, b
}

func TestEncode_PayloadShape(t *testing.T) {
	svc, _, b := newService(t)

	text, err := svc.Encode(b)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &fields))
	assert.Equal(t, "book", fields["action"])
	assert.Equal(t, "booking-1", fields["bookingId"])
	assert.Equal(t, "A-1", fields["slotName"])
	assert.Equal(t, "electric", fields["slotType"])
	assert.Equal(t, "2026-03-02T10:00:00Z", fields["startTime"])
	assert.NotEmpty(t, fields["sig"])
}

func TestVerify(t *testing.T) {
	svc, s, b := newService(t)
	ctx := context.Background()

	text, err := svc.Encode(b)
	require.NoError(t, err)

	v, err := svc.Verify(ctx, text)
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.Equal(t, "booking-1", v.Booking.ID)

	t.Run("before start", func(t *testing.T) {
		svc.now = func() time.Time { return base.Add(-time.Minute) }
		defer func() { svc.now = func() time.Time { return base.Add(time.Hour) } }()
		v, err := svc.Verify(ctx, text)
		require.NoError(t, err)
		assert.False(t, v.Valid)
		assert.Contains(t, v.Reason, "starts at")
	})

	t.Run("after end", func(t *testing.T) {
		svc.now = func() time.Time { return base.Add(2 * time.Hour) }
		defer func() { svc.now = func() time.Time { return base.Add(time.Hour) } }()
		v, err := svc.Verify(ctx, text)
		require.NoError(t, err)
		assert.False(t, v.Valid)
		assert.Equal(t, "booking has ended", v.Reason)
	})

	t.Run("tampered", func(t *testing.T) {
		p := svc.PayloadFor(b)
		p.EndTime = p.EndTime.Add(24 * time.Hour)
		data, _ := json.Marshal(p)
		_, err := svc.Verify(ctx, string(data))
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewService(s, "different")
		forged, err := other.Encode(b)
		require.NoError(t, err)
		_, err = svc.Verify(ctx, forged)
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("malformed", func(t *testing.T) {
		for _, raw := range []string{"", "hello", `{"action":"pay","bookingId":"x"}`, `{"action":"book"}`} {
			_, err := svc.Verify(ctx, raw)
			assert.ErrorIs(t, err, ErrMalformed, raw)
		}
	})

	t.Run("unknown booking", func(t *testing.T) {
		ghost := *b
		ghost.ID = "ghost"
		text, err := svc.Encode(&ghost)
		require.NoError(t, err)
		_, err = svc.Verify(ctx, text)
		assert.ErrorIs(t, err, ErrUnknownBooking)
	})

	t.Run("cancelled", func(t *testing.T) {
		require.NoError(t, s.TransitionBooking(ctx, b.ID, model.BookingStatusActive, model.BookingStatusCancelled, base))
		v, err := svc.Verify(ctx, text)
		require.NoError(t, err)
		assert.False(t, v.Valid)
		assert.Equal(t, "booking is cancelled", v.Reason)
	})
}

func TestPNGAndPDF(t *testing.T) {
	svc, _, b := newService(t)

	png, err := svc.PNG(b, 128)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	pdf, err := svc.PDF(b)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}
