// Package booking is the availability engine: it decides whether a slot is free for an
// interval, records bookings and keeps the cached slot status in step with them.
package booking

import (
	"context"
	"sort"
	"time"

	"parking-reservation-backend/internal/model"
	"parking-reservation-backend/internal/parse"
	"parking-reservation-backend/internal/realtime"
	"parking-reservation-backend/internal/store"
)

// Notifier delivers a short message to a user out of band.
type Notifier interface {
	Notify(userID, title, body string)
}

// Engine runs every slot and booking command against the store.
type Engine struct {
	store    store.Store
	events   realtime.Publisher
	notifier Notifier
	now      func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock used for "now".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine. events and notifier may be nil.
func NewEngine(s store.Store, events realtime.Publisher, notifier Notifier, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		events:   events,
		notifier: notifier,
		now:      time.Now,
	}
	if e.events == nil {
		e.events = realtime.Discard
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine's current time in UTC.
func (e *Engine) Now() time.Time {
	return e.now().UTC()
}

func (e *Engine) publish(t realtime.EventType, id, action string) {
	e.events.Publish(realtime.NewEvent(t, realtime.ChangePayload{ID: id, Action: action}))
}

func (e *Engine) notify(userID, title, body string) {
	if e.notifier == nil || userID == "" {
		return
	}
	e.notifier.Notify(userID, title, body)
}

// projectStatus derives what a slot's status should be at now from its active bookings.
func projectStatus(ctx context.Context, tx store.Store, slotID string, now time.Time) (model.SlotStatus, error) {
	bookings, err := tx.ActiveBookingsBetween(ctx, slotID, now, now)
	if err != nil {
		return "", err
	}
	if FindConflict(bookings, slotID, now, now) != nil {
		return model.SlotStatusOccupied, nil
	}
	return model.SlotStatusAvailable, nil
}

func sortSlots(slots []model.ParkingSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Floor != slots[j].Floor {
			return slots[i].Floor < slots[j].Floor
		}
		return parse.LessRaw(slots[i].Name, slots[j].Name)
	})
}
