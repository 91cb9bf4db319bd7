package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusActive, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// Booking is a reservation of a slot for the half-open interval [StartTime, EndTime).
// Slot and user labels are copied at creation so history survives slot deletion.
type Booking struct {
	ID          string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string        `gorm:"type:varchar(36);not null;index" json:"userId"`
	UserName    string        `gorm:"size:128" json:"userName"`
	SlotID      string        `gorm:"type:varchar(36);not null;index:idx_bookings_slot_status" json:"slotId"`
	SlotName    string        `gorm:"size:64" json:"slotName"`
	SlotType    SlotType      `gorm:"type:varchar(16)" json:"slotType"`
	StartTime   time.Time     `gorm:"not null;index" json:"startTime"`
	EndTime     time.Time     `gorm:"not null;index" json:"endTime"`
	Status      BookingStatus `gorm:"type:varchar(16);not null;index:idx_bookings_slot_status" json:"status"`
	CreatedAt   time.Time     `gorm:"not null;index" json:"createdAt"`
	CancelledAt *time.Time    `json:"cancelledAt,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}

// Covers reports whether t lies inside the booking window, both ends inclusive.
// This is the rule used when flipping the cached slot status.
func (b Booking) Covers(t time.Time) bool {
	return !t.Before(b.StartTime) && !t.After(b.EndTime)
}
