package model

import "time"

// Feedback is a rating left by a user, optionally about one of their bookings.
type Feedback struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"userId"`
	UserName  string    `gorm:"size:128" json:"userName"`
	BookingID *string   `gorm:"type:varchar(36);index" json:"bookingId,omitempty"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"size:500" json:"comment,omitempty"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}
