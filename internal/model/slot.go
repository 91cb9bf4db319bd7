package model

import "time"

// SlotType distinguishes regular bays from bays with a charger.
type SlotType string

const (
	SlotTypeNormal   SlotType = "normal"
	SlotTypeElectric SlotType = "electric"
)

// Valid reports whether t is a known slot type.
func (t SlotType) Valid() bool {
	return t == SlotTypeNormal || t == SlotTypeElectric
}

// SlotStatus is the cached occupancy of a slot at the time of the last write.
type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusOccupied  SlotStatus = "occupied"
)

// Valid reports whether s is a known slot status.
func (s SlotStatus) Valid() bool {
	return s == SlotStatusAvailable || s == SlotStatusOccupied
}

// ParkingSlot represents a physical parking space.
type ParkingSlot struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string     `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Type      SlotType   `gorm:"type:varchar(16);not null;index" json:"type"`
	Status    SlotStatus `gorm:"type:varchar(16);not null" json:"status"`
	Floor     int        `gorm:"not null;index" json:"floor"`
	CreatedAt time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"not null" json:"updatedAt"`
}
