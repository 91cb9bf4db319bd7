package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parking-reservation-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	// Transaction runs fn against a Store bound to a single database transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	CreateSlot(ctx context.Context, slot *model.ParkingSlot) error
	GetSlot(ctx context.Context, id string) (*model.ParkingSlot, error)
	// LockSlot reads a slot and holds a row lock on it until the surrounding transaction ends.
	LockSlot(ctx context.Context, id string) (*model.ParkingSlot, error)
	ListSlots(ctx context.Context, filter SlotFilter) ([]model.ParkingSlot, error)
	UpdateSlot(ctx context.Context, slot *model.ParkingSlot) error
	UpdateSlotStatus(ctx context.Context, id string, status model.SlotStatus) error
	DeleteSlot(ctx context.Context, id string) error

	CreateBooking(ctx context.Context, booking *model.Booking) error
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]model.Booking, error)
	// ActiveBookingsBetween returns active bookings intersecting the closed range [start, end],
	// boundary-touching ones included. An empty slotID searches every slot.
	// Callers apply the exact overlap rule.
	ActiveBookingsBetween(ctx context.Context, slotID string, start, end time.Time) ([]model.Booking, error)
	CountActiveBookings(ctx context.Context, slotID string) (int64, error)
	// TransitionBooking moves a booking from one status to another, failing with ErrStale
	// when the booking is no longer in the expected status.
	TransitionBooking(ctx context.Context, id string, from, to model.BookingStatus, at time.Time) error
	ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]model.Booking, error)

	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	CreateFeedback(ctx context.Context, feedback *model.Feedback) error
	ListFeedback(ctx context.Context, userID string) ([]model.Feedback, error)

	SaveSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	ListSubscriptions(ctx context.Context, userID string) ([]model.PushSubscription, error)

	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// --- Slots ---

func (s *gormStore) CreateSlot(ctx context.Context, slot *model.ParkingSlot) error {
	if err := s.db.WithContext(ctx).Create(slot).Error; err != nil {
		return fmt.Errorf("failed to create slot %q: %w", slot.Name, translate(err))
	}
	return nil
}

func (s *gormStore) GetSlot(ctx context.Context, id string) (*model.ParkingSlot, error) {
	var slot model.ParkingSlot
	if err := s.db.WithContext(ctx).First(&slot, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &slot, nil
}

func (s *gormStore) LockSlot(ctx context.Context, id string) (*model.ParkingSlot, error) {
	var slot model.ParkingSlot
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&slot, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &slot, nil
}

func (s *gormStore) ListSlots(ctx context.Context, filter SlotFilter) ([]model.ParkingSlot, error) {
	q := s.db.WithContext(ctx).Model(&model.ParkingSlot{})
	if filter.Floor > 0 {
		q = q.Where("floor = ?", filter.Floor)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}

	var slots []model.ParkingSlot
	if err := q.Order("floor ASC").Order("name ASC").Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

func (s *gormStore) UpdateSlot(ctx context.Context, slot *model.ParkingSlot) error {
	res := s.db.WithContext(ctx).
		Model(&model.ParkingSlot{}).
		Where("id = ?", slot.ID).
		Updates(map[string]any{
			"name":       slot.Name,
			"type":       slot.Type,
			"status":     slot.Status,
			"floor":      slot.Floor,
			"updated_at": s.db.NowFunc(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update slot %s: %w", slot.ID, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) UpdateSlotStatus(ctx context.Context, id string, status model.SlotStatus) error {
	res := s.db.WithContext(ctx).
		Model(&model.ParkingSlot{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": s.db.NowFunc()})
	if res.Error != nil {
		return fmt.Errorf("failed to update status of slot %s: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) DeleteSlot(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.ParkingSlot{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete slot %s: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Bookings ---

func (s *gormStore) CreateBooking(ctx context.Context, booking *model.Booking) error {
	if err := s.db.WithContext(ctx).Create(booking).Error; err != nil {
		return fmt.Errorf("failed to create booking for slot %s: %w", booking.SlotID, translate(err))
	}
	return nil
}

func (s *gormStore) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	var booking model.Booking
	if err := s.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

func (s *gormStore) ListBookings(ctx context.Context, filter BookingFilter) ([]model.Booking, error) {
	q := s.db.WithContext(ctx).Model(&model.Booking{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.SlotID != "" {
		q = q.Where("slot_id = ?", filter.SlotID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.StartAfter != nil {
		q = q.Where("start_time >= ?", *filter.StartAfter)
	}
	if filter.StartBefore != nil {
		q = q.Where("start_time < ?", *filter.StartBefore)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var bookings []model.Booking
	if err := q.Order("start_time DESC").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (s *gormStore) ActiveBookingsBetween(ctx context.Context, slotID string, start, end time.Time) ([]model.Booking, error) {
	q := s.db.WithContext(ctx).
		Where("status = ?", model.BookingStatusActive).
		Where("start_time <= ? AND end_time >= ?", end, start)
	if slotID != "" {
		q = q.Where("slot_id = ?", slotID)
	}

	var bookings []model.Booking
	if err := q.Order("start_time ASC").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to query active bookings: %w", err)
	}
	return bookings, nil
}

func (s *gormStore) CountActiveBookings(ctx context.Context, slotID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("slot_id = ? AND status = ?", slotID, model.BookingStatusActive).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active bookings for slot %s: %w", slotID, err)
	}
	return count, nil
}

func (s *gormStore) TransitionBooking(ctx context.Context, id string, from, to model.BookingStatus, at time.Time) error {
	updates := map[string]any{"status": to}
	switch to {
	case model.BookingStatusCancelled:
		updates["cancelled_at"] = at
	case model.BookingStatusCompleted:
		updates["completed_at"] = at
	}

	res := s.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to move booking %s to %s: %w", id, to, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

func (s *gormStore) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]model.Booking, error) {
	q := s.db.WithContext(ctx).
		Where("status = ? AND end_time <= ?", model.BookingStatusActive, now).
		Order("end_time ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var bookings []model.Booking
	if err := q.Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to list expired bookings: %w", err)
	}
	return bookings, nil
}

// --- Users ---

func (s *gormStore) CreateUser(ctx context.Context, user *model.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user %q: %w", user.Email, translate(err))
	}
	return nil
}

func (s *gormStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *gormStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// --- Feedback ---

func (s *gormStore) CreateFeedback(ctx context.Context, feedback *model.Feedback) error {
	if err := s.db.WithContext(ctx).Create(feedback).Error; err != nil {
		return fmt.Errorf("failed to create feedback: %w", translate(err))
	}
	return nil
}

func (s *gormStore) ListFeedback(ctx context.Context, userID string) ([]model.Feedback, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}

	var feedback []model.Feedback
	if err := q.Find(&feedback).Error; err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return feedback, nil
}

// --- Push subscriptions ---

func (s *gormStore) SaveSubscription(ctx context.Context, sub *model.PushSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth"}),
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", translate(err))
	}
	return nil
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if err := s.db.WithContext(ctx).Delete(&model.PushSubscription{}, "endpoint = ?", endpoint).Error; err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

func (s *gormStore) ListSubscriptions(ctx context.Context, userID string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions for user %s: %w", userID, err)
	}
	return subs, nil
}
