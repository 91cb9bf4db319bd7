// Package feedback records user ratings of the service.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"parking-reservation-backend/internal/model"
	"parking-reservation-backend/internal/realtime"
	"parking-reservation-backend/internal/store"
)

const maxCommentLength = 500

var (
	ErrInvalid         = errors.New("invalid feedback")
	ErrBookingNotFound = errors.New("booking not found")
	ErrForbidden       = errors.New("feedback can only reference your own bookings")
)

// Input is what a user submits.
type Input struct {
	BookingID string `json:"bookingId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// Service stores and lists feedback.
type Service struct {
	store  store.Store
	events realtime.Publisher
}

// NewService creates a feedback service. events may be nil.
func NewService(s store.Store, events realtime.Publisher) *Service {
	if events == nil {
		events = realtime.Discard
	}
	return &Service{store: s, events: events}
}

// Submit validates and records feedback from author.
func (s *Service) Submit(ctx context.Context, author model.Principal, in Input) (*model.Feedback, error) {
	comment := strings.TrimSpace(in.Comment)
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalid)
	}
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return nil, fmt.Errorf("%w: comment must be at most %d characters", ErrInvalid, maxCommentLength)
	}

	fb := &model.Feedback{
		ID:        uuid.NewString(),
		UserID:    author.ID,
		UserName:  author.Name,
		Rating:    in.Rating,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}

	if id := strings.TrimSpace(in.BookingID); id != "" {
		b, err := s.store.GetBooking(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load booking %s: %w", id, err)
		}
		if b.UserID != author.ID {
			return nil, ErrForbidden
		}
		fb.BookingID = &b.ID
	}

	if err := s.store.CreateFeedback(ctx, fb); err != nil {
		return nil, fmt.Errorf("failed to save feedback: %w", err)
	}

	s.events.Publish(realtime.NewEvent(realtime.TypeFeedbackChanged, realtime.ChangePayload{ID: fb.ID, Action: "created"}))
	return fb, nil
}

// Mine lists the feedback left by user, newest first.
func (s *Service) Mine(ctx context.Context, user model.Principal) ([]model.Feedback, error) {
	return s.store.ListFeedback(ctx, user.ID)
}

// All lists every feedback entry, newest first.
func (s *Service) All(ctx context.Context) ([]model.Feedback, error) {
	return s.store.ListFeedback(ctx, "")
}
