// Package qr renders booking passes as QR codes and verifies scanned ones.
package qr

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"parking-reservation-backend/internal/model"
	"parking-reservation-backend/internal/store"
)

const actionBook = "book"

var (
	ErrMalformed      = errors.New("not a booking QR code")
	ErrBadSignature   = errors.New("QR code signature does not match")
	ErrUnknownBooking = errors.New("booking in QR code does not exist")
)

// Payload is the JSON encoded in a booking QR code.
type Payload struct {
	Action    string    `json:"action"`
	BookingID string    `json:"bookingId"`
	SlotID    string    `json:"slotId"`
	SlotName  string    `json:"slotName"`
	SlotType  string    `json:"slotType"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Signature string    `json:"sig"`
}

// Verification is the outcome of scanning a pass.
type Verification struct {
	Valid   bool           `json:"valid"`
	Reason  string         `json:"reason,omitempty"`
	Booking *model.Booking `json:"booking"`
}

// Service signs and checks booking passes.
type Service struct {
	store  store.Store
	secret []byte
	now    func() time.Time
}

// NewService creates a QR service signing with secret.
func NewService(s store.Store, secret string) *Service {
	return &Service{store: s, secret: []byte(secret), now: time.Now}
}

// PayloadFor builds the signed payload for a booking.
func (s *Service) PayloadFor(b *model.Booking) Payload {
	p := Payload{
		Action:    actionBook,
		BookingID: b.ID,
		SlotID:    b.SlotID,
		SlotName:  b.SlotName,
		SlotType:  string(b.SlotType),
		StartTime: b.StartTime.UTC(),
		EndTime:   b.EndTime.UTC(),
		UserID:    b.UserID,
		UserName:  b.UserName,
	}
	p.Signature = s.sign(p)
	return p
}

// Encode returns the text stored in the QR code for a booking.
func (s *Service) Encode(b *model.Booking) (string, error) {
	data, err := json.Marshal(s.PayloadFor(b))
	if err != nil {
		return "", fmt.Errorf("failed to marshal QR payload: %w", err)
	}
	return string(data), nil
}

// PNG renders the booking's QR code as a size x size PNG.
func (s *Service) PNG(b *model.Booking, size int) ([]byte, error) {
	text, err := s.Encode(b)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return png, nil
}

// PDF renders a printable parking pass with the booking details and its QR code.
func (s *Service) PDF(b *model.Booking) ([]byte, error) {
	png, err := s.PNG(b, 256)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, "Parking Pass")
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 12)
	for _, line := range []string{
		fmt.Sprintf("Slot: %s (%s)", b.SlotName, b.SlotType),
		fmt.Sprintf("Name: %s", b.UserName),
		fmt.Sprintf("From: %s UTC", b.StartTime.UTC().Format("2006-01-02 15:04")),
		fmt.Sprintf("Until: %s UTC", b.EndTime.UTC().Format("2006-01-02 15:04")),
		fmt.Sprintf("Booking: %s", b.ID),
	} {
		pdf.Cell(0, 8, line)
		pdf.Ln(8)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(png))
	pdf.ImageOptions("qr", 34, 70, 80, 80, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate pass PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Verify decodes a scanned QR text and checks it against the stored booking.
// A well-formed, authentic pass always yields a Verification; Valid reports whether
// the holder may park now.
func (s *Service) Verify(ctx context.Context, raw string) (*Verification, error) {
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, ErrMalformed
	}
	if p.Action != actionBook || p.BookingID == "" || p.StartTime.IsZero() || p.EndTime.IsZero() {
		return nil, ErrMalformed
	}
	if !hmac.Equal([]byte(p.Signature), []byte(s.sign(p))) {
		return nil, ErrBadSignature
	}

	b, err := s.store.GetBooking(ctx, p.BookingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownBooking
		}
		return nil, fmt.Errorf("failed to load booking %s: %w", p.BookingID, err)
	}

	v := &Verification{Booking: b}
	now := s.now().UTC()
	switch {
	case b.SlotID != p.SlotID || b.UserID != p.UserID ||
		!b.StartTime.Equal(p.StartTime) || !b.EndTime.Equal(p.EndTime):
		v.Reason = "pass does not match the booking on record"
	case b.Status != model.BookingStatusActive:
		v.Reason = fmt.Sprintf("booking is %s", b.Status)
	case now.Before(b.StartTime):
		v.Reason = fmt.Sprintf("booking starts at %s", b.StartTime.UTC().Format(time.RFC3339))
	case !now.Before(b.EndTime):
		v.Reason = "booking has ended"
	default:
		v.Valid = true
	}
	return v, nil
}

func (s *Service) sign(p Payload) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%s|%s|%d|%d", p.BookingID, p.SlotID, p.UserID, p.StartTime.Unix(), p.EndTime.Unix())
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
