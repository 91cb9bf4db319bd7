package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"parking-reservation-backend/internal/auth"
	"parking-reservation-backend/internal/booking"
	"parking-reservation-backend/internal/feedback"
	"parking-reservation-backend/internal/model"
	"parking-reservation-backend/internal/mw"
	"parking-reservation-backend/internal/qr"
	"parking-reservation-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	engine   *booking.Engine
	auth     *auth.Service
	feedback *feedback.Service
	qr       *qr.Service
	webpush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, engine *booking.Engine, authSvc *auth.Service, feedbackSvc *feedback.Service, qrSvc *qr.Service, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:    s,
		engine:   engine,
		auth:     authSvc,
		feedback: feedbackSvc,
		qr:       qrSvc,
		webpush:  webpushOptions,
	}
}

// principal returns the authenticated caller. Routes using it sit behind mw.Authenticate.
func principal(c *gin.Context) model.Principal {
	p, _ := mw.PrincipalFrom(c)
	return p
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{booking.ErrInvalidInterval, http.StatusBadRequest, "invalid_interval"},
	{booking.ErrInvalidSlot, http.StatusBadRequest, "invalid_slot"},
	{booking.ErrInvalidFilter, http.StatusBadRequest, "invalid_filter"},
	{booking.ErrSlotNotFound, http.StatusNotFound, "slot_not_found"},
	{booking.ErrBookingNotFound, http.StatusNotFound, "booking_not_found"},
	{booking.ErrForbidden, http.StatusForbidden, "forbidden"},
	{booking.ErrTimeConflict, http.StatusConflict, "time_conflict"},
	{booking.ErrAlreadyOccupied, http.StatusConflict, "already_occupied"},
	{booking.ErrAlreadyInactive, http.StatusConflict, "already_inactive"},
	{booking.ErrSlotInUse, http.StatusConflict, "slot_in_use"},
	{booking.ErrDuplicateSlotName, http.StatusConflict, "duplicate_slot_name"},
	{booking.ErrTimeout, http.StatusGatewayTimeout, "timeout"},

	{auth.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{auth.ErrTokenInvalid, http.StatusUnauthorized, "invalid_token"},
	{auth.ErrEmailTaken, http.StatusConflict, "email_taken"},

	{feedback.ErrInvalid, http.StatusBadRequest, "invalid_feedback"},
	{feedback.ErrBookingNotFound, http.StatusNotFound, "booking_not_found"},
	{feedback.ErrForbidden, http.StatusForbidden, "forbidden"},

	{qr.ErrMalformed, http.StatusBadRequest, "invalid_qr"},
	{qr.ErrBadSignature, http.StatusBadRequest, "invalid_qr_signature"},
	{qr.ErrUnknownBooking, http.StatusNotFound, "booking_not_found"},
}

// respondError maps err onto a status code and a readable message. Anything unrecognized
// is reported as a retryable outage without leaking internals.
func respondError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			c.AbortWithStatusJSON(m.status, gin.H{"error": err.Error(), "code": m.code})
			return
		}
	}

	log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
		"error": "Service temporarily unavailable, please try again",
		"code":  "unavailable",
	})
}
