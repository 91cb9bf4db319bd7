package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"parking-reservation-backend/internal/model"
	"parking-reservation-backend/internal/store"
)

type createBookingRequest struct {
	SlotID    string    `json:"slotId" binding:"required"`
	StartTime time.Time `json:"startTime" binding:"required"`
	EndTime   time.Time `json:"endTime" binding:"required"`
}

// CreateBooking handles POST /api/bookings.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	b, err := h.engine.BookSlot(c.Request.Context(), req.SlotID, req.StartTime, req.EndTime, principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// ListMyBookings handles GET /api/bookings?status=.
func (h *Handler) ListMyBookings(c *gin.Context) {
	p := principal(c)
	h.listBookings(c, p, store.BookingFilter{
		UserID: p.ID,
		Status: model.BookingStatus(c.Query("status")),
	})
}

// ListAllBookings handles GET /api/admin/bookings?status=&userId=&slotId=&limit=.
func (h *Handler) ListAllBookings(c *gin.Context) {
	filter := store.BookingFilter{
		UserID: c.Query("userId"),
		SlotID: c.Query("slotId"),
		Status: model.BookingStatus(c.Query("status")),
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		filter.Limit = limit
	}
	h.listBookings(c, principal(c), filter)
}

func (h *Handler) listBookings(c *gin.Context, p model.Principal, filter store.BookingFilter) {
	bookings, err := h.engine.ListBookings(c.Request.Context(), p, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// GetBooking handles GET /api/bookings/:id.
func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.engine.GetBooking(c.Request.Context(), c.Param("id"), principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CancelBooking handles POST /api/bookings/:id/cancel.
func (h *Handler) CancelBooking(c *gin.Context) {
	b, err := h.engine.CancelBooking(c.Request.Context(), c.Param("id"), principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// GetBookingQR handles GET /api/bookings/:id/qr?size=.
func (h *Handler) GetBookingQR(c *gin.Context) {
	b, err := h.engine.GetBooking(c.Request.Context(), c.Param("id"), principal(c))
	if err != nil {
		respondError(c, err)
		return
	}

	size := 256
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 64 || n > 1024 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "size must be between 64 and 1024"})
			return
		}
		size = n
	}

	png, err := h.qr.PNG(b, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// GetBookingPass handles GET /api/bookings/:id/pass.
func (h *Handler) GetBookingPass(c *gin.Context) {
	b, err := h.engine.GetBooking(c.Request.Context(), c.Param("id"), principal(c))
	if err != nil {
		respondError(c, err)
		return
	}

	pdf, err := h.qr.PDF(b)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=parking-pass-%s.pdf", b.ID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

type verifyQRRequest struct {
	Data string `json:"data" binding:"required"`
}

// VerifyQR handles POST /api/qr/verify with the scanned QR text.
func (h *Handler) VerifyQR(c *gin.Context) {
	var req verifyQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	v, err := h.qr.Verify(c.Request.Context(), req.Data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
