package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"parking-reservation-backend/internal/booking"
	"parking-reservation-backend/internal/model"
	"parking-reservation-backend/internal/store"
)

// ListSlots handles GET /api/slots?floor=&type=.
func (h *Handler) ListSlots(c *gin.Context) {
	var filter store.SlotFilter
	if v := c.Query("floor"); v != "" {
		floor, err := strconv.Atoi(v)
		if err != nil || floor < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid floor"})
			return
		}
		filter.Floor = floor
	}
	if v := c.Query("type"); v != "" {
		filter.Type = model.SlotType(v)
		if !filter.Type.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slot type"})
			return
		}
	}

	slots, err := h.engine.ListSlots(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

// GetSlot handles GET /api/slots/:id.
func (h *Handler) GetSlot(c *gin.Context) {
	slot, err := h.engine.GetSlot(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

// GetAvailableSlots handles GET /api/slots/available?at=RFC3339. Without at it answers for now.
func (h *Handler) GetAvailableSlots(c *gin.Context) {
	at := h.engine.Now()
	if atParam := c.Query("at"); atParam != "" {
		parsed, err := time.Parse(time.RFC3339, atParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'at' timestamp format. Use RFC3339."})
			return
		}
		at = parsed
	}

	slots, err := h.engine.GetAvailableSlots(c.Request.Context(), at)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

// CreateSlot handles POST /api/admin/slots.
func (h *Handler) CreateSlot(c *gin.Context) {
	var in booking.SlotInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	slot, err := h.engine.AddSlot(c.Request.Context(), principal(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

// UpdateSlot handles PATCH /api/admin/slots/:id.
func (h *Handler) UpdateSlot(c *gin.Context) {
	var in booking.SlotInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	slot, err := h.engine.UpdateSlot(c.Request.Context(), principal(c), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

// DeleteSlot handles DELETE /api/admin/slots/:id.
func (h *Handler) DeleteSlot(c *gin.Context) {
	if err := h.engine.DeleteSlot(c.Request.Context(), principal(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
