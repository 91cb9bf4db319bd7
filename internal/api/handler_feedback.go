package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-reservation-backend/internal/feedback"
)

// SubmitFeedback handles POST /api/feedback.
func (h *Handler) SubmitFeedback(c *gin.Context) {
	var in feedback.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	fb, err := h.feedback.Submit(c.Request.Context(), principal(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}

// ListMyFeedback handles GET /api/feedback.
func (h *Handler) ListMyFeedback(c *gin.Context) {
	entries, err := h.feedback.Mine(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
