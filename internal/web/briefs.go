package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/missionhq/internal/briefs"
)

// BriefHandler drafts mission copy.
type BriefHandler struct {
	briefs *briefs.Service
}

// NewBriefHandler creates a BriefHandler.
func NewBriefHandler(s *briefs.Service) *BriefHandler {
	return &BriefHandler{briefs: s}
}

// POST /api/briefs
func (h *BriefHandler) Draft(c *gin.Context) {
	var req briefs.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidInput(err))
		return
	}
	b, err := h.briefs.Draft(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
