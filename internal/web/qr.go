package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/missionhq/internal/confirm"
)

// QRHandler issues and redeems mission confirmation codes.
type QRHandler struct {
	confirm *confirm.Service
}

// NewQRHandler creates a QRHandler backed by the confirmation service.
func NewQRHandler(s *confirm.Service) *QRHandler {
	return &QRHandler{confirm: s}
}

// POST /api/missions/:mission/qr
func (h *QRHandler) Issue(c *gin.Context) {
	code, err := h.confirm.Issue(c.Request.Context(), c.Param("mission"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, code)
}

// POST /api/cadets/:user/missions/:mission/qr
// body: { "token": "..." }
func (h *QRHandler) Redeem(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidInput(err))
		return
	}
	res, err := h.confirm.Redeem(c.Request.Context(), c.Param("user"), c.Param("mission"), req.Token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
