package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/services"
)

type HealthHandler struct {
	svc services.HealthService
}

func NewHealthHandler(svc services.HealthService) *HealthHandler { return &HealthHandler{svc: svc} }

// GET /api/health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	report := h.svc.Check(c.Request.Context())
	status := http.StatusOK
	if !report.Success {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
