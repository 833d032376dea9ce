package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/http/response"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/services"
)

type ChatHandler struct {
	svc services.ChatService
	// exposeDiagnostics adds model and usedRAG to the response body.
	exposeDiagnostics bool
}

func NewChatHandler(svc services.ChatService, exposeDiagnostics bool) *ChatHandler {
	return &ChatHandler{svc: svc, exposeDiagnostics: exposeDiagnostics}
}

// POST /api/chat
func (h *ChatHandler) Ask(c *gin.Context) {
	var req services.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	resp, err := h.svc.Ask(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	body := gin.H{
		"answer":     resp.Answer,
		"videoId":    resp.VideoID,
		"videoTitle": resp.VideoTitle,
	}
	if h.exposeDiagnostics {
		body["model"] = resp.Model
		body["usedRAG"] = resp.UsedRAG
	}
	response.RespondOK(c, body)
}
