package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/domain/videos"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/http/response"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag/indexing"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/services"
)

type TranscriptHandler struct {
	svc services.TranscriptService
}

func NewTranscriptHandler(svc services.TranscriptService) *TranscriptHandler {
	return &TranscriptHandler{svc: svc}
}

type indexingView struct {
	Indexed    bool   `json:"indexed"`
	InProgress bool   `json:"inProgress"`
	ChunkCount int    `json:"chunkCount"`
	RunID      string `json:"runId,omitempty"`
	Error      string `json:"error,omitempty"`
}

func toIndexingView(r indexing.Result) indexingView {
	v := indexingView{
		Indexed:    r.Indexed,
		InProgress: r.InProgress,
		ChunkCount: r.ChunkCount,
		RunID:      r.RunID,
	}
	if r.Err != nil {
		v.Error = r.Err.Error()
	}
	return v
}

// POST /api/transcripts
func (h *TranscriptHandler) Ingest(c *gin.Context) {
	var req services.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.svc.Ingest(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"transcript": res.Transcript,
		"indexing":   toIndexingView(res.Indexing),
	})
}

// GET /api/transcripts/:videoId
func (h *TranscriptHandler) Get(c *gin.Context) {
	tr, err := h.svc.Get(c.Request.Context(), c.Param("videoId"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"success":    true,
		"transcript": tr,
		"cached":     true,
		"ragReady":   ragReady(tr),
	})
}

// POST /api/transcripts/:videoId/reindex
func (h *TranscriptHandler) Reindex(c *gin.Context) {
	res, err := h.svc.Reindex(c.Request.Context(), c.Param("videoId"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": res.Err == nil, "indexing": toIndexingView(res)})
}

// DELETE /api/transcripts/:videoId/vectors
func (h *TranscriptHandler) RemoveVectors(c *gin.Context) {
	if err := h.svc.RemoveVectors(c.Request.Context(), c.Param("videoId")); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}

func ragReady(tr *videos.Transcript) bool {
	return tr != nil && tr.IndexCurrent()
}
