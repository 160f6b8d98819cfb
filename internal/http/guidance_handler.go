package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bigfive-api/internal/service"
)

// GuidanceHandler atiende la orientacion generada por LLM.
type GuidanceHandler struct {
	logger   *zap.Logger
	guidance *service.GuidanceService
}

func NewGuidanceHandler(logger *zap.Logger, guidance *service.GuidanceService) *GuidanceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GuidanceHandler{logger: logger, guidance: guidance}
}

type guidanceRequest struct {
	AssessmentID     string                   `json:"assessment_id" binding:"required"`
	LifestyleAnswers service.LifestyleAnswers `json:"lifestyle_answers"`
}

// LifestyleQuestions maneja GET /api/guidance/questions.
func (h *GuidanceHandler) LifestyleQuestions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"questions": h.guidance.LifestyleQuestions()})
}

// Generate maneja POST /api/guidance/generate.
func (h *GuidanceHandler) Generate(c *gin.Context) {
	var req guidanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid guidance request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	out, err := h.guidance.Generate(c.Request.Context(), service.GuidanceRequest{
		AssessmentID: req.AssessmentID,
		Lifestyle:    req.LifestyleAnswers,
	})
	if err != nil {
		status, msg := h.errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, out)
}

// GenerateStream maneja POST /api/guidance/generate/stream. Los errores
// previos al primer fragmento se responden como JSON; los posteriores como
// evento SSE con campo error.
func (h *GuidanceHandler) GenerateStream(c *gin.Context) {
	var req guidanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid guidance stream request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	started := false
	start := func() {
		if started {
			return
		}
		started = true
		w := c.Writer
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
	}

	_, err := h.guidance.Stream(c.Request.Context(), service.GuidanceRequest{
		AssessmentID: req.AssessmentID,
		Lifestyle:    req.LifestyleAnswers,
	}, func(chunk string) error {
		start()
		return writeSSE(c, gin.H{"chunk": chunk})
	})
	if err != nil {
		status, msg := h.errorStatus(err)
		if !started {
			c.JSON(status, gin.H{"error": msg})
			return
		}
		if werr := writeSSE(c, gin.H{"error": msg}); werr != nil {
			h.logger.Warn("write sse error event failed", zap.Error(werr))
		}
		return
	}

	start()
	if err := writeSSE(c, gin.H{"done": true}); err != nil {
		h.logger.Warn("write sse done event failed", zap.Error(err))
	}
}

// Saved maneja GET /api/guidance/saved/:id.
func (h *GuidanceHandler) Saved(c *gin.Context) {
	saved, err := h.guidance.Saved(c.Request.Context(), c.Param("id"))
	if err != nil {
		status, msg := h.errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *GuidanceHandler) errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidLifestyle):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrAssessmentNotFound):
		return http.StatusNotFound, "assessment not found"
	case errors.Is(err, service.ErrGuidanceNotFound):
		return http.StatusNotFound, "no guidance found for this assessment"
	case errors.Is(err, service.ErrGuidanceUnavailable):
		return http.StatusServiceUnavailable, "guidance generation not configured"
	case errors.Is(err, service.ErrPersistenceDisabled):
		return http.StatusServiceUnavailable, "persistence disabled"
	default:
		h.logger.Error("guidance failed", zap.Error(err))
		return http.StatusInternalServerError, "failed to generate guidance"
	}
}

func writeSSE(c *gin.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}
