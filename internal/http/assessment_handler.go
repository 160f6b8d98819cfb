package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bigfive-api/internal/catalog"
	"bigfive-api/internal/domain"
	"bigfive-api/internal/scoring"
	"bigfive-api/internal/service"
)

// AssessmentHandler atiende catalogo, envios y resultados.
type AssessmentHandler struct {
	logger      *zap.Logger
	catalogs    scoring.CatalogProvider
	assessments *service.AssessmentService
	limiter     service.RateLimiter
}

// NewAssessmentHandler acepta limiter nil: los envios no se limitan.
func NewAssessmentHandler(logger *zap.Logger, catalogs scoring.CatalogProvider, assessments *service.AssessmentService, limiter service.RateLimiter) *AssessmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentHandler{
		logger:      logger,
		catalogs:    catalogs,
		assessments: assessments,
		limiter:     limiter,
	}
}

type questionResponse struct {
	ID       int          `json:"id"`
	Text     string       `json:"text"`
	Trait    domain.Trait `json:"trait"`
	Reversed bool         `json:"reversed"`
}

// Questions maneja GET /api/questions.
func (h *AssessmentHandler) Questions(c *gin.Context) {
	cat, ok := h.catalog(c)
	if !ok {
		return
	}
	questions := make([]questionResponse, 0, len(cat.Questions()))
	for _, q := range cat.Questions() {
		questions = append(questions, questionResponse{
			ID:       q.ID,
			Text:     q.Text,
			Trait:    q.Trait,
			Reversed: q.Polarity.Reversed(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions, "likertOptions": cat.LikertOptions()})
}

// Traits maneja GET /api/traits.
func (h *AssessmentHandler) Traits(c *gin.Context) {
	cat, ok := h.catalog(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"traits": cat.TraitInfo()})
}

type submitRequest struct {
	Responses  domain.ResponseSet    `json:"responses"`
	UserData   domain.Participant    `json:"userData"`
	Timestamps *service.SessionInput `json:"timestamps"`
}

type submitResponse struct {
	AssessmentID    *string                                    `json:"assessmentId"`
	Traits          map[domain.Trait]domain.TraitResult        `json:"traits"`
	Predictions     map[domain.Outcome]domain.PredictionResult `json:"predictions"`
	SavedToDatabase bool                                       `json:"savedToDatabase"`
}

// Submit maneja POST /api/submit.
func (h *AssessmentHandler) Submit(c *gin.Context) {
	if h.limiter != nil {
		if d := h.limiter.Allow(c.Request.Context(), c.ClientIP()); !d.Allowed {
			tooManyRequests(c, d.RetryAfterSeconds())
			return
		}
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid submit request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	out, err := h.assessments.Submit(c.Request.Context(), service.SubmitInput{
		Participant: req.UserData,
		Responses:   req.Responses,
		Timestamps:  req.Timestamps,
	})
	if err != nil {
		h.writeError(c, "submit assessment failed", err)
		return
	}

	resp := submitResponse{
		Traits:          out.Result.Traits,
		Predictions:     out.Result.Predictions,
		SavedToDatabase: out.SavedToDatabase,
	}
	if out.AssessmentID != "" {
		resp.AssessmentID = &out.AssessmentID
	}
	c.JSON(http.StatusOK, resp)
}

// ListResults maneja GET /api/results.
func (h *AssessmentHandler) ListResults(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	skip, err := queryInt(c, "skip", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid skip"})
		return
	}
	page, err := h.assessments.List(c.Request.Context(), limit, skip)
	if err != nil {
		h.writeError(c, "list results failed", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetResult maneja GET /api/results/:id.
func (h *AssessmentHandler) GetResult(c *gin.Context) {
	a, err := h.assessments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "get result failed", err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// DeleteResult maneja DELETE /api/results/:id.
func (h *AssessmentHandler) DeleteResult(c *gin.Context) {
	id := c.Param("id")
	if err := h.assessments.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, "delete result failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted", "id": id})
}

func (h *AssessmentHandler) catalog(c *gin.Context) (*catalog.Catalog, bool) {
	if h.catalogs == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "catalog not loaded"})
		return nil, false
	}
	cat, err := h.catalogs.Catalog()
	if err != nil {
		h.logger.Error("catalog unavailable", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "catalog not loaded"})
		return nil, false
	}
	return cat, true
}

func (h *AssessmentHandler) writeError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, service.ErrIncompleteAssessment),
		errors.Is(err, service.ErrUnknownQuestion),
		errors.Is(err, scoring.ErrInvalidResponseValue):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAssessmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "assessment not found"})
	case errors.Is(err, service.ErrPersistenceDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence disabled"})
	case errors.Is(err, catalog.ErrNotLoaded):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "catalog not loaded"})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// tooManyRequests responde 429 con Retry-After en segundos.
func tooManyRequests(c *gin.Context, retryAfter int) {
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests", "retryAfterSeconds": retryAfter})
}
