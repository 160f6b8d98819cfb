package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bigfive-api/internal/service"
)

// AdminHandler atiende el panel de administracion.
type AdminHandler struct {
	logger *zap.Logger
	admin  *service.AdminService
	now    func() time.Time
}

func NewAdminHandler(logger *zap.Logger, admin *service.AdminService) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		logger: logger,
		admin:  admin,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Login maneja POST /api/admin/login. Acepta la password en el body o en
// el header X-Admin-Token.
func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}
	password := req.Password
	if password == "" {
		password = c.GetHeader("X-Admin-Token")
	}
	if strings.TrimSpace(password) == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "password required"})
		return
	}

	pair, err := h.admin.Login(c.Request.Context(), c.ClientIP(), password)
	if err != nil {
		var limited *service.RateLimitError
		switch {
		case errors.As(err, &limited):
			tooManyRequests(c, service.Decision{RetryAfter: limited.RetryAfter}.RetryAfterSeconds())
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		default:
			h.logger.Error("admin login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not login"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "tokens": pair})
}

// Refresh maneja POST /api/admin/refresh.
func (h *AdminHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	pair, err := h.admin.Refresh(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": pair})
}

// Logout maneja POST /api/admin/logout. Un token ya revocado o invalido
// no es un error para el cliente.
func (h *AdminHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := h.admin.Logout(req.RefreshToken); err != nil {
		h.logger.Info("admin logout with unusable token", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"loggedOut": true})
}

// ListAssessments maneja GET /api/admin/assessments.
func (h *AdminHandler) ListAssessments(c *gin.Context) {
	q := service.AdminQuery{
		SortBy:      c.DefaultQuery("sort_by", "createdAt"),
		SortOrder:   c.DefaultQuery("sort_order", "desc"),
		FilterTrait: c.Query("filter_trait"),
		Country:     c.Query("country"),
	}
	var err error
	if q.Limit, err = queryInt(c, "limit", 0); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	if q.Skip, err = queryInt(c, "skip", 0); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid skip"})
		return
	}
	if raw := c.Query("min_percentile"); raw != "" {
		if q.MinPercentile, err = strconv.ParseFloat(raw, 64); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min_percentile"})
			return
		}
	}

	page, err := h.admin.ListAssessments(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, "admin list failed", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Statistics maneja GET /api/admin/statistics.
func (h *AdminHandler) Statistics(c *gin.Context) {
	stats, err := h.admin.Statistics(c.Request.Context())
	if err != nil {
		h.writeError(c, "admin statistics failed", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// DeleteAssessment maneja DELETE /api/admin/assessments/:id.
func (h *AdminHandler) DeleteAssessment(c *gin.Context) {
	id := c.Param("id")
	if err := h.admin.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, "admin delete failed", err)
		return
	}
	if claims, ok := AdminClaims(c); ok {
		h.logger.Info("assessment deleted", zap.String("id", id), zap.String("by", claims.Subject))
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true, "id": id})
}

// ExportCSV maneja GET /api/admin/export/csv.
func (h *AdminHandler) ExportCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.admin.ExportCSV(c.Request.Context(), &buf); err != nil {
		h.writeError(c, "admin export failed", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+service.ExportFilename(h.now())+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *AdminHandler) writeError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, service.ErrAssessmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "assessment not found"})
	case errors.Is(err, service.ErrPersistenceDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence disabled"})
	case errors.Is(err, service.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
