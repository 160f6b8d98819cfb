package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bigfive-api/internal/scoring"
)

// Pinger es lo minimo que el health check necesita de la base (pgxpool.Pool).
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db       Pinger
	catalogs scoring.CatalogProvider
}

// NewHealthHandler acepta db nil: la base se reporta como "disabled".
func NewHealthHandler(db Pinger, catalogs scoring.CatalogProvider) *HealthHandler {
	return &HealthHandler{db: db, catalogs: catalogs}
}

// Health maneja GET /api/health. Siempre responde 200.
func (h *HealthHandler) Health(c *gin.Context) {
	database := "disabled"
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			database = "disconnected"
		} else {
			database = "connected"
		}
	}

	catalogStatus := "not loaded"
	if h.catalogs != nil {
		if _, err := h.catalogs.Catalog(); err == nil {
			catalogStatus = "loaded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"api":      "healthy",
		"database": database,
		"catalog":  catalogStatus,
	})
}
