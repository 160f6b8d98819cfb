package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bigfive-api/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
// allowedOrigins vacio o con "*" habilita cualquier origen.
func NewRouter(
	logger *zap.Logger,
	allowedOrigins []string,
	jwtSvc *service.JWTService,
	assessmentH *AssessmentHandler,
	guidanceH *GuidanceHandler,
	adminH *AdminHandler,
	healthH *HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery, metricas y CORS.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), metricsMiddleware(), corsMiddleware(allowedOrigins))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/health", healthH.Health)
	api.GET("/questions", assessmentH.Questions)
	api.GET("/traits", assessmentH.Traits)
	api.POST("/submit", assessmentH.Submit)

	results := api.Group("/results")
	results.GET("", assessmentH.ListResults)
	results.GET("/:id", assessmentH.GetResult)
	results.DELETE("/:id", assessmentH.DeleteResult)

	guidance := api.Group("/guidance")
	guidance.GET("/questions", guidanceH.LifestyleQuestions)
	guidance.POST("/generate", guidanceH.Generate)
	guidance.POST("/generate/stream", guidanceH.GenerateStream)
	guidance.GET("/saved/:id", guidanceH.Saved)

	admin := api.Group("/admin")
	admin.POST("/login", adminH.Login)
	admin.POST("/refresh", adminH.Refresh)
	admin.POST("/logout", adminH.Logout)

	protected := admin.Group("", RequireAdmin(jwtSvc))
	protected.GET("/assessments", adminH.ListAssessments)
	protected.DELETE("/assessments/:id", adminH.DeleteAssessment)
	protected.GET("/statistics", adminH.Statistics)
	protected.GET("/export/csv", adminH.ExportCSV)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Admin-Token"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if allowAll(allowedOrigins) {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cors.New(cfg)
}

func allowAll(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
