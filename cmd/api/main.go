package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"bigfive-api/internal/catalog"
	"bigfive-api/internal/config"
	"bigfive-api/internal/db"
	apihttp "bigfive-api/internal/http"
	"bigfive-api/internal/llm"
	"bigfive-api/internal/repository"
	"bigfive-api/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	catalogs := catalog.NewLoader(logger)
	var src catalog.Source = catalog.EmbeddedSource()
	if cfg.CatalogPath != "" {
		src = catalog.NewFileSource(cfg.CatalogPath)
	}
	if _, err := catalogs.LoadOnce(src); err != nil {
		logger.Fatal("catalog load", zap.Error(err))
	}

	// Las interfaces quedan en nil (no punteros nil tipados) cuando un
	// colaborador no esta configurado.
	var (
		assessmentRepo repository.AssessmentRepository
		pinger         apihttp.Pinger
	)
	if cfg.PersistenceEnabled() {
		pool, err := db.Open(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("db open", zap.Error(err))
		}
		defer pool.Close()
		assessmentRepo = repository.NewPgAssessmentRepository(pool)
		pinger = pool
	} else {
		logger.Warn("DATABASE_URL not set: assessments will not be persisted")
	}

	var llmClient llm.LLMClient
	if cfg.GuidanceEnabled() {
		llmClient = llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)
	} else {
		logger.Warn("LLM_API_KEY not set: guidance disabled")
	}

	var (
		submitLimiter = service.NewMemoryRateLimiter(cfg.SubmitRateWindow(), cfg.SubmitRateMax)
		loginLimiter  = service.NewMemoryRateLimiter(cfg.AdminLoginRateWindow(), cfg.AdminLoginRateMax)
		tokenStore    service.RefreshTokenStore
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			submitLimiter = service.NewRedisRateLimiter(redisClient, "submit", cfg.SubmitRateWindow(), cfg.SubmitRateMax)
			loginLimiter = service.NewRedisRateLimiter(redisClient, "admin-login", cfg.AdminLoginRateWindow(), cfg.AdminLoginRateMax)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}

	jwtSvc := service.NewJWTServiceWithStore(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL(), tokenStore)
	if !cfg.AdminEnabled() {
		logger.Warn("JWT_SECRET or ADMIN_PASSWORD_HASH not set: admin panel disabled")
	}

	knowledge, err := service.LoadKnowledgeBase()
	if err != nil {
		logger.Fatal("knowledge base", zap.Error(err))
	}
	logger.Info("knowledge base loaded", zap.Int("topics", knowledge.Topics()))

	assessmentSvc := service.NewAssessmentService(logger, catalogs, assessmentRepo)
	guidanceSvc := service.NewGuidanceService(logger, assessmentRepo, catalogs, llmClient, knowledge)
	adminSvc := service.NewAdminService(logger, assessmentRepo, catalogs, jwtSvc, cfg.AdminPasswordHash, loginLimiter)

	var origins []string
	if !cfg.AllowAllOrigins() {
		origins = cfg.CORSAllowedOrigins
	}
	router := apihttp.NewRouter(logger, origins, jwtSvc,
		apihttp.NewAssessmentHandler(logger, catalogs, assessmentSvc, submitLimiter),
		apihttp.NewGuidanceHandler(logger, guidanceSvc),
		apihttp.NewAdminHandler(logger, adminSvc),
		apihttp.NewHealthHandler(pinger, catalogs),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
