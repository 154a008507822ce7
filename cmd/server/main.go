package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"

	"podium/internal/auth"
	"podium/internal/compliance"
	"podium/internal/config"
	"podium/internal/database"
	"podium/internal/domain/repositories"
	"podium/internal/handler"
	"podium/internal/httputil"
	"podium/internal/metrics"
	"podium/internal/middleware"
	"podium/internal/repository/memory"
	"podium/internal/repository/postgres"
	"podium/internal/service/contextbuild"
	"podium/internal/service/generation"
	"podium/internal/service/llm"
	"podium/internal/service/quota"
	"podium/internal/service/session"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
	)

	// Repositories: Postgres in prod, in-memory in dev
	var (
		sessionRepo repositories.SessionRepository
		quotaRepo   repositories.QuotaRepository
	)
	if cfg.UseMemory {
		logger.Warn("using in-memory stores; state is lost on restart")
		sessionRepo = memory.NewSessionRepository()
		quotaRepo = memory.NewQuotaRepository()
	} else {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		pool, err := postgres.CreateConnectionPool(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()
		logger.Info("database connected")

		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		}
		sessionRepo = postgres.NewSessionRepository(repoConfig)
		quotaRepo = postgres.NewQuotaRepository(repoConfig)
	}

	// LLM providers
	providers := []llm.Completer{}
	if cfg.OpenAIAPIKey != "" {
		openaiProvider, err := llm.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.DefaultModel, cfg.OpenAIBaseURL)
		if err != nil {
			log.Fatalf("Failed to create OpenAI provider: %v", err)
		}
		providers = append(providers, openaiProvider)
	}
	providers = append(providers, llm.NewOfflineProvider())
	registry, err := llm.NewRegistry(logger, providers...)
	if err != nil {
		log.Fatalf("Failed to create LLM registry: %v", err)
	}

	// Compliance engine from the embedded rule tables
	ruleSet, err := compliance.LoadDefaultRuleSet()
	if err != nil {
		log.Fatalf("Failed to load rule set: %v", err)
	}
	engine, err := compliance.NewEngine(ruleSet)
	if err != nil {
		log.Fatalf("Failed to build compliance engine: %v", err)
	}
	logger.Info("compliance engine initialized",
		"universal_bans", len(ruleSet.UniversalBans),
		"stages", len(ruleSet.Stages),
	)

	// Metrics
	promRegistry := prometheus.NewRegistry()
	collector := metrics.NewPrometheusCollector(promRegistry)

	// Services
	ledger := quota.NewLedger(quotaRepo, logger)
	sessions := session.NewStore(sessionRepo, ledger, logger)
	planner := generation.NewPlanner(registry, cfg.DefaultModel, logger)
	writer := generation.NewSectionWriter(registry, cfg.DefaultModel, collector, logger)
	corrector := generation.NewCorrector(registry, cfg.DefaultModel, logger)

	orchestrator := generation.NewOrchestrator(generation.Deps{
		Sessions:  sessions,
		Planner:   planner,
		Writer:    writer,
		Corrector: corrector,
		Engine:    engine,
		Builder:   contextbuild.NoopBuilder{},
		Facts:     contextbuild.TokenFactSource{},
		Collector: collector,
		Logger:    logger,
	})

	// Auth
	var verifier auth.Verifier
	if cfg.DevUserID != "" {
		logger.Warn("auth bypass enabled", "dev_user_id", cfg.DevUserID)
		verifier = &auth.StaticVerifier{UserID: cfg.DevUserID, Tier: "unlimited"}
	} else {
		verifier, err = auth.NewJWKSVerifier(cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
	}

	// Handlers and routes
	drafts := handler.NewDraftHandler(orchestrator, ledger, logger)

	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer limiter.Close()

	authn := middleware.Auth(verifier, logger)

	mux := http.NewServeMux()
	mux.Handle("POST /api/drafts/generate", authn(limiter.Generate(http.HandlerFunc(drafts.Generate))))
	mux.Handle("POST /api/drafts/save", authn(limiter.General(http.HandlerFunc(drafts.Save))))
	mux.Handle("POST /api/drafts/reset", authn(limiter.General(http.HandlerFunc(drafts.Reset))))
	mux.Handle("GET /api/quota", authn(limiter.General(http.HandlerFunc(drafts.Quota))))
	mux.Handle("GET /metrics", metrics.Handler(promRegistry))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	root := middleware.Recovery(logger)(
		middleware.RequestLogging(logger)(
			corsHandler.Handler(mux)))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: root,
		// Section drafting can legitimately take minutes.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	done := make(chan struct{})
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
		close(done)
	}()

	logger.Info("listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	<-done
}
