package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/money-manager/internal/api/handlers"
	"github.com/dvloznov/money-manager/internal/api/middleware"
	"github.com/dvloznov/money-manager/internal/classifier"
	"github.com/dvloznov/money-manager/internal/config"
	"github.com/dvloznov/money-manager/internal/gcsstore"
	infraBQ "github.com/dvloznov/money-manager/internal/infra/bigquery"
	"github.com/dvloznov/money-manager/internal/logger"
	"github.com/dvloznov/money-manager/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	// Load .env file for local development (ignore errors in production)
	_ = godotenv.Load()

	// Parse command-line flags
	var (
		configPath = flag.String("config", os.Getenv("MM_CONFIG"), "Path to YAML config file")
		withBQ     = flag.Bool("bq", os.Getenv("MM_BQ_ENABLED") == "true", "Enable BigQuery report storage (or set MM_BQ_ENABLED=true)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := logger.WithContext(context.Background(), log)

	// The classifier is loaded once and shared by all requests.
	c, err := classifier.Open(ctx, cfg.Classifier, gcsstore.New(cfg.GCP.CredentialsFile))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load classifier")
	}
	runner := pipeline.NewRunner(c, cfg)

	// Initialize repositories
	var (
		store handlers.ReportStore
		runs  *handlers.RunsHandler
	)
	if *withBQ {
		repo, err := infraBQ.NewBigQueryReportRepository(ctx, cfg.GCP, cfg.BigQuery)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create report repository")
		}
		defer repo.Close()

		if err := repo.VerifyTables(ctx); err != nil {
			log.Fatal().Err(err).Msg("BigQuery tables are not ready")
		}
		store = repo
		runs = handlers.NewRunsHandler(repo)
	} else {
		log.Warn().Msg("No report storage configured - ?store=true and /api/runs are disabled")
	}

	// Initialize handlers and router
	reports := handlers.NewReportsHandler(runner, store, cfg.Server.MaxUploadMB)
	mux := handlers.NewRouter(reports, runs)

	// Apply middleware
	handler := middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("classifier", cfg.Classifier.Kind).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
