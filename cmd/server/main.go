package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-qc/internal/config"
	"github.com/garyjia/invoice-qc/internal/extract"
	httpadapter "github.com/garyjia/invoice-qc/internal/interfaces/http"
	"github.com/garyjia/invoice-qc/internal/repository"
	"github.com/garyjia/invoice-qc/internal/rules"
	"github.com/garyjia/invoice-qc/internal/validate"
	"github.com/garyjia/invoice-qc/pkg/database"
	"github.com/garyjia/invoice-qc/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Invoice Quality Control Service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	reportRepo := repository.NewReportRepository(db.DB, logger)

	// Extraction pipeline
	reader := extract.NewPDFReader(logger)
	extractorOpts := []extract.Option{extract.WithWorkers(cfg.Extractor.Workers)}
	if cfg.Extractor.AIFallback {
		fallback := extract.NewAIFallback(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger)
		extractorOpts = append(extractorOpts, extract.WithAIFallback(fallback))
		logger.Info("AI extraction fallback enabled", zap.String("model", cfg.OpenAI.Model))
	}
	extractor := extract.NewExtractor(reader, logger, extractorOpts...)

	// Rule engine
	validator := validate.NewValidator(rules.Defaults(cfg.Rules.Tolerance), logger)

	handlers := httpadapter.NewHandlers(extractor, validator, reportRepo, logger)
	server := httpadapter.NewServer(httpadapter.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		MaxUploadMB:  cfg.Server.MaxUploadMB,
	}, handlers, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Invoice Quality Control Service stopped")
}
