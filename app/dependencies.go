package app

import (
	"context"
	"fmt"
	"time"

	"github.com/collectedworks/backend/config"
	"github.com/collectedworks/backend/middleware"
	"github.com/collectedworks/backend/repositories"
	"github.com/collectedworks/backend/repositories/postgres"
	"github.com/collectedworks/backend/services/history"
	"github.com/collectedworks/backend/services/providers/openai"
	"github.com/collectedworks/backend/services/providers/pinecone"
	"github.com/collectedworks/backend/services/query"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Providers
	Pinecone *pinecone.Adapter
	OpenAI   *openai.Adapter

	// Repositories
	QueryLogs repositories.QueryLogRepository

	// Services
	QueryService   *query.Service
	HistoryService *history.Service

	// Auth
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initProviders(cfg)

	// History is optional: the service answers questions without a
	// database, it just keeps no record of them.
	if cfg.Database != nil {
		if err := deps.initHistory(ctx, cfg); err != nil {
			return nil, fmt.Errorf("failed to initialize history: %w", err)
		}
	} else {
		logger.Info("DATABASE_URL not set, query history disabled")
	}

	deps.initQueryService(cfg)
	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initProviders initializes the Pinecone and OpenAI adapters
func (d *Dependencies) initProviders(cfg *config.Config) {
	d.Pinecone = pinecone.NewAdapter(pinecone.Config{
		APIKey:     cfg.Pinecone.APIKey,
		IndexHost:  cfg.Pinecone.IndexHost,
		EmbedURL:   cfg.Pinecone.EmbedURL,
		EmbedModel: cfg.Pinecone.EmbedModel,
		Dimension:  cfg.Pinecone.Dimension,
		Namespace:  cfg.Pinecone.Namespace,
		Timeout:    cfg.Pinecone.Timeout,
		MaxRetries: cfg.Pinecone.MaxRetries,
	})

	d.OpenAI = openai.NewAdapter(openai.Config{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.OpenAI.Timeout,
		MaxRetries:  cfg.OpenAI.MaxRetries,
	})

	d.Logger.Info("providers initialized",
		zap.String("embed_model", cfg.Pinecone.EmbedModel),
		zap.String("generate_model", cfg.OpenAI.Model))
}

// initHistory initializes the database, query log repository and the
// async history service
func (d *Dependencies) initHistory(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(*cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	d.DB = db

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	d.QueryLogs = postgres.NewQueryLogRepository(db, d.Logger)
	d.HistoryService = history.NewService(d.QueryLogs, d.Logger, history.DefaultConfig())

	if err := d.HistoryService.Start(); err != nil {
		return fmt.Errorf("failed to start history service: %w", err)
	}

	d.Logger.Info("history service initialized")
	return nil
}

// initQueryService wires the retrieval pipeline
func (d *Dependencies) initQueryService(cfg *config.Config) {
	var recorder query.Recorder
	if d.HistoryService != nil {
		recorder = d.HistoryService
	}

	d.QueryService = query.NewService(
		d.Pinecone,
		d.Pinecone,
		d.OpenAI,
		recorder,
		cfg.Retrieval,
		d.Logger,
	)
}

// initAuth initializes JWT validation for protected endpoints
func (d *Dependencies) initAuth(cfg *config.Config) {
	validator := middleware.NewJWTValidator(cfg.Auth)
	d.AuthMiddleware = middleware.NewAuthMiddleware(validator, d.Logger)
}

// Close releases all resources held by the dependencies
func (d *Dependencies) Close() error {
	var firstErr error

	if d.HistoryService != nil {
		if err := d.HistoryService.Stop(10 * time.Second); err != nil {
			d.Logger.Error("failed to stop history service", zap.Error(err))
			firstErr = err
		}
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Error("failed to close database", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
