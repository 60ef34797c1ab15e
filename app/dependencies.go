package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/lunarspired/portfolio-chat/config"
	"github.com/lunarspired/portfolio-chat/handlers"
	"github.com/lunarspired/portfolio-chat/internal/observability"
	"github.com/lunarspired/portfolio-chat/middleware"
	"github.com/lunarspired/portfolio-chat/repositories"
	"github.com/lunarspired/portfolio-chat/repositories/postgres"
	"github.com/lunarspired/portfolio-chat/services/chat"
	"github.com/lunarspired/portfolio-chat/services/providers"
	"github.com/lunarspired/portfolio-chat/services/providers/gemini"
	"github.com/lunarspired/portfolio-chat/services/ratelimit"
	"github.com/lunarspired/portfolio-chat/services/retrieval"
	"github.com/lunarspired/portfolio-chat/services/session"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB // nil when no database is configured
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories (nil without a database)
	Sessions  repositories.SessionRepository
	Messages  repositories.MessageRepository
	Chunks    repositories.ChunkRepository
	TxManager repositories.TransactionManager

	// Model provider (nil without an API key)
	Embedder  providers.Embedder
	Generator providers.Generator

	// Services
	SessionStore *session.Store
	Retrieval    *retrieval.Service
	Chat         *chat.Service
	Limiter      *ratelimit.Limiter

	// Observability
	Metrics        observability.Metrics
	MetricsHandler http.Handler // nil when metrics are disabled

	// Admin auth for diagnostic endpoints (nil when no secret is configured)
	AdminAuth *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies.
// Missing database or provider configuration is not an error: chat then answers
// with the fallback reply.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initMetrics(cfg)

	if err := deps.initDatabase(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initProviders(ctx, cfg); err != nil {
		_ = deps.closeDatabase()
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	deps.initServices()
	deps.initAdminAuth(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.Bool("database", deps.DB != nil),
		zap.Bool("provider", deps.Generator != nil),
		zap.Bool("rag_enabled", deps.Chat.Configured()))
	return deps, nil
}

func (d *Dependencies) initMetrics(cfg *config.Config) {
	if !cfg.Observability.MetricsEnabled {
		d.Metrics = observability.NopMetrics{}
		return
	}
	m := observability.NewPrometheusMetrics()
	d.Metrics = m
	d.MetricsHandler = m.Handler()
}

// initDatabase opens PostgreSQL when configured and creates the repositories
func (d *Dependencies) initDatabase(cfg *config.Config) error {
	if !cfg.Database.Enabled() {
		d.Logger.Warn("database not configured, chat history and retrieval disabled")
		return nil
	}

	factory, err := postgres.NewRepositoryFactory(cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	repos := factory.NewRepositories()
	d.Sessions = repos.Sessions
	d.Messages = repos.Messages
	d.Chunks = repos.Chunks
	d.TxManager = factory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
	return nil
}

// initProviders creates the Gemini client when an API key is present
func (d *Dependencies) initProviders(ctx context.Context, cfg *config.Config) error {
	if !cfg.Gemini.Enabled() {
		d.Logger.Warn("GEMINI_API_KEY not set, chat will use the fallback reply")
		return nil
	}

	client, err := gemini.New(ctx, providers.ProviderConfig{
		APIKey:             cfg.Gemini.APIKey,
		BaseURL:            cfg.Gemini.BaseURL,
		Timeout:            cfg.Gemini.Timeout,
		EmbeddingModel:     cfg.Gemini.EmbeddingModel,
		GenerationModel:    cfg.Gemini.GenerationModel,
		EmbeddingDimension: cfg.Gemini.EmbeddingDimension,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.Embedder = providers.NewCachedEmbedder(client, cfg.Gemini.EmbeddingCacheTTL)
	d.Generator = client
	d.Logger.Info("registered Gemini provider",
		zap.String("embedding_model", cfg.Gemini.EmbeddingModel),
		zap.String("generation_model", cfg.Gemini.GenerationModel))
	return nil
}

// initServices wires the domain services. Interface fields stay nil when their
// backend is missing so the chat service can detect it.
func (d *Dependencies) initServices() {
	d.SessionStore = session.NewStore(d.Sessions, d.Messages, d.Metrics, d.Logger)
	d.Limiter = ratelimit.NewChatLimiter(d.Logger)

	var searcher chat.Searcher
	if d.Chunks != nil {
		d.Retrieval = retrieval.NewService(d.Chunks, d.Logger)
		searcher = d.Retrieval
	}

	d.Chat = chat.NewService(chat.Dependencies{
		Store:     d.SessionStore,
		Searcher:  searcher,
		Embedder:  d.Embedder,
		Generator: d.Generator,
		Metrics:   d.Metrics,
		Logger:    d.Logger,
	})
}

func (d *Dependencies) initAdminAuth(cfg *config.Config) {
	if cfg.Admin.JWTSecret == "" {
		d.Logger.Warn("ADMIN_JWT_SECRET not set, chat history endpoint is unauthenticated")
		return
	}
	d.AdminAuth = middleware.NewAuthMiddleware(middleware.NewHMACValidator(cfg.Admin.JWTSecret), handlers.HandleServiceError, d.Logger)
}

func (d *Dependencies) closeDatabase() error {
	if d.RepoFactory == nil {
		return nil
	}
	err := d.RepoFactory.Close()
	d.RepoFactory = nil
	d.DB = nil
	return err
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if err := d.closeDatabase(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
