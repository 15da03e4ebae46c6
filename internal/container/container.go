package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/traveloure/traveloure-api/app/db"
	"github.com/traveloure/traveloure-api/app/observability/metrics"
	"github.com/traveloure/traveloure-api/config"
	"github.com/traveloure/traveloure-api/internal/api/aiorchestrator"
	"github.com/traveloure/traveloure-api/internal/api/enrichment"
	"github.com/traveloure/traveloure-api/internal/api/providers"
	"github.com/traveloure/traveloure-api/internal/api/travelpulse"
	"github.com/traveloure/traveloure-api/internal/api/tripoptimizer"
	"github.com/traveloure/traveloure-api/internal/api/venues"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool

	Scheduler *travelpulse.Scheduler

	OrchestratorHandler  *aiorchestrator.Handler
	TravelPulseHandler   *travelpulse.Handler
	TripOptimizerHandler *tripoptimizer.Handler
	EnrichmentHandler    *enrichment.Handler
}

// NewContainer initializes and returns a new dependency container. Metrics
// instruments must be initialized before calling this.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	appMetrics := metrics.Get()

	grokClient, err := providers.NewGrokClient(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Grok client", slog.Any("error", err))
		return nil, err
	}
	geminiClient, err := providers.NewGeminiClient(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Gemini client", slog.Any("error", err))
		return nil, err
	}

	interactionRepo := aiorchestrator.NewPostgresInteractionRepo(pool, logger)
	orchestratorService := aiorchestrator.NewServiceImpl(interactionRepo, grokClient, geminiClient, appMetrics, logger)
	orchestratorHandler := aiorchestrator.NewHandler(orchestratorService, logger)

	pulseRepo := travelpulse.NewPostgresTravelPulseRepo(pool, logger)
	pulseService := travelpulse.NewServiceImpl(pulseRepo, orchestratorService, travelpulse.RefreshConfig{
		BatchSize:      cfg.Scheduler.BatchSize,
		InterCallDelay: cfg.Scheduler.InterCallDelay,
	}, cfg.Providers.Grok.Model, appMetrics, logger)
	scheduler := travelpulse.NewScheduler(pulseService, travelpulse.SchedulerConfig{
		InitialDelay: cfg.Scheduler.InitialDelay,
		Interval:     cfg.Scheduler.Interval,
	}, appMetrics, logger)
	pulseHandler := travelpulse.NewHandler(pulseService, scheduler, logger)

	optimizerService := tripoptimizer.NewServiceImpl(orchestratorService, pulseService, logger)
	optimizerHandler := tripoptimizer.NewHandler(optimizerService, logger)

	serpClient := venues.NewSerpClient(cfg, logger)
	enrichmentService := enrichment.NewServiceImpl(serpClient, pulseService, logger)
	enrichmentHandler := enrichment.NewHandler(enrichmentService, logger)

	return &Container{
		Config:               cfg,
		Logger:               logger,
		Pool:                 pool,
		Scheduler:            scheduler,
		OrchestratorHandler:  orchestratorHandler,
		TravelPulseHandler:   pulseHandler,
		TripOptimizerHandler: optimizerHandler,
		EnrichmentHandler:    enrichmentHandler,
	}, nil
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready.
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
