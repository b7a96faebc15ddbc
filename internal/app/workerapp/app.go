package workerapp

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/olaemy/HomeConnectproV3-sub001/internal/config"
	"github.com/olaemy/HomeConnectproV3-sub001/internal/jobs/cleanup"
	pgrepo "github.com/olaemy/HomeConnectproV3-sub001/internal/repo/postgres"
)

const defaultCleanupInterval = 6 * time.Hour

type job interface {
	Run(ctx context.Context) error
}

// App runs periodic maintenance against the safety database.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	pool       *pgxpool.Pool
	cleanupJob job
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	eventRepo := pgrepo.NewEventRepo(pool)
	cleanupJob := cleanup.NewEventsCleanupJob(eventRepo, cfg.Retention.EventsTTL, logger)

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		cleanupJob: cleanupJob,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("worker app started",
		zap.Duration("events_ttl", a.cfg.Retention.EventsTTL),
		zap.Duration("interval", a.cfg.Retention.CleanupInterval),
	)
	return a.runCleanupLoop(ctx)
}

func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// runCleanupLoop keeps going after a failed run; the next tick retries.
func (a *App) runCleanupLoop(ctx context.Context) error {
	if a.cleanupJob == nil {
		return nil
	}

	interval := a.cfg.Retention.CleanupInterval
	if interval <= 0 {
		interval = defaultCleanupInterval
	}

	a.runCleanup(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.runCleanup(ctx)
		}
	}
}

func (a *App) runCleanup(ctx context.Context) {
	if err := a.cleanupJob.Run(ctx); err != nil {
		a.logger.Error("cleanup run failed", zap.Error(err))
	}
}
