package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/olaemy/HomeConnectproV3-sub001/internal/config"
	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/model"
	s3infra "github.com/olaemy/HomeConnectproV3-sub001/internal/infra/s3"
	pgrepo "github.com/olaemy/HomeConnectproV3-sub001/internal/repo/postgres"
	redrepo "github.com/olaemy/HomeConnectproV3-sub001/internal/repo/redis"
	analyticsvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/analytics"
	compatsvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/compatibility"
	discoverysvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/discovery"
	evidencesvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/evidence"
	ratesvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/rate"
	safetysvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/safety"
)

const maxEventBatchSize = 100

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, cfg.HTTP.RequestTimeout, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, safety ledger runs without journal", zap.Error(err))
	} else {
		pool = p
	}

	var redisClient *goredis.Client
	if c, err := redrepo.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Warn("redis init failed, reports are not throttled and dashboard is off", zap.Error(err))
	} else {
		redisClient = c
	}

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, evidence links are not signed", zap.Error(err))
	} else {
		s3Client = c
	}

	eventRepo := pgrepo.NewEventRepo(pool)
	analyticsService := analyticsvc.NewService(eventRepo, analyticsvc.Config{
		MaxBatchSize: maxEventBatchSize,
	}, log)

	var dashboard *redrepo.SafetyDashboardRepo
	var limiter *ratesvc.Limiter
	if redisClient != nil {
		dashboard = redrepo.NewSafetyDashboardRepo(redisClient)
		analyticsService.AttachObserver(dashboard)
		limiter = ratesvc.NewLimiter(redrepo.NewRateRepo(redisClient), cfg.Reports.MaxPer10Min, cfg.Reports.MaxPerDay)
	}

	warnSafetyPolicy(cfg.Safety, log)
	safetyService := safetysvc.NewService(safetyConfig(cfg.Safety))
	safetyService.AttachLogger(log)
	safetyService.AttachTelemetry(analyticsService)
	if pool != nil {
		journal := pgrepo.NewSafetyJournalRepo(pool)
		if cfg.Safety.RestoreOnStart {
			if err := safetyService.Restore(ctx, journal); err != nil {
				log.Warn("restore safety ledger failed, starting empty", zap.Error(err))
			}
		}
		safetyService.AttachJournal(journal)
	}

	compatibilityService := compatsvc.NewService(compatsvc.Config{
		Scale:        model.ScoreScale(strings.ToLower(strings.TrimSpace(cfg.Compatibility.Scale))),
		MinOverall:   cfg.Compatibility.MinOverall,
		DefaultLimit: cfg.Compatibility.DefaultLimit,
	})

	discoveryService := discoverysvc.NewService(safetyService, compatibilityService, discoverysvc.Config{
		DefaultLimit: cfg.Discovery.DefaultLimit,
		MaxLimit:     cfg.Discovery.MaxLimit,
	})
	discoveryService.AttachLogger(log)
	if dashboard != nil {
		discoveryService.AttachGateObserver(dashboard)
	}

	var signer evidencesvc.Signer
	if s3Client != nil {
		storage := evidencesvc.NewS3Storage(s3Client, cfg.S3.Bucket)
		if err := storage.EnsureBucket(ctx); err != nil {
			log.Warn("evidence bucket check failed", zap.String("bucket", cfg.S3.Bucket), zap.Error(err))
		}
		signer = storage
	}
	evidenceService := evidencesvc.NewService(signer, cfg.Reports.EvidenceURLTTL, log)

	RegisterRoutes(r, Dependencies{
		SafetyService:        safetyService,
		CompatibilityService: compatibilityService,
		DiscoveryService:     discoveryService,
		EvidenceService:      evidenceService,
		AnalyticsService:     analyticsService,
		ReportLimiter:        limiter,
		SafetyDashboard:      dashboard,
		Logger:               log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func safetyConfig(cfg config.SafetyConfig) safetysvc.Config {
	return safetysvc.Config{
		AutoSuspendThreshold: cfg.AutoSuspendThreshold,
		LowTrustThreshold:    cfg.LowTrustThreshold,
		NewAccountAge:        cfg.NewAccountAge,
		DefaultMinScore:      cfg.DefaultMinScore,
		Penalties: safetysvc.Penalties{
			MultipleReports:  cfg.Penalties.MultipleReports,
			UnverifiedPhotos: cfg.Penalties.UnverifiedPhotos,
			InconsistentInfo: cfg.Penalties.InconsistentInfo,
			LowTrust:         cfg.Penalties.LowTrust,
			NewAccount:       cfg.Penalties.NewAccount,
		},
	}
}

// warnSafetyPolicy flags a config that turns off auto-suspension. Users with
// three or more reports then stay visible without safe mode.
func warnSafetyPolicy(cfg config.SafetyConfig, log *zap.Logger) {
	if cfg.AutoSuspendThreshold < 0 {
		log.Warn("auto-suspension disabled, reported users stay visible without safe mode",
			zap.Int("auto_suspend_threshold", cfg.AutoSuspendThreshold),
		)
	}
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
