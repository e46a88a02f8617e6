package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fuega-ai/backend/internal/config"
	"github.com/fuega-ai/backend/internal/jobs/cleanup"
	pgrepo "github.com/fuega-ai/backend/internal/repo/postgres"
	redrepo "github.com/fuega-ai/backend/internal/repo/redis"
	modsvc "github.com/fuega-ai/backend/internal/services/moderation"
	oraclesvc "github.com/fuega-ai/backend/internal/services/oracle"
	ratesvc "github.com/fuega-ai/backend/internal/services/rate"
)

type App struct {
	cfg           config.Config
	logger        *zap.Logger
	server        *http.Server
	postgres      *pgxpool.Pool
	redis         *goredis.Client
	httpRouter    http.Handler
	retention     *cleanup.Job
	stopRetention chan struct{}
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	rateRepo := redrepo.NewRateRepo(redisClient)
	auditRepo := pgrepo.NewAuditRepo(pool)
	communityRepo := pgrepo.NewCommunityRepo(pool)

	var oracle modsvc.Oracle
	if cfg.AI.APIKey != "" {
		oracle = oraclesvc.NewClient(oraclesvc.Config{
			APIKey:    cfg.AI.APIKey,
			BaseURL:   cfg.AI.BaseURL,
			Model:     cfg.AI.Model,
			MaxTokens: cfg.AI.MaxTokens,
			Timeout:   cfg.AI.RequestTimeout,
		}, log)
	} else {
		log.Warn("ai api key not configured, moderation falls back to basic safety filter")
	}

	moderationService := modsvc.NewService(oracle, auditRepo, modsvc.Config{
		PipelineTimeout: cfg.Moderation.PipelineTimeout,
	}, log)

	rateLimiter := ratesvc.NewLimiter(
		rateRepo,
		cfg.Moderation.RatePerMinute,
		cfg.Moderation.RatePerHour,
	)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		ModerationService: moderationService,
		CommunityStore:    communityRepo,
		AuditReader:       auditRepo,
		RateLimiter:       rateLimiter,
		Logger:            log,
		Config:            cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
		retention:  cleanup.New(auditRepo, cfg.Moderation.LogRetention, log),
	}, nil
}

func (a *App) Run() error {
	a.startRetentionLoop()
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) startRetentionLoop() {
	if a.retention == nil {
		return
	}

	a.stopRetention = make(chan struct{})
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-a.stopRetention:
				return
			case <-ticker.C:
				if err := a.retention.Run(context.Background()); err != nil {
					a.logger.Warn("moderation log retention failed", zap.Error(err))
				}
			}
		}
	}()
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if a.stopRetention != nil {
		close(a.stopRetention)
	}
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
