package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/amatsuk/civicforum/backend/internal/config"
	pgrepo "github.com/amatsuk/civicforum/backend/internal/repo/postgres"
	redrepo "github.com/amatsuk/civicforum/backend/internal/repo/redis"
	authsvc "github.com/amatsuk/civicforum/backend/internal/services/auth"
	modsvc "github.com/amatsuk/civicforum/backend/internal/services/moderation"
	ratesvc "github.com/amatsuk/civicforum/backend/internal/services/rate"
	restrsvc "github.com/amatsuk/civicforum/backend/internal/services/restrictions"
	topicssvc "github.com/amatsuk/civicforum/backend/internal/services/topics"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler
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
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)
	statsCacheRepo := redrepo.NewStatsCacheRepo(redisClient)
	contentRepo := pgrepo.NewContentRepo(pool)
	flagRepo := pgrepo.NewFlagRepo(pool)
	auditRepo := pgrepo.NewAuditRepo(pool)
	restrictionRepo := pgrepo.NewRestrictionRepo(pool)
	adminUserRepo := pgrepo.NewAdminUserRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, sessionRepo, adminUserRepo, cfg.Auth.SessionIdleTimeout)
	topicsService := topicssvc.NewService(topicssvc.Dependencies{Topics: contentRepo}, topicssvc.Config{
		DefaultPageSize: cfg.Forum.DefaultPageSize,
		MaxPageSize:     cfg.Forum.MaxPageSize,
	})
	restrictionsService := restrsvc.NewService(restrsvc.Dependencies{Restrictions: restrictionRepo})
	moderationService := modsvc.NewService(modsvc.Dependencies{
		Pool:         pool,
		Content:      contentRepo,
		Flags:        flagRepo,
		Audit:        auditRepo,
		Restrictions: restrictionRepo,
		StatsCache:   statsCacheRepo,
	}, modsvc.Config{
		StatsCacheTTL: cfg.Forum.StatsCacheTTL,
	})
	flagLimiter := ratesvc.NewLimiter(rateRepo, cfg.Forum.FlagsPerMinute)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		AuthService:         authService,
		TopicsService:       topicsService,
		ModerationService:   moderationService,
		RestrictionsService: restrictionsService,
		FlagLimiter:         flagLimiter,
		Logger:              log,
		Config:              cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
	}, nil
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
