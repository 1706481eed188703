package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/oconnorjohnson/project-hub/internal/application/access"
	"github.com/oconnorjohnson/project-hub/internal/application/doclock"
	"github.com/oconnorjohnson/project-hub/internal/config"
	infraauth "github.com/oconnorjohnson/project-hub/internal/infrastructure/auth"
	httprouter "github.com/oconnorjohnson/project-hub/internal/infrastructure/http"
	"github.com/oconnorjohnson/project-hub/internal/infrastructure/http/handlers"
	"github.com/oconnorjohnson/project-hub/internal/infrastructure/http/middleware"
	"github.com/oconnorjohnson/project-hub/internal/infrastructure/persistence/postgres"
	"github.com/oconnorjohnson/project-hub/internal/infrastructure/webhook"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("ping database")
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed; continuing without redis")
			redisClient = nil
		}
	}

	healthHandler := handlers.NewHealthHandler(pool, redisClient)

	userRepo := postgres.NewUserRepository(pool)
	workspaceRepo := postgres.NewWorkspaceRepository(pool)
	membershipRepo := postgres.NewMembershipRepository(pool)
	projectRepo := postgres.NewProjectRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	documentRepo := postgres.NewDocumentRepository(pool)
	lockRepo := postgres.NewDocumentLockRepository(pool)
	referenceRepo := postgres.NewReferenceRepository(pool)

	resolver := access.NewResolver(membershipRepo, projectRepo)
	lockManager := doclock.NewManager(documentRepo, lockRepo, cfg.Lock.TTL)

	verifier := infraauth.NewSessionVerifier([]byte(cfg.Session.JWTSecret), cfg.Session.Issuer, cfg.Session.Audience)
	requireJWT := middleware.NewAuthValidator(verifier).Handler

	var webhooksHandler *handlers.WebhooksHandler
	if cfg.Webhook.Secret != "" {
		whVerifier, err := webhook.NewVerifier(cfg.Webhook.Secret, time.Duration(cfg.Webhook.ToleranceSecs)*time.Second)
		if err != nil {
			log.Fatal().Err(err).Msg("create webhook verifier")
		}
		webhooksHandler = handlers.NewWebhooksHandler(whVerifier, userRepo, log)
	} else {
		log.Warn().Msg("CLERK_WEBHOOK_SECRET unset; webhook endpoint disabled")
	}

	ipLimit, err := middleware.NewIPRateLimiter(cfg.RateLimit.RatePerIP, redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("create IP rate limiter")
	}
	secureMiddleware := middleware.NewSecure(middleware.SecureOptions(cfg.Secure.IsDevelopment))

	router := httprouter.NewRouter(httprouter.RouterConfig{
		HealthHandler:     healthHandler,
		WorkspacesHandler: handlers.NewWorkspacesHandler(workspaceRepo, referenceRepo, resolver, log),
		ProjectsHandler:   handlers.NewProjectsHandler(projectRepo, referenceRepo, resolver, log),
		TasksHandler:      handlers.NewTasksHandler(taskRepo, resolver, log),
		DocumentsHandler:  handlers.NewDocumentsHandler(documentRepo, lockManager, resolver, log),
		SearchHandler:     handlers.NewSearchHandler(workspaceRepo, projectRepo, log),
		WebhooksHandler:   webhooksHandler,
		RequireJWT:        requireJWT,
		Log:               log,
		Secure:            secureMiddleware,
		IPRateLimit:       ipLimit,
		Metrics:           true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("server stopped")
}
