package http

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pawbook/visibility/internal/config"
	"github.com/pawbook/visibility/internal/database"
	"github.com/pawbook/visibility/internal/handler"
	"github.com/pawbook/visibility/internal/queue"
	redisclient "github.com/pawbook/visibility/internal/redis"
	"github.com/pawbook/visibility/internal/repository"
	"github.com/pawbook/visibility/internal/service"
	"github.com/pawbook/visibility/internal/worker"
)

// Run wires the full application and serves HTTP until SIGINT or SIGTERM.
func Run(cfg *config.Config) error {
	db, err := database.Connect(cfg.DatabaseDSN())
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info().Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("connected to postgres")

	redisClient, err := redisclient.NewClient(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Repositories
	accountRepo := repository.NewAccountRepository(db)
	relRepo := repository.NewRelationshipRepository(db)
	privacyRepo := repository.NewPrivacyRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Queue
	publisher := queue.NewPublisher(redisClient)
	consumer := queue.NewConsumer(redisClient)

	// Services
	relationshipService := service.NewRelationshipService(accountRepo, relRepo, publisher)
	visibilityService := service.NewVisibilityService(accountRepo, relRepo, privacyRepo)
	privacyService := service.NewPrivacyService(accountRepo, privacyRepo)
	activityService := service.NewActivityService(accountRepo, privacyRepo, activityRepo)

	// Audit worker pool
	manager := worker.NewManager(consumer, worker.NewHandler(auditRepo), worker.ManagerConfig{
		WorkerCount:  cfg.WorkerCount,
		BatchSize:    cfg.WorkerBatchSize,
		BlockTimeout: cfg.WorkerBlockTimeout,
	})
	if err := manager.Start(context.Background()); err != nil {
		return err
	}

	router := NewRouter(RouterConfig{
		JWTSecret:           cfg.JWTSecret,
		AllowedOrigins:      cfg.AllowedOrigins,
		RelationshipHandler: handler.NewRelationshipHandler(relationshipService),
		PrivacyHandler:      handler.NewPrivacyHandler(privacyService),
		VisibilityHandler:   handler.NewVisibilityHandler(visibilityService),
		ActivityHandler:     handler.NewActivityHandler(activityService, visibilityService),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		manager.Stop()
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}

	manager.Stop()
	return nil
}
