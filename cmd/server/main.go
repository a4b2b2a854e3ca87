package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedesk/internal/config"
	"feedesk/internal/infra"
	"feedesk/internal/repository"
	"feedesk/internal/repository/memory"
	"feedesk/internal/router"
	"feedesk/internal/seed"
	"feedesk/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger. dev: pretty, prod: JSON
	if cfg.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		db     *gorm.DB
		stores repository.Stores
	)
	switch cfg.StoreDriver {
	case infra.DriverMemory:
		stores = memory.New().Stores()
		log.Warn().Msg("using the in-memory store; data is lost on restart")
	default:
		db, err = infra.NewDatabase(cfg.StoreDriver, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to connect to database")
		}
		stores = repository.NewGormStores(db)
	}

	var (
		queue       infra.Queue
		revocations infra.RevocationStore
	)
	if cfg.RedisURL != "" {
		rdb, err := infra.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		queue = infra.NewRedisQueue(rdb)
		revocations = infra.NewRedisRevocationStore(rdb)
	} else {
		queue = infra.NewMemoryQueue()
		revocations = infra.NewMemoryRevocationStore()
		log.Warn().Msg("REDIS_URL not set; jobs and token revocations are kept in process")
	}

	if cfg.SeedDemo {
		if err := seed.Demo(ctx, stores); err != nil {
			log.Fatal().Err(err).Msg("failed to seed demo data")
		}
	}

	// Worker pool for parent notifications. Handlers are wired here
	// (composition root) so the pool sees every infrastructure dependency.
	smtpCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("smtp"))
	notifier := worker.NewNotificationWorker(stores.Notifications, infra.NewMailer(cfg), smtpCB, queue, cfg.NotifyMaxRetries)

	pool := worker.NewPool(queue, cfg.WorkerPoolSize)
	pool.Handle(worker.JobReceiptEmail, notifier.Process)
	pool.Start(ctx)
	worker.StartRetryCron(ctx, worker.RetryCronConfig{
		Notifications: stores.Notifications,
		Worker:        notifier,
		CB:            smtpCB,
	})

	r := router.New(cfg, router.Deps{
		DB:          db,
		Stores:      stores,
		Queue:       queue,
		Revocations: revocations,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().
			Str("institution", cfg.InstitutionName).
			Str("store", cfg.StoreDriver).
			Msgf("feedesk listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	// stop workers after in-flight requests have enqueued their jobs
	cancel()
	pool.Wait()
	log.Info().Msg("server exited")
}
