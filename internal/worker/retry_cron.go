package worker

// retry_cron.go
// Periodically re-attempts receipt notifications that are still pending with a
// next_retry_at in the past. Skips ticks while the mailer's breaker is open.

import (
	"context"
	"time"

	"feedesk/internal/infra"
	"feedesk/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	Notifications repository.NotificationRepository
	Worker        *NotificationWorker
	CB            *infra.CircuitBreaker
	Interval      time.Duration // zero means retryTickInterval
}

// StartRetryCron launches the background ticker. It stops with ctx.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = retryTickInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

// processRetries returns how many notifications it attempted.
func processRetries(ctx context.Context, cfg RetryCronConfig) int {
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return 0
	}

	due, err := cfg.Notifications.ListDue(ctx, cfg.Worker.now(), retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query due notifications")
		return 0
	}
	if len(due) == 0 {
		return 0
	}

	log.Info().Int("count", len(due)).Msg("retry_cron: processing due notifications")

	attempted := 0
	for i := range due {
		// it may have tripped mid-batch
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("retry_cron: circuit breaker opened mid-batch, stopping")
			break
		}
		if err := cfg.Worker.deliver(ctx, &due[i]); err != nil {
			log.Error().Err(err).Str("notification_id", due[i].ID.String()).Msg("retry_cron: delivery bookkeeping failed")
		}
		attempted++
	}
	return attempted
}
