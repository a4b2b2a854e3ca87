package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"feedesk/internal/infra"
	"feedesk/internal/model"
	"feedesk/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// sendAttempts is how many times one delivery round calls the mailer.
const sendAttempts = 3

// NotificationWorker delivers receipt emails. Each delivery round retries the
// mailer a few times through the circuit breaker; a failed round schedules the
// next one for the retry cron, and after maxRetries rounds the notification is
// marked failed and dead-lettered.
type NotificationWorker struct {
	repo       repository.NotificationRepository
	mailer     infra.Mailer
	cb         *infra.CircuitBreaker
	queue      infra.Queue
	maxRetries int
	retryBase  time.Duration
	now        func() time.Time
}

func NewNotificationWorker(
	repo repository.NotificationRepository,
	mailer infra.Mailer,
	cb *infra.CircuitBreaker,
	queue infra.Queue,
	maxRetries int,
) *NotificationWorker {
	return &NotificationWorker{
		repo:       repo,
		mailer:     mailer,
		cb:         cb,
		queue:      queue,
		maxRetries: max(maxRetries, 1),
		retryBase:  time.Second,
		now:        time.Now,
	}
}

// Process handles one receipt_email job.
func (w *NotificationWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload NotificationJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("notification_worker: invalid payload: %w", err)
	}
	id, err := uuid.Parse(payload.NotificationID)
	if err != nil {
		return fmt.Errorf("notification_worker: invalid notification_id %q", payload.NotificationID)
	}
	n, err := w.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn().Str("notification_id", payload.NotificationID).Msg("notification_worker: notification vanished, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("notification_worker: load: %w", err)
	}
	// The cron may have delivered it already.
	if n.Status != model.NotificationPending {
		return nil
	}
	return w.deliver(ctx, n)
}

func (w *NotificationWorker) deliver(ctx context.Context, n *model.ReceiptNotification) error {
	msg := infra.Message{To: []string{n.Recipient}, Subject: n.Subject, Text: n.Body}
	err := withRetry(ctx, sendAttempts, w.retryBase, func(int) error {
		return w.cb.Execute(func() error { return w.mailer.Send(msg) })
	})
	n.Attempts++

	switch {
	case err == nil:
		n.Status = model.NotificationSent
		n.NextRetryAt = nil
		n.LastError = nil
		log.Info().
			Str("receipt_id", n.ReceiptID.String()).
			Str("to", n.Recipient).
			Int("attempts", n.Attempts).
			Msg("notification_worker: receipt email sent")

	case n.Attempts >= w.maxRetries:
		errMsg := err.Error()
		n.Status = model.NotificationFailed
		n.NextRetryAt = nil
		n.LastError = &errMsg
		log.Error().
			Err(err).
			Str("notification_id", n.ID.String()).
			Str("receipt_id", n.ReceiptID.String()).
			Int("attempts", n.Attempts).
			Msg("notification_worker: max retries exceeded, moving to DLQ")
		payload, _ := json.Marshal(NotificationJobPayload{NotificationID: n.ID.String()})
		SendToDLQ(ctx, w.queue, QueueNotifications, JobReceiptEmail, payload,
			fmt.Sprintf("max retries (%d) exceeded: %s", w.maxRetries, errMsg), n.Attempts)

	default:
		errMsg := err.Error()
		next := w.now().Add(computeRetryBackoff(n.Attempts))
		n.NextRetryAt = &next
		n.LastError = &errMsg
		log.Warn().
			Err(err).
			Str("notification_id", n.ID.String()).
			Int("attempts", n.Attempts).
			Time("next_retry_at", next).
			Msg("notification_worker: delivery failed, scheduled next attempt")
	}

	if uerr := w.repo.Update(ctx, n); uerr != nil {
		return fmt.Errorf("notification_worker: save state: %w", uerr)
	}
	return nil
}

// computeRetryBackoff doubles from 30s per round, capped at 30 minutes.
func computeRetryBackoff(attempts int) time.Duration {
	const maxBackoff = 30 * time.Minute
	if attempts > 6 {
		return maxBackoff
	}
	return min(30*time.Second<<max(attempts-1, 0), maxBackoff)
}

// withRetry calls fn up to maxAttempts times with exponential backoff
// starting at base. It gives up early when the circuit breaker is open.
func withRetry(ctx context.Context, maxAttempts int, base time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for i := range maxAttempts {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(base << (i - 1)):
			}
		}
		err := fn(i)
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, infra.ErrCircuitOpen) {
			break
		}
	}
	return lastErr
}
