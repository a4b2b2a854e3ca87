package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"feedesk/internal/infra"
	"feedesk/internal/model"
	"feedesk/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	QueueNotifications = "jobs:notifications"

	JobReceiptEmail = "receipt_email"
)

// A freshly created notification becomes due for the retry cron after this
// delay, so it is still delivered if its queued job is lost.
const firstRetryDelay = 2 * time.Minute

// popTimeout bounds each blocking pop so workers notice shutdown.
const popTimeout = 5 * time.Second

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NotificationJobPayload points at the notification row; the message itself
// is rendered once at dispatch time and stored with it.
type NotificationJobPayload struct {
	NotificationID string `json:"notification_id"`
}

// ── Dispatcher ────────────────────────────────────────────────────────────────

// Dispatcher turns recorded receipts into parent notifications and enqueues
// them for the worker pool. It is the session service's ReceiptNotifier.
type Dispatcher struct {
	queue         infra.Queue
	notifications repository.NotificationRepository
	institution   string
	now           func() time.Time
}

func NewDispatcher(queue infra.Queue, notifications repository.NotificationRepository, institution string) *Dispatcher {
	return &Dispatcher{queue: queue, notifications: notifications, institution: institution, now: time.Now}
}

// StageReceipt creates the pending email notification for r inside the
// recording transaction tx. Students without a parent email are skipped and
// get a nil notification, as does a receipt that already has one.
func (d *Dispatcher) StageReceipt(ctx context.Context, tx *gorm.DB, r model.Receipt, st model.Student) (*model.ReceiptNotification, error) {
	to := strings.TrimSpace(st.ParentEmail)
	if to == "" {
		return nil, nil
	}
	subject, body := renderReceiptEmail(d.institution, r)
	retryAt := d.now().Add(firstRetryDelay)
	n := &model.ReceiptNotification{
		ReceiptID:   r.ID,
		Channel:     "email",
		Recipient:   to,
		Subject:     subject,
		Body:        body,
		Status:      model.NotificationPending,
		NextRetryAt: &retryAt,
	}
	if err := d.notifications.Create(ctx, tx, n); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil
		}
		return nil, fmt.Errorf("dispatcher: create notification: %w", err)
	}
	return n, nil
}

// ReceiptRecorded enqueues delivery of a committed notification. If the push
// fails the retry cron still picks the row up once it is due.
func (d *Dispatcher) ReceiptRecorded(ctx context.Context, n model.ReceiptNotification) error {
	return d.enqueue(ctx, QueueNotifications, JobReceiptEmail, NotificationJobPayload{NotificationID: n.ID.String()})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	if err := d.queue.Push(ctx, queue, encoded); err != nil {
		return fmt.Errorf("dispatcher: enqueue %s: %w", jobType, err)
	}
	return nil
}

func renderReceiptEmail(institution string, r model.Receipt) (subject, body string) {
	subject = fmt.Sprintf("Fee receipt %s for %s", r.ReceiptNo, r.StudentName)

	var b strings.Builder
	fmt.Fprintf(&b, "Dear Parent,\n\n")
	fmt.Fprintf(&b, "We have received a fee payment for %s (%s).\n\n", r.StudentName, r.RollNumber)
	fmt.Fprintf(&b, "Receipt No : %s\n", r.ReceiptNo)
	fmt.Fprintf(&b, "Amount     : ₹%s\n", r.Amount.StringFixed(2))
	fmt.Fprintf(&b, "Mode       : %s\n", r.Mode)
	fmt.Fprintf(&b, "Date       : %s\n", r.SessionDate)
	if r.Remarks != "" {
		fmt.Fprintf(&b, "Remarks    : %s\n", r.Remarks)
	}
	fmt.Fprintf(&b, "\nThank you,\n%s Accounts Office\n", institution)
	return subject, b.String()
}

// ── Pool ──────────────────────────────────────────────────────────────────────

// Handler processes one job payload. A returned error is logged; retry
// scheduling is the handler's own concern.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Pool runs a fixed number of goroutines that pop jobs and route them to the
// handler registered for the job type.
type Pool struct {
	queue    infra.Queue
	size     int
	queues   []string
	handlers map[string]Handler
	wg       sync.WaitGroup
}

func NewPool(queue infra.Queue, size int) *Pool {
	return &Pool{
		queue:    queue,
		size:     max(size, 1),
		queues:   []string{QueueNotifications},
		handlers: make(map[string]Handler),
	}
}

// Handle registers h for jobType. Call before Start.
func (p *Pool) Handle(jobType string, h Handler) { p.handlers[jobType] = h }

// Start launches the workers. They stop when ctx is cancelled; Wait blocks
// until they have.
func (p *Pool) Start(ctx context.Context) {
	for i := range p.size {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", p.size)
}

func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		if ctx.Err() != nil {
			log.Info().Msgf("worker %d shutting down", id)
			return
		}
		queue, raw, err := p.queue.Pop(ctx, popTimeout, p.queues...)
		switch {
		case err == nil:
			p.process(ctx, queue, raw)
		case errors.Is(err, infra.ErrQueueEmpty), ctx.Err() != nil:
		default:
			log.Error().Err(err).Int("worker", id).Msg("worker: queue pop failed")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

func (p *Pool) process(ctx context.Context, queue string, raw []byte) {
	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, p.queue, queue, "unknown", raw, "malformed job envelope", 0)
		return
	}
	h, ok := p.handlers[job.Type]
	if !ok {
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("no handler for job type")
		SendToDLQ(ctx, p.queue, queue, job.Type, job.Payload, "no handler registered", 0)
		return
	}
	if err := h(ctx, job.Payload); err != nil {
		log.Error().Err(err).Str("type", job.Type).Str("queue", queue).Msg("job failed")
	}
}
