package infra

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrQueueEmpty is returned by Pop when nothing arrived before the timeout.
var ErrQueueEmpty = errors.New("queue: no job available")

// Queue is a set of named FIFO lists shared by producers and the worker pool.
type Queue interface {
	Push(ctx context.Context, queue string, payload []byte) error
	// Pop blocks up to timeout and returns the first job found, checking queues in order.
	Pop(ctx context.Context, timeout time.Duration, queues ...string) (string, []byte, error)
	Len(ctx context.Context, queue string) (int64, error)
	Ping(ctx context.Context) error
}

// ── Redis ─────────────────────────────────────────────────────────────────────

// RedisQueue uses LPUSH / BRPOP so workers block in Redis with zero CPU while idle.
type RedisQueue struct{ rdb *redis.Client }

func NewRedisQueue(rdb *redis.Client) *RedisQueue { return &RedisQueue{rdb: rdb} }

func (q *RedisQueue) Push(ctx context.Context, queue string, payload []byte) error {
	return q.rdb.LPush(ctx, queue, payload).Err()
}

func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration, queues ...string) (string, []byte, error) {
	result, err := q.rdb.BRPop(ctx, timeout, queues...).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil, ErrQueueEmpty
	}
	if err != nil {
		return "", nil, err
	}
	if len(result) < 2 {
		return "", nil, ErrQueueEmpty
	}
	return result[0], []byte(result[1]), nil
}

func (q *RedisQueue) Len(ctx context.Context, queue string) (int64, error) {
	return q.rdb.LLen(ctx, queue).Result()
}

func (q *RedisQueue) Ping(ctx context.Context) error { return q.rdb.Ping(ctx).Err() }

// ── In-process ────────────────────────────────────────────────────────────────

// MemoryQueue is the single-process fallback when REDIS_URL is empty.
// Jobs do not survive a restart.
type MemoryQueue struct {
	mu     sync.Mutex
	lists  map[string][][]byte
	notify chan struct{} // closed and replaced on every push
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{lists: make(map[string][][]byte), notify: make(chan struct{})}
}

func (q *MemoryQueue) Push(_ context.Context, queue string, payload []byte) error {
	q.mu.Lock()
	q.lists[queue] = append(q.lists[queue], append([]byte(nil), payload...))
	close(q.notify)
	q.notify = make(chan struct{})
	q.mu.Unlock()
	return nil
}

func (q *MemoryQueue) Pop(ctx context.Context, timeout time.Duration, queues ...string) (string, []byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		q.mu.Lock()
		for _, name := range queues {
			if list := q.lists[name]; len(list) > 0 {
				job := list[0]
				q.lists[name] = list[1:]
				q.mu.Unlock()
				return name, job, nil
			}
		}
		wait := q.notify
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", nil, ctx.Err()
		case <-timer.C:
			return "", nil, ErrQueueEmpty
		case <-wait:
		}
	}
}

func (q *MemoryQueue) Len(_ context.Context, queue string) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.lists[queue])), nil
}

func (q *MemoryQueue) Ping(context.Context) error { return nil }
