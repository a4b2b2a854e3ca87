package infra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_FIFOAcrossQueues(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()
	require.NoError(t, q.Push(ctx, "jobs:b", []byte("b1")))
	require.NoError(t, q.Push(ctx, "jobs:a", []byte("a1")))
	require.NoError(t, q.Push(ctx, "jobs:a", []byte("a2")))

	name, job, err := q.Pop(ctx, time.Second, "jobs:a", "jobs:b")
	require.NoError(t, err)
	assert.Equal(t, "jobs:a", name)
	assert.Equal(t, "a1", string(job))

	n, _ := q.Len(ctx, "jobs:a")
	assert.Equal(t, int64(1), n)
}

func TestMemoryQueue_PopWakesOnPush(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = q.Push(ctx, "jobs:email", []byte("hello"))
	}()

	_, job, err := q.Pop(ctx, 2*time.Second, "jobs:email")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(job))
}

func TestMemoryQueue_PopTimesOut(t *testing.T) {
	_, _, err := NewMemoryQueue().Pop(context.Background(), 10*time.Millisecond, "jobs:email")
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestMemoryRevocationStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRevocationStore()
	require.NoError(t, s.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	require.NoError(t, s.Revoke(ctx, "jti-expired", time.Now().Add(-time.Second)))

	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, _ = s.IsRevoked(ctx, "jti-expired")
	assert.False(t, revoked)
	revoked, _ = s.IsRevoked(ctx, "jti-unknown")
	assert.False(t, revoked)
}

func TestMemoryRevocationStore_UserMark(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRevocationStore()
	require.NoError(t, s.RevokeUser(ctx, "u-1", time.Now().Add(time.Hour)))

	revoked, err := s.IsRevoked(ctx, UserKey("u-1"))
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, _ = s.IsRevoked(ctx, UserKey("u-2"))
	assert.False(t, revoked)

	require.NoError(t, s.RestoreUser(ctx, "u-1"))
	revoked, _ = s.IsRevoked(ctx, UserKey("u-1"))
	assert.False(t, revoked)
}
