package infra

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore remembers logged-out token ids until the token would have
// expired anyway. It also blocks every token of a deactivated user.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// RevokeUser rejects all tokens of userID until RestoreUser or until.
	RevokeUser(ctx context.Context, userID string, until time.Time) error
	RestoreUser(ctx context.Context, userID string) error
}

const revokedPrefix = "auth:revoked:"

// UserKey is the revocation key that RevokeUser sets for userID; IsRevoked
// reports it like a token id.
func UserKey(userID string) string { return "user:" + userID }

type RedisRevocationStore struct{ rdb *redis.Client }

func NewRedisRevocationStore(rdb *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{rdb: rdb}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, revokedPrefix+tokenID, 1, ttl).Err()
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := s.rdb.Get(ctx, revokedPrefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisRevocationStore) RevokeUser(ctx context.Context, userID string, until time.Time) error {
	return s.Revoke(ctx, UserKey(userID), until)
}

func (s *RedisRevocationStore) RestoreUser(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, revokedPrefix+UserKey(userID)).Err()
}

type MemoryRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{revoked: make(map[string]time.Time)}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, tokenID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, id)
		}
	}
	if until.After(now) {
		s.revoked[tokenID] = until
	}
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.revoked[tokenID]
	return ok && time.Now().Before(exp), nil
}

func (s *MemoryRevocationStore) RevokeUser(ctx context.Context, userID string, until time.Time) error {
	return s.Revoke(ctx, UserKey(userID), until)
}

func (s *MemoryRevocationStore) RestoreUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.revoked, UserKey(userID))
	return nil
}
