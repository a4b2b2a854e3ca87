package memory

import (
	"context"
	"slices"
	"strings"

	"feedesk/internal/model"
	"feedesk/internal/repository"

	"gorm.io/gorm"
)

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(_ context.Context, _ *gorm.DB, sess *model.DailySession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sessions[sess.Date]; ok {
		return repository.ErrDuplicate
	}
	r.s.sessions[sess.Date] = sess.Clone()
	return nil
}

func (r *sessionRepo) FindByDate(_ context.Context, _ *gorm.DB, date string) (*model.DailySession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sess, ok := r.s.sessions[date]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := sess.Clone()
	return &c, nil
}

func (r *sessionRepo) FindOpen(_ context.Context, _ *gorm.DB) (*model.DailySession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var found *model.DailySession
	for _, sess := range r.s.sessions {
		if !sess.IsOpen {
			continue
		}
		if found == nil || sess.Date < found.Date {
			c := sess.Clone()
			found = &c
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (r *sessionRepo) Save(_ context.Context, _ *gorm.DB, sess *model.DailySession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.sessions[sess.Date]
	if !ok || stored.ID != sess.ID || !stored.IsOpen {
		return repository.ErrStale
	}
	r.s.sessions[sess.Date] = sess.Clone()
	return nil
}

func (r *sessionRepo) List(_ context.Context, page, limit int) ([]model.DailySession, int64, error) {
	r.s.mu.RLock()
	all := make([]model.DailySession, 0, len(r.s.sessions))
	for _, sess := range r.s.sessions {
		all = append(all, sess.Clone())
	}
	r.s.mu.RUnlock()

	slices.SortFunc(all, func(a, b model.DailySession) int { return strings.Compare(b.Date, a.Date) })
	return window(all, page, limit), int64(len(all)), nil
}

// window returns one page of items.
func window[T any](items []T, page, limit int) []T {
	offset, size := repository.Paginate(page, limit)
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+size, len(items))
	return items[offset:end]
}
