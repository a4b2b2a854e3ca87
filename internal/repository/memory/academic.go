package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"feedesk/internal/model"
	"feedesk/internal/repository"

	"github.com/google/uuid"
)

type academicRepo struct{ s *Store }

// ── Courses ───────────────────────────────────────────────────────────────────

func (r *academicRepo) CreateCourse(_ context.Context, c *model.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.courses {
		if strings.EqualFold(existing.Code, c.Code) {
			return repository.ErrDuplicate
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.courses[c.ID] = *c
	return nil
}

func (r *academicRepo) UpdateCourse(_ context.Context, c *model.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.courses[c.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range r.s.courses {
		if id != c.ID && strings.EqualFold(existing.Code, c.Code) {
			return repository.ErrDuplicate
		}
	}
	c.UpdatedAt = time.Now()
	r.s.courses[c.ID] = *c
	return nil
}

func (r *academicRepo) FindCourse(_ context.Context, id uuid.UUID) (*model.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.courses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *academicRepo) FindCourseByRef(_ context.Context, ref string) (*model.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var found *model.Course
	for _, c := range r.s.courses {
		if !c.Matches(ref) {
			continue
		}
		if found == nil || (c.Active && !found.Active) {
			match := c
			found = &match
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (r *academicRepo) ListCourses(_ context.Context, includeInactive bool) ([]model.Course, error) {
	r.s.mu.RLock()
	out := make([]model.Course, 0, len(r.s.courses))
	for _, c := range r.s.courses {
		if c.Active || includeInactive {
			out = append(out, c)
		}
	}
	r.s.mu.RUnlock()
	slices.SortFunc(out, func(a, b model.Course) int { return strings.Compare(a.Code, b.Code) })
	return out, nil
}

// ── Sections ──────────────────────────────────────────────────────────────────

func (r *academicRepo) CreateSection(_ context.Context, s *model.Section) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.sections {
		if existing.CourseID == s.CourseID && existing.Year == s.Year && existing.Name == s.Name {
			return repository.ErrDuplicate
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	r.s.sections[s.ID] = *s
	return nil
}

func (r *academicRepo) DeleteSection(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sections[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.sections, id)
	return nil
}

func (r *academicRepo) ListSections(_ context.Context, courseID uuid.UUID) ([]model.Section, error) {
	r.s.mu.RLock()
	out := make([]model.Section, 0, len(r.s.sections))
	for _, s := range r.s.sections {
		if courseID == uuid.Nil || s.CourseID == courseID {
			out = append(out, s)
		}
	}
	r.s.mu.RUnlock()
	slices.SortFunc(out, func(a, b model.Section) int {
		return cmp.Or(strings.Compare(a.Year, b.Year), strings.Compare(a.Name, b.Name))
	})
	return out, nil
}

// ── Fee heads ─────────────────────────────────────────────────────────────────

func (r *academicRepo) CreateFeeHead(_ context.Context, h *model.FeeHead) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.headTaken(*h) {
		return repository.ErrDuplicate
	}
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	now := time.Now()
	h.CreatedAt, h.UpdatedAt = now, now
	r.s.feeHeads[h.ID] = *h
	return nil
}

func (r *academicRepo) UpdateFeeHead(_ context.Context, h *model.FeeHead) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.feeHeads[h.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.headTaken(*h) {
		return repository.ErrDuplicate
	}
	h.UpdatedAt = time.Now()
	r.s.feeHeads[h.ID] = *h
	return nil
}

// headTaken reports whether another head of the same course year has h's name.
// Callers hold the write lock.
func (r *academicRepo) headTaken(h model.FeeHead) bool {
	for id, existing := range r.s.feeHeads {
		if id != h.ID && existing.CourseID == h.CourseID && existing.Year == h.Year && existing.Name == h.Name {
			return true
		}
	}
	return false
}

func (r *academicRepo) DeleteFeeHead(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.feeHeads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.feeHeads, id)
	return nil
}

func (r *academicRepo) FindFeeHead(_ context.Context, id uuid.UUID) (*model.FeeHead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	h, ok := r.s.feeHeads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &h, nil
}

func (r *academicRepo) ListFeeHeads(_ context.Context, courseID uuid.UUID, year string) ([]model.FeeHead, error) {
	year = strings.TrimSpace(year)
	r.s.mu.RLock()
	var out []model.FeeHead
	for _, h := range r.s.feeHeads {
		if h.CourseID == courseID && h.Year == year {
			out = append(out, h)
		}
	}
	r.s.mu.RUnlock()
	slices.SortFunc(out, func(a, b model.FeeHead) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.Name, b.Name))
	})
	return out, nil
}
