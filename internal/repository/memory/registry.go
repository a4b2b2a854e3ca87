package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"feedesk/internal/model"
	"feedesk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Users ─────────────────────────────────────────────────────────────────────

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return repository.ErrDuplicate
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.ID] = *u
	return nil
}

func (r *userRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	name := strings.TrimSpace(username)
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if !u.Active {
			continue
		}
		if u.Username == name || (u.Email != nil && strings.EqualFold(*u.Email, name)) {
			found := u
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) List(_ context.Context, includeInactive bool) ([]model.User, error) {
	r.s.mu.RLock()
	out := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if u.Active || includeInactive {
			out = append(out, u)
		}
	}
	r.s.mu.RUnlock()
	slices.SortFunc(out, func(a, b model.User) int { return strings.Compare(a.Username, b.Username) })
	return out, nil
}

func (r *userRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Active = active
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	return nil
}

func (r *userRepo) SetPassword(_ context.Context, id uuid.UUID, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	return nil
}

// ── Students ──────────────────────────────────────────────────────────────────

type studentRepo struct{ s *Store }

func (r *studentRepo) Create(_ context.Context, st *model.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.students {
		if strings.EqualFold(existing.RollNumber, st.RollNumber) {
			return repository.ErrDuplicate
		}
	}
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	now := time.Now()
	st.CreatedAt, st.UpdatedAt = now, now
	r.s.students[st.ID] = *st
	return nil
}

func (r *studentRepo) Update(_ context.Context, st *model.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.students[st.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range r.s.students {
		if id != st.ID && strings.EqualFold(existing.RollNumber, st.RollNumber) {
			return repository.ErrDuplicate
		}
	}
	st.UpdatedAt = time.Now()
	r.s.students[st.ID] = *st
	return nil
}

func (r *studentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st, ok := r.s.students[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

func (r *studentRepo) FindByRollNumber(_ context.Context, roll string) (*model.Student, error) {
	roll = strings.TrimSpace(roll)
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, st := range r.s.students {
		if strings.EqualFold(st.RollNumber, roll) {
			found := st
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *studentRepo) Search(_ context.Context, term string, limit int) ([]model.Student, error) {
	_, size := repository.Paginate(1, limit)
	out := r.filter(func(st model.Student) bool { return st.Active && matchesStudent(st, term) })
	slices.SortFunc(out, func(a, b model.Student) int { return strings.Compare(a.Name, b.Name) })
	if len(out) > size {
		out = out[:size]
	}
	return out, nil
}

func (r *studentRepo) List(_ context.Context, f repository.StudentFilter) ([]model.Student, int64, error) {
	out := r.filter(func(st model.Student) bool {
		if f.Course != "" && st.Course != f.Course {
			return false
		}
		return f.Query == "" || matchesStudent(st, f.Query)
	})
	slices.SortFunc(out, func(a, b model.Student) int { return strings.Compare(a.RollNumber, b.RollNumber) })
	return window(out, f.Page, f.Limit), int64(len(out)), nil
}

func (r *studentRepo) Summary(_ context.Context) (int64, decimal.Decimal, error) {
	var count int64
	total := decimal.Zero
	for _, st := range r.filter(func(st model.Student) bool { return st.Active }) {
		count++
		total = total.Add(st.TotalFee)
	}
	return count, total, nil
}

func (r *studentRepo) SetTotalFee(_ context.Context, courseRefs []string, year string, fee decimal.Decimal) (int64, error) {
	year = strings.TrimSpace(year)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, st := range r.s.students {
		if !st.Active || st.Year != year {
			continue
		}
		if !slices.ContainsFunc(courseRefs, func(ref string) bool {
			return strings.EqualFold(strings.TrimSpace(ref), strings.TrimSpace(st.Course))
		}) {
			continue
		}
		st.TotalFee = fee
		st.UpdatedAt = time.Now()
		r.s.students[id] = st
		n++
	}
	return n, nil
}

func (r *studentRepo) filter(keep func(model.Student) bool) []model.Student {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Student, 0, len(r.s.students))
	for _, st := range r.s.students {
		if keep(st) {
			out = append(out, st)
		}
	}
	return out
}

func matchesStudent(st model.Student, term string) bool {
	t := strings.ToLower(strings.TrimSpace(term))
	return strings.Contains(strings.ToLower(st.Name), t) ||
		strings.Contains(strings.ToLower(st.RollNumber), t)
}

// ── Audit ─────────────────────────────────────────────────────────────────────

type auditRepo struct{ s *Store }

func (r *auditRepo) Append(_ context.Context, e *model.AuditLog) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.s.mu.Lock()
	r.s.audit = append(r.s.audit, *e)
	r.s.mu.Unlock()
	return nil
}

func (r *auditRepo) List(_ context.Context, f repository.AuditFilter) ([]model.AuditLog, int64, error) {
	r.s.mu.RLock()
	out := make([]model.AuditLog, 0, len(r.s.audit))
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		e := r.s.audit[i]
		switch {
		case f.Action != "" && e.Action != f.Action:
		case f.Username != "" && e.Username != f.Username:
		case f.From != nil && e.Timestamp.Before(*f.From):
		case f.To != nil && !e.Timestamp.Before(*f.To):
		default:
			out = append(out, e)
		}
	}
	r.s.mu.RUnlock()
	return window(out, f.Page, f.Limit), int64(len(out)), nil
}

// ── Notifications ─────────────────────────────────────────────────────────────

type notificationRepo struct{ s *Store }

func (r *notificationRepo) Create(_ context.Context, _ *gorm.DB, n *model.ReceiptNotification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.notifications {
		if existing.ReceiptID == n.ReceiptID {
			return repository.ErrDuplicate
		}
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	now := time.Now()
	n.CreatedAt, n.UpdatedAt = now, now
	r.s.notifications[n.ID] = *n
	return nil
}

func (r *notificationRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ReceiptNotification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &n, nil
}

func (r *notificationRepo) Update(_ context.Context, n *model.ReceiptNotification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.notifications[n.ID]; !ok {
		return repository.ErrNotFound
	}
	n.UpdatedAt = time.Now()
	r.s.notifications[n.ID] = *n
	return nil
}

func (r *notificationRepo) ListDue(_ context.Context, now time.Time, limit int) ([]model.ReceiptNotification, error) {
	r.s.mu.RLock()
	out := make([]model.ReceiptNotification, 0)
	for _, n := range r.s.notifications {
		if n.Status == model.NotificationPending && n.NextRetryAt != nil && !n.NextRetryAt.After(now) {
			out = append(out, n)
		}
	}
	r.s.mu.RUnlock()
	slices.SortFunc(out, func(a, b model.ReceiptNotification) int { return a.NextRetryAt.Compare(*b.NextRetryAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
