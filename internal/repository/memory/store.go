// Package memory is the in-process store used when no database is configured.
// It implements every repository interface over mutex-guarded maps and slices.
package memory

import (
	"context"
	"maps"
	"sync"

	"feedesk/internal/model"
	"feedesk/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Store struct {
	mu sync.RWMutex
	// txMu serializes transactions so a failed one can be rolled back
	// by restoring the pre-transaction state.
	txMu sync.Mutex

	sessions      map[string]model.DailySession // by date
	receipts      []model.Receipt               // insertion order
	receiptsByNo  map[string]int
	counters      map[int]int64
	users         map[uuid.UUID]model.User
	students      map[uuid.UUID]model.Student
	courses       map[uuid.UUID]model.Course
	sections      map[uuid.UUID]model.Section
	feeHeads      map[uuid.UUID]model.FeeHead
	audit         []model.AuditLog
	notifications map[uuid.UUID]model.ReceiptNotification
}

func New() *Store {
	return &Store{
		sessions:      make(map[string]model.DailySession),
		receiptsByNo:  make(map[string]int),
		counters:      make(map[int]int64),
		users:         make(map[uuid.UUID]model.User),
		students:      make(map[uuid.UUID]model.Student),
		courses:       make(map[uuid.UUID]model.Course),
		sections:      make(map[uuid.UUID]model.Section),
		feeHeads:      make(map[uuid.UUID]model.FeeHead),
		notifications: make(map[uuid.UUID]model.ReceiptNotification),
	}
}

func (s *Store) Sessions() repository.SessionRepository { return &sessionRepo{s} }

func (s *Store) Ledger() repository.ReceiptLedger { return &ledger{s} }

func (s *Store) Users() repository.UserRepository { return &userRepo{s} }

func (s *Store) Students() repository.StudentRepository { return &studentRepo{s} }

func (s *Store) Academic() repository.AcademicRepository { return &academicRepo{s} }

func (s *Store) Audit() repository.AuditRepository { return &auditRepo{s} }

func (s *Store) Notifications() repository.NotificationRepository { return &notificationRepo{s} }

// Stores exposes the whole store as a repository bundle.
func (s *Store) Stores() repository.Stores {
	return repository.Stores{
		Tx:            s,
		Sessions:      s.Sessions(),
		Ledger:        s.Ledger(),
		Users:         s.Users(),
		Students:      s.Students(),
		Academic:      s.Academic(),
		Audit:         s.Audit(),
		Notifications: s.Notifications(),
	}
}

// Tx runs fn with a nil gorm handle. If fn fails, sessions, receipts and
// receipt counters are restored to their state before the call, and
// notifications created by fn are dropped.
func (s *Store) Tx(_ context.Context, fn func(tx *gorm.DB) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	sessions := maps.Clone(s.sessions)
	counters := maps.Clone(s.counters)
	nReceipts := len(s.receipts)
	notified := make(map[uuid.UUID]bool, len(s.notifications))
	for id := range s.notifications {
		notified[id] = true
	}
	s.mu.RUnlock()

	err := fn(nil)
	if err == nil {
		return nil
	}

	s.mu.Lock()
	for _, r := range s.receipts[nReceipts:] {
		delete(s.receiptsByNo, r.ReceiptNo)
	}
	s.receipts = s.receipts[:nReceipts]
	s.sessions = sessions
	s.counters = counters
	for id := range s.notifications {
		if !notified[id] {
			delete(s.notifications, id)
		}
	}
	s.mu.Unlock()
	return err
}
