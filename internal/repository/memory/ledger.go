package memory

import (
	"context"
	"iter"
	"slices"
	"strings"

	"feedesk/internal/model"
	"feedesk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ledger struct{ s *Store }

func (l *ledger) NextSerial(_ context.Context, _ *gorm.DB, year int) (int64, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.counters[year]++
	return l.s.counters[year], nil
}

func (l *ledger) Append(_ context.Context, _ *gorm.DB, r *model.Receipt) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if _, ok := l.s.receiptsByNo[r.ReceiptNo]; ok {
		return repository.ErrDuplicate
	}
	l.s.receiptsByNo[r.ReceiptNo] = len(l.s.receipts)
	l.s.receipts = append(l.s.receipts, *r)
	return nil
}

func (l *ledger) FindByReceiptNo(_ context.Context, no string) (*model.Receipt, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	i, ok := l.s.receiptsByNo[strings.TrimSpace(no)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r := l.s.receipts[i]
	return &r, nil
}

func (l *ledger) FindByStudent(_ context.Context, q repository.StudentQuery) iter.Seq2[model.Receipt, error] {
	match := func(r model.Receipt) bool {
		if q.StudentID != uuid.Nil {
			return r.StudentID == q.StudentID
		}
		return r.RollNumber == strings.TrimSpace(q.RollNumber)
	}
	return func(yield func(model.Receipt, error) bool) {
		// Snapshot the length once; receipts appended mid-iteration belong to the next range.
		l.s.mu.RLock()
		n := len(l.s.receipts)
		l.s.mu.RUnlock()

		for i := 0; i < n; i++ {
			l.s.mu.RLock()
			if i >= len(l.s.receipts) {
				l.s.mu.RUnlock()
				return
			}
			r := l.s.receipts[i]
			l.s.mu.RUnlock()
			if !match(r) {
				continue
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}

func (l *ledger) Search(_ context.Context, term string, limit int) ([]model.Receipt, error) {
	_, size := repository.Paginate(1, limit)
	t := strings.ToLower(strings.TrimSpace(term))

	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	out := make([]model.Receipt, 0)
	for i := len(l.s.receipts) - 1; i >= 0 && len(out) < size; i-- {
		r := l.s.receipts[i]
		if strings.Contains(strings.ToLower(r.StudentName), t) ||
			strings.Contains(strings.ToLower(r.RollNumber), t) ||
			strings.Contains(strings.ToLower(r.ReceiptNo), t) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (l *ledger) SumByMode(_ context.Context, _ *gorm.DB, from, to string) ([]repository.ModeTotal, error) {
	byMode := make(map[model.PaymentMode]*repository.ModeTotal)
	l.s.mu.RLock()
	for _, r := range l.s.receipts {
		if r.SessionDate < from || r.SessionDate > to {
			continue
		}
		t, ok := byMode[r.Mode]
		if !ok {
			t = &repository.ModeTotal{Mode: r.Mode, Amount: decimal.Zero}
			byMode[r.Mode] = t
		}
		t.Count++
		t.Amount = t.Amount.Add(r.Amount)
	}
	l.s.mu.RUnlock()

	rows := make([]repository.ModeTotal, 0, len(byMode))
	for _, t := range byMode {
		rows = append(rows, *t)
	}
	return repository.FillModes(rows), nil
}

func (l *ledger) SumByStudent(_ context.Context, studentID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	for _, r := range l.s.receipts {
		if r.StudentID == studentID {
			sum = sum.Add(r.Amount)
		}
	}
	return sum, nil
}

func (l *ledger) SumByStudents(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal, len(ids))
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	for _, r := range l.s.receipts {
		if want[r.StudentID] {
			out[r.StudentID] = out[r.StudentID].Add(r.Amount)
		}
	}
	return out, nil
}

func (l *ledger) DailyTotals(_ context.Context, from, to string) ([]repository.DayTotal, error) {
	byDate := make(map[string]*repository.DayTotal)
	l.s.mu.RLock()
	for _, r := range l.s.receipts {
		if r.SessionDate < from || r.SessionDate > to {
			continue
		}
		t, ok := byDate[r.SessionDate]
		if !ok {
			t = &repository.DayTotal{Date: r.SessionDate, Amount: decimal.Zero}
			byDate[r.SessionDate] = t
		}
		t.Count++
		t.Amount = t.Amount.Add(r.Amount)
	}
	l.s.mu.RUnlock()

	out := make([]repository.DayTotal, 0, len(byDate))
	for _, t := range byDate {
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b repository.DayTotal) int { return strings.Compare(a.Date, b.Date) })
	return out, nil
}
