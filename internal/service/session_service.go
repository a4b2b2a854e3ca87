package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"feedesk/internal/dto"
	"feedesk/internal/model"
	"feedesk/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReceiptNotifier stages a parent notification in the same transaction as
// the receipt and starts its delivery after commit. Delivery is
// asynchronous; a notifier error is logged and never undoes the receipt.
type ReceiptNotifier interface {
	StageReceipt(ctx context.Context, tx *gorm.DB, r model.Receipt, st model.Student) (*model.ReceiptNotification, error)
	ReceiptRecorded(ctx context.Context, n model.ReceiptNotification) error
}

// SessionService is the only mutation path for daily sessions and receipts.
type SessionService interface {
	Open(ctx context.Context, actor Actor, date string) (*dto.SessionResponse, error)
	Record(ctx context.Context, actor Actor, req dto.RecordReceiptRequest) (*dto.RecordReceiptResponse, error)
	Close(ctx context.Context, actor Actor, req dto.CloseSessionRequest) (*dto.SessionResponse, error)
	Current(ctx context.Context) (*dto.SessionResponse, error)
	Get(ctx context.Context, date string) (*dto.SessionResponse, error)
	History(ctx context.Context, page, limit int) (*dto.SessionPage, error)
}

type SessionConfig struct {
	Location      *time.Location
	ReceiptPrefix string
	// Now overrides the clock in tests.
	Now func() time.Time
}

type sessionService struct {
	tx       repository.Transactor
	sessions repository.SessionRepository
	ledger   repository.ReceiptLedger
	students repository.StudentRepository
	audit    AuditService
	notifier ReceiptNotifier

	loc    *time.Location
	prefix string
	now    func() time.Time

	// transitionMu serializes open/close so that at most one date is open.
	transitionMu sync.Mutex
	locksMu      sync.Mutex
	dateLocks    map[string]*sync.Mutex
}

func NewSessionService(
	tx repository.Transactor,
	sessions repository.SessionRepository,
	ledger repository.ReceiptLedger,
	students repository.StudentRepository,
	audit AuditService,
	notifier ReceiptNotifier,
	cfg SessionConfig,
) SessionService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ReceiptPrefix == "" {
		cfg.ReceiptPrefix = "RCP"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &sessionService{
		tx:        tx,
		sessions:  sessions,
		ledger:    ledger,
		students:  students,
		audit:     audit,
		notifier:  notifier,
		loc:       cfg.Location,
		prefix:    cfg.ReceiptPrefix,
		now:       cfg.Now,
		dateLocks: make(map[string]*sync.Mutex),
	}
}

// ── Open ──────────────────────────────────────────────────────────────────────
// A date opens at most once, and only while no other date is open.

func (s *sessionService) Open(ctx context.Context, actor Actor, date string) (*dto.SessionResponse, error) {
	date, err := s.dateOrToday(date)
	if err != nil {
		return nil, err
	}

	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()
	defer s.lockDate(date)()

	var sess model.DailySession
	err = s.tx.Tx(ctx, func(tx *gorm.DB) error {
		existing, err := s.sessions.FindByDate(ctx, tx, date)
		switch {
		case err == nil && existing.IsOpen:
			return fmt.Errorf("%s: %w", date, ErrAlreadyOpen)
		case err == nil:
			return fmt.Errorf("%s: %w", date, ErrAlreadyClosed)
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		other, err := s.sessions.FindOpen(ctx, tx)
		if err == nil {
			return fmt.Errorf("session for %s is still open: %w", other.Date, ErrAlreadyOpen)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		sess = model.NewDailySession(date, actor.UserID, actor.Name, s.now())
		if err := s.sessions.Create(ctx, tx, &sess); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return fmt.Errorf("%s: %w", date, ErrAlreadyOpen)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("date", date).Str("opened_by", actor.Username).Msg("session opened")
	s.audit.Record(ctx, actor, model.ActionSessionOpen, date, "")

	resp := toSessionResponse(sess, false)
	return &resp, nil
}

// ── Record ────────────────────────────────────────────────────────────────────
// Input is validated before any lock or state is touched, so a rejected
// receipt never changes the session totals.

func (s *sessionService) Record(ctx context.Context, actor Actor, req dto.RecordReceiptRequest) (*dto.RecordReceiptResponse, error) {
	mode, ok := model.ParsePaymentMode(req.Mode)
	if !ok {
		return nil, fmt.Errorf("%q: %w", req.Mode, ErrInvalidMode)
	}
	amount := req.Amount.Round(2)
	if !amount.IsPositive() || amount.GreaterThan(model.MaxAmount) {
		return nil, fmt.Errorf("amount %s: %w", amount.StringFixed(2), ErrInvalidAmount)
	}
	student, err := s.findStudent(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}

	date, implicit, err := s.targetDate(ctx, req.Date)
	if err != nil {
		return nil, err
	}

	defer s.lockDate(date)()

	now := s.now()
	var (
		rec    model.Receipt
		sess   model.DailySession
		staged *model.ReceiptNotification
	)
	err = s.tx.Tx(ctx, func(tx *gorm.DB) error {
		cur, err := s.sessions.FindByDate(ctx, tx, date)
		if errors.Is(err, repository.ErrNotFound) {
			if implicit {
				return ErrNoOpenSession
			}
			return fmt.Errorf("session %s: %w", date, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if !cur.IsOpen {
			return fmt.Errorf("%s: %w", date, ErrSessionClosed)
		}
		if cur.TotalAmount.Add(amount).GreaterThan(model.MaxSessionTotal) {
			return fmt.Errorf("session %s total would exceed %s: %w", date, model.MaxSessionTotal, ErrInvalidAmount)
		}

		// receipts belong to the year of the session they were taken in
		day, err := time.Parse(model.DateLayout, cur.Date)
		if err != nil {
			return fmt.Errorf("session date %q: %w", cur.Date, err)
		}
		year := day.Year()
		serial, err := s.ledger.NextSerial(ctx, tx, year)
		if err != nil {
			return fmt.Errorf("allocate receipt number: %w", err)
		}
		rec = model.Receipt{
			ID:          uuid.New(),
			ReceiptNo:   model.ReceiptNumber(s.prefix, year, serial),
			Serial:      serial,
			StudentID:   student.ID,
			StudentName: student.Name,
			RollNumber:  student.RollNumber,
			Amount:      amount,
			Mode:        mode,
			Remarks:     strings.TrimSpace(req.Remarks),
			CashierID:   actor.UserID,
			CashierName: actor.Name,
			SessionID:   cur.ID,
			SessionDate: cur.Date,
			CreatedAt:   now,
		}
		if err := s.ledger.Append(ctx, tx, &rec); err != nil {
			return fmt.Errorf("append receipt: %w", err)
		}

		cur.Apply(mode, amount)
		if err := s.sessions.Save(ctx, tx, cur); err != nil {
			if errors.Is(err, repository.ErrStale) {
				return fmt.Errorf("%s: %w", date, ErrSessionClosed)
			}
			return err
		}
		sess = cur.Clone()

		if s.notifier != nil {
			staged, err = s.notifier.StageReceipt(ctx, tx, rec, *student)
			if err != nil {
				log.Error().Err(err).Str("receipt_no", rec.ReceiptNo).Msg("receipt notification not staged")
				staged = nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("receipt_no", rec.ReceiptNo).
		Str("roll_number", rec.RollNumber).
		Str("amount", rec.Amount.StringFixed(2)).
		Str("mode", string(rec.Mode)).
		Msg("receipt recorded")
	s.audit.Record(ctx, actor, model.ActionReceiptCreate, rec.ReceiptNo,
		fmt.Sprintf("%s %s via %s", rec.RollNumber, rec.Amount.StringFixed(2), rec.Mode))

	if staged != nil {
		if err := s.notifier.ReceiptRecorded(ctx, *staged); err != nil {
			log.Error().Err(err).Str("receipt_no", rec.ReceiptNo).Msg("receipt notification not queued")
		}
	}

	return &dto.RecordReceiptResponse{
		Receipt: toReceiptResponse(rec),
		Session: toSessionResponse(sess, false),
	}, nil
}

// ── Close ─────────────────────────────────────────────────────────────────────
// Terminal for the date. An optional declaration of counted amounts is
// reconciled against the running totals; a critical variance needs remarks.

func (s *sessionService) Close(ctx context.Context, actor Actor, req dto.CloseSessionRequest) (*dto.SessionResponse, error) {
	if req.Declaration != nil {
		if err := checkDeclaration(*req.Declaration); err != nil {
			return nil, err
		}
	}
	date, implicit, err := s.targetDate(ctx, req.Date)
	if err != nil {
		return nil, err
	}

	var remarks *string
	if req.Remarks != nil {
		if r := strings.TrimSpace(*req.Remarks); r != "" {
			remarks = &r
		}
	}

	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()
	defer s.lockDate(date)()

	var (
		sess     model.DailySession
		mismatch bool
	)
	err = s.tx.Tx(ctx, func(tx *gorm.DB) error {
		cur, err := s.sessions.FindByDate(ctx, tx, date)
		if errors.Is(err, repository.ErrNotFound) {
			if implicit {
				return ErrNoOpenSession
			}
			return fmt.Errorf("session %s: %w", date, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if !cur.IsOpen {
			return fmt.Errorf("%s: %w", date, ErrSessionClosed)
		}

		if req.Declaration != nil {
			reconcile(cur, *req.Declaration)
			if *cur.VarianceClass == VarianceCritical && remarks == nil {
				return ErrRemarksRequired
			}
		}

		totals, err := s.ledger.SumByMode(ctx, tx, date, date)
		if err != nil {
			return fmt.Errorf("ledger totals: %w", err)
		}
		mismatch = !matchesLedger(*cur, totals)
		if mismatch {
			log.Error().
				Str("date", date).
				Str("session_total", cur.TotalAmount.StringFixed(2)).
				Int("session_count", cur.TotalTransactions).
				Msg("session totals disagree with receipt ledger")
		}

		now := s.now()
		closedByID := actor.UserID
		closedBy := actor.Name
		cur.IsOpen = false
		cur.ClosedAt = &now
		cur.ClosedBy = &closedBy
		cur.ClosedByID = &closedByID
		cur.ClosingRemarks = remarks

		if err := s.sessions.Save(ctx, tx, cur); err != nil {
			if errors.Is(err, repository.ErrStale) {
				return fmt.Errorf("%s: %w", date, ErrSessionClosed)
			}
			return err
		}
		sess = cur.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("date", date).
		Str("closed_by", actor.Username).
		Str("total", sess.TotalAmount.StringFixed(2)).
		Int("transactions", sess.TotalTransactions).
		Msg("session closed")
	details := fmt.Sprintf("%d receipts, total %s", sess.TotalTransactions, sess.TotalAmount.StringFixed(2))
	if sess.VarianceClass != nil {
		details += fmt.Sprintf(", variance %s (%s)", sess.Variance.StringFixed(2), *sess.VarianceClass)
	}
	s.audit.Record(ctx, actor, model.ActionSessionClose, date, details)

	resp := toSessionResponse(sess, mismatch)
	return &resp, nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *sessionService) Current(ctx context.Context) (*dto.SessionResponse, error) {
	sess, err := s.sessions.FindOpen(ctx, nil)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoOpenSession
	}
	if err != nil {
		return nil, err
	}
	resp := toSessionResponse(*sess, false)
	return &resp, nil
}

func (s *sessionService) Get(ctx context.Context, date string) (*dto.SessionResponse, error) {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return nil, fmt.Errorf("%q: %w", date, ErrInvalidDate)
	}
	sess, err := s.sessions.FindByDate(ctx, nil, date)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("session %s: %w", date, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	resp := toSessionResponse(*sess, false)
	return &resp, nil
}

func (s *sessionService) History(ctx context.Context, page, limit int) (*dto.SessionPage, error) {
	sessions, total, err := s.sessions.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	_, size := repository.Paginate(page, limit)
	out := make([]dto.SessionResponse, len(sessions))
	for i, sess := range sessions {
		out[i] = toSessionResponse(sess, false)
	}
	return &dto.SessionPage{Data: out, Total: total, Page: max(page, 1), Limit: size}, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *sessionService) lockDate(date string) (unlock func()) {
	s.locksMu.Lock()
	mu, ok := s.dateLocks[date]
	if !ok {
		mu = &sync.Mutex{}
		s.dateLocks[date] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func (s *sessionService) dateOrToday(date string) (string, error) {
	if date == "" {
		return s.now().In(s.loc).Format(model.DateLayout), nil
	}
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return "", fmt.Errorf("%q: %w", date, ErrInvalidDate)
	}
	return date, nil
}

// targetDate resolves the session a request without a date is aimed at: the
// open session, or today when nothing is open. implicit reports that no
// date was given.
func (s *sessionService) targetDate(ctx context.Context, date string) (target string, implicit bool, err error) {
	if date != "" {
		target, err = s.dateOrToday(date)
		return target, false, err
	}
	open, err := s.sessions.FindOpen(ctx, nil)
	switch {
	case err == nil:
		return open.Date, true, nil
	case errors.Is(err, repository.ErrNotFound):
		return s.now().In(s.loc).Format(model.DateLayout), true, nil
	default:
		return "", true, err
	}
}

func (s *sessionService) findStudent(ctx context.Context, raw string) (*model.Student, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("student %q: %w", raw, ErrNotFound)
	}
	st, err := s.students.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !st.Active) {
		return nil, fmt.Errorf("student %s: %w", raw, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// maxVariancePct is the largest percentage the variance column holds;
// anything beyond it is critical either way.
var maxVariancePct = decimal.RequireFromString("99999.99")

// Variance classes.
const (
	VarianceNormal   = "normal"
	VarianceWarning  = "warning"
	VarianceCritical = "critical"
)

// classifyVariance: normal when |pct| <= 1, warning when <= 5, critical above.
func classifyVariance(pct decimal.Decimal) string {
	abs := pct.Abs()
	switch {
	case abs.LessThanOrEqual(decimal.NewFromInt(1)):
		return VarianceNormal
	case abs.LessThanOrEqual(decimal.NewFromInt(5)):
		return VarianceWarning
	default:
		return VarianceCritical
	}
}

func checkDeclaration(d dto.Declaration) error {
	for _, v := range []decimal.Decimal{d.Cash, d.Card, d.UPI, d.Cheque} {
		if v.IsNegative() || v.Round(2).GreaterThan(model.MaxAmount) {
			return fmt.Errorf("declared %s: %w", v.StringFixed(2), ErrInvalidAmount)
		}
	}
	return nil
}

// reconcile stores the declared amounts on sess and computes the variance
// of the declared total against the running total.
func reconcile(sess *model.DailySession, d dto.Declaration) {
	cash, card, upi, cheque := d.Cash.Round(2), d.Card.Round(2), d.UPI.Round(2), d.Cheque.Round(2)
	declared := cash.Add(card).Add(upi).Add(cheque)
	variance := declared.Sub(sess.TotalAmount)

	var pct decimal.Decimal
	switch {
	case !sess.TotalAmount.IsZero():
		pct = variance.Div(sess.TotalAmount).Mul(decimal.NewFromInt(100)).Round(2)
	case !variance.IsZero():
		// money declared on a day with no receipts
		pct = decimal.NewFromInt(100)
	}
	class := classifyVariance(pct)
	pct = decimal.Min(decimal.Max(pct, maxVariancePct.Neg()), maxVariancePct)

	sess.DeclaredCash = &cash
	sess.DeclaredCard = &card
	sess.DeclaredUPI = &upi
	sess.DeclaredCheque = &cheque
	sess.Variance = &variance
	sess.VariancePct = &pct
	sess.VarianceClass = &class
}

func matchesLedger(sess model.DailySession, totals []repository.ModeTotal) bool {
	var count int64
	sum := decimal.Zero
	for _, t := range totals {
		if !sess.ModeAmount(t.Mode).Equal(t.Amount) {
			return false
		}
		count += t.Count
		sum = sum.Add(t.Amount)
	}
	return count == int64(sess.TotalTransactions) && sum.Equal(sess.TotalAmount)
}
