package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"feedesk/internal/access"
	"feedesk/internal/dto"
	"feedesk/internal/model"
	"feedesk/internal/repository"
	"feedesk/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Fixtures ──────────────────────────────────────────────────────────────────

var (
	ist     = time.FixedZone("IST", 5*3600+1800)
	cashier = Actor{UserID: uuid.New(), Username: "cashier", Name: "Priya", Role: access.Cashier}
)

type recordingNotifier struct {
	mu         sync.Mutex
	receipts   []string
	dispatched int
	stageErr   error
	err        error
}

func (n *recordingNotifier) StageReceipt(_ context.Context, _ *gorm.DB, r model.Receipt, _ model.Student) (*model.ReceiptNotification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.receipts = append(n.receipts, r.ReceiptNo)
	if n.stageErr != nil {
		return nil, n.stageErr
	}
	return &model.ReceiptNotification{ID: uuid.New(), ReceiptID: r.ID}, nil
}

func (n *recordingNotifier) ReceiptRecorded(_ context.Context, _ model.ReceiptNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dispatched++
	return n.err
}

type fixture struct {
	store    *memory.Store
	svc      SessionService
	notifier *recordingNotifier
	student  model.Student
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	student := model.Student{
		ID:          uuid.New(),
		RollNumber:  "CS2021001",
		Name:        "Rahul Verma",
		Course:      "B.Tech CSE",
		TotalFee:    decimal.NewFromInt(85000),
		ParentEmail: "verma.parent@example.com",
		Active:      true,
	}
	require.NoError(t, store.Students().Create(context.Background(), &student))

	f := &fixture{
		store:    store,
		notifier: &recordingNotifier{},
		student:  student,
		clock:    time.Date(2024, 11, 4, 10, 30, 0, 0, ist),
	}
	f.svc = NewSessionService(
		store, store.Sessions(), store.Ledger(), store.Students(),
		NewAuditService(store.Audit(), ist), f.notifier,
		SessionConfig{Location: ist, ReceiptPrefix: "RCP", Now: func() time.Time { return f.clock }},
	)
	return f
}

func (f *fixture) receipt(amount int64, mode string) dto.RecordReceiptRequest {
	return dto.RecordReceiptRequest{
		Date:      "2024-11-04",
		StudentID: f.student.ID.String(),
		Amount:    decimal.NewFromInt(amount),
		Mode:      mode,
	}
}

func requireAmount(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.NewFromInt(want)), "want %d, got %s", want, got)
}

// ── Lifecycle scenarios ───────────────────────────────────────────────────────

func TestSession_OpenRecordTotals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	opened, err := f.svc.Open(ctx, cashier, "2024-11-04")
	require.NoError(t, err)
	assert.True(t, opened.IsOpen)
	assert.Equal(t, "Priya", opened.OpenedBy)
	assert.Zero(t, opened.TotalTransactions)

	_, err = f.svc.Record(ctx, cashier, f.receipt(500, "Cash"))
	require.NoError(t, err)
	res, err := f.svc.Record(ctx, cashier, f.receipt(1200, "UPI"))
	require.NoError(t, err)

	requireAmount(t, 1700, res.Session.TotalAmount)
	assert.Equal(t, 2, res.Session.TotalTransactions)
	requireAmount(t, 500, res.Session.CashAmount)
	requireAmount(t, 1200, res.Session.UPIAmount)
	requireAmount(t, 0, res.Session.CardAmount)
	assert.Equal(t, "RCP/2024/000002", res.Receipt.ReceiptNo)
	assert.Equal(t, "Rahul Verma", res.Receipt.StudentName)
	assert.Equal(t, "Priya", res.Receipt.CashierName)
}

func TestSession_RecordAfterCloseFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Open(ctx, cashier, "2024-11-04")
	require.NoError(t, err)
	_, err = f.svc.Record(ctx, cashier, f.receipt(500, "Cash"))
	require.NoError(t, err)
	_, err = f.svc.Record(ctx, cashier, f.receipt(1200, "UPI"))
	require.NoError(t, err)

	closed, err := f.svc.Close(ctx, cashier, dto.CloseSessionRequest{Date: "2024-11-04"})
	require.NoError(t, err)
	assert.False(t, closed.IsOpen)
	require.NotNil(t, closed.ClosedBy)
	assert.Equal(t, "Priya", *closed.ClosedBy)
	assert.False(t, closed.LedgerMismatch)

	_, err = f.svc.Record(ctx, cashier, f.receipt(100, "Cash"))
	require.ErrorIs(t, err, ErrSessionClosed)

	after, err := f.svc.Get(ctx, "2024-11-04")
	require.NoError(t, err)
	requireAmount(t, 1700, after.TotalAmount)
	assert.Equal(t, 2, after.TotalTransactions)
}

func TestSession_OpenTwiceAndReopenClosed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Open(ctx, cashier, "2024-11-04")
	require.NoError(t, err)
	_, err = f.svc.Open(ctx, cashier, "2024-11-04")
	require.ErrorIs(t, err, ErrAlreadyOpen)

	_, err = f.svc.Close(ctx, cashier, dto.CloseSessionRequest{})
	require.NoError(t, err)

	_, err = f.svc.Open(ctx, cashier, "2024-11-04")
	require.ErrorIs(t, err, ErrAlreadyClosed)

	_, err = f.svc.Current(ctx)
	assert.ErrorIs(t, err, ErrNoOpenSession)
}

func TestSession_SingleOpenSessionSystemWide(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Open(ctx, cashier, "2024-11-04")
	require.NoError(t, err)
	_, err = f.svc.Open(ctx, cashier, "2024-11-05")
	require.ErrorIs(t, err, ErrAlreadyOpen)
	assert.Contains(t, err.Error(), "2024-11-04")

	_, err = f.svc.Close(ctx, cashier, dto.CloseSessionRequest{Date: "2024-11-04"})
	require.NoError(t, err)
	_, err = f.svc.Open(ctx, cashier, "2024-11-05")
	require.NoError(t, err)
}

func TestSession_OpenDefaultsToToday(t *testing.T) {
	f := newFixture(t)
	opened, err := f.svc.Open(context.Background(), cashier, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-11-04", opened.Date)
}

func TestSession_CloseTwiceFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Open(ctx, cashier, "2024-11-04")
	require.NoError(t, err)
	_, err = f.svc.Record(ctx, cashier, f.receipt(750, "Card"))
	require.NoError(t, err)

	first, err := f.svc.Close(ctx, cashier, dto.CloseSessionRequest{Date: "2024-11-04"})
	require.NoError(t, err)

	_, err = f.svc.Close(ctx, cashier, dto.CloseSessionRequest{Date: "2024-11-04"})
	require.ErrorIs(t, err, ErrSessionClosed)

	again, err := f.svc.Get(ctx, "2024-11-04")
	require.NoError(t, err)
	assert.Equal(t, first.TotalAmount, again.TotalAmount)
	assert.Equal(t, first.ClosedAt, again.ClosedAt)
}

func TestSession_CloseWithZeroTransactions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Open(ctx, cashier, "2024-11-04")
	require.NoError(t, err)

	closed, err := f.svc.Close(ctx, cashier, dto.CloseSessionRequest{Date: "2024-11-04"})
	require.NoError(t, err)
	assert.Zero(t, closed.TotalTransactions)
	requireAmount(t, 0, closed.TotalAmount)
}

func TestSession_CloseUnknownDate(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Close(context.Background(), cashier, dto.CloseSessionRequest{Date: "2024-11-09"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Close(context.Background(), cashier, dto.CloseSessionRequest{})
	assert.ErrorIs(t, err, ErrNoOpenSession)
}

// ── Rejected receipts ─────────────────────────────────────────────────────────

func TestSession_RejectedReceiptLeavesTotalsUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Open(ctx, cashier, "2024-11-04")
	require.NoError(t, err)
	_, err = f.svc.Record(ctx, cashier, f.receipt(500, "Cash"))
	require.NoError(t, err)

	cases := []struct {
		name string
		req  dto.RecordReceiptRequest
		want error
	}{
		{"zero amount", f.receipt(0, "Cash"), ErrInvalidAmount},
		{"negative amount", f.receipt(-200, "UPI"), ErrInvalidAmount},
		{"rounds to zero", dto.RecordReceiptRequest{Date: "2024-11-04", StudentID: f.student.ID.String(), Amount: decimal.RequireFromString("0.004"), Mode: "Cash"}, ErrInvalidAmount},
		{"unknown mode", f.receipt(100, "Bitcoin"), ErrInvalidMode},
		{"unknown student", dto.RecordReceiptRequest{Date: "2024-11-04", StudentID: uuid.NewString(), Amount: decimal.NewFromInt(10), Mode: "Cash"}, ErrNotFound},
		{"no session for date", dto.RecordReceiptRequest{Date: "2024-11-10", StudentID: f.student.ID.String(), Amount: decimal.NewFromInt(10), Mode: "Cash"}, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Record(ctx, cashier, tc.req)
			require.ErrorIs(t, err, tc.want)

			cur, err := f.svc.Current(ctx)
			require.NoError(t, err)
			requireAmount(t, 500, cur.TotalAmount)
			assert.Equal(t, 1, cur.TotalTransactions)
		})
	}

	serial, err := f.store.Ledger().NextSerial(ctx, nil, 2024)
	require.NoError(t, err)
	assert.Equal(t, int64(2), serial, "rejected receipts must not consume serials")
}

func TestSession_RecordWithoutDateUsesOpenSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req := f.receipt(300, "cheque")
	req.Date = ""
	_, err := f.svc.Record(ctx, cashier, req)
	require.ErrorIs(t, err, ErrNoOpenSession)

	_, err = f.svc.Open(ctx, cashier, "2024-11-04")
	require.NoError(t, err)
	res, err := f.svc.Record(ctx, cashier, req)
	require.NoError(t, err)
	assert.Equal(t, "2024-11-04", res.Receipt.SessionDate)
	assert.Equal(t, "Cheque", res.Receipt.Mode)
	requireAmount(t, 300, res.Session.ChequeAmount)
}

func TestSession_RecordWithoutDateAfterCloseIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Open(ctx, cashier, "")
	require.NoError(t, err)
	_, err = f.svc.Close(ctx, cashier, dto.CloseSessionRequest{})
	require.NoError(t, err)

	req := f.receipt(100, "Cash")
	req.Date = ""
	_, err = f.svc.Record(ctx, cashier, req)
	assert.ErrorIs(t, err, ErrSessionClosed)

	_, err = f.svc.Close(ctx, cashier, dto.CloseSessionRequest{})
	assert.ErrorIs(t, err, ErrSessionClosed)

	// the next day has no session at all
	f.clock = f.clock.Add(24 * time.Hour)
	_, err = f.svc.Record(ctx, cashier, req)
	assert.ErrorIs(t, err, ErrNoOpenSession)
}

func TestSession_ReceiptYearFollowsSessionDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.clock = time.Date(2024, 12, 31, 17, 0, 0, 0, ist)
	_, err := f.svc.Open(ctx, cashier, "")
	require.NoError(t, err)

	// still collecting just after midnight on new year's day
	f.clock = time.Date(2025, 1, 1, 0, 5, 0, 0, ist)
	req := f.receipt(700, "Cash")
	req.Date = ""
	res, err := f.svc.Record(ctx, cashier, req)
	require.NoError(t, err)
	assert.Equal(t, "2024-12-31", res.Receipt.SessionDate)
	assert.Equal(t, "RCP/2024/000001", res.Receipt.ReceiptNo)
}

func TestSession_AmountsBeyondColumnCapacityRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Open(ctx, cashier, "2024-11-04")
	require.NoError(t, err)

	huge := f.receipt(0, "Cash")
	huge.Amount = decimal.RequireFromString("123456789012345.67")
	_, err = f.svc.Record(ctx, cashier, huge)
	require.ErrorIs(t, err, ErrInvalidAmount)

	top := f.receipt(0, "Cash")
	top.Amount = model.MaxAmount
	_, err = f.svc.Record(ctx, cashier, top)
	require.NoError(t, err)

	_, err = f.svc.Close(ctx, cashier, dto.CloseSessionRequest{
		Declaration: &dto.Declaration{Cash: model.MaxAmount.Add(decimal.NewFromInt(1))},
	})
	require.ErrorIs(t, err, ErrInvalidAmount)

	cur, err := f.svc.Current(ctx)
	require.NoError(t, err)
	assert.True(t, cur.IsOpen)
	assert.Equal(t, 1, cur.TotalTransactions)
}

func TestSession_VariancePercentClamped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Open(ctx, cashier, "2024-11-04")
	require.NoError(t, err)
	_, err = f.svc.Record(ctx, cashier, f.receipt(1, "Cash"))
	require.NoError(t, err)

	remarks := "recount pending"
	closed, err := f.svc.Close(ctx, cashier, dto.CloseSessionRequest{
		Declaration: &dto.Declaration{Cash: decimal.NewFromInt(9999999999)},
		Remarks:     &remarks,
	})
	require.NoError(t, err)
	require.NotNil(t, closed.Variance)
	assert.Equal(t, VarianceCritical, closed.Variance.Class)
	assert.True(t, closed.Variance.Percent.Equal(decimal.RequireFromString("99999.99")), closed.Variance.Percent.String())
	requireAmount(t, 9999999998, closed.Variance.Amount)
}

// ── Totals property ───────────────────────────────────────────────────────────

func TestSession_TotalsEqualSumOfReceipts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Open(ctx, cashier, "2024-11-04")
	require.NoError(t, err)

	amounts := []string{"500", "1200.50", "75.25", "3000", "10", "999.99", "42"}
	modes := []string{"Cash", "UPI", "Card", "Cheque", "Cash", "UPI", "Card"}
	want := map[string]decimal.Decimal{}
	total := decimal.Zero
	for i, a := range amounts {
		amt := decimal.RequireFromString(a)
		req := f.receipt(0, modes[i])
		req.Amount = amt
		_, err := f.svc.Record(ctx, cashier, req)
		require.NoError(t, err)
		want[modes[i]] = want[modes[i]].Add(amt)
		total = total.Add(amt)
	}

	cur, err := f.svc.Current(ctx)
	require.NoError(t, err)
	assert.True(t, cur.TotalAmount.Equal(total))
	assert.Equal(t, len(amounts), cur.TotalTransactions)
	assert.True(t, cur.CashAmount.Equal(want["Cash"]))
	assert.True(t, cur.CardAmount.Equal(want["Card"]))
	assert.True(t, cur.UPIAmount.Equal(want["UPI"]))
	assert.True(t, cur.ChequeAmount.Equal(want["Cheque"]))
	assert.True(t, cur.CashAmount.Add(cur.CardAmount).Add(cur.UPIAmount).Add(cur.ChequeAmount).Equal(cur.TotalAmount))
}

func TestSession_ConcurrentRecordsLoseNoUpdates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Open(ctx, cashier, "2024-11-04")
	require.NoError(t, err)

	const workers, perWorker = 8, 25
	modes := []string{"Cash", "Card", "UPI", "Cheque"}
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := range workers {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for range perWorker {
				if _, err := f.svc.Record(ctx, cashier, f.receipt(10, modes[w%len(modes)])); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	cur, err := f.svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, workers*perWorker, cur.TotalTransactions)
	requireAmount(t, 10*workers*perWorker, cur.TotalAmount)
	for _, m := range []decimal.Decimal{cur.CashAmount, cur.CardAmount, cur.UPIAmount, cur.ChequeAmount} {
		requireAmount(t, 10*perWorker*2, m)
	}

	seen := map[string]bool{}
	for rec, err := range f.store.Ledger().FindByStudent(ctx, repository.StudentQuery{StudentID: f.student.ID}) {
		require.NoError(t, err)
		require.False(t, seen[rec.ReceiptNo], "duplicate receipt number %s", rec.ReceiptNo)
		seen[rec.ReceiptNo] = true
	}
	assert.Len(t, seen, workers*perWorker)

	closed, err := f.svc.Close(ctx, cashier, dto.CloseSessionRequest{})
	require.NoError(t, err)
	assert.False(t, closed.LedgerMismatch)
}

// ── Reconciliation ────────────────────────────────────────────────────────────

func TestClassifyVariance(t *testing.T) {
	cases := map[string]string{
		"0":     VarianceNormal,
		"-1":    VarianceNormal,
		"1.01":  VarianceWarning,
		"-5":    VarianceWarning,
		"5.01":  VarianceCritical,
		"-12.5": VarianceCritical,
	}
	for pct, want := range cases {
		assert.Equal(t, want, classifyVariance(decimal.RequireFromString(pct)), pct)
	}
}

func TestSession_CloseWithDeclaration(t *testing.T) {
	ctx := context.Background()

	t.Run("warning variance closes", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Open(ctx, cashier, "2024-11-04")
		require.NoError(t, err)
		_, err = f.svc.Record(ctx, cashier, f.receipt(1000, "Cash"))
		require.NoError(t, err)

		closed, err := f.svc.Close(ctx, cashier, dto.CloseSessionRequest{
			Declaration: &dto.Declaration{Cash: decimal.NewFromInt(970)},
		})
		require.NoError(t, err)
		require.NotNil(t, closed.Variance)
		requireAmount(t, -30, closed.Variance.Amount)
		assert.True(t, closed.Variance.Percent.Equal(decimal.NewFromInt(-3)))
		assert.Equal(t, VarianceWarning, closed.Variance.Class)
		require.NotNil(t, closed.Declared)
		requireAmount(t, 970, closed.Declared.Total)
	})

	t.Run("critical variance needs remarks", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Open(ctx, cashier, "2024-11-04")
		require.NoError(t, err)
		_, err = f.svc.Record(ctx, cashier, f.receipt(1000, "Cash"))
		require.NoError(t, err)

		decl := &dto.Declaration{Cash: decimal.NewFromInt(800)}
		_, err = f.svc.Close(ctx, cashier, dto.CloseSessionRequest{Declaration: decl})
		require.ErrorIs(t, err, ErrRemarksRequired)

		cur, err := f.svc.Current(ctx)
		require.NoError(t, err, "a rejected close leaves the session open")
		assert.Nil(t, cur.Variance)

		blank := "   "
		_, err = f.svc.Close(ctx, cashier, dto.CloseSessionRequest{Declaration: decl, Remarks: &blank})
		require.ErrorIs(t, err, ErrRemarksRequired)

		remarks := "₹200 handed to accounts office before count"
		closed, err := f.svc.Close(ctx, cashier, dto.CloseSessionRequest{Declaration: decl, Remarks: &remarks})
		require.NoError(t, err)
		assert.Equal(t, VarianceCritical, closed.Variance.Class)
		assert.Equal(t, remarks, *closed.ClosingRemarks)
	})

	t.Run("money declared on an empty day", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Open(ctx, cashier, "2024-11-04")
		require.NoError(t, err)
		note := "found in drawer"
		closed, err := f.svc.Close(ctx, cashier, dto.CloseSessionRequest{
			Declaration: &dto.Declaration{Cash: decimal.NewFromInt(50)},
			Remarks:     &note,
		})
		require.NoError(t, err)
		assert.True(t, closed.Variance.Percent.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, VarianceCritical, closed.Variance.Class)
	})
}

// ── Collaborators ─────────────────────────────────────────────────────────────

func TestSession_NotifierFailureKeepsReceipt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.notifier.err = errors.New("queue unavailable")
	_, err := f.svc.Open(ctx, cashier, "2024-11-04")
	require.NoError(t, err)

	res, err := f.svc.Record(ctx, cashier, f.receipt(500, "Cash"))
	require.NoError(t, err)
	assert.Equal(t, []string{res.Receipt.ReceiptNo}, f.notifier.receipts)

	rec, err := f.store.Ledger().FindByReceiptNo(ctx, res.Receipt.ReceiptNo)
	require.NoError(t, err)
	requireAmount(t, 500, rec.Amount)

	cur, err := f.svc.Current(ctx)
	require.NoError(t, err)
	requireAmount(t, 500, cur.TotalAmount)
}

func TestSession_StagingFailureKeepsReceipt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.notifier.stageErr = errors.New("notifications table locked")
	_, err := f.svc.Open(ctx, cashier, "2024-11-04")
	require.NoError(t, err)

	res, err := f.svc.Record(ctx, cashier, f.receipt(500, "Cash"))
	require.NoError(t, err)
	assert.Zero(t, f.notifier.dispatched)

	_, err = f.store.Ledger().FindByReceiptNo(ctx, res.Receipt.ReceiptNo)
	require.NoError(t, err)
	requireAmount(t, 500, res.Session.TotalAmount)
}

func TestSession_WritesAuditTrail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Open(ctx, cashier, "2024-11-04")
	require.NoError(t, err)
	_, err = f.svc.Record(ctx, cashier, f.receipt(500, "Cash"))
	require.NoError(t, err)
	_, err = f.svc.Close(ctx, cashier, dto.CloseSessionRequest{})
	require.NoError(t, err)

	entries, total, err := f.store.Audit().List(ctx, repository.AuditFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	assert.Equal(t, model.ActionSessionClose, entries[0].Action)
	assert.Equal(t, model.ActionReceiptCreate, entries[1].Action)
	assert.Equal(t, "RCP/2024/000001", entries[1].RecordID)
	assert.Equal(t, model.ActionSessionOpen, entries[2].Action)
	assert.Equal(t, "cashier", entries[2].Username)
}

func TestSession_HistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, d := range []string{"2024-11-02", "2024-11-03", "2024-11-04"} {
		_, err := f.svc.Open(ctx, cashier, d)
		require.NoError(t, err)
		_, err = f.svc.Close(ctx, cashier, dto.CloseSessionRequest{Date: d})
		require.NoError(t, err)
	}
	page, err := f.svc.History(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "2024-11-04", page.Data[0].Date)
	assert.Equal(t, "2024-11-03", page.Data[1].Date)
}
