package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feedesk/internal/dto"
	"feedesk/internal/model"
	"feedesk/internal/repository"

	"github.com/shopspring/decimal"
)

// ReportService derives every figure from the receipt ledger; nothing here
// reads the running session totals except the open-session card.
type ReportService interface {
	ModeWise(ctx context.Context, r dto.ReportRange) (*dto.ModeWiseReport, error)
	Daily(ctx context.Context, r dto.ReportRange) (*dto.DailyReport, error)
	Dashboard(ctx context.Context) (*dto.DashboardResponse, error)
}

// ledgerEpoch and ledgerEnd bound "all time" for session-date range queries.
const (
	ledgerEpoch = "0001-01-01"
	ledgerEnd   = "9999-12-31"
)

type reportService struct {
	ledger   repository.ReceiptLedger
	students repository.StudentRepository
	sessions repository.SessionRepository
	loc      *time.Location
	now      func() time.Time
}

func NewReportService(
	ledger repository.ReceiptLedger,
	students repository.StudentRepository,
	sessions repository.SessionRepository,
	loc *time.Location,
) ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportService{ledger: ledger, students: students, sessions: sessions, loc: loc, now: time.Now}
}

func (s *reportService) ModeWise(ctx context.Context, r dto.ReportRange) (*dto.ModeWiseReport, error) {
	from, to, err := s.resolveRange(r)
	if err != nil {
		return nil, err
	}
	totals, err := s.ledger.SumByMode(ctx, nil, from, to)
	if err != nil {
		return nil, err
	}
	report := &dto.ModeWiseReport{From: from, To: to, Total: decimal.Zero}
	report.Modes, report.Count, report.Total = modeTotals(totals)
	return report, nil
}

func (s *reportService) Daily(ctx context.Context, r dto.ReportRange) (*dto.DailyReport, error) {
	from, to, err := s.resolveRange(r)
	if err != nil {
		return nil, err
	}
	days, err := s.ledger.DailyTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	report := &dto.DailyReport{From: from, To: to, Days: make([]dto.DayTotal, len(days)), Total: decimal.Zero}
	for i, d := range days {
		report.Days[i] = dto.DayTotal{Date: d.Date, Count: d.Count, Amount: d.Amount}
		report.Total = report.Total.Add(d.Amount)
	}
	return report, nil
}

func (s *reportService) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	count, totalFees, err := s.students.Summary(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.ledger.SumByMode(ctx, nil, ledgerEpoch, ledgerEnd)
	if err != nil {
		return nil, err
	}
	today := s.now().In(s.loc).Format(model.DateLayout)
	todays, err := s.ledger.SumByMode(ctx, nil, today, today)
	if err != nil {
		return nil, err
	}

	resp := &dto.DashboardResponse{Students: count, TotalFees: totalFees}
	resp.ModeWise, _, resp.Collected = modeTotals(all)
	_, resp.TodayCount, resp.TodayCollected = modeTotals(todays)
	resp.Pending = totalFees.Sub(resp.Collected)
	if resp.Pending.IsNegative() {
		resp.Pending = decimal.Zero
	}

	open, err := s.sessions.FindOpen(ctx, nil)
	switch {
	case err == nil:
		sr := toSessionResponse(*open, false)
		resp.OpenSession = &sr
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}
	return resp, nil
}

// resolveRange defaults to the current month up to today.
func (s *reportService) resolveRange(r dto.ReportRange) (from, to string, err error) {
	now := s.now().In(s.loc)
	from, to = r.From, r.To
	if from == "" {
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc).Format(model.DateLayout)
	}
	if to == "" {
		to = now.Format(model.DateLayout)
	}
	f, err := time.Parse(model.DateLayout, from)
	if err != nil {
		return "", "", fmt.Errorf("from %q: %w", from, ErrInvalidDate)
	}
	t, err := time.Parse(model.DateLayout, to)
	if err != nil {
		return "", "", fmt.Errorf("to %q: %w", to, ErrInvalidDate)
	}
	if f.After(t) {
		return "", "", fmt.Errorf("from %s is after to %s: %w", from, to, ErrInvalidDate)
	}
	return from, to, nil
}

func modeTotals(rows []repository.ModeTotal) ([]dto.ModeTotal, int64, decimal.Decimal) {
	out := make([]dto.ModeTotal, len(rows))
	var count int64
	total := decimal.Zero
	for i, row := range rows {
		out[i] = dto.ModeTotal{Mode: string(row.Mode), Count: row.Count, Amount: row.Amount}
		count += row.Count
		total = total.Add(row.Amount)
	}
	return out, count, total
}
