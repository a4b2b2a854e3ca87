package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day key of a DailySession.
const DateLayout = "2006-01-02"

// DailySession is the cash-collection window of one calendar day.
// A date opens at most once; once IsOpen is false the row is never written again.
type DailySession struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Date       string    `gorm:"type:varchar(10);uniqueIndex;not null"`
	OpenedBy   string    `gorm:"not null"`
	OpenedByID uuid.UUID `gorm:"type:uuid;not null"`
	OpenedAt   time.Time `gorm:"not null"`
	ClosedBy   *string
	ClosedByID *uuid.UUID `gorm:"type:uuid"`
	ClosedAt   *time.Time
	IsOpen     bool `gorm:"not null;default:true;index"`

	TotalTransactions int             `gorm:"not null;default:0"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	CashAmount        decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	CardAmount        decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	UPIAmount         decimal.Decimal `gorm:"column:upi_amount;type:decimal(15,2);not null"`
	ChequeAmount      decimal.Decimal `gorm:"type:decimal(15,2);not null"`

	// Set on close when the cashier declares the counted amounts.
	DeclaredCash   *decimal.Decimal `gorm:"type:decimal(15,2)"`
	DeclaredCard   *decimal.Decimal `gorm:"type:decimal(15,2)"`
	DeclaredUPI    *decimal.Decimal `gorm:"column:declared_upi;type:decimal(15,2)"`
	DeclaredCheque *decimal.Decimal `gorm:"type:decimal(15,2)"`
	Variance       *decimal.Decimal `gorm:"type:decimal(15,2)"`
	VariancePct    *decimal.Decimal `gorm:"type:decimal(7,2)"`
	// VarianceClass: "normal" | "warning" | "critical"
	VarianceClass  *string `gorm:"type:varchar(20)"`
	ClosingRemarks *string

	UpdatedAt time.Time
}

// NewDailySession returns an open session for date with every total zeroed.
func NewDailySession(date string, openedByID uuid.UUID, openedBy string, at time.Time) DailySession {
	return DailySession{
		ID:           uuid.New(),
		Date:         date,
		OpenedBy:     openedBy,
		OpenedByID:   openedByID,
		OpenedAt:     at,
		IsOpen:       true,
		TotalAmount:  decimal.Zero,
		CashAmount:   decimal.Zero,
		CardAmount:   decimal.Zero,
		UPIAmount:    decimal.Zero,
		ChequeAmount: decimal.Zero,
	}
}

// Apply adds one accepted receipt to the running totals.
// The caller owns the session lock; Apply itself does no validation.
func (s *DailySession) Apply(mode PaymentMode, amount decimal.Decimal) {
	switch mode {
	case ModeCash:
		s.CashAmount = s.CashAmount.Add(amount)
	case ModeCard:
		s.CardAmount = s.CardAmount.Add(amount)
	case ModeUPI:
		s.UPIAmount = s.UPIAmount.Add(amount)
	case ModeCheque:
		s.ChequeAmount = s.ChequeAmount.Add(amount)
	}
	s.TotalAmount = s.TotalAmount.Add(amount)
	s.TotalTransactions++
}

// ModeAmount returns the subtotal collected through mode.
func (s DailySession) ModeAmount(mode PaymentMode) decimal.Decimal {
	switch mode {
	case ModeCash:
		return s.CashAmount
	case ModeCard:
		return s.CardAmount
	case ModeUPI:
		return s.UPIAmount
	case ModeCheque:
		return s.ChequeAmount
	}
	return decimal.Zero
}

// Clone returns a deep copy so that callers never share pointer fields with storage.
func (s DailySession) Clone() DailySession {
	c := s
	c.ClosedBy = cloneString(s.ClosedBy)
	c.ClosedByID = cloneUUID(s.ClosedByID)
	c.ClosedAt = cloneTime(s.ClosedAt)
	c.DeclaredCash = cloneDecimal(s.DeclaredCash)
	c.DeclaredCard = cloneDecimal(s.DeclaredCard)
	c.DeclaredUPI = cloneDecimal(s.DeclaredUPI)
	c.DeclaredCheque = cloneDecimal(s.DeclaredCheque)
	c.Variance = cloneDecimal(s.Variance)
	c.VariancePct = cloneDecimal(s.VariancePct)
	c.VarianceClass = cloneString(s.VarianceClass)
	c.ClosingRemarks = cloneString(s.ClosingRemarks)
	return c
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUUID(p *uuid.UUID) *uuid.UUID {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneDecimal(p *decimal.Decimal) *decimal.Decimal {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
