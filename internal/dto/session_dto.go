package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	// Date defaults to today in the institution's time zone.
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type RecordReceiptRequest struct {
	// Date defaults to the currently open session, or today when none is open.
	Date      string          `json:"date"       validate:"omitempty,datetime=2006-01-02"`
	StudentID string          `json:"student_id" validate:"required,uuid"`
	Amount    decimal.Decimal `json:"amount"     validate:"lte=9999999999.99"`
	Mode      string          `json:"mode"       validate:"required"`
	Remarks   string          `json:"remarks"    validate:"max=500"`
}

// Declaration is what the cashier counted per mode at day end.
type Declaration struct {
	Cash   decimal.Decimal `json:"cash"   validate:"min=0,lte=9999999999.99"`
	Card   decimal.Decimal `json:"card"   validate:"min=0,lte=9999999999.99"`
	UPI    decimal.Decimal `json:"upi"    validate:"min=0,lte=9999999999.99"`
	Cheque decimal.Decimal `json:"cheque" validate:"min=0,lte=9999999999.99"`
}

type CloseSessionRequest struct {
	Date        string       `json:"date"        validate:"omitempty,datetime=2006-01-02"`
	Declaration *Declaration `json:"declaration"`
	Remarks     *string      `json:"remarks"     validate:"omitempty,max=1000"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ModeAmounts struct {
	Cash   decimal.Decimal `json:"cash"`
	Card   decimal.Decimal `json:"card"`
	UPI    decimal.Decimal `json:"upi"`
	Cheque decimal.Decimal `json:"cheque"`
	Total  decimal.Decimal `json:"total"`
}

type VarianceResponse struct {
	Amount  decimal.Decimal `json:"amount"`
	Percent decimal.Decimal `json:"percent"`
	Class   string          `json:"class"` // normal | warning | critical
}

type SessionResponse struct {
	ID                string            `json:"id"`
	Date              string            `json:"date"`
	OpenedBy          string            `json:"opened_by"`
	OpenedAt          string            `json:"opened_at"`
	ClosedBy          *string           `json:"closed_by"`
	ClosedAt          *string           `json:"closed_at"`
	IsOpen            bool              `json:"is_open"`
	TotalTransactions int               `json:"total_transactions"`
	TotalAmount       decimal.Decimal   `json:"total_amount"`
	CashAmount        decimal.Decimal   `json:"cash_amount"`
	CardAmount        decimal.Decimal   `json:"card_amount"`
	UPIAmount         decimal.Decimal   `json:"upi_amount"`
	ChequeAmount      decimal.Decimal   `json:"cheque_amount"`
	Declared          *ModeAmounts      `json:"declared,omitempty"`
	Variance          *VarianceResponse `json:"variance,omitempty"`
	ClosingRemarks    *string           `json:"closing_remarks,omitempty"`
	// LedgerMismatch is set on close when the running totals disagree with the receipts.
	LedgerMismatch bool `json:"ledger_mismatch,omitempty"`
}

type SessionPage struct {
	Data  []SessionResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
