package dto

import "github.com/shopspring/decimal"

type ReceiptResponse struct {
	ID          string          `json:"id"`
	ReceiptNo   string          `json:"receipt_no"`
	StudentID   string          `json:"student_id"`
	StudentName string          `json:"student_name"`
	RollNumber  string          `json:"roll_number"`
	Amount      decimal.Decimal `json:"amount"`
	Mode        string          `json:"mode"`
	Remarks     string          `json:"remarks,omitempty"`
	CashierName string          `json:"cashier_name"`
	SessionDate string          `json:"session_date"`
	CreatedAt   string          `json:"created_at"`
}

// RecordReceiptResponse carries the new receipt and the session after it was applied.
type RecordReceiptResponse struct {
	Receipt ReceiptResponse `json:"receipt"`
	Session SessionResponse `json:"session"`
}

type ReprintResponse struct {
	Receipt     ReceiptResponse `json:"receipt"`
	Institution string          `json:"institution"`
	Copy        string          `json:"copy"` // always "DUPLICATE"
	ReprintedBy string          `json:"reprinted_by"`
	ReprintedAt string          `json:"reprinted_at"`
}
