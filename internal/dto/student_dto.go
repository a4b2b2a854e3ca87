package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CreateStudentRequest registers a student. A zero or omitted total_fee is
// taken from the fee structure of the course and year.
type CreateStudentRequest struct {
	RollNumber  string          `json:"roll_number"  validate:"required,min=2,max=40"`
	Name        string          `json:"name"         validate:"required,min=2,max=120"`
	Course      string          `json:"course"       validate:"required,max=80"`
	Section     string          `json:"section"      validate:"max=10"`
	Year        string          `json:"year"         validate:"max=20"`
	TotalFee    decimal.Decimal `json:"total_fee"    validate:"gte=0,lte=9999999999.99"`
	ParentPhone string          `json:"parent_phone" validate:"omitempty,max=20"`
	ParentEmail string          `json:"parent_email" validate:"omitempty,email"`
}

type UpdateStudentRequest struct {
	Name        *string          `json:"name"         validate:"omitempty,min=2,max=120"`
	Course      *string          `json:"course"       validate:"omitempty,max=80"`
	Section     *string          `json:"section"      validate:"omitempty,max=10"`
	Year        *string          `json:"year"         validate:"omitempty,max=20"`
	TotalFee    *decimal.Decimal `json:"total_fee"`
	ParentPhone *string          `json:"parent_phone" validate:"omitempty,max=20"`
	ParentEmail *string          `json:"parent_email" validate:"omitempty,email"`
	Active      *bool            `json:"active"`
}

type StudentFilter struct {
	Query  string `form:"q"`
	Course string `form:"course"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type StudentResponse struct {
	ID             string          `json:"id"`
	RollNumber     string          `json:"roll_number"`
	Name           string          `json:"name"`
	Course         string          `json:"course"`
	Section        string          `json:"section"`
	Year           string          `json:"year"`
	TotalFee       decimal.Decimal `json:"total_fee"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	PendingBalance decimal.Decimal `json:"pending_balance"`
	FeeStatus      string          `json:"fee_status"`
	ParentPhone    string          `json:"parent_phone,omitempty"`
	ParentEmail    string          `json:"parent_email,omitempty"`
	Active         bool            `json:"active"`
}

type StudentDetail struct {
	StudentResponse
	Receipts []ReceiptResponse `json:"receipts"`
}

type StudentPage struct {
	Data  []StudentResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
