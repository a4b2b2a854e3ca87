package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fee status labels, as shown on the student tables.
const (
	FeeFullyPaid     = "Fully Paid"
	FeePartiallyPaid = "Partially Paid"
	FeePending       = "Pending"
)

// Student is a fee-paying student. Paid and pending amounts are not stored;
// they are derived from the receipt ledger on read.
type Student struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RollNumber  string          `gorm:"type:varchar(40);uniqueIndex;not null"`
	Name        string          `gorm:"not null;index"`
	Course      string          `gorm:"not null"`
	Section     string          `gorm:"type:varchar(10)"`
	Year        string          `gorm:"type:varchar(20)"`
	TotalFee    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ParentPhone string          `gorm:"type:varchar(20)"`
	ParentEmail string
	Active      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FeeStatus classifies paid against the student's total fee.
func FeeStatus(total, paid decimal.Decimal) string {
	switch {
	case paid.GreaterThanOrEqual(total):
		return FeeFullyPaid
	case paid.IsPositive():
		return FeePartiallyPaid
	default:
		return FeePending
	}
}
