package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMode is the channel a fee was paid through.
type PaymentMode string

const (
	ModeCash   PaymentMode = "Cash"
	ModeCard   PaymentMode = "Card"
	ModeUPI    PaymentMode = "UPI"
	ModeCheque PaymentMode = "Cheque"
)

// PaymentModes lists every accepted mode in display order.
var PaymentModes = []PaymentMode{ModeCash, ModeCard, ModeUPI, ModeCheque}

// ParsePaymentMode accepts any casing of a known mode.
func ParsePaymentMode(s string) (PaymentMode, bool) {
	for _, m := range PaymentModes {
		if strings.EqualFold(string(m), strings.TrimSpace(s)) {
			return m, true
		}
	}
	return "", false
}

// Receipt is an immutable record of one fee payment.
// Receipts are NEVER modified or deleted; a reprint only renders the stored row again.
type Receipt struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ReceiptNo   string          `gorm:"type:varchar(40);uniqueIndex;not null"`
	Serial      int64           `gorm:"not null;index"`
	StudentID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	StudentName string          `gorm:"not null;index"`
	RollNumber  string          `gorm:"type:varchar(40);index;not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Mode        PaymentMode     `gorm:"type:varchar(10);not null"`
	Remarks     string
	CashierID   uuid.UUID `gorm:"type:uuid;not null"`
	CashierName string    `gorm:"not null"`
	SessionID   uuid.UUID `gorm:"type:uuid;index;not null"`
	SessionDate string    `gorm:"type:varchar(10);index;not null"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

// MaxAmount is the largest single receipt or declared amount, the capacity
// of a decimal(12,2) column.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// MaxSessionTotal caps a day's running totals at the decimal(15,2) session columns.
var MaxSessionTotal = decimal.RequireFromString("9999999999999.99")

// ReceiptNumber formats the human-facing receipt number, e.g. RCP/2024/000042.
func ReceiptNumber(prefix string, year int, serial int64) string {
	return fmt.Sprintf("%s/%d/%06d", prefix, year, serial)
}

// ReceiptCounter holds the last issued serial per calendar year.
type ReceiptCounter struct {
	Year int   `gorm:"primaryKey;autoIncrement:false"`
	Last int64 `gorm:"not null"`
}
