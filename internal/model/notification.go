package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification delivery states.
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// ReceiptNotification tracks delivery of a receipt to the student's parent.
// It carries the mutable delivery state so the Receipt row itself stays immutable.
type ReceiptNotification struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ReceiptID   uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null"`
	Channel     string     `gorm:"type:varchar(20);not null"` // "email"
	Recipient   string     `gorm:"not null"`
	Subject     string     `gorm:"not null"`
	Body        string     `gorm:"type:text;not null"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending';index"`
	Attempts    int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time `gorm:"index"`
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
