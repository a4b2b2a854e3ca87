package model

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions.
const (
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionSessionOpen    = "session.open"
	ActionSessionClose   = "session.close"
	ActionReceiptCreate  = "receipt.create"
	ActionReceiptReprint = "receipt.reprint"
	ActionStudentCreate  = "student.create"
	ActionStudentUpdate  = "student.update"
	ActionUserCreate     = "user.create"
	ActionUserDeactivate = "user.deactivate"
	ActionUserReactivate = "user.reactivate"
	ActionPasswordChange = "user.password"

	ActionCourseCreate      = "course.create"
	ActionCourseUpdate      = "course.update"
	ActionCourseDeactivate  = "course.deactivate"
	ActionSectionCreate     = "section.create"
	ActionSectionDelete     = "section.delete"
	ActionFeeHeadCreate     = "fee_head.create"
	ActionFeeHeadUpdate     = "fee_head.update"
	ActionFeeHeadDelete     = "fee_head.delete"
	ActionFeeStructureApply = "fee_structure.apply"
)

// AuditLog is an append-only record of a user action.
type AuditLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Timestamp time.Time  `gorm:"not null;index"`
	UserID    *uuid.UUID `gorm:"type:uuid;index"`
	Username  string     `gorm:"not null"`
	Role      string     `gorm:"type:varchar(20)"`
	Action    string     `gorm:"type:varchar(40);not null;index"`
	RecordID  string     `gorm:"type:varchar(64)"`
	Details   string
}
