package repository

import "gorm.io/gorm"

// Stores bundles every repository the services need, so the composition root
// can swap the gorm driver for the in-memory one in a single place.
type Stores struct {
	Tx            Transactor
	Sessions      SessionRepository
	Ledger        ReceiptLedger
	Users         UserRepository
	Students      StudentRepository
	Academic      AcademicRepository
	Audit         AuditRepository
	Notifications NotificationRepository
}

func NewGormStores(db *gorm.DB) Stores {
	return Stores{
		Tx:            NewTransactor(db),
		Sessions:      NewSessionRepository(db),
		Ledger:        NewReceiptLedger(db),
		Users:         NewUserRepository(db),
		Students:      NewStudentRepository(db),
		Academic:      NewAcademicRepository(db),
		Audit:         NewAuditRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}
