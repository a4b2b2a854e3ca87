package infra

import (
	"fmt"
	"strings"
	"time"

	"feedesk/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Models lists every table owned by the service, in migration order.
var Models = []any{
	&model.User{},
	&model.Course{},
	&model.Section{},
	&model.FeeHead{},
	&model.Student{},
	&model.DailySession{},
	&model.ReceiptCounter{},
	&model.Receipt{},
	&model.ReceiptNotification{},
	&model.AuditLog{},
}

// NewDatabase opens a GORM connection for driver, migrates every model and
// applies the idempotent patches AutoMigrate cannot express.
func NewDatabase(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates all tables. Integration tests call it directly.
func RunMigrations(db *gorm.DB) error {
	if db.Dialector.Name() == DriverMySQL {
		if err := useCharUUIDs(db); err != nil {
			return fmt.Errorf("uuid columns: %w", err)
		}
	}
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if db.Dialector.Name() == DriverPostgres {
		if err := applyPostgresPatches(db); err != nil {
			return fmt.Errorf("schema patches: %w", err)
		}
	}
	return nil
}

// useCharUUIDs retypes the uuid columns of every model to char(36) in db's
// schema cache. MySQL has no uuid type; uuid.UUID reads and writes its
// canonical text form either way.
func useCharUUIDs(db *gorm.DB) error {
	for _, m := range Models {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return err
		}
		for _, f := range stmt.Schema.Fields {
			if strings.EqualFold(string(f.DataType), "uuid") {
				f.DataType = "char(36)"
			}
		}
	}
	return nil
}

// applyPostgresPatches runs DDL that GORM tags cannot describe. Every statement
// is guarded so re-running on a patched schema is a no-op.
func applyPostgresPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one open daily session system-wide.
		{"single open session", `
CREATE UNIQUE INDEX IF NOT EXISTS idx_daily_sessions_single_open
    ON daily_sessions (is_open) WHERE is_open`},
		// Retry cron scans pending notifications by due time.
		{"pending notification retry index", `
CREATE INDEX IF NOT EXISTS idx_receipt_notifications_pending_retry
    ON receipt_notifications (next_retry_at)
    WHERE status = 'pending' AND next_retry_at IS NOT NULL`},
		{"positive receipt amount", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_receipts_amount_positive') THEN
    ALTER TABLE receipts ADD CONSTRAINT chk_receipts_amount_positive CHECK (amount > 0);
  END IF;
END $$`},
		{"session totals consistent", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_daily_sessions_total') THEN
    ALTER TABLE daily_sessions ADD CONSTRAINT chk_daily_sessions_total
      CHECK (total_amount = cash_amount + card_amount + upi_amount + cheque_amount);
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
