package repository

import (
	"context"
	"time"

	"feedesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditFilter narrows an audit log listing.
type AuditFilter struct {
	Action   string
	Username string
	From     *time.Time
	To       *time.Time
	Page     int
	Limit    int
}

// AuditRepository is append-only like the receipt ledger.
type AuditRepository interface {
	Append(ctx context.Context, e *model.AuditLog) error
	List(ctx context.Context, f AuditFilter) ([]model.AuditLog, int64, error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

func (r *auditRepo) Append(ctx context.Context, e *model.AuditLog) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *auditRepo) List(ctx context.Context, f AuditFilter) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	var total int64
	offset, size := Paginate(f.Page, f.Limit)

	q := r.db.WithContext(ctx).Model(&model.AuditLog{})
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Username != "" {
		q = q.Where("username = ?", f.Username)
	}
	if f.From != nil {
		q = q.Where("timestamp >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("timestamp < ?", *f.To)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("timestamp DESC").Offset(offset).Limit(size).Find(&out).Error
	return out, total, err
}
