package repository

import (
	"context"
	"time"

	"feedesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	// Create runs in a savepoint of tx when one is given, so a failed insert
	// leaves the enclosing transaction usable.
	Create(ctx context.Context, tx *gorm.DB, n *model.ReceiptNotification) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ReceiptNotification, error)
	Update(ctx context.Context, n *model.ReceiptNotification) error
	// ListDue returns pending notifications whose next retry time has passed.
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.ReceiptNotification, error)
}

type notificationRepo struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, tx *gorm.DB, n *model.ReceiptNotification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return translate(conn(ctx, r.db, tx).Transaction(func(db *gorm.DB) error {
		return db.Create(n).Error
	}))
}

func (r *notificationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ReceiptNotification, error) {
	var n model.ReceiptNotification
	if err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &n, nil
}

func (r *notificationRepo) Update(ctx context.Context, n *model.ReceiptNotification) error {
	return r.db.WithContext(ctx).Save(n).Error
}

func (r *notificationRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]model.ReceiptNotification, error) {
	var out []model.ReceiptNotification
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", model.NotificationPending, now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
