package repository

import (
	"context"

	"feedesk/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, s *model.DailySession) error
	// FindByDate locks the row for update when tx is set.
	FindByDate(ctx context.Context, tx *gorm.DB, date string) (*model.DailySession, error)
	FindOpen(ctx context.Context, tx *gorm.DB) (*model.DailySession, error)
	// Save writes totals and close fields, but only while the stored row is still open.
	Save(ctx context.Context, tx *gorm.DB, s *model.DailySession) error
	List(ctx context.Context, page, limit int) ([]model.DailySession, int64, error)
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) Create(ctx context.Context, tx *gorm.DB, s *model.DailySession) error {
	return translate(conn(ctx, r.db, tx).Create(s).Error)
}

func (r *sessionRepo) FindByDate(ctx context.Context, tx *gorm.DB, date string) (*model.DailySession, error) {
	var s model.DailySession
	q := conn(ctx, r.db, tx)
	if tx != nil {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("date = ?", date).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *sessionRepo) FindOpen(ctx context.Context, tx *gorm.DB) (*model.DailySession, error) {
	var s model.DailySession
	err := conn(ctx, r.db, tx).Where("is_open = ?", true).Order("date ASC").First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *sessionRepo) Save(ctx context.Context, tx *gorm.DB, s *model.DailySession) error {
	res := conn(ctx, r.db, tx).
		Model(&model.DailySession{}).
		Where("id = ? AND is_open = ?", s.ID, true).
		Select("*").Omit("id", "date", "opened_by", "opened_by_id", "opened_at").
		Updates(s)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

func (r *sessionRepo) List(ctx context.Context, p, limit int) ([]model.DailySession, int64, error) {
	var sessions []model.DailySession
	var total int64
	offset, size := Paginate(p, limit)

	q := r.db.WithContext(ctx).Model(&model.DailySession{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("date DESC").Offset(offset).Limit(size).Find(&sessions).Error
	return sessions, total, err
}
