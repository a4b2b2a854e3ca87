package repository

import (
	"context"
	"strings"

	"feedesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StudentFilter narrows a student listing. Empty fields match everything.
type StudentFilter struct {
	Query  string
	Course string
	Page   int
	Limit  int
}

type StudentRepository interface {
	Create(ctx context.Context, s *model.Student) error
	Update(ctx context.Context, s *model.Student) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Student, error)
	FindByRollNumber(ctx context.Context, roll string) (*model.Student, error)
	// Search matches name or roll number, case-insensitive, active students only.
	Search(ctx context.Context, term string, limit int) ([]model.Student, error)
	List(ctx context.Context, f StudentFilter) ([]model.Student, int64, error)
	// Summary counts active students and sums their total fees.
	Summary(ctx context.Context) (count int64, totalFee decimal.Decimal, err error)
	// SetTotalFee sets the total fee of every active student whose course is
	// one of courseRefs (case-insensitive) in year, and returns how many matched.
	SetTotalFee(ctx context.Context, courseRefs []string, year string, fee decimal.Decimal) (int64, error)
}

type studentRepo struct{ db *gorm.DB }

func NewStudentRepository(db *gorm.DB) StudentRepository { return &studentRepo{db: db} }

func (r *studentRepo) Create(ctx context.Context, s *model.Student) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(s).Error)
}

func (r *studentRepo) Update(ctx context.Context, s *model.Student) error {
	return translate(r.db.WithContext(ctx).Save(s).Error)
}

func (r *studentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	var s model.Student
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *studentRepo) FindByRollNumber(ctx context.Context, roll string) (*model.Student, error) {
	var s model.Student
	err := r.db.WithContext(ctx).Where("LOWER(roll_number) = LOWER(?)", strings.TrimSpace(roll)).First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *studentRepo) Search(ctx context.Context, term string, limit int) ([]model.Student, error) {
	var out []model.Student
	_, size := Paginate(1, limit)
	like := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	err := r.db.WithContext(ctx).
		Where("active = ? AND (LOWER(name) LIKE ? OR LOWER(roll_number) LIKE ?)", true, like, like).
		Order("name ASC").
		Limit(size).
		Find(&out).Error
	return out, err
}

func (r *studentRepo) List(ctx context.Context, f StudentFilter) ([]model.Student, int64, error) {
	var out []model.Student
	var total int64
	offset, size := Paginate(f.Page, f.Limit)

	q := r.db.WithContext(ctx).Model(&model.Student{})
	if f.Query != "" {
		like := "%" + strings.ToLower(strings.TrimSpace(f.Query)) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(roll_number) LIKE ?", like, like)
	}
	if f.Course != "" {
		q = q.Where("course = ?", f.Course)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("roll_number ASC").Offset(offset).Limit(size).Find(&out).Error
	return out, total, err
}

func (r *studentRepo) Summary(ctx context.Context) (int64, decimal.Decimal, error) {
	var row struct {
		Count int64
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&model.Student{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total_fee), 0) AS total").
		Where("active = ?", true).
		Scan(&row).Error
	return row.Count, row.Total, err
}

func (r *studentRepo) SetTotalFee(ctx context.Context, courseRefs []string, year string, fee decimal.Decimal) (int64, error) {
	refs := make([]string, len(courseRefs))
	for i, ref := range courseRefs {
		refs[i] = strings.ToLower(strings.TrimSpace(ref))
	}
	var n int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&model.Student{}).
			Where("LOWER(course) IN ? AND year = ? AND active = ?", refs, strings.TrimSpace(year), true)
		if err := q.Count(&n).Error; err != nil {
			return err
		}
		return tx.Model(&model.Student{}).
			Where("LOWER(course) IN ? AND year = ? AND active = ?", refs, strings.TrimSpace(year), true).
			Update("total_fee", fee).Error
	})
	return n, err
}
