package repository

import (
	"context"
	"strings"

	"feedesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AcademicRepository stores courses, their sections and the per course-year
// fee heads that make up the fee structure.
type AcademicRepository interface {
	CreateCourse(ctx context.Context, c *model.Course) error
	UpdateCourse(ctx context.Context, c *model.Course) error
	FindCourse(ctx context.Context, id uuid.UUID) (*model.Course, error)
	// FindCourseByRef matches code or name, case-insensitive.
	FindCourseByRef(ctx context.Context, ref string) (*model.Course, error)
	ListCourses(ctx context.Context, includeInactive bool) ([]model.Course, error)

	CreateSection(ctx context.Context, s *model.Section) error
	DeleteSection(ctx context.Context, id uuid.UUID) error
	// ListSections lists the sections of courseID, or of every course when it is uuid.Nil.
	ListSections(ctx context.Context, courseID uuid.UUID) ([]model.Section, error)

	CreateFeeHead(ctx context.Context, h *model.FeeHead) error
	UpdateFeeHead(ctx context.Context, h *model.FeeHead) error
	DeleteFeeHead(ctx context.Context, id uuid.UUID) error
	FindFeeHead(ctx context.Context, id uuid.UUID) (*model.FeeHead, error)
	ListFeeHeads(ctx context.Context, courseID uuid.UUID, year string) ([]model.FeeHead, error)
}

type academicRepo struct{ db *gorm.DB }

func NewAcademicRepository(db *gorm.DB) AcademicRepository { return &academicRepo{db: db} }

// ── Courses ───────────────────────────────────────────────────────────────────

func (r *academicRepo) CreateCourse(ctx context.Context, c *model.Course) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *academicRepo) UpdateCourse(ctx context.Context, c *model.Course) error {
	return translate(r.db.WithContext(ctx).Save(c).Error)
}

func (r *academicRepo) FindCourse(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	var c model.Course
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *academicRepo) FindCourseByRef(ctx context.Context, ref string) (*model.Course, error) {
	var c model.Course
	ref = strings.ToLower(strings.TrimSpace(ref))
	err := r.db.WithContext(ctx).
		Where("LOWER(code) = ? OR LOWER(name) = ?", ref, ref).
		Order("active DESC").
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *academicRepo) ListCourses(ctx context.Context, includeInactive bool) ([]model.Course, error) {
	var out []model.Course
	q := r.db.WithContext(ctx).Order("code ASC")
	if !includeInactive {
		q = q.Where("active = ?", true)
	}
	return out, q.Find(&out).Error
}

// ── Sections ──────────────────────────────────────────────────────────────────

func (r *academicRepo) CreateSection(ctx context.Context, s *model.Section) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(s).Error)
}

func (r *academicRepo) DeleteSection(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Section{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *academicRepo) ListSections(ctx context.Context, courseID uuid.UUID) ([]model.Section, error) {
	var out []model.Section
	q := r.db.WithContext(ctx).Order("year ASC, name ASC")
	if courseID != uuid.Nil {
		q = q.Where("course_id = ?", courseID)
	}
	return out, q.Find(&out).Error
}

// ── Fee heads ─────────────────────────────────────────────────────────────────

func (r *academicRepo) CreateFeeHead(ctx context.Context, h *model.FeeHead) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(h).Error)
}

func (r *academicRepo) UpdateFeeHead(ctx context.Context, h *model.FeeHead) error {
	return translate(r.db.WithContext(ctx).Save(h).Error)
}

func (r *academicRepo) DeleteFeeHead(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.FeeHead{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *academicRepo) FindFeeHead(ctx context.Context, id uuid.UUID) (*model.FeeHead, error) {
	var h model.FeeHead
	if err := r.db.WithContext(ctx).First(&h, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &h, nil
}

func (r *academicRepo) ListFeeHeads(ctx context.Context, courseID uuid.UUID, year string) ([]model.FeeHead, error) {
	var out []model.FeeHead
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND year = ?", courseID, strings.TrimSpace(year)).
		Order("created_at ASC, name ASC").
		Find(&out).Error
	return out, err
}
