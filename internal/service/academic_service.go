package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"feedesk/internal/dto"
	"feedesk/internal/model"
	"feedesk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AcademicService manages the course and section registry.
type AcademicService interface {
	ListCourses(ctx context.Context, includeInactive bool) ([]dto.CourseResponse, error)
	CreateCourse(ctx context.Context, actor Actor, req dto.CreateCourseRequest) (*dto.CourseResponse, error)
	UpdateCourse(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateCourseRequest) (*dto.CourseResponse, error)
	// DeactivateCourse hides the course from listings. Students and fee heads
	// that refer to it are left as they are.
	DeactivateCourse(ctx context.Context, actor Actor, id uuid.UUID) error

	ListSections(ctx context.Context, courseID uuid.UUID) ([]dto.SectionResponse, error)
	CreateSection(ctx context.Context, actor Actor, req dto.CreateSectionRequest) (*dto.SectionResponse, error)
	DeleteSection(ctx context.Context, actor Actor, id uuid.UUID) error
}

type academicService struct {
	repo  repository.AcademicRepository
	audit AuditService
}

func NewAcademicService(repo repository.AcademicRepository, audit AuditService) AcademicService {
	return &academicService{repo: repo, audit: audit}
}

func (s *academicService) ListCourses(ctx context.Context, includeInactive bool) ([]dto.CourseResponse, error) {
	courses, err := s.repo.ListCourses(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CourseResponse, len(courses))
	for i, c := range courses {
		out[i] = toCourseResponse(c)
	}
	return out, nil
}

func (s *academicService) CreateCourse(ctx context.Context, actor Actor, req dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	c := &model.Course{
		ID:     uuid.New(),
		Code:   strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:   strings.TrimSpace(req.Name),
		Active: true,
	}
	if err := s.repo.CreateCourse(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("course %s: %w", c.Code, ErrDuplicate)
		}
		return nil, err
	}
	s.audit.Record(ctx, actor, model.ActionCourseCreate, c.Code, c.Name)

	resp := toCourseResponse(*c)
	return &resp, nil
}

func (s *academicService) UpdateCourse(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	c, err := s.findCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	var changed []string
	if req.Code != nil {
		if code := strings.ToUpper(strings.TrimSpace(*req.Code)); code != c.Code {
			c.Code = code
			changed = append(changed, "code")
		}
	}
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != c.Name {
			c.Name = name
			changed = append(changed, "name")
		}
	}
	if req.Active != nil && *req.Active != c.Active {
		c.Active = *req.Active
		changed = append(changed, "active")
	}

	if len(changed) > 0 {
		if err := s.repo.UpdateCourse(ctx, c); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, fmt.Errorf("course %s: %w", c.Code, ErrDuplicate)
			}
			return nil, err
		}
		s.audit.Record(ctx, actor, model.ActionCourseUpdate, c.Code, strings.Join(changed, ","))
	}
	resp := toCourseResponse(*c)
	return &resp, nil
}

func (s *academicService) DeactivateCourse(ctx context.Context, actor Actor, id uuid.UUID) error {
	c, err := s.findCourse(ctx, id)
	if err != nil {
		return err
	}
	if !c.Active {
		return nil
	}
	c.Active = false
	if err := s.repo.UpdateCourse(ctx, c); err != nil {
		return err
	}
	s.audit.Record(ctx, actor, model.ActionCourseDeactivate, c.Code, c.Name)
	return nil
}

func (s *academicService) ListSections(ctx context.Context, courseID uuid.UUID) ([]dto.SectionResponse, error) {
	sections, err := s.repo.ListSections(ctx, courseID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SectionResponse, len(sections))
	for i, sec := range sections {
		out[i] = toSectionResponse(sec)
	}
	return out, nil
}

func (s *academicService) CreateSection(ctx context.Context, actor Actor, req dto.CreateSectionRequest) (*dto.SectionResponse, error) {
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("course %q: %w", req.CourseID, ErrNotFound)
	}
	c, err := s.findCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	sec := &model.Section{
		ID:       uuid.New(),
		CourseID: c.ID,
		Year:     strings.TrimSpace(req.Year),
		Name:     strings.ToUpper(strings.TrimSpace(req.Name)),
	}
	if err := s.repo.CreateSection(ctx, sec); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("section %s %s %s: %w", c.Code, sec.Year, sec.Name, ErrDuplicate)
		}
		return nil, err
	}
	s.audit.Record(ctx, actor, model.ActionSectionCreate, sec.ID.String(),
		fmt.Sprintf("%s %s %s", c.Code, sec.Year, sec.Name))

	resp := toSectionResponse(*sec)
	return &resp, nil
}

func (s *academicService) DeleteSection(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := s.repo.DeleteSection(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("section %s: %w", id, ErrNotFound)
		}
		return err
	}
	s.audit.Record(ctx, actor, model.ActionSectionDelete, id.String(), "")
	return nil
}

func (s *academicService) findCourse(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	return findCourse(ctx, s.repo, id)
}

func findCourse(ctx context.Context, repo repository.AcademicRepository, id uuid.UUID) (*model.Course, error) {
	c, err := repo.FindCourse(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("course %s: %w", id, ErrNotFound)
	}
	return c, err
}

// ── Fee structure ─────────────────────────────────────────────────────────────

// FeeStructureService manages the fee heads of each course year and pushes
// their total onto the students enrolled in it.
type FeeStructureService interface {
	Get(ctx context.Context, courseID uuid.UUID, year string) (*dto.FeeStructureResponse, error)
	AddHead(ctx context.Context, actor Actor, req dto.CreateFeeHeadRequest) (*dto.FeeHeadResponse, error)
	UpdateHead(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateFeeHeadRequest) (*dto.FeeHeadResponse, error)
	DeleteHead(ctx context.Context, actor Actor, id uuid.UUID) error
	// Apply sets the total fee of every active student of the course year,
	// matched on the course code or name, to the sum of its heads.
	Apply(ctx context.Context, actor Actor, req dto.ApplyFeeStructureRequest) (*dto.ApplyFeeStructureResponse, error)
}

type feeStructureService struct {
	repo     repository.AcademicRepository
	students repository.StudentRepository
	audit    AuditService
}

func NewFeeStructureService(repo repository.AcademicRepository, students repository.StudentRepository, audit AuditService) FeeStructureService {
	return &feeStructureService{repo: repo, students: students, audit: audit}
}

func (s *feeStructureService) Get(ctx context.Context, courseID uuid.UUID, year string) (*dto.FeeStructureResponse, error) {
	c, err := findCourse(ctx, s.repo, courseID)
	if err != nil {
		return nil, err
	}
	year = strings.TrimSpace(year)
	heads, err := s.repo.ListFeeHeads(ctx, c.ID, year)
	if err != nil {
		return nil, err
	}
	resp := &dto.FeeStructureResponse{
		Course: toCourseResponse(*c),
		Year:   year,
		Heads:  make([]dto.FeeHeadResponse, len(heads)),
		Total:  model.FeeTotal(heads),
	}
	for i, h := range heads {
		resp.Heads[i] = toFeeHeadResponse(h)
	}
	return resp, nil
}

func (s *feeStructureService) AddHead(ctx context.Context, actor Actor, req dto.CreateFeeHeadRequest) (*dto.FeeHeadResponse, error) {
	if err := checkHeadAmount(req.Amount); err != nil {
		return nil, err
	}
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("course %q: %w", req.CourseID, ErrNotFound)
	}
	c, err := findCourse(ctx, s.repo, courseID)
	if err != nil {
		return nil, err
	}
	h := &model.FeeHead{
		ID:       uuid.New(),
		CourseID: c.ID,
		Year:     strings.TrimSpace(req.Year),
		Name:     strings.TrimSpace(req.Name),
		Amount:   req.Amount.Round(2),
	}
	if err := s.repo.CreateFeeHead(ctx, h); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("fee head %q for %s %s: %w", h.Name, c.Code, h.Year, ErrDuplicate)
		}
		return nil, err
	}
	s.audit.Record(ctx, actor, model.ActionFeeHeadCreate, h.ID.String(),
		fmt.Sprintf("%s %s %s=%s", c.Code, h.Year, h.Name, h.Amount.StringFixed(2)))

	resp := toFeeHeadResponse(*h)
	return &resp, nil
}

func (s *feeStructureService) UpdateHead(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateFeeHeadRequest) (*dto.FeeHeadResponse, error) {
	h, err := s.repo.FindFeeHead(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("fee head %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var changed []string
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != h.Name {
			h.Name = name
			changed = append(changed, "name")
		}
	}
	if req.Amount != nil {
		if err := checkHeadAmount(*req.Amount); err != nil {
			return nil, err
		}
		if amount := req.Amount.Round(2); !amount.Equal(h.Amount) {
			h.Amount = amount
			changed = append(changed, "amount")
		}
	}

	if len(changed) > 0 {
		if err := s.repo.UpdateFeeHead(ctx, h); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, fmt.Errorf("fee head %q: %w", h.Name, ErrDuplicate)
			}
			return nil, err
		}
		s.audit.Record(ctx, actor, model.ActionFeeHeadUpdate, h.ID.String(), strings.Join(changed, ","))
	}
	resp := toFeeHeadResponse(*h)
	return &resp, nil
}

func (s *feeStructureService) DeleteHead(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := s.repo.DeleteFeeHead(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("fee head %s: %w", id, ErrNotFound)
		}
		return err
	}
	s.audit.Record(ctx, actor, model.ActionFeeHeadDelete, id.String(), "")
	return nil
}

func (s *feeStructureService) Apply(ctx context.Context, actor Actor, req dto.ApplyFeeStructureRequest) (*dto.ApplyFeeStructureResponse, error) {
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("course %q: %w", req.CourseID, ErrNotFound)
	}
	c, err := findCourse(ctx, s.repo, courseID)
	if err != nil {
		return nil, err
	}
	year := strings.TrimSpace(req.Year)
	total, err := structureTotal(ctx, s.repo, *c, year)
	if err != nil {
		return nil, err
	}

	n, err := s.students.SetTotalFee(ctx, []string{c.Code, c.Name}, year, total)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor, model.ActionFeeStructureApply, c.Code,
		fmt.Sprintf("year=%s total=%s students=%d", year, total.StringFixed(2), n))

	return &dto.ApplyFeeStructureResponse{
		Course:          c.Code,
		Year:            year,
		TotalFee:        total,
		StudentsUpdated: n,
	}, nil
}

// structureTotal sums the fee heads of a course year. A course year without
// heads, or whose heads overflow a student's total fee, has no usable total.
func structureTotal(ctx context.Context, repo repository.AcademicRepository, c model.Course, year string) (decimal.Decimal, error) {
	heads, err := repo.ListFeeHeads(ctx, c.ID, year)
	if err != nil {
		return decimal.Zero, err
	}
	total := model.FeeTotal(heads)
	if !total.IsPositive() {
		return decimal.Zero, fmt.Errorf("no fee heads for %s %s: %w", c.Code, year, ErrInvalidAmount)
	}
	if total.GreaterThan(model.MaxAmount) {
		return decimal.Zero, fmt.Errorf("fee structure of %s %s exceeds %s: %w",
			c.Code, year, model.MaxAmount.StringFixed(2), ErrInvalidAmount)
	}
	return total, nil
}

func checkHeadAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || amount.GreaterThan(model.MaxAmount) {
		return fmt.Errorf("fee head amount %s: %w", amount.String(), ErrInvalidAmount)
	}
	return nil
}
