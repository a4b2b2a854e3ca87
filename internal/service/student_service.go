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

type StudentService interface {
	// Lookup finds active students by name or roll number for fee collection.
	Lookup(ctx context.Context, term string) ([]dto.StudentResponse, error)
	List(ctx context.Context, f dto.StudentFilter) (*dto.StudentPage, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.StudentDetail, error)
	Create(ctx context.Context, actor Actor, req dto.CreateStudentRequest) (*dto.StudentResponse, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateStudentRequest) (*dto.StudentResponse, error)
}

const lookupLimit = 10

type studentService struct {
	repo     repository.StudentRepository
	ledger   repository.ReceiptLedger
	academic repository.AcademicRepository
	audit    AuditService
}

func NewStudentService(repo repository.StudentRepository, ledger repository.ReceiptLedger,
	academic repository.AcademicRepository, audit AuditService) StudentService {
	return &studentService{repo: repo, ledger: ledger, academic: academic, audit: audit}
}

func (s *studentService) Lookup(ctx context.Context, term string) ([]dto.StudentResponse, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []dto.StudentResponse{}, nil
	}
	students, err := s.repo.Search(ctx, term, lookupLimit)
	if err != nil {
		return nil, err
	}
	return s.withPaid(ctx, students)
}

func (s *studentService) List(ctx context.Context, f dto.StudentFilter) (*dto.StudentPage, error) {
	students, total, err := s.repo.List(ctx, repository.StudentFilter{
		Query:  strings.TrimSpace(f.Query),
		Course: f.Course,
		Page:   f.Page,
		Limit:  f.Limit,
	})
	if err != nil {
		return nil, err
	}
	out, err := s.withPaid(ctx, students)
	if err != nil {
		return nil, err
	}
	_, limit := repository.Paginate(f.Page, f.Limit)
	return &dto.StudentPage{Data: out, Total: total, Page: max(f.Page, 1), Limit: limit}, nil
}

func (s *studentService) Get(ctx context.Context, id uuid.UUID) (*dto.StudentDetail, error) {
	st, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("student %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	paid := decimal.Zero
	receipts := []dto.ReceiptResponse{}
	for rec, err := range s.ledger.FindByStudent(ctx, repository.StudentQuery{StudentID: id}) {
		if err != nil {
			return nil, err
		}
		paid = paid.Add(rec.Amount)
		receipts = append(receipts, toReceiptResponse(rec))
	}
	return &dto.StudentDetail{
		StudentResponse: toStudentResponse(*st, paid),
		Receipts:        receipts,
	}, nil
}

func (s *studentService) Create(ctx context.Context, actor Actor, req dto.CreateStudentRequest) (*dto.StudentResponse, error) {
	fee := req.TotalFee.Round(2)
	if fee.IsZero() {
		var err error
		if fee, err = s.structureFee(ctx, req.Course, req.Year); err != nil {
			return nil, err
		}
	}
	if err := checkTotalFee(fee); err != nil {
		return nil, err
	}
	st := &model.Student{
		ID:          uuid.New(),
		RollNumber:  strings.ToUpper(strings.TrimSpace(req.RollNumber)),
		Name:        strings.TrimSpace(req.Name),
		Course:      strings.TrimSpace(req.Course),
		Section:     strings.TrimSpace(req.Section),
		Year:        strings.TrimSpace(req.Year),
		TotalFee:    fee,
		ParentPhone: strings.TrimSpace(req.ParentPhone),
		ParentEmail: strings.TrimSpace(req.ParentEmail),
		Active:      true,
	}
	if err := s.repo.Create(ctx, st); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("roll number %s: %w", st.RollNumber, ErrDuplicate)
		}
		return nil, err
	}
	s.audit.Record(ctx, actor, model.ActionStudentCreate, st.RollNumber, st.Name)

	resp := toStudentResponse(*st, decimal.Zero)
	return &resp, nil
}

func (s *studentService) Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateStudentRequest) (*dto.StudentResponse, error) {
	st, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("student %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var changed []string
	set := func(field string, dst *string, v *string) {
		if v != nil && strings.TrimSpace(*v) != *dst {
			*dst = strings.TrimSpace(*v)
			changed = append(changed, field)
		}
	}
	set("name", &st.Name, req.Name)
	set("course", &st.Course, req.Course)
	set("section", &st.Section, req.Section)
	set("year", &st.Year, req.Year)
	set("parent_phone", &st.ParentPhone, req.ParentPhone)
	set("parent_email", &st.ParentEmail, req.ParentEmail)
	if req.TotalFee != nil {
		if err := checkTotalFee(*req.TotalFee); err != nil {
			return nil, err
		}
		if fee := req.TotalFee.Round(2); !fee.Equal(st.TotalFee) {
			st.TotalFee = fee
			changed = append(changed, "total_fee")
		}
	}
	if req.Active != nil && *req.Active != st.Active {
		st.Active = *req.Active
		changed = append(changed, "active")
	}

	if len(changed) > 0 {
		if err := s.repo.Update(ctx, st); err != nil {
			return nil, err
		}
		s.audit.Record(ctx, actor, model.ActionStudentUpdate, st.RollNumber, strings.Join(changed, ","))
	}

	paid, err := s.ledger.SumByStudent(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	resp := toStudentResponse(*st, paid)
	return &resp, nil
}

// structureFee is the fee structure total of the course year a student
// enrols in. It stands in for a total fee the request left out.
func (s *studentService) structureFee(ctx context.Context, course, year string) (decimal.Decimal, error) {
	c, err := s.academic.FindCourseByRef(ctx, course)
	if errors.Is(err, repository.ErrNotFound) {
		return decimal.Zero, fmt.Errorf("total_fee is required: course %q has no fee structure: %w",
			strings.TrimSpace(course), ErrInvalidAmount)
	}
	if err != nil {
		return decimal.Zero, err
	}
	return structureTotal(ctx, s.academic, *c, strings.TrimSpace(year))
}

func checkTotalFee(fee decimal.Decimal) error {
	if !fee.IsPositive() || fee.GreaterThan(model.MaxAmount) {
		return fmt.Errorf("total fee %s: %w", fee.String(), ErrInvalidAmount)
	}
	return nil
}

func (s *studentService) withPaid(ctx context.Context, students []model.Student) ([]dto.StudentResponse, error) {
	ids := make([]uuid.UUID, len(students))
	for i, st := range students {
		ids[i] = st.ID
	}
	paid, err := s.ledger.SumByStudents(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StudentResponse, len(students))
	for i, st := range students {
		p, ok := paid[st.ID]
		if !ok {
			p = decimal.Zero
		}
		out[i] = toStudentResponse(st, p)
	}
	return out, nil
}
