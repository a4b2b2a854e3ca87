package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateCourseRequest struct {
	Code string `json:"code" validate:"required,max=20"`
	Name string `json:"name" validate:"required,min=2,max=80"`
}

type UpdateCourseRequest struct {
	Code   *string `json:"code"   validate:"omitempty,min=1,max=20"`
	Name   *string `json:"name"   validate:"omitempty,min=2,max=80"`
	Active *bool   `json:"active"`
}

type CreateSectionRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
	Year     string `json:"year"      validate:"required,max=20"`
	Name     string `json:"name"      validate:"required,max=10"`
}

type FeeStructureQuery struct {
	CourseID string `form:"course_id" validate:"required,uuid"`
	Year     string `form:"year"      validate:"required,max=20"`
}

type CreateFeeHeadRequest struct {
	CourseID string          `json:"course_id" validate:"required,uuid"`
	Year     string          `json:"year"      validate:"required,max=20"`
	Name     string          `json:"name"      validate:"required,min=2,max=80"`
	Amount   decimal.Decimal `json:"amount"    validate:"gt=0,lte=9999999999.99"`
}

type UpdateFeeHeadRequest struct {
	Name   *string          `json:"name" validate:"omitempty,min=2,max=80"`
	Amount *decimal.Decimal `json:"amount"`
}

// ApplyFeeStructureRequest sets the total fee of every active student of the
// course year to the sum of its fee heads.
type ApplyFeeStructureRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
	Year     string `json:"year"      validate:"required,max=20"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CourseResponse struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type SectionResponse struct {
	ID       string `json:"id"`
	CourseID string `json:"course_id"`
	Year     string `json:"year"`
	Name     string `json:"name"`
}

type FeeHeadResponse struct {
	ID       string          `json:"id"`
	CourseID string          `json:"course_id"`
	Year     string          `json:"year"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
}

type FeeStructureResponse struct {
	Course CourseResponse    `json:"course"`
	Year   string            `json:"year"`
	Heads  []FeeHeadResponse `json:"heads"`
	Total  decimal.Decimal   `json:"total"`
}

type ApplyFeeStructureResponse struct {
	Course          string          `json:"course"`
	Year            string          `json:"year"`
	TotalFee        decimal.Decimal `json:"total_fee"`
	StudentsUpdated int64           `json:"students_updated"`
}
