package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Course is a programme or stream students enrol in, e.g. CSE "B.Tech CSE".
// Students refer to a course by its code or its name.
type Course struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code      string    `gorm:"type:varchar(20);uniqueIndex;not null"`
	Name      string    `gorm:"type:varchar(80);not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Matches reports whether a student's course text names c.
func (c Course) Matches(ref string) bool {
	ref = strings.TrimSpace(ref)
	return strings.EqualFold(ref, c.Code) || strings.EqualFold(ref, c.Name)
}

// Section is one class of a course in a study year.
type Section struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sections_course_year_name"`
	Year      string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_sections_course_year_name"`
	Name      string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_sections_course_year_name"`
	CreatedAt time.Time
}

// FeeHead is one line of the fee structure of a course year, e.g. Tuition Fee.
// A student's total fee is the sum of the heads of their course and year.
type FeeHead struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CourseID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_fee_heads_course_year_name"`
	Year      string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_fee_heads_course_year_name"`
	Name      string          `gorm:"type:varchar(80);not null;uniqueIndex:idx_fee_heads_course_year_name"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FeeTotal sums the amounts of heads.
func FeeTotal(heads []FeeHead) decimal.Decimal {
	total := decimal.Zero
	for _, h := range heads {
		total = total.Add(h.Amount)
	}
	return total
}
