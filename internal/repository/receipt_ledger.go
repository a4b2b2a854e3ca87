package repository

import (
	"context"
	"iter"
	"strings"

	"feedesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StudentQuery selects a student's receipts by id or by roll number.
// When both are set the id wins.
type StudentQuery struct {
	StudentID  uuid.UUID
	RollNumber string
}

// ModeTotal is the ledger aggregate for one payment mode.
type ModeTotal struct {
	Mode   model.PaymentMode `json:"mode"`
	Count  int64             `json:"count"`
	Amount decimal.Decimal   `json:"amount"`
}

// DayTotal is the ledger aggregate for one session date.
type DayTotal struct {
	Date   string          `json:"date"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// ReceiptLedger is the append-only receipt store. It has no update or delete.
type ReceiptLedger interface {
	// NextSerial allocates the next receipt serial for year inside tx.
	NextSerial(ctx context.Context, tx *gorm.DB, year int) (int64, error)
	Append(ctx context.Context, tx *gorm.DB, r *model.Receipt) error
	FindByReceiptNo(ctx context.Context, no string) (*model.Receipt, error)
	// FindByStudent yields receipts in insertion order. Each range re-runs the query.
	FindByStudent(ctx context.Context, q StudentQuery) iter.Seq2[model.Receipt, error]
	// Search matches student name, roll number or receipt number, newest first.
	Search(ctx context.Context, term string, limit int) ([]model.Receipt, error)
	// SumByMode aggregates receipts whose session date lies in [from, to].
	SumByMode(ctx context.Context, tx *gorm.DB, from, to string) ([]ModeTotal, error)
	SumByStudent(ctx context.Context, studentID uuid.UUID) (decimal.Decimal, error)
	SumByStudents(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	DailyTotals(ctx context.Context, from, to string) ([]DayTotal, error)
}

type receiptLedger struct{ db *gorm.DB }

func NewReceiptLedger(db *gorm.DB) ReceiptLedger { return &receiptLedger{db: db} }

func (r *receiptLedger) NextSerial(ctx context.Context, tx *gorm.DB, year int) (int64, error) {
	q := conn(ctx, r.db, tx)
	if err := q.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.ReceiptCounter{Year: year}).Error; err != nil {
		return 0, translate(err)
	}

	var c model.ReceiptCounter
	if err := q.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("year = ?", year).First(&c).Error; err != nil {
		return 0, translate(err)
	}
	c.Last++
	if err := q.Model(&model.ReceiptCounter{}).
		Where("year = ?", year).Update("last", c.Last).Error; err != nil {
		return 0, err
	}
	return c.Last, nil
}

func (r *receiptLedger) Append(ctx context.Context, tx *gorm.DB, rec *model.Receipt) error {
	return translate(conn(ctx, r.db, tx).Create(rec).Error)
}

func (r *receiptLedger) FindByReceiptNo(ctx context.Context, no string) (*model.Receipt, error) {
	var rec model.Receipt
	err := r.db.WithContext(ctx).Where("receipt_no = ?", strings.TrimSpace(no)).First(&rec).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (r *receiptLedger) FindByStudent(ctx context.Context, sq StudentQuery) iter.Seq2[model.Receipt, error] {
	return func(yield func(model.Receipt, error) bool) {
		q := r.db.WithContext(ctx).Model(&model.Receipt{})
		if sq.StudentID != uuid.Nil {
			q = q.Where("student_id = ?", sq.StudentID)
		} else {
			q = q.Where("roll_number = ?", strings.TrimSpace(sq.RollNumber))
		}

		rows, err := q.Order("created_at ASC, serial ASC").Rows()
		if err != nil {
			yield(model.Receipt{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var rec model.Receipt
			if err := r.db.ScanRows(rows, &rec); err != nil {
				yield(model.Receipt{}, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(model.Receipt{}, err)
		}
	}
}

func (r *receiptLedger) Search(ctx context.Context, term string, limit int) ([]model.Receipt, error) {
	var out []model.Receipt
	_, size := Paginate(1, limit)
	like := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(student_name) LIKE ? OR LOWER(roll_number) LIKE ? OR LOWER(receipt_no) LIKE ?", like, like, like).
		Order("created_at DESC").
		Limit(size).
		Find(&out).Error
	return out, err
}

func (r *receiptLedger) SumByMode(ctx context.Context, tx *gorm.DB, from, to string) ([]ModeTotal, error) {
	var rows []ModeTotal
	err := conn(ctx, r.db, tx).Model(&model.Receipt{}).
		Select("mode, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount").
		Where("session_date BETWEEN ? AND ?", from, to).
		Group("mode").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return FillModes(rows), nil
}

func (r *receiptLedger) SumByStudent(ctx context.Context, studentID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.Receipt{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("student_id = ?", studentID).
		Scan(&sum).Error
	return sum, err
}

func (r *receiptLedger) SumByStudents(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		StudentID uuid.UUID
		Amount    decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&model.Receipt{}).
		Select("student_id, COALESCE(SUM(amount), 0) AS amount").
		Where("student_id IN ?", ids).
		Group("student_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.StudentID] = row.Amount
	}
	return out, nil
}

func (r *receiptLedger) DailyTotals(ctx context.Context, from, to string) ([]DayTotal, error) {
	var rows []DayTotal
	err := r.db.WithContext(ctx).Model(&model.Receipt{}).
		Select("session_date AS date, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount").
		Where("session_date BETWEEN ? AND ?", from, to).
		Group("session_date").
		Order("session_date ASC").
		Scan(&rows).Error
	return rows, err
}

// FillModes returns one entry per payment mode in display order, zero-filled.
func FillModes(rows []ModeTotal) []ModeTotal {
	byMode := make(map[model.PaymentMode]ModeTotal, len(rows))
	for _, row := range rows {
		byMode[row.Mode] = row
	}
	out := make([]ModeTotal, 0, len(model.PaymentModes))
	for _, m := range model.PaymentModes {
		t, ok := byMode[m]
		if !ok {
			t = ModeTotal{Mode: m, Amount: decimal.Zero}
		}
		out = append(out, t)
	}
	return out
}
