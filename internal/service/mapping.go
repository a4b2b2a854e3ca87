package service

import (
	"time"

	"feedesk/internal/dto"
	"feedesk/internal/model"

	"github.com/shopspring/decimal"
)

func formatTime(t time.Time) string { return t.Format(time.RFC3339) }

func toSessionResponse(s model.DailySession, ledgerMismatch bool) dto.SessionResponse {
	resp := dto.SessionResponse{
		ID:                s.ID.String(),
		Date:              s.Date,
		OpenedBy:          s.OpenedBy,
		OpenedAt:          formatTime(s.OpenedAt),
		ClosedBy:          s.ClosedBy,
		IsOpen:            s.IsOpen,
		TotalTransactions: s.TotalTransactions,
		TotalAmount:       s.TotalAmount,
		CashAmount:        s.CashAmount,
		CardAmount:        s.CardAmount,
		UPIAmount:         s.UPIAmount,
		ChequeAmount:      s.ChequeAmount,
		ClosingRemarks:    s.ClosingRemarks,
		LedgerMismatch:    ledgerMismatch,
	}
	if s.ClosedAt != nil {
		t := formatTime(*s.ClosedAt)
		resp.ClosedAt = &t
	}
	if s.DeclaredCash != nil {
		d := dto.ModeAmounts{
			Cash:   derefDecimal(s.DeclaredCash),
			Card:   derefDecimal(s.DeclaredCard),
			UPI:    derefDecimal(s.DeclaredUPI),
			Cheque: derefDecimal(s.DeclaredCheque),
		}
		d.Total = d.Cash.Add(d.Card).Add(d.UPI).Add(d.Cheque)
		resp.Declared = &d
	}
	if s.Variance != nil && s.VariancePct != nil && s.VarianceClass != nil {
		resp.Variance = &dto.VarianceResponse{
			Amount:  *s.Variance,
			Percent: *s.VariancePct,
			Class:   *s.VarianceClass,
		}
	}
	return resp
}

func toReceiptResponse(r model.Receipt) dto.ReceiptResponse {
	return dto.ReceiptResponse{
		ID:          r.ID.String(),
		ReceiptNo:   r.ReceiptNo,
		StudentID:   r.StudentID.String(),
		StudentName: r.StudentName,
		RollNumber:  r.RollNumber,
		Amount:      r.Amount,
		Mode:        string(r.Mode),
		Remarks:     r.Remarks,
		CashierName: r.CashierName,
		SessionDate: r.SessionDate,
		CreatedAt:   formatTime(r.CreatedAt),
	}
}

func toStudentResponse(st model.Student, paid decimal.Decimal) dto.StudentResponse {
	pending := st.TotalFee.Sub(paid)
	if pending.IsNegative() {
		pending = decimal.Zero
	}
	return dto.StudentResponse{
		ID:             st.ID.String(),
		RollNumber:     st.RollNumber,
		Name:           st.Name,
		Course:         st.Course,
		Section:        st.Section,
		Year:           st.Year,
		TotalFee:       st.TotalFee,
		PaidAmount:     paid,
		PendingBalance: pending,
		FeeStatus:      model.FeeStatus(st.TotalFee, paid),
		ParentPhone:    st.ParentPhone,
		ParentEmail:    st.ParentEmail,
		Active:         st.Active,
	}
}

func toUserResponse(u model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		Active:   u.Active,
	}
}

func derefDecimal(p *decimal.Decimal) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	return *p
}

func toCourseResponse(c model.Course) dto.CourseResponse {
	return dto.CourseResponse{ID: c.ID.String(), Code: c.Code, Name: c.Name, Active: c.Active}
}

func toSectionResponse(s model.Section) dto.SectionResponse {
	return dto.SectionResponse{ID: s.ID.String(), CourseID: s.CourseID.String(), Year: s.Year, Name: s.Name}
}

func toFeeHeadResponse(h model.FeeHead) dto.FeeHeadResponse {
	return dto.FeeHeadResponse{
		ID:       h.ID.String(),
		CourseID: h.CourseID.String(),
		Year:     h.Year,
		Name:     h.Name,
		Amount:   h.Amount,
	}
}
