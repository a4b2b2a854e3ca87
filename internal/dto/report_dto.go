package dto

import "github.com/shopspring/decimal"

type ReportRange struct {
	From string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `form:"to"   validate:"omitempty,datetime=2006-01-02"`
}

type ModeTotal struct {
	Mode   string          `json:"mode"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type ModeWiseReport struct {
	From  string          `json:"from"`
	To    string          `json:"to"`
	Modes []ModeTotal     `json:"modes"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type DayTotal struct {
	Date   string          `json:"date"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type DailyReport struct {
	From  string          `json:"from"`
	To    string          `json:"to"`
	Days  []DayTotal      `json:"days"`
	Total decimal.Decimal `json:"total"`
}

type DashboardResponse struct {
	Students       int64            `json:"students"`
	TotalFees      decimal.Decimal  `json:"total_fees"`
	Collected      decimal.Decimal  `json:"collected"`
	Pending        decimal.Decimal  `json:"pending"`
	TodayCollected decimal.Decimal  `json:"today_collected"`
	TodayCount     int64            `json:"today_count"`
	ModeWise       []ModeTotal      `json:"mode_wise"`
	OpenSession    *SessionResponse `json:"open_session"`
}
