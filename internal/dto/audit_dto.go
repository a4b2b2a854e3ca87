package dto

type AuditFilter struct {
	Action   string `form:"action"`
	Username string `form:"username"`
	From     string `form:"from"  validate:"omitempty,datetime=2006-01-02"`
	To       string `form:"to"    validate:"omitempty,datetime=2006-01-02"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

type AuditLogResponse struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	UserID    string `json:"user_id,omitempty"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Action    string `json:"action"`
	RecordID  string `json:"record_id,omitempty"`
	Details   string `json:"details,omitempty"`
}

type AuditPage struct {
	Data  []AuditLogResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
