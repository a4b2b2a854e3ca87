package service

import "errors"

// Domain errors. Handlers map them onto HTTP status codes; callers match
// them with errors.Is since most are returned wrapped with context.
var (
	ErrAlreadyOpen        = errors.New("session already open")
	ErrAlreadyClosed      = errors.New("session for this date was already closed")
	ErrSessionClosed      = errors.New("session is closed")
	ErrNoOpenSession      = errors.New("no open session")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInvalidMode        = errors.New("payment mode must be one of Cash, Card, UPI, Cheque")
	ErrInvalidDate        = errors.New("invalid date")
	ErrRemarksRequired    = errors.New("critical variance: closing remarks are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidRole        = errors.New("role must be one of admin, principal, cashier")
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("already exists")
)
