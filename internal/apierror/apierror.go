// Package apierror provides the error envelope for every 4xx/5xx response.
// Internal details (stack traces, SQL errors) never reach the client.
package apierror

// APIError is the canonical error envelope.
type APIError struct {
	Detail string `json:"detail"`
	// Code is a stable machine-readable kind, e.g. "session_closed".
	Code string `json:"code,omitempty"`
	// Redirect tells the SPA where to navigate, set on 401 responses.
	Redirect string `json:"redirect,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

func WithCode(code, msg string) *APIError {
	return &APIError{Detail: msg, Code: code}
}

// Unauthenticated is the 401 body: the identity is absent or no longer valid.
func Unauthenticated(msg, loginRoute string) *APIError {
	return &APIError{Detail: msg, Code: "unauthenticated", Redirect: loginRoute}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Code: "validation", Fields: fields}
}
