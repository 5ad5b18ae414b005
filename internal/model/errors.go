package model

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const errorTypeBase = "https://ludoteca-api.forgo.software/errors/"

// ErrorCode is the machine-readable error code carried in problem details.
// The thousands digit groups codes by class.
type ErrorCode int

const (
	// Authentication (1xxx)
	ErrCodeUnauthorized ErrorCode = 1001
	ErrCodeTokenExpired ErrorCode = 1002
	ErrCodeTokenInvalid ErrorCode = 1003
	ErrCodeLoginFailed  ErrorCode = 1004

	// Authorization (2xxx)
	ErrCodeForbidden      ErrorCode = 2001
	ErrCodeAccountBlocked ErrorCode = 2002

	// Resources (3xxx)
	ErrCodeNotFound      ErrorCode = 3001
	ErrCodeAlreadyExists ErrorCode = 3002
	ErrCodeConflict      ErrorCode = 3003

	// Input (4xxx)
	ErrCodeValidation    ErrorCode = 4001
	ErrCodeInvalidInput  ErrorCode = 4002
	ErrCodeLimitExceeded ErrorCode = 4003
	ErrCodeRateLimited   ErrorCode = 4029

	// Internal (5xxx)
	ErrCodeInternal ErrorCode = 5001
	ErrCodeDatabase ErrorCode = 5002
)

// ProblemDetails is an RFC 9457 problem, sent inside the failure envelope
type ProblemDetails struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
	Code     ErrorCode    `json:"code,omitempty"`
	Limit    *int         `json:"limit,omitempty"`
	Current  *int         `json:"current,omitempty"`
}

// FieldError reports a problem with one request field, named as in JSON
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the failure envelope: {"success": false, "error": {...}}
type ErrorResponse struct {
	Success bool            `json:"success"`
	Error   *ProblemDetails `json:"error"`
}

func (p *ProblemDetails) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

// WithInstance sets the URI of the request that failed
func (p *ProblemDetails) WithInstance(uri string) *ProblemDetails {
	p.Instance = uri
	return p
}

// WriteJSON writes the problem inside the failure envelope
func (p *ProblemDetails) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Success: false, Error: p})
}

func problem(slug string, status int, code ErrorCode, detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   errorTypeBase + slug,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Code:   code,
	}
}

func NewUnauthorizedError(detail string) *ProblemDetails {
	return problem("unauthorized", http.StatusUnauthorized, ErrCodeUnauthorized, detail)
}

func NewForbiddenError(detail string) *ProblemDetails {
	return problem("forbidden", http.StatusForbidden, ErrCodeForbidden, detail)
}

// NewNotFoundError reports a missing resource by name, e.g. "rental"
func NewNotFoundError(resource string) *ProblemDetails {
	return problem("not-found", http.StatusNotFound, ErrCodeNotFound, resource+" not found")
}

// NewValidationError summarizes the first field error in Detail and lists
// all of them in Errors.
func NewValidationError(errs []FieldError) *ProblemDetails {
	detail := "One or more fields failed validation"
	switch {
	case len(errs) == 1:
		detail = errs[0].Field + ": " + errs[0].Message
	case len(errs) > 1:
		detail = fmt.Sprintf("%s: %s (and %d more errors)", errs[0].Field, errs[0].Message, len(errs)-1)
	}

	p := problem("validation", http.StatusUnprocessableEntity, ErrCodeValidation, detail)
	p.Title = "Validation Error"
	p.Errors = errs
	return p
}

// NewLimitExceededError reports a per-user cap, such as open rentals.
// limit and current are included when known (non-negative).
func NewLimitExceededError(resource string, limit, current int) *ProblemDetails {
	detail := "Maximum number of " + resource + " reached"
	p := problem("limit-exceeded", http.StatusUnprocessableEntity, ErrCodeLimitExceeded, detail)
	p.Title = "Limit Exceeded"
	if limit >= 0 {
		p.Detail = fmt.Sprintf("Maximum of %d %s reached", limit, resource)
		p.Limit = &limit
	}
	if current >= 0 {
		p.Current = &current
	}
	return p
}

func NewConflictError(detail string) *ProblemDetails {
	return problem("conflict", http.StatusConflict, ErrCodeConflict, detail)
}

// NewAlreadyExistsError reports a unique field clash (email, center or game name)
func NewAlreadyExistsError(detail string) *ProblemDetails {
	return problem("already-exists", http.StatusConflict, ErrCodeAlreadyExists, detail)
}

func NewInternalError(detail string) *ProblemDetails {
	if detail == "" {
		detail = "An unexpected error occurred"
	}
	return problem("internal", http.StatusInternalServerError, ErrCodeInternal, detail)
}

func NewBadRequestError(detail string) *ProblemDetails {
	return problem("bad-request", http.StatusBadRequest, ErrCodeInvalidInput, detail)
}

// NewPayloadTooLargeError reports a request body over limit bytes
func NewPayloadTooLargeError(limit int64) *ProblemDetails {
	return problem("payload-too-large", http.StatusRequestEntityTooLarge, ErrCodeInvalidInput,
		fmt.Sprintf("Request body exceeds %d bytes", limit))
}

func NewRateLimitError(retryAfter int) *ProblemDetails {
	return problem("rate-limited", http.StatusTooManyRequests, ErrCodeRateLimited,
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds", retryAfter))
}
