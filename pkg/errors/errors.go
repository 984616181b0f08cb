package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Standard sentinel errors for the storefront error taxonomy.
var (
	ErrAuthRequired   = errors.New("authentication required")
	ErrValidation     = errors.New("validation failed")
	ErrNetworkFailure = errors.New("network failure")
	ErrServerFailure  = errors.New("server failure")
	ErrFetchFailed    = errors.New("fetch failed")
	ErrUnsupported    = errors.New("operation not supported")
	ErrNotFound       = errors.New("resource not found")
)

// Error codes carried by AppError.
const (
	CodeAuthRequired   = "AUTH_REQUIRED"
	CodeValidation     = "VALIDATION_ERROR"
	CodeNetworkFailure = "NETWORK_FAILURE"
	CodeServerFailure  = "SERVER_FAILURE"
	CodeFetchFailed    = "FETCH_FAILED"
	CodeUnsupported    = "UNSUPPORTED"
	CodeNotFound       = "NOT_FOUND"
)

// AppError represents a structured storefront error. Fields holds field-keyed
// messages when the backend (or local validation) reported them.
type AppError struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Status  int                 `json:"-"`
	Fields  map[string][]string `json:"fields,omitempty"`
	Err     error               `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Messages returns every human-readable message held by the error: the main
// message followed by field messages in field-name order. non_field_errors and
// __all__ are rendered without a field prefix.
func (e *AppError) Messages() []string {
	var out []string
	if e.Message != "" {
		out = append(out, e.Message)
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, msg := range e.Fields[k] {
			if k == "" || k == "non_field_errors" || k == "__all__" {
				out = append(out, msg)
				continue
			}
			out = append(out, fmt.Sprintf("%s: %s", k, msg))
		}
	}
	return out
}

// AuthRequired creates an error for a 401/403 response.
func AuthRequired(status int, message string) *AppError {
	if message == "" {
		message = "please log in to continue"
	}
	return &AppError{
		Code:    CodeAuthRequired,
		Message: message,
		Status:  status,
		Err:     ErrAuthRequired,
	}
}

// Validation creates an error for a rejected request carrying field messages.
func Validation(status int, message string, fields map[string][]string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Status:  status,
		Fields:  fields,
		Err:     ErrValidation,
	}
}

// NetworkFailure wraps a transport error (connection refused, timeout, open circuit).
func NetworkFailure(err error) *AppError {
	return &AppError{
		Code:    CodeNetworkFailure,
		Message: "could not reach the store",
		Err:     fmt.Errorf("%w: %w", ErrNetworkFailure, err),
	}
}

// ServerFailure creates an error for a non-2xx response without specific handling.
func ServerFailure(status int, message string) *AppError {
	return &AppError{
		Code:    CodeServerFailure,
		Message: message,
		Status:  status,
		Err:     ErrServerFailure,
	}
}

// FetchFailed marks a failed cart fetch; cause keeps the underlying classification.
func FetchFailed(cause error) *AppError {
	status := 0
	var appErr *AppError
	if errors.As(cause, &appErr) {
		status = appErr.Status
	}
	return &AppError{
		Code:    CodeFetchFailed,
		Message: "could not load the cart",
		Status:  status,
		Err:     fmt.Errorf("%w: %w", ErrFetchFailed, cause),
	}
}

// Unsupported creates an error for an operation the backend does not offer.
func Unsupported(operation string) *AppError {
	return &AppError{
		Code:    CodeUnsupported,
		Message: fmt.Sprintf("%s is not supported by this store", operation),
		Err:     ErrUnsupported,
	}
}

// FromStatus classifies a non-2xx response into the taxonomy.
func FromStatus(status int, message string, fields map[string][]string) *AppError {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return AuthRequired(status, message)
	case status == http.StatusNotFound && len(fields) == 0:
		return &AppError{Code: CodeNotFound, Message: message, Status: status, Err: ErrNotFound}
	case status >= 400 && status < 500:
		return Validation(status, message, fields)
	default:
		if message == "" {
			message = fmt.Sprintf("store returned status %d", status)
		}
		return ServerFailure(status, message)
	}
}

// IsAuthRequired reports whether err (or anything it wraps) is an auth failure.
func IsAuthRequired(err error) bool {
	return errors.Is(err, ErrAuthRequired)
}

// UserMessage renders err for display. Network and server failures are shown
// generically; validation and auth errors keep the backend's own wording.
func UserMessage(err error, fallback string) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetworkFailure):
		return "Could not reach the store, please try again"
	case errors.Is(err, ErrServerFailure):
		return fallback
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		msgs := appErr.Messages()
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return fallback
}
