// Package apperror defines the error taxonomy shared by all layers.
//
// WHY SENTINEL ERRORS + A STRUCT?
// Sentinel errors (ErrValidation, ErrAuth, ...) give callers something stable to
// match with errors.Is(), no matter how many times the error has been wrapped with
// fmt.Errorf("...: %w", err) on its way up. The AppError struct carries the
// human-readable message (and, for duplicates, the field that collided) alongside
// the sentinel, extractable with errors.As().
//
// The HTTP layer maps these to status codes in handler/response.go:
//
//	ErrValidation → 400    ErrAuth → 401    ErrNotFound → 404
//	ErrDuplicate  → 409    ErrInternal → 500
//
// The service layer never imports net/http — it speaks only this taxonomy.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing caller input. Always the caller's
	// fault; raised before any storage or hashing work happens.
	ErrValidation = errors.New("validation error")

	// ErrDuplicate marks a uniqueness violation on username or email.
	// The AppError's Field says which one collided.
	ErrDuplicate = errors.New("duplicate")

	// ErrAuth marks rejected credentials or tokens. Messages under this sentinel
	// are deliberately low-information to avoid account enumeration.
	ErrAuth = errors.New("unauthorized")

	// ErrNotFound marks a lookup that matched no record.
	ErrNotFound = errors.New("not found")

	// ErrInternal marks storage or hashing subsystem failures. The raw cause is
	// for operators (logs), never for end users.
	ErrInternal = errors.New("internal error")
)

// AppError is the typed error carried under the sentinels above.
type AppError struct {
	Err     error  // sentinel this error belongs to
	Message string // human-readable, safe to show verbatim except for ErrInternal
	Field   string // optional: the input field involved (validation/duplicate)
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is walk from a wrapped AppError down to its sentinel.
func (e *AppError) Unwrap() error {
	return e.Err
}

// ValidationFailed reports bad input on the given field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Duplicate reports a uniqueness collision on the given field ("username" or
// "email"). The message matches what the API returns, e.g. "Username already exists".
func Duplicate(field string) *AppError {
	return &AppError{
		Err:     ErrDuplicate,
		Message: fmt.Sprintf("%s already exists", capitalize(field)),
		Field:   field,
	}
}

// Unauthorized reports a rejected credential or token with the given message.
// Callers pick the message carefully: "Invalid credentials" is shared by the
// unknown-email and wrong-password paths on purpose.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrAuth,
		Message: message,
	}
}

// NotFound reports a missing record.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// Internal reports a subsystem failure. The cause is preserved in the error chain
// for logging; Message stays generic so it is safe to surface.
func Internal(cause error) *AppError {
	return &AppError{
		Err:     errors.Join(ErrInternal, cause),
		Message: "An internal error occurred",
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
