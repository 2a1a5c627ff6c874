// Package apperr defines the error kinds surfaced at the HTTP and MCP boundaries.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches every not_found kind via errors.Is.
var ErrNotFound = errors.New("not found")

// Kind classifies an application error.
type Kind string

const (
	KindConfiguration Kind = "configuration" // 500
	KindEnvironment   Kind = "environment"   // 403
	KindValidation    Kind = "validation"    // 400
	KindRateLimited   Kind = "rate_limited"  // 429
	KindUpstream      Kind = "upstream"      // upstream status
	KindNotFound      Kind = "not_found"     // 404
	KindInternal      Kind = "internal"      // 500
)

// User-facing messages.
const (
	msgEnvironment   = "글 작성은 개발 환경에서만 가능합니다."
	msgConfiguration = "GitHub 설정이 올바르지 않습니다."
	msgRateLimited   = "GitHub API 요청 한도 초과. 잠시 후 다시 시도해주세요."
	msgInternal      = "서버 내부 오류가 발생했습니다."
)

// Error is a classified error carrying the status code and the message shown
// to the caller. Err holds the underlying cause, if any.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) match not-found kinds.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Kind == KindNotFound
}

// Environment rejects publishing outside the allowed runtime mode.
func Environment() *Error {
	return &Error{Kind: KindEnvironment, Status: http.StatusForbidden, Message: msgEnvironment}
}

// Configuration reports missing repository coordinates or credentials.
func Configuration(err error) *Error {
	return &Error{Kind: KindConfiguration, Status: http.StatusInternalServerError, Message: msgConfiguration, Err: err}
}

// Validation reports a malformed submission.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: msg}
}

// Validationf is Validation with formatting.
func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

// RateLimited reports an exhausted storage API quota.
func RateLimited(err error) *Error {
	return &Error{Kind: KindRateLimited, Status: http.StatusTooManyRequests, Message: msgRateLimited, Err: err}
}

// Upstream reports any other storage API failure, keeping its status.
func Upstream(status int, msg string, err error) *Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return &Error{Kind: KindUpstream, Status: status, Message: "GitHub API 오류: " + msg, Err: err}
}

// NotFound reports a missing resource.
func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: what + " not found"}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: msgInternal, Err: err}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// StatusOf returns the HTTP status for err, 500 when unclassified.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the caller-safe message for err. Unclassified errors get
// the generic internal message so no internals leak.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return msgInternal
}
