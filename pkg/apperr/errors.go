// Package apperr defines the error kinds surfaced to callers and the
// sentinel conditions used internally to tell failures apart in logs.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind is the tag a caller sees on a failed call.
type Kind string

const (
	KindInvalidArgument  Kind = "invalid-argument"
	KindNotFound         Kind = "not-found"
	KindDeadlineExceeded Kind = "deadline-exceeded"
	KindInternal         Kind = "internal"
)

// Sentinel errors for common failure conditions
var (
	ErrTimeout           = errors.New("operation timed out")
	ErrMalformedPayload  = errors.New("malformed upstream payload")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrDocumentExists    = errors.New("document already exists")
	ErrMissingAudioURL   = errors.New("document has no audio url")
	ErrToolNotInstalled  = errors.New("required tool not installed")
	ErrPayloadTooLarge   = errors.New("payload exceeds size limit")
	ErrMissingCredential = errors.New("credential not configured")
)

// Error is a caller-facing error carrying a kind tag.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func InvalidArgument(message string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: message}
}

func NotFound(message string, cause error) *Error {
	return &Error{Kind: KindNotFound, Message: message, Cause: cause}
}

func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

func DeadlineExceeded(message string, cause error) *Error {
	return &Error{Kind: KindDeadlineExceeded, Message: message, Cause: cause}
}

// KindOf returns the kind of err, or KindInternal for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps a kind to the status code used on the wire.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindDeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// IsTimeout reports whether err came from an expired deadline anywhere in
// its chain.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Surface converts a downstream failure into the error handed to callers.
// Tagged errors pass through, timeouts become deadline-exceeded and all
// other failures collapse into an opaque internal error.
func Surface(err error, message string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if IsTimeout(err) {
		return DeadlineExceeded(message, err)
	}
	return Internal(message, err)
}

// UpstreamError records a non-success response from an external service.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

// ProcessError represents an external tool failure
type ProcessError struct {
	Tool     string
	Stage    string
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed at %s (exit %d): %s", e.Tool, e.Stage, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s failed at %s (exit %d): %v", e.Tool, e.Stage, e.ExitCode, e.Cause)
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}

// Truncate shortens s to at most n bytes for inclusion in error messages.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
