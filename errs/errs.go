// Package errs provides structured error types and helpers for the explorer services.
package errs

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// Code identifies an error category.
type Code string

const (
	// CodeInvalid indicates invalid input provided by the caller.
	CodeInvalid Code = "invalid_request"
	// CodeNotFound indicates a missing resource.
	CodeNotFound Code = "not_found"
	// CodeConflict indicates the target is not in a state that allows the operation.
	CodeConflict Code = "conflict"
	// CodeNetwork indicates a network transport failure.
	CodeNetwork Code = "network"
	// CodeRemote indicates a non-success response from a remote service.
	CodeRemote Code = "remote"
	// CodeImportFailed indicates an import payload could not be applied.
	CodeImportFailed Code = "import_failed"
	// CodeUnavailable indicates a backing store is temporarily unavailable.
	CodeUnavailable Code = "unavailable"
)

// E captures structured error information produced across the stack.
type E struct {
	Component string
	Code      Code
	HTTP      int
	Message   string
	Details   string

	cause error
}

// Option configures an error envelope.
type Option func(*E)

// New constructs an error envelope for the component and error code.
func New(component string, code Code, opts ...Option) *E {
	e := &E{
		Component: strings.TrimSpace(component),
		Code:      code,
		HTTP:      0,
		Message:   "",
		Details:   "",
		cause:     nil,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// WithMessage attaches a human-readable message to the error.
func WithMessage(message string) Option {
	trimmed := strings.TrimSpace(message)
	return func(e *E) {
		e.Message = trimmed
	}
}

// WithDetails attaches verbose diagnostic text, typically a remote response body.
func WithDetails(details string) Option {
	return func(e *E) {
		e.Details = details
	}
}

// WithHTTP records the associated HTTP status code.
func WithHTTP(status int) Option {
	return func(e *E) {
		e.HTTP = status
	}
}

// WithCause sets the underlying cause error.
func WithCause(err error) Option {
	return func(e *E) {
		e.cause = err
	}
}

func (e *E) Error() string {
	if e == nil {
		return "<nil>"
	}
	var parts []string

	component := strings.TrimSpace(e.Component)
	if component == "" {
		component = "unknown"
	}
	parts = append(parts, "component="+component)

	code := strings.TrimSpace(string(e.Code))
	if code == "" {
		code = "unknown"
	}
	parts = append(parts, "code="+code)

	if e.HTTP > 0 {
		parts = append(parts, "http="+strconv.Itoa(e.HTTP))
	}
	if e.Message != "" {
		parts = append(parts, "message="+strconv.Quote(e.Message))
	}
	if e.cause != nil {
		parts = append(parts, "cause="+strconv.Quote(e.cause.Error()))
	}
	return strings.Join(parts, " ")
}

func (e *E) Unwrap() error { return e.cause }

// Status returns the HTTP status associated with the envelope, deriving one from the code when unset.
func (e *E) Status() int {
	if e == nil {
		return http.StatusInternalServerError
	}
	if e.HTTP > 0 {
		return e.HTTP
	}
	switch e.Code {
	case CodeInvalid:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeNetwork, CodeRemote:
		return http.StatusBadGateway
	case CodeImportFailed:
		return http.StatusUnprocessableEntity
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// As extracts the envelope from err when present.
func As(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code carried by err, or an empty code when err is not an envelope.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return ""
}

// Invalid is shorthand for a validation failure with a single message.
func Invalid(component, message string) *E {
	return New(component, CodeInvalid, WithMessage(message))
}

// NotFound is shorthand for a missing resource.
func NotFound(component, message string) *E {
	return New(component, CodeNotFound, WithMessage(message))
}

// Conflict is shorthand for an operation refused by the current state of its target.
func Conflict(component, message string) *E {
	return New(component, CodeConflict, WithMessage(message))
}
