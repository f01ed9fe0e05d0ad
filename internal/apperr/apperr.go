// Package apperr is the error taxonomy shared by the OneServis services
// and its mapping onto HTTP responses.
package apperr

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/utilities"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindStorageUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindStorageUnavailable:
		return "storage_unavailable"
	default:
		return "internal"
	}
}

// Status is the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// FieldError names one offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries a kind, a client-facing message and optionally the
// underlying cause, which is never shown to clients in production.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Storage wraps a database failure. Connectivity problems are reported as
// KindStorageUnavailable, anything else as KindInternal.
func Storage(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	kind := KindInternal
	if isConnectivity(err) {
		kind = KindStorageUnavailable
	}
	return &Error{Kind: kind, Message: "storage error", Err: fmt.Errorf("%s: %w", op, err)}
}

// Internal wraps an unexpected failure.
func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf classifies err; unknown errors are internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if isConnectivity(err) {
		return KindStorageUnavailable
	}
	return KindInternal
}

func isConnectivity(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Body is the JSON error envelope.
type Body struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// Write renders err as a JSON error response. With debug set, the cause of
// 5xx errors is included in details.
func Write(w http.ResponseWriter, err error, debug bool) {
	kind := KindOf(err)
	body := Body{Error: "internal server error"}
	var ae *Error
	if errors.As(err, &ae) {
		body.Error = ae.Message
		if len(ae.Fields) > 0 {
			body.Details = ae.Fields
		}
	}
	if kind.Status() >= http.StatusInternalServerError {
		body.Error = "internal server error"
		if kind == KindStorageUnavailable {
			body.Error = "storage unavailable"
		}
		body.Details = nil
		if debug {
			body.Details = err.Error()
		}
	}
	utilities.WriteJSON(w, kind.Status(), body)
}
