// ABOUTME: Status-carrying error taxonomy surfaced to connector callers
// ABOUTME: BadRequest, Forbidden, NotFound constructors plus upstream error transformation
package models

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is an error with an HTTP-equivalent status attached. Anything
// the connector surfaces to a caller is either a StatusError or gets mapped
// to a generic 500 at the transport edge.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string { return e.Message }

// BadRequest builds a 400-class error for invalid caller input.
func BadRequest(format string, args ...any) error {
	return &StatusError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Forbidden builds a 403 error for credential or version mismatches.
func Forbidden(format string, args ...any) error {
	return &StatusError{Status: http.StatusForbidden, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a 404 error for absent resources.
func NotFound(format string, args ...any) error {
	return &StatusError{Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

// ErrorStatus extracts the status of err, defaulting to 500.
func ErrorStatus(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return http.StatusInternalServerError
}

// ErrorMessage extracts a caller-facing message from err.
func ErrorMessage(err error) string {
	if err == nil {
		return "Unknown Error"
	}
	return err.Error()
}
