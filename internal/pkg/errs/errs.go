/*
Package errs provides the application's error registry.

This file defines the CustomError struct, which implements the standard Go error
interface and carries the machine-readable wire code together with the HTTP status
the entry point must answer with.
*/
package errs

import (
	"fmt"
	"net/http"

	"peertoken/internal/pkg/logx"
)

// CustomError is the error structure used throughout the application.
// Code is the exact string returned to clients in the "error" field; Message is a
// server-side description that never reaches the wire.
type CustomError struct {
	// Code is the machine-readable error code (see constants definition).
	Code string

	// Message is the internal, log-friendly error description.
	Message string

	// Status is the HTTP status code corresponding to this error.
	Status int
}

// Error implements the standard Go error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("%s (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError constructs a new *CustomError instance from a registered error code.
// If an unknown code is provided, it falls back to CodeTokenGenerationFailed so
// the caller still fails closed with an opaque 500.
func NewError(code string) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with a code missing from errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		fallback := errorMap[CodeTokenGenerationFailed]
		return &fallback
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusInternalServerError
	}

	return &customErr
}
