package web

import (
	"net/http"

	"github.com/pkg/errors"
)

// Error is used to pass an error during the request through the application
// with web specific context.
type Error struct {
	Err    error
	Status int
	Fields map[string]string
}

// NewRequestError wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewRequestError(err error, status int) error {
	return &Error{Err: err, Status: status}
}

func (err *Error) Error() string {
	if err.Err == nil {
		return http.StatusText(err.Status)
	}
	return err.Err.Error()
}

func (err *Error) Unwrap() error {
	return err.Err
}

// StatusOf reports the HTTP status carried by err, 500 for anything that is
// not a *Error.
func StatusOf(err error) int {
	var webErr *Error
	if errors.As(err, &webErr) && webErr.Status != 0 {
		return webErr.Status
	}
	return http.StatusInternalServerError
}
