// Package apperr carries the error codes returned to API clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeBadRequest     = "BAD_REQUEST_ERROR"
	CodeNotFound       = "NOT_FOUND_ERROR"
	CodeInvalidVPA     = "INVALID_VPA"
	CodeInvalidCard    = "INVALID_CARD"
	CodeExpiredCard    = "EXPIRED_CARD"
	CodeInvalidMethod  = "INVALID_PAYMENT_METHOD"
	CodeInternal       = "INTERNAL_ERROR"
)

type Error struct {
	Code        string
	Description string
	Status      int
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Description, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code, description string) *Error {
	return &Error{Code: code, Description: description, Status: status}
}

func Wrap(code, description string, err error) *Error {
	return &Error{Code: code, Description: description, Status: statusFor(code), Err: err}
}

func Authentication(description string) *Error {
	return New(http.StatusUnauthorized, CodeAuthentication, description)
}

func BadRequest(description string) *Error {
	return New(http.StatusBadRequest, CodeBadRequest, description)
}

func NotFound(description string) *Error {
	return New(http.StatusNotFound, CodeNotFound, description)
}

func Validation(code, description string) *Error {
	return New(http.StatusBadRequest, code, description)
}

func Internal(err error) *Error {
	return Wrap(CodeInternal, "internal server error", err)
}

// From returns the coded error inside err, or an INTERNAL_ERROR wrapping it.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

func statusFor(code string) int {
	switch code {
	case CodeAuthentication:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
