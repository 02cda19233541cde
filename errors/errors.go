package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound           = fmt.Errorf("record not found")
	ErrNotAuthorized      = fmt.Errorf("caller is not allowed to perform this action")
	ErrValidation         = fmt.Errorf("invalid request")
	ErrUnsupportedMedia   = fmt.Errorf("unsupported media type")
	ErrPersistence        = fmt.Errorf("persistence failure")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
)

// MapToHTTPStatus translates domain sentinels into transport status codes.
// Anything unrecognized is a 500: persistence and unexpected failures look
// identical to the caller.
func MapToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation), errors.Is(err, ErrUnsupportedMedia), errors.Is(err, ErrInvalidPassword):
		return http.StatusBadRequest
	case errors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
