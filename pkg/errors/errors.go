package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// JWT and tokens
	ErrInvalidSigningMethod = errors.New("invalid token signing method")
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token has expired")
	ErrTokenIsNotRefresh    = errors.New("token is not a refresh token")
	ErrTokenIsNotAccess     = errors.New("token is not an access token")

	// Authorization
	ErrEmptyAuthHeader    = errors.New("authorization header is missing")
	ErrInvalidAuthHeader  = errors.New("malformed authorization header")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")

	// Context
	ErrUserIDNotFoundInContext = errors.New("user id not found in request context")

	// Domain
	ErrNotFound         = errors.New("record not found")
	ErrBadRequest       = errors.New("bad request")
	ErrProtectedUser    = errors.New("system users and superadmins cannot be deleted or reset")
	ErrUsernameTaken    = errors.New("username is already in use")
	ErrEmailTaken       = errors.New("email is already in use")
	ErrMobileTaken      = errors.New("mobile number is already in use")
	ErrDeptHasChildren  = errors.New("department has child departments")
	ErrDeptHasUsers     = errors.New("department has assigned users")
	ErrDeptCycle        = errors.New("department cannot be moved under itself or its descendants")
	ErrParentNotFound   = errors.New("parent department not found")
	ErrWrongOldPassword = errors.New("old password does not match")
)

// HttpError carries an explicit HTTP status alongside the wrapped cause.
type HttpError struct {
	Code    int
	Message string
	Err     error
}

func (e *HttpError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err}
}

func NewBadRequestError(format string, args ...interface{}) *HttpError {
	return &HttpError{Code: http.StatusBadRequest, Message: fmt.Sprintf(format, args...), Err: ErrBadRequest}
}
