package utils

import (
	"net/http"

	apperrors "admin-system/pkg/errors"
)

// ErrorList maps sentinel errors to the HTTP status they answer with.
var ErrorList = map[error]int{
	apperrors.ErrNotFound:         http.StatusNotFound,
	apperrors.ErrParentNotFound:   http.StatusNotFound,
	apperrors.ErrBadRequest:       http.StatusBadRequest,
	apperrors.ErrProtectedUser:    http.StatusBadRequest,
	apperrors.ErrUsernameTaken:    http.StatusBadRequest,
	apperrors.ErrEmailTaken:       http.StatusBadRequest,
	apperrors.ErrMobileTaken:      http.StatusBadRequest,
	apperrors.ErrDeptHasChildren:  http.StatusBadRequest,
	apperrors.ErrDeptHasUsers:     http.StatusBadRequest,
	apperrors.ErrDeptCycle:        http.StatusBadRequest,
	apperrors.ErrWrongOldPassword: http.StatusBadRequest,

	apperrors.ErrInvalidCredentials: http.StatusUnauthorized,
	apperrors.ErrUnauthorized:       http.StatusUnauthorized,
	apperrors.ErrEmptyAuthHeader:    http.StatusUnauthorized,
	apperrors.ErrInvalidAuthHeader:  http.StatusUnauthorized,
	apperrors.ErrInvalidToken:       http.StatusUnauthorized,
	apperrors.ErrTokenExpired:       http.StatusUnauthorized,
	apperrors.ErrTokenIsNotRefresh:  http.StatusUnauthorized,
	apperrors.ErrTokenIsNotAccess:   http.StatusUnauthorized,

	apperrors.ErrForbidden: http.StatusForbidden,
}
