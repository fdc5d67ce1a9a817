package utils

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"admin-system/pkg/contextkeys"
	apperrors "admin-system/pkg/errors"
)

func GetUserIDFromCtx(ctx context.Context) (string, error) {
	id, ok := ctx.Value(contextkeys.UserIDKey).(string)
	if !ok || id == "" {
		return "", apperrors.ErrUserIDNotFoundInContext
	}
	return id, nil
}

// IsSuperuserFromCtx reports the superuser flag carried by the access
// token; false when the flag is absent.
func IsSuperuserFromCtx(ctx context.Context) bool {
	flag, ok := ctx.Value(contextkeys.IsSuperuserKey).(bool)
	return ok && flag
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
