package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"admin-system/internal/dto"
	"admin-system/pkg/constants"
	apperrors "admin-system/pkg/errors"
	"admin-system/pkg/service"
)

func newAuthTestService() (AuthServiceInterface, *fakeUserRepo) {
	userRepo := newFakeUserRepo()
	jwtSvc := service.NewJWTService("test-secret", time.Minute*30, time.Hour*24, zap.NewNop())
	return NewAuthService(userRepo, jwtSvc, zap.NewNop()), userRepo
}

func TestLogin(t *testing.T) {
	svc, userRepo := newAuthTestService()
	ctx := context.Background()

	user := newTestUser("alice")
	_, err := userRepo.CreateUser(ctx, user)
	require.NoError(t, err)

	tokens, err := svc.Login(ctx, dto.LoginDTO{Username: "alice", Password: "secret123"}, "10.0.0.5")
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, int64((time.Minute * 30).Seconds()), tokens.ExpiresIn)
	assert.Equal(t, "alice", tokens.User.Username)

	// Login is recorded.
	stored, err := userRepo.FindUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.LastLogin.Valid)
	assert.Equal(t, "10.0.0.5", stored.LastLoginIP.String)
	assert.Equal(t, constants.LoginTypePassword, stored.LastLoginType.String)
}

func TestLoginFailures(t *testing.T) {
	svc, userRepo := newAuthTestService()
	ctx := context.Background()

	user := newTestUser("alice")
	_, err := userRepo.CreateUser(ctx, user)
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginDTO{Username: "alice", Password: "wrong"}, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, dto.LoginDTO{Username: "nobody", Password: "secret123"}, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	disabled := newTestUser("bob")
	disabled.UserStatus = constants.UserStatusDisabled
	_, err = userRepo.CreateUser(ctx, disabled)
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginDTO{Username: "bob", Password: "secret123"}, "")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestRefresh(t *testing.T) {
	svc, userRepo := newAuthTestService()
	ctx := context.Background()

	user := newTestUser("alice")
	_, err := userRepo.CreateUser(ctx, user)
	require.NoError(t, err)

	tokens, err := svc.Login(ctx, dto.LoginDTO{Username: "alice", Password: "secret123"}, "")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, tokens.RefreshToken, "10.0.0.9")
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// An access token cannot be used as a refresh token.
	_, err = svc.Refresh(ctx, tokens.AccessToken, "")
	assert.ErrorIs(t, err, apperrors.ErrTokenIsNotRefresh)

	_, err = svc.Refresh(ctx, "garbage", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestMe(t *testing.T) {
	svc, userRepo := newAuthTestService()
	ctx := context.Background()

	user := newTestUser("alice")
	_, err := userRepo.CreateUser(ctx, user)
	require.NoError(t, err)

	profile, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)

	_, err = svc.Me(ctx, "00000000-0000-0000-0000-0000000000ff")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
