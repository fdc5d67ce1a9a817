package services

import (
	"context"

	"go.uber.org/zap"

	"admin-system/internal/dto"
	"admin-system/internal/repositories"
	"admin-system/pkg/constants"
	apperrors "admin-system/pkg/errors"
	"admin-system/pkg/service"
	"admin-system/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO, clientIP string) (*dto.TokenPairDTO, error)
	Refresh(ctx context.Context, refreshToken string, clientIP string) (*dto.TokenPairDTO, error)
	Me(ctx context.Context, userID string) (*dto.UserDTO, error)
}

type AuthService struct {
	userRepository repositories.UserRepositoryInterface
	jwtService     service.JWTService
	logger         *zap.Logger
}

func NewAuthService(
	userRepository repositories.UserRepositoryInterface,
	jwtService service.JWTService,
	logger *zap.Logger,
) AuthServiceInterface {
	return &AuthService{
		userRepository: userRepository,
		jwtService:     jwtService,
		logger:         logger,
	}
}

// Login checks credentials, records the login, and issues a token pair.
// A missing user and a wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO, clientIP string) (*dto.TokenPairDTO, error) {
	user, err := s.userRepository.FindUserByUsername(ctx, payload.Username)
	if err != nil {
		s.logger.Debug("login failed: user not found", zap.String("username", payload.Username))
		return nil, apperrors.ErrInvalidCredentials
	}
	if !utils.CheckPassword(user.Password, payload.Password) {
		s.logger.Debug("login failed: wrong password", zap.String("username", payload.Username))
		return nil, apperrors.ErrInvalidCredentials
	}
	if user.UserStatus != constants.UserStatusActive {
		return nil, apperrors.ErrForbidden
	}

	if err := s.userRepository.UpdateLastLogin(ctx, user.ID, clientIP, constants.LoginTypePassword); err != nil {
		s.logger.Warn("failed to record login", zap.String("id", user.ID), zap.Error(err))
	}

	access, refresh, err := s.jwtService.GenerateTokens(user.ID, user.IsSuperuser)
	if err != nil {
		s.logger.Error("failed to issue tokens", zap.Error(err))
		return nil, err
	}
	s.logger.Info("user logged in", zap.String("id", user.ID), zap.String("username", user.Username))

	return &dto.TokenPairDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwtService.GetAccessTokenTTL().Seconds()),
		User:         userToDTO(user),
	}, nil
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, clientIP string) (*dto.TokenPairDTO, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrTokenIsNotRefresh
	}

	user, err := s.userRepository.FindUser(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	if user.UserStatus != constants.UserStatusActive {
		return nil, apperrors.ErrForbidden
	}

	if err := s.userRepository.UpdateLastLogin(ctx, user.ID, clientIP, constants.LoginTypeRefresh); err != nil {
		s.logger.Warn("failed to record login", zap.String("id", user.ID), zap.Error(err))
	}

	access, refresh, err := s.jwtService.GenerateTokens(user.ID, user.IsSuperuser)
	if err != nil {
		return nil, err
	}
	return &dto.TokenPairDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwtService.GetAccessTokenTTL().Seconds()),
		User:         userToDTO(user),
	}, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*dto.UserDTO, error) {
	user, err := s.userRepository.FindUser(ctx, userID)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	result := userToDTO(user)
	return &result, nil
}
