package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"admin-system/internal/dto"
	"admin-system/internal/entities"
	"admin-system/internal/repositories"
	"admin-system/pkg/constants"
	apperrors "admin-system/pkg/errors"
	"admin-system/pkg/types"
	"admin-system/pkg/utils"
)

type UserServiceInterface interface {
	GetUsers(ctx context.Context, filter types.Filter) ([]dto.UserDTO, uint64, error)
	GetSimpleUsers(ctx context.Context, userStatus *int, deptID *string) ([]dto.ShortUserDTO, error)
	GetUsersForExport(ctx context.Context, filter types.Filter) ([]dto.UserDTO, error)
	FindUser(ctx context.Context, id string) (*dto.UserDTO, error)
	CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserDTO, error)
	UpdateUser(ctx context.Context, id string, payload dto.UpdateUserDTO) (*dto.UserDTO, error)
	UpdateProfile(ctx context.Context, id string, payload dto.UpdateProfileDTO) (*dto.UserDTO, error)
	GetSubordinates(ctx context.Context, id string) ([]dto.ShortUserDTO, error)
	DeleteUser(ctx context.Context, id string, hard bool) error
	BatchDeleteUsers(ctx context.Context, ids []string) (*dto.BatchDeleteUsersResultDTO, error)
	BatchUpdateStatus(ctx context.Context, payload dto.BatchUpdateUserStatusDTO) (*dto.BatchUpdateStatusResultDTO, error)
	ResetPassword(ctx context.Context, id string, newPassword *string) error
	ChangePassword(ctx context.Context, id string, payload dto.ChangePasswordDTO) error
	CheckUnique(ctx context.Context, field, value, excludeID string) (*dto.CheckUniqueResultDTO, error)
	ImportUsers(ctx context.Context, rows []dto.CreateUserDTO) (*dto.ImportResultDTO, error)
}

type UserService struct {
	userRepository    repositories.UserRepositoryInterface
	departmentService DepartmentServiceInterface
	resetPassword     string
	logger            *zap.Logger
}

func NewUserService(
	userRepository repositories.UserRepositoryInterface,
	departmentService DepartmentServiceInterface,
	resetPassword string,
	logger *zap.Logger,
) UserServiceInterface {
	return &UserService{
		userRepository:    userRepository,
		departmentService: departmentService,
		resetPassword:     resetPassword,
		logger:            logger,
	}
}

func formatNullTime(nt null.Time, layout string) *string {
	if !nt.Valid {
		return nil
	}
	v := nt.Time.Format(layout)
	return &v
}

func userToDTO(u *entities.User) dto.UserDTO {
	return dto.UserDTO{
		ID:                u.ID,
		Username:          u.Username,
		Name:              u.Name.Ptr(),
		Email:             u.Email.Ptr(),
		Mobile:            u.Mobile.Ptr(),
		Avatar:            u.Avatar.Ptr(),
		Gender:            u.Gender,
		GenderDisplay:     constants.GenderDisplay[u.Gender],
		UserType:          u.UserType,
		UserTypeDisplay:   constants.UserTypeDisplay[u.UserType],
		UserStatus:        u.UserStatus,
		UserStatusDisplay: constants.UserStatusDisplay[u.UserStatus],
		Birthday:          formatNullTime(u.Birthday, "2006-01-02"),
		City:              u.City.Ptr(),
		Address:           u.Address.Ptr(),
		Bio:               u.Bio.Ptr(),
		IsSuperuser:       u.IsSuperuser,
		DeptID:            u.DeptID.Ptr(),
		DeptName:          u.DeptName.Ptr(),
		ManagerID:         u.ManagerID.Ptr(),
		LastLogin:         formatNullTime(u.LastLogin, "2006-01-02 15:04:05"),
		LastLoginIP:       u.LastLoginIP.Ptr(),
		LastLoginType:     u.LastLoginType.Ptr(),
		Sort:              u.Sort,
		CreatedAt:         formatTime(u.CreatedAt),
		UpdatedAt:         formatTime(u.UpdatedAt),
	}
}

// resolveDeptScope expands a dept_id filter into the department plus all
// of its descendants, so listing a parent shows the whole branch.
func (s *UserService) resolveDeptScope(ctx context.Context, filter *types.Filter) ([]string, error) {
	raw, ok := filter.Filter["dept_id"]
	if !ok {
		return nil, nil
	}
	delete(filter.Filter, "dept_id")
	deptID, ok := raw.(string)
	if !ok || deptID == "" {
		return nil, apperrors.NewBadRequestError("dept_id filter must be a department id")
	}
	return s.departmentService.DescendantIDs(ctx, deptID)
}

func (s *UserService) GetUsers(ctx context.Context, filter types.Filter) ([]dto.UserDTO, uint64, error) {
	deptIDs, err := s.resolveDeptScope(ctx, &filter)
	if err != nil {
		return nil, 0, err
	}
	users, total, err := s.userRepository.GetUsers(ctx, filter, deptIDs)
	if err != nil {
		s.logger.Error("failed to list users", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.UserDTO, 0, len(users))
	for i := range users {
		result = append(result, userToDTO(&users[i]))
	}
	return result, total, nil
}

func (s *UserService) GetUsersForExport(ctx context.Context, filter types.Filter) ([]dto.UserDTO, error) {
	filter.WithPagination = false
	users, _, err := s.GetUsers(ctx, filter)
	return users, err
}

func usersToShortDTOs(users []entities.User) []dto.ShortUserDTO {
	result := make([]dto.ShortUserDTO, 0, len(users))
	for i := range users {
		u := &users[i]
		result = append(result, dto.ShortUserDTO{
			ID:       u.ID,
			Username: u.Username,
			Name:     u.Name.Ptr(),
			Email:    u.Email.Ptr(),
			Mobile:   u.Mobile.Ptr(),
			DeptName: u.DeptName.Ptr(),
		})
	}
	return result
}

func (s *UserService) GetSimpleUsers(ctx context.Context, userStatus *int, deptID *string) ([]dto.ShortUserDTO, error) {
	users, err := s.userRepository.GetSimpleUsers(ctx, userStatus, deptID)
	if err != nil {
		return nil, err
	}
	return usersToShortDTOs(users), nil
}

// GetSubordinates lists the users whose manager is the given user.
func (s *UserService) GetSubordinates(ctx context.Context, id string) ([]dto.ShortUserDTO, error) {
	if _, err := s.userRepository.FindUser(ctx, id); err != nil {
		return nil, err
	}
	users, err := s.userRepository.GetSubordinates(ctx, id)
	if err != nil {
		return nil, err
	}
	return usersToShortDTOs(users), nil
}

func (s *UserService) FindUser(ctx context.Context, id string) (*dto.UserDTO, error) {
	user, err := s.userRepository.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}
	result := userToDTO(user)
	return &result, nil
}

func (s *UserService) checkUniqueFields(ctx context.Context, username, email, mobile *string, excludeID string) error {
	checks := []struct {
		field string
		value *string
		err   error
	}{
		{"username", username, apperrors.ErrUsernameTaken},
		{"email", email, apperrors.ErrEmailTaken},
		{"mobile", mobile, apperrors.ErrMobileTaken},
	}
	for _, check := range checks {
		if check.value == nil || *check.value == "" {
			continue
		}
		exists, err := s.userRepository.ExistsByField(ctx, check.field, *check.value, excludeID)
		if err != nil {
			return err
		}
		if exists {
			return check.err
		}
	}
	return nil
}

func (s *UserService) CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserDTO, error) {
	if err := s.checkUniqueFields(ctx, &payload.Username, payload.Email, payload.Mobile, ""); err != nil {
		return nil, err
	}

	passwordHash, err := utils.HashPassword(payload.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	entity := &entities.User{
		ID:         uuid.NewString(),
		Username:   payload.Username,
		Password:   passwordHash,
		Gender:     payload.Gender,
		UserType:   payload.UserType,
		UserStatus: payload.UserStatus,
		Sort:       payload.Sort,
	}
	entity.Name = null.StringFromPtr(payload.Name)
	entity.Email = null.StringFromPtr(payload.Email)
	entity.Mobile = null.StringFromPtr(payload.Mobile)
	entity.Avatar = null.StringFromPtr(payload.Avatar)
	entity.City = null.StringFromPtr(payload.City)
	entity.Address = null.StringFromPtr(payload.Address)
	entity.Bio = null.StringFromPtr(payload.Bio)
	entity.DeptID = null.StringFromPtr(payload.DeptID)
	entity.ManagerID = null.StringFromPtr(payload.ManagerID)
	if payload.Birthday != nil {
		if birthday, err := time.Parse("2006-01-02", *payload.Birthday); err == nil {
			entity.Birthday = null.TimeFrom(birthday)
		}
	}

	created, err := s.userRepository.CreateUser(ctx, entity)
	if err != nil {
		s.logger.Error("failed to create user", zap.String("username", payload.Username), zap.Error(err))
		return nil, err
	}
	s.logger.Info("user created", zap.String("id", created.ID), zap.String("username", created.Username))

	result := userToDTO(created)
	return &result, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id string, payload dto.UpdateUserDTO) (*dto.UserDTO, error) {
	if _, err := s.userRepository.FindUser(ctx, id); err != nil {
		return nil, err
	}
	if err := s.checkUniqueFields(ctx, payload.Username, payload.Email, payload.Mobile, id); err != nil {
		return nil, err
	}

	updated, err := s.userRepository.UpdateUser(ctx, id, payload)
	if err != nil {
		s.logger.Error("failed to update user", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	result := userToDTO(updated)
	return &result, nil
}

// UpdateProfile applies the self-service field subset after checking
// email and mobile uniqueness.
func (s *UserService) UpdateProfile(ctx context.Context, id string, payload dto.UpdateProfileDTO) (*dto.UserDTO, error) {
	if _, err := s.userRepository.FindUser(ctx, id); err != nil {
		return nil, err
	}
	if err := s.checkUniqueFields(ctx, nil, payload.Email, payload.Mobile, id); err != nil {
		return nil, err
	}

	updated, err := s.userRepository.UpdateUser(ctx, id, dto.UpdateUserDTO{
		Name:     payload.Name,
		Email:    payload.Email,
		Mobile:   payload.Mobile,
		Avatar:   payload.Avatar,
		Gender:   payload.Gender,
		Birthday: payload.Birthday,
		City:     payload.City,
		Address:  payload.Address,
		Bio:      payload.Bio,
	})
	if err != nil {
		s.logger.Error("failed to update profile", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	result := userToDTO(updated)
	return &result, nil
}

// DeleteUser soft deletes by default; hard permanently removes the row.
// Protected records (the seeded superadmin, superusers, system users)
// cannot be deleted.
func (s *UserService) DeleteUser(ctx context.Context, id string, hard bool) error {
	user, err := s.userRepository.FindUser(ctx, id)
	if err != nil {
		return err
	}
	if user.IsProtected() {
		return apperrors.ErrProtectedUser
	}
	if hard {
		return s.userRepository.HardDeleteUser(ctx, id)
	}
	return s.userRepository.DeleteUser(ctx, id)
}

// BatchDeleteUsers deletes each id independently; protected or missing
// records are reported back, not fatal.
func (s *UserService) BatchDeleteUsers(ctx context.Context, ids []string) (*dto.BatchDeleteUsersResultDTO, error) {
	result := &dto.BatchDeleteUsersResultDTO{FailedIDs: []string{}}
	for _, id := range ids {
		if err := s.DeleteUser(ctx, id, false); err != nil {
			result.FailCount++
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}

// BatchUpdateStatus sets the status of each id independently. Protected
// or missing records are skipped and reported back, so the seeded admin
// account cannot be disabled in bulk.
func (s *UserService) BatchUpdateStatus(ctx context.Context, payload dto.BatchUpdateUserStatusDTO) (*dto.BatchUpdateStatusResultDTO, error) {
	result := &dto.BatchUpdateStatusResultDTO{FailedIDs: []string{}}
	allowed := make([]string, 0, len(payload.IDs))
	for _, id := range payload.IDs {
		user, err := s.userRepository.FindUser(ctx, id)
		if err != nil || user.IsProtected() {
			result.FailCount++
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		allowed = append(allowed, id)
	}
	if len(allowed) > 0 {
		count, err := s.userRepository.BatchUpdateStatus(ctx, allowed, payload.UserStatus)
		if err != nil {
			s.logger.Error("failed to batch update user status", zap.Error(err))
			return nil, err
		}
		result.SuccessCount = count
	}
	return result, nil
}

// ResetPassword sets a user's password without knowing the old one. The
// configured default is used when newPassword is absent. Protected
// records are exempt.
func (s *UserService) ResetPassword(ctx context.Context, id string, newPassword *string) error {
	user, err := s.userRepository.FindUser(ctx, id)
	if err != nil {
		return err
	}
	if user.IsProtected() {
		return apperrors.ErrProtectedUser
	}

	password := s.resetPassword
	if newPassword != nil && *newPassword != "" {
		password = *newPassword
	}
	passwordHash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepository.UpdatePassword(ctx, id, passwordHash); err != nil {
		return err
	}
	s.logger.Info("password reset", zap.String("id", id))
	return nil
}

// ChangePassword verifies the old password before setting the new one.
func (s *UserService) ChangePassword(ctx context.Context, id string, payload dto.ChangePasswordDTO) error {
	user, err := s.userRepository.FindUser(ctx, id)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(user.Password, payload.OldPassword) {
		return apperrors.ErrWrongOldPassword
	}
	passwordHash, err := utils.HashPassword(payload.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.userRepository.UpdatePassword(ctx, id, passwordHash)
}

func (s *UserService) CheckUnique(ctx context.Context, field, value, excludeID string) (*dto.CheckUniqueResultDTO, error) {
	if value == "" {
		return nil, apperrors.NewBadRequestError("value is required for uniqueness check")
	}
	exists, err := s.userRepository.ExistsByField(ctx, field, value, excludeID)
	if err != nil {
		return nil, err
	}
	return &dto.CheckUniqueResultDTO{Unique: !exists}, nil
}

// ImportUsers creates users row by row; a bad row is recorded and the
// rest continue.
func (s *UserService) ImportUsers(ctx context.Context, rows []dto.CreateUserDTO) (*dto.ImportResultDTO, error) {
	result := &dto.ImportResultDTO{Errors: []string{}}
	for i, row := range rows {
		if _, err := s.CreateUser(ctx, row); err != nil {
			result.FailCount++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d (%s): %v", i+2, row.Username, err))
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}
