package dto

type CreateUserDTO struct {
	Username   string  `json:"username" validate:"required,min=3,max=64"`
	Password   string  `json:"password" validate:"required,min=6"`
	Name       *string `json:"name" validate:"omitempty,max=64"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Mobile     *string `json:"mobile" validate:"omitempty,phone_chars,max=20"`
	Avatar     *string `json:"avatar" validate:"omitempty,max=255"`
	Gender     int     `json:"gender" validate:"gte=0,lte=2"`
	UserType   int     `json:"user_type" validate:"gte=0,lte=1"`
	UserStatus int     `json:"user_status" validate:"gte=0,lte=1"`
	Birthday   *string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	City       *string `json:"city" validate:"omitempty,max=64"`
	Address    *string `json:"address" validate:"omitempty,max=255"`
	Bio        *string `json:"bio"`
	DeptID     *string `json:"dept_id" validate:"omitempty,uuid"`
	ManagerID  *string `json:"manager_id" validate:"omitempty,uuid"`
	Sort       int     `json:"sort"`
}

type UpdateUserDTO struct {
	Username   *string `json:"username" validate:"omitempty,min=3,max=64"`
	Name       *string `json:"name" validate:"omitempty,max=64"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Mobile     *string `json:"mobile" validate:"omitempty,phone_chars,max=20"`
	Avatar     *string `json:"avatar" validate:"omitempty,max=255"`
	Gender     *int    `json:"gender" validate:"omitempty,gte=0,lte=2"`
	UserType   *int    `json:"user_type" validate:"omitempty,gte=0,lte=1"`
	UserStatus *int    `json:"user_status" validate:"omitempty,gte=0,lte=1"`
	Birthday   *string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	City       *string `json:"city" validate:"omitempty,max=64"`
	Address    *string `json:"address" validate:"omitempty,max=255"`
	Bio        *string `json:"bio"`
	DeptID     *string `json:"dept_id" validate:"omitempty,uuid"`
	ManagerID  *string `json:"manager_id" validate:"omitempty,uuid"`
	Sort       *int    `json:"sort"`
}

// UpdateProfileDTO is the self-service subset of the user fields;
// account-level fields (username, type, status, department) stay with
// the admin update.
type UpdateProfileDTO struct {
	Name     *string `json:"name" validate:"omitempty,max=64"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Mobile   *string `json:"mobile" validate:"omitempty,phone_chars,max=20"`
	Avatar   *string `json:"avatar" validate:"omitempty,max=255"`
	Gender   *int    `json:"gender" validate:"omitempty,gte=0,lte=2"`
	Birthday *string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	City     *string `json:"city" validate:"omitempty,max=64"`
	Address  *string `json:"address" validate:"omitempty,max=255"`
	Bio      *string `json:"bio"`
}

type UserDTO struct {
	ID                string  `json:"id"`
	Username          string  `json:"username"`
	Name              *string `json:"name"`
	Email             *string `json:"email"`
	Mobile            *string `json:"mobile"`
	Avatar            *string `json:"avatar"`
	Gender            int     `json:"gender"`
	GenderDisplay     string  `json:"gender_display"`
	UserType          int     `json:"user_type"`
	UserTypeDisplay   string  `json:"user_type_display"`
	UserStatus        int     `json:"user_status"`
	UserStatusDisplay string  `json:"user_status_display"`
	Birthday          *string `json:"birthday"`
	City              *string `json:"city"`
	Address           *string `json:"address"`
	Bio               *string `json:"bio"`
	IsSuperuser       bool    `json:"is_superuser"`
	DeptID            *string `json:"dept_id"`
	DeptName          *string `json:"dept_name"`
	ManagerID         *string `json:"manager_id"`
	LastLogin         *string `json:"last_login"`
	LastLoginIP       *string `json:"last_login_ip"`
	LastLoginType     *string `json:"last_login_type"`
	Sort              int     `json:"sort"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

// ShortUserDTO feeds selector widgets.
type ShortUserDTO struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Mobile   *string `json:"mobile"`
	DeptName *string `json:"dept_name"`
}

// An empty id list is a valid no-op.
type BatchDeleteUsersDTO struct {
	IDs []string `json:"ids" validate:"dive,uuid"`
}

type BatchDeleteUsersResultDTO struct {
	SuccessCount int      `json:"success_count"`
	FailCount    int      `json:"fail_count"`
	FailedIDs    []string `json:"failed_ids"`
}

type BatchUpdateUserStatusDTO struct {
	IDs        []string `json:"ids" validate:"dive,uuid"`
	UserStatus int      `json:"user_status" validate:"gte=0,lte=1"`
}

type BatchUpdateStatusResultDTO struct {
	SuccessCount int      `json:"success_count"`
	FailCount    int      `json:"fail_count"`
	FailedIDs    []string `json:"failed_ids"`
}

type ResetPasswordDTO struct {
	// NewPassword is optional; the configured reset password is used when
	// it is absent.
	NewPassword *string `json:"new_password" validate:"omitempty,min=6"`
}

type ChangePasswordDTO struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type CheckUniqueResultDTO struct {
	Unique bool `json:"unique"`
}
