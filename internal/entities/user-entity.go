package entities

import (
	"github.com/aarondl/null/v8"

	"admin-system/pkg/constants"
	"admin-system/pkg/types"
)

type User struct {
	ID       string `json:"id" db:"id"`
	Username string `json:"username" db:"username"`

	Password string `json:"-" db:"password"`

	Name   null.String `json:"name" db:"name"`
	Email  null.String `json:"email" db:"email"`
	Mobile null.String `json:"mobile" db:"mobile"`
	Avatar null.String `json:"avatar" db:"avatar"`

	Gender     int `json:"gender" db:"gender"`
	UserType   int `json:"user_type" db:"user_type"`
	UserStatus int `json:"user_status" db:"user_status"`

	Birthday null.Time   `json:"birthday" db:"birthday"`
	City     null.String `json:"city" db:"city"`
	Address  null.String `json:"address" db:"address"`
	Bio      null.String `json:"bio" db:"bio"`

	IsSuperuser bool `json:"is_superuser" db:"is_superuser"`

	DeptID    null.String `json:"dept_id" db:"dept_id"`
	ManagerID null.String `json:"manager_id" db:"manager_id"`

	LastLogin     null.Time   `json:"last_login" db:"last_login"`
	LastLoginIP   null.String `json:"last_login_ip" db:"last_login_ip"`
	LastLoginType null.String `json:"last_login_type" db:"last_login_type"`

	Sort int `json:"sort" db:"sort"`

	// DeptName is joined from departments for list/detail responses.
	DeptName null.String `json:"dept_name" db:"dept_name"`

	types.BaseEntity
	types.SoftDelete
}

// IsProtected reports whether the record is exempt from delete and
// password reset: the seeded superadmin, any superuser, any system user.
func (u *User) IsProtected() bool {
	return u.ID == constants.SuperAdminID || u.IsSuperuser || u.UserType == constants.UserTypeSystem
}
