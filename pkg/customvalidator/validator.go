package customvalidator

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"admin-system/pkg/constants"
)

// RegisterCustomValidations registers the rules the admin DTOs rely on.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("dept_code", isDeptCode); err != nil {
		return err
	}
	if err := v.RegisterValidation("dept_type", isDeptType); err != nil {
		return err
	}
	if err := v.RegisterValidation("phone_chars", isPhone); err != nil {
		return err
	}
	return nil
}

var (
	deptCodeRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	phoneRegex    = regexp.MustCompile(`^[0-9+()\- ]+$`)
)

// isDeptCode allows letters, digits, underscores and dashes.
func isDeptCode(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	return deptCodeRegex.MatchString(s)
}

func isDeptType(fl validator.FieldLevel) bool {
	_, ok := constants.DeptTypeDisplay[fl.Field().String()]
	return ok
}

func isPhone(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	return phoneRegex.MatchString(s)
}
