package customvalidator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deptProbe struct {
	Code     string `validate:"omitempty,dept_code"`
	DeptType string `validate:"omitempty,dept_type"`
	Phone    string `validate:"omitempty,phone_chars"`
}

func newProbeValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	require.NoError(t, RegisterCustomValidations(v))
	return v
}

func TestDeptCodeRule(t *testing.T) {
	v := newProbeValidator(t)

	assert.NoError(t, v.Struct(deptProbe{Code: "ENG-01_a"}))
	assert.NoError(t, v.Struct(deptProbe{}))
	assert.Error(t, v.Struct(deptProbe{Code: "bad code"}))
	assert.Error(t, v.Struct(deptProbe{Code: "bad/code"}))
}

func TestDeptTypeRule(t *testing.T) {
	v := newProbeValidator(t)

	for _, deptType := range []string{"company", "department", "team", "other"} {
		assert.NoError(t, v.Struct(deptProbe{DeptType: deptType}), deptType)
	}
	assert.Error(t, v.Struct(deptProbe{DeptType: "guild"}))
}

func TestPhoneCharsRule(t *testing.T) {
	v := newProbeValidator(t)

	assert.NoError(t, v.Struct(deptProbe{Phone: "+1 (555) 123-4567"}))
	assert.Error(t, v.Struct(deptProbe{Phone: "call me"}))
}
