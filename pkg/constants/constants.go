package constants

// SuperAdminID is the fixed id of the seeded superadmin record. It is
// exempt from delete, batch delete and password reset.
const SuperAdminID = "00000000-0000-0000-0000-000000000001"

// User genders.
const (
	GenderUnknown = 0
	GenderMale    = 1
	GenderFemale  = 2
)

// User types.
const (
	UserTypeSystem = 0
	UserTypeNormal = 1
)

// User statuses.
const (
	UserStatusDisabled = 0
	UserStatusActive   = 1
)

// GenderDisplay maps a gender code to its display label.
var GenderDisplay = map[int]string{
	GenderUnknown: "Unknown",
	GenderMale:    "Male",
	GenderFemale:  "Female",
}

// UserTypeDisplay maps a user type code to its display label.
var UserTypeDisplay = map[int]string{
	UserTypeSystem: "System",
	UserTypeNormal: "Normal",
}

// UserStatusDisplay maps a user status code to its display label.
var UserStatusDisplay = map[int]string{
	UserStatusDisabled: "Disabled",
	UserStatusActive:   "Active",
}

// Department types.
const (
	DeptTypeCompany    = "company"
	DeptTypeDepartment = "department"
	DeptTypeTeam       = "team"
	DeptTypeOther      = "other"
)

// DeptTypeDisplay maps a department type code to its display label.
var DeptTypeDisplay = map[string]string{
	DeptTypeCompany:    "Company",
	DeptTypeDepartment: "Department",
	DeptTypeTeam:       "Team",
	DeptTypeOther:      "Other",
}

// Login types recorded in users.last_login_type.
const (
	LoginTypePassword = "password"
	LoginTypeRefresh  = "refresh"
)
