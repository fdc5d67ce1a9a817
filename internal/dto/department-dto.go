package dto

type CreateDepartmentDTO struct {
	Name        string  `json:"name" validate:"required,min=1,max=64"`
	Code        *string `json:"code" validate:"omitempty,dept_code,max=32"`
	DeptType    string  `json:"dept_type" validate:"omitempty,dept_type"`
	Phone       *string `json:"phone" validate:"omitempty,phone_chars,max=20"`
	Email       *string `json:"email" validate:"omitempty,email,max=64"`
	Status      *bool   `json:"status"`
	Description *string `json:"description"`
	ParentID    *string `json:"parent_id" validate:"omitempty,uuid"`
	LeadID      *string `json:"lead_id" validate:"omitempty,uuid"`
	Sort        int     `json:"sort"`
}

type UpdateDepartmentDTO struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=64"`
	Code        *string `json:"code" validate:"omitempty,dept_code,max=32"`
	DeptType    *string `json:"dept_type" validate:"omitempty,dept_type"`
	Phone       *string `json:"phone" validate:"omitempty,phone_chars,max=20"`
	Email       *string `json:"email" validate:"omitempty,email,max=64"`
	Status      *bool   `json:"status"`
	Description *string `json:"description"`
	ParentID    *string `json:"parent_id" validate:"omitempty,uuid"`
	LeadID      *string `json:"lead_id" validate:"omitempty,uuid"`
	Sort        *int    `json:"sort"`
}

type DepartmentDTO struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Code            *string `json:"code"`
	DeptType        string  `json:"dept_type"`
	DeptTypeDisplay string  `json:"dept_type_display"`
	Phone           *string `json:"phone"`
	Email           *string `json:"email"`
	Status          bool    `json:"status"`
	Description     *string `json:"description"`
	ParentID        *string `json:"parent_id"`
	LeadID          *string `json:"lead_id"`
	LeadName        *string `json:"lead_name"`
	Level           int     `json:"level"`
	Path            string  `json:"path"`
	Sort            int     `json:"sort"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// DeptTreeNodeDTO is a DepartmentDTO plus its resolved children; the tree
// endpoint returns the forest of these, fully expanded.
type DeptTreeNodeDTO struct {
	DepartmentDTO
	Children []DeptTreeNodeDTO `json:"children"`
}

type ShortDepartmentDTO struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Code     *string `json:"code"`
	ParentID *string `json:"parent_id"`
	Level    int     `json:"level"`
	Status   bool    `json:"status"`
}

// An empty id list is a valid no-op.
type BatchDeleteDeptsDTO struct {
	IDs []string `json:"ids" validate:"dive,uuid"`
}

type BatchDeleteDeptsResultDTO struct {
	Count     int      `json:"count"`
	FailedIDs []string `json:"failed_ids"`
}

type BatchUpdateDeptStatusDTO struct {
	IDs    []string `json:"ids" validate:"dive,uuid"`
	Status bool     `json:"status"`
}

type MoveDeptDTO struct {
	DeptID      string  `json:"dept_id" validate:"required,uuid"`
	NewParentID *string `json:"new_parent_id" validate:"omitempty,uuid"`
}

type DeptStatsDTO struct {
	TotalCount    int            `json:"total_count"`
	ActiveCount   int            `json:"active_count"`
	InactiveCount int            `json:"inactive_count"`
	RootCount     int            `json:"root_count"`
	TypeStats     map[string]int `json:"type_stats"`
	MaxLevel      int            `json:"max_level"`
}

type DeptUsersDTO struct {
	UserIDs []string `json:"user_ids" validate:"required,dive,uuid"`
}

type DeptUsersResultDTO struct {
	Count int `json:"count"`
}
