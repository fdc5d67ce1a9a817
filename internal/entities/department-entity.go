package entities

import (
	"github.com/aarondl/null/v8"

	"admin-system/pkg/types"
)

type Department struct {
	ID       string      `json:"id" db:"id"`
	Name     string      `json:"name" db:"name"`
	Code     null.String `json:"code" db:"code"`
	DeptType string      `json:"dept_type" db:"dept_type"`

	Phone       null.String `json:"phone" db:"phone"`
	Email       null.String `json:"email" db:"email"`
	Description null.String `json:"description" db:"description"`

	Status bool `json:"status" db:"status"`

	ParentID null.String `json:"parent_id" db:"parent_id"`
	LeadID   null.String `json:"lead_id" db:"lead_id"`

	// Level is the depth in the tree (roots are 0). Path is the
	// materialized ancestor chain, "/" for roots and "/<id>/.../" below.
	Level int    `json:"level" db:"level"`
	Path  string `json:"path" db:"path"`

	Sort int `json:"sort" db:"sort"`

	// LeadName is joined from users for responses.
	LeadName null.String `json:"lead_name" db:"lead_name"`

	types.BaseEntity
	types.SoftDelete
}

// SubtreePrefix is the path prefix all descendants of d carry.
func (d *Department) SubtreePrefix() string {
	if d.Path == "" || d.Path == "/" {
		return "/" + d.ID + "/"
	}
	return d.Path + d.ID + "/"
}
