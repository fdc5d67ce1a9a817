package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"admin-system/pkg/constants"
)

type deptSeed struct {
	name     string
	code     string
	deptType string
	children []deptSeed
}

var starterDepartments = []deptSeed{
	{
		name: "Head Office", code: "HQ", deptType: constants.DeptTypeCompany,
		children: []deptSeed{
			{name: "Engineering", code: "ENG", deptType: constants.DeptTypeDepartment,
				children: []deptSeed{
					{name: "Platform Team", code: "ENG-PLT", deptType: constants.DeptTypeTeam},
					{name: "Product Team", code: "ENG-PRD", deptType: constants.DeptTypeTeam},
				}},
			{name: "Human Resources", code: "HR", deptType: constants.DeptTypeDepartment},
			{name: "Finance", code: "FIN", deptType: constants.DeptTypeDepartment},
		},
	},
}

func seedDepartments(ctx context.Context, db *pgxpool.Pool) error {
	var count int
	if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM departments WHERE deleted_at IS NULL").Scan(&count); err != nil {
		return fmt.Errorf("count departments: %w", err)
	}
	if count > 0 {
		log.Println("  - departments already present, skipping")
		return nil
	}
	for _, root := range starterDepartments {
		if err := insertDeptSubtree(ctx, db, root, nil, 0, "/"); err != nil {
			return err
		}
	}
	return nil
}

func insertDeptSubtree(ctx context.Context, db *pgxpool.Pool, seed deptSeed, parentID *string, level int, path string) error {
	id := uuid.NewString()
	_, err := db.Exec(ctx, `
		INSERT INTO departments (id, name, code, dept_type, status, parent_id, level, path)
		VALUES ($1, $2, $3, $4, TRUE, $5, $6, $7)`,
		id, seed.name, seed.code, seed.deptType, parentID, level, path)
	if err != nil {
		return fmt.Errorf("insert department %q: %w", seed.name, err)
	}
	log.Printf("  - department %q created", seed.name)

	childPath := path + id + "/"
	if path == "/" {
		childPath = "/" + id + "/"
	}
	for _, child := range seed.children {
		if err := insertDeptSubtree(ctx, db, child, &id, level+1, childPath); err != nil {
			return err
		}
	}
	return nil
}
