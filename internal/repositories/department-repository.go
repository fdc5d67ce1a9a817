package repositories

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"admin-system/internal/dto"
	"admin-system/internal/entities"
	apperrors "admin-system/pkg/errors"
	"admin-system/pkg/types"
)

const departmentTable = "departments"
const departmentSelectFields = "dep.id, dep.name, dep.code, dep.dept_type, dep.phone, dep.email, dep.description, dep.status, dep.parent_id, dep.lead_id, lead.name AS lead_name, dep.level, dep.path, dep.sort, dep.created_at, dep.updated_at, dep.deleted_at"
const departmentJoinClause = "departments dep LEFT JOIN users lead ON dep.lead_id = lead.id AND lead.deleted_at IS NULL"

var (
	deptExactFilterFields = map[string]bool{"status": true, "dept_type": true, "parent_id": true}
	deptAllowedSortBy     = map[string]string{"name": "dep.name", "code": "dep.code", "sort": "dep.sort", "created_at": "dep.created_at", "level": "dep.level"}
)

type DeptStatsRow struct {
	TotalCount    int
	ActiveCount   int
	InactiveCount int
	RootCount     int
	MaxLevel      int
	TypeStats     map[string]int
}

type DepartmentRepositoryInterface interface {
	GetDepartments(ctx context.Context, filter types.Filter) ([]entities.Department, uint64, error)
	GetAllDepartments(ctx context.Context) ([]entities.Department, error)
	FindDepartment(ctx context.Context, id string) (*entities.Department, error)
	CreateDepartment(ctx context.Context, entity *entities.Department) (*entities.Department, error)
	UpdateDepartment(ctx context.Context, id string, payload dto.UpdateDepartmentDTO) (*entities.Department, error)
	UpdatePlacementInTx(ctx context.Context, tx pgx.Tx, id string, parentID *string, level int, path string) error
	RewriteSubtreeInTx(ctx context.Context, tx pgx.Tx, oldPrefix, newPrefix string, levelDelta int) error
	DeleteDepartment(ctx context.Context, id string) error
	HardDeleteDepartment(ctx context.Context, id string) error
	CountChildren(ctx context.Context, id string) (int, error)
	SearchDepartments(ctx context.Context, keyword string) ([]entities.Department, error)
	GetStats(ctx context.Context) (*DeptStatsRow, error)
	BatchUpdateStatus(ctx context.Context, ids []string, status bool) (int, error)
}

type DepartmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewDepartmentRepository(storage *pgxpool.Pool, logger *zap.Logger) DepartmentRepositoryInterface {
	return &DepartmentRepository{storage: storage, logger: logger}
}

func scanDepartment(row pgx.Row) (*entities.Department, error) {
	var d entities.Department
	err := row.Scan(
		&d.ID, &d.Name, &d.Code, &d.DeptType, &d.Phone, &d.Email, &d.Description,
		&d.Status, &d.ParentID, &d.LeadID, &d.LeadName, &d.Level, &d.Path, &d.Sort,
		&d.CreatedAt, &d.UpdatedAt, &d.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan department: %w", err)
	}
	return &d, nil
}

func (r *DepartmentRepository) GetDepartments(ctx context.Context, filter types.Filter) ([]entities.Department, uint64, error) {
	conditions := []string{"dep.deleted_at IS NULL"}
	args := []interface{}{}

	for key, value := range filter.Filter {
		if !deptExactFilterFields[key] {
			continue
		}
		conditions = append(conditions, fmt.Sprintf("dep.%s = $%d", key, len(args)+1))
		args = append(args, value)
	}
	if filter.Search != "" {
		p := fmt.Sprintf("$%d", len(args)+1)
		conditions = append(conditions, fmt.Sprintf("(dep.name ILIKE %s OR dep.code ILIKE %s)", p, p))
		args = append(args, "%"+filter.Search+"%")
	}
	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(dep.id) FROM %s %s", departmentJoinClause, whereClause)
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count departments: %w", err)
	}
	if total == 0 {
		return []entities.Department{}, 0, nil
	}

	orderByClause := "ORDER BY dep.sort DESC, dep.created_at"
	if len(filter.Sort) > 0 {
		sorts := []string{}
		for field, direction := range filter.Sort {
			if dbField, ok := deptAllowedSortBy[field]; ok {
				order := "ASC"
				if strings.ToLower(direction) == "desc" {
					order = "DESC"
				}
				sorts = append(sorts, fmt.Sprintf("%s %s", dbField, order))
			}
		}
		if len(sorts) > 0 {
			orderByClause = "ORDER BY " + strings.Join(sorts, ", ")
		}
	}

	limitClause := ""
	if filter.WithPagination {
		limitClause = fmt.Sprintf("LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, filter.Limit, filter.Offset)
	}

	query := fmt.Sprintf("SELECT %s FROM %s %s %s %s", departmentSelectFields, departmentJoinClause, whereClause, orderByClause, limitClause)
	r.logger.Debug("listing departments", zap.String("query", query))

	depts, err := r.queryDepartments(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return depts, total, nil
}

// GetAllDepartments returns every live department, ordered so that tree
// assembly keeps siblings in display order.
func (r *DepartmentRepository) GetAllDepartments(ctx context.Context) ([]entities.Department, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE dep.deleted_at IS NULL ORDER BY dep.level, dep.sort DESC, dep.created_at", departmentSelectFields, departmentJoinClause)
	return r.queryDepartments(ctx, query)
}

func (r *DepartmentRepository) queryDepartments(ctx context.Context, query string, args ...interface{}) ([]entities.Department, error) {
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	depts := make([]entities.Department, 0)
	for rows.Next() {
		dept, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		depts = append(depts, *dept)
	}
	return depts, rows.Err()
}

func (r *DepartmentRepository) FindDepartment(ctx context.Context, id string) (*entities.Department, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE dep.id = $1 AND dep.deleted_at IS NULL", departmentSelectFields, departmentJoinClause)
	return scanDepartment(r.storage.QueryRow(ctx, query, id))
}

func mapDeptPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		return apperrors.NewHttpError(http.StatusBadRequest, "department code already in use", err)
	case "23503":
		return apperrors.NewHttpError(http.StatusBadRequest, "referenced parent or lead does not exist", err)
	}
	return err
}

func (r *DepartmentRepository) CreateDepartment(ctx context.Context, entity *entities.Department) (*entities.Department, error) {
	query := fmt.Sprintf(`
		WITH ins AS (
			INSERT INTO %s (id, name, code, dept_type, phone, email, description, status, parent_id, lead_id, level, path, sort)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id
		) SELECT %s FROM %s WHERE dep.id = (SELECT id FROM ins)
	`, departmentTable, departmentSelectFields, departmentJoinClause)

	row := r.storage.QueryRow(ctx, query,
		entity.ID, entity.Name, entity.Code, entity.DeptType, entity.Phone, entity.Email,
		entity.Description, entity.Status, entity.ParentID, entity.LeadID,
		entity.Level, entity.Path, entity.Sort,
	)
	created, err := scanDepartment(row)
	if err != nil {
		return nil, mapDeptPgError(err)
	}
	return created, nil
}

func (r *DepartmentRepository) UpdateDepartment(ctx context.Context, id string, payload dto.UpdateDepartmentDTO) (*entities.Department, error) {
	b := sq.Update(departmentTable).
		PlaceholderFormat(sq.Dollar).
		Where(sq.Eq{"id": id}).
		Where("deleted_at IS NULL").
		Set("updated_at", sq.Expr("NOW()"))

	hasChanges := false
	set := func(column string, value interface{}) {
		b = b.Set(column, value)
		hasChanges = true
	}
	if payload.Name != nil {
		set("name", *payload.Name)
	}
	if payload.Code != nil {
		set("code", *payload.Code)
	}
	if payload.DeptType != nil {
		set("dept_type", *payload.DeptType)
	}
	if payload.Phone != nil {
		set("phone", *payload.Phone)
	}
	if payload.Email != nil {
		set("email", *payload.Email)
	}
	if payload.Description != nil {
		set("description", *payload.Description)
	}
	if payload.Status != nil {
		set("status", *payload.Status)
	}
	if payload.LeadID != nil {
		set("lead_id", *payload.LeadID)
	}
	if payload.Sort != nil {
		set("sort", *payload.Sort)
	}
	if !hasChanges {
		return r.FindDepartment(ctx, id)
	}

	query, args, err := b.Suffix("RETURNING id").ToSql()
	if err != nil {
		return nil, err
	}
	var updatedID string
	if err := r.storage.QueryRow(ctx, query, args...).Scan(&updatedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, mapDeptPgError(err)
	}
	return r.FindDepartment(ctx, updatedID)
}

// UpdatePlacementInTx rewrites a single department's position in the tree.
// Runs inside the caller's transaction together with RewriteSubtreeInTx.
func (r *DepartmentRepository) UpdatePlacementInTx(ctx context.Context, tx pgx.Tx, id string, parentID *string, level int, path string) error {
	result, err := tx.Exec(ctx,
		`UPDATE departments SET parent_id = $1, level = $2, path = $3, updated_at = NOW() WHERE id = $4 AND deleted_at IS NULL`,
		parentID, level, path, id)
	if err != nil {
		return mapDeptPgError(err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// RewriteSubtreeInTx moves every descendant whose path starts with oldPrefix
// under newPrefix, shifting levels by levelDelta.
func (r *DepartmentRepository) RewriteSubtreeInTx(ctx context.Context, tx pgx.Tx, oldPrefix, newPrefix string, levelDelta int) error {
	_, err := tx.Exec(ctx,
		`UPDATE departments
		 SET path = $2 || substr(path, length($1) + 1),
		     level = level + $3,
		     updated_at = NOW()
		 WHERE path LIKE $1 || '%' AND deleted_at IS NULL`,
		oldPrefix, newPrefix, levelDelta)
	return err
}

func (r *DepartmentRepository) DeleteDepartment(ctx context.Context, id string) error {
	result, err := r.storage.Exec(ctx, `UPDATE departments SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *DepartmentRepository) HardDeleteDepartment(ctx context.Context, id string) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return mapDeptPgError(err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *DepartmentRepository) CountChildren(ctx context.Context, id string) (int, error) {
	var count int
	err := r.storage.QueryRow(ctx,
		`SELECT COUNT(*) FROM departments WHERE parent_id = $1 AND deleted_at IS NULL`, id).Scan(&count)
	return count, err
}

func (r *DepartmentRepository) SearchDepartments(ctx context.Context, keyword string) ([]entities.Department, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE dep.deleted_at IS NULL AND (dep.name ILIKE $1 OR dep.code ILIKE $1) ORDER BY dep.level, dep.sort DESC",
		departmentSelectFields, departmentJoinClause)
	return r.queryDepartments(ctx, query, "%"+keyword+"%")
}

func (r *DepartmentRepository) GetStats(ctx context.Context) (*DeptStatsRow, error) {
	stats := &DeptStatsRow{TypeStats: map[string]int{}}
	err := r.storage.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status),
		       COUNT(*) FILTER (WHERE NOT status),
		       COUNT(*) FILTER (WHERE parent_id IS NULL),
		       COALESCE(MAX(level), 0)
		FROM departments WHERE deleted_at IS NULL
	`).Scan(&stats.TotalCount, &stats.ActiveCount, &stats.InactiveCount, &stats.RootCount, &stats.MaxLevel)
	if err != nil {
		return nil, fmt.Errorf("department stats: %w", err)
	}

	rows, err := r.storage.Query(ctx,
		`SELECT dept_type, COUNT(*) FROM departments WHERE deleted_at IS NULL GROUP BY dept_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var deptType string
		var count int
		if err := rows.Scan(&deptType, &count); err != nil {
			return nil, err
		}
		stats.TypeStats[deptType] = count
	}
	return stats, rows.Err()
}

func (r *DepartmentRepository) BatchUpdateStatus(ctx context.Context, ids []string, status bool) (int, error) {
	result, err := r.storage.Exec(ctx,
		`UPDATE departments SET status = $1, updated_at = NOW() WHERE id = ANY($2) AND deleted_at IS NULL`, status, ids)
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}
