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

const userTable = "users"
const userSelectFields = "u.id, u.username, u.password, u.name, u.email, u.mobile, u.avatar, u.gender, u.user_type, u.user_status, u.birthday, u.city, u.address, u.bio, u.is_superuser, u.dept_id, u.manager_id, u.last_login, u.last_login_ip, u.last_login_type, u.sort, d.name AS dept_name, u.created_at, u.updated_at, u.deleted_at"
const userJoinClause = "users u LEFT JOIN departments d ON u.dept_id = d.id AND d.deleted_at IS NULL"

var (
	// Exact-match filter keys accepted from the query string.
	userExactFilterFields = map[string]bool{"user_status": true, "user_type": true, "gender": true}
	// ILIKE filter keys.
	userLikeFilterFields = map[string]bool{"name": true, "username": true, "email": true, "mobile": true}
	userAllowedSortBy    = map[string]string{"username": "u.username", "name": "u.name", "sort": "u.sort", "created_at": "u.created_at", "last_login": "u.last_login"}
)

// UniqueUserFields lists the columns the unique-check endpoint accepts.
var UniqueUserFields = map[string]bool{"username": true, "email": true, "mobile": true}

type UserRepositoryInterface interface {
	GetUsers(ctx context.Context, filter types.Filter, deptIDs []string) ([]entities.User, uint64, error)
	GetSimpleUsers(ctx context.Context, userStatus *int, deptID *string) ([]entities.User, error)
	GetUsersByDepts(ctx context.Context, deptIDs []string, activeOnly bool) ([]entities.User, error)
	GetSubordinates(ctx context.Context, managerID string) ([]entities.User, error)
	FindUser(ctx context.Context, id string) (*entities.User, error)
	FindUserByUsername(ctx context.Context, username string) (*entities.User, error)
	CreateUser(ctx context.Context, entity *entities.User) (*entities.User, error)
	UpdateUser(ctx context.Context, id string, payload dto.UpdateUserDTO) (*entities.User, error)
	DeleteUser(ctx context.Context, id string) error
	HardDeleteUser(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id, ip, loginType string) error
	ExistsByField(ctx context.Context, field, value, excludeID string) (bool, error)
	CountByDepts(ctx context.Context, deptIDs []string) (int, error)
	BatchUpdateStatus(ctx context.Context, ids []string, status int) (int, error)
	AssignDept(ctx context.Context, deptID string, userIDs []string) (int, error)
	UnassignDept(ctx context.Context, deptID string, userIDs []string) (int, error)
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Password, &u.Name, &u.Email, &u.Mobile, &u.Avatar,
		&u.Gender, &u.UserType, &u.UserStatus, &u.Birthday, &u.City, &u.Address,
		&u.Bio, &u.IsSuperuser, &u.DeptID, &u.ManagerID,
		&u.LastLogin, &u.LastLoginIP, &u.LastLoginType, &u.Sort, &u.DeptName,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) buildUserWhere(filter types.Filter, deptIDs []string) ([]string, []interface{}) {
	conditions := []string{"u.deleted_at IS NULL"}
	args := []interface{}{}

	for key, value := range filter.Filter {
		placeholder := fmt.Sprintf("$%d", len(args)+1)
		switch {
		case userExactFilterFields[key]:
			conditions = append(conditions, fmt.Sprintf("u.%s = %s", key, placeholder))
			args = append(args, value)
		case userLikeFilterFields[key]:
			conditions = append(conditions, fmt.Sprintf("u.%s ILIKE %s", key, placeholder))
			args = append(args, fmt.Sprintf("%%%v%%", value))
		}
	}

	if len(deptIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("u.dept_id = ANY($%d)", len(args)+1))
		args = append(args, deptIDs)
	}

	if filter.Search != "" {
		p := fmt.Sprintf("$%d", len(args)+1)
		conditions = append(conditions, fmt.Sprintf("(u.username ILIKE %s OR u.name ILIKE %s OR u.email ILIKE %s OR u.mobile ILIKE %s)", p, p, p, p))
		args = append(args, "%"+filter.Search+"%")
	}

	return conditions, args
}

// GetUsers lists users with the parsed filter. deptIDs, when non-empty,
// restricts the result to those departments (the service expands a
// dept_id filter to the department and its descendants).
func (r *UserRepository) GetUsers(ctx context.Context, filter types.Filter, deptIDs []string) ([]entities.User, uint64, error) {
	conditions, args := r.buildUserWhere(filter, deptIDs)
	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(u.id) FROM %s %s", userJoinClause, whereClause)
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	if total == 0 {
		return []entities.User{}, 0, nil
	}

	orderByClause := "ORDER BY u.sort DESC, u.created_at DESC"
	if len(filter.Sort) > 0 {
		sorts := []string{}
		for field, direction := range filter.Sort {
			if dbField, ok := userAllowedSortBy[field]; ok {
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

	query := fmt.Sprintf("SELECT %s FROM %s %s %s %s", userSelectFields, userJoinClause, whereClause, orderByClause, limitClause)
	r.logger.Debug("listing users", zap.String("query", query))

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *user)
	}
	return users, total, rows.Err()
}

func (r *UserRepository) GetSimpleUsers(ctx context.Context, userStatus *int, deptID *string) ([]entities.User, error) {
	conditions := []string{"u.deleted_at IS NULL"}
	args := []interface{}{}
	if userStatus != nil {
		conditions = append(conditions, fmt.Sprintf("u.user_status = $%d", len(args)+1))
		args = append(args, *userStatus)
	}
	if deptID != nil {
		conditions = append(conditions, fmt.Sprintf("u.dept_id = $%d", len(args)+1))
		args = append(args, *deptID)
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY u.sort DESC, u.username", userSelectFields, userJoinClause, strings.Join(conditions, " AND "))
	return r.queryUsers(ctx, query, args...)
}

func (r *UserRepository) GetUsersByDepts(ctx context.Context, deptIDs []string, activeOnly bool) ([]entities.User, error) {
	conditions := []string{"u.deleted_at IS NULL", "u.dept_id = ANY($1)"}
	if activeOnly {
		conditions = append(conditions, "u.user_status = 1")
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY u.sort DESC, u.username", userSelectFields, userJoinClause, strings.Join(conditions, " AND "))
	return r.queryUsers(ctx, query, deptIDs)
}

func (r *UserRepository) GetSubordinates(ctx context.Context, managerID string) ([]entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE u.manager_id = $1 AND u.deleted_at IS NULL ORDER BY u.sort DESC, u.username", userSelectFields, userJoinClause)
	return r.queryUsers(ctx, query, managerID)
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]entities.User, error) {
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *UserRepository) FindUser(ctx context.Context, id string) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE u.id = $1 AND u.deleted_at IS NULL", userSelectFields, userJoinClause)
	return scanUser(r.storage.QueryRow(ctx, query, id))
}

func (r *UserRepository) FindUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE u.username = $1 AND u.deleted_at IS NULL", userSelectFields, userJoinClause)
	return scanUser(r.storage.QueryRow(ctx, query, username))
}

func mapUserPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		switch {
		case strings.Contains(pgErr.ConstraintName, "username"):
			return apperrors.ErrUsernameTaken
		case strings.Contains(pgErr.ConstraintName, "email"):
			return apperrors.ErrEmailTaken
		case strings.Contains(pgErr.ConstraintName, "mobile"):
			return apperrors.ErrMobileTaken
		}
	case "23503":
		return apperrors.NewHttpError(http.StatusBadRequest, "referenced department or manager does not exist", err)
	}
	return err
}

func (r *UserRepository) CreateUser(ctx context.Context, entity *entities.User) (*entities.User, error) {
	query := fmt.Sprintf(`
		WITH ins AS (
			INSERT INTO %s (id, username, password, name, email, mobile, avatar, gender, user_type, user_status, birthday, city, address, bio, is_superuser, dept_id, manager_id, sort)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18) RETURNING id
		) SELECT %s FROM %s WHERE u.id = (SELECT id FROM ins)
	`, userTable, userSelectFields, userJoinClause)

	row := r.storage.QueryRow(ctx, query,
		entity.ID, entity.Username, entity.Password, entity.Name, entity.Email,
		entity.Mobile, entity.Avatar, entity.Gender, entity.UserType, entity.UserStatus,
		entity.Birthday, entity.City, entity.Address, entity.Bio, entity.IsSuperuser,
		entity.DeptID, entity.ManagerID, entity.Sort,
	)

	created, err := scanUser(row)
	if err != nil {
		return nil, mapUserPgError(err)
	}
	return created, nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, id string, payload dto.UpdateUserDTO) (*entities.User, error) {
	b := sq.Update(userTable).
		PlaceholderFormat(sq.Dollar).
		Where(sq.Eq{"id": id}).
		Where("deleted_at IS NULL").
		Set("updated_at", sq.Expr("NOW()"))

	hasChanges := false
	set := func(column string, value interface{}) {
		b = b.Set(column, value)
		hasChanges = true
	}
	if payload.Username != nil {
		set("username", *payload.Username)
	}
	if payload.Name != nil {
		set("name", *payload.Name)
	}
	if payload.Email != nil {
		set("email", *payload.Email)
	}
	if payload.Mobile != nil {
		set("mobile", *payload.Mobile)
	}
	if payload.Avatar != nil {
		set("avatar", *payload.Avatar)
	}
	if payload.Gender != nil {
		set("gender", *payload.Gender)
	}
	if payload.UserType != nil {
		set("user_type", *payload.UserType)
	}
	if payload.UserStatus != nil {
		set("user_status", *payload.UserStatus)
	}
	if payload.Birthday != nil {
		set("birthday", *payload.Birthday)
	}
	if payload.City != nil {
		set("city", *payload.City)
	}
	if payload.Address != nil {
		set("address", *payload.Address)
	}
	if payload.Bio != nil {
		set("bio", *payload.Bio)
	}
	if payload.DeptID != nil {
		set("dept_id", *payload.DeptID)
	}
	if payload.ManagerID != nil {
		set("manager_id", *payload.ManagerID)
	}
	if payload.Sort != nil {
		set("sort", *payload.Sort)
	}
	if !hasChanges {
		return r.FindUser(ctx, id)
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
		return nil, mapUserPgError(err)
	}
	return r.FindUser(ctx, updatedID)
}

func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.storage.Exec(ctx, `UPDATE users SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepository) HardDeleteUser(ctx context.Context, id string) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	result, err := r.storage.Exec(ctx, `UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`, passwordHash, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id, ip, loginType string) error {
	_, err := r.storage.Exec(ctx,
		`UPDATE users SET last_login = NOW(), last_login_ip = $1, last_login_type = $2 WHERE id = $3`,
		ip, loginType, id)
	return err
}

// ExistsByField reports whether another live record already holds value in
// the given column. field must be one of UniqueUserFields.
func (r *UserRepository) ExistsByField(ctx context.Context, field, value, excludeID string) (bool, error) {
	if !UniqueUserFields[field] {
		return false, apperrors.NewBadRequestError("uniqueness check is not supported for field %q", field)
	}
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM users WHERE %s = $1 AND deleted_at IS NULL AND ($2 = '' OR id <> $2))`, field)
	var exists bool
	err := r.storage.QueryRow(ctx, query, value, excludeID).Scan(&exists)
	return exists, err
}

func (r *UserRepository) CountByDepts(ctx context.Context, deptIDs []string) (int, error) {
	var count int
	err := r.storage.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE dept_id = ANY($1) AND deleted_at IS NULL`, deptIDs).Scan(&count)
	return count, err
}

func (r *UserRepository) BatchUpdateStatus(ctx context.Context, ids []string, status int) (int, error) {
	result, err := r.storage.Exec(ctx,
		`UPDATE users SET user_status = $1, updated_at = NOW() WHERE id = ANY($2) AND deleted_at IS NULL`, status, ids)
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}

func (r *UserRepository) AssignDept(ctx context.Context, deptID string, userIDs []string) (int, error) {
	result, err := r.storage.Exec(ctx,
		`UPDATE users SET dept_id = $1, updated_at = NOW() WHERE id = ANY($2) AND deleted_at IS NULL AND dept_id IS DISTINCT FROM $1`,
		deptID, userIDs)
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}

func (r *UserRepository) UnassignDept(ctx context.Context, deptID string, userIDs []string) (int, error) {
	result, err := r.storage.Exec(ctx,
		`UPDATE users SET dept_id = NULL, updated_at = NOW() WHERE id = ANY($1) AND dept_id = $2 AND deleted_at IS NULL`,
		userIDs, deptID)
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}
