package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"admin-system/internal/dto"
	"admin-system/internal/entities"
	"admin-system/internal/repositories"
	apperrors "admin-system/pkg/errors"
	"admin-system/pkg/types"
)

// In-memory doubles for the repository layer, shared by the service
// tests in this package.

type fakeTxManager struct{}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type fakeCacheRepo struct {
	data map[string]string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{data: map[string]string{}}
}

func (c *fakeCacheRepo) Get(ctx context.Context, key string) (string, error) {
	value, ok := c.data[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return value, nil
}

func (c *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	switch v := value.(type) {
	case string:
		c.data[key] = v
	case []byte:
		c.data[key] = string(v)
	}
	return nil
}

func (c *fakeCacheRepo) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}

type fakeUserRepo struct {
	users map[string]*entities.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*entities.User{}}
}

func (r *fakeUserRepo) live() []*entities.User {
	result := []*entities.User{}
	for _, u := range r.users {
		if u.DeletedAt == nil {
			result = append(result, u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result
}

func (r *fakeUserRepo) GetUsers(ctx context.Context, filter types.Filter, deptIDs []string) ([]entities.User, uint64, error) {
	matched := []entities.User{}
	for _, u := range r.live() {
		if len(deptIDs) > 0 {
			found := false
			for _, id := range deptIDs {
				if u.DeptID.Valid && u.DeptID.String == id {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if filter.Search != "" && !strings.Contains(u.Username, filter.Search) {
			continue
		}
		matched = append(matched, *u)
	}
	return matched, uint64(len(matched)), nil
}

func (r *fakeUserRepo) GetSimpleUsers(ctx context.Context, userStatus *int, deptID *string) ([]entities.User, error) {
	result := []entities.User{}
	for _, u := range r.live() {
		if userStatus != nil && u.UserStatus != *userStatus {
			continue
		}
		if deptID != nil && (!u.DeptID.Valid || u.DeptID.String != *deptID) {
			continue
		}
		result = append(result, *u)
	}
	return result, nil
}

func (r *fakeUserRepo) GetUsersByDepts(ctx context.Context, deptIDs []string, activeOnly bool) ([]entities.User, error) {
	result := []entities.User{}
	for _, u := range r.live() {
		if activeOnly && u.UserStatus != 1 {
			continue
		}
		for _, id := range deptIDs {
			if u.DeptID.Valid && u.DeptID.String == id {
				result = append(result, *u)
				break
			}
		}
	}
	return result, nil
}

func (r *fakeUserRepo) GetSubordinates(ctx context.Context, managerID string) ([]entities.User, error) {
	result := []entities.User{}
	for _, u := range r.live() {
		if u.ManagerID.Valid && u.ManagerID.String == managerID {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (r *fakeUserRepo) FindUser(ctx context.Context, id string) (*entities.User, error) {
	u, ok := r.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, apperrors.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) FindUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	for _, u := range r.live() {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, entity *entities.User) (*entities.User, error) {
	now := time.Now()
	clone := *entity
	clone.CreatedAt = &now
	clone.UpdatedAt = &now
	r.users[clone.ID] = &clone
	result := clone
	return &result, nil
}

func (r *fakeUserRepo) UpdateUser(ctx context.Context, id string, payload dto.UpdateUserDTO) (*entities.User, error) {
	u, ok := r.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, apperrors.ErrNotFound
	}
	if payload.Username != nil {
		u.Username = *payload.Username
	}
	if payload.Name != nil {
		u.Name.SetValid(*payload.Name)
	}
	if payload.Email != nil {
		u.Email.SetValid(*payload.Email)
	}
	if payload.Mobile != nil {
		u.Mobile.SetValid(*payload.Mobile)
	}
	if payload.City != nil {
		u.City.SetValid(*payload.City)
	}
	if payload.UserStatus != nil {
		u.UserStatus = *payload.UserStatus
	}
	if payload.DeptID != nil {
		u.DeptID.SetValid(*payload.DeptID)
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) DeleteUser(ctx context.Context, id string) error {
	u, ok := r.users[id]
	if !ok || u.DeletedAt != nil {
		return apperrors.ErrNotFound
	}
	now := time.Now()
	u.DeletedAt = &now
	return nil
}

func (r *fakeUserRepo) HardDeleteUser(ctx context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	u, ok := r.users[id]
	if !ok || u.DeletedAt != nil {
		return apperrors.ErrNotFound
	}
	u.Password = passwordHash
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(ctx context.Context, id, ip, loginType string) error {
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.LastLogin.SetValid(time.Now())
	u.LastLoginIP.SetValid(ip)
	u.LastLoginType.SetValid(loginType)
	return nil
}

func (r *fakeUserRepo) ExistsByField(ctx context.Context, field, value, excludeID string) (bool, error) {
	for _, u := range r.live() {
		if u.ID == excludeID {
			continue
		}
		switch field {
		case "username":
			if u.Username == value {
				return true, nil
			}
		case "email":
			if u.Email.Valid && u.Email.String == value {
				return true, nil
			}
		case "mobile":
			if u.Mobile.Valid && u.Mobile.String == value {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *fakeUserRepo) CountByDepts(ctx context.Context, deptIDs []string) (int, error) {
	users, _ := r.GetUsersByDepts(ctx, deptIDs, false)
	return len(users), nil
}

func (r *fakeUserRepo) BatchUpdateStatus(ctx context.Context, ids []string, status int) (int, error) {
	count := 0
	for _, id := range ids {
		if u, ok := r.users[id]; ok && u.DeletedAt == nil {
			u.UserStatus = status
			count++
		}
	}
	return count, nil
}

func (r *fakeUserRepo) AssignDept(ctx context.Context, deptID string, userIDs []string) (int, error) {
	count := 0
	for _, id := range userIDs {
		if u, ok := r.users[id]; ok && u.DeletedAt == nil {
			if u.DeptID.Valid && u.DeptID.String == deptID {
				continue
			}
			u.DeptID.SetValid(deptID)
			count++
		}
	}
	return count, nil
}

func (r *fakeUserRepo) UnassignDept(ctx context.Context, deptID string, userIDs []string) (int, error) {
	count := 0
	for _, id := range userIDs {
		if u, ok := r.users[id]; ok && u.DeletedAt == nil && u.DeptID.Valid && u.DeptID.String == deptID {
			u.DeptID.Valid = false
			u.DeptID.String = ""
			count++
		}
	}
	return count, nil
}

type fakeDeptRepo struct {
	depts map[string]*entities.Department
}

func newFakeDeptRepo() *fakeDeptRepo {
	return &fakeDeptRepo{depts: map[string]*entities.Department{}}
}

func (r *fakeDeptRepo) live() []*entities.Department {
	result := []*entities.Department{}
	for _, d := range r.depts {
		if d.DeletedAt == nil {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Level != result[j].Level {
			return result[i].Level < result[j].Level
		}
		if result[i].Sort != result[j].Sort {
			return result[i].Sort > result[j].Sort
		}
		return result[i].Name < result[j].Name
	})
	return result
}

func (r *fakeDeptRepo) GetDepartments(ctx context.Context, filter types.Filter) ([]entities.Department, uint64, error) {
	matched := []entities.Department{}
	for _, d := range r.live() {
		if parentID, ok := filter.Filter["parent_id"]; ok {
			if !d.ParentID.Valid || d.ParentID.String != parentID.(string) {
				continue
			}
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(d.Name), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, *d)
	}
	return matched, uint64(len(matched)), nil
}

func (r *fakeDeptRepo) GetAllDepartments(ctx context.Context) ([]entities.Department, error) {
	result := []entities.Department{}
	for _, d := range r.live() {
		result = append(result, *d)
	}
	return result, nil
}

func (r *fakeDeptRepo) FindDepartment(ctx context.Context, id string) (*entities.Department, error) {
	d, ok := r.depts[id]
	if !ok || d.DeletedAt != nil {
		return nil, apperrors.ErrNotFound
	}
	clone := *d
	return &clone, nil
}

func (r *fakeDeptRepo) CreateDepartment(ctx context.Context, entity *entities.Department) (*entities.Department, error) {
	now := time.Now()
	clone := *entity
	clone.CreatedAt = &now
	clone.UpdatedAt = &now
	r.depts[clone.ID] = &clone
	result := clone
	return &result, nil
}

func (r *fakeDeptRepo) UpdateDepartment(ctx context.Context, id string, payload dto.UpdateDepartmentDTO) (*entities.Department, error) {
	d, ok := r.depts[id]
	if !ok || d.DeletedAt != nil {
		return nil, apperrors.ErrNotFound
	}
	if payload.Name != nil {
		d.Name = *payload.Name
	}
	if payload.Status != nil {
		d.Status = *payload.Status
	}
	if payload.DeptType != nil {
		d.DeptType = *payload.DeptType
	}
	clone := *d
	return &clone, nil
}

func (r *fakeDeptRepo) UpdatePlacementInTx(ctx context.Context, tx pgx.Tx, id string, parentID *string, level int, path string) error {
	d, ok := r.depts[id]
	if !ok || d.DeletedAt != nil {
		return apperrors.ErrNotFound
	}
	if parentID == nil {
		d.ParentID.Valid = false
		d.ParentID.String = ""
	} else {
		d.ParentID.SetValid(*parentID)
	}
	d.Level = level
	d.Path = path
	return nil
}

func (r *fakeDeptRepo) RewriteSubtreeInTx(ctx context.Context, tx pgx.Tx, oldPrefix, newPrefix string, levelDelta int) error {
	for _, d := range r.depts {
		if d.DeletedAt == nil && strings.HasPrefix(d.Path, oldPrefix) {
			d.Path = newPrefix + d.Path[len(oldPrefix):]
			d.Level += levelDelta
		}
	}
	return nil
}

func (r *fakeDeptRepo) DeleteDepartment(ctx context.Context, id string) error {
	d, ok := r.depts[id]
	if !ok || d.DeletedAt != nil {
		return apperrors.ErrNotFound
	}
	now := time.Now()
	d.DeletedAt = &now
	return nil
}

func (r *fakeDeptRepo) HardDeleteDepartment(ctx context.Context, id string) error {
	if _, ok := r.depts[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.depts, id)
	return nil
}

func (r *fakeDeptRepo) CountChildren(ctx context.Context, id string) (int, error) {
	count := 0
	for _, d := range r.live() {
		if d.ParentID.Valid && d.ParentID.String == id {
			count++
		}
	}
	return count, nil
}

func (r *fakeDeptRepo) SearchDepartments(ctx context.Context, keyword string) ([]entities.Department, error) {
	result := []entities.Department{}
	for _, d := range r.live() {
		if strings.Contains(strings.ToLower(d.Name), strings.ToLower(keyword)) ||
			(d.Code.Valid && strings.Contains(strings.ToLower(d.Code.String), strings.ToLower(keyword))) {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (r *fakeDeptRepo) GetStats(ctx context.Context) (*repositories.DeptStatsRow, error) {
	stats := &repositories.DeptStatsRow{TypeStats: map[string]int{}}
	for _, d := range r.live() {
		stats.TotalCount++
		if d.Status {
			stats.ActiveCount++
		} else {
			stats.InactiveCount++
		}
		if !d.ParentID.Valid {
			stats.RootCount++
		}
		if d.Level > stats.MaxLevel {
			stats.MaxLevel = d.Level
		}
		stats.TypeStats[d.DeptType]++
	}
	return stats, nil
}

func (r *fakeDeptRepo) BatchUpdateStatus(ctx context.Context, ids []string, status bool) (int, error) {
	count := 0
	for _, id := range ids {
		if d, ok := r.depts[id]; ok && d.DeletedAt == nil {
			d.Status = status
			count++
		}
	}
	return count, nil
}
