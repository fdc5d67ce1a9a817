package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"admin-system/internal/dto"
	"admin-system/internal/entities"
	"admin-system/internal/repositories"
	"admin-system/pkg/constants"
	apperrors "admin-system/pkg/errors"
	"admin-system/pkg/types"
)

const deptTreeCacheKey = "dept:tree"

type DepartmentServiceInterface interface {
	GetDepartments(ctx context.Context, filter types.Filter) ([]dto.DepartmentDTO, uint64, error)
	GetTree(ctx context.Context) ([]dto.DeptTreeNodeDTO, error)
	GetSimpleDepartments(ctx context.Context) ([]dto.ShortDepartmentDTO, error)
	GetStats(ctx context.Context) (*dto.DeptStatsDTO, error)
	SearchDepartments(ctx context.Context, keyword string) ([]dto.DeptTreeNodeDTO, error)
	FindDepartment(ctx context.Context, id string) (*dto.DepartmentDTO, error)
	GetChildren(ctx context.Context, id string) ([]dto.DepartmentDTO, error)
	GetAllDepartments(ctx context.Context) ([]dto.DepartmentDTO, error)
	CreateDepartment(ctx context.Context, payload dto.CreateDepartmentDTO) (*dto.DepartmentDTO, error)
	UpdateDepartment(ctx context.Context, id string, payload dto.UpdateDepartmentDTO) (*dto.DepartmentDTO, error)
	DeleteDepartment(ctx context.Context, id string, hard bool) error
	BatchDeleteDepartments(ctx context.Context, ids []string) (*dto.BatchDeleteDeptsResultDTO, error)
	BatchUpdateStatus(ctx context.Context, payload dto.BatchUpdateDeptStatusDTO) (int, error)
	MoveDepartment(ctx context.Context, payload dto.MoveDeptDTO) (*dto.DepartmentDTO, error)
	GetDeptUsers(ctx context.Context, deptID string, includeChildren bool) ([]dto.ShortUserDTO, error)
	AddUsers(ctx context.Context, deptID string, userIDs []string) (int, error)
	RemoveUsers(ctx context.Context, deptID string, userIDs []string) (int, error)
	DescendantIDs(ctx context.Context, id string) ([]string, error)
	ImportDepartments(ctx context.Context, rows []dto.CreateDepartmentDTO) (*dto.ImportResultDTO, error)
}

type DepartmentService struct {
	departmentRepository repositories.DepartmentRepositoryInterface
	userRepository       repositories.UserRepositoryInterface
	cacheRepository      repositories.CacheRepositoryInterface
	txManager            repositories.TxManagerInterface
	cacheTTL             time.Duration
	logger               *zap.Logger
}

func NewDepartmentService(
	departmentRepository repositories.DepartmentRepositoryInterface,
	userRepository repositories.UserRepositoryInterface,
	cacheRepository repositories.CacheRepositoryInterface,
	txManager repositories.TxManagerInterface,
	cacheTTL time.Duration,
	logger *zap.Logger,
) DepartmentServiceInterface {
	return &DepartmentService{
		departmentRepository: departmentRepository,
		userRepository:       userRepository,
		cacheRepository:      cacheRepository,
		txManager:            txManager,
		cacheTTL:             cacheTTL,
		logger:               logger,
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func deptToDTO(d *entities.Department) dto.DepartmentDTO {
	return dto.DepartmentDTO{
		ID:              d.ID,
		Name:            d.Name,
		Code:            d.Code.Ptr(),
		DeptType:        d.DeptType,
		DeptTypeDisplay: constants.DeptTypeDisplay[d.DeptType],
		Phone:           d.Phone.Ptr(),
		Email:           d.Email.Ptr(),
		Status:          d.Status,
		Description:     d.Description.Ptr(),
		ParentID:        d.ParentID.Ptr(),
		LeadID:          d.LeadID.Ptr(),
		LeadName:        d.LeadName.Ptr(),
		Level:           d.Level,
		Path:            d.Path,
		Sort:            d.Sort,
		CreatedAt:       formatTime(d.CreatedAt),
		UpdatedAt:       formatTime(d.UpdatedAt),
	}
}

func (s *DepartmentService) GetDepartments(ctx context.Context, filter types.Filter) ([]dto.DepartmentDTO, uint64, error) {
	departments, total, err := s.departmentRepository.GetDepartments(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list departments", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.DepartmentDTO, 0, len(departments))
	for i := range departments {
		result = append(result, deptToDTO(&departments[i]))
	}
	return result, total, nil
}

func (s *DepartmentService) GetAllDepartments(ctx context.Context) ([]dto.DepartmentDTO, error) {
	departments, err := s.departmentRepository.GetAllDepartments(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]dto.DepartmentDTO, 0, len(departments))
	for i := range departments {
		result = append(result, deptToDTO(&departments[i]))
	}
	return result, nil
}

// GetTree returns the full department forest, cached for cacheTTL. Every
// mutation below drops the cache entry.
func (s *DepartmentService) GetTree(ctx context.Context) ([]dto.DeptTreeNodeDTO, error) {
	if cached, err := s.cacheRepository.Get(ctx, deptTreeCacheKey); err == nil {
		var tree []dto.DeptTreeNodeDTO
		if err := json.Unmarshal([]byte(cached), &tree); err == nil {
			return tree, nil
		}
	}

	departments, err := s.departmentRepository.GetAllDepartments(ctx)
	if err != nil {
		s.logger.Error("failed to load departments for tree", zap.Error(err))
		return nil, err
	}
	tree := buildDeptForest(departments, nil)

	if payload, err := json.Marshal(tree); err == nil {
		if err := s.cacheRepository.Set(ctx, deptTreeCacheKey, payload, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache department tree", zap.Error(err))
		}
	}
	return tree, nil
}

// buildDeptForest assembles trees from a flat, level-ordered slice. When
// include is non-nil, only ids present in it become nodes; a node whose
// parent is excluded is promoted to a root.
func buildDeptForest(departments []entities.Department, include map[string]bool) []dto.DeptTreeNodeDTO {
	nodes := make(map[string]*dto.DeptTreeNodeDTO, len(departments))
	order := make([]string, 0, len(departments))
	for i := range departments {
		d := &departments[i]
		if include != nil && !include[d.ID] {
			continue
		}
		node := &dto.DeptTreeNodeDTO{DepartmentDTO: deptToDTO(d), Children: []dto.DeptTreeNodeDTO{}}
		nodes[d.ID] = node
		order = append(order, d.ID)
	}

	roots := []dto.DeptTreeNodeDTO{}
	// Children attach bottom-up so each subtree is complete before its
	// parent copies it in. The slice is level-ordered, so reverse order
	// visits deepest nodes first.
	for i := len(order) - 1; i >= 0; i-- {
		node := nodes[order[i]]
		parentID := node.ParentID
		if parentID != nil {
			if parent, ok := nodes[*parentID]; ok {
				parent.Children = append([]dto.DeptTreeNodeDTO{*node}, parent.Children...)
				continue
			}
		}
		roots = append([]dto.DeptTreeNodeDTO{*node}, roots...)
	}
	return roots
}

func (s *DepartmentService) GetSimpleDepartments(ctx context.Context) ([]dto.ShortDepartmentDTO, error) {
	departments, err := s.departmentRepository.GetAllDepartments(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]dto.ShortDepartmentDTO, 0, len(departments))
	for i := range departments {
		d := &departments[i]
		result = append(result, dto.ShortDepartmentDTO{
			ID:       d.ID,
			Name:     d.Name,
			Code:     d.Code.Ptr(),
			ParentID: d.ParentID.Ptr(),
			Level:    d.Level,
			Status:   d.Status,
		})
	}
	return result, nil
}

func (s *DepartmentService) GetStats(ctx context.Context) (*dto.DeptStatsDTO, error) {
	stats, err := s.departmentRepository.GetStats(ctx)
	if err != nil {
		s.logger.Error("failed to collect department stats", zap.Error(err))
		return nil, err
	}
	typeStats := map[string]int{}
	for deptType, count := range stats.TypeStats {
		label := constants.DeptTypeDisplay[deptType]
		if label == "" {
			label = deptType
		}
		typeStats[label] = count
	}
	return &dto.DeptStatsDTO{
		TotalCount:    stats.TotalCount,
		ActiveCount:   stats.ActiveCount,
		InactiveCount: stats.InactiveCount,
		RootCount:     stats.RootCount,
		TypeStats:     typeStats,
		MaxLevel:      stats.MaxLevel,
	}, nil
}

// SearchDepartments returns the matches plus their ancestor chains,
// assembled back into trees so the client can render the result in place.
func (s *DepartmentService) SearchDepartments(ctx context.Context, keyword string) ([]dto.DeptTreeNodeDTO, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []dto.DeptTreeNodeDTO{}, nil
	}
	matches, err := s.departmentRepository.SearchDepartments(ctx, keyword)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []dto.DeptTreeNodeDTO{}, nil
	}

	include := map[string]bool{}
	for i := range matches {
		include[matches[i].ID] = true
		for _, ancestorID := range pathIDs(matches[i].Path) {
			include[ancestorID] = true
		}
	}

	all, err := s.departmentRepository.GetAllDepartments(ctx)
	if err != nil {
		return nil, err
	}
	return buildDeptForest(all, include), nil
}

// pathIDs splits a materialized path ("/a/b/") into its ids.
func pathIDs(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func (s *DepartmentService) FindDepartment(ctx context.Context, id string) (*dto.DepartmentDTO, error) {
	department, err := s.departmentRepository.FindDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	result := deptToDTO(department)
	return &result, nil
}

func (s *DepartmentService) GetChildren(ctx context.Context, id string) ([]dto.DepartmentDTO, error) {
	if _, err := s.departmentRepository.FindDepartment(ctx, id); err != nil {
		return nil, err
	}
	filter := types.Filter{Filter: map[string]interface{}{"parent_id": id}}
	children, _, err := s.departmentRepository.GetDepartments(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := make([]dto.DepartmentDTO, 0, len(children))
	for i := range children {
		result = append(result, deptToDTO(&children[i]))
	}
	return result, nil
}

// resolvePlacement computes level and path for a node under parentID.
// Roots sit at level 0 with path "/".
func (s *DepartmentService) resolvePlacement(ctx context.Context, parentID *string) (int, string, error) {
	if parentID == nil || *parentID == "" {
		return 0, "/", nil
	}
	parent, err := s.departmentRepository.FindDepartment(ctx, *parentID)
	if err != nil {
		if err == apperrors.ErrNotFound {
			return 0, "", apperrors.ErrParentNotFound
		}
		return 0, "", err
	}
	return parent.Level + 1, parent.SubtreePrefix(), nil
}

func (s *DepartmentService) CreateDepartment(ctx context.Context, payload dto.CreateDepartmentDTO) (*dto.DepartmentDTO, error) {
	level, path, err := s.resolvePlacement(ctx, payload.ParentID)
	if err != nil {
		return nil, err
	}

	deptType := payload.DeptType
	if deptType == "" {
		deptType = constants.DeptTypeDepartment
	}
	status := true
	if payload.Status != nil {
		status = *payload.Status
	}

	entity := &entities.Department{
		ID:       uuid.NewString(),
		Name:     payload.Name,
		DeptType: deptType,
		Status:   status,
		Level:    level,
		Path:     path,
		Sort:     payload.Sort,
	}
	entity.Code = null.StringFromPtr(payload.Code)
	entity.Phone = null.StringFromPtr(payload.Phone)
	entity.Email = null.StringFromPtr(payload.Email)
	entity.Description = null.StringFromPtr(payload.Description)
	entity.ParentID = null.StringFromPtr(payload.ParentID)
	entity.LeadID = null.StringFromPtr(payload.LeadID)

	created, err := s.departmentRepository.CreateDepartment(ctx, entity)
	if err != nil {
		s.logger.Error("failed to create department", zap.String("name", payload.Name), zap.Error(err))
		return nil, err
	}
	s.invalidateTreeCache(ctx)
	s.logger.Info("department created", zap.String("id", created.ID), zap.String("name", created.Name))

	result := deptToDTO(created)
	return &result, nil
}

func (s *DepartmentService) UpdateDepartment(ctx context.Context, id string, payload dto.UpdateDepartmentDTO) (*dto.DepartmentDTO, error) {
	current, err := s.departmentRepository.FindDepartment(ctx, id)
	if err != nil {
		return nil, err
	}

	// Reparenting goes through the move path so the subtree is rewritten
	// in the same transaction.
	if payload.ParentID != nil && *payload.ParentID != current.ParentID.String {
		if _, err := s.MoveDepartment(ctx, dto.MoveDeptDTO{DeptID: id, NewParentID: payload.ParentID}); err != nil {
			return nil, err
		}
		payload.ParentID = nil
	}

	updated, err := s.departmentRepository.UpdateDepartment(ctx, id, payload)
	if err != nil {
		s.logger.Error("failed to update department", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	s.invalidateTreeCache(ctx)

	result := deptToDTO(updated)
	return &result, nil
}

// MoveDepartment reparents a department, recomputing level and path for
// the node and its whole subtree atomically. Moving a node under itself
// or one of its descendants is rejected.
func (s *DepartmentService) MoveDepartment(ctx context.Context, payload dto.MoveDeptDTO) (*dto.DepartmentDTO, error) {
	department, err := s.departmentRepository.FindDepartment(ctx, payload.DeptID)
	if err != nil {
		return nil, err
	}

	var newParentID *string
	if payload.NewParentID != nil && *payload.NewParentID != "" {
		if *payload.NewParentID == department.ID {
			return nil, apperrors.ErrDeptCycle
		}
		parent, err := s.departmentRepository.FindDepartment(ctx, *payload.NewParentID)
		if err != nil {
			if err == apperrors.ErrNotFound {
				return nil, apperrors.ErrParentNotFound
			}
			return nil, err
		}
		if strings.HasPrefix(parent.SubtreePrefix(), department.SubtreePrefix()) {
			return nil, apperrors.ErrDeptCycle
		}
		newParentID = payload.NewParentID
	}

	newLevel, newPath, err := s.resolvePlacement(ctx, newParentID)
	if err != nil {
		return nil, err
	}
	if newPath == department.Path && ((newParentID == nil && !department.ParentID.Valid) ||
		(newParentID != nil && department.ParentID.Valid && *newParentID == department.ParentID.String)) {
		result := deptToDTO(department)
		return &result, nil
	}

	oldPrefix := department.SubtreePrefix()
	newPrefix := newPath
	if newPrefix == "/" {
		newPrefix = "/" + department.ID + "/"
	} else {
		newPrefix = newPath + department.ID + "/"
	}
	levelDelta := newLevel - department.Level

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.departmentRepository.UpdatePlacementInTx(ctx, tx, department.ID, newParentID, newLevel, newPath); err != nil {
			return err
		}
		return s.departmentRepository.RewriteSubtreeInTx(ctx, tx, oldPrefix, newPrefix, levelDelta)
	})
	if err != nil {
		s.logger.Error("failed to move department", zap.String("id", department.ID), zap.Error(err))
		return nil, err
	}
	s.invalidateTreeCache(ctx)
	s.logger.Info("department moved",
		zap.String("id", department.ID),
		zap.Stringp("new_parent_id", newParentID),
		zap.Int("new_level", newLevel))

	return s.FindDepartment(ctx, department.ID)
}

// DeleteDepartment refuses when the department still has children or
// assigned users.
func (s *DepartmentService) DeleteDepartment(ctx context.Context, id string, hard bool) error {
	if _, err := s.departmentRepository.FindDepartment(ctx, id); err != nil {
		return err
	}
	children, err := s.departmentRepository.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return apperrors.ErrDeptHasChildren
	}
	users, err := s.userRepository.CountByDepts(ctx, []string{id})
	if err != nil {
		return err
	}
	if users > 0 {
		return apperrors.ErrDeptHasUsers
	}

	if hard {
		err = s.departmentRepository.HardDeleteDepartment(ctx, id)
	} else {
		err = s.departmentRepository.DeleteDepartment(ctx, id)
	}
	if err != nil {
		s.logger.Error("failed to delete department", zap.String("id", id), zap.Error(err))
		return err
	}
	s.invalidateTreeCache(ctx)
	return nil
}

// BatchDeleteDepartments deletes each id independently and reports the
// ones that could not be removed.
func (s *DepartmentService) BatchDeleteDepartments(ctx context.Context, ids []string) (*dto.BatchDeleteDeptsResultDTO, error) {
	result := &dto.BatchDeleteDeptsResultDTO{FailedIDs: []string{}}
	for _, id := range ids {
		if err := s.DeleteDepartment(ctx, id, false); err != nil {
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		result.Count++
	}
	return result, nil
}

func (s *DepartmentService) BatchUpdateStatus(ctx context.Context, payload dto.BatchUpdateDeptStatusDTO) (int, error) {
	count, err := s.departmentRepository.BatchUpdateStatus(ctx, payload.IDs, payload.Status)
	if err != nil {
		s.logger.Error("failed to batch update department status", zap.Error(err))
		return 0, err
	}
	s.invalidateTreeCache(ctx)
	return count, nil
}

// GetDeptUsers lists the active members of a department, optionally
// including every descendant department. Disabled users are excluded.
func (s *DepartmentService) GetDeptUsers(ctx context.Context, deptID string, includeChildren bool) ([]dto.ShortUserDTO, error) {
	deptIDs := []string{deptID}
	if includeChildren {
		ids, err := s.DescendantIDs(ctx, deptID)
		if err != nil {
			return nil, err
		}
		deptIDs = ids
	} else if _, err := s.departmentRepository.FindDepartment(ctx, deptID); err != nil {
		return nil, err
	}

	users, err := s.userRepository.GetUsersByDepts(ctx, deptIDs, true)
	if err != nil {
		return nil, err
	}
	result := make([]dto.ShortUserDTO, 0, len(users))
	for i := range users {
		u := &users[i]
		result = append(result, dto.ShortUserDTO{
			ID:       u.ID,
			Username: u.Username,
			Name:     u.Name.Ptr(),
			Email:    u.Email.Ptr(),
			Mobile:   u.Mobile.Ptr(),
			DeptName: u.DeptName.Ptr(),
		})
	}
	return result, nil
}

func (s *DepartmentService) AddUsers(ctx context.Context, deptID string, userIDs []string) (int, error) {
	if _, err := s.departmentRepository.FindDepartment(ctx, deptID); err != nil {
		return 0, err
	}
	return s.userRepository.AssignDept(ctx, deptID, userIDs)
}

func (s *DepartmentService) RemoveUsers(ctx context.Context, deptID string, userIDs []string) (int, error) {
	if _, err := s.departmentRepository.FindDepartment(ctx, deptID); err != nil {
		return 0, err
	}
	return s.userRepository.UnassignDept(ctx, deptID, userIDs)
}

// DescendantIDs returns the department id plus every descendant id.
func (s *DepartmentService) DescendantIDs(ctx context.Context, id string) ([]string, error) {
	department, err := s.departmentRepository.FindDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	all, err := s.departmentRepository.GetAllDepartments(ctx)
	if err != nil {
		return nil, err
	}
	prefix := department.SubtreePrefix()
	ids := []string{department.ID}
	for i := range all {
		if strings.HasPrefix(all[i].Path, prefix) {
			ids = append(ids, all[i].ID)
		}
	}
	return ids, nil
}

// ImportDepartments creates departments row by row; a bad row is recorded
// and the rest continue.
func (s *DepartmentService) ImportDepartments(ctx context.Context, rows []dto.CreateDepartmentDTO) (*dto.ImportResultDTO, error) {
	result := &dto.ImportResultDTO{Errors: []string{}}
	for i, row := range rows {
		if _, err := s.CreateDepartment(ctx, row); err != nil {
			result.FailCount++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d (%s): %v", i+2, row.Name, err))
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}

func (s *DepartmentService) invalidateTreeCache(ctx context.Context) {
	if err := s.cacheRepository.Del(ctx, deptTreeCacheKey); err != nil {
		s.logger.Warn("failed to drop department tree cache", zap.Error(err))
	}
}
