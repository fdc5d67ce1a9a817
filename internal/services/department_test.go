package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"admin-system/internal/dto"
	"admin-system/pkg/constants"
	apperrors "admin-system/pkg/errors"
)

func strPtr(s string) *string { return &s }

func newDeptTestService() (DepartmentServiceInterface, *fakeDeptRepo, *fakeUserRepo, *fakeCacheRepo) {
	deptRepo := newFakeDeptRepo()
	userRepo := newFakeUserRepo()
	cache := newFakeCacheRepo()
	svc := NewDepartmentService(deptRepo, userRepo, cache, &fakeTxManager{}, time.Minute, zap.NewNop())
	return svc, deptRepo, userRepo, cache
}

func mustCreateDept(t *testing.T, svc DepartmentServiceInterface, name string, parentID *string) dto.DepartmentDTO {
	t.Helper()
	created, err := svc.CreateDepartment(context.Background(), dto.CreateDepartmentDTO{
		Name:     name,
		ParentID: parentID,
	})
	require.NoError(t, err)
	return *created
}

func TestCreateDepartmentPlacement(t *testing.T) {
	svc, _, _, _ := newDeptTestService()
	ctx := context.Background()

	root := mustCreateDept(t, svc, "Head Office", nil)
	assert.Equal(t, 0, root.Level)
	assert.Equal(t, "/", root.Path)

	child := mustCreateDept(t, svc, "Engineering", &root.ID)
	assert.Equal(t, 1, child.Level)
	assert.Equal(t, "/"+root.ID+"/", child.Path)

	grandchild := mustCreateDept(t, svc, "Platform", &child.ID)
	assert.Equal(t, 2, grandchild.Level)
	assert.Equal(t, "/"+root.ID+"/"+child.ID+"/", grandchild.Path)

	_, err := svc.CreateDepartment(ctx, dto.CreateDepartmentDTO{
		Name:     "Orphan",
		ParentID: strPtr("11111111-1111-1111-1111-111111111111"),
	})
	assert.ErrorIs(t, err, apperrors.ErrParentNotFound)
}

func TestGetTreeShape(t *testing.T) {
	svc, _, _, cache := newDeptTestService()
	ctx := context.Background()

	root := mustCreateDept(t, svc, "Head Office", nil)
	child := mustCreateDept(t, svc, "Engineering", &root.ID)
	mustCreateDept(t, svc, "Platform", &child.ID)
	other := mustCreateDept(t, svc, "Branch Office", nil)

	tree, err := svc.GetTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 2)

	byName := map[string]dto.DeptTreeNodeDTO{}
	for _, node := range tree {
		byName[node.Name] = node
	}
	require.Contains(t, byName, "Head Office")
	require.Contains(t, byName, "Branch Office")
	require.Len(t, byName["Head Office"].Children, 1)
	assert.Equal(t, "Engineering", byName["Head Office"].Children[0].Name)
	require.Len(t, byName["Head Office"].Children[0].Children, 1)
	assert.Equal(t, "Platform", byName["Head Office"].Children[0].Children[0].Name)
	assert.Empty(t, byName["Branch Office"].Children)

	// Second call is served from cache.
	assert.Contains(t, cache.data, "dept:tree")
	cached, err := svc.GetTree(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 2)

	// A mutation drops the cache entry.
	_, err = svc.UpdateDepartment(ctx, other.ID, dto.UpdateDepartmentDTO{Name: strPtr("Remote Office")})
	require.NoError(t, err)
	assert.NotContains(t, cache.data, "dept:tree")
}

func TestMoveDepartmentRewritesSubtree(t *testing.T) {
	svc, deptRepo, _, _ := newDeptTestService()
	ctx := context.Background()

	rootA := mustCreateDept(t, svc, "Root A", nil)
	rootB := mustCreateDept(t, svc, "Root B", nil)
	child := mustCreateDept(t, svc, "Child", &rootA.ID)
	grandchild := mustCreateDept(t, svc, "Grandchild", &child.ID)

	moved, err := svc.MoveDepartment(ctx, dto.MoveDeptDTO{DeptID: child.ID, NewParentID: &rootB.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, moved.Level)
	assert.Equal(t, "/"+rootB.ID+"/", moved.Path)

	g, err := deptRepo.FindDepartment(ctx, grandchild.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Level)
	assert.Equal(t, "/"+rootB.ID+"/"+child.ID+"/", g.Path)
}

func TestMoveDepartmentToRoot(t *testing.T) {
	svc, _, _, _ := newDeptTestService()
	ctx := context.Background()

	root := mustCreateDept(t, svc, "Root", nil)
	child := mustCreateDept(t, svc, "Child", &root.ID)

	moved, err := svc.MoveDepartment(ctx, dto.MoveDeptDTO{DeptID: child.ID, NewParentID: nil})
	require.NoError(t, err)
	assert.Equal(t, 0, moved.Level)
	assert.Equal(t, "/", moved.Path)
	assert.Nil(t, moved.ParentID)
}

func TestMoveDepartmentRejectsCycles(t *testing.T) {
	svc, _, _, _ := newDeptTestService()
	ctx := context.Background()

	root := mustCreateDept(t, svc, "Root", nil)
	child := mustCreateDept(t, svc, "Child", &root.ID)
	grandchild := mustCreateDept(t, svc, "Grandchild", &child.ID)

	_, err := svc.MoveDepartment(ctx, dto.MoveDeptDTO{DeptID: root.ID, NewParentID: &grandchild.ID})
	assert.ErrorIs(t, err, apperrors.ErrDeptCycle)

	_, err = svc.MoveDepartment(ctx, dto.MoveDeptDTO{DeptID: root.ID, NewParentID: &root.ID})
	assert.ErrorIs(t, err, apperrors.ErrDeptCycle)
}

func TestDeleteDepartmentGuards(t *testing.T) {
	svc, _, userRepo, _ := newDeptTestService()
	ctx := context.Background()

	root := mustCreateDept(t, svc, "Root", nil)
	child := mustCreateDept(t, svc, "Child", &root.ID)

	err := svc.DeleteDepartment(ctx, root.ID, false)
	assert.ErrorIs(t, err, apperrors.ErrDeptHasChildren)

	user := newTestUser("worker")
	user.DeptID.SetValid(child.ID)
	_, err = userRepo.CreateUser(ctx, user)
	require.NoError(t, err)

	err = svc.DeleteDepartment(ctx, child.ID, false)
	assert.ErrorIs(t, err, apperrors.ErrDeptHasUsers)

	_, err = userRepo.UnassignDept(ctx, child.ID, []string{user.ID})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteDepartment(ctx, child.ID, false))
	require.NoError(t, svc.DeleteDepartment(ctx, root.ID, false))

	err = svc.DeleteDepartment(ctx, root.ID, false)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBatchDeleteDepartmentsReportsFailures(t *testing.T) {
	svc, _, _, _ := newDeptTestService()
	ctx := context.Background()

	root := mustCreateDept(t, svc, "Root", nil)
	child := mustCreateDept(t, svc, "Child", &root.ID)
	lone := mustCreateDept(t, svc, "Lone", nil)

	result, err := svc.BatchDeleteDepartments(ctx, []string{root.ID, child.ID, lone.ID})
	require.NoError(t, err)
	// root fails (still has child at that point), child and lone succeed.
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, []string{root.ID}, result.FailedIDs)
}

func TestSearchReturnsAncestors(t *testing.T) {
	svc, _, _, _ := newDeptTestService()
	ctx := context.Background()

	root := mustCreateDept(t, svc, "Head Office", nil)
	child := mustCreateDept(t, svc, "Engineering", &root.ID)
	mustCreateDept(t, svc, "Platform Team", &child.ID)
	mustCreateDept(t, svc, "Finance", &root.ID)

	result, err := svc.SearchDepartments(ctx, "platform")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Head Office", result[0].Name)
	require.Len(t, result[0].Children, 1)
	assert.Equal(t, "Engineering", result[0].Children[0].Name)
	require.Len(t, result[0].Children[0].Children, 1)
	assert.Equal(t, "Platform Team", result[0].Children[0].Children[0].Name)

	empty, err := svc.SearchDepartments(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetStats(t *testing.T) {
	svc, _, _, _ := newDeptTestService()
	ctx := context.Background()

	root := mustCreateDept(t, svc, "Head Office", nil)
	child := mustCreateDept(t, svc, "Engineering", &root.ID)
	_, err := svc.UpdateDepartment(ctx, child.ID, dto.UpdateDepartmentDTO{Status: boolPtr(false)})
	require.NoError(t, err)

	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalCount)
	assert.Equal(t, 1, stats.ActiveCount)
	assert.Equal(t, 1, stats.InactiveCount)
	assert.Equal(t, 1, stats.RootCount)
	assert.Equal(t, 1, stats.MaxLevel)
	assert.Equal(t, 2, stats.TypeStats["Department"])
}

func TestDescendantIDs(t *testing.T) {
	svc, _, _, _ := newDeptTestService()
	ctx := context.Background()

	root := mustCreateDept(t, svc, "Root", nil)
	child := mustCreateDept(t, svc, "Child", &root.ID)
	grandchild := mustCreateDept(t, svc, "Grandchild", &child.ID)
	mustCreateDept(t, svc, "Other Root", nil)

	ids, err := svc.DescendantIDs(ctx, root.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{root.ID, child.ID, grandchild.ID}, ids)

	ids, err = svc.DescendantIDs(ctx, grandchild.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{grandchild.ID}, ids)
}

func TestGetDeptUsers(t *testing.T) {
	svc, _, userRepo, _ := newDeptTestService()
	ctx := context.Background()

	root := mustCreateDept(t, svc, "Root", nil)
	child := mustCreateDept(t, svc, "Child", &root.ID)

	inRoot := newTestUser("root-worker")
	inRoot.DeptID.SetValid(root.ID)
	_, err := userRepo.CreateUser(ctx, inRoot)
	require.NoError(t, err)

	inChild := newTestUser("child-worker")
	inChild.DeptID.SetValid(child.ID)
	_, err = userRepo.CreateUser(ctx, inChild)
	require.NoError(t, err)

	disabled := newTestUser("disabled-worker")
	disabled.DeptID.SetValid(root.ID)
	disabled.UserStatus = constants.UserStatusDisabled
	_, err = userRepo.CreateUser(ctx, disabled)
	require.NoError(t, err)

	// Only active members are listed.
	direct, err := svc.GetDeptUsers(ctx, root.ID, false)
	require.NoError(t, err)
	require.Len(t, direct, 1)
	assert.Equal(t, "root-worker", direct[0].Username)

	all, err := svc.GetDeptUsers(ctx, root.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, u := range all {
		assert.NotEqual(t, "disabled-worker", u.Username)
	}
}

func TestAddAndRemoveUsers(t *testing.T) {
	svc, _, userRepo, _ := newDeptTestService()
	ctx := context.Background()

	dept := mustCreateDept(t, svc, "Engineering", nil)
	alice := newTestUser("alice")
	bob := newTestUser("bob")
	_, err := userRepo.CreateUser(ctx, alice)
	require.NoError(t, err)
	_, err = userRepo.CreateUser(ctx, bob)
	require.NoError(t, err)

	count, err := svc.AddUsers(ctx, dept.ID, []string{alice.ID, bob.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Re-adding is not counted again.
	count, err = svc.AddUsers(ctx, dept.ID, []string{alice.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = svc.RemoveUsers(ctx, dept.ID, []string{alice.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	remaining, err := svc.GetDeptUsers(ctx, dept.ID, false)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "bob", remaining[0].Username)
}

func boolPtr(b bool) *bool { return &b }
