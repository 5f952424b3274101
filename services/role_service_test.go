package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acarlson33/firepit/models"
	"github.com/acarlson33/firepit/pkg"
	"github.com/acarlson33/firepit/ws"
)

// roleFixture: server-1 (owner: owner-1) + üç rol.
//
//	role-admin   (pos 10, administrator)  → admin-1
//	role-mod     (pos 5, manageRoles)     → mod-1
//	role-default (pos 0, default)
type roleFixture struct {
	svc      RoleService
	roleRepo *fakeRoleRepo
	srvRepo  *fakeServerRepo
	hub      *fakeHub
	cache    *countingInvalidator
}

// countingInvalidator, cache invalidation çağrılarını sayar.
type countingInvalidator struct {
	users    []string
	channels []string
	allCalls int
}

func (c *countingInvalidator) InvalidateUser(userID string)       { c.users = append(c.users, userID) }
func (c *countingInvalidator) InvalidateChannel(channelID string) { c.channels = append(c.channels, channelID) }
func (c *countingInvalidator) InvalidateAll()                     { c.allCalls++ }

func newRoleFixture(t *testing.T) *roleFixture {
	t.Helper()

	srvRepo := newFakeServerRepo()
	srvRepo.addServer("server-1", "owner-1")

	roleRepo := newFakeRoleRepo()
	roleRepo.addRole(models.Role{
		ID: "role-admin", ServerID: "server-1", Name: "admin", Position: 10,
		PermissionSet: models.PermissionSet{Administrator: true},
	})
	roleRepo.addRole(models.Role{
		ID: "role-mod", ServerID: "server-1", Name: "mod", Position: 5,
		PermissionSet: models.PermissionSet{ManageRoles: true, ReadMessages: true, SendMessages: true},
	})
	roleRepo.addRole(models.Role{
		ID: "role-default", ServerID: "server-1", Name: "everyone", Position: 0, IsDefault: true,
		PermissionSet: models.PermissionSet{ReadMessages: true, SendMessages: true},
	})
	roleRepo.assign("server-1", "admin-1", "role-admin")
	roleRepo.assign("server-1", "mod-1", "role-mod")

	hub := newFakeHub()
	cache := &countingInvalidator{}

	return &roleFixture{
		svc:      NewRoleService(roleRepo, srvRepo, cache, hub),
		roleRepo: roleRepo,
		srvRepo:  srvRepo,
		hub:      hub,
		cache:    cache,
	}
}

func TestRoleCreate_EscalationGuard(t *testing.T) {
	f := newRoleFixture(t)

	// mod-1 manageServer'a sahip değil — o yetkiyi veremez.
	_, err := f.svc.Create(context.Background(), "server-1", "mod-1", &models.CreateRoleRequest{
		Name:        "helper",
		Color:       "#FF5733",
		Permissions: models.PermissionSet{ManageServer: true},
	})
	assert.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestRoleCreate_AdminCanGrantAnything(t *testing.T) {
	f := newRoleFixture(t)

	role, err := f.svc.Create(context.Background(), "server-1", "admin-1", &models.CreateRoleRequest{
		Name:        "helper",
		Color:       "#FF5733",
		Permissions: models.PermissionSet{ManageServer: true, ManageRoles: true},
	})
	require.NoError(t, err)
	assert.True(t, role.ManageServer)
	// Yeni rol admin'in en yüksek rolünün altına yerleşir.
	assert.Equal(t, 9, role.Position)

	require.Len(t, f.hub.eventsWithOp(ws.OpRoleCreate), 1)
}

func TestRoleCreate_OwnerWithoutRoles(t *testing.T) {
	f := newRoleFixture(t)

	role, err := f.svc.Create(context.Background(), "server-1", "owner-1", &models.CreateRoleRequest{
		Name:        "top",
		Color:       "#AA00AA",
		Permissions: models.PermissionSet{Administrator: true},
	})
	require.NoError(t, err)
	// Owner rol tutmuyor — yeni rol mevcut en yükseğin üstüne gider.
	assert.Equal(t, 11, role.Position)
}

func TestRoleUpdate_HierarchyBlocksEqualOrHigher(t *testing.T) {
	f := newRoleFixture(t)
	newName := "renamed"

	// mod-1 (pos 5) kendi rolünü (pos 5) düzenleyemez — kesin büyüklük gerekir.
	_, err := f.svc.Update(context.Background(), "server-1", "mod-1", "role-mod", &models.UpdateRoleRequest{
		Name: &newName,
	})
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	// Alttaki default rolü düzenleyebilir.
	updated, err := f.svc.Update(context.Background(), "server-1", "mod-1", "role-default", &models.UpdateRoleRequest{
		Name: &newName,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
}

func TestRoleUpdate_PermissionChangeInvalidatesAll(t *testing.T) {
	f := newRoleFixture(t)
	perms := models.PermissionSet{ReadMessages: true}

	_, err := f.svc.Update(context.Background(), "server-1", "owner-1", "role-default", &models.UpdateRoleRequest{
		Permissions: &perms,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.allCalls)
}

func TestRoleUpdate_ForeignServerRoleLooksNotFound(t *testing.T) {
	f := newRoleFixture(t)
	f.roleRepo.addRole(models.Role{ID: "role-foreign", ServerID: "server-2", Position: 1})
	newName := "x"

	_, err := f.svc.Update(context.Background(), "server-1", "owner-1", "role-foreign", &models.UpdateRoleRequest{
		Name: &newName,
	})
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestRoleDelete_DefaultRoleProtected(t *testing.T) {
	f := newRoleFixture(t)

	err := f.svc.Delete(context.Background(), "server-1", "owner-1", "role-default")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestRoleDelete_AdminTargetNeedsHierarchy(t *testing.T) {
	f := newRoleFixture(t)

	// admin-1'in admin kısa yolu admin hedefe karşı çalışmaz;
	// manageRoles flag'i de yoksa silme reddedilir.
	err := f.svc.Delete(context.Background(), "server-1", "admin-1", "role-admin")
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	// Owner her rolü silebilir.
	require.NoError(t, f.svc.Delete(context.Background(), "server-1", "owner-1", "role-admin"))
	require.Len(t, f.hub.eventsWithOp(ws.OpRoleDelete), 1)
	assert.Equal(t, 1, f.cache.allCalls)
}

func TestRoleReorder_DefaultRoleRejected(t *testing.T) {
	f := newRoleFixture(t)

	_, err := f.svc.Reorder(context.Background(), "server-1", "owner-1", &models.ReorderRolesRequest{
		Positions: []models.RolePosition{{RoleID: "role-default", Position: 3}},
	})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestRoleReorder_CannotMoveAboveOwnTop(t *testing.T) {
	f := newRoleFixture(t)
	f.roleRepo.addRole(models.Role{ID: "role-low", ServerID: "server-1", Name: "low", Position: 1})

	// mod-1'in tepesi 5 — rolü 5'e veya üstüne taşıyamaz.
	_, err := f.svc.Reorder(context.Background(), "server-1", "mod-1", &models.ReorderRolesRequest{
		Positions: []models.RolePosition{{RoleID: "role-low", Position: 5}},
	})
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	// Altında kaldığı sürece serbest.
	roles, err := f.svc.Reorder(context.Background(), "server-1", "mod-1", &models.ReorderRolesRequest{
		Positions: []models.RolePosition{{RoleID: "role-low", Position: 2}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, roles)
	require.Len(t, f.hub.eventsWithOp(ws.OpRolesReorder), 1)
}
