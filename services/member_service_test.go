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

// memberFixture: server-1 (owner: owner-1) + üç üye.
//
//	owner-1 (rolsüz, owner)
//	mod-1   → role-mod (pos 5, manageRoles + manageServer)
//	user-1  → role-default (pos 0)
type memberFixture struct {
	svc      MemberService
	userRepo *fakeUserRepo
	srvRepo  *fakeServerRepo
	roleRepo *fakeRoleRepo
	banRepo  *fakeBanRepo
	hub      *fakeHub
	cache    *countingInvalidator
}

func newMemberFixture(t *testing.T) *memberFixture {
	t.Helper()

	userRepo := newFakeUserRepo()
	userRepo.addUser("owner-1", "owner")
	userRepo.addUser("mod-1", "mod")
	userRepo.addUser("user-1", "alice")

	srvRepo := newFakeServerRepo()
	srvRepo.addServer("server-1", "owner-1")
	srvRepo.addMember("server-1", "owner-1")
	srvRepo.addMember("server-1", "mod-1")
	srvRepo.addMember("server-1", "user-1")

	roleRepo := newFakeRoleRepo()
	roleRepo.addRole(models.Role{
		ID: "role-mod", ServerID: "server-1", Name: "mod", Position: 5,
		PermissionSet: models.PermissionSet{ManageRoles: true, ManageServer: true, ReadMessages: true, SendMessages: true},
	})
	roleRepo.addRole(models.Role{
		ID: "role-default", ServerID: "server-1", Name: "everyone", Position: 0, IsDefault: true,
		PermissionSet: models.PermissionSet{ReadMessages: true, SendMessages: true},
	})
	roleRepo.assign("server-1", "mod-1", "role-mod")
	roleRepo.assign("server-1", "user-1", "role-default")

	banRepo := newFakeBanRepo()
	hub := newFakeHub()
	cache := &countingInvalidator{}

	return &memberFixture{
		svc:      NewMemberService(userRepo, srvRepo, roleRepo, banRepo, cache, hub),
		userRepo: userRepo,
		srvRepo:  srvRepo,
		roleRepo: roleRepo,
		banRepo:  banRepo,
		hub:      hub,
		cache:    cache,
	}
}

func TestMemberKick_OwnerCannotBeKicked(t *testing.T) {
	f := newMemberFixture(t)

	err := f.svc.Kick(context.Background(), "server-1", "mod-1", "owner-1")
	assert.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestMemberKick_HierarchyRequired(t *testing.T) {
	f := newMemberFixture(t)

	// user-1 (pos 0) mod-1'i (pos 5) atamaz.
	err := f.svc.Kick(context.Background(), "server-1", "user-1", "mod-1")
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	// mod-1 (pos 5) user-1'i (pos 0) atabilir.
	require.NoError(t, f.svc.Kick(context.Background(), "server-1", "mod-1", "user-1"))

	isMember, err := f.srvRepo.IsMember(context.Background(), "server-1", "user-1")
	require.NoError(t, err)
	assert.False(t, isMember)

	// Hesap silinmez — sadece üyelik düşer.
	_, err = f.userRepo.GetByID(context.Background(), "user-1")
	assert.NoError(t, err)

	// member_leave sunucuya, server_delete hedefe gider; abonelik düşer.
	require.Len(t, f.hub.eventsWithOp(ws.OpMemberLeave), 1)
	require.Len(t, f.hub.eventsWithOp(ws.OpServerDelete), 1)
	assert.Contains(t, f.hub.unsubbed, "user-1|server-1")
	assert.Contains(t, f.cache.users, "user-1")
}

func TestMemberKick_EqualPositionRejected(t *testing.T) {
	f := newMemberFixture(t)
	f.userRepo.addUser("mod-2", "mod2")
	f.srvRepo.addMember("server-1", "mod-2")
	f.roleRepo.assign("server-1", "mod-2", "role-mod")

	// Aynı en üst position — kesin büyüklük yok, red.
	err := f.svc.Kick(context.Background(), "server-1", "mod-1", "mod-2")
	assert.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestMemberKick_SelfRejected(t *testing.T) {
	f := newMemberFixture(t)

	err := f.svc.Kick(context.Background(), "server-1", "mod-1", "mod-1")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestMemberKick_OwnerBypassesHierarchy(t *testing.T) {
	f := newMemberFixture(t)

	// Owner rol tutmuyor (pos -1) ama herkesi atabilir.
	require.NoError(t, f.svc.Kick(context.Background(), "server-1", "owner-1", "mod-1"))
}

func TestMemberBan_CreatesRecordAndRemoves(t *testing.T) {
	f := newMemberFixture(t)

	err := f.svc.Ban(context.Background(), "server-1", "mod-1", "user-1", &models.BanRequest{Reason: "spam"})
	require.NoError(t, err)

	banned, err := f.banRepo.Exists(context.Background(), "server-1", "user-1")
	require.NoError(t, err)
	assert.True(t, banned)

	isMember, err := f.srvRepo.IsMember(context.Background(), "server-1", "user-1")
	require.NoError(t, err)
	assert.False(t, isMember)

	require.Len(t, f.banRepo.bans, 1)
	assert.Equal(t, "mod-1", f.banRepo.bans[0].BannedBy)
	assert.Equal(t, "spam", f.banRepo.bans[0].Reason)
}

func TestMemberBan_OwnerProtected(t *testing.T) {
	f := newMemberFixture(t)

	err := f.svc.Ban(context.Background(), "server-1", "mod-1", "owner-1", &models.BanRequest{Reason: "x"})
	assert.ErrorIs(t, err, pkg.ErrForbidden)
	assert.Empty(t, f.banRepo.bans)
}

func TestMemberUnban_RemovesRecord(t *testing.T) {
	f := newMemberFixture(t)
	require.NoError(t, f.svc.Ban(context.Background(), "server-1", "owner-1", "user-1", &models.BanRequest{Reason: "x"}))

	require.NoError(t, f.svc.Unban(context.Background(), "server-1", "user-1"))

	banned, err := f.banRepo.Exists(context.Background(), "server-1", "user-1")
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestModifyRoles_DeclarativeDiff(t *testing.T) {
	f := newMemberFixture(t)
	f.roleRepo.addRole(models.Role{ID: "role-helper", ServerID: "server-1", Name: "helper", Position: 2})

	// Hedef set: default + helper → helper eklenir, mevcutlar korunur.
	member, err := f.svc.ModifyRoles(context.Background(), "server-1", "mod-1", "user-1", &models.RoleModifyRequest{
		RoleIDs: []string{"role-default", "role-helper"},
	})
	require.NoError(t, err)

	roleIDs := make([]string, 0, len(member.Roles))
	for _, r := range member.Roles {
		roleIDs = append(roleIDs, r.ID)
	}
	assert.ElementsMatch(t, []string{"role-default", "role-helper"}, roleIDs)
	assert.Contains(t, f.cache.users, "user-1")
	require.Len(t, f.hub.eventsWithOp(ws.OpMemberUpdate), 1)
}

func TestModifyRoles_DefaultRoleNeverRemoved(t *testing.T) {
	f := newMemberFixture(t)

	// Boş hedef set — default rol yine de kalır.
	member, err := f.svc.ModifyRoles(context.Background(), "server-1", "mod-1", "user-1", &models.RoleModifyRequest{
		RoleIDs: []string{},
	})
	require.NoError(t, err)
	require.Len(t, member.Roles, 1)
	assert.Equal(t, "role-default", member.Roles[0].ID)
}

func TestModifyRoles_CannotAssignAboveOwnTop(t *testing.T) {
	f := newMemberFixture(t)
	f.roleRepo.addRole(models.Role{ID: "role-high", ServerID: "server-1", Name: "high", Position: 9})

	_, err := f.svc.ModifyRoles(context.Background(), "server-1", "mod-1", "user-1", &models.RoleModifyRequest{
		RoleIDs: []string{"role-default", "role-high"},
	})
	assert.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestModifyRoles_ForeignServerRoleRejected(t *testing.T) {
	f := newMemberFixture(t)
	f.roleRepo.addRole(models.Role{ID: "role-foreign", ServerID: "server-2", Name: "foreign", Position: 1})

	_, err := f.svc.ModifyRoles(context.Background(), "server-1", "owner-1", "user-1", &models.RoleModifyRequest{
		RoleIDs: []string{"role-default", "role-foreign"},
	})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestModifyRoles_OwnerTargetProtected(t *testing.T) {
	f := newMemberFixture(t)

	_, err := f.svc.ModifyRoles(context.Background(), "server-1", "mod-1", "owner-1", &models.RoleModifyRequest{
		RoleIDs: []string{},
	})
	assert.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestModifyRoles_NonMemberTarget(t *testing.T) {
	f := newMemberFixture(t)
	f.userRepo.addUser("stranger", "stranger")

	_, err := f.svc.ModifyRoles(context.Background(), "server-1", "owner-1", "stranger", &models.RoleModifyRequest{
		RoleIDs: []string{},
	})
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestMemberGetAll_ComputesServerLevelPermissions(t *testing.T) {
	f := newMemberFixture(t)

	members, err := f.svc.GetAll(context.Background(), "server-1")
	require.NoError(t, err)
	require.Len(t, members, 3)

	byID := make(map[string]models.MemberWithRoles, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	// Owner rolsüz bile olsa tüm yetkiler true.
	assert.True(t, byID["owner-1"].IsOwner)
	assert.Equal(t, models.AllGranted(), byID["owner-1"].EffectivePermissions)

	// Normal üyenin yetkileri rol birleşiminden gelir.
	assert.False(t, byID["user-1"].IsOwner)
	assert.True(t, byID["user-1"].EffectivePermissions.Has(models.PermReadMessages))
	assert.False(t, byID["user-1"].EffectivePermissions.Has(models.PermManageServer))
}

func TestUpdatePresence_BroadcastsToMemberServers(t *testing.T) {
	f := newMemberFixture(t)

	require.NoError(t, f.svc.UpdatePresence(context.Background(), "user-1", models.UserStatusIdle))

	u, err := f.userRepo.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusIdle, u.Status)

	events := f.hub.eventsWithOp(ws.OpPresence)
	require.Len(t, events, 1)
	data, ok := events[0].Event.Data.(ws.PresenceData)
	require.True(t, ok)
	assert.Equal(t, "user-1", data.UserID)
	assert.Equal(t, "idle", data.Status)
}
