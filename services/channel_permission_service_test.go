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

// permFixture, resolver testleri için standart bir sunucu kurar:
// server-1 (owner: owner-1), channel-1, default rol (readMessages+sendMessages)
// herkese atanmış.
type permFixture struct {
	svc      ChannelPermissionService
	permRepo *fakeChannelPermRepo
	roleRepo *fakeRoleRepo
	chanRepo *fakeChannelRepo
	srvRepo  *fakeServerRepo
	hub      *fakeHub
}

func newPermFixture(t *testing.T) *permFixture {
	t.Helper()

	srvRepo := newFakeServerRepo()
	srvRepo.addServer("server-1", "owner-1")

	chanRepo := newFakeChannelRepo()
	chanRepo.addChannel("channel-1", "server-1")

	roleRepo := newFakeRoleRepo()
	roleRepo.addRole(models.Role{
		ID: "role-default", ServerID: "server-1", Name: "everyone",
		Position: 0, IsDefault: true,
		PermissionSet: models.PermissionSet{ReadMessages: true, SendMessages: true},
	})

	permRepo := newFakeChannelPermRepo()
	hub := newFakeHub()

	return &permFixture{
		svc:      NewChannelPermissionService(permRepo, roleRepo, chanRepo, srvRepo, hub),
		permRepo: permRepo,
		roleRepo: roleRepo,
		chanRepo: chanRepo,
		srvRepo:  srvRepo,
		hub:      hub,
	}
}

func TestResolveChannelPermissions_RoleUnion(t *testing.T) {
	f := newPermFixture(t)
	f.roleRepo.assign("server-1", "user-1", "role-default")

	got, err := f.svc.ResolveChannelPermissions(context.Background(), "user-1", "channel-1")
	require.NoError(t, err)
	assert.Equal(t, models.PermissionSet{ReadMessages: true, SendMessages: true}, got)
}

func TestResolveChannelPermissions_OwnerBypassesOverrides(t *testing.T) {
	f := newPermFixture(t)
	f.permRepo.overrides = append(f.permRepo.overrides, models.ChannelPermissionOverride{
		ID: "o1", ChannelID: "channel-1", UserID: "owner-1",
		Deny: []string{"readMessages", "sendMessages"},
	})

	got, err := f.svc.ResolveChannelPermissions(context.Background(), "owner-1", "channel-1")
	require.NoError(t, err)
	assert.Equal(t, models.AllGranted(), got)
}

func TestResolveChannelPermissions_FiltersIrrelevantOverrides(t *testing.T) {
	f := newPermFixture(t)
	f.roleRepo.addRole(models.Role{ID: "role-mod", ServerID: "server-1", Position: 5})
	f.roleRepo.assign("server-1", "user-1", "role-default")

	// user-1 role-mod'u TUTMUYOR — bu override onu etkilememeli.
	f.permRepo.overrides = append(f.permRepo.overrides,
		models.ChannelPermissionOverride{
			ID: "o1", ChannelID: "channel-1", RoleID: "role-mod",
			Deny: []string{"sendMessages"},
		},
		// Başka bir kullanıcıyı hedefleyen override da etkilememeli.
		models.ChannelPermissionOverride{
			ID: "o2", ChannelID: "channel-1", UserID: "user-2",
			Deny: []string{"readMessages"},
		},
	)

	got, err := f.svc.ResolveChannelPermissions(context.Background(), "user-1", "channel-1")
	require.NoError(t, err)
	assert.True(t, got.Has(models.PermSendMessages))
	assert.True(t, got.Has(models.PermReadMessages))
}

func TestResolveChannelPermissions_UserOverrideApplies(t *testing.T) {
	f := newPermFixture(t)
	f.roleRepo.assign("server-1", "user-1", "role-default")
	f.permRepo.overrides = append(f.permRepo.overrides, models.ChannelPermissionOverride{
		ID: "o1", ChannelID: "channel-1", UserID: "user-1",
		Allow: []string{"manageMessages"},
		Deny:  []string{"sendMessages"},
	})

	got, err := f.svc.ResolveChannelPermissions(context.Background(), "user-1", "channel-1")
	require.NoError(t, err)
	assert.True(t, got.Has(models.PermManageMessages))
	assert.False(t, got.Has(models.PermSendMessages))
	assert.True(t, got.Has(models.PermReadMessages))
}

func TestResolveChannelPermissions_NonMemberGetsNothing(t *testing.T) {
	f := newPermFixture(t)
	// user-9'un hiç rolü yok — hiçbir yetki çıkmamalı.

	got, err := f.svc.ResolveChannelPermissions(context.Background(), "user-9", "channel-1")
	require.NoError(t, err)
	assert.Equal(t, models.PermissionSet{}, got)
}

func TestResolveChannelPermissions_UnknownChannel(t *testing.T) {
	f := newPermFixture(t)

	_, err := f.svc.ResolveChannelPermissions(context.Background(), "user-1", "no-such-channel")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestResolveChannelPermissions_CachesResult(t *testing.T) {
	f := newPermFixture(t)
	f.roleRepo.assign("server-1", "user-1", "role-default")

	_, err := f.svc.ResolveChannelPermissions(context.Background(), "user-1", "channel-1")
	require.NoError(t, err)
	_, err = f.svc.ResolveChannelPermissions(context.Background(), "user-1", "channel-1")
	require.NoError(t, err)

	assert.Equal(t, 1, f.permRepo.getCalls, "ikinci çağrı cache'den dönmeli")
}

func TestResolveChannelPermissions_InvalidateChannelDropsCache(t *testing.T) {
	f := newPermFixture(t)
	f.roleRepo.assign("server-1", "user-1", "role-default")

	_, err := f.svc.ResolveChannelPermissions(context.Background(), "user-1", "channel-1")
	require.NoError(t, err)

	f.svc.InvalidateChannel("channel-1")

	_, err = f.svc.ResolveChannelPermissions(context.Background(), "user-1", "channel-1")
	require.NoError(t, err)
	assert.Equal(t, 2, f.permRepo.getCalls)
}

func TestResolveChannelPermissions_InvalidateUserDropsOnlyThatUser(t *testing.T) {
	f := newPermFixture(t)
	f.roleRepo.assign("server-1", "user-1", "role-default")
	f.roleRepo.assign("server-1", "user-2", "role-default")

	_, err := f.svc.ResolveChannelPermissions(context.Background(), "user-1", "channel-1")
	require.NoError(t, err)
	_, err = f.svc.ResolveChannelPermissions(context.Background(), "user-2", "channel-1")
	require.NoError(t, err)

	f.svc.InvalidateUser("user-1")

	_, err = f.svc.ResolveChannelPermissions(context.Background(), "user-2", "channel-1")
	require.NoError(t, err)
	assert.Equal(t, 2, f.permRepo.getCalls, "user-2 hâlâ cache'de olmalı")

	_, err = f.svc.ResolveChannelPermissions(context.Background(), "user-1", "channel-1")
	require.NoError(t, err)
	assert.Equal(t, 3, f.permRepo.getCalls, "user-1 yeniden yüklenmeli")
}

func TestSetOverride_RejectsForeignServerRole(t *testing.T) {
	f := newPermFixture(t)
	f.roleRepo.addRole(models.Role{ID: "role-other", ServerID: "server-2", Position: 1})

	_, err := f.svc.SetOverride(context.Background(), "channel-1", &models.SetOverrideRequest{
		RoleID: "role-other",
		Allow:  []string{"readMessages"},
	})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestSetOverride_RejectsNonMemberUser(t *testing.T) {
	f := newPermFixture(t)

	// Hiç var olmayan kullanıcı da aynı yoldan reddedilir —
	// FK hatasına düşmeden anlamlı bir bad request döner.
	_, err := f.svc.SetOverride(context.Background(), "channel-1", &models.SetOverrideRequest{
		UserID: "yabanci-1",
		Allow:  []string{"manageMessages"},
	})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
	assert.Empty(t, f.permRepo.overrides)
}

func TestSetOverride_UpsertKeepsSingleEntry(t *testing.T) {
	f := newPermFixture(t)
	f.srvRepo.addMember("server-1", "user-1")

	first, err := f.svc.SetOverride(context.Background(), "channel-1", &models.SetOverrideRequest{
		UserID: "user-1",
		Deny:   []string{"sendMessages"},
	})
	require.NoError(t, err)

	second, err := f.svc.SetOverride(context.Background(), "channel-1", &models.SetOverrideRequest{
		UserID: "user-1",
		Allow:  []string{"manageMessages"},
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "aynı hedef için upsert ID korumalı")
	assert.Len(t, f.permRepo.overrides, 1)

	events := f.hub.eventsWithOp(ws.OpChannelPermissionUpdate)
	require.Len(t, events, 2)
	assert.Equal(t, "server-1", events[0].ServerID)
}

func TestDeleteOverride_BroadcastsTarget(t *testing.T) {
	f := newPermFixture(t)
	f.srvRepo.addMember("server-1", "user-1")
	_, err := f.svc.SetOverride(context.Background(), "channel-1", &models.SetOverrideRequest{
		UserID: "user-1",
		Deny:   []string{"sendMessages"},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteOverride(context.Background(), "channel-1", "", "user-1"))
	assert.Empty(t, f.permRepo.overrides)

	events := f.hub.eventsWithOp(ws.OpChannelPermissionDelete)
	require.Len(t, events, 1)
	data, ok := events[0].Event.Data.(ws.OverrideDeleteData)
	require.True(t, ok)
	assert.Equal(t, "user-1", data.UserID)
}
