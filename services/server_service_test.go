package services

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acarlson33/firepit/database"
	"github.com/acarlson33/firepit/models"
	"github.com/acarlson33/firepit/pkg"
	"github.com/acarlson33/firepit/repository"
	"github.com/acarlson33/firepit/ws"
)

// serverFixture, fake tabanlı kurulum. Create hariç tüm operasyonlar
// db'ye dokunmaz — nil *sql.DB güvenlidir. Create için ayrı
// sqlite fixture'ı var (newServerDBFixture).
type serverFixture struct {
	svc     ServerService
	srvRepo *fakeServerRepo
	roleRepo *fakeRoleRepo
	banRepo  *fakeBanRepo
	invRepo  *fakeInviteRepo
	cache    *countingInvalidator
	hub      *fakeHub
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	srvRepo := newFakeServerRepo()
	srvRepo.addServer("server-1", "owner-1")
	srvRepo.addMember("server-1", "owner-1")

	roleRepo := newFakeRoleRepo()
	roleRepo.addRole(models.Role{
		ID: "role-default", ServerID: "server-1", Name: "Member",
		Position: 0, IsDefault: true,
		PermissionSet: models.PermissionSet{ReadMessages: true, SendMessages: true},
	})

	userRepo := newFakeUserRepo()
	userRepo.addUser("owner-1", "owner")
	userRepo.addUser("user-1", "alice")

	banRepo := newFakeBanRepo()
	invRepo := newFakeInviteRepo()
	cache := &countingInvalidator{}
	hub := newFakeHub()

	svc := NewServerService(
		nil, srvRepo, roleRepo, newFakeChannelRepo(), userRepo, banRepo,
		NewInviteService(invRepo, srvRepo), cache, hub,
	)

	return &serverFixture{
		svc: svc, srvRepo: srvRepo, roleRepo: roleRepo,
		banRepo: banRepo, invRepo: invRepo, cache: cache, hub: hub,
	}
}

// newServerDBFixture, Create'in transaction'ını gerçek bir sqlite
// dosyasıyla test etmek için tam repository stack'i kurar.
func newServerDBFixture(t *testing.T) (ServerService, *database.DB, *fakeHub) {
	t.Helper()

	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	require.NoError(t, err)

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), migrationsFS)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	srvRepo := repository.NewSQLiteServerRepo(db.Conn)
	hub := newFakeHub()

	svc := NewServerService(
		db.Conn,
		srvRepo,
		repository.NewSQLiteRoleRepo(db.Conn),
		repository.NewSQLiteChannelRepo(db.Conn),
		repository.NewSQLiteUserRepo(db.Conn),
		repository.NewSQLiteBanRepo(db.Conn),
		NewInviteService(repository.NewSQLiteInviteRepo(db.Conn), srvRepo),
		&countingInvalidator{},
		hub,
	)
	return svc, db, hub
}

func TestServerCreate_TransactionalSetup(t *testing.T) {
	svc, db, hub := newServerDBFixture(t)
	ctx := context.Background()

	// FK: üyelik ve rol ataması users tablosuna bağlı
	userRepo := repository.NewSQLiteUserRepo(db.Conn)
	require.NoError(t, userRepo.Create(ctx, &models.User{
		ID: "owner-1", Username: "owner", Email: "owner@example.com",
		PasswordHash: "x", Status: models.UserStatusOnline,
	}))

	server, err := svc.Create(ctx, "owner-1", &models.CreateServerRequest{Name: "Kamp Ateşi"})
	require.NoError(t, err)
	assert.Equal(t, "owner-1", server.OwnerID)

	srvRepo := repository.NewSQLiteServerRepo(db.Conn)

	// Üyelik yazılmış olmalı
	isMember, err := srvRepo.IsMember(ctx, server.ID, "owner-1")
	require.NoError(t, err)
	assert.True(t, isMember)

	// Default rol: IsDefault + read/send, owner'a atanmış
	roleRepo := repository.NewSQLiteRoleRepo(db.Conn)
	defaultRole, err := roleRepo.GetDefaultByServer(ctx, server.ID)
	require.NoError(t, err)
	assert.True(t, defaultRole.IsDefault)
	assert.True(t, defaultRole.ReadMessages)
	assert.True(t, defaultRole.SendMessages)
	assert.False(t, defaultRole.Administrator)

	ownerRoles, err := roleRepo.GetByUserAndServer(ctx, "owner-1", server.ID)
	require.NoError(t, err)
	require.Len(t, ownerRoles, 1)
	assert.Equal(t, defaultRole.ID, ownerRoles[0].ID)

	// "general" kanalı
	channels, err := repository.NewSQLiteChannelRepo(db.Conn).GetAllByServer(ctx, server.ID)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "general", channels[0].Name)

	// Owner'a server_create bildirimi
	events := hub.eventsWithOp(ws.OpServerCreate)
	require.Len(t, events, 1)
	assert.Equal(t, "owner-1", events[0].UserID)
}

func TestServerCreate_InvalidNameRollsNothingIn(t *testing.T) {
	svc, db, _ := newServerDBFixture(t)

	_, err := svc.Create(context.Background(), "owner-1", &models.CreateServerRequest{Name: "  "})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	var count int
	require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM servers").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestServerUpdate_OwnerOnly(t *testing.T) {
	f := newServerFixture(t)
	ctx := context.Background()

	newName := "Yeni İsim"
	_, err := f.svc.Update(ctx, "server-1", "user-1", &models.UpdateServerRequest{Name: &newName})
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	updated, err := f.svc.Update(ctx, "server-1", "owner-1", &models.UpdateServerRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Yeni İsim", updated.Name)

	events := f.hub.eventsWithOp(ws.OpServerUpdate)
	require.Len(t, events, 1)
	assert.Equal(t, "server-1", events[0].ServerID)
}

func TestServerDelete_OwnerOnly(t *testing.T) {
	f := newServerFixture(t)
	ctx := context.Background()

	err := f.svc.Delete(ctx, "server-1", "user-1")
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	require.NoError(t, f.svc.Delete(ctx, "server-1", "owner-1"))

	_, err = f.srvRepo.GetByID(ctx, "server-1")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	// Broadcast silmeden ÖNCE gitmiş olmalı — abonelikler hâlâ yerindeyken
	events := f.hub.eventsWithOp(ws.OpServerDelete)
	require.Len(t, events, 1)
	assert.Equal(t, "server-1", events[0].ServerID)
}

func TestJoinByInvite_AddsMemberWithDefaultRole(t *testing.T) {
	f := newServerFixture(t)
	ctx := context.Background()

	f.invRepo.invites["abc123"] = &models.Invite{Code: "abc123", ServerID: "server-1"}

	server, err := f.svc.JoinByInvite(ctx, "user-1", "abc123")
	require.NoError(t, err)
	assert.Equal(t, "server-1", server.ID)

	isMember, err := f.srvRepo.IsMember(ctx, "server-1", "user-1")
	require.NoError(t, err)
	assert.True(t, isMember)

	roles, err := f.roleRepo.GetByUserAndServer(ctx, "user-1", "server-1")
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "role-default", roles[0].ID)

	// Üyelik değişti — resolver cache düşmeli
	assert.Contains(t, f.cache.users, "user-1")

	// Katılana server_create, sunucuya member_join
	joinEvents := f.hub.eventsWithOp(ws.OpMemberJoin)
	require.Len(t, joinEvents, 1)
	assert.Equal(t, "server-1", joinEvents[0].ServerID)
}

func TestJoinByInvite_BannedUserRejected(t *testing.T) {
	f := newServerFixture(t)
	ctx := context.Background()

	f.invRepo.invites["abc123"] = &models.Invite{Code: "abc123", ServerID: "server-1"}
	require.NoError(t, f.banRepo.Create(ctx, &models.Ban{ServerID: "server-1", UserID: "user-1"}))

	_, err := f.svc.JoinByInvite(ctx, "user-1", "abc123")
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	isMember, _ := f.srvRepo.IsMember(ctx, "server-1", "user-1")
	assert.False(t, isMember, "banlı kullanıcı davetle geri dönememeli")
}

func TestJoinByInvite_AlreadyMember(t *testing.T) {
	f := newServerFixture(t)

	f.invRepo.invites["abc123"] = &models.Invite{Code: "abc123", ServerID: "server-1"}

	_, err := f.svc.JoinByInvite(context.Background(), "owner-1", "abc123")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestServerLeave_OwnerCannotLeave(t *testing.T) {
	f := newServerFixture(t)

	err := f.svc.Leave(context.Background(), "server-1", "owner-1")
	assert.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestServerLeave_NotMember(t *testing.T) {
	f := newServerFixture(t)

	err := f.svc.Leave(context.Background(), "server-1", "user-1")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestServerLeave_CleansMembershipRolesAndCache(t *testing.T) {
	f := newServerFixture(t)
	ctx := context.Background()

	f.srvRepo.addMember("server-1", "user-1")
	f.roleRepo.assign("server-1", "user-1", "role-default")

	require.NoError(t, f.svc.Leave(ctx, "server-1", "user-1"))

	isMember, _ := f.srvRepo.IsMember(ctx, "server-1", "user-1")
	assert.False(t, isMember)

	roles, _ := f.roleRepo.GetByUserAndServer(ctx, "user-1", "server-1")
	assert.Empty(t, roles, "rol atamaları temizlenmeli — tekrar katılırsa temiz başlar")

	assert.Contains(t, f.cache.users, "user-1", "ayrılan kullanıcının resolver cache'i düşmeli")
	assert.Contains(t, f.hub.unsubbed, "user-1|server-1")

	leaveEvents := f.hub.eventsWithOp(ws.OpMemberLeave)
	require.Len(t, leaveEvents, 1)
	assert.Equal(t, "server-1", leaveEvents[0].ServerID)
}

// Ayrılan üyenin çözülmüş yetkileri TTL dolana kadar cache'te kalmamalı:
// moderatör ayrıldıktan sonra eski manageMessages ile mesaj silememeli.
func TestServerLeave_DropsStaleResolvedPermissions(t *testing.T) {
	srvRepo := newFakeServerRepo()
	srvRepo.addServer("server-1", "owner-1")
	srvRepo.addMember("server-1", "owner-1")
	srvRepo.addMember("server-1", "user-1")

	chanRepo := newFakeChannelRepo()
	chanRepo.addChannel("channel-1", "server-1")

	roleRepo := newFakeRoleRepo()
	roleRepo.addRole(models.Role{
		ID: "role-mod", ServerID: "server-1", Name: "mod", Position: 5,
		PermissionSet: models.PermissionSet{ReadMessages: true, ManageMessages: true},
	})
	roleRepo.assign("server-1", "user-1", "role-mod")

	userRepo := newFakeUserRepo()
	userRepo.addUser("user-1", "alice")

	hub := newFakeHub()
	permSvc := NewChannelPermissionService(newFakeChannelPermRepo(), roleRepo, chanRepo, srvRepo, hub)
	serverSvc := NewServerService(
		nil, srvRepo, roleRepo, chanRepo, userRepo, newFakeBanRepo(),
		NewInviteService(newFakeInviteRepo(), srvRepo), permSvc, hub,
	)
	ctx := context.Background()

	// Üyeyken: manageMessages çözülür ve cache'lenir
	perms, err := permSvc.ResolveChannelPermissions(ctx, "user-1", "channel-1")
	require.NoError(t, err)
	require.True(t, perms.Has(models.PermManageMessages))

	require.NoError(t, serverSvc.Leave(ctx, "server-1", "user-1"))

	// Ayrıldıktan sonra: cache düşmüş, yeniden çözüm boş set döner
	perms, err = permSvc.ResolveChannelPermissions(ctx, "user-1", "channel-1")
	require.NoError(t, err)
	assert.False(t, perms.Has(models.PermManageMessages), "ayrılan üye eski yetkilerini korumamalı")
	assert.False(t, perms.Has(models.PermReadMessages))
}
