package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acarlson33/firepit/models"
	"github.com/acarlson33/firepit/pkg"
)

func inviteFixture(t *testing.T) (InviteService, *fakeInviteRepo, *fakeServerRepo) {
	t.Helper()

	inviteRepo := newFakeInviteRepo()
	serverRepo := newFakeServerRepo()
	serverRepo.addServer("server-1", "owner-1")
	serverRepo.addMember("server-1", "owner-1")
	serverRepo.addMember("server-1", "user-1")

	svc := NewInviteService(inviteRepo, serverRepo)
	return svc, inviteRepo, serverRepo
}

func TestInviteCreate_GeneratesUniqueCode(t *testing.T) {
	svc, inviteRepo, _ := inviteFixture(t)
	ctx := context.Background()

	inv1, err := svc.Create(ctx, "server-1", "owner-1", &models.CreateInviteRequest{})
	require.NoError(t, err)
	inv2, err := svc.Create(ctx, "server-1", "owner-1", &models.CreateInviteRequest{})
	require.NoError(t, err)

	assert.Len(t, inv1.Code, 16, "8 byte rastgele → 16 hex karakter")
	assert.NotEqual(t, inv1.Code, inv2.Code)
	assert.Nil(t, inv1.ExpiresAt, "expires_in verilmezse süresiz")
	assert.Len(t, inviteRepo.invites, 2)
}

func TestInviteCreate_ExpiresInMinutes(t *testing.T) {
	svc, _, _ := inviteFixture(t)

	before := time.Now()
	inv, err := svc.Create(context.Background(), "server-1", "owner-1", &models.CreateInviteRequest{ExpiresIn: 60})
	require.NoError(t, err)

	require.NotNil(t, inv.ExpiresAt)
	assert.WithinDuration(t, before.Add(60*time.Minute), *inv.ExpiresAt, 5*time.Second)
}

func TestInviteCreate_RejectsNegativeValues(t *testing.T) {
	svc, _, _ := inviteFixture(t)

	_, err := svc.Create(context.Background(), "server-1", "owner-1", &models.CreateInviteRequest{MaxUses: -1})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestInviteValidateAndUse_IncrementsUses(t *testing.T) {
	svc, inviteRepo, _ := inviteFixture(t)
	ctx := context.Background()

	inviteRepo.invites["abc123"] = &models.Invite{Code: "abc123", ServerID: "server-1", MaxUses: 2}

	inv, err := svc.ValidateAndUse(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, 1, inv.Uses)
	assert.Equal(t, "server-1", inv.ServerID)

	// İkinci kullanım limite ulaşır
	_, err = svc.ValidateAndUse(ctx, "abc123")
	require.NoError(t, err)

	_, err = svc.ValidateAndUse(ctx, "abc123")
	assert.ErrorIs(t, err, pkg.ErrBadRequest, "max uses dolunca kod kullanılamaz")
	assert.Equal(t, 2, inviteRepo.invites["abc123"].Uses, "reddedilen deneme sayacı artırmamalı")
}

func TestInviteValidateAndUse_UnknownCode(t *testing.T) {
	svc, _, _ := inviteFixture(t)

	// Geçersiz kod bilgi sızdırmaz — not found değil bad request döner
	_, err := svc.ValidateAndUse(context.Background(), "yok-boyle-kod")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestInviteValidateAndUse_Expired(t *testing.T) {
	svc, inviteRepo, _ := inviteFixture(t)

	past := time.Now().Add(-time.Hour)
	inviteRepo.invites["eski"] = &models.Invite{Code: "eski", ServerID: "server-1", ExpiresAt: &past}

	_, err := svc.ValidateAndUse(context.Background(), "eski")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
	assert.Equal(t, 0, inviteRepo.invites["eski"].Uses)
}

func TestInviteValidateAndUse_UnlimitedUses(t *testing.T) {
	svc, inviteRepo, _ := inviteFixture(t)
	ctx := context.Background()

	// MaxUses = 0 → sınırsız
	inviteRepo.invites["open"] = &models.Invite{Code: "open", ServerID: "server-1", Uses: 999}

	inv, err := svc.ValidateAndUse(ctx, "open")
	require.NoError(t, err)
	assert.Equal(t, 1000, inv.Uses)
}

func TestInvitePreview_ReturnsServerInfo(t *testing.T) {
	svc, inviteRepo, _ := inviteFixture(t)

	inviteRepo.invites["abc123"] = &models.Invite{Code: "abc123", ServerID: "server-1"}

	preview, err := svc.Preview(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, "server server-1", preview.ServerName)
	assert.Equal(t, 2, preview.MemberCount)
}

func TestInvitePreview_UnusableCode(t *testing.T) {
	svc, inviteRepo, _ := inviteFixture(t)

	inviteRepo.invites["dolu"] = &models.Invite{Code: "dolu", ServerID: "server-1", MaxUses: 1, Uses: 1}

	_, err := svc.Preview(context.Background(), "dolu")
	assert.ErrorIs(t, err, pkg.ErrBadRequest, "dolmuş kod ön izlemede de reddedilmeli")
}

func TestInviteDelete_ForeignServerCode(t *testing.T) {
	svc, inviteRepo, _ := inviteFixture(t)
	ctx := context.Background()

	inviteRepo.invites["abc123"] = &models.Invite{Code: "abc123", ServerID: "server-2"}

	err := svc.Delete(ctx, "server-1", "abc123")
	assert.ErrorIs(t, err, pkg.ErrNotFound, "başka sunucunun kodu bu endpoint'ten silinememeli")

	_, ok := inviteRepo.invites["abc123"]
	assert.True(t, ok)
}

func TestInviteList_EmptyReturnsEmptySlice(t *testing.T) {
	svc, _, _ := inviteFixture(t)

	invites, err := svc.List(context.Background(), "server-1")
	require.NoError(t, err)
	assert.NotNil(t, invites)
	assert.Empty(t, invites)
}
