package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acarlson33/firepit/models"
	"github.com/acarlson33/firepit/pkg"
	"github.com/acarlson33/firepit/pkg/ratelimit"
	"github.com/acarlson33/firepit/ws"
)

// fakeResolver, kullanıcı başına sabit permission set dönen ChannelPermResolver.
type fakeResolver struct {
	perms map[string]models.PermissionSet // userID → set
}

func (r *fakeResolver) ResolveChannelPermissions(ctx context.Context, userID, channelID string) (models.PermissionSet, error) {
	return r.perms[userID], nil
}

// msgFixture: channel-1 (server-1) + iki kullanıcı.
//
//	sender-1: readMessages + sendMessages
//	mod-1:    readMessages + manageMessages
type msgFixture struct {
	svc      MessageService
	msgRepo  *fakeMessageRepo
	resolver *fakeResolver
	hub      *fakeHub
	limiter  *ratelimit.MessageRateLimiter
}

func newMsgFixture(t *testing.T) *msgFixture {
	t.Helper()

	userRepo := newFakeUserRepo()
	userRepo.addUser("sender-1", "alice")
	userRepo.addUser("mod-1", "mod")

	chanRepo := newFakeChannelRepo()
	chanRepo.addChannel("channel-1", "server-1")

	msgRepo := newFakeMessageRepo()
	resolver := &fakeResolver{perms: map[string]models.PermissionSet{
		"sender-1": {ReadMessages: true, SendMessages: true},
		"mod-1":    {ReadMessages: true, ManageMessages: true},
	}}
	hub := newFakeHub()

	// Test başına bol limit — rate limit testi kendi limiter'ını kurar.
	limiter := ratelimit.NewMessageRateLimiter(100, time.Minute, time.Minute)
	t.Cleanup(limiter.Close)

	return &msgFixture{
		svc:      NewMessageService(msgRepo, chanRepo, userRepo, hub, resolver, limiter),
		msgRepo:  msgRepo,
		resolver: resolver,
		hub:      hub,
		limiter:  limiter,
	}
}

func TestMessageCreate_RequiresSendPermission(t *testing.T) {
	f := newMsgFixture(t)
	f.resolver.perms["sender-1"] = models.PermissionSet{ReadMessages: true} // sendMessages yok

	_, err := f.svc.Create(context.Background(), "channel-1", "sender-1", &models.CreateMessageRequest{Content: "hi"})
	assert.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestMessageCreate_UnknownChannel(t *testing.T) {
	f := newMsgFixture(t)

	_, err := f.svc.Create(context.Background(), "no-such", "sender-1", &models.CreateMessageRequest{Content: "hi"})
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestMessageCreate_MentionEveryoneGating(t *testing.T) {
	f := newMsgFixture(t)

	// Yetkisiz: mesaj reddedilmez, flag false kalır.
	msg, err := f.svc.Create(context.Background(), "channel-1", "sender-1", &models.CreateMessageRequest{
		Content: "hey @everyone look",
	})
	require.NoError(t, err)
	assert.False(t, msg.MentionsEveryone)

	// Yetkili: flag true yazılır.
	f.resolver.perms["sender-1"] = models.PermissionSet{ReadMessages: true, SendMessages: true, MentionEveryone: true}
	msg, err = f.svc.Create(context.Background(), "channel-1", "sender-1", &models.CreateMessageRequest{
		Content: "hey @everyone again",
	})
	require.NoError(t, err)
	assert.True(t, msg.MentionsEveryone)
}

func TestMessageCreate_AuthorAttachedWithoutHash(t *testing.T) {
	f := newMsgFixture(t)

	msg, err := f.svc.Create(context.Background(), "channel-1", "sender-1", &models.CreateMessageRequest{Content: "hi"})
	require.NoError(t, err)
	require.NotNil(t, msg.Author)
	assert.Equal(t, "alice", msg.Author.Username)
	assert.Empty(t, msg.Author.PasswordHash)
}

func TestMessageCreate_RateLimited(t *testing.T) {
	userRepo := newFakeUserRepo()
	userRepo.addUser("sender-1", "alice")
	chanRepo := newFakeChannelRepo()
	chanRepo.addChannel("channel-1", "server-1")
	resolver := &fakeResolver{perms: map[string]models.PermissionSet{
		"sender-1": {ReadMessages: true, SendMessages: true},
	}}

	// 2 mesaj / dakika — üçüncüsü cooldown'a düşer.
	limiter := ratelimit.NewMessageRateLimiter(2, time.Minute, time.Minute)
	t.Cleanup(limiter.Close)

	svc := NewMessageService(newFakeMessageRepo(), chanRepo, userRepo, newFakeHub(), resolver, limiter)

	for i := 0; i < 2; i++ {
		_, err := svc.Create(context.Background(), "channel-1", "sender-1", &models.CreateMessageRequest{
			Content: fmt.Sprintf("message %d", i),
		})
		require.NoError(t, err)
	}

	_, err := svc.Create(context.Background(), "channel-1", "sender-1", &models.CreateMessageRequest{Content: "too fast"})
	assert.ErrorIs(t, err, pkg.ErrRateLimited)
}

func TestMessageCreate_BroadcastOnlyToReaders(t *testing.T) {
	f := newMsgFixture(t)
	f.resolver.perms["blocked-1"] = models.PermissionSet{SendMessages: true} // readMessages deny edilmiş
	f.hub.online = []string{"sender-1", "mod-1", "blocked-1", "stranger-1"}

	_, err := f.svc.Create(context.Background(), "channel-1", "sender-1", &models.CreateMessageRequest{Content: "hi"})
	require.NoError(t, err)

	events := f.hub.eventsWithOp(ws.OpMessageCreate)
	targets := make([]string, 0, len(events))
	for _, e := range events {
		targets = append(targets, e.UserID)
	}
	// stranger-1 resolver'da yok → boş set → readMessages false → almamalı.
	assert.ElementsMatch(t, []string{"sender-1", "mod-1"}, targets)
}

func TestMessageList_RequiresReadPermission(t *testing.T) {
	f := newMsgFixture(t)

	_, err := f.svc.GetByChannelID(context.Background(), "channel-1", "stranger-1", "", 50)
	assert.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestMessageList_PaginationAndOrder(t *testing.T) {
	f := newMsgFixture(t)

	for i := 0; i < 5; i++ {
		_, err := f.svc.Create(context.Background(), "channel-1", "sender-1", &models.CreateMessageRequest{
			Content: fmt.Sprintf("message %d", i),
		})
		require.NoError(t, err)
	}

	page, err := f.svc.GetByChannelID(context.Background(), "channel-1", "mod-1", "", 3)
	require.NoError(t, err)
	assert.True(t, page.HasMore)
	require.Len(t, page.Messages, 3)
	// ASC sıra: sayfadaki en eski üstte — son 3 mesajın ilki "message 2".
	assert.Equal(t, "message 2", page.Messages[0].Content)
	assert.Equal(t, "message 4", page.Messages[2].Content)

	// Cursor: en eski mesajdan öncekiler.
	older, err := f.svc.GetByChannelID(context.Background(), "channel-1", "mod-1", page.Messages[0].ID, 3)
	require.NoError(t, err)
	assert.False(t, older.HasMore)
	require.Len(t, older.Messages, 2)
	assert.Equal(t, "message 0", older.Messages[0].Content)
}

func TestMessageList_EmptyChannelReturnsEmptySlice(t *testing.T) {
	f := newMsgFixture(t)

	page, err := f.svc.GetByChannelID(context.Background(), "channel-1", "mod-1", "", 50)
	require.NoError(t, err)
	assert.NotNil(t, page.Messages)
	assert.Empty(t, page.Messages)
	assert.False(t, page.HasMore)
}

func TestMessageUpdate_OwnerOnly(t *testing.T) {
	f := newMsgFixture(t)
	msg, err := f.svc.Create(context.Background(), "channel-1", "sender-1", &models.CreateMessageRequest{Content: "original"})
	require.NoError(t, err)

	// mod-1 bile başkasının mesajını düzenleyemez.
	_, err = f.svc.Update(context.Background(), msg.ID, "mod-1", &models.UpdateMessageRequest{Content: "hacked"})
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	updated, err := f.svc.Update(context.Background(), msg.ID, "sender-1", &models.UpdateMessageRequest{Content: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.NotNil(t, updated.EditedAt)
}

func TestMessageUpdate_ReevaluatesMentionFlag(t *testing.T) {
	f := newMsgFixture(t)
	f.resolver.perms["sender-1"] = models.PermissionSet{ReadMessages: true, SendMessages: true, MentionEveryone: true}

	msg, err := f.svc.Create(context.Background(), "channel-1", "sender-1", &models.CreateMessageRequest{Content: "@everyone hello"})
	require.NoError(t, err)
	require.True(t, msg.MentionsEveryone)

	// Mention düzenlemede çıkarıldı — flag düşmeli.
	updated, err := f.svc.Update(context.Background(), msg.ID, "sender-1", &models.UpdateMessageRequest{Content: "hello"})
	require.NoError(t, err)
	assert.False(t, updated.MentionsEveryone)
}

func TestMessageDelete_OwnerOrManageMessages(t *testing.T) {
	f := newMsgFixture(t)
	msg, err := f.svc.Create(context.Background(), "channel-1", "sender-1", &models.CreateMessageRequest{Content: "hi"})
	require.NoError(t, err)

	// Yetkisiz üçüncü kişi silemez.
	f.resolver.perms["other-1"] = models.PermissionSet{ReadMessages: true, SendMessages: true}
	err = f.svc.Delete(context.Background(), msg.ID, "other-1")
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	// manageMessages taşıyan moderatör silebilir.
	require.NoError(t, f.svc.Delete(context.Background(), msg.ID, "mod-1"))

	_, err = f.msgRepo.GetByID(context.Background(), msg.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}
