package services

// In-memory fake'ler — service testleri için.
// Repository interface'lerini map tabanlı implementasyonlarla karşılar;
// testler veriyi doğrudan map'lere yazarak senaryoyu kurar.

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/acarlson33/firepit/models"
	"github.com/acarlson33/firepit/pkg"
	"github.com/acarlson33/firepit/ws"
)

// ─── fakeHub ───

// fakeHub, ws.EventPublisher'ı yakalayıcı olarak implement eder.
type fakeHub struct {
	mu       sync.Mutex
	events   []capturedEvent
	online   []string
	unsubbed []string // "userID|serverID"
}

type capturedEvent struct {
	ServerID string // BroadcastToServer hedefi
	UserID   string // BroadcastToUser hedefi
	Event    ws.Event
}

func newFakeHub() *fakeHub { return &fakeHub{} }

func (h *fakeHub) BroadcastToServer(serverID string, event ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, capturedEvent{ServerID: serverID, Event: event})
}

func (h *fakeHub) BroadcastToUser(userID string, event ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, capturedEvent{UserID: userID, Event: event})
}

func (h *fakeHub) GetOnlineUserIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.online...)
}

func (h *fakeHub) SubscribeUserToServer(userID, serverID string) {}

func (h *fakeHub) UnsubscribeUserFromServer(userID, serverID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubbed = append(h.unsubbed, userID+"|"+serverID)
}

// eventsWithOp, yakalanan event'lerden op'u eşleşenleri döner.
func (h *fakeHub) eventsWithOp(op string) []capturedEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []capturedEvent
	for _, e := range h.events {
		if e.Event.Op == op {
			out = append(out, e)
		}
	}
	return out
}

// ─── fakeServerRepo ───

type fakeServerRepo struct {
	servers map[string]*models.Server
	members map[string][]models.ServerMember // serverID → üyelikler
}

func newFakeServerRepo() *fakeServerRepo {
	return &fakeServerRepo{
		servers: make(map[string]*models.Server),
		members: make(map[string][]models.ServerMember),
	}
}

func (r *fakeServerRepo) addServer(id, ownerID string) {
	r.servers[id] = &models.Server{ID: id, Name: "server " + id, OwnerID: ownerID}
}

func (r *fakeServerRepo) addMember(serverID, userID string) {
	r.members[serverID] = append(r.members[serverID], models.ServerMember{
		ServerID: serverID,
		UserID:   userID,
		JoinedAt: time.Now(),
	})
}

func (r *fakeServerRepo) Create(ctx context.Context, server *models.Server) error {
	r.servers[server.ID] = server
	return nil
}

func (r *fakeServerRepo) GetByID(ctx context.Context, serverID string) (*models.Server, error) {
	s, ok := r.servers[serverID]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeServerRepo) Update(ctx context.Context, server *models.Server) error {
	if _, ok := r.servers[server.ID]; !ok {
		return pkg.ErrNotFound
	}
	r.servers[server.ID] = server
	return nil
}

func (r *fakeServerRepo) Delete(ctx context.Context, serverID string) error {
	if _, ok := r.servers[serverID]; !ok {
		return pkg.ErrNotFound
	}
	delete(r.servers, serverID)
	delete(r.members, serverID)
	return nil
}

func (r *fakeServerRepo) GetUserServers(ctx context.Context, userID string) ([]models.Server, error) {
	var out []models.Server
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		for _, m := range r.members[id] {
			if m.UserID == userID {
				out = append(out, *r.servers[id])
			}
		}
	}
	return out, nil
}

func (r *fakeServerRepo) AddMember(ctx context.Context, serverID, userID string) error {
	for _, m := range r.members[serverID] {
		if m.UserID == userID {
			return nil
		}
	}
	r.addMember(serverID, userID)
	return nil
}

func (r *fakeServerRepo) RemoveMember(ctx context.Context, serverID, userID string) error {
	members := r.members[serverID]
	for i, m := range members {
		if m.UserID == userID {
			r.members[serverID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return pkg.ErrNotFound
}

func (r *fakeServerRepo) IsMember(ctx context.Context, serverID, userID string) (bool, error) {
	for _, m := range r.members[serverID] {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeServerRepo) GetMembers(ctx context.Context, serverID string) ([]models.ServerMember, error) {
	return append([]models.ServerMember(nil), r.members[serverID]...), nil
}

func (r *fakeServerRepo) GetMemberCount(ctx context.Context, serverID string) (int, error) {
	return len(r.members[serverID]), nil
}

func (r *fakeServerRepo) GetMemberServerIDs(ctx context.Context, userID string) ([]string, error) {
	var out []string
	for id, members := range r.members {
		for _, m := range members {
			if m.UserID == userID {
				out = append(out, id)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// ─── fakeRoleRepo ───

type fakeRoleRepo struct {
	roles       map[string]*models.Role
	assignments map[string][]string // "serverID|userID" → roleID'ler
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{
		roles:       make(map[string]*models.Role),
		assignments: make(map[string][]string),
	}
}

func (r *fakeRoleRepo) addRole(role models.Role) {
	cp := role
	r.roles[role.ID] = &cp
}

func (r *fakeRoleRepo) assign(serverID, userID, roleID string) {
	key := serverID + "|" + userID
	r.assignments[key] = append(r.assignments[key], roleID)
}

func (r *fakeRoleRepo) GetByID(ctx context.Context, id string) (*models.Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	cp := *role
	return &cp, nil
}

func (r *fakeRoleRepo) GetAllByServer(ctx context.Context, serverID string) ([]models.Role, error) {
	var out []models.Role
	for _, role := range r.roles {
		if role.ServerID == serverID {
			out = append(out, *role)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position > out[j].Position })
	return out, nil
}

func (r *fakeRoleRepo) GetDefaultByServer(ctx context.Context, serverID string) (*models.Role, error) {
	for _, role := range r.roles {
		if role.ServerID == serverID && role.IsDefault {
			cp := *role
			return &cp, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (r *fakeRoleRepo) GetByUserAndServer(ctx context.Context, userID, serverID string) ([]models.Role, error) {
	var out []models.Role
	for _, id := range r.assignments[serverID+"|"+userID] {
		if role, ok := r.roles[id]; ok {
			out = append(out, *role)
		}
	}
	return out, nil
}

func (r *fakeRoleRepo) GetMaxPosition(ctx context.Context, serverID string) (int, error) {
	max := -1
	for _, role := range r.roles {
		if role.ServerID == serverID && role.Position > max {
			max = role.Position
		}
	}
	return max, nil
}

func (r *fakeRoleRepo) Create(ctx context.Context, role *models.Role) error {
	r.addRole(*role)
	return nil
}

func (r *fakeRoleRepo) Update(ctx context.Context, role *models.Role) error {
	if _, ok := r.roles[role.ID]; !ok {
		return pkg.ErrNotFound
	}
	r.addRole(*role)
	return nil
}

func (r *fakeRoleRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.roles[id]; !ok {
		return pkg.ErrNotFound
	}
	delete(r.roles, id)
	for key, ids := range r.assignments {
		out := ids[:0]
		for _, rid := range ids {
			if rid != id {
				out = append(out, rid)
			}
		}
		r.assignments[key] = out
	}
	return nil
}

func (r *fakeRoleRepo) UpdatePositions(ctx context.Context, items []models.RolePosition) error {
	for _, item := range items {
		role, ok := r.roles[item.RoleID]
		if !ok {
			return pkg.ErrNotFound
		}
		role.Position = item.Position
	}
	return nil
}

func (r *fakeRoleRepo) AssignToUser(ctx context.Context, serverID, userID, roleID string) error {
	r.assign(serverID, userID, roleID)
	return nil
}

func (r *fakeRoleRepo) RemoveFromUser(ctx context.Context, userID, roleID string) error {
	for key, ids := range r.assignments {
		if !strings.HasSuffix(key, "|"+userID) {
			continue
		}
		out := ids[:0]
		for _, rid := range ids {
			if rid != roleID {
				out = append(out, rid)
			}
		}
		r.assignments[key] = out
	}
	return nil
}

func (r *fakeRoleRepo) RemoveAllFromUser(ctx context.Context, serverID, userID string) error {
	delete(r.assignments, serverID+"|"+userID)
	return nil
}

// ─── fakeChannelRepo ───

type fakeChannelRepo struct {
	channels map[string]*models.Channel
}

func newFakeChannelRepo() *fakeChannelRepo {
	return &fakeChannelRepo{channels: make(map[string]*models.Channel)}
}

func (r *fakeChannelRepo) addChannel(id, serverID string) {
	r.channels[id] = &models.Channel{ID: id, ServerID: serverID, Name: "channel " + id}
}

func (r *fakeChannelRepo) Create(ctx context.Context, channel *models.Channel) error {
	cp := *channel
	r.channels[channel.ID] = &cp
	return nil
}

func (r *fakeChannelRepo) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	ch, ok := r.channels[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	cp := *ch
	return &cp, nil
}

func (r *fakeChannelRepo) GetAllByServer(ctx context.Context, serverID string) ([]models.Channel, error) {
	var out []models.Channel
	for _, ch := range r.channels {
		if ch.ServerID == serverID {
			out = append(out, *ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeChannelRepo) Update(ctx context.Context, channel *models.Channel) error {
	if _, ok := r.channels[channel.ID]; !ok {
		return pkg.ErrNotFound
	}
	cp := *channel
	r.channels[channel.ID] = &cp
	return nil
}

func (r *fakeChannelRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.channels[id]; !ok {
		return pkg.ErrNotFound
	}
	delete(r.channels, id)
	return nil
}

func (r *fakeChannelRepo) UpdatePositions(ctx context.Context, serverID string, items []models.PositionUpdate) error {
	for _, item := range items {
		ch, ok := r.channels[item.ID]
		if !ok || ch.ServerID != serverID {
			return pkg.ErrNotFound
		}
		ch.Position = item.Position
	}
	return nil
}

func (r *fakeChannelRepo) GetMaxPosition(ctx context.Context, serverID string) (int, error) {
	max := -1
	for _, ch := range r.channels {
		if ch.ServerID == serverID && ch.Position > max {
			max = ch.Position
		}
	}
	return max, nil
}

// ─── fakeChannelPermRepo ───

type fakeChannelPermRepo struct {
	overrides []models.ChannelPermissionOverride // oluşturulma sırası korunur
	getCalls  int                                // resolver cache testleri için
}

func newFakeChannelPermRepo() *fakeChannelPermRepo { return &fakeChannelPermRepo{} }

func (r *fakeChannelPermRepo) GetByChannel(ctx context.Context, channelID string) ([]models.ChannelPermissionOverride, error) {
	r.getCalls++
	var out []models.ChannelPermissionOverride
	for _, o := range r.overrides {
		if o.ChannelID == channelID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeChannelPermRepo) GetByTarget(ctx context.Context, channelID, roleID, userID string) (*models.ChannelPermissionOverride, error) {
	for _, o := range r.overrides {
		if o.ChannelID == channelID && o.RoleID == roleID && o.UserID == userID {
			cp := o
			return &cp, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (r *fakeChannelPermRepo) Set(ctx context.Context, override *models.ChannelPermissionOverride) error {
	for i, o := range r.overrides {
		if o.ChannelID == override.ChannelID && o.RoleID == override.RoleID && o.UserID == override.UserID {
			override.ID = o.ID // upsert: oluşturma sırası ve ID korunur
			r.overrides[i] = *override
			return nil
		}
	}
	r.overrides = append(r.overrides, *override)
	return nil
}

func (r *fakeChannelPermRepo) Delete(ctx context.Context, channelID, roleID, userID string) error {
	for i, o := range r.overrides {
		if o.ChannelID == channelID && o.RoleID == roleID && o.UserID == userID {
			r.overrides = append(r.overrides[:i], r.overrides[i+1:]...)
			return nil
		}
	}
	return pkg.ErrNotFound
}

func (r *fakeChannelPermRepo) DeleteAllByChannel(ctx context.Context, channelID string) error {
	out := r.overrides[:0]
	for _, o := range r.overrides {
		if o.ChannelID != channelID {
			out = append(out, o)
		}
	}
	r.overrides = out
	return nil
}

// ─── fakeUserRepo ───

type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) addUser(id, username string) {
	r.users[id] = &models.User{ID: id, Username: username, Status: models.UserStatusOffline}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pkg.ErrNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdateStatus(ctx context.Context, userID string, status models.UserStatus) error {
	u, ok := r.users[userID]
	if !ok {
		return pkg.ErrNotFound
	}
	u.Status = status
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, userID string, newPasswordHash string) error {
	u, ok := r.users[userID]
	if !ok {
		return pkg.ErrNotFound
	}
	u.PasswordHash = newPasswordHash
	return nil
}

// ─── fakeBanRepo ───

type fakeBanRepo struct {
	bans []models.Ban
}

func newFakeBanRepo() *fakeBanRepo { return &fakeBanRepo{} }

func (r *fakeBanRepo) Create(ctx context.Context, ban *models.Ban) error {
	r.bans = append(r.bans, *ban)
	return nil
}

func (r *fakeBanRepo) GetAllByServer(ctx context.Context, serverID string) ([]models.Ban, error) {
	var out []models.Ban
	for _, b := range r.bans {
		if b.ServerID == serverID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBanRepo) Delete(ctx context.Context, serverID, userID string) error {
	for i, b := range r.bans {
		if b.ServerID == serverID && b.UserID == userID {
			r.bans = append(r.bans[:i], r.bans[i+1:]...)
			return nil
		}
	}
	return pkg.ErrNotFound
}

func (r *fakeBanRepo) Exists(ctx context.Context, serverID, userID string) (bool, error) {
	for _, b := range r.bans {
		if b.ServerID == serverID && b.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// ─── fakeMessageRepo ───

type fakeMessageRepo struct {
	messages map[string]*models.Message
	order    []string // oluşturulma sırası
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[string]*models.Message)}
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *models.Message) error {
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	cp := *message
	r.messages[message.ID] = &cp
	r.order = append(r.order, message.ID)
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	m, ok := r.messages[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMessageRepo) GetByChannelID(ctx context.Context, channelID string, beforeID string, limit int) ([]models.Message, error) {
	// Gerçek repo DESC döner — fake de en yeniden eskiye döner.
	var out []models.Message
	started := beforeID == ""
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		m := r.messages[r.order[i]]
		if !started {
			if m.ID == beforeID {
				started = true
			}
			continue
		}
		if m.ChannelID == channelID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) Update(ctx context.Context, message *models.Message) error {
	existing, ok := r.messages[message.ID]
	if !ok {
		return pkg.ErrNotFound
	}
	now := time.Now()
	existing.Content = message.Content
	existing.MentionsEveryone = message.MentionsEveryone
	existing.EditedAt = &now
	return nil
}

func (r *fakeMessageRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.messages[id]; !ok {
		return pkg.ErrNotFound
	}
	delete(r.messages, id)
	for i, mid := range r.order {
		if mid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// ─── fakeInviteRepo ───

type fakeInviteRepo struct {
	invites map[string]*models.Invite
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{invites: make(map[string]*models.Invite)}
}

func (r *fakeInviteRepo) GetByCode(ctx context.Context, code string) (*models.Invite, error) {
	inv, ok := r.invites[code]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInviteRepo) ListByServer(ctx context.Context, serverID string) ([]models.InviteWithCreator, error) {
	var out []models.InviteWithCreator
	for _, inv := range r.invites {
		if inv.ServerID == serverID {
			out = append(out, models.InviteWithCreator{Invite: *inv})
		}
	}
	return out, nil
}

func (r *fakeInviteRepo) Create(ctx context.Context, invite *models.Invite) error {
	cp := *invite
	r.invites[invite.Code] = &cp
	return nil
}

func (r *fakeInviteRepo) Delete(ctx context.Context, code string) error {
	if _, ok := r.invites[code]; !ok {
		return pkg.ErrNotFound
	}
	delete(r.invites, code)
	return nil
}

func (r *fakeInviteRepo) IncrementUses(ctx context.Context, code string) error {
	inv, ok := r.invites[code]
	if !ok {
		return pkg.ErrNotFound
	}
	inv.Uses++
	return nil
}

// ─── fakeSessionRepo ───

type fakeSessionRepo struct {
	sessions map[string]*models.Session // ID → session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.Session)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *models.Session) error {
	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) GetByRefreshToken(ctx context.Context, token string) (*models.Session, error) {
	for _, s := range r.sessions {
		if s.RefreshToken == token {
			cp := *s
			return &cp, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (r *fakeSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if _, ok := r.sessions[id]; !ok {
		return pkg.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	for id, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(ctx context.Context) error {
	now := time.Now()
	for id, s := range r.sessions {
		if now.After(s.ExpiresAt) {
			delete(r.sessions, id)
		}
	}
	return nil
}

// ─── fakeResetRepo ───

type fakeResetRepo struct {
	tokens map[string]*models.PasswordResetToken // ID → token
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: make(map[string]*models.PasswordResetToken)}
}

func (r *fakeResetRepo) Create(ctx context.Context, token *models.PasswordResetToken) error {
	cp := *token
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	r.tokens[token.ID] = &cp
	return nil
}

func (r *fakeResetRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	for _, t := range r.tokens {
		if t.TokenHash == tokenHash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (r *fakeResetRepo) DeleteByID(ctx context.Context, id string) error {
	delete(r.tokens, id)
	return nil
}

func (r *fakeResetRepo) DeleteByUserID(ctx context.Context, userID string) error {
	for id, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, id)
		}
	}
	return nil
}

func (r *fakeResetRepo) DeleteExpired(ctx context.Context) error {
	now := time.Now()
	for id, t := range r.tokens {
		if now.After(t.ExpiresAt) {
			delete(r.tokens, id)
		}
	}
	return nil
}

func (r *fakeResetRepo) GetLatestByUserID(ctx context.Context, userID string) (*models.PasswordResetToken, error) {
	var latest *models.PasswordResetToken
	for _, t := range r.tokens {
		if t.UserID == userID && (latest == nil || t.CreatedAt.After(latest.CreatedAt)) {
			latest = t
		}
	}
	if latest == nil {
		return nil, pkg.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

// ─── fakeMailer ───

// fakeMailer, gönderilen reset token'larını yakalar.
type fakeMailer struct {
	sentTo     []string
	sentTokens []string
}

func (m *fakeMailer) SendPasswordReset(ctx context.Context, toEmail, token string) error {
	m.sentTo = append(m.sentTo, toEmail)
	m.sentTokens = append(m.sentTokens, token)
	return nil
}
