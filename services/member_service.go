// Package services — MemberService: üye yönetimi iş mantığı.
//
// Üye listesi, profil güncelleme, rol atama, kick ve ban işlemlerinin
// business logic'i burada toplanır.
//
// Kritik güvenlik kuralı — Rol Hiyerarşisi:
// Bir kullanıcı sadece kendi en üst rolünden düşük position'daki
// kullanıcıları yönetebilir. Sunucu sahibi her hiyerarşinin üstündedir
// ve hiçbir üye tarafından atılamaz/yasaklanamaz.
// Bu kurallar tüm mutating operasyonlarda (ModifyRoles, Kick, Ban) enforced edilir.
package services

import (
	"context"
	"fmt"
	"log"

	"github.com/acarlson33/firepit/models"
	"github.com/acarlson33/firepit/pkg"
	"github.com/acarlson33/firepit/repository"
	"github.com/acarlson33/firepit/ws"
)

// MemberService, üye yönetimi iş mantığı interface'i.
type MemberService interface {
	// GetAll, sunucunun tüm üyelerini rolleriyle birlikte döner.
	GetAll(ctx context.Context, serverID string) ([]models.MemberWithRoles, error)

	// GetByID, sunucudaki belirli bir üyeyi rolleriyle birlikte döner.
	GetByID(ctx context.Context, serverID, userID string) (*models.MemberWithRoles, error)

	// UpdateProfile, kullanıcının kendi profilini günceller.
	// Değişiklik kullanıcının üye olduğu tüm sunuculara broadcast edilir.
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error)

	// UpdatePresence, kullanıcının çevrimiçi durumunu günceller ve
	// üye olduğu sunuculara presence event'i yayınlar.
	UpdatePresence(ctx context.Context, userID string, status models.UserStatus) error

	// ModifyRoles, bir üyenin rollerini declarative olarak değiştirir
	// (hedef set verilir, mevcut set ile diff yapılır).
	ModifyRoles(ctx context.Context, serverID, actorID, targetID string, req *models.RoleModifyRequest) (*models.MemberWithRoles, error)

	// Kick, bir üyeyi sunucudan çıkarır (hiyerarşi kontrolü ile).
	Kick(ctx context.Context, serverID, actorID, targetID string) error

	// Ban, bir üyeyi yasaklar ve sunucudan çıkarır (hiyerarşi kontrolü ile).
	Ban(ctx context.Context, serverID, actorID, targetID string, req *models.BanRequest) error

	// Unban, bir üyenin yasağını kaldırır.
	Unban(ctx context.Context, serverID, userID string) error

	// GetBans, sunucunun tüm yasak kayıtlarını döner.
	GetBans(ctx context.Context, serverID string) ([]models.Ban, error)
}

type memberService struct {
	userRepo   repository.UserRepository
	serverRepo repository.ServerRepository
	roleRepo   repository.RoleRepository
	banRepo    repository.BanRepository
	permCache  PermCacheInvalidator
	hub        ws.EventPublisher
}

// NewMemberService, MemberService implementasyonunu oluşturur.
//
// Constructor injection: Tüm dependency'ler dışarıdan alınır.
// hub (EventPublisher) ile WS broadcast yapılır — DB değişikliklerini
// gerçek zamanlı olarak ilgili sunucunun client'larına iletmek için.
func NewMemberService(
	userRepo repository.UserRepository,
	serverRepo repository.ServerRepository,
	roleRepo repository.RoleRepository,
	banRepo repository.BanRepository,
	permCache PermCacheInvalidator,
	hub ws.EventPublisher,
) MemberService {
	return &memberService{
		userRepo:   userRepo,
		serverRepo: serverRepo,
		roleRepo:   roleRepo,
		banRepo:    banRepo,
		permCache:  permCache,
		hub:        hub,
	}
}

func (s *memberService) GetAll(ctx context.Context, serverID string) ([]models.MemberWithRoles, error) {
	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return nil, err
	}

	memberships, err := s.serverRepo.GetMembers(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}

	members := make([]models.MemberWithRoles, 0, len(memberships))
	for i := range memberships {
		m := &memberships[i]

		user, err := s.userRepo.GetByID(ctx, m.UserID)
		if err != nil {
			// Kullanıcı silinmiş olabilir — üyelik kaydını atla
			log.Printf("[member] user %s not found for server %s: %v", m.UserID, serverID, err)
			continue
		}

		roles, err := s.roleRepo.GetByUserAndServer(ctx, m.UserID, serverID)
		if err != nil {
			return nil, fmt.Errorf("failed to get roles for user %s: %w", m.UserID, err)
		}

		members = append(members, models.ToMemberWithRoles(user, m, roles, server.OwnerID == m.UserID))
	}

	return members, nil
}

func (s *memberService) GetByID(ctx context.Context, serverID, userID string) (*models.MemberWithRoles, error) {
	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return nil, err
	}

	isMember, err := s.serverRepo.IsMember(ctx, serverID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return nil, pkg.ErrNotFound
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	roles, err := s.roleRepo.GetByUserAndServer(ctx, userID, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles for user: %w", err)
	}

	// JoinedAt için üyelik kaydını bul
	memberships, err := s.serverRepo.GetMembers(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	membership := &models.ServerMember{ServerID: serverID, UserID: userID}
	for i := range memberships {
		if memberships[i].UserID == userID {
			membership = &memberships[i]
			break
		}
	}

	member := models.ToMemberWithRoles(user, membership, roles, server.OwnerID == userID)
	return &member, nil
}

func (s *memberService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Partial update: sadece non-nil field'ları güncelle
	if req.DisplayName != nil {
		user.DisplayName = req.DisplayName
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}

	user.PasswordHash = "" // Güvenlik

	// Kullanıcının üye olduğu tüm sunuculara bildir
	s.broadcastToUserServers(ctx, userID, ws.Event{
		Op:   ws.OpMemberUpdate,
		Data: user,
	})

	return user, nil
}

func (s *memberService) UpdatePresence(ctx context.Context, userID string, status models.UserStatus) error {
	if err := s.userRepo.UpdateStatus(ctx, userID, status); err != nil {
		return fmt.Errorf("failed to update presence: %w", err)
	}

	s.broadcastToUserServers(ctx, userID, ws.Event{
		Op: ws.OpPresence,
		Data: ws.PresenceData{
			UserID: userID,
			Status: string(status),
		},
	})

	return nil
}

// ModifyRoles, bir üyenin rollerini değiştirir.
//
// Declarative API: roleIDs hedef set'tir, mevcut roller ile diff yapılır.
// Eksikler eklenir, fazlalar çıkarılır. Default (varsayılan) rol diff'in
// dışındadır — her üyede kalır, listede gönderilmese bile çıkarılmaz.
//
// Hiyerarşi kuralları:
// 1. Owner'ın rolleri başkası tarafından değiştirilemez
// 2. Değişen (eklenen veya çıkarılan) her rol için CanManageRole geçmeli —
//    actor'un en üst rolü, değişen rolün position'ından kesin büyük olmalı
//    (administrator kısa yolu ve owner bypass'ı dahil)
func (s *memberService) ModifyRoles(ctx context.Context, serverID, actorID, targetID string, req *models.RoleModifyRequest) (*models.MemberWithRoles, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return nil, err
	}
	isOwner := server.OwnerID == actorID

	// Owner koruma — sahibin rolleri sadece kendisi tarafından değiştirilebilir
	if server.OwnerID == targetID && actorID != targetID {
		return nil, fmt.Errorf("%w: cannot modify the server owner's roles", pkg.ErrForbidden)
	}

	isMember, err := s.serverRepo.IsMember(ctx, serverID, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return nil, fmt.Errorf("%w: user is not a member of this server", pkg.ErrNotFound)
	}

	actorRoles, err := s.roleRepo.GetByUserAndServer(ctx, actorID, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get actor roles: %w", err)
	}

	targetRoles, err := s.roleRepo.GetByUserAndServer(ctx, targetID, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get target roles: %w", err)
	}

	currentSet := make(map[string]models.Role, len(targetRoles))
	for _, r := range targetRoles {
		currentSet[r.ID] = r
	}

	targetSet := make(map[string]bool, len(req.RoleIDs))
	for _, id := range req.RoleIDs {
		targetSet[id] = true
	}

	// Eklenmesi gerekenler: hedef set'te var ama mevcut set'te yok
	for _, roleID := range req.RoleIDs {
		if _, held := currentSet[roleID]; held {
			continue
		}

		role, err := s.roleRepo.GetByID(ctx, roleID)
		if err != nil {
			return nil, fmt.Errorf("%w: role not found", pkg.ErrBadRequest)
		}
		if role.ServerID != serverID {
			return nil, fmt.Errorf("%w: role does not belong to this server", pkg.ErrBadRequest)
		}
		if !models.CanManageRole(actorRoles, *role, isOwner) {
			return nil, fmt.Errorf("%w: cannot assign role '%s'", pkg.ErrForbidden, role.Name)
		}

		if err := s.roleRepo.AssignToUser(ctx, serverID, targetID, roleID); err != nil {
			return nil, fmt.Errorf("failed to assign role: %w", err)
		}
	}

	// Çıkarılması gerekenler: mevcut set'te var ama hedef set'te yok
	for _, r := range targetRoles {
		if targetSet[r.ID] {
			continue
		}
		// Default rol çıkarılmaz — her üye en az onu taşır
		if r.IsDefault {
			continue
		}
		if !models.CanManageRole(actorRoles, r, isOwner) {
			return nil, fmt.Errorf("%w: cannot remove role '%s'", pkg.ErrForbidden, r.Name)
		}

		if err := s.roleRepo.RemoveFromUser(ctx, targetID, r.ID); err != nil {
			return nil, fmt.Errorf("failed to remove role: %w", err)
		}
	}

	// Rol ataması değişti — target'in cache'lenmiş izinleri geçersiz
	s.permCache.InvalidateUser(targetID)

	member, err := s.GetByID(ctx, serverID, targetID)
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToServer(serverID, ws.Event{
		Op:   ws.OpMemberUpdate,
		Data: member,
	})

	return member, nil
}

// Kick, bir üyeyi sunucudan çıkarır.
//
// Hiyerarşi: Actor'un en üst rolü target'inkinden kesin büyük olmalı,
// owner hariç (owner herkesi atabilir, kendisi atılamaz).
// İşlem: üyelik ve rol atamaları silinir, kullanıcı hesabı kalır.
func (s *memberService) Kick(ctx context.Context, serverID, actorID, targetID string) error {
	if actorID == targetID {
		return fmt.Errorf("%w: cannot kick yourself", pkg.ErrBadRequest)
	}

	if err := s.checkHierarchy(ctx, serverID, actorID, targetID); err != nil {
		return err
	}

	return s.removeFromServer(ctx, serverID, targetID)
}

// Ban, bir üyeyi yasaklar.
//
// Akış:
// 1. Hiyerarşi kontrolü
// 2. Ban kaydı oluştur (sunucu bazlı)
// 3. Üyeliği ve rol atamalarını sil
// 4. member_leave broadcast + hedefin client'ından sunucuyu düşür
func (s *memberService) Ban(ctx context.Context, serverID, actorID, targetID string, req *models.BanRequest) error {
	if actorID == targetID {
		return fmt.Errorf("%w: cannot ban yourself", pkg.ErrBadRequest)
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	if err := s.checkHierarchy(ctx, serverID, actorID, targetID); err != nil {
		return err
	}

	ban := &models.Ban{
		ServerID: serverID,
		UserID:   targetID,
		Reason:   req.Reason,
		BannedBy: actorID,
	}
	if err := s.banRepo.Create(ctx, ban); err != nil {
		return fmt.Errorf("failed to create ban: %w", err)
	}

	return s.removeFromServer(ctx, serverID, targetID)
}

func (s *memberService) Unban(ctx context.Context, serverID, userID string) error {
	return s.banRepo.Delete(ctx, serverID, userID)
}

func (s *memberService) GetBans(ctx context.Context, serverID string) ([]models.Ban, error) {
	bans, err := s.banRepo.GetAllByServer(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bans: %w", err)
	}
	if bans == nil {
		bans = []models.Ban{}
	}
	return bans, nil
}

// checkHierarchy, actor'un target üzerinde yetki sahibi olup olmadığını kontrol eder.
//
// Güvenlik katmanları:
// 1. Owner koruma — sunucu sahibi asla atılamaz/yasaklanamaz (kimlik bazlı)
// 2. Owner bypass — actor sahipse position kontrolü atlanır
// 3. Position kontrolü — actor'un en üst position'ı target'ınkinden kesin büyük olmalı
//
// İki katmanlı (defense in depth) yaklaşım sayesinde position
// manipülasyonu olsa bile owner korunur.
func (s *memberService) checkHierarchy(ctx context.Context, serverID, actorID, targetID string) error {
	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return err
	}

	// Katman 1: Owner kimlik bazlı koruma
	if server.OwnerID == targetID {
		return fmt.Errorf("%w: the server owner cannot be kicked or banned", pkg.ErrForbidden)
	}

	// Katman 2: Owner bypass
	if server.OwnerID == actorID {
		return nil
	}

	actorRoles, err := s.roleRepo.GetByUserAndServer(ctx, actorID, serverID)
	if err != nil {
		return fmt.Errorf("failed to get actor roles: %w", err)
	}
	targetRoles, err := s.roleRepo.GetByUserAndServer(ctx, targetID, serverID)
	if err != nil {
		return fmt.Errorf("failed to get target roles: %w", err)
	}

	// Katman 3: Position bazlı hiyerarşi kontrolü
	actorMaxPos, targetMaxPos := -1, -1
	if h := models.HighestRole(actorRoles); h != nil {
		actorMaxPos = h.Position
	}
	if h := models.HighestRole(targetRoles); h != nil {
		targetMaxPos = h.Position
	}

	if actorMaxPos <= targetMaxPos {
		return fmt.Errorf("%w: insufficient role hierarchy", pkg.ErrForbidden)
	}

	return nil
}

// removeFromServer, üyeliği ve rol atamalarını siler, WS tarafını temizler.
// Kick ve Ban'ın ortak son adımı.
func (s *memberService) removeFromServer(ctx context.Context, serverID, targetID string) error {
	if err := s.serverRepo.RemoveMember(ctx, serverID, targetID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	if err := s.roleRepo.RemoveAllFromUser(ctx, serverID, targetID); err != nil {
		// Rol temizliği başarısız olsa da üyelik silindi — logla, devam et
		log.Printf("[member] failed to remove roles for user %s in server %s: %v", targetID, serverID, err)
	}

	s.permCache.InvalidateUser(targetID)

	s.hub.BroadcastToServer(serverID, ws.Event{
		Op:   ws.OpMemberLeave,
		Data: map[string]string{"user_id": targetID, "server_id": serverID},
	})

	// Hedefin client'ı sunucuyu listesinden düşürür
	s.hub.BroadcastToUser(targetID, ws.Event{
		Op:   ws.OpServerDelete,
		Data: map[string]string{"id": serverID},
	})
	s.hub.UnsubscribeUserFromServer(targetID, serverID)

	return nil
}

// broadcastToUserServers, event'i kullanıcının üye olduğu tüm sunuculara yayınlar.
func (s *memberService) broadcastToUserServers(ctx context.Context, userID string, event ws.Event) {
	serverIDs, err := s.serverRepo.GetMemberServerIDs(ctx, userID)
	if err != nil {
		log.Printf("[member] failed to get servers for user %s: %v", userID, err)
		return
	}
	for _, id := range serverIDs {
		s.hub.BroadcastToServer(id, event)
	}
}
