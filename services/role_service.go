// Package services — RoleService: rol CRUD iş mantığı.
//
// Roller sunucudaki yetki gruplarını temsil eder.
// Her rolün bir position (hiyerarşi sırası), renk ve sekiz permission flag'i vardır.
//
// Hiyerarşi kuralı:
// Bir kullanıcı sadece kendi en yüksek rolünden düşük position'daki
// rolleri oluşturabilir, düzenleyebilir veya silebilir.
// Owner tüm kuralları bypass eder; administrator hiyerarşiye tabidir
// ama tüm permission'ları atayabilir.
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/acarlson33/firepit/models"
	"github.com/acarlson33/firepit/pkg"
	"github.com/acarlson33/firepit/repository"
	"github.com/acarlson33/firepit/ws"
)

// RoleService, rol yönetimi iş mantığı interface'i.
type RoleService interface {
	// GetAll, sunucunun tüm rollerini döner (position DESC sıralı).
	GetAll(ctx context.Context, serverID string) ([]models.Role, error)

	// Create, yeni rol oluşturur (hiyerarşi + escalation kontrolü ile).
	Create(ctx context.Context, serverID, actorID string, req *models.CreateRoleRequest) (*models.Role, error)

	// Update, mevcut rolü günceller (hiyerarşi + escalation kontrolü ile).
	Update(ctx context.Context, serverID, actorID, roleID string, req *models.UpdateRoleRequest) (*models.Role, error)

	// Delete, rolü siler (hiyerarşi kontrolü + default rol koruması).
	Delete(ctx context.Context, serverID, actorID, roleID string) error

	// Reorder, rollerin sıralamasını toplu günceller (hiyerarşi kontrolü ile).
	// Actor sadece yönetebildiği rolleri sıralayabilir; default rol listeye giremez.
	Reorder(ctx context.Context, serverID, actorID string, req *models.ReorderRolesRequest) ([]models.Role, error)
}

type roleService struct {
	roleRepo   repository.RoleRepository
	serverRepo repository.ServerRepository
	permCache  PermCacheInvalidator
	hub        ws.EventPublisher
}

// NewRoleService, RoleService implementasyonunu oluşturur.
func NewRoleService(
	roleRepo repository.RoleRepository,
	serverRepo repository.ServerRepository,
	permCache PermCacheInvalidator,
	hub ws.EventPublisher,
) RoleService {
	return &roleService{
		roleRepo:   roleRepo,
		serverRepo: serverRepo,
		permCache:  permCache,
		hub:        hub,
	}
}

func (s *roleService) GetAll(ctx context.Context, serverID string) ([]models.Role, error) {
	roles, err := s.roleRepo.GetAllByServer(ctx, serverID)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []models.Role{}
	}
	return roles, nil
}

// Create, yeni rol oluşturur.
//
// Kurallar:
// - Escalation kontrolü: actor sahip olmadığı yetkiyi yeni role veremez
//   (owner ve administrator hariç)
// - Yeni rolün position'ı actor'un en yüksek rolünün hemen altı
func (s *roleService) Create(ctx context.Context, serverID, actorID string, req *models.CreateRoleRequest) (*models.Role, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	isOwner, actorRoles, err := s.actorContext(ctx, serverID, actorID)
	if err != nil {
		return nil, err
	}

	if err := s.checkEscalation(actorRoles, req.Permissions, isOwner); err != nil {
		return nil, err
	}

	// Yeni rolün position'ı: actor'un en yüksek rolünün hemen altı.
	// Owner rol tutmuyor olabilir — o durumda mevcut en yüksek position'ın üstü.
	newPosition := 1
	if highest := models.HighestRole(actorRoles); highest != nil {
		newPosition = highest.Position - 1
	} else if isOwner {
		maxPos, err := s.roleRepo.GetMaxPosition(ctx, serverID)
		if err != nil {
			return nil, err
		}
		newPosition = maxPos + 1
	}
	if newPosition < 1 {
		newPosition = 1
	}

	role := &models.Role{
		ID:            uuid.NewString(),
		ServerID:      serverID,
		Name:          req.Name,
		Color:         req.Color,
		Position:      newPosition,
		PermissionSet: req.Permissions,
		Mentionable:   req.Mentionable,
	}

	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	// WS broadcast
	s.hub.BroadcastToServer(serverID, ws.Event{
		Op:   ws.OpRoleCreate,
		Data: role,
	})

	return role, nil
}

// Update, mevcut rolü günceller.
//
// Kurallar:
// - CanManageRole geçmeli: hiyerarşi + manageRoles yetkisi
// - Escalation kontrolü: actor sahip olmadığı yetkiyi atayamaz
func (s *roleService) Update(ctx context.Context, serverID, actorID, roleID string, req *models.UpdateRoleRequest) (*models.Role, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	role, err := s.getServerRole(ctx, serverID, roleID)
	if err != nil {
		return nil, err
	}

	isOwner, actorRoles, err := s.actorContext(ctx, serverID, actorID)
	if err != nil {
		return nil, err
	}

	if !models.CanManageRole(actorRoles, *role, isOwner) {
		return nil, fmt.Errorf("%w: cannot modify a role at or above your highest role", pkg.ErrForbidden)
	}

	if req.Permissions != nil {
		if err := s.checkEscalation(actorRoles, *req.Permissions, isOwner); err != nil {
			return nil, err
		}
	}

	// Partial update
	if req.Name != nil {
		role.Name = *req.Name
	}
	if req.Color != nil {
		role.Color = *req.Color
	}
	if req.Mentionable != nil {
		role.Mentionable = *req.Mentionable
	}
	if req.Permissions != nil {
		role.PermissionSet = *req.Permissions
	}

	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	// Flag'ler değişmiş olabilir — bu rolü tutan herkesin sonucu bayatlar.
	s.permCache.InvalidateAll()

	// WS broadcast
	s.hub.BroadcastToServer(serverID, ws.Event{
		Op:   ws.OpRoleUpdate,
		Data: role,
	})

	return role, nil
}

// Delete, rolü siler.
//
// Güvenlik kontrolleri:
// 1. Default rol silinemez (her üyeye atanır)
// 2. CanManageRole geçmeli
func (s *roleService) Delete(ctx context.Context, serverID, actorID, roleID string) error {
	role, err := s.getServerRole(ctx, serverID, roleID)
	if err != nil {
		return err
	}

	if role.IsDefault {
		return fmt.Errorf("%w: cannot delete the default role", pkg.ErrBadRequest)
	}

	isOwner, actorRoles, err := s.actorContext(ctx, serverID, actorID)
	if err != nil {
		return err
	}

	if !models.CanManageRole(actorRoles, *role, isOwner) {
		return fmt.Errorf("%w: cannot delete a role at or above your highest role", pkg.ErrForbidden)
	}

	if err := s.roleRepo.Delete(ctx, roleID); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	// member_roles cascade ile temizlendi — tutan herkesin sonucu bayatladı.
	s.permCache.InvalidateAll()

	// WS broadcast
	s.hub.BroadcastToServer(serverID, ws.Event{
		Op:   ws.OpRoleDelete,
		Data: map[string]string{"id": roleID},
	})

	return nil
}

// Reorder, rollerin sıralamasını toplu olarak günceller.
//
// Kurallar:
// 1. Sıralanan her rol bu sunucuya ait olmalı
// 2. Default rol sıralanamaz — her zaman en altta (position 0)
// 3. Actor her rolü CanManageRole ile yönetebilmeli
// 4. Hiçbir rol actor'un en yüksek position'ına eşit veya üstüne taşınamaz
//    (owner hariç)
//
// Akış:
// 1. Her item: DB'den rolü çek, default/hiyerarşi kontrol
// 2. Repository'ye ilet — transaction ile atomik güncelleme
// 3. Güncel rol listesini DB'den yeniden yükle
// 4. WS broadcast — tüm client'lar güncel sırayı alır
func (s *roleService) Reorder(ctx context.Context, serverID, actorID string, req *models.ReorderRolesRequest) ([]models.Role, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	isOwner, actorRoles, err := s.actorContext(ctx, serverID, actorID)
	if err != nil {
		return nil, err
	}

	actorTop := 0
	if highest := models.HighestRole(actorRoles); highest != nil {
		actorTop = highest.Position
	}

	for _, item := range req.Positions {
		role, err := s.getServerRole(ctx, serverID, item.RoleID)
		if err != nil {
			return nil, err
		}

		// Default rol sıralanamaz
		if role.IsDefault {
			return nil, fmt.Errorf("%w: cannot reorder the default role", pkg.ErrBadRequest)
		}

		if !models.CanManageRole(actorRoles, *role, isOwner) {
			return nil, fmt.Errorf("%w: cannot reorder a role at or above your highest role", pkg.ErrForbidden)
		}

		// Yeni position kontrolü: actor kendinden yükseğe taşıyamaz
		if !isOwner && item.Position >= actorTop {
			return nil, fmt.Errorf("%w: cannot move a role to or above your highest role", pkg.ErrForbidden)
		}
	}

	// Atomik güncelleme
	if err := s.roleRepo.UpdatePositions(ctx, req.Positions); err != nil {
		return nil, fmt.Errorf("failed to update role positions: %w", err)
	}

	// Position değişimi hiyerarşiyi etkiler ama flag'leri değil —
	// resolver sonuçları positions'a bakmaz, cache dokunulmaz.

	// Güncel listeyi DB'den yeniden yükle
	roles, err := s.roleRepo.GetAllByServer(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload roles after reorder: %w", err)
	}

	// WS broadcast — tüm client'lar güncel sırayı alır
	s.hub.BroadcastToServer(serverID, ws.Event{
		Op:   ws.OpRolesReorder,
		Data: roles,
	})

	return roles, nil
}

// ─── Private Helpers ───

// actorContext, actor'un owner olup olmadığını ve bu sunucudaki rollerini döner.
func (s *roleService) actorContext(ctx context.Context, serverID, actorID string) (bool, []models.Role, error) {
	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return false, nil, err
	}

	roles, err := s.roleRepo.GetByUserAndServer(ctx, actorID, serverID)
	if err != nil {
		return false, nil, fmt.Errorf("failed to get actor roles: %w", err)
	}

	return server.OwnerID == actorID, roles, nil
}

// getServerRole, rolü çeker ve sunucu aidiyetini doğrular.
// Başka sunucunun rol ID'si not found gibi davranır — bilgi sızdırmaz.
func (s *roleService) getServerRole(ctx context.Context, serverID, roleID string) (*models.Role, error) {
	role, err := s.roleRepo.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role.ServerID != serverID {
		return nil, pkg.ErrNotFound
	}
	return role, nil
}

// checkEscalation, actor'un sahip olmadığı bir yetkiyi role vermesini engeller.
// Owner ve administrator tüm yetkileri atayabilir.
func (s *roleService) checkEscalation(actorRoles []models.Role, requested models.PermissionSet, isOwner bool) error {
	if isOwner || models.HasAdministrator(actorRoles) {
		return nil
	}

	actorPerms := models.GetEffectivePermissions(actorRoles, nil, false)

	for _, p := range models.AllPermissions() {
		if requested.Has(p) && !actorPerms.Has(p) {
			return fmt.Errorf("%w: cannot grant permissions you do not have", pkg.ErrForbidden)
		}
	}

	return nil
}
