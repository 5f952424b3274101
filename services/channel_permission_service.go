// Package services — ChannelPermissionService: kanal bazlı permission override iş mantığı.
//
// Belirli bir kanalda rollere veya tek tek kullanıcılara özel izin/engelleme tanımlar.
// Her override, isimli permission listeleri (allow/deny) taşır.
//
// Resolution sırası (dar hedef genişi ezer):
//
//	owner → administrator → rol birleşimi → rol override'ları → kullanıcı override'ı
//
// Owner ve administrator override'ları tamamen bypass eder.
// Asıl hesap models.GetEffectivePermissions'ta yaşar — bu service veriyi
// toplar, ilgili override'ları süzer ve sonucu cache'ler.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/acarlson33/firepit/models"
	"github.com/acarlson33/firepit/pkg"
	"github.com/acarlson33/firepit/pkg/cache"
	"github.com/acarlson33/firepit/repository"
	"github.com/acarlson33/firepit/ws"
)

// resolveCacheTTL, effective permission cache'inin ömrü.
// Kısa tutulur — rol/override değişiklikleri zaten cache'i invalidate eder,
// TTL sadece kaçırılan invalidation'lara karşı üst sınırdır.
const resolveCacheTTL = 30 * time.Second

// ChannelPermResolver, kanal bazlı effective permission hesaplayan ISP interface.
//
// Interface Segregation Principle: MessageService ve middleware sadece
// permission resolution'a ihtiyaç duyar, override CRUD'a değil.
// Bu minimal interface sayesinde service'ler birbirine sıkı bağımlı olmaz.
//
// ChannelPermissionService bu interface'i otomatik karşılar (Go duck typing).
type ChannelPermResolver interface {
	ResolveChannelPermissions(ctx context.Context, userID, channelID string) (models.PermissionSet, error)
}

// PermCacheInvalidator, resolver cache'ini düşürmek için minimal interface.
// Rol ve üyelik değişikliği yapan service'ler bunu kullanır.
type PermCacheInvalidator interface {
	// InvalidateUser, kullanıcının tüm kanal sonuçlarını düşürür.
	// Rol ataması/çıkarması sonrası çağrılır.
	InvalidateUser(userID string)

	// InvalidateChannel, kanalın tüm kullanıcı sonuçlarını düşürür.
	// Override değişikliği sonrası çağrılır.
	InvalidateChannel(channelID string)

	// InvalidateAll, tüm cache'i boşaltır.
	// Rol flag'leri değişince kimlerin etkilendiği bilinemez — hepsi düşer.
	InvalidateAll()
}

// ChannelPermissionService, kanal bazlı permission override yönetimi interface'i.
type ChannelPermissionService interface {
	ChannelPermResolver
	PermCacheInvalidator

	// GetOverrides, bir kanaldaki tüm permission override'ları döner.
	// Ayar panelinde kullanılır — "bu kanalda hangi hedefler için override var?"
	GetOverrides(ctx context.Context, channelID string) ([]models.ChannelPermissionOverride, error)

	// SetOverride, bir kanal-hedef çifti için override oluşturur veya günceller.
	// Hedef rol ise rolün kanalın sunucusuna ait olduğu doğrulanır.
	SetOverride(ctx context.Context, channelID string, req *models.SetOverrideRequest) (*models.ChannelPermissionOverride, error)

	// DeleteOverride, bir kanal-hedef çifti için override'ı kaldırır.
	DeleteOverride(ctx context.Context, channelID, roleID, userID string) error
}

type channelPermService struct {
	permRepo    repository.ChannelPermissionRepository
	roleRepo    repository.RoleRepository
	channelRepo repository.ChannelRepository
	serverRepo  repository.ServerRepository
	hub         ws.EventPublisher

	// resolved: "userID|channelID" → effective permission set.
	resolved *cache.TTLCache[string, models.PermissionSet]
}

// NewChannelPermissionService, ChannelPermissionService implementasyonunu oluşturur.
//
// Dependency'ler:
// - permRepo: kanal permission override CRUD
// - roleRepo: kullanıcının rollerini almak için (resolution'da)
// - channelRepo: kanaldan sunucuya ulaşmak için
// - serverRepo: owner kontrolü için
// - hub: override değişikliklerini WS ile broadcast etmek için
func NewChannelPermissionService(
	permRepo repository.ChannelPermissionRepository,
	roleRepo repository.RoleRepository,
	channelRepo repository.ChannelRepository,
	serverRepo repository.ServerRepository,
	hub ws.EventPublisher,
) ChannelPermissionService {
	return &channelPermService{
		permRepo:    permRepo,
		roleRepo:    roleRepo,
		channelRepo: channelRepo,
		serverRepo:  serverRepo,
		hub:         hub,
		resolved:    cache.New[string, models.PermissionSet](resolveCacheTTL, time.Minute),
	}
}

func (s *channelPermService) GetOverrides(ctx context.Context, channelID string) ([]models.ChannelPermissionOverride, error) {
	overrides, err := s.permRepo.GetByChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel overrides: %w", err)
	}

	// nil yerine boş slice dön — JSON'da [] olarak serialize olur, null değil
	if overrides == nil {
		overrides = []models.ChannelPermissionOverride{}
	}

	return overrides, nil
}

func (s *channelPermService) SetOverride(ctx context.Context, channelID string, req *models.SetOverrideRequest) (*models.ChannelPermissionOverride, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	// Rol hedefliyorsa: rol var mı ve bu sunucuya mı ait?
	if req.RoleID != "" {
		role, err := s.roleRepo.GetByID(ctx, req.RoleID)
		if err != nil {
			return nil, err
		}
		if role.ServerID != channel.ServerID {
			return nil, fmt.Errorf("%w: role does not belong to this server", pkg.ErrBadRequest)
		}
	}

	// Kullanıcı hedefliyorsa: sunucu üyesi mi?
	// Üyelik kontrolü var olmayan kullanıcıyı da yakalar —
	// FK hatası yerine anlamlı bir 400 döner.
	if req.UserID != "" {
		isMember, err := s.serverRepo.IsMember(ctx, channel.ServerID, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to check membership: %w", err)
		}
		if !isMember {
			return nil, fmt.Errorf("%w: user is not a member of this server", pkg.ErrBadRequest)
		}
	}

	override := &models.ChannelPermissionOverride{
		ID:        uuid.NewString(),
		ChannelID: channelID,
		RoleID:    req.RoleID,
		UserID:    req.UserID,
		Allow:     req.Allow,
		Deny:      req.Deny,
	}

	if err := s.permRepo.Set(ctx, override); err != nil {
		return nil, fmt.Errorf("failed to set channel override: %w", err)
	}

	s.InvalidateChannel(channelID)

	// WS broadcast — sunucunun client'ları override değişikliğini görsün
	s.hub.BroadcastToServer(channel.ServerID, ws.Event{
		Op:   ws.OpChannelPermissionUpdate,
		Data: override,
	})

	return override, nil
}

func (s *channelPermService) DeleteOverride(ctx context.Context, channelID, roleID, userID string) error {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return err
	}

	if err := s.permRepo.Delete(ctx, channelID, roleID, userID); err != nil {
		return fmt.Errorf("failed to delete channel override: %w", err)
	}

	s.InvalidateChannel(channelID)

	s.hub.BroadcastToServer(channel.ServerID, ws.Event{
		Op: ws.OpChannelPermissionDelete,
		Data: ws.OverrideDeleteData{
			ChannelID: channelID,
			RoleID:    roleID,
			UserID:    userID,
		},
	})

	return nil
}

// ResolveChannelPermissions, bir kullanıcının belirli bir kanaldaki
// effective permission'larını hesaplar.
//
// Akış:
// 1. Cache'e bak — taze sonuç varsa DB'ye hiç gitme
// 2. Kanal → sunucu; owner kontrolü
// 3. Kullanıcının bu sunucudaki rolleri
// 4. Kanalın override'larından kullanıcıyı ilgilendirenleri süz:
//    tuttuğu rollerin override'ları + kendisini hedefleyen override.
//    Oluşturulma sırası korunur — çakışan rol override'larında sonuncu kazanır.
// 5. models.GetEffectivePermissions ile hesapla, cache'le
func (s *channelPermService) ResolveChannelPermissions(ctx context.Context, userID, channelID string) (models.PermissionSet, error) {
	cacheKey := userID + "|" + channelID
	if set, ok := s.resolved.Get(cacheKey); ok {
		return set, nil
	}

	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return models.PermissionSet{}, err
	}

	server, err := s.serverRepo.GetByID(ctx, channel.ServerID)
	if err != nil {
		return models.PermissionSet{}, err
	}
	isOwner := server.OwnerID == userID

	roles, err := s.roleRepo.GetByUserAndServer(ctx, userID, channel.ServerID)
	if err != nil {
		return models.PermissionSet{}, fmt.Errorf("failed to get user roles: %w", err)
	}

	overrides, err := s.permRepo.GetByChannel(ctx, channelID)
	if err != nil {
		if !errors.Is(err, pkg.ErrNotFound) {
			return models.PermissionSet{}, fmt.Errorf("failed to get channel overrides: %w", err)
		}
		overrides = nil
	}

	// Kullanıcıyı ilgilendirmeyen override'ları süz.
	// Hesaplayıcı rol üyeliği kontrolü yapmaz — süzme burada yapılır.
	heldRoles := make(map[string]bool, len(roles))
	for _, role := range roles {
		heldRoles[role.ID] = true
	}

	relevant := overrides[:0:0]
	for _, o := range overrides {
		switch {
		case o.TargetsRole() && heldRoles[o.RoleID]:
			relevant = append(relevant, o)
		case o.TargetsUser() && o.UserID == userID:
			relevant = append(relevant, o)
		}
	}

	effective := models.GetEffectivePermissions(roles, relevant, isOwner)
	s.resolved.Set(cacheKey, effective)

	return effective, nil
}

// ─── Cache invalidation ───

func (s *channelPermService) InvalidateUser(userID string) {
	prefix := userID + "|"
	s.resolved.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}

func (s *channelPermService) InvalidateChannel(channelID string) {
	suffix := "|" + channelID
	s.resolved.DeleteFunc(func(key string) bool {
		return strings.HasSuffix(key, suffix)
	})
}

func (s *channelPermService) InvalidateAll() {
	s.resolved.Clear()
}
