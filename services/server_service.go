// Package services — ServerService: çoklu sunucu yönetimi iş mantığı.
//
// Sunucu oluşturma, katılma, ayrılma, güncelleme, silme.
// Sunucu oluşturulurken default rol ve "general" kanalı otomatik oluşturulur.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/acarlson33/firepit/database"
	"github.com/acarlson33/firepit/models"
	"github.com/acarlson33/firepit/pkg"
	"github.com/acarlson33/firepit/repository"
	"github.com/acarlson33/firepit/ws"
)

// ServerService, çoklu sunucu yönetimi iş mantığı interface'i.
type ServerService interface {
	// Create, yeni bir sunucu oluşturur.
	// Akış: server → owner üyeliği → default rol → "general" kanalı (atomik).
	Create(ctx context.Context, ownerID string, req *models.CreateServerRequest) (*models.Server, error)

	// Get, sunucu detayını döner.
	Get(ctx context.Context, serverID string) (*models.Server, error)

	// GetUserServers, kullanıcının üye olduğu sunucuların listesini döner.
	GetUserServers(ctx context.Context, userID string) ([]models.Server, error)

	// Update, sunucu bilgisini günceller (isim). Sadece owner yapabilir.
	Update(ctx context.Context, serverID, actorID string, req *models.UpdateServerRequest) (*models.Server, error)

	// Delete, sunucuyu siler. Sadece owner yapabilir.
	Delete(ctx context.Context, serverID, actorID string) error

	// JoinByInvite, davet koduyla sunucuya katılır.
	// Banlı kullanıcılar reddedilir; default rol atanır.
	JoinByInvite(ctx context.Context, userID, inviteCode string) (*models.Server, error)

	// Leave, sunucudan ayrılır. Owner ayrılamaz.
	Leave(ctx context.Context, serverID, userID string) error
}

type serverService struct {
	db            *sql.DB // Transaction desteği (WithTx) için — Create atomik çalışır
	serverRepo    repository.ServerRepository
	roleRepo      repository.RoleRepository
	channelRepo   repository.ChannelRepository
	userRepo      repository.UserRepository
	banRepo       repository.BanRepository
	inviteService InviteService
	permCache     PermCacheInvalidator
	hub           ws.EventPublisher
}

// NewServerService, constructor.
//
// db: Create'te WithTx ile atomik işlem için doğrudan *sql.DB gerekir.
// Repository'ler normal operasyonlarda kullanılır, transaction içinde tx-bound
// repo'lar oluşturulur.
//
// inviteService: JoinByInvite'ta davet kodunu doğrulamak için.
// permCache: üyelik değişimlerinde resolver cache'ini düşürmek için.
func NewServerService(
	db *sql.DB,
	serverRepo repository.ServerRepository,
	roleRepo repository.RoleRepository,
	channelRepo repository.ChannelRepository,
	userRepo repository.UserRepository,
	banRepo repository.BanRepository,
	inviteService InviteService,
	permCache PermCacheInvalidator,
	hub ws.EventPublisher,
) ServerService {
	return &serverService{
		db:            db,
		serverRepo:    serverRepo,
		roleRepo:      roleRepo,
		channelRepo:   channelRepo,
		userRepo:      userRepo,
		banRepo:       banRepo,
		inviteService: inviteService,
		permCache:     permCache,
		hub:           hub,
	}
}

// Create, yeni bir sunucu oluşturur.
//
// Transaction neden gerekli?
// Server INSERT → owner üyeliği → default rol → rol ataması → "general"
// kanalı: beş ayrı INSERT. Herhangi biri başarısız olursa önceki adımlar
// DB'de kalır — rolsüz üye, kanalsız sunucu gibi tutarsız veri oluşur.
// WithTx ile hepsi tek birim: ya hepsi yazılır (COMMIT) ya hiçbiri (ROLLBACK).
func (s *serverService) Create(ctx context.Context, ownerID string, req *models.CreateServerRequest) (*models.Server, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	server := &models.Server{
		ID:      uuid.NewString(),
		Name:    req.Name,
		OwnerID: ownerID,
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		// Transaction-bound repository'ler — aynı tx üzerinden çalışır
		txServerRepo := repository.NewSQLiteServerRepo(tx)
		txRoleRepo := repository.NewSQLiteRoleRepo(tx)
		txChannelRepo := repository.NewSQLiteChannelRepo(tx)

		// 1. Server INSERT
		if err := txServerRepo.Create(ctx, server); err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		// 2. Owner üyeliği
		if err := txServerRepo.AddMember(ctx, server.ID, ownerID); err != nil {
			return fmt.Errorf("failed to add owner as member: %w", err)
		}

		// 3. Default "Member" rolü — position 0, temel yetkiler.
		// Owner için ayrı rol oluşturulmaz: owner kontrolü kimlik bazlıdır
		// (servers.owner_id), resolver her yetkiyi zaten verir.
		defaultRole := &models.Role{
			ID:       uuid.NewString(),
			ServerID: server.ID,
			Name:     "Member",
			Color:    "#99aab5",
			Position: 0,
			PermissionSet: models.PermissionSet{
				ReadMessages: true,
				SendMessages: true,
			},
			IsDefault: true,
		}
		if err := txRoleRepo.Create(ctx, defaultRole); err != nil {
			return fmt.Errorf("failed to create default role: %w", err)
		}

		// 4. Default rolü owner'a da ata — üye listesi tutarlı kalır
		if err := txRoleRepo.AssignToUser(ctx, server.ID, ownerID, defaultRole.ID); err != nil {
			return fmt.Errorf("failed to assign default role to owner: %w", err)
		}

		// 5. "general" kanalı
		channel := &models.Channel{
			ID:       uuid.NewString(),
			ServerID: server.ID,
			Name:     "general",
			Position: 0,
		}
		if err := txChannelRepo.Create(ctx, channel); err != nil {
			return fmt.Errorf("failed to create default channel: %w", err)
		}

		return nil // → COMMIT
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create server (transaction): %w", err)
	}

	// ─── WS (transaction dışında — DB'ye yazıldıktan sonra) ───
	s.hub.SubscribeUserToServer(ownerID, server.ID)
	s.hub.BroadcastToUser(ownerID, ws.Event{
		Op:   ws.OpServerCreate,
		Data: server,
	})

	log.Printf("[server] created server %s (name=%s, owner=%s)", server.ID, server.Name, ownerID)

	return server, nil
}

func (s *serverService) Get(ctx context.Context, serverID string) (*models.Server, error) {
	return s.serverRepo.GetByID(ctx, serverID)
}

func (s *serverService) GetUserServers(ctx context.Context, userID string) ([]models.Server, error) {
	servers, err := s.serverRepo.GetUserServers(ctx, userID)
	if err != nil {
		return nil, err
	}
	if servers == nil {
		servers = []models.Server{}
	}
	return servers, nil
}

func (s *serverService) Update(ctx context.Context, serverID, actorID string, req *models.UpdateServerRequest) (*models.Server, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return nil, err
	}

	if server.OwnerID != actorID {
		return nil, fmt.Errorf("%w: only the server owner can update the server", pkg.ErrForbidden)
	}

	// Partial update
	if req.Name != nil {
		server.Name = *req.Name
	}

	if err := s.serverRepo.Update(ctx, server); err != nil {
		return nil, fmt.Errorf("failed to update server: %w", err)
	}

	// Sunucu üyelerine broadcast
	s.hub.BroadcastToServer(serverID, ws.Event{
		Op:   ws.OpServerUpdate,
		Data: server,
	})

	return server, nil
}

func (s *serverService) Delete(ctx context.Context, serverID, actorID string) error {
	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return err
	}

	// Sadece owner silebilir
	if server.OwnerID != actorID {
		return fmt.Errorf("%w: only the server owner can delete the server", pkg.ErrForbidden)
	}

	// Tüm üyelere sunucu silindi bildirimi — ÖNCE broadcast et, sonra sil
	// (sildikten sonra abonelikler kaybolur, BroadcastToServer çalışmaz)
	s.hub.BroadcastToServer(serverID, ws.Event{
		Op:   ws.OpServerDelete,
		Data: map[string]string{"id": serverID},
	})

	if err := s.serverRepo.Delete(ctx, serverID); err != nil {
		return fmt.Errorf("failed to delete server: %w", err)
	}

	log.Printf("[server] deleted server %s by user %s", serverID, actorID)
	return nil
}

// JoinByInvite, davet koduyla sunucuya katılır.
//
// Akış:
// 1. Davet kodunu doğrula ve kullan (ValidateAndUse)
// 2. Ban kontrolü — banlı kullanıcı davetle geri dönemez
// 3. Zaten üye mi kontrol et
// 4. Üyelik ekle + default rolü ata
// 5. WS: kullanıcıya sunucu eklendi, sunucuya member_join
func (s *serverService) JoinByInvite(ctx context.Context, userID, inviteCode string) (*models.Server, error) {
	invite, err := s.inviteService.ValidateAndUse(ctx, inviteCode)
	if err != nil {
		return nil, err
	}

	serverID := invite.ServerID

	// Ban kontrolü
	banned, err := s.banRepo.Exists(ctx, serverID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check ban: %w", err)
	}
	if banned {
		return nil, fmt.Errorf("%w: you are banned from this server", pkg.ErrForbidden)
	}

	// Zaten üye mi?
	isMember, err := s.serverRepo.IsMember(ctx, serverID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if isMember {
		return nil, fmt.Errorf("%w: already a member of this server", pkg.ErrBadRequest)
	}

	// Üyelik ekle
	if err := s.serverRepo.AddMember(ctx, serverID, userID); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	// Default rolü ata
	defaultRole, err := s.roleRepo.GetDefaultByServer(ctx, serverID)
	if err != nil {
		log.Printf("[server] failed to get default role for server %s: %v", serverID, err)
	} else {
		if err := s.roleRepo.AssignToUser(ctx, serverID, userID, defaultRole.ID); err != nil {
			log.Printf("[server] failed to assign default role: %v", err)
		}
	}

	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get server: %w", err)
	}

	// Üyelik değişti — eski "üye değil" sonuçları cache'te kalmasın
	s.permCache.InvalidateUser(userID)

	// WS abonelik güncelle — artık bu sunucunun broadcast'lerini alacak
	s.hub.SubscribeUserToServer(userID, serverID)

	// Kullanıcıya sunucu eklendi
	s.hub.BroadcastToUser(userID, ws.Event{
		Op:   ws.OpServerCreate,
		Data: server,
	})

	// Sunucu üyelerine yeni üye katıldı bildirimi — tam MemberWithRoles gönder.
	// Frontend bu veriyi doğrudan üye listesine ekler.
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		log.Printf("[server] failed to get user %s for member_join broadcast: %v", userID, err)
	} else {
		roles, _ := s.roleRepo.GetByUserAndServer(ctx, userID, serverID)
		member := models.ToMemberWithRoles(user, &models.ServerMember{ServerID: serverID, UserID: userID}, roles, false)
		s.hub.BroadcastToServer(serverID, ws.Event{
			Op:   ws.OpMemberJoin,
			Data: member,
		})
	}

	log.Printf("[server] user %s joined server %s via invite", userID, serverID)
	return server, nil
}

func (s *serverService) Leave(ctx context.Context, serverID, userID string) error {
	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return err
	}

	// Owner ayrılamaz — sunucuyu silmeli
	if server.OwnerID == userID {
		return fmt.Errorf("%w: the server owner cannot leave; delete the server instead", pkg.ErrForbidden)
	}

	if err := s.serverRepo.RemoveMember(ctx, serverID, userID); err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return fmt.Errorf("%w: not a member of this server", pkg.ErrBadRequest)
		}
		return fmt.Errorf("failed to remove member: %w", err)
	}

	// Rol atamaları kalmasın — tekrar katılırsa temiz başlar
	if err := s.roleRepo.RemoveAllFromUser(ctx, serverID, userID); err != nil {
		log.Printf("[server] failed to clear roles for user %s on server %s: %v", userID, serverID, err)
	}

	// Ayrılan kullanıcının çözülmüş yetkileri anında düşsün —
	// TTL dolana kadar eski manageMessages gibi yetkilerle işlem yapamasın
	s.permCache.InvalidateUser(userID)

	// WS broadcast — sunucu üyelerine üye ayrıldı bildirimi (ÖNCE broadcast, sonra abonelik kaldır)
	s.hub.BroadcastToServer(serverID, ws.Event{
		Op: ws.OpMemberLeave,
		Data: map[string]string{
			"server_id": serverID,
			"user_id":   userID,
		},
	})

	// Kullanıcıya sunucu listesinden kaldırıldı bildirimi
	s.hub.BroadcastToUser(userID, ws.Event{
		Op:   ws.OpServerDelete,
		Data: map[string]string{"id": serverID},
	})

	s.hub.UnsubscribeUserFromServer(userID, serverID)

	log.Printf("[server] user %s left server %s", userID, serverID)
	return nil
}
