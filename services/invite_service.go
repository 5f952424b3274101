// Package services — InviteService: davet kodu iş mantığı.
//
// Davet kodu oluşturma, listeleme, silme, ön izleme ve doğrulama.
// Sunucuya katılım sırasında ValidateAndUse, ServerService'den çağrılır —
// bu yüzden public interface'te yer alır.
//
// Kod üretimi: crypto/rand ile 8 byte → hex string → 16 karakter benzersiz kod.
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/acarlson33/firepit/models"
	"github.com/acarlson33/firepit/pkg"
	"github.com/acarlson33/firepit/repository"
)

// InviteService, davet kodu iş mantığı interface'i.
type InviteService interface {
	// Create, sunucu için yeni bir davet kodu oluşturur.
	// createdBy: daveti oluşturan kullanıcı ID'si.
	Create(ctx context.Context, serverID, createdBy string, req *models.CreateInviteRequest) (*models.Invite, error)

	// List, sunucunun davet kodlarını oluşturan kullanıcı bilgisiyle döner.
	List(ctx context.Context, serverID string) ([]models.InviteWithCreator, error)

	// Delete, bir davet kodunu siler. Kod başka sunucuya aitse not found.
	Delete(ctx context.Context, serverID, code string) error

	// Preview, davet kodunun ön izlemesini döner (sunucu adı + üye sayısı).
	// Auth gerektirmez — katılım ekranında gösterilir.
	Preview(ctx context.Context, code string) (*models.InvitePreview, error)

	// ValidateAndUse, davet kodunu doğrular ve kullanım sayısını artırır.
	// Sunucuya katılım sırasında ServerService tarafından çağrılır.
	// Geçersiz / süresi dolmuş / dolmuş kodlar için hata döner.
	ValidateAndUse(ctx context.Context, code string) (*models.Invite, error)
}

type inviteService struct {
	inviteRepo repository.InviteRepository
	serverRepo repository.ServerRepository
}

// NewInviteService, constructor.
//
// serverRepo: Preview'da sunucu adı ve üye sayısı için gereklidir.
func NewInviteService(
	inviteRepo repository.InviteRepository,
	serverRepo repository.ServerRepository,
) InviteService {
	return &inviteService{
		inviteRepo: inviteRepo,
		serverRepo: serverRepo,
	}
}

// Create, yeni bir davet kodu oluşturur.
//
// İş kuralları:
// 1. Request validasyonu
// 2. Benzersiz kod üret (crypto/rand — kriptografik güvenli rastgele sayı)
// 3. Opsiyonel son kullanma tarihi hesapla
// 4. DB'ye kaydet
func (s *inviteService) Create(ctx context.Context, serverID, createdBy string, req *models.CreateInviteRequest) (*models.Invite, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	// Kod üret: 8 byte rastgele → 16 hex karakter
	// crypto/rand: Kriptografik güvenli rastgele sayı üretir (math/rand'den farklı).
	// Bu, davet kodlarının tahmin edilemez olmasını sağlar.
	codeBytes := make([]byte, 8)
	if _, err := rand.Read(codeBytes); err != nil {
		return nil, fmt.Errorf("failed to generate invite code: %w", err)
	}
	code := hex.EncodeToString(codeBytes)

	invite := &models.Invite{
		Code:      code,
		ServerID:  serverID,
		CreatedBy: createdBy,
		MaxUses:   req.MaxUses,
	}

	// ExpiresIn > 0 ise son kullanma tarihi hesapla
	if req.ExpiresIn > 0 {
		expiresAt := time.Now().Add(time.Duration(req.ExpiresIn) * time.Minute)
		invite.ExpiresAt = &expiresAt
	}

	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	return invite, nil
}

// List, sunucunun davet kodlarını döner.
func (s *inviteService) List(ctx context.Context, serverID string) ([]models.InviteWithCreator, error) {
	invites, err := s.inviteRepo.ListByServer(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}

	// nil slice yerine boş slice döndür (JSON'da [] olması için, null değil)
	if invites == nil {
		invites = []models.InviteWithCreator{}
	}

	return invites, nil
}

// Delete, bir davet kodunu siler.
func (s *inviteService) Delete(ctx context.Context, serverID, code string) error {
	invite, err := s.inviteRepo.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	// Başka sunucunun kodu bu endpoint'ten silinemez
	if invite.ServerID != serverID {
		return pkg.ErrNotFound
	}

	if err := s.inviteRepo.Delete(ctx, code); err != nil {
		return fmt.Errorf("failed to delete invite: %w", err)
	}
	return nil
}

// Preview, davet kodunun ön izlemesini döner.
func (s *inviteService) Preview(ctx context.Context, code string) (*models.InvitePreview, error) {
	invite, err := s.inviteRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if !invite.Usable(time.Now()) {
		return nil, fmt.Errorf("%w: invite code is no longer valid", pkg.ErrBadRequest)
	}

	server, err := s.serverRepo.GetByID(ctx, invite.ServerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get server: %w", err)
	}

	count, err := s.serverRepo.GetMemberCount(ctx, invite.ServerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member count: %w", err)
	}

	return &models.InvitePreview{
		ServerName:  server.Name,
		MemberCount: count,
	}, nil
}

// ValidateAndUse, davet kodunu doğrular ve kullanım sayısını artırır.
//
// Doğrulama kuralları:
// 1. Kod mevcut mu? (ErrNotFound → geçersiz kod)
// 2. Süresi dolmuş mu? (ExpiresAt < now → expired)
// 3. Maksimum kullanıma ulaşılmış mı? (MaxUses > 0 && Uses >= MaxUses → depleted)
// 4. Tüm kontroller geçerse → uses++ ve invite döner
func (s *inviteService) ValidateAndUse(ctx context.Context, code string) (*models.Invite, error) {
	invite, err := s.inviteRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid invite code", pkg.ErrBadRequest)
	}

	// Süre kontrolü
	if invite.ExpiresAt != nil && time.Now().After(*invite.ExpiresAt) {
		return nil, fmt.Errorf("%w: invite code has expired", pkg.ErrBadRequest)
	}

	// Kullanım limiti kontrolü
	if invite.MaxUses > 0 && invite.Uses >= invite.MaxUses {
		return nil, fmt.Errorf("%w: invite code has reached max uses", pkg.ErrBadRequest)
	}

	// Kullanım sayısını artır
	if err := s.inviteRepo.IncrementUses(ctx, code); err != nil {
		return nil, fmt.Errorf("failed to increment invite uses: %w", err)
	}
	invite.Uses++

	return invite, nil
}
