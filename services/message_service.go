package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/acarlson33/firepit/models"
	"github.com/acarlson33/firepit/pkg"
	"github.com/acarlson33/firepit/pkg/ratelimit"
	"github.com/acarlson33/firepit/repository"
	"github.com/acarlson33/firepit/ws"
)

// MessageService, mesaj iş mantığı interface'i.
type MessageService interface {
	GetByChannelID(ctx context.Context, channelID, userID, beforeID string, limit int) (*models.MessagePage, error)
	Create(ctx context.Context, channelID, userID string, req *models.CreateMessageRequest) (*models.Message, error)
	Update(ctx context.Context, id, userID string, req *models.UpdateMessageRequest) (*models.Message, error)
	Delete(ctx context.Context, id, userID string) error
}

type messageService struct {
	messageRepo  repository.MessageRepository
	channelRepo  repository.ChannelRepository
	userRepo     repository.UserRepository
	hub          ws.EventPublisher
	permResolver ChannelPermResolver
	limiter      *ratelimit.MessageRateLimiter
}

// NewMessageService, constructor.
// permResolver: Kanal bazlı izin kontrolü (readMessages, sendMessages, manageMessages).
// limiter: Kullanıcı bazlı mesaj spam koruması.
func NewMessageService(
	messageRepo repository.MessageRepository,
	channelRepo repository.ChannelRepository,
	userRepo repository.UserRepository,
	hub ws.EventPublisher,
	permResolver ChannelPermResolver,
	limiter *ratelimit.MessageRateLimiter,
) MessageService {
	return &messageService{
		messageRepo:  messageRepo,
		channelRepo:  channelRepo,
		userRepo:     userRepo,
		hub:          hub,
		permResolver: permResolver,
		limiter:      limiter,
	}
}

// GetByChannelID, belirli bir kanalın mesajlarını cursor-based pagination ile döner.
//
// Kanal bazlı readMessages kontrolü yapılır.
// Override ile deny edilmişse kullanıcı bu kanalın mesajlarını göremez.
func (s *messageService) GetByChannelID(ctx context.Context, channelID, userID, beforeID string, limit int) (*models.MessagePage, error) {
	perms, err := s.permResolver.ResolveChannelPermissions(ctx, userID, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve channel permissions: %w", err)
	}
	if !perms.Has(models.PermReadMessages) {
		return nil, fmt.Errorf("%w: missing read messages permission for this channel", pkg.ErrForbidden)
	}

	// Limit kontrolü
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	// limit + 1 iste — fazladan 1 satır gelirse "daha var" anlamına gelir
	messages, err := s.messageRepo.GetByChannelID(ctx, channelID, beforeID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit] // Fazla satırı çıkar
	}

	// Mesajları ters çevir — DB'den DESC gelir, frontend ASC bekler (en eski üstte)
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	// Go'da nil slice JSON'a "null" olarak serialize edilir, frontend "null.map()" ile crash eder.
	// Boş kanalda (hiç mesaj yok) messages nil olabilir — boş slice'a çevir.
	if messages == nil {
		messages = []models.Message{}
	}

	return &models.MessagePage{
		Messages: messages,
		HasMore:  hasMore,
	}, nil
}

// Create, yeni bir mesaj oluşturur ve kanalı okuyabilen online kullanıcılara bildirir.
//
// Kanal bazlı sendMessages kontrolü yapılır.
// @everyone mention'ı mentionEveryone yetkisi gerektirir — yetki yoksa
// mesaj reddedilmez, mention düz metin kalır ve flag false yazılır.
func (s *messageService) Create(ctx context.Context, channelID, userID string, req *models.CreateMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	// Kanal var mı kontrol et
	if _, err := s.channelRepo.GetByID(ctx, channelID); err != nil {
		return nil, err
	}

	perms, err := s.permResolver.ResolveChannelPermissions(ctx, userID, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve channel permissions: %w", err)
	}
	if !perms.Has(models.PermSendMessages) {
		return nil, fmt.Errorf("%w: missing send messages permission for this channel", pkg.ErrForbidden)
	}

	// Spam koruması — yetki kontrollerinden sonra, DB yazımından önce
	if !s.limiter.Allow(userID) {
		seconds := s.limiter.CooldownSeconds(userID)
		return nil, fmt.Errorf("%w: %s", pkg.ErrRateLimited, ratelimit.FormatRetryMessage(seconds))
	}

	message := &models.Message{
		ID:               uuid.NewString(),
		ChannelID:        channelID,
		UserID:           userID,
		Content:          req.Content,
		MentionsEveryone: models.ContainsEveryoneMention(req.Content) && perms.Has(models.PermMentionEveryone),
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	// Yazar bilgisini yükle (API response ve WS broadcast için)
	author, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get message author: %w", err)
	}
	author.PasswordHash = "" // Güvenlik
	message.Author = author

	s.broadcastToReaders(channelID, ws.Event{
		Op:   ws.OpMessageCreate,
		Data: message,
	})

	return message, nil
}

// Update, bir mesajı düzenler.
// Sadece mesaj sahibi düzenleyebilir. edited_at repository'de set edilir.
func (s *messageService) Update(ctx context.Context, id, userID string, req *models.UpdateMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	message, err := s.messageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Sahiplik kontrolü — sadece kendi mesajını düzenleyebilirsin
	if message.UserID != userID {
		return nil, fmt.Errorf("%w: you can only edit your own messages", pkg.ErrForbidden)
	}

	// @everyone flag'ini yeniden değerlendir — düzenlemede mention
	// eklenmiş veya çıkarılmış olabilir
	perms, err := s.permResolver.ResolveChannelPermissions(ctx, userID, message.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve channel permissions: %w", err)
	}

	message.Content = req.Content
	message.MentionsEveryone = models.ContainsEveryoneMention(req.Content) && perms.Has(models.PermMentionEveryone)

	if err := s.messageRepo.Update(ctx, message); err != nil {
		return nil, err
	}

	// Güncel edited_at dahil son hali yükle
	updated, err := s.messageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload message: %w", err)
	}

	s.broadcastToReaders(updated.ChannelID, ws.Event{
		Op:   ws.OpMessageUpdate,
		Data: updated,
	})

	return updated, nil
}

// Delete, bir mesajı siler.
// Mesaj sahibi VEYA kanalda manageMessages yetkisi olan kullanıcılar silebilir.
func (s *messageService) Delete(ctx context.Context, id, userID string) error {
	message, err := s.messageRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if message.UserID != userID {
		perms, err := s.permResolver.ResolveChannelPermissions(ctx, userID, message.ChannelID)
		if err != nil {
			return fmt.Errorf("failed to resolve channel permissions: %w", err)
		}
		if !perms.Has(models.PermManageMessages) {
			return fmt.Errorf("%w: you can only delete your own messages", pkg.ErrForbidden)
		}
	}

	if err := s.messageRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.broadcastToReaders(message.ChannelID, ws.Event{
		Op: ws.OpMessageDelete,
		Data: map[string]string{
			"id":         id,
			"channel_id": message.ChannelID,
		},
	})

	return nil
}

// broadcastToReaders, mesaj event'ini sadece kanalı okuyabilen online
// kullanıcılara gönderir.
//
// Güvenlik: Hub'daki online kullanıcı listesi alınır, her biri için kanal
// bazlı izin kontrol edilir. readMessages yetkisi olmayana (override ile
// deny edilmiş veya sunucu üyesi olmayan) mesaj içeriği bile ulaşmaz.
// Resolver sonuçları cache'lendiği için per-user kontrol ucuzdur.
func (s *messageService) broadcastToReaders(channelID string, event ws.Event) {
	ctx := context.Background()

	for _, userID := range s.hub.GetOnlineUserIDs() {
		perms, err := s.permResolver.ResolveChannelPermissions(ctx, userID, channelID)
		if err != nil {
			// Hata durumunda güvenli tarafta kal — gönderme
			log.Printf("[message] resolve failed for user %s channel %s: %v", userID, channelID, err)
			continue
		}
		if perms.Has(models.PermReadMessages) {
			s.hub.BroadcastToUser(userID, event)
		}
	}
}
