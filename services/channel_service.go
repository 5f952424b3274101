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

// ChannelService, kanal iş mantığı interface'i.
// Tüm operasyonlar sunucu scope'ludur — kanal, ait olduğu sunucunun
// üyelerine broadcast edilir, diğer sunucular etkilenmez.
type ChannelService interface {
	GetAll(ctx context.Context, serverID string) ([]models.Channel, error)
	Create(ctx context.Context, serverID string, req *models.CreateChannelRequest) (*models.Channel, error)
	Update(ctx context.Context, serverID, channelID string, req *models.UpdateChannelRequest) (*models.Channel, error)
	Delete(ctx context.Context, serverID, channelID string) error
	// Reorder, kanalların sırasını toplu olarak günceller.
	// Transaction ile atomik — ya hepsi güncellenir ya hiçbiri.
	// Başarılıysa güncel kanal listesini sunucu üyelerine broadcast eder.
	Reorder(ctx context.Context, serverID string, req *models.ReorderChannelsRequest) ([]models.Channel, error)
}

// channelService, ChannelService'in implementasyonu.
// Tüm dependency'ler interface olarak tutulur (Dependency Inversion).
type channelService struct {
	channelRepo repository.ChannelRepository
	permCache   PermCacheInvalidator
	hub         ws.EventPublisher
}

// NewChannelService, constructor — interface döner.
func NewChannelService(
	channelRepo repository.ChannelRepository,
	permCache PermCacheInvalidator,
	hub ws.EventPublisher,
) ChannelService {
	return &channelService{
		channelRepo: channelRepo,
		permCache:   permCache,
		hub:         hub,
	}
}

// GetAll, sunucunun kanallarını position sırasıyla döner.
func (s *channelService) GetAll(ctx context.Context, serverID string) ([]models.Channel, error) {
	channels, err := s.channelRepo.GetAllByServer(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get channels: %w", err)
	}

	// nil yerine boş dizi — frontend parsing kolaylığı
	if channels == nil {
		channels = []models.Channel{}
	}

	return channels, nil
}

// Create, yeni bir kanal oluşturur ve sunucu üyelerine bildirir.
func (s *channelService) Create(ctx context.Context, serverID string, req *models.CreateChannelRequest) (*models.Channel, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	// Position: sunucudaki en yüksek position + 1 (listenin sonuna eklenir)
	maxPos, err := s.channelRepo.GetMaxPosition(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get max position: %w", err)
	}

	channel := &models.Channel{
		ID:       uuid.NewString(),
		ServerID: serverID,
		Name:     req.Name,
		Position: maxPos + 1,
	}

	if req.Topic != "" {
		channel.Topic = &req.Topic
	}

	if err := s.channelRepo.Create(ctx, channel); err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	// WebSocket broadcast — sunucunun bağlı üyeleri yeni kanalı görür
	s.hub.BroadcastToServer(serverID, ws.Event{
		Op:   ws.OpChannelCreate,
		Data: channel,
	})

	return channel, nil
}

// Update, mevcut bir kanalı günceller.
func (s *channelService) Update(ctx context.Context, serverID, channelID string, req *models.UpdateChannelRequest) (*models.Channel, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	channel, err := s.getServerChannel(ctx, serverID, channelID)
	if err != nil {
		return nil, err
	}

	// Sadece gelen alanları güncelle (partial update pattern)
	if req.Name != nil {
		channel.Name = *req.Name
	}
	if req.Topic != nil {
		channel.Topic = req.Topic
	}

	if err := s.channelRepo.Update(ctx, channel); err != nil {
		return nil, err
	}

	s.hub.BroadcastToServer(serverID, ws.Event{
		Op:   ws.OpChannelUpdate,
		Data: channel,
	})

	return channel, nil
}

// Delete, bir kanalı siler.
// Mesajlar ve izin override'ları FK cascade ile temizlenir;
// resolver cache'indeki kanala ait girdiler invalidate edilir.
func (s *channelService) Delete(ctx context.Context, serverID, channelID string) error {
	if _, err := s.getServerChannel(ctx, serverID, channelID); err != nil {
		return err
	}

	if err := s.channelRepo.Delete(ctx, channelID); err != nil {
		return err
	}

	s.permCache.InvalidateChannel(channelID)

	s.hub.BroadcastToServer(serverID, ws.Event{
		Op:   ws.OpChannelDelete,
		Data: map[string]string{"id": channelID, "server_id": serverID},
	})

	return nil
}

// Reorder, kanalların sırasını toplu olarak günceller.
//
// Akış:
// 1. Validation — items boş olmamalı, ID'ler benzersiz ve position >= 0
// 2. Repository'ye ilet — transaction ile atomic güncelleme
// 3. Güncel kanal listesini DB'den yeniden yükle
// 4. WS broadcast — sunucunun client'ları güncel sırayı alır
func (s *channelService) Reorder(ctx context.Context, serverID string, req *models.ReorderChannelsRequest) ([]models.Channel, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if err := s.channelRepo.UpdatePositions(ctx, serverID, req.Items); err != nil {
		return nil, fmt.Errorf("failed to update channel positions: %w", err)
	}

	// Güncel listeyi DB'den yeniden yükle (position değerleri değişti)
	channels, err := s.GetAll(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload channels after reorder: %w", err)
	}

	s.hub.BroadcastToServer(serverID, ws.Event{
		Op:   ws.OpChannelReorder,
		Data: channels,
	})

	return channels, nil
}

// getServerChannel, kanalı yükler ve verilen sunucuya ait olduğunu doğrular.
// Başka sunucunun kanalı bu scope'tan görünmez — not found döner.
func (s *channelService) getServerChannel(ctx context.Context, serverID, channelID string) (*models.Channel, error) {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel.ServerID != serverID {
		return nil, pkg.ErrNotFound
	}
	return channel, nil
}
