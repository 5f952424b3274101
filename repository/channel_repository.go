// Package repository — ChannelRepository interface tanımı.
//
// Kanal verisi için CRUD soyutlaması.
// Service katmanı bu interface'e bağımlıdır, SQLite implementasyonuna değil.
package repository

import (
	"context"

	"github.com/acarlson33/firepit/models"
)

// ChannelRepository, kanal veritabanı işlemleri için interface.
type ChannelRepository interface {
	// Create, yeni bir kanal oluşturur. channel.ID çağıran tarafından
	// doldurulmuş olmalıdır; created_at DB'den geri okunur.
	Create(ctx context.Context, channel *models.Channel) error

	// GetByID, kanalı ID'ye göre bulur. Bulunamazsa pkg.ErrNotFound döner.
	GetByID(ctx context.Context, id string) (*models.Channel, error)

	// GetAllByServer, sunucunun tüm kanallarını position sırasıyla döner.
	GetAllByServer(ctx context.Context, serverID string) ([]models.Channel, error)

	// Update, kanal adını ve topic'ini günceller.
	Update(ctx context.Context, channel *models.Channel) error

	// Delete, kanalı siler. Mesajlar ve override'lar FK cascade ile silinir.
	Delete(ctx context.Context, id string) error

	// UpdatePositions, birden fazla kanalın position değerini atomik günceller.
	// serverID filtresi, başka sunucunun kanalının taşınmasını engeller.
	UpdatePositions(ctx context.Context, serverID string, items []models.PositionUpdate) error

	// GetMaxPosition, sunucudaki en yüksek kanal position'ını döner.
	// Hiç kanal yoksa -1 döner; yeni kanal position = max + 1 alır.
	GetMaxPosition(ctx context.Context, serverID string) (int, error)
}
