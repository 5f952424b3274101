// Package repository — ServerRepository interface.
//
// Sunucu ve üyelik verisi için CRUD soyutlaması.
// Service katmanı bu interface'e bağımlıdır, SQLite implementasyonuna değil.
package repository

import (
	"context"

	"github.com/acarlson33/firepit/models"
)

// ServerRepository, sunucu ve üyelik veritabanı işlemleri için interface.
type ServerRepository interface {
	// ─── Server CRUD ───

	// Create, yeni bir sunucu oluşturur. server.ID çağıran tarafından
	// doldurulmuş olmalıdır; created_at DB'den geri okunur.
	Create(ctx context.Context, server *models.Server) error

	// GetByID, sunucuyu ID'ye göre bulur. Bulunamazsa pkg.ErrNotFound döner.
	GetByID(ctx context.Context, serverID string) (*models.Server, error)

	// Update, sunucu adını ve ikonunu günceller.
	Update(ctx context.Context, server *models.Server) error

	// Delete, sunucuyu siler. Kanallar, roller, üyelikler ve davetler
	// FK cascade ile birlikte silinir.
	Delete(ctx context.Context, serverID string) error

	// ─── Üyelik ───

	// GetUserServers, kullanıcının üye olduğu sunucuları katılım sırasıyla döner.
	GetUserServers(ctx context.Context, userID string) ([]models.Server, error)

	// AddMember, kullanıcıyı sunucuya ekler. Zaten üyeyse no-op.
	AddMember(ctx context.Context, serverID, userID string) error

	// RemoveMember, üyeliği siler. Üye değilse pkg.ErrNotFound döner.
	RemoveMember(ctx context.Context, serverID, userID string) error

	// IsMember, kullanıcının sunucu üyesi olup olmadığını kontrol eder.
	IsMember(ctx context.Context, serverID, userID string) (bool, error)

	// GetMembers, sunucunun tüm üyeliklerini katılım sırasıyla döner.
	GetMembers(ctx context.Context, serverID string) ([]models.ServerMember, error)

	// GetMemberCount, sunucudaki üye sayısını döner.
	GetMemberCount(ctx context.Context, serverID string) (int, error)

	// GetMemberServerIDs, kullanıcının üye olduğu sunucu ID'lerini döner.
	// WebSocket event fan-out'unda hangi sunuculara abone olunacağını belirler.
	GetMemberServerIDs(ctx context.Context, userID string) ([]string, error)
}
