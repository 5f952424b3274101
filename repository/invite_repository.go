// Package repository — InviteRepository interface.
//
// Davet kodları için CRUD soyutlaması.
// Liste operasyonları server-scoped çalışır.
package repository

import (
	"context"

	"github.com/acarlson33/firepit/models"
)

// InviteRepository, davet kodu veritabanı işlemleri için interface.
type InviteRepository interface {
	// GetByCode, davet kodunu döner. Bulunamazsa pkg.ErrNotFound döner.
	GetByCode(ctx context.Context, code string) (*models.Invite, error)

	// ListByServer, sunucunun davet kodlarını oluşturan kullanıcı
	// bilgisiyle birlikte en yeniden eskiye döner.
	ListByServer(ctx context.Context, serverID string) ([]models.InviteWithCreator, error)

	// Create, yeni bir davet kodu oluşturur. Code çağıran tarafından üretilir.
	Create(ctx context.Context, invite *models.Invite) error

	// Delete, davet kodunu siler. Bulunamazsa pkg.ErrNotFound döner.
	Delete(ctx context.Context, code string) error

	// IncrementUses, kullanım sayısını 1 artırır. Her başarılı katılımda çağrılır.
	IncrementUses(ctx context.Context, code string) error
}
