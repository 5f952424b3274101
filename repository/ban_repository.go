package repository

import (
	"context"

	"github.com/acarlson33/firepit/models"
)

// BanRepository, sunucu bazlı yasaklama kayıtları için interface.
//
// Ban kayıtları (server_id, user_id) çiftiyle tekildir — bir kullanıcı
// aynı sunucudan yalnızca bir kez banlı olabilir, farklı sunuculardan
// bağımsız olarak banlanabilir.
type BanRepository interface {
	// Create, yeni bir ban kaydı oluşturur.
	Create(ctx context.Context, ban *models.Ban) error

	// GetAllByServer, sunucunun tüm ban kayıtlarını en yeniden eskiye döner.
	// Username alanı users tablosundan JOIN ile doldurulur.
	GetAllByServer(ctx context.Context, serverID string) ([]models.Ban, error)

	// Delete, ban kaydını kaldırır (unban). Kayıt yoksa pkg.ErrNotFound döner.
	Delete(ctx context.Context, serverID, userID string) error

	// Exists, kullanıcının bu sunucudan banlı olup olmadığını kontrol eder.
	// Davetle katılım öncesi çağrılır.
	Exists(ctx context.Context, serverID, userID string) (bool, error)
}
