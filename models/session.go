package models

import "time"

// Session, refresh token oturumunu temsil eder.
//
// Access token kısa ömürlü (15dk), stateless doğrulanır.
// Refresh token uzun ömürlü (7 gün) ve DB'de satır olarak yaşar.
// Satır olarak tutmanın getirisi:
//   - Çalınan token revoke edilebilir (satırı sil)
//   - Logout sadece ilgili oturumu düşürür
//   - Kullanıcının açık oturumları listelenebilir
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	RefreshToken string    `json:"-"` // API'ye gönderilmez
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}
