// Package models — Ban (yasaklama) domain modeli.
//
// Ban akışı:
// 1. Yetkili bir üye kullanıcıyı banlar → bans tablosuna sunucu bazlı kayıt düşer
// 2. Banlanan kullanıcının üyeliği silinir ve WS bağlantısı kapatılır
// 3. Banlı kullanıcı davetle tekrar katılmaya çalışırsa → reddedilir
// 4. Unban kaydı siler → kullanıcı tekrar katılabilir
package models

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Ban, bir sunucudan yasaklanmış kullanıcıyı temsil eder.
type Ban struct {
	ServerID  string    `json:"server_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Reason    string    `json:"reason"`
	BannedBy  string    `json:"banned_by"`
	CreatedAt time.Time `json:"created_at"`
}

// BanRequest, ban oluşturma isteği.
type BanRequest struct {
	Reason string `json:"reason"`
}

// Validate, BanRequest kontrolü.
func (r *BanRequest) Validate() error {
	if utf8.RuneCountInString(r.Reason) > 512 {
		return fmt.Errorf("ban reason must be at most 512 characters")
	}
	return nil
}
