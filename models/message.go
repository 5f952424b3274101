package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Message, bir chat mesajını temsil eder.
// DB'deki "messages" tablosunun Go karşılığı.
//
// Author alanı JOIN sorgusu ile doldurulur — veritabanında ayrı
// tablodadır ama API response'unda birlikte döner. Frontend tek
// istekle mesaj + yazar bilgisini alır.
//
// MentionsEveryone: mesaj @everyone içeriyorsa true. Gönderimde
// mentionEveryone yetkisi gerektirir; yetki yoksa mesaj reddedilmez,
// mention düz metin olarak kalır ve flag false yazılır.
type Message struct {
	ID               string     `json:"id"`
	ChannelID        string     `json:"channel_id"`
	UserID           string     `json:"user_id"`
	Content          string     `json:"content"`
	MentionsEveryone bool       `json:"mentions_everyone"`
	EditedAt         *time.Time `json:"edited_at"` // Düzenlendiyse zaman damgası
	CreatedAt        time.Time  `json:"created_at"`
	Author           *User      `json:"author,omitempty"` // JOIN ile gelen yazar bilgisi
}

// MessagePage, cursor-based pagination (sayfalama) sonucu.
//
// Cursor-based pagination nedir?
// Offset-based ("LIMIT 50 OFFSET 100") yerine "bu ID'den önceki 50 mesajı getir" kullanır.
// Avantajı: Yeni mesaj eklendiğinde sayfa kayması olmaz.
type MessagePage struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"` // Daha eski mesajlar var mı?
}

// ContainsEveryoneMention, içerikte @everyone geçip geçmediğine bakar.
func ContainsEveryoneMention(content string) bool {
	return strings.Contains(content, "@everyone")
}

// CreateMessageRequest, yeni mesaj gönderme isteği.
type CreateMessageRequest struct {
	Content string `json:"content"`
}

// Validate, CreateMessageRequest'in geçerli olup olmadığını kontrol eder.
// İçerik 1-2000 karakter arası olmalı.
func (r *CreateMessageRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	contentLen := utf8.RuneCountInString(r.Content)
	if contentLen < 1 {
		return fmt.Errorf("message content is required")
	}
	if contentLen > 2000 {
		return fmt.Errorf("message content must be at most 2000 characters")
	}
	return nil
}

// UpdateMessageRequest, mesaj düzenleme isteği.
type UpdateMessageRequest struct {
	Content string `json:"content"`
}

// Validate, UpdateMessageRequest'in geçerli olup olmadığını kontrol eder.
func (r *UpdateMessageRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	contentLen := utf8.RuneCountInString(r.Content)
	if contentLen < 1 {
		return fmt.Errorf("message content is required")
	}
	if contentLen > 2000 {
		return fmt.Errorf("message content must be at most 2000 characters")
	}
	return nil
}
