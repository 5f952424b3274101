// Package models — Server domain modeli.
//
// Server, Discord'daki "guild" benzeri bir sunucuyu temsil eder.
// Kullanıcılar birden fazla sunucuya üye olabilir; roller, kanallar,
// override'lar, ban'lar ve davetler sunucuya bağlıdır.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Server, sunucu verisini temsil eder.
// OwnerID sunucu sahibidir: permission resolver'da owner kısa devresini
// besler ve owner koruma kurallarının (atılamaz, banlanamaz, sunucuyu
// silebilen tek kişi) referans noktasıdır.
type Server struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	IconURL   *string   `json:"icon_url"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateServerRequest, yeni sunucu oluşturma isteği.
type CreateServerRequest struct {
	Name string `json:"name"`
}

// Validate, CreateServerRequest kontrolü.
func (r *CreateServerRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	nameLen := utf8.RuneCountInString(r.Name)
	if nameLen < 1 || nameLen > 100 {
		return fmt.Errorf("server name must be between 1 and 100 characters")
	}
	return nil
}

// UpdateServerRequest, sunucu güncelleme isteği.
// Partial update pattern: nil field'lar değiştirilmez.
type UpdateServerRequest struct {
	Name *string `json:"name"`
}

// Validate, UpdateServerRequest kontrolü.
func (r *UpdateServerRequest) Validate() error {
	if r.Name != nil {
		*r.Name = strings.TrimSpace(*r.Name)
		nameLen := utf8.RuneCountInString(*r.Name)
		if nameLen < 1 || nameLen > 100 {
			return fmt.Errorf("server name must be between 1 and 100 characters")
		}
	}
	return nil
}
