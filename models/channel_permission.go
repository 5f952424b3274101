package models

import (
	"fmt"
	"time"
)

// ChannelPermissionOverride, bir kanala özel allow/deny kuralı.
//
// Hedef RoleID XOR UserID'dir: ikisinden tam biri dolu olur (boş olan
// empty string). Allow ve Deny yetki ADI listeleridir (bit değil) —
// resolver bunları sırayla doğrudan atama olarak uygular, detay için
// GetEffectivePermissions'a bak.
type ChannelPermissionOverride struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	RoleID    string    `json:"role_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Allow     []string  `json:"allow"`
	Deny      []string  `json:"deny"`
	CreatedAt time.Time `json:"created_at"`
}

// TargetsRole, override'ın rol hedefli olup olmadığını söyler.
func (o ChannelPermissionOverride) TargetsRole() bool { return o.RoleID != "" }

// TargetsUser, override'ın kullanıcı hedefli olup olmadığını söyler.
func (o ChannelPermissionOverride) TargetsUser() bool { return o.UserID != "" }

// SetOverrideRequest, kanal override oluşturma/güncelleme isteği.
// RoleID ve UserID'den tam biri dolu olmalı.
type SetOverrideRequest struct {
	RoleID string   `json:"role_id"`
	UserID string   `json:"user_id"`
	Allow  []string `json:"allow"`
	Deny   []string `json:"deny"`
}

// Validate, isteği kontrol eder ve allow/deny listelerini temizler.
//
// Kurallar:
//  1. RoleID xor UserID: tam bir hedef.
//  2. Tanınmayan yetki adları listeden sessizce atılır (IsValidPermission) —
//     resolver'a kirli isim girmez.
//  3. Aynı yetkinin hem allow hem deny'da olması HATA DEĞİL: resolver'da
//     deny sonra uygulandığı için kazanır. Burada reddetmek semantiği
//     değiştirirdi.
func (r *SetOverrideRequest) Validate() error {
	hasRole := r.RoleID != ""
	hasUser := r.UserID != ""
	if hasRole == hasUser {
		return fmt.Errorf("exactly one of role_id or user_id must be set")
	}

	r.Allow = sanitizePermissionNames(r.Allow)
	r.Deny = sanitizePermissionNames(r.Deny)

	if len(r.Allow) == 0 && len(r.Deny) == 0 {
		return fmt.Errorf("override must allow or deny at least one permission")
	}

	return nil
}

// sanitizePermissionNames, kanonik olmayan isimleri ve tekrarları atar.
func sanitizePermissionNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if !IsValidPermission(n) || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
