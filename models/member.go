// Package models — MemberWithRoles ve ilgili request struct'ları.
//
// MemberWithRoles nedir?
// Bir üyenin kullanıcı bilgilerini + rollerini + hesaplanmış sunucu
// yetkilerini tek bir struct'ta birleştiren "view model"dir.
// User struct'ından farklı olarak:
// 1. PasswordHash ve Email içermez (API response'a dahil edilmez)
// 2. Roller ve effective permissions eklenmiştir
// 3. API response'larda ve WS event'lerde bu struct kullanılır
package models

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// MemberWithRoles, bir üyenin bilgileri + rolleri + sunucu yetkileri.
//
// Bu struct User'ı embed etmiyor çünkü:
// - PasswordHash/Email'i kesinlikle response'a dahil etmemek istiyoruz
// - Computed field (EffectivePermissions) ekleyebiliyoruz
//
// EffectivePermissions burada SUNUCU seviyesidir: kanal override'ları
// uygulanmaz (kanal bazlı karar ResolveChannelPermissions'ın işi).
type MemberWithRoles struct {
	ID                   string        `json:"id"`
	Username             string        `json:"username"`
	DisplayName          *string       `json:"display_name"`
	Status               UserStatus    `json:"status"`
	JoinedAt             time.Time     `json:"joined_at"`
	IsOwner              bool          `json:"is_owner"`
	Roles                []Role        `json:"roles"`
	EffectivePermissions PermissionSet `json:"effective_permissions"`
}

// ToMemberWithRoles, User + üyelik + rol listesinden MemberWithRoles kurar.
//
// Factory fonksiyon pattern'i: struct oluşturma mantığı tek yerde.
// Sunucu seviyesi effective permissions hesabı resolver'a delege edilir
// (override'sız çağrı) — aynı öncelik kuralları her yerde tek noktadan.
func ToMemberWithRoles(user *User, member *ServerMember, roles []Role, isOwner bool) MemberWithRoles {
	return MemberWithRoles{
		ID:                   user.ID,
		Username:             user.Username,
		DisplayName:          user.DisplayName,
		Status:               user.Status,
		JoinedAt:             member.JoinedAt,
		IsOwner:              isOwner,
		Roles:                roles,
		EffectivePermissions: GetEffectivePermissions(roles, nil, isOwner),
	}
}

// UpdateProfileRequest, kullanıcının kendi profilini güncellemesi için.
//
// Tüm field'lar pointer — nil ise "değiştirme" anlamına gelir (partial update).
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
}

// Validate, UpdateProfileRequest kontrolü.
func (r *UpdateProfileRequest) Validate() error {
	if r.DisplayName != nil && utf8.RuneCountInString(*r.DisplayName) > 32 {
		return fmt.Errorf("display name must be at most 32 characters")
	}
	return nil
}

// RoleModifyRequest, bir üyenin rollerini değiştirmek için.
//
// RoleIDs hedef rol ID listesidir (tam set).
// Mevcut roller ile diff yapılır: eksik olanlar eklenir, fazla olanlar çıkarılır.
// Bu yaklaşım "declarative" — "ekle/çıkar" komutları yerine "sonuç bu olsun" diyoruz.
// Boş liste geçerlidir: tüm roller çıkarılır, üye default role'e düşer.
type RoleModifyRequest struct {
	RoleIDs []string `json:"role_ids"`
}

// Validate, RoleModifyRequest kontrolü.
func (r *RoleModifyRequest) Validate() error {
	for _, id := range r.RoleIDs {
		if id == "" {
			return fmt.Errorf("role_ids cannot contain empty values")
		}
	}
	return nil
}
