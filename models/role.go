package models

import (
	"sort"
	"time"
)

// Role, sunucuya bağlı bir kullanıcı rolünü temsil eder.
//
// PermissionSet gömülüdür: rolün verdiği yetkiler sekiz açık bool alanı
// olarak hem JSON'a hem DB satırına yayılır. Position hiyerarşi sırasıdır
// (büyük = üst rol); unique olması gerekmez, eşitlikte stable sort'un
// verdiği sıra geçerlidir.
type Role struct {
	ID       string `json:"id"`
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Position int    `json:"position"`
	PermissionSet
	Mentionable bool      `json:"mentionable"`
	IsDefault   bool      `json:"is_default"`
	MemberCount int       `json:"member_count,omitempty"` // sadece listeleme view'ında dolu
	CreatedAt   time.Time `json:"created_at"`
}

// RoleHierarchy, rolleri position'a göre büyükten küçüğe sıralanmış
// YENİ bir slice olarak döner. Input'u mutate etmez (copy-then-sort);
// eşit position'larda stable sort deterministik sıra sağlar.
func RoleHierarchy(roles []Role) []Role {
	sorted := make([]Role, len(roles))
	copy(sorted, roles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position > sorted[j].Position
	})
	return sorted
}

// HighestRole, kullanıcının en üst rolünü döner; rol yoksa nil.
func HighestRole(roles []Role) *Role {
	h := RoleHierarchy(roles)
	if len(h) == 0 {
		return nil
	}
	return &h[0]
}

// CanManageRole, kullanıcının verilen rolü düzenleyip/silebileceğini
// belirler. Rol yönetim API'si kullanır, kanal resolver'ı değil.
//
// Kurallar, sırayla:
//  1. Owner → her zaman true.
//  2. Kullanıcının herhangi bir rolünde administrator varsa VE hedef rol
//     administrator değilse → true. Admin hedefe karşı bu kısa yol
//     çalışmaz, alttaki manageRoles + position kurallarına düşülür.
//  3. En az bir rolde manageRoles yoksa → false.
//  4. Kullanıcının en üst rolünün position'ı hedefinkinden KESİN büyük
//     olmalı (eşitlik yetmez — sadece kendi rütbesinin altını yönetir).
func CanManageRole(userRoles []Role, target Role, isOwner bool) bool {
	if isOwner {
		return true
	}

	if HasAdministrator(userRoles) && !target.Administrator {
		return true
	}

	hasManageRoles := false
	for _, r := range userRoles {
		if r.ManageRoles {
			hasManageRoles = true
			break
		}
	}
	if !hasManageRoles {
		return false
	}

	highest := HighestRole(userRoles)
	if highest == nil {
		return false
	}
	return highest.Position > target.Position
}

// HasAdministrator, rol listesinde administrator flag'i açık bir rol
// olup olmadığına bakar.
func HasAdministrator(roles []Role) bool {
	for _, r := range roles {
		if r.Administrator {
			return true
		}
	}
	return false
}
