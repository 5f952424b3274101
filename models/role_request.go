// Package models — Rol CRUD request struct'ları.
//
// CreateRoleRequest ve UpdateRoleRequest, rol oluşturma/güncelleme
// HTTP endpoint'lerinin body parse'ında kullanılır.
// Handler parse eder → Service validate + business logic uygular → Repository DB'ye yazar.
package models

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// hexColorRegex, geçerli bir hex renk kodu kontrolü.
// #RRGGBB formatı: 6 hex karakter (# opsiyonel).
var hexColorRegex = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// CreateRoleRequest, yeni rol oluşturma isteği.
// Permissions, sekiz flag'in açık bool alanları olarak gelir;
// gönderilmeyen alanlar zero value gereği false kalır.
type CreateRoleRequest struct {
	Name        string        `json:"name"`
	Color       string        `json:"color"`
	Permissions PermissionSet `json:"permissions"`
	Mentionable bool          `json:"mentionable"`
}

// Validate, CreateRoleRequest kontrolü.
func (r *CreateRoleRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	nameLen := utf8.RuneCountInString(r.Name)
	if nameLen < 1 || nameLen > 32 {
		return fmt.Errorf("role name must be between 1 and 32 characters")
	}

	r.Color = strings.TrimSpace(r.Color)
	if !hexColorRegex.MatchString(r.Color) {
		return fmt.Errorf("color must be a valid hex color code (e.g. #FF5733)")
	}
	// Normalize: # prefix ekle yoksa
	if !strings.HasPrefix(r.Color, "#") {
		r.Color = "#" + r.Color
	}

	return nil
}

// UpdateRoleRequest, rol güncelleme isteği.
// Tüm field'lar pointer — nil olanlar güncellenmez (partial update pattern).
// Permissions pointer'ı dolu geldiğinde sekiz flag'in TAMAMI birden
// yazılır; tek flag değiştirmek isteyen client mevcut set'i gönderir.
type UpdateRoleRequest struct {
	Name        *string        `json:"name"`
	Color       *string        `json:"color"`
	Permissions *PermissionSet `json:"permissions"`
	Mentionable *bool          `json:"mentionable"`
}

// Validate, UpdateRoleRequest kontrolü.
func (r *UpdateRoleRequest) Validate() error {
	if r.Name != nil {
		*r.Name = strings.TrimSpace(*r.Name)
		nameLen := utf8.RuneCountInString(*r.Name)
		if nameLen < 1 || nameLen > 32 {
			return fmt.Errorf("role name must be between 1 and 32 characters")
		}
	}

	if r.Color != nil {
		*r.Color = strings.TrimSpace(*r.Color)
		if !hexColorRegex.MatchString(*r.Color) {
			return fmt.Errorf("color must be a valid hex color code (e.g. #FF5733)")
		}
		if !strings.HasPrefix(*r.Color, "#") {
			*r.Color = "#" + *r.Color
		}
	}

	return nil
}

// ReorderRolesRequest, rollerin position'larını toplu günceller.
type ReorderRolesRequest struct {
	Positions []RolePosition `json:"positions"`
}

// RolePosition, tek bir rolün yeni sırası.
type RolePosition struct {
	RoleID   string `json:"role_id"`
	Position int    `json:"position"`
}

// Validate, ReorderRolesRequest kontrolü.
func (r *ReorderRolesRequest) Validate() error {
	if len(r.Positions) == 0 {
		return fmt.Errorf("positions cannot be empty")
	}
	seen := make(map[string]bool, len(r.Positions))
	for _, p := range r.Positions {
		if p.RoleID == "" {
			return fmt.Errorf("role_id cannot be empty")
		}
		if seen[p.RoleID] {
			return fmt.Errorf("duplicate role_id in positions")
		}
		seen[p.RoleID] = true
		if p.Position < 0 {
			return fmt.Errorf("position cannot be negative")
		}
	}
	return nil
}
