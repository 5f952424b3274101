// Package handlers — ChannelPermissionHandler: kanal bazlı permission override HTTP endpoint'leri.
//
// Endpoint'ler:
// - GET    /api/servers/{serverId}/channels/{id}/permissions → ListOverrides
// - PUT    /api/servers/{serverId}/channels/{id}/permissions → SetOverride (UPSERT)
// - DELETE /api/servers/{serverId}/channels/{id}/permissions → DeleteOverride
//
// Tüm endpoint'ler manageRoles yetkisi gerektirir (middleware seviyesinde).
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/acarlson33/firepit/models"
	"github.com/acarlson33/firepit/pkg"
	"github.com/acarlson33/firepit/services"
)

// ChannelPermissionHandler, kanal permission override endpoint'lerini yöneten struct.
type ChannelPermissionHandler struct {
	service services.ChannelPermissionService
}

// NewChannelPermissionHandler, constructor.
func NewChannelPermissionHandler(service services.ChannelPermissionService) *ChannelPermissionHandler {
	return &ChannelPermissionHandler{service: service}
}

// ListOverrides godoc
// GET /api/servers/{serverId}/channels/{id}/permissions
//
// Bir kanaldaki tüm permission override'ları döner.
// Admin UI'da kullanılır — "bu kanalda hangi hedefler için override var?"
//
// Response: []ChannelPermissionOverride (boş olabilir)
func (h *ChannelPermissionHandler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	channelID := r.PathValue("id")

	overrides, err := h.service.GetOverrides(r.Context(), channelID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, overrides)
}

// SetOverride godoc
// PUT /api/servers/{serverId}/channels/{id}/permissions
// Body: { "role_id": "...", "allow": ["sendMessages"], "deny": ["mentionEveryone"] }
//
// Bir kanal-hedef çifti için permission override oluşturur veya günceller (UPSERT).
// Hedef role_id VEYA user_id — tam biri dolu olmalı.
//
// Kurallar:
// - allow/deny yetki ADI listeleridir; tanınmayan isimler sessizce atılır
// - Aynı yetki hem allow hem deny'da olabilir — deny kazanır
//
// Neden PUT?
// Bu endpoint idempotent: aynı request'i tekrar göndermek aynı sonucu verir.
// REST semantiğinde PUT, "bu kaynağı bu state'e getir" anlamına gelir.
func (h *ChannelPermissionHandler) SetOverride(w http.ResponseWriter, r *http.Request) {
	channelID := r.PathValue("id")

	var req models.SetOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	override, err := h.service.SetOverride(r.Context(), channelID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, override)
}

// DeleteOverride godoc
// DELETE /api/servers/{serverId}/channels/{id}/permissions?role_id=X | ?user_id=Y
//
// Bir kanal-hedef çifti için permission override'ı siler.
// Silindikten sonra hedef, kanaldaki yetkilerini rol bazlı
// permission'larından alır (inherit).
func (h *ChannelPermissionHandler) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	channelID := r.PathValue("id")
	roleID := r.URL.Query().Get("role_id")
	userID := r.URL.Query().Get("user_id")

	if (roleID == "") == (userID == "") {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "exactly one of role_id or user_id query parameter is required")
		return
	}

	if err := h.service.DeleteOverride(r.Context(), channelID, roleID, userID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "override deleted"})
}
