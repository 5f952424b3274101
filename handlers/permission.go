// Package handlers — PermissionHandler: yetki metadata ve effective
// permission sorgulama endpoint'leri.
//
// Frontend'in rol düzenleme UI'ı yetki listesini ve açıklamalarını
// hardcode etmek yerine buradan çeker — backend'e yeni yetki eklendiğinde
// UI otomatik güncel kalır.
package handlers

import (
	"net/http"

	"github.com/acarlson33/firepit/models"
	"github.com/acarlson33/firepit/pkg"
	"github.com/acarlson33/firepit/services"
)

// PermissionHandler, yetki endpoint'lerini yöneten struct.
type PermissionHandler struct {
	resolver services.ChannelPermResolver
}

// NewPermissionHandler, constructor.
func NewPermissionHandler(resolver services.ChannelPermResolver) *PermissionHandler {
	return &PermissionHandler{resolver: resolver}
}

// permissionInfo, tek bir yetkinin metadata'sı.
type permissionInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// List godoc
// GET /api/permissions
// Sekiz yetkinin kanonik isim + açıklama listesini döner.
func (h *PermissionHandler) List(w http.ResponseWriter, r *http.Request) {
	perms := models.AllPermissions()

	out := make([]permissionInfo, 0, len(perms))
	for _, p := range perms {
		out = append(out, permissionInfo{
			Name:        string(p),
			Description: models.PermissionDescription(p),
		})
	}

	pkg.JSON(w, http.StatusOK, out)
}

// MyChannelPermissions godoc
// GET /api/servers/{serverId}/channels/{id}/permissions/me
//
// İsteği yapan kullanıcının bu kanaldaki effective permission'larını döner.
// Frontend mesaj kutusunu/butonları buna göre gizler — asıl karar yine
// backend'dedir, bu sadece UI ipucu.
func (h *PermissionHandler) MyChannelPermissions(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	channelID := r.PathValue("id")

	perms, err := h.resolver.ResolveChannelPermissions(r.Context(), user.ID, channelID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, perms)
}
