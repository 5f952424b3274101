package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/acarlson33/firepit/models"
	"github.com/acarlson33/firepit/pkg"
	"github.com/acarlson33/firepit/services"
)

// ChannelHandler, kanal endpoint'lerini yöneten struct.
type ChannelHandler struct {
	channelService services.ChannelService
}

// NewChannelHandler, constructor.
func NewChannelHandler(channelService services.ChannelService) *ChannelHandler {
	return &ChannelHandler{channelService: channelService}
}

// List godoc
// GET /api/servers/{serverId}/channels
// Sunucunun kanallarını position sırasıyla döner.
func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	serverID, ok := r.Context().Value(ServerIDContextKey).(string)
	if !ok || serverID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "server context required")
		return
	}

	channels, err := h.channelService.GetAll(r.Context(), serverID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, channels)
}

// Create godoc
// POST /api/servers/{serverId}/channels
// Yeni kanal oluşturur. manageChannels yetkisi gerektirir.
func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	serverID, ok := r.Context().Value(ServerIDContextKey).(string)
	if !ok || serverID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "server context required")
		return
	}

	var req models.CreateChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	channel, err := h.channelService.Create(r.Context(), serverID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, channel)
}

// Update godoc
// PATCH /api/servers/{serverId}/channels/{id}
// Kanalı günceller. manageChannels yetkisi gerektirir.
//
// r.PathValue("id") — Go 1.22+ ile gelen path parameter desteği.
// Route tanımında {id} olarak yazılan parametreyi çeker.
// Eski yöntem: gorilla/mux veya chi router gerekiyordu.
// Go 1.22'den itibaren standart kütüphane bunu destekliyor.
func (h *ChannelHandler) Update(w http.ResponseWriter, r *http.Request) {
	serverID, ok := r.Context().Value(ServerIDContextKey).(string)
	if !ok || serverID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "server context required")
		return
	}

	id := r.PathValue("id")

	var req models.UpdateChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	channel, err := h.channelService.Update(r.Context(), serverID, id, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, channel)
}

// Delete godoc
// DELETE /api/servers/{serverId}/channels/{id}
// Kanalı siler. manageChannels yetkisi gerektirir.
func (h *ChannelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	serverID, ok := r.Context().Value(ServerIDContextKey).(string)
	if !ok || serverID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "server context required")
		return
	}

	id := r.PathValue("id")

	if err := h.channelService.Delete(r.Context(), serverID, id); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "channel deleted"})
}

// Reorder godoc
// PATCH /api/servers/{serverId}/channels/reorder
// Kanal sıralamasını toplu olarak günceller. manageChannels yetkisi gerektirir.
//
// Body: { "items": [{ "id": "abc", "position": 0 }, { "id": "def", "position": 1 }] }
// Transaction ile atomik — ya hepsi güncellenir ya hiçbiri.
// Başarılıysa güncel kanal listesini döner ve WS broadcast eder.
func (h *ChannelHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	serverID, ok := r.Context().Value(ServerIDContextKey).(string)
	if !ok || serverID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "server context required")
		return
	}

	var req models.ReorderChannelsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	channels, err := h.channelService.Reorder(r.Context(), serverID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, channels)
}
