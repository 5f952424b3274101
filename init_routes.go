// Package main — HTTP route registration.
//
// initRoutes, tüm API endpoint'lerini mux'a bağlar.
// Middleware chain helper'ları burada tanımlıdır:
//   - auth: JWT token doğrulaması
//   - authServer: auth + sunucu üyelik kontrolü
//   - authServerPerm: auth + sunucu üyelik + belirli permission kontrolü
package main

import (
	"fmt"
	"net/http"

	"github.com/acarlson33/firepit/middleware"
	"github.com/acarlson33/firepit/models"
)

// initRoutes, middleware chain'i kurar ve tüm endpoint'leri mux'a bağlar.
//
// Route sıralama kuralı: Literal path'ler parametrik path'lerden ÖNCE tanımlanmalı.
// Örnek: "/api/servers/{serverId}/channels/reorder" → ".../channels/{id}" öncesinde,
// yoksa Go router "reorder" kelimesini bir channel id olarak yorumlar.
func initRoutes(mux *http.ServeMux, h *Handlers, svcs *Services, repos *Repositories) {
	// ─── Middleware ───
	authMw := middleware.NewAuthMiddleware(svcs.Auth, repos.User)
	serverMw := middleware.NewServerMembershipMiddleware(repos.Server)
	permMw := middleware.NewPermissionMiddleware(repos.Role, repos.Server)

	// ─── Middleware Chain Helpers ───
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(http.HandlerFunc(handler))
	}
	authServer := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(serverMw.Require(http.HandlerFunc(handler)))
	}
	authServerPerm := func(perm models.Permission, handler http.HandlerFunc) http.Handler {
		return authMw.Require(serverMw.Require(permMw.Require(perm, http.HandlerFunc(handler))))
	}

	// ╔══════════════════════════════════════════╗
	// ║  GLOBAL ROUTES (sunucu bağımsız)         ║
	// ╚══════════════════════════════════════════╝

	// Health check
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok","service":"firepit"}`)
	})

	// Auth — public endpoint'ler (token gerekmez)
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.HandleFunc("POST /api/auth/forgot-password", h.Auth.ForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", h.Auth.ResetPassword)
	mux.Handle("POST /api/auth/logout", auth(h.Auth.Logout))

	// User — kendi hesabı
	mux.Handle("GET /api/users/me", auth(h.Auth.Me))
	mux.Handle("POST /api/users/me/password", auth(h.Auth.ChangePassword))
	mux.Handle("PATCH /api/users/me/profile", auth(h.Member.UpdateProfile))

	// Permission kataloğu — frontend'in rol editörü için isim + açıklama listesi
	mux.Handle("GET /api/permissions", auth(h.Permission.List))

	// Servers — sunucu listesi ve oluşturma
	mux.Handle("GET /api/servers", auth(h.Server.List))
	mux.Handle("POST /api/servers", auth(h.Server.Create))

	// Invites — kod ile önizleme ve katılma (üyelik henüz yok, authServer kullanılamaz)
	mux.Handle("GET /api/invites/{code}", auth(h.Server.Preview))
	mux.Handle("POST /api/invites/{code}/join", auth(h.Server.Join))

	// Messages — düzenleme/silme mesaj ID'si ile sunucudan bağımsız adreslenir.
	// Yetki kontrolü (sahiplik veya manageMessages) service katmanında yapılır.
	mux.Handle("PATCH /api/messages/{id}", auth(h.Message.Update))
	mux.Handle("DELETE /api/messages/{id}", auth(h.Message.Delete))

	// ╔══════════════════════════════════════════╗
	// ║  SERVER-SCOPED ROUTES                    ║
	// ╚══════════════════════════════════════════╝

	// Server yönetimi
	mux.Handle("GET /api/servers/{serverId}", authServer(h.Server.Get))
	mux.Handle("PATCH /api/servers/{serverId}", authServerPerm(models.PermManageServer, h.Server.Update))
	mux.Handle("DELETE /api/servers/{serverId}", authServer(h.Server.Delete)) // owner kontrolü service'te
	mux.Handle("POST /api/servers/{serverId}/leave", authServer(h.Server.Leave))

	// Channels — listeleme üyelere açık, CUD için manageChannels gerekir
	mux.Handle("GET /api/servers/{serverId}/channels", authServer(h.Channel.List))
	mux.Handle("POST /api/servers/{serverId}/channels", authServerPerm(models.PermManageChannels, h.Channel.Create))
	mux.Handle("PATCH /api/servers/{serverId}/channels/reorder", authServerPerm(models.PermManageChannels, h.Channel.Reorder))
	mux.Handle("PATCH /api/servers/{serverId}/channels/{id}", authServerPerm(models.PermManageChannels, h.Channel.Update))
	mux.Handle("DELETE /api/servers/{serverId}/channels/{id}", authServerPerm(models.PermManageChannels, h.Channel.Delete))

	// Channel permission override'ları — manageChannels gerekir.
	// /permissions/me ise her üyenin kendi effective permission'larını sorgular.
	mux.Handle("GET /api/servers/{serverId}/channels/{id}/permissions/me", authServer(h.Permission.MyChannelPermissions))
	mux.Handle("GET /api/servers/{serverId}/channels/{id}/permissions", authServerPerm(models.PermManageChannels, h.ChannelPermission.ListOverrides))
	mux.Handle("PUT /api/servers/{serverId}/channels/{id}/permissions", authServerPerm(models.PermManageChannels, h.ChannelPermission.SetOverride))
	mux.Handle("DELETE /api/servers/{serverId}/channels/{id}/permissions", authServerPerm(models.PermManageChannels, h.ChannelPermission.DeleteOverride))

	// Messages — okuma/yazma kanal bazlı izinlere tabidir (service katmanında
	// readMessages/sendMessages resolution'ı yapılır, middleware sadece üyelik bakar)
	mux.Handle("GET /api/servers/{serverId}/channels/{id}/messages", authServer(h.Message.List))
	mux.Handle("POST /api/servers/{serverId}/channels/{id}/messages", authServer(h.Message.Create))

	// Roles — listeleme üyelere açık, CUD + reorder için manageRoles gerekir.
	// Hiyerarşi ve escalation kontrolleri service katmanında (CanManageRole).
	mux.Handle("GET /api/servers/{serverId}/roles", authServer(h.Role.List))
	mux.Handle("POST /api/servers/{serverId}/roles", authServerPerm(models.PermManageRoles, h.Role.Create))
	mux.Handle("PATCH /api/servers/{serverId}/roles/reorder", authServerPerm(models.PermManageRoles, h.Role.Reorder))
	mux.Handle("PATCH /api/servers/{serverId}/roles/{id}", authServerPerm(models.PermManageRoles, h.Role.Update))
	mux.Handle("DELETE /api/servers/{serverId}/roles/{id}", authServerPerm(models.PermManageRoles, h.Role.Delete))

	// Members — listeleme üyelere açık, moderation işlemleri yetki gerektirir
	mux.Handle("GET /api/servers/{serverId}/members", authServer(h.Member.List))
	mux.Handle("GET /api/servers/{serverId}/members/{id}", authServer(h.Member.Get))
	mux.Handle("PATCH /api/servers/{serverId}/members/{id}/roles", authServerPerm(models.PermManageRoles, h.Member.ModifyRoles))
	mux.Handle("DELETE /api/servers/{serverId}/members/{id}", authServerPerm(models.PermManageServer, h.Member.Kick))
	mux.Handle("POST /api/servers/{serverId}/members/{id}/ban", authServerPerm(models.PermManageServer, h.Member.Ban))

	// Bans — yasaklı üye yönetimi, manageServer gerektirir
	mux.Handle("GET /api/servers/{serverId}/bans", authServerPerm(models.PermManageServer, h.Member.GetBans))
	mux.Handle("DELETE /api/servers/{serverId}/bans/{id}", authServerPerm(models.PermManageServer, h.Member.Unban))

	// Invites — sunucu davet yönetimi, oluşturma/silme manageServer gerektirir
	mux.Handle("GET /api/servers/{serverId}/invites", authServerPerm(models.PermManageServer, h.Invite.List))
	mux.Handle("POST /api/servers/{serverId}/invites", authServerPerm(models.PermManageServer, h.Invite.Create))
	mux.Handle("DELETE /api/servers/{serverId}/invites/{code}", authServerPerm(models.PermManageServer, h.Invite.Delete))

	// WebSocket — token query parameter ile authenticate edilir
	//
	// Neden auth middleware kullanmıyoruz?
	// WebSocket upgrade sırasında tarayıcılar custom HTTP header gönderemez.
	// Bu yüzden JWT token URL query parameter olarak gönderilir:
	//   ws://server/ws?token=JWT_TOKEN
	// WS handler kendi içinde token doğrulaması yapar.
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}
