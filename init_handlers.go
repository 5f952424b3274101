// Package main — Handler katmanı başlatma.
//
// initHandlers, tüm HTTP handler'larını oluşturur.
// Her handler, ihtiyaç duyduğu service interface'lerini constructor'dan alır.
// Handler'lar "thin" dir — sadece HTTP parse + service call + response write.
package main

import (
	"github.com/acarlson33/firepit/handlers"
	"github.com/acarlson33/firepit/ws"
)

// Handlers, tüm handler instance'larını tutan container struct.
type Handlers struct {
	Auth              *handlers.AuthHandler
	Server            *handlers.ServerHandler
	Channel           *handlers.ChannelHandler
	ChannelPermission *handlers.ChannelPermissionHandler
	Permission        *handlers.PermissionHandler
	Message           *handlers.MessageHandler
	Member            *handlers.MemberHandler
	Role              *handlers.RoleHandler
	Invite            *handlers.InviteHandler
	WS                *ws.Handler
}

// initHandlers, tüm handler'ları service ve rate limiter dependency'leri ile oluşturur.
func initHandlers(svcs *Services, limiters *RateLimiters, hub *ws.Hub) *Handlers {
	return &Handlers{
		Auth:              handlers.NewAuthHandler(svcs.Auth, limiters.Login),
		Server:            handlers.NewServerHandler(svcs.Server, svcs.Invite),
		Channel:           handlers.NewChannelHandler(svcs.Channel),
		ChannelPermission: handlers.NewChannelPermissionHandler(svcs.ChannelPermission),
		Permission:        handlers.NewPermissionHandler(svcs.ChannelPermission),
		Message:           handlers.NewMessageHandler(svcs.Message),
		Member:            handlers.NewMemberHandler(svcs.Member),
		Role:              handlers.NewRoleHandler(svcs.Role),
		Invite:            handlers.NewInviteHandler(svcs.Invite),
		WS:                ws.NewHandler(hub, svcs.Auth),
	}
}
