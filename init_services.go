// Package main — Service katmanı başlatma.
//
// initServices, tüm service implementasyonlarını oluşturur.
// Her service, ihtiyaç duyduğu repository interface'lerini ve diğer
// dependency'leri constructor injection ile alır.
//
// ÖNEMLİ sıralama kuralı: channelPermService, MessageService / ChannelService /
// RoleService / MemberService'den ÖNCE oluşturulmalı — bu service'ler izin
// resolution'ı ve cache invalidation için ona bağımlıdır.
package main

import (
	"database/sql"
	"log"
	"time"

	"github.com/acarlson33/firepit/config"
	"github.com/acarlson33/firepit/pkg/email"
	"github.com/acarlson33/firepit/pkg/ratelimit"
	"github.com/acarlson33/firepit/services"
	"github.com/acarlson33/firepit/ws"
)

// Services, tüm service instance'larını tutan container struct.
type Services struct {
	Auth              services.AuthService
	Server            services.ServerService
	Channel           services.ChannelService
	ChannelPermission services.ChannelPermissionService
	Message           services.MessageService
	Member            services.MemberService
	Role              services.RoleService
	Invite            services.InviteService
}

// RateLimiters, tüm rate limiter instance'larını tutan container.
type RateLimiters struct {
	Login   *ratelimit.LoginRateLimiter
	Message *ratelimit.MessageRateLimiter
}

// initServices, tüm service'leri ve rate limiter'ları oluşturur.
//
// db parametresi neden hem repos hem *sql.DB?
// ServerService.Create atomik transaction gerektirir (WithTx), bu yüzden
// doğrudan DB bağlantısına ihtiyaç duyar. Diğer tüm service'ler sadece
// repository interface'leri üzerinden çalışır.
func initServices(db *sql.DB, repos *Repositories, hub ws.EventPublisher, cfg *config.Config) (*Services, *RateLimiters) {
	// ─── Email sender ───
	//
	// API key yoksa development modu: reset token mail yerine log'a yazılır.
	var mailer email.EmailSender
	if cfg.Email.ResendAPIKey != "" {
		mailer = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromAddress, cfg.Email.AppURL)
		log.Printf("[main] email delivery enabled (from=%s)", cfg.Email.FromAddress)
	} else {
		mailer = email.NewLogSender()
		log.Println("[main] email delivery disabled, reset tokens will be logged (RESEND_API_KEY not set)")
	}

	// ─── Sıralama-kritik: izin resolution service'i önce ───
	//
	// channelPermService üç şapka taşır:
	// - ChannelPermissionService: override CRUD (handler'lar için)
	// - ChannelPermResolver: kanal bazlı effective permission (message service için)
	// - PermCacheInvalidator: rol/üyelik değişince cache düşürme (role/member/channel için)
	channelPermService := services.NewChannelPermissionService(
		repos.ChannelPermission, repos.Role, repos.Channel, repos.Server, hub,
	)

	// ─── Rate Limiters ───
	loginLimiter := ratelimit.NewLoginRateLimiter(5, 2*time.Minute)
	messageLimiter := ratelimit.NewMessageRateLimiter(5, 5*time.Second, 15*time.Second)

	// ─── Diğer service'ler ───
	authService := services.NewAuthService(
		repos.User, repos.Session, repos.ResetToken, mailer,
		cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry,
	)

	inviteService := services.NewInviteService(repos.Invite, repos.Server)
	serverService := services.NewServerService(
		db, repos.Server, repos.Role, repos.Channel, repos.User, repos.Ban,
		inviteService, channelPermService, hub,
	)
	channelService := services.NewChannelService(repos.Channel, channelPermService, hub)
	messageService := services.NewMessageService(
		repos.Message, repos.Channel, repos.User, hub, channelPermService, messageLimiter,
	)
	memberService := services.NewMemberService(
		repos.User, repos.Server, repos.Role, repos.Ban, channelPermService, hub,
	)
	roleService := services.NewRoleService(repos.Role, repos.Server, channelPermService, hub)

	svcs := &Services{
		Auth:              authService,
		Server:            serverService,
		Channel:           channelService,
		ChannelPermission: channelPermService,
		Message:           messageService,
		Member:            memberService,
		Role:              roleService,
		Invite:            inviteService,
	}

	limiters := &RateLimiters{
		Login:   loginLimiter,
		Message: messageLimiter,
	}

	return svcs, limiters
}
