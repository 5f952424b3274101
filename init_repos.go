// Package main — Repository katmanı başlatma.
//
// initRepositories, tüm repository implementasyonlarını oluşturur.
// Her repository aynı SQL bağlantısını alır ve interface döner.
// main.go'daki wire-up'ı modülerleştirmek için bu dosyaya taşındı.
package main

import (
	"database/sql"

	"github.com/acarlson33/firepit/repository"
)

// Repositories, tüm repository instance'larını tutan container struct.
//
// Neden struct? 10 ayrı repository değişkeni yerine tek struct kullanmak:
// 1. Fonksiyon imzalarını temiz tutar (tek parametre yerine 10 parametre)
// 2. Yeni repository eklendiğinde sadece struct + initRepositories güncellenir
// 3. IDE auto-complete ile kolay erişim (repos.User, repos.Channel, vb.)
type Repositories struct {
	User              repository.UserRepository
	Session           repository.SessionRepository
	ResetToken        repository.PasswordResetRepository
	Server            repository.ServerRepository
	Role              repository.RoleRepository
	Channel           repository.ChannelRepository
	ChannelPermission repository.ChannelPermissionRepository
	Message           repository.MessageRepository
	Invite            repository.InviteRepository
	Ban               repository.BanRepository
}

// initRepositories, veritabanı bağlantısından tüm repository'leri oluşturur.
//
// Her NewSQLite* fonksiyonu aynı *sql.DB'yi alır — Go'nun sql.DB'si
// thread-safe connection pool'dur, paylaşılması güvenlidir.
func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		User:              repository.NewSQLiteUserRepo(conn),
		Session:           repository.NewSQLiteSessionRepo(conn),
		ResetToken:        repository.NewSQLiteResetTokenRepo(conn),
		Server:            repository.NewSQLiteServerRepo(conn),
		Role:              repository.NewSQLiteRoleRepo(conn),
		Channel:           repository.NewSQLiteChannelRepo(conn),
		ChannelPermission: repository.NewSQLiteChannelPermRepo(conn),
		Message:           repository.NewSQLiteMessageRepo(conn),
		Invite:            repository.NewSQLiteInviteRepo(conn),
		Ban:               repository.NewSQLiteBanRepo(conn),
	}
}
