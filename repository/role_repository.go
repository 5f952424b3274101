package repository

import (
	"context"

	"github.com/acarlson33/firepit/models"
)

// RoleRepository, rol veritabanı işlemleri için interface.
//
// GetByUserAndServer resolver'ın ana girdisidir: kullanıcının o
// sunucuda tuttuğu rolleri döner (member_roles join).
type RoleRepository interface {
	// ─── Read ───
	GetByID(ctx context.Context, id string) (*models.Role, error)
	GetAllByServer(ctx context.Context, serverID string) ([]models.Role, error)
	GetDefaultByServer(ctx context.Context, serverID string) (*models.Role, error)
	GetByUserAndServer(ctx context.Context, userID, serverID string) ([]models.Role, error)
	GetMaxPosition(ctx context.Context, serverID string) (int, error)

	// ─── Write ───
	Create(ctx context.Context, role *models.Role) error
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, id string) error

	// UpdatePositions, birden fazla rolün position değerini atomik olarak günceller.
	// Transaction kullanılır — bir hata olursa tüm değişiklikler geri alınır.
	UpdatePositions(ctx context.Context, items []models.RolePosition) error

	// ─── Member-Role mapping ───
	AssignToUser(ctx context.Context, serverID, userID, roleID string) error
	RemoveFromUser(ctx context.Context, userID, roleID string) error
	RemoveAllFromUser(ctx context.Context, serverID, userID string) error
}
