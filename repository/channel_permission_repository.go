package repository

import (
	"context"

	"github.com/acarlson33/firepit/models"
)

// ChannelPermissionRepository, kanal bazlı permission override veritabanı işlemleri.
//
// Her (channel, rol) ve (channel, kullanıcı) hedefi için en fazla bir
// allow/deny override saklanır. Override'lar yetki ADI listeleri taşır;
// resolver bunları sırayla uygular.
type ChannelPermissionRepository interface {
	// GetByChannel, bir kanaldaki tüm override'ları oluşturulma sırasıyla döner.
	// Hem admin UI ("bu kanalda hangi override'lar var?") hem resolver
	// (kullanıcıya uygunluk filtresi service'te) bunu kullanır.
	GetByChannel(ctx context.Context, channelID string) ([]models.ChannelPermissionOverride, error)

	// GetByTarget, tek bir hedefin (rol veya kullanıcı) override'ını döner.
	GetByTarget(ctx context.Context, channelID, roleID, userID string) (*models.ChannelPermissionOverride, error)

	// Set, hedef başına override oluşturur veya günceller (UPSERT).
	// Güncellemede override'ın oluşturulma sırası korunur.
	Set(ctx context.Context, override *models.ChannelPermissionOverride) error

	// Delete, hedefin override'ını siler. roleID veya userID'den biri dolu olmalı.
	Delete(ctx context.Context, channelID, roleID, userID string) error

	// DeleteAllByChannel, bir kanaldaki tüm override'ları siler.
	DeleteAllByChannel(ctx context.Context, channelID string) error
}
