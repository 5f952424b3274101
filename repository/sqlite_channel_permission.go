package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/acarlson33/firepit/database"
	"github.com/acarlson33/firepit/models"
	"github.com/acarlson33/firepit/pkg"
)

// sqliteChannelPermRepo, ChannelPermissionRepository'nin SQLite implementasyonu.
//
// channel_permission_overrides tablosu 001_init.sql'de tanımlı:
//
//	role_id XOR user_id → hedef (biri NULL)
//	allow TEXT → izin verilen yetki adları (JSON array)
//	deny TEXT  → engellenen yetki adları (JSON array)
//	UNIQUE (channel_id, role_id) ve (channel_id, user_id) → hedef başına tek override
//
// Sıralama garantisi: GetByChannel created_at + id sırasıyla döner.
// Resolver override'ları listede geldiği sırayla uygular; deterministik
// sıra olmadan çakışan override'ların sonucu DB'nin keyfine kalırdı.
type sqliteChannelPermRepo struct {
	db database.TxQuerier
}

// NewSQLiteChannelPermRepo, SQLite tabanlı ChannelPermissionRepository oluşturur.
func NewSQLiteChannelPermRepo(db database.TxQuerier) ChannelPermissionRepository {
	return &sqliteChannelPermRepo{db: db}
}

// scanOverride, tek bir override satırını okur ve JSON listeleri çözer.
func scanOverride(row interface{ Scan(dest ...any) error }) (models.ChannelPermissionOverride, error) {
	var o models.ChannelPermissionOverride
	var roleID, userID sql.NullString
	var allowJSON, denyJSON string

	if err := row.Scan(&o.ID, &o.ChannelID, &roleID, &userID, &allowJSON, &denyJSON, &o.CreatedAt); err != nil {
		return o, err
	}
	o.RoleID = roleID.String
	o.UserID = userID.String

	// Bozuk JSON'da override boş listelerle kalır — resolver için no-op,
	// hesap hiç patlamaz.
	if err := json.Unmarshal([]byte(allowJSON), &o.Allow); err != nil {
		o.Allow = nil
	}
	if err := json.Unmarshal([]byte(denyJSON), &o.Deny); err != nil {
		o.Deny = nil
	}

	return o, nil
}

// GetByChannel, kanalın tüm override'larını oluşturulma sırasıyla döner.
func (r *sqliteChannelPermRepo) GetByChannel(ctx context.Context, channelID string) ([]models.ChannelPermissionOverride, error) {
	query := `
		SELECT id, channel_id, role_id, user_id, allow, deny, created_at
		FROM channel_permission_overrides
		WHERE channel_id = ?
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel overrides: %w", err)
	}
	defer rows.Close()

	var overrides []models.ChannelPermissionOverride
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan override row: %w", err)
		}
		overrides = append(overrides, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating override rows: %w", err)
	}

	return overrides, nil
}

// Set, hedef başına tek override upsert'i yapar.
//
// ON CONFLICT ... DO UPDATE kullanıyoruz çünkü:
// - INSERT OR REPLACE satırı silip yeniden oluşturur (created_at ve id kaybolur,
//   dolayısıyla uygulama sırası değişirdi)
// - DO UPDATE sadece allow/deny kolonlarını günceller — override'ın
//   listedeki yeri sabit kalır
func (r *sqliteChannelPermRepo) Set(ctx context.Context, o *models.ChannelPermissionOverride) error {
	allowJSON, err := json.Marshal(o.Allow)
	if err != nil {
		return fmt.Errorf("failed to encode allow list: %w", err)
	}
	denyJSON, err := json.Marshal(o.Deny)
	if err != nil {
		return fmt.Errorf("failed to encode deny list: %w", err)
	}

	var roleID, userID any
	var conflictTarget string
	if o.TargetsRole() {
		roleID = o.RoleID
		conflictTarget = "(channel_id, role_id) WHERE role_id IS NOT NULL"
	} else {
		userID = o.UserID
		conflictTarget = "(channel_id, user_id) WHERE user_id IS NOT NULL"
	}

	query := fmt.Sprintf(`
		INSERT INTO channel_permission_overrides (id, channel_id, role_id, user_id, allow, deny)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT %s DO UPDATE SET
			allow = excluded.allow,
			deny = excluded.deny
		RETURNING id, created_at`, conflictTarget)

	err = r.db.QueryRowContext(ctx, query,
		o.ID, o.ChannelID, roleID, userID, string(allowJSON), string(denyJSON),
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to set channel override: %w", err)
	}

	return nil
}

// Delete, hedefe göre override siler. roleID veya userID'den biri dolu olmalı.
func (r *sqliteChannelPermRepo) Delete(ctx context.Context, channelID, roleID, userID string) error {
	var result sql.Result
	var err error

	if roleID != "" {
		result, err = r.db.ExecContext(ctx,
			`DELETE FROM channel_permission_overrides WHERE channel_id = ? AND role_id = ?`,
			channelID, roleID)
	} else {
		result, err = r.db.ExecContext(ctx,
			`DELETE FROM channel_permission_overrides WHERE channel_id = ? AND user_id = ?`,
			channelID, userID)
	}
	if err != nil {
		return fmt.Errorf("failed to delete channel override: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		// Override yoksa hata dönüyoruz, handler 404 dönebilsin (REST semantiği).
		return pkg.ErrNotFound
	}

	return nil
}

// DeleteAllByChannel, kanalın tüm override'larını siler.
// Kanal silme akışında FK cascade zaten halleder; explicit çağrı
// cache invalidation tetiklemek isteyen service için var.
func (r *sqliteChannelPermRepo) DeleteAllByChannel(ctx context.Context, channelID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM channel_permission_overrides WHERE channel_id = ?`, channelID)
	if err != nil {
		return fmt.Errorf("failed to delete channel overrides: %w", err)
	}
	return nil
}

// GetByTarget, tek bir hedefin override'ını döner (yoksa ErrNotFound).
func (r *sqliteChannelPermRepo) GetByTarget(ctx context.Context, channelID, roleID, userID string) (*models.ChannelPermissionOverride, error) {
	var row *sql.Row
	if roleID != "" {
		row = r.db.QueryRowContext(ctx, `
			SELECT id, channel_id, role_id, user_id, allow, deny, created_at
			FROM channel_permission_overrides
			WHERE channel_id = ? AND role_id = ?`, channelID, roleID)
	} else {
		row = r.db.QueryRowContext(ctx, `
			SELECT id, channel_id, role_id, user_id, allow, deny, created_at
			FROM channel_permission_overrides
			WHERE channel_id = ? AND user_id = ?`, channelID, userID)
	}

	o, err := scanOverride(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel override: %w", err)
	}
	return &o, nil
}
