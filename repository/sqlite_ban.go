package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/acarlson33/firepit/database"
	"github.com/acarlson33/firepit/models"
	"github.com/acarlson33/firepit/pkg"
)

type sqliteBanRepo struct {
	db database.TxQuerier
}

// NewSQLiteBanRepo, BanRepository'nin SQLite implementasyonunu oluşturur.
func NewSQLiteBanRepo(db database.TxQuerier) BanRepository {
	return &sqliteBanRepo{db: db}
}

func (r *sqliteBanRepo) Create(ctx context.Context, ban *models.Ban) error {
	query := `
		INSERT INTO bans (server_id, user_id, reason, banned_by)
		VALUES (?, ?, ?, ?)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		ban.ServerID, ban.UserID, ban.Reason, ban.BannedBy,
	).Scan(&ban.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create ban: %w", err)
	}

	return nil
}

func (r *sqliteBanRepo) GetAllByServer(ctx context.Context, serverID string) ([]models.Ban, error) {
	// Username tabloda tutulmaz — users'dan JOIN ile gelir.
	// LEFT JOIN: kullanıcı hesabı silinmişse ban kaydı yine görünür.
	query := `
		SELECT b.server_id, b.user_id, COALESCE(u.username, ''), b.reason, b.banned_by, b.created_at
		FROM bans b
		LEFT JOIN users u ON b.user_id = u.id
		WHERE b.server_id = ?
		ORDER BY b.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get server bans: %w", err)
	}
	defer rows.Close()

	var bans []models.Ban
	for rows.Next() {
		var ban models.Ban
		if err := rows.Scan(
			&ban.ServerID, &ban.UserID, &ban.Username, &ban.Reason, &ban.BannedBy, &ban.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ban row: %w", err)
		}
		bans = append(bans, ban)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ban rows: %w", err)
	}

	return bans, nil
}

func (r *sqliteBanRepo) Delete(ctx context.Context, serverID, userID string) error {
	query := `DELETE FROM bans WHERE server_id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, serverID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete ban: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}

	return nil
}

func (r *sqliteBanRepo) Exists(ctx context.Context, serverID, userID string) (bool, error) {
	query := `SELECT 1 FROM bans WHERE server_id = ? AND user_id = ? LIMIT 1`

	var dummy int
	err := r.db.QueryRowContext(ctx, query, serverID, userID).Scan(&dummy)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check ban existence: %w", err)
	}

	return true, nil
}
