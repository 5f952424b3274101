// Package repository — ChannelRepository'nin SQLite implementasyonu.
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

// sqliteChannelRepo, ChannelRepository interface'inin SQLite implementasyonu.
type sqliteChannelRepo struct {
	db database.TxQuerier
}

// NewSQLiteChannelRepo, constructor — interface döner (Dependency Inversion).
func NewSQLiteChannelRepo(db database.TxQuerier) ChannelRepository {
	return &sqliteChannelRepo{db: db}
}

const channelColumns = `id, server_id, name, topic, position, created_at`

func scanChannel(row interface{ Scan(dest ...any) error }, ch *models.Channel) error {
	return row.Scan(&ch.ID, &ch.ServerID, &ch.Name, &ch.Topic, &ch.Position, &ch.CreatedAt)
}

func (r *sqliteChannelRepo) Create(ctx context.Context, channel *models.Channel) error {
	query := `
		INSERT INTO channels (id, server_id, name, topic, position)
		VALUES (?, ?, ?, ?, ?)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		channel.ID, channel.ServerID, channel.Name, channel.Topic, channel.Position,
	).Scan(&channel.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}

	return nil
}

func (r *sqliteChannelRepo) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE id = ?`

	ch := &models.Channel{}
	err := scanChannel(r.db.QueryRowContext(ctx, query, id), ch)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel by id: %w", err)
	}

	return ch, nil
}

func (r *sqliteChannelRepo) GetAllByServer(ctx context.Context, serverID string) ([]models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE server_id = ? ORDER BY position ASC`

	rows, err := r.db.QueryContext(ctx, query, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get server channels: %w", err)
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var ch models.Channel
		if err := scanChannel(rows, &ch); err != nil {
			return nil, fmt.Errorf("failed to scan channel row: %w", err)
		}
		channels = append(channels, ch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating channel rows: %w", err)
	}

	return channels, nil
}

func (r *sqliteChannelRepo) Update(ctx context.Context, channel *models.Channel) error {
	query := `UPDATE channels SET name = ?, topic = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, channel.Name, channel.Topic, channel.ID)
	if err != nil {
		return fmt.Errorf("failed to update channel: %w", err)
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

func (r *sqliteChannelRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM channels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
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

// UpdatePositions, birden fazla kanalın position değerini atomik olarak günceller.
// Transaction kullanılır — bir hata olursa tüm değişiklikler geri alınır.
// Bu sayede kısmi güncelleme (partial update) riski ortadan kalkar.
func (r *sqliteChannelRepo) UpdatePositions(ctx context.Context, serverID string, items []models.PositionUpdate) error {
	sqlDB, ok := r.db.(*sql.DB)
	if !ok {
		return fmt.Errorf("position update requires a root database handle")
	}

	return database.WithTx(ctx, sqlDB, func(tx *sql.Tx) error {
		// server_id filtresi: başka sunucunun kanal ID'si gönderilse bile
		// etkisiz kalır, 0 affected → ErrNotFound.
		stmt, err := tx.PrepareContext(ctx, `UPDATE channels SET position = ? WHERE id = ? AND server_id = ?`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, item := range items {
			result, err := stmt.ExecContext(ctx, item.Position, item.ID, serverID)
			if err != nil {
				return fmt.Errorf("failed to update position for channel %s: %w", item.ID, err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to check rows affected for channel %s: %w", item.ID, err)
			}
			if affected == 0 {
				return fmt.Errorf("%w: channel %s", pkg.ErrNotFound, item.ID)
			}
		}

		return nil
	})
}

// GetMaxPosition, sunucudaki en yüksek position değerini döner.
// Yeni kanal eklenirken position = max + 1 olarak atanır.
func (r *sqliteChannelRepo) GetMaxPosition(ctx context.Context, serverID string) (int, error) {
	query := `SELECT COALESCE(MAX(position), -1) FROM channels WHERE server_id = ?`

	var maxPos int
	err := r.db.QueryRowContext(ctx, query, serverID).Scan(&maxPos)
	if err != nil {
		return 0, fmt.Errorf("failed to get max channel position: %w", err)
	}

	return maxPos, nil
}
