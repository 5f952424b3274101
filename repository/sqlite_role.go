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

// roleColumns, rol SELECT'lerinde kullanılan kolon listesi.
// Sekiz yetki flag'i açık kolonlardır — scan sırası scanRole ile eşleşmeli.
const roleColumns = `id, server_id, name, color, position,
	read_messages, send_messages, manage_messages, manage_channels,
	manage_roles, manage_server, mention_everyone, administrator,
	mentionable, is_default, created_at`

type sqliteRoleRepo struct {
	db database.TxQuerier
}

func NewSQLiteRoleRepo(db database.TxQuerier) RoleRepository {
	return &sqliteRoleRepo{db: db}
}

// scanRole, tek bir rol satırını okur. row hem *sql.Row hem *sql.Rows olabilir.
func scanRole(row interface{ Scan(dest ...any) error }, role *models.Role) error {
	return row.Scan(
		&role.ID, &role.ServerID, &role.Name, &role.Color, &role.Position,
		&role.ReadMessages, &role.SendMessages, &role.ManageMessages, &role.ManageChannels,
		&role.ManageRoles, &role.ManageServer, &role.MentionEveryone, &role.Administrator,
		&role.Mentionable, &role.IsDefault, &role.CreatedAt,
	)
}

// ─── Read operasyonları ───

func (r *sqliteRoleRepo) GetByID(ctx context.Context, id string) (*models.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE id = ?`

	role := &models.Role{}
	err := scanRole(r.db.QueryRowContext(ctx, query, id), role)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role by id: %w", err)
	}

	return role, nil
}

func (r *sqliteRoleRepo) GetAllByServer(ctx context.Context, serverID string) ([]models.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE server_id = ? ORDER BY position DESC`

	rows, err := r.db.QueryContext(ctx, query, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles by server: %w", err)
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var role models.Role
		if err := scanRole(rows, &role); err != nil {
			return nil, fmt.Errorf("failed to scan role row: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating role rows: %w", err)
	}

	return roles, nil
}

func (r *sqliteRoleRepo) GetDefaultByServer(ctx context.Context, serverID string) (*models.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE server_id = ? AND is_default = 1 LIMIT 1`

	role := &models.Role{}
	err := scanRole(r.db.QueryRowContext(ctx, query, serverID), role)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default role: %w", err)
	}

	return role, nil
}

// GetByUserAndServer, kullanıcının sunucuda tuttuğu rolleri döner.
// member_roles join'i ile. Rolü olmayan üye için boş slice döner (hata değil) —
// resolver boş rol listesini "hiç yetki yok" olarak değerlendirir.
func (r *sqliteRoleRepo) GetByUserAndServer(ctx context.Context, userID, serverID string) ([]models.Role, error) {
	query := `
		SELECT r.id, r.server_id, r.name, r.color, r.position,
			r.read_messages, r.send_messages, r.manage_messages, r.manage_channels,
			r.manage_roles, r.manage_server, r.mention_everyone, r.administrator,
			r.mentionable, r.is_default, r.created_at
		FROM roles r
		INNER JOIN member_roles mr ON r.id = mr.role_id
		WHERE mr.user_id = ? AND mr.server_id = ?
		ORDER BY r.position DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles by user and server: %w", err)
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var role models.Role
		if err := scanRole(rows, &role); err != nil {
			return nil, fmt.Errorf("failed to scan role row: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating role rows: %w", err)
	}

	return roles, nil
}

func (r *sqliteRoleRepo) GetMaxPosition(ctx context.Context, serverID string) (int, error) {
	var maxPos int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM roles WHERE server_id = ?`,
		serverID,
	).Scan(&maxPos)
	if err != nil {
		return 0, fmt.Errorf("failed to get max role position: %w", err)
	}
	return maxPos, nil
}

// ─── Write operasyonları ───

func (r *sqliteRoleRepo) Create(ctx context.Context, role *models.Role) error {
	query := `
		INSERT INTO roles (id, server_id, name, color, position,
			read_messages, send_messages, manage_messages, manage_channels,
			manage_roles, manage_server, mention_everyone, administrator,
			mentionable, is_default)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		role.ID, role.ServerID, role.Name, role.Color, role.Position,
		role.ReadMessages, role.SendMessages, role.ManageMessages, role.ManageChannels,
		role.ManageRoles, role.ManageServer, role.MentionEveryone, role.Administrator,
		role.Mentionable, role.IsDefault,
	).Scan(&role.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}

	return nil
}

func (r *sqliteRoleRepo) Update(ctx context.Context, role *models.Role) error {
	query := `
		UPDATE roles SET name = ?, color = ?, mentionable = ?,
			read_messages = ?, send_messages = ?, manage_messages = ?, manage_channels = ?,
			manage_roles = ?, manage_server = ?, mention_everyone = ?, administrator = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		role.Name, role.Color, role.Mentionable,
		role.ReadMessages, role.SendMessages, role.ManageMessages, role.ManageChannels,
		role.ManageRoles, role.ManageServer, role.MentionEveryone, role.Administrator,
		role.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
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

func (r *sqliteRoleRepo) Delete(ctx context.Context, id string) error {
	// is_default = 0 koşulu: default rol silinemez (DB seviyesinde koruma).
	query := `DELETE FROM roles WHERE id = ? AND is_default = 0`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
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

// UpdatePositions, birden fazla rolün position değerini atomik olarak günceller.
// Transaction kullanılır — bir hata olursa tüm değişiklikler geri alınır.
func (r *sqliteRoleRepo) UpdatePositions(ctx context.Context, items []models.RolePosition) error {
	sqlDB, ok := r.db.(*sql.DB)
	if !ok {
		return fmt.Errorf("UpdatePositions requires *sql.DB to start transaction")
	}

	return database.WithTx(ctx, sqlDB, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE roles SET position = ? WHERE id = ?`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, item := range items {
			result, err := stmt.ExecContext(ctx, item.Position, item.RoleID)
			if err != nil {
				return fmt.Errorf("failed to update position for role %s: %w", item.RoleID, err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to check rows affected for role %s: %w", item.RoleID, err)
			}
			if affected == 0 {
				return fmt.Errorf("%w: role %s", pkg.ErrNotFound, item.RoleID)
			}
		}

		return nil
	})
}

// ─── Member-Role mapping ───

func (r *sqliteRoleRepo) AssignToUser(ctx context.Context, serverID, userID, roleID string) error {
	query := `INSERT OR IGNORE INTO member_roles (server_id, user_id, role_id) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, serverID, userID, roleID)
	if err != nil {
		return fmt.Errorf("failed to assign role to user: %w", err)
	}
	return nil
}

func (r *sqliteRoleRepo) RemoveFromUser(ctx context.Context, userID, roleID string) error {
	query := `DELETE FROM member_roles WHERE user_id = ? AND role_id = ?`
	_, err := r.db.ExecContext(ctx, query, userID, roleID)
	if err != nil {
		return fmt.Errorf("failed to remove role from user: %w", err)
	}
	return nil
}

// RemoveAllFromUser, üyenin sunucudaki tüm rol atamalarını siler.
// Kick/ban ve sunucudan ayrılma akışlarında kullanılır.
func (r *sqliteRoleRepo) RemoveAllFromUser(ctx context.Context, serverID, userID string) error {
	query := `DELETE FROM member_roles WHERE server_id = ? AND user_id = ?`
	_, err := r.db.ExecContext(ctx, query, serverID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove user roles: %w", err)
	}
	return nil
}
