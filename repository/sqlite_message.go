package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/acarlson33/firepit/database"
	"github.com/acarlson33/firepit/models"
	"github.com/acarlson33/firepit/pkg"
)

// sqliteMessageRepo, MessageRepository interface'inin SQLite implementasyonu.
type sqliteMessageRepo struct {
	db database.TxQuerier
}

// NewSQLiteMessageRepo, constructor — interface döner.
func NewSQLiteMessageRepo(db database.TxQuerier) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

// messageAuthorColumns, mesaj + yazar JOIN sorgularının ortak SELECT listesi.
const messageAuthorColumns = `
	m.id, m.channel_id, m.user_id, m.content, m.mentions_everyone, m.edited_at, m.created_at,
	u.id, u.username, u.display_name, u.status`

// scanMessageWithAuthor, JOIN'li satırı Message + Author olarak okur.
// LEFT JOIN kullanıldığı için yazar kolonları NULL olabilir (silinmiş kullanıcı).
func scanMessageWithAuthor(row interface{ Scan(dest ...any) error }) (*models.Message, error) {
	msg := &models.Message{}
	var author models.User
	var authorID sql.NullString
	var authorName sql.NullString
	var authorStatus sql.NullString

	err := row.Scan(
		&msg.ID, &msg.ChannelID, &msg.UserID, &msg.Content,
		&msg.MentionsEveryone, &msg.EditedAt, &msg.CreatedAt,
		&authorID, &authorName, &author.DisplayName, &authorStatus,
	)
	if err != nil {
		return nil, err
	}

	if authorID.Valid {
		author.ID = authorID.String
		author.Username = authorName.String
		author.Status = models.UserStatus(authorStatus.String)
		msg.Author = &author
	}

	return msg, nil
}

func (r *sqliteMessageRepo) Create(ctx context.Context, message *models.Message) error {
	query := `
		INSERT INTO messages (id, channel_id, user_id, content, mentions_everyone)
		VALUES (?, ?, ?, ?, ?)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		message.ID,
		message.ChannelID,
		message.UserID,
		message.Content,
		message.MentionsEveryone,
	).Scan(&message.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

func (r *sqliteMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	// Mesajı yazar bilgisiyle birlikte getir (JOIN).
	// LEFT JOIN kullanıyoruz — kullanıcı silinmiş olsa bile mesaj görünür.
	query := `
		SELECT ` + messageAuthorColumns + `
		FROM messages m
		LEFT JOIN users u ON m.user_id = u.id
		WHERE m.id = ?`

	msg, err := scanMessageWithAuthor(r.db.QueryRowContext(ctx, query, id))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message by id: %w", err)
	}

	return msg, nil
}

// GetByChannelID, cursor-based pagination ile mesajları getirir.
//
// Sorgu mantığı:
// 1. beforeID boşsa → en yeni mesajlardan başla
// 2. beforeID doluysa → o mesajın (created_at, id) çiftinden öncekileri getir
// 3. ORDER BY created_at DESC, id DESC → en yeniden eskiye sırala
// 4. LIMIT ile sayı kısıtla
//
// Aynı saniyede birden fazla mesaj olabileceği için cursor karşılaştırması
// (created_at, id) tuple'ı üzerinden yapılır — tek başına created_at
// mesaj atlamaya veya tekrar göstermeye yol açar.
func (r *sqliteMessageRepo) GetByChannelID(ctx context.Context, channelID string, beforeID string, limit int) ([]models.Message, error) {
	var query string
	var args []any

	if beforeID == "" {
		// İlk yükleme — en yeni mesajlardan başla
		query = `
			SELECT ` + messageAuthorColumns + `
			FROM messages m
			LEFT JOIN users u ON m.user_id = u.id
			WHERE m.channel_id = ?
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT ?`
		args = []any{channelID, limit}
	} else {
		// Eski mesajları yükle — cursor'dan önceki mesajlar.
		// Subquery, beforeID'nin (created_at, id) değerini bulur;
		// ana sorgu bu tuple'dan küçük satırları getirir.
		query = `
			SELECT ` + messageAuthorColumns + `
			FROM messages m
			LEFT JOIN users u ON m.user_id = u.id
			WHERE m.channel_id = ?
			  AND (m.created_at, m.id) < (SELECT created_at, id FROM messages WHERE id = ?)
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT ?`
		args = []any{channelID, beforeID, limit}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages by channel: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		msg, err := scanMessageWithAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, *msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return messages, nil
}

func (r *sqliteMessageRepo) Update(ctx context.Context, message *models.Message) error {
	// Düzenleme: content güncelle + edited_at zaman damgası ekle.
	now := time.Now().UTC()
	query := `UPDATE messages SET content = ?, mentions_everyone = ?, edited_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, message.Content, message.MentionsEveryone, now, message.ID)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}

	message.EditedAt = &now
	return nil
}

func (r *sqliteMessageRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
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
