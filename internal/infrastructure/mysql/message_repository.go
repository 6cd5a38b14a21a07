package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"art-market/internal/domain"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLMessageRepository struct {
	db *sql.DB
}

func NewMySQLMessageRepository(db *sql.DB) *MySQLMessageRepository {
	return &MySQLMessageRepository{db: db}
}

func (r *MySQLMessageRepository) Create(ctx context.Context, message *domain.ChatMessage) error {
	query := `
        INSERT INTO messages (id, sender_id, receiver_id, artwork_id, content,
            is_read, read_at, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		message.ID, message.SenderID, message.ReceiverID, message.ArtworkID,
		message.Content, message.IsRead, message.ReadAt, message.CreatedAt)
	return err
}

// MarkRead is idempotent: COALESCE keeps the original read_at on repeated
// calls, and the effective timestamp is read back for the caller.
func (r *MySQLMessageRepository) MarkRead(ctx context.Context, messageID string, at time.Time) (time.Time, error) {
	query := `UPDATE messages SET is_read = 1, read_at = COALESCE(read_at, ?) WHERE id = ?`

	// RowsAffected is 0 both for a missing row and for a no-op repeat
	// update, so existence is confirmed by the readback instead.
	if _, err := r.db.ExecContext(ctx, query, at, messageID); err != nil {
		return time.Time{}, err
	}

	var readAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `SELECT read_at FROM messages WHERE id = ?`, messageID).Scan(&readAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("message %s not found", messageID)
	}
	if err != nil {
		return time.Time{}, err
	}
	if !readAt.Valid {
		return at, nil
	}
	return readAt.Time, nil
}
