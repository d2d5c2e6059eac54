package notifcenter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage is a Storage implementation over the notifications table.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a Postgres-backed notification storage.
// Schema is managed by the goose migrations in the migrations directory.
func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

const notificationColumns = `id, user_id, type, priority, title, message, data, read, read_at, created_at, expires_at`

func scanNotification(row pgx.Row) (*Notification, error) {
	var (
		n    Notification
		data []byte
	)
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Priority, &n.Title, &n.Message,
		&data, &n.Read, &n.ReadAt, &n.CreatedAt, &n.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, fmt.Errorf("unmarshal notification data: %w", err)
		}
	}
	return &n, nil
}

func (s *PostgresStorage) Create(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return errors.Join(ErrInvalidNotification, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		n.ID, n.UserID, n.Type, n.Priority, n.Title, n.Message,
		data, n.Read, n.ReadAt, n.CreatedAt, n.ExpiresAt,
	)
	return err
}

func (s *PostgresStorage) Get(ctx context.Context, userID, id string) (*Notification, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	n, err := scanNotification(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotificationNotFound
	}
	return n, err
}

func (s *PostgresStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1
		  AND (expires_at IS NULL OR expires_at > now())`
	args := []any{userID}

	if opts.OnlyUnread {
		query += ` AND read = false`
	}
	if opts.Type != "" {
		args = append(args, opts.Type)
		query += fmt.Sprintf(` AND type = $%d`, len(args))
	}

	query += ` ORDER BY created_at DESC`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

func (s *PostgresStorage) MarkRead(ctx context.Context, userID, id string) error {
	// read stays monotonic: already-read rows match the WHERE but keep
	// their original read_at.
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET read = true, read_at = COALESCE(read_at, now())
		WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *PostgresStorage) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET read = true, read_at = now()
		WHERE user_id = $1 AND read = false`,
		userID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStorage) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM notifications
		WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *PostgresStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM notifications
		WHERE user_id = $1
		  AND read = false
		  AND (expires_at IS NULL OR expires_at > now())`,
		userID,
	).Scan(&count)
	return count, err
}

func (s *PostgresStorage) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM notifications
		WHERE read = true AND created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Storage = (*PostgresStorage)(nil)
