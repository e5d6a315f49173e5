package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

const notificationColumns = `id, COALESCE(company_id::text, ''), user_id, type, title, message, link, is_read, read_at, created_at`

// NotificationRepo avisos por usuario.
type NotificationRepo struct {
	q Querier
}

func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

func (r *NotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO notifications (id, company_id, user_id, type, title, message, link, is_read, read_at, created_at)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7, $8, $9, $10)`,
		n.ID, n.CompanyID, n.UserID, n.Type, n.Title, n.Message, n.Link, n.IsRead, n.ReadAt, n.CreatedAt)
	return wrap("insert notification", err)
}

// ListByUser más recientes primero.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, onlyUnread bool, limit, offset int) ([]*entity.Notification, error) {
	rows, err := r.q.Query(ctx, `SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR NOT is_read)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`, userID, onlyUnread, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	var list []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		if err := rows.Scan(&n.ID, &n.CompanyID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Link,
			&n.IsRead, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		list = append(list, &n)
	}
	return list, rows.Err()
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

// MarkRead false si la notificación no existe o es de otro usuario.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID, id string, at time.Time) (bool, error) {
	cmd, err := r.q.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE, read_at = COALESCE(read_at, $3)
		WHERE user_id = $1 AND id = $2`, userID, id, at)
	if err != nil {
		return false, fmt.Errorf("mark read: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	cmd, err := r.q.Exec(ctx, `UPDATE notifications SET is_read = TRUE, read_at = $2 WHERE user_id = $1 AND NOT is_read`, userID, at)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return int(cmd.RowsAffected()), nil
}

func (r *NotificationRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	cmd, err := r.q.Exec(ctx, `DELETE FROM notifications WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return false, fmt.Errorf("delete notification: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

// DeleteReadBefore limpieza periódica de notificaciones leídas.
func (r *NotificationRepo) DeleteReadBefore(ctx context.Context, before time.Time) (int, error) {
	cmd, err := r.q.Exec(ctx, `DELETE FROM notifications WHERE is_read AND created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("cleanup notifications: %w", err)
	}
	return int(cmd.RowsAffected()), nil
}
