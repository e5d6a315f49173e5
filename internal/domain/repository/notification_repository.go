package repository

import (
	"context"
	"time"

	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

// NotificationRepository persistencia de notificaciones.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListByUser(ctx context.Context, userID string, onlyUnread bool, limit, offset int) ([]*entity.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string, at time.Time) (bool, error)
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
	DeleteReadBefore(ctx context.Context, before time.Time) (int, error)
}
