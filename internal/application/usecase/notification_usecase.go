package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
	"github.com/jhoicas/OficinaContable-api/pkg/logger"
)

// NotificationUseCase persiste y publica notificaciones de usuario.
type NotificationUseCase struct {
	repo      repository.NotificationRepository
	publisher ports.NotificationPublisher // nil = sin broker
	log       *logger.Logger
}

// NewNotificationUseCase construye el caso de uso.
func NewNotificationUseCase(repo repository.NotificationRepository, publisher ports.NotificationPublisher, log *logger.Logger) *NotificationUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &NotificationUseCase{repo: repo, publisher: publisher, log: log.Component("notifications")}
}

// Notify guarda la notificación y la publica en el broker si está configurado.
// Un fallo de publicación no anula la notificación ya guardada.
func (uc *NotificationUseCase) Notify(ctx context.Context, n *entity.Notification) error {
	if n.UserID == "" || n.Type == "" || n.Title == "" {
		return domain.Invalid("notification", "user_id, type y title son obligatorios")
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.IsRead = false
	n.ReadAt = nil
	n.CreatedAt = time.Now()
	if err := uc.repo.Create(ctx, n); err != nil {
		return err
	}
	if uc.publisher != nil {
		if err := uc.publisher.PublishNotification(ctx, n); err != nil {
			uc.log.Warn().Err(err).Str("notification_id", n.ID).Msg("no se pudo publicar la notificación")
		}
	}
	return nil
}

// List notificaciones del usuario, más recientes primero.
func (uc *NotificationUseCase) List(ctx context.Context, a Actor, onlyUnread bool, limit, offset int) ([]dto.NotificationResponse, error) {
	limit, offset = dto.NormalizePage(limit, offset)
	list, err := uc.repo.ListByUser(ctx, a.UserID, onlyUnread, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.NotificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, toNotificationResponse(n))
	}
	return out, nil
}

// UnreadCount número de notificaciones sin leer.
func (uc *NotificationUseCase) UnreadCount(ctx context.Context, a Actor) (int, error) {
	return uc.repo.CountUnread(ctx, a.UserID)
}

// MarkRead marca una notificación propia como leída.
func (uc *NotificationUseCase) MarkRead(ctx context.Context, a Actor, id string) error {
	ok, err := uc.repo.MarkRead(ctx, a.UserID, id, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// MarkAllRead marca todas las notificaciones del usuario como leídas.
func (uc *NotificationUseCase) MarkAllRead(ctx context.Context, a Actor) (int, error) {
	return uc.repo.MarkAllRead(ctx, a.UserID, time.Now())
}

// Delete borra una notificación propia.
func (uc *NotificationUseCase) Delete(ctx context.Context, a Actor, id string) error {
	ok, err := uc.repo.Delete(ctx, a.UserID, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// Cleanup borra las notificaciones leídas con más de retention de antigüedad.
func (uc *NotificationUseCase) Cleanup(ctx context.Context, retention time.Duration) (int, error) {
	n, err := uc.repo.DeleteReadBefore(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, err
	}
	uc.log.Info().Int("deleted", n).Msg("notificaciones leídas purgadas")
	return n, nil
}

func toNotificationResponse(n *entity.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
