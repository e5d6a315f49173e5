package repository

import (
	"context"
	"time"

	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

// TaskFilter filtros de listado de tareas.
type TaskFilter struct {
	Status     string
	AssigneeID string
	ClientID   string
	DueBefore  *time.Time
	Limit      int
	Offset     int
}

// TaskRepository persistencia de tareas.
type TaskRepository interface {
	Create(ctx context.Context, t *entity.Task) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Task, error)
	Update(ctx context.Context, t *entity.Task) error
	Delete(ctx context.Context, companyID, id string) error
	List(ctx context.Context, companyID string, f TaskFilter) ([]*entity.Task, error)
	// DueForReminder tareas abiertas con vencimiento antes de until y sin recordatorio enviado.
	DueForReminder(ctx context.Context, until time.Time, limit int) ([]*entity.Task, error)
	MarkReminded(ctx context.Context, id string, at time.Time) error
}
