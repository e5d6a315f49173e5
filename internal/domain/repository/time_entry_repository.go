package repository

import (
	"context"
	"time"

	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

// TimeEntryFilter filtros de listado de registros de tiempo.
type TimeEntryFilter struct {
	UserID   string
	ClientID string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// TimeEntryRepository persistencia de registros de tiempo.
type TimeEntryRepository interface {
	Create(ctx context.Context, e *entity.TimeEntry) error
	GetByID(ctx context.Context, companyID, id string) (*entity.TimeEntry, error)
	GetRunning(ctx context.Context, userID string) (*entity.TimeEntry, error)
	Update(ctx context.Context, e *entity.TimeEntry) error
	Delete(ctx context.Context, companyID, id string) error
	List(ctx context.Context, companyID string, f TimeEntryFilter) ([]*entity.TimeEntry, error)
}
