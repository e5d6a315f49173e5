package repository

import (
	"context"

	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

// EmailConfigRepository configuración de buzón por usuario.
type EmailConfigRepository interface {
	GetByUser(ctx context.Context, userID string) (*entity.EmailConfig, error)
	Upsert(ctx context.Context, cfg *entity.EmailConfig) error
	DeleteByUser(ctx context.Context, userID string) (bool, error)
}
