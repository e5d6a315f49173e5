package repository

import (
	"context"

	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

// ClientFilter filtros de listado de clientes.
type ClientFilter struct {
	Search          string // ya normalizado (textnorm.Fold)
	IncludeInactive bool
	Limit           int
	Offset          int
}

// ClientRepository persistencia de clientes.
type ClientRepository interface {
	Create(ctx context.Context, c *entity.Client) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Client, error)
	GetActiveByNIP(ctx context.Context, companyID, nip string) (*entity.Client, error)
	Update(ctx context.Context, c *entity.Client) error
	List(ctx context.Context, companyID string, f ClientFilter) ([]*entity.Client, int, error)
	CountByIcon(ctx context.Context, companyID, iconID string) (int, error)
}

// ClientFieldRepository definiciones de campos personalizados.
type ClientFieldRepository interface {
	Create(ctx context.Context, f *entity.ClientFieldDefinition) error
	GetByID(ctx context.Context, companyID, id string) (*entity.ClientFieldDefinition, error)
	Update(ctx context.Context, f *entity.ClientFieldDefinition) error
	ListActive(ctx context.Context, companyID string) ([]*entity.ClientFieldDefinition, error)
}

// ClientIconRepository metadatos de íconos subidos.
type ClientIconRepository interface {
	Create(ctx context.Context, icon *entity.ClientIcon) error
	GetByID(ctx context.Context, companyID, id string) (*entity.ClientIcon, error)
	List(ctx context.Context, companyID string) ([]*entity.ClientIcon, error)
	Delete(ctx context.Context, companyID, id string) error
}
