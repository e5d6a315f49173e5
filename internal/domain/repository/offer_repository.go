package repository

import (
	"context"

	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

// LeadRepository persistencia de leads.
type LeadRepository interface {
	Create(ctx context.Context, l *entity.Lead) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Lead, error)
	Update(ctx context.Context, l *entity.Lead) error
	Delete(ctx context.Context, companyID, id string) error
	List(ctx context.Context, companyID, status string, limit, offset int) ([]*entity.Lead, error)
}

// OfferRepository persistencia de ofertas con sus líneas.
type OfferRepository interface {
	// Create inserta la oferta y sus líneas (llamar dentro de una transacción).
	Create(ctx context.Context, o *entity.Offer) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Offer, error)
	// Update guarda cabecera y reemplaza líneas si o.Items != nil, solo si la versión
	// almacenada es expectedVersion; devuelve domain.ErrVersionConflict si no.
	Update(ctx context.Context, o *entity.Offer, expectedVersion int) error
	Delete(ctx context.Context, companyID, id string) error
	List(ctx context.Context, companyID, status string, limit, offset int) ([]*entity.Offer, error)
	// NextNumber devuelve el siguiente consecutivo del año para la empresa.
	NextNumber(ctx context.Context, companyID string, year int) (int, error)
}
