package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
	"github.com/jhoicas/OficinaContable-api/pkg/logger"
	"github.com/jhoicas/OficinaContable-api/pkg/taxid"
)

// DefaultModuleGranter activa los módulos por defecto de una empresa nueva.
type DefaultModuleGranter interface {
	GrantDefaults(ctx context.Context, companyID string) error
}

// CompanyUseCase aplica reglas de negocio para empresas (casos de uso).
type CompanyUseCase struct {
	repo     repository.CompanyRepository
	defaults DefaultModuleGranter
	log      *logger.Logger
}

// NewCompanyUseCase construye el caso de uso con el puerto de persistencia.
func NewCompanyUseCase(repo repository.CompanyRepository, defaults DefaultModuleGranter, log *logger.Logger) *CompanyUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CompanyUseCase{repo: repo, defaults: defaults, log: log.Component("companies")}
}

// Create crea una nueva empresa y le activa los módulos por defecto.
// Devuelve domain.ErrDuplicate si el NIP ya existe.
func (uc *CompanyUseCase) Create(ctx context.Context, in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	nip := taxid.Normalize(in.NIP)
	if err := taxid.ValidateNIP(nip); err != nil {
		return nil, domain.Invalid("nip", "NIP inválido")
	}
	existing, err := uc.repo.GetByNIP(ctx, nip)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	company := &entity.Company{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(in.Name),
		NIP:       nip,
		Address:   in.Address,
		Phone:     in.Phone,
		Email:     in.Email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, company); err != nil {
		return nil, err
	}
	if uc.defaults != nil {
		if err := uc.defaults.GrantDefaults(ctx, company.ID); err != nil {
			uc.log.Error().Err(err).Str("company_id", company.ID).Msg("no se pudieron activar los módulos por defecto")
		}
	}
	return entityToCompanyResponse(company), nil
}

// GetByID obtiene una empresa por ID.
func (uc *CompanyUseCase) GetByID(ctx context.Context, id string) (*dto.CompanyResponse, error) {
	company, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	return entityToCompanyResponse(company), nil
}

// Update actualiza los campos enviados.
func (uc *CompanyUseCase) Update(ctx context.Context, id string, in dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	company, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	if in.NIP != nil {
		nip := taxid.Normalize(*in.NIP)
		if err := taxid.ValidateNIP(nip); err != nil {
			return nil, domain.Invalid("nip", "NIP inválido")
		}
		if nip != company.NIP {
			other, err := uc.repo.GetByNIP(ctx, nip)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != company.ID {
				return nil, domain.ErrDuplicate
			}
			company.NIP = nip
		}
	}
	if in.Name != nil {
		company.Name = strings.TrimSpace(*in.Name)
	}
	if in.Address != nil {
		company.Address = *in.Address
	}
	if in.Phone != nil {
		company.Phone = *in.Phone
	}
	if in.Email != nil {
		company.Email = *in.Email
	}
	if in.IsActive != nil {
		company.IsActive = *in.IsActive
	}
	company.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, company); err != nil {
		return nil, err
	}
	return entityToCompanyResponse(company), nil
}

// Deactivate baja lógica de la empresa.
func (uc *CompanyUseCase) Deactivate(ctx context.Context, id string) error {
	inactive := false
	_, err := uc.Update(ctx, id, dto.UpdateCompanyRequest{IsActive: &inactive})
	return err
}

// List lista empresas con paginación.
func (uc *CompanyUseCase) List(ctx context.Context, includeInactive bool, limit, offset int) (*dto.CompanyListResponse, error) {
	limit, offset = dto.NormalizePage(limit, offset)
	list, err := uc.repo.List(ctx, includeInactive, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CompanyResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *entityToCompanyResponse(c))
	}
	return &dto.CompanyListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func entityToCompanyResponse(c *entity.Company) *dto.CompanyResponse {
	if c == nil {
		return nil
	}
	return &dto.CompanyResponse{
		ID:        c.ID,
		Name:      c.Name,
		NIP:       c.NIP,
		Address:   c.Address,
		Phone:     c.Phone,
		Email:     c.Email,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
