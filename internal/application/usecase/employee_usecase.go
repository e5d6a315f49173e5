package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
)

// UserCacheInvalidator descarta decisiones de permisos cacheadas de un usuario.
type UserCacheInvalidator interface {
	InvalidateUser(ctx context.Context, companyID, userID string)
}

// EmployeeUseCase gestión de empleados por el dueño de la empresa.
type EmployeeUseCase struct {
	repo  repository.UserRepository
	cache UserCacheInvalidator
}

// NewEmployeeUseCase construye el caso de uso con el puerto de persistencia.
func NewEmployeeUseCase(repo repository.UserRepository, cache UserCacheInvalidator) *EmployeeUseCase {
	return &EmployeeUseCase{repo: repo, cache: cache}
}

// Create da de alta un empleado en la empresa del actor.
func (uc *EmployeeUseCase) Create(ctx context.Context, a Actor, in dto.CreateEmployeeRequest) (*dto.UserResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	existing, err := uc.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	u := &entity.User{
		ID:           uuid.New().String(),
		CompanyID:    a.CompanyID,
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(in.Name),
		Role:         entity.RoleEmployee,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return ToUserResponse(u), nil
}

// List usuarios de la empresa (activos salvo includeInactive).
func (uc *EmployeeUseCase) List(ctx context.Context, a Actor, includeInactive bool, limit, offset int) (*dto.UserListResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	limit, offset = dto.NormalizePage(limit, offset)
	list, err := uc.repo.ListByCompany(ctx, a.CompanyID, !includeInactive, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		items = append(items, *ToUserResponse(u))
	}
	return &dto.UserListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}}, nil
}

// Get obtiene un usuario de la empresa; de otra empresa = no encontrado.
func (uc *EmployeeUseCase) Get(ctx context.Context, a Actor, id string) (*dto.UserResponse, error) {
	u, err := uc.load(ctx, a, id)
	if err != nil {
		return nil, err
	}
	return ToUserResponse(u), nil
}

// Update actualiza nombre, email o estado de un empleado.
func (uc *EmployeeUseCase) Update(ctx context.Context, a Actor, id string, in dto.UpdateEmployeeRequest) (*dto.UserResponse, error) {
	u, err := uc.load(ctx, a, id)
	if err != nil {
		return nil, err
	}
	if in.IsActive != nil && !*in.IsActive && u.ID == a.UserID {
		return nil, domain.ErrConflict
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != u.Email {
			other, err := uc.repo.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if other != nil {
				return nil, domain.ErrEmailAlreadyExists
			}
			u.Email = email
		}
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	statusChanged := in.IsActive != nil && *in.IsActive != u.IsActive
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	u.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	if statusChanged && uc.cache != nil {
		uc.cache.InvalidateUser(ctx, u.CompanyID, u.ID)
	}
	return ToUserResponse(u), nil
}

// Deactivate baja lógica. El dueño no puede desactivarse a sí mismo.
func (uc *EmployeeUseCase) Deactivate(ctx context.Context, a Actor, id string) error {
	inactive := false
	_, err := uc.Update(ctx, a, id, dto.UpdateEmployeeRequest{IsActive: &inactive})
	return err
}

func (uc *EmployeeUseCase) load(ctx context.Context, a Actor, id string) (*entity.User, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	u, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil || u.CompanyID != a.CompanyID {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

// ToUserResponse convierte un usuario a su DTO (sin hash de contraseña).
func ToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		CompanyID: u.CompanyID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
