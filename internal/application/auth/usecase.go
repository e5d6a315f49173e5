package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/application/usecase"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
	"github.com/jhoicas/OficinaContable-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// ModuleLister módulos accesibles por un actor (ModuleService).
type ModuleLister interface {
	ModulesFor(ctx context.Context, a usecase.Actor) ([]dto.ModuleAccessView, error)
}

// AuthUseCase casos de uso de autenticación: registro, login, perfil y cambio de contraseña.
type AuthUseCase struct {
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	modules     ModuleLister
	jwtCfg      JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, companyRepo repository.CompanyRepository, modules ModuleLister, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, companyRepo: companyRepo, modules: modules, jwtCfg: jwtCfg}
}

// RegisterUser crea un usuario: hashea password con bcrypt y persiste.
// Devuelve ErrEmailAlreadyExists si el email ya existe.
func (uc *AuthUseCase) RegisterUser(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	company, err := uc.companyRepo.GetByID(ctx, in.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil || !company.IsActive {
		return nil, domain.ErrNotFound // empresa no existe
	}
	role := in.Role
	if role == "" {
		role = entity.RoleEmployee
	}
	if role != entity.RoleCompanyOwner && role != entity.RoleEmployee {
		return nil, domain.Invalid("role", "solo company_owner o employee")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = email
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		CompanyID:    in.CompanyID,
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return usecase.ToUserResponse(user), nil
}

// Login verifica email/password, genera JWT y retorna token + usuario.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, domain.ErrForbidden
	}
	if user.Role != entity.RoleAdmin {
		company, err := uc.companyRepo.GetByID(ctx, user.CompanyID)
		if err != nil {
			return nil, err
		}
		if company == nil || !company.IsActive {
			return nil, domain.ErrForbidden
		}
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.CompanyID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  *usecase.ToUserResponse(user),
	}, nil
}

// Me devuelve el usuario actual y los módulos a los que tiene acceso.
func (uc *AuthUseCase) Me(ctx context.Context, a usecase.Actor) (*dto.MeResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, a.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, domain.ErrUnauthorized
	}
	mods := []dto.ModuleAccessView{}
	if uc.modules != nil {
		mods, err = uc.modules.ModulesFor(ctx, usecase.Actor{UserID: user.ID, CompanyID: user.CompanyID, Role: user.Role})
		if err != nil {
			return nil, err
		}
	}
	return &dto.MeResponse{User: *usecase.ToUserResponse(user), Modules: mods}, nil
}

// ChangePassword cambia la contraseña propia verificando la actual.
func (uc *AuthUseCase) ChangePassword(ctx context.Context, a usecase.Actor, in dto.ChangePasswordRequest) error {
	user, err := uc.userRepo.GetByID(ctx, a.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return domain.ErrUnauthorized
	}
	if len(in.NewPassword) < 8 {
		return domain.Invalid("new_password", "mínimo 8 caracteres")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now()
	return uc.userRepo.Update(ctx, user)
}

// SeedAdmin crea (o reactiva) un administrador de plataforma. Usado por cmd/admin.
func (uc *AuthUseCase) SeedAdmin(ctx context.Context, email, password, name string) (*dto.UserResponse, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return nil, false, domain.Invalid("password", "email obligatorio y password de al menos 8 caracteres")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, err
	}
	now := time.Now()
	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if existing.Role != entity.RoleAdmin {
			return nil, false, domain.ErrConflict
		}
		existing.PasswordHash = string(hash)
		existing.IsActive = true
		existing.UpdatedAt = now
		if err := uc.userRepo.Update(ctx, existing); err != nil {
			return nil, false, err
		}
		return usecase.ToUserResponse(existing), false, nil
	}
	if name == "" {
		name = "Administrador"
	}
	u := &entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         entity.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, u); err != nil {
		return nil, false, err
	}
	return usecase.ToUserResponse(u), true, nil
}
