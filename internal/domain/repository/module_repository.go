package repository

import (
	"context"

	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

// ModuleRepository persistencia del catálogo de módulos.
type ModuleRepository interface {
	List(ctx context.Context) ([]*entity.Module, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Module, error)
	// Upsert inserta o actualiza por slug; devuelve true si el módulo es nuevo.
	Upsert(ctx context.Context, m *entity.Module) (bool, error)
	// DeactivateMissing marca is_active=false en los módulos cuyo slug no está en keep.
	DeactivateMissing(ctx context.Context, keep []string) (int, error)
}

// CompanyModuleRepository accesos de empresas a módulos (company_modules).
type CompanyModuleRepository interface {
	Get(ctx context.Context, companyID, moduleSlug string) (*entity.CompanyModuleAccess, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.CompanyModuleAccess, error)
	// Grant activa (o reactiva) el acceso.
	Grant(ctx context.Context, access *entity.CompanyModuleAccess) error
	// Revoke desactiva el acceso; devuelve false si no había acceso activo.
	Revoke(ctx context.Context, companyID, moduleSlug string) (bool, error)
	HasActiveModule(ctx context.Context, companyID, moduleSlug string) (bool, error)
}

// UserPermissionRepository permisos por módulo de los empleados.
type UserPermissionRepository interface {
	Get(ctx context.Context, userID, moduleSlug string) (*entity.UserModulePermission, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.UserModulePermission, error)
	Upsert(ctx context.Context, p *entity.UserModulePermission) error
	Delete(ctx context.Context, userID, moduleSlug string) (bool, error)
	// DeleteByCompanyModule borra los permisos de todos los empleados de la empresa sobre el módulo.
	DeleteByCompanyModule(ctx context.Context, companyID, moduleSlug string) (int, error)
	// UsersByCompanyModule devuelve los IDs de usuarios con permisos sobre el módulo.
	UsersByCompanyModule(ctx context.Context, companyID, moduleSlug string) ([]string, error)
	// EmployeeCan resuelve en una consulta: usuario activo + acceso de empresa vigente + acción concedida.
	EmployeeCan(ctx context.Context, userID, companyID, moduleSlug, action string) (bool, error)
}
