package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
)

var (
	_ repository.ModuleRepository         = (*ModuleRepo)(nil)
	_ repository.CompanyModuleRepository  = (*CompanyModuleRepo)(nil)
	_ repository.UserPermissionRepository = (*UserPermissionRepo)(nil)
)

const moduleColumns = `id, slug, name, description, version, category, icon, permissions,
	default_for_new_companies, is_active, created_at, updated_at`

// ModuleRepo catálogo de módulos (tabla modules).
type ModuleRepo struct {
	q Querier
}

// NewModuleRepository construye el adaptador. Acepta pool o tx (Querier).
func NewModuleRepository(q Querier) *ModuleRepo {
	return &ModuleRepo{q: q}
}

// List devuelve todos los módulos ordenados por slug.
func (r *ModuleRepo) List(ctx context.Context) ([]*entity.Module, error) {
	rows, err := r.q.Query(ctx, `SELECT `+moduleColumns+` FROM modules ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()
	var list []*entity.Module
	for rows.Next() {
		var m entity.Module
		if err := rows.Scan(&m.ID, &m.Slug, &m.Name, &m.Description, &m.Version, &m.Category, &m.Icon,
			&m.Permissions, &m.DefaultForNewCompanies, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// GetBySlug obtiene un módulo por slug.
func (r *ModuleRepo) GetBySlug(ctx context.Context, slug string) (*entity.Module, error) {
	var m entity.Module
	err := r.q.QueryRow(ctx, `SELECT `+moduleColumns+` FROM modules WHERE slug = $1`, slug).Scan(
		&m.ID, &m.Slug, &m.Name, &m.Description, &m.Version, &m.Category, &m.Icon,
		&m.Permissions, &m.DefaultForNewCompanies, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get module: %w", err)
	}
	return &m, nil
}

// Upsert inserta o actualiza por slug. xmax = 0 identifica la fila recién insertada.
func (r *ModuleRepo) Upsert(ctx context.Context, m *entity.Module) (bool, error) {
	query := `
		INSERT INTO modules (id, slug, name, description, version, category, icon, permissions,
		                     default_for_new_companies, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, $10, $10)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			version = EXCLUDED.version,
			category = EXCLUDED.category,
			icon = EXCLUDED.icon,
			permissions = EXCLUDED.permissions,
			default_for_new_companies = EXCLUDED.default_for_new_companies,
			is_active = TRUE,
			updated_at = EXCLUDED.updated_at
		RETURNING id, (xmax = 0)`
	var inserted bool
	err := r.q.QueryRow(ctx, query,
		m.ID, m.Slug, m.Name, m.Description, m.Version, m.Category, m.Icon, m.Permissions,
		m.DefaultForNewCompanies, m.UpdatedAt,
	).Scan(&m.ID, &inserted)
	if err != nil {
		return false, wrap("upsert module", err)
	}
	m.IsActive = true
	return inserted, nil
}

// DeactivateMissing marca inactivos los módulos activos cuyo slug no está en keep.
func (r *ModuleRepo) DeactivateMissing(ctx context.Context, keep []string) (int, error) {
	if keep == nil {
		keep = []string{}
	}
	cmd, err := r.q.Exec(ctx, `
		UPDATE modules SET is_active = FALSE, updated_at = now()
		WHERE is_active AND NOT (slug = ANY($1))`, keep)
	if err != nil {
		return 0, fmt.Errorf("deactivate modules: %w", err)
	}
	return int(cmd.RowsAffected()), nil
}

const accessColumns = `id, company_id, module_slug, is_active, activated_at, expires_at, created_at, updated_at`

// CompanyModuleRepo accesos de empresas a módulos (company_modules).
type CompanyModuleRepo struct {
	q Querier
}

// NewCompanyModuleRepository construye el adaptador. Acepta pool o tx (Querier).
func NewCompanyModuleRepository(q Querier) *CompanyModuleRepo {
	return &CompanyModuleRepo{q: q}
}

// Get acceso de la empresa al módulo (activo o no).
func (r *CompanyModuleRepo) Get(ctx context.Context, companyID, moduleSlug string) (*entity.CompanyModuleAccess, error) {
	var a entity.CompanyModuleAccess
	err := r.q.QueryRow(ctx, `SELECT `+accessColumns+` FROM company_modules WHERE company_id = $1 AND module_slug = $2`,
		companyID, moduleSlug).Scan(
		&a.ID, &a.CompanyID, &a.ModuleSlug, &a.IsActive, &a.ActivatedAt, &a.ExpiresAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company module: %w", err)
	}
	return &a, nil
}

// ListByCompany accesos de la empresa.
func (r *CompanyModuleRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.CompanyModuleAccess, error) {
	rows, err := r.q.Query(ctx, `SELECT `+accessColumns+` FROM company_modules WHERE company_id = $1 ORDER BY module_slug`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list company modules: %w", err)
	}
	defer rows.Close()
	var list []*entity.CompanyModuleAccess
	for rows.Next() {
		var a entity.CompanyModuleAccess
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.ModuleSlug, &a.IsActive, &a.ActivatedAt, &a.ExpiresAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan company module: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

// Grant activa (o reactiva) el acceso; la fila existente conserva su id y created_at.
func (r *CompanyModuleRepo) Grant(ctx context.Context, a *entity.CompanyModuleAccess) error {
	query := `
		INSERT INTO company_modules (id, company_id, module_slug, is_active, activated_at, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, $4, $5, $6, $6)
		ON CONFLICT (company_id, module_slug) DO UPDATE SET
			is_active = TRUE,
			activated_at = EXCLUDED.activated_at,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
		RETURNING id`
	err := r.q.QueryRow(ctx, query, a.ID, a.CompanyID, a.ModuleSlug, a.ActivatedAt, a.ExpiresAt, a.UpdatedAt).Scan(&a.ID)
	if err != nil {
		return wrap("grant module", err)
	}
	a.IsActive = true
	return nil
}

// Revoke desactiva el acceso; false si no había acceso activo.
func (r *CompanyModuleRepo) Revoke(ctx context.Context, companyID, moduleSlug string) (bool, error) {
	cmd, err := r.q.Exec(ctx, `
		UPDATE company_modules SET is_active = FALSE, updated_at = now()
		WHERE company_id = $1 AND module_slug = $2 AND is_active`, companyID, moduleSlug)
	if err != nil {
		return false, fmt.Errorf("revoke module: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

// HasActiveModule informa si la empresa tiene el módulo activo y sin vencer.
// Consulta directamente company_modules para una respuesta O(1) vía índice.
func (r *CompanyModuleRepo) HasActiveModule(ctx context.Context, companyID, moduleSlug string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM company_modules cm
			  JOIN modules m ON m.slug = cm.module_slug
			 WHERE cm.company_id  = $1
			   AND cm.module_slug = $2
			   AND cm.is_active   = true
			   AND m.is_active    = true
			   AND (cm.expires_at IS NULL OR cm.expires_at > now())
		)`
	var active bool
	if err := r.q.QueryRow(ctx, query, companyID, moduleSlug).Scan(&active); err != nil {
		return false, fmt.Errorf("check module %s: %w", moduleSlug, err)
	}
	return active, nil
}

const permColumns = `id, user_id, company_id, module_slug, permissions, created_at, updated_at`

// UserPermissionRepo permisos por módulo de los empleados.
type UserPermissionRepo struct {
	q Querier
}

// NewUserPermissionRepository construye el adaptador. Acepta pool o tx (Querier).
func NewUserPermissionRepository(q Querier) *UserPermissionRepo {
	return &UserPermissionRepo{q: q}
}

// Get permisos del usuario sobre el módulo.
func (r *UserPermissionRepo) Get(ctx context.Context, userID, moduleSlug string) (*entity.UserModulePermission, error) {
	var p entity.UserModulePermission
	err := r.q.QueryRow(ctx, `SELECT `+permColumns+` FROM user_module_permissions WHERE user_id = $1 AND module_slug = $2`,
		userID, moduleSlug).Scan(&p.ID, &p.UserID, &p.CompanyID, &p.ModuleSlug, &p.Permissions, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get permission: %w", err)
	}
	return &p, nil
}

// ListByUser todos los permisos del usuario.
func (r *UserPermissionRepo) ListByUser(ctx context.Context, userID string) ([]*entity.UserModulePermission, error) {
	rows, err := r.q.Query(ctx, `SELECT `+permColumns+` FROM user_module_permissions WHERE user_id = $1 ORDER BY module_slug`, userID)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer rows.Close()
	var list []*entity.UserModulePermission
	for rows.Next() {
		var p entity.UserModulePermission
		if err := rows.Scan(&p.ID, &p.UserID, &p.CompanyID, &p.ModuleSlug, &p.Permissions, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// Upsert crea o reemplaza las acciones del usuario sobre el módulo.
func (r *UserPermissionRepo) Upsert(ctx context.Context, p *entity.UserModulePermission) error {
	query := `
		INSERT INTO user_module_permissions (id, user_id, company_id, module_slug, permissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (user_id, module_slug) DO UPDATE SET
			permissions = EXCLUDED.permissions,
			updated_at = EXCLUDED.updated_at
		RETURNING id`
	if err := r.q.QueryRow(ctx, query, p.ID, p.UserID, p.CompanyID, p.ModuleSlug, p.Permissions, p.UpdatedAt).Scan(&p.ID); err != nil {
		return wrap("upsert permission", err)
	}
	return nil
}

// Delete borra los permisos del usuario sobre el módulo.
func (r *UserPermissionRepo) Delete(ctx context.Context, userID, moduleSlug string) (bool, error) {
	cmd, err := r.q.Exec(ctx, `DELETE FROM user_module_permissions WHERE user_id = $1 AND module_slug = $2`, userID, moduleSlug)
	if err != nil {
		return false, fmt.Errorf("delete permission: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

// DeleteByCompanyModule borra los permisos de toda la empresa sobre el módulo.
func (r *UserPermissionRepo) DeleteByCompanyModule(ctx context.Context, companyID, moduleSlug string) (int, error) {
	cmd, err := r.q.Exec(ctx, `DELETE FROM user_module_permissions WHERE company_id = $1 AND module_slug = $2`, companyID, moduleSlug)
	if err != nil {
		return 0, fmt.Errorf("delete company permissions: %w", err)
	}
	return int(cmd.RowsAffected()), nil
}

// UsersByCompanyModule IDs de usuarios con permisos sobre el módulo.
func (r *UserPermissionRepo) UsersByCompanyModule(ctx context.Context, companyID, moduleSlug string) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT user_id FROM user_module_permissions WHERE company_id = $1 AND module_slug = $2`, companyID, moduleSlug)
	if err != nil {
		return nil, fmt.Errorf("users by module: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// EmployeeCan resuelve en una consulta: usuario activo de la empresa, acceso vigente y acción concedida.
func (r *UserPermissionRepo) EmployeeCan(ctx context.Context, userID, companyID, moduleSlug, action string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1
			  FROM user_module_permissions p
			  JOIN users u           ON u.id = p.user_id
			  JOIN company_modules cm ON cm.company_id = p.company_id AND cm.module_slug = p.module_slug
			 WHERE p.user_id     = $1
			   AND p.company_id  = $2
			   AND p.module_slug = $3
			   AND $4 = ANY(p.permissions)
			   AND u.is_active
			   AND u.company_id = $2
			   AND cm.is_active
			   AND (cm.expires_at IS NULL OR cm.expires_at > now())
		)`
	var ok bool
	if err := r.q.QueryRow(ctx, query, userID, companyID, moduleSlug, action).Scan(&ok); err != nil {
		return false, fmt.Errorf("employee can: %w", err)
	}
	return ok, nil
}
