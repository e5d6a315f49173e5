package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
	"github.com/jhoicas/OficinaContable-api/pkg/logger"
)

// Decisiones cacheadas de permisos.
const (
	decisionOK       = "ok"
	decisionDisabled = "disabled"
	decisionDenied   = "denied"
)

// ModuleCatalog lectura del catálogo de módulos (modules.Registry).
type ModuleCatalog interface {
	List(ctx context.Context) ([]*entity.Module, error)
	ListActive(ctx context.Context) ([]*entity.Module, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Module, error)
}

// Notifier crea notificaciones para usuarios.
type Notifier interface {
	Notify(ctx context.Context, n *entity.Notification) error
}

// ModuleService decide qué puede hacer cada usuario sobre cada módulo y gestiona
// los accesos de empresas y los permisos de empleados.
// Es el único punto de la aplicación que conoce la lógica de activación de módulos.
type ModuleService struct {
	catalog   ModuleCatalog
	companies repository.CompanyRepository
	users     repository.UserRepository
	access    repository.CompanyModuleRepository
	perms     repository.UserPermissionRepository
	tx        ports.TxRunner
	cache     ports.PermissionCache // nil = sin caché
	notifier  Notifier              // nil = sin notificaciones
	log       *logger.Logger
	now       func() time.Time
}

// ModuleServiceDeps dependencias de ModuleService.
type ModuleServiceDeps struct {
	Catalog     ModuleCatalog
	Companies   repository.CompanyRepository
	Users       repository.UserRepository
	Access      repository.CompanyModuleRepository
	Permissions repository.UserPermissionRepository
	Tx          ports.TxRunner
	Cache       ports.PermissionCache
	Notifier    Notifier
	Log         *logger.Logger
}

// NewModuleService construye el servicio de módulos.
func NewModuleService(d ModuleServiceDeps) *ModuleService {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &ModuleService{
		catalog:   d.Catalog,
		companies: d.Companies,
		users:     d.Users,
		access:    d.Access,
		perms:     d.Permissions,
		tx:        d.Tx,
		cache:     d.Cache,
		notifier:  d.Notifier,
		log:       log.Component("rbac"),
		now:       time.Now,
	}
}

// HasPermission informa si el actor puede ejecutar action sobre el módulo.
// Devuelve error solo ante fallos de infraestructura (DB caída, timeout, etc.).
func (s *ModuleService) HasPermission(ctx context.Context, a Actor, slug, action string) (bool, error) {
	err := s.Check(ctx, a, slug, action)
	switch {
	case err == nil:
		return true, nil
	case isAccessDenial(err):
		return false, nil
	default:
		return false, err
	}
}

// Check devuelve nil si el actor puede ejecutar action sobre el módulo,
// domain.ErrModuleNotEnabled si la empresa no lo tiene vigente y
// domain.ErrPermissionDenied si el empleado no tiene la acción concedida.
func (s *ModuleService) Check(ctx context.Context, a Actor, slug, action string) error {
	if slug == "" || action == "" {
		return fmt.Errorf("module: slug y action son obligatorios")
	}
	if a.IsAdmin() {
		return nil
	}
	if a.CompanyID == "" || a.UserID == "" {
		return domain.ErrForbidden
	}

	key := fmt.Sprintf("perm:%s:%s:%s:%s", a.CompanyID, a.UserID, slug, action)
	if s.cache != nil {
		if d, found, err := s.cache.Get(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("caché de permisos no disponible")
		} else if found {
			return decisionErr(d)
		}
	}

	err := s.decide(ctx, a, slug, action)
	if err != nil && !isAccessDenial(err) {
		return err
	}
	if s.cache != nil {
		if cerr := s.cache.Set(ctx, key, errDecision(err)); cerr != nil {
			s.log.Warn().Err(cerr).Str("key", key).Msg("no se pudo cachear la decisión")
		}
	}
	return err
}

func (s *ModuleService) decide(ctx context.Context, a Actor, slug, action string) error {
	mod, err := s.catalog.GetBySlug(ctx, slug)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrModuleNotEnabled
	}
	if err != nil {
		return err
	}
	if !mod.IsActive {
		return domain.ErrModuleNotEnabled
	}
	acc, err := s.access.Get(ctx, a.CompanyID, slug)
	if err != nil {
		return err
	}
	if !acc.Effective(s.now()) {
		return domain.ErrModuleNotEnabled
	}
	if !mod.Supports(action) {
		return domain.ErrPermissionDenied
	}
	if a.IsOwner() {
		return nil
	}
	ok, err := s.perms.EmployeeCan(ctx, a.UserID, a.CompanyID, slug, action)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrPermissionDenied
	}
	return nil
}

func isAccessDenial(err error) bool {
	return errors.Is(err, domain.ErrModuleNotEnabled) || errors.Is(err, domain.ErrPermissionDenied) || errors.Is(err, domain.ErrForbidden)
}

func errDecision(err error) string {
	switch err {
	case nil:
		return decisionOK
	case domain.ErrModuleNotEnabled:
		return decisionDisabled
	default:
		return decisionDenied
	}
}

func decisionErr(d string) error {
	switch d {
	case decisionOK:
		return nil
	case decisionDisabled:
		return domain.ErrModuleNotEnabled
	default:
		return domain.ErrPermissionDenied
	}
}

// ---- administración (admin de plataforma) ----

// ListCompanyModules devuelve los accesos de la empresa con su estado vigente.
func (s *ModuleService) ListCompanyModules(ctx context.Context, companyID string) ([]dto.CompanyModuleResponse, error) {
	if _, err := s.mustCompany(ctx, companyID); err != nil {
		return nil, err
	}
	list, err := s.access.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]dto.CompanyModuleResponse, 0, len(list))
	for _, acc := range list {
		name := acc.ModuleSlug
		if m, err := s.catalog.GetBySlug(ctx, acc.ModuleSlug); err == nil {
			name = m.Name
		}
		out = append(out, dto.CompanyModuleResponse{
			ModuleSlug:  acc.ModuleSlug,
			ModuleName:  name,
			IsActive:    acc.IsActive,
			Effective:   acc.Effective(now),
			ActivatedAt: acc.ActivatedAt,
			ExpiresAt:   acc.ExpiresAt,
		})
	}
	return out, nil
}

// Grant activa (o reactiva) un módulo para una empresa. El módulo debe existir y estar activo.
func (s *ModuleService) Grant(ctx context.Context, companyID, slug string, expiresAt *time.Time) (*dto.CompanyModuleResponse, error) {
	if _, err := s.mustCompany(ctx, companyID); err != nil {
		return nil, err
	}
	mod, err := s.catalog.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !mod.IsActive {
		return nil, domain.ErrNotFound
	}
	now := s.now()
	if expiresAt != nil && !expiresAt.After(now) {
		return nil, domain.Invalid("expires_at", "debe ser una fecha futura")
	}
	acc := &entity.CompanyModuleAccess{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		ModuleSlug:  slug,
		IsActive:    true,
		ActivatedAt: now,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.access.Grant(ctx, acc); err != nil {
		return nil, err
	}
	s.invalidateCompany(ctx, companyID)
	s.log.Info().Str("company_id", companyID).Str("module", slug).Msg("módulo activado")
	return &dto.CompanyModuleResponse{
		ModuleSlug:  slug,
		ModuleName:  mod.Name,
		IsActive:    true,
		Effective:   true,
		ActivatedAt: acc.ActivatedAt,
		ExpiresAt:   expiresAt,
	}, nil
}

// GrantDefaults activa los módulos marcados defaultForNewCompanies (alta de empresa).
func (s *ModuleService) GrantDefaults(ctx context.Context, companyID string) error {
	mods, err := s.catalog.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, m := range mods {
		if !m.DefaultForNewCompanies {
			continue
		}
		if _, err := s.Grant(ctx, companyID, m.Slug, nil); err != nil {
			return fmt.Errorf("activar módulo por defecto %s: %w", m.Slug, err)
		}
	}
	return nil
}

// Revoke desactiva el acceso y borra, en la misma transacción, los permisos de todos los
// empleados de la empresa sobre ese módulo.
func (s *ModuleService) Revoke(ctx context.Context, companyID, slug string) (*dto.RevokeModuleResponse, error) {
	var (
		affected []string
		deleted  int
	)
	err := s.tx.Run(ctx, func(r ports.TxRepos) error {
		ok, err := r.CompanyModules.Revoke(ctx, companyID, slug)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotFound
		}
		if affected, err = r.Permissions.UsersByCompanyModule(ctx, companyID, slug); err != nil {
			return err
		}
		deleted, err = r.Permissions.DeleteByCompanyModule(ctx, companyID, slug)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidateCompany(ctx, companyID)
	s.log.Info().Str("company_id", companyID).Str("module", slug).Int("permissions_deleted", deleted).Msg("módulo revocado")
	for _, uid := range affected {
		s.notify(ctx, &entity.Notification{
			CompanyID: companyID,
			UserID:    uid,
			Type:      entity.NotificationModuleRevoked,
			Title:     "Módulo desactivado",
			Message:   fmt.Sprintf("El módulo %s ya no está disponible para tu empresa.", slug),
		})
	}
	return &dto.RevokeModuleResponse{ModuleSlug: slug, PermissionsDeleted: deleted}, nil
}

// ---- empresa (dueño) ----

// EnabledModules módulos vigentes de la empresa con las acciones que declaran.
func (s *ModuleService) EnabledModules(ctx context.Context, companyID string) ([]dto.ModuleAccessView, error) {
	mods, err := s.enabled(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ModuleAccessView, 0, len(mods))
	for _, m := range mods {
		out = append(out, moduleView(m, m.Permissions))
	}
	return out, nil
}

// ModulesFor módulos accesibles por el actor y sus acciones (para /auth/me).
func (s *ModuleService) ModulesFor(ctx context.Context, a Actor) ([]dto.ModuleAccessView, error) {
	if a.IsAdmin() {
		mods, err := s.catalog.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]dto.ModuleAccessView, 0, len(mods))
		for _, m := range mods {
			out = append(out, moduleView(m, m.Permissions))
		}
		return out, nil
	}
	if a.IsOwner() {
		return s.EnabledModules(ctx, a.CompanyID)
	}
	mods, err := s.enabled(ctx, a.CompanyID)
	if err != nil {
		return nil, err
	}
	grants, err := s.perms.ListByUser(ctx, a.UserID)
	if err != nil {
		return nil, err
	}
	bySlug := make(map[string]*entity.UserModulePermission, len(grants))
	for _, g := range grants {
		bySlug[g.ModuleSlug] = g
	}
	out := make([]dto.ModuleAccessView, 0, len(grants))
	for _, m := range mods {
		g, ok := bySlug[m.Slug]
		if !ok {
			continue
		}
		var actions []string
		for _, p := range g.Permissions {
			if m.Supports(p) {
				actions = append(actions, p)
			}
		}
		if len(actions) > 0 {
			out = append(out, moduleView(m, actions))
		}
	}
	return out, nil
}

// EmployeePermissions permisos de un empleado de la empresa.
func (s *ModuleService) EmployeePermissions(ctx context.Context, companyID, employeeID string) ([]dto.PermissionResponse, error) {
	if _, err := s.mustEmployee(ctx, companyID, employeeID); err != nil {
		return nil, err
	}
	list, err := s.perms.ListByUser(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PermissionResponse, 0, len(list))
	for _, p := range list {
		out = append(out, dto.PermissionResponse{ModuleSlug: p.ModuleSlug, Permissions: p.Permissions})
	}
	return out, nil
}

// SetEmployeePermissions reemplaza las acciones del empleado sobre un módulo. Lista vacía = borrar.
func (s *ModuleService) SetEmployeePermissions(ctx context.Context, companyID, employeeID, slug string, actions []string) (*dto.PermissionResponse, error) {
	if _, err := s.mustEmployee(ctx, companyID, employeeID); err != nil {
		return nil, err
	}
	mod, err := s.catalog.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	acc, err := s.access.Get(ctx, companyID, slug)
	if err != nil {
		return nil, err
	}
	if !mod.IsActive || !acc.Effective(s.now()) {
		return nil, domain.ErrModuleNotEnabled
	}
	for _, a := range actions {
		if !entity.IsValidAction(a) {
			return nil, domain.Invalid("permissions", fmt.Sprintf("acción desconocida %q", a))
		}
	}
	var granted []string
	for _, a := range entity.AllActions {
		if !slices.Contains(actions, a) {
			continue
		}
		if !mod.Supports(a) {
			return nil, domain.Invalid("permissions", fmt.Sprintf("el módulo %s no admite la acción %q", slug, a))
		}
		granted = append(granted, a)
	}

	if len(granted) == 0 {
		if _, err := s.perms.Delete(ctx, employeeID, slug); err != nil {
			return nil, err
		}
	} else {
		now := s.now()
		p := &entity.UserModulePermission{
			ID:          uuid.New().String(),
			UserID:      employeeID,
			CompanyID:   companyID,
			ModuleSlug:  slug,
			Permissions: granted,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.perms.Upsert(ctx, p); err != nil {
			return nil, err
		}
	}
	s.invalidateUser(ctx, companyID, employeeID)
	s.notify(ctx, &entity.Notification{
		CompanyID: companyID,
		UserID:    employeeID,
		Type:      entity.NotificationPermissionsChanged,
		Title:     "Permisos actualizados",
		Message:   fmt.Sprintf("Tus permisos sobre %s han cambiado.", mod.Name),
	})
	if granted == nil {
		granted = []string{}
	}
	return &dto.PermissionResponse{ModuleSlug: slug, Permissions: granted}, nil
}

// DeleteEmployeePermissions quita todos los permisos del empleado sobre un módulo.
func (s *ModuleService) DeleteEmployeePermissions(ctx context.Context, companyID, employeeID, slug string) error {
	if _, err := s.mustEmployee(ctx, companyID, employeeID); err != nil {
		return err
	}
	ok, err := s.perms.Delete(ctx, employeeID, slug)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	s.invalidateUser(ctx, companyID, employeeID)
	return nil
}

// InvalidateUser descarta las decisiones cacheadas de un usuario (p.ej. al desactivarlo).
func (s *ModuleService) InvalidateUser(ctx context.Context, companyID, userID string) {
	s.invalidateUser(ctx, companyID, userID)
}

func (s *ModuleService) enabled(ctx context.Context, companyID string) ([]*entity.Module, error) {
	list, err := s.access.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var out []*entity.Module
	for _, acc := range list {
		if !acc.Effective(now) {
			continue
		}
		m, err := s.catalog.GetBySlug(ctx, acc.ModuleSlug)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if m.IsActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *ModuleService) mustCompany(ctx context.Context, id string) (*entity.Company, error) {
	c, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (s *ModuleService) mustEmployee(ctx context.Context, companyID, userID string) (*entity.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil || u.CompanyID != companyID || u.Role != entity.RoleEmployee {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (s *ModuleService) invalidateCompany(ctx context.Context, companyID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCompany(ctx, companyID); err != nil {
		s.log.Warn().Err(err).Str("company_id", companyID).Msg("no se pudo invalidar la caché de permisos")
	}
}

func (s *ModuleService) invalidateUser(ctx context.Context, companyID, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUser(ctx, companyID, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("no se pudo invalidar la caché de permisos")
	}
}

func (s *ModuleService) notify(ctx context.Context, n *entity.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Warn().Err(err).Str("user_id", n.UserID).Str("type", n.Type).Msg("no se pudo notificar")
	}
}

func moduleView(m *entity.Module, actions []string) dto.ModuleAccessView {
	return dto.ModuleAccessView{
		Slug:        m.Slug,
		Name:        m.Name,
		Icon:        m.Icon,
		Category:    m.Category,
		Permissions: actions,
	}
}

// ToModuleResponse convierte un módulo del catálogo a su DTO.
func ToModuleResponse(m *entity.Module) dto.ModuleResponse {
	return dto.ModuleResponse{
		ID:                     m.ID,
		Slug:                   m.Slug,
		Name:                   m.Name,
		Description:            m.Description,
		Version:                m.Version,
		Category:               m.Category,
		Icon:                   m.Icon,
		Permissions:            m.Permissions,
		DefaultForNewCompanies: m.DefaultForNewCompanies,
		IsActive:               m.IsActive,
		UpdatedAt:              m.UpdatedAt,
	}
}
