package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

const (
	companyA = "company-a"
	companyB = "company-b"
)

type rbacFixture struct {
	svc      *ModuleService
	access   *memAccess
	perms    *memPerms
	users    *memUsers
	cache    *memCache
	notifier *memNotifier
}

func newRBACFixture(t *testing.T) *rbacFixture {
	t.Helper()
	catalog := &memCatalog{mods: map[string]*entity.Module{
		"clients": {Slug: "clients", Name: "Clientes", Permissions: entity.AllActions, IsActive: true, DefaultForNewCompanies: true},
		"tasks":   {Slug: "tasks", Name: "Tareas", Permissions: []string{"read", "write"}, IsActive: true},
		"legacy":  {Slug: "legacy", Name: "Legacy", Permissions: entity.AllActions, IsActive: false},
	}}
	users := &memUsers{rows: map[string]*entity.User{
		"owner": {ID: "owner", CompanyID: companyA, Role: entity.RoleCompanyOwner, IsActive: true},
		"emp":   {ID: "emp", CompanyID: companyA, Role: entity.RoleEmployee, IsActive: true},
		"emp2":  {ID: "emp2", CompanyID: companyA, Role: entity.RoleEmployee, IsActive: true},
		"other": {ID: "other", CompanyID: companyB, Role: entity.RoleEmployee, IsActive: true},
	}}
	companies := &memCompanies{rows: map[string]*entity.Company{
		companyA: {ID: companyA, Name: "Biuro A", IsActive: true},
		companyB: {ID: companyB, Name: "Biuro B", IsActive: true},
	}}
	access := &memAccess{rows: map[string]*entity.CompanyModuleAccess{}}
	perms := &memPerms{rows: map[string]*entity.UserModulePermission{}, users: users}
	cache := &memCache{vals: map[string]string{}}
	notifier := &memNotifier{}
	svc := NewModuleService(ModuleServiceDeps{
		Catalog:     catalog,
		Companies:   companies,
		Users:       users,
		Access:      access,
		Permissions: perms,
		Tx:          txRunner{repos: ports.TxRepos{CompanyModules: access, Permissions: perms}},
		Cache:       cache,
		Notifier:    notifier,
	})
	return &rbacFixture{svc: svc, access: access, perms: perms, users: users, cache: cache, notifier: notifier}
}

var (
	owner    = Actor{UserID: "owner", CompanyID: companyA, Role: entity.RoleCompanyOwner}
	employee = Actor{UserID: "emp", CompanyID: companyA, Role: entity.RoleEmployee}
	admin    = Actor{UserID: "root", Role: entity.RoleAdmin}
)

func TestCheck_Admin(t *testing.T) {
	f := newRBACFixture(t)
	assert.NoError(t, f.svc.Check(context.Background(), admin, "clients", "delete"))
}

func TestCheck_ModuloNoActivoParaLaEmpresa(t *testing.T) {
	f := newRBACFixture(t)
	err := f.svc.Check(context.Background(), owner, "clients", "read")
	assert.ErrorIs(t, err, domain.ErrModuleNotEnabled)
}

func TestCheck_DueñoConModuloActivo(t *testing.T) {
	f := newRBACFixture(t)
	ctx := context.Background()
	_, err := f.svc.Grant(ctx, companyA, "clients", nil)
	require.NoError(t, err)

	assert.NoError(t, f.svc.Check(ctx, owner, "clients", "delete"))
	assert.ErrorIs(t, f.svc.Check(ctx, employee, "clients", "read"), domain.ErrPermissionDenied)
}

func TestCheck_AccesoVencido(t *testing.T) {
	f := newRBACFixture(t)
	past := time.Now().Add(-time.Hour)
	f.access.rows[accessKey(companyA, "clients")] = &entity.CompanyModuleAccess{
		CompanyID: companyA, ModuleSlug: "clients", IsActive: true, ExpiresAt: &past,
	}
	assert.ErrorIs(t, f.svc.Check(context.Background(), owner, "clients", "read"), domain.ErrModuleNotEnabled)
}

func TestCheck_AccionNoDeclaradaPorElModulo(t *testing.T) {
	f := newRBACFixture(t)
	ctx := context.Background()
	_, err := f.svc.Grant(ctx, companyA, "tasks", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.Check(ctx, owner, "tasks", "delete"), domain.ErrPermissionDenied)
}

func TestCheck_EmpleadoConPermiso(t *testing.T) {
	f := newRBACFixture(t)
	ctx := context.Background()
	_, err := f.svc.Grant(ctx, companyA, "clients", nil)
	require.NoError(t, err)
	_, err = f.svc.SetEmployeePermissions(ctx, companyA, "emp", "clients", []string{"write", "read"})
	require.NoError(t, err)

	ok, err := f.svc.HasPermission(ctx, employee, "clients", "read")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.HasPermission(ctx, employee, "clients", "delete")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheck_UsaLaCache(t *testing.T) {
	f := newRBACFixture(t)
	ctx := context.Background()
	f.cache.vals["perm:company-a:emp:clients:read"] = decisionOK

	assert.NoError(t, f.svc.Check(ctx, employee, "clients", "read"), "la decisión cacheada manda")

	_ = f.svc.Check(ctx, employee, "clients", "write")
	assert.Equal(t, decisionDisabled, f.cache.vals["perm:company-a:emp:clients:write"])
}

func TestGrant_ModuloInactivoOInexistente(t *testing.T) {
	f := newRBACFixture(t)
	ctx := context.Background()
	_, err := f.svc.Grant(ctx, companyA, "legacy", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.Grant(ctx, companyA, "nope", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.Grant(ctx, "no-company", "clients", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	past := time.Now().Add(-time.Minute)
	_, err = f.svc.Grant(ctx, companyA, "clients", &past)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGrantDefaults(t *testing.T) {
	f := newRBACFixture(t)
	require.NoError(t, f.svc.GrantDefaults(context.Background(), companyB))
	list, err := f.svc.ListCompanyModules(context.Background(), companyB)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "clients", list[0].ModuleSlug)
	assert.True(t, list[0].Effective)
}

func TestRevoke_BorraPermisosDeEmpleadosEnCascada(t *testing.T) {
	f := newRBACFixture(t)
	ctx := context.Background()
	_, err := f.svc.Grant(ctx, companyA, "clients", nil)
	require.NoError(t, err)
	_, err = f.svc.Grant(ctx, companyA, "tasks", nil)
	require.NoError(t, err)
	_, err = f.svc.SetEmployeePermissions(ctx, companyA, "emp", "clients", []string{"read"})
	require.NoError(t, err)
	_, err = f.svc.SetEmployeePermissions(ctx, companyA, "emp2", "clients", []string{"read", "write"})
	require.NoError(t, err)
	_, err = f.svc.SetEmployeePermissions(ctx, companyA, "emp", "tasks", []string{"read"})
	require.NoError(t, err)
	f.notifier.sent = nil

	res, err := f.svc.Revoke(ctx, companyA, "clients")
	require.NoError(t, err)
	assert.Equal(t, 2, res.PermissionsDeleted)

	p, _ := f.perms.Get(ctx, "emp", "clients")
	assert.Nil(t, p)
	p, _ = f.perms.Get(ctx, "emp", "tasks")
	assert.NotNil(t, p, "los permisos de otros módulos no se tocan")

	acc, _ := f.access.Get(ctx, companyA, "clients")
	require.NotNil(t, acc)
	assert.False(t, acc.IsActive, "el acceso se desactiva, no se borra")
	assert.Contains(t, f.cache.invalidated, "company:"+companyA)
	assert.ElementsMatch(t, []string{"module_revoked:emp", "module_revoked:emp2"}, f.notifier.types())

	_, err = f.svc.Revoke(ctx, companyA, "clients")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetEmployeePermissions_Reglas(t *testing.T) {
	f := newRBACFixture(t)
	ctx := context.Background()

	_, err := f.svc.SetEmployeePermissions(ctx, companyA, "emp", "tasks", []string{"read"})
	assert.ErrorIs(t, err, domain.ErrModuleNotEnabled)

	_, err = f.svc.Grant(ctx, companyA, "tasks", nil)
	require.NoError(t, err)

	_, err = f.svc.SetEmployeePermissions(ctx, companyA, "emp", "tasks", []string{"delete"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.SetEmployeePermissions(ctx, companyA, "emp", "tasks", []string{"fly"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.SetEmployeePermissions(ctx, companyA, "other", "tasks", []string{"read"})
	assert.ErrorIs(t, err, domain.ErrNotFound, "empleado de otra empresa")

	_, err = f.svc.SetEmployeePermissions(ctx, companyA, "owner", "tasks", []string{"read"})
	assert.ErrorIs(t, err, domain.ErrNotFound, "el dueño no recibe permisos explícitos")

	res, err := f.svc.SetEmployeePermissions(ctx, companyA, "emp", "tasks", []string{"write", "read", "read"})
	require.NoError(t, err)
	assert.Equal(t, []string{"read", "write"}, res.Permissions)
	assert.Contains(t, f.cache.invalidated, "user:emp")

	res, err = f.svc.SetEmployeePermissions(ctx, companyA, "emp", "tasks", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Permissions)
	p, _ := f.perms.Get(ctx, "emp", "tasks")
	assert.Nil(t, p, "lista vacía borra la concesión")
}

func TestModulesFor(t *testing.T) {
	f := newRBACFixture(t)
	ctx := context.Background()
	_, _ = f.svc.Grant(ctx, companyA, "clients", nil)
	_, _ = f.svc.Grant(ctx, companyA, "tasks", nil)
	_, err := f.svc.SetEmployeePermissions(ctx, companyA, "emp", "tasks", []string{"read"})
	require.NoError(t, err)

	ownerMods, err := f.svc.ModulesFor(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, ownerMods, 2)

	empMods, err := f.svc.ModulesFor(ctx, employee)
	require.NoError(t, err)
	require.Len(t, empMods, 1)
	assert.Equal(t, "tasks", empMods[0].Slug)
	assert.Equal(t, []string{"read"}, empMods[0].Permissions)

	adminMods, err := f.svc.ModulesFor(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, adminMods, 2, "solo módulos activos del catálogo")
}
