package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/application/usecase"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

// moduleRegistry catálogo de módulos descubiertos en disco (modules.Registry).
type moduleRegistry interface {
	List(ctx context.Context) ([]*entity.Module, error)
	ListActive(ctx context.Context) ([]*entity.Module, error)
	Sync(ctx context.Context) (*dto.SyncReportResponse, error)
}

// ModuleHandler catálogo de módulos, accesos de empresas y permisos de empleados.
type ModuleHandler struct {
	registry moduleRegistry
	svc      *usecase.ModuleService
}

func NewModuleHandler(registry moduleRegistry, svc *usecase.ModuleService) *ModuleHandler {
	return &ModuleHandler{registry: registry, svc: svc}
}

func toModuleList(mods []*entity.Module) []dto.ModuleResponse {
	out := make([]dto.ModuleResponse, 0, len(mods))
	for _, m := range mods {
		out = append(out, usecase.ToModuleResponse(m))
	}
	return out
}

// ListAll godoc
// @Summary      Catálogo completo de módulos (incluye inactivos)
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ModuleResponse
// @Router       /api/admin/modules [get]
func (h *ModuleHandler) ListAll(c *fiber.Ctx) error {
	mods, err := h.registry.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toModuleList(mods))
}

// Sync godoc
// @Summary      Resincronizar manifiestos de módulos con la base de datos
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SyncReportResponse
// @Router       /api/admin/modules/sync [post]
func (h *ModuleHandler) Sync(c *fiber.Ctx) error {
	report, err := h.registry.Sync(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// ListActive godoc
// @Summary      Módulos activos del catálogo
// @Tags         modules
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ModuleResponse
// @Router       /api/modules [get]
func (h *ModuleHandler) ListActive(c *fiber.Ctx) error {
	mods, err := h.registry.ListActive(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toModuleList(mods))
}

// CompanyModules godoc
// @Summary      Accesos a módulos de una empresa
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la empresa"
// @Success      200  {array}   dto.CompanyModuleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/admin/companies/{id}/modules [get]
func (h *ModuleHandler) CompanyModules(c *fiber.Ctx) error {
	out, err := h.svc.ListCompanyModules(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Grant godoc
// @Summary      Activar módulo para una empresa
// @Tags         admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true   "ID de la empresa"
// @Param        slug  path  string                  true   "Slug del módulo"
// @Param        body  body  dto.GrantModuleRequest  false  "expires_at opcional"
// @Success      200   {object}  dto.CompanyModuleResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/admin/companies/{id}/modules/{slug} [post]
func (h *ModuleHandler) Grant(c *fiber.Ctx) error {
	var in dto.GrantModuleRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &in); err != nil {
			return respondError(c, err)
		}
	}
	out, err := h.svc.Grant(c.UserContext(), c.Params("id"), c.Params("slug"), in.ExpiresAt)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Revoke godoc
// @Summary      Revocar módulo de una empresa
// @Description  Desactiva el acceso y borra los permisos de los empleados sobre el módulo en una transacción.
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        id    path  string  true  "ID de la empresa"
// @Param        slug  path  string  true  "Slug del módulo"
// @Success      200   {object}  dto.RevokeModuleResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/admin/companies/{id}/modules/{slug} [delete]
func (h *ModuleHandler) Revoke(c *fiber.Ctx) error {
	out, err := h.svc.Revoke(c.UserContext(), c.Params("id"), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// OwnModules godoc
// @Summary      Módulos vigentes de la empresa propia
// @Tags         company
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ModuleAccessView
// @Router       /api/company/modules [get]
func (h *ModuleHandler) OwnModules(c *fiber.Ctx) error {
	out, err := h.svc.EnabledModules(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// EmployeePermissions godoc
// @Summary      Permisos de un empleado
// @Tags         company
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del empleado"
// @Success      200  {array}   dto.PermissionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/company/employees/{id}/permissions [get]
func (h *ModuleHandler) EmployeePermissions(c *fiber.Ctx) error {
	out, err := h.svc.EmployeePermissions(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// SetEmployeePermissions godoc
// @Summary      Fijar las acciones de un empleado sobre un módulo
// @Description  Lista vacía elimina los permisos. El módulo debe estar activo para la empresa.
// @Tags         company
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del empleado"
// @Param        slug  path  string                     true  "Slug del módulo"
// @Param        body  body  dto.SetPermissionsRequest  true  "permissions"
// @Success      200   {object}  dto.PermissionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/company/employees/{id}/permissions/{slug} [put]
func (h *ModuleHandler) SetEmployeePermissions(c *fiber.Ctx) error {
	var in dto.SetPermissionsRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.svc.SetEmployeePermissions(c.UserContext(), GetCompanyID(c), c.Params("id"), c.Params("slug"), in.Permissions)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// DeleteEmployeePermissions godoc
// @Summary      Quitar los permisos de un empleado sobre un módulo
// @Tags         company
// @Security     Bearer
// @Param        id    path  string  true  "ID del empleado"
// @Param        slug  path  string  true  "Slug del módulo"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/company/employees/{id}/permissions/{slug} [delete]
func (h *ModuleHandler) DeleteEmployeePermissions(c *fiber.Ctx) error {
	if err := h.svc.DeleteEmployeePermissions(c.UserContext(), GetCompanyID(c), c.Params("id"), c.Params("slug")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
