package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/application/usecase"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
)

// moduleChecker contrato mínimo del middleware; lo implementa *usecase.ModuleService.
type moduleChecker interface {
	Check(ctx context.Context, a usecase.Actor, slug, action string) error
}

// RequireModule verifica que el actor pueda ejecutar action sobre el módulo.
// Debe usarse DESPUÉS de AuthMiddleware.
//
//   - 403 MODULE_DISABLED: la empresa no tiene el módulo vigente.
//   - 403 PERMISSION_DENIED: el empleado no tiene la acción concedida.
//   - 503 MODULE_CHECK_FAILED: fallo de infraestructura al consultar.
func RequireModule(checker moduleChecker, slug, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetUserID(c) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "usuario no encontrado en el token",
			})
		}
		err := checker.Check(c.UserContext(), actorFrom(c), slug, action)
		switch {
		case err == nil:
			return c.Next()
		case errors.Is(err, domain.ErrModuleNotEnabled):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "MODULE_DISABLED",
				Message: "el módulo '" + slug + "' no está activo para esta empresa",
			})
		case errors.Is(err, domain.ErrPermissionDenied), errors.Is(err, domain.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "PERMISSION_DENIED",
				Message: "sin permiso '" + action + "' sobre el módulo '" + slug + "'",
			})
		default:
			if log := requestLogger(c); log != nil {
				log.Error().Err(err).Str("module", slug).Msg("no se pudo verificar el módulo")
			}
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "MODULE_CHECK_FAILED",
				Message: "no se pudo verificar el módulo, intente más tarde",
			})
		}
	}
}
