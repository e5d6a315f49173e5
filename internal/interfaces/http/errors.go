package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/application/usecase"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
)

// httpError error ya traducido a status + código.
type httpError struct {
	status  int
	code    string
	message string
	fields  map[string]string
}

func (e *httpError) Error() string { return e.message }

func badRequest(code, message string) error {
	return &httpError{status: fiber.StatusBadRequest, code: code, message: message}
}

// mapError traduce errores de dominio a respuesta HTTP.
func mapError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		out := &httpError{status: fiber.StatusBadRequest, code: "VALIDATION", message: ve.Error()}
		if ve.Field != "" {
			out.fields = map[string]string{ve.Field: ve.Message}
		}
		return out
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return &httpError{status: fe.Code, code: fiberCode(fe.Code), message: fe.Message}
	}

	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return &httpError{status: fiber.StatusNotFound, code: "NOT_FOUND", message: err.Error()}
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return &httpError{status: fiber.StatusConflict, code: "EMAIL_EXISTS", message: err.Error()}
	case errors.Is(err, domain.ErrDuplicate):
		return &httpError{status: fiber.StatusConflict, code: "DUPLICATE", message: err.Error()}
	case errors.Is(err, domain.ErrVersionConflict):
		return &httpError{status: fiber.StatusConflict, code: "VERSION_CONFLICT", message: err.Error()}
	case errors.Is(err, domain.ErrInvalidTransition):
		return &httpError{status: fiber.StatusConflict, code: "INVALID_TRANSITION", message: err.Error()}
	case errors.Is(err, domain.ErrConflict):
		return &httpError{status: fiber.StatusConflict, code: "CONFLICT", message: err.Error()}
	case errors.Is(err, domain.ErrInvalidInput):
		return &httpError{status: fiber.StatusBadRequest, code: "VALIDATION", message: err.Error()}
	case errors.Is(err, domain.ErrUnauthorized):
		return &httpError{status: fiber.StatusUnauthorized, code: "UNAUTHORIZED", message: err.Error()}
	case errors.Is(err, domain.ErrModuleNotEnabled):
		return &httpError{status: fiber.StatusForbidden, code: "MODULE_DISABLED", message: err.Error()}
	case errors.Is(err, domain.ErrPermissionDenied):
		return &httpError{status: fiber.StatusForbidden, code: "PERMISSION_DENIED", message: err.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return &httpError{status: fiber.StatusForbidden, code: "FORBIDDEN", message: err.Error()}
	case errors.Is(err, usecase.ErrAITimeout), errors.Is(err, context.DeadlineExceeded):
		return &httpError{status: fiber.StatusRequestTimeout, code: "TIMEOUT", message: err.Error()}
	case errors.Is(err, domain.ErrNotConfigured):
		return &httpError{status: fiber.StatusServiceUnavailable, code: "NOT_CONFIGURED", message: err.Error()}
	case errors.Is(err, domain.ErrUpstream):
		return &httpError{status: fiber.StatusBadGateway, code: "UPSTREAM_ERROR", message: err.Error()}
	}
	return &httpError{status: fiber.StatusInternalServerError, code: "INTERNAL", message: "error interno del servidor"}
}

func fiberCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "BODY_TOO_LARGE"
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	}
	return "HTTP_ERROR"
}

// respondError escribe el error mapeado como dto.ErrorResponse.
func respondError(c *fiber.Ctx, err error) error {
	he := mapError(err)
	if he.status >= fiber.StatusInternalServerError {
		if log := requestLogger(c); log != nil {
			log.Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
		}
	}
	return c.Status(he.status).JSON(dto.ErrorResponse{Code: he.code, Message: he.message, Fields: he.fields})
}

// respondUpstream 502 con el código del servicio; el mensaje es el del proveedor remoto.
func respondUpstream(c *fiber.Ctx, code string, err error) error {
	if log := requestLogger(c); log != nil {
		log.Warn().Err(err).Str("path", c.Path()).Msg("fallo del servicio externo")
	}
	return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

// ErrorHandler manejador global de Fiber: los handlers pueden devolver el error sin responder.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return respondError(c, err)
}
