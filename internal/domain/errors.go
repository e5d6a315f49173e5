package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrModuleNotEnabled   = errors.New("el módulo no está activo para la empresa")
	ErrPermissionDenied   = errors.New("permiso insuficiente sobre el módulo")
	ErrInvalidTransition  = errors.New("transición de estado no permitida")
	ErrVersionConflict    = errors.New("el recurso fue modificado por otro usuario")
	ErrNotConfigured      = errors.New("servicio no configurado")
	ErrUpstream           = errors.New("el servicio externo falló")
)

// ValidationError describe un error de entrada con el campo afectado.
// errors.Is(err, ErrInvalidInput) es verdadero para cualquier ValidationError.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// Invalid construye un ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// UpstreamError fallo de un proveedor externo (LLM, IMAP, SMTP).
// errors.Is(err, ErrUpstream) es verdadero; Unwrap expone la causa.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string { return e.Service + ": " + e.Err.Error() }

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// Upstream envuelve err como fallo del servicio externo indicado.
func Upstream(service string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Service: service, Err: err}
}
