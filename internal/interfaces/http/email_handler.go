package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/application/usecase"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
)

// EmailHandler buzón IMAP/SMTP del usuario.
type EmailHandler struct {
	uc *usecase.EmailUseCase
}

func NewEmailHandler(uc *usecase.EmailUseCase) *EmailHandler {
	return &EmailHandler{uc: uc}
}

// mailError fallos del servidor de correo remoto -> 502.
func mailError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrUpstream) {
		return respondUpstream(c, "MAIL_ERROR", err)
	}
	return respondError(c, err)
}

// GetConfig godoc
// @Summary      Configuración del buzón propio
// @Tags         email
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.EmailConfigResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/email/config [get]
func (h *EmailHandler) GetConfig(c *fiber.Ctx) error {
	out, err := h.uc.GetConfig(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// SaveConfig godoc
// @Summary      Guardar configuración del buzón
// @Description  La contraseña se cifra y nunca se devuelve; vacía conserva la anterior.
// @Tags         email
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.EmailConfigRequest  true  "Servidores y credenciales"
// @Success      200   {object}  dto.EmailConfigResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/email/config [put]
func (h *EmailHandler) SaveConfig(c *fiber.Ctx) error {
	var in dto.EmailConfigRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.SaveConfig(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// DeleteConfig godoc
// @Summary      Borrar configuración del buzón
// @Tags         email
// @Security     Bearer
// @Success      204
// @Router       /api/email/config [delete]
func (h *EmailHandler) DeleteConfig(c *fiber.Ctx) error {
	if err := h.uc.DeleteConfig(c.UserContext(), actorFrom(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Send godoc
// @Summary      Enviar correo
// @Tags         email
// @Security     Bearer
// @Accept       json
// @Param        body  body  dto.SendEmailRequest  true  "to, cc, subject, body, html"
// @Success      202
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/email/send [post]
func (h *EmailHandler) Send(c *fiber.Ctx) error {
	var in dto.SendEmailRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	if err := h.uc.Send(c.UserContext(), actorFrom(c), in); err != nil {
		return mailError(c, err)
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// Inbox godoc
// @Summary      Últimos mensajes del buzón
// @Tags         email
// @Security     Bearer
// @Produce      json
// @Param        mailbox  query  string  false  "Buzón"   default(INBOX)
// @Param        limit    query  int     false  "Límite"  default(20)
// @Success      200  {array}   ports.MessageSummary
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/email/inbox [get]
func (h *EmailHandler) Inbox(c *fiber.Ctx) error {
	out, err := h.uc.Inbox(c.UserContext(), actorFrom(c), c.Query("mailbox", "INBOX"), c.QueryInt("limit", 20))
	if err != nil {
		return mailError(c, err)
	}
	return c.JSON(out)
}

// Test godoc
// @Summary      Probar conexión IMAP y SMTP
// @Tags         email
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ConnectionTestResponse
// @Router       /api/email/test [post]
func (h *EmailHandler) Test(c *fiber.Ctx) error {
	out, err := h.uc.TestConnection(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
