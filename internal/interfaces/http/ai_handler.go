package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/application/usecase"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
)

// AIHandler agente IA de la oficina: configuración y conversaciones.
type AIHandler struct {
	uc *usecase.AIUseCase
}

// NewAIHandler construye el handler.
func NewAIHandler(uc *usecase.AIUseCase) *AIHandler {
	return &AIHandler{uc: uc}
}

// GetConfig godoc
// @Summary      Configuración del agente IA de la empresa
// @Tags         ai
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.AIConfigResponse
// @Router       /api/ai-agent/config [get]
func (h *AIHandler) GetConfig(c *fiber.Ctx) error {
	out, err := h.uc.GetConfig(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// SaveConfig godoc
// @Summary      Guardar configuración del agente IA
// @Description  La API key se cifra; la respuesta solo indica has_api_key.
// @Tags         ai
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AIConfigRequest  true  "provider, model, system_prompt, api_key..."
// @Success      200   {object}  dto.AIConfigResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/ai-agent/config [put]
func (h *AIHandler) SaveConfig(c *fiber.Ctx) error {
	var in dto.AIConfigRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.SaveConfig(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// CreateConversation godoc
// @Summary      Nueva conversación
// @Tags         ai
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateConversationRequest  false  "title"
// @Success      201   {object}  dto.ConversationResponse
// @Router       /api/ai-agent/conversations [post]
func (h *AIHandler) CreateConversation(c *fiber.Ctx) error {
	var in dto.CreateConversationRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &in); err != nil {
			return respondError(c, err)
		}
	}
	out, err := h.uc.CreateConversation(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListConversations godoc
// @Summary      Conversaciones propias
// @Tags         ai
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ConversationResponse
// @Router       /api/ai-agent/conversations [get]
func (h *AIHandler) ListConversations(c *fiber.Ctx) error {
	limit, offset := page(c)
	out, err := h.uc.ListConversations(c.UserContext(), actorFrom(c), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetConversation godoc
// @Summary      Conversación con sus mensajes
// @Tags         ai
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la conversación"
// @Success      200  {object}  dto.ConversationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ai-agent/conversations/{id} [get]
func (h *AIHandler) GetConversation(c *fiber.Ctx) error {
	out, err := h.uc.GetConversation(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// DeleteConversation godoc
// @Summary      Borrar conversación
// @Tags         ai
// @Security     Bearer
// @Param        id   path  string  true  "ID de la conversación"
// @Success      204
// @Router       /api/ai-agent/conversations/{id} [delete]
func (h *AIHandler) DeleteConversation(c *fiber.Ctx) error {
	if err := h.uc.DeleteConversation(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SendMessage godoc
// @Summary      Enviar mensaje al agente IA
// @Description  Guarda el mensaje, consulta al modelo con los últimos 20 mensajes y guarda la respuesta.
// @Tags         ai
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID de la conversación"
// @Param        body  body  dto.SendMessageRequest  true  "content"
// @Success      200   {object}  dto.SendMessageResponse
// @Failure      408   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/ai-agent/conversations/{id}/messages [post]
func (h *AIHandler) SendMessage(c *fiber.Ctx) error {
	var in dto.SendMessageRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.SendMessage(c.UserContext(), actorFrom(c), c.Params("id"), in)
	if err != nil {
		return aiError(c, err)
	}
	return c.JSON(out)
}

func aiError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, usecase.ErrAITimeout):
		return c.Status(fiber.StatusRequestTimeout).JSON(dto.ErrorResponse{
			Code: "TIMEOUT", Message: "el agente IA tardó demasiado; intenta de nuevo",
		})
	case errors.Is(err, domain.ErrNotConfigured):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Code: "AI_UNAVAILABLE", Message: "el agente IA no está configurado",
		})
	}
	if errors.Is(err, domain.ErrUpstream) {
		return respondUpstream(c, "AI_ERROR", err)
	}
	return respondError(c, err)
}
