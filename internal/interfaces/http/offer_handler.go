package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/application/usecase"
)

// OfferHandler leads y ofertas comerciales.
type OfferHandler struct {
	uc *usecase.OfferUseCase
}

func NewOfferHandler(uc *usecase.OfferUseCase) *OfferHandler {
	return &OfferHandler{uc: uc}
}

// ---- leads ----

// CreateLead godoc
// @Summary      Crear lead
// @Tags         leads
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LeadRequest  true  "Datos del lead"
// @Success      201   {object}  dto.LeadResponse
// @Router       /api/leads [post]
func (h *OfferHandler) CreateLead(c *fiber.Ctx) error {
	var in dto.LeadRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.CreateLead(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListLeads godoc
// @Summary      Listar leads
// @Tags         leads
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "new|contacted|qualified|lost|converted"
// @Success      200  {array}  dto.LeadResponse
// @Router       /api/leads [get]
func (h *OfferHandler) ListLeads(c *fiber.Ctx) error {
	limit, offset := page(c)
	out, err := h.uc.ListLeads(c.UserContext(), actorFrom(c), c.Query("status"), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetLead godoc
// @Summary      Obtener lead
// @Tags         leads
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lead"
// @Success      200  {object}  dto.LeadResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/leads/{id} [get]
func (h *OfferHandler) GetLead(c *fiber.Ctx) error {
	out, err := h.uc.GetLead(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UpdateLead godoc
// @Summary      Actualizar lead
// @Tags         leads
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string           true  "ID del lead"
// @Param        body  body  dto.LeadRequest  true  "Datos del lead"
// @Success      200   {object}  dto.LeadResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/leads/{id} [put]
func (h *OfferHandler) UpdateLead(c *fiber.Ctx) error {
	var in dto.LeadRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.UpdateLead(c.UserContext(), actorFrom(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// DeleteLead godoc
// @Summary      Borrar lead
// @Tags         leads
// @Security     Bearer
// @Param        id   path  string  true  "ID del lead"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/leads/{id} [delete]
func (h *OfferHandler) DeleteLead(c *fiber.Ctx) error {
	if err := h.uc.DeleteLead(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ConvertLead godoc
// @Summary      Convertir lead en cliente
// @Tags         leads
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true   "ID del lead"
// @Param        body  body  dto.ConvertLeadRequest  false  "nip, address"
// @Success      201   {object}  dto.ClientResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/leads/{id}/convert [post]
func (h *OfferHandler) ConvertLead(c *fiber.Ctx) error {
	var in dto.ConvertLeadRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &in); err != nil {
			return respondError(c, err)
		}
	}
	out, err := h.uc.ConvertLead(c.UserContext(), actorFrom(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ---- ofertas ----

// CreateOffer godoc
// @Summary      Crear oferta
// @Description  Exactamente uno de client_id o lead_id. Los totales se calculan en el servidor.
// @Tags         offers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOfferRequest  true  "Oferta con partidas"
// @Success      201   {object}  dto.OfferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/offers [post]
func (h *OfferHandler) CreateOffer(c *fiber.Ctx) error {
	var in dto.CreateOfferRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.CreateOffer(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListOffers godoc
// @Summary      Listar ofertas
// @Tags         offers
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "draft|sent|accepted|rejected|expired"
// @Success      200  {array}  dto.OfferResponse
// @Router       /api/offers [get]
func (h *OfferHandler) ListOffers(c *fiber.Ctx) error {
	limit, offset := page(c)
	out, err := h.uc.ListOffers(c.UserContext(), actorFrom(c), c.Query("status"), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetOffer godoc
// @Summary      Obtener oferta
// @Tags         offers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la oferta"
// @Success      200  {object}  dto.OfferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/offers/{id} [get]
func (h *OfferHandler) GetOffer(c *fiber.Ctx) error {
	out, err := h.uc.GetOffer(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UpdateOffer godoc
// @Summary      Actualizar oferta en borrador
// @Description  version debe coincidir con la actual; si no, 409 VERSION_CONFLICT.
// @Tags         offers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID de la oferta"
// @Param        body  body  dto.UpdateOfferRequest  true  "Cambios + version"
// @Success      200   {object}  dto.OfferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/offers/{id} [put]
func (h *OfferHandler) UpdateOffer(c *fiber.Ctx) error {
	var in dto.UpdateOfferRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.UpdateOffer(c.UserContext(), actorFrom(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ChangeStatus godoc
// @Summary      Cambiar estado de la oferta
// @Tags         offers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID de la oferta"
// @Param        body  body  dto.OfferStatusRequest  true  "status + version"
// @Success      200   {object}  dto.OfferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/offers/{id}/status [patch]
func (h *OfferHandler) ChangeStatus(c *fiber.Ctx) error {
	var in dto.OfferStatusRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.ChangeStatus(c.UserContext(), actorFrom(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// DeleteOffer godoc
// @Summary      Borrar oferta en borrador
// @Tags         offers
// @Security     Bearer
// @Param        id   path  string  true  "ID de la oferta"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/offers/{id} [delete]
func (h *OfferHandler) DeleteOffer(c *fiber.Ctx) error {
	if err := h.uc.DeleteOffer(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PDF godoc
// @Summary      Descargar oferta en PDF
// @Tags         offers
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la oferta"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/offers/{id}/pdf [get]
func (h *OfferHandler) PDF(c *fiber.Ctx) error {
	data, number, err := h.uc.OfferPDF(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.pdf"`, pdfFileName(number)))
	return c.Send(data)
}

// pdfFileName "OF/2025/7" -> "OF-2025-7".
func pdfFileName(number string) string {
	if number == "" {
		return "oferta"
	}
	return strings.ReplaceAll(number, "/", "-")
}
