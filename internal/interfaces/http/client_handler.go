package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/application/usecase"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
)

// ClientHandler clientes de la oficina, campos personalizados e íconos.
type ClientHandler struct {
	uc *usecase.ClientUseCase
}

func NewClientHandler(uc *usecase.ClientUseCase) *ClientHandler {
	return &ClientHandler{uc: uc}
}

// Create godoc
// @Summary      Crear cliente
// @Tags         clients
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateClientRequest  true  "Datos del cliente"
// @Success      201   {object}  dto.ClientResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/clients [post]
func (h *ClientHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateClientRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar clientes
// @Description  search ignora mayúsculas y diacríticos sobre nombre, NIP y email.
// @Tags         clients
// @Security     Bearer
// @Produce      json
// @Param        search            query  string  false  "Texto a buscar"
// @Param        include_inactive  query  bool    false  "Incluir inactivos"
// @Param        limit             query  int     false  "Límite"
// @Param        offset            query  int     false  "Offset"
// @Success      200  {object}  dto.ClientListResponse
// @Router       /api/clients [get]
func (h *ClientHandler) List(c *fiber.Ctx) error {
	limit, offset := page(c)
	out, err := h.uc.List(c.UserContext(), actorFrom(c), c.Query("search"), c.QueryBool("include_inactive", false), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener cliente
// @Tags         clients
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del cliente"
// @Success      200  {object}  dto.ClientResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/clients/{id} [get]
func (h *ClientHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar cliente
// @Tags         clients
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID del cliente"
// @Param        body  body  dto.UpdateClientRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.ClientResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/clients/{id} [put]
func (h *ClientHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateClientRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Update(c.UserContext(), actorFrom(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Desactivar cliente
// @Tags         clients
// @Security     Bearer
// @Param        id   path  string  true  "ID del cliente"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/clients/{id} [delete]
func (h *ClientHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Deactivate(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ---- campos personalizados ----

// ListFields godoc
// @Summary      Campos personalizados de clientes
// @Tags         clients
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ClientFieldResponse
// @Router       /api/clients/fields [get]
func (h *ClientHandler) ListFields(c *fiber.Ctx) error {
	out, err := h.uc.ListFields(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// CreateField godoc
// @Summary      Crear campo personalizado
// @Tags         clients
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ClientFieldRequest  true  "Definición del campo"
// @Success      201   {object}  dto.ClientFieldResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/clients/fields [post]
func (h *ClientHandler) CreateField(c *fiber.Ctx) error {
	var in dto.ClientFieldRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.CreateField(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateField godoc
// @Summary      Actualizar campo personalizado
// @Tags         clients
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del campo"
// @Param        body  body  dto.ClientFieldRequest  true  "Definición del campo"
// @Success      200   {object}  dto.ClientFieldResponse
// @Router       /api/clients/fields/{id} [put]
func (h *ClientHandler) UpdateField(c *fiber.Ctx) error {
	var in dto.ClientFieldRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.UpdateField(c.UserContext(), actorFrom(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// DeleteField godoc
// @Summary      Desactivar campo personalizado
// @Tags         clients
// @Security     Bearer
// @Param        id   path  string  true  "ID del campo"
// @Success      204
// @Router       /api/clients/fields/{id} [delete]
func (h *ClientHandler) DeleteField(c *fiber.Ctx) error {
	if err := h.uc.DeleteField(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ---- íconos ----

// UploadIcon godoc
// @Summary      Subir ícono de cliente
// @Description  png, jpeg, svg o webp de hasta 1 MiB.
// @Tags         clients
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Imagen"
// @Success      201   {object}  dto.ClientIconResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/clients/icons [post]
func (h *ClientHandler) UploadIcon(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return respondError(c, badRequest("MISSING_FILE", "el campo 'file' es obligatorio"))
	}
	f, err := fh.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer f.Close()

	out, err := h.uc.UploadIcon(c.UserContext(), actorFrom(c), fh.Filename, fh.Header.Get("Content-Type"), fh.Size, f)
	if err != nil {
		return storageError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListIcons godoc
// @Summary      Íconos de la empresa con URL temporal
// @Tags         clients
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ClientIconResponse
// @Router       /api/clients/icons [get]
func (h *ClientHandler) ListIcons(c *fiber.Ctx) error {
	out, err := h.uc.ListIcons(c.UserContext(), actorFrom(c))
	if err != nil {
		return storageError(c, err)
	}
	return c.JSON(out)
}

// DeleteIcon godoc
// @Summary      Borrar ícono
// @Tags         clients
// @Security     Bearer
// @Param        id   path  string  true  "ID del ícono"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/clients/icons/{id} [delete]
func (h *ClientHandler) DeleteIcon(c *fiber.Ctx) error {
	if err := h.uc.DeleteIcon(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return storageError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func storageError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrNotConfigured) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "STORAGE_UNAVAILABLE", Message: "el almacenamiento de archivos no está configurado"})
	}
	return respondError(c, err)
}
