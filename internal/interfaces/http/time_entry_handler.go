package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/application/usecase"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
)

// TimeEntryHandler cronómetro y registros de tiempo.
type TimeEntryHandler struct {
	uc *usecase.TimeEntryUseCase
}

func NewTimeEntryHandler(uc *usecase.TimeEntryUseCase) *TimeEntryHandler {
	return &TimeEntryHandler{uc: uc}
}

// Start godoc
// @Summary      Iniciar cronómetro
// @Description  Solo una entrada en marcha por usuario (409).
// @Tags         time-tracking
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StartTimerRequest  false  "client_id, task_id, description"
// @Success      201   {object}  dto.TimeEntryResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/time-entries/start [post]
func (h *TimeEntryHandler) Start(c *fiber.Ctx) error {
	var in dto.StartTimerRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &in); err != nil {
			return respondError(c, err)
		}
	}
	out, err := h.uc.Start(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Stop godoc
// @Summary      Detener cronómetro
// @Tags         time-tracking
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.TimeEntryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/time-entries/stop [post]
func (h *TimeEntryHandler) Stop(c *fiber.Ctx) error {
	out, err := h.uc.Stop(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Active godoc
// @Summary      Entrada en marcha del usuario
// @Tags         time-tracking
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.TimeEntryResponse
// @Success      204  "sin cronómetro en marcha"
// @Router       /api/time-entries/active [get]
func (h *TimeEntryHandler) Active(c *fiber.Ctx) error {
	out, err := h.uc.Active(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	if out == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Registrar tiempo manualmente
// @Tags         time-tracking
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TimeEntryRequest  true  "started_at < ended_at"
// @Success      201   {object}  dto.TimeEntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/time-entries [post]
func (h *TimeEntryHandler) Create(c *fiber.Ctx) error {
	var in dto.TimeEntryRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Editar registro de tiempo
// @Tags         time-tracking
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "ID del registro"
// @Param        body  body  dto.TimeEntryRequest  true  "Registro completo"
// @Success      200   {object}  dto.TimeEntryResponse
// @Router       /api/time-entries/{id} [put]
func (h *TimeEntryHandler) Update(c *fiber.Ctx) error {
	var in dto.TimeEntryRequest
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
// @Summary      Borrar registro de tiempo
// @Tags         time-tracking
// @Security     Bearer
// @Param        id   path  string  true  "ID del registro"
// @Success      204
// @Router       /api/time-entries/{id} [delete]
func (h *TimeEntryHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// List godoc
// @Summary      Listar registros de tiempo
// @Description  Los empleados solo ven los suyos.
// @Tags         time-tracking
// @Security     Bearer
// @Produce      json
// @Param        from       query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to         query  string  false  "Hasta, exclusivo"
// @Param        user_id    query  string  false  "Usuario"
// @Param        client_id  query  string  false  "Cliente"
// @Success      200  {array}  dto.TimeEntryResponse
// @Router       /api/time-entries [get]
func (h *TimeEntryHandler) List(c *fiber.Ctx) error {
	from, err := queryTime(c, "from")
	if err != nil {
		return respondError(c, err)
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return respondError(c, err)
	}
	limit, offset := page(c)
	out, err := h.uc.List(c.UserContext(), actorFrom(c), repository.TimeEntryFilter{
		UserID:   c.Query("user_id"),
		ClientID: c.Query("client_id"),
		From:     from,
		To:       to,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Summary godoc
// @Summary      Totales por cliente y por usuario
// @Description  Sin from/to se usa el mes en curso.
// @Tags         time-tracking
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "Desde"
// @Param        to    query  string  false  "Hasta, exclusivo"
// @Success      200  {object}  dto.TimeSummaryResponse
// @Router       /api/time-entries/summary [get]
func (h *TimeEntryHandler) Summary(c *fiber.Ctx) error {
	from, err := queryTime(c, "from")
	if err != nil {
		return respondError(c, err)
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return respondError(c, err)
	}
	now := time.Now().UTC()
	if from == nil {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		from = &start
	}
	if to == nil {
		end := from.AddDate(0, 1, 0)
		to = &end
	}
	out, err := h.uc.Summary(c.UserContext(), actorFrom(c), *from, *to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
