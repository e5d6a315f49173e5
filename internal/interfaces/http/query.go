package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// queryTime lee un parámetro de fecha en RFC3339 o YYYY-MM-DD. Ausente = nil.
func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, &httpError{
		status:  fiber.StatusBadRequest,
		code:    "VALIDATION",
		message: "fecha inválida",
		fields:  map[string]string{key: "formato RFC3339 o YYYY-MM-DD"},
	}
}
