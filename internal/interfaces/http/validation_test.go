package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
)

func bindApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/offers", func(c *fiber.Ctx) error {
		var in dto.CreateOfferRequest
		if err := bind(c, &in); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func postJSON(t *testing.T, app *fiber.App, body string) (*http.Response, dto.ErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/offers", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var out dto.ErrorResponse
	if resp.StatusCode != fiber.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	resp.Body.Close()
	return resp, out
}

func TestBind_CamposJSONEnErrores(t *testing.T) {
	resp, out := postJSON(t, bindApp(), `{"client_id":"no-uuid","items":[{"description":""}]}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", out.Code)
	assert.Contains(t, out.Fields, "client_id")
	assert.Contains(t, out.Fields, "title")
	assert.Contains(t, out.Fields, "items[0].description")
}

func TestBind_CuerpoMalformado(t *testing.T) {
	resp, out := postJSON(t, bindApp(), `{"title":`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", out.Code)
}

func TestBind_Valido(t *testing.T) {
	resp, _ := postJSON(t, bindApp(),
		`{"client_id":"8f14e45f-ceea-467a-9af0-1b7a2c6b0a11","title":"Contabilidad 2025","items":[{"description":"Servicio","quantity":"1","unit_price":"100"}]}`)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
