package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"0":       "0,00",
		"999.99":  "999,99",
		"1214.99": "1 214,99",
		"1000000": "1 000 000,00",
		"-2500.5": "-2 500,50",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatAmount(decimal.RequireFromString(in)), in)
	}
}

func TestGenerateOfferPDF(t *testing.T) {
	valid := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	o := &entity.Offer{
		Number:     "OF/2026/1",
		Title:      "Obsługa księgowa",
		Currency:   "PLN",
		ValidUntil: &valid,
		Notes:      "Płatność 14 dni.",
		CreatedAt:  time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Items: []entity.OfferItem{
			{Description: "Pełna księgowość", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(800), TaxRate: decimal.NewFromInt(23)},
			{Description: "Kadry i płace", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("66.66"), TaxRate: decimal.NewFromInt(23)},
		},
	}
	o.Recalculate()
	company := &entity.Company{Name: "Biuro Rachunkowe Łódź", NIP: "7251234567"}

	doc, err := NewMarotoPDFGenerator().GenerateOfferPDF(context.Background(), o, company,
		ports.OfferRecipient{Name: "ACME Sp. z o.o.", NIP: "5250001009"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}
