package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

type offerFixture struct {
	uc      *OfferUseCase
	clients *memClients
	leads   *memLeads
	offers  *memOffers
}

func newOfferFixture() *offerFixture {
	clients := &memClients{rows: map[string]*entity.Client{
		"cli-1": {ID: "cli-1", CompanyID: companyA, Name: "Kowalski", IsActive: true},
	}}
	leads := &memLeads{rows: map[string]*entity.Lead{}}
	offers := &memOffers{rows: map[string]*entity.Offer{}, seq: map[string]int{}}
	tx := txRunner{repos: ports.TxRepos{Clients: clients, Leads: leads, Offers: offers}}
	uc := NewOfferUseCase(tx, leads, offers, clients, &memCompanies{rows: map[string]*entity.Company{}}, nil)
	uc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	return &offerFixture{uc: uc, clients: clients, leads: leads, offers: offers}
}

func item(qty, price, tax string) dto.OfferItemRequest {
	return dto.OfferItemRequest{
		Description: "Servicio",
		Quantity:    decimal.RequireFromString(qty),
		UnitPrice:   decimal.RequireFromString(price),
		TaxRate:     decimal.RequireFromString(tax),
	}
}

func strp(s string) *string { return &s }

func TestCreateOffer_TotalesYNumeracion(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()

	o, err := f.uc.CreateOffer(ctx, owner, dto.CreateOfferRequest{
		ClientID: strp("cli-1"),
		Title:    "Contabilidad mensual",
		Items:    []dto.OfferItemRequest{item("2", "450.00", "23"), item("1", "99.99", "8")},
	})
	require.NoError(t, err)
	assert.Equal(t, "OF/2026/1", o.Number)
	assert.Equal(t, entity.OfferDraft, o.Status)
	assert.Equal(t, 1, o.Version)
	assert.Equal(t, DefaultCurrency, o.Currency)
	assert.True(t, decimal.RequireFromString("999.99").Equal(o.Net), o.Net.String())
	assert.True(t, decimal.RequireFromString("215.00").Equal(o.Tax), o.Tax.String())
	assert.True(t, decimal.RequireFromString("1214.99").Equal(o.Gross), o.Gross.String())

	o2, err := f.uc.CreateOffer(ctx, owner, dto.CreateOfferRequest{ClientID: strp("cli-1"), Title: "Otra", Items: []dto.OfferItemRequest{item("1", "1", "0")}})
	require.NoError(t, err)
	assert.Equal(t, "OF/2026/2", o2.Number)
}

func TestCreateOffer_Destinatario(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	items := []dto.OfferItemRequest{item("1", "10", "23")}

	_, err := f.uc.CreateOffer(ctx, owner, dto.CreateOfferRequest{Title: "x", Items: items})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "ni cliente ni lead")

	_, err = f.uc.CreateOffer(ctx, owner, dto.CreateOfferRequest{ClientID: strp("cli-1"), LeadID: strp("l"), Title: "x", Items: items})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "ambos")

	_, err = f.uc.CreateOffer(ctx, owner, dto.CreateOfferRequest{ClientID: strp("nope"), Title: "x", Items: items})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.CreateOffer(ctx, owner, dto.CreateOfferRequest{ClientID: strp("cli-1"), Title: "x", Items: []dto.OfferItemRequest{item("0", "10", "23")}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.CreateOffer(ctx, owner, dto.CreateOfferRequest{ClientID: strp("cli-1"), Title: "x", Items: []dto.OfferItemRequest{item("0.0004", "10", "23")}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad que se guardaría como cero")

	_, err = f.uc.CreateOffer(ctx, owner, dto.CreateOfferRequest{ClientID: strp("cli-1"), Title: "x", Items: []dto.OfferItemRequest{item("1", "10", "123")}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateOffer_CantidadRedondeadaComoSeGuarda(t *testing.T) {
	f := newOfferFixture()
	o, err := f.uc.CreateOffer(context.Background(), owner, dto.CreateOfferRequest{
		ClientID: strp("cli-1"), Title: "Horas", Items: []dto.OfferItemRequest{item("2.5004", "100", "0")},
	})
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "2.5", o.Items[0].Quantity.String())
	assert.True(t, decimal.RequireFromString("250").Equal(o.Net), o.Net.String())
}

func TestUpdateOffer_ConcurrenciaOptimista(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	o, err := f.uc.CreateOffer(ctx, owner, dto.CreateOfferRequest{ClientID: strp("cli-1"), Title: "v1", Items: []dto.OfferItemRequest{item("1", "100", "23")}})
	require.NoError(t, err)

	up, err := f.uc.UpdateOffer(ctx, owner, o.ID, dto.UpdateOfferRequest{Version: 1, Title: strp("v2"), Items: []dto.OfferItemRequest{item("3", "100", "23")}})
	require.NoError(t, err)
	assert.Equal(t, 2, up.Version)
	assert.True(t, decimal.RequireFromString("369").Equal(up.Gross))

	_, err = f.uc.UpdateOffer(ctx, owner, o.ID, dto.UpdateOfferRequest{Version: 1, Title: strp("stale")})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	got, err := f.uc.GetOffer(ctx, owner, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Title)
	assert.Len(t, got.Items, 1)
}

func TestChangeStatus_Transiciones(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	o, err := f.uc.CreateOffer(ctx, owner, dto.CreateOfferRequest{ClientID: strp("cli-1"), Title: "x", Items: []dto.OfferItemRequest{item("1", "1", "0")}})
	require.NoError(t, err)

	_, err = f.uc.ChangeStatus(ctx, owner, o.ID, dto.OfferStatusRequest{Version: 1, Status: entity.OfferAccepted})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	sent, err := f.uc.ChangeStatus(ctx, owner, o.ID, dto.OfferStatusRequest{Version: 1, Status: entity.OfferSent})
	require.NoError(t, err)
	assert.Equal(t, 2, sent.Version)

	_, err = f.uc.UpdateOffer(ctx, owner, o.ID, dto.UpdateOfferRequest{Version: 2, Title: strp("tarde")})
	assert.ErrorIs(t, err, domain.ErrConflict, "solo se editan borradores")

	acc, err := f.uc.ChangeStatus(ctx, owner, o.ID, dto.OfferStatusRequest{Version: 2, Status: entity.OfferAccepted})
	require.NoError(t, err)
	assert.Equal(t, entity.OfferAccepted, acc.Status)
	assert.Len(t, acc.Items, 1, "el cambio de estado conserva las líneas")

	assert.ErrorIs(t, f.uc.DeleteOffer(ctx, owner, o.ID), domain.ErrConflict)
}

func TestConvertLead(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	l, err := f.uc.CreateLead(ctx, owner, dto.LeadRequest{Name: "Jan Nowak", CompanyName: "Nowak Sp. z o.o.", Email: "jan@nowak.pl"})
	require.NoError(t, err)
	assert.Equal(t, entity.LeadNew, l.Status)

	c, err := f.uc.ConvertLead(ctx, owner, l.ID, dto.ConvertLeadRequest{NIP: "123-456-32-18"})
	require.NoError(t, err)
	assert.Equal(t, "Nowak Sp. z o.o.", c.Name)
	assert.Equal(t, "1234563218", c.NIP)

	stored := f.leads.rows[l.ID]
	assert.Equal(t, entity.LeadConverted, stored.Status)
	require.NotNil(t, stored.ConvertedClientID)
	assert.Equal(t, c.ID, *stored.ConvertedClientID)

	_, err = f.uc.ConvertLead(ctx, owner, l.ID, dto.ConvertLeadRequest{})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.uc.UpdateLead(ctx, owner, l.ID, dto.LeadRequest{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestOfferPDF_SinGenerador(t *testing.T) {
	f := newOfferFixture()
	_, _, err := f.uc.OfferPDF(context.Background(), owner, "x")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}
