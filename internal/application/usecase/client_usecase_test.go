package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

func newClientFixture() (*ClientUseCase, *memClients, *memStorage) {
	clients := &memClients{rows: map[string]*entity.Client{}}
	fields := &memFields{rows: []*entity.ClientFieldDefinition{
		{ID: "f1", CompanyID: companyA, Key: "vat_payer", Type: entity.FieldBoolean, IsActive: true},
		{ID: "f2", CompanyID: companyA, Key: "tax_form", Type: entity.FieldSelect, Options: []string{"ryczalt", "liniowy"}, Required: true, IsActive: true},
		{ID: "f3", CompanyID: companyA, Key: "since", Type: entity.FieldDate, IsActive: true},
		{ID: "f4", CompanyID: companyA, Key: "employees", Type: entity.FieldNumber, IsActive: true},
	}}
	storage := &memStorage{objects: map[string]int64{}}
	uc := NewClientUseCase(clients, fields, &memIcons{rows: map[string]*entity.ClientIcon{}}, storage, time.Minute, nil)
	return uc, clients, storage
}

func TestClientCreate_ClaveDeBusquedaYNIP(t *testing.T) {
	uc, clients, _ := newClientFixture()
	ctx := context.Background()

	res, err := uc.Create(ctx, owner, dto.CreateClientRequest{
		Name:         "Łódzka Księgowość",
		NIP:          "526-025-02-74",
		CustomFields: map[string]any{"tax_form": "liniowy"},
	})
	require.NoError(t, err)
	assert.Equal(t, "5260250274", res.NIP)
	assert.Equal(t, "lodzka ksiegowosc 5260250274", clients.rows[res.ID].SearchKey)

	_, err = uc.Create(ctx, owner, dto.CreateClientRequest{
		Name:         "Otro",
		NIP:          "5260250274",
		CustomFields: map[string]any{"tax_form": "ryczalt"},
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	list, err := uc.List(ctx, owner, "LODZKA", false, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Page.Total)
	assert.Equal(t, 20, list.Page.Limit)
}

func TestClientCreate_NIPLiberadoAlDesactivar(t *testing.T) {
	uc, _, _ := newClientFixture()
	ctx := context.Background()
	custom := map[string]any{"tax_form": "ryczalt"}

	first, err := uc.Create(ctx, owner, dto.CreateClientRequest{Name: "A", NIP: "1111111111", CustomFields: custom})
	require.NoError(t, err)
	require.NoError(t, uc.Deactivate(ctx, owner, first.ID))

	_, err = uc.Create(ctx, owner, dto.CreateClientRequest{Name: "B", NIP: "1111111111", CustomFields: custom})
	assert.NoError(t, err)

	active := true
	_, err = uc.Update(ctx, owner, first.ID, dto.UpdateClientRequest{IsActive: &active})
	assert.ErrorIs(t, err, domain.ErrDuplicate, "reactivar no puede duplicar el NIP")
}

func TestClientCreate_NIPConDigitoDeControlInvalido(t *testing.T) {
	uc, clients, _ := newClientFixture()

	_, err := uc.Create(context.Background(), owner, dto.CreateClientRequest{
		Name:         "Mal NIP",
		NIP:          "526-025-02-75",
		CustomFields: map[string]any{"tax_form": "ryczalt"},
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "nip", ve.Field)
	assert.Empty(t, clients.rows)
}

func TestValidateCustomFields(t *testing.T) {
	defs := []*entity.ClientFieldDefinition{
		{Key: "vat_payer", Type: entity.FieldBoolean},
		{Key: "tax_form", Type: entity.FieldSelect, Options: []string{"ryczalt"}, Required: true},
		{Key: "since", Type: entity.FieldDate},
		{Key: "employees", Type: entity.FieldNumber},
		{Key: "note", Type: entity.FieldText},
	}
	ok := map[string]any{"tax_form": "ryczalt", "vat_payer": true, "since": "2024-01-31", "employees": float64(3), "note": "x"}
	assert.NoError(t, ValidateCustomFields(ok, defs))

	bad := []map[string]any{
		{"tax_form": "ryczalt", "unknown": 1},
		{"tax_form": "otro"},
		{"vat_payer": true},
		{"tax_form": "  "},
		{"tax_form": "ryczalt", "since": "31/01/2024"},
		{"tax_form": "ryczalt", "employees": "tres"},
		{"tax_form": "ryczalt", "vat_payer": "yes"},
		{"tax_form": "ryczalt", "note": 5},
	}
	for _, v := range bad {
		err := ValidateCustomFields(v, defs)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "%v", v)
	}
}

func TestClientUpdate_CamposPersonalizadosNullBorra(t *testing.T) {
	uc, clients, _ := newClientFixture()
	ctx := context.Background()
	res, err := uc.Create(ctx, owner, dto.CreateClientRequest{Name: "A", CustomFields: map[string]any{"tax_form": "ryczalt", "vat_payer": true}})
	require.NoError(t, err)

	_, err = uc.Update(ctx, owner, res.ID, dto.UpdateClientRequest{CustomFields: map[string]any{"vat_payer": nil}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"tax_form": "ryczalt"}, clients.rows[res.ID].CustomFields)
}

func TestClientUpdate_CampoDesactivadoNoBloqueaParches(t *testing.T) {
	uc, clients, _ := newClientFixture()
	ctx := context.Background()
	res, err := uc.Create(ctx, owner, dto.CreateClientRequest{Name: "A", CustomFields: map[string]any{"tax_form": "ryczalt", "vat_payer": true}})
	require.NoError(t, err)
	require.NoError(t, uc.DeleteField(ctx, owner, "f1"))

	_, err = uc.Update(ctx, owner, res.ID, dto.UpdateClientRequest{CustomFields: map[string]any{"employees": 5}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"tax_form": "ryczalt", "vat_payer": true, "employees": 5}, clients.rows[res.ID].CustomFields,
		"el valor del campo desactivado se conserva")

	_, err = uc.Update(ctx, owner, res.ID, dto.UpdateClientRequest{CustomFields: map[string]any{"vat_payer": false}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "no se escriben campos desactivados")

	_, err = uc.Update(ctx, owner, res.ID, dto.UpdateClientRequest{CustomFields: map[string]any{"vat_payer": nil}})
	require.NoError(t, err)
	assert.NotContains(t, clients.rows[res.ID].CustomFields, "vat_payer")
}

func TestClientGet_OtraEmpresa(t *testing.T) {
	uc, _, _ := newClientFixture()
	ctx := context.Background()
	res, err := uc.Create(ctx, owner, dto.CreateClientRequest{Name: "A", CustomFields: map[string]any{"tax_form": "ryczalt"}})
	require.NoError(t, err)

	_, err = uc.Get(ctx, Actor{UserID: "x", CompanyID: companyB, Role: entity.RoleCompanyOwner}, res.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateField_Reglas(t *testing.T) {
	uc, _, _ := newClientFixture()
	ctx := context.Background()

	_, err := uc.CreateField(ctx, owner, dto.ClientFieldRequest{Key: "Bad Key", Label: "x", Type: entity.FieldText})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.CreateField(ctx, owner, dto.ClientFieldRequest{Key: "kind", Label: "Tipo", Type: entity.FieldSelect})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "select sin opciones")

	_, err = uc.CreateField(ctx, owner, dto.ClientFieldRequest{Key: "vat_payer", Label: "IVA", Type: entity.FieldBoolean})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	f, err := uc.CreateField(ctx, owner, dto.ClientFieldRequest{Key: "kind", Label: "Tipo", Type: entity.FieldSelect, Options: []string{"a", " a ", "b", ""}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, f.Options)
}

func TestIcons(t *testing.T) {
	uc, _, storage := newClientFixture()
	ctx := context.Background()

	_, err := uc.UploadIcon(ctx, owner, "logo.gif", "image/gif", 10, strings.NewReader("GIF89a"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.UploadIcon(ctx, owner, "big.png", "image/png", MaxIconSize+1, strings.NewReader(""))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	icon, err := uc.UploadIcon(ctx, owner, "../../logo.png", "image/png", 4, strings.NewReader("\x89PNG"))
	require.NoError(t, err)
	assert.Equal(t, "logo.png", icon.Name)
	assert.Contains(t, icon.URL, companyA+"/client-icons/")
	assert.Len(t, storage.objects, 1)

	c, err := uc.Create(ctx, owner, dto.CreateClientRequest{Name: "Con ícono", IconID: &icon.ID, CustomFields: map[string]any{"tax_form": "ryczalt"}})
	require.NoError(t, err)
	assert.ErrorIs(t, uc.DeleteIcon(ctx, owner, icon.ID), domain.ErrConflict)

	require.NoError(t, uc.Deactivate(ctx, owner, c.ID))
	require.NoError(t, uc.DeleteIcon(ctx, owner, icon.ID))
	assert.Empty(t, storage.objects)
}

func TestIcons_SinAlmacenamiento(t *testing.T) {
	uc := NewClientUseCase(&memClients{}, &memFields{}, &memIcons{}, nil, 0, nil)
	_, err := uc.ListIcons(context.Background(), owner)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}
