package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestOffer_Recalculate(t *testing.T) {
	o := &Offer{Items: []OfferItem{
		{Description: "Contabilidad mensual", Quantity: d("1"), UnitPrice: d("850.00"), TaxRate: d("23")},
		{Description: "Nóminas", Quantity: d("3"), UnitPrice: d("33.333"), TaxRate: d("23")},
		{Description: "Asesoría exenta", Quantity: d("2"), UnitPrice: d("100"), TaxRate: d("0")},
	}}
	o.Recalculate()

	assert.Equal(t, "850", o.Items[0].Net.String())
	assert.Equal(t, "195.5", o.Items[0].Tax.String())
	assert.Equal(t, "33.33", o.Items[1].UnitPrice.String())
	assert.Equal(t, "99.99", o.Items[1].Net.String()) // 3 * 33.33
	assert.Equal(t, "23", o.Items[1].Tax.String())    // 22.9977 -> 23.00
	assert.True(t, o.Net.Equal(d("1149.99")))
	assert.True(t, o.Tax.Equal(d("218.5")))
	assert.True(t, o.Gross.Equal(d("1368.49")))
	assert.Equal(t, 3, o.Items[2].Position)
}

func TestOfferItem_ComputeConValoresGuardados(t *testing.T) {
	it := OfferItem{Quantity: d("1.2345"), UnitPrice: d("100"), TaxRate: d("23")}
	it.Compute()
	assert.Equal(t, "1.235", it.Quantity.String())
	assert.Equal(t, "123.5", it.Net.String())

	// recalcular desde lo guardado da el mismo resultado
	stored := OfferItem{Quantity: it.Quantity, UnitPrice: it.UnitPrice, TaxRate: it.TaxRate}
	stored.Compute()
	assert.True(t, stored.Net.Equal(it.Net))
	assert.True(t, stored.Gross.Equal(it.Gross))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(OfferDraft, OfferSent))
	assert.True(t, CanTransition(OfferSent, OfferAccepted))
	assert.True(t, CanTransition(OfferDraft, OfferExpired))
	assert.False(t, CanTransition(OfferDraft, OfferAccepted))
	assert.False(t, CanTransition(OfferAccepted, OfferDraft))
	assert.False(t, CanTransition(OfferRejected, OfferSent))
}

func TestTimeEntry_StopYAmount(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rate := d("120")
	e := &TimeEntry{StartedAt: start, Billable: true, HourlyRate: &rate}
	assert.True(t, e.Running())

	e.Stop(start.Add(90*time.Minute + 59*time.Second))
	assert.False(t, e.Running())
	assert.Equal(t, 90, e.DurationMinutes)
	assert.True(t, e.Amount().Equal(d("180")))

	e.Billable = false
	assert.True(t, e.Amount().IsZero())
}

func TestMinutesBetween_Negativo(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 0, MinutesBetween(now, now.Add(-time.Hour)))
}

func TestTask_SetStatus(t *testing.T) {
	now := time.Now()
	task := &Task{Status: TaskTodo}
	task.SetStatus(TaskDone, now)
	assert.NotNil(t, task.CompletedAt)

	task.SetStatus(TaskInProgress, now)
	assert.Nil(t, task.CompletedAt)
}

func TestCompanyModuleAccess_Effective(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, (&CompanyModuleAccess{IsActive: true}).Effective(now))
	assert.True(t, (&CompanyModuleAccess{IsActive: true, ExpiresAt: &future}).Effective(now))
	assert.False(t, (&CompanyModuleAccess{IsActive: true, ExpiresAt: &past}).Effective(now))
	assert.False(t, (&CompanyModuleAccess{IsActive: false}).Effective(now))
	var nilAccess *CompanyModuleAccess
	assert.False(t, nilAccess.Effective(now))
}

func TestUserModulePermission_Allows(t *testing.T) {
	p := &UserModulePermission{Permissions: []string{ActionRead}}
	assert.True(t, p.Allows(ActionRead))
	assert.False(t, p.Allows(ActionWrite))
	var nilPerm *UserModulePermission
	assert.False(t, nilPerm.Allows(ActionRead))
}
