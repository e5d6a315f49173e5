package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de lead.
const (
	LeadNew       = "new"
	LeadContacted = "contacted"
	LeadQualified = "qualified"
	LeadLost      = "lost"
	LeadConverted = "converted"
)

// Lead es un potencial cliente.
type Lead struct {
	ID                string
	CompanyID         string
	Name              string
	Email             string
	Phone             string
	CompanyName       string
	Source            string
	Status            string
	Notes             string
	ConvertedClientID *string
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Estados de oferta.
const (
	OfferDraft    = "draft"
	OfferSent     = "sent"
	OfferAccepted = "accepted"
	OfferRejected = "rejected"
	OfferExpired  = "expired"
)

var offerTransitions = map[string][]string{
	OfferDraft: {OfferSent, OfferExpired},
	OfferSent:  {OfferAccepted, OfferRejected, OfferExpired},
}

// CanTransition indica si una oferta puede pasar de from a to.
func CanTransition(from, to string) bool {
	for _, s := range offerTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Offer es una oferta comercial dirigida a un cliente o a un lead.
type Offer struct {
	ID         string
	CompanyID  string
	Number     string
	ClientID   *string
	LeadID     *string
	Title      string
	Status     string
	ValidUntil *time.Time
	Currency   string
	Items      []OfferItem
	Net        decimal.Decimal
	Tax        decimal.Decimal
	Gross      decimal.Decimal
	Notes      string
	Version    int
	CreatedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OfferItem es una línea de la oferta. TaxRate en porcentaje (23 = 23 %).
type OfferItem struct {
	ID          string
	OfferID     string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
	Net         decimal.Decimal
	Tax         decimal.Decimal
	Gross       decimal.Decimal
	Position    int
}

var hundred = decimal.NewFromInt(100)

// Escalas de las columnas de offer_items.
const (
	QuantityScale = 3
	PriceScale    = 2
)

// Compute redondea cantidad, precio y tipo a la escala con que se guardan y calcula
// neto, impuesto y bruto de la línea redondeados a 2 decimales.
func (it *OfferItem) Compute() {
	it.Quantity = it.Quantity.Round(QuantityScale)
	it.UnitPrice = it.UnitPrice.Round(PriceScale)
	it.TaxRate = it.TaxRate.Round(PriceScale)
	it.Net = it.Quantity.Mul(it.UnitPrice).Round(2)
	it.Tax = it.Net.Mul(it.TaxRate).Div(hundred).Round(2)
	it.Gross = it.Net.Add(it.Tax)
}

// Recalculate recalcula cada línea y los totales de la oferta.
func (o *Offer) Recalculate() {
	o.Net, o.Tax, o.Gross = decimal.Zero, decimal.Zero, decimal.Zero
	for i := range o.Items {
		o.Items[i].Position = i + 1
		o.Items[i].Compute()
		o.Net = o.Net.Add(o.Items[i].Net)
		o.Tax = o.Tax.Add(o.Items[i].Tax)
		o.Gross = o.Gross.Add(o.Items[i].Gross)
	}
}
