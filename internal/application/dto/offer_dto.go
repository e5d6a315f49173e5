package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeadRequest alta/edición de lead.
type LeadRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"max=40"`
	CompanyName string `json:"company_name" validate:"max=200"`
	Source      string `json:"source" validate:"max=100"`
	Status      string `json:"status" validate:"omitempty,oneof=new contacted qualified lost"`
	Notes       string `json:"notes"`
}

// LeadResponse salida de lead.
type LeadResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	CompanyName       string    `json:"company_name"`
	Source            string    `json:"source"`
	Status            string    `json:"status"`
	Notes             string    `json:"notes"`
	ConvertedClientID *string   `json:"converted_client_id,omitempty"`
	CreatedBy         string    `json:"created_by"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ConvertLeadRequest datos extra del cliente creado a partir del lead.
type ConvertLeadRequest struct {
	NIP     string `json:"nip" validate:"omitempty,max=20"`
	Address string `json:"address" validate:"max=300"`
}

// OfferItemRequest línea de oferta.
type OfferItemRequest struct {
	Description string          `json:"description" validate:"required,min=1,max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// CreateOfferRequest alta de oferta.
type CreateOfferRequest struct {
	ClientID   *string            `json:"client_id" validate:"omitempty,uuid"`
	LeadID     *string            `json:"lead_id" validate:"omitempty,uuid"`
	Title      string             `json:"title" validate:"required,min=1,max=200"`
	ValidUntil *time.Time         `json:"valid_until"`
	Currency   string             `json:"currency" validate:"omitempty,len=3"`
	Notes      string             `json:"notes"`
	Items      []OfferItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateOfferRequest edición de oferta en borrador. Version es obligatoria (concurrencia optimista).
type UpdateOfferRequest struct {
	Version    int                `json:"version" validate:"required,min=1"`
	Title      *string            `json:"title" validate:"omitempty,min=1,max=200"`
	ValidUntil *time.Time         `json:"valid_until"`
	Notes      *string            `json:"notes"`
	Items      []OfferItemRequest `json:"items" validate:"omitempty,dive"`
}

// OfferStatusRequest cambio de estado.
type OfferStatusRequest struct {
	Version int    `json:"version" validate:"required,min=1"`
	Status  string `json:"status" validate:"required,oneof=sent accepted rejected expired"`
}

// OfferItemResponse línea de oferta calculada.
type OfferItemResponse struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Net         decimal.Decimal `json:"net"`
	Tax         decimal.Decimal `json:"tax"`
	Gross       decimal.Decimal `json:"gross"`
	Position    int             `json:"position"`
}

// OfferResponse salida de oferta.
type OfferResponse struct {
	ID         string              `json:"id"`
	Number     string              `json:"number"`
	ClientID   *string             `json:"client_id,omitempty"`
	LeadID     *string             `json:"lead_id,omitempty"`
	Title      string              `json:"title"`
	Status     string              `json:"status"`
	ValidUntil *time.Time          `json:"valid_until,omitempty"`
	Currency   string              `json:"currency"`
	Items      []OfferItemResponse `json:"items"`
	Net        decimal.Decimal     `json:"net"`
	Tax        decimal.Decimal     `json:"tax"`
	Gross      decimal.Decimal     `json:"gross"`
	Notes      string              `json:"notes"`
	Version    int                 `json:"version"`
	CreatedBy  string              `json:"created_by"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}
