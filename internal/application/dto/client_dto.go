package dto

import "time"

// CreateClientRequest alta de cliente.
type CreateClientRequest struct {
	Name         string         `json:"name" validate:"required,min=1,max=200"`
	NIP          string         `json:"nip" validate:"omitempty,max=20"`
	Email        string         `json:"email" validate:"omitempty,email"`
	Phone        string         `json:"phone" validate:"max=40"`
	Address      string         `json:"address" validate:"max=300"`
	Notes        string         `json:"notes"`
	IconID       *string        `json:"icon_id" validate:"omitempty,uuid"`
	CustomFields map[string]any `json:"custom_fields"`
}

// UpdateClientRequest actualización parcial de cliente.
type UpdateClientRequest struct {
	Name         *string        `json:"name" validate:"omitempty,min=1,max=200"`
	NIP          *string        `json:"nip" validate:"omitempty,max=20"`
	Email        *string        `json:"email" validate:"omitempty,email"`
	Phone        *string        `json:"phone"`
	Address      *string        `json:"address"`
	Notes        *string        `json:"notes"`
	IconID       *string        `json:"icon_id" validate:"omitempty,uuid"`
	CustomFields map[string]any `json:"custom_fields"`
	IsActive     *bool          `json:"is_active"`
}

// ClientResponse salida de cliente.
type ClientResponse struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	NIP          string         `json:"nip"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	Address      string         `json:"address"`
	Notes        string         `json:"notes"`
	IconID       *string        `json:"icon_id,omitempty"`
	CustomFields map[string]any `json:"custom_fields"`
	IsActive     bool           `json:"is_active"`
	CreatedBy    string         `json:"created_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ClientListResponse lista paginada de clientes.
type ClientListResponse struct {
	Items []ClientResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}

// ClientFieldRequest alta/edición de campo personalizado.
type ClientFieldRequest struct {
	Key      string   `json:"key" validate:"required,min=1,max=50"`
	Label    string   `json:"label" validate:"required,min=1,max=100"`
	Type     string   `json:"type" validate:"required,oneof=text number date boolean select"`
	Options  []string `json:"options"`
	Required bool     `json:"required"`
	Position int      `json:"position"`
}

// ClientFieldResponse salida de campo personalizado.
type ClientFieldResponse struct {
	ID       string   `json:"id"`
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
	Position int      `json:"position"`
}

// ClientIconResponse ícono con URL temporal de descarga.
type ClientIconResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}
