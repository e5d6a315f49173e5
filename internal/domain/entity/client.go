package entity

import "time"

// Client es un cliente de la oficina contable.
type Client struct {
	ID           string
	CompanyID    string
	Name         string
	NIP          string
	Email        string
	Phone        string
	Address      string
	Notes        string
	IconID       *string
	CustomFields map[string]any
	SearchKey    string // nombre/NIP/email normalizados para búsqueda
	IsActive     bool
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Tipos de campo personalizado.
const (
	FieldText    = "text"
	FieldNumber  = "number"
	FieldDate    = "date"
	FieldBoolean = "boolean"
	FieldSelect  = "select"
)

// ClientFieldDefinition define un campo personalizado de clientes por empresa.
type ClientFieldDefinition struct {
	ID        string
	CompanyID string
	Key       string
	Label     string
	Type      string
	Options   []string // solo para select
	Required  bool
	Position  int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClientIcon es una imagen subida al almacenamiento de objetos.
type ClientIcon struct {
	ID          string
	CompanyID   string
	Name        string
	ObjectKey   string
	ContentType string
	Size        int64
	CreatedAt   time.Time
}
