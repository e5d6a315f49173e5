package entity

import "time"

// Company representa una oficina contable (tenant).
type Company struct {
	ID        string
	Name      string
	NIP       string // identificador fiscal, único
	Address   string
	Phone     string
	Email     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
