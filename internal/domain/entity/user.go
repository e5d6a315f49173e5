package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin        = "admin"
	RoleCompanyOwner = "company_owner"
	RoleEmployee     = "employee"
)

// IsValidRole indica si r es uno de los roles conocidos.
func IsValidRole(r string) bool {
	return r == RoleAdmin || r == RoleCompanyOwner || r == RoleEmployee
}

// User representa un usuario del sistema. Los admin de plataforma no tienen CompanyID.
type User struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash string // bcrypt hash
	Name         string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
