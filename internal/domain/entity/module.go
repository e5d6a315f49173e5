package entity

import (
	"slices"
	"time"
)

// Acciones de permiso sobre un módulo.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
)

// AllActions en orden canónico.
var AllActions = []string{ActionRead, ActionWrite, ActionDelete}

// IsValidAction indica si a es una acción conocida.
func IsValidAction(a string) bool {
	return slices.Contains(AllActions, a)
}

// Slugs de los módulos que trae el producto (deben existir como modules/<dir>/module.json).
const (
	ModuleClients      = "clients"
	ModuleOffers       = "offers"
	ModuleTimeTracking = "time-tracking"
	ModuleTasks        = "tasks"
	ModuleEmailClient  = "email-client"
	ModuleAIAgent      = "ai-agent"
)

// Module es un área funcional que una empresa puede tener habilitada.
// Se sincroniza desde los manifiestos module.json del disco.
type Module struct {
	ID                     string
	Slug                   string
	Name                   string
	Description            string
	Version                string
	Category               string
	Icon                   string
	Permissions            []string // acciones que el módulo admite
	DefaultForNewCompanies bool
	IsActive               bool // false si el manifiesto desapareció del disco
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Supports indica si el módulo declara la acción.
func (m *Module) Supports(action string) bool {
	return slices.Contains(m.Permissions, action)
}

// CompanyModuleAccess representa la activación de un módulo en una empresa.
type CompanyModuleAccess struct {
	ID          string
	CompanyID   string
	ModuleSlug  string
	IsActive    bool
	ActivatedAt time.Time
	ExpiresAt   *time.Time // nil = sin vencimiento
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Effective indica si el acceso está activo y sin vencer en el instante now.
func (a *CompanyModuleAccess) Effective(now time.Time) bool {
	if a == nil || !a.IsActive {
		return false
	}
	return a.ExpiresAt == nil || a.ExpiresAt.After(now)
}

// UserModulePermission son las acciones concedidas a un empleado sobre un módulo.
type UserModulePermission struct {
	ID          string
	UserID      string
	CompanyID   string
	ModuleSlug  string
	Permissions []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Allows indica si la concesión incluye la acción.
func (p *UserModulePermission) Allows(action string) bool {
	return p != nil && slices.Contains(p.Permissions, action)
}
