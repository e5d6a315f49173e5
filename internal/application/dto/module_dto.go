package dto

import "time"

// ModuleResponse módulo del catálogo.
type ModuleResponse struct {
	ID                     string    `json:"id"`
	Slug                   string    `json:"slug"`
	Name                   string    `json:"name"`
	Description            string    `json:"description"`
	Version                string    `json:"version"`
	Category               string    `json:"category"`
	Icon                   string    `json:"icon"`
	Permissions            []string  `json:"permissions"`
	DefaultForNewCompanies bool      `json:"default_for_new_companies"`
	IsActive               bool      `json:"is_active"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// SyncReportResponse resultado de sincronizar manifiestos con la BD.
type SyncReportResponse struct {
	Discovered  int             `json:"discovered"`
	Created     int             `json:"created"`
	Updated     int             `json:"updated"`
	Deactivated int             `json:"deactivated"`
	Invalid     []InvalidModule `json:"invalid"`
}

// InvalidModule manifiesto descartado y motivo.
type InvalidModule struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// GrantModuleRequest activación de un módulo para una empresa.
type GrantModuleRequest struct {
	ExpiresAt *time.Time `json:"expires_at"`
}

// CompanyModuleResponse acceso de una empresa a un módulo.
type CompanyModuleResponse struct {
	ModuleSlug  string     `json:"module_slug"`
	ModuleName  string     `json:"module_name"`
	IsActive    bool       `json:"is_active"`
	Effective   bool       `json:"effective"`
	ActivatedAt time.Time  `json:"activated_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// RevokeModuleResponse resultado de revocar un módulo.
type RevokeModuleResponse struct {
	ModuleSlug         string `json:"module_slug"`
	PermissionsDeleted int    `json:"permissions_deleted"`
}

// SetPermissionsRequest acciones concedidas a un empleado sobre un módulo.
type SetPermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"dive,oneof=read write delete"`
}

// PermissionResponse permisos de un empleado sobre un módulo.
type PermissionResponse struct {
	ModuleSlug  string   `json:"module_slug"`
	Permissions []string `json:"permissions"`
}

// ModuleAccessView módulo accesible por el usuario actual y sus acciones.
type ModuleAccessView struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Icon        string   `json:"icon"`
	Category    string   `json:"category"`
	Permissions []string `json:"permissions"`
}
