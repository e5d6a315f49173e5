package entity

import "time"

// Tipos de notificación emitidos por el backend.
const (
	NotificationTaskAssigned       = "task_assigned"
	NotificationTaskDue            = "task_due"
	NotificationPermissionsChanged = "permissions_changed"
	NotificationModuleRevoked      = "module_revoked"
)

// Notification es un aviso para un usuario.
type Notification struct {
	ID        string
	CompanyID string
	UserID    string
	Type      string
	Title     string
	Message   string
	Link      string
	IsRead    bool
	ReadAt    *time.Time
	CreatedAt time.Time
}
