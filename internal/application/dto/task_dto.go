package dto

import "time"

// CreateTaskRequest alta de tarea.
type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeID  *string    `json:"assignee_id" validate:"omitempty,uuid"`
	ClientID    *string    `json:"client_id" validate:"omitempty,uuid"`
}

// UpdateTaskRequest edición parcial de tarea.
type UpdateTaskRequest struct {
	Title         *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description   *string    `json:"description"`
	Priority      *string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate       *time.Time `json:"due_date"`
	ClearDueDate  bool       `json:"clear_due_date"`
	AssigneeID    *string    `json:"assignee_id" validate:"omitempty,uuid"`
	ClearAssignee bool       `json:"clear_assignee"`
	ClientID      *string    `json:"client_id" validate:"omitempty,uuid"`
}

// TaskStatusRequest cambio de estado.
type TaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=todo in_progress done cancelled"`
}

// TaskResponse salida de tarea.
type TaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	AssigneeID  *string    `json:"assignee_id,omitempty"`
	ClientID    *string    `json:"client_id,omitempty"`
	CreatedBy   string     `json:"created_by"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
