package entity

import "time"

// Estados de tarea.
const (
	TaskTodo       = "todo"
	TaskInProgress = "in_progress"
	TaskDone       = "done"
	TaskCancelled  = "cancelled"
)

// Prioridades de tarea.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Task es una tarea interna de la oficina, opcionalmente ligada a un cliente.
type Task struct {
	ID             string
	CompanyID      string
	Title          string
	Description    string
	Status         string
	Priority       string
	DueDate        *time.Time
	AssigneeID     *string
	ClientID       *string
	CreatedBy      string
	CompletedAt    *time.Time
	ReminderSentAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SetStatus cambia el estado manteniendo CompletedAt coherente.
func (t *Task) SetStatus(status string, now time.Time) {
	t.Status = status
	if status == TaskDone {
		if t.CompletedAt == nil {
			t.CompletedAt = &now
		}
		return
	}
	t.CompletedAt = nil
}
