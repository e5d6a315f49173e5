package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
	"github.com/jhoicas/OficinaContable-api/pkg/logger"
)

const reminderBatch = 100

// TaskUseCase tareas internas de la oficina.
type TaskUseCase struct {
	tasks    repository.TaskRepository
	users    repository.UserRepository
	clients  repository.ClientRepository
	notifier Notifier
	log      *logger.Logger
	now      func() time.Time
}

// NewTaskUseCase construye el caso de uso.
func NewTaskUseCase(tasks repository.TaskRepository, users repository.UserRepository, clients repository.ClientRepository, notifier Notifier, log *logger.Logger) *TaskUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &TaskUseCase{tasks: tasks, users: users, clients: clients, notifier: notifier, log: log.Component("tasks"), now: time.Now}
}

// Create crea una tarea y avisa al asignado si es otra persona.
func (uc *TaskUseCase) Create(ctx context.Context, a Actor, in dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	if err := uc.checkAssignee(ctx, a.CompanyID, in.AssigneeID); err != nil {
		return nil, err
	}
	if err := uc.checkClient(ctx, a.CompanyID, in.ClientID); err != nil {
		return nil, err
	}
	priority := in.Priority
	if priority == "" {
		priority = entity.PriorityMedium
	}
	now := uc.now()
	t := &entity.Task{
		ID:          uuid.New().String(),
		CompanyID:   a.CompanyID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      entity.TaskTodo,
		Priority:    priority,
		DueDate:     in.DueDate,
		AssigneeID:  strPtrOrNil(in.AssigneeID),
		ClientID:    strPtrOrNil(in.ClientID),
		CreatedBy:   a.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.tasks.Create(ctx, t); err != nil {
		return nil, err
	}
	uc.notifyAssigned(ctx, a, t)
	return toTaskResponse(t), nil
}

// Get obtiene una tarea de la empresa.
func (uc *TaskUseCase) Get(ctx context.Context, a Actor, id string) (*dto.TaskResponse, error) {
	t, err := uc.load(ctx, a, id)
	if err != nil {
		return nil, err
	}
	return toTaskResponse(t), nil
}

// Update edita una tarea. Un cambio de asignado notifica al nuevo asignado.
func (uc *TaskUseCase) Update(ctx context.Context, a Actor, id string, in dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	t, err := uc.load(ctx, a, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.ClearDueDate {
		t.DueDate = nil
		t.ReminderSentAt = nil
	} else if in.DueDate != nil {
		t.DueDate = in.DueDate
		t.ReminderSentAt = nil
	}
	if in.ClientID != nil {
		if err := uc.checkClient(ctx, a.CompanyID, in.ClientID); err != nil {
			return nil, err
		}
		t.ClientID = strPtrOrNil(in.ClientID)
	}
	reassigned := false
	switch {
	case in.ClearAssignee:
		t.AssigneeID = nil
	case in.AssigneeID != nil && derefStr(t.AssigneeID) != *in.AssigneeID:
		if err := uc.checkAssignee(ctx, a.CompanyID, in.AssigneeID); err != nil {
			return nil, err
		}
		t.AssigneeID = strPtrOrNil(in.AssigneeID)
		reassigned = true
	}
	t.UpdatedAt = uc.now()
	if err := uc.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	if reassigned {
		uc.notifyAssigned(ctx, a, t)
	}
	return toTaskResponse(t), nil
}

// SetStatus cambia el estado; done fija completed_at y cualquier otro lo limpia.
func (uc *TaskUseCase) SetStatus(ctx context.Context, a Actor, id, status string) (*dto.TaskResponse, error) {
	t, err := uc.load(ctx, a, id)
	if err != nil {
		return nil, err
	}
	switch status {
	case entity.TaskTodo, entity.TaskInProgress, entity.TaskDone, entity.TaskCancelled:
	default:
		return nil, domain.Invalid("status", "estado desconocido")
	}
	now := uc.now()
	t.SetStatus(status, now)
	t.UpdatedAt = now
	if err := uc.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	return toTaskResponse(t), nil
}

// Delete borra una tarea.
func (uc *TaskUseCase) Delete(ctx context.Context, a Actor, id string) error {
	if _, err := uc.load(ctx, a, id); err != nil {
		return err
	}
	return uc.tasks.Delete(ctx, a.CompanyID, id)
}

// List lista tareas con filtros de estado, asignado, cliente y vencimiento.
func (uc *TaskUseCase) List(ctx context.Context, a Actor, f repository.TaskFilter) ([]dto.TaskResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	f.Limit, f.Offset = dto.NormalizePage(f.Limit, f.Offset)
	list, err := uc.tasks.List(ctx, a.CompanyID, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TaskResponse, 0, len(list))
	for _, t := range list {
		out = append(out, *toTaskResponse(t))
	}
	return out, nil
}

// SendReminders avisa de las tareas abiertas que vencen dentro de window y las marca
// como recordadas. Devuelve cuántos recordatorios se enviaron.
func (uc *TaskUseCase) SendReminders(ctx context.Context, window time.Duration) (int, error) {
	now := uc.now()
	sent := 0
	for {
		due, err := uc.tasks.DueForReminder(ctx, now.Add(window), reminderBatch)
		if err != nil {
			return sent, err
		}
		for _, t := range due {
			to := t.CreatedBy
			if t.AssigneeID != nil {
				to = *t.AssigneeID
			}
			if uc.notifier != nil {
				err := uc.notifier.Notify(ctx, &entity.Notification{
					CompanyID: t.CompanyID,
					UserID:    to,
					Type:      entity.NotificationTaskDue,
					Title:     "Tarea próxima a vencer",
					Message:   fmt.Sprintf("%q vence el %s.", t.Title, t.DueDate.Format("2006-01-02 15:04")),
					Link:      "/tasks/" + t.ID,
				})
				if err != nil {
					uc.log.Warn().Err(err).Str("task_id", t.ID).Msg("no se pudo enviar el recordatorio")
				}
			}
			if err := uc.tasks.MarkReminded(ctx, t.ID, now); err != nil {
				return sent, err
			}
			sent++
		}
		if len(due) < reminderBatch {
			return sent, nil
		}
	}
}

func (uc *TaskUseCase) load(ctx context.Context, a Actor, id string) (*entity.Task, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	t, err := uc.tasks.GetByID(ctx, a.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (uc *TaskUseCase) checkAssignee(ctx context.Context, companyID string, id *string) error {
	if strPtrOrNil(id) == nil {
		return nil
	}
	u, err := uc.users.GetByID(ctx, *id)
	if err != nil {
		return err
	}
	if u == nil || u.CompanyID != companyID || !u.IsActive {
		return domain.Invalid("assignee_id", "el asignado debe ser un usuario activo de la empresa")
	}
	return nil
}

func (uc *TaskUseCase) checkClient(ctx context.Context, companyID string, id *string) error {
	if strPtrOrNil(id) == nil || uc.clients == nil {
		return nil
	}
	c, err := uc.clients.GetByID(ctx, companyID, *id)
	if err != nil {
		return err
	}
	if c == nil {
		return domain.Invalid("client_id", "cliente inexistente")
	}
	return nil
}

func (uc *TaskUseCase) notifyAssigned(ctx context.Context, a Actor, t *entity.Task) {
	if uc.notifier == nil || t.AssigneeID == nil || *t.AssigneeID == a.UserID {
		return
	}
	err := uc.notifier.Notify(ctx, &entity.Notification{
		CompanyID: t.CompanyID,
		UserID:    *t.AssigneeID,
		Type:      entity.NotificationTaskAssigned,
		Title:     "Nueva tarea asignada",
		Message:   t.Title,
		Link:      "/tasks/" + t.ID,
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("task_id", t.ID).Msg("no se pudo notificar la asignación")
	}
}

func toTaskResponse(t *entity.Task) *dto.TaskResponse {
	return &dto.TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		AssigneeID:  t.AssigneeID,
		ClientID:    t.ClientID,
		CreatedBy:   t.CreatedBy,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
