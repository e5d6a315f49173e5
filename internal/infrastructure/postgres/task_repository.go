package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
)

var _ repository.TaskRepository = (*TaskRepo)(nil)

const taskColumns = `id, company_id, title, description, status, priority, due_date, assignee_id::text, client_id::text,
	created_by, completed_at, reminder_sent_at, created_at, updated_at`

// TaskRepo tareas internas de la oficina.
type TaskRepo struct {
	q Querier
}

func NewTaskRepository(q Querier) *TaskRepo {
	return &TaskRepo{q: q}
}

func scanTask(row pgx.Row) (*entity.Task, error) {
	var t entity.Task
	err := row.Scan(&t.ID, &t.CompanyID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate,
		&t.AssigneeID, &t.ClientID, &t.CreatedBy, &t.CompletedAt, &t.ReminderSentAt, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *TaskRepo) Create(ctx context.Context, t *entity.Task) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO tasks (id, company_id, title, description, status, priority, due_date, assignee_id, client_id,
		                   created_by, completed_at, reminder_sent_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		t.ID, t.CompanyID, t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.AssigneeID, t.ClientID,
		t.CreatedBy, t.CompletedAt, t.ReminderSentAt, t.CreatedAt, t.UpdatedAt)
	return wrap("insert task", err)
}

func (r *TaskRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Task, error) {
	t, err := scanTask(r.q.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (r *TaskRepo) Update(ctx context.Context, t *entity.Task) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE tasks SET title = $3, description = $4, status = $5, priority = $6, due_date = $7, assignee_id = $8,
			client_id = $9, completed_at = $10, reminder_sent_at = $11, updated_at = $12
		WHERE company_id = $1 AND id = $2`,
		t.CompanyID, t.ID, t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.AssigneeID,
		t.ClientID, t.CompletedAt, t.ReminderSentAt, t.UpdatedAt)
	if err != nil {
		return wrap("update task", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, companyID, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM tasks WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List ordena por vencimiento (sin fecha al final).
func (r *TaskRepo) List(ctx context.Context, companyID string, f repository.TaskFilter) ([]*entity.Task, error) {
	rows, err := r.q.Query(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE company_id = $1
		  AND ($2 = '' OR status = $2)
		  AND ($3 = '' OR assignee_id::text = $3)
		  AND ($4 = '' OR client_id::text = $4)
		  AND ($5::timestamptz IS NULL OR due_date < $5)
		ORDER BY due_date NULLS LAST, created_at DESC LIMIT $6 OFFSET $7`,
		companyID, f.Status, f.AssigneeID, f.ClientID, f.DueBefore, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return collectTasks(rows)
}

// DueForReminder tareas abiertas con vencimiento antes de until y sin recordatorio enviado.
func (r *TaskRepo) DueForReminder(ctx context.Context, until time.Time, limit int) ([]*entity.Task, error) {
	rows, err := r.q.Query(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE due_date IS NOT NULL AND due_date < $1
		  AND reminder_sent_at IS NULL
		  AND status NOT IN ('done', 'cancelled')
		ORDER BY due_date LIMIT $2`, until, limit)
	if err != nil {
		return nil, fmt.Errorf("tasks due: %w", err)
	}
	return collectTasks(rows)
}

func (r *TaskRepo) MarkReminded(ctx context.Context, id string, at time.Time) error {
	_, err := r.q.Exec(ctx, `UPDATE tasks SET reminder_sent_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}
	return nil
}

func collectTasks(rows pgx.Rows) ([]*entity.Task, error) {
	defer rows.Close()
	var list []*entity.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
