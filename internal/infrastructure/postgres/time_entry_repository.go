package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
)

var _ repository.TimeEntryRepository = (*TimeEntryRepo)(nil)

const timeEntryColumns = `id, company_id, user_id, client_id::text, task_id::text, description, started_at, ended_at,
	duration_minutes, billable, hourly_rate, created_at, updated_at`

// TimeEntryRepo registros de tiempo. Un índice único parcial impide dos cronómetros abiertos por usuario.
type TimeEntryRepo struct {
	q Querier
}

func NewTimeEntryRepository(q Querier) *TimeEntryRepo {
	return &TimeEntryRepo{q: q}
}

func scanTimeEntry(row pgx.Row) (*entity.TimeEntry, error) {
	var e entity.TimeEntry
	err := row.Scan(&e.ID, &e.CompanyID, &e.UserID, &e.ClientID, &e.TaskID, &e.Description, &e.StartedAt,
		&e.EndedAt, &e.DurationMinutes, &e.Billable, &e.HourlyRate, &e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

// Create inserta la entrada. Un segundo cronómetro abierto devuelve ErrConflict.
func (r *TimeEntryRepo) Create(ctx context.Context, e *entity.TimeEntry) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO time_entries (id, company_id, user_id, client_id, task_id, description, started_at, ended_at,
		                          duration_minutes, billable, hourly_rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, e.CompanyID, e.UserID, e.ClientID, e.TaskID, e.Description, e.StartedAt, e.EndedAt,
		e.DurationMinutes, e.Billable, e.HourlyRate, e.CreatedAt, e.UpdatedAt)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("insert time entry: %w", domain.ErrConflict)
	}
	return wrap("insert time entry", err)
}

func (r *TimeEntryRepo) GetByID(ctx context.Context, companyID, id string) (*entity.TimeEntry, error) {
	e, err := scanTimeEntry(r.q.QueryRow(ctx, `SELECT `+timeEntryColumns+` FROM time_entries WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get time entry: %w", err)
	}
	return e, nil
}

// GetRunning cronómetro abierto del usuario, nil si no hay.
func (r *TimeEntryRepo) GetRunning(ctx context.Context, userID string) (*entity.TimeEntry, error) {
	e, err := scanTimeEntry(r.q.QueryRow(ctx, `SELECT `+timeEntryColumns+` FROM time_entries WHERE user_id = $1 AND ended_at IS NULL`, userID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get running entry: %w", err)
	}
	return e, nil
}

func (r *TimeEntryRepo) Update(ctx context.Context, e *entity.TimeEntry) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE time_entries SET client_id = $3, task_id = $4, description = $5, started_at = $6, ended_at = $7,
			duration_minutes = $8, billable = $9, hourly_rate = $10, updated_at = $11
		WHERE company_id = $1 AND id = $2`,
		e.CompanyID, e.ID, e.ClientID, e.TaskID, e.Description, e.StartedAt, e.EndedAt,
		e.DurationMinutes, e.Billable, e.HourlyRate, e.UpdatedAt)
	if err != nil {
		return wrap("update time entry", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TimeEntryRepo) Delete(ctx context.Context, companyID, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM time_entries WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return fmt.Errorf("delete time entry: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List filtra por usuario, cliente y rango [From, To) sobre started_at.
func (r *TimeEntryRepo) List(ctx context.Context, companyID string, f repository.TimeEntryFilter) ([]*entity.TimeEntry, error) {
	rows, err := r.q.Query(ctx, `SELECT `+timeEntryColumns+` FROM time_entries
		WHERE company_id = $1
		  AND ($2 = '' OR user_id::text = $2)
		  AND ($3 = '' OR client_id::text = $3)
		  AND ($4::timestamptz IS NULL OR started_at >= $4)
		  AND ($5::timestamptz IS NULL OR started_at < $5)
		ORDER BY started_at DESC, id LIMIT $6 OFFSET $7`,
		companyID, f.UserID, f.ClientID, f.From, f.To, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	defer rows.Close()
	var list []*entity.TimeEntry
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
