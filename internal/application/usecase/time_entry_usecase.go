package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
)

const summaryPageSize = 500

// TimeEntryUseCase registro de tiempo: cronómetro, entradas manuales y resúmenes.
type TimeEntryUseCase struct {
	repo    repository.TimeEntryRepository
	clients repository.ClientRepository
	tasks   repository.TaskRepository
	now     func() time.Time
}

// NewTimeEntryUseCase construye el caso de uso.
func NewTimeEntryUseCase(repo repository.TimeEntryRepository, clients repository.ClientRepository, tasks repository.TaskRepository) *TimeEntryUseCase {
	return &TimeEntryUseCase{repo: repo, clients: clients, tasks: tasks, now: time.Now}
}

// Start arranca el cronómetro. Un usuario tiene como mucho una entrada en marcha.
func (uc *TimeEntryUseCase) Start(ctx context.Context, a Actor, in dto.StartTimerRequest) (*dto.TimeEntryResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	running, err := uc.repo.GetRunning(ctx, a.UserID)
	if err != nil {
		return nil, err
	}
	if running != nil {
		return nil, domain.ErrConflict
	}
	if err := uc.checkRefs(ctx, a.CompanyID, in.ClientID, in.TaskID); err != nil {
		return nil, err
	}
	now := uc.now()
	e := &entity.TimeEntry{
		ID:          uuid.New().String(),
		CompanyID:   a.CompanyID,
		UserID:      a.UserID,
		ClientID:    strPtrOrNil(in.ClientID),
		TaskID:      strPtrOrNil(in.TaskID),
		Description: strings.TrimSpace(in.Description),
		StartedAt:   now,
		Billable:    in.Billable,
		HourlyRate:  in.HourlyRate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := checkRate(e.HourlyRate); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return toTimeEntryResponse(e), nil
}

// Stop detiene el cronómetro en marcha del usuario.
func (uc *TimeEntryUseCase) Stop(ctx context.Context, a Actor) (*dto.TimeEntryResponse, error) {
	e, err := uc.repo.GetRunning(ctx, a.UserID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, domain.ErrNotFound
	}
	now := uc.now()
	e.Stop(now)
	e.UpdatedAt = now
	if err := uc.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return toTimeEntryResponse(e), nil
}

// Active devuelve la entrada en marcha del usuario o nil.
func (uc *TimeEntryUseCase) Active(ctx context.Context, a Actor) (*dto.TimeEntryResponse, error) {
	e, err := uc.repo.GetRunning(ctx, a.UserID)
	if err != nil || e == nil {
		return nil, err
	}
	return toTimeEntryResponse(e), nil
}

// Create registra una entrada manual ya cerrada.
func (uc *TimeEntryUseCase) Create(ctx context.Context, a Actor, in dto.TimeEntryRequest) (*dto.TimeEntryResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	if !in.EndedAt.After(in.StartedAt) {
		return nil, domain.Invalid("ended_at", "debe ser posterior a started_at")
	}
	if err := checkRate(in.HourlyRate); err != nil {
		return nil, err
	}
	if err := uc.checkRefs(ctx, a.CompanyID, in.ClientID, in.TaskID); err != nil {
		return nil, err
	}
	now := uc.now()
	e := &entity.TimeEntry{
		ID:          uuid.New().String(),
		CompanyID:   a.CompanyID,
		UserID:      a.UserID,
		ClientID:    strPtrOrNil(in.ClientID),
		TaskID:      strPtrOrNil(in.TaskID),
		Description: strings.TrimSpace(in.Description),
		StartedAt:   in.StartedAt,
		Billable:    in.Billable,
		HourlyRate:  in.HourlyRate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	e.Stop(in.EndedAt)
	if err := uc.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return toTimeEntryResponse(e), nil
}

// Update modifica una entrada propia (el dueño puede editar cualquiera de la empresa).
func (uc *TimeEntryUseCase) Update(ctx context.Context, a Actor, id string, in dto.TimeEntryRequest) (*dto.TimeEntryResponse, error) {
	e, err := uc.load(ctx, a, id)
	if err != nil {
		return nil, err
	}
	if !in.EndedAt.After(in.StartedAt) {
		return nil, domain.Invalid("ended_at", "debe ser posterior a started_at")
	}
	if err := checkRate(in.HourlyRate); err != nil {
		return nil, err
	}
	if err := uc.checkRefs(ctx, a.CompanyID, in.ClientID, in.TaskID); err != nil {
		return nil, err
	}
	e.ClientID = strPtrOrNil(in.ClientID)
	e.TaskID = strPtrOrNil(in.TaskID)
	e.Description = strings.TrimSpace(in.Description)
	e.StartedAt = in.StartedAt
	e.Billable = in.Billable
	e.HourlyRate = in.HourlyRate
	e.Stop(in.EndedAt)
	e.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return toTimeEntryResponse(e), nil
}

// Delete borra una entrada propia (o cualquiera, para el dueño).
func (uc *TimeEntryUseCase) Delete(ctx context.Context, a Actor, id string) error {
	if _, err := uc.load(ctx, a, id); err != nil {
		return err
	}
	return uc.repo.Delete(ctx, a.CompanyID, id)
}

// List entradas filtradas. Los empleados solo ven las suyas.
func (uc *TimeEntryUseCase) List(ctx context.Context, a Actor, f repository.TimeEntryFilter) ([]dto.TimeEntryResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	if !a.CanManage() {
		f.UserID = a.UserID
	}
	f.Limit, f.Offset = dto.NormalizePage(f.Limit, f.Offset)
	list, err := uc.repo.List(ctx, a.CompanyID, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TimeEntryResponse, 0, len(list))
	for _, e := range list {
		out = append(out, *toTimeEntryResponse(e))
	}
	return out, nil
}

// Summary totales por cliente y por usuario de las entradas cerradas en [from, to).
func (uc *TimeEntryUseCase) Summary(ctx context.Context, a Actor, from, to time.Time) (*dto.TimeSummaryResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	if !to.After(from) {
		return nil, domain.Invalid("to", "debe ser posterior a from")
	}
	f := repository.TimeEntryFilter{From: &from, To: &to, Limit: summaryPageSize}
	if !a.CanManage() {
		f.UserID = a.UserID
	}
	var entries []*entity.TimeEntry
	for {
		page, err := uc.repo.List(ctx, a.CompanyID, f)
		if err != nil {
			return nil, err
		}
		entries = append(entries, page...)
		if len(page) < summaryPageSize {
			break
		}
		f.Offset += summaryPageSize
	}
	return summarize(from, to, entries), nil
}

func summarize(from, to time.Time, entries []*entity.TimeEntry) *dto.TimeSummaryResponse {
	byClient := map[string]*dto.TimeSummaryRow{}
	byUser := map[string]*dto.TimeSummaryRow{}
	total := dto.TimeSummaryRow{Amount: decimal.Zero}
	add := func(m map[string]*dto.TimeSummaryRow, key string, e *entity.TimeEntry) {
		row, ok := m[key]
		if !ok {
			row = &dto.TimeSummaryRow{Key: key, Amount: decimal.Zero}
			m[key] = row
		}
		accumulate(row, e)
	}
	for _, e := range entries {
		if e.Running() {
			continue
		}
		accumulate(&total, e)
		add(byClient, derefStr(e.ClientID), e)
		add(byUser, e.UserID, e)
	}
	return &dto.TimeSummaryResponse{
		From:     from,
		To:       to,
		Total:    total,
		ByClient: sortedRows(byClient),
		ByUser:   sortedRows(byUser),
	}
}

func accumulate(row *dto.TimeSummaryRow, e *entity.TimeEntry) {
	row.Minutes += e.DurationMinutes
	if e.Billable {
		row.BillableMinutes += e.DurationMinutes
	}
	row.Amount = row.Amount.Add(e.Amount())
}

func sortedRows(m map[string]*dto.TimeSummaryRow) []dto.TimeSummaryRow {
	out := make([]dto.TimeSummaryRow, 0, len(m))
	for _, r := range m {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Minutes != out[j].Minutes {
			return out[i].Minutes > out[j].Minutes
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func (uc *TimeEntryUseCase) load(ctx context.Context, a Actor, id string) (*entity.TimeEntry, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	e, err := uc.repo.GetByID(ctx, a.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if e == nil || (e.UserID != a.UserID && !a.CanManage()) {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func (uc *TimeEntryUseCase) checkRefs(ctx context.Context, companyID string, clientID, taskID *string) error {
	if id := strPtrOrNil(clientID); id != nil && uc.clients != nil {
		c, err := uc.clients.GetByID(ctx, companyID, *id)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.Invalid("client_id", "cliente inexistente")
		}
	}
	if id := strPtrOrNil(taskID); id != nil && uc.tasks != nil {
		t, err := uc.tasks.GetByID(ctx, companyID, *id)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.Invalid("task_id", "tarea inexistente")
		}
	}
	return nil
}

func checkRate(rate *decimal.Decimal) error {
	if rate != nil && rate.IsNegative() {
		return domain.Invalid("hourly_rate", "no puede ser negativa")
	}
	return nil
}

func toTimeEntryResponse(e *entity.TimeEntry) *dto.TimeEntryResponse {
	return &dto.TimeEntryResponse{
		ID:              e.ID,
		UserID:          e.UserID,
		ClientID:        e.ClientID,
		TaskID:          e.TaskID,
		Description:     e.Description,
		StartedAt:       e.StartedAt,
		EndedAt:         e.EndedAt,
		DurationMinutes: e.DurationMinutes,
		Running:         e.Running(),
		Billable:        e.Billable,
		HourlyRate:      e.HourlyRate,
		Amount:          e.Amount(),
	}
}
