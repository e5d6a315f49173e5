package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

func newTimeFixture(clock *time.Time) (*TimeEntryUseCase, *memTimeEntries) {
	repo := &memTimeEntries{rows: map[string]*entity.TimeEntry{}}
	clients := &memClients{rows: map[string]*entity.Client{
		"cli-1": {ID: "cli-1", CompanyID: companyA, Name: "Kowalski", IsActive: true},
	}}
	uc := NewTimeEntryUseCase(repo, clients, &memTasks{rows: map[string]*entity.Task{}})
	uc.now = func() time.Time { return *clock }
	return uc, repo
}

func TestTimer_StartStop(t *testing.T) {
	clock := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	uc, _ := newTimeFixture(&clock)
	ctx := context.Background()
	rate := decimal.NewFromInt(120)
	cli := "cli-1"

	started, err := uc.Start(ctx, employee, dto.StartTimerRequest{ClientID: &cli, Billable: true, HourlyRate: &rate})
	require.NoError(t, err)
	assert.True(t, started.Running)

	_, err = uc.Start(ctx, employee, dto.StartTimerRequest{})
	assert.ErrorIs(t, err, domain.ErrConflict, "un solo cronómetro por usuario")

	active, err := uc.Active(ctx, employee)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, started.ID, active.ID)

	clock = clock.Add(90*time.Minute + 40*time.Second)
	stopped, err := uc.Stop(ctx, employee)
	require.NoError(t, err)
	assert.False(t, stopped.Running)
	assert.Equal(t, 90, stopped.DurationMinutes)
	assert.True(t, decimal.NewFromInt(180).Equal(stopped.Amount), stopped.Amount.String())

	active, err = uc.Active(ctx, employee)
	require.NoError(t, err)
	assert.Nil(t, active)

	_, err = uc.Stop(ctx, employee)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTimer_ClienteDeOtraEmpresa(t *testing.T) {
	clock := time.Now()
	uc, _ := newTimeFixture(&clock)
	cli := "cli-1"
	other := Actor{UserID: "x", CompanyID: companyB, Role: entity.RoleCompanyOwner}
	_, err := uc.Start(context.Background(), other, dto.StartTimerRequest{ClientID: &cli})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTimeEntry_CreateValidaciones(t *testing.T) {
	clock := time.Now()
	uc, _ := newTimeFixture(&clock)
	ctx := context.Background()
	start := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	_, err := uc.Create(ctx, employee, dto.TimeEntryRequest{StartedAt: start, EndedAt: start})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	neg := decimal.NewFromInt(-1)
	_, err = uc.Create(ctx, employee, dto.TimeEntryRequest{StartedAt: start, EndedAt: start.Add(time.Hour), HourlyRate: &neg})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	e, err := uc.Create(ctx, employee, dto.TimeEntryRequest{StartedAt: start, EndedAt: start.Add(45 * time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, 45, e.DurationMinutes)
	assert.False(t, e.Running)
}

func TestTimeEntry_EntradasAjenas(t *testing.T) {
	clock := time.Now()
	uc, _ := newTimeFixture(&clock)
	ctx := context.Background()
	start := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	e, err := uc.Create(ctx, owner, dto.TimeEntryRequest{StartedAt: start, EndedAt: start.Add(time.Hour)})
	require.NoError(t, err)

	assert.ErrorIs(t, uc.Delete(ctx, employee, e.ID), domain.ErrNotFound)

	mine, err := uc.Create(ctx, employee, dto.TimeEntryRequest{StartedAt: start, EndedAt: start.Add(time.Hour)})
	require.NoError(t, err)
	assert.NoError(t, uc.Delete(ctx, owner, mine.ID), "el dueño gestiona las entradas de su empresa")
}

func TestSummary(t *testing.T) {
	clock := time.Date(2026, 4, 30, 18, 0, 0, 0, time.UTC)
	uc, _ := newTimeFixture(&clock)
	ctx := context.Background()
	day := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	rate := decimal.NewFromInt(100)
	cli := "cli-1"

	_, err := uc.Create(ctx, employee, dto.TimeEntryRequest{ClientID: &cli, StartedAt: day, EndedAt: day.Add(2 * time.Hour), Billable: true, HourlyRate: &rate})
	require.NoError(t, err)
	_, err = uc.Create(ctx, owner, dto.TimeEntryRequest{ClientID: &cli, StartedAt: day, EndedAt: day.Add(30 * time.Minute)})
	require.NoError(t, err)
	_, err = uc.Create(ctx, owner, dto.TimeEntryRequest{StartedAt: day.AddDate(0, 1, 0), EndedAt: day.AddDate(0, 1, 0).Add(time.Hour)})
	require.NoError(t, err)
	_, err = uc.Start(ctx, owner, dto.StartTimerRequest{})
	require.NoError(t, err)

	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	s, err := uc.Summary(ctx, owner, from, to)
	require.NoError(t, err)
	assert.Equal(t, 150, s.Total.Minutes)
	assert.Equal(t, 120, s.Total.BillableMinutes)
	assert.True(t, decimal.NewFromInt(200).Equal(s.Total.Amount))
	require.Len(t, s.ByClient, 1)
	assert.Equal(t, "cli-1", s.ByClient[0].Key)
	require.Len(t, s.ByUser, 2)
	assert.Equal(t, employee.UserID, s.ByUser[0].Key)

	own, err := uc.Summary(ctx, employee, from, to)
	require.NoError(t, err)
	assert.Equal(t, 120, own.Total.Minutes, "el empleado solo ve sus entradas")

	_, err = uc.Summary(ctx, owner, to, from)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
