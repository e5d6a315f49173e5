package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
)

type fakeSyncer struct{ calls atomic.Int32 }

func (f *fakeSyncer) Sync(ctx context.Context) (*dto.SyncReportResponse, error) {
	f.calls.Add(1)
	return &dto.SyncReportResponse{Discovered: 2, Created: 1}, nil
}

type fakeReminder struct {
	calls  atomic.Int32
	window atomic.Int64
}

func (f *fakeReminder) SendReminders(ctx context.Context, window time.Duration) (int, error) {
	f.calls.Add(1)
	f.window.Store(int64(window))
	return 3, nil
}

type fakeCleaner struct {
	calls     atomic.Int32
	retention atomic.Int64
}

func (f *fakeCleaner) Cleanup(ctx context.Context, retention time.Duration) (int, error) {
	f.calls.Add(1)
	f.retention.Store(int64(retention))
	return 0, errors.New("db caída")
}

func TestNew_RegistraJobs(t *testing.T) {
	s, err := New(Options{}, &fakeSyncer{}, &fakeReminder{}, &fakeCleaner{}, nil)
	require.NoError(t, err)
	defer s.Stop()

	assert.ElementsMatch(t, []string{JobModulesSync, JobTaskReminders, JobNotificationsCleanup}, s.Jobs())
}

func TestNew_OmiteServiciosNil(t *testing.T) {
	s, err := New(Options{}, &fakeSyncer{}, nil, nil, nil)
	require.NoError(t, err)
	defer s.Stop()

	assert.Equal(t, []string{JobModulesSync}, s.Jobs())
}

func TestOptions_Defaults(t *testing.T) {
	o := Options{TaskReminderInterval: time.Minute}
	o.defaults()
	assert.Equal(t, 15*time.Minute, o.ModulesSyncInterval)
	assert.Equal(t, time.Minute, o.TaskReminderInterval)
	assert.Equal(t, 24*time.Hour, o.CleanupInterval)
	assert.Equal(t, 30*24*time.Hour, o.NotificationRetention)
}

func TestScheduler_EjecutaJobs(t *testing.T) {
	syncer, reminder, cleaner := &fakeSyncer{}, &fakeReminder{}, &fakeCleaner{}
	s, err := New(Options{
		ModulesSyncInterval:   50 * time.Millisecond,
		TaskReminderInterval:  50 * time.Millisecond,
		CleanupInterval:       50 * time.Millisecond,
		NotificationRetention: 48 * time.Hour,
	}, syncer, reminder, cleaner, nil)
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return syncer.calls.Load() > 0 && reminder.calls.Load() > 0 && cleaner.calls.Load() > 0
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, int64(24*time.Hour), reminder.window.Load())
	assert.Equal(t, int64(48*time.Hour), cleaner.retention.Load())
}

func TestRunJob_ErrorNoPropaga(t *testing.T) {
	s, err := New(Options{}, nil, nil, nil, nil)
	require.NoError(t, err)
	defer s.Stop()

	called := false
	assert.NotPanics(t, func() {
		s.runJob("x", func(ctx context.Context) error {
			called = true
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return errors.New("fallo")
		})
	})
	assert.True(t, called)
}
