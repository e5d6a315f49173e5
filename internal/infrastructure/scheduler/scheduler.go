// Package scheduler registra las tareas periódicas del backend sobre gocron.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/pkg/logger"
)

// Nombres de los jobs.
const (
	JobModulesSync          = "modules-sync"
	JobTaskReminders        = "task-reminders"
	JobNotificationsCleanup = "notifications-cleanup"
)

// reminderWindow tareas que vencen dentro de este plazo reciben recordatorio.
const reminderWindow = 24 * time.Hour

type ModuleSyncer interface {
	Sync(ctx context.Context) (*dto.SyncReportResponse, error)
}

type TaskReminder interface {
	SendReminders(ctx context.Context, window time.Duration) (int, error)
}

type NotificationCleaner interface {
	Cleanup(ctx context.Context, retention time.Duration) (int, error)
}

// Options intervalos; cero = valor por defecto.
type Options struct {
	ModulesSyncInterval   time.Duration
	TaskReminderInterval  time.Duration
	CleanupInterval       time.Duration
	NotificationRetention time.Duration
}

func (o *Options) defaults() {
	if o.ModulesSyncInterval <= 0 {
		o.ModulesSyncInterval = 15 * time.Minute
	}
	if o.TaskReminderInterval <= 0 {
		o.TaskReminderInterval = 15 * time.Minute
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = 24 * time.Hour
	}
	if o.NotificationRetention <= 0 {
		o.NotificationRetention = 30 * 24 * time.Hour
	}
}

// Scheduler jobs en modo singleton: una ejecución lenta no se solapa con la siguiente.
type Scheduler struct {
	s    gocron.Scheduler
	log  *logger.Logger
	jobs map[string]gocron.Job
}

// New registra los jobs cuyo servicio no sea nil. Start los pone en marcha.
func New(opts Options, modules ModuleSyncer, tasks TaskReminder, notifications NotificationCleaner, log *logger.Logger) (*Scheduler, error) {
	if log == nil {
		log = logger.Nop()
	}
	opts.defaults()
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("crear scheduler: %w", err)
	}
	sch := &Scheduler{s: s, log: log.Component("jobs"), jobs: map[string]gocron.Job{}}

	if modules != nil {
		if err := sch.add(JobModulesSync, opts.ModulesSyncInterval, func(ctx context.Context) error {
			report, err := modules.Sync(ctx)
			if err != nil || report == nil {
				return err
			}
			sch.log.Debug().Int("created", report.Created).Int("updated", report.Updated).
				Int("deactivated", report.Deactivated).Msg("módulos sincronizados")
			return nil
		}); err != nil {
			return nil, err
		}
	}
	if tasks != nil {
		if err := sch.add(JobTaskReminders, opts.TaskReminderInterval, func(ctx context.Context) error {
			n, err := tasks.SendReminders(ctx, reminderWindow)
			if n > 0 {
				sch.log.Info().Int("sent", n).Msg("recordatorios de tareas enviados")
			}
			return err
		}); err != nil {
			return nil, err
		}
	}
	if notifications != nil {
		retention := opts.NotificationRetention
		if err := sch.add(JobNotificationsCleanup, opts.CleanupInterval, func(ctx context.Context) error {
			n, err := notifications.Cleanup(ctx, retention)
			if n > 0 {
				sch.log.Info().Int("deleted", n).Msg("notificaciones leídas eliminadas")
			}
			return err
		}); err != nil {
			return nil, err
		}
	}
	return sch, nil
}

func (s *Scheduler) add(name string, every time.Duration, fn func(ctx context.Context) error) error {
	job, err := s.s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() { s.runJob(name, fn) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("registrar job %s: %w", name, err)
	}
	s.jobs[name] = job
	return nil
}

// runJob cada ejecución tiene su propio timeout; los errores se registran y no detienen el job.
func (s *Scheduler) runJob(name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	start := time.Now()
	if err := fn(ctx); err != nil {
		s.log.Error().Err(err).Str("job", name).Msg("job fallido")
		return
	}
	s.log.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("job completado")
}

// Jobs nombres de los jobs registrados.
func (s *Scheduler) Jobs() []string {
	out := make([]string, 0, len(s.jobs))
	for _, j := range s.s.Jobs() {
		out = append(out, j.Name())
	}
	return out
}

func (s *Scheduler) Start() {
	s.log.Info().Int("jobs", len(s.jobs)).Msg("scheduler iniciado")
	s.s.Start()
}

// Stop espera a que terminen los jobs en curso.
func (s *Scheduler) Stop() error {
	s.log.Info().Msg("deteniendo scheduler")
	return s.s.Shutdown()
}
