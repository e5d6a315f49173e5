// Package watcher vigila el directorio de módulos y resincroniza el registro
// cuando cambia algún manifiesto.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/pkg/logger"
)

const defaultDebounce = 500 * time.Millisecond

type Syncer interface {
	Sync(ctx context.Context) (*dto.SyncReportResponse, error)
}

// ModulesWatcher agrupa ráfagas de eventos (editores que guardan en varios pasos)
// en una única sincronización.
type ModulesWatcher struct {
	dir      string
	syncer   Syncer
	log      *logger.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending bool
	last    time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewModulesWatcher registra dir y sus subdirectorios (fsnotify no es recursivo).
func NewModulesWatcher(dir string, syncer Syncer, log *logger.Logger) (*ModulesWatcher, error) {
	if log == nil {
		log = logger.Nop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("crear watcher: %w", err)
	}
	mw := &ModulesWatcher{
		dir:      dir,
		syncer:   syncer,
		log:      log.Component("modules-watcher"),
		watcher:  w,
		debounce: defaultDebounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	if err := mw.addTree(dir); err != nil {
		_ = w.Close()
		return nil, err
	}
	return mw, nil
}

func (mw *ModulesWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := mw.watcher.Add(path); err != nil {
			return fmt.Errorf("vigilar %s: %w", path, err)
		}
		return nil
	})
}

// Start procesa eventos en segundo plano hasta Stop o la cancelación de ctx.
func (mw *ModulesWatcher) Start(ctx context.Context) {
	mw.log.Info().Str("dir", mw.dir).Msg("vigilando módulos")
	go mw.loop(ctx)
}

func (mw *ModulesWatcher) loop(ctx context.Context) {
	defer close(mw.doneCh)
	ticker := time.NewTicker(mw.debounce / 5)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-mw.stopCh:
			return
		case event, ok := <-mw.watcher.Events:
			if !ok {
				return
			}
			mw.handleEvent(event)
		case err, ok := <-mw.watcher.Errors:
			if !ok {
				return
			}
			mw.log.Warn().Err(err).Msg("error del watcher")
		case <-ticker.C:
			if mw.settled(time.Now()) {
				mw.runSync(ctx)
			}
		}
	}
}

func (mw *ModulesWatcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	// un módulo nuevo llega como directorio: hay que vigilarlo también.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := mw.addTree(event.Name); err != nil {
				mw.log.Warn().Err(err).Str("path", event.Name).Msg("no se pudo vigilar directorio")
			}
		}
	}
	mw.log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("cambio en módulos")
	mw.mu.Lock()
	mw.pending = true
	mw.last = time.Now()
	mw.mu.Unlock()
}

// settled true si hay cambios pendientes y pasó la ventana de debounce; limpia el pendiente.
func (mw *ModulesWatcher) settled(now time.Time) bool {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if !mw.pending || now.Sub(mw.last) < mw.debounce {
		return false
	}
	mw.pending = false
	return true
}

func (mw *ModulesWatcher) runSync(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	report, err := mw.syncer.Sync(ctx)
	if err != nil {
		mw.log.Error().Err(err).Msg("resincronización de módulos fallida")
		return
	}
	if report != nil {
		mw.log.Info().Int("created", report.Created).Int("updated", report.Updated).
			Int("deactivated", report.Deactivated).Int("invalid", len(report.Invalid)).
			Msg("módulos resincronizados")
	}
}

// Stop detiene el bucle y libera el watcher.
func (mw *ModulesWatcher) Stop() error {
	var err error
	mw.stopOnce.Do(func() {
		close(mw.stopCh)
		err = mw.watcher.Close()
	})
	return err
}

// Done se cierra cuando el bucle termina.
func (mw *ModulesWatcher) Done() <-chan struct{} { return mw.doneCh }
