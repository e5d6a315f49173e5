package modules

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
	"github.com/jhoicas/OficinaContable-api/pkg/logger"
)

// Registry catálogo de módulos: sincroniza manifiestos con la BD y sirve lecturas
// desde una caché en memoria con TTL.
type Registry struct {
	fsys fs.FS
	repo repository.ModuleRepository
	tx   ports.TxRunner
	ttl  time.Duration
	log  *logger.Logger
	now  func() time.Time

	perms ports.PermissionCache // nil = sin caché de permisos

	sf singleflight.Group

	mu       sync.RWMutex
	gen      uint64 // se incrementa en cada Invalidate
	cached   []*entity.Module
	bySlug   map[string]*entity.Module
	loadedAt time.Time
}

// NewRegistry construye el registro. fsys apunta al directorio de módulos (os.DirFS(cfg.Modules.Dir)).
func NewRegistry(fsys fs.FS, repo repository.ModuleRepository, tx ports.TxRunner, ttl time.Duration, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{fsys: fsys, repo: repo, tx: tx, ttl: ttl, log: log.Component("modules"), now: time.Now}
}

// WithPermissionCache hace que Sync borre las decisiones cacheadas de los módulos desactivados.
func (r *Registry) WithPermissionCache(c ports.PermissionCache) *Registry {
	r.perms = c
	return r
}

// Sync lee los manifiestos, hace upsert de los válidos en una transacción y desactiva los
// módulos que ya no están en disco. Las llamadas concurrentes comparten una única ejecución.
func (r *Registry) Sync(ctx context.Context) (*dto.SyncReportResponse, error) {
	v, err, shared := r.sf.Do("sync", func() (any, error) {
		return r.sync(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.log.Debug().Msg("sync compartido con una ejecución en curso")
	}
	return v.(*dto.SyncReportResponse), nil
}

func (r *Registry) sync(ctx context.Context) (*dto.SyncReportResponse, error) {
	manifests, invalid, err := Discover(r.fsys)
	if err != nil {
		return nil, err
	}
	report := &dto.SyncReportResponse{Discovered: len(manifests), Invalid: make([]dto.InvalidModule, 0, len(invalid))}
	for _, inv := range invalid {
		r.log.Warn().Str("path", inv.Path).Str("reason", inv.Reason).Msg("manifiesto descartado")
		report.Invalid = append(report.Invalid, dto.InvalidModule{Path: inv.Path, Reason: inv.Reason})
	}

	keep := make([]string, 0, len(manifests))
	var gone []string
	err = r.tx.Run(ctx, func(tx ports.TxRepos) error {
		now := r.now()
		current, err := tx.Modules.List(ctx)
		if err != nil {
			return fmt.Errorf("listar módulos: %w", err)
		}
		for i := range manifests {
			m := manifests[i].ToEntity()
			m.UpdatedAt = now
			created, err := tx.Modules.Upsert(ctx, m)
			if err != nil {
				return fmt.Errorf("upsert módulo %s: %w", m.Slug, err)
			}
			if created {
				report.Created++
			} else {
				report.Updated++
			}
			keep = append(keep, m.Slug)
		}
		gone = gone[:0]
		for _, m := range current {
			if m.IsActive && !slices.Contains(keep, m.Slug) {
				gone = append(gone, m.Slug)
			}
		}
		n, err := tx.Modules.DeactivateMissing(ctx, keep)
		if err != nil {
			return fmt.Errorf("desactivar módulos ausentes: %w", err)
		}
		report.Deactivated = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.Invalidate()
	if r.perms != nil {
		for _, slug := range gone {
			if err := r.perms.InvalidateModule(ctx, slug); err != nil {
				r.log.Warn().Err(err).Str("module", slug).Msg("no se pudo invalidar la caché de permisos")
			}
		}
	}
	r.log.Info().
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("deactivated", report.Deactivated).
		Int("invalid", len(report.Invalid)).
		Msg("módulos sincronizados")
	return report, nil
}

// Invalidate descarta la caché; la siguiente lectura recarga desde la BD.
func (r *Registry) Invalidate() {
	r.mu.Lock()
	r.gen++
	r.cached, r.bySlug, r.loadedAt = nil, nil, time.Time{}
	r.mu.Unlock()
}

// List devuelve todo el catálogo (activos e inactivos).
func (r *Registry) List(ctx context.Context) ([]*entity.Module, error) {
	list, _, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Module, len(list))
	copy(out, list)
	return out, nil
}

// ListActive devuelve solo los módulos con manifiesto presente.
func (r *Registry) ListActive(ctx context.Context) ([]*entity.Module, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, m := range all {
		if m.IsActive {
			out = append(out, m)
		}
	}
	return out, nil
}

// GetBySlug devuelve el módulo o domain.ErrNotFound.
func (r *Registry) GetBySlug(ctx context.Context, slug string) (*entity.Module, error) {
	_, bySlug, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	m, ok := bySlug[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

type catalogSnapshot struct {
	list   []*entity.Module
	bySlug map[string]*entity.Module
}

// snapshot devuelve la caché vigente o la recarga si está vacía o vencida.
// Una carga que empezó antes de un Invalidate no se publica: se repite la lectura.
func (r *Registry) snapshot(ctx context.Context) ([]*entity.Module, map[string]*entity.Module, error) {
	r.mu.RLock()
	if r.bySlug != nil && r.now().Sub(r.loadedAt) < r.ttl {
		list, bySlug := r.cached, r.bySlug
		r.mu.RUnlock()
		return list, bySlug, nil
	}
	r.mu.RUnlock()

	v, err, _ := r.sf.Do("load", func() (any, error) {
		for {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r.mu.RLock()
			gen := r.gen
			r.mu.RUnlock()

			list, err := r.repo.List(ctx)
			if err != nil {
				return nil, fmt.Errorf("cargar módulos: %w", err)
			}
			bySlug := make(map[string]*entity.Module, len(list))
			for _, m := range list {
				bySlug[m.Slug] = m
			}

			r.mu.Lock()
			if r.gen != gen {
				r.mu.Unlock()
				continue
			}
			r.cached, r.bySlug, r.loadedAt = list, bySlug, r.now()
			r.mu.Unlock()
			return catalogSnapshot{list: list, bySlug: bySlug}, nil
		}
	})
	if err != nil {
		return nil, nil, err
	}
	snap := v.(catalogSnapshot)
	return snap.list, snap.bySlug, nil
}
