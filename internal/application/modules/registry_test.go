package modules

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/pkg/logger"
)

type memModules struct {
	mu    sync.Mutex
	rows  map[string]*entity.Module
	lists atomic.Int32

	// afterRead, si no es nil, se ejecuta tras copiar las filas en List.
	afterRead func()
}

func newMemModules(initial ...*entity.Module) *memModules {
	r := &memModules{rows: map[string]*entity.Module{}}
	for _, m := range initial {
		r.rows[m.Slug] = m
	}
	return r
}

func (r *memModules) List(context.Context) ([]*entity.Module, error) {
	r.lists.Add(1)
	r.mu.Lock()
	out := make([]*entity.Module, 0, len(r.rows))
	for _, m := range r.rows {
		cp := *m
		out = append(out, &cp)
	}
	hook := r.afterRead
	r.afterRead = nil
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out, nil
}

func (r *memModules) GetBySlug(_ context.Context, slug string) (*entity.Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[slug], nil
}

func (r *memModules) Upsert(_ context.Context, m *entity.Module) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.rows[m.Slug]
	cp := *m
	r.rows[m.Slug] = &cp
	return !exists, nil
}

func (r *memModules) DeactivateMissing(_ context.Context, keep []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := map[string]bool{}
	for _, s := range keep {
		k[s] = true
	}
	n := 0
	for slug, m := range r.rows {
		if !k[slug] && m.IsActive {
			m.IsActive = false
			n++
		}
	}
	return n, nil
}

type fakeTx struct {
	repos ports.TxRepos
	runs  atomic.Int32
	gate  chan struct{}
}

func (f *fakeTx) Run(_ context.Context, fn func(ports.TxRepos) error) error {
	f.runs.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return fn(f.repos)
}

func TestRegistrySync(t *testing.T) {
	repo := newMemModules(
		&entity.Module{Slug: "clients", Name: "Viejo", Version: "0.9.0", IsActive: true},
		&entity.Module{Slug: "legacy", Name: "Legacy", Version: "1.0.0", IsActive: true},
	)
	fsys := fstest.MapFS{
		"clients/module.json": {Data: []byte(`{"slug":"clients","name":"Clientes","version":"1.0.0"}`)},
		"tasks/module.json":   {Data: []byte(`{"slug":"tasks","name":"Tareas","version":"1.0.0"}`)},
		"bad/module.json":     {Data: []byte(`{"slug":"Bad"}`)},
	}
	reg := NewRegistry(fsys, repo, &fakeTx{repos: ports.TxRepos{Modules: repo}}, time.Minute, logger.Nop())

	report, err := reg.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Discovered)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Deactivated)
	require.Len(t, report.Invalid, 1)
	assert.Equal(t, "bad/module.json", report.Invalid[0].Path)

	m, err := reg.GetBySlug(context.Background(), "clients")
	require.NoError(t, err)
	assert.Equal(t, "Clientes", m.Name)
	assert.Equal(t, "1.0.0", m.Version)

	legacy, err := reg.GetBySlug(context.Background(), "legacy")
	require.NoError(t, err)
	assert.False(t, legacy.IsActive, "un módulo ausente del disco se desactiva, no se borra")

	active, err := reg.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestRegistry_CacheConTTL(t *testing.T) {
	repo := newMemModules(&entity.Module{Slug: "clients", Name: "Clientes", IsActive: true})
	reg := NewRegistry(fstest.MapFS{}, repo, &fakeTx{}, time.Minute, nil)
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	_, err := reg.List(context.Background())
	require.NoError(t, err)
	_, err = reg.GetBySlug(context.Background(), "clients")
	require.NoError(t, err)
	assert.Equal(t, int32(1), repo.lists.Load())

	now = now.Add(2 * time.Minute)
	_, err = reg.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), repo.lists.Load())

	_, err = reg.GetBySlug(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistrySync_LlamadasConcurrentesComparten(t *testing.T) {
	repo := newMemModules()
	tx := &fakeTx{repos: ports.TxRepos{Modules: repo}, gate: make(chan struct{})}
	fsys := fstest.MapFS{"tasks/module.json": {Data: []byte(`{"slug":"tasks","name":"Tareas","version":"1.0.0"}`)}}
	reg := NewRegistry(fsys, repo, tx, time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Sync(context.Background())
			assert.NoError(t, err)
		}()
	}
	// esperar a que la primera ejecución esté dentro de la transacción
	require.Eventually(t, func() bool { return tx.runs.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(tx.gate)
	wg.Wait()

	assert.LessOrEqual(t, tx.runs.Load(), int32(5))
	assert.GreaterOrEqual(t, tx.runs.Load(), int32(1))
}

func TestRegistry_CargaAnteriorAlSyncNoSePublica(t *testing.T) {
	repo := newMemModules(&entity.Module{Slug: "clients", Name: "Clientes", Version: "1.0.0", IsActive: true})
	reg := NewRegistry(fstest.MapFS{}, repo, &fakeTx{repos: ports.TxRepos{Modules: repo}}, 5*time.Minute, nil)

	loading := make(chan struct{})
	release := make(chan struct{})
	repo.afterRead = func() {
		close(loading)
		<-release
	}

	done := make(chan *entity.Module, 1)
	go func() {
		m, err := reg.GetBySlug(context.Background(), "clients")
		assert.NoError(t, err)
		done <- m
	}()
	<-loading

	report, err := reg.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deactivated)
	close(release)

	m := <-done
	assert.False(t, m.IsActive, "la lectura en curso vuelve a cargar tras el sync")

	m, err = reg.GetBySlug(context.Background(), "clients")
	require.NoError(t, err)
	assert.False(t, m.IsActive)
}

type memPerms struct {
	mu      sync.Mutex
	modules []string
}

func (c *memPerms) Get(context.Context, string) (string, bool, error)    { return "", false, nil }
func (c *memPerms) Set(context.Context, string, string) error            { return nil }
func (c *memPerms) InvalidateCompany(context.Context, string) error      { return nil }
func (c *memPerms) InvalidateUser(context.Context, string, string) error { return nil }
func (c *memPerms) InvalidateModule(_ context.Context, slug string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modules = append(c.modules, slug)
	return nil
}

func TestRegistrySync_InvalidaPermisosDeModulosDesactivados(t *testing.T) {
	repo := newMemModules(
		&entity.Module{Slug: "clients", Name: "Clientes", Version: "1.0.0", IsActive: true},
		&entity.Module{Slug: "legacy", Name: "Legacy", Version: "1.0.0", IsActive: true},
		&entity.Module{Slug: "old", Name: "Old", Version: "1.0.0", IsActive: false},
	)
	fsys := fstest.MapFS{
		"clients/module.json": {Data: []byte(`{"slug":"clients","name":"Clientes","version":"1.0.0"}`)},
	}
	perms := &memPerms{}
	reg := NewRegistry(fsys, repo, &fakeTx{repos: ports.TxRepos{Modules: repo}}, time.Minute, nil).WithPermissionCache(perms)

	report, err := reg.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deactivated)
	assert.Equal(t, []string{"legacy"}, perms.modules)
}
