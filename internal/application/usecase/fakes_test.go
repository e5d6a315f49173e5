package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
)

// Repositorios en memoria para los tests de casos de uso.

type memCatalog struct{ mods map[string]*entity.Module }

func (c *memCatalog) List(context.Context) ([]*entity.Module, error) {
	out := make([]*entity.Module, 0, len(c.mods))
	for _, m := range c.mods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (c *memCatalog) ListActive(ctx context.Context) ([]*entity.Module, error) {
	all, _ := c.List(ctx)
	var out []*entity.Module
	for _, m := range all {
		if m.IsActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func (c *memCatalog) GetBySlug(_ context.Context, slug string) (*entity.Module, error) {
	m, ok := c.mods[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

type memCompanies struct{ rows map[string]*entity.Company }

func (r *memCompanies) Create(_ context.Context, c *entity.Company) error {
	r.rows[c.ID] = c
	return nil
}
func (r *memCompanies) GetByID(_ context.Context, id string) (*entity.Company, error) {
	return r.rows[id], nil
}
func (r *memCompanies) GetByNIP(_ context.Context, nip string) (*entity.Company, error) {
	for _, c := range r.rows {
		if c.NIP == nip {
			return c, nil
		}
	}
	return nil, nil
}
func (r *memCompanies) Update(_ context.Context, c *entity.Company) error {
	r.rows[c.ID] = c
	return nil
}
func (r *memCompanies) List(context.Context, bool, int, int) ([]*entity.Company, error) {
	return nil, nil
}

type memUsers struct{ rows map[string]*entity.User }

func (r *memUsers) Create(_ context.Context, u *entity.User) error {
	r.rows[u.ID] = u
	return nil
}
func (r *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	return r.rows[id], nil
}
func (r *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}
func (r *memUsers) Update(_ context.Context, u *entity.User) error {
	r.rows[u.ID] = u
	return nil
}
func (r *memUsers) ListByCompany(_ context.Context, companyID string, onlyActive bool, _, _ int) ([]*entity.User, error) {
	var out []*entity.User
	for _, u := range r.rows {
		if u.CompanyID == companyID && (!onlyActive || u.IsActive) {
			out = append(out, u)
		}
	}
	return out, nil
}
func (r *memUsers) CountAdmins(context.Context) (int, error) { return 0, nil }

type memAccess struct {
	rows map[string]*entity.CompanyModuleAccess
}

func accessKey(companyID, slug string) string { return companyID + "/" + slug }

func (r *memAccess) Get(_ context.Context, companyID, slug string) (*entity.CompanyModuleAccess, error) {
	return r.rows[accessKey(companyID, slug)], nil
}
func (r *memAccess) ListByCompany(_ context.Context, companyID string) ([]*entity.CompanyModuleAccess, error) {
	var out []*entity.CompanyModuleAccess
	for _, a := range r.rows {
		if a.CompanyID == companyID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModuleSlug < out[j].ModuleSlug })
	return out, nil
}
func (r *memAccess) Grant(_ context.Context, a *entity.CompanyModuleAccess) error {
	r.rows[accessKey(a.CompanyID, a.ModuleSlug)] = a
	return nil
}
func (r *memAccess) Revoke(_ context.Context, companyID, slug string) (bool, error) {
	a, ok := r.rows[accessKey(companyID, slug)]
	if !ok || !a.IsActive {
		return false, nil
	}
	a.IsActive = false
	return true, nil
}
func (r *memAccess) HasActiveModule(_ context.Context, companyID, slug string) (bool, error) {
	return r.rows[accessKey(companyID, slug)].Effective(time.Now()), nil
}

type memPerms struct {
	rows  map[string]*entity.UserModulePermission // userID/slug
	users *memUsers
}

func (r *memPerms) Get(_ context.Context, userID, slug string) (*entity.UserModulePermission, error) {
	return r.rows[userID+"/"+slug], nil
}
func (r *memPerms) ListByUser(_ context.Context, userID string) ([]*entity.UserModulePermission, error) {
	var out []*entity.UserModulePermission
	for k, p := range r.rows {
		if strings.HasPrefix(k, userID+"/") {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModuleSlug < out[j].ModuleSlug })
	return out, nil
}
func (r *memPerms) Upsert(_ context.Context, p *entity.UserModulePermission) error {
	r.rows[p.UserID+"/"+p.ModuleSlug] = p
	return nil
}
func (r *memPerms) Delete(_ context.Context, userID, slug string) (bool, error) {
	_, ok := r.rows[userID+"/"+slug]
	delete(r.rows, userID+"/"+slug)
	return ok, nil
}
func (r *memPerms) DeleteByCompanyModule(_ context.Context, companyID, slug string) (int, error) {
	n := 0
	for k, p := range r.rows {
		if p.CompanyID == companyID && p.ModuleSlug == slug {
			delete(r.rows, k)
			n++
		}
	}
	return n, nil
}
func (r *memPerms) UsersByCompanyModule(_ context.Context, companyID, slug string) ([]string, error) {
	var out []string
	for _, p := range r.rows {
		if p.CompanyID == companyID && p.ModuleSlug == slug {
			out = append(out, p.UserID)
		}
	}
	sort.Strings(out)
	return out, nil
}
func (r *memPerms) EmployeeCan(_ context.Context, userID, companyID, slug, action string) (bool, error) {
	if r.users != nil {
		if u := r.users.rows[userID]; u == nil || !u.IsActive {
			return false, nil
		}
	}
	p := r.rows[userID+"/"+slug]
	return p != nil && p.CompanyID == companyID && p.Allows(action), nil
}

type memClients struct{ rows map[string]*entity.Client }

func (r *memClients) Create(_ context.Context, c *entity.Client) error {
	r.rows[c.ID] = c
	return nil
}
func (r *memClients) GetByID(_ context.Context, companyID, id string) (*entity.Client, error) {
	if c := r.rows[id]; c != nil && c.CompanyID == companyID {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}
func (r *memClients) GetActiveByNIP(_ context.Context, companyID, nip string) (*entity.Client, error) {
	for _, c := range r.rows {
		if c.CompanyID == companyID && c.NIP == nip && c.IsActive {
			return c, nil
		}
	}
	return nil, nil
}
func (r *memClients) Update(_ context.Context, c *entity.Client) error {
	r.rows[c.ID] = c
	return nil
}
func (r *memClients) List(_ context.Context, companyID string, f repository.ClientFilter) ([]*entity.Client, int, error) {
	var out []*entity.Client
	for _, c := range r.rows {
		if c.CompanyID == companyID && (f.IncludeInactive || c.IsActive) && strings.Contains(c.SearchKey, f.Search) {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}
func (r *memClients) CountByIcon(_ context.Context, companyID, iconID string) (int, error) {
	n := 0
	for _, c := range r.rows {
		if c.CompanyID == companyID && c.IsActive && c.IconID != nil && *c.IconID == iconID {
			n++
		}
	}
	return n, nil
}

type memFields struct {
	rows []*entity.ClientFieldDefinition
}

func (r *memFields) Create(_ context.Context, f *entity.ClientFieldDefinition) error {
	for _, x := range r.rows {
		if x.CompanyID == f.CompanyID && x.Key == f.Key {
			return domain.ErrDuplicate
		}
	}
	r.rows = append(r.rows, f)
	return nil
}
func (r *memFields) GetByID(_ context.Context, companyID, id string) (*entity.ClientFieldDefinition, error) {
	for _, x := range r.rows {
		if x.ID == id && x.CompanyID == companyID {
			return x, nil
		}
	}
	return nil, nil
}
func (r *memFields) Update(context.Context, *entity.ClientFieldDefinition) error { return nil }
func (r *memFields) ListActive(_ context.Context, companyID string) ([]*entity.ClientFieldDefinition, error) {
	var out []*entity.ClientFieldDefinition
	for _, x := range r.rows {
		if x.CompanyID == companyID && x.IsActive {
			out = append(out, x)
		}
	}
	return out, nil
}

type memIcons struct{ rows map[string]*entity.ClientIcon }

func (r *memIcons) Create(_ context.Context, i *entity.ClientIcon) error {
	r.rows[i.ID] = i
	return nil
}
func (r *memIcons) GetByID(_ context.Context, companyID, id string) (*entity.ClientIcon, error) {
	if i := r.rows[id]; i != nil && i.CompanyID == companyID {
		return i, nil
	}
	return nil, nil
}
func (r *memIcons) List(_ context.Context, companyID string) ([]*entity.ClientIcon, error) {
	var out []*entity.ClientIcon
	for _, i := range r.rows {
		if i.CompanyID == companyID {
			out = append(out, i)
		}
	}
	return out, nil
}
func (r *memIcons) Delete(_ context.Context, _, id string) error {
	delete(r.rows, id)
	return nil
}

type memLeads struct{ rows map[string]*entity.Lead }

func (r *memLeads) Create(_ context.Context, l *entity.Lead) error {
	r.rows[l.ID] = l
	return nil
}
func (r *memLeads) GetByID(_ context.Context, companyID, id string) (*entity.Lead, error) {
	if l := r.rows[id]; l != nil && l.CompanyID == companyID {
		cp := *l
		return &cp, nil
	}
	return nil, nil
}
func (r *memLeads) Update(_ context.Context, l *entity.Lead) error {
	r.rows[l.ID] = l
	return nil
}
func (r *memLeads) Delete(_ context.Context, _, id string) error {
	delete(r.rows, id)
	return nil
}
func (r *memLeads) List(context.Context, string, string, int, int) ([]*entity.Lead, error) {
	return nil, nil
}

type memOffers struct {
	rows map[string]*entity.Offer
	seq  map[string]int
}

func (r *memOffers) Create(_ context.Context, o *entity.Offer) error {
	cp := *o
	r.rows[o.ID] = &cp
	return nil
}
func (r *memOffers) GetByID(_ context.Context, companyID, id string) (*entity.Offer, error) {
	if o := r.rows[id]; o != nil && o.CompanyID == companyID {
		cp := *o
		cp.Items = append([]entity.OfferItem(nil), o.Items...)
		return &cp, nil
	}
	return nil, nil
}
func (r *memOffers) Update(_ context.Context, o *entity.Offer, expected int) error {
	cur := r.rows[o.ID]
	if cur == nil || cur.Version != expected {
		return domain.ErrVersionConflict
	}
	items := cur.Items
	if o.Items != nil {
		items = o.Items
	}
	cp := *o
	cp.Items = items
	r.rows[o.ID] = &cp
	return nil
}
func (r *memOffers) Delete(_ context.Context, _, id string) error {
	delete(r.rows, id)
	return nil
}
func (r *memOffers) List(context.Context, string, string, int, int) ([]*entity.Offer, error) {
	return nil, nil
}
func (r *memOffers) NextNumber(_ context.Context, companyID string, year int) (int, error) {
	k := fmt.Sprintf("%s/%d", companyID, year)
	r.seq[k]++
	return r.seq[k], nil
}

type memTimeEntries struct{ rows map[string]*entity.TimeEntry }

func (r *memTimeEntries) Create(_ context.Context, e *entity.TimeEntry) error {
	r.rows[e.ID] = e
	return nil
}
func (r *memTimeEntries) GetByID(_ context.Context, companyID, id string) (*entity.TimeEntry, error) {
	if e := r.rows[id]; e != nil && e.CompanyID == companyID {
		return e, nil
	}
	return nil, nil
}
func (r *memTimeEntries) GetRunning(_ context.Context, userID string) (*entity.TimeEntry, error) {
	for _, e := range r.rows {
		if e.UserID == userID && e.Running() {
			return e, nil
		}
	}
	return nil, nil
}
func (r *memTimeEntries) Update(_ context.Context, e *entity.TimeEntry) error {
	r.rows[e.ID] = e
	return nil
}
func (r *memTimeEntries) Delete(_ context.Context, _, id string) error {
	delete(r.rows, id)
	return nil
}
func (r *memTimeEntries) List(_ context.Context, companyID string, f repository.TimeEntryFilter) ([]*entity.TimeEntry, error) {
	var out []*entity.TimeEntry
	for _, e := range r.rows {
		if e.CompanyID != companyID || (f.UserID != "" && e.UserID != f.UserID) {
			continue
		}
		if f.From != nil && e.StartedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !e.StartedAt.Before(*f.To) {
			continue
		}
		out = append(out, e)
	}
	if f.Offset >= len(out) {
		return nil, nil
	}
	return out[f.Offset:], nil
}

type memTasks struct {
	rows     map[string]*entity.Task
	reminded []string
}

func (r *memTasks) Create(_ context.Context, t *entity.Task) error {
	r.rows[t.ID] = t
	return nil
}
func (r *memTasks) GetByID(_ context.Context, companyID, id string) (*entity.Task, error) {
	if t := r.rows[id]; t != nil && t.CompanyID == companyID {
		return t, nil
	}
	return nil, nil
}
func (r *memTasks) Update(_ context.Context, t *entity.Task) error {
	r.rows[t.ID] = t
	return nil
}
func (r *memTasks) Delete(_ context.Context, _, id string) error {
	delete(r.rows, id)
	return nil
}
func (r *memTasks) List(context.Context, string, repository.TaskFilter) ([]*entity.Task, error) {
	return nil, nil
}
func (r *memTasks) DueForReminder(_ context.Context, until time.Time, limit int) ([]*entity.Task, error) {
	var out []*entity.Task
	for _, t := range r.rows {
		if t.DueDate != nil && t.DueDate.Before(until) && t.ReminderSentAt == nil &&
			t.Status != entity.TaskDone && t.Status != entity.TaskCancelled {
			out = append(out, t)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
func (r *memTasks) MarkReminded(_ context.Context, id string, at time.Time) error {
	r.rows[id].ReminderSentAt = &at
	r.reminded = append(r.reminded, id)
	return nil
}

type memNotifier struct {
	mu   sync.Mutex
	sent []*entity.Notification
}

func (n *memNotifier) Notify(_ context.Context, x *entity.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, x)
	return nil
}

func (n *memNotifier) types() []string {
	out := make([]string, 0, len(n.sent))
	for _, x := range n.sent {
		out = append(out, x.Type+":"+x.UserID)
	}
	return out
}

type memCache struct {
	vals        map[string]string
	invalidated []string
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.vals[key]
	return v, ok, nil
}
func (c *memCache) Set(_ context.Context, key, d string) error {
	c.vals[key] = d
	return nil
}
func (c *memCache) InvalidateCompany(_ context.Context, companyID string) error {
	c.invalidated = append(c.invalidated, "company:"+companyID)
	for k := range c.vals {
		if strings.HasPrefix(k, "perm:"+companyID+":") {
			delete(c.vals, k)
		}
	}
	return nil
}
func (c *memCache) InvalidateUser(_ context.Context, companyID, userID string) error {
	c.invalidated = append(c.invalidated, "user:"+userID)
	for k := range c.vals {
		if strings.HasPrefix(k, "perm:"+companyID+":"+userID+":") {
			delete(c.vals, k)
		}
	}
	return nil
}

func (c *memCache) InvalidateModule(_ context.Context, slug string) error {
	c.invalidated = append(c.invalidated, "module:"+slug)
	for k := range c.vals {
		if strings.Contains(k, ":"+slug+":") {
			delete(c.vals, k)
		}
	}
	return nil
}

type memStorage struct{ objects map[string]int64 }

func (s *memStorage) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	n, err := io.Copy(io.Discard, r)
	s.objects[key] = n
	return err
}
func (s *memStorage) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://files.local/" + key + "?sig=x", nil
}
func (s *memStorage) Remove(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

// plainBox "cifra" anteponiendo un prefijo.
type plainBox struct{}

func (plainBox) Enabled() bool                 { return true }
func (plainBox) Seal(p string) (string, error) { return "enc:" + p, nil }
func (plainBox) Open(e string) (string, error) {
	if !strings.HasPrefix(e, "enc:") {
		return "", errors.New("secretbox: open failed")
	}
	return strings.TrimPrefix(e, "enc:"), nil
}

// txRunner ejecuta fn directamente con los repos en memoria.
type txRunner struct{ repos ports.TxRepos }

func (t txRunner) Run(_ context.Context, fn func(ports.TxRepos) error) error { return fn(t.repos) }
