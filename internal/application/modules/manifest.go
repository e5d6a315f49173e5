// Package modules descubre los manifiestos module.json del disco y los sincroniza
// con el catálogo de módulos de la base de datos.
package modules

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

// ManifestFile nombre del manifiesto dentro de cada subdirectorio.
const ManifestFile = "module.json"

var (
	slugRe    = regexp.MustCompile(`^[a-z][a-z0-9-]{1,62}$`)
	versionRe = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
)

// Manifest contenido de modules/<dir>/module.json.
type Manifest struct {
	Slug                   string   `json:"slug"`
	Name                   string   `json:"name"`
	Description            string   `json:"description"`
	Version                string   `json:"version"`
	Category               string   `json:"category"`
	Icon                   string   `json:"icon"`
	Permissions            []string `json:"permissions"`
	DefaultForNewCompanies bool     `json:"defaultForNewCompanies"`
}

// Validate normaliza y valida el manifiesto. Sin permisos declarados se asumen las tres acciones.
func (m *Manifest) Validate() error {
	m.Slug = strings.TrimSpace(m.Slug)
	m.Name = strings.TrimSpace(m.Name)
	m.Version = strings.TrimSpace(m.Version)
	if !slugRe.MatchString(m.Slug) {
		return fmt.Errorf("slug inválido %q", m.Slug)
	}
	if m.Name == "" {
		return errors.New("name vacío")
	}
	if !versionRe.MatchString(m.Version) {
		return fmt.Errorf("version inválida %q (se espera MAJOR.MINOR.PATCH)", m.Version)
	}
	if len(m.Permissions) == 0 {
		m.Permissions = append([]string(nil), entity.AllActions...)
		return nil
	}
	seen := make(map[string]bool, len(m.Permissions))
	perms := make([]string, 0, len(m.Permissions))
	for _, p := range m.Permissions {
		p = strings.ToLower(strings.TrimSpace(p))
		if !entity.IsValidAction(p) {
			return fmt.Errorf("permiso desconocido %q", p)
		}
		if !seen[p] {
			seen[p] = true
			perms = append(perms, p)
		}
	}
	m.Permissions = canonicalOrder(perms)
	return nil
}

// ToEntity convierte el manifiesto en un Module activo.
func (m *Manifest) ToEntity() *entity.Module {
	return &entity.Module{
		Slug:                   m.Slug,
		Name:                   m.Name,
		Description:            m.Description,
		Version:                m.Version,
		Category:               m.Category,
		Icon:                   m.Icon,
		Permissions:            append([]string(nil), m.Permissions...),
		DefaultForNewCompanies: m.DefaultForNewCompanies,
		IsActive:               true,
	}
}

// Invalid manifiesto descartado durante el descubrimiento.
type Invalid struct {
	Path   string
	Reason string
}

// Discover recorre un nivel de subdirectorios de fsys buscando module.json.
// Los manifiestos inválidos o con slug repetido se descartan y se informan;
// ante slugs repetidos gana el primer directorio en orden alfabético.
func Discover(fsys fs.FS) ([]Manifest, []Invalid, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("leer directorio de módulos: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var (
		found   []Manifest
		invalid []Invalid
		bySlug  = map[string]string{}
	)
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		p := path.Join(e.Name(), ManifestFile)
		raw, err := fs.ReadFile(fsys, p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			invalid = append(invalid, Invalid{Path: p, Reason: err.Error()})
			continue
		}
		var m Manifest
		if err := json.Unmarshal(raw, &m); err != nil {
			invalid = append(invalid, Invalid{Path: p, Reason: "json: " + err.Error()})
			continue
		}
		if err := m.Validate(); err != nil {
			invalid = append(invalid, Invalid{Path: p, Reason: err.Error()})
			continue
		}
		if first, dup := bySlug[m.Slug]; dup {
			invalid = append(invalid, Invalid{Path: p, Reason: fmt.Sprintf("slug %q ya declarado en %s", m.Slug, first)})
			continue
		}
		bySlug[m.Slug] = p
		found = append(found, m)
	}
	return found, invalid, nil
}

func canonicalOrder(perms []string) []string {
	out := make([]string, 0, len(perms))
	for _, a := range entity.AllActions {
		for _, p := range perms {
			if p == a {
				out = append(out, a)
			}
		}
	}
	return out
}
