package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
	"github.com/jhoicas/OficinaContable-api/pkg/logger"
	"github.com/jhoicas/OficinaContable-api/pkg/taxid"
	"github.com/jhoicas/OficinaContable-api/pkg/textnorm"
)

// MaxIconSize tamaño máximo de un ícono de cliente (1 MiB).
const MaxIconSize = 1 << 20

var (
	fieldKeyRe = regexp.MustCompile(`^[a-z][a-z0-9_]{0,49}$`)

	iconTypes = map[string]string{
		"image/png":     ".png",
		"image/jpeg":    ".jpg",
		"image/svg+xml": ".svg",
		"image/webp":    ".webp",
	}
)

// ClientUseCase clientes, campos personalizados e íconos.
type ClientUseCase struct {
	clients   repository.ClientRepository
	fields    repository.ClientFieldRepository
	icons     repository.ClientIconRepository
	storage   ports.ObjectStorage // nil = íconos deshabilitados
	urlExpiry time.Duration
	log       *logger.Logger
}

// NewClientUseCase construye el caso de uso.
func NewClientUseCase(
	clients repository.ClientRepository,
	fields repository.ClientFieldRepository,
	icons repository.ClientIconRepository,
	storage ports.ObjectStorage,
	urlExpiry time.Duration,
	log *logger.Logger,
) *ClientUseCase {
	if log == nil {
		log = logger.Nop()
	}
	if urlExpiry <= 0 {
		urlExpiry = 15 * time.Minute
	}
	return &ClientUseCase{
		clients: clients, fields: fields, icons: icons,
		storage: storage, urlExpiry: urlExpiry, log: log.Component("clients"),
	}
}

// Create da de alta un cliente. El NIP es único entre los clientes activos de la empresa.
func (uc *ClientUseCase) Create(ctx context.Context, a Actor, in dto.CreateClientRequest) (*dto.ClientResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	c := &entity.Client{
		ID:        uuid.New().String(),
		CompanyID: a.CompanyID,
		Name:      strings.TrimSpace(in.Name),
		NIP:       taxid.Normalize(in.NIP),
		Email:     strings.TrimSpace(in.Email),
		Phone:     in.Phone,
		Address:   in.Address,
		Notes:     in.Notes,
		IsActive:  true,
		CreatedBy: a.UserID,
	}
	if err := uc.checkNIP(ctx, c); err != nil {
		return nil, err
	}
	if err := uc.checkIcon(ctx, a.CompanyID, in.IconID); err != nil {
		return nil, err
	}
	c.IconID = in.IconID
	custom, err := uc.applyCustomFields(ctx, a.CompanyID, nil, in.CustomFields)
	if err != nil {
		return nil, err
	}
	c.CustomFields = custom
	c.SearchKey = textnorm.SearchKey(c.Name, c.NIP, c.Email)
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	if err := uc.clients.Create(ctx, c); err != nil {
		return nil, err
	}
	return ToClientResponse(c), nil
}

// Get obtiene un cliente de la empresa.
func (uc *ClientUseCase) Get(ctx context.Context, a Actor, id string) (*dto.ClientResponse, error) {
	c, err := uc.load(ctx, a, id)
	if err != nil {
		return nil, err
	}
	return ToClientResponse(c), nil
}

// Update actualiza los campos enviados. En custom_fields, un valor null borra la clave.
func (uc *ClientUseCase) Update(ctx context.Context, a Actor, id string, in dto.UpdateClientRequest) (*dto.ClientResponse, error) {
	c, err := uc.load(ctx, a, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		c.Email = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
	if in.Notes != nil {
		c.Notes = *in.Notes
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	nipChanged := false
	if in.NIP != nil {
		nip := taxid.Normalize(*in.NIP)
		nipChanged = nip != c.NIP
		c.NIP = nip
	}
	if nipChanged || (in.IsActive != nil && *in.IsActive) {
		if err := uc.checkNIP(ctx, c); err != nil {
			return nil, err
		}
	}
	if in.IconID != nil {
		if *in.IconID == "" {
			c.IconID = nil
		} else {
			if err := uc.checkIcon(ctx, a.CompanyID, in.IconID); err != nil {
				return nil, err
			}
			c.IconID = in.IconID
		}
	}
	if in.CustomFields != nil {
		custom, err := uc.applyCustomFields(ctx, a.CompanyID, c.CustomFields, in.CustomFields)
		if err != nil {
			return nil, err
		}
		c.CustomFields = custom
	}
	c.SearchKey = textnorm.SearchKey(c.Name, c.NIP, c.Email)
	c.UpdatedAt = time.Now()
	if err := uc.clients.Update(ctx, c); err != nil {
		return nil, err
	}
	return ToClientResponse(c), nil
}

// Deactivate baja lógica del cliente.
func (uc *ClientUseCase) Deactivate(ctx context.Context, a Actor, id string) error {
	c, err := uc.load(ctx, a, id)
	if err != nil {
		return err
	}
	if !c.IsActive {
		return nil
	}
	c.IsActive = false
	c.UpdatedAt = time.Now()
	return uc.clients.Update(ctx, c)
}

// List lista clientes; search ignora mayúsculas y diacríticos sobre nombre, NIP y email.
func (uc *ClientUseCase) List(ctx context.Context, a Actor, search string, includeInactive bool, limit, offset int) (*dto.ClientListResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	limit, offset = dto.NormalizePage(limit, offset)
	list, total, err := uc.clients.List(ctx, a.CompanyID, repository.ClientFilter{
		Search:          textnorm.Fold(strings.TrimSpace(search)),
		IncludeInactive: includeInactive,
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ClientResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *ToClientResponse(c))
	}
	return &dto.ClientListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset, Total: total}}, nil
}

// clientFromLead arma el cliente resultante de convertir un lead.
func clientFromLead(a Actor, l *entity.Lead, in dto.ConvertLeadRequest) *entity.Client {
	name := l.CompanyName
	if name == "" {
		name = l.Name
	}
	now := time.Now()
	notes := l.Notes
	if l.CompanyName != "" && l.Name != "" {
		notes = strings.TrimSpace(fmt.Sprintf("Contacto: %s\n%s", l.Name, l.Notes))
	}
	c := &entity.Client{
		ID:           uuid.New().String(),
		CompanyID:    a.CompanyID,
		Name:         name,
		NIP:          taxid.Normalize(in.NIP),
		Email:        l.Email,
		Phone:        l.Phone,
		Address:      in.Address,
		Notes:        notes,
		CustomFields: map[string]any{},
		IsActive:     true,
		CreatedBy:    a.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	c.SearchKey = textnorm.SearchKey(c.Name, c.NIP, c.Email)
	return c
}

func (uc *ClientUseCase) load(ctx context.Context, a Actor, id string) (*entity.Client, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	c, err := uc.clients.GetByID(ctx, a.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (uc *ClientUseCase) checkNIP(ctx context.Context, c *entity.Client) error {
	if c.NIP == "" {
		return nil
	}
	if err := taxid.ValidateNIP(c.NIP); err != nil {
		return domain.Invalid("nip", "NIP inválido")
	}
	if !c.IsActive {
		return nil
	}
	other, err := uc.clients.GetActiveByNIP(ctx, c.CompanyID, c.NIP)
	if err != nil {
		return err
	}
	if other != nil && other.ID != c.ID {
		return domain.ErrDuplicate
	}
	return nil
}

func (uc *ClientUseCase) checkIcon(ctx context.Context, companyID string, iconID *string) error {
	if iconID == nil || *iconID == "" {
		return nil
	}
	icon, err := uc.icons.GetByID(ctx, companyID, *iconID)
	if err != nil {
		return err
	}
	if icon == nil {
		return domain.Invalid("icon_id", "ícono inexistente")
	}
	return nil
}

// applyCustomFields fusiona patch sobre current y valida contra las definiciones activas.
// Los valores guardados de definiciones desactivadas se conservan sin validar.
func (uc *ClientUseCase) applyCustomFields(ctx context.Context, companyID string, current, patch map[string]any) (map[string]any, error) {
	defs, err := uc.fields.ListActive(ctx, companyID)
	if err != nil {
		return nil, err
	}
	active := make(map[string]bool, len(defs))
	for _, d := range defs {
		active[d.Key] = true
	}
	merged := make(map[string]any, len(current)+len(patch))
	retired := make(map[string]any)
	for k, v := range current {
		if active[k] {
			merged[k] = v
		} else {
			retired[k] = v
		}
	}
	for k, v := range patch {
		delete(retired, k)
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	if err := ValidateCustomFields(merged, defs); err != nil {
		return nil, err
	}
	for k, v := range retired {
		merged[k] = v
	}
	return merged, nil
}

// ValidateCustomFields comprueba claves, tipos, obligatoriedad y opciones de los valores personalizados.
func ValidateCustomFields(values map[string]any, defs []*entity.ClientFieldDefinition) error {
	byKey := make(map[string]*entity.ClientFieldDefinition, len(defs))
	for _, d := range defs {
		byKey[d.Key] = d
	}
	for k, v := range values {
		d, ok := byKey[k]
		if !ok {
			return domain.Invalid("custom_fields."+k, "campo desconocido")
		}
		if err := checkFieldValue(d, v); err != nil {
			return domain.Invalid("custom_fields."+k, err.Error())
		}
	}
	for _, d := range defs {
		if !d.Required {
			continue
		}
		v, ok := values[d.Key]
		if s, isStr := v.(string); !ok || (isStr && strings.TrimSpace(s) == "") {
			return domain.Invalid("custom_fields."+d.Key, "campo obligatorio")
		}
	}
	return nil
}

func checkFieldValue(d *entity.ClientFieldDefinition, v any) error {
	switch d.Type {
	case entity.FieldText:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("se espera texto")
		}
	case entity.FieldNumber:
		switch n := v.(type) {
		case float64, int, int64:
		case json.Number:
			if _, err := n.Float64(); err != nil {
				return fmt.Errorf("se espera un número")
			}
		default:
			return fmt.Errorf("se espera un número")
		}
	case entity.FieldDate:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("se espera una fecha YYYY-MM-DD")
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return fmt.Errorf("se espera una fecha YYYY-MM-DD")
		}
	case entity.FieldBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("se espera true o false")
		}
	case entity.FieldSelect:
		s, ok := v.(string)
		if !ok || !slices.Contains(d.Options, s) {
			return fmt.Errorf("valor fuera de las opciones permitidas")
		}
	default:
		return fmt.Errorf("tipo de campo desconocido %q", d.Type)
	}
	return nil
}

// ---- campos personalizados ----

// ListFields definiciones activas de la empresa ordenadas por posición.
func (uc *ClientUseCase) ListFields(ctx context.Context, a Actor) ([]dto.ClientFieldResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	defs, err := uc.fields.ListActive(ctx, a.CompanyID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ClientFieldResponse, 0, len(defs))
	for _, d := range defs {
		out = append(out, toFieldResponse(d))
	}
	return out, nil
}

// CreateField crea una definición. La clave es única por empresa.
func (uc *ClientUseCase) CreateField(ctx context.Context, a Actor, in dto.ClientFieldRequest) (*dto.ClientFieldResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	if !fieldKeyRe.MatchString(in.Key) {
		return nil, domain.Invalid("key", "solo minúsculas, dígitos y _; debe empezar por letra")
	}
	opts, err := fieldOptions(in.Type, in.Options)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	d := &entity.ClientFieldDefinition{
		ID:        uuid.New().String(),
		CompanyID: a.CompanyID,
		Key:       in.Key,
		Label:     strings.TrimSpace(in.Label),
		Type:      in.Type,
		Options:   opts,
		Required:  in.Required,
		Position:  in.Position,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.fields.Create(ctx, d); err != nil {
		return nil, err
	}
	r := toFieldResponse(d)
	return &r, nil
}

// UpdateField actualiza etiqueta, opciones, obligatoriedad y posición. Clave y tipo no cambian.
func (uc *ClientUseCase) UpdateField(ctx context.Context, a Actor, id string, in dto.ClientFieldRequest) (*dto.ClientFieldResponse, error) {
	d, err := uc.loadField(ctx, a, id)
	if err != nil {
		return nil, err
	}
	if in.Key != d.Key || in.Type != d.Type {
		return nil, domain.Invalid("key", "la clave y el tipo de un campo no se pueden cambiar")
	}
	opts, err := fieldOptions(d.Type, in.Options)
	if err != nil {
		return nil, err
	}
	d.Label = strings.TrimSpace(in.Label)
	d.Options = opts
	d.Required = in.Required
	d.Position = in.Position
	d.UpdatedAt = time.Now()
	if err := uc.fields.Update(ctx, d); err != nil {
		return nil, err
	}
	r := toFieldResponse(d)
	return &r, nil
}

// DeleteField desactiva la definición; los valores guardados en clientes se conservan.
func (uc *ClientUseCase) DeleteField(ctx context.Context, a Actor, id string) error {
	d, err := uc.loadField(ctx, a, id)
	if err != nil {
		return err
	}
	d.IsActive = false
	d.UpdatedAt = time.Now()
	return uc.fields.Update(ctx, d)
}

func (uc *ClientUseCase) loadField(ctx context.Context, a Actor, id string) (*entity.ClientFieldDefinition, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	d, err := uc.fields.GetByID(ctx, a.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if d == nil || !d.IsActive {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func fieldOptions(typ string, opts []string) ([]string, error) {
	if typ != entity.FieldSelect {
		return nil, nil
	}
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		o = strings.TrimSpace(o)
		if o != "" && !slices.Contains(out, o) {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return nil, domain.Invalid("options", "un campo select necesita al menos una opción")
	}
	return out, nil
}

// ---- íconos ----

// UploadIcon sube un ícono al almacenamiento de objetos.
func (uc *ClientUseCase) UploadIcon(ctx context.Context, a Actor, name, contentType string, size int64, r io.Reader) (*dto.ClientIconResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	if uc.storage == nil {
		return nil, domain.ErrNotConfigured
	}
	ext, ok := iconTypes[contentType]
	if !ok {
		return nil, domain.Invalid("file", "formato no admitido (png, jpeg, svg, webp)")
	}
	if size <= 0 || size > MaxIconSize {
		return nil, domain.Invalid("file", "el ícono debe pesar como máximo 1 MiB")
	}
	id := uuid.New().String()
	icon := &entity.ClientIcon{
		ID:          id,
		CompanyID:   a.CompanyID,
		Name:        path.Base(strings.TrimSpace(name)),
		ObjectKey:   path.Join(a.CompanyID, "client-icons", id+ext),
		ContentType: contentType,
		Size:        size,
		CreatedAt:   time.Now(),
	}
	if err := uc.storage.Put(ctx, icon.ObjectKey, r, size, contentType); err != nil {
		return nil, fmt.Errorf("subir ícono: %w", err)
	}
	if err := uc.icons.Create(ctx, icon); err != nil {
		if rmErr := uc.storage.Remove(ctx, icon.ObjectKey); rmErr != nil {
			uc.log.Warn().Err(rmErr).Str("key", icon.ObjectKey).Msg("objeto huérfano tras fallo de BD")
		}
		return nil, err
	}
	return uc.iconResponse(ctx, icon)
}

// ListIcons íconos de la empresa con URL firmada temporal.
func (uc *ClientUseCase) ListIcons(ctx context.Context, a Actor) ([]dto.ClientIconResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	if uc.storage == nil {
		return nil, domain.ErrNotConfigured
	}
	list, err := uc.icons.List(ctx, a.CompanyID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ClientIconResponse, 0, len(list))
	for _, icon := range list {
		r, err := uc.iconResponse(ctx, icon)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

// DeleteIcon borra un ícono que ningún cliente activo usa.
func (uc *ClientUseCase) DeleteIcon(ctx context.Context, a Actor, id string) error {
	if err := a.requireCompany(); err != nil {
		return err
	}
	if uc.storage == nil {
		return domain.ErrNotConfigured
	}
	icon, err := uc.icons.GetByID(ctx, a.CompanyID, id)
	if err != nil {
		return err
	}
	if icon == nil {
		return domain.ErrNotFound
	}
	inUse, err := uc.clients.CountByIcon(ctx, a.CompanyID, id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return domain.ErrConflict
	}
	if err := uc.icons.Delete(ctx, a.CompanyID, id); err != nil {
		return err
	}
	if err := uc.storage.Remove(ctx, icon.ObjectKey); err != nil {
		uc.log.Warn().Err(err).Str("key", icon.ObjectKey).Msg("no se pudo borrar el objeto del ícono")
	}
	return nil
}

func (uc *ClientUseCase) iconResponse(ctx context.Context, icon *entity.ClientIcon) (*dto.ClientIconResponse, error) {
	url, err := uc.storage.PresignedURL(ctx, icon.ObjectKey, uc.urlExpiry)
	if err != nil {
		return nil, fmt.Errorf("firmar URL de ícono: %w", err)
	}
	return &dto.ClientIconResponse{
		ID:          icon.ID,
		Name:        icon.Name,
		ContentType: icon.ContentType,
		Size:        icon.Size,
		URL:         url,
		CreatedAt:   icon.CreatedAt,
	}, nil
}

// ToClientResponse convierte un cliente a su DTO.
func ToClientResponse(c *entity.Client) *dto.ClientResponse {
	custom := c.CustomFields
	if custom == nil {
		custom = map[string]any{}
	}
	return &dto.ClientResponse{
		ID:           c.ID,
		Name:         c.Name,
		NIP:          c.NIP,
		Email:        c.Email,
		Phone:        c.Phone,
		Address:      c.Address,
		Notes:        c.Notes,
		IconID:       c.IconID,
		CustomFields: custom,
		IsActive:     c.IsActive,
		CreatedBy:    c.CreatedBy,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func toFieldResponse(d *entity.ClientFieldDefinition) dto.ClientFieldResponse {
	return dto.ClientFieldResponse{
		ID:       d.ID,
		Key:      d.Key,
		Label:    d.Label,
		Type:     d.Type,
		Options:  d.Options,
		Required: d.Required,
		Position: d.Position,
	}
}
