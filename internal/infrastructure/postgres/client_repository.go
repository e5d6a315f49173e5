package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
)

var (
	_ repository.ClientRepository      = (*ClientRepo)(nil)
	_ repository.ClientFieldRepository = (*ClientFieldRepo)(nil)
	_ repository.ClientIconRepository  = (*ClientIconRepo)(nil)
)

const clientColumns = `id, company_id, name, nip, email, phone, address, notes, icon_id::text,
	custom_fields, search_key, is_active, created_by, created_at, updated_at`

// ClientRepo clientes de la oficina; los campos personalizados van en JSONB.
type ClientRepo struct {
	q Querier
}

// NewClientRepository construye el adaptador. Acepta pool o tx (Querier).
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

func marshalFields(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func scanClient(row pgx.Row) (*entity.Client, error) {
	var (
		c   entity.Client
		raw []byte
	)
	if err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.NIP, &c.Email, &c.Phone, &c.Address, &c.Notes,
		&c.IconID, &raw, &c.SearchKey, &c.IsActive, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.CustomFields = map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &c.CustomFields); err != nil {
			return nil, fmt.Errorf("custom_fields: %w", err)
		}
	}
	return &c, nil
}

// Create inserta un cliente.
func (r *ClientRepo) Create(ctx context.Context, c *entity.Client) error {
	fields, err := marshalFields(c.CustomFields)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	query := `
		INSERT INTO clients (id, company_id, name, nip, email, phone, address, notes, icon_id,
		                     custom_fields, search_key, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err = r.q.Exec(ctx, query,
		c.ID, c.CompanyID, c.Name, c.NIP, c.Email, c.Phone, c.Address, c.Notes, c.IconID,
		fields, c.SearchKey, c.IsActive, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	return wrap("insert client", err)
}

// GetByID obtiene un cliente de la empresa.
func (r *ClientRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Client, error) {
	c, err := scanClient(r.q.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

// GetActiveByNIP busca el cliente activo con ese NIP.
func (r *ClientRepo) GetActiveByNIP(ctx context.Context, companyID, nip string) (*entity.Client, error) {
	c, err := scanClient(r.q.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE company_id = $1 AND nip = $2 AND is_active`, companyID, nip))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client by nip: %w", err)
	}
	return c, nil
}

// Update reemplaza los datos editables del cliente.
func (r *ClientRepo) Update(ctx context.Context, c *entity.Client) error {
	fields, err := marshalFields(c.CustomFields)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	query := `
		UPDATE clients SET name = $3, nip = $4, email = $5, phone = $6, address = $7, notes = $8,
			icon_id = $9, custom_fields = $10, search_key = $11, is_active = $12, updated_at = $13
		WHERE company_id = $1 AND id = $2`
	cmd, err := r.q.Exec(ctx, query,
		c.CompanyID, c.ID, c.Name, c.NIP, c.Email, c.Phone, c.Address, c.Notes,
		c.IconID, fields, c.SearchKey, c.IsActive, c.UpdatedAt,
	)
	if err != nil {
		return wrap("update client", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List pagina los clientes y devuelve además el total que cumple el filtro.
func (r *ClientRepo) List(ctx context.Context, companyID string, f repository.ClientFilter) ([]*entity.Client, int, error) {
	const where = ` FROM clients
		WHERE company_id = $1
		  AND ($2 OR is_active)
		  AND ($3 = '' OR search_key LIKE '%' || $3 || '%')`

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*)`+where, companyID, f.IncludeInactive, f.Search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	rows, err := r.q.Query(ctx, `SELECT `+clientColumns+where+` ORDER BY name LIMIT $4 OFFSET $5`,
		companyID, f.IncludeInactive, f.Search, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var list []*entity.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan client: %w", err)
		}
		list = append(list, c)
	}
	return list, total, rows.Err()
}

// CountByIcon cuenta clientes que usan el icono.
func (r *ClientRepo) CountByIcon(ctx context.Context, companyID, iconID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM clients WHERE company_id = $1 AND icon_id = $2`, companyID, iconID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count clients by icon: %w", err)
	}
	return n, nil
}

const fieldColumns = `id, company_id, key, label, type, options, required, position, is_active, created_at, updated_at`

// ClientFieldRepo definiciones de campos personalizados.
type ClientFieldRepo struct {
	q Querier
}

// NewClientFieldRepository construye el adaptador.
func NewClientFieldRepository(q Querier) *ClientFieldRepo {
	return &ClientFieldRepo{q: q}
}

func scanField(row pgx.Row) (*entity.ClientFieldDefinition, error) {
	var f entity.ClientFieldDefinition
	err := row.Scan(&f.ID, &f.CompanyID, &f.Key, &f.Label, &f.Type, &f.Options, &f.Required,
		&f.Position, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	return &f, err
}

func (r *ClientFieldRepo) Create(ctx context.Context, f *entity.ClientFieldDefinition) error {
	if f.Options == nil {
		f.Options = []string{}
	}
	query := `
		INSERT INTO client_field_definitions (id, company_id, key, label, type, options, required, position, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query, f.ID, f.CompanyID, f.Key, f.Label, f.Type, f.Options, f.Required,
		f.Position, f.IsActive, f.CreatedAt, f.UpdatedAt)
	return wrap("insert client field", err)
}

func (r *ClientFieldRepo) GetByID(ctx context.Context, companyID, id string) (*entity.ClientFieldDefinition, error) {
	f, err := scanField(r.q.QueryRow(ctx,
		`SELECT `+fieldColumns+` FROM client_field_definitions WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client field: %w", err)
	}
	return f, nil
}

// Update no cambia key ni type.
func (r *ClientFieldRepo) Update(ctx context.Context, f *entity.ClientFieldDefinition) error {
	if f.Options == nil {
		f.Options = []string{}
	}
	cmd, err := r.q.Exec(ctx, `
		UPDATE client_field_definitions SET label = $3, options = $4, required = $5, position = $6, is_active = $7, updated_at = $8
		WHERE company_id = $1 AND id = $2`,
		f.CompanyID, f.ID, f.Label, f.Options, f.Required, f.Position, f.IsActive, f.UpdatedAt)
	if err != nil {
		return wrap("update client field", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListActive definiciones activas por posición.
func (r *ClientFieldRepo) ListActive(ctx context.Context, companyID string) ([]*entity.ClientFieldDefinition, error) {
	rows, err := r.q.Query(ctx, `SELECT `+fieldColumns+` FROM client_field_definitions
		WHERE company_id = $1 AND is_active ORDER BY position, key`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list client fields: %w", err)
	}
	defer rows.Close()
	var list []*entity.ClientFieldDefinition
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client field: %w", err)
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

const iconColumns = `id, company_id, name, object_key, content_type, size, created_at`

// ClientIconRepo metadatos de iconos; el binario vive en MinIO.
type ClientIconRepo struct {
	q Querier
}

func NewClientIconRepository(q Querier) *ClientIconRepo {
	return &ClientIconRepo{q: q}
}

func (r *ClientIconRepo) Create(ctx context.Context, icon *entity.ClientIcon) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO client_icons (id, company_id, name, object_key, content_type, size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		icon.ID, icon.CompanyID, icon.Name, icon.ObjectKey, icon.ContentType, icon.Size, icon.CreatedAt)
	return wrap("insert client icon", err)
}

func (r *ClientIconRepo) GetByID(ctx context.Context, companyID, id string) (*entity.ClientIcon, error) {
	var i entity.ClientIcon
	err := r.q.QueryRow(ctx, `SELECT `+iconColumns+` FROM client_icons WHERE company_id = $1 AND id = $2`, companyID, id).
		Scan(&i.ID, &i.CompanyID, &i.Name, &i.ObjectKey, &i.ContentType, &i.Size, &i.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client icon: %w", err)
	}
	return &i, nil
}

func (r *ClientIconRepo) List(ctx context.Context, companyID string) ([]*entity.ClientIcon, error) {
	rows, err := r.q.Query(ctx, `SELECT `+iconColumns+` FROM client_icons WHERE company_id = $1 ORDER BY name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list client icons: %w", err)
	}
	defer rows.Close()
	var list []*entity.ClientIcon
	for rows.Next() {
		var i entity.ClientIcon
		if err := rows.Scan(&i.ID, &i.CompanyID, &i.Name, &i.ObjectKey, &i.ContentType, &i.Size, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan client icon: %w", err)
		}
		list = append(list, &i)
	}
	return list, rows.Err()
}

func (r *ClientIconRepo) Delete(ctx context.Context, companyID, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM client_icons WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("delete client icon: %w", domain.ErrConflict)
		}
		return fmt.Errorf("delete client icon: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
