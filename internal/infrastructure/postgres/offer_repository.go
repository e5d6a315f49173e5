package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
)

var (
	_ repository.LeadRepository  = (*LeadRepo)(nil)
	_ repository.OfferRepository = (*OfferRepo)(nil)
)

const leadColumns = `id, company_id, name, email, phone, company_name, source, status, notes,
	converted_client_id::text, created_by, created_at, updated_at`

// LeadRepo implementación de LeadRepository (usable con pool o tx).
type LeadRepo struct {
	q Querier
}

// NewLeadRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLeadRepository(q Querier) *LeadRepo {
	return &LeadRepo{q: q}
}

func scanLead(row pgx.Row) (*entity.Lead, error) {
	var l entity.Lead
	err := row.Scan(&l.ID, &l.CompanyID, &l.Name, &l.Email, &l.Phone, &l.CompanyName, &l.Source, &l.Status,
		&l.Notes, &l.ConvertedClientID, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt)
	return &l, err
}

func (r *LeadRepo) Create(ctx context.Context, l *entity.Lead) error {
	query := `
		INSERT INTO leads (id, company_id, name, email, phone, company_name, source, status, notes,
		                   converted_client_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query, l.ID, l.CompanyID, l.Name, l.Email, l.Phone, l.CompanyName, l.Source,
		l.Status, l.Notes, l.ConvertedClientID, l.CreatedBy, l.CreatedAt, l.UpdatedAt)
	return wrap("insert lead", err)
}

func (r *LeadRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Lead, error) {
	l, err := scanLead(r.q.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return l, nil
}

func (r *LeadRepo) Update(ctx context.Context, l *entity.Lead) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE leads SET name = $3, email = $4, phone = $5, company_name = $6, source = $7, status = $8,
			notes = $9, converted_client_id = $10, updated_at = $11
		WHERE company_id = $1 AND id = $2`,
		l.CompanyID, l.ID, l.Name, l.Email, l.Phone, l.CompanyName, l.Source, l.Status,
		l.Notes, l.ConvertedClientID, l.UpdatedAt)
	if err != nil {
		return wrap("update lead", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete falla con ErrConflict si alguna oferta referencia el lead.
func (r *LeadRepo) Delete(ctx context.Context, companyID, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM leads WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("delete lead: %w", domain.ErrConflict)
		}
		return fmt.Errorf("delete lead: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *LeadRepo) List(ctx context.Context, companyID, status string, limit, offset int) ([]*entity.Lead, error) {
	rows, err := r.q.Query(ctx, `SELECT `+leadColumns+` FROM leads
		WHERE company_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`, companyID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()
	var list []*entity.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

const offerColumns = `id, company_id, number, client_id::text, lead_id::text, title, status, valid_until,
	currency, net, tax, gross, notes, version, created_by, created_at, updated_at`

// OfferRepo cabecera y líneas de ofertas. Create y Update con líneas deben ir dentro de una tx.
type OfferRepo struct {
	q Querier
}

// NewOfferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOfferRepository(q Querier) *OfferRepo {
	return &OfferRepo{q: q}
}

func scanOffer(row pgx.Row) (*entity.Offer, error) {
	var o entity.Offer
	err := row.Scan(&o.ID, &o.CompanyID, &o.Number, &o.ClientID, &o.LeadID, &o.Title, &o.Status, &o.ValidUntil,
		&o.Currency, &o.Net, &o.Tax, &o.Gross, &o.Notes, &o.Version, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	return &o, err
}

// Create persiste la cabecera y sus líneas.
func (r *OfferRepo) Create(ctx context.Context, o *entity.Offer) error {
	query := `
		INSERT INTO offers (id, company_id, number, client_id, lead_id, title, status, valid_until, currency,
		                    net, tax, gross, notes, version, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query, o.ID, o.CompanyID, o.Number, o.ClientID, o.LeadID, o.Title, o.Status,
		o.ValidUntil, o.Currency, o.Net, o.Tax, o.Gross, o.Notes, o.Version, o.CreatedBy, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return wrap("insert offer", err)
	}
	return r.insertItems(ctx, o.Items)
}

func (r *OfferRepo) insertItems(ctx context.Context, items []entity.OfferItem) error {
	query := `
		INSERT INTO offer_items (id, offer_id, description, quantity, unit_price, tax_rate, net, tax, gross, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, it := range items {
		_, err := r.q.Exec(ctx, query, it.ID, it.OfferID, it.Description, it.Quantity, it.UnitPrice,
			it.TaxRate, it.Net, it.Tax, it.Gross, it.Position)
		if err != nil {
			return wrap("insert offer item", err)
		}
	}
	return nil
}

// GetByID obtiene la oferta con sus líneas ordenadas.
func (r *OfferRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Offer, error) {
	o, err := scanOffer(r.q.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get offer: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, offer_id, description, quantity, unit_price, tax_rate, net, tax, gross, position
		FROM offer_items WHERE offer_id = $1 ORDER BY position`, o.ID)
	if err != nil {
		return nil, fmt.Errorf("list offer items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.OfferItem
		if err := rows.Scan(&it.ID, &it.OfferID, &it.Description, &it.Quantity, &it.UnitPrice,
			&it.TaxRate, &it.Net, &it.Tax, &it.Gross, &it.Position); err != nil {
			return nil, fmt.Errorf("scan offer item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

// Update guarda la cabecera si la versión almacenada es expectedVersion.
// Si o.Items != nil reemplaza todas las líneas.
func (r *OfferRepo) Update(ctx context.Context, o *entity.Offer, expectedVersion int) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE offers SET title = $4, status = $5, valid_until = $6, net = $7, tax = $8, gross = $9,
			notes = $10, version = $11, updated_at = $12
		WHERE company_id = $1 AND id = $2 AND version = $3`,
		o.CompanyID, o.ID, expectedVersion, o.Title, o.Status, o.ValidUntil, o.Net, o.Tax, o.Gross,
		o.Notes, o.Version, o.UpdatedAt)
	if err != nil {
		return wrap("update offer", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	if o.Items == nil {
		return nil
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM offer_items WHERE offer_id = $1`, o.ID); err != nil {
		return fmt.Errorf("delete offer items: %w", err)
	}
	return r.insertItems(ctx, o.Items)
}

// Delete borra la oferta; las líneas caen por ON DELETE CASCADE.
func (r *OfferRepo) Delete(ctx context.Context, companyID, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM offers WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return fmt.Errorf("delete offer: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List devuelve cabeceras sin líneas.
func (r *OfferRepo) List(ctx context.Context, companyID, status string, limit, offset int) ([]*entity.Offer, error) {
	rows, err := r.q.Query(ctx, `SELECT `+offerColumns+` FROM offers
		WHERE company_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`, companyID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// NextNumber reserva el siguiente correlativo del año; el bloqueo de fila serializa emisiones concurrentes.
func (r *OfferRepo) NextNumber(ctx context.Context, companyID string, year int) (int, error) {
	var seq int
	err := r.q.QueryRow(ctx, `
		INSERT INTO offer_sequences (company_id, year, last_seq) VALUES ($1, $2, 1)
		ON CONFLICT (company_id, year) DO UPDATE SET last_seq = offer_sequences.last_seq + 1
		RETURNING last_seq`, companyID, year).Scan(&seq)
	if err != nil {
		return 0, wrap("next offer number", err)
	}
	return seq, nil
}
