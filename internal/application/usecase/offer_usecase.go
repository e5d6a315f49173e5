package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
	"github.com/jhoicas/OficinaContable-api/pkg/taxid"
)

// DefaultCurrency moneda de las ofertas cuando no se indica.
const DefaultCurrency = "PLN"

var maxTaxRate = decimal.NewFromInt(100)

// OfferUseCase leads y ofertas comerciales.
type OfferUseCase struct {
	tx        ports.TxRunner
	leads     repository.LeadRepository
	offers    repository.OfferRepository
	clients   repository.ClientRepository
	companies repository.CompanyRepository
	pdf       ports.OfferPDFGenerator // nil = PDF deshabilitado
	now       func() time.Time
}

// NewOfferUseCase construye el caso de uso.
func NewOfferUseCase(
	tx ports.TxRunner,
	leads repository.LeadRepository,
	offers repository.OfferRepository,
	clients repository.ClientRepository,
	companies repository.CompanyRepository,
	pdf ports.OfferPDFGenerator,
) *OfferUseCase {
	return &OfferUseCase{tx: tx, leads: leads, offers: offers, clients: clients, companies: companies, pdf: pdf, now: time.Now}
}

// ---- leads ----

// CreateLead da de alta un lead (estado new si no se indica).
func (uc *OfferUseCase) CreateLead(ctx context.Context, a Actor, in dto.LeadRequest) (*dto.LeadResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	now := uc.now()
	l := &entity.Lead{
		ID:        uuid.New().String(),
		CompanyID: a.CompanyID,
		CreatedBy: a.UserID,
		Status:    entity.LeadNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyLead(l, in)
	if err := uc.leads.Create(ctx, l); err != nil {
		return nil, err
	}
	return toLeadResponse(l), nil
}

// GetLead obtiene un lead de la empresa.
func (uc *OfferUseCase) GetLead(ctx context.Context, a Actor, id string) (*dto.LeadResponse, error) {
	l, err := uc.loadLead(ctx, uc.leads, a, id)
	if err != nil {
		return nil, err
	}
	return toLeadResponse(l), nil
}

// UpdateLead reemplaza los datos del lead. Un lead convertido no se edita.
func (uc *OfferUseCase) UpdateLead(ctx context.Context, a Actor, id string, in dto.LeadRequest) (*dto.LeadResponse, error) {
	l, err := uc.loadLead(ctx, uc.leads, a, id)
	if err != nil {
		return nil, err
	}
	if l.Status == entity.LeadConverted {
		return nil, domain.ErrConflict
	}
	applyLead(l, in)
	l.UpdatedAt = uc.now()
	if err := uc.leads.Update(ctx, l); err != nil {
		return nil, err
	}
	return toLeadResponse(l), nil
}

// DeleteLead borra un lead no convertido.
func (uc *OfferUseCase) DeleteLead(ctx context.Context, a Actor, id string) error {
	l, err := uc.loadLead(ctx, uc.leads, a, id)
	if err != nil {
		return err
	}
	if l.Status == entity.LeadConverted {
		return domain.ErrConflict
	}
	return uc.leads.Delete(ctx, a.CompanyID, id)
}

// ListLeads lista leads filtrando opcionalmente por estado.
func (uc *OfferUseCase) ListLeads(ctx context.Context, a Actor, status string, limit, offset int) ([]dto.LeadResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	limit, offset = dto.NormalizePage(limit, offset)
	list, err := uc.leads.List(ctx, a.CompanyID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LeadResponse, 0, len(list))
	for _, l := range list {
		out = append(out, *toLeadResponse(l))
	}
	return out, nil
}

// ConvertLead crea un cliente a partir del lead y lo marca convertido, en una transacción.
func (uc *OfferUseCase) ConvertLead(ctx context.Context, a Actor, id string, in dto.ConvertLeadRequest) (*dto.ClientResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	var client *entity.Client
	err := uc.tx.Run(ctx, func(r ports.TxRepos) error {
		l, err := uc.loadLead(ctx, r.Leads, a, id)
		if err != nil {
			return err
		}
		if l.Status == entity.LeadConverted {
			return domain.ErrConflict
		}
		c := clientFromLead(a, l, in)
		if c.NIP != "" {
			if err := taxid.ValidateNIP(c.NIP); err != nil {
				return domain.Invalid("nip", "NIP inválido")
			}
			other, err := r.Clients.GetActiveByNIP(ctx, a.CompanyID, c.NIP)
			if err != nil {
				return err
			}
			if other != nil {
				return domain.ErrDuplicate
			}
		}
		if err := r.Clients.Create(ctx, c); err != nil {
			return err
		}
		l.Status = entity.LeadConverted
		l.ConvertedClientID = &c.ID
		l.UpdatedAt = uc.now()
		if err := r.Leads.Update(ctx, l); err != nil {
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToClientResponse(client), nil
}

func (uc *OfferUseCase) loadLead(ctx context.Context, repo repository.LeadRepository, a Actor, id string) (*entity.Lead, error) {
	l, err := repo.GetByID(ctx, a.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, domain.ErrNotFound
	}
	return l, nil
}

func applyLead(l *entity.Lead, in dto.LeadRequest) {
	l.Name = strings.TrimSpace(in.Name)
	l.Email = strings.TrimSpace(in.Email)
	l.Phone = in.Phone
	l.CompanyName = strings.TrimSpace(in.CompanyName)
	l.Source = in.Source
	l.Notes = in.Notes
	if in.Status != "" {
		l.Status = in.Status
	}
}

// ---- ofertas ----

// CreateOffer crea una oferta en borrador con numeración OF/<año>/<consecutivo>.
func (uc *OfferUseCase) CreateOffer(ctx context.Context, a Actor, in dto.CreateOfferRequest) (*dto.OfferResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	clientID, leadID := strPtrOrNil(in.ClientID), strPtrOrNil(in.LeadID)
	if (clientID == nil) == (leadID == nil) {
		return nil, domain.Invalid("client_id", "indique client_id o lead_id (exactamente uno)")
	}
	items, err := buildItems(in.Items)
	if err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	now := uc.now()
	o := &entity.Offer{
		ID:         uuid.New().String(),
		CompanyID:  a.CompanyID,
		ClientID:   clientID,
		LeadID:     leadID,
		Title:      strings.TrimSpace(in.Title),
		Status:     entity.OfferDraft,
		ValidUntil: in.ValidUntil,
		Currency:   currency,
		Items:      items,
		Notes:      in.Notes,
		Version:    1,
		CreatedBy:  a.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	o.Recalculate()

	err = uc.tx.Run(ctx, func(r ports.TxRepos) error {
		if err := uc.checkRecipient(ctx, r, a.CompanyID, clientID, leadID); err != nil {
			return err
		}
		seq, err := r.Offers.NextNumber(ctx, a.CompanyID, now.Year())
		if err != nil {
			return err
		}
		o.Number = fmt.Sprintf("OF/%d/%d", now.Year(), seq)
		for i := range o.Items {
			o.Items[i].ID = uuid.New().String()
			o.Items[i].OfferID = o.ID
		}
		return r.Offers.Create(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return ToOfferResponse(o), nil
}

// GetOffer obtiene una oferta con sus líneas.
func (uc *OfferUseCase) GetOffer(ctx context.Context, a Actor, id string) (*dto.OfferResponse, error) {
	o, err := uc.loadOffer(ctx, a, id)
	if err != nil {
		return nil, err
	}
	return ToOfferResponse(o), nil
}

// ListOffers lista ofertas (sin líneas) filtrando opcionalmente por estado.
func (uc *OfferUseCase) ListOffers(ctx context.Context, a Actor, status string, limit, offset int) ([]dto.OfferResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	limit, offset = dto.NormalizePage(limit, offset)
	list, err := uc.offers.List(ctx, a.CompanyID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.OfferResponse, 0, len(list))
	for _, o := range list {
		out = append(out, *ToOfferResponse(o))
	}
	return out, nil
}

// UpdateOffer edita una oferta en borrador. in.Version debe coincidir con la almacenada.
func (uc *OfferUseCase) UpdateOffer(ctx context.Context, a Actor, id string, in dto.UpdateOfferRequest) (*dto.OfferResponse, error) {
	o, err := uc.loadOffer(ctx, a, id)
	if err != nil {
		return nil, err
	}
	if o.Version != in.Version {
		return nil, domain.ErrVersionConflict
	}
	if o.Status != entity.OfferDraft {
		return nil, domain.ErrConflict
	}
	if in.Title != nil {
		o.Title = strings.TrimSpace(*in.Title)
	}
	if in.ValidUntil != nil {
		o.ValidUntil = in.ValidUntil
	}
	if in.Notes != nil {
		o.Notes = *in.Notes
	}
	replaceItems := len(in.Items) > 0
	if replaceItems {
		items, err := buildItems(in.Items)
		if err != nil {
			return nil, err
		}
		for i := range items {
			items[i].ID = uuid.New().String()
			items[i].OfferID = o.ID
		}
		o.Items = items
	}
	o.Recalculate()
	o.Version = in.Version + 1
	o.UpdatedAt = uc.now()

	save := *o
	if !replaceItems {
		save.Items = nil
	}
	err = uc.tx.Run(ctx, func(r ports.TxRepos) error {
		return r.Offers.Update(ctx, &save, in.Version)
	})
	if err != nil {
		return nil, err
	}
	return ToOfferResponse(o), nil
}

// ChangeStatus aplica una transición de estado válida con control de versión.
func (uc *OfferUseCase) ChangeStatus(ctx context.Context, a Actor, id string, in dto.OfferStatusRequest) (*dto.OfferResponse, error) {
	o, err := uc.loadOffer(ctx, a, id)
	if err != nil {
		return nil, err
	}
	if o.Version != in.Version {
		return nil, domain.ErrVersionConflict
	}
	if !entity.CanTransition(o.Status, in.Status) {
		return nil, domain.ErrInvalidTransition
	}
	o.Status = in.Status
	o.Version = in.Version + 1
	o.UpdatedAt = uc.now()
	save := *o
	save.Items = nil
	if err := uc.offers.Update(ctx, &save, in.Version); err != nil {
		return nil, err
	}
	return ToOfferResponse(o), nil
}

// DeleteOffer borra una oferta en borrador.
func (uc *OfferUseCase) DeleteOffer(ctx context.Context, a Actor, id string) error {
	o, err := uc.loadOffer(ctx, a, id)
	if err != nil {
		return err
	}
	if o.Status != entity.OfferDraft {
		return domain.ErrConflict
	}
	return uc.offers.Delete(ctx, a.CompanyID, id)
}

// OfferPDF genera el PDF de la oferta. Devuelve el número de oferta para el nombre del archivo.
func (uc *OfferUseCase) OfferPDF(ctx context.Context, a Actor, id string) ([]byte, string, error) {
	if uc.pdf == nil {
		return nil, "", domain.ErrNotConfigured
	}
	o, err := uc.loadOffer(ctx, a, id)
	if err != nil {
		return nil, "", err
	}
	company, err := uc.companies.GetByID(ctx, a.CompanyID)
	if err != nil {
		return nil, "", err
	}
	if company == nil {
		return nil, "", domain.ErrNotFound
	}
	var rcpt ports.OfferRecipient
	switch {
	case o.ClientID != nil:
		c, err := uc.clients.GetByID(ctx, a.CompanyID, *o.ClientID)
		if err != nil {
			return nil, "", err
		}
		if c != nil {
			rcpt = ports.OfferRecipient{Name: c.Name, NIP: c.NIP, Email: c.Email, Address: c.Address}
		}
	case o.LeadID != nil:
		l, err := uc.leads.GetByID(ctx, a.CompanyID, *o.LeadID)
		if err != nil {
			return nil, "", err
		}
		if l != nil {
			name := l.CompanyName
			if name == "" {
				name = l.Name
			}
			rcpt = ports.OfferRecipient{Name: name, Email: l.Email}
		}
	}
	pdf, err := uc.pdf.GenerateOfferPDF(ctx, o, company, rcpt)
	if err != nil {
		return nil, "", fmt.Errorf("generar PDF de oferta: %w", err)
	}
	return pdf, o.Number, nil
}

func (uc *OfferUseCase) loadOffer(ctx context.Context, a Actor, id string) (*entity.Offer, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	o, err := uc.offers.GetByID(ctx, a.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (uc *OfferUseCase) checkRecipient(ctx context.Context, r ports.TxRepos, companyID string, clientID, leadID *string) error {
	if clientID != nil {
		c, err := r.Clients.GetByID(ctx, companyID, *clientID)
		if err != nil {
			return err
		}
		if c == nil || !c.IsActive {
			return domain.Invalid("client_id", "cliente inexistente")
		}
		return nil
	}
	l, err := r.Leads.GetByID(ctx, companyID, *leadID)
	if err != nil {
		return err
	}
	if l == nil {
		return domain.Invalid("lead_id", "lead inexistente")
	}
	return nil
}

func buildItems(in []dto.OfferItemRequest) ([]entity.OfferItem, error) {
	if len(in) == 0 {
		return nil, domain.Invalid("items", "la oferta necesita al menos una línea")
	}
	items := make([]entity.OfferItem, 0, len(in))
	for i, it := range in {
		field := fmt.Sprintf("items[%d]", i)
		if !it.Quantity.Round(entity.QuantityScale).IsPositive() {
			return nil, domain.Invalid(field+".quantity", "debe ser mayor que cero")
		}
		if it.UnitPrice.IsNegative() {
			return nil, domain.Invalid(field+".unit_price", "no puede ser negativo")
		}
		if it.TaxRate.IsNegative() || it.TaxRate.GreaterThan(maxTaxRate) {
			return nil, domain.Invalid(field+".tax_rate", "debe estar entre 0 y 100")
		}
		items = append(items, entity.OfferItem{
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
		})
	}
	return items, nil
}

func strPtrOrNil(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return p
}

func toLeadResponse(l *entity.Lead) *dto.LeadResponse {
	return &dto.LeadResponse{
		ID:                l.ID,
		Name:              l.Name,
		Email:             l.Email,
		Phone:             l.Phone,
		CompanyName:       l.CompanyName,
		Source:            l.Source,
		Status:            l.Status,
		Notes:             l.Notes,
		ConvertedClientID: l.ConvertedClientID,
		CreatedBy:         l.CreatedBy,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

// ToOfferResponse convierte una oferta a su DTO.
func ToOfferResponse(o *entity.Offer) *dto.OfferResponse {
	items := make([]dto.OfferItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, dto.OfferItemResponse{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
			Net:         it.Net,
			Tax:         it.Tax,
			Gross:       it.Gross,
			Position:    it.Position,
		})
	}
	return &dto.OfferResponse{
		ID:         o.ID,
		Number:     o.Number,
		ClientID:   o.ClientID,
		LeadID:     o.LeadID,
		Title:      o.Title,
		Status:     o.Status,
		ValidUntil: o.ValidUntil,
		Currency:   o.Currency,
		Items:      items,
		Net:        o.Net,
		Tax:        o.Tax,
		Gross:      o.Gross,
		Notes:      o.Notes,
		Version:    o.Version,
		CreatedBy:  o.CreatedBy,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}
