// Package pdf genera la representación gráfica de las ofertas comerciales.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Oficina + NIP        │  N° Oferta + Fecha + Validez│
//	│  ─────────────────────────────────────────────────────────  │
//	│  EMISOR: Dirección / Tel / Email                             │
//	│  DESTINATARIO: Nombre + NIP + contacto                       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Lp | Descripción | Cant | P.Unit | VAT | Neto | Bruto│
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Netto / VAT / Brutto                               │
//	│  NOTAS                                                       │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var _ ports.OfferPDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa ports.OfferPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateOfferPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateOfferPDF(
	_ context.Context,
	offer *entity.Offer,
	company *entity.Company,
	recipient ports.OfferRecipient,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Oferta "+offer.Number, true).
		WithAuthor(company.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(offer, company))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(issuerRow(company))
	m.AddRows(recipientRow(recipient))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	if offer.Title != "" {
		m.AddRows(row.New(9).Add(col.New(12).Add(
			text.New(offer.Title, props.Text{Style: fontstyle.Bold, Size: 11, Top: 2}),
		)))
	}

	m.AddRows(tableHeaderRow())
	m.AddRows(itemRows(offer.Items)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(offer))

	if strings.TrimSpace(offer.Notes) != "" {
		m.AddRows(line.NewRow(3))
		m.AddRows(row.New(6).Add(col.New(12).Add(
			text.New("UWAGI", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
		)))
		m.AddAutoRow(col.New(12).Add(text.New(offer.Notes, props.Text{Size: 8, Color: colorGray})))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: oficina + NIP (izq) y número + fechas (der).
func headerRow(offer *entity.Offer, company *entity.Company) core.Row {
	right := []core.Component{
		text.New("OFERTA", props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
		}),
		text.New(offer.Number, props.Text{
			Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6,
		}),
		text.New("Data: "+offer.CreatedAt.Format("02.01.2006"), props.Text{
			Size: 8, Align: align.Right, Top: 13, Color: colorGray,
		}),
	}
	if offer.ValidUntil != nil {
		right = append(right, text.New("Ważna do: "+offer.ValidUntil.Format("02.01.2006"), props.Text{
			Size: 8, Align: align.Right, Top: 17, Color: colorGray,
		}))
	}
	return row.New(22).Add(
		col.New(7).Add(
			text.New(company.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("NIP: "+company.NIP, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(right...),
	)
}

func issuerRow(company *entity.Company) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("WYSTAWCA", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Adres: %s   |   Tel: %s   |   Email: %s",
				nonEmpty(company.Address, "-"),
				nonEmpty(company.Phone, "-"),
				nonEmpty(company.Email, "-"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func recipientRow(r ports.OfferRecipient) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("ODBIORCA", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(r.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("NIP: %s   |   Email: %s   |   Adres: %s",
				nonEmpty(r.NIP, "-"),
				nonEmpty(r.Email, "-"),
				nonEmpty(r.Address, "-"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Lp.", 1, align.Center),
		h("Opis", 4, align.Left),
		h("Ilość", 1, align.Right),
		h("Cena netto", 2, align.Right),
		h("VAT", 1, align.Center),
		h("Netto", 1, align.Right),
		h("Brutto", 2, align.Right),
	)
}

// itemRows: una fila por línea de la oferta.
func itemRows(items []entity.OfferItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprint(it.Position), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(4).Add(text.New(it.Description, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(1).Add(text.New(it.Quantity.String(), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(formatAmount(it.UnitPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(it.TaxRate.String()+"%", props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(formatAmount(it.Net), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(formatAmount(it.Gross), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func totalsRow(offer *entity.Offer) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	cur := " " + offer.Currency
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Razem netto:", 1),
			label("VAT:", 6),
			text.New("DO ZAPŁATY:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 12}),
		),
		col.New(3).Add(
			value(formatAmount(offer.Net)+cur, 1),
			value(formatAmount(offer.Tax)+cur, 6),
			text.New(formatAmount(offer.Gross)+cur, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 12}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatAmount formato polaco: espacio de miles y coma decimal.
// Ej: 1214.99 → "1 214,99", -5 → "-5,00"
func formatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	n := len(intPart)
	buf := make([]byte, 0, n+n/3+4)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, c)
	}
	out := string(buf) + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}
