package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
)

const PDFContentType = "application/pdf"

// PDFFileName is FileName with a .pdf extension.
func PDFFileName(q Quotation) string {
	return strings.TrimSuffix(FileName(q), ".xlsx") + ".pdf"
}

// RenderPDF writes q as a printable PDF quotation.
func RenderPDF(q Quotation) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	title := strings.TrimSpace(q.Title)
	if title == "" {
		title = "Quotation"
	}
	m.AddRow(12,
		text.NewCol(12, title, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	date := q.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	m.AddRow(18,
		col.New(6).Add(
			text.New("Ref: "+q.Reference, props.Text{Top: 0}),
			text.New("Hospital: "+q.HospitalID, props.Text{Top: 4}),
			text.New("Date: "+date.Format("02 Jan 2006"), props.Text{Top: 8}),
		),
		col.New(6).Add(
			text.New(q.Letterhead.CompanyName, props.Text{Style: fontstyle.Bold, Align: align.Right}),
			text.New(q.Letterhead.Address, props.Text{Top: 4, Size: 8, Align: align.Right}),
			text.New(gstinLine(q.Letterhead.GSTIN), props.Text{Top: 8, Size: 8, Align: align.Right}),
		),
	)

	header := props.Text{Style: fontstyle.Bold, Size: 9}
	headerRight := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}
	m.AddRow(8,
		text.NewCol(1, "#", header),
		text.NewCol(4, "Description", header),
		text.NewCol(1, "Qty", headerRight),
		text.NewCol(2, "Rate", headerRight),
		text.NewCol(2, "GST", headerRight),
		text.NewCol(2, "Total", headerRight),
	)

	cell := props.Text{Size: 9}
	cellRight := props.Text{Size: 9, Align: align.Right}
	for _, item := range q.Items {
		description := item.Description
		if item.MaterialNumber != "" {
			description = item.MaterialNumber + " - " + description
		}
		m.AddRow(8,
			text.NewCol(1, fmt.Sprintf("%d", item.SerialNumber), cell),
			text.NewCol(4, description, cell),
			text.NewCol(1, item.Quantity.String(), cellRight),
			text.NewCol(2, money(item.UnitRate), cellRight),
			text.NewCol(2, money(item.Amounts.GSTAmount), cellRight),
			text.NewCol(2, money(item.Amounts.TotalAmount), cellRight),
		)
	}

	if q.WithSplit {
		split := splitTotals(q.Items)
		for _, line := range []struct {
			label  string
			amount decimal.Decimal
		}{
			{"CGST", split.CGSTAmount},
			{"SGST", split.SGSTAmount},
			{"IGST", split.IGSTAmount},
		} {
			m.AddRow(6,
				col.New(8),
				text.NewCol(2, line.label, cell),
				text.NewCol(2, money(line.amount), cellRight),
			)
		}
	}

	currency := q.Currency
	if currency == "" {
		currency = lineitemdomain.DefaultCurrency
	}
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total ("+currency+")", props.Text{Style: fontstyle.Bold, Size: 10, Top: 2}),
		text.NewCol(2, money(q.Total), props.Text{Style: fontstyle.Bold, Size: 10, Top: 2, Align: align.Right}),
	)

	for i, term := range q.Letterhead.Terms {
		m.AddRow(5, text.NewCol(12, fmt.Sprintf("%d. %s", i+1, term), props.Text{Size: 8}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func gstinLine(gstin string) string {
	if strings.TrimSpace(gstin) == "" {
		return ""
	}
	return "GSTIN: " + gstin
}

func splitTotals(items []lineitemdomain.LineItem) lineitemdomain.TaxSplit {
	var out lineitemdomain.TaxSplit
	for _, item := range items {
		if item.Split == nil {
			continue
		}
		out.CGSTAmount = out.CGSTAmount.Add(item.Split.CGSTAmount)
		out.SGSTAmount = out.SGSTAmount.Add(item.Split.SGSTAmount)
		out.IGSTAmount = out.IGSTAmount.Add(item.Split.IGSTAmount)
	}
	return out
}
