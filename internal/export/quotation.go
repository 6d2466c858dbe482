// Package export renders priced documents as Excel quotation sheets.
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
	"github.com/xuri/excelize/v2"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Quotation is the printable view of an inquiry or template.
type Quotation struct {
	Title      string
	Reference  string
	HospitalID string
	Currency   string
	Date       time.Time
	Items      []lineitemdomain.LineItem
	Total      decimal.Decimal
	// WithSplit adds CGST, SGST and IGST columns.
	WithSplit  bool
	Letterhead Letterhead
}

// Letterhead identifies the issuing company and carries the printed terms.
type Letterhead struct {
	CompanyName string
	GSTIN       string
	Address     string
	Terms       []string
}

func (l Letterhead) issuer() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.CompanyName, l.Address} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if gstin := strings.TrimSpace(l.GSTIN); gstin != "" {
		parts = append(parts, "GSTIN: "+gstin)
	}
	return strings.Join(parts, " | ")
}

// FileName returns an ASCII file name for q.
func FileName(q Quotation) string {
	name := slug.Make(strings.TrimSpace(q.Title + " " + q.Reference))
	if name == "" {
		name = "quotation"
	}
	return name + ".xlsx"
}

type column struct {
	header string
	width  float64
	value  func(lineitemdomain.LineItem) any
}

func columns(withSplit bool) []column {
	cols := []column{
		{"#", 5, func(l lineitemdomain.LineItem) any { return l.SerialNumber }},
		{"Material No", 16, func(l lineitemdomain.LineItem) any { return sanitizeCell(l.MaterialNumber) }},
		{"Description", 40, func(l lineitemdomain.LineItem) any { return sanitizeCell(l.Description) }},
		{"HSN", 10, func(l lineitemdomain.LineItem) any { return sanitizeCell(l.HSNCode) }},
		{"Unit", 8, func(l lineitemdomain.LineItem) any { return sanitizeCell(l.Unit) }},
		{"Qty", 8, func(l lineitemdomain.LineItem) any { return l.Quantity.InexactFloat64() }},
		{"Rate", 14, func(l lineitemdomain.LineItem) any { return l.UnitRate.InexactFloat64() }},
		{"GST%", 7, func(l lineitemdomain.LineItem) any { return l.GSTPercentage.InexactFloat64() }},
		{"GST Amount", 14, func(l lineitemdomain.LineItem) any { return l.Amounts.GSTAmount.InexactFloat64() }},
		{"Discount", 12, func(l lineitemdomain.LineItem) any { return l.Amounts.DiscountAmount.InexactFloat64() }},
	}
	if withSplit {
		cols = append(cols,
			column{"CGST", 12, func(l lineitemdomain.LineItem) any {
				return splitValue(l, func(s lineitemdomain.TaxSplit) decimal.Decimal { return s.CGSTAmount })
			}},
			column{"SGST", 12, func(l lineitemdomain.LineItem) any {
				return splitValue(l, func(s lineitemdomain.TaxSplit) decimal.Decimal { return s.SGSTAmount })
			}},
			column{"IGST", 12, func(l lineitemdomain.LineItem) any {
				return splitValue(l, func(s lineitemdomain.TaxSplit) decimal.Decimal { return s.IGSTAmount })
			}},
		)
	}
	return append(cols, column{"Total", 16, func(l lineitemdomain.LineItem) any { return l.Amounts.TotalAmount.InexactFloat64() }})
}

func splitValue(l lineitemdomain.LineItem, pick func(lineitemdomain.TaxSplit) decimal.Decimal) float64 {
	if l.Split == nil {
		return 0
	}
	return pick(*l.Split).InexactFloat64()
}

// Render writes q as an xlsx workbook.
func Render(q Quotation) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := q.Title
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if strings.TrimSpace(sheet) == "" {
		sheet = "Quotation"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	cols := columns(q.WithSplit)
	lastCol, err := excelize.ColumnNumberToName(len(cols))
	if err != nil {
		return nil, err
	}
	for i, c := range cols {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, name, name, c.width); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", name, err)
		}
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1F4E79"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	moneyFormat := "#,##0.00"
	rowStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders(), CustomNumFmt: &moneyFormat})
	if err != nil {
		return nil, fmt.Errorf("create row style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}, CustomNumFmt: &moneyFormat})
	if err != nil {
		return nil, fmt.Errorf("create total style: %w", err)
	}

	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheet, "A1", sanitizeCell(q.Title))
	f.SetCellStyle(sheet, "A1", lastCol+"1", titleStyle)
	f.SetCellValue(sheet, "A2", "Ref: "+sanitizeCell(q.Reference))
	f.SetCellValue(sheet, "A3", "Hospital: "+sanitizeCell(q.HospitalID))
	date := q.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	f.SetCellValue(sheet, "A4", "Date: "+date.Format("02 Jan 2006"))
	if issuer := q.Letterhead.issuer(); issuer != "" {
		f.SetCellValue(sheet, "A5", sanitizeCell(issuer))
	}

	const headerRow = 6
	for i, c := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(sheet, cell, c.header)
	}
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("%s%d", lastCol, headerRow), headerStyle)

	row := headerRow + 1
	for _, item := range q.Items {
		for i, c := range cols {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheet, cell, c.value(item))
		}
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), rowStyle)
		row++
	}

	row++
	labelCell, _ := excelize.CoordinatesToCellName(len(cols)-1, row)
	totalCell, _ := excelize.CoordinatesToCellName(len(cols), row)
	currency := q.Currency
	if currency == "" {
		currency = lineitemdomain.DefaultCurrency
	}
	f.SetCellValue(sheet, labelCell, "Total ("+currency+"):")
	f.SetCellValue(sheet, totalCell, q.Total.InexactFloat64())
	f.SetCellStyle(sheet, labelCell, totalCell, totalStyle)

	if len(q.Letterhead.Terms) > 0 {
		row += 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Terms:")
		for i, term := range q.Letterhead.Terms {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row+i+1), fmt.Sprintf("%d. %s", i+1, sanitizeCell(term)))
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// sanitizeCell stops spreadsheet apps from evaluating user text as a formula.
func sanitizeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
