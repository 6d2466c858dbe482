package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// LineInput is a line as submitted by a client. Derived amounts are never
// accepted; they are recomputed on save.
type LineInput struct {
	RowID              string          `json:"row_id"`
	MaterialNumber     string          `json:"material_number" validate:"max=64"`
	Description        string          `json:"material_description"`
	HSNCode            string          `json:"hsn_code" validate:"max=16"`
	Unit               string          `json:"unit"`
	GSTPercentage      decimal.Decimal `json:"gst_percentage" validate:"money,gte=0,lte=100"`
	UnitRate           decimal.Decimal `json:"unit_rate" validate:"money,gte=0"`
	Quantity           decimal.Decimal `json:"quantity" validate:"money,gte=1"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" validate:"money,gte=0,lte=100"`
	DiscountAmount     decimal.Decimal `json:"discount_amount" validate:"money,gte=0"`
	Currency           string          `json:"currency" validate:"omitempty,len=3"`
}

// LineItem converts the input to a MANUAL line. Lines carrying a material
// number become MASTER once resolved.
func (in LineInput) LineItem() LineItem {
	item := LineItem{
		RowID:          strings.TrimSpace(in.RowID),
		MaterialNumber: NormalizeMaterialNumber(in.MaterialNumber),
		Source:         SourceManual,
		MasterFields: MasterFields{
			Description:   strings.TrimSpace(in.Description),
			HSNCode:       strings.TrimSpace(in.HSNCode),
			Unit:          strings.TrimSpace(in.Unit),
			GSTPercentage: in.GSTPercentage,
			UnitRate:      in.UnitRate,
		},
		Quantity:           in.Quantity,
		DiscountPercentage: in.DiscountPercentage,
		DiscountAmount:     in.DiscountAmount,
		Currency:           strings.ToUpper(strings.TrimSpace(in.Currency)),
	}
	if item.DiscountAmount.IsPositive() {
		item.DiscountPercentage = decimal.Zero
	}
	return item
}

// LineItems converts a slice of inputs.
func LineItems(inputs []LineInput) []LineItem {
	items := make([]LineItem, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, in.LineItem())
	}
	return items
}

// ValidatePriced checks priced lines before they are stored.
func ValidatePriced(items []LineItem, rejectNegativeTotal bool) error {
	for _, item := range items {
		if strings.TrimSpace(item.Description) == "" {
			return fmt.Errorf("line %d: %w", item.SerialNumber, ErrMissingDescription)
		}
		if item.Quantity.LessThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("line %d: %w", item.SerialNumber, ErrInvalidQuantity)
		}
		if item.GSTPercentage.IsNegative() || item.GSTPercentage.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("line %d: %w", item.SerialNumber, ErrInvalidGST)
		}
		if item.UnitRate.IsNegative() {
			return fmt.Errorf("line %d: %w", item.SerialNumber, ErrInvalidRate)
		}
		if rejectNegativeTotal && item.Amounts.TotalAmount.IsNegative() {
			return fmt.Errorf("line %d: %w", item.SerialNumber, ErrNegativeTotal)
		}
	}
	return nil
}
