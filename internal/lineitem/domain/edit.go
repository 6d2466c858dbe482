package domain

import "github.com/shopspring/decimal"

// Edit carries a partial update of a line. Nil fields are left unchanged.
type Edit struct {
	Description        *string
	HSNCode            *string
	Unit               *string
	GSTPercentage      *decimal.Decimal
	UnitRate           *decimal.Decimal
	Quantity           *decimal.Decimal
	DiscountPercentage *decimal.Decimal
	DiscountAmount     *decimal.Decimal
	Currency           *string
}

// TouchesLocked reports whether the edit targets any catalog-derived field.
func (e Edit) TouchesLocked() bool {
	return e.Description != nil || e.HSNCode != nil || e.Unit != nil ||
		e.GSTPercentage != nil || e.UnitRate != nil
}

// ApplyEdit returns item with edit applied. Catalog-derived fields of a MASTER
// line are ignored. A positive discount percentage clears the flat discount and
// vice versa; when both arrive positive in one edit the flat amount wins.
func ApplyEdit(item LineItem, edit Edit) LineItem {
	if !item.IsFromMaster() {
		if edit.Description != nil {
			item.Description = *edit.Description
		}
		if edit.HSNCode != nil {
			item.HSNCode = *edit.HSNCode
		}
		if edit.Unit != nil {
			item.Unit = *edit.Unit
		}
		if edit.GSTPercentage != nil {
			item.GSTPercentage = *edit.GSTPercentage
		}
		if edit.UnitRate != nil {
			item.UnitRate = *edit.UnitRate
		}
	}

	if edit.Quantity != nil {
		item.Quantity = *edit.Quantity
	}
	if edit.Currency != nil {
		item.Currency = *edit.Currency
	}

	if edit.DiscountPercentage != nil {
		item.DiscountPercentage = *edit.DiscountPercentage
		if item.DiscountPercentage.IsPositive() {
			item.DiscountAmount = decimal.Zero
		}
	}
	if edit.DiscountAmount != nil {
		item.DiscountAmount = *edit.DiscountAmount
		if item.DiscountAmount.IsPositive() {
			item.DiscountPercentage = decimal.Zero
		}
	}

	return item
}

// ApplyMaster locks item to the catalog values in fields.
func ApplyMaster(item LineItem, materialNumber string, fields MasterFields) LineItem {
	item.MaterialNumber = NormalizeMaterialNumber(materialNumber)
	item.MasterFields = fields
	item.Source = SourceMaster
	return item
}

// ClearMaster empties the catalog-derived fields and unlocks the line.
func ClearMaster(item LineItem) LineItem {
	item.MaterialNumber = ""
	item.MasterFields = MasterFields{}
	item.Source = SourceManual
	return item
}
