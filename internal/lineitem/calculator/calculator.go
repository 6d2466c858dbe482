// Package calculator derives line amounts from rate, quantity, GST and discount.
//
// Every monetary output is rounded to two places with decimal.Round, which
// rounds half away from zero (round-half-up for non-negative amounts).
package calculator

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/medbill/internal/lineitem/domain"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.RequireFromString("0.5")
)

// Input is the numeric state a line's amounts are derived from.
type Input struct {
	UnitRate           decimal.Decimal
	Quantity           decimal.Decimal
	GSTPercentage      decimal.Decimal
	DiscountPercentage decimal.Decimal
	DiscountAmount     decimal.Decimal
}

// InputOf extracts the calculator input of item.
func InputOf(item domain.LineItem) Input {
	return Input{
		UnitRate:           item.UnitRate,
		Quantity:           item.Quantity,
		GSTPercentage:      item.GSTPercentage,
		DiscountPercentage: item.DiscountPercentage,
		DiscountAmount:     item.DiscountAmount,
	}
}

// Round2 rounds d to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Calculate derives the amounts of one line. Quantity and totals are not
// clamped: a zero or negative quantity or an over-sized discount flows through.
func Calculate(in Input) domain.Amounts {
	base := in.UnitRate.Mul(in.Quantity)
	gst := Round2(base.Mul(in.GSTPercentage).Div(hundred))

	discount := Round2(in.DiscountAmount)
	if !in.DiscountAmount.IsPositive() {
		discount = Round2(base.Mul(in.DiscountPercentage).Div(hundred))
	}

	return domain.Amounts{
		BaseAmount:     Round2(base),
		GSTAmount:      gst,
		DiscountAmount: discount,
		TotalAmount:    Round2(base.Add(gst).Sub(discount)),
	}
}

// Split divides a GST amount into its central and state or integrated parts.
// CGST is always half. The other half is SGST when both parties share a state
// code and IGST otherwise.
func Split(gstAmount decimal.Decimal, customerStateCode, companyStateCode string) domain.TaxSplit {
	portion := Round2(gstAmount.Mul(half))
	split := domain.TaxSplit{
		CGSTAmount: portion,
		SGSTAmount: decimal.Zero,
		IGSTAmount: decimal.Zero,
	}
	if sameState(customerStateCode, companyStateCode) {
		split.SGSTAmount = portion
	} else {
		split.IGSTAmount = portion
	}
	return split
}

func sameState(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Recalculate returns item with its amounts, and the tax split when tax is
// non-nil, recomputed from its current inputs.
func Recalculate(item domain.LineItem, tax *domain.TaxContext) domain.LineItem {
	item.Amounts = Calculate(InputOf(item))
	if tax != nil {
		split := Split(item.Amounts.GSTAmount, tax.CustomerStateCode, tax.CompanyStateCode)
		item.Split = &split
	} else {
		item.Split = nil
	}
	if strings.TrimSpace(item.Currency) == "" {
		item.Currency = domain.DefaultCurrency
	}
	return item
}
