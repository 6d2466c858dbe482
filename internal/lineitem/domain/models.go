// Package domain holds the line-item types shared by inquiries and templates.
package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency applies when a line does not carry one.
const DefaultCurrency = "INR"

// Source distinguishes catalog-derived lines from free-entered ones.
type Source string

const (
	SourceManual Source = "MANUAL"
	SourceMaster Source = "MASTER"
)

// MasterFields are populated from the catalog on MASTER lines and typed by the
// user on MANUAL lines.
type MasterFields struct {
	Description   string          `json:"material_description"`
	HSNCode       string          `json:"hsn_code"`
	Unit          string          `json:"unit"`
	GSTPercentage decimal.Decimal `json:"gst_percentage"`
	UnitRate      decimal.Decimal `json:"unit_rate"`
}

// IsZero reports whether no master field carries a value.
func (f MasterFields) IsZero() bool {
	return f.Description == "" && f.HSNCode == "" && f.Unit == "" &&
		f.GSTPercentage.IsZero() && f.UnitRate.IsZero()
}

// Amounts are the derived monetary values of a line.
type Amounts struct {
	BaseAmount     decimal.Decimal `json:"base_amount"`
	GSTAmount      decimal.Decimal `json:"gst_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// TaxSplit is the CGST/SGST/IGST breakdown of a line's GST amount.
type TaxSplit struct {
	CGSTAmount decimal.Decimal `json:"cgst_amount"`
	SGSTAmount decimal.Decimal `json:"sgst_amount"`
	IGSTAmount decimal.Decimal `json:"igst_amount"`
}

// LineItem is one row of an inquiry or template.
type LineItem struct {
	RowID          string `json:"row_id"`
	SerialNumber   int    `json:"serial_number"`
	MaterialNumber string `json:"material_number"`
	Source         Source `json:"source"`
	MasterFields

	Quantity           decimal.Decimal `json:"quantity"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	// DiscountAmount is the user-entered flat discount. The discount actually
	// applied is Amounts.DiscountAmount.
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Currency       string          `json:"currency"`

	Amounts Amounts   `json:"amounts"`
	Split   *TaxSplit `json:"split,omitempty"`
}

// IsFromMaster reports whether the catalog-derived fields are locked.
func (l LineItem) IsFromMaster() bool {
	return l.Source == SourceMaster
}

// NormalizeMaterialNumber trims and uppercases a material number for comparison.
func NormalizeMaterialNumber(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// Scope narrows catalog lookups to a hospital and optional classification.
type Scope struct {
	HospitalID       string `json:"hospital_id" form:"hospital_id"`
	SurgicalCategory string `json:"surgical_category,omitempty" form:"surgical_category"`
	ImplantType      string `json:"implant_type,omitempty" form:"implant_type"`
	SubCategory      string `json:"sub_category,omitempty" form:"sub_category"`
	LengthMM         string `json:"length_mm,omitempty" form:"length_mm"`
}

// TaxContext selects the GST split for template lines. A nil *TaxContext
// means no split is computed.
type TaxContext struct {
	CustomerStateCode string
	CompanyStateCode  string
}
