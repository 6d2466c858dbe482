package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
	"gorm.io/datatypes"
)

// Material is a master catalog row shared by every hospital.
type Material struct {
	ID                 int64             `json:"id" gorm:"primaryKey"`
	MaterialNumber     string            `json:"material_number" gorm:"type:text;not null;uniqueIndex:ux_materials_number"`
	Description        string            `json:"description" gorm:"type:text;not null"`
	HSNCode            string            `json:"hsn_code" gorm:"column:hsn_code;type:text"`
	Unit               string            `json:"unit" gorm:"type:text"`
	GSTPercentage      decimal.Decimal   `json:"gst_percentage" gorm:"column:gst_percentage;type:numeric(5,2);not null;default:0"`
	MRP                decimal.Decimal   `json:"mrp" gorm:"column:mrp;type:numeric(14,2);not null;default:0"`
	InstitutionalPrice decimal.Decimal   `json:"institutional_price" gorm:"type:numeric(14,2);not null;default:0"`
	DistributionPrice  decimal.Decimal   `json:"distribution_price" gorm:"type:numeric(14,2);not null;default:0"`
	Currency           string            `json:"currency" gorm:"type:text;not null;default:'INR'"`
	SurgicalCategory   string            `json:"surgical_category" gorm:"type:text;not null;index:ix_materials_cascade,priority:1"`
	ImplantType        *string           `json:"implant_type,omitempty" gorm:"type:text;index:ix_materials_cascade,priority:2"`
	SubCategory        *string           `json:"sub_category,omitempty" gorm:"type:text;index:ix_materials_cascade,priority:3"`
	LengthMM           *string           `json:"length_mm,omitempty" gorm:"column:length_mm;type:text"`
	Active             bool              `json:"active" gorm:"not null;default:true"`
	Metadata           datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt          time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Material) TableName() string { return "materials" }

// Assignment makes a material available to a hospital, optionally with
// hospital-specific prices.
type Assignment struct {
	ID                 int64               `json:"id" gorm:"primaryKey"`
	HospitalID         string              `json:"hospital_id" gorm:"type:text;not null;uniqueIndex:ux_hospital_materials,priority:1"`
	MaterialID         int64               `json:"material_id" gorm:"not null;uniqueIndex:ux_hospital_materials,priority:2"`
	InstitutionalPrice decimal.NullDecimal `json:"institutional_price" gorm:"type:numeric(14,2)"`
	MRP                decimal.NullDecimal `json:"mrp" gorm:"column:mrp;type:numeric(14,2)"`
	Active             bool                `json:"active" gorm:"not null;default:true"`
	CreatedAt          time.Time           `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time           `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Assignment) TableName() string { return "hospital_materials" }

// Record is a material as seen through one hospital's assignment.
type Record struct {
	MaterialID                 int64               `json:"material_id" gorm:"column:material_id"`
	HospitalID                 string              `json:"hospital_id"`
	MaterialNumber             string              `json:"material_number"`
	Description                string              `json:"description"`
	HSNCode                    string              `json:"hsn_code" gorm:"column:hsn_code"`
	Unit                       string              `json:"unit"`
	GSTPercentage              decimal.Decimal     `json:"gst_percentage" gorm:"column:gst_percentage"`
	MRP                        decimal.Decimal     `json:"mrp" gorm:"column:mrp"`
	InstitutionalPrice         decimal.Decimal     `json:"institutional_price"`
	DistributionPrice          decimal.Decimal     `json:"distribution_price"`
	OverrideInstitutionalPrice decimal.NullDecimal `json:"override_institutional_price"`
	OverrideMRP                decimal.NullDecimal `json:"override_mrp" gorm:"column:override_mrp"`
	Currency                   string              `json:"currency"`
	SurgicalCategory           string              `json:"surgical_category"`
	ImplantType                string              `json:"implant_type,omitempty"`
	SubCategory                string              `json:"sub_category,omitempty"`
	LengthMM                   string              `json:"length_mm,omitempty" gorm:"column:length_mm"`
}

// ScopedPrice is the unit rate billed to the record's hospital: the assigned
// institutional price, else the assigned MRP, else the master institutional price.
func (r Record) ScopedPrice() decimal.Decimal {
	if r.OverrideInstitutionalPrice.Valid {
		return r.OverrideInstitutionalPrice.Decimal
	}
	if r.OverrideMRP.Valid {
		return r.OverrideMRP.Decimal
	}
	return r.InstitutionalPrice
}

// MasterFields projects the record onto the fields a line item locks.
func (r Record) MasterFields() lineitemdomain.MasterFields {
	return lineitemdomain.MasterFields{
		Description:   r.Description,
		HSNCode:       r.HSNCode,
		Unit:          r.Unit,
		GSTPercentage: r.GSTPercentage,
		UnitRate:      r.ScopedPrice(),
	}
}

// Matches reports whether the record satisfies every classification filter set
// in scope. Empty filters match anything.
func (r Record) Matches(scope lineitemdomain.Scope) bool {
	return matchFilter(scope.SurgicalCategory, r.SurgicalCategory) &&
		matchFilter(scope.ImplantType, r.ImplantType) &&
		matchFilter(scope.SubCategory, r.SubCategory) &&
		matchFilter(scope.LengthMM, r.LengthMM)
}

func matchFilter(filter, value string) bool {
	filter = strings.TrimSpace(filter)
	return filter == "" || strings.EqualFold(filter, strings.TrimSpace(value))
}
