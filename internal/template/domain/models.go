package domain

import (
	"time"

	"github.com/shopspring/decimal"
	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
	"gorm.io/datatypes"
)

// Template is a reusable surgery kit whose lines carry the GST split for
// the customer's state.
type Template struct {
	ID                  int64                                        `json:"id" gorm:"primaryKey"`
	HospitalID          string                                       `json:"hospital_id" gorm:"type:text;not null;index:ix_templates_hospital"`
	Name                string                                       `json:"name" gorm:"type:text;not null"`
	SurgeryType         string                                       `json:"surgery_type" gorm:"type:text"`
	CustomerStateCode   string                                       `json:"customer_state_code" gorm:"type:text;not null"`
	Currency            string                                       `json:"currency" gorm:"type:text;not null;default:'INR'"`
	Items               datatypes.JSONSlice[lineitemdomain.LineItem] `json:"items" gorm:"type:jsonb"`
	TotalTemplateAmount decimal.Decimal                              `json:"total_template_amount" gorm:"type:numeric(14,2);not null;default:0"`
	CreatedAt           time.Time                                    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time                                    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Template) TableName() string { return "surgery_templates" }
