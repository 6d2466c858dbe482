package domain

import (
	"time"

	"github.com/shopspring/decimal"
	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
)

// Inquiry is a price quotation requested for one hospital.
type Inquiry struct {
	ID                 int64                                        `json:"id" gorm:"primaryKey"`
	InquiryNumber      string                                       `json:"inquiry_number" gorm:"type:text;not null;uniqueIndex:ux_inquiries_number"`
	HospitalID         string                                       `json:"hospital_id" gorm:"type:text;not null;index:ix_inquiries_hospital"`
	PatientName        string                                       `json:"patient_name" gorm:"type:text"`
	SurgeonName        string                                       `json:"surgeon_name" gorm:"type:text"`
	SurgeryDate        *time.Time                                   `json:"surgery_date,omitempty"`
	Notes              string                                       `json:"notes" gorm:"type:text"`
	Status             Status                                       `json:"status" gorm:"type:text;not null;default:'DRAFT'"`
	Currency           string                                       `json:"currency" gorm:"type:text;not null;default:'INR'"`
	Items              datatypes.JSONSlice[lineitemdomain.LineItem] `json:"items" gorm:"type:jsonb"`
	TotalInquiryAmount decimal.Decimal                              `json:"total_inquiry_amount" gorm:"type:numeric(14,2);not null;default:0"`
	CreatedAt          time.Time                                    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time                                    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Inquiry) TableName() string { return "inquiries" }
