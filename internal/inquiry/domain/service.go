package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
	"github.com/smallbiznis/medbill/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type CreateRequest struct {
	HospitalID  string                     `json:"hospital_id" validate:"required"`
	PatientName string                     `json:"patient_name" validate:"max=200"`
	SurgeonName string                     `json:"surgeon_name" validate:"max=200"`
	SurgeryDate *time.Time                 `json:"surgery_date"`
	Notes       string                     `json:"notes"`
	Currency    string                     `json:"currency" validate:"omitempty,len=3"`
	Items       []lineitemdomain.LineInput `json:"items" validate:"dive"`
}

// UpdateRequest replaces the editable fields. Items, when present, replace
// the whole line list.
type UpdateRequest struct {
	PatientName *string                     `json:"patient_name"`
	SurgeonName *string                     `json:"surgeon_name"`
	SurgeryDate *time.Time                  `json:"surgery_date"`
	Notes       *string                     `json:"notes"`
	Status      *Status                     `json:"status" validate:"omitempty,oneof=DRAFT SUBMITTED"`
	Items       *[]lineitemdomain.LineInput `json:"items" validate:"omitempty,dive"`
}

type ListRequest struct {
	HospitalID string
	Status     string
	pagination.Pagination
}

type Response struct {
	ID                 string                          `json:"id"`
	InquiryNumber      string                          `json:"inquiry_number"`
	HospitalID         string                          `json:"hospital_id"`
	PatientName        string                          `json:"patient_name,omitempty"`
	SurgeonName        string                          `json:"surgeon_name,omitempty"`
	SurgeryDate        *time.Time                      `json:"surgery_date,omitempty"`
	Notes              string                          `json:"notes,omitempty"`
	Status             Status                          `json:"status"`
	Currency           string                          `json:"currency"`
	Items              []lineitemdomain.LineItem       `json:"items"`
	TotalInquiryAmount decimal.Decimal                 `json:"total_inquiry_amount"`
	Unresolved         []lineitemdomain.UnresolvedLine `json:"unresolved,omitempty"`
	CreatedAt          time.Time                       `json:"created_at"`
	UpdatedAt          time.Time                       `json:"updated_at"`
}

type ListResponse struct {
	Items    []Response          `json:"items"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

var (
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidStatus = errors.New("invalid_status")
	ErrNotFound      = errors.New("not_found")
)
