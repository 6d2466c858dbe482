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
	HospitalID        string                     `json:"hospital_id" validate:"required"`
	Name              string                     `json:"name" validate:"required,max=200"`
	SurgeryType       string                     `json:"surgery_type" validate:"max=200"`
	CustomerStateCode string                     `json:"customer_state_code" validate:"required,max=8"`
	Currency          string                     `json:"currency" validate:"omitempty,len=3"`
	Items             []lineitemdomain.LineInput `json:"items" validate:"dive"`
}

type UpdateRequest struct {
	Name              *string                     `json:"name" validate:"omitempty,max=200"`
	SurgeryType       *string                     `json:"surgery_type"`
	CustomerStateCode *string                     `json:"customer_state_code" validate:"omitempty,max=8"`
	Items             *[]lineitemdomain.LineInput `json:"items" validate:"omitempty,dive"`
}

type ListRequest struct {
	HospitalID string
	pagination.Pagination
}

type Response struct {
	ID                  string                          `json:"id"`
	HospitalID          string                          `json:"hospital_id"`
	Name                string                          `json:"name"`
	SurgeryType         string                          `json:"surgery_type,omitempty"`
	CustomerStateCode   string                          `json:"customer_state_code"`
	CompanyStateCode    string                          `json:"company_state_code"`
	Currency            string                          `json:"currency"`
	Items               []lineitemdomain.LineItem       `json:"items"`
	TotalTemplateAmount decimal.Decimal                 `json:"total_template_amount"`
	Unresolved          []lineitemdomain.UnresolvedLine `json:"unresolved,omitempty"`
	CreatedAt           time.Time                       `json:"created_at"`
	UpdatedAt           time.Time                       `json:"updated_at"`
}

type ListResponse struct {
	Items    []Response          `json:"items"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidStateCode = errors.New("invalid_customer_state_code")
	ErrNotFound         = errors.New("not_found")
)
