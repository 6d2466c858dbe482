package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Material, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Material, error)
	Get(ctx context.Context, id string) (*Material, error)
	List(ctx context.Context, req ListRequest) ([]Material, error)
	Assign(ctx context.Context, hospitalID string, req AssignRequest) (*Assignment, error)

	LookupByNumber(ctx context.Context, hospitalID, materialNumber string) (*Record, error)
	Search(ctx context.Context, req SearchRequest) ([]Record, error)
	ListOptions(ctx context.Context, scope lineitemdomain.Scope, level Level) ([]string, error)
}

type CreateRequest struct {
	MaterialNumber     string          `json:"material_number" validate:"required,max=64"`
	Description        string          `json:"description" validate:"required"`
	HSNCode            string          `json:"hsn_code" validate:"omitempty,max=16"`
	Unit               string          `json:"unit"`
	GSTPercentage      decimal.Decimal `json:"gst_percentage" validate:"money"`
	MRP                decimal.Decimal `json:"mrp" validate:"money"`
	InstitutionalPrice decimal.Decimal `json:"institutional_price" validate:"money"`
	DistributionPrice  decimal.Decimal `json:"distribution_price" validate:"money"`
	Currency           string          `json:"currency" validate:"omitempty,len=3"`
	SurgicalCategory   string          `json:"surgical_category" validate:"required"`
	ImplantType        *string         `json:"implant_type"`
	SubCategory        *string         `json:"sub_category"`
	LengthMM           *string         `json:"length_mm"`
	Metadata           map[string]any  `json:"metadata"`
}

type UpdateRequest struct {
	Description        *string          `json:"description"`
	HSNCode            *string          `json:"hsn_code"`
	Unit               *string          `json:"unit"`
	GSTPercentage      *decimal.Decimal `json:"gst_percentage" validate:"omitempty,money"`
	MRP                *decimal.Decimal `json:"mrp" validate:"omitempty,money"`
	InstitutionalPrice *decimal.Decimal `json:"institutional_price" validate:"omitempty,money"`
	DistributionPrice  *decimal.Decimal `json:"distribution_price" validate:"omitempty,money"`
	Active             *bool            `json:"active"`
}

type ListRequest struct {
	SurgicalCategory string
	Active           *bool
	SortBy           string
	OrderBy          string
}

type AssignRequest struct {
	MaterialID         string              `json:"material_id" validate:"required"`
	InstitutionalPrice decimal.NullDecimal `json:"institutional_price" validate:"omitempty,money"`
	MRP                decimal.NullDecimal `json:"mrp" validate:"omitempty,money"`
	Active             *bool               `json:"active"`
}

// SearchRequest browses a hospital's assigned materials by classification.
type SearchRequest struct {
	Scope lineitemdomain.Scope
	Limit int
}

var (
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidMaterialNumber = errors.New("invalid_material_number")
	ErrInvalidDescription    = errors.New("invalid_description")
	ErrInvalidCategory       = errors.New("invalid_surgical_category")
	ErrInvalidGST            = errors.New("invalid_gst_percentage")
	ErrInvalidPrice          = errors.New("invalid_price")
	ErrInvalidLevel          = errors.New("invalid_level")
	ErrDuplicateMaterial     = errors.New("duplicate_material_number")
	ErrNotFound              = errors.New("not_found")
)
