package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Service runs the resolve, merge, calculate and aggregate pipeline.
type Service interface {
	ResolveLine(ctx context.Context, item LineItem, scope Scope) LineItem
	RecalculateLine(item LineItem, tax *TaxContext) LineItem
	RecalculateDocument(items []LineItem) decimal.Decimal
	Price(ctx context.Context, req PriceRequest) (*PricedDocument, error)
}

// PriceRequest prices a whole document. When Resolve is set, every line with
// a material number is looked up in the catalog before calculation.
type PriceRequest struct {
	Scope   Scope
	Tax     *TaxContext
	Items   []LineItem
	Resolve bool
}

// UnresolvedLine reports a material number the catalog could not match.
type UnresolvedLine struct {
	RowID          string `json:"row_id"`
	SerialNumber   int    `json:"serial_number"`
	MaterialNumber string `json:"material_number"`
	Reason         string `json:"reason"`
}

type PricedDocument struct {
	Items       []LineItem       `json:"items"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Unresolved  []UnresolvedLine `json:"unresolved,omitempty"`
}
