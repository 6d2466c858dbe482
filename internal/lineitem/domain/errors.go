package domain

import "errors"

var (
	// ErrResolutionNotFound means no catalog entry in scope matched.
	ErrResolutionNotFound = errors.New("resolution_not_found")
	// ErrAmbiguousMatch means more than one catalog entry matched one normalized number.
	ErrAmbiguousMatch = errors.New("ambiguous_match")
	// ErrCatalogUnavailable wraps transport or storage failures of the catalog.
	ErrCatalogUnavailable = errors.New("catalog_unavailable")
	// ErrStaleResolution marks a resolution superseded by a newer edit.
	ErrStaleResolution = errors.New("stale_resolution")

	ErrRowNotFound        = errors.New("row_not_found")
	ErrDuplicateRow       = errors.New("duplicate_row")
	ErrDraftNotFound      = errors.New("draft_not_found")
	ErrInvalidHospital    = errors.New("invalid_hospital")
	ErrInvalidQuantity    = errors.New("invalid_quantity")
	ErrInvalidGST         = errors.New("invalid_gst_percentage")
	ErrInvalidDiscount    = errors.New("invalid_discount")
	ErrInvalidRate        = errors.New("invalid_unit_rate")
	ErrMissingDescription = errors.New("invalid_material_description")
	ErrNegativeTotal      = errors.New("negative_total")
	ErrAmountOutOfRange   = errors.New("amount_out_of_range")
)
