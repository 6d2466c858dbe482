// Package resolver translates material numbers into catalog-derived line fields.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/medbill/internal/lineitem/domain"
	"github.com/smallbiznis/medbill/internal/observability/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("medbill/lineitem.resolver")

// Catalog looks up one material available to a hospital. Implementations return
// domain.ErrResolutionNotFound or domain.ErrAmbiguousMatch for the respective
// cases; any other error is treated as the catalog being unavailable.
type Catalog interface {
	Lookup(ctx context.Context, scope domain.Scope, materialNumber string) (domain.MasterFields, error)
}

// Result is the outcome of a successful resolution.
type Result struct {
	MaterialNumber string
	Fields         domain.MasterFields
	Source         domain.Source
}

// Found reports whether the result carries catalog fields.
func (r Result) Found() bool {
	return r.Source == domain.SourceMaster
}

type Params struct {
	fx.In

	Catalog Catalog
	Log     *zap.Logger
	Metrics *metrics.Pricing `optional:"true"`
}

type Resolver struct {
	catalog Catalog
	log     *zap.Logger
	metrics *metrics.Pricing
}

func New(p Params) *Resolver {
	return &Resolver{
		catalog: p.Catalog,
		log:     p.Log.Named("lineitem.resolver"),
		metrics: p.Metrics,
	}
}

// Resolve normalizes materialNumber and looks it up within scope.
//
// An empty number resolves to a cleared MANUAL result. A catalog failure is
// logged and reported as not found, wrapped with domain.ErrCatalogUnavailable.
func (r *Resolver) Resolve(ctx context.Context, materialNumber string, scope domain.Scope) (Result, error) {
	number := domain.NormalizeMaterialNumber(materialNumber)
	ctx, span := tracer.Start(ctx, "lineitem.resolve", trace.WithAttributes(
		attribute.String("hospital_id", scope.HospitalID),
		attribute.String("material_number", number),
	))
	defer span.End()

	result, err := r.resolve(ctx, number, scope)
	span.SetAttributes(attribute.String("resolution.source", string(result.Source)))
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrCatalogUnavailable) {
			span.SetStatus(codes.Error, "catalog unavailable")
		}
	}
	return result, err
}

func (r *Resolver) resolve(ctx context.Context, number string, scope domain.Scope) (Result, error) {
	if number == "" {
		r.metrics.RecordResolution(metrics.OutcomeCleared, 0)
		return Result{Source: domain.SourceManual}, nil
	}
	if strings.TrimSpace(scope.HospitalID) == "" {
		return Result{}, domain.ErrInvalidHospital
	}

	started := time.Now()
	fields, err := r.catalog.Lookup(ctx, scope, number)
	elapsed := time.Since(started)

	switch {
	case err == nil:
		r.metrics.RecordResolution(metrics.OutcomeFound, elapsed)
		return Result{MaterialNumber: number, Fields: fields, Source: domain.SourceMaster}, nil
	case errors.Is(err, domain.ErrResolutionNotFound):
		r.metrics.RecordResolution(metrics.OutcomeNotFound, elapsed)
		return Result{}, domain.ErrResolutionNotFound
	case errors.Is(err, domain.ErrAmbiguousMatch):
		r.metrics.RecordResolution(metrics.OutcomeAmbiguous, elapsed)
		r.log.Warn("ambiguous material number",
			zap.String("hospital_id", scope.HospitalID),
			zap.String("material_number", number),
		)
		return Result{}, domain.ErrAmbiguousMatch
	default:
		r.metrics.RecordResolution(metrics.OutcomeUnavailable, elapsed)
		r.log.Warn("catalog lookup failed, falling back to manual entry",
			zap.String("hospital_id", scope.HospitalID),
			zap.String("material_number", number),
			zap.Error(err),
		)
		return Result{}, fmt.Errorf("%w: %w", domain.ErrResolutionNotFound, domain.ErrCatalogUnavailable)
	}
}

// ResolveLine resolves item's material number and merges the result.
// Unresolved numbers keep whatever the user typed and unlock the line.
func (r *Resolver) ResolveLine(ctx context.Context, item domain.LineItem, scope domain.Scope) domain.LineItem {
	result, err := r.Resolve(ctx, item.MaterialNumber, scope)
	if err != nil {
		return Unresolved(item)
	}
	return Merge(item, result)
}

// Merge applies a successful result to item.
func Merge(item domain.LineItem, result Result) domain.LineItem {
	if !result.Found() {
		return domain.ClearMaster(item)
	}
	return domain.ApplyMaster(item, result.MaterialNumber, result.Fields)
}

// Unresolved keeps item's fields as entered and marks the line MANUAL.
func Unresolved(item domain.LineItem) domain.LineItem {
	item.MaterialNumber = domain.NormalizeMaterialNumber(item.MaterialNumber)
	item.Source = domain.SourceManual
	return item
}
