package service

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/medbill/internal/config"
	"github.com/smallbiznis/medbill/internal/lineitem/aggregate"
	"github.com/smallbiznis/medbill/internal/lineitem/calculator"
	"github.com/smallbiznis/medbill/internal/lineitem/domain"
	"github.com/smallbiznis/medbill/internal/lineitem/resolver"
	"github.com/smallbiznis/medbill/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Params struct {
	fx.In

	Config   config.Config
	Log      *zap.Logger
	Resolver *resolver.Resolver
	Metrics  *metrics.Pricing `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	resolver *resolver.Resolver
	metrics  *metrics.Pricing
	cfg      config.PricingConfig
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("lineitem.service"),
		resolver: p.Resolver,
		metrics:  p.Metrics,
		cfg:      p.Config.Pricing,
	}
}

func (s *Service) ResolveLine(ctx context.Context, item domain.LineItem, scope domain.Scope) domain.LineItem {
	return s.resolver.ResolveLine(ctx, item, scope)
}

func (s *Service) RecalculateLine(item domain.LineItem, tax *domain.TaxContext) domain.LineItem {
	return calculator.Recalculate(item, s.withCompanyState(tax))
}

func (s *Service) RecalculateDocument(items []domain.LineItem) decimal.Decimal {
	return aggregate.Total(items)
}

// Price resolves lines concurrently, then calculates every line and totals
// the document once all resolutions have settled. Lookup failures never fail
// the call; they are reported in PricedDocument.Unresolved.
func (s *Service) Price(ctx context.Context, req domain.PriceRequest) (*domain.PricedDocument, error) {
	var items []domain.LineItem
	for _, item := range req.Items {
		items = aggregate.Append(items, item)
	}

	var unresolved []domain.UnresolvedLine
	if req.Resolve && needsCatalog(items) {
		if strings.TrimSpace(req.Scope.HospitalID) == "" {
			return nil, domain.ErrInvalidHospital
		}
		var err error
		items, unresolved, err = s.resolveAll(ctx, items, req.Scope)
		if err != nil {
			return nil, err
		}
	}

	tax := s.withCompanyState(req.Tax)
	for i := range items {
		items[i] = calculator.Recalculate(items[i], tax)
	}

	s.metrics.RecordDocument(len(items))
	return &domain.PricedDocument{
		Items:       items,
		TotalAmount: aggregate.Total(items),
		Unresolved:  unresolved,
	}, nil
}

func (s *Service) resolveAll(ctx context.Context, items []domain.LineItem, scope domain.Scope) ([]domain.LineItem, []domain.UnresolvedLine, error) {
	if s.cfg.ResolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ResolveTimeout)
		defer cancel()
	}

	out := make([]domain.LineItem, len(items))
	copy(out, items)

	var (
		mu         sync.Mutex
		unresolved []domain.UnresolvedLine
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.ResolveConcurrency, 1))
	for i := range out {
		if strings.TrimSpace(out[i].MaterialNumber) == "" {
			continue
		}
		g.Go(func() error {
			item := out[i]
			result, err := s.resolver.Resolve(gctx, item.MaterialNumber, scope)
			switch {
			case err == nil:
				out[i] = resolver.Merge(item, result)
				return nil
			case errors.Is(err, domain.ErrInvalidHospital):
				return err
			case errors.Is(err, domain.ErrCatalogUnavailable):
				// no answer from the catalog: price the line with the values it was submitted with
				out[i].MaterialNumber = domain.NormalizeMaterialNumber(item.MaterialNumber)
			default:
				out[i] = resolver.Unresolved(item)
			}

			mu.Lock()
			unresolved = append(unresolved, domain.UnresolvedLine{
				RowID:          item.RowID,
				SerialNumber:   item.SerialNumber,
				MaterialNumber: out[i].MaterialNumber,
				Reason:         reason(err),
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	slices.SortFunc(unresolved, func(a, b domain.UnresolvedLine) int {
		return cmp.Compare(a.SerialNumber, b.SerialNumber)
	})
	return out, unresolved, nil
}

func (s *Service) withCompanyState(tax *domain.TaxContext) *domain.TaxContext {
	if tax == nil {
		return nil
	}
	out := *tax
	if strings.TrimSpace(out.CompanyStateCode) == "" {
		out.CompanyStateCode = s.cfg.CompanyStateCode
	}
	return &out
}

func needsCatalog(items []domain.LineItem) bool {
	for _, item := range items {
		if strings.TrimSpace(item.MaterialNumber) != "" {
			return true
		}
	}
	return false
}

func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrCatalogUnavailable):
		return domain.ErrCatalogUnavailable.Error()
	case errors.Is(err, domain.ErrAmbiguousMatch):
		return domain.ErrAmbiguousMatch.Error()
	default:
		return domain.ErrResolutionNotFound.Error()
	}
}
