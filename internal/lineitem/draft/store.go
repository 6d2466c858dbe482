package draft

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/smallbiznis/medbill/internal/cache"
	"github.com/smallbiznis/medbill/internal/clock"
	"github.com/smallbiznis/medbill/internal/config"
	"github.com/smallbiznis/medbill/internal/lineitem/aggregate"
	"github.com/smallbiznis/medbill/internal/lineitem/domain"
	"github.com/smallbiznis/medbill/internal/lineitem/resolver"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type StoreParams struct {
	fx.In

	Config   config.Config
	Resolver *resolver.Resolver
	Clock    clock.Clock
	Log      *zap.Logger
}

// Store keeps open drafts by id. A draft expires once it has gone unused for
// the configured TTL.
type Store struct {
	resolver     Resolver
	drafts       *cache.TTLCache[string, *Draft]
	ttl          time.Duration
	companyState string
	log          *zap.Logger
}

func NewStore(p StoreParams) *Store {
	return newStore(p.Resolver, p.Clock, p.Config.Pricing, p.Log)
}

func newStore(r Resolver, c clock.Clock, cfg config.PricingConfig, log *zap.Logger) *Store {
	return &Store{
		resolver:     r,
		drafts:       cache.NewTTLCache[string, *Draft](c),
		ttl:          cfg.DraftTTL,
		companyState: cfg.CompanyStateCode,
		log:          log.Named("lineitem.draft"),
	}
}

// OpenRequest seeds a draft. Lines carrying a material number are resolved as
// they are added; an unknown number leaves the line MANUAL.
type OpenRequest struct {
	Scope             domain.Scope
	CustomerStateCode string
	Items             []domain.LineItem
}

// Open starts a draft and returns its id.
func (s *Store) Open(ctx context.Context, req OpenRequest) (string, *Draft, error) {
	scope := req.Scope
	scope.HospitalID = strings.TrimSpace(scope.HospitalID)
	if scope.HospitalID == "" {
		return "", nil, domain.ErrInvalidHospital
	}

	var tax *domain.TaxContext
	if code := strings.ToUpper(strings.TrimSpace(req.CustomerStateCode)); code != "" {
		tax = &domain.TaxContext{CustomerStateCode: code, CompanyStateCode: s.companyState}
	}

	d := New(s.resolver, scope, tax)
	for _, item := range req.Items {
		number := item.MaterialNumber
		item.MaterialNumber = ""
		row, err := d.AddRow(item)
		if err != nil {
			return "", nil, err
		}
		if number == "" {
			continue
		}
		if _, err := d.SetMaterialNumber(ctx, row.RowID, number); err != nil && !resolutionMiss(err) {
			return "", nil, err
		}
	}

	if purged := s.drafts.Purge(); purged > 0 {
		s.log.Debug("expired drafts dropped", zap.Int("count", purged))
	}
	id := aggregate.NewRowID()
	s.drafts.Set(id, d, s.ttl)
	return id, d, nil
}

// Get returns an open draft and extends its lifetime.
func (s *Store) Get(id string) (*Draft, error) {
	d, ok := s.drafts.Get(id)
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	s.drafts.Set(id, d, s.ttl)
	return d, nil
}

// Close discards a draft.
func (s *Store) Close(id string) error {
	if _, ok := s.drafts.Get(id); !ok {
		return domain.ErrDraftNotFound
	}
	s.drafts.Delete(id)
	return nil
}

// resolutionMiss reports lookup failures that leave a line MANUAL instead of
// failing the request.
func resolutionMiss(err error) bool {
	return errors.Is(err, domain.ErrResolutionNotFound) ||
		errors.Is(err, domain.ErrAmbiguousMatch) ||
		errors.Is(err, domain.ErrCatalogUnavailable)
}
