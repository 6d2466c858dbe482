package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/medbill/internal/config"
	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
	"github.com/smallbiznis/medbill/internal/template/domain"
	"github.com/smallbiznis/medbill/pkg/db/option"
	"github.com/smallbiznis/medbill/pkg/db/pagination"
	"github.com/smallbiznis/medbill/pkg/repository"
	"github.com/smallbiznis/medbill/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Config   config.Config
	Repo     repository.Repository[domain.Template]
	Pricer   lineitemdomain.Service
	Validate *validator.Validate
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     repository.Repository[domain.Template]
	pricer   lineitemdomain.Service
	validate *validator.Validate
	pricing  config.PricingConfig
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("template.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		pricer:   p.Pricer,
		validate: p.Validate,
		pricing:  p.Config.Pricing,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}
	hospitalID := strings.TrimSpace(req.HospitalID)
	if hospitalID == "" {
		return nil, lineitemdomain.ErrInvalidHospital
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	state := strings.ToUpper(strings.TrimSpace(req.CustomerStateCode))
	if state == "" {
		return nil, domain.ErrInvalidStateCode
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.pricing.DefaultCurrency
	}

	priced, err := s.price(ctx, hospitalID, state, currency, req.Items)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entity := &domain.Template{
		ID:                  s.genID.Generate().Int64(),
		HospitalID:          hospitalID,
		Name:                name,
		SurgeryType:         strings.TrimSpace(req.SurgeryType),
		CustomerStateCode:   state,
		Currency:            currency,
		Items:               datatypes.NewJSONSlice(priced.Items),
		TotalTemplateAmount: priced.TotalAmount,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Create(ctx, entity); err != nil {
		return nil, err
	}
	return s.toResponse(entity, priced.Unresolved), nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	entity, err := s.find(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(entity, nil), nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	rows, err := s.repo.Find(ctx, &domain.Template{HospitalID: strings.TrimSpace(req.HospitalID)},
		option.WithSortBy(option.QuerySortBy{}),
		option.ApplyPagination(req.Pagination),
	)
	if err != nil {
		return nil, err
	}

	page, info := pagination.BuildCursorPageInfo(rows, req.Pagination.Limit(), func(t *domain.Template) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: strconv.FormatInt(t.ID, 10)})
		return token
	})

	out := &domain.ListResponse{Items: make([]domain.Response, 0, len(page)), PageInfo: info}
	for _, entity := range page {
		out.Items = append(out.Items, *s.toResponse(entity, nil))
	}
	return out, nil
}

// Update applies the request and reprices the lines when either the items or
// the customer state change, since the GST split depends on the state.
func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (*domain.Response, error) {
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	current, err := s.find(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	state := current.CustomerStateCode
	if req.CustomerStateCode != nil {
		state = strings.ToUpper(strings.TrimSpace(*req.CustomerStateCode))
		if state == "" {
			return nil, domain.ErrInvalidStateCode
		}
	}

	// Catalog lookups run on their own connections, so new lines are priced
	// before the transaction takes one.
	var priced *lineitemdomain.PricedDocument
	if req.Items != nil {
		priced, err = s.price(ctx, current.HospitalID, state, current.Currency, *req.Items)
		if err != nil {
			return nil, err
		}
	}

	var updated *domain.Template
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTrx(tx)
		entity, err := s.find(ctx, repo, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return domain.ErrInvalidName
			}
			entity.Name = name
		}
		if req.SurgeryType != nil {
			entity.SurgeryType = strings.TrimSpace(*req.SurgeryType)
		}

		stateChanged := state != entity.CustomerStateCode
		entity.CustomerStateCode = state

		if priced == nil && stateChanged {
			priced, err = s.recalculate(ctx, entity)
			if err != nil {
				return err
			}
		}
		if priced != nil {
			entity.Items = datatypes.NewJSONSlice(priced.Items)
			entity.TotalTemplateAmount = priced.TotalAmount
		}
		entity.UpdatedAt = time.Now().UTC()

		if err := repo.Save(ctx, entity); err != nil {
			return err
		}
		updated = entity
		return nil
	})
	if err != nil {
		return nil, err
	}

	var unresolved []lineitemdomain.UnresolvedLine
	if priced != nil {
		unresolved = priced.Unresolved
	}
	return s.toResponse(updated, unresolved), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	entity, err := s.find(ctx, s.repo, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, entity.ID)
}

func (s *Service) taxContext(customerState string) *lineitemdomain.TaxContext {
	return &lineitemdomain.TaxContext{
		CustomerStateCode: customerState,
		CompanyStateCode:  s.pricing.CompanyStateCode,
	}
}

func (s *Service) price(ctx context.Context, hospitalID, customerState, currency string, inputs []lineitemdomain.LineInput) (*lineitemdomain.PricedDocument, error) {
	items := lineitemdomain.LineItems(inputs)
	for i := range items {
		if items[i].Currency == "" {
			items[i].Currency = currency
		}
	}

	priced, err := s.pricer.Price(ctx, lineitemdomain.PriceRequest{
		Scope:   lineitemdomain.Scope{HospitalID: hospitalID},
		Tax:     s.taxContext(customerState),
		Items:   items,
		Resolve: true,
	})
	if err != nil {
		return nil, fmt.Errorf("price template: %w", err)
	}
	if err := lineitemdomain.ValidatePriced(priced.Items, s.pricing.RejectNegativeTotal); err != nil {
		return nil, err
	}
	return priced, nil
}

// recalculate reprices stored lines without consulting the catalog.
func (s *Service) recalculate(ctx context.Context, entity *domain.Template) (*lineitemdomain.PricedDocument, error) {
	return s.pricer.Price(ctx, lineitemdomain.PriceRequest{
		Scope: lineitemdomain.Scope{HospitalID: entity.HospitalID},
		Tax:   s.taxContext(entity.CustomerStateCode),
		Items: []lineitemdomain.LineItem(entity.Items),
	})
}

func (s *Service) find(ctx context.Context, repo repository.Repository[domain.Template], id string) (*domain.Template, error) {
	templateID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || templateID <= 0 {
		return nil, domain.ErrInvalidID
	}
	entity, err := repo.FindOne(ctx, &domain.Template{ID: templateID})
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, domain.ErrNotFound
	}
	return entity, nil
}

func (s *Service) toResponse(entity *domain.Template, unresolved []lineitemdomain.UnresolvedLine) *domain.Response {
	items := []lineitemdomain.LineItem(entity.Items)
	if items == nil {
		items = []lineitemdomain.LineItem{}
	}
	return &domain.Response{
		ID:                  strconv.FormatInt(entity.ID, 10),
		HospitalID:          entity.HospitalID,
		Name:                entity.Name,
		SurgeryType:         entity.SurgeryType,
		CustomerStateCode:   entity.CustomerStateCode,
		CompanyStateCode:    s.pricing.CompanyStateCode,
		Currency:            entity.Currency,
		Items:               items,
		TotalTemplateAmount: entity.TotalTemplateAmount,
		Unresolved:          unresolved,
		CreatedAt:           entity.CreatedAt,
		UpdatedAt:           entity.UpdatedAt,
	}
}
