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
	"github.com/smallbiznis/medbill/internal/inquiry/domain"
	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
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
	Repo     repository.Repository[domain.Inquiry]
	Pricer   lineitemdomain.Service
	Validate *validator.Validate
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     repository.Repository[domain.Inquiry]
	pricer   lineitemdomain.Service
	validate *validator.Validate
	pricing  config.PricingConfig
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("inquiry.service"),
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
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.pricing.DefaultCurrency
	}

	priced, err := s.price(ctx, hospitalID, currency, req.Items)
	if err != nil {
		return nil, err
	}

	id := s.genID.Generate()
	now := time.Now().UTC()
	entity := &domain.Inquiry{
		ID:                 id.Int64(),
		InquiryNumber:      "INQ-" + id.String(),
		HospitalID:         hospitalID,
		PatientName:        strings.TrimSpace(req.PatientName),
		SurgeonName:        strings.TrimSpace(req.SurgeonName),
		SurgeryDate:        req.SurgeryDate,
		Notes:              req.Notes,
		Status:             domain.StatusDraft,
		Currency:           currency,
		Items:              datatypes.NewJSONSlice(priced.Items),
		TotalInquiryAmount: priced.TotalAmount,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, entity); err != nil {
		return nil, err
	}

	s.log.Info("inquiry created",
		zap.String("inquiry_number", entity.InquiryNumber),
		zap.String("hospital_id", hospitalID),
		zap.Int("lines", len(priced.Items)),
		zap.Int("unresolved", len(priced.Unresolved)),
	)
	return toResponse(entity, priced.Unresolved), nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	entity, err := s.find(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return toResponse(entity, nil), nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	filter := &domain.Inquiry{HospitalID: strings.TrimSpace(req.HospitalID)}
	if status := strings.TrimSpace(req.Status); status != "" {
		parsed, err := parseStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = parsed
	}

	rows, err := s.repo.Find(ctx, filter,
		option.WithSortBy(option.QuerySortBy{}),
		option.ApplyPagination(req.Pagination),
	)
	if err != nil {
		return nil, err
	}

	page, info := pagination.BuildCursorPageInfo(rows, req.Pagination.Limit(), func(i *domain.Inquiry) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: strconv.FormatInt(i.ID, 10)})
		return token
	})

	out := &domain.ListResponse{Items: make([]domain.Response, 0, len(page)), PageInfo: info}
	for _, entity := range page {
		out.Items = append(out.Items, *toResponse(entity, nil))
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (*domain.Response, error) {
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	current, err := s.find(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	// Catalog lookups run on their own connections, so new lines are priced
	// before the transaction takes one. Hospital and currency never change.
	var priced *lineitemdomain.PricedDocument
	if req.Items != nil {
		priced, err = s.price(ctx, current.HospitalID, current.Currency, *req.Items)
		if err != nil {
			return nil, err
		}
	}

	var updated *domain.Inquiry
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTrx(tx)
		entity, err := s.find(ctx, repo, id)
		if err != nil {
			return err
		}

		if req.PatientName != nil {
			entity.PatientName = strings.TrimSpace(*req.PatientName)
		}
		if req.SurgeonName != nil {
			entity.SurgeonName = strings.TrimSpace(*req.SurgeonName)
		}
		if req.SurgeryDate != nil {
			entity.SurgeryDate = req.SurgeryDate
		}
		if req.Notes != nil {
			entity.Notes = *req.Notes
		}
		if req.Status != nil {
			status, err := parseStatus(string(*req.Status))
			if err != nil {
				return err
			}
			entity.Status = status
		}
		if priced != nil {
			entity.Items = datatypes.NewJSONSlice(priced.Items)
			entity.TotalInquiryAmount = priced.TotalAmount
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
	return toResponse(updated, unresolved), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	entity, err := s.find(ctx, s.repo, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, entity.ID)
}

// price runs submitted lines through the pricing pipeline and checks the
// result is storable. The stored total is always the recomputed one.
func (s *Service) price(ctx context.Context, hospitalID, currency string, inputs []lineitemdomain.LineInput) (*lineitemdomain.PricedDocument, error) {
	items := lineitemdomain.LineItems(inputs)
	for i := range items {
		if items[i].Currency == "" {
			items[i].Currency = currency
		}
	}

	priced, err := s.pricer.Price(ctx, lineitemdomain.PriceRequest{
		Scope:   lineitemdomain.Scope{HospitalID: hospitalID},
		Items:   items,
		Resolve: true,
	})
	if err != nil {
		return nil, fmt.Errorf("price inquiry: %w", err)
	}
	if err := lineitemdomain.ValidatePriced(priced.Items, s.pricing.RejectNegativeTotal); err != nil {
		return nil, err
	}
	return priced, nil
}

func (s *Service) find(ctx context.Context, repo repository.Repository[domain.Inquiry], id string) (*domain.Inquiry, error) {
	inquiryID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || inquiryID <= 0 {
		return nil, domain.ErrInvalidID
	}
	entity, err := repo.FindOne(ctx, &domain.Inquiry{ID: inquiryID})
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, domain.ErrNotFound
	}
	return entity, nil
}

func parseStatus(value string) (domain.Status, error) {
	switch status := domain.Status(strings.ToUpper(strings.TrimSpace(value))); status {
	case domain.StatusDraft, domain.StatusSubmitted:
		return status, nil
	}
	return "", domain.ErrInvalidStatus
}

func toResponse(entity *domain.Inquiry, unresolved []lineitemdomain.UnresolvedLine) *domain.Response {
	items := []lineitemdomain.LineItem(entity.Items)
	if items == nil {
		items = []lineitemdomain.LineItem{}
	}
	return &domain.Response{
		ID:                 strconv.FormatInt(entity.ID, 10),
		InquiryNumber:      entity.InquiryNumber,
		HospitalID:         entity.HospitalID,
		PatientName:        entity.PatientName,
		SurgeonName:        entity.SurgeonName,
		SurgeryDate:        entity.SurgeryDate,
		Notes:              entity.Notes,
		Status:             entity.Status,
		Currency:           entity.Currency,
		Items:              items,
		TotalInquiryAmount: entity.TotalInquiryAmount,
		Unresolved:         unresolved,
		CreatedAt:          entity.CreatedAt,
		UpdatedAt:          entity.UpdatedAt,
	}
}
