package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/medbill/internal/cache"
	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
	"github.com/smallbiznis/medbill/internal/material/domain"
	"github.com/smallbiznis/medbill/internal/observability/metrics"
	"github.com/smallbiznis/medbill/pkg/db"
	"github.com/smallbiznis/medbill/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Cache    cache.CatalogCache
	Validate *validator.Validate
	Metrics  *metrics.Pricing `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	cache    cache.CatalogCache
	validate *validator.Validate
	metrics  *metrics.Pricing
}

func New(p Params) *Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("material.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		cache:    p.Cache,
		validate: p.Validate,
		metrics:  p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Material, error) {
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}
	number := lineitemdomain.NormalizeMaterialNumber(req.MaterialNumber)
	if number == "" {
		return nil, domain.ErrInvalidMaterialNumber
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, domain.ErrInvalidDescription
	}
	category := strings.TrimSpace(req.SurgicalCategory)
	if category == "" {
		return nil, domain.ErrInvalidCategory
	}
	if err := validateGST(req.GSTPercentage); err != nil {
		return nil, err
	}
	if err := validatePrices(req.MRP, req.InstitutionalPrice, req.DistributionPrice); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = lineitemdomain.DefaultCurrency
	}

	now := time.Now().UTC()
	entity := &domain.Material{
		ID:                 s.genID.Generate().Int64(),
		MaterialNumber:     number,
		Description:        description,
		HSNCode:            strings.TrimSpace(req.HSNCode),
		Unit:               strings.TrimSpace(req.Unit),
		GSTPercentage:      req.GSTPercentage,
		MRP:                req.MRP,
		InstitutionalPrice: req.InstitutionalPrice,
		DistributionPrice:  req.DistributionPrice,
		Currency:           currency,
		SurgicalCategory:   category,
		ImplantType:        trimmedOrNil(req.ImplantType),
		SubCategory:        trimmedOrNil(req.SubCategory),
		LengthMM:           trimmedOrNil(req.LengthMM),
		Active:             true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if len(req.Metadata) > 0 {
		entity.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.repo.Create(ctx, s.db, entity); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateMaterial
		}
		return nil, err
	}
	return entity, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (*domain.Material, error) {
	materialID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	var updated *domain.Material
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entity, err := s.repo.FindByID(ctx, tx, materialID)
		if err != nil {
			return err
		}
		if entity == nil {
			return domain.ErrNotFound
		}

		if req.Description != nil {
			entity.Description = strings.TrimSpace(*req.Description)
			if entity.Description == "" {
				return domain.ErrInvalidDescription
			}
		}
		if req.HSNCode != nil {
			entity.HSNCode = strings.TrimSpace(*req.HSNCode)
		}
		if req.Unit != nil {
			entity.Unit = strings.TrimSpace(*req.Unit)
		}
		if req.GSTPercentage != nil {
			if err := validateGST(*req.GSTPercentage); err != nil {
				return err
			}
			entity.GSTPercentage = *req.GSTPercentage
		}
		if req.MRP != nil {
			entity.MRP = *req.MRP
		}
		if req.InstitutionalPrice != nil {
			entity.InstitutionalPrice = *req.InstitutionalPrice
		}
		if req.DistributionPrice != nil {
			entity.DistributionPrice = *req.DistributionPrice
		}
		if err := validatePrices(entity.MRP, entity.InstitutionalPrice, entity.DistributionPrice); err != nil {
			return err
		}
		if req.Active != nil {
			entity.Active = *req.Active
		}
		entity.UpdatedAt = time.Now().UTC()

		if err := s.repo.Update(ctx, tx, entity); err != nil {
			return err
		}
		updated = entity
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateMaterial(ctx, materialID)
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Material, error) {
	materialID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	entity, err := s.repo.FindByID(ctx, s.db, materialID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, domain.ErrNotFound
	}
	return entity, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Material, error) {
	return s.repo.List(ctx, s.db, req)
}

// Assign makes a material available to a hospital, replacing any previous
// price overrides, and drops the hospital's cached lookups.
func (s *Service) Assign(ctx context.Context, hospitalID string, req domain.AssignRequest) (*domain.Assignment, error) {
	hospitalID = strings.TrimSpace(hospitalID)
	if hospitalID == "" {
		return nil, lineitemdomain.ErrInvalidHospital
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}
	materialID, err := parseID(req.MaterialID)
	if err != nil {
		return nil, err
	}
	for _, override := range []decimal.NullDecimal{req.InstitutionalPrice, req.MRP} {
		if override.Valid && override.Decimal.IsNegative() {
			return nil, domain.ErrInvalidPrice
		}
	}

	material, err := s.repo.FindByID(ctx, s.db, materialID)
	if err != nil {
		return nil, err
	}
	if material == nil {
		return nil, domain.ErrNotFound
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	now := time.Now().UTC()
	assignment := &domain.Assignment{
		ID:                 s.genID.Generate().Int64(),
		HospitalID:         hospitalID,
		MaterialID:         materialID,
		InstitutionalPrice: req.InstitutionalPrice,
		MRP:                req.MRP,
		Active:             active,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.UpsertAssignment(ctx, s.db, assignment); err != nil {
		return nil, err
	}
	s.cache.InvalidateHospital(ctx, hospitalID)

	stored, err := s.repo.FindAssignment(ctx, s.db, hospitalID, materialID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return assignment, nil
	}
	return stored, nil
}

// LookupByNumber finds the one material assigned to hospitalID under
// materialNumber, reading through the catalog cache. Misses are not cached.
func (s *Service) LookupByNumber(ctx context.Context, hospitalID, materialNumber string) (*domain.Record, error) {
	hospitalID = strings.TrimSpace(hospitalID)
	if hospitalID == "" {
		return nil, lineitemdomain.ErrInvalidHospital
	}
	number := lineitemdomain.NormalizeMaterialNumber(materialNumber)
	if number == "" {
		return nil, domain.ErrInvalidMaterialNumber
	}

	if record, ok := s.cache.Get(ctx, hospitalID, number); ok {
		s.metrics.RecordCacheLookup(true)
		return record, nil
	}
	s.metrics.RecordCacheLookup(false)

	records, err := s.repo.FindRecords(ctx, s.db, hospitalID, number)
	if err != nil {
		return nil, errors.Join(lineitemdomain.ErrCatalogUnavailable, err)
	}
	switch len(records) {
	case 0:
		return nil, lineitemdomain.ErrResolutionNotFound
	case 1:
	default:
		s.log.Warn("duplicate material number in hospital scope",
			zap.String("hospital_id", hospitalID),
			zap.String("material_number", number),
		)
		return nil, lineitemdomain.ErrAmbiguousMatch
	}

	record := records[0]
	s.cache.Set(ctx, &record)
	return &record, nil
}

// Lookup adapts LookupByNumber to the line-item resolver. Classification
// filters in scope narrow the match further.
func (s *Service) Lookup(ctx context.Context, scope lineitemdomain.Scope, materialNumber string) (lineitemdomain.MasterFields, error) {
	record, err := s.LookupByNumber(ctx, scope.HospitalID, materialNumber)
	if err != nil {
		return lineitemdomain.MasterFields{}, err
	}
	if !record.Matches(scope) {
		return lineitemdomain.MasterFields{}, lineitemdomain.ErrResolutionNotFound
	}
	return record.MasterFields(), nil
}

func (s *Service) Search(ctx context.Context, req domain.SearchRequest) ([]domain.Record, error) {
	if strings.TrimSpace(req.Scope.HospitalID) == "" {
		return nil, lineitemdomain.ErrInvalidHospital
	}
	return s.repo.SearchRecords(ctx, s.db, req)
}

// ListOptions returns the distinct values available at level among the
// hospital's active materials matching every earlier level set in scope.
func (s *Service) ListOptions(ctx context.Context, scope lineitemdomain.Scope, level domain.Level) ([]string, error) {
	if strings.TrimSpace(scope.HospitalID) == "" {
		return nil, lineitemdomain.ErrInvalidHospital
	}
	if level.Depth() < 0 {
		return nil, domain.ErrInvalidLevel
	}
	values, err := s.repo.DistinctValues(ctx, s.db, scope.HospitalID, level, domain.Parents(scope, level))
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

func (s *Service) invalidateMaterial(ctx context.Context, materialID int64) {
	hospitals, err := s.repo.HospitalsForMaterial(ctx, s.db, materialID)
	if err != nil {
		s.log.Warn("failed to list hospitals for cache invalidation",
			zap.Int64("material_id", materialID), zap.Error(err))
		return
	}
	for _, hospitalID := range hospitals {
		s.cache.InvalidateHospital(ctx, hospitalID)
	}
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func validateGST(value decimal.Decimal) error {
	if value.IsNegative() || value.GreaterThan(hundred) {
		return domain.ErrInvalidGST
	}
	return nil
}

func validatePrices(values ...decimal.Decimal) error {
	for _, v := range values {
		if v.IsNegative() {
			return domain.ErrInvalidPrice
		}
	}
	return nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
