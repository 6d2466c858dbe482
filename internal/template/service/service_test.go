package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/medbill/internal/config"
	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
	"github.com/smallbiznis/medbill/internal/lineitem/resolver"
	lineitemservice "github.com/smallbiznis/medbill/internal/lineitem/service"
	"github.com/smallbiznis/medbill/internal/template/domain"
	dbpkg "github.com/smallbiznis/medbill/pkg/db"
	"github.com/smallbiznis/medbill/pkg/repository"
	"github.com/smallbiznis/medbill/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCatalog map[string]lineitemdomain.MasterFields

func (c stubCatalog) Lookup(_ context.Context, _ lineitemdomain.Scope, number string) (lineitemdomain.MasterFields, error) {
	fields, ok := c[number]
	if !ok {
		return lineitemdomain.MasterFields{}, lineitemdomain.ErrResolutionNotFound
	}
	return fields, nil
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func setup(t *testing.T, catalog stubCatalog) domain.Service {
	t.Helper()
	db, err := dbpkg.NewTest()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Template{}))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	cfg := config.Config{Pricing: config.PricingConfig{
		CompanyStateCode:    "27",
		DefaultCurrency:     "INR",
		ResolveConcurrency:  2,
		ResolveTimeout:      time.Second,
		RejectNegativeTotal: true,
	}}
	log := zap.NewNop()
	pricer := lineitemservice.New(lineitemservice.Params{
		Config:   cfg,
		Log:      log,
		Resolver: resolver.New(resolver.Params{Catalog: catalog, Log: log}),
	})

	return New(Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Config:   cfg,
		Repo:     repository.ProvideStore[domain.Template](db),
		Pricer:   pricer,
		Validate: validation.New(),
	})
}

func kneeKit() []lineitemdomain.LineInput {
	return []lineitemdomain.LineInput{
		{MaterialNumber: "KNEE-FEM", Quantity: dec("1")},
		{Description: "Drape set", UnitRate: dec("250"), GSTPercentage: dec("12"), Quantity: dec("2")},
	}
}

func TestCreate_IntraStateSplit(t *testing.T) {
	svc := setup(t, stubCatalog{
		"KNEE-FEM": {Description: "Femoral component", Unit: "NOS", GSTPercentage: dec("5"), UnitRate: dec("40000")},
	})

	created, err := svc.Create(context.Background(), domain.CreateRequest{
		HospitalID: "H1", Name: "Total knee replacement", CustomerStateCode: "27", Items: kneeKit(),
	})
	require.NoError(t, err)

	assert.Equal(t, "27", created.CompanyStateCode)
	require.Len(t, created.Items, 2)
	femoral := created.Items[0]
	require.NotNil(t, femoral.Split)
	assert.Equal(t, "2000.00", femoral.Amounts.GSTAmount.StringFixed(2))
	assert.Equal(t, "1000.00", femoral.Split.CGSTAmount.StringFixed(2))
	assert.Equal(t, "1000.00", femoral.Split.SGSTAmount.StringFixed(2))
	assert.True(t, femoral.Split.IGSTAmount.IsZero())

	// 42000 + 560
	assert.Equal(t, "42560.00", created.TotalTemplateAmount.StringFixed(2))
}

func TestUpdate_StateChangeMovesSGSTToIGST(t *testing.T) {
	svc := setup(t, stubCatalog{
		"KNEE-FEM": {Description: "Femoral component", GSTPercentage: dec("5"), UnitRate: dec("40000")},
	})
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{
		HospitalID: "H1", Name: "TKR", CustomerStateCode: "27", Items: kneeKit(),
	})
	require.NoError(t, err)

	state := "29"
	updated, err := svc.Update(ctx, created.ID, domain.UpdateRequest{CustomerStateCode: &state})
	require.NoError(t, err)

	for _, item := range updated.Items {
		require.NotNil(t, item.Split)
		assert.True(t, item.Split.SGSTAmount.IsZero())
		assert.True(t, item.Split.IGSTAmount.Equal(item.Split.CGSTAmount))
	}
	assert.True(t, updated.Items[0].IsFromMaster())
	assert.Equal(t, created.TotalTemplateAmount.StringFixed(2), updated.TotalTemplateAmount.StringFixed(2))
}

func TestCreate_RequiresNameAndState(t *testing.T) {
	svc := setup(t, stubCatalog{})

	_, err := svc.Create(context.Background(), domain.CreateRequest{HospitalID: "H1", Items: kneeKit()})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	fields := map[string]bool{}
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["name"])
	assert.True(t, fields["customer_state_code"])
}
