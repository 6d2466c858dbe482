package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/medbill/internal/config"
	"github.com/smallbiznis/medbill/internal/inquiry/domain"
	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
	"github.com/smallbiznis/medbill/internal/lineitem/resolver"
	lineitemservice "github.com/smallbiznis/medbill/internal/lineitem/service"
	dbpkg "github.com/smallbiznis/medbill/pkg/db"
	"github.com/smallbiznis/medbill/pkg/db/pagination"
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

func setup(t *testing.T) domain.Service {
	t.Helper()
	db, err := dbpkg.NewTest()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Inquiry{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := config.Config{Pricing: config.PricingConfig{
		CompanyStateCode:    "27",
		DefaultCurrency:     "INR",
		ResolveConcurrency:  4,
		ResolveTimeout:      time.Second,
		RejectNegativeTotal: true,
	}}
	log := zap.NewNop()
	catalog := stubCatalog{
		"PLATE-01": {Description: "Locking Plate", Unit: "NOS", GSTPercentage: dec("12"), UnitRate: dec("5000")},
	}
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
		Repo:     repository.ProvideStore[domain.Inquiry](db),
		Pricer:   pricer,
		Validate: validation.New(),
	})
}

func lines() []lineitemdomain.LineInput {
	return []lineitemdomain.LineInput{
		{MaterialNumber: "plate-01", Quantity: dec("1"), UnitRate: dec("1")},
		{Description: "Bone cement", UnitRate: dec("100"), GSTPercentage: dec("18"), Quantity: dec("2"), DiscountPercentage: dec("10")},
	}
}

func TestCreate_PricesAndStoresTotal(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{HospitalID: "H1", PatientName: "R. Sharma", Items: lines()})
	require.NoError(t, err)

	assert.Contains(t, created.InquiryNumber, "INQ-")
	assert.Equal(t, domain.StatusDraft, created.Status)
	require.Len(t, created.Items, 2)
	assert.True(t, created.Items[0].IsFromMaster())
	assert.True(t, dec("5000").Equal(created.Items[0].UnitRate))
	assert.Equal(t, "5600.00", created.Items[0].Amounts.TotalAmount.StringFixed(2))
	assert.Equal(t, "216.00", created.Items[1].Amounts.TotalAmount.StringFixed(2))
	assert.Equal(t, "5816.00", created.TotalInquiryAmount.StringFixed(2))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "5816.00", got.TotalInquiryAmount.StringFixed(2))
	require.Len(t, got.Items, 2)
	assert.Equal(t, created.Items[1].RowID, got.Items[1].RowID)
	assert.Equal(t, 2, got.Items[1].SerialNumber)
}

func TestCreate_Validation(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{Items: lines()})
	var verr *validation.Error
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Create(ctx, domain.CreateRequest{HospitalID: "H1", Items: []lineitemdomain.LineInput{
		{Description: "Bad GST", UnitRate: dec("1"), Quantity: dec("1"), GSTPercentage: dec("150")},
	}})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Create(ctx, domain.CreateRequest{HospitalID: "H1", Items: []lineitemdomain.LineInput{
		{MaterialNumber: "UNKNOWN", UnitRate: dec("1"), Quantity: dec("1")},
	}})
	assert.ErrorIs(t, err, lineitemdomain.ErrMissingDescription)

	_, err = svc.Create(ctx, domain.CreateRequest{HospitalID: "H1", Items: []lineitemdomain.LineInput{
		{Description: "Over-discounted", UnitRate: dec("10"), Quantity: dec("1"), DiscountAmount: dec("50")},
	}})
	assert.ErrorIs(t, err, lineitemdomain.ErrNegativeTotal)
}

func TestUpdate_RemovingLineRenumbersAndRetotals(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{HospitalID: "H1", Items: lines()})
	require.NoError(t, err)

	remaining := []lineitemdomain.LineInput{lines()[1]}
	remaining[0].RowID = created.Items[1].RowID
	status := domain.StatusSubmitted
	updated, err := svc.Update(ctx, created.ID, domain.UpdateRequest{Items: &remaining, Status: &status})
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	assert.Equal(t, 1, updated.Items[0].SerialNumber)
	assert.Equal(t, created.Items[1].RowID, updated.Items[0].RowID)
	assert.Equal(t, "216.00", updated.TotalInquiryAmount.StringFixed(2))
	assert.Equal(t, domain.StatusSubmitted, updated.Status)
}

func TestListAndDelete(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		created, err := svc.Create(ctx, domain.CreateRequest{HospitalID: "H1", Items: lines()})
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}
	_, err := svc.Create(ctx, domain.CreateRequest{HospitalID: "H2", Items: lines()})
	require.NoError(t, err)

	first, err := svc.List(ctx, domain.ListRequest{HospitalID: "H1", Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.True(t, first.PageInfo.HasMore)
	assert.Equal(t, ids[2], first.Items[0].ID)

	second, err := svc.List(ctx, domain.ListRequest{
		HospitalID: "H1",
		Pagination: pagination.Pagination{PageSize: 2, PageToken: first.PageInfo.NextPageToken},
	})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.False(t, second.PageInfo.HasMore)
	assert.Equal(t, ids[0], second.Items[0].ID)

	require.NoError(t, svc.Delete(ctx, ids[0]))
	_, err = svc.Get(ctx, ids[0])
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
