package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/medbill/internal/lineitem/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) Lookup(ctx context.Context, scope domain.Scope, materialNumber string) (domain.MasterFields, error) {
	args := m.Called(ctx, scope, materialNumber)
	return args.Get(0).(domain.MasterFields), args.Error(1)
}

func newResolver(catalog Catalog) *Resolver {
	return New(Params{Catalog: catalog, Log: zap.NewNop()})
}

var screwFields = domain.MasterFields{
	Description:   "Cortical Screw 3.5mm",
	HSNCode:       "90211000",
	Unit:          "NOS",
	GSTPercentage: decimal.NewFromInt(12),
	UnitRate:      decimal.NewFromInt(1500),
}

func TestResolve_NormalizesAndMatches(t *testing.T) {
	ctx := context.Background()
	scope := domain.Scope{HospitalID: "H1"}
	catalog := new(mockCatalog)
	catalog.On("Lookup", mock.Anything, scope, "MAT-001").Return(screwFields, nil).Once()

	result, err := newResolver(catalog).Resolve(ctx, "  mat-001 ", scope)

	require.NoError(t, err)
	assert.True(t, result.Found())
	assert.Equal(t, "MAT-001", result.MaterialNumber)
	assert.Equal(t, screwFields, result.Fields)
	catalog.AssertExpectations(t)
}

func TestResolve_EmptyNumberClears(t *testing.T) {
	catalog := new(mockCatalog)

	result, err := newResolver(catalog).Resolve(context.Background(), "   ", domain.Scope{HospitalID: "H1"})

	require.NoError(t, err)
	assert.False(t, result.Found())
	assert.Equal(t, domain.SourceManual, result.Source)
	catalog.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolve_RequiresHospital(t *testing.T) {
	_, err := newResolver(new(mockCatalog)).Resolve(context.Background(), "MAT-001", domain.Scope{})
	assert.ErrorIs(t, err, domain.ErrInvalidHospital)
}

func TestResolve_CatalogFailureDegradesToNotFound(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("Lookup", mock.Anything, mock.Anything, "MAT-001").
		Return(domain.MasterFields{}, errors.New("dial tcp: connection refused"))

	_, err := newResolver(catalog).Resolve(context.Background(), "MAT-001", domain.Scope{HospitalID: "H1"})

	assert.ErrorIs(t, err, domain.ErrResolutionNotFound)
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestResolve_Ambiguous(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("Lookup", mock.Anything, mock.Anything, "DUP").
		Return(domain.MasterFields{}, domain.ErrAmbiguousMatch)

	_, err := newResolver(catalog).Resolve(context.Background(), "dup", domain.Scope{HospitalID: "H1"})

	assert.ErrorIs(t, err, domain.ErrAmbiguousMatch)
	assert.NotErrorIs(t, err, domain.ErrResolutionNotFound)
}

func TestResolveLine_NotFoundKeepsManualFields(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("Lookup", mock.Anything, mock.Anything, "XYZ").
		Return(domain.MasterFields{}, domain.ErrResolutionNotFound)

	item := domain.LineItem{
		MaterialNumber: " xyz",
		Source:         domain.SourceManual,
		MasterFields:   domain.MasterFields{Description: "Custom plate", UnitRate: decimal.NewFromInt(900)},
	}

	got := newResolver(catalog).ResolveLine(context.Background(), item, domain.Scope{HospitalID: "H1"})

	assert.Equal(t, "XYZ", got.MaterialNumber)
	assert.False(t, got.IsFromMaster())
	assert.Equal(t, "Custom plate", got.Description)
	assert.True(t, decimal.NewFromInt(900).Equal(got.UnitRate))
}

func TestResolveLine_MatchLocksFields(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("Lookup", mock.Anything, mock.Anything, "MAT-001").Return(screwFields, nil)

	item := domain.LineItem{MaterialNumber: "mat-001", MasterFields: domain.MasterFields{Description: "typed"}}
	got := newResolver(catalog).ResolveLine(context.Background(), item, domain.Scope{HospitalID: "H1"})

	assert.True(t, got.IsFromMaster())
	assert.Equal(t, screwFields, got.MasterFields)

	edited := domain.ApplyEdit(got, domain.Edit{UnitRate: ptr(decimal.NewFromInt(1))})
	assert.True(t, screwFields.UnitRate.Equal(edited.UnitRate))
}

func TestResolveLine_EmptyNumberClearsMaster(t *testing.T) {
	item := domain.ApplyMaster(domain.LineItem{}, "MAT-001", screwFields)
	item.MaterialNumber = ""

	got := newResolver(new(mockCatalog)).ResolveLine(context.Background(), item, domain.Scope{HospitalID: "H1"})

	assert.False(t, got.IsFromMaster())
	assert.True(t, got.MasterFields.IsZero())
}

func ptr[T any](v T) *T { return &v }
