package draft

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/medbill/internal/lineitem/domain"
	"github.com/smallbiznis/medbill/internal/lineitem/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	mu      sync.Mutex
	catalog map[string]domain.MasterFields
	// gates block a lookup of the keyed number until closed.
	gates   map[string]chan struct{}
	started chan string
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		catalog: map[string]domain.MasterFields{},
		gates:   map[string]chan struct{}{},
		started: make(chan string, 8),
	}
}

func (f *fakeResolver) Resolve(ctx context.Context, materialNumber string, scope domain.Scope) (resolver.Result, error) {
	number := domain.NormalizeMaterialNumber(materialNumber)
	f.mu.Lock()
	gate := f.gates[number]
	fields, ok := f.catalog[number]
	f.mu.Unlock()

	f.started <- number
	if gate != nil {
		<-gate
	}
	if number == "" {
		return resolver.Result{Source: domain.SourceManual}, nil
	}
	if !ok {
		return resolver.Result{}, domain.ErrResolutionNotFound
	}
	return resolver.Result{MaterialNumber: number, Fields: fields, Source: domain.SourceMaster}, nil
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func ptr[T any](v T) *T { return &v }

func mustAdd(t *testing.T, d *Draft, item domain.LineItem) domain.LineItem {
	t.Helper()
	row, err := d.AddRow(item)
	require.NoError(t, err)
	return row
}

func TestDraft_TotalFollowsEdits(t *testing.T) {
	d := New(newFakeResolver(), domain.Scope{HospitalID: "H1"}, nil)

	first := mustAdd(t, d, domain.LineItem{
		MasterFields: domain.MasterFields{Description: "Plate", UnitRate: dec("100"), GSTPercentage: dec("18")},
		Quantity:     dec("2"),
	})
	mustAdd(t, d, domain.LineItem{
		MasterFields: domain.MasterFields{Description: "Screw", UnitRate: dec("33.333"), GSTPercentage: dec("5")},
		Quantity:     dec("3"),
	})
	assert.Equal(t, "341.00", d.Total().StringFixed(2))

	_, err := d.Edit(first.RowID, domain.Edit{DiscountPercentage: ptr(dec("10"))})
	require.NoError(t, err)
	assert.Equal(t, "321.00", d.Total().StringFixed(2))

	require.NoError(t, d.RemoveRow(first.RowID))
	items := d.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].SerialNumber)
	assert.Equal(t, "105.00", d.Total().StringFixed(2))
}

func TestDraft_EditUnknownRow(t *testing.T) {
	d := New(newFakeResolver(), domain.Scope{HospitalID: "H1"}, nil)
	_, err := d.Edit("missing", domain.Edit{})
	assert.ErrorIs(t, err, domain.ErrRowNotFound)
}

func TestDraft_SetMaterialNumberLocksAndSplits(t *testing.T) {
	res := newFakeResolver()
	res.catalog["MAT-001"] = domain.MasterFields{
		Description: "Cortical Screw", Unit: "NOS", GSTPercentage: dec("12"), UnitRate: dec("1000"),
	}
	tax := &domain.TaxContext{CustomerStateCode: "27", CompanyStateCode: "27"}
	d := New(res, domain.Scope{HospitalID: "H1"}, tax)
	row := mustAdd(t, d, domain.LineItem{Quantity: dec("1")})

	got, err := d.SetMaterialNumber(context.Background(), row.RowID, "mat-001")

	require.NoError(t, err)
	assert.True(t, got.IsFromMaster())
	assert.Equal(t, "1120.00", got.Amounts.TotalAmount.StringFixed(2))
	require.NotNil(t, got.Split)
	assert.Equal(t, "60.00", got.Split.SGSTAmount.StringFixed(2))

	edited, err := d.Edit(row.RowID, domain.Edit{UnitRate: ptr(dec("1"))})
	require.NoError(t, err)
	assert.True(t, dec("1000").Equal(edited.UnitRate))
}

func TestDraft_SetMaterialNumberNotFoundKeepsManual(t *testing.T) {
	d := New(newFakeResolver(), domain.Scope{HospitalID: "H1"}, nil)
	row := mustAdd(t, d, domain.LineItem{
		MasterFields: domain.MasterFields{Description: "Custom", UnitRate: dec("50")},
		Quantity:     dec("2"),
	})

	got, err := d.SetMaterialNumber(context.Background(), row.RowID, "nope")

	assert.ErrorIs(t, err, domain.ErrResolutionNotFound)
	assert.False(t, got.IsFromMaster())
	assert.Equal(t, "Custom", got.Description)
	assert.Equal(t, "100.00", d.Total().StringFixed(2))
}

func TestDraft_StaleResolutionDiscarded(t *testing.T) {
	res := newFakeResolver()
	res.catalog["A"] = domain.MasterFields{Description: "Item A", UnitRate: dec("10")}
	res.catalog["B"] = domain.MasterFields{Description: "Item B", UnitRate: dec("20")}
	gate := make(chan struct{})
	res.gates["A"] = gate

	d := New(res, domain.Scope{HospitalID: "H1"}, nil)
	row := mustAdd(t, d, domain.LineItem{Quantity: dec("1")})

	done := make(chan error, 1)
	go func() {
		_, err := d.SetMaterialNumber(context.Background(), row.RowID, "A")
		done <- err
	}()
	assert.Equal(t, "A", <-res.started)

	got, err := d.SetMaterialNumber(context.Background(), row.RowID, "B")
	require.NoError(t, err)
	assert.Equal(t, "Item B", got.Description)

	close(gate)
	assert.ErrorIs(t, <-done, domain.ErrStaleResolution)

	items := d.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Item B", items[0].Description)
	assert.Equal(t, "B", items[0].MaterialNumber)
	assert.Equal(t, "20.00", d.Total().StringFixed(2))
}

func TestDraft_RemovedRowMakesResolutionStale(t *testing.T) {
	res := newFakeResolver()
	res.catalog["A"] = domain.MasterFields{Description: "Item A", UnitRate: dec("10")}
	gate := make(chan struct{})
	res.gates["A"] = gate

	d := New(res, domain.Scope{HospitalID: "H1"}, nil)
	row := mustAdd(t, d, domain.LineItem{Quantity: dec("1")})

	done := make(chan error, 1)
	go func() {
		_, err := d.SetMaterialNumber(context.Background(), row.RowID, "A")
		done <- err
	}()
	<-res.started
	require.NoError(t, d.RemoveRow(row.RowID))
	close(gate)

	assert.ErrorIs(t, <-done, domain.ErrStaleResolution)
	assert.Empty(t, d.Items())
	assert.True(t, d.Total().IsZero())
}

func TestDraft_AddRowRejectsDuplicateRowID(t *testing.T) {
	d := New(newFakeResolver(), domain.Scope{HospitalID: "H1"}, nil)
	row := mustAdd(t, d, domain.LineItem{RowID: "row-1", Quantity: dec("1")})
	assert.Equal(t, "row-1", row.RowID)

	_, err := d.AddRow(domain.LineItem{RowID: "row-1", Quantity: dec("5")})
	assert.ErrorIs(t, err, domain.ErrDuplicateRow)
	assert.Len(t, d.Items(), 1)

	other := mustAdd(t, d, domain.LineItem{Quantity: dec("1")})
	assert.NotEqual(t, "row-1", other.RowID)
	assert.Equal(t, 2, other.SerialNumber)
}

func TestDraft_ReaddedRowIgnoresEarlierResolution(t *testing.T) {
	res := newFakeResolver()
	res.catalog["A"] = domain.MasterFields{Description: "Item A", UnitRate: dec("10")}
	gate := make(chan struct{})
	res.gates["A"] = gate

	d := New(res, domain.Scope{HospitalID: "H1"}, nil)
	mustAdd(t, d, domain.LineItem{RowID: "row-1", Quantity: dec("1")})

	done := make(chan error, 1)
	go func() {
		_, err := d.SetMaterialNumber(context.Background(), "row-1", "A")
		done <- err
	}()
	<-res.started
	require.NoError(t, d.RemoveRow("row-1"))
	mustAdd(t, d, domain.LineItem{
		RowID:        "row-1",
		MasterFields: domain.MasterFields{Description: "Custom", UnitRate: dec("7")},
		Quantity:     dec("1"),
	})
	close(gate)

	assert.ErrorIs(t, <-done, domain.ErrStaleResolution)
	items := d.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Custom", items[0].Description)
	assert.Equal(t, "7.00", d.Total().StringFixed(2))
}

func TestDraft_Snapshot(t *testing.T) {
	tax := &domain.TaxContext{CustomerStateCode: "29", CompanyStateCode: "27"}
	d := New(newFakeResolver(), domain.Scope{HospitalID: "H1"}, tax,
		domain.LineItem{MasterFields: domain.MasterFields{Description: "Gauze", UnitRate: dec("10"), GSTPercentage: dec("5")}, Quantity: dec("2")},
	)

	snap := d.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "H1", snap.Scope.HospitalID)
	assert.Equal(t, "21.00", snap.Total.StringFixed(2))
	require.NotNil(t, snap.Items[0].Split)
	assert.Equal(t, "0.50", snap.Items[0].Split.IGSTAmount.StringFixed(2))

	snap.Items[0].Description = "changed"
	assert.Equal(t, "Gauze", d.Items()[0].Description)
}
