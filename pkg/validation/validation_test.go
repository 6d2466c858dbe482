package validation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	Description string              `json:"material_description" validate:"required"`
	Quantity    decimal.Decimal     `json:"quantity" validate:"gte=1"`
	GST         decimal.Decimal     `json:"gst_percentage" validate:"gte=0,lte=100"`
	Override    decimal.NullDecimal `json:"override" validate:"omitempty,gte=0"`
}

type doc struct {
	HospitalID string `json:"hospital_id" validate:"required"`
	Items      []line `json:"items" validate:"dive"`
}

func TestStruct_Valid(t *testing.T) {
	v := New()
	err := Struct(v, doc{
		HospitalID: "H1",
		Items:      []line{{Description: "Plate", Quantity: decimal.NewFromInt(1), GST: decimal.NewFromInt(12)}},
	})
	assert.NoError(t, err)
}

func TestStruct_ReportsJSONPaths(t *testing.T) {
	v := New()
	err := Struct(v, doc{
		Items: []line{{
			Quantity: decimal.Zero,
			GST:      decimal.NewFromInt(120),
			Override: decimal.NewNullDecimal(decimal.NewFromInt(-1)),
		}},
	})

	var verr *Error
	require.True(t, errors.As(err, &verr))

	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Code
	}
	assert.Equal(t, "required", fields["hospital_id"])
	assert.Equal(t, "required", fields["items[0].material_description"])
	assert.Equal(t, "gte", fields["items[0].quantity"])
	assert.Equal(t, "lte", fields["items[0].gst_percentage"])
	assert.Equal(t, "gte", fields["items[0].override"])
	assert.Contains(t, err.Error(), "validation_failed")
}

type priced struct {
	UnitRate decimal.Decimal     `json:"unit_rate" validate:"money,gte=0"`
	Quantity decimal.Decimal     `json:"quantity" validate:"gte=1"`
	Override decimal.NullDecimal `json:"override" validate:"omitempty,money"`
}

func TestDecimalInBounds(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"0", true},
		{"999999999999.99", true},
		{"-999999999999", true},
		{"0.000000000000000001", true},
		{"1000000000000", false},
		{"1e12", false},
		{"1e20000000", false},
		{"1e-20000000", false},
		{"0.0000000000000000001", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DecimalInBounds(decimal.RequireFromString(tc.value)), tc.value)
	}
}

func TestStruct_RejectsOutOfRangeDecimals(t *testing.T) {
	v := New()
	err := Struct(v, priced{
		UnitRate: decimal.RequireFromString("1e20000000"),
		Quantity: decimal.RequireFromString("1e400"),
		Override: decimal.NewNullDecimal(decimal.RequireFromString("-1e30")),
	})

	var verr *Error
	require.True(t, errors.As(err, &verr))

	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Code
	}
	assert.Equal(t, "money", fields["unit_rate"])
	assert.Equal(t, "gte", fields["quantity"])
	assert.Equal(t, "money", fields["override"])

	assert.NoError(t, Struct(v, priced{
		UnitRate: decimal.RequireFromString("4500.50"),
		Quantity: decimal.NewFromInt(2),
	}))
}
