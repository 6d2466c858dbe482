package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/medbill/internal/lineitem/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func assertDec(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got.String())
}

func TestCalculate_PercentageDiscount(t *testing.T) {
	got := Calculate(Input{
		UnitRate:           dec("100"),
		Quantity:           dec("2"),
		GSTPercentage:      dec("18"),
		DiscountPercentage: dec("10"),
	})

	assertDec(t, "200", got.BaseAmount, "base")
	assertDec(t, "36", got.GSTAmount, "gst")
	assertDec(t, "20", got.DiscountAmount, "discount")
	assertDec(t, "216.00", got.TotalAmount, "total")
}

func TestCalculate_FlatDiscountWinsOverPercentage(t *testing.T) {
	got := Calculate(Input{
		UnitRate:           dec("100"),
		Quantity:           dec("2"),
		GSTPercentage:      dec("18"),
		DiscountPercentage: dec("10"),
		DiscountAmount:     dec("15"),
	})

	assertDec(t, "15", got.DiscountAmount, "discount")
	assertDec(t, "221", got.TotalAmount, "total")
}

func TestCalculate_RoundsHalfUp(t *testing.T) {
	got := Calculate(Input{
		UnitRate:      dec("33.333"),
		Quantity:      dec("3"),
		GSTPercentage: dec("5"),
	})

	assertDec(t, "100.00", got.BaseAmount, "base")
	assertDec(t, "5.00", got.GSTAmount, "gst")
	assertDec(t, "105.00", got.TotalAmount, "total")
	assert.Equal(t, "105", got.TotalAmount.String())
	assert.LessOrEqual(t, -got.TotalAmount.Exponent(), int32(2))
}

func TestCalculate_TotalInvariant(t *testing.T) {
	cases := []Input{
		{UnitRate: dec("12.345"), Quantity: dec("7"), GSTPercentage: dec("12"), DiscountPercentage: dec("3.5")},
		{UnitRate: dec("0.005"), Quantity: dec("1"), GSTPercentage: dec("18")},
		{UnitRate: dec("999.99"), Quantity: dec("13"), GSTPercentage: dec("28"), DiscountAmount: dec("100.555")},
	}
	for _, in := range cases {
		got := Calculate(in)
		want := Round2(in.UnitRate.Mul(in.Quantity).Add(got.GSTAmount).Sub(got.DiscountAmount))
		assert.True(t, want.Equal(got.TotalAmount), "total %s != %s", got.TotalAmount, want)
	}
}

func TestCalculate_NoClamping(t *testing.T) {
	negQty := Calculate(Input{UnitRate: dec("10"), Quantity: dec("-2")})
	assertDec(t, "-20", negQty.TotalAmount, "negative quantity total")

	overDiscount := Calculate(Input{UnitRate: dec("10"), Quantity: dec("1"), DiscountAmount: dec("50")})
	assertDec(t, "-40", overDiscount.TotalAmount, "over-discount total")

	zero := Calculate(Input{})
	assert.True(t, zero.TotalAmount.IsZero())
}

func TestSplit(t *testing.T) {
	same := Split(dec("100"), "27", " 27 ")
	assertDec(t, "50", same.CGSTAmount, "cgst")
	assertDec(t, "50", same.SGSTAmount, "sgst")
	assertDec(t, "0", same.IGSTAmount, "igst")

	inter := Split(dec("100"), "29", "27")
	assertDec(t, "50", inter.CGSTAmount, "cgst")
	assertDec(t, "0", inter.SGSTAmount, "sgst")
	assertDec(t, "50", inter.IGSTAmount, "igst")

	odd := Split(dec("0.05"), "ka", "KA")
	assertDec(t, "0.03", odd.CGSTAmount, "cgst rounding")
	assertDec(t, "0.03", odd.SGSTAmount, "sgst rounding")
}

func TestRecalculate(t *testing.T) {
	item := domain.LineItem{
		MasterFields: domain.MasterFields{UnitRate: dec("1000"), GSTPercentage: dec("12")},
		Quantity:     dec("1"),
		Split:        &domain.TaxSplit{},
	}

	plain := Recalculate(item, nil)
	assert.Nil(t, plain.Split)
	assert.Equal(t, domain.DefaultCurrency, plain.Currency)
	assertDec(t, "1120", plain.Amounts.TotalAmount, "total")

	split := Recalculate(item, &domain.TaxContext{CustomerStateCode: "29", CompanyStateCode: "27"})
	if assert.NotNil(t, split.Split) {
		assertDec(t, "60", split.Split.IGSTAmount, "igst")
	}
}

func TestCoerce(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, "0"},
		{"string", "12.50", "12.5"},
		{"thousands", "1,250.75", "1250.75"},
		{"currency", "INR 300", "300"},
		{"rupee", "₹ -20", "-20"},
		{"malformed", "abc", "0"},
		{"empty", "   ", "0"},
		{"float", 2.5, "2.5"},
		{"int", 4, "4"},
		{"bool", true, "0"},
		{"huge exponent", "1e20000000", "0"},
		{"tiny exponent", "1e-20000000", "0"},
		{"huge float", 1e300, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertDec(t, tc.want, Coerce(tc.value), tc.name)
		})
	}
}

func TestCoerceAmount_Bounds(t *testing.T) {
	got, err := CoerceAmount("INR 999,999,999,999.99")
	require.NoError(t, err)
	assertDec(t, "999999999999.99", got, "max")

	for _, value := range []any{"1e20000000", "1e-20000000", "1000000000000", 1e300, decimal.New(1, 40)} {
		_, err := CoerceAmount(value)
		assert.ErrorIs(t, err, domain.ErrAmountOutOfRange, "%v", value)
	}
}
