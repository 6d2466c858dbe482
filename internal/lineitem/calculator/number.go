package calculator

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/medbill/internal/lineitem/domain"
	"github.com/smallbiznis/medbill/pkg/validation"
)

var currencyMarkers = []string{"INR", "inr", "Rs.", "rs.", "Rs", "rs", "₹"}

// Coerce converts a loosely typed numeric value into a decimal. Absent,
// malformed, non-finite or out-of-range input yields zero; it never fails.
func Coerce(value any) decimal.Decimal {
	d, err := CoerceAmount(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CoerceAmount is Coerce, except that a value outside the amount bounds is
// reported as domain.ErrAmountOutOfRange instead of becoming zero.
func CoerceAmount(value any) (decimal.Decimal, error) {
	d := coerce(value)
	if !validation.DecimalInBounds(d) {
		return decimal.Zero, domain.ErrAmountOutOfRange
	}
	return d, nil
}

func coerce(value any) decimal.Decimal {
	switch v := value.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero
		}
		return *v
	case string:
		return parseLenient(v)
	case json.Number:
		return parseLenient(v.String())
	case float64:
		return fromFloat(v)
	case float32:
		return fromFloat(float64(v))
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromInt(int64(v))
	default:
		return decimal.Zero
	}
}

// ParseLenient parses user-formatted amounts such as "1,250.50", "INR 300" or
// "₹ -20". Anything unparseable or out of range is zero.
func ParseLenient(raw string) decimal.Decimal {
	d := parseLenient(raw)
	if !validation.DecimalInBounds(d) {
		return decimal.Zero
	}
	return d
}

func parseLenient(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}
	for _, marker := range currencyMarkers {
		s = strings.ReplaceAll(s, marker, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return value
}

func fromFloat(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
