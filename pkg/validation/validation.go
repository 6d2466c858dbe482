// Package validation configures struct validation for request and document types.
package validation

import (
	"errors"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FieldError is one failed rule, keyed by the JSON name of the field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error collects every FieldError of one validation pass.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Code)
	}
	return "validation_failed: " + strings.Join(parts, ", ")
}

// Decimal inputs are bounded before any arithmetic sees them: at most
// MaxAmountDigits integer digits and MaxAmountScale fractional digits.
const (
	MaxAmountDigits = 12
	MaxAmountScale  = 18
)

// DecimalInBounds reports whether d fits the amount bounds. It only inspects
// the coefficient and exponent, so it stays cheap for inputs like "1e20000000".
func DecimalInBounds(d decimal.Decimal) bool {
	if d.IsZero() {
		return true
	}
	exp := int64(d.Exponent())
	if exp < -MaxAmountScale {
		return false
	}
	return int64(d.NumDigits())+exp <= MaxAmountDigits
}

// New returns a validator that reports JSON field names and compares decimal
// values numerically, so tags such as gte=0 and lte=100 apply to them.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{}, decimal.NullDecimal{})
	_ = v.RegisterValidation("money", validMoney)
	return v
}

// decimalValue maps out-of-bounds decimals to NaN, which fails money and
// every numeric comparison tag.
func decimalValue(field reflect.Value) any {
	switch d := field.Interface().(type) {
	case decimal.Decimal:
		return boundedFloat(d)
	case decimal.NullDecimal:
		if !d.Valid {
			return nil
		}
		return boundedFloat(d.Decimal)
	}
	return nil
}

func boundedFloat(d decimal.Decimal) float64 {
	if !DecimalInBounds(d) {
		return math.NaN()
	}
	f, _ := d.Float64()
	return f
}

func validMoney(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Float64 {
		return true
	}
	return !math.IsNaN(field.Float())
}

// Struct validates s and converts failures into *Error.
func Struct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Code:    fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "money":
		return "is out of range"
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	}
	return "is invalid"
}
