package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
	"github.com/stretchr/testify/assert"
)

func TestRecord_ScopedPrice(t *testing.T) {
	r := Record{InstitutionalPrice: decimal.NewFromInt(500), MRP: decimal.NewFromInt(700)}
	assert.True(t, decimal.NewFromInt(500).Equal(r.ScopedPrice()))

	r.OverrideMRP = decimal.NewNullDecimal(decimal.NewFromInt(650))
	assert.True(t, decimal.NewFromInt(650).Equal(r.ScopedPrice()))

	r.OverrideInstitutionalPrice = decimal.NewNullDecimal(decimal.NewFromInt(450))
	assert.True(t, decimal.NewFromInt(450).Equal(r.ScopedPrice()))

	fields := r.MasterFields()
	assert.True(t, decimal.NewFromInt(450).Equal(fields.UnitRate))
}

func TestRecord_Matches(t *testing.T) {
	r := Record{SurgicalCategory: "Orthopedics", ImplantType: "Plate", LengthMM: "120"}

	assert.True(t, r.Matches(lineitemdomain.Scope{HospitalID: "H1"}))
	assert.True(t, r.Matches(lineitemdomain.Scope{SurgicalCategory: "orthopedics", ImplantType: " plate "}))
	assert.False(t, r.Matches(lineitemdomain.Scope{SubCategory: "Locking"}))
	assert.False(t, r.Matches(lineitemdomain.Scope{LengthMM: "90"}))
}

func TestSelect_ClearsDeeperLevels(t *testing.T) {
	scope := lineitemdomain.Scope{
		HospitalID:       "H1",
		SurgicalCategory: "Orthopedics",
		ImplantType:      "Plate",
		SubCategory:      "Locking",
		LengthMM:         "120",
	}

	got := Select(scope, LevelImplantType, "Screw")
	assert.Equal(t, "Orthopedics", got.SurgicalCategory)
	assert.Equal(t, "Screw", got.ImplantType)
	assert.Empty(t, got.SubCategory)
	assert.Empty(t, got.LengthMM)
	assert.Equal(t, "H1", got.HospitalID)

	got = Select(scope, LevelSurgicalCategory, "Spine")
	assert.Empty(t, got.ImplantType)

	got = Select(scope, LevelLengthMM, "90")
	assert.Equal(t, "Locking", got.SubCategory)
	assert.Equal(t, "90", got.LengthMM)
}

func TestParseLevelAndParents(t *testing.T) {
	level, err := ParseLevel(" Implant_Type ")
	assert.NoError(t, err)
	assert.Equal(t, LevelImplantType, level)

	_, err = ParseLevel("colour")
	assert.ErrorIs(t, err, ErrInvalidLevel)

	scope := lineitemdomain.Scope{SurgicalCategory: "Orthopedics", ImplantType: "Plate", SubCategory: "Locking"}
	assert.Equal(t, map[Level]string{LevelSurgicalCategory: "Orthopedics"}, Parents(scope, LevelImplantType))
	assert.Len(t, Parents(scope, LevelLengthMM), 3)
	assert.Empty(t, Parents(scope, LevelSurgicalCategory))
}
