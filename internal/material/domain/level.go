package domain

import (
	"strings"

	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
)

// Level is one step of the classification cascade used to browse materials.
type Level string

const (
	LevelSurgicalCategory Level = "surgical_category"
	LevelImplantType      Level = "implant_type"
	LevelSubCategory      Level = "sub_category"
	LevelLengthMM         Level = "length_mm"
)

// Levels lists the cascade from the broadest level down.
var Levels = []Level{LevelSurgicalCategory, LevelImplantType, LevelSubCategory, LevelLengthMM}

func ParseLevel(value string) (Level, error) {
	level := Level(strings.ToLower(strings.TrimSpace(value)))
	if level.Depth() < 0 {
		return "", ErrInvalidLevel
	}
	return level, nil
}

// Depth is the zero-based position of l in the cascade, or -1.
func (l Level) Depth() int {
	for i, level := range Levels {
		if level == l {
			return i
		}
	}
	return -1
}

// Column is the materials column backing l.
func (l Level) Column() string {
	return string(l)
}

// Value returns the filter scope holds for l.
func (l Level) Value(scope lineitemdomain.Scope) string {
	switch l {
	case LevelSurgicalCategory:
		return scope.SurgicalCategory
	case LevelImplantType:
		return scope.ImplantType
	case LevelSubCategory:
		return scope.SubCategory
	case LevelLengthMM:
		return scope.LengthMM
	}
	return ""
}

// Select sets level to value and clears every deeper level.
func Select(scope lineitemdomain.Scope, level Level, value string) lineitemdomain.Scope {
	value = strings.TrimSpace(value)
	switch level {
	case LevelSurgicalCategory:
		scope.SurgicalCategory = value
		scope.ImplantType, scope.SubCategory, scope.LengthMM = "", "", ""
	case LevelImplantType:
		scope.ImplantType = value
		scope.SubCategory, scope.LengthMM = "", ""
	case LevelSubCategory:
		scope.SubCategory = value
		scope.LengthMM = ""
	case LevelLengthMM:
		scope.LengthMM = value
	}
	return scope
}

// Parents returns the levels above l that scope constrains, with their values.
func Parents(scope lineitemdomain.Scope, l Level) map[Level]string {
	out := make(map[Level]string)
	for _, level := range Levels[:max(l.Depth(), 0)] {
		if v := strings.TrimSpace(level.Value(scope)); v != "" {
			out[level] = v
		}
	}
	return out
}
