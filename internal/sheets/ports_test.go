package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mealplanner/internal/core"
	"mealplanner/internal/shopping"
	"mealplanner/internal/units"
)

func TestExportTabTitle(t *testing.T) {
	e := Export{Username: " chef/one ", From: core.NewDate(2025, 12, 30), To: core.NewDate(2026, 1, 2)}
	assert.Equal(t, "chef_one 2025-12-30..2026-01-02", e.TabTitle())
}

func TestExportRows(t *testing.T) {
	e := Export{List: shopping.List{Items: []shopping.Item{
		{Name: "rice", Quantities: []units.Quantity{units.New(1.25, units.Kilogram)}},
		{Name: "eggs", Quantities: []units.Quantity{units.Number(6), units.New(100, units.Gram)}},
	}}}

	assert.Equal(t, [][]string{
		{"Ingredient", "Quantity", "Unit"},
		{"rice", "1.25", "kilogram"},
		{"eggs", "6", ""},
		{"eggs", "100", "gram"},
	}, e.Rows())

	assert.Equal(t, [][]string{Header}, Export{}.Rows())
}
