package shopping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealplanner/internal/core"
	"mealplanner/internal/units"
)

const tol = 1e-9

func prefs() core.Preferences {
	return core.DefaultPreferences()
}

func TestAggregateCupsAndTablespoonsToLiter(t *testing.T) {
	p := prefs()
	p.Liquid = "liter"
	list := Aggregate([]Contribution{
		{Ingredient: "Milk", Quantity: 2, Unit: "cups"},
		{Ingredient: "Milk", Quantity: 16, Unit: "tablespoons"},
	}, map[string]core.Category{"Milk": core.CategoryLiquid}, p)

	it, ok := list.Get("Milk")
	require.True(t, ok)
	total, ok := it.Total()
	require.True(t, ok, "expected a single merged quantity, got %v", it.Quantities)
	assert.Equal(t, units.Liter, total.Unit)
	assert.InDelta(t, 0.70976, total.Value, 1e-5)
	assert.Equal(t, "0.71 l", total.String())
}

func TestAggregateIncompatibleGroupsKeepPartials(t *testing.T) {
	list := Aggregate([]Contribution{
		{Ingredient: "Flour", Quantity: 500, Unit: "grams"},
		{Ingredient: "Flour", Quantity: 2, Unit: "cups"},
	}, map[string]core.Category{"Flour": core.CategoryDry}, prefs())

	it, ok := list.Get("Flour")
	require.True(t, ok)
	require.True(t, it.Mixed())
	require.Len(t, it.Quantities, 2)
	assert.Equal(t, units.Gram, it.Quantities[0].Unit)
	assert.InDelta(t, 500, it.Quantities[0].Value, tol)
	assert.True(t, it.Quantities[1].Unit.IsNone())
	assert.InDelta(t, 2, it.Quantities[1].Value, tol)
}

func TestAggregateLaterGroupsMergeIntoCompatiblePartial(t *testing.T) {
	list := Aggregate([]Contribution{
		{Ingredient: "Flour", Quantity: 500, Unit: "g"},
		{Ingredient: "Flour", Quantity: 2, Unit: "cups"},
		{Ingredient: "Flour", Quantity: 1, Unit: "kg"},
		{Ingredient: "Flour", Quantity: 3, Unit: "tbsp"},
	}, map[string]core.Category{"Flour": core.CategoryDry}, prefs())

	it, _ := list.Get("Flour")
	require.Len(t, it.Quantities, 2)
	assert.InDelta(t, 1500, it.Quantities[0].Value, tol)
	// Both volume groups fall back to plain numbers and add together.
	assert.InDelta(t, 5, it.Quantities[1].Value, tol)
}

func TestAggregateSameUnitIsOrderIndependent(t *testing.T) {
	values := []float64{0.1, 0.2, 0.3, 125, 7.25}
	forward := make([]Contribution, 0, len(values))
	backward := make([]Contribution, 0, len(values))
	for i := range values {
		forward = append(forward, Contribution{Ingredient: "Sugar", Quantity: values[i], Unit: "g"})
		backward = append(backward, Contribution{Ingredient: "Sugar", Quantity: values[len(values)-1-i], Unit: "g"})
	}
	cats := map[string]core.Category{"Sugar": core.CategoryDry}

	a, _ := Aggregate(forward, cats, prefs()).Items[0].Total()
	b, _ := Aggregate(backward, cats, prefs()).Items[0].Total()
	assert.InDelta(t, a.Value, b.Value, tol)
	assert.InDelta(t, 132.85, a.Value, tol)
}

func TestAggregateIdentity(t *testing.T) {
	list := Aggregate([]Contribution{{Ingredient: "Rice", Quantity: 100, Unit: "gram"}},
		map[string]core.Category{"Rice": core.CategoryWeight}, prefs())
	total, ok := list.Items[0].Total()
	require.True(t, ok)
	assert.Equal(t, units.New(100, units.Gram), total)
}

func TestAggregateUsesPreferenceForCategory(t *testing.T) {
	p := core.Preferences{Dry: "kilogram", Liquid: "milliliter", Weight: "pound"}
	list := Aggregate([]Contribution{
		{Ingredient: "Beef", Quantity: 16, Unit: "oz"},
		{Ingredient: "Oats", Quantity: 250, Unit: "g"},
		{Ingredient: "Mystery", Quantity: 453.59237, Unit: "g"},
	}, map[string]core.Category{"Beef": core.CategoryWeight, "Oats": core.CategoryDry}, p)

	beef, _ := list.Items[0].Total()
	assert.Equal(t, units.Pound, beef.Unit)
	assert.InDelta(t, 1, beef.Value, tol)

	oats, _ := list.Items[1].Total()
	assert.Equal(t, units.Kilogram, oats.Unit)
	assert.InDelta(t, 0.25, oats.Value, tol)

	// Unknown category falls back to the weight preference.
	mystery, _ := list.Items[2].Total()
	assert.Equal(t, units.Pound, mystery.Unit)
	assert.InDelta(t, 1, mystery.Value, tol)
}

func TestAggregateKeepsFirstSeenOrder(t *testing.T) {
	list := Aggregate([]Contribution{
		{Ingredient: "Eggs", Quantity: 2, Unit: "oz"},
		{Ingredient: "Butter", Quantity: 50, Unit: "g"},
		{Ingredient: "Eggs", Quantity: 1, Unit: "oz"},
	}, nil, prefs())

	require.Len(t, list.Items, 2)
	assert.Equal(t, "Eggs", list.Items[0].Name)
	assert.Equal(t, "Butter", list.Items[1].Name)
}

func TestAggregateUnknownUnitWarns(t *testing.T) {
	list := Aggregate([]Contribution{
		{Ingredient: "Salt", Quantity: 1, Unit: "pinch"},
		{Ingredient: "Pepper", Quantity: 2, Unit: "g"},
	}, nil, prefs())

	require.Len(t, list.Items, 1)
	assert.Equal(t, "Pepper", list.Items[0].Name)
	_, ok := list.Get("Salt")
	assert.False(t, ok)
	require.Len(t, list.Warnings, 1)
	assert.Contains(t, list.Warnings[0], "pinch")
}

func TestAggregateBadPreferenceFallsBack(t *testing.T) {
	p := core.Preferences{Dry: "gram", Liquid: "barrel", Weight: "gram"}
	list := Aggregate([]Contribution{{Ingredient: "Water", Quantity: 1, Unit: "l"}},
		map[string]core.Category{"Water": core.CategoryLiquid}, p)

	total, _ := list.Items[0].Total()
	assert.Equal(t, units.Milliliter, total.Unit)
	assert.InDelta(t, 1000, total.Value, tol)
	assert.Len(t, list.Warnings, 1)
}

func TestAggregateEmpty(t *testing.T) {
	list := Aggregate(nil, nil, prefs())
	assert.True(t, list.Empty())
	assert.Empty(t, list.Warnings)
}

func TestMergeAppendsAnyNumberOfPartials(t *testing.T) {
	var partials []units.Quantity
	partials = merge(partials, units.New(1, units.Gram))
	partials = merge(partials, units.New(1, units.Liter))
	partials = merge(partials, units.Number(3))
	partials = merge(partials, units.New(500, units.Milliliter))
	partials = merge(partials, units.Number(1))

	require.Len(t, partials, 3)
	assert.Equal(t, units.Liter, partials[1].Unit)
	assert.InDelta(t, 1.5, partials[1].Value, tol)
	assert.InDelta(t, 4, partials[2].Value, tol)
}
