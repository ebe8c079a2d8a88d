package core

import (
	"fmt"

	"mealplanner/internal/units"
)

// Preferences holds the unit each category is aggregated into.
type Preferences struct {
	Dry    string
	Liquid string
	Weight string
}

// Choice is a value/label pair for select fields.
type Choice struct {
	Value string
	Label string
}

var (
	DryUnitChoices = []Choice{
		{"milligrams", "Milligrams"},
		{"gram", "Gram"},
		{"kilogram", "Kilogram"},
		{"pound", "Pound"},
		{"ounce", "Ounce"},
		{"tablespoons", "Tablespoons"},
		{"teaspoons", "Teaspoons"},
	}
	LiquidUnitChoices = []Choice{
		{"milliliter", "Milliliter"},
		{"liter", "Liter"},
		{"cup", "Cup"},
		{"fluid_ounce", "Fluid Ounce"},
	}
	WeightUnitChoices = []Choice{
		{"milligrams", "Milligrams"},
		{"gram", "Gram"},
		{"kilogram", "Kilogram"},
		{"pound", "Pound"},
		{"ounce", "Ounce"},
	}
)

// DefaultPreferences are assigned to new users.
func DefaultPreferences() Preferences {
	return Preferences{Dry: "gram", Liquid: "milliliter", Weight: "gram"}
}

// UnitFor returns the preferred unit name for a category. Anything that is
// not dry or liquid uses the weight preference.
func (p Preferences) UnitFor(c Category) string {
	switch c {
	case CategoryDry:
		return p.Dry
	case CategoryLiquid:
		return p.Liquid
	default:
		return p.Weight
	}
}

// PreferredUnit resolves the preferred unit for c. An unresolvable setting
// falls back to the default preference for that category and reports the
// lookup error alongside.
func (p Preferences) PreferredUnit(c Category) (units.Unit, error) {
	u, err := units.Lookup(p.UnitFor(c))
	if err == nil {
		return u, nil
	}
	return units.MustLookup(DefaultPreferences().UnitFor(c)), err
}

func (p Preferences) Validate() error {
	fields := []struct {
		name    string
		value   string
		choices []Choice
	}{
		{"dry", p.Dry, DryUnitChoices},
		{"liquid", p.Liquid, LiquidUnitChoices},
		{"weight", p.Weight, WeightUnitChoices},
	}
	for _, f := range fields {
		if !hasChoice(f.choices, f.value) {
			return fmt.Errorf("invalid preferred %s unit %q", f.name, f.value)
		}
	}
	return nil
}

func hasChoice(choices []Choice, v string) bool {
	for _, c := range choices {
		if c.Value == v {
			return true
		}
	}
	return false
}
