// Package shopping builds the aggregated shopping list for a date range.
//
// Contributions are grouped by ingredient name, then by unit. Each unit
// group is converted into the user's preferred unit for the ingredient's
// category and summed. Groups that cannot be converted are summed as plain
// numbers. Results that still disagree in dimension are kept side by side
// as partial sums instead of being dropped.
package shopping

import (
	"errors"
	"fmt"

	"mealplanner/internal/core"
	"mealplanner/internal/units"
)

// Contribution is one recipe ingredient line pulled in by a scheduled meal.
type Contribution struct {
	Ingredient string
	Quantity   float64
	Unit       string
}

// Item is the aggregated quantity of one ingredient. Quantities holds a
// single element when every contribution could be merged, otherwise the
// partial sums in the order they were first produced.
type Item struct {
	Name       string
	Quantities []units.Quantity
}

// Total returns the merged quantity when the item has a single one.
func (it Item) Total() (units.Quantity, bool) {
	if len(it.Quantities) != 1 {
		return units.Quantity{}, false
	}
	return it.Quantities[0], true
}

// Mixed reports whether the item is a list of partial sums.
func (it Item) Mixed() bool {
	return len(it.Quantities) > 1
}

// List is the aggregation result. Items keep the first-seen order of
// ingredient names.
type List struct {
	Items    []Item
	Warnings []string
}

// Get returns the item for an ingredient name.
func (l List) Get(name string) (Item, bool) {
	for _, it := range l.Items {
		if it.Name == name {
			return it, true
		}
	}
	return Item{}, false
}

func (l List) Empty() bool {
	return len(l.Items) == 0
}

func (l *List) warnf(format string, args ...any) {
	l.Warnings = append(l.Warnings, fmt.Sprintf(format, args...))
}

type unitGroup struct {
	unit   units.Unit
	values []float64
}

type nameGroup struct {
	name   string
	groups []*unitGroup
}

func (n *nameGroup) add(u units.Unit, v float64) {
	for _, g := range n.groups {
		if g.unit == u {
			g.values = append(g.values, v)
			return
		}
	}
	n.groups = append(n.groups, &unitGroup{unit: u, values: []float64{v}})
}

// Aggregate merges contributions into one entry per ingredient name.
//
// categories maps ingredient names to their category. A name missing from
// the map uses the weight preference. Rows whose unit is outside the
// vocabulary are skipped and reported in List.Warnings. Aggregate never
// fails on unit mismatches.
func Aggregate(contribs []Contribution, categories map[string]core.Category, prefs core.Preferences) List {
	var list List

	var order []*nameGroup
	byName := make(map[string]*nameGroup)
	for _, c := range contribs {
		u, err := units.Lookup(c.Unit)
		if err != nil {
			list.warnf("%s: skipped %v: %v", c.Ingredient, c.Quantity, err)
			continue
		}
		ng, ok := byName[c.Ingredient]
		if !ok {
			ng = &nameGroup{name: c.Ingredient}
			byName[c.Ingredient] = ng
			order = append(order, ng)
		}
		ng.add(u, c.Quantity)
	}

	for _, ng := range order {
		pref, err := prefs.PreferredUnit(categories[ng.name])
		if err != nil {
			list.warnf("%s: preferred unit: %v, using %s", ng.name, err, pref)
		}

		var partials []units.Quantity
		for _, g := range ng.groups {
			partials = merge(partials, sumGroup(g, pref))
		}
		list.Items = append(list.Items, Item{Name: ng.name, Quantities: partials})
	}
	return list
}

// sumGroup converts every value of g into pref and sums them. When the
// group's unit cannot be converted the raw values are summed as a plain
// number.
func sumGroup(g *unitGroup, pref units.Unit) units.Quantity {
	total := units.New(0, pref)
	for _, v := range g.values {
		q, err := units.New(v, g.unit).To(pref)
		var dimErr *units.DimensionError
		if errors.As(err, &dimErr) {
			return rawSum(g.values)
		}
		total.Value += q.Value
	}
	return total
}

func rawSum(values []float64) units.Quantity {
	var s float64
	for _, v := range values {
		s += v
	}
	return units.Number(s)
}

// merge adds q into the first compatible partial sum, or appends it.
func merge(partials []units.Quantity, q units.Quantity) []units.Quantity {
	for i, p := range partials {
		if !p.Compatible(q) {
			continue
		}
		if sum, err := p.Add(q); err == nil {
			partials[i] = sum
			return partials
		}
	}
	return append(partials, q)
}
