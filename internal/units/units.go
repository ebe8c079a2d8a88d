// Package units defines the cooking unit vocabulary, grouped by dimension,
// and quantity conversion between units of the same dimension.
//
// Conversion goes through each dimension's base unit (gram for mass,
// milliliter for volume). Volume units are US customary.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Dimension groups units that can be converted into one another.
type Dimension string

const (
	None   Dimension = ""
	Mass   Dimension = "mass"
	Volume Dimension = "volume"
)

func (d Dimension) String() string {
	if d == None {
		return "dimensionless"
	}
	return string(d)
}

// Unit is a single entry of the vocabulary. The zero Unit is the
// dimensionless unit used for plain numbers.
type Unit struct {
	Name      string
	Symbol    string
	Dimension Dimension
	factor    float64 // multiples of the dimension's base unit
}

// IsNone reports whether u is the dimensionless unit.
func (u Unit) IsNone() bool {
	return u.Dimension == None
}

func (u Unit) String() string {
	if u.IsNone() {
		return "dimensionless"
	}
	return u.Name
}

var (
	Milligram = Unit{Name: "milligram", Symbol: "mg", Dimension: Mass, factor: 0.001}
	Gram      = Unit{Name: "gram", Symbol: "g", Dimension: Mass, factor: 1}
	Kilogram  = Unit{Name: "kilogram", Symbol: "kg", Dimension: Mass, factor: 1000}
	Ounce     = Unit{Name: "ounce", Symbol: "oz", Dimension: Mass, factor: 28.349523125}
	Pound     = Unit{Name: "pound", Symbol: "lb", Dimension: Mass, factor: 453.59237}

	Milliliter = Unit{Name: "milliliter", Symbol: "ml", Dimension: Volume, factor: 1}
	Liter      = Unit{Name: "liter", Symbol: "l", Dimension: Volume, factor: 1000}
	Cup        = Unit{Name: "cup", Symbol: "cup", Dimension: Volume, factor: 236.5882365}
	Tablespoon = Unit{Name: "tablespoon", Symbol: "tbsp", Dimension: Volume, factor: 14.78676478125}
	Teaspoon   = Unit{Name: "teaspoon", Symbol: "tsp", Dimension: Volume, factor: 4.92892159375}
	FluidOunce = Unit{Name: "fluid_ounce", Symbol: "fl oz", Dimension: Volume, factor: 29.5735295625}
)

var vocabulary = []Unit{
	Milligram, Gram, Kilogram, Ounce, Pound,
	Milliliter, Liter, Cup, Tablespoon, Teaspoon, FluidOunce,
}

// aliases maps normalized spellings to canonical unit names.
var aliases = map[string]Unit{
	"mg": Milligram, "milligram": Milligram, "milligrams": Milligram,
	"g": Gram, "gram": Gram, "grams": Gram, "gr": Gram,
	"kg": Kilogram, "kilogram": Kilogram, "kilograms": Kilogram,
	"oz": Ounce, "ounce": Ounce, "ounces": Ounce,
	"lb": Pound, "lbs": Pound, "pound": Pound, "pounds": Pound,

	"ml": Milliliter, "milliliter": Milliliter, "milliliters": Milliliter,
	"millilitre": Milliliter, "millilitres": Milliliter,
	"l": Liter, "liter": Liter, "liters": Liter, "litre": Liter, "litres": Liter,
	"cup": Cup, "cups": Cup,
	"tbsp": Tablespoon, "tablespoon": Tablespoon, "tablespoons": Tablespoon,
	"tsp": Teaspoon, "teaspoon": Teaspoon, "teaspoons": Teaspoon,
	"fl oz": FluidOunce, "floz": FluidOunce, "fluid ounce": FluidOunce, "fluid ounces": FluidOunce,
}

// UnknownUnitError is returned for unit names outside the vocabulary.
type UnknownUnitError struct {
	Name string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("unknown unit %q", e.Name)
}

// DimensionError is returned when converting or adding across dimensions.
type DimensionError struct {
	From, To Unit
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("cannot convert %s (%s) to %s (%s)",
		e.From, e.From.Dimension, e.To, e.To.Dimension)
}

// Lookup resolves a unit name, symbol or common plural to its Unit.
func Lookup(name string) (Unit, error) {
	u, ok := aliases[normalize(name)]
	if !ok {
		return Unit{}, &UnknownUnitError{Name: name}
	}
	return u, nil
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(name string) Unit {
	u, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return u
}

// All returns the vocabulary, mass units first.
func All() []Unit {
	return append([]Unit(nil), vocabulary...)
}

// ByDimension returns the vocabulary units of dimension d.
func ByDimension(d Dimension) []Unit {
	var out []Unit
	for _, u := range vocabulary {
		if u.Dimension == d {
			out = append(out, u)
		}
	}
	return out
}

func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.NewReplacer("_", " ", "-", " ", ".", "").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// Quantity is a magnitude with a unit.
type Quantity struct {
	Value float64
	Unit  Unit
}

// New returns a quantity of v in unit u.
func New(v float64, u Unit) Quantity {
	return Quantity{Value: v, Unit: u}
}

// Number returns a dimensionless quantity.
func Number(v float64) Quantity {
	return Quantity{Value: v}
}

// To converts q into unit u.
func (q Quantity) To(u Unit) (Quantity, error) {
	if q.Unit.Dimension != u.Dimension {
		return Quantity{}, &DimensionError{From: q.Unit, To: u}
	}
	if q.Unit == u || u.IsNone() {
		return Quantity{Value: q.Value, Unit: u}, nil
	}
	return Quantity{Value: q.Value * q.Unit.factor / u.factor, Unit: u}, nil
}

// Add returns q+o expressed in q's unit.
func (q Quantity) Add(o Quantity) (Quantity, error) {
	conv, err := o.To(q.Unit)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: q.Value + conv.Value, Unit: q.Unit}, nil
}

// Compatible reports whether q and o share a dimension.
func (q Quantity) Compatible(o Quantity) bool {
	return q.Unit.Dimension == o.Unit.Dimension
}

// FormatValue renders v with at most three decimals and no trailing zeros.
func FormatValue(v float64) string {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func (q Quantity) String() string {
	if q.Unit.IsNone() {
		return FormatValue(q.Value)
	}
	return FormatValue(q.Value) + " " + q.Unit.Symbol
}
