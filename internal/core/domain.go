package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"mealplanner/internal/units"
)

const (
	CategoryDry    Category = "dry"
	CategoryLiquid Category = "liquid"
	CategoryWeight Category = "weight"
)

const (
	PrepStep StepKind = "prep"
	CookStep StepKind = "cook"
)

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	OtherMeal MealType = "other"
)

type (
	// Category classifies an ingredient and selects its unit family.
	Category string

	StepKind string

	MealType string

	Date struct {
		time.Time
	}

	User struct {
		ID           int64
		Username     string
		PasswordHash string
		Preferences  Preferences
		CreatedAt    time.Time
	}

	Ingredient struct {
		ID       int64
		UserID   int64
		Name     string
		Category Category
	}

	Recipe struct {
		ID       int64
		UserID   int64
		Name     string
		PrepTime string
		CookTime string
	}

	// RecipeIngredient is one quantity line of a recipe. Ingredient is nil
	// when the referenced ingredient no longer exists.
	RecipeIngredient struct {
		ID           int64
		RecipeID     int64
		IngredientID int64
		Quantity     float64
		Unit         string
		Ingredient   *Ingredient
	}

	Step struct {
		ID       int64
		RecipeID int64
		Kind     StepKind
		Text     string
	}

	Meal struct {
		ID       int64
		UserID   int64
		Date     Date
		Name     string
		Type     MealType
		RecipeID *int64
	}
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")

	ErrInvalidUsername  = errors.New("username must be between 2 and 20 characters")
	ErrEmptyPassword    = errors.New("password is required")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrInvalidName      = errors.New("name must be between 2 and 100 characters")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidTime      = errors.New("preparation and cooking time must be between 2 and 100 characters")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidUnit      = errors.New("invalid unit")
	ErrEmptyStep        = errors.New("step text is required")
	ErrInvalidStepKind  = errors.New("invalid step type")
	ErrInvalidMealType  = errors.New("invalid meal type")
	ErrInvalidDate      = errors.New("invalid date")
)

// Categories lists the valid ingredient categories in form order.
func Categories() []Category {
	return []Category{CategoryDry, CategoryLiquid, CategoryWeight}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryDry, CategoryLiquid, CategoryWeight:
		return true
	}
	return false
}

// Label is the capitalized category name used in forms.
func (c Category) Label() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// UnitChoices returns the unit names offered when adding an ingredient of
// this category to a recipe.
func (c Category) UnitChoices() []string {
	switch c {
	case CategoryDry:
		return []string{"grams", "kilograms", "milligrams", "cups", "tablespoons", "teaspoons"}
	case CategoryLiquid:
		return []string{"milliliters", "liters", "fluid ounces", "cups", "tablespoons", "teaspoons"}
	default:
		return []string{"grams", "kilograms", "milligrams", "ounces", "pounds"}
	}
}

func ParseStepKind(s string) (StepKind, error) {
	switch k := StepKind(strings.TrimSpace(s)); k {
	case PrepStep, CookStep:
		return k, nil
	}
	return "", ErrInvalidStepKind
}

// MealTypes lists the meal types in form order.
func MealTypes() []MealType {
	return []MealType{Breakfast, Lunch, Dinner, OtherMeal}
}

func (t MealType) Valid() bool {
	switch t {
	case Breakfast, Lunch, Dinner, OtherMeal:
		return true
	}
	return false
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day, keeping t's wall clock date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String returns the ISO date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// IsEmpty returns true if the date is zero (padding cell in a month grid)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (u User) Validate() error {
	return ValidateUsername(u.Username)
}

func ValidateUsername(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < 2 || n > 20 {
		return ErrInvalidUsername
	}
	return nil
}

// ValidateRegistration checks the registration form fields.
func ValidateRegistration(username, password, confirm string) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}
	if password == "" {
		return ErrEmptyPassword
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

func (i Ingredient) Validate() error {
	if !lengthBetween(i.Name, 2, 100) {
		return ErrInvalidName
	}
	if !i.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

func (r Recipe) Validate() error {
	if !lengthBetween(r.Name, 2, 100) {
		return ErrInvalidName
	}
	if !lengthBetween(r.PrepTime, 2, 100) || !lengthBetween(r.CookTime, 2, 100) {
		return ErrInvalidTime
	}
	return nil
}

// Validate checks the quantity and that the unit is in the vocabulary. The
// unit is not checked against the ingredient's category family.
func (ri RecipeIngredient) Validate() error {
	if ri.IngredientID <= 0 {
		return errors.New("ingredient is required")
	}
	if ri.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if _, err := units.Lookup(ri.Unit); err != nil {
		return ErrInvalidUnit
	}
	return nil
}

func (s Step) Validate() error {
	if strings.TrimSpace(s.Text) == "" {
		return ErrEmptyStep
	}
	if _, err := ParseStepKind(string(s.Kind)); err != nil {
		return err
	}
	return nil
}

func (m Meal) Validate() error {
	if err := m.Date.Validate(); err != nil {
		return ErrInvalidDate
	}
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("meal name is required")
	}
	if len(m.Name) > 100 {
		return errors.New("meal name too long (max 100 characters)")
	}
	if !m.Type.Valid() {
		return ErrInvalidMealType
	}
	return nil
}

func lengthBetween(s string, lo, hi int) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	return n >= lo && n <= hi
}
