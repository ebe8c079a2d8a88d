package storage

import (
	"database/sql"
)

type User struct {
	ID                  int64
	Username            string
	PasswordHash        string
	PreferredDryUnit    string
	PreferredLiquidUnit string
	PreferredWeightUnit string
	CreatedAt           string
}

type Ingredient struct {
	ID       int64
	UserID   int64
	Name     string
	Category string
}

type Recipe struct {
	ID       int64
	UserID   int64
	Name     string
	PrepTime string
	CookTime string
}

type RecipeIngredient struct {
	ID           int64
	RecipeID     int64
	IngredientID int64
	Quantity     float64
	Unit         string
}

// RecipeIngredientRow is a recipe ingredient joined with its ingredient.
// The ingredient columns are NULL when the ingredient was deleted.
type RecipeIngredientRow struct {
	ID                 int64
	RecipeID           int64
	IngredientID       int64
	Quantity           float64
	Unit               string
	IngredientUserID   sql.NullInt64
	IngredientName     sql.NullString
	IngredientCategory sql.NullString
}

type Step struct {
	ID       int64
	RecipeID int64
	Kind     string
	Step     string
}

type Meal struct {
	ID       int64
	UserID   int64
	Date     string
	Name     string
	MealType string
	RecipeID sql.NullInt64
}
