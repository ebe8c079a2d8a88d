package storage

import (
	"context"
	"database/sql"
)

const createUser = `-- name: CreateUser :one
INSERT INTO users (username, password_hash, preferred_dry_unit, preferred_liquid_unit, preferred_weight_unit)
VALUES (?, ?, ?, ?, ?)
RETURNING id, username, password_hash, preferred_dry_unit, preferred_liquid_unit, preferred_weight_unit, created_at
`

type CreateUserParams struct {
	Username            string
	PasswordHash        string
	PreferredDryUnit    string
	PreferredLiquidUnit string
	PreferredWeightUnit string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.Username,
		arg.PasswordHash,
		arg.PreferredDryUnit,
		arg.PreferredLiquidUnit,
		arg.PreferredWeightUnit,
	)
	return scanUser(row)
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, username, password_hash, preferred_dry_unit, preferred_liquid_unit, preferred_weight_unit, created_at
FROM users WHERE id = ?
`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByUsername = `-- name: GetUserByUsername :one
SELECT id, username, password_hash, preferred_dry_unit, preferred_liquid_unit, preferred_weight_unit, created_at
FROM users WHERE username = ?
`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByUsername, username))
}

func scanUser(row *sql.Row) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.PasswordHash,
		&i.PreferredDryUnit,
		&i.PreferredLiquidUnit,
		&i.PreferredWeightUnit,
		&i.CreatedAt,
	)
	return i, err
}

const updateUserPreferences = `-- name: UpdateUserPreferences :execrows
UPDATE users
SET preferred_dry_unit = ?, preferred_liquid_unit = ?, preferred_weight_unit = ?
WHERE id = ?
`

type UpdateUserPreferencesParams struct {
	PreferredDryUnit    string
	PreferredLiquidUnit string
	PreferredWeightUnit string
	ID                  int64
}

func (q *Queries) UpdateUserPreferences(ctx context.Context, arg UpdateUserPreferencesParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateUserPreferences,
		arg.PreferredDryUnit,
		arg.PreferredLiquidUnit,
		arg.PreferredWeightUnit,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createIngredient = `-- name: CreateIngredient :one
INSERT INTO ingredients (user_id, name, category)
VALUES (?, ?, ?)
RETURNING id, user_id, name, category
`

type CreateIngredientParams struct {
	UserID   int64
	Name     string
	Category string
}

func (q *Queries) CreateIngredient(ctx context.Context, arg CreateIngredientParams) (Ingredient, error) {
	row := q.db.QueryRowContext(ctx, createIngredient, arg.UserID, arg.Name, arg.Category)
	var i Ingredient
	err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.Category)
	return i, err
}

const getIngredient = `-- name: GetIngredient :one
SELECT id, user_id, name, category FROM ingredients WHERE id = ?
`

func (q *Queries) GetIngredient(ctx context.Context, id int64) (Ingredient, error) {
	row := q.db.QueryRowContext(ctx, getIngredient, id)
	var i Ingredient
	err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.Category)
	return i, err
}

const firstIngredientByName = `-- name: FirstIngredientByName :one
SELECT id, user_id, name, category FROM ingredients
WHERE user_id = ? AND name = ?
ORDER BY id
LIMIT 1
`

type FirstIngredientByNameParams struct {
	UserID int64
	Name   string
}

func (q *Queries) FirstIngredientByName(ctx context.Context, arg FirstIngredientByNameParams) (Ingredient, error) {
	row := q.db.QueryRowContext(ctx, firstIngredientByName, arg.UserID, arg.Name)
	var i Ingredient
	err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.Category)
	return i, err
}

const listIngredients = `-- name: ListIngredients :many
SELECT id, user_id, name, category FROM ingredients
WHERE user_id = ?
ORDER BY name COLLATE NOCASE, id
`

func (q *Queries) ListIngredients(ctx context.Context, userID int64) ([]Ingredient, error) {
	rows, err := q.db.QueryContext(ctx, listIngredients, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Ingredient
	for rows.Next() {
		var i Ingredient
		if err := rows.Scan(&i.ID, &i.UserID, &i.Name, &i.Category); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateIngredient = `-- name: UpdateIngredient :execrows
UPDATE ingredients SET name = ?, category = ? WHERE id = ?
`

type UpdateIngredientParams struct {
	Name     string
	Category string
	ID       int64
}

func (q *Queries) UpdateIngredient(ctx context.Context, arg UpdateIngredientParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateIngredient, arg.Name, arg.Category, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteIngredient = `-- name: DeleteIngredient :execrows
DELETE FROM ingredients WHERE id = ?
`

func (q *Queries) DeleteIngredient(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteIngredient, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createRecipe = `-- name: CreateRecipe :one
INSERT INTO recipes (user_id, name, prep_time, cook_time)
VALUES (?, ?, ?, ?)
RETURNING id, user_id, name, prep_time, cook_time
`

type CreateRecipeParams struct {
	UserID   int64
	Name     string
	PrepTime string
	CookTime string
}

func (q *Queries) CreateRecipe(ctx context.Context, arg CreateRecipeParams) (Recipe, error) {
	row := q.db.QueryRowContext(ctx, createRecipe, arg.UserID, arg.Name, arg.PrepTime, arg.CookTime)
	var i Recipe
	err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.PrepTime, &i.CookTime)
	return i, err
}

const getRecipe = `-- name: GetRecipe :one
SELECT id, user_id, name, prep_time, cook_time FROM recipes WHERE id = ?
`

func (q *Queries) GetRecipe(ctx context.Context, id int64) (Recipe, error) {
	row := q.db.QueryRowContext(ctx, getRecipe, id)
	var i Recipe
	err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.PrepTime, &i.CookTime)
	return i, err
}

const listRecipes = `-- name: ListRecipes :many
SELECT id, user_id, name, prep_time, cook_time FROM recipes
WHERE user_id = ?
ORDER BY name COLLATE NOCASE, id
`

func (q *Queries) ListRecipes(ctx context.Context, userID int64) ([]Recipe, error) {
	rows, err := q.db.QueryContext(ctx, listRecipes, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Recipe
	for rows.Next() {
		var i Recipe
		if err := rows.Scan(&i.ID, &i.UserID, &i.Name, &i.PrepTime, &i.CookTime); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteRecipe = `-- name: DeleteRecipe :execrows
DELETE FROM recipes WHERE id = ?
`

func (q *Queries) DeleteRecipe(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRecipe, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteRecipeIngredientsByRecipe = `-- name: DeleteRecipeIngredientsByRecipe :exec
DELETE FROM recipe_ingredients WHERE recipe_id = ?
`

func (q *Queries) DeleteRecipeIngredientsByRecipe(ctx context.Context, recipeID int64) error {
	_, err := q.db.ExecContext(ctx, deleteRecipeIngredientsByRecipe, recipeID)
	return err
}

const deleteStepsByRecipe = `-- name: DeleteStepsByRecipe :exec
DELETE FROM steps WHERE recipe_id = ?
`

func (q *Queries) DeleteStepsByRecipe(ctx context.Context, recipeID int64) error {
	_, err := q.db.ExecContext(ctx, deleteStepsByRecipe, recipeID)
	return err
}

const deleteMealsByRecipe = `-- name: DeleteMealsByRecipe :exec
DELETE FROM meals WHERE recipe_id = ?
`

func (q *Queries) DeleteMealsByRecipe(ctx context.Context, recipeID int64) error {
	_, err := q.db.ExecContext(ctx, deleteMealsByRecipe, recipeID)
	return err
}

const createRecipeIngredient = `-- name: CreateRecipeIngredient :one
INSERT INTO recipe_ingredients (recipe_id, ingredient_id, quantity, unit)
VALUES (?, ?, ?, ?)
RETURNING id, recipe_id, ingredient_id, quantity, unit
`

type CreateRecipeIngredientParams struct {
	RecipeID     int64
	IngredientID int64
	Quantity     float64
	Unit         string
}

func (q *Queries) CreateRecipeIngredient(ctx context.Context, arg CreateRecipeIngredientParams) (RecipeIngredient, error) {
	row := q.db.QueryRowContext(ctx, createRecipeIngredient, arg.RecipeID, arg.IngredientID, arg.Quantity, arg.Unit)
	var i RecipeIngredient
	err := row.Scan(&i.ID, &i.RecipeID, &i.IngredientID, &i.Quantity, &i.Unit)
	return i, err
}

const getRecipeIngredient = `-- name: GetRecipeIngredient :one
SELECT ri.id, ri.recipe_id, ri.ingredient_id, ri.quantity, ri.unit,
       i.user_id, i.name, i.category
FROM recipe_ingredients ri
LEFT JOIN ingredients i ON i.id = ri.ingredient_id
WHERE ri.id = ?
`

func (q *Queries) GetRecipeIngredient(ctx context.Context, id int64) (RecipeIngredientRow, error) {
	row := q.db.QueryRowContext(ctx, getRecipeIngredient, id)
	var i RecipeIngredientRow
	err := row.Scan(
		&i.ID,
		&i.RecipeID,
		&i.IngredientID,
		&i.Quantity,
		&i.Unit,
		&i.IngredientUserID,
		&i.IngredientName,
		&i.IngredientCategory,
	)
	return i, err
}

const listRecipeIngredients = `-- name: ListRecipeIngredients :many
SELECT ri.id, ri.recipe_id, ri.ingredient_id, ri.quantity, ri.unit,
       i.user_id, i.name, i.category
FROM recipe_ingredients ri
LEFT JOIN ingredients i ON i.id = ri.ingredient_id
WHERE ri.recipe_id = ?
ORDER BY ri.id
`

func (q *Queries) ListRecipeIngredients(ctx context.Context, recipeID int64) ([]RecipeIngredientRow, error) {
	rows, err := q.db.QueryContext(ctx, listRecipeIngredients, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecipeIngredientRow
	for rows.Next() {
		var i RecipeIngredientRow
		if err := rows.Scan(
			&i.ID,
			&i.RecipeID,
			&i.IngredientID,
			&i.Quantity,
			&i.Unit,
			&i.IngredientUserID,
			&i.IngredientName,
			&i.IngredientCategory,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateRecipeIngredient = `-- name: UpdateRecipeIngredient :execrows
UPDATE recipe_ingredients SET ingredient_id = ?, quantity = ?, unit = ? WHERE id = ?
`

type UpdateRecipeIngredientParams struct {
	IngredientID int64
	Quantity     float64
	Unit         string
	ID           int64
}

func (q *Queries) UpdateRecipeIngredient(ctx context.Context, arg UpdateRecipeIngredientParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateRecipeIngredient, arg.IngredientID, arg.Quantity, arg.Unit, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteRecipeIngredient = `-- name: DeleteRecipeIngredient :execrows
DELETE FROM recipe_ingredients WHERE id = ?
`

func (q *Queries) DeleteRecipeIngredient(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRecipeIngredient, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createStep = `-- name: CreateStep :one
INSERT INTO steps (recipe_id, kind, step)
VALUES (?, ?, ?)
RETURNING id, recipe_id, kind, step
`

type CreateStepParams struct {
	RecipeID int64
	Kind     string
	Step     string
}

func (q *Queries) CreateStep(ctx context.Context, arg CreateStepParams) (Step, error) {
	row := q.db.QueryRowContext(ctx, createStep, arg.RecipeID, arg.Kind, arg.Step)
	var i Step
	err := row.Scan(&i.ID, &i.RecipeID, &i.Kind, &i.Step)
	return i, err
}

const getStep = `-- name: GetStep :one
SELECT id, recipe_id, kind, step FROM steps WHERE id = ?
`

func (q *Queries) GetStep(ctx context.Context, id int64) (Step, error) {
	row := q.db.QueryRowContext(ctx, getStep, id)
	var i Step
	err := row.Scan(&i.ID, &i.RecipeID, &i.Kind, &i.Step)
	return i, err
}

const listSteps = `-- name: ListSteps :many
SELECT id, recipe_id, kind, step FROM steps
WHERE recipe_id = ? AND kind = ?
ORDER BY id
`

type ListStepsParams struct {
	RecipeID int64
	Kind     string
}

func (q *Queries) ListSteps(ctx context.Context, arg ListStepsParams) ([]Step, error) {
	rows, err := q.db.QueryContext(ctx, listSteps, arg.RecipeID, arg.Kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Step
	for rows.Next() {
		var i Step
		if err := rows.Scan(&i.ID, &i.RecipeID, &i.Kind, &i.Step); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateStep = `-- name: UpdateStep :execrows
UPDATE steps SET step = ? WHERE id = ?
`

type UpdateStepParams struct {
	Step string
	ID   int64
}

func (q *Queries) UpdateStep(ctx context.Context, arg UpdateStepParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateStep, arg.Step, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteStep = `-- name: DeleteStep :execrows
DELETE FROM steps WHERE id = ?
`

func (q *Queries) DeleteStep(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteStep, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createMeal = `-- name: CreateMeal :one
INSERT INTO meals (user_id, date, name, meal_type, recipe_id)
VALUES (?, ?, ?, ?, ?)
RETURNING id, user_id, date, name, meal_type, recipe_id
`

type CreateMealParams struct {
	UserID   int64
	Date     string
	Name     string
	MealType string
	RecipeID sql.NullInt64
}

func (q *Queries) CreateMeal(ctx context.Context, arg CreateMealParams) (Meal, error) {
	row := q.db.QueryRowContext(ctx, createMeal, arg.UserID, arg.Date, arg.Name, arg.MealType, arg.RecipeID)
	var i Meal
	err := row.Scan(&i.ID, &i.UserID, &i.Date, &i.Name, &i.MealType, &i.RecipeID)
	return i, err
}

const getMeal = `-- name: GetMeal :one
SELECT id, user_id, date, name, meal_type, recipe_id FROM meals WHERE id = ?
`

func (q *Queries) GetMeal(ctx context.Context, id int64) (Meal, error) {
	row := q.db.QueryRowContext(ctx, getMeal, id)
	var i Meal
	err := row.Scan(&i.ID, &i.UserID, &i.Date, &i.Name, &i.MealType, &i.RecipeID)
	return i, err
}

const listMealsBetween = `-- name: ListMealsBetween :many
SELECT id, user_id, date, name, meal_type, recipe_id FROM meals
WHERE user_id = ? AND date >= ? AND date <= ?
ORDER BY date, id
`

type ListMealsBetweenParams struct {
	UserID int64
	From   string
	To     string
}

func (q *Queries) ListMealsBetween(ctx context.Context, arg ListMealsBetweenParams) ([]Meal, error) {
	rows, err := q.db.QueryContext(ctx, listMealsBetween, arg.UserID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Meal
	for rows.Next() {
		var i Meal
		if err := rows.Scan(&i.ID, &i.UserID, &i.Date, &i.Name, &i.MealType, &i.RecipeID); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteMeal = `-- name: DeleteMeal :execrows
DELETE FROM meals WHERE id = ?
`

func (q *Queries) DeleteMeal(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteMeal, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
