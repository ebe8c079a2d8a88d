package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mealplanner/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = core.ErrNotFound
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already taken")
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// notFound maps sql.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// affected turns a zero row count into ErrNotFound.
func affected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Users

func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string) (core.User, error) {
	prefs := core.DefaultPreferences()
	u, err := r.queries.CreateUser(ctx, CreateUserParams{
		Username:            username,
		PasswordHash:        passwordHash,
		PreferredDryUnit:    prefs.Dry,
		PreferredLiquidUnit: prefs.Liquid,
		PreferredWeightUnit: prefs.Weight,
	})
	if err != nil {
		var se *sqlite.Error
		if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			return core.User{}, ErrUsernameTaken
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "id", u.ID, "username", u.Username)
	return toUser(u), nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	u, err := r.queries.GetUserByID(ctx, id)
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", id, notFound(err))
	}
	return toUser(u), nil
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	u, err := r.queries.GetUserByUsername(ctx, username)
	if err != nil {
		return core.User{}, fmt.Errorf("get user %q: %w", username, notFound(err))
	}
	return toUser(u), nil
}

func (r *SQLiteRepository) UpdatePreferences(ctx context.Context, userID int64, p core.Preferences) error {
	err := affected(r.queries.UpdateUserPreferences(ctx, UpdateUserPreferencesParams{
		PreferredDryUnit:    p.Dry,
		PreferredLiquidUnit: p.Liquid,
		PreferredWeightUnit: p.Weight,
		ID:                  userID,
	}))
	if err != nil {
		return fmt.Errorf("update preferences of user %d: %w", userID, err)
	}
	return nil
}

func toUser(u User) core.User {
	return core.User{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Preferences: core.Preferences{
			Dry:    u.PreferredDryUnit,
			Liquid: u.PreferredLiquidUnit,
			Weight: u.PreferredWeightUnit,
		},
		CreatedAt: parseTimestamp(u.CreatedAt),
	}
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.DateTime} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Ingredients

func (r *SQLiteRepository) CreateIngredient(ctx context.Context, in core.Ingredient) (core.Ingredient, error) {
	i, err := r.queries.CreateIngredient(ctx, CreateIngredientParams{
		UserID:   in.UserID,
		Name:     in.Name,
		Category: string(in.Category),
	})
	if err != nil {
		return core.Ingredient{}, fmt.Errorf("create ingredient: %w", err)
	}
	return toIngredient(i), nil
}

func (r *SQLiteRepository) GetIngredient(ctx context.Context, id int64) (core.Ingredient, error) {
	i, err := r.queries.GetIngredient(ctx, id)
	if err != nil {
		return core.Ingredient{}, fmt.Errorf("get ingredient %d: %w", id, notFound(err))
	}
	return toIngredient(i), nil
}

// FirstIngredientByName returns the user's oldest ingredient with the given
// name.
func (r *SQLiteRepository) FirstIngredientByName(ctx context.Context, userID int64, name string) (core.Ingredient, error) {
	i, err := r.queries.FirstIngredientByName(ctx, FirstIngredientByNameParams{UserID: userID, Name: name})
	if err != nil {
		return core.Ingredient{}, fmt.Errorf("find ingredient %q: %w", name, notFound(err))
	}
	return toIngredient(i), nil
}

func (r *SQLiteRepository) ListIngredients(ctx context.Context, userID int64) ([]core.Ingredient, error) {
	rows, err := r.queries.ListIngredients(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	out := make([]core.Ingredient, len(rows))
	for i, row := range rows {
		out[i] = toIngredient(row)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateIngredient(ctx context.Context, in core.Ingredient) error {
	err := affected(r.queries.UpdateIngredient(ctx, UpdateIngredientParams{
		Name:     in.Name,
		Category: string(in.Category),
		ID:       in.ID,
	}))
	if err != nil {
		return fmt.Errorf("update ingredient %d: %w", in.ID, err)
	}
	return nil
}

// DeleteIngredient removes an ingredient. Recipe lines that reference it
// are kept.
func (r *SQLiteRepository) DeleteIngredient(ctx context.Context, id int64) error {
	if err := affected(r.queries.DeleteIngredient(ctx, id)); err != nil {
		return fmt.Errorf("delete ingredient %d: %w", id, err)
	}
	return nil
}

func toIngredient(i Ingredient) core.Ingredient {
	return core.Ingredient{
		ID:       i.ID,
		UserID:   i.UserID,
		Name:     i.Name,
		Category: core.Category(i.Category),
	}
}

// Recipes

func (r *SQLiteRepository) CreateRecipe(ctx context.Context, in core.Recipe) (core.Recipe, error) {
	rec, err := r.queries.CreateRecipe(ctx, CreateRecipeParams{
		UserID:   in.UserID,
		Name:     in.Name,
		PrepTime: in.PrepTime,
		CookTime: in.CookTime,
	})
	if err != nil {
		return core.Recipe{}, fmt.Errorf("create recipe: %w", err)
	}
	return toRecipe(rec), nil
}

func (r *SQLiteRepository) GetRecipe(ctx context.Context, id int64) (core.Recipe, error) {
	rec, err := r.queries.GetRecipe(ctx, id)
	if err != nil {
		return core.Recipe{}, fmt.Errorf("get recipe %d: %w", id, notFound(err))
	}
	return toRecipe(rec), nil
}

func (r *SQLiteRepository) ListRecipes(ctx context.Context, userID int64) ([]core.Recipe, error) {
	rows, err := r.queries.ListRecipes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	out := make([]core.Recipe, len(rows))
	for i, row := range rows {
		out[i] = toRecipe(row)
	}
	return out, nil
}

// DeleteRecipe removes a recipe together with its ingredient lines, steps
// and the meals that use it.
func (r *SQLiteRepository) DeleteRecipe(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete recipe: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.DeleteRecipeIngredientsByRecipe(ctx, id); err != nil {
		return fmt.Errorf("delete ingredients of recipe %d: %w", id, err)
	}
	if err := q.DeleteStepsByRecipe(ctx, id); err != nil {
		return fmt.Errorf("delete steps of recipe %d: %w", id, err)
	}
	if err := q.DeleteMealsByRecipe(ctx, id); err != nil {
		return fmt.Errorf("delete meals of recipe %d: %w", id, err)
	}
	if err := affected(q.DeleteRecipe(ctx, id)); err != nil {
		return fmt.Errorf("delete recipe %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete recipe: %w", err)
	}

	slog.InfoContext(ctx, "Recipe deleted", "id", id)
	return nil
}

func toRecipe(r Recipe) core.Recipe {
	return core.Recipe{
		ID:       r.ID,
		UserID:   r.UserID,
		Name:     r.Name,
		PrepTime: r.PrepTime,
		CookTime: r.CookTime,
	}
}

// Recipe ingredients

func (r *SQLiteRepository) AddRecipeIngredient(ctx context.Context, in core.RecipeIngredient) (core.RecipeIngredient, error) {
	ri, err := r.queries.CreateRecipeIngredient(ctx, CreateRecipeIngredientParams{
		RecipeID:     in.RecipeID,
		IngredientID: in.IngredientID,
		Quantity:     in.Quantity,
		Unit:         in.Unit,
	})
	if err != nil {
		return core.RecipeIngredient{}, fmt.Errorf("add recipe ingredient: %w", err)
	}
	return core.RecipeIngredient{
		ID:           ri.ID,
		RecipeID:     ri.RecipeID,
		IngredientID: ri.IngredientID,
		Quantity:     ri.Quantity,
		Unit:         ri.Unit,
	}, nil
}

func (r *SQLiteRepository) GetRecipeIngredient(ctx context.Context, id int64) (core.RecipeIngredient, error) {
	row, err := r.queries.GetRecipeIngredient(ctx, id)
	if err != nil {
		return core.RecipeIngredient{}, fmt.Errorf("get recipe ingredient %d: %w", id, notFound(err))
	}
	return toRecipeIngredient(row), nil
}

// ListRecipeIngredients returns the recipe's lines in insertion order. The
// Ingredient field is nil for lines whose ingredient was deleted.
func (r *SQLiteRepository) ListRecipeIngredients(ctx context.Context, recipeID int64) ([]core.RecipeIngredient, error) {
	rows, err := r.queries.ListRecipeIngredients(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("list ingredients of recipe %d: %w", recipeID, err)
	}
	out := make([]core.RecipeIngredient, len(rows))
	for i, row := range rows {
		out[i] = toRecipeIngredient(row)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateRecipeIngredient(ctx context.Context, in core.RecipeIngredient) error {
	err := affected(r.queries.UpdateRecipeIngredient(ctx, UpdateRecipeIngredientParams{
		IngredientID: in.IngredientID,
		Quantity:     in.Quantity,
		Unit:         in.Unit,
		ID:           in.ID,
	}))
	if err != nil {
		return fmt.Errorf("update recipe ingredient %d: %w", in.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteRecipeIngredient(ctx context.Context, id int64) error {
	if err := affected(r.queries.DeleteRecipeIngredient(ctx, id)); err != nil {
		return fmt.Errorf("delete recipe ingredient %d: %w", id, err)
	}
	return nil
}

func toRecipeIngredient(row RecipeIngredientRow) core.RecipeIngredient {
	ri := core.RecipeIngredient{
		ID:           row.ID,
		RecipeID:     row.RecipeID,
		IngredientID: row.IngredientID,
		Quantity:     row.Quantity,
		Unit:         row.Unit,
	}
	if row.IngredientName.Valid {
		ri.Ingredient = &core.Ingredient{
			ID:       row.IngredientID,
			UserID:   row.IngredientUserID.Int64,
			Name:     row.IngredientName.String,
			Category: core.Category(row.IngredientCategory.String),
		}
	}
	return ri
}

// Steps

func (r *SQLiteRepository) AddStep(ctx context.Context, in core.Step) (core.Step, error) {
	s, err := r.queries.CreateStep(ctx, CreateStepParams{
		RecipeID: in.RecipeID,
		Kind:     string(in.Kind),
		Step:     in.Text,
	})
	if err != nil {
		return core.Step{}, fmt.Errorf("add %s step: %w", in.Kind, err)
	}
	return toStep(s), nil
}

func (r *SQLiteRepository) GetStep(ctx context.Context, id int64) (core.Step, error) {
	s, err := r.queries.GetStep(ctx, id)
	if err != nil {
		return core.Step{}, fmt.Errorf("get step %d: %w", id, notFound(err))
	}
	return toStep(s), nil
}

func (r *SQLiteRepository) ListSteps(ctx context.Context, recipeID int64, kind core.StepKind) ([]core.Step, error) {
	rows, err := r.queries.ListSteps(ctx, ListStepsParams{RecipeID: recipeID, Kind: string(kind)})
	if err != nil {
		return nil, fmt.Errorf("list %s steps of recipe %d: %w", kind, recipeID, err)
	}
	out := make([]core.Step, len(rows))
	for i, row := range rows {
		out[i] = toStep(row)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateStep(ctx context.Context, in core.Step) error {
	if err := affected(r.queries.UpdateStep(ctx, UpdateStepParams{Step: in.Text, ID: in.ID})); err != nil {
		return fmt.Errorf("update step %d: %w", in.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteStep(ctx context.Context, id int64) error {
	if err := affected(r.queries.DeleteStep(ctx, id)); err != nil {
		return fmt.Errorf("delete step %d: %w", id, err)
	}
	return nil
}

func toStep(s Step) core.Step {
	return core.Step{
		ID:       s.ID,
		RecipeID: s.RecipeID,
		Kind:     core.StepKind(s.Kind),
		Text:     s.Step,
	}
}

// Meals

func (r *SQLiteRepository) AddMeal(ctx context.Context, in core.Meal) (core.Meal, error) {
	var recipeID sql.NullInt64
	if in.RecipeID != nil {
		recipeID = sql.NullInt64{Int64: *in.RecipeID, Valid: true}
	}
	m, err := r.queries.CreateMeal(ctx, CreateMealParams{
		UserID:   in.UserID,
		Date:     in.Date.String(),
		Name:     in.Name,
		MealType: string(in.Type),
		RecipeID: recipeID,
	})
	if err != nil {
		return core.Meal{}, fmt.Errorf("add meal: %w", err)
	}
	return toMeal(m)
}

func (r *SQLiteRepository) GetMeal(ctx context.Context, id int64) (core.Meal, error) {
	m, err := r.queries.GetMeal(ctx, id)
	if err != nil {
		return core.Meal{}, fmt.Errorf("get meal %d: %w", id, notFound(err))
	}
	return toMeal(m)
}

// ListMealsBetween returns the user's meals from from to to, both inclusive,
// ordered by date.
func (r *SQLiteRepository) ListMealsBetween(ctx context.Context, userID int64, from, to core.Date) ([]core.Meal, error) {
	rows, err := r.queries.ListMealsBetween(ctx, ListMealsBetweenParams{
		UserID: userID,
		From:   from.String(),
		To:     to.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("list meals %s..%s: %w", from, to, err)
	}
	out := make([]core.Meal, 0, len(rows))
	for _, row := range rows {
		m, err := toMeal(row)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteMeal(ctx context.Context, id int64) error {
	if err := affected(r.queries.DeleteMeal(ctx, id)); err != nil {
		return fmt.Errorf("delete meal %d: %w", id, err)
	}
	return nil
}

func toMeal(m Meal) (core.Meal, error) {
	d, err := core.ParseDate(m.Date)
	if err != nil {
		return core.Meal{}, fmt.Errorf("meal %d has bad date %q: %w", m.ID, m.Date, err)
	}
	out := core.Meal{
		ID:     m.ID,
		UserID: m.UserID,
		Date:   d,
		Name:   m.Name,
		Type:   core.MealType(m.MealType),
	}
	if m.RecipeID.Valid {
		id := m.RecipeID.Int64
		out.RecipeID = &id
	}
	return out, nil
}
