package shopping

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealplanner/internal/core"
	"mealplanner/internal/units"
)

type fakeStore struct {
	user        core.User
	meals       []core.Meal
	recipes     map[int64]core.Recipe
	rows        map[int64][]core.RecipeIngredient
	ingredients []core.Ingredient
	mealsErr    error
	rowCalls    int
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (core.User, error) {
	if id != f.user.ID {
		return core.User{}, core.ErrNotFound
	}
	return f.user, nil
}

func (f *fakeStore) ListMealsBetween(_ context.Context, userID int64, from, to core.Date) ([]core.Meal, error) {
	if f.mealsErr != nil {
		return nil, f.mealsErr
	}
	var out []core.Meal
	for _, m := range f.meals {
		if m.UserID == userID && !m.Date.Before(from.Time) && !m.Date.After(to.Time) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) GetRecipe(_ context.Context, id int64) (core.Recipe, error) {
	r, ok := f.recipes[id]
	if !ok {
		return core.Recipe{}, core.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) ListRecipeIngredients(_ context.Context, recipeID int64) ([]core.RecipeIngredient, error) {
	f.rowCalls++
	return f.rows[recipeID], nil
}

func (f *fakeStore) FirstIngredientByName(_ context.Context, userID int64, name string) (core.Ingredient, error) {
	for _, i := range f.ingredients {
		if i.UserID == userID && i.Name == name {
			return i, nil
		}
	}
	return core.Ingredient{}, core.ErrNotFound
}

func ptr(v int64) *int64 { return &v }

func newFixture() *fakeStore {
	flour := core.Ingredient{ID: 1, UserID: 1, Name: "Flour", Category: core.CategoryDry}
	milk := core.Ingredient{ID: 2, UserID: 1, Name: "Milk", Category: core.CategoryLiquid}
	return &fakeStore{
		user: core.User{ID: 1, Username: "alice", Preferences: core.Preferences{Dry: "gram", Liquid: "liter", Weight: "gram"}},
		recipes: map[int64]core.Recipe{
			10: {ID: 10, UserID: 1, Name: "Pancakes"},
			11: {ID: 11, UserID: 1, Name: "Bread"},
			99: {ID: 99, UserID: 2, Name: "Not mine"},
		},
		rows: map[int64][]core.RecipeIngredient{
			10: {
				{ID: 1, RecipeID: 10, IngredientID: 1, Quantity: 200, Unit: "g", Ingredient: &flour},
				{ID: 2, RecipeID: 10, IngredientID: 2, Quantity: 2, Unit: "cups", Ingredient: &milk},
			},
			11: {
				{ID: 3, RecipeID: 11, IngredientID: 1, Quantity: 300, Unit: "grams", Ingredient: &flour},
				{ID: 4, RecipeID: 11, IngredientID: 7, Quantity: 1, Unit: "tsp"},
			},
			99: {
				{ID: 5, RecipeID: 99, IngredientID: 1, Quantity: 1, Unit: "kg", Ingredient: &flour},
			},
		},
		ingredients: []core.Ingredient{flour, milk},
	}
}

func TestBuildAggregatesMealsInRange(t *testing.T) {
	store := newFixture()
	store.meals = []core.Meal{
		{ID: 1, UserID: 1, Date: core.NewDate(2025, 3, 1), Name: "Breakfast", RecipeID: ptr(10)},
		{ID: 2, UserID: 1, Date: core.NewDate(2025, 3, 2), Name: "Lunch", RecipeID: ptr(10)},
		{ID: 3, UserID: 1, Date: core.NewDate(2025, 3, 3), Name: "Dinner", RecipeID: ptr(11)},
		{ID: 4, UserID: 1, Date: core.NewDate(2025, 3, 3), Name: "Snack"},
		{ID: 5, UserID: 1, Date: core.NewDate(2025, 3, 9), Name: "Later", RecipeID: ptr(11)},
		{ID: 6, UserID: 1, Date: core.NewDate(2025, 2, 28), Name: "Past", RecipeID: ptr(11)},
	}
	svc := NewService(store, nil)

	list, err := svc.Build(context.Background(), 1, core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 3))
	require.NoError(t, err)

	flour, ok := list.Get("Flour")
	require.True(t, ok)
	total, ok := flour.Total()
	require.True(t, ok)
	assert.Equal(t, units.Gram, total.Unit)
	assert.InDelta(t, 700, total.Value, tol)

	milk, _ := list.Get("Milk")
	total, _ = milk.Total()
	assert.Equal(t, units.Liter, total.Unit)
	assert.InDelta(t, 0.946352946, total.Value, 1e-9)

	// The dangling ingredient row is reported, not aggregated.
	require.Len(t, list.Items, 2)
	require.Len(t, list.Warnings, 1)
	assert.Contains(t, list.Warnings[0], "ingredient 7")

	// Each recipe is loaded once.
	assert.Equal(t, 2, store.rowCalls)
}

func TestBuildSelectedBeforeTodayIsEmpty(t *testing.T) {
	store := newFixture()
	store.meals = []core.Meal{{ID: 1, UserID: 1, Date: core.NewDate(2025, 3, 1), Name: "x", RecipeID: ptr(10)}}
	list, err := NewService(store, nil).Build(context.Background(), 1, core.NewDate(2025, 3, 2), core.NewDate(2025, 3, 1))
	require.NoError(t, err)
	assert.True(t, list.Empty())
}

func TestBuildNoMealsIsEmpty(t *testing.T) {
	list, err := NewService(newFixture(), nil).Build(context.Background(), 1, core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 31))
	require.NoError(t, err)
	assert.True(t, list.Empty())
	_, ok := list.Get("Flour")
	assert.False(t, ok)
}

func TestBuildSkipsMissingAndForeignRecipes(t *testing.T) {
	store := newFixture()
	store.meals = []core.Meal{
		{ID: 1, UserID: 1, Date: core.NewDate(2025, 3, 1), Name: "Gone", RecipeID: ptr(42)},
		{ID: 2, UserID: 1, Date: core.NewDate(2025, 3, 1), Name: "Foreign", RecipeID: ptr(99)},
	}
	list, err := NewService(store, nil).Build(context.Background(), 1, core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 1))
	require.NoError(t, err)
	assert.True(t, list.Empty())
	assert.Len(t, list.Warnings, 2)
}

func TestBuildReturnsMealQueryErrors(t *testing.T) {
	store := newFixture()
	store.mealsErr = errors.New("database is locked")
	_, err := NewService(store, nil).Build(context.Background(), 1, core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestBuildUnknownUser(t *testing.T) {
	_, err := NewService(newFixture(), nil).Build(context.Background(), 5, core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 2))
	assert.ErrorIs(t, err, core.ErrNotFound)
}
