package shopping

import (
	"context"
	"errors"
	"fmt"

	"mealplanner/internal/core"
	"mealplanner/internal/log"
)

// Store is the read side the shopping list is built from.
type Store interface {
	GetUserByID(ctx context.Context, id int64) (core.User, error)
	ListMealsBetween(ctx context.Context, userID int64, from, to core.Date) ([]core.Meal, error)
	GetRecipe(ctx context.Context, id int64) (core.Recipe, error)
	ListRecipeIngredients(ctx context.Context, recipeID int64) ([]core.RecipeIngredient, error)
	FirstIngredientByName(ctx context.Context, userID int64, name string) (core.Ingredient, error)
}

// Service builds shopping lists from the meals stored for a user.
type Service struct {
	store  Store
	logger *log.Logger
}

func NewService(store Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Service{store: store, logger: logger.WithComponent(log.ComponentShopping)}
}

// Build aggregates the ingredients of every meal the user scheduled between
// today and selected, both inclusive. A selected date before today yields an
// empty list.
func (s *Service) Build(ctx context.Context, userID int64, today, selected core.Date) (List, error) {
	if selected.Before(today.Time) {
		return List{}, nil
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return List{}, fmt.Errorf("load user %d: %w", userID, err)
	}

	meals, err := s.store.ListMealsBetween(ctx, userID, today, selected)
	if err != nil {
		return List{}, fmt.Errorf("list meals: %w", err)
	}

	var (
		contribs []Contribution
		warnings []string
		byRecipe = make(map[int64][]core.RecipeIngredient)
	)
	for _, m := range meals {
		if m.RecipeID == nil {
			continue
		}
		rows, ok := byRecipe[*m.RecipeID]
		if !ok {
			rows, err = s.recipeRows(ctx, userID, *m.RecipeID)
			if errors.Is(err, core.ErrNotFound) {
				warnings = append(warnings, fmt.Sprintf("meal %q on %s: recipe %d no longer exists", m.Name, m.Date, *m.RecipeID))
				byRecipe[*m.RecipeID] = nil
				continue
			}
			if err != nil {
				return List{}, err
			}
			byRecipe[*m.RecipeID] = rows
		}
		for _, ri := range rows {
			if ri.Ingredient == nil {
				warnings = append(warnings, fmt.Sprintf("recipe %d: ingredient %d no longer exists", ri.RecipeID, ri.IngredientID))
				continue
			}
			contribs = append(contribs, Contribution{
				Ingredient: ri.Ingredient.Name,
				Quantity:   ri.Quantity,
				Unit:       ri.Unit,
			})
		}
	}

	categories := make(map[string]core.Category)
	for _, c := range contribs {
		if _, ok := categories[c.Ingredient]; ok {
			continue
		}
		ing, err := s.store.FirstIngredientByName(ctx, userID, c.Ingredient)
		switch {
		case errors.Is(err, core.ErrNotFound):
			categories[c.Ingredient] = ""
		case err != nil:
			return List{}, fmt.Errorf("lookup ingredient %q: %w", c.Ingredient, err)
		default:
			categories[c.Ingredient] = ing.Category
		}
	}

	list := Aggregate(contribs, categories, user.Preferences)
	list.Warnings = append(warnings, list.Warnings...)

	for _, w := range list.Warnings {
		s.logger.WarnContext(ctx, "Shopping list contribution skipped",
			log.FieldUserID, userID,
			log.FieldError, w)
	}
	log.NewStructuredLogger(s.logger).LogShoppingListBuilt(ctx, userID, today.String(), selected.String(), len(list.Items), len(list.Warnings))

	return list, nil
}

func (s *Service) recipeRows(ctx context.Context, userID, recipeID int64) ([]core.RecipeIngredient, error) {
	recipe, err := s.store.GetRecipe(ctx, recipeID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load recipe %d: %w", recipeID, err)
	}
	if recipe.UserID != userID {
		return nil, core.ErrNotFound
	}
	rows, err := s.store.ListRecipeIngredients(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("list ingredients of recipe %d: %w", recipeID, err)
	}
	return rows, nil
}
