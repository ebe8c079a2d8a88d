package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"mealplanner/internal/core"
	"mealplanner/internal/log"
)

var errForeignIngredient = errors.New("please choose one of your ingredients")

func recipePath(id int64) string {
	return "/recipes/" + strconv.FormatInt(id, 10)
}

func (s *Server) handleRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := s.store.ListRecipes(r.Context(), currentUser(r).UserID)
	if err != nil {
		s.serverError(w, r, "Failed to list recipes", err)
		return
	}
	s.render(w, r, http.StatusOK, "recipes.html", pageData{Title: "Recipes", Data: recipes})
}

func (s *Server) handleNewRecipeForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "create_recipe.html", pageData{Title: "New Recipe", Data: core.Recipe{}})
}

func (s *Server) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	user := currentUser(r)
	in := core.Recipe{
		UserID:   user.UserID,
		Name:     sanitizeInput(r.PostForm.Get("name")),
		PrepTime: sanitizeInput(r.PostForm.Get("prep_time")),
		CookTime: sanitizeInput(r.PostForm.Get("cook_time")),
	}
	if err := in.Validate(); err != nil {
		s.render(w, r, http.StatusUnprocessableEntity, "create_recipe.html", pageData{
			Title: "New Recipe",
			Error: validationMessage(err),
			Data:  in,
		})
		return
	}

	rec, err := s.store.CreateRecipe(r.Context(), in)
	if err != nil {
		s.serverError(w, r, "Failed to create recipe", err)
		return
	}
	s.changed(user.UserID)

	log.FromContext(r.Context()).InfoContext(r.Context(), "Recipe created",
		log.FieldUserID, user.UserID,
		"recipe_id", rec.ID,
		log.FieldOperation, log.OpCreate)
	redirectWithFlash(w, r, "/recipes", "success", "Your recipe has been created!")
}

// recipeIngredientForm holds the raw values of the add/edit line form.
type recipeIngredientForm struct {
	IngredientID int64
	Quantity     string
	Unit         string
}

type recipePage struct {
	Recipe      core.Recipe
	Ingredients []core.RecipeIngredient
	PrepSteps   []core.Step
	CookSteps   []core.Step
	Choices     []core.Ingredient
	Units       []string
	Form        recipeIngredientForm
}

// unitsFor returns the unit choices of the selected ingredient, or of the
// first choice when nothing is selected.
func unitsFor(choices []core.Ingredient, selected int64) []string {
	for _, c := range choices {
		if c.ID == selected {
			return c.Category.UnitChoices()
		}
	}
	if len(choices) > 0 {
		return choices[0].Category.UnitChoices()
	}
	return core.CategoryDry.UnitChoices()
}

func (s *Server) renderRecipe(w http.ResponseWriter, r *http.Request, status int, rec core.Recipe, form recipeIngredientForm, formErr string) {
	ctx := r.Context()
	lines, err := s.store.ListRecipeIngredients(ctx, rec.ID)
	if err != nil {
		s.serverError(w, r, "Failed to list recipe ingredients", err)
		return
	}
	prep, err := s.store.ListSteps(ctx, rec.ID, core.PrepStep)
	if err != nil {
		s.serverError(w, r, "Failed to list preparation steps", err)
		return
	}
	cook, err := s.store.ListSteps(ctx, rec.ID, core.CookStep)
	if err != nil {
		s.serverError(w, r, "Failed to list cooking steps", err)
		return
	}
	choices, err := s.store.ListIngredients(ctx, rec.UserID)
	if err != nil {
		s.serverError(w, r, "Failed to list ingredients", err)
		return
	}

	s.render(w, r, status, "recipe.html", pageData{
		Title: rec.Name,
		Error: formErr,
		Data: recipePage{
			Recipe:      rec,
			Ingredients: lines,
			PrepSteps:   prep,
			CookSteps:   cook,
			Choices:     choices,
			Units:       unitsFor(choices, form.IngredientID),
			Form:        form,
		},
	})
}

func (s *Server) handleRecipe(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.ownedRecipe(w, r)
	if !ok {
		return
	}
	s.renderRecipe(w, r, http.StatusOK, rec, recipeIngredientForm{}, "")
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.ownedRecipe(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteRecipe(r.Context(), rec.ID); err != nil {
		s.serverError(w, r, "Failed to delete recipe", err)
		return
	}
	s.changed(rec.UserID)
	redirectWithFlash(w, r, "/recipes", "success", "Your recipe has been deleted!")
}

// parseRecipeIngredient reads and validates the line form. The chosen
// ingredient must belong to userID.
func (s *Server) parseRecipeIngredient(r *http.Request, userID int64) (core.RecipeIngredient, recipeIngredientForm, error) {
	form := recipeIngredientForm{
		Quantity: sanitizeInput(r.PostForm.Get("quantity")),
		Unit:     sanitizeInput(r.PostForm.Get("unit")),
	}
	id, err := formInt64(r, "ingredient_id")
	if err != nil || id == 0 {
		return core.RecipeIngredient{}, form, errForeignIngredient
	}
	form.IngredientID = id

	ing, err := s.store.GetIngredient(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) || (err == nil && ing.UserID != userID) {
		return core.RecipeIngredient{}, form, errForeignIngredient
	}
	if err != nil {
		return core.RecipeIngredient{}, form, fmt.Errorf("load ingredient %d: %w", id, err)
	}

	qty, err := core.ParseQuantity(form.Quantity)
	if err != nil {
		return core.RecipeIngredient{}, form, err
	}
	ri := core.RecipeIngredient{IngredientID: id, Quantity: qty, Unit: form.Unit, Ingredient: &ing}
	if err := ri.Validate(); err != nil {
		return core.RecipeIngredient{}, form, err
	}
	return ri, form, nil
}

func isFormError(err error) bool {
	return errors.Is(err, errForeignIngredient) || isValidation(err)
}

func (s *Server) handleAddRecipeIngredient(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.ownedRecipe(w, r)
	if !ok {
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	ri, form, err := s.parseRecipeIngredient(r, rec.UserID)
	if err != nil {
		if isFormError(err) {
			s.renderRecipe(w, r, http.StatusUnprocessableEntity, rec, form, validationMessage(err))
			return
		}
		s.serverError(w, r, "Failed to add recipe ingredient", err)
		return
	}
	ri.RecipeID = rec.ID

	if _, err := s.store.AddRecipeIngredient(r.Context(), ri); err != nil {
		s.serverError(w, r, "Failed to add recipe ingredient", err)
		return
	}
	s.changed(rec.UserID)

	log.FromContext(r.Context()).InfoContext(r.Context(), "Recipe ingredient added",
		log.FieldUserID, rec.UserID,
		"recipe_id", rec.ID,
		log.FieldIngredient, ri.Ingredient.Name,
		log.FieldUnit, ri.Unit)
	redirectWithFlash(w, r, recipePath(rec.ID), "success", "Ingredient added to recipe!")
}

// recipeLine loads the recipe and the ingredient line named in the path.
// A line of another recipe is reported as missing.
func (s *Server) recipeLine(w http.ResponseWriter, r *http.Request) (core.Recipe, core.RecipeIngredient, bool) {
	rec, ok := s.ownedRecipe(w, r)
	if !ok {
		return core.Recipe{}, core.RecipeIngredient{}, false
	}
	id, ok := pathID(r, "riid")
	if !ok {
		NotFoundError("Recipe ingredient not found").Write(w)
		return core.Recipe{}, core.RecipeIngredient{}, false
	}
	ri, err := s.store.GetRecipeIngredient(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) || (err == nil && ri.RecipeID != rec.ID) {
		NotFoundError("Recipe ingredient not found").Write(w)
		return core.Recipe{}, core.RecipeIngredient{}, false
	}
	if err != nil {
		s.serverError(w, r, "Failed to load recipe ingredient", err)
		return core.Recipe{}, core.RecipeIngredient{}, false
	}
	return rec, ri, true
}

type editRecipeIngredientPage struct {
	Recipe  core.Recipe
	Line    core.RecipeIngredient
	Choices []core.Ingredient
	Units   []string
	Form    recipeIngredientForm
}

func (s *Server) renderEditLine(w http.ResponseWriter, r *http.Request, status int, rec core.Recipe, ri core.RecipeIngredient, form recipeIngredientForm, formErr string) {
	choices, err := s.store.ListIngredients(r.Context(), rec.UserID)
	if err != nil {
		s.serverError(w, r, "Failed to list ingredients", err)
		return
	}
	s.render(w, r, status, "edit_recipe_ingredient.html", pageData{
		Title: "Edit Ingredient",
		Error: formErr,
		Data: editRecipeIngredientPage{
			Recipe:  rec,
			Line:    ri,
			Choices: choices,
			Units:   unitsFor(choices, form.IngredientID),
			Form:    form,
		},
	})
}

func (s *Server) handleEditRecipeIngredientForm(w http.ResponseWriter, r *http.Request) {
	rec, ri, ok := s.recipeLine(w, r)
	if !ok {
		return
	}
	form := recipeIngredientForm{
		IngredientID: ri.IngredientID,
		Quantity:     strconv.FormatFloat(ri.Quantity, 'f', -1, 64),
		Unit:         ri.Unit,
	}
	s.renderEditLine(w, r, http.StatusOK, rec, ri, form, "")
}

func (s *Server) handleUpdateRecipeIngredient(w http.ResponseWriter, r *http.Request) {
	rec, ri, ok := s.recipeLine(w, r)
	if !ok {
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	upd, form, err := s.parseRecipeIngredient(r, rec.UserID)
	if err != nil {
		if isFormError(err) {
			s.renderEditLine(w, r, http.StatusUnprocessableEntity, rec, ri, form, validationMessage(err))
			return
		}
		s.serverError(w, r, "Failed to update recipe ingredient", err)
		return
	}
	upd.ID, upd.RecipeID = ri.ID, rec.ID

	if err := s.store.UpdateRecipeIngredient(r.Context(), upd); err != nil {
		s.serverError(w, r, "Failed to update recipe ingredient", err)
		return
	}
	s.changed(rec.UserID)
	redirectWithFlash(w, r, recipePath(rec.ID), "success", "Ingredient updated!")
}

func (s *Server) handleDeleteRecipeIngredient(w http.ResponseWriter, r *http.Request) {
	rec, ri, ok := s.recipeLine(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteRecipeIngredient(r.Context(), ri.ID); err != nil {
		s.serverError(w, r, "Failed to delete recipe ingredient", err)
		return
	}
	s.changed(rec.UserID)
	redirectWithFlash(w, r, recipePath(rec.ID), "success", "Ingredient deleted!")
}

// Steps

func (s *Server) handleAddStep(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.ownedRecipe(w, r)
	if !ok {
		return
	}
	kind, err := ParseStepKindParam(r.URL.Query())
	if err != nil {
		BadRequestError("Invalid step type").Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	step := core.Step{RecipeID: rec.ID, Kind: kind, Text: sanitizeInput(r.PostForm.Get("step"))}
	if err := step.Validate(); err != nil {
		s.renderRecipe(w, r, http.StatusUnprocessableEntity, rec, recipeIngredientForm{}, validationMessage(err))
		return
	}
	if _, err := s.store.AddStep(r.Context(), step); err != nil {
		s.serverError(w, r, "Failed to add step", err)
		return
	}
	s.changed(rec.UserID)
	redirectWithFlash(w, r, recipePath(rec.ID), "success", "Step added to recipe!")
}

// recipeStep loads the recipe and the step named in the path. The step
// must belong to the recipe and match the requested type.
func (s *Server) recipeStep(w http.ResponseWriter, r *http.Request) (core.Recipe, core.Step, bool) {
	kind, err := ParseStepKindParam(r.URL.Query())
	if err != nil {
		BadRequestError("Invalid step type").Write(w)
		return core.Recipe{}, core.Step{}, false
	}
	rec, ok := s.ownedRecipe(w, r)
	if !ok {
		return core.Recipe{}, core.Step{}, false
	}
	step, err := s.loadStep(r, rec, kind)
	if errors.Is(err, core.ErrNotFound) {
		NotFoundError("Step not found").Write(w)
		return core.Recipe{}, core.Step{}, false
	}
	if err != nil {
		s.serverError(w, r, "Failed to load step", err)
		return core.Recipe{}, core.Step{}, false
	}
	return rec, step, true
}

func (s *Server) loadStep(r *http.Request, rec core.Recipe, kind core.StepKind) (core.Step, error) {
	id, ok := pathID(r, "sid")
	if !ok {
		return core.Step{}, core.ErrNotFound
	}
	step, err := s.store.GetStep(r.Context(), id)
	if err != nil {
		return core.Step{}, err
	}
	if step.RecipeID != rec.ID || step.Kind != kind {
		return core.Step{}, core.ErrNotFound
	}
	return step, nil
}

type editStepPage struct {
	Recipe core.Recipe
	Step   core.Step
}

func (s *Server) handleEditStepForm(w http.ResponseWriter, r *http.Request) {
	rec, step, ok := s.recipeStep(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "edit_recipe_step.html", pageData{
		Title: "Edit Step",
		Data:  editStepPage{Recipe: rec, Step: step},
	})
}

func (s *Server) handleUpdateStep(w http.ResponseWriter, r *http.Request) {
	rec, step, ok := s.recipeStep(w, r)
	if !ok {
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	step.Text = sanitizeInput(r.PostForm.Get("step"))
	if err := step.Validate(); err != nil {
		s.render(w, r, http.StatusUnprocessableEntity, "edit_recipe_step.html", pageData{
			Title: "Edit Step",
			Error: validationMessage(err),
			Data:  editStepPage{Recipe: rec, Step: step},
		})
		return
	}
	if err := s.store.UpdateStep(r.Context(), step); err != nil {
		s.serverError(w, r, "Failed to update step", err)
		return
	}
	s.changed(rec.UserID)
	redirectWithFlash(w, r, recipePath(rec.ID), "success", "Step updated!")
}

func (s *Server) handleDeleteStep(w http.ResponseWriter, r *http.Request) {
	rec, step, ok := s.recipeStep(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteStep(r.Context(), step.ID); err != nil {
		s.serverError(w, r, "Failed to delete step", err)
		return
	}
	s.changed(rec.UserID)
	redirectWithFlash(w, r, recipePath(rec.ID), "success", "Step deleted!")
}
