package http

import (
	"net/http"

	"mealplanner/internal/core"
	"mealplanner/internal/log"
)

type ingredientsPage struct {
	Ingredients []core.Ingredient
	Categories  []core.Category
	Form        core.Ingredient
}

func ingredientFromForm(r *http.Request) core.Ingredient {
	return core.Ingredient{
		Name:     sanitizeInput(r.PostForm.Get("name")),
		Category: core.Category(sanitizeInput(r.PostForm.Get("category"))),
	}
}

func (s *Server) ownedIngredient(w http.ResponseWriter, r *http.Request) (core.Ingredient, bool) {
	return loadOwned(s, w, r, "id", "Ingredient", s.store.GetIngredient, func(i core.Ingredient) int64 { return i.UserID })
}

func (s *Server) renderIngredients(w http.ResponseWriter, r *http.Request, status int, form core.Ingredient, formErr string) {
	list, err := s.store.ListIngredients(r.Context(), currentUser(r).UserID)
	if err != nil {
		s.serverError(w, r, "Failed to list ingredients", err)
		return
	}
	s.render(w, r, status, "ingredients.html", pageData{
		Title: "Ingredients",
		Error: formErr,
		Data:  ingredientsPage{Ingredients: list, Categories: core.Categories(), Form: form},
	})
}

func (s *Server) handleIngredients(w http.ResponseWriter, r *http.Request) {
	s.renderIngredients(w, r, http.StatusOK, core.Ingredient{Category: core.CategoryDry}, "")
}

func (s *Server) handleCreateIngredient(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	user := currentUser(r)
	in := ingredientFromForm(r)
	in.UserID = user.UserID

	if err := in.Validate(); err != nil {
		s.renderIngredients(w, r, http.StatusUnprocessableEntity, in, validationMessage(err))
		return
	}

	created, err := s.store.CreateIngredient(r.Context(), in)
	if err != nil {
		s.serverError(w, r, "Failed to create ingredient", err)
		return
	}
	s.changed(user.UserID)

	log.FromContext(r.Context()).InfoContext(r.Context(), "Ingredient created",
		log.FieldUserID, user.UserID,
		log.FieldIngredient, created.Name,
		log.FieldOperation, log.OpCreate)
	redirectWithFlash(w, r, "/ingredients", "success", "Ingredient added!")
}

type editIngredientPage struct {
	Ingredient core.Ingredient
	Categories []core.Category
}

func (s *Server) handleEditIngredientForm(w http.ResponseWriter, r *http.Request) {
	ing, ok := s.ownedIngredient(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "edit_ingredient.html", pageData{
		Title: "Edit Ingredient",
		Data:  editIngredientPage{Ingredient: ing, Categories: core.Categories()},
	})
}

func (s *Server) handleUpdateIngredient(w http.ResponseWriter, r *http.Request) {
	ing, ok := s.ownedIngredient(w, r)
	if !ok {
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	in := ingredientFromForm(r)
	in.ID, in.UserID = ing.ID, ing.UserID
	if err := in.Validate(); err != nil {
		s.render(w, r, http.StatusUnprocessableEntity, "edit_ingredient.html", pageData{
			Title: "Edit Ingredient",
			Error: validationMessage(err),
			Data:  editIngredientPage{Ingredient: in, Categories: core.Categories()},
		})
		return
	}

	if err := s.store.UpdateIngredient(r.Context(), in); err != nil {
		s.serverError(w, r, "Failed to update ingredient", err)
		return
	}
	s.changed(ing.UserID)
	redirectWithFlash(w, r, "/ingredients", "success", "Ingredient updated!")
}

func (s *Server) handleDeleteIngredient(w http.ResponseWriter, r *http.Request) {
	ing, ok := s.ownedIngredient(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteIngredient(r.Context(), ing.ID); err != nil {
		s.serverError(w, r, "Failed to delete ingredient", err)
		return
	}
	s.changed(ing.UserID)

	log.FromContext(r.Context()).InfoContext(r.Context(), "Ingredient deleted",
		log.FieldUserID, ing.UserID,
		log.FieldIngredient, ing.Name,
		log.FieldOperation, log.OpDelete)
	redirectWithFlash(w, r, "/ingredients", "success", "Ingredient deleted!")
}
