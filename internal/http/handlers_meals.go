package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"mealplanner/internal/core"
	"mealplanner/internal/log"
)

var errForeignRecipe = errors.New("please choose one of your recipes")

type calendarPage struct {
	Month   core.MonthRef
	Prev    core.MonthRef
	Next    core.MonthRef
	Weeks   [][]core.Date
	Meals   map[string][]core.Meal
	Today   string
	Weekday []string
}

func calendarPath(d core.Date) string {
	return fmt.Sprintf("/calendar?year=%d&month=%d", d.Year(), int(d.Month()))
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	month := ParseMonthParams(r.URL.Query(), s.now())
	from, to := month.Range()

	meals, err := s.store.ListMealsBetween(r.Context(), currentUser(r).UserID, from, to)
	if err != nil {
		s.serverError(w, r, "Failed to list meals", err)
		return
	}
	byDate := make(map[string][]core.Meal)
	for _, m := range meals {
		k := m.Date.String()
		byDate[k] = append(byDate[k], m)
	}

	s.render(w, r, http.StatusOK, "calendar.html", pageData{
		Title: fmt.Sprintf("%s %d", month.Month, month.Year),
		Data: calendarPage{
			Month:   month,
			Prev:    month.Prev(),
			Next:    month.Next(),
			Weeks:   month.Weeks(),
			Meals:   byDate,
			Today:   s.today().String(),
			Weekday: []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
		},
	})
}

// dayMeal is a meal with its recipe name resolved.
type dayMeal struct {
	core.Meal
	RecipeName string
}

type dayPage struct {
	Date         core.Date
	Meals        []dayMeal
	ShoppingLink string
	CalendarLink string
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	date, err := ParseDateParam(r.URL.Query(), "date", s.today())
	if err != nil {
		BadRequestError("Invalid date, expected YYYY-MM-DD").Write(w)
		return
	}
	user := currentUser(r)

	meals, err := s.store.ListMealsBetween(r.Context(), user.UserID, date, date)
	if err != nil {
		s.serverError(w, r, "Failed to list meals", err)
		return
	}
	recipes, err := s.recipeNames(r, user.UserID)
	if err != nil {
		s.serverError(w, r, "Failed to list recipes", err)
		return
	}

	rows := make([]dayMeal, len(meals))
	for i, m := range meals {
		rows[i] = dayMeal{Meal: m}
		if m.RecipeID != nil {
			rows[i].RecipeName = recipes[*m.RecipeID]
		}
	}

	s.render(w, r, http.StatusOK, "day.html", pageData{
		Title: date.Format("Monday, January 2, 2006"),
		Data: dayPage{
			Date:         date,
			Meals:        rows,
			ShoppingLink: "/shopping-list?date=" + url.QueryEscape(date.String()),
			CalendarLink: calendarPath(date),
		},
	})
}

func (s *Server) recipeNames(r *http.Request, userID int64) (map[int64]string, error) {
	recipes, err := s.store.ListRecipes(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(recipes))
	for _, rec := range recipes {
		names[rec.ID] = rec.Name
	}
	return names, nil
}

type mealForm struct {
	Date     string
	Name     string
	Type     core.MealType
	RecipeID int64
}

type mealPage struct {
	Form      mealForm
	Recipes   []core.Recipe
	MealTypes []core.MealType
}

func (s *Server) renderMealForm(w http.ResponseWriter, r *http.Request, status int, form mealForm, formErr string) {
	recipes, err := s.store.ListRecipes(r.Context(), currentUser(r).UserID)
	if err != nil {
		s.serverError(w, r, "Failed to list recipes", err)
		return
	}
	s.render(w, r, status, "add_meal.html", pageData{
		Title: "Add Meal",
		Error: formErr,
		Data:  mealPage{Form: form, Recipes: recipes, MealTypes: core.MealTypes()},
	})
}

func (s *Server) handleNewMealForm(w http.ResponseWriter, r *http.Request) {
	date, err := ParseDateParam(r.URL.Query(), "date", s.today())
	if err != nil {
		date = s.today()
	}
	s.renderMealForm(w, r, http.StatusOK, mealForm{Date: date.String(), Type: core.Dinner}, "")
}

func (s *Server) handleCreateMeal(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	user := currentUser(r)
	form := mealForm{
		Date: sanitizeInput(r.PostForm.Get("date")),
		Name: sanitizeInput(r.PostForm.Get("name")),
		Type: core.MealType(sanitizeInput(r.PostForm.Get("meal_type"))),
	}

	meal, err := s.mealFromForm(r, user.UserID, &form)
	if err != nil {
		if errors.Is(err, errForeignRecipe) || isValidation(err) {
			s.renderMealForm(w, r, http.StatusUnprocessableEntity, form, validationMessage(err))
			return
		}
		s.serverError(w, r, "Failed to add meal", err)
		return
	}
	if err := meal.Validate(); err != nil {
		s.renderMealForm(w, r, http.StatusUnprocessableEntity, form, validationMessage(err))
		return
	}

	created, err := s.store.AddMeal(r.Context(), meal)
	if err != nil {
		s.serverError(w, r, "Failed to add meal", err)
		return
	}
	s.changed(user.UserID)

	log.FromContext(r.Context()).InfoContext(r.Context(), "Meal scheduled",
		log.FieldUserID, user.UserID,
		"meal_id", created.ID,
		"date", created.Date.String(),
		log.FieldOperation, log.OpCreate)
	redirectWithFlash(w, r, calendarPath(created.Date), "success", "Meal added!")
}

// mealFromForm builds the meal from form values. A chosen recipe must
// belong to userID.
func (s *Server) mealFromForm(r *http.Request, userID int64, form *mealForm) (core.Meal, error) {
	date, err := core.ParseDate(form.Date)
	if err != nil {
		return core.Meal{}, err
	}
	meal := core.Meal{UserID: userID, Date: date, Name: form.Name, Type: form.Type}

	recipeID, err := formInt64(r, "recipe_id")
	if err != nil {
		return core.Meal{}, errForeignRecipe
	}
	if recipeID == 0 {
		return meal, nil
	}
	form.RecipeID = recipeID

	rec, err := s.store.GetRecipe(r.Context(), recipeID)
	if errors.Is(err, core.ErrNotFound) || (err == nil && rec.UserID != userID) {
		return core.Meal{}, errForeignRecipe
	}
	if err != nil {
		return core.Meal{}, fmt.Errorf("load recipe %d: %w", recipeID, err)
	}
	meal.RecipeID = &rec.ID
	return meal, nil
}

func (s *Server) handleDeleteMeal(w http.ResponseWriter, r *http.Request) {
	meal, ok := loadOwned(s, w, r, "id", "Meal", s.store.GetMeal, func(m core.Meal) int64 { return m.UserID })
	if !ok {
		return
	}
	if err := s.store.DeleteMeal(r.Context(), meal.ID); err != nil {
		s.serverError(w, r, "Failed to delete meal", err)
		return
	}
	s.changed(meal.UserID)

	msg := fmt.Sprintf("Meal %q on %s has been deleted.", meal.Name, meal.Date)
	redirectWithFlash(w, r, calendarPath(meal.Date), "success", msg)
}
