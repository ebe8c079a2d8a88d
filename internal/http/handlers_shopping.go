package http

import (
	"errors"
	"net/http"
	"net/url"
	"sync/atomic"

	"mealplanner/internal/amqp"
	"mealplanner/internal/core"
	"mealplanner/internal/log"
	"mealplanner/internal/services"
	"mealplanner/internal/shopping"
)

type shoppingPage struct {
	Today         core.Date
	Selected      core.Date
	List          shopping.List
	ExportEnabled bool
}

func (s *Server) handleShoppingList(w http.ResponseWriter, r *http.Request) {
	today := s.today()
	selected, err := ParseDateParam(r.URL.Query(), "date", today)
	if err != nil {
		BadRequestError("Invalid date, expected YYYY-MM-DD").Write(w)
		return
	}

	list, err := s.shopping.List(r.Context(), currentUser(r).UserID, today, selected)
	if err != nil {
		s.serverError(w, r, "Failed to build shopping list", err)
		return
	}
	atomic.AddInt64(&s.appMetrics.listsServed, 1)

	s.render(w, r, http.StatusOK, "shopping_list.html", pageData{
		Title: "Shopping List",
		Data: shoppingPage{
			Today:         today,
			Selected:      selected,
			List:          list,
			ExportEnabled: s.shopping.ExportEnabled(),
		},
	})
}

// handleExportShoppingList queues a spreadsheet export. HTMX requests get
// a notification trigger; plain form posts are redirected back with a
// flash message.
func (s *Server) handleExportShoppingList(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	today := s.today()
	selected := today
	if v := parser.Get("date"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			BadRequestError("Invalid date, expected YYYY-MM-DD").Write(w)
			return
		}
		selected = d
	}
	user := currentUser(r)
	back := "/shopping-list?date=" + url.QueryEscape(selected.String())
	htmx := r.Header.Get("HX-Request") == "true" || parser.IsJSON()

	kind, msg := NotificationSuccess, "Export queued. The spreadsheet will update shortly."
	var resp *HTMXResponseBuilder
	err := s.shopping.RequestExport(r.Context(), user.UserID, today, selected)
	switch {
	case err == nil:
		resp = NewHTMXResponse().Status(http.StatusAccepted)
		atomic.AddInt64(&s.appMetrics.exportsRequested, 1)
		log.FromContext(r.Context()).InfoContext(r.Context(), "Shopping list export requested",
			log.FieldUserID, user.UserID,
			log.FieldFrom, today.String(),
			log.FieldTo, selected.String(),
			log.FieldOperation, log.OpExport)
	case errors.Is(err, services.ErrExportUnavailable):
		kind, msg = NotificationError, "Spreadsheet export is not configured."
		resp = ServiceUnavailableError(msg)
	case errors.Is(err, services.ErrEmptyRange):
		kind, msg = NotificationWarning, "Pick a date from today onwards to export."
		resp = UnprocessableEntityError(msg)
	case errors.Is(err, amqp.ErrCircuitOpen):
		kind, msg = NotificationError, "Export is temporarily unavailable. Please try again later."
		resp = ServiceUnavailableError(msg)
	default:
		kind, msg = NotificationError, "Could not queue the export. Please try again."
		resp = ErrorResponse(http.StatusBadGateway, msg)
	}

	if !htmx {
		flashKind := "success"
		if kind != NotificationSuccess {
			flashKind = "danger"
		}
		redirectWithFlash(w, r, back, flashKind, msg)
		return
	}

	resp.TriggerNotification(kind, msg, 4000)
	if err == nil {
		resp.TriggerExportQueued(today.String(), selected.String())
	}
	resp.Write(w)
}

type settingsPage struct {
	Preferences core.Preferences
	Dry         []core.Choice
	Liquid      []core.Choice
	Weight      []core.Choice
}

func newSettingsPage(p core.Preferences) settingsPage {
	return settingsPage{
		Preferences: p,
		Dry:         core.DryUnitChoices,
		Liquid:      core.LiquidUnitChoices,
		Weight:      core.WeightUnitChoices,
	}
}

func (s *Server) handleSettingsForm(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.GetUserByID(r.Context(), currentUser(r).UserID)
	if err != nil {
		s.serverError(w, r, "Failed to load user", err)
		return
	}
	s.render(w, r, http.StatusOK, "settings.html", pageData{Title: "Settings", Data: newSettingsPage(u.Preferences)})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	user := currentUser(r)
	prefs := core.Preferences{
		Dry:    sanitizeInput(r.PostForm.Get("preferred_dry_unit")),
		Liquid: sanitizeInput(r.PostForm.Get("preferred_liquid_unit")),
		Weight: sanitizeInput(r.PostForm.Get("preferred_weight_unit")),
	}
	if err := prefs.Validate(); err != nil {
		s.render(w, r, http.StatusUnprocessableEntity, "settings.html", pageData{
			Title: "Settings",
			Error: validationMessage(err),
			Data:  newSettingsPage(prefs),
		})
		return
	}

	if err := s.store.UpdatePreferences(r.Context(), user.UserID, prefs); err != nil {
		s.serverError(w, r, "Failed to update preferences", err)
		return
	}
	s.changed(user.UserID)

	log.FromContext(r.Context()).InfoContext(r.Context(), "Unit preferences updated",
		log.FieldUserID, user.UserID,
		"dry", prefs.Dry, "liquid", prefs.Liquid, "weight", prefs.Weight,
		log.FieldOperation, log.OpUpdate)
	redirectWithFlash(w, r, "/settings", "success", "Your settings have been updated!")
}

// handleUnits returns the unit choices for an ingredient's category as a
// JSON array.
func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	ing, ok := s.ownedIngredient(w, r)
	if !ok {
		return
	}
	NewHTMXResponse().BodyJSON(ing.Category.UnitChoices()).Write(w)
}
