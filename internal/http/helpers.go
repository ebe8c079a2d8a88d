package http

import (
	"context"
	"encoding/base64"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"mealplanner/internal/auth"
	"mealplanner/internal/core"
	"mealplanner/internal/log"
	"mealplanner/internal/units"
)

const flashCookie = "mealplanner_flash"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

// pageData is the root value every page template receives.
type pageData struct {
	Title  string
	User   auth.Identity
	Authed bool
	Flash  *Flash
	Error  string
	Data   any
}

var templateFuncs = template.FuncMap{
	"value": units.FormatValue,
	"quantities": func(qs []units.Quantity) string {
		parts := make([]string, len(qs))
		for i, q := range qs {
			parts[i] = q.String()
		}
		return strings.Join(parts, ", ")
	},
}

// setFlash stores msg for the next page render.
func setFlash(w http.ResponseWriter, kind, msg string) {
	v := base64.RawURLEncoding.EncodeToString([]byte(kind + "|" + msg))
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    v,
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the pending flash message.
func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	kind, msg, ok := strings.Cut(string(raw), "|")
	if !ok || msg == "" {
		return nil
	}
	return &Flash{Kind: kind, Message: msg}
}

// redirectWithFlash sets a flash message and redirects with 303.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, target, kind, msg string) {
	setFlash(w, kind, msg)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// render executes a page template with the given status code.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, page pageData) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldComponent, log.ComponentTemplate,
			"error_type", log.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	page.User, page.Authed = auth.UserFromContext(r.Context())
	if page.Flash == nil {
		page.Flash = popFlash(w, r)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, page); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			"template", name,
			log.FieldOperation, log.OpRender)
	}
}

// serverError logs err and answers 500.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	log.FromContext(r.Context()).ErrorContext(r.Context(), msg,
		log.FieldError, err,
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path,
		"error_type", log.ErrorTypeDatabase)
	InternalServerError("Something went wrong. Please try again.").Write(w)
}

// currentUser returns the authenticated user; routes behind RequireUser
// always have one.
func currentUser(r *http.Request) auth.Identity {
	id, _ := auth.UserFromContext(r.Context())
	return id
}

// pathID parses a positive integer path parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// loadOwned loads the row named by the path parameter and checks it
// belongs to the current user. It writes 404 for bad ids or missing rows
// and 403 for rows of other users.
func loadOwned[T any](s *Server, w http.ResponseWriter, r *http.Request, param, what string,
	load func(context.Context, int64) (T, error), owner func(T) int64) (T, bool) {
	var zero T
	id, ok := pathID(r, param)
	if !ok {
		NotFoundError(what + " not found").Write(w)
		return zero, false
	}
	v, err := load(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		NotFoundError(what + " not found").Write(w)
		return zero, false
	}
	if err != nil {
		s.serverError(w, r, "Failed to load "+what, err)
		return zero, false
	}
	if owner(v) != currentUser(r).UserID {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Access to another user's data denied",
			log.FieldUserID, currentUser(r).UserID,
			log.FieldPath, r.URL.Path,
			"error_type", log.ErrorTypeAuth)
		ErrorResponse(http.StatusForbidden, "You do not have access to this "+strings.ToLower(what)).Write(w)
		return zero, false
	}
	return v, true
}

func (s *Server) ownedRecipe(w http.ResponseWriter, r *http.Request) (core.Recipe, bool) {
	return loadOwned(s, w, r, "id", "Recipe", s.store.GetRecipe, func(rec core.Recipe) int64 { return rec.UserID })
}

// safeNext returns target when it is a local path, otherwise fallback.
func safeNext(target, fallback string) string {
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") && !strings.HasPrefix(target, "/\\") {
		return target
	}
	return fallback
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// validationMessage turns a domain validation error into form text.
func validationMessage(err error) string {
	msg := err.Error()
	if msg == "" {
		return "Invalid data"
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}

var validationErrors = []error{
	core.ErrInvalidUsername,
	core.ErrEmptyPassword,
	core.ErrPasswordMismatch,
	core.ErrInvalidName,
	core.ErrInvalidCategory,
	core.ErrInvalidTime,
	core.ErrInvalidQuantity,
	core.ErrInvalidUnit,
	core.ErrEmptyStep,
	core.ErrInvalidStepKind,
	core.ErrInvalidMealType,
	core.ErrInvalidDate,
}

// isValidation reports whether err is a form validation failure.
func isValidation(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
