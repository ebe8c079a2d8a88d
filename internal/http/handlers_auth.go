package http

import (
	"errors"
	"net/http"

	"mealplanner/internal/auth"
	"mealplanner/internal/log"
	"mealplanner/internal/storage"
)

type authForm struct {
	Username string
	Next     string
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "register.html", pageData{Title: "Register", Data: authForm{}})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	username := sanitizeInput(r.PostForm.Get("username"))
	form := authForm{Username: username}

	u, err := s.auth.Register(r.Context(), username, r.PostForm.Get("password"), r.PostForm.Get("confirm_password"))
	switch {
	case errors.Is(err, storage.ErrUsernameTaken):
		s.render(w, r, http.StatusUnprocessableEntity, "register.html", pageData{
			Title: "Register",
			Error: "That username is taken. Please choose a different one.",
			Data:  form,
		})
		return
	case err != nil && isValidation(err):
		s.render(w, r, http.StatusUnprocessableEntity, "register.html", pageData{
			Title: "Register",
			Error: validationMessage(err),
			Data:  form,
		})
		return
	case err != nil:
		s.serverError(w, r, "Failed to register user", err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Account created",
		log.FieldUserID, u.ID,
		log.FieldOperation, log.OpCreate)
	redirectWithFlash(w, r, "/login", "success", "Your account has been created! You can now log in.")
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", pageData{
		Title: "Log In",
		Data:  authForm{Next: safeNext(r.URL.Query().Get("next"), "")},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	username := sanitizeInput(r.PostForm.Get("username"))
	next := safeNext(r.PostForm.Get("next"), "/")

	u, err := s.auth.Login(r.Context(), username, r.PostForm.Get("password"))
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.render(w, r, http.StatusUnauthorized, "login.html", pageData{
			Title: "Log In",
			Flash: &Flash{Kind: "danger", Message: "Login unsuccessful. Please check username and password"},
			Data:  authForm{Username: username, Next: r.PostForm.Get("next")},
		})
		return
	}
	if err != nil {
		s.serverError(w, r, "Failed to log in", err)
		return
	}

	if err := s.sessions.Issue(w, u.ID, u.Username); err != nil {
		s.serverError(w, r, "Failed to issue session", err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "User logged in",
		log.FieldUserID, u.ID,
		log.FieldOperation, log.OpLogin)
	redirectWithFlash(w, r, next, "success", "Login successful!")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	redirectWithFlash(w, r, "/login", "success", "You have been logged out.")
}
