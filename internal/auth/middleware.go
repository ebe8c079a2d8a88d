package auth

import (
	"context"
	"net/http"
	"net/url"
)

type contextKey struct{}

// Identity is the authenticated user attached to a request.
type Identity struct {
	UserID   int64
	Username string
}

// WithUser returns a copy of ctx carrying id.
func WithUser(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// Authenticate attaches the session user, when present, to the request
// context. It never rejects a request.
func (s *Sessions) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, err := s.FromRequest(r); err == nil {
			r = r.WithContext(WithUser(r.Context(), Identity{UserID: claims.UserID, Username: claims.Username}))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser redirects anonymous requests to the login page. HTMX
// requests get an HX-Redirect header instead.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		target := "/login?next=" + url.QueryEscape(r.URL.RequestURI())
		if r.Header.Get("HX-Request") == "true" {
			w.Header().Set("HX-Redirect", target)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}
