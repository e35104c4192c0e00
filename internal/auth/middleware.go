package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/login"

// RequireAuth is middleware that resolves the session on every request and
// attaches the actor to the request context. Unauthenticated requests to
// non-public paths are redirected to the login page before any handler runs.
func RequireAuth(sessions *SessionStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, err := sessions.Validate(r)
		if err == nil {
			r = r.WithContext(WithActor(r.Context(), Actor{ID: email}))
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if !errors.Is(err, ErrNoSession) {
			slog.Error("validating session", "error", err, "path", r.URL.Path)
		}
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
	})
}

func isPublicPath(path string) bool {
	if path == LoginPath || path == "/health" {
		return true
	}
	return strings.HasPrefix(path, "/static/")
}
