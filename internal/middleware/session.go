package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Stewz00/myfabtotum-link/internal/session"
)

// SessionCookieName is the cookie carrying the UI session token.
const SessionCookieName = "fabui_session"

// Authenticator turns a session token into the request's session mirror.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*session.Session, error)
}

// ExtractToken returns the bearer token from the Authorization header, or the
// session cookie value when no header is present.
func ExtractToken(r *http.Request) string {
	if parts := strings.Fields(r.Header.Get("Authorization")); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// LoadSession attaches the session of a valid token to the request context.
// Requests without a valid token pass through with no session.
func LoadSession(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := auth.Authenticate(r.Context(), token)
			if err != nil || sess == nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}

// RequireSession rejects requests that LoadSession left without a user.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.FromContext(r.Context()).HasUser() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
