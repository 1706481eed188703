package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
)

// SessionValidator verifies session tokens and yields the provider user id.
type SessionValidator interface {
	Verify(token string) (string, error)
}

// AuthValidator validates the session JWT and sets the user id in context
// (see UserFromContext).
type AuthValidator struct {
	sessions SessionValidator
}

func NewAuthValidator(sessions SessionValidator) *AuthValidator {
	return &AuthValidator{sessions: sessions}
}

func (m *AuthValidator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			writeErr(w, http.StatusUnauthorized, "missing or invalid authorization")
			return
		}
		tokenString := strings.TrimPrefix(auth, "Bearer ")
		userID, err := m.sessions.Verify(tokenString)
		if err != nil {
			writeErr(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := WithUser(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeErr(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": "unauthorized"})
}
