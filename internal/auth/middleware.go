package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

type contextKey int

const claimsKey contextKey = 0

// ClaimsFromContext returns the verified claims set by Authenticator.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(Claims)
	return claims, ok
}

// Authenticator verifies the bearer token on every request and stores the
// claims in the request context. WebSocket upgrade requests carry the token as
// a query parameter since browsers cannot set headers on a WebSocket dial.
func Authenticator(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenString string
			if websocket.IsWebSocketUpgrade(r) {
				tokenString = r.URL.Query().Get("token")
			} else {
				authHeader := r.Header.Get("Authorization")
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
					http.Error(w, "missing or invalid authorization header", http.StatusUnauthorized)
					return
				}
				tokenString = parts[1]
			}

			claims, err := VerifyToken(secret, tokenString)
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

// RequireAdmin rejects authenticated requests whose token lacks the admin
// claim. It must run after Authenticator.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || !claims.IsAdmin {
			http.Error(w, "admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
