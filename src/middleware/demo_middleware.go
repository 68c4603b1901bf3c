package middleware

import (
	"encoding/json"
	"net/http"
)

// DemoModeMiddleware makes the API read-only when isDemo is set. Login and
// registration stay open so visitors can still get a token.
func DemoModeMiddleware(isDemo bool) func(http.Handler) http.Handler {
	allowedPosts := map[string]bool{
		"/api/auth/login":    true,
		"/api/auth/register": true,
	}

	return func(next http.Handler) http.Handler {
		if !isDemo {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.Method == http.MethodGet, r.Method == http.MethodHead, r.Method == http.MethodOptions:
			case r.Method == http.MethodPost && allowedPosts[r.URL.Path]:
			default:
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"error":   "Demo mode: only GET requests are allowed",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
