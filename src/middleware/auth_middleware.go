package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"expense-tracker-server/src/db"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// Principal is the identity carried in a verified token.
type Principal struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Claims is the token payload: {"user": {"id", "name"}, "exp"}.
type Claims struct {
	User Principal `json:"user"`
	jwt.RegisteredClaims
}

type principalKey struct{}

// ParseTokenFromRequest verifies the Authorization header against secret.
// Both "Bearer <token>" and a bare token are accepted.
func ParseTokenFromRequest(r *http.Request, secret []byte) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrMissingToken
	}

	tokenString := header
	if parts := strings.Split(header, " "); len(parts) > 1 && parts[1] != "" {
		tokenString = parts[1]
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.User.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// JWTAuthMiddleware rejects requests without a valid token and stores the
// principal in the request context for the handlers behind it.
func JWTAuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := ParseTokenFromRequest(r, secret)
			if errors.Is(err, ErrMissingToken) {
				unauthorized(w, "No token, authorization denied")
				return
			}
			if err != nil {
				log.Warn().Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("Rejected request with invalid token")
				unauthorized(w, "Token is not valid")
				return
			}

			ctx := WithPrincipal(r.Context(), claims.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAccount rejects verified tokens whose account has since been
// deleted. It must run after JWTAuthMiddleware.
func RequireAccount(users db.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				unauthorized(w, "No token, authorization denied")
				return
			}

			_, err := users.GetUserByID(r.Context(), principal.ID)
			if errors.Is(err, db.ErrNotFound) {
				log.Warn().Str("user", principal.ID).Str("path", r.URL.Path).Msg("Rejected token for deleted account")
				unauthorized(w, "Token is not valid")
				return
			}
			if err != nil {
				log.Error().Err(err).Str("user", principal.ID).Msg("Failed to look up token account")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "Server Error"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"msg": msg})
}
