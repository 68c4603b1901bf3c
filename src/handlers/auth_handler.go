package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"expense-tracker-server/src/db"
	"expense-tracker-server/src/models"
	"expense-tracker-server/src/util"

	"github.com/golang-jwt/jwt"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs the bearer tokens checked by middleware.JWTAuthMiddleware.
type TokenIssuer struct {
	Secret []byte
	TTL    time.Duration
}

func (ti TokenIssuer) Issue(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user": map[string]string{
			"id":   user.ID,
			"name": user.Name,
		},
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ti.TTL).Unix(),
	})
	return token.SignedString(ti.Secret)
}

func Register(users db.UserStore, issuer TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Warn().Err(err).Msg("Failed to decode register request body")
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}

		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		req.Name = strings.TrimSpace(req.Name)

		var problems []string
		if !util.ValidateName(req.Name) {
			problems = append(problems, "name must be between 1 and 50 characters")
		}
		if !util.ValidateEmail(req.Email) {
			problems = append(problems, "invalid email format")
		}
		if !util.ValidatePassword(req.Password) {
			problems = append(problems, "password must be at least 8 characters with uppercase, lowercase, digit, and special character")
		}
		if len(problems) > 0 {
			log.Warn().Str("email", req.Email).Strs("problems", problems).Msg("Registration validation failed")
			writeError(w, http.StatusBadRequest, problems)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Error().Err(err).Str("email", req.Email).Msg("Failed to hash password")
			writeServerError(w)
			return
		}

		user, err := users.CreateUser(r.Context(), &models.User{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: hashedPassword,
		})
		if errors.Is(err, db.ErrDuplicate) {
			log.Warn().Str("email", req.Email).Msg("Registration failed - email already exists")
			writeError(w, http.StatusConflict, "email already exists")
			return
		}
		if err != nil {
			log.Error().Err(err).Str("email", req.Email).Msg("Failed to create user")
			writeServerError(w)
			return
		}

		token, err := issuer.Issue(user)
		if err != nil {
			log.Error().Err(err).Str("user", user.ID).Msg("Failed to generate JWT token")
			writeServerError(w)
			return
		}

		log.Info().Str("user", user.ID).Msg("Successful registration")
		writeJSON(w, http.StatusCreated, models.AuthResponse{Token: token, User: *user})
	}
}

func Login(users db.UserStore, issuer TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var credentials struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
			log.Warn().Err(err).Msg("Failed to decode login request body")
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}

		email := strings.ToLower(strings.TrimSpace(credentials.Email))
		if email == "" || credentials.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		user, err := users.GetUserByEmail(r.Context(), email)
		if errors.Is(err, db.ErrNotFound) {
			log.Warn().Str("email", email).Msg("Login for unknown email")
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		if err != nil {
			log.Error().Err(err).Str("email", email).Msg("Failed to look up user during login")
			writeServerError(w)
			return
		}

		if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(credentials.Password)); err != nil {
			log.Warn().Str("email", email).Str("remote", r.RemoteAddr).Msg("Invalid password attempt")
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		token, err := issuer.Issue(user)
		if err != nil {
			log.Error().Err(err).Str("user", user.ID).Msg("Failed to generate JWT token")
			writeServerError(w)
			return
		}

		log.Info().Str("user", user.ID).Msg("Successful login")
		writeJSON(w, http.StatusOK, models.AuthResponse{Token: token, User: *user})
	}
}
