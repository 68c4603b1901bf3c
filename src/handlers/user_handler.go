package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"expense-tracker-server/src/db"
	"expense-tracker-server/src/middleware"
	"expense-tracker-server/src/util"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// GetUser returns the account behind the request's token.
func GetUser(users db.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := middleware.PrincipalFromContext(r.Context())

		user, err := users.GetUserByID(r.Context(), principal.ID)
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		if err != nil {
			log.Error().Err(err).Str("user", principal.ID).Msg("Failed to get user")
			writeServerError(w)
			return
		}
		writeData(w, http.StatusOK, user)
	}
}

func UpdateUser(users db.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := middleware.PrincipalFromContext(r.Context())

		var req struct {
			Name  *string `json:"name"`
			Email *string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Warn().Err(err).Str("user", principal.ID).Msg("Failed to decode update user request body")
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}

		user, err := users.GetUserByID(r.Context(), principal.ID)
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		if err != nil {
			log.Error().Err(err).Str("user", principal.ID).Msg("Failed to get user for update")
			writeServerError(w)
			return
		}

		if req.Name != nil {
			user.Name = strings.TrimSpace(*req.Name)
			if !util.ValidateName(user.Name) {
				writeError(w, http.StatusBadRequest, "name must be between 1 and 50 characters")
				return
			}
		}
		if req.Email != nil {
			user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
			if !util.ValidateEmail(user.Email) {
				writeError(w, http.StatusBadRequest, "invalid email format")
				return
			}
		}

		updated, err := users.UpdateUser(r.Context(), user)
		if errors.Is(err, db.ErrDuplicate) {
			writeError(w, http.StatusConflict, "email already exists")
			return
		}
		if err != nil {
			log.Error().Err(err).Str("user", principal.ID).Msg("Failed to update user profile")
			writeServerError(w)
			return
		}

		log.Info().Str("user", principal.ID).Msg("User profile updated")
		writeData(w, http.StatusOK, updated)
	}
}

func ChangePassword(users db.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := middleware.PrincipalFromContext(r.Context())

		var req struct {
			CurrentPassword string `json:"currentPassword"`
			NewPassword     string `json:"newPassword"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Warn().Err(err).Str("user", principal.ID).Msg("Failed to decode change password request body")
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}

		user, err := users.GetUserByID(r.Context(), principal.ID)
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		if err != nil {
			log.Error().Err(err).Str("user", principal.ID).Msg("Failed to get user for password change")
			writeServerError(w)
			return
		}

		if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.CurrentPassword)); err != nil {
			log.Warn().Str("user", principal.ID).Msg("Invalid current password attempt")
			writeError(w, http.StatusUnauthorized, "current password is incorrect")
			return
		}
		if !util.ValidatePassword(req.NewPassword) {
			writeError(w, http.StatusBadRequest, "password must be at least 8 characters with uppercase, lowercase, digit, and special character")
			return
		}

		user.PasswordHash, err = bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Error().Err(err).Str("user", principal.ID).Msg("Failed to hash new password")
			writeServerError(w)
			return
		}
		if _, err := users.UpdateUser(r.Context(), user); err != nil {
			log.Error().Err(err).Str("user", principal.ID).Msg("Failed to update user password")
			writeServerError(w)
			return
		}

		log.Info().Str("user", principal.ID).Msg("User password changed")
		writeData(w, http.StatusOK, map[string]string{"message": "password changed successfully"})
	}
}

// DeleteUser removes the caller's account and every transaction they own.
// The body must repeat the caller's id. cache may be nil.
func DeleteUser(users db.UserStore, cache *db.ListCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := middleware.PrincipalFromContext(r.Context())

		var req struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Warn().Err(err).Str("user", principal.ID).Msg("Failed to decode delete user request body")
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
		if req.ID != principal.ID {
			log.Warn().Str("user", principal.ID).Str("requested", req.ID).Msg("Forbidden delete attempt")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}

		err := users.DeleteUser(r.Context(), principal.ID)
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		if err != nil {
			log.Error().Err(err).Str("user", principal.ID).Msg("Failed to delete user")
			writeServerError(w)
			return
		}
		if cache != nil {
			cache.Invalidate(principal.ID)
		}

		log.Info().Str("user", principal.ID).Msg("User and all associated transactions deleted")
		writeData(w, http.StatusOK, struct{}{})
	}
}
