package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"expense-tracker-server/src/middleware"
	"expense-tracker-server/src/models"
	"expense-tracker-server/src/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

func GetTransactions(svc *service.TransactionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := middleware.PrincipalFromContext(r.Context())

		records, err := svc.List(r.Context(), principal.ID)
		if err != nil {
			writeServiceError(w, err, "list transactions for user "+principal.ID)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"count":   len(records),
			"data":    records,
		})
	}
}

func AddTransaction(svc *service.TransactionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := middleware.PrincipalFromContext(r.Context())

		var fields models.TransactionFields
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			log.Warn().Err(err).Str("user", principal.ID).Msg("Failed to decode transaction body")
			writeError(w, http.StatusBadRequest, []string{"Invalid request body"})
			return
		}

		tx, err := svc.Create(r.Context(), principal.ID, fields)
		if err != nil {
			writeServiceError(w, err, "create transaction for user "+principal.ID)
			return
		}

		log.Info().Str("user", principal.ID).Str("transaction", tx.ID).Msg("Created transaction")
		w.Header().Set("ETag", etag(tx.Version))
		writeData(w, http.StatusCreated, tx)
	}
}

// UpdateTransaction applies a partial update. An If-Match header holding
// the record version turns it into a conditional write.
func UpdateTransaction(svc *service.TransactionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := middleware.PrincipalFromContext(r.Context())
		id := chi.URLParam(r, "id")

		expectedVersion, ok := parseIfMatch(r.Header.Get("If-Match"))
		if !ok {
			writeError(w, http.StatusBadRequest, []string{"If-Match must be a transaction version"})
			return
		}

		var fields models.TransactionFields
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			log.Warn().Err(err).Str("user", principal.ID).Msg("Failed to decode transaction body")
			writeError(w, http.StatusBadRequest, []string{"Invalid request body"})
			return
		}

		tx, err := svc.Update(r.Context(), principal.ID, id, fields, expectedVersion)
		if err != nil {
			writeServiceError(w, err, "update transaction "+id)
			return
		}

		log.Info().Str("user", principal.ID).Str("transaction", tx.ID).Int64("version", tx.Version).Msg("Updated transaction")
		w.Header().Set("ETag", etag(tx.Version))
		writeData(w, http.StatusOK, tx)
	}
}

func DeleteTransaction(svc *service.TransactionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := middleware.PrincipalFromContext(r.Context())
		id := chi.URLParam(r, "id")

		if err := svc.Delete(r.Context(), principal.ID, id); err != nil {
			writeServiceError(w, err, "delete transaction "+id)
			return
		}

		log.Info().Str("user", principal.ID).Str("transaction", id).Msg("Deleted transaction")
		writeData(w, http.StatusOK, struct{}{})
	}
}

func GetSummary(svc *service.TransactionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := middleware.PrincipalFromContext(r.Context())

		totals, err := svc.Summary(r.Context(), principal.ID)
		if err != nil {
			writeServiceError(w, err, "summarize transactions for user "+principal.ID)
			return
		}
		writeData(w, http.StatusOK, totals)
	}
}

func ExportTransactions(svc *service.TransactionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := middleware.PrincipalFromContext(r.Context())

		var buf bytes.Buffer
		if err := svc.Export(r.Context(), principal.ID, &buf); err != nil {
			writeServiceError(w, err, "export transactions for user "+principal.ID)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(buf.Bytes()); err != nil {
			log.Error().Err(err).Str("user", principal.ID).Msg("Failed to write CSV export")
		}
	}
}

func etag(version int64) string {
	return `"` + strconv.FormatInt(version, 10) + `"`
}

// parseIfMatch accepts a bare or quoted version number. An empty header
// means the update is unconditional.
func parseIfMatch(header string) (int64, bool) {
	header = strings.TrimSpace(header)
	if header == "" || header == "*" {
		return 0, true
	}
	header = strings.TrimPrefix(header, "W/")
	header = strings.Trim(header, `"`)
	version, err := strconv.ParseInt(header, 10, 64)
	if err != nil || version < 1 {
		return 0, false
	}
	return version, true
}
