// Package service holds the ownership-checked transaction operations that sit
// between the HTTP handlers and a db.TransactionStore.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"expense-tracker-server/src/db"
	"expense-tracker-server/src/ledger"
	"expense-tracker-server/src/models"
)

type TransactionService struct {
	store db.TransactionStore
	now   func() time.Time
}

func NewTransactionService(store db.TransactionStore) *TransactionService {
	return &TransactionService{store: store, now: time.Now}
}

// List returns every record owned by ownerID, newest date first.
func (s *TransactionService) List(ctx context.Context, ownerID string) ([]models.Transaction, error) {
	records, err := s.store.ListTransactions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	if records == nil {
		records = []models.Transaction{}
	}
	return records, nil
}

// Create stores a new record for ownerID. Any owner the client tried to set
// is ignored, and the stored type always follows the amount sign.
func (s *TransactionService) Create(ctx context.Context, ownerID string, fields models.TransactionFields) (*models.Transaction, error) {
	verr := &ValidationError{}
	if fields.Text == nil || strings.TrimSpace(*fields.Text) == "" {
		verr.add("Path `text` is required.")
	}
	if fields.Amount == nil {
		verr.add("Path `amount` is required.")
	} else {
		checkAmount(verr, *fields.Amount)
	}
	if fields.Type == nil || *fields.Type == "" {
		verr.add("Path `type` is required.")
	} else {
		checkType(verr, *fields.Type)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		OwnerID:   ownerID,
		Text:      *fields.Text,
		Amount:    *fields.Amount,
		Type:      models.DirectionOf(*fields.Amount),
		CreatedAt: s.now().UTC(),
	}
	if fields.Category != nil {
		tx.Category = *fields.Category
	}
	if fields.Date != nil {
		tx.Date = *fields.Date
	}

	stored, err := s.store.InsertTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return stored, nil
}

// Update merges the supplied fields into the caller's record. A non-zero
// expectedVersion makes the write fail with ErrConflict if the record has
// changed since that version was read.
func (s *TransactionService) Update(ctx context.Context, ownerID, id string, fields models.TransactionFields, expectedVersion int64) (*models.Transaction, error) {
	current, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if fields.Text != nil && strings.TrimSpace(*fields.Text) == "" {
		verr.add("Path `text` is required.")
	}
	if fields.Amount != nil {
		checkAmount(verr, *fields.Amount)
	}
	if fields.Type != nil {
		checkType(verr, *fields.Type)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	if expectedVersion != 0 && current.Version != expectedVersion {
		return nil, ErrConflict
	}

	merged := *current
	if fields.Text != nil {
		merged.Text = *fields.Text
	}
	if fields.Amount != nil {
		merged.Amount = *fields.Amount
	}
	if fields.Category != nil {
		merged.Category = *fields.Category
	}
	if fields.Date != nil {
		merged.Date = *fields.Date
	}
	merged.Type = models.DirectionOf(merged.Amount)

	updated, err := s.store.UpdateTransaction(ctx, &merged, expectedVersion)
	switch {
	case errors.Is(err, db.ErrVersionMismatch):
		return nil, ErrConflict
	case errors.Is(err, db.ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to update transaction %s: %w", id, err)
	}
	return updated, nil
}

// Delete removes the caller's record. A second delete of the same id
// reports ErrNotFound.
func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return err
	}
	err := s.store.DeleteTransaction(ctx, ownerID, id)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return ErrNotFound
	case err != nil:
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	return nil
}

// Summary aggregates all of ownerID's records.
func (s *TransactionService) Summary(ctx context.Context, ownerID string) (ledger.Totals, error) {
	records, err := s.List(ctx, ownerID)
	if err != nil {
		return ledger.Totals{}, err
	}
	return ledger.Summarize(records), nil
}

// Export writes all of ownerID's records as CSV.
func (s *TransactionService) Export(ctx context.Context, ownerID string, w io.Writer) error {
	records, err := s.List(ctx, ownerID)
	if err != nil {
		return err
	}
	return ledger.WriteCSV(w, records)
}

func (s *TransactionService) owned(ctx context.Context, ownerID, id string) (*models.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", id, err)
	}
	if tx.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return tx, nil
}

func checkAmount(verr *ValidationError, amount float64) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		verr.add("Path `amount` must be a finite number.")
	}
}

func checkType(verr *ValidationError, kind string) {
	if kind != models.TypeIncome && kind != models.TypeExpense {
		verr.add(fmt.Sprintf("`%s` is not a valid enum value for path `type`.", kind))
	}
}
