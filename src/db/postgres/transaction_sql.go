package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expense-tracker-server/src/db"
	"expense-tracker-server/src/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionColumns = `id, user_id, text, category, amount, date, type, created_at, version`

var (
	_ db.TransactionStore = (*Store)(nil)
	_ db.UserStore        = (*Store)(nil)
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.OwnerID, &t.Text, &t.Category, &t.Amount, &t.Date, &t.Type, &t.CreatedAt, &t.Version)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListTransactions(ctx context.Context, ownerID string) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC
	`
	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	t, err := scanTransaction(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return t, nil
}

func (s *Store) InsertTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	query := `
		INSERT INTO transactions (id, user_id, text, category, amount, date, type, created_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
		RETURNING ` + transactionColumns

	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	t, err := scanTransaction(s.pool.QueryRow(ctx, query,
		uuid.NewString(), tx.OwnerID, tx.Text, tx.Category, tx.Amount, tx.Date, tx.Type, createdAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *models.Transaction, expectedVersion int64) (*models.Transaction, error) {
	query := `
		UPDATE transactions
		SET text = $1, category = $2, amount = $3, date = $4, type = $5, version = version + 1
		WHERE id = $6 AND user_id = $7 AND ($8::bigint = 0 OR version = $8::bigint)
		RETURNING ` + transactionColumns

	t, err := scanTransaction(s.pool.QueryRow(ctx, query,
		tx.Text, tx.Category, tx.Amount, tx.Date, tx.Type, tx.ID, tx.OwnerID, expectedVersion))
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	// Nothing matched: tell a missing row apart from a stale version.
	if _, getErr := s.GetTransaction(ctx, tx.ID); getErr != nil {
		return nil, getErr
	}
	if expectedVersion != 0 {
		return nil, db.ErrVersionMismatch
	}
	return nil, db.ErrNotFound
}

func (s *Store) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	query := `DELETE FROM transactions WHERE id = $1 AND user_id = $2`
	cmd, err := s.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}
