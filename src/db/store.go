package db

import (
	"context"
	"errors"

	"expense-tracker-server/src/models"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate key")
	ErrVersionMismatch = errors.New("version mismatch")
)

// TransactionStore persists transaction records. Every write is scoped by
// owner so a store never touches another principal's records.
type TransactionStore interface {
	// ListTransactions returns the owner's records ordered by date
	// descending, dateless records last, ties broken by newest createdAt.
	ListTransactions(ctx context.Context, ownerID string) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	// InsertTransaction assigns the id and returns the stored record.
	InsertTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
	// UpdateTransaction overwrites the mutable fields of tx and bumps its
	// version. A non-zero expectedVersion makes the write conditional and
	// yields ErrVersionMismatch when the stored version differs.
	UpdateTransaction(ctx context.Context, tx *models.Transaction, expectedVersion int64) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, ownerID, id string) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// UpdateUser overwrites name, email and password hash.
	UpdateUser(ctx context.Context, user *models.User) (*models.User, error)
	// DeleteUser removes the account together with all of its transactions.
	DeleteUser(ctx context.Context, id string) error
}
