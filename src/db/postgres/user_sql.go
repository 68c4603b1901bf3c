package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"expense-tracker-server/src/db"
	"expense-tracker-server/src/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

func (s *Store) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, email, password_hash, created_at
	`
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var u models.User
	err := s.pool.QueryRow(ctx, query, uuid.NewString(), user.Name, strings.ToLower(user.Email), user.PasswordHash, createdAt).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, db.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`
	return s.getUser(ctx, query, strings.ToLower(email))
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE id = $1
	`
	return s.getUser(ctx, query, id)
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		UPDATE users
		SET name = $2, email = $3, password_hash = $4
		WHERE id = $1
		RETURNING id, name, email, password_hash, created_at
	`
	var u models.User
	err := s.pool.QueryRow(ctx, query, user.ID, user.Name, strings.ToLower(user.Email), user.PasswordHash).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, db.ErrNotFound
		case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
			return nil, db.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &u, nil
}

// DeleteUser removes the user and their transactions in one transaction.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete transactions for user %s: %w", id, err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return tx.Commit(ctx)
}

func (s *Store) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("query error: %w", err)
	}
	return &u, nil
}
