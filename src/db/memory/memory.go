// Package memory is an in-process store used by tests and by the memory
// backend for local development. Data does not survive a restart.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"expense-tracker-server/src/db"
	"expense-tracker-server/src/models"

	"github.com/google/uuid"
)

var (
	_ db.TransactionStore = (*Store)(nil)
	_ db.UserStore        = (*Store)(nil)
)

type Store struct {
	mu           sync.Mutex
	transactions map[string]models.Transaction
	users        map[string]models.User
}

func New() *Store {
	return &Store{
		transactions: make(map[string]models.Transaction),
		users:        make(map[string]models.User),
	}
}

func (s *Store) ListTransactions(_ context.Context, ownerID string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Transaction, 0)
	for _, tx := range s.transactions {
		if tx.OwnerID == ownerID {
			out = append(out, tx)
		}
	}
	slices.SortFunc(out, func(a, b models.Transaction) int {
		if c := cmp.Compare(b.Date, a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &tx, nil
}

func (s *Store) InsertTransaction(_ context.Context, tx *models.Transaction) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *tx
	stored.ID = uuid.NewString()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	if stored.Version == 0 {
		stored.Version = 1
	}
	s.transactions[stored.ID] = stored
	return &stored, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx *models.Transaction, expectedVersion int64) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.transactions[tx.ID]
	if !ok || current.OwnerID != tx.OwnerID {
		return nil, db.ErrNotFound
	}
	if expectedVersion != 0 && current.Version != expectedVersion {
		return nil, db.ErrVersionMismatch
	}

	current.Text = tx.Text
	current.Category = tx.Category
	current.Amount = tx.Amount
	current.Date = tx.Date
	current.Type = tx.Type
	current.Version++
	s.transactions[current.ID] = current
	return &current, nil
}

func (s *Store) DeleteTransaction(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok || tx.OwnerID != ownerID {
		return db.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	for _, existing := range s.users {
		if existing.Email == email {
			return nil, db.ErrDuplicate
		}
	}

	stored := *user
	stored.ID = uuid.NewString()
	stored.Email = email
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.users[stored.ID] = stored
	return &stored, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(email)
	for _, user := range s.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &user, nil
}

func (s *Store) UpdateUser(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return nil, db.ErrNotFound
	}
	email := strings.ToLower(user.Email)
	for id, existing := range s.users {
		if id != user.ID && existing.Email == email {
			return nil, db.ErrDuplicate
		}
	}

	current.Name = user.Name
	current.Email = email
	current.PasswordHash = user.PasswordHash
	s.users[current.ID] = current
	return &current, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.users, id)
	for txID, tx := range s.transactions {
		if tx.OwnerID == id {
			delete(s.transactions, txID)
		}
	}
	return nil
}
