package mongostore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"expense-tracker-server/src/db"
	"expense-tracker-server/src/models"
)

func TestObjectIDRejectsMalformedIDs(t *testing.T) {
	for _, id := range []string{"", "abc", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		if _, err := objectID(id); !errors.Is(err, db.ErrNotFound) {
			t.Fatalf("objectID(%q): expected ErrNotFound, got %v", id, err)
		}
	}
	if _, err := objectID("65a4f0c2e4b0a1b2c3d4e5f6"); err != nil {
		t.Fatalf("valid hex rejected: %v", err)
	}
}

// TestStoreAgainstMongo runs only when MONGO_TEST_URI points at a server.
func TestStoreAgainstMongo(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbName := fmt.Sprintf("expense_tracker_test_%d", time.Now().UnixNano())
	s, err := New(ctx, uri, dbName)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() {
		_ = s.client.Database(dbName).Drop(ctx)
		_ = s.Close(ctx)
	}()

	created, err := s.InsertTransaction(ctx, &models.Transaction{OwnerID: "u1", Text: "Lunch", Category: "Food", Amount: -500, Date: "2024-01-15", Type: models.TypeExpense})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.InsertTransaction(ctx, &models.Transaction{OwnerID: "u1", Text: "Undated", Amount: 10, Type: models.TypeIncome}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	list, err := s.ListTransactions(ctx, "u1")
	if err != nil || len(list) != 2 {
		t.Fatalf("list: %v (%d records)", err, len(list))
	}
	if list[0].ID != created.ID || list[1].Date != "" {
		t.Fatalf("expected dated record first and undated last, got %+v", list)
	}

	edit := *created
	edit.Category = ""
	updated, err := s.UpdateTransaction(ctx, &edit, created.Version)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Category != "" || updated.Version != created.Version+1 {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if _, err := s.UpdateTransaction(ctx, &edit, created.Version); !errors.Is(err, db.ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}

	if err := s.DeleteTransaction(ctx, "u1", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTransaction(ctx, "u1", created.ID); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if _, err := s.CreateUser(ctx, &models.User{Name: "Ann", Email: "ann@example.com"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := s.CreateUser(ctx, &models.User{Name: "Ann", Email: "ANN@example.com"}); !errors.Is(err, db.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}
