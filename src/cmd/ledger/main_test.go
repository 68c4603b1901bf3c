package main

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"expense-tracker-server/src/api"
	"expense-tracker-server/src/db/memory"
	"expense-tracker-server/src/handlers"
	"expense-tracker-server/src/ledger"
	"expense-tracker-server/src/models"
	"expense-tracker-server/src/service"
)

func newController(t *testing.T) *ledger.Controller {
	t.Helper()
	store := memory.New()
	issuer := handlers.TokenIssuer{Secret: []byte("cli-test"), TTL: time.Hour}
	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Transactions: service.NewTransactionService(store),
		Users:        store,
		JWTSecret:    issuer.Secret,
		TokenTTL:     issuer.TTL,
	}))
	t.Cleanup(srv.Close)

	user, err := store.CreateUser(context.Background(), &models.User{Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	token, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	c := ledger.NewController(ledger.NewClient(srv.URL, token))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c
}

func TestAddListSummaryEdit(t *testing.T) {
	c := newController(t)
	ctx := context.Background()
	var out strings.Builder

	if err := runAdd(ctx, c, []string{"-text", "Lunch", "-category", "Food", "-amount", "500", "-date", "2024-01-15"}, &out); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := runAdd(ctx, c, []string{"-text", "Salary", "-category", "Work", "-amount", "2000", "-type", "income", "-date", "2024-01-01"}, &out); err != nil {
		t.Fatalf("add: %v", err)
	}

	out.Reset()
	if err := runList(c, []string{"-filter", "expense"}, &out); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "Lunch") || strings.Contains(out.String(), "Salary") {
		t.Fatalf("unexpected list output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "-500.00") {
		t.Fatalf("expense should be stored negative:\n%s", out.String())
	}

	out.Reset()
	if err := runSummary(c, &out); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(out.String(), "Balance: 1500.00") || !strings.Contains(out.String(), "Expense: -500.00") {
		t.Fatalf("unexpected summary:\n%s", out.String())
	}

	id := c.Records()[0].ID
	out.Reset()
	if err := runEdit(ctx, c, []string{id, "-amount", "20"}, &out); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !strings.Contains(out.String(), "version 2") {
		t.Fatalf("unexpected edit output %q", out.String())
	}
	if c.Records()[0].Text != "Lunch" || c.Records()[0].Amount != -20 {
		t.Fatalf("edit lost fields: %+v", c.Records()[0])
	}
}

func TestListRejectsUnknownSort(t *testing.T) {
	c := newController(t)
	if err := runList(c, []string{"-sort", "sideways"}, &strings.Builder{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestExportAndDelete(t *testing.T) {
	c := newController(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := runExport(c, []string{"-o", path}, &strings.Builder{}); err == nil {
		t.Fatal("expected error exporting an empty ledger")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("empty export should not leave a file")
	}

	if err := runAdd(ctx, c, []string{"-text", "Coffee", "-category", "Food", "-amount", "3"}, &strings.Builder{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := runExport(c, []string{"-o", path}, &strings.Builder{}); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "ID,Text,Category,Amount,Date,Type\n") || !strings.HasSuffix(string(data), `"Coffee","Food",-3,,Expense`) {
		t.Fatalf("unexpected export %q", data)
	}

	id := c.Records()[0].ID
	if err := runDelete(ctx, c, []string{id}, &strings.Builder{}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := runDelete(ctx, c, []string{id}, &strings.Builder{}); err == nil {
		t.Fatal("second delete should fail")
	}
}
