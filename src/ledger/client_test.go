package ledger_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
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

func newServer(t *testing.T) (*httptest.Server, handlers.TokenIssuer, *memory.Store) {
	t.Helper()
	store := memory.New()
	issuer := handlers.TokenIssuer{Secret: []byte("client-test"), TTL: time.Hour}
	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Transactions:   service.NewTransactionService(store),
		Users:          store,
		JWTSecret:      issuer.Secret,
		TokenTTL:       issuer.TTL,
		AllowedOrigins: []string{"*"},
	}))
	t.Cleanup(srv.Close)
	return srv, issuer, store
}

func tokenFor(t *testing.T, issuer handlers.TokenIssuer, store *memory.Store, email string) string {
	t.Helper()
	user, err := store.CreateUser(context.Background(), &models.User{Name: "Test", Email: email})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	token, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

func TestControllerAgainstServer(t *testing.T) {
	srv, issuer, store := newServer(t)
	ctx := context.Background()
	c := ledger.NewController(ledger.NewClient(srv.URL, tokenFor(t, issuer, store, "ada@example.com")))

	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Records()) != 0 {
		t.Fatalf("expected empty ledger, got %+v", c.Records())
	}

	lunch, err := c.Submit(ctx, ledger.Draft{Text: "Lunch", Category: "Food", Amount: "500", Date: "2024-01-15", Type: models.TypeExpense})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if lunch.Amount != -500 || lunch.Type != models.TypeExpense || lunch.ID == "" {
		t.Fatalf("unexpected record %+v", lunch)
	}
	if _, err := c.Submit(ctx, ledger.Draft{Text: "Salary", Category: "Work", Amount: "2000", Date: "2024-01-01", Type: models.TypeIncome}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	draft, ok := c.Edit(lunch.ID)
	if !ok {
		t.Fatal("Edit: record not cached")
	}
	draft.Text = "Team lunch"
	if _, err := c.Submit(ctx, draft); err != nil {
		t.Fatalf("Submit edit: %v", err)
	}

	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	var texts []string
	for tx := range c.View() {
		texts = append(texts, tx.Text)
	}
	if !slices.Equal(texts, []string{"Team lunch", "Salary"}) {
		t.Fatalf("unexpected view %v", texts)
	}
	total, income, expense := c.Totals().Display()
	if total != "1500.00" || income != "2000.00" || expense != "500.00" {
		t.Fatalf("got total=%s income=%s expense=%s", total, income, expense)
	}

	if err := c.Remove(ctx, lunch.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	err = c.Remove(ctx, lunch.ID)
	var apiErr *ledger.APIError
	if !errors.Is(err, ledger.ErrDelete) || !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("second Remove err = %v", err)
	}
}

func TestClientSurfacesServerErrors(t *testing.T) {
	srv, issuer, store := newServer(t)
	ctx := context.Background()

	_, err := ledger.NewClient(srv.URL, "").List(ctx)
	var apiErr *ledger.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || apiErr.Message != "No token, authorization denied" {
		t.Fatalf("err = %v", err)
	}

	client := ledger.NewClient(srv.URL+"/", tokenFor(t, issuer, store, "bob@example.com"))
	_, err = client.Create(ctx, models.TransactionFields{})
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || !strings.Contains(apiErr.Message, "`text`") {
		t.Fatalf("err = %v", err)
	}
}
