package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"expense-tracker-server/src/models"
)

type fakeAPI struct {
	records []models.Transaction
	next    int
	fail    error
	created []models.TransactionFields
	updated map[string]models.TransactionFields
}

func (f *fakeAPI) List(ctx context.Context) ([]models.Transaction, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return slices.Clone(f.records), nil
}

func (f *fakeAPI) Create(ctx context.Context, fields models.TransactionFields) (*models.Transaction, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.next++
	f.created = append(f.created, fields)
	tx := apply(models.Transaction{ID: fmt.Sprintf("id-%d", f.next), Version: 1}, fields)
	f.records = append(f.records, tx)
	return &tx, nil
}

func (f *fakeAPI) Update(ctx context.Context, id string, fields models.TransactionFields) (*models.Transaction, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	if f.updated == nil {
		f.updated = map[string]models.TransactionFields{}
	}
	f.updated[id] = fields
	for i := range f.records {
		if f.records[i].ID == id {
			f.records[i] = apply(f.records[i], fields)
			f.records[i].Version++
			tx := f.records[i]
			return &tx, nil
		}
	}
	return nil, &APIError{Status: 404, Message: "No transaction found"}
}

func (f *fakeAPI) Delete(ctx context.Context, id string) error {
	if f.fail != nil {
		return f.fail
	}
	f.records = slices.DeleteFunc(f.records, func(tx models.Transaction) bool { return tx.ID == id })
	return nil
}

func apply(tx models.Transaction, fields models.TransactionFields) models.Transaction {
	if fields.Text != nil {
		tx.Text = *fields.Text
	}
	if fields.Category != nil {
		tx.Category = *fields.Category
	}
	if fields.Amount != nil {
		tx.Amount = *fields.Amount
		tx.Type = models.DirectionOf(tx.Amount)
	}
	if fields.Date != nil {
		tx.Date = *fields.Date
	}
	return tx
}

func TestSubmitCreatesWithSignFromType(t *testing.T) {
	api := &fakeAPI{}
	c := NewController(api)
	ctx := context.Background()

	tx, err := c.Submit(ctx, Draft{Text: "Lunch", Category: "Food", Amount: "500", Type: models.TypeExpense})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if tx.Amount != -500 {
		t.Fatalf("amount = %v, want -500", tx.Amount)
	}
	if _, err := c.Submit(ctx, Draft{Text: "Refund", Category: "Misc", Amount: "-20", Type: models.TypeIncome}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := *api.created[1].Amount; got != 20 {
		t.Fatalf("income amount = %v, want 20", got)
	}

	total, income, expense := c.Totals().Display()
	if total != "-480.00" || income != "20.00" || expense != "500.00" {
		t.Fatalf("got total=%s income=%s expense=%s", total, income, expense)
	}
	if len(c.Records()) != 2 {
		t.Fatalf("expected 2 cached records, got %d", len(c.Records()))
	}
}

func TestSubmitRejectsIncompleteDraft(t *testing.T) {
	api := &fakeAPI{}
	c := NewController(api)

	for _, d := range []Draft{
		{Category: "Food", Amount: "1"},
		{Text: "Lunch", Amount: "1"},
		{Text: "Lunch", Category: "Food", Amount: "  "},
	} {
		if _, err := c.Submit(context.Background(), d); !errors.Is(err, ErrIncompleteDraft) {
			t.Fatalf("Submit(%+v) err = %v, want ErrIncompleteDraft", d, err)
		}
	}
	if _, err := c.Submit(context.Background(), Draft{Text: "x", Category: "y", Amount: "lots"}); err == nil {
		t.Fatal("expected error for non-numeric amount")
	}
	if len(api.created) != 0 {
		t.Fatalf("no request should be sent, got %d", len(api.created))
	}
}

func TestEditPrefillsAndUpdatesInPlace(t *testing.T) {
	api := &fakeAPI{records: []models.Transaction{
		{ID: "a", Text: "Salary", Category: "Work", Amount: 2000, Date: "2024-05-01", Version: 1},
		{ID: "b", Text: "Lunch", Category: "Food", Amount: -12.5, Date: "2024-05-10", Version: 1},
	}}
	c := NewController(api)
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	draft, ok := c.Edit("b")
	if !ok {
		t.Fatal("Edit(b) not found")
	}
	if draft.Amount != "12.5" || draft.Type != models.TypeExpense || draft.Text != "Lunch" {
		t.Fatalf("unexpected draft %+v", draft)
	}
	if c.EditingID() != "b" {
		t.Fatalf("EditingID = %q", c.EditingID())
	}

	draft.Amount = "15"
	updated, err := c.Submit(ctx, draft)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if updated.Amount != -15 || updated.Version != 2 {
		t.Fatalf("unexpected update %+v", updated)
	}
	if c.EditingID() != "" {
		t.Fatal("edit mode should end after a successful update")
	}

	records := c.Records()
	if len(records) != 2 || records[1].ID != "b" || records[1].Amount != -15 {
		t.Fatalf("cache not updated in place: %+v", records)
	}
	if len(api.created) != 0 {
		t.Fatal("update must not create")
	}
}

func TestEditUnknownID(t *testing.T) {
	c := NewController(&fakeAPI{})
	if _, ok := c.Edit("missing"); ok {
		t.Fatal("expected not found")
	}
	if c.EditingID() != "" {
		t.Fatal("edit mode should not start")
	}
}

func TestFailedSaveKeepsState(t *testing.T) {
	api := &fakeAPI{records: []models.Transaction{{ID: "a", Text: "Salary", Category: "Work", Amount: 2000}}}
	c := NewController(api)
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := c.Edit("a"); !ok {
		t.Fatal("Edit(a) not found")
	}

	api.fail = errors.New("boom")
	_, err := c.Submit(ctx, Draft{Text: "Salary", Category: "Work", Amount: "10", Type: models.TypeIncome})
	if !errors.Is(err, ErrSave) {
		t.Fatalf("err = %v, want ErrSave", err)
	}
	if c.EditingID() != "a" {
		t.Fatal("edit mode should survive a failed save")
	}
	if c.Records()[0].Amount != 2000 {
		t.Fatal("cache changed after failed save")
	}
}

func TestRemoveClearsEditMode(t *testing.T) {
	api := &fakeAPI{records: []models.Transaction{
		{ID: "a", Text: "Salary", Amount: 2000},
		{ID: "b", Text: "Lunch", Amount: -10},
	}}
	c := NewController(api)
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.Edit("b")

	if err := c.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if c.EditingID() != "b" {
		t.Fatal("removing another record should keep edit mode")
	}
	if err := c.Remove(ctx, "b"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if c.EditingID() != "" {
		t.Fatal("removing the edited record should end edit mode")
	}
	if len(c.Records()) != 0 {
		t.Fatalf("expected empty cache, got %+v", c.Records())
	}

	api.fail = errors.New("offline")
	if err := c.Remove(ctx, "x"); !errors.Is(err, ErrDelete) {
		t.Fatalf("err = %v, want ErrDelete", err)
	}
}

func TestViewAppliesFilterAndTotalsIgnoreIt(t *testing.T) {
	api := &fakeAPI{records: []models.Transaction{
		{ID: "a", Text: "Salary", Amount: 2000, Date: "2024-05-01"},
		{ID: "b", Text: "Lunch", Category: "Food", Amount: -12.5, Date: "2024-05-10"},
	}}
	c := NewController(api)
	c.now = func() time.Time { return time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC) }
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	c.SetFilter(Filter{Direction: DirectionExpense, Period: PeriodThisMonth})
	view := slices.Collect(c.View())
	if len(view) != 1 || view[0].ID != "b" {
		t.Fatalf("unexpected view %+v", view)
	}
	total, _, _ := c.Totals().Display()
	if total != "1987.50" {
		t.Fatalf("total = %s, want 1987.50", total)
	}
	if c.Filter().Direction != DirectionExpense {
		t.Fatal("filter not stored")
	}
}

func TestExport(t *testing.T) {
	c := NewController(&fakeAPI{})
	var sb strings.Builder
	if err := c.Export(&sb); !errors.Is(err, ErrNothingToExport) {
		t.Fatalf("err = %v, want ErrNothingToExport", err)
	}
	if sb.Len() != 0 {
		t.Fatal("nothing should be written")
	}

	if _, err := c.Submit(context.Background(), Draft{Text: "Lunch", Category: "Food", Amount: "5", Type: models.TypeExpense}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := c.Export(&sb); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(sb.String(), `id-1,"Lunch","Food",-5,,Expense`) {
		t.Fatalf("unexpected export %q", sb.String())
	}
}
