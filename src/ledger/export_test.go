package ledger

import (
	"strings"
	"testing"

	"expense-tracker-server/src/models"
)

func TestWriteCSV(t *testing.T) {
	records := []models.Transaction{
		{ID: "1", Text: `Say "hi"`, Category: "Fun", Amount: -3.5, Date: "2024-05-01", Type: models.TypeIncome},
		{ID: "2", Text: "Pay, May", Amount: 1200},
	}

	var sb strings.Builder
	if err := WriteCSV(&sb, records); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	want := "ID,Text,Category,Amount,Date,Type\n" +
		`1,"Say ""hi""","Fun",-3.5,2024-05-01,Expense` + "\n" +
		`2,"Pay, May","",1200,,Income`
	if sb.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", sb.String(), want)
	}
}

func TestWriteCSVZeroAmountIsExpense(t *testing.T) {
	var sb strings.Builder
	if err := WriteCSV(&sb, []models.Transaction{{ID: "z", Text: "nothing", Amount: 0}}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if !strings.HasSuffix(sb.String(), ",Expense") {
		t.Fatalf("got %q", sb.String())
	}
}

func TestWriteCSVHeaderOnly(t *testing.T) {
	var sb strings.Builder
	if err := WriteCSV(&sb, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if sb.String() != "ID,Text,Category,Amount,Date,Type" {
		t.Fatalf("got %q", sb.String())
	}
}
