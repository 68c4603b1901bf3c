package ledger

import (
	"encoding/json"

	"expense-tracker-server/src/models"

	"github.com/shopspring/decimal"
)

// Totals is the balance summary over a full, unfiltered record set.
// Expense is a non-negative magnitude, so Total == Income - Expense.
type Totals struct {
	Total   decimal.Decimal
	Income  decimal.Decimal
	Expense decimal.Decimal
}

func Summarize(records []models.Transaction) Totals {
	var t Totals
	for _, tx := range records {
		amount := decimal.NewFromFloat(tx.Amount)
		t.Total = t.Total.Add(amount)
		switch {
		case amount.IsPositive():
			t.Income = t.Income.Add(amount)
		case amount.IsNegative():
			t.Expense = t.Expense.Sub(amount)
		}
	}
	return t
}

// Display returns the three values rounded to two decimal places.
func (t Totals) Display() (total, income, expense string) {
	return t.Total.StringFixed(2), t.Income.StringFixed(2), t.Expense.StringFixed(2)
}

func (t Totals) MarshalJSON() ([]byte, error) {
	total, income, expense := t.Display()
	return json.Marshal(map[string]string{
		"total":   total,
		"income":  income,
		"expense": expense,
	})
}
