package ledger

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"expense-tracker-server/src/models"
)

var csvHeader = []string{"ID", "Text", "Category", "Amount", "Date", "Type"}

// WriteCSV writes records in the export format: text and category are
// always quoted and Type is derived from the amount sign, not the stored
// type field.
func WriteCSV(w io.Writer, records []models.Transaction) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(csvHeader, ",")); err != nil {
		return err
	}
	for _, tx := range records {
		kind := "Expense"
		if tx.Amount > 0 {
			kind = "Income"
		}
		row := []string{
			tx.ID,
			quote(tx.Text),
			quote(tx.Category),
			strconv.FormatFloat(tx.Amount, 'f', -1, 64),
			tx.Date,
			kind,
		}
		if _, err := bw.WriteString("\n" + strings.Join(row, ",")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
