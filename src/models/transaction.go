package models

import "time"

const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

type Transaction struct {
	ID        string    `json:"_id"`
	OwnerID   string    `json:"userId"`
	Text      string    `json:"text"`
	Category  string    `json:"category,omitempty"`
	Amount    float64   `json:"amount"`
	Date      string    `json:"date,omitempty"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int64     `json:"version"`
}

// TransactionFields is the client-writable subset of a Transaction. Nil
// pointers mean "not supplied", which is what makes partial updates work.
type TransactionFields struct {
	Text     *string  `json:"text,omitempty"`
	Amount   *float64 `json:"amount,omitempty"`
	Category *string  `json:"category,omitempty"`
	Date     *string  `json:"date,omitempty"`
	Type     *string  `json:"type,omitempty"`
}

// DirectionOf returns the transaction type implied by the sign of amount.
func DirectionOf(amount float64) string {
	if amount < 0 {
		return TypeExpense
	}
	return TypeIncome
}
