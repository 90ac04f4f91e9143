package models

import "time"

// Expense captures an operating cost of the space (rent, electricity,
// supplies). Purely bookkeeping; no invariant relates it to other entities.
type Expense struct {
	ID         string    `db:"id" json:"id"`
	Category   string    `db:"category" json:"category"`
	Amount     float64   `db:"amount" json:"amount"`
	Notes      string    `db:"notes" json:"notes"`
	IncurredOn time.Time `db:"incurred_on" json:"incurred_on"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ExpenseFilter encapsulates allowed search parameters for listing expenses.
type ExpenseFilter struct {
	Category string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}
