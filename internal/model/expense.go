package model

import "time"

type Expense struct {
	ID          string    `json:"id" db:"id"`
	Description string    `json:"description" db:"description"`
	Amount      float64   `json:"amount" db:"amount"`
	Category    string    `json:"category" db:"category"`
	ExpenseDate time.Time `json:"expense_date" db:"expense_date"`
	CreatedBy   *string   `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
