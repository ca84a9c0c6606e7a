package models

import "github.com/shopspring/decimal"

// Expense is an amount fronted by one payer and split across emails.
// Expenses are created unsettled; settling is a one-way transition.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to. Required.
	GroupID string

	Description string

	// Amount is the full amount paid by PaidBy. Always positive.
	Amount decimal.Decimal

	// PaidBy is the payer's email.
	PaidBy string

	// Splits lists who owes what; their sum matches Amount within 0.01.
	Splits []Split

	// IsSettled excludes the expense from balance computation once true.
	IsSettled bool

	// Date is the Unix timestamp of the expense.
	Date int64

	// CreatedBy is the user ID who recorded the expense.
	CreatedBy string
}

// Split is one participant's share of an expense.
type Split struct {
	Email  string
	Amount decimal.Decimal
}
