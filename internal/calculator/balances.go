// Package calculator derives balances from a group's expense ledger.
package calculator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// SplitTolerance is the largest accepted gap between an expense amount and
// the sum of its splits.
var SplitTolerance = decimal.New(1, -2)

// ErrSplitMismatch is returned when splits do not add up to the amount.
var ErrSplitMismatch = errors.New("split amounts do not match total amount")

// DebtEdge represents a debt from one person to another.
type DebtEdge struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount decimal.Decimal
}

// ValidateSplits checks |sum(splits) - amount| <= SplitTolerance.
func ValidateSplits(amount decimal.Decimal, splits []models.Split) error {
	sum := decimal.Zero
	for _, s := range splits {
		sum = sum.Add(s.Amount)
	}
	if sum.Sub(amount).Abs().GreaterThan(SplitTolerance) {
		return fmt.Errorf("%w: splits sum to %s, amount is %s", ErrSplitMismatch, sum.String(), amount.String())
	}
	return nil
}

// GroupSummary computes per-email net balances from the unsettled expenses.
// Positive = owed money, negative = owes money.
//
// The payer is credited the full amount and every split is debited, so a
// payer who also appears in the splits nets amount minus their own share.
// Emails that net to zero stay in the result.
func GroupSummary(expenses []*models.Expense) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal)

	for _, e := range expenses {
		if e.IsSettled {
			continue
		}

		payer := models.NormalizeEmail(e.PaidBy)
		balances[payer] = balances[payer].Add(e.Amount)

		for _, s := range e.Splits {
			debtor := models.NormalizeEmail(s.Email)
			balances[debtor] = balances[debtor].Sub(s.Amount)
		}
	}

	return balances
}

type party struct {
	email  string
	amount decimal.Decimal
}

// SimplifyDebts turns net balances into a short list of transfers that
// clears them, matching the largest debtor with the largest creditor.
// Sub-cent remainders are ignored.
func SimplifyDebts(balances map[string]decimal.Decimal) []DebtEdge {
	var creditors, debtors []party
	for email, bal := range balances {
		if bal.GreaterThanOrEqual(SplitTolerance) {
			creditors = append(creditors, party{email, bal})
		} else if bal.Neg().GreaterThanOrEqual(SplitTolerance) {
			debtors = append(debtors, party{email, bal.Neg()})
		}
	}
	byAmountDesc := func(p []party) func(i, j int) bool {
		return func(i, j int) bool {
			if !p[i].amount.Equal(p[j].amount) {
				return p[i].amount.GreaterThan(p[j].amount)
			}
			return p[i].email < p[j].email
		}
	}
	sort.Slice(creditors, byAmountDesc(creditors))
	sort.Slice(debtors, byAmountDesc(debtors))

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		// Amount to settle is minimum of what debtor owes and creditor is owed
		amount := decimal.Min(debtors[i].amount, creditors[j].amount)
		if amount.GreaterThanOrEqual(SplitTolerance) {
			edges = append(edges, DebtEdge{From: debtors[i].email, To: creditors[j].email, Amount: amount})
		}

		debtors[i].amount = debtors[i].amount.Sub(amount)
		creditors[j].amount = creditors[j].amount.Sub(amount)

		// Move to next debtor/creditor if fully settled
		if debtors[i].amount.LessThan(SplitTolerance) {
			i++
		}
		if creditors[j].amount.LessThan(SplitTolerance) {
			j++
		}
	}

	return edges
}
