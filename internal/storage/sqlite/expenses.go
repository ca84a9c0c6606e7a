package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
)

// CreateExpense persists a new expense and its splits.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.Date == 0 {
		expense.Date = time.Now().Unix()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (id, group_id, description, amount, paid_by, is_settled, date, created_by)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			expense.ID, expense.GroupID, expense.Description, expense.Amount,
			models.NormalizeEmail(expense.PaidBy), boolToInt(expense.IsSettled), expense.Date, expense.CreatedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		for i, split := range expense.Splits {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO expense_splits (expense_id, position, email, amount) VALUES (?, ?, ?, ?)",
				expense.ID, i, models.NormalizeEmail(split.Email), split.Amount,
			)
			if err != nil {
				return fmt.Errorf("failed to insert split: %w", err)
			}
		}
		return nil
	})
}

// ListExpensesByGroup retrieves all expenses for a group, newest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, description, amount, paid_by, is_settled, date, created_by
		 FROM expenses WHERE group_id = ? ORDER BY date DESC, rowid DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by group: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	byID := make(map[string]*models.Expense)
	for rows.Next() {
		e := &models.Expense{}
		var settled int
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Description, &e.Amount, &e.PaidBy, &settled, &e.Date, &e.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.IsSettled = settled != 0
		expenses = append(expenses, e)
		byID[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	splitRows, err := s.db.QueryContext(ctx,
		`SELECT es.expense_id, es.email, es.amount
		 FROM expense_splits es JOIN expenses e ON e.id = es.expense_id
		 WHERE e.group_id = ?
		 ORDER BY es.expense_id, es.position`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense splits: %w", err)
	}
	defer splitRows.Close()

	for splitRows.Next() {
		var expenseID string
		var split models.Split
		if err := splitRows.Scan(&expenseID, &split.Email, &split.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		// A split of an expense inserted after the first query is skipped.
		if e, ok := byID[expenseID]; ok {
			e.Splits = append(e.Splits, split)
		}
	}
	if err := splitRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	return expenses, nil
}

// SettleGroupExpenses flips every unsettled expense of the group to settled
// with a single conditional UPDATE, so no read-then-write race exists.
func (s *SQLiteStore) SettleGroupExpenses(ctx context.Context, groupID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET is_settled = 1 WHERE group_id = ? AND is_settled = 0`,
		groupID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to settle group expenses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read settled count: %w", err)
	}
	return n, nil
}
