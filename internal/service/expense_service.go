package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/access"
	"github.com/mmynk/splitledger/internal/api"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var _ api.ExpenseServiceHandler = (*ExpenseService)(nil)

// ExpenseService implements the Connect ExpenseService: the expense ledger
// and the settlement operations on top of it.
type ExpenseService struct {
	store  storage.Store
	access *access.Engine
}

// NewExpenseService creates a new ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store, access: access.NewEngine(store)}
}

// AddExpense records an expense paid by one email and split across others.
func (s *ExpenseService) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	slog.Info("AddExpense request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount,
		"splits_count", len(req.Msg.Splits),
	)

	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	decision, err := s.access.Group(ctx, p, req.Msg.GroupID, access.ActionExpenseAdd)
	if err != nil {
		return nil, toConnectError(ctx, "AddExpense", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, "AddExpense", err)
	}

	description := strings.TrimSpace(req.Msg.Description)
	if description == "" {
		return nil, toConnectError(ctx, "AddExpense", invalid("description is required"))
	}
	paidBy := models.NormalizeEmail(req.Msg.PaidBy)
	if paidBy == "" {
		return nil, toConnectError(ctx, "AddExpense", invalid("paidBy is required"))
	}

	amount := decimal.NewFromFloat(req.Msg.Amount)
	splits := toModelSplits(req.Msg.Splits)
	if err := calculator.ValidateSplits(amount, splits); err != nil {
		return nil, toConnectError(ctx, "AddExpense", err)
	}

	// paidBy and split emails are not required to be group members.
	expense := &models.Expense{
		GroupID:     decision.Group.ID,
		Description: description,
		Amount:      amount,
		PaidBy:      paidBy,
		Splits:      splits,
		Date:        time.Now().Unix(),
		CreatedBy:   p.ID,
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, toConnectError(ctx, "AddExpense", err)
	}

	slog.Info("Expense created", "expense_id", expense.ID, "group_id", expense.GroupID)

	return connect.NewResponse(&api.ExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// ListGroupExpenses returns every expense of a group, newest first,
// including settled ones.
func (s *ExpenseService) ListGroupExpenses(ctx context.Context, req *connect.Request[api.ListGroupExpensesRequest]) (*connect.Response[api.ListGroupExpensesResponse], error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	decision, err := s.access.Group(ctx, p, req.Msg.GroupID, access.ActionExpenseList)
	if err != nil {
		return nil, toConnectError(ctx, "ListGroupExpenses", err)
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, decision.Group.ID)
	if err != nil {
		return nil, toConnectError(ctx, "ListGroupExpenses", err)
	}

	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e)
	}

	return connect.NewResponse(&api.ListGroupExpensesResponse{Expenses: out}), nil
}

// GetGroupSummary computes net balances over the unsettled expenses and a
// set of transfers that would clear them.
func (s *ExpenseService) GetGroupSummary(ctx context.Context, req *connect.Request[api.GetGroupSummaryRequest]) (*connect.Response[api.GroupSummaryResponse], error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	decision, err := s.access.Group(ctx, p, req.Msg.GroupID, access.ActionExpenseSummary)
	if err != nil {
		return nil, toConnectError(ctx, "GetGroupSummary", err)
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, decision.Group.ID)
	if err != nil {
		return nil, toConnectError(ctx, "GetGroupSummary", err)
	}

	balances := calculator.GroupSummary(expenses)
	transfers := calculator.SimplifyDebts(balances)

	slog.Info("GetGroupSummary successful",
		"group_id", decision.Group.ID,
		"expenses", len(expenses),
		"members_with_balance", len(balances),
	)

	return connect.NewResponse(&api.GroupSummaryResponse{
		Balances:    toAPIBalances(balances),
		Settlements: toAPITransfers(transfers),
	}), nil
}

// SettleGroup marks every unsettled expense of the group as settled.
// Settling an already settled group succeeds and changes nothing.
func (s *ExpenseService) SettleGroup(ctx context.Context, req *connect.Request[api.SettleGroupRequest]) (*connect.Response[api.SettleGroupResponse], error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	decision, err := s.access.Group(ctx, p, req.Msg.GroupID, access.ActionExpenseSettle)
	if err != nil {
		return nil, toConnectError(ctx, "SettleGroup", err)
	}

	n, err := s.store.SettleGroupExpenses(ctx, decision.Group.ID)
	if err != nil {
		return nil, toConnectError(ctx, "SettleGroup", err)
	}

	slog.Info("Group settled", "group_id", decision.Group.ID, "settled", n, "user_id", p.ID)

	return connect.NewResponse(&api.SettleGroupResponse{
		Message:      "Group settled successfully",
		SettledCount: n,
	}), nil
}
