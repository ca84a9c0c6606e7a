package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// ExpenseServiceName is the fully-qualified name of the ExpenseService service.
const ExpenseServiceName = "splitledger.v1.ExpenseService"

const (
	ExpenseServiceAddExpenseProcedure        = "/splitledger.v1.ExpenseService/AddExpense"
	ExpenseServiceListGroupExpensesProcedure = "/splitledger.v1.ExpenseService/ListGroupExpenses"
	ExpenseServiceGetGroupSummaryProcedure   = "/splitledger.v1.ExpenseService/GetGroupSummary"
	ExpenseServiceSettleGroupProcedure       = "/splitledger.v1.ExpenseService/SettleGroup"
)

type AddExpenseRequest struct {
	GroupID     string  `json:"groupId"`
	Description string  `json:"description" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	PaidBy      string  `json:"paidBy" validate:"required"`
	Splits      []Split `json:"splits" validate:"required,min=1,dive"`
}

type ExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListGroupExpensesRequest struct {
	GroupID string `json:"groupId"`
}

type ListGroupExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type GetGroupSummaryRequest struct {
	GroupID string `json:"groupId"`
}

// GroupSummaryResponse maps each email to its net balance: positive means
// the member is owed money, negative means the member owes. Settlements is
// a suggested set of transfers that clears the balances.
type GroupSummaryResponse struct {
	Balances    map[string]float64 `json:"balances"`
	Settlements []Transfer         `json:"settlements"`
}

type SettleGroupRequest struct {
	GroupID string `json:"groupId"`
}

type SettleGroupResponse struct {
	Message      string `json:"message"`
	SettledCount int64  `json:"settledCount"`
}

// ExpenseServiceHandler is implemented by the server.
type ExpenseServiceHandler interface {
	AddExpense(context.Context, *connect.Request[AddExpenseRequest]) (*connect.Response[ExpenseResponse], error)
	ListGroupExpenses(context.Context, *connect.Request[ListGroupExpensesRequest]) (*connect.Response[ListGroupExpensesResponse], error)
	GetGroupSummary(context.Context, *connect.Request[GetGroupSummaryRequest]) (*connect.Response[GroupSummaryResponse], error)
	SettleGroup(context.Context, *connect.Request[SettleGroupRequest]) (*connect.Response[SettleGroupResponse], error)
}

// NewExpenseServiceHandler builds an HTTP handler from the service implementation.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return mount("/"+ExpenseServiceName+"/", map[string]http.Handler{
		ExpenseServiceAddExpenseProcedure:        connect.NewUnaryHandler(ExpenseServiceAddExpenseProcedure, svc.AddExpense, opts...),
		ExpenseServiceListGroupExpensesProcedure: connect.NewUnaryHandler(ExpenseServiceListGroupExpensesProcedure, svc.ListGroupExpenses, opts...),
		ExpenseServiceGetGroupSummaryProcedure:   connect.NewUnaryHandler(ExpenseServiceGetGroupSummaryProcedure, svc.GetGroupSummary, opts...),
		ExpenseServiceSettleGroupProcedure:       connect.NewUnaryHandler(ExpenseServiceSettleGroupProcedure, svc.SettleGroup, opts...),
	})
}

// ExpenseServiceClient is a client for the splitledger.v1.ExpenseService service.
type ExpenseServiceClient struct {
	addExpense        *connect.Client[AddExpenseRequest, ExpenseResponse]
	listGroupExpenses *connect.Client[ListGroupExpensesRequest, ListGroupExpensesResponse]
	getGroupSummary   *connect.Client[GetGroupSummaryRequest, GroupSummaryResponse]
	settleGroup       *connect.Client[SettleGroupRequest, SettleGroupResponse]
}

// NewExpenseServiceClient constructs a client for the ExpenseService.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ExpenseServiceClient {
	opts = clientOptions(opts)
	return &ExpenseServiceClient{
		addExpense:        connect.NewClient[AddExpenseRequest, ExpenseResponse](httpClient, baseURL+ExpenseServiceAddExpenseProcedure, opts...),
		listGroupExpenses: connect.NewClient[ListGroupExpensesRequest, ListGroupExpensesResponse](httpClient, baseURL+ExpenseServiceListGroupExpensesProcedure, opts...),
		getGroupSummary:   connect.NewClient[GetGroupSummaryRequest, GroupSummaryResponse](httpClient, baseURL+ExpenseServiceGetGroupSummaryProcedure, opts...),
		settleGroup:       connect.NewClient[SettleGroupRequest, SettleGroupResponse](httpClient, baseURL+ExpenseServiceSettleGroupProcedure, opts...),
	}
}

func (c *ExpenseServiceClient) AddExpense(ctx context.Context, req *connect.Request[AddExpenseRequest]) (*connect.Response[ExpenseResponse], error) {
	return c.addExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) ListGroupExpenses(ctx context.Context, req *connect.Request[ListGroupExpensesRequest]) (*connect.Response[ListGroupExpensesResponse], error) {
	return c.listGroupExpenses.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) GetGroupSummary(ctx context.Context, req *connect.Request[GetGroupSummaryRequest]) (*connect.Response[GroupSummaryResponse], error) {
	return c.getGroupSummary.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) SettleGroup(ctx context.Context, req *connect.Request[SettleGroupRequest]) (*connect.Response[SettleGroupResponse], error) {
	return c.settleGroup.CallUnary(ctx, req)
}
