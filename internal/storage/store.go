// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a unique key (e.g. email) is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// UserStore is the credential store.
type UserStore interface {
	// CreateUser persists a new user. Returns ErrAlreadyExists when the
	// email is already registered.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns ErrNotFound if no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns ErrNotFound if the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// UpdateUser updates name, role and Google ID.
	UpdateUser(ctx context.Context, user *models.User) error

	DeleteUser(ctx context.Context, id string) error

	// ListUsersByAdmin returns the sub-users owned by adminID, excluding
	// the admin itself.
	ListUsersByAdmin(ctx context.Context, adminID string) ([]*models.User, error)

	// UpdatePassword stores a new hash and clears any pending reset token.
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// ResetTokenStore keeps short-lived password reset tokens.
type ResetTokenStore interface {
	// Save records token for userID, valid for ttl.
	Save(ctx context.Context, token, userID string, ttl time.Duration) error

	// Lookup returns the user ID for a valid token, or ErrNotFound when the
	// token is unknown or expired.
	Lookup(ctx context.Context, token string) (string, error)

	// Delete invalidates a token. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}

// SortField selects the ordering of paginated group listings.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByName      SortField = "name"
)

// GroupListOptions controls ListGroupsPaginated.
type GroupListOptions struct {
	Limit     int
	Skip      int
	SortBy    SortField
	Ascending bool
	// IsPaid filters on the group payment status when non-nil.
	IsPaid *bool
}

// GroupStore persists groups with their embedded member list.
type GroupStore interface {
	// CreateGroup assigns an ID and persists the group with its members.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup returns ErrNotFound if the group does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// UpdateGroup writes the whole aggregate, members included.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// ModifyGroup loads the group, applies fn and writes the result back in
	// one transaction. An error from fn aborts the write and is returned.
	ModifyGroup(ctx context.Context, groupID string, fn func(*models.Group) error) (*models.Group, error)

	// AddGroupMembers adds members with set semantics on email and returns
	// the updated group.
	AddGroupMembers(ctx context.Context, groupID string, members []models.Member) (*models.Group, error)

	// RemoveGroupMembers removes members by email and returns the updated group.
	RemoveGroupMembers(ctx context.Context, groupID string, emails []string) (*models.Group, error)

	// UpdateMemberRole changes one member's role and returns the updated group.
	UpdateMemberRole(ctx context.Context, groupID, email string, role models.Role) (*models.Group, error)

	// ListGroupsPaginated returns one page of the groups email belongs to,
	// plus the total number of matching groups.
	ListGroupsPaginated(ctx context.Context, email string, opts GroupListOptions) ([]*models.Group, int, error)

	DeleteGroup(ctx context.Context, groupID string) error
}

// ExpenseStore is the expense ledger.
type ExpenseStore interface {
	// CreateExpense assigns an ID and persists the expense with its splits.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// ListExpensesByGroup returns all expenses of a group, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// SettleGroupExpenses marks every unsettled expense of the group as
	// settled in one conditional update and returns how many changed.
	SettleGroupExpenses(ctx context.Context, groupID string) (int64, error)
}

// Store bundles every store the services need.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore
	GroupStore
	ExpenseStore

	// Close releases any resources held by the store.
	Close() error
}
