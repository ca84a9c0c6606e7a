package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Role is a group role or a tenant role. Both hierarchies use the same names.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleViewer  Role = "viewer"
)

// DefaultCurrency is the currency new groups start with.
const DefaultCurrency = "INR"

var (
	ErrInvalidRole      = errors.New("invalid role")
	ErrCreatorProtected = errors.New("the group creator must remain an admin member")
	ErrMemberNotFound   = errors.New("member not found in group")
)

// ParseRole lower-cases and validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleManager, RoleViewer:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// NormalizeEmail returns the canonical form used as the membership key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Member is one entry of a group's member list.
type Member struct {
	Email string
	Role  Role
}

// PaymentStatus tracks the group-level payment, independent of the
// per-expense settled flag.
type PaymentStatus struct {
	Amount   decimal.Decimal
	Currency string
	// Date is the Unix timestamp of the last payment status change.
	Date   int64
	IsPaid bool
}

// Group represents a set of members sharing expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Work Lunch").
	Name string

	Description string
	Thumbnail   string

	// AdminEmail is the creator's email. It grants admin authority even
	// if the creator is missing from Members.
	AdminEmail string

	// Members is ordered by insertion; emails are unique case-insensitively.
	Members []Member

	PaymentStatus PaymentStatus

	CreatedAt int64
	UpdatedAt int64
}

// NewGroup builds a group owned by creatorEmail. The creator is always the
// first member with the admin role; additional members keep their order and
// duplicates of the creator are ignored.
func NewGroup(name, creatorEmail string, members []Member, now int64) *Group {
	g := &Group{
		Name:       name,
		AdminEmail: NormalizeEmail(creatorEmail),
		PaymentStatus: PaymentStatus{
			Amount:   decimal.Zero,
			Currency: DefaultCurrency,
			Date:     now,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	g.Members = []Member{{Email: g.AdminEmail, Role: RoleAdmin}}
	g.AddMembers(members)
	return g
}

// Member returns the membership entry for email, matched case-insensitively.
func (g *Group) Member(email string) (Member, bool) {
	key := NormalizeEmail(email)
	for _, m := range g.Members {
		if NormalizeEmail(m.Email) == key {
			return m, true
		}
	}
	return Member{}, false
}

// IsCreator reports whether email is the group's AdminEmail.
func (g *Group) IsCreator(email string) bool {
	return g.AdminEmail != "" && NormalizeEmail(g.AdminEmail) == NormalizeEmail(email)
}

// AddMembers appends members whose email is not already present and returns
// the ones actually added. Existing entries keep their role. Empty roles
// default to viewer.
func (g *Group) AddMembers(members []Member) []Member {
	var added []Member
	for _, m := range members {
		email := NormalizeEmail(m.Email)
		if email == "" {
			continue
		}
		if _, exists := g.Member(email); exists {
			continue
		}
		role := m.Role
		if role == "" {
			role = RoleViewer
		}
		nm := Member{Email: email, Role: role}
		g.Members = append(g.Members, nm)
		added = append(added, nm)
	}
	return added
}

// RemoveMembers drops the given emails from the member list and returns how
// many entries were removed. The creator cannot be removed.
func (g *Group) RemoveMembers(emails []string) (int, error) {
	drop := make(map[string]bool, len(emails))
	for _, e := range emails {
		if g.IsCreator(e) {
			return 0, ErrCreatorProtected
		}
		drop[NormalizeEmail(e)] = true
	}

	kept := make([]Member, 0, len(g.Members))
	for _, m := range g.Members {
		if !drop[NormalizeEmail(m.Email)] {
			kept = append(kept, m)
		}
	}
	removed := len(g.Members) - len(kept)
	g.Members = kept
	return removed, nil
}

// SetMemberRole changes the role of an existing member. The creator keeps
// the admin role.
func (g *Group) SetMemberRole(email string, role Role) error {
	if g.IsCreator(email) && role != RoleAdmin {
		return ErrCreatorProtected
	}
	key := NormalizeEmail(email)
	for i := range g.Members {
		if NormalizeEmail(g.Members[i].Email) == key {
			g.Members[i].Role = role
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrMemberNotFound, email)
}
