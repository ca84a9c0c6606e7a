// Package access decides whether a principal may act on a tenant or a group.
//
// Two independent layers exist:
//
//   - tenant permissions: a static mapping from the principal's global role
//     to action tags, used for actions that are not scoped to an existing
//     group (creating groups, managing sub-users).
//   - group roles: the principal's role inside one group, resolved from the
//     group's member list with the group's AdminEmail as a fallback, checked
//     against an explicit allow-list per action.
//
// The tenant hierarchy (AdminID links) never grants group authority.
package access

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	ErrPermissionDenied = errors.New("forbidden: insufficient permissions")
	ErrNotMember        = errors.New("forbidden: you are not a member of this group")
	ErrInsufficientRole = errors.New("forbidden: insufficient group role")
	ErrGroupIDRequired  = errors.New("group ID is required")
	ErrGroupNotFound    = errors.New("group not found")
)

// Principal is the authenticated actor of a request. It is passed
// explicitly into every access decision.
type Principal struct {
	ID      string
	Email   string
	Name    string
	Role    string
	AdminID string
}

// TenantAdminID is the admin owning the principal's tenant.
func (p Principal) TenantAdminID() string {
	if p.AdminID == "" {
		return p.ID
	}
	return p.AdminID
}

// Action is a permission tag.
type Action string

// Tenant-level actions.
const (
	ActionGroupCreate Action = "group:create"
	ActionUserCreate  Action = "user:create"
	ActionUserUpdate  Action = "user:update"
	ActionUserDelete  Action = "user:delete"
	ActionUserList    Action = "user:list"
)

// Group-level actions.
const (
	ActionGroupView      Action = "group:view"
	ActionGroupUpdate    Action = "group:update"
	ActionGroupDelete    Action = "group:delete"
	ActionGroupPayment   Action = "group:payment"
	ActionGroupAudit     Action = "group:audit"
	ActionMemberAdd      Action = "member:add"
	ActionMemberRemove   Action = "member:remove"
	ActionMemberRole     Action = "member:role"
	ActionExpenseAdd     Action = "expense:add"
	ActionExpenseList    Action = "expense:list"
	ActionExpenseSummary Action = "expense:summary"
	ActionExpenseSettle  Action = "expense:settle"
)

var tenantPermissions = map[models.Role][]Action{
	models.RoleAdmin: {
		ActionGroupCreate,
		ActionUserCreate,
		ActionUserUpdate,
		ActionUserDelete,
		ActionUserList,
	},
	models.RoleManager: {ActionGroupCreate},
	models.RoleViewer:  {},
}

var (
	anyRole     = []models.Role{models.RoleAdmin, models.RoleManager, models.RoleViewer}
	writerRoles = []models.Role{models.RoleAdmin, models.RoleManager}
	adminOnly   = []models.Role{models.RoleAdmin}
)

// groupPolicies lists the roles allowed per group action. The lists are
// explicit rather than derived from a role ordering.
var groupPolicies = map[Action][]models.Role{
	ActionGroupView:      anyRole,
	ActionGroupAudit:     anyRole,
	ActionExpenseList:    anyRole,
	ActionExpenseSummary: anyRole,
	ActionExpenseAdd:     writerRoles,
	ActionExpenseSettle:  writerRoles,
	ActionGroupPayment:   writerRoles,
	ActionGroupUpdate:    adminOnly,
	ActionGroupDelete:    adminOnly,
	ActionMemberAdd:      adminOnly,
	ActionMemberRemove:   adminOnly,
	ActionMemberRole:     adminOnly,
}

// InsufficientRoleError is returned when the principal is a member of the
// group but its role is not on the action's allow-list.
type InsufficientRoleError struct {
	Action  Action
	Role    models.Role
	Allowed []models.Role
}

func (e *InsufficientRoleError) Error() string {
	names := make([]string, len(e.Allowed))
	for i, r := range e.Allowed {
		names[i] = string(r)
	}
	return "forbidden: this action requires one of the following roles: " + strings.Join(names, ", ")
}

// Is makes errors.Is(err, ErrInsufficientRole) match.
func (e *InsufficientRoleError) Is(target error) bool {
	return target == ErrInsufficientRole
}

// AllowedRoles returns the allow-list for a group action.
func AllowedRoles(action Action) []models.Role {
	return groupPolicies[action]
}

// CheckTenant checks a tenant-level action against the principal's global
// role. An empty or unknown role is denied.
func CheckTenant(p Principal, action Action) error {
	role := models.Role(strings.ToLower(p.Role))
	for _, a := range tenantPermissions[role] {
		if a == action {
			return nil
		}
	}
	return ErrPermissionDenied
}

// ResolveGroupRole returns the role email holds in g. A matching member
// entry wins; otherwise the group's AdminEmail yields admin.
func ResolveGroupRole(g *models.Group, email string) (models.Role, bool) {
	if m, ok := g.Member(email); ok && m.Role != "" {
		return m.Role, true
	}
	if g.IsCreator(email) {
		return models.RoleAdmin, true
	}
	return "", false
}

// AuthorizeGroup resolves the principal's role in g and checks it against
// the allow-list of action.
func AuthorizeGroup(p Principal, g *models.Group, action Action) (models.Role, error) {
	role, ok := ResolveGroupRole(g, p.Email)
	if !ok {
		return "", ErrNotMember
	}

	allowed, known := groupPolicies[action]
	if !known {
		return "", fmt.Errorf("unknown group action %q", action)
	}
	for _, r := range allowed {
		if r == role {
			return role, nil
		}
	}
	return role, &InsufficientRoleError{Action: action, Role: role, Allowed: allowed}
}
