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
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var _ api.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService.
type GroupService struct {
	store  storage.Store
	access *access.Engine
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store, access: access.NewEngine(store)}
}

// CreateGroup creates a group owned by the caller, who becomes its first
// admin member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.GroupResponse], error) {
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.MemberEmail),
	)

	p, err := requireTenantPrincipal(ctx, s.store)
	if err != nil {
		return nil, err
	}
	if err := access.CheckTenant(p, access.ActionGroupCreate); err != nil {
		return nil, toConnectError(ctx, "CreateGroup", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, "CreateGroup", err)
	}
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, toConnectError(ctx, "CreateGroup", invalid("name is required"))
	}
	members, err := toModelMembers(req.Msg.MemberEmail)
	if err != nil {
		return nil, toConnectError(ctx, "CreateGroup", err)
	}

	group := models.NewGroup(name, p.Email, members, time.Now().Unix())
	group.Description = req.Msg.Description
	group.Thumbnail = req.Msg.Thumbnail

	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, toConnectError(ctx, "CreateGroup", err)
	}

	slog.Info("Group created", "group_id", group.ID, "admin", group.AdminEmail)

	return connect.NewResponse(&api.GroupResponse{
		Message: "Group created successfully",
		Group:   toAPIGroup(group),
	}), nil
}

// GetGroup retrieves a group the caller is a member of.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GroupResponse], error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	decision, err := s.access.Group(ctx, p, req.Msg.GroupID, access.ActionGroupView)
	if err != nil {
		return nil, toConnectError(ctx, "GetGroup", err)
	}

	return connect.NewResponse(&api.GroupResponse{Group: toAPIGroup(decision.Group)}), nil
}

// ListGroups returns one page of the groups the caller belongs to.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, "ListGroups", err)
	}

	opts := storage.GroupListOptions{
		Limit:     req.Msg.Limit,
		Skip:      req.Msg.Skip,
		SortBy:    storage.SortField(req.Msg.SortBy),
		Ascending: req.Msg.SortOrder == "asc",
		IsPaid:    req.Msg.IsPaid,
	}
	if opts.SortBy == "" {
		opts.SortBy = storage.SortByCreatedAt
	}

	groups, total, err := s.store.ListGroupsPaginated(ctx, p.Email, opts)
	if err != nil {
		return nil, toConnectError(ctx, "ListGroups", err)
	}

	out := make([]*api.Group, len(groups))
	for i, g := range groups {
		out[i] = toAPIGroup(g)
	}

	slog.Info("ListGroups successful", "user_id", p.ID, "count", len(groups), "total", total)

	return connect.NewResponse(&api.ListGroupsResponse{
		Groups:     out,
		TotalCount: total,
		Limit:      req.Msg.Limit,
		Skip:       req.Msg.Skip,
	}), nil
}

// UpdateGroup changes the name, description or thumbnail.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.GroupResponse], error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	decision, err := s.access.Group(ctx, p, req.Msg.GroupID, access.ActionGroupUpdate)
	if err != nil {
		return nil, toConnectError(ctx, "UpdateGroup", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, "UpdateGroup", err)
	}

	if req.Msg.Name != nil && strings.TrimSpace(*req.Msg.Name) == "" {
		return nil, toConnectError(ctx, "UpdateGroup", invalid("name must not be blank"))
	}

	group, err := s.store.ModifyGroup(ctx, decision.Group.ID, func(g *models.Group) error {
		if req.Msg.Name != nil {
			g.Name = strings.TrimSpace(*req.Msg.Name)
		}
		if req.Msg.Description != nil {
			g.Description = *req.Msg.Description
		}
		if req.Msg.Thumbnail != nil {
			g.Thumbnail = *req.Msg.Thumbnail
		}
		return nil
	})
	if err != nil {
		return nil, toConnectError(ctx, "UpdateGroup", err)
	}

	slog.Info("Group updated", "group_id", group.ID)

	return connect.NewResponse(&api.GroupResponse{
		Message: "Group updated successfully",
		Group:   toAPIGroup(group),
	}), nil
}

// DeleteGroup removes a group and its expenses.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.MessageResponse], error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	decision, err := s.access.Group(ctx, p, req.Msg.GroupID, access.ActionGroupDelete)
	if err != nil {
		return nil, toConnectError(ctx, "DeleteGroup", err)
	}

	if err := s.store.DeleteGroup(ctx, decision.Group.ID); err != nil {
		return nil, toConnectError(ctx, "DeleteGroup", err)
	}

	slog.Info("Group deleted", "group_id", decision.Group.ID, "user_id", p.ID)

	return connect.NewResponse(&api.MessageResponse{Message: "Group deleted successfully"}), nil
}

// AddMembers adds members to a group. Emails already present are skipped
// and keep their role.
func (s *GroupService) AddMembers(ctx context.Context, req *connect.Request[api.AddMembersRequest]) (*connect.Response[api.AddMembersResponse], error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	decision, err := s.access.Group(ctx, p, req.Msg.GroupID, access.ActionMemberAdd)
	if err != nil {
		return nil, toConnectError(ctx, "AddMembers", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, "AddMembers", err)
	}
	members, err := toModelMembers(req.Msg.Members)
	if err != nil {
		return nil, toConnectError(ctx, "AddMembers", err)
	}

	var added []models.Member
	group, err := s.store.ModifyGroup(ctx, decision.Group.ID, func(g *models.Group) error {
		added = g.AddMembers(members)
		return nil
	})
	if err != nil {
		return nil, toConnectError(ctx, "AddMembers", err)
	}

	out := make([]api.Member, len(added))
	for i, m := range added {
		out[i] = api.Member{Email: m.Email, Role: string(m.Role)}
	}

	slog.Info("Members added", "group_id", group.ID, "added", len(added), "requested", len(members))

	return connect.NewResponse(&api.AddMembersResponse{
		Message: "Members added successfully",
		Added:   out,
		Group:   toAPIGroup(group),
	}), nil
}

// RemoveMembers removes members by email. The group creator cannot be removed.
func (s *GroupService) RemoveMembers(ctx context.Context, req *connect.Request[api.RemoveMembersRequest]) (*connect.Response[api.RemoveMembersResponse], error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	decision, err := s.access.Group(ctx, p, req.Msg.GroupID, access.ActionMemberRemove)
	if err != nil {
		return nil, toConnectError(ctx, "RemoveMembers", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, "RemoveMembers", err)
	}

	var removed int
	group, err := s.store.ModifyGroup(ctx, decision.Group.ID, func(g *models.Group) error {
		n, err := g.RemoveMembers(req.Msg.Emails)
		removed = n
		return err
	})
	if err != nil {
		return nil, toConnectError(ctx, "RemoveMembers", err)
	}

	slog.Info("Members removed", "group_id", group.ID, "removed", removed)

	return connect.NewResponse(&api.RemoveMembersResponse{
		Message: "Members removed successfully",
		Removed: removed,
		Group:   toAPIGroup(group),
	}), nil
}

// UpdateMemberRole changes one member's role.
func (s *GroupService) UpdateMemberRole(ctx context.Context, req *connect.Request[api.UpdateMemberRoleRequest]) (*connect.Response[api.GroupResponse], error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	decision, err := s.access.Group(ctx, p, req.Msg.GroupID, access.ActionMemberRole)
	if err != nil {
		return nil, toConnectError(ctx, "UpdateMemberRole", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, "UpdateMemberRole", err)
	}
	role, err := models.ParseRole(req.Msg.Role)
	if err != nil {
		return nil, toConnectError(ctx, "UpdateMemberRole", err)
	}

	group, err := s.store.UpdateMemberRole(ctx, decision.Group.ID, req.Msg.Email, role)
	if err != nil {
		return nil, toConnectError(ctx, "UpdateMemberRole", err)
	}

	slog.Info("Member role updated", "group_id", group.ID, "email", req.Msg.Email, "role", role)

	return connect.NewResponse(&api.GroupResponse{
		Message: "Member role updated successfully",
		Group:   toAPIGroup(group),
	}), nil
}

// UpdatePaymentStatus records the group-level payment and stamps its date.
// Expense settled flags are not touched.
func (s *GroupService) UpdatePaymentStatus(ctx context.Context, req *connect.Request[api.UpdatePaymentStatusRequest]) (*connect.Response[api.GroupResponse], error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	decision, err := s.access.Group(ctx, p, req.Msg.GroupID, access.ActionGroupPayment)
	if err != nil {
		return nil, toConnectError(ctx, "UpdatePaymentStatus", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, "UpdatePaymentStatus", err)
	}

	group, err := s.store.ModifyGroup(ctx, decision.Group.ID, func(g *models.Group) error {
		g.PaymentStatus.Amount = decimal.NewFromFloat(req.Msg.Amount)
		if req.Msg.Currency != "" {
			g.PaymentStatus.Currency = strings.ToUpper(req.Msg.Currency)
		}
		g.PaymentStatus.IsPaid = req.Msg.IsPaid
		g.PaymentStatus.Date = time.Now().Unix()
		return nil
	})
	if err != nil {
		return nil, toConnectError(ctx, "UpdatePaymentStatus", err)
	}

	slog.Info("Payment status updated", "group_id", group.ID, "is_paid", group.PaymentStatus.IsPaid)

	return connect.NewResponse(&api.GroupResponse{
		Message: "Payment status updated successfully",
		Group:   toAPIGroup(group),
	}), nil
}

// GetAuditLog reports when the group's payment status last changed.
func (s *GroupService) GetAuditLog(ctx context.Context, req *connect.Request[api.GetAuditLogRequest]) (*connect.Response[api.AuditLogResponse], error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	decision, err := s.access.Group(ctx, p, req.Msg.GroupID, access.ActionGroupAudit)
	if err != nil {
		return nil, toConnectError(ctx, "GetAuditLog", err)
	}

	return connect.NewResponse(&api.AuditLogResponse{
		GroupID:         decision.Group.ID,
		LastPaymentDate: decision.Group.PaymentStatus.Date,
		IsPaid:          decision.Group.PaymentStatus.IsPaid,
	}), nil
}
