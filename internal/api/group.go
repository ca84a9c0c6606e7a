package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// GroupServiceName is the fully-qualified name of the GroupService service.
const GroupServiceName = "splitledger.v1.GroupService"

const (
	GroupServiceCreateGroupProcedure         = "/splitledger.v1.GroupService/CreateGroup"
	GroupServiceGetGroupProcedure            = "/splitledger.v1.GroupService/GetGroup"
	GroupServiceListGroupsProcedure          = "/splitledger.v1.GroupService/ListGroups"
	GroupServiceUpdateGroupProcedure         = "/splitledger.v1.GroupService/UpdateGroup"
	GroupServiceDeleteGroupProcedure         = "/splitledger.v1.GroupService/DeleteGroup"
	GroupServiceAddMembersProcedure          = "/splitledger.v1.GroupService/AddMembers"
	GroupServiceRemoveMembersProcedure       = "/splitledger.v1.GroupService/RemoveMembers"
	GroupServiceUpdateMemberRoleProcedure    = "/splitledger.v1.GroupService/UpdateMemberRole"
	GroupServiceUpdatePaymentStatusProcedure = "/splitledger.v1.GroupService/UpdatePaymentStatus"
	GroupServiceGetAuditLogProcedure         = "/splitledger.v1.GroupService/GetAuditLog"
)

// CreateGroupRequest creates a group owned by the caller. MemberEmail is
// named after the field the web client sends.
type CreateGroupRequest struct {
	Name        string        `json:"name" validate:"required"`
	Description string        `json:"description"`
	Thumbnail   string        `json:"thumbnail"`
	MemberEmail []MemberInput `json:"memberEmail" validate:"dive"`
}

type GroupResponse struct {
	Message string `json:"message,omitempty"`
	Group   *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId"`
}

// ListGroupsRequest pages through the caller's groups. SortBy is createdAt
// or name; SortOrder is asc or desc (default desc). IsPaid filters on the
// group payment status when set.
type ListGroupsRequest struct {
	Limit     int    `json:"limit" validate:"gte=0,lte=100"`
	Skip      int    `json:"skip" validate:"gte=0"`
	SortBy    string `json:"sortBy" validate:"omitempty,oneof=createdAt name"`
	SortOrder string `json:"sortOrder" validate:"omitempty,oneof=asc desc"`
	IsPaid    *bool  `json:"isPaid,omitempty"`
}

type ListGroupsResponse struct {
	Groups     []*Group `json:"groups"`
	TotalCount int      `json:"totalCount"`
	Limit      int      `json:"limit"`
	Skip       int      `json:"skip"`
}

// UpdateGroupRequest changes the descriptive fields that are set.
type UpdateGroupRequest struct {
	GroupID     string  `json:"groupId"`
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Description *string `json:"description,omitempty"`
	Thumbnail   *string `json:"thumbnail,omitempty"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"groupId"`
}

type AddMembersRequest struct {
	GroupID string        `json:"groupId"`
	Members []MemberInput `json:"members" validate:"required,min=1,dive"`
}

type AddMembersResponse struct {
	Message string   `json:"message"`
	Added   []Member `json:"added"`
	Group   *Group   `json:"group"`
}

type RemoveMembersRequest struct {
	GroupID string   `json:"groupId"`
	Emails  []string `json:"emails" validate:"required,min=1,dive,required"`
}

type RemoveMembersResponse struct {
	Message string `json:"message"`
	Removed int    `json:"removed"`
	Group   *Group `json:"group"`
}

type UpdateMemberRoleRequest struct {
	GroupID string `json:"groupId"`
	Email   string `json:"email" validate:"required,email"`
	Role    string `json:"role" validate:"required"`
}

// UpdatePaymentStatusRequest records the group-level payment. A missing
// currency keeps the current one.
type UpdatePaymentStatusRequest struct {
	GroupID  string  `json:"groupId"`
	Amount   float64 `json:"amount" validate:"gte=0"`
	Currency string  `json:"currency" validate:"omitempty,len=3"`
	IsPaid   bool    `json:"isPaid"`
}

type GetAuditLogRequest struct {
	GroupID string `json:"groupId"`
}

// AuditLogResponse reports when the group payment status last changed.
type AuditLogResponse struct {
	GroupID         string `json:"groupId"`
	LastPaymentDate int64  `json:"lastPaymentDate"`
	IsPaid          bool   `json:"isPaid"`
}

// GroupServiceHandler is implemented by the server.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[CreateGroupRequest]) (*connect.Response[GroupResponse], error)
	GetGroup(context.Context, *connect.Request[GetGroupRequest]) (*connect.Response[GroupResponse], error)
	ListGroups(context.Context, *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error)
	UpdateGroup(context.Context, *connect.Request[UpdateGroupRequest]) (*connect.Response[GroupResponse], error)
	DeleteGroup(context.Context, *connect.Request[DeleteGroupRequest]) (*connect.Response[MessageResponse], error)
	AddMembers(context.Context, *connect.Request[AddMembersRequest]) (*connect.Response[AddMembersResponse], error)
	RemoveMembers(context.Context, *connect.Request[RemoveMembersRequest]) (*connect.Response[RemoveMembersResponse], error)
	UpdateMemberRole(context.Context, *connect.Request[UpdateMemberRoleRequest]) (*connect.Response[GroupResponse], error)
	UpdatePaymentStatus(context.Context, *connect.Request[UpdatePaymentStatusRequest]) (*connect.Response[GroupResponse], error)
	GetAuditLog(context.Context, *connect.Request[GetAuditLogRequest]) (*connect.Response[AuditLogResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler from the service implementation.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return mount("/"+GroupServiceName+"/", map[string]http.Handler{
		GroupServiceCreateGroupProcedure:         connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...),
		GroupServiceGetGroupProcedure:            connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opts...),
		GroupServiceListGroupsProcedure:          connect.NewUnaryHandler(GroupServiceListGroupsProcedure, svc.ListGroups, opts...),
		GroupServiceUpdateGroupProcedure:         connect.NewUnaryHandler(GroupServiceUpdateGroupProcedure, svc.UpdateGroup, opts...),
		GroupServiceDeleteGroupProcedure:         connect.NewUnaryHandler(GroupServiceDeleteGroupProcedure, svc.DeleteGroup, opts...),
		GroupServiceAddMembersProcedure:          connect.NewUnaryHandler(GroupServiceAddMembersProcedure, svc.AddMembers, opts...),
		GroupServiceRemoveMembersProcedure:       connect.NewUnaryHandler(GroupServiceRemoveMembersProcedure, svc.RemoveMembers, opts...),
		GroupServiceUpdateMemberRoleProcedure:    connect.NewUnaryHandler(GroupServiceUpdateMemberRoleProcedure, svc.UpdateMemberRole, opts...),
		GroupServiceUpdatePaymentStatusProcedure: connect.NewUnaryHandler(GroupServiceUpdatePaymentStatusProcedure, svc.UpdatePaymentStatus, opts...),
		GroupServiceGetAuditLogProcedure:         connect.NewUnaryHandler(GroupServiceGetAuditLogProcedure, svc.GetAuditLog, opts...),
	})
}

// GroupServiceClient is a client for the splitledger.v1.GroupService service.
type GroupServiceClient struct {
	createGroup         *connect.Client[CreateGroupRequest, GroupResponse]
	getGroup            *connect.Client[GetGroupRequest, GroupResponse]
	listGroups          *connect.Client[ListGroupsRequest, ListGroupsResponse]
	updateGroup         *connect.Client[UpdateGroupRequest, GroupResponse]
	deleteGroup         *connect.Client[DeleteGroupRequest, MessageResponse]
	addMembers          *connect.Client[AddMembersRequest, AddMembersResponse]
	removeMembers       *connect.Client[RemoveMembersRequest, RemoveMembersResponse]
	updateMemberRole    *connect.Client[UpdateMemberRoleRequest, GroupResponse]
	updatePaymentStatus *connect.Client[UpdatePaymentStatusRequest, GroupResponse]
	getAuditLog         *connect.Client[GetAuditLogRequest, AuditLogResponse]
}

// NewGroupServiceClient constructs a client for the GroupService.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	opts = clientOptions(opts)
	return &GroupServiceClient{
		createGroup:         connect.NewClient[CreateGroupRequest, GroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		getGroup:            connect.NewClient[GetGroupRequest, GroupResponse](httpClient, baseURL+GroupServiceGetGroupProcedure, opts...),
		listGroups:          connect.NewClient[ListGroupsRequest, ListGroupsResponse](httpClient, baseURL+GroupServiceListGroupsProcedure, opts...),
		updateGroup:         connect.NewClient[UpdateGroupRequest, GroupResponse](httpClient, baseURL+GroupServiceUpdateGroupProcedure, opts...),
		deleteGroup:         connect.NewClient[DeleteGroupRequest, MessageResponse](httpClient, baseURL+GroupServiceDeleteGroupProcedure, opts...),
		addMembers:          connect.NewClient[AddMembersRequest, AddMembersResponse](httpClient, baseURL+GroupServiceAddMembersProcedure, opts...),
		removeMembers:       connect.NewClient[RemoveMembersRequest, RemoveMembersResponse](httpClient, baseURL+GroupServiceRemoveMembersProcedure, opts...),
		updateMemberRole:    connect.NewClient[UpdateMemberRoleRequest, GroupResponse](httpClient, baseURL+GroupServiceUpdateMemberRoleProcedure, opts...),
		updatePaymentStatus: connect.NewClient[UpdatePaymentStatusRequest, GroupResponse](httpClient, baseURL+GroupServiceUpdatePaymentStatusProcedure, opts...),
		getAuditLog:         connect.NewClient[GetAuditLogRequest, AuditLogResponse](httpClient, baseURL+GroupServiceGetAuditLogProcedure, opts...),
	}
}

func (c *GroupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[GroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *GroupServiceClient) UpdateGroup(ctx context.Context, req *connect.Request[UpdateGroupRequest]) (*connect.Response[GroupResponse], error) {
	return c.updateGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) DeleteGroup(ctx context.Context, req *connect.Request[DeleteGroupRequest]) (*connect.Response[MessageResponse], error) {
	return c.deleteGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) AddMembers(ctx context.Context, req *connect.Request[AddMembersRequest]) (*connect.Response[AddMembersResponse], error) {
	return c.addMembers.CallUnary(ctx, req)
}

func (c *GroupServiceClient) RemoveMembers(ctx context.Context, req *connect.Request[RemoveMembersRequest]) (*connect.Response[RemoveMembersResponse], error) {
	return c.removeMembers.CallUnary(ctx, req)
}

func (c *GroupServiceClient) UpdateMemberRole(ctx context.Context, req *connect.Request[UpdateMemberRoleRequest]) (*connect.Response[GroupResponse], error) {
	return c.updateMemberRole.CallUnary(ctx, req)
}

func (c *GroupServiceClient) UpdatePaymentStatus(ctx context.Context, req *connect.Request[UpdatePaymentStatusRequest]) (*connect.Response[GroupResponse], error) {
	return c.updatePaymentStatus.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetAuditLog(ctx context.Context, req *connect.Request[GetAuditLogRequest]) (*connect.Response[AuditLogResponse], error) {
	return c.getAuditLog.CallUnary(ctx, req)
}
