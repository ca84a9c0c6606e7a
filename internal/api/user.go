package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// UserServiceName is the fully-qualified name of the UserService service,
// which manages the sub-users of the caller's tenant.
const UserServiceName = "splitledger.v1.UserService"

const (
	UserServiceCreateUserProcedure = "/splitledger.v1.UserService/CreateUser"
	UserServiceUpdateUserProcedure = "/splitledger.v1.UserService/UpdateUser"
	UserServiceDeleteUserProcedure = "/splitledger.v1.UserService/DeleteUser"
	UserServiceListUsersProcedure  = "/splitledger.v1.UserService/ListUsers"
)

// CreateUserRequest adds a sub-user. A temporary password is generated and
// mailed to the new user.
type CreateUserRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required"`
}

type UpdateUserRequest struct {
	UserID string  `json:"userId" validate:"required"`
	Name   *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Role   *string `json:"role,omitempty"`
}

type DeleteUserRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type ListUsersRequest struct{}

type ListUsersResponse struct {
	Users []*User `json:"users"`
}

// UserServiceHandler is implemented by the server.
type UserServiceHandler interface {
	CreateUser(context.Context, *connect.Request[CreateUserRequest]) (*connect.Response[UserResponse], error)
	UpdateUser(context.Context, *connect.Request[UpdateUserRequest]) (*connect.Response[UserResponse], error)
	DeleteUser(context.Context, *connect.Request[DeleteUserRequest]) (*connect.Response[MessageResponse], error)
	ListUsers(context.Context, *connect.Request[ListUsersRequest]) (*connect.Response[ListUsersResponse], error)
}

// NewUserServiceHandler builds an HTTP handler from the service implementation.
func NewUserServiceHandler(svc UserServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return mount("/"+UserServiceName+"/", map[string]http.Handler{
		UserServiceCreateUserProcedure: connect.NewUnaryHandler(UserServiceCreateUserProcedure, svc.CreateUser, opts...),
		UserServiceUpdateUserProcedure: connect.NewUnaryHandler(UserServiceUpdateUserProcedure, svc.UpdateUser, opts...),
		UserServiceDeleteUserProcedure: connect.NewUnaryHandler(UserServiceDeleteUserProcedure, svc.DeleteUser, opts...),
		UserServiceListUsersProcedure:  connect.NewUnaryHandler(UserServiceListUsersProcedure, svc.ListUsers, opts...),
	})
}

// UserServiceClient is a client for the splitledger.v1.UserService service.
type UserServiceClient struct {
	createUser *connect.Client[CreateUserRequest, UserResponse]
	updateUser *connect.Client[UpdateUserRequest, UserResponse]
	deleteUser *connect.Client[DeleteUserRequest, MessageResponse]
	listUsers  *connect.Client[ListUsersRequest, ListUsersResponse]
}

// NewUserServiceClient constructs a client for the UserService.
func NewUserServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *UserServiceClient {
	opts = clientOptions(opts)
	return &UserServiceClient{
		createUser: connect.NewClient[CreateUserRequest, UserResponse](httpClient, baseURL+UserServiceCreateUserProcedure, opts...),
		updateUser: connect.NewClient[UpdateUserRequest, UserResponse](httpClient, baseURL+UserServiceUpdateUserProcedure, opts...),
		deleteUser: connect.NewClient[DeleteUserRequest, MessageResponse](httpClient, baseURL+UserServiceDeleteUserProcedure, opts...),
		listUsers:  connect.NewClient[ListUsersRequest, ListUsersResponse](httpClient, baseURL+UserServiceListUsersProcedure, opts...),
	}
}

func (c *UserServiceClient) CreateUser(ctx context.Context, req *connect.Request[CreateUserRequest]) (*connect.Response[UserResponse], error) {
	return c.createUser.CallUnary(ctx, req)
}

func (c *UserServiceClient) UpdateUser(ctx context.Context, req *connect.Request[UpdateUserRequest]) (*connect.Response[UserResponse], error) {
	return c.updateUser.CallUnary(ctx, req)
}

func (c *UserServiceClient) DeleteUser(ctx context.Context, req *connect.Request[DeleteUserRequest]) (*connect.Response[MessageResponse], error) {
	return c.deleteUser.CallUnary(ctx, req)
}

func (c *UserServiceClient) ListUsers(ctx context.Context, req *connect.Request[ListUsersRequest]) (*connect.Response[ListUsersResponse], error) {
	return c.listUsers.CallUnary(ctx, req)
}
