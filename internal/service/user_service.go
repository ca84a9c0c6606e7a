package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/access"
	"github.com/mmynk/splitledger/internal/api"
	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/mail"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var _ api.UserServiceHandler = (*UserService)(nil)

// tempPasswordLength is the length of passwords generated for new sub-users.
const tempPasswordLength = 8

var errUserNotFound = fmt.Errorf("user %w", storage.ErrNotFound)

// UserService implements the Connect UserService: management of the
// sub-users owned by the caller's tenant.
type UserService struct {
	users         storage.UserStore
	authenticator auth.Authenticator
	mailer        mail.Sender
}

// NewUserService creates a new UserService.
func NewUserService(users storage.UserStore, authenticator auth.Authenticator, mailer mail.Sender) *UserService {
	return &UserService{users: users, authenticator: authenticator, mailer: mailer}
}

// CreateUser adds a sub-user with a temporary password and mails it.
// A mail failure is logged and does not fail the call.
func (s *UserService) CreateUser(ctx context.Context, req *connect.Request[api.CreateUserRequest]) (*connect.Response[api.UserResponse], error) {
	p, err := requireTenantPrincipal(ctx, s.users)
	if err != nil {
		return nil, err
	}
	if err := access.CheckTenant(p, access.ActionUserCreate); err != nil {
		return nil, toConnectError(ctx, "CreateUser", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, "CreateUser", err)
	}
	role, err := models.ParseRole(req.Msg.Role)
	if err != nil {
		return nil, toConnectError(ctx, "CreateUser", err)
	}

	tempPassword, err := auth.NewTemporaryPassword(tempPasswordLength)
	if err != nil {
		return nil, toConnectError(ctx, "CreateUser", err)
	}
	hash, err := s.authenticator.HashCredential(tempPassword)
	if err != nil {
		return nil, toConnectError(ctx, "CreateUser", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Msg.Name),
		Email:        models.NormalizeEmail(req.Msg.Email),
		PasswordHash: hash,
		Role:         role,
		AdminID:      p.ID,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, connect.NewError(connect.CodeAlreadyExists, auth.ErrEmailExists)
		}
		return nil, toConnectError(ctx, "CreateUser", err)
	}

	if err := s.mailer.Send(ctx, user.Email, "Temporary Password",
		"Your temporary password is: "+tempPassword); err != nil {
		slog.Error("Failed to send temporary password", "user_id", user.ID, "error", err)
	}

	slog.Info("Sub-user created", "user_id", user.ID, "admin_id", p.ID, "role", role)

	return connect.NewResponse(&api.UserResponse{
		Message: "User created",
		User:    toAPIUser(user),
	}), nil
}

// UpdateUser changes a sub-user's name or role.
func (s *UserService) UpdateUser(ctx context.Context, req *connect.Request[api.UpdateUserRequest]) (*connect.Response[api.UserResponse], error) {
	p, err := requireTenantPrincipal(ctx, s.users)
	if err != nil {
		return nil, err
	}
	if err := access.CheckTenant(p, access.ActionUserUpdate); err != nil {
		return nil, toConnectError(ctx, "UpdateUser", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, "UpdateUser", err)
	}

	user, err := s.subUser(ctx, p, req.Msg.UserID)
	if err != nil {
		return nil, toConnectError(ctx, "UpdateUser", err)
	}

	if req.Msg.Name != nil {
		user.Name = strings.TrimSpace(*req.Msg.Name)
	}
	if req.Msg.Role != nil {
		role, err := models.ParseRole(*req.Msg.Role)
		if err != nil {
			return nil, toConnectError(ctx, "UpdateUser", err)
		}
		user.Role = role
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, toConnectError(ctx, "UpdateUser", err)
	}

	slog.Info("Sub-user updated", "user_id", user.ID, "admin_id", p.ID)

	return connect.NewResponse(&api.UserResponse{
		Message: "User updated",
		User:    toAPIUser(user),
	}), nil
}

// DeleteUser removes a sub-user.
func (s *UserService) DeleteUser(ctx context.Context, req *connect.Request[api.DeleteUserRequest]) (*connect.Response[api.MessageResponse], error) {
	p, err := requireTenantPrincipal(ctx, s.users)
	if err != nil {
		return nil, err
	}
	if err := access.CheckTenant(p, access.ActionUserDelete); err != nil {
		return nil, toConnectError(ctx, "DeleteUser", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, "DeleteUser", err)
	}

	user, err := s.subUser(ctx, p, req.Msg.UserID)
	if err != nil {
		return nil, toConnectError(ctx, "DeleteUser", err)
	}
	if err := s.users.DeleteUser(ctx, user.ID); err != nil {
		return nil, toConnectError(ctx, "DeleteUser", err)
	}

	slog.Info("Sub-user deleted", "user_id", user.ID, "admin_id", p.ID)

	return connect.NewResponse(&api.MessageResponse{Message: "User deleted"}), nil
}

// ListUsers returns the caller's sub-users.
func (s *UserService) ListUsers(ctx context.Context, req *connect.Request[api.ListUsersRequest]) (*connect.Response[api.ListUsersResponse], error) {
	p, err := requireTenantPrincipal(ctx, s.users)
	if err != nil {
		return nil, err
	}
	if err := access.CheckTenant(p, access.ActionUserList); err != nil {
		return nil, toConnectError(ctx, "ListUsers", err)
	}

	users, err := s.users.ListUsersByAdmin(ctx, p.ID)
	if err != nil {
		return nil, toConnectError(ctx, "ListUsers", err)
	}

	out := make([]*api.User, len(users))
	for i, u := range users {
		out[i] = toAPIUser(u)
	}
	return connect.NewResponse(&api.ListUsersResponse{Users: out}), nil
}

// subUser loads a user owned by the principal's tenant. Users of other
// tenants, and the principal itself, are reported as not found.
func (s *UserService) subUser(ctx context.Context, p access.Principal, userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.ID == p.ID || user.AdminID != p.ID {
		return nil, errUserNotFound
	}
	return user, nil
}
