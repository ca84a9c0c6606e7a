package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/access"
	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var errInternal = errors.New("internal server error")

// ValidationError is a malformed request. Its message is returned to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// toConnectError maps domain errors to Connect codes. Unrecognized errors
// are logged and replaced with a generic internal error.
func toConnectError(ctx context.Context, op string, err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr),
		errors.Is(err, calculator.ErrSplitMismatch),
		errors.Is(err, access.ErrGroupIDRequired),
		errors.Is(err, models.ErrInvalidRole),
		errors.Is(err, models.ErrCreatorProtected),
		errors.Is(err, auth.ErrWeakPassword):
		return connect.NewError(connect.CodeInvalidArgument, err)

	case errors.Is(err, access.ErrGroupNotFound),
		errors.Is(err, models.ErrMemberNotFound),
		errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)

	case errors.Is(err, access.ErrNotMember),
		errors.Is(err, access.ErrInsufficientRole),
		errors.Is(err, access.ErrPermissionDenied):
		return connect.NewError(connect.CodePermissionDenied, err)

	case errors.Is(err, storage.ErrAlreadyExists),
		errors.Is(err, auth.ErrEmailExists):
		return connect.NewError(connect.CodeAlreadyExists, err)

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrGoogleToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		return connect.NewError(connect.CodeUnauthenticated, err)

	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}

	slog.Error(op+" failed", "user_id", middleware.GetUserID(ctx), "error", err)
	return connect.NewError(connect.CodeInternal, errInternal)
}

// requirePrincipal returns the authenticated caller.
func requirePrincipal(ctx context.Context) (access.Principal, error) {
	p, ok := middleware.PrincipalFrom(ctx)
	if !ok {
		return p, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return p, nil
}

// requireTenantPrincipal returns the caller with its tenant role and admin
// re-read from the store, so tenant permissions follow role changes made
// after the session token was issued.
func requireTenantPrincipal(ctx context.Context, users storage.UserStore) (access.Principal, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return p, err
	}

	user, err := users.GetUserByID(ctx, p.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return p, connect.NewError(connect.CodeUnauthenticated, errors.New("user not found"))
	}
	if err != nil {
		return p, toConnectError(ctx, "LoadPrincipal", err)
	}

	p.Role = string(user.Role)
	if p.Role == "" {
		p.Role = string(models.RoleAdmin)
	}
	p.AdminID = user.TenantAdminID()
	return p, nil
}
