package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/api"
	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/mail"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var _ api.AuthServiceHandler = (*AuthService)(nil)

var (
	errResetTokenInvalid = errors.New("password reset token is invalid or has expired")
	errGoogleDisabled    = errors.New("google sign-in is not configured")
)

// AuthServiceOptions holds the collaborators of the password reset and
// Google sign-in flows.
type AuthServiceOptions struct {
	ResetTokens   storage.ResetTokenStore
	ResetTokenTTL time.Duration
	// ClientURL is the web client base URL used in reset links.
	ClientURL string
	Mailer    mail.Sender
	// Google is nil when Google sign-in is disabled.
	Google auth.GoogleVerifier
}

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         storage.UserStore
	opts          AuthServiceOptions
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users storage.UserStore, opts AuthServiceOptions, logger *slog.Logger) *AuthService {
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = time.Hour
	}
	if opts.Mailer == nil {
		opts.Mailer = mail.LogSender{}
	}
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
		opts:          opts,
		logger:        logger,
	}
}

// session issues a token for user and builds the response carrying it,
// both in the body and as the session cookie.
func (s *AuthService) session(user *models.User, message string) (*connect.Response[api.AuthResponse], error) {
	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, err
	}

	resp := connect.NewResponse(&api.AuthResponse{
		Message: message,
		User:    toAPIUser(user),
		Token:   token,
	})
	middleware.SetSessionCookie(resp.Header(), token, s.jwtManager.TokenDuration())
	return resp, nil
}

// Register creates a new admin account and opens a session.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.AuthResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, "Register", err)
	}

	user, err := s.authenticator.Register(ctx, req.Msg.Email, strings.TrimSpace(req.Msg.Name), req.Msg.Password)
	if err != nil {
		s.logger.Warn("Registration failed", "email", req.Msg.Email, "error", err)
		return nil, toConnectError(ctx, "Register", err)
	}

	resp, err := s.session(user, "User registered")
	if err != nil {
		return nil, toConnectError(ctx, "Register", err)
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return resp, nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.AuthResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, "Login", err)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		return nil, toConnectError(ctx, "Login", err)
	}

	resp, err := s.session(user, "User authenticated")
	if err != nil {
		return nil, toConnectError(ctx, "Login", err)
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "email", user.Email)
	return resp, nil
}

// GoogleSignIn verifies a Google access token, creating an admin account on
// first sign-in and linking the Google ID to an existing account by email.
func (s *AuthService) GoogleSignIn(ctx context.Context, req *connect.Request[api.GoogleSignInRequest]) (*connect.Response[api.AuthResponse], error) {
	if s.opts.Google == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, errGoogleDisabled)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, "GoogleSignIn", err)
	}

	identity, err := s.opts.Google.Verify(ctx, req.Msg.AccessToken)
	if err != nil {
		s.logger.Warn("Google token rejected", "error", err)
		return nil, toConnectError(ctx, "GoogleSignIn", err)
	}

	user, err := s.findOrCreateGoogleUser(ctx, identity)
	if err != nil {
		return nil, toConnectError(ctx, "GoogleSignIn", err)
	}

	resp, err := s.session(user, "User authenticated")
	if err != nil {
		return nil, toConnectError(ctx, "GoogleSignIn", err)
	}

	s.logger.Info("Google sign-in successful", "user_id", user.ID, "email", user.Email)
	return resp, nil
}

func (s *AuthService) findOrCreateGoogleUser(ctx context.Context, identity *auth.GoogleIdentity) (*models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		if user.GoogleID == "" {
			user.GoogleID = identity.ID
			if err := s.users.UpdateUser(ctx, user); err != nil {
				return nil, fmt.Errorf("failed to link google account: %w", err)
			}
		}
		return user, nil

	case errors.Is(err, storage.ErrNotFound):
		user = models.NewUser(identity.Email, identity.Name, "")
		user.GoogleID = identity.ID
		err := s.users.CreateUser(ctx, user)
		if errors.Is(err, storage.ErrAlreadyExists) {
			// Lost a race with a concurrent first sign-in.
			return s.users.GetUserByEmail(ctx, identity.Email)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create google user: %w", err)
		}
		return user, nil

	default:
		return nil, err
	}
}

// Logout clears the session cookie. Tokens are stateless, so bearer-token
// clients discard theirs.
func (s *AuthService) Logout(ctx context.Context, req *connect.Request[api.LogoutRequest]) (*connect.Response[api.MessageResponse], error) {
	s.logger.Info("Logout request", "user_id", middleware.GetUserID(ctx))

	resp := connect.NewResponse(&api.MessageResponse{Message: "Logout successful"})
	middleware.ClearSessionCookie(resp.Header())
	return resp, nil
}

// GetCurrentUser returns the currently authenticated user's information.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.UserResponse], error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, p.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("user not found"))
	}
	if err != nil {
		return nil, toConnectError(ctx, "GetCurrentUser", err)
	}

	return connect.NewResponse(&api.UserResponse{User: toAPIUser(user)}), nil
}

// ForgotPassword stores a reset token for the account and emails a link
// containing it.
func (s *AuthService) ForgotPassword(ctx context.Context, req *connect.Request[api.ForgotPasswordRequest]) (*connect.Response[api.MessageResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, "ForgotPassword", err)
	}

	user, err := s.users.GetUserByEmail(ctx, req.Msg.Email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("user not found"))
	}
	if err != nil {
		return nil, toConnectError(ctx, "ForgotPassword", err)
	}

	token, err := auth.NewResetToken()
	if err != nil {
		return nil, toConnectError(ctx, "ForgotPassword", err)
	}
	if err := s.opts.ResetTokens.Save(ctx, token, user.ID, s.opts.ResetTokenTTL); err != nil {
		return nil, toConnectError(ctx, "ForgotPassword", err)
	}

	resetURL := strings.TrimSuffix(s.opts.ClientURL, "/") + "/reset-password/" + token
	body := "You are receiving this because you (or someone else) have requested the reset of the password for your account.\n\n" +
		"Please click on the following link, or paste this into your browser to complete the process:\n\n" +
		resetURL + "\n\n" +
		"If you did not request this, please ignore this email and your password will remain unchanged.\n"
	if err := s.opts.Mailer.Send(ctx, user.Email, "Password Reset Request", body); err != nil {
		return nil, toConnectError(ctx, "ForgotPassword", err)
	}

	s.logger.Info("Password reset requested", "user_id", user.ID)
	return connect.NewResponse(&api.MessageResponse{Message: "Reset link sent to email"}), nil
}

// ResetPassword sets a new password using a reset token. The token is
// single use.
func (s *AuthService) ResetPassword(ctx context.Context, req *connect.Request[api.ResetPasswordRequest]) (*connect.Response[api.MessageResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, "ResetPassword", err)
	}

	userID, err := s.opts.ResetTokens.Lookup(ctx, req.Msg.Token)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errResetTokenInvalid)
	}
	if err != nil {
		return nil, toConnectError(ctx, "ResetPassword", err)
	}

	if err := s.setPassword(ctx, userID, req.Msg.Password); err != nil {
		return nil, toConnectError(ctx, "ResetPassword", err)
	}
	if err := s.opts.ResetTokens.Delete(ctx, req.Msg.Token); err != nil {
		return nil, toConnectError(ctx, "ResetPassword", err)
	}

	s.logger.Info("Password reset", "user_id", userID)
	return connect.NewResponse(&api.MessageResponse{Message: "Password has been reset successfully"}), nil
}

// SetPassword sets the caller's password, e.g. for accounts created
// through Google sign-in.
func (s *AuthService) SetPassword(ctx context.Context, req *connect.Request[api.SetPasswordRequest]) (*connect.Response[api.MessageResponse], error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, "SetPassword", err)
	}

	if err := s.setPassword(ctx, p.ID, req.Msg.Password); err != nil {
		return nil, toConnectError(ctx, "SetPassword", err)
	}

	s.logger.Info("Password set", "user_id", p.ID)
	return connect.NewResponse(&api.MessageResponse{Message: "Password set successfully"}), nil
}

func (s *AuthService) setPassword(ctx context.Context, userID, password string) error {
	if err := s.authenticator.ValidateCredential(password); err != nil {
		return err
	}
	hash, err := s.authenticator.HashCredential(password)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}
