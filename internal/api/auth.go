package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// AuthServiceName is the fully-qualified name of the AuthService service.
const AuthServiceName = "splitledger.v1.AuthService"

const (
	AuthServiceRegisterProcedure       = "/splitledger.v1.AuthService/Register"
	AuthServiceLoginProcedure          = "/splitledger.v1.AuthService/Login"
	AuthServiceGoogleSignInProcedure   = "/splitledger.v1.AuthService/GoogleSignIn"
	AuthServiceLogoutProcedure         = "/splitledger.v1.AuthService/Logout"
	AuthServiceGetCurrentUserProcedure = "/splitledger.v1.AuthService/GetCurrentUser"
	AuthServiceForgotPasswordProcedure = "/splitledger.v1.AuthService/ForgotPassword"
	AuthServiceResetPasswordProcedure  = "/splitledger.v1.AuthService/ResetPassword"
	AuthServiceSetPasswordProcedure    = "/splitledger.v1.AuthService/SetPassword"
)

// PublicAuthProcedures can be called without a session.
var PublicAuthProcedures = []string{
	AuthServiceRegisterProcedure,
	AuthServiceLoginProcedure,
	AuthServiceGoogleSignInProcedure,
	AuthServiceLogoutProcedure,
	AuthServiceForgotPasswordProcedure,
	AuthServiceResetPasswordProcedure,
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// GoogleSignInRequest carries an OAuth access token obtained by the client.
type GoogleSignInRequest struct {
	AccessToken string `json:"accessToken" validate:"required"`
}

// AuthResponse is returned by every procedure that opens a session. The
// token is also set as the jwtToken cookie.
type AuthResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
	Token   string `json:"token"`
}

type LogoutRequest struct{}

type GetCurrentUserRequest struct{}

type UserResponse struct {
	Message string `json:"message,omitempty"`
	User    *User  `json:"user"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type SetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

// AuthServiceHandler is implemented by the server.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[AuthResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[AuthResponse], error)
	GoogleSignIn(context.Context, *connect.Request[GoogleSignInRequest]) (*connect.Response[AuthResponse], error)
	Logout(context.Context, *connect.Request[LogoutRequest]) (*connect.Response[MessageResponse], error)
	GetCurrentUser(context.Context, *connect.Request[GetCurrentUserRequest]) (*connect.Response[UserResponse], error)
	ForgotPassword(context.Context, *connect.Request[ForgotPasswordRequest]) (*connect.Response[MessageResponse], error)
	ResetPassword(context.Context, *connect.Request[ResetPasswordRequest]) (*connect.Response[MessageResponse], error)
	SetPassword(context.Context, *connect.Request[SetPasswordRequest]) (*connect.Response[MessageResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return mount("/"+AuthServiceName+"/", map[string]http.Handler{
		AuthServiceRegisterProcedure:       connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...),
		AuthServiceLoginProcedure:          connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...),
		AuthServiceGoogleSignInProcedure:   connect.NewUnaryHandler(AuthServiceGoogleSignInProcedure, svc.GoogleSignIn, opts...),
		AuthServiceLogoutProcedure:         connect.NewUnaryHandler(AuthServiceLogoutProcedure, svc.Logout, opts...),
		AuthServiceGetCurrentUserProcedure: connect.NewUnaryHandler(AuthServiceGetCurrentUserProcedure, svc.GetCurrentUser, opts...),
		AuthServiceForgotPasswordProcedure: connect.NewUnaryHandler(AuthServiceForgotPasswordProcedure, svc.ForgotPassword, opts...),
		AuthServiceResetPasswordProcedure:  connect.NewUnaryHandler(AuthServiceResetPasswordProcedure, svc.ResetPassword, opts...),
		AuthServiceSetPasswordProcedure:    connect.NewUnaryHandler(AuthServiceSetPasswordProcedure, svc.SetPassword, opts...),
	})
}

// AuthServiceClient is a client for the splitledger.v1.AuthService service.
type AuthServiceClient struct {
	register       *connect.Client[RegisterRequest, AuthResponse]
	login          *connect.Client[LoginRequest, AuthResponse]
	googleSignIn   *connect.Client[GoogleSignInRequest, AuthResponse]
	logout         *connect.Client[LogoutRequest, MessageResponse]
	getCurrentUser *connect.Client[GetCurrentUserRequest, UserResponse]
	forgotPassword *connect.Client[ForgotPasswordRequest, MessageResponse]
	resetPassword  *connect.Client[ResetPasswordRequest, MessageResponse]
	setPassword    *connect.Client[SetPasswordRequest, MessageResponse]
}

// NewAuthServiceClient constructs a client for the AuthService. baseURL is
// the server's scheme and host, e.g. http://localhost:8080.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	opts = clientOptions(opts)
	return &AuthServiceClient{
		register:       connect.NewClient[RegisterRequest, AuthResponse](httpClient, baseURL+AuthServiceRegisterProcedure, opts...),
		login:          connect.NewClient[LoginRequest, AuthResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),
		googleSignIn:   connect.NewClient[GoogleSignInRequest, AuthResponse](httpClient, baseURL+AuthServiceGoogleSignInProcedure, opts...),
		logout:         connect.NewClient[LogoutRequest, MessageResponse](httpClient, baseURL+AuthServiceLogoutProcedure, opts...),
		getCurrentUser: connect.NewClient[GetCurrentUserRequest, UserResponse](httpClient, baseURL+AuthServiceGetCurrentUserProcedure, opts...),
		forgotPassword: connect.NewClient[ForgotPasswordRequest, MessageResponse](httpClient, baseURL+AuthServiceForgotPasswordProcedure, opts...),
		resetPassword:  connect.NewClient[ResetPasswordRequest, MessageResponse](httpClient, baseURL+AuthServiceResetPasswordProcedure, opts...),
		setPassword:    connect.NewClient[SetPasswordRequest, MessageResponse](httpClient, baseURL+AuthServiceSetPasswordProcedure, opts...),
	}
}

func (c *AuthServiceClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[AuthResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[AuthResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *AuthServiceClient) GoogleSignIn(ctx context.Context, req *connect.Request[GoogleSignInRequest]) (*connect.Response[AuthResponse], error) {
	return c.googleSignIn.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Logout(ctx context.Context, req *connect.Request[LogoutRequest]) (*connect.Response[MessageResponse], error) {
	return c.logout.CallUnary(ctx, req)
}

func (c *AuthServiceClient) GetCurrentUser(ctx context.Context, req *connect.Request[GetCurrentUserRequest]) (*connect.Response[UserResponse], error) {
	return c.getCurrentUser.CallUnary(ctx, req)
}

func (c *AuthServiceClient) ForgotPassword(ctx context.Context, req *connect.Request[ForgotPasswordRequest]) (*connect.Response[MessageResponse], error) {
	return c.forgotPassword.CallUnary(ctx, req)
}

func (c *AuthServiceClient) ResetPassword(ctx context.Context, req *connect.Request[ResetPasswordRequest]) (*connect.Response[MessageResponse], error) {
	return c.resetPassword.CallUnary(ctx, req)
}

func (c *AuthServiceClient) SetPassword(ctx context.Context, req *connect.Request[SetPasswordRequest]) (*connect.Response[MessageResponse], error) {
	return c.setPassword.CallUnary(ctx, req)
}
