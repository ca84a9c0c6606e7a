package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/access"
	"github.com/mmynk/splitledger/internal/auth"
)

// SessionCookie is the cookie carrying the session JWT for browser clients.
const SessionCookie = "jwtToken"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p access.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom extracts the principal set by the auth interceptors.
func PrincipalFrom(ctx context.Context) (access.Principal, bool) {
	p, ok := ctx.Value(principalKey).(access.Principal)
	return p, ok && p.ID != ""
}

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	p, _ := PrincipalFrom(ctx)
	return p.ID
}

// tokenFromHeaders returns the bearer token, falling back to the session
// cookie. ok is false when neither is present.
func tokenFromHeaders(h http.Header) (token string, ok bool, err error) {
	if authHeader := h.Get("Authorization"); authHeader != "" {
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", true, auth.ErrInvalidToken
		}
		return parts[1], true, nil
	}

	r := http.Request{Header: h}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, true, nil
	}
	return "", false, nil
}

// RequireAuth returns an interceptor that validates the session JWT and
// attaches the principal to the context. Requests without a valid token
// fail with CodeUnauthenticated, except for the listed public procedures.
func RequireAuth(jwtManager *auth.JWTManager, public ...string) connect.UnaryInterceptorFunc {
	skip := make(map[string]bool, len(public))
	for _, p := range public {
		skip[p] = true
	}

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if skip[req.Spec().Procedure] {
				return next(ctx, req)
			}

			token, ok, err := tokenFromHeaders(req.Header())
			if !ok {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			claims, err := jwtManager.Validate(token)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			return next(WithPrincipal(ctx, claims.Principal()), req)
		}
	}
}

// OptionalAuth returns an interceptor that attaches the principal when a
// valid token is present and passes every request through.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token, ok, err := tokenFromHeaders(req.Header()); ok && err == nil {
				if claims, err := jwtManager.Validate(token); err == nil {
					ctx = WithPrincipal(ctx, claims.Principal())
				}
			}
			return next(ctx, req)
		}
	}
}

// SetSessionCookie adds the session cookie to response headers.
func SetSessionCookie(h http.Header, token string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
	h.Add("Set-Cookie", c.String())
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(h http.Header) {
	c := &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
	h.Add("Set-Cookie", c.String())
}
