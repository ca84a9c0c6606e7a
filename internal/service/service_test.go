package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/api"
	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/mail"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

const testPassword = "secret123"

type fakeGoogle struct {
	identities map[string]*auth.GoogleIdentity
}

func (f *fakeGoogle) Verify(_ context.Context, token string) (*auth.GoogleIdentity, error) {
	id, ok := f.identities[token]
	if !ok {
		return nil, auth.ErrGoogleToken
	}
	return id, nil
}

// testEnv is a running server with every service mounted behind the auth
// interceptor, plus clients for each of them.
type testEnv struct {
	store  *sqlite.SQLiteStore
	jwt    *auth.JWTManager
	authn  *auth.PasswordAuthenticator
	mailer *mail.RecordingSender
	google *fakeGoogle

	auth     *api.AuthServiceClient
	groups   *api.GroupServiceClient
	expenses *api.ExpenseServiceClient
	users    *api.UserServiceClient
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "splitledger-service-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	env := &testEnv{
		store:  store,
		jwt:    auth.NewJWTManager("test-secret", time.Hour),
		authn:  auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost),
		mailer: &mail.RecordingSender{},
		google: &fakeGoogle{identities: map[string]*auth.GoogleIdentity{}},
	}

	authSvc := NewAuthService(env.authn, env.jwt, store, AuthServiceOptions{
		ResetTokens:   store.ResetTokens(),
		ResetTokenTTL: time.Hour,
		ClientURL:     "http://localhost:3000",
		Mailer:        env.mailer,
		Google:        env.google,
	}, slog.Default())

	interceptors := connect.WithInterceptors(
		middleware.RequireAuth(env.jwt, api.PublicAuthProcedures...),
	)

	mux := http.NewServeMux()
	mux.Handle(api.NewAuthServiceHandler(authSvc, interceptors))
	mux.Handle(api.NewGroupServiceHandler(NewGroupService(store), interceptors))
	mux.Handle(api.NewExpenseServiceHandler(NewExpenseService(store), interceptors))
	mux.Handle(api.NewUserServiceHandler(NewUserService(store, env.authn, env.mailer), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	env.auth = api.NewAuthServiceClient(http.DefaultClient, server.URL)
	env.groups = api.NewGroupServiceClient(http.DefaultClient, server.URL)
	env.expenses = api.NewExpenseServiceClient(http.DefaultClient, server.URL)
	env.users = api.NewUserServiceClient(http.DefaultClient, server.URL)
	return env
}

// newAdmin stores a self-registered admin and returns it with a session token.
func (e *testEnv) newAdmin(t *testing.T, email string) (*models.User, string) {
	t.Helper()
	return e.createUser(t, models.NewUser(email, email, e.hash(t)))
}

// newSubUser stores a user owned by admin with the given tenant role.
func (e *testEnv) newSubUser(t *testing.T, admin *models.User, email string, role models.Role) (*models.User, string) {
	t.Helper()
	u := models.NewUser(email, email, e.hash(t))
	u.Role = role
	u.AdminID = admin.ID
	return e.createUser(t, u)
}

func (e *testEnv) createUser(t *testing.T, u *models.User) (*models.User, string) {
	t.Helper()
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	token, err := e.jwt.Generate(u)
	require.NoError(t, err)
	return u, token
}

func (e *testEnv) hash(t *testing.T) string {
	t.Helper()
	h, err := e.authn.HashCredential(testPassword)
	require.NoError(t, err)
	return h
}

// authed wraps msg in a request carrying token as a bearer credential.
func authed[T any](token string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func requireCode(t *testing.T, err error, code connect.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, connect.CodeOf(err), "error: %v", err)
}
