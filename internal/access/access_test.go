package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

type fakeGroups map[string]*models.Group

func (f fakeGroups) GetGroup(_ context.Context, id string) (*models.Group, error) {
	if id == "boom" {
		return nil, errors.New("disk on fire")
	}
	g, ok := f[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return g, nil
}

func testGroup() *models.Group {
	return &models.Group{
		ID:         "g1",
		Name:       "Flat",
		AdminEmail: "owner@x.com",
		Members: []models.Member{
			{Email: "Manager@X.com", Role: models.RoleManager},
			{Email: "viewer@x.com", Role: models.RoleViewer},
		},
	}
}

func TestCheckTenant(t *testing.T) {
	tests := []struct {
		role   string
		action Action
		allow  bool
	}{
		{"admin", ActionGroupCreate, true},
		{"ADMIN", ActionUserList, true},
		{"manager", ActionGroupCreate, true},
		{"manager", ActionUserCreate, false},
		{"viewer", ActionGroupCreate, false},
		{"", ActionGroupCreate, false},
		{"root", ActionGroupCreate, false},
	}
	for _, tt := range tests {
		t.Run(tt.role+"/"+string(tt.action), func(t *testing.T) {
			err := CheckTenant(Principal{ID: "u", Role: tt.role}, tt.action)
			if tt.allow {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrPermissionDenied)
			}
		})
	}
}

func TestResolveGroupRole(t *testing.T) {
	g := testGroup()

	role, ok := ResolveGroupRole(g, "manager@x.com")
	require.True(t, ok)
	assert.Equal(t, models.RoleManager, role)

	// Creator is absent from members but still resolves to admin.
	role, ok = ResolveGroupRole(g, "OWNER@x.com")
	require.True(t, ok)
	assert.Equal(t, models.RoleAdmin, role)

	_, ok = ResolveGroupRole(g, "stranger@x.com")
	assert.False(t, ok)
}

func TestResolveGroupRole_MemberEntryWinsOverAdminEmail(t *testing.T) {
	g := testGroup()
	g.Members = append(g.Members, models.Member{Email: "owner@x.com", Role: models.RoleViewer})

	role, ok := ResolveGroupRole(g, "owner@x.com")
	require.True(t, ok)
	assert.Equal(t, models.RoleViewer, role)
}

func TestAuthorizeGroup(t *testing.T) {
	g := testGroup()

	t.Run("non-member gets not-a-member, never insufficient role", func(t *testing.T) {
		for _, action := range []Action{ActionExpenseAdd, ActionGroupView, ActionMemberRole} {
			_, err := AuthorizeGroup(Principal{Email: "stranger@x.com"}, g, action)
			assert.ErrorIs(t, err, ErrNotMember)
			assert.NotErrorIs(t, err, ErrInsufficientRole)
		}
	})

	t.Run("viewer denied add expense", func(t *testing.T) {
		role, err := AuthorizeGroup(Principal{Email: "viewer@x.com"}, g, ActionExpenseAdd)
		require.ErrorIs(t, err, ErrInsufficientRole)
		assert.Equal(t, models.RoleViewer, role)

		var roleErr *InsufficientRoleError
		require.ErrorAs(t, err, &roleErr)
		assert.Equal(t, "forbidden: this action requires one of the following roles: admin, manager", roleErr.Error())
	})

	t.Run("viewer may list expenses", func(t *testing.T) {
		role, err := AuthorizeGroup(Principal{Email: "viewer@x.com"}, g, ActionExpenseList)
		require.NoError(t, err)
		assert.Equal(t, models.RoleViewer, role)
	})

	t.Run("manager cannot change roles", func(t *testing.T) {
		_, err := AuthorizeGroup(Principal{Email: "manager@x.com"}, g, ActionMemberRole)
		assert.ErrorIs(t, err, ErrInsufficientRole)
	})

	t.Run("creator fallback is admin", func(t *testing.T) {
		role, err := AuthorizeGroup(Principal{Email: "owner@x.com"}, g, ActionGroupDelete)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, role)
	})

	t.Run("tenant role grants nothing inside a group", func(t *testing.T) {
		_, err := AuthorizeGroup(Principal{Email: "stranger@x.com", Role: "admin"}, g, ActionGroupView)
		assert.ErrorIs(t, err, ErrNotMember)
	})
}

func TestEngineGroup(t *testing.T) {
	engine := NewEngine(fakeGroups{"g1": testGroup()})
	ctx := context.Background()

	t.Run("missing group id", func(t *testing.T) {
		_, err := engine.Group(ctx, Principal{Email: "owner@x.com"}, "  ", ActionGroupView)
		assert.ErrorIs(t, err, ErrGroupIDRequired)
	})

	t.Run("unknown group", func(t *testing.T) {
		_, err := engine.Group(ctx, Principal{Email: "owner@x.com"}, "nope", ActionGroupView)
		assert.ErrorIs(t, err, ErrGroupNotFound)
	})

	t.Run("store failure is not a not-found", func(t *testing.T) {
		_, err := engine.Group(ctx, Principal{Email: "owner@x.com"}, "boom", ActionGroupView)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrGroupNotFound)
	})

	t.Run("decision carries group and role", func(t *testing.T) {
		d, err := engine.Group(ctx, Principal{Email: "manager@x.com"}, "g1", ActionExpenseSettle)
		require.NoError(t, err)
		assert.Equal(t, "g1", d.Group.ID)
		assert.Equal(t, models.RoleManager, d.Role)
	})
}
