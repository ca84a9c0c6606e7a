package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/api"
	"github.com/mmynk/splitledger/internal/models"
)

func createGroup(t *testing.T, env *testEnv, token, name string, members ...api.MemberInput) *api.Group {
	t.Helper()
	resp, err := env.groups.CreateGroup(context.Background(), authed(token, &api.CreateGroupRequest{
		Name:        name,
		MemberEmail: members,
	}))
	require.NoError(t, err)
	return resp.Msg.Group
}

func TestCreateGroup(t *testing.T) {
	env := setupTestServer(t)
	_, token := env.newAdmin(t, "alice@example.com")

	group := createGroup(t, env, token, "Roommates",
		api.MemberInput{Email: "Bob@Example.com"},
		api.MemberInput{Email: "carol@example.com", Role: "manager"},
		api.MemberInput{Email: "alice@example.com", Role: "viewer"},
	)

	assert.NotEmpty(t, group.ID)
	assert.Equal(t, "Roommates", group.Name)
	assert.Equal(t, "alice@example.com", group.AdminEmail)
	assert.Equal(t, []api.Member{
		{Email: "alice@example.com", Role: "admin"},
		{Email: "bob@example.com", Role: "viewer"},
		{Email: "carol@example.com", Role: "manager"},
	}, group.Members)
	assert.Equal(t, models.DefaultCurrency, group.PaymentStatus.Currency)
	assert.False(t, group.PaymentStatus.IsPaid)
	assert.NotZero(t, group.CreatedAt)
}

func TestCreateGroup_Validation(t *testing.T) {
	env := setupTestServer(t)
	_, token := env.newAdmin(t, "alice@example.com")
	ctx := context.Background()

	_, err := env.groups.CreateGroup(ctx, authed(token, &api.CreateGroupRequest{}))
	requireCode(t, err, connect.CodeInvalidArgument)
	assert.Contains(t, err.Error(), "name is required")

	_, err = env.groups.CreateGroup(ctx, authed(token, &api.CreateGroupRequest{Name: "  \t "}))
	requireCode(t, err, connect.CodeInvalidArgument)
	assert.Contains(t, err.Error(), "name is required")

	_, err = env.groups.CreateGroup(ctx, authed(token, &api.CreateGroupRequest{
		Name:        "Bad",
		MemberEmail: []api.MemberInput{{Email: "not-an-email"}},
	}))
	requireCode(t, err, connect.CodeInvalidArgument)

	_, err = env.groups.CreateGroup(ctx, authed(token, &api.CreateGroupRequest{
		Name:        "Bad role",
		MemberEmail: []api.MemberInput{{Email: "bob@example.com", Role: "owner"}},
	}))
	requireCode(t, err, connect.CodeInvalidArgument)
}

func TestCreateGroup_TenantPermissions(t *testing.T) {
	env := setupTestServer(t)
	admin, _ := env.newAdmin(t, "alice@example.com")
	_, managerToken := env.newSubUser(t, admin, "mgr@example.com", models.RoleManager)
	_, viewerToken := env.newSubUser(t, admin, "view@example.com", models.RoleViewer)
	ctx := context.Background()

	_, err := env.groups.CreateGroup(ctx, authed(viewerToken, &api.CreateGroupRequest{Name: "Nope"}))
	requireCode(t, err, connect.CodePermissionDenied)

	resp, err := env.groups.CreateGroup(ctx, authed(managerToken, &api.CreateGroupRequest{Name: "Team"}))
	require.NoError(t, err)
	// The creator is the group admin whatever its tenant role.
	assert.Equal(t, []api.Member{{Email: "mgr@example.com", Role: "admin"}}, resp.Msg.Group.Members)
}

func TestGroupService_Unauthenticated(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.groups.ListGroups(context.Background(), connect.NewRequest(&api.ListGroupsRequest{}))
	requireCode(t, err, connect.CodeUnauthenticated)

	_, err = env.groups.ListGroups(context.Background(), authed("garbage", &api.ListGroupsRequest{}))
	requireCode(t, err, connect.CodeUnauthenticated)
}

func TestGetGroup(t *testing.T) {
	env := setupTestServer(t)
	_, aliceToken := env.newAdmin(t, "alice@example.com")
	_, bobToken := env.newAdmin(t, "bob@example.com")
	_, eveToken := env.newAdmin(t, "eve@example.com")
	ctx := context.Background()

	group := createGroup(t, env, aliceToken, "Work Lunch", api.MemberInput{Email: "bob@example.com"})

	t.Run("member can read", func(t *testing.T) {
		resp, err := env.groups.GetGroup(ctx, authed(bobToken, &api.GetGroupRequest{GroupID: group.ID}))
		require.NoError(t, err)
		assert.Equal(t, group.ID, resp.Msg.Group.ID)
		assert.Len(t, resp.Msg.Group.Members, 2)
	})

	t.Run("non-member is denied", func(t *testing.T) {
		_, err := env.groups.GetGroup(ctx, authed(eveToken, &api.GetGroupRequest{GroupID: group.ID}))
		requireCode(t, err, connect.CodePermissionDenied)
		assert.Contains(t, err.Error(), "not a member")
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := env.groups.GetGroup(ctx, authed(aliceToken, &api.GetGroupRequest{GroupID: "  "}))
		requireCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := env.groups.GetGroup(ctx, authed(aliceToken, &api.GetGroupRequest{GroupID: "non-existent-id"}))
		requireCode(t, err, connect.CodeNotFound)
	})
}

func TestListGroups(t *testing.T) {
	env := setupTestServer(t)
	_, aliceToken := env.newAdmin(t, "alice@example.com")
	_, bobToken := env.newAdmin(t, "bob@example.com")
	ctx := context.Background()

	for _, name := range []string{"Charlie", "Alpha", "Bravo"} {
		createGroup(t, env, aliceToken, name, api.MemberInput{Email: "bob@example.com"})
	}
	createGroup(t, env, aliceToken, "Solo")

	t.Run("page sorted by name", func(t *testing.T) {
		resp, err := env.groups.ListGroups(ctx, authed(bobToken, &api.ListGroupsRequest{
			Limit:     2,
			SortBy:    "name",
			SortOrder: "asc",
		}))
		require.NoError(t, err)
		assert.Equal(t, 3, resp.Msg.TotalCount)
		require.Len(t, resp.Msg.Groups, 2)
		assert.Equal(t, "Alpha", resp.Msg.Groups[0].Name)
		assert.Equal(t, "Bravo", resp.Msg.Groups[1].Name)

		resp, err = env.groups.ListGroups(ctx, authed(bobToken, &api.ListGroupsRequest{
			Limit:     2,
			Skip:      2,
			SortBy:    "name",
			SortOrder: "asc",
		}))
		require.NoError(t, err)
		require.Len(t, resp.Msg.Groups, 1)
		assert.Equal(t, "Charlie", resp.Msg.Groups[0].Name)
	})

	t.Run("filter by payment status", func(t *testing.T) {
		paid := true
		resp, err := env.groups.ListGroups(ctx, authed(aliceToken, &api.ListGroupsRequest{IsPaid: &paid}))
		require.NoError(t, err)
		assert.Zero(t, resp.Msg.TotalCount)
		assert.Empty(t, resp.Msg.Groups)
	})

	t.Run("invalid sort field", func(t *testing.T) {
		_, err := env.groups.ListGroups(ctx, authed(aliceToken, &api.ListGroupsRequest{SortBy: "amount"}))
		requireCode(t, err, connect.CodeInvalidArgument)
	})
}

func TestUpdateAndDeleteGroup(t *testing.T) {
	env := setupTestServer(t)
	_, aliceToken := env.newAdmin(t, "alice@example.com")
	_, bobToken := env.newAdmin(t, "bob@example.com")
	ctx := context.Background()

	group := createGroup(t, env, aliceToken, "Trip", api.MemberInput{Email: "bob@example.com", Role: "manager"})

	desc := "Weekend in the hills"
	resp, err := env.groups.UpdateGroup(ctx, authed(aliceToken, &api.UpdateGroupRequest{
		GroupID:     group.ID,
		Description: &desc,
	}))
	require.NoError(t, err)
	assert.Equal(t, "Trip", resp.Msg.Group.Name)
	assert.Equal(t, desc, resp.Msg.Group.Description)

	blank := "   "
	_, err = env.groups.UpdateGroup(ctx, authed(aliceToken, &api.UpdateGroupRequest{GroupID: group.ID, Name: &blank}))
	requireCode(t, err, connect.CodeInvalidArgument)

	name := "Renamed"
	_, err = env.groups.UpdateGroup(ctx, authed(bobToken, &api.UpdateGroupRequest{GroupID: group.ID, Name: &name}))
	requireCode(t, err, connect.CodePermissionDenied)
	assert.Contains(t, err.Error(), "admin")

	_, err = env.groups.DeleteGroup(ctx, authed(bobToken, &api.DeleteGroupRequest{GroupID: group.ID}))
	requireCode(t, err, connect.CodePermissionDenied)

	_, err = env.groups.DeleteGroup(ctx, authed(aliceToken, &api.DeleteGroupRequest{GroupID: group.ID}))
	require.NoError(t, err)

	_, err = env.groups.GetGroup(ctx, authed(aliceToken, &api.GetGroupRequest{GroupID: group.ID}))
	requireCode(t, err, connect.CodeNotFound)
}

func TestMembers(t *testing.T) {
	env := setupTestServer(t)
	_, aliceToken := env.newAdmin(t, "alice@example.com")
	ctx := context.Background()

	group := createGroup(t, env, aliceToken, "Flat", api.MemberInput{Email: "bob@example.com"})

	t.Run("add skips existing members", func(t *testing.T) {
		resp, err := env.groups.AddMembers(ctx, authed(aliceToken, &api.AddMembersRequest{
			GroupID: group.ID,
			Members: []api.MemberInput{
				{Email: "BOB@example.com", Role: "admin"},
				{Email: "dave@example.com"},
			},
		}))
		require.NoError(t, err)
		assert.Equal(t, []api.Member{{Email: "dave@example.com", Role: "viewer"}}, resp.Msg.Added)
		require.Len(t, resp.Msg.Group.Members, 3)
		assert.Equal(t, "viewer", resp.Msg.Group.Members[1].Role)
	})

	t.Run("adding only duplicates is a no-op", func(t *testing.T) {
		resp, err := env.groups.AddMembers(ctx, authed(aliceToken, &api.AddMembersRequest{
			GroupID: group.ID,
			Members: []api.MemberInput{{Email: "dave@example.com"}},
		}))
		require.NoError(t, err)
		assert.Empty(t, resp.Msg.Added)
		assert.Len(t, resp.Msg.Group.Members, 3)
	})

	t.Run("update role", func(t *testing.T) {
		resp, err := env.groups.UpdateMemberRole(ctx, authed(aliceToken, &api.UpdateMemberRoleRequest{
			GroupID: group.ID,
			Email:   "dave@example.com",
			Role:    "Manager",
		}))
		require.NoError(t, err)
		assert.Equal(t, api.Member{Email: "dave@example.com", Role: "manager"}, resp.Msg.Group.Members[2])
	})

	t.Run("update role of non-member", func(t *testing.T) {
		_, err := env.groups.UpdateMemberRole(ctx, authed(aliceToken, &api.UpdateMemberRoleRequest{
			GroupID: group.ID,
			Email:   "ghost@example.com",
			Role:    "viewer",
		}))
		requireCode(t, err, connect.CodeNotFound)
	})

	t.Run("creator cannot be demoted or removed", func(t *testing.T) {
		_, err := env.groups.UpdateMemberRole(ctx, authed(aliceToken, &api.UpdateMemberRoleRequest{
			GroupID: group.ID,
			Email:   "alice@example.com",
			Role:    "viewer",
		}))
		requireCode(t, err, connect.CodeInvalidArgument)

		_, err = env.groups.RemoveMembers(ctx, authed(aliceToken, &api.RemoveMembersRequest{
			GroupID: group.ID,
			Emails:  []string{"alice@example.com", "bob@example.com"},
		}))
		requireCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("remove", func(t *testing.T) {
		resp, err := env.groups.RemoveMembers(ctx, authed(aliceToken, &api.RemoveMembersRequest{
			GroupID: group.ID,
			Emails:  []string{"Bob@example.com", "nobody@example.com"},
		}))
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Msg.Removed)
		assert.Equal(t, []api.Member{
			{Email: "alice@example.com", Role: "admin"},
			{Email: "dave@example.com", Role: "manager"},
		}, resp.Msg.Group.Members)
	})
}

func TestPaymentStatusAndAuditLog(t *testing.T) {
	env := setupTestServer(t)
	_, aliceToken := env.newAdmin(t, "alice@example.com")
	_, bobToken := env.newAdmin(t, "bob@example.com")
	ctx := context.Background()

	group := createGroup(t, env, aliceToken, "Rent", api.MemberInput{Email: "bob@example.com"})

	_, err := env.groups.UpdatePaymentStatus(ctx, authed(bobToken, &api.UpdatePaymentStatusRequest{
		GroupID: group.ID,
		Amount:  100,
		IsPaid:  true,
	}))
	requireCode(t, err, connect.CodePermissionDenied)
	assert.Contains(t, err.Error(), "admin, manager")

	resp, err := env.groups.UpdatePaymentStatus(ctx, authed(aliceToken, &api.UpdatePaymentStatusRequest{
		GroupID:  group.ID,
		Amount:   1200.5,
		Currency: "usd",
		IsPaid:   true,
	}))
	require.NoError(t, err)
	status := resp.Msg.Group.PaymentStatus
	assert.InDelta(t, 1200.5, status.Amount, 1e-9)
	assert.Equal(t, "USD", status.Currency)
	assert.True(t, status.IsPaid)
	assert.GreaterOrEqual(t, status.Date, group.PaymentStatus.Date)

	audit, err := env.groups.GetAuditLog(ctx, authed(bobToken, &api.GetAuditLogRequest{GroupID: group.ID}))
	require.NoError(t, err)
	assert.Equal(t, group.ID, audit.Msg.GroupID)
	assert.Equal(t, status.Date, audit.Msg.LastPaymentDate)
	assert.True(t, audit.Msg.IsPaid)

	paid := true
	list, err := env.groups.ListGroups(ctx, authed(bobToken, &api.ListGroupsRequest{IsPaid: &paid}))
	require.NoError(t, err)
	assert.Equal(t, 1, list.Msg.TotalCount)
}
