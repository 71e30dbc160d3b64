package users_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/freightdesk/freightdesk/internal/authz"
	"github.com/freightdesk/freightdesk/internal/shared"
	"github.com/freightdesk/freightdesk/internal/users"
	_ "github.com/freightdesk/freightdesk/testing"
)

type stubRepo struct {
	byEmail map[string]*users.User
	byID    map[int64]*users.User
	nextID  int64

	lastHash    string
	lastUpdates map[string]interface{}
}

func newStubRepo() *stubRepo {
	return &stubRepo{byEmail: map[string]*users.User{}, byID: map[int64]*users.User{}, nextID: 1}
}

func (s *stubRepo) Get(ctx context.Context, id int64) (*users.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *stubRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, users.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *stubRepo) List(ctx context.Context, req users.ListUsersRequest) ([]users.User, int, error) {
	out := make([]users.User, 0, len(s.byID))
	for _, u := range s.byID {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (s *stubRepo) Create(ctx context.Context, u users.User, passwordHash string) (*users.User, error) {
	u.ID = s.nextID
	s.nextID++
	s.lastHash = passwordHash
	stored := u
	s.byID[stored.ID] = &stored
	s.byEmail[stored.Email] = &stored
	return &stored, nil
}

func (s *stubRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	if _, ok := s.byID[id]; !ok {
		return users.ErrNotFound
	}
	s.lastUpdates = updates
	return nil
}

type stubRoles struct {
	roles map[string]authz.Role
}

func (s *stubRoles) GetRoleByName(ctx context.Context, name string) (authz.Role, error) {
	role, ok := s.roles[name]
	if !ok {
		return authz.Role{}, shared.ErrNotFound
	}
	return role, nil
}

func newService(repo *stubRepo) *users.Service {
	roles := &stubRoles{roles: map[string]authz.Role{
		"operations":    {ID: 1, Name: "operations", UserType: authz.UserTypeAdmin, Permissions: []string{"*"}},
		"client_portal": {ID: 2, Name: "client_portal", UserType: authz.UserTypeClient, Permissions: []string{"shipments:read:own"}},
	}}
	return users.NewService(repo, roles)
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes email and hashes password", func(t *testing.T) {
		repo := newStubRepo()
		svc := newService(repo)

		u, err := svc.Create(ctx, users.CreateUserRequest{
			Email:    "  Ops@Example.COM ",
			Password: "correct horse battery",
			UserType: "admin",
			RoleName: "operations",
		})
		require.NoError(t, err)
		assert.Equal(t, "ops@example.com", u.Email)
		assert.True(t, u.IsActive)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.lastHash), []byte("correct horse battery")))
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		repo := newStubRepo()
		svc := newService(repo)

		_, err := svc.Create(ctx, users.CreateUserRequest{
			Email: "ops@example.com", Password: "password123", UserType: "admin", RoleName: "operations",
		})
		require.NoError(t, err)

		_, err = svc.Create(ctx, users.CreateUserRequest{
			Email: "OPS@example.com", Password: "password123", UserType: "admin", RoleName: "operations",
		})
		assert.ErrorIs(t, err, users.ErrAlreadyExists)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		svc := newService(newStubRepo())

		_, err := svc.Create(ctx, users.CreateUserRequest{
			Email: "a@example.com", Password: "password123", UserType: "admin", RoleName: "superuser",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown role "superuser"`)
	})

	t.Run("rejects role of the wrong user type", func(t *testing.T) {
		svc := newService(newStubRepo())

		clientID := int64(42)
		_, err := svc.Create(ctx, users.CreateUserRequest{
			Email: "a@example.com", Password: "password123", UserType: "client",
			RoleName: "operations", ClientID: &clientID,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is for admin users")
	})

	t.Run("client user requires a client id", func(t *testing.T) {
		svc := newService(newStubRepo())

		_, err := svc.Create(ctx, users.CreateUserRequest{
			Email: "a@example.com", Password: "password123", UserType: "client", RoleName: "client_portal",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires a client id")
	})

	t.Run("admin user cannot belong to a client", func(t *testing.T) {
		svc := newService(newStubRepo())

		clientID := int64(42)
		_, err := svc.Create(ctx, users.CreateUserRequest{
			Email: "a@example.com", Password: "password123", UserType: "admin",
			RoleName: "operations", ClientID: &clientID,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot belong to a client")
	})
}

func TestCreateUserGrantValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts known grants and dedupes", func(t *testing.T) {
		repo := newStubRepo()
		svc := newService(repo)

		u, err := svc.Create(ctx, users.CreateUserRequest{
			Email: "a@example.com", Password: "password123", UserType: "admin", RoleName: "operations",
			OverrideGrants: []string{"invoices:read", " invoices:read ", "support:write"},
			BlockedGrants:  []string{"shipments:status"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"invoices:read", "support:write"}, u.OverrideGrants)
		assert.Equal(t, []string{"shipments:status"}, u.BlockedGrants)
	})

	t.Run("rejects unknown permission", func(t *testing.T) {
		svc := newService(newStubRepo())

		_, err := svc.Create(ctx, users.CreateUserRequest{
			Email: "a@example.com", Password: "password123", UserType: "admin", RoleName: "operations",
			OverrideGrants: []string{"shipments:teleport"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown permission "shipments:teleport"`)
	})

	t.Run("wildcard is not grantable per user", func(t *testing.T) {
		svc := newService(newStubRepo())

		_, err := svc.Create(ctx, users.CreateUserRequest{
			Email: "a@example.com", Password: "password123", UserType: "admin", RoleName: "operations",
			OverrideGrants: []string{shared.PermAll},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown permission")
	})
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()

	seedClientUser := func(repo *stubRepo) *users.User {
		clientID := int64(42)
		u := &users.User{ID: repo.nextID, Email: "portal@example.com", UserType: authz.UserTypeClient,
			RoleName: "client_portal", ClientID: &clientID, IsActive: true}
		repo.nextID++
		repo.byID[u.ID] = u
		repo.byEmail[u.Email] = u
		return u
	}

	t.Run("revalidates role against the current user type", func(t *testing.T) {
		repo := newStubRepo()
		svc := newService(repo)
		u := seedClientUser(repo)

		adminRole := "operations"
		_, err := svc.Update(ctx, u.ID, users.UpdateUserRequest{RoleName: &adminRole})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is for admin users")
	})

	t.Run("revalidates grants", func(t *testing.T) {
		repo := newStubRepo()
		svc := newService(repo)
		u := seedClientUser(repo)

		_, err := svc.Update(ctx, u.ID, users.UpdateUserRequest{BlockedGrants: []string{"nonsense"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown permission")
	})

	t.Run("partial update only touches named fields", func(t *testing.T) {
		repo := newStubRepo()
		svc := newService(repo)
		u := seedClientUser(repo)

		inactive := false
		_, err := svc.Update(ctx, u.ID, users.UpdateUserRequest{IsActive: &inactive})
		require.NoError(t, err)
		require.Len(t, repo.lastUpdates, 1)
		assert.Equal(t, false, repo.lastUpdates["is_active"])
	})

	t.Run("unknown user", func(t *testing.T) {
		svc := newService(newStubRepo())
		active := true
		_, err := svc.Update(ctx, 999, users.UpdateUserRequest{IsActive: &active})
		assert.ErrorIs(t, err, users.ErrNotFound)
	})
}

func TestSetPassword(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo)
	clientID := int64(42)
	repo.byID[1] = &users.User{ID: 1, Email: "portal@example.com", UserType: authz.UserTypeClient,
		RoleName: "client_portal", ClientID: &clientID}
	repo.nextID = 2

	err := svc.SetPassword(context.Background(), 1, "a brand new password")
	require.NoError(t, err)

	hash, ok := repo.lastUpdates["password_hash"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(hash, "$2"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("a brand new password")))
}
