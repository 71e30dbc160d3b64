package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/freightdesk/freightdesk/internal/authz"
	"github.com/freightdesk/freightdesk/internal/shared"
)

// RoleDirectory answers whether a role exists for a given user type. The
// authz repository implements it.
type RoleDirectory interface {
	GetRoleByName(ctx context.Context, name string) (authz.Role, error)
}

// Service provides business logic for user administration.
type Service struct {
	repo  Repository
	roles RoleDirectory
}

// NewService constructs a user service.
func NewService(repo Repository, roles RoleDirectory) *Service {
	return &Service{repo: repo, roles: roles}
}

// Create registers a new user account. The role must exist and match the
// user type, client users must name a client account, and every grant must
// come from the known permission vocabulary.
func (s *Service) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, email)
	}

	userType := authz.UserType(req.UserType)
	if err := s.checkRole(ctx, req.RoleName, userType); err != nil {
		return nil, err
	}
	if userType == authz.UserTypeClient && req.ClientID == nil {
		return nil, errors.New("users: client user requires a client id")
	}
	if userType == authz.UserTypeAdmin && req.ClientID != nil {
		return nil, errors.New("users: admin user cannot belong to a client")
	}

	overrides, err := validateGrants(req.OverrideGrants)
	if err != nil {
		return nil, err
	}
	blocked, err := validateGrants(req.BlockedGrants)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.Create(ctx, User{
		Email:          email,
		UserType:       userType,
		RoleName:       req.RoleName,
		ClientID:       req.ClientID,
		OverrideGrants: overrides,
		BlockedGrants:  blocked,
		IsActive:       true,
	}, string(hash))
}

// Get fetches one user by id.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// List returns users matching the filter.
func (s *Service) List(ctx context.Context, req ListUsersRequest) ([]User, int, error) {
	return s.repo.List(ctx, req)
}

// Update applies a partial update to a user. Grant changes take effect on
// the user's next request since the principal is rebuilt every time.
func (s *Service) Update(ctx context.Context, id int64, req UpdateUserRequest) (*User, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.RoleName != nil {
		if err := s.checkRole(ctx, *req.RoleName, current.UserType); err != nil {
			return nil, err
		}
		updates["role_name"] = *req.RoleName
	}
	if req.ClientID != nil {
		if current.UserType != authz.UserTypeClient {
			return nil, errors.New("users: admin user cannot belong to a client")
		}
		updates["client_id"] = *req.ClientID
	}
	if req.OverrideGrants != nil {
		overrides, err := validateGrants(req.OverrideGrants)
		if err != nil {
			return nil, err
		}
		updates["override_grants"] = overrides
	}
	if req.BlockedGrants != nil {
		blocked, err := validateGrants(req.BlockedGrants)
		if err != nil {
			return nil, err
		}
		updates["blocked_grants"] = blocked
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// SetPassword replaces a user's password hash.
func (s *Service) SetPassword(ctx context.Context, id int64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.Update(ctx, id, map[string]interface{}{"password_hash": string(hash)})
}

func (s *Service) checkRole(ctx context.Context, name string, userType authz.UserType) error {
	role, err := s.roles.GetRoleByName(ctx, name)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) || errors.Is(err, authz.ErrNotFound) {
			return fmt.Errorf("users: unknown role %q", name)
		}
		return err
	}
	if role.UserType != userType {
		return fmt.Errorf("users: role %q is for %s users", name, role.UserType)
	}
	return nil
}

func validateGrants(grants []string) ([]string, error) {
	known := make(map[string]struct{})
	for _, p := range shared.AllScopes() {
		known[p] = struct{}{}
	}
	seen := make(map[string]struct{}, len(grants))
	cleaned := make([]string, 0, len(grants))
	for _, g := range grants {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if _, ok := seen[g]; ok {
			continue
		}
		if _, ok := known[g]; !ok {
			return nil, fmt.Errorf("users: unknown permission %q", g)
		}
		seen[g] = struct{}{}
		cleaned = append(cleaned, g)
	}
	return cleaned, nil
}
