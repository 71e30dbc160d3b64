package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/freightdesk/freightdesk/internal/shared"
)

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("authz: not found")

// ErrSystemRole indicates an attempt to delete a protected system role.
var ErrSystemRole = errors.New("authz: system role is protected")

// Service orchestrates role administration. The permission vocabulary is
// closed: adding a capability means adding a string to the shared lists, not
// changing code here.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListRoles returns all roles ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	role, err := s.repo.GetRole(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return Role{}, ErrNotFound
	}
	return role, err
}

// CreateRole inserts a new role after validating its permission set.
func (s *Service) CreateRole(ctx context.Context, name, description string, userType UserType, permissions []string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("authz: role name required")
	}
	if !userType.IsValid() {
		return Role{}, fmt.Errorf("authz: unknown user type %q", userType)
	}
	cleaned, err := validatePermissions(permissions)
	if err != nil {
		return Role{}, err
	}
	return s.repo.CreateRole(ctx, Role{
		Name:        name,
		Description: strings.TrimSpace(description),
		UserType:    userType,
		Permissions: cleaned,
	})
}

// UpdateRole updates an existing role's description and permission set.
func (s *Service) UpdateRole(ctx context.Context, id int64, description string, userType UserType, permissions []string) (Role, error) {
	if !userType.IsValid() {
		return Role{}, fmt.Errorf("authz: unknown user type %q", userType)
	}
	cleaned, err := validatePermissions(permissions)
	if err != nil {
		return Role{}, err
	}
	role, err := s.repo.UpdateRole(ctx, Role{
		ID:          id,
		Description: strings.TrimSpace(description),
		UserType:    userType,
		Permissions: cleaned,
	})
	if errors.Is(err, shared.ErrNotFound) {
		return Role{}, ErrNotFound
	}
	return role, err
}

// DeleteRole removes a role by ID. System roles are never deleted.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if role.System {
		return ErrSystemRole
	}
	rows, err := s.repo.DeleteRole(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPermissions returns the closed permission vocabulary.
func (s *Service) ListPermissions(ctx context.Context) []string {
	return shared.AllScopes()
}

func validatePermissions(perms []string) ([]string, error) {
	known := make(map[string]struct{})
	for _, p := range shared.AllScopes() {
		known[p] = struct{}{}
	}
	seen := make(map[string]struct{}, len(perms))
	cleaned := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		if p != shared.PermAll {
			if _, ok := known[p]; !ok {
				return nil, fmt.Errorf("authz: unknown permission %q", p)
			}
		}
		seen[p] = struct{}{}
		cleaned = append(cleaned, p)
	}
	return cleaned, nil
}
