package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Service provides business logic for client accounts.
type Service struct {
	repo Repository
}

// NewService constructs a client service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new client account. Codes are unique across the system.
func (s *Service) Create(ctx context.Context, req CreateClientRequest, createdBy int64) (*Client, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))

	existing, err := s.repo.GetByCode(ctx, code)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing client: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: client code %s", ErrAlreadyExists, code)
	}

	return s.repo.Create(ctx, Client{
		Code:         code,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		Country:      strings.ToUpper(req.Country),
		IsActive:     true,
		Notes:        req.Notes,
		CreatedBy:    createdBy,
	})
}

// Get fetches one client by id.
func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.Get(ctx, id)
}

// List returns clients matching the filter.
func (s *Service) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	return s.repo.List(ctx, req)
}

// Update applies a partial update to a client.
func (s *Service) Update(ctx context.Context, id int64, req UpdateClientRequest) (*Client, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.AddressLine1 != nil {
		updates["address_line1"] = *req.AddressLine1
	}
	if req.AddressLine2 != nil {
		updates["address_line2"] = *req.AddressLine2
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.Country != nil {
		updates["country"] = strings.ToUpper(*req.Country)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}
