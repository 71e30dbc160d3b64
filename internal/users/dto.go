package users

type CreateUserRequest struct {
	Email          string   `json:"email" validate:"required,email"`
	Password       string   `json:"password" validate:"required,min=8"`
	UserType       string   `json:"user_type" validate:"required,oneof=admin client"`
	RoleName       string   `json:"role_name" validate:"required,max=100"`
	ClientID       *int64   `json:"client_id,omitempty" validate:"omitempty,gt=0"`
	OverrideGrants []string `json:"override_grants,omitempty"`
	BlockedGrants  []string `json:"blocked_grants,omitempty"`
}

type UpdateUserRequest struct {
	RoleName       *string  `json:"role_name,omitempty" validate:"omitempty,max=100"`
	ClientID       *int64   `json:"client_id,omitempty" validate:"omitempty,gt=0"`
	OverrideGrants []string `json:"override_grants,omitempty"`
	BlockedGrants  []string `json:"blocked_grants,omitempty"`
	IsActive       *bool    `json:"is_active,omitempty"`
}

type ListUsersRequest struct {
	UserType *string `json:"user_type,omitempty" validate:"omitempty,oneof=admin client"`
	ClientID *int64  `json:"client_id,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=500"`
	Offset   int     `json:"offset" validate:"gte=0"`
}
