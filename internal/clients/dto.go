package clients

type CreateClientRequest struct {
	Code         string  `json:"code" validate:"required,max=50"`
	Name         string  `json:"name" validate:"required,max=200"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	AddressLine1 *string `json:"address_line1,omitempty" validate:"omitempty,max=200"`
	AddressLine2 *string `json:"address_line2,omitempty" validate:"omitempty,max=200"`
	City         *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Country      string  `json:"country" validate:"required,len=2"`
	Notes        *string `json:"notes,omitempty"`
}

type UpdateClientRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	AddressLine1 *string `json:"address_line1,omitempty"`
	AddressLine2 *string `json:"address_line2,omitempty"`
	City         *string `json:"city,omitempty"`
	Country      *string `json:"country,omitempty" validate:"omitempty,len=2"`
	IsActive     *bool   `json:"is_active,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

type ListClientsRequest struct {
	IsActive *bool   `json:"is_active,omitempty"`
	Search   *string `json:"search,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=500"`
	Offset   int     `json:"offset" validate:"gte=0"`
}
