package models

import "time"

type Address struct {
	ID            int       `json:"id" db:"id"`
	UserID        string    `json:"-" db:"user_id"`
	Label         string    `json:"label" db:"label"`
	StreetAddress string    `json:"street_address" db:"street_address"`
	City          string    `json:"city" db:"city"`
	PostalCode    string    `json:"postal_code" db:"postal_code"`
	IsDefault     bool      `json:"is_default" db:"is_default"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// AddAddressRequest defines the shape of the request body for creating a new address.
type AddAddressRequest struct {
	Label         string `json:"label" validate:"required,min=2"`
	StreetAddress string `json:"street_address" validate:"required,min=5"`
	City          string `json:"city" validate:"required"`
	PostalCode    string `json:"postal_code" validate:"required"`
	IsDefault     bool   `json:"is_default"`
}

// UpdateAddressRequest defines the shape of the request body for updating an address.
type UpdateAddressRequest struct {
	Label         string `json:"label,omitempty"`
	StreetAddress string `json:"street_address,omitempty"`
	City          string `json:"city,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	IsDefault     *bool  `json:"is_default,omitempty"` // Pointer to handle 'false' as a valid update
}
