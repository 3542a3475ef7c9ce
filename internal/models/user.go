package models

import "time"

// Role identifies the class of actor invoking an operation. Every role-gated
// check in the order, coupon, delivery and payment modules keys off this type.
type Role string

const (
	RoleAdmin           Role = "ADMIN"
	RoleRestaurantOwner Role = "RESTAURANT_OWNER"
	RoleCustomer        Role = "CUSTOMER"
	RoleDeliveryPerson  Role = "DELIVERY_PERSON"
)

// ApprovalStatus tracks back-office vetting of restaurant owners and delivery
// persons. Customers are approved on signup.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

type User struct {
	ID             string         `json:"id" db:"id"` // UUID string from DB
	Name           string         `json:"name" db:"name"`
	Email          string         `json:"email" db:"email"`
	PasswordHash   string         `json:"-" db:"password_hash"`
	Role           Role           `json:"role" db:"role"`
	ApprovalStatus ApprovalStatus `json:"approval_status" db:"approval_status"`
	AuthProvider   string         `json:"auth_provider" db:"auth_provider"`
	AuthProviderID string         `json:"-" db:"auth_provider_id"`
	IsActive       bool           `json:"is_active" db:"is_active"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     Role   `json:"role" validate:"required,oneof=CUSTOMER RESTAURANT_OWNER DELIVERY_PERSON"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ActivationRequest struct {
	Token string `json:"token" validate:"required"`
}

// GoogleLoginRequest carries the authorization code from the OAuth redirect.
type GoogleLoginRequest struct {
	Code string `json:"code" validate:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

// UserUpdateData defines the fields a user may change on their own profile.
type UserUpdateData struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}
