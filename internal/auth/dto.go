package auth

import (
	"github.com/churchconnect/churchconnect-backend/internal/admins"
	"github.com/churchconnect/churchconnect-backend/internal/churches"
)

// RegisterChurchRequest contains the payload for onboarding a new tenant.
type RegisterChurchRequest struct {
	ChurchName string  `json:"church_name" validate:"required"`
	Subdomain  string  `json:"subdomain" validate:"required"`
	FirstName  string  `json:"first_name" validate:"required"`
	LastName   string  `json:"last_name" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required,min=10"`
	Phone      *string `json:"phone,omitempty"`
}

// RegisterChurchResponse returns the freshly created tenant and owner.
type RegisterChurchResponse struct {
	Church *churches.ChurchDTO   `json:"church"`
	Owner  *admins.ChurchUserDTO `json:"owner"`
}

// InviteAdminRequest adds a staff or admin account to an existing church.
type InviteAdminRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=admin staff"`
}

// InviteAdminResponse returns the created account and its one-time temporary
// password. The password is shown exactly once; only the hash is stored.
type InviteAdminResponse struct {
	Admin        *admins.ChurchUserDTO `json:"admin"`
	TempPassword string                `json:"temp_password"`
}

// LoginRequest is shared by church-admin and super-admin login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the token pair for a church admin.
type LoginResponse struct {
	AccessToken  string                `json:"access_token"`
	RefreshToken string                `json:"refresh_token"`
	Admin        *admins.ChurchUserDTO `json:"admin"`
	Church       *churches.ChurchDTO   `json:"church"`
}

// SuperAdminLoginResponse carries the token pair for a platform operator.
type SuperAdminLoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Name         string `json:"name"`
	Email        string `json:"email"`
}

// RefreshRequest rotates the refresh token and reissues the JWT.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse is the rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SetupSuperAdminRequest bootstraps the first platform operator.
type SetupSuperAdminRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=12"`
}
