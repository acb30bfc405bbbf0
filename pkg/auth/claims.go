package auth

import (
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	AdminID  uuid.UUID
	ChurchID *uuid.UUID
	Role     enums.AdminRole
	Tier     *enums.SubscriptionTier
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients.
// ChurchID is empty for super admins, whose scope is the whole platform.
type AccessTokenClaims struct {
	AdminID  uuid.UUID               `json:"admin_id"`
	ChurchID *uuid.UUID              `json:"church_id,omitempty"`
	Role     enums.AdminRole         `json:"role"`
	Tier     *enums.SubscriptionTier `json:"tier,omitempty"`
	jwt.RegisteredClaims
}
