package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeAccess is the value of the "type" claim on access tokens. Refresh
// tokens are opaque strings and never carry claims.
const TokenTypeAccess = "access"

// AccessClaims are the custom JWT claims on an access token. The user id
// travels in the registered Subject claim.
type AccessClaims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}
