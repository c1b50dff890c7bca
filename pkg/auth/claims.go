package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/mvelasco/clipvault/pkg/enums"
)

// SessionTokenPayload captures the data available when minting a JWT.
type SessionTokenPayload struct {
	Role enums.Role
	JTI  string
}

// SessionTokenClaims represents the typed JWT issued to clients.
type SessionTokenClaims struct {
	Role enums.Role `json:"role"`
	jwt.RegisteredClaims
}
