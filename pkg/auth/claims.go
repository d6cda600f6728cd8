package auth

import "github.com/golang-jwt/jwt/v5"

// RoleAdmin is the only role the API issues.
const RoleAdmin = "admin"

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	Subject  string
	Username string
	Role     string
	JTI      string
}

// AccessTokenClaims is the typed JWT issued to the admin console.
type AccessTokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (c *AccessTokenClaims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}
