// Package auth issues and validates the JWTs that protect the admin records
// API, and checks the admin password against its bcrypt hash.
package auth

import "github.com/golang-jwt/jwt/v5"

// RoleAdmin is the only role the gateway issues.
const RoleAdmin = "admin"

// Claims are the JWT claims of an admin session.
type Claims struct {
	jwt.RegisteredClaims

	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the token belongs to an administrator.
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
