package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload carried by the first-party session cookie.
// The subject is the login email; roles are resolved per request from the
// database (with a short cache), never embedded in the token.
type SessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}
