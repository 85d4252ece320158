package models

import "github.com/golang-jwt/jwt/v5"

// TokenIssuer is the iss claim of session tokens
const TokenIssuer = "cardform-api"

// FormClaims ties a bearer token to one payment form session. The session id
// is carried in the standard sub claim.
type FormClaims struct {
	jwt.RegisteredClaims
}

// SessionID returns the session the token was issued for
func (c *FormClaims) SessionID() string {
	return c.Subject
}
