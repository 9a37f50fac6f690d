package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the display-only fields read from a bearer token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token's exp has passed at now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ParseClaims decodes sub and exp without verifying the signature. The API
// is the only authority on validity; these values are shown in the header
// and nothing more.
func ParseClaims(token string) (Claims, error) {
	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &rc); err != nil {
		return Claims{}, fmt.Errorf("parse token claims: %w", err)
	}
	claims := Claims{Subject: rc.Subject}
	if rc.ExpiresAt != nil {
		claims.ExpiresAt = rc.ExpiresAt.Time
	}
	return claims, nil
}
