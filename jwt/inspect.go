package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned by Inspect when the token is opaque.
var ErrNotJWT = errors.New("token is not a JWT")

// Claims is the subset of token claims the client cares about.
type Claims struct {
	Subject   string
	Issuer    string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carried an exp claim that lies before
// now minus leeway.
func (c Claims) Expired(now time.Time, leeway time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return now.After(c.ExpiresAt.Add(leeway))
}

// Inspect decodes token claims without verifying the signature.
func Inspect(token string) (Claims, error) {
	if strings.Count(token, ".") != 2 {
		return Claims{}, ErrNotJWT
	}

	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &rc); err != nil {
		return Claims{}, ErrNotJWT
	}
	return fromRegistered(rc), nil
}

func fromRegistered(rc jwt.RegisteredClaims) Claims {
	c := Claims{
		Subject: rc.Subject,
		Issuer:  rc.Issuer,
		ID:      rc.ID,
	}
	if rc.IssuedAt != nil {
		c.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c
}
