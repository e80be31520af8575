package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = 96 * time.Hour

var ErrNoSigningKey = errors.New("token signing key is not configured")

// TokenIssuer mints short-lived bearer tokens scoped to a single owner
// identity. Tokens are cheap to create and are never cached: every outbound
// store call gets a fresh one.
type TokenIssuer struct {
	Secret string
	TTL    time.Duration
}

// Issue signs an HS256 token for the given subject with the configured
// validity window.
func (i TokenIssuer) Issue(subject string) (string, error) {
	if i.Secret == "" {
		return "", ErrNoSigningKey
	}
	ttl := i.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.Secret))
}
