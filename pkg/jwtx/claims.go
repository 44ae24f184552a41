package jwtx

import (
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims issued by the identity service.
type Claims struct {
	jwt.RegisteredClaims

	// UniqueName mirrors the subject so clients reading the token have a
	// display identifier without a lookup.
	UniqueName string `json:"unique_name,omitempty"`
}

// NewAccessClaims builds claims for subject valid from now until now+ttl.
// The issuer doubles as the audience.
func NewAccessClaims(subject, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{issuer},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UniqueName: subject,
	}
}

// SubjectID returns the subject as a numeric user id.
func (c *Claims) SubjectID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidClaim
	}
	return id, nil
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateLifetime checks exp, iat and nbf against now with no leeway. A
// token is still valid at the exact second it expires.
func (c *Claims) ValidateLifetime(now time.Time) error {
	if c.ExpiresAt == nil {
		return ErrNoExpiration
	}
	exp := c.ExpiresAt.Time

	if c.IssuedAt != nil && c.IssuedAt.After(exp) {
		return ErrLifetime
	}
	if c.NotBefore != nil && c.NotBefore.After(exp) {
		return ErrLifetime
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	if now.After(exp) {
		return ErrExpired
	}

	return nil
}
