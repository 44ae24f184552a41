package jwtx

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// VerifyOptions captures the checks a verifier applies. Each claim check can
// be switched off on its own; the signature is always checked.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss), also used as the expected
	// audience.
	Issuer string

	ValidateIssuer     bool
	ValidateAudience   bool
	ValidateLifetime   bool
	ValidateSigningKey bool

	// Now is the clock used for lifetime checks. Defaults to time.Now in UTC.
	Now func() time.Time
}

var (
	ErrUnreadable   = errors.New("jwtx: token is not a compact JWS")
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrKeyNotFound  = errors.New("jwtx: signing key not found")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrNoExpiration = errors.New("jwtx: token has no expiration")
	ErrLifetime     = errors.New("jwtx: invalid token lifetime")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// HS256Verifier validates JWTs signed with HMAC SHA-256.
type HS256Verifier struct {
	key  []byte
	opts VerifyOptions
}

// NewVerifierHS256 creates a verifier for tokens signed with secret.
func NewVerifierHS256(secret []byte, opts VerifyOptions) *HS256Verifier {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &HS256Verifier{key: append([]byte(nil), secret...), opts: opts}
}

// Verify validates the JWT string and returns its parsed Claims. When more
// than one claim check fails the returned error joins all of them; use
// Describe to pick the one to report.
func (v *HS256Verifier) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" || strings.Count(tokenStr, ".") != 2 {
		return nil, ErrUnreadable
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		if len(v.key) == 0 {
			return nil, ErrKeyNotFound
		}
		if v.opts.ValidateSigningKey && len(v.key) < MinSecretLength {
			return nil, ErrKeyNotFound
		}
		return v.key, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	case errors.Is(err, ErrKeyNotFound):
		return nil, ErrKeyNotFound
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrInvalidSig
	default:
		return nil, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	// Now check all the claim requirements
	var errs []error
	if v.opts.ValidateAudience {
		errs = append(errs, claims.ValidateAudience([]string{v.opts.Issuer}))
	}
	if v.opts.ValidateIssuer {
		errs = append(errs, claims.ValidateIssuer(v.opts.Issuer))
	}
	if v.opts.ValidateLifetime {
		errs = append(errs, claims.ValidateLifetime(v.opts.Now()))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return claims, nil
}
