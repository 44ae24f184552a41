package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/passguard/internal/auth/domain"
	"github.com/aussiebroadwan/passguard/pkg/cryptox"
	"github.com/aussiebroadwan/passguard/pkg/jwtx"
	"github.com/aussiebroadwan/passguard/pkg/slogx"
	"github.com/google/uuid"
)

// MsgTokenUnreadable is reported when a token fails in a way the
// verification taxonomy does not cover.
const MsgTokenUnreadable = "Token Verification Failed"

// TokenService issues and validates access tokens. It holds no mutable
// state and is safe for concurrent use.
type TokenService struct {
	Signer        jwtx.Signer
	Verifier      jwtx.Verifier
	Hasher        Hasher
	Issuer        string
	ExpiryMinutes int
	Clock         Clock
	Metrics       *Metrics
}

// Create signs a token for subject. expiryOverride replaces the configured
// lifetime only when it is set and positive. The companion refresh token is
// returned but not stored.
func (s *TokenService) Create(subject string, expiryOverride *int) (domain.Token, error) {
	now := s.Clock.now()

	minutes := s.ExpiryMinutes
	if expiryOverride != nil && *expiryOverride > 0 {
		minutes = *expiryOverride
	}

	claims := jwtx.NewAccessClaims(subject, s.Issuer, time.Duration(minutes)*time.Minute, now)
	access, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.Token{}, err
	}

	refresh, err := s.newRefreshToken()
	if err != nil {
		return domain.Token{}, err
	}

	return domain.Token{
		AccessToken:  access,
		RefreshToken: refresh,
		Expires:      claims.ExpiresAt.Unix(),
	}, nil
}

// newRefreshToken hashes a random UUID with the password hasher and keeps
// the URL safe salt and digest.
func (s *TokenService) newRefreshToken() (string, error) {
	encoded, err := s.Hasher.Hash(uuid.NewString())
	if err != nil {
		return "", err
	}
	return cryptox.RefreshTokenFromHash(encoded), nil
}

// Validate checks token and, on success, extracts its payload. Failures are
// reported in the Result, never as an error.
func (s *TokenService) Validate(ctx context.Context, token string) domain.TokenValidation {
	log := slogx.FromContext(ctx)

	claims, err := s.Verifier.Verify(token)
	if err != nil {
		s.Metrics.tokenValidation(false)

		msg, known := jwtx.Describe(err)
		switch {
		case !known:
			log.Error("token validation failed", slog.Any("err", err))
			msg = MsgTokenUnreadable
		case errors.Is(err, jwtx.ErrMalformed):
			log.Error("token decode failed", slog.Any("err", err))
		default:
			log.Info("token rejected", slog.String("reason", msg))
		}
		return domain.TokenValidation{Result: domain.Failed(msg)}
	}

	s.Metrics.tokenValidation(true)

	// A non-numeric subject is not a verification failure; it simply names
	// no user, which the caller reports as such.
	id, err := claims.SubjectID()
	if errors.Is(err, jwtx.ErrInvalidClaim) {
		log.Debug("token subject is not a user id", slog.String("sub", claims.Subject))
	}

	payload := &domain.TokenPayload{
		Subject:   claims.Subject,
		SubjectID: id,
	}
	if claims.ExpiresAt != nil {
		payload.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}

	return domain.TokenValidation{Result: domain.Success, Payload: payload}
}
