package jwtx_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/passguard/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func allChecks(now time.Time) jwtx.VerifyOptions {
	return jwtx.VerifyOptions{
		Issuer:             "passguard",
		ValidateIssuer:     true,
		ValidateAudience:   true,
		ValidateLifetime:   true,
		ValidateSigningKey: true,
		Now:                func() time.Time { return now },
	}
}

func signed(t *testing.T, c jwtx.Claims) string {
	t.Helper()
	s, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)
	tok, err := s.Sign(c)
	require.NoError(t, err)
	return tok
}

func TestHS256RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	tok := signed(t, jwtx.NewAccessClaims("7", "passguard", time.Hour, now))
	require.Equal(t, 2, strings.Count(tok, "."))

	v := jwtx.NewVerifierHS256(testSecret, allChecks(now))
	claims, err := v.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "7", claims.Subject)
	require.Equal(t, "7", claims.UniqueName)
	require.True(t, claims.ExpiresAt.Equal(now.Add(time.Hour)))
}

func TestNewSignerHS256RejectsEmptySecret(t *testing.T) {
	_, err := jwtx.NewSignerHS256(nil)
	require.Error(t, err)
}

func TestHS256TamperedSignature(t *testing.T) {
	now := time.Now().UTC()
	tok := signed(t, jwtx.NewAccessClaims("7", "passguard", time.Hour, now))

	// flip the first signature character so the decoded bytes change
	i := strings.LastIndex(tok, ".") + 1
	repl := byte('A')
	if tok[i] == 'A' {
		repl = 'B'
	}
	bad := tok[:i] + string(repl) + tok[i+1:]

	_, err := jwtx.NewVerifierHS256(testSecret, allChecks(now)).Verify(bad)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	msg, ok := jwtx.Describe(err)
	require.True(t, ok)
	require.Equal(t, "The signature is invalid", msg)
}

func TestHS256WrongSecret(t *testing.T) {
	now := time.Now().UTC()
	tok := signed(t, jwtx.NewAccessClaims("7", "passguard", time.Hour, now))

	other := []byte("ffffffffffffffffffffffffffffffff")
	_, err := jwtx.NewVerifierHS256(other, allChecks(now)).Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestHS256RejectsOtherAlgorithms(t *testing.T) {
	now := time.Now().UTC()
	c := jwtx.NewAccessClaims("7", "passguard", time.Hour, now)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString(testSecret)
	require.NoError(t, err)

	_, err = jwtx.NewVerifierHS256(testSecret, allChecks(now)).Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestHS256SigningKey(t *testing.T) {
	now := time.Now().UTC()
	short := []byte("short")
	s, err := jwtx.NewSignerHS256(short)
	require.NoError(t, err)
	tok, err := s.Sign(jwtx.NewAccessClaims("7", "passguard", time.Hour, now))
	require.NoError(t, err)

	t.Run("short key rejected when validated", func(t *testing.T) {
		_, err := jwtx.NewVerifierHS256(short, allChecks(now)).Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrKeyNotFound)
		msg, _ := jwtx.Describe(err)
		require.Equal(t, "The signature key was not found", msg)
	})

	t.Run("short key accepted when not validated", func(t *testing.T) {
		opts := allChecks(now)
		opts.ValidateSigningKey = false
		_, err := jwtx.NewVerifierHS256(short, opts).Verify(tok)
		require.NoError(t, err)
	})

	t.Run("missing key", func(t *testing.T) {
		opts := allChecks(now)
		opts.ValidateSigningKey = false
		_, err := jwtx.NewVerifierHS256(nil, opts).Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrKeyNotFound)
	})
}

func TestHS256Expiry(t *testing.T) {
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tok := signed(t, jwtx.NewAccessClaims("7", "passguard", time.Minute, issued))
	later := issued.Add(2 * time.Minute)

	t.Run("expired with lifetime validation", func(t *testing.T) {
		_, err := jwtx.NewVerifierHS256(testSecret, allChecks(later)).Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrExpired)
		msg, _ := jwtx.Describe(err)
		require.Equal(t, "The token is expired", msg)
	})

	t.Run("accepted without lifetime validation", func(t *testing.T) {
		opts := allChecks(later)
		opts.ValidateLifetime = false
		_, err := jwtx.NewVerifierHS256(testSecret, opts).Verify(tok)
		require.NoError(t, err)
	})

	t.Run("valid on the expiry instant", func(t *testing.T) {
		_, err := jwtx.NewVerifierHS256(testSecret, allChecks(issued.Add(time.Minute))).Verify(tok)
		require.NoError(t, err)
	})
}

func TestHS256IssuerAndAudience(t *testing.T) {
	now := time.Now().UTC()
	tok := signed(t, jwtx.NewAccessClaims("7", "someone-else", time.Hour, now))

	t.Run("audience wins over issuer", func(t *testing.T) {
		_, err := jwtx.NewVerifierHS256(testSecret, allChecks(now)).Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrAudience)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
		msg, _ := jwtx.Describe(err)
		require.Equal(t, "The audience is invalid", msg)
	})

	t.Run("issuer only", func(t *testing.T) {
		opts := allChecks(now)
		opts.ValidateAudience = false
		_, err := jwtx.NewVerifierHS256(testSecret, opts).Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
		require.NotErrorIs(t, err, jwtx.ErrAudience)
		msg, _ := jwtx.Describe(err)
		require.Equal(t, "The issuer is invalid", msg)
	})

	t.Run("both disabled", func(t *testing.T) {
		opts := allChecks(now)
		opts.ValidateAudience = false
		opts.ValidateIssuer = false
		_, err := jwtx.NewVerifierHS256(testSecret, opts).Verify(tok)
		require.NoError(t, err)
	})
}

func TestHS256Garbage(t *testing.T) {
	v := jwtx.NewVerifierHS256(testSecret, allChecks(time.Now()))

	tests := []struct {
		name  string
		token string
		want  error
		msg   string
	}{
		{"empty", "", jwtx.ErrUnreadable, "Token Verification Failed"},
		{"no dots", "garbage", jwtx.ErrUnreadable, "Token Verification Failed"},
		{"too many segments", "a.b.c.d", jwtx.ErrUnreadable, "Token Verification Failed"},
		{"bad base64", "!!!.@@@.###", jwtx.ErrMalformed, "Unable to decode token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			require.ErrorIs(t, err, tt.want)
			msg, ok := jwtx.Describe(err)
			require.True(t, ok)
			require.Equal(t, tt.msg, msg)
		})
	}
}

func TestDescribeUnknown(t *testing.T) {
	_, ok := jwtx.Describe(nil)
	require.False(t, ok)
	_, ok = jwtx.Describe(errors.New("boom"))
	require.False(t, ok)
}
