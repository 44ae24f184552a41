package service

import "github.com/aussiebroadwan/passguard/pkg/cryptox"

// Hasher hashes and verifies secrets. Hashes are self-describing so the
// user record is not needed.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, encoded string) bool
}

// Argon2Hasher is the production Hasher, backed by cryptox.
type Argon2Hasher struct{}

func (Argon2Hasher) Hash(secret string) (string, error) {
	return cryptox.HashPassword(secret)
}

// Verify reports false for empty input rather than hashing it.
func (Argon2Hasher) Verify(secret, encoded string) bool {
	if secret == "" || encoded == "" {
		return false
	}
	return cryptox.VerifyPassword(secret, encoded) == nil
}
