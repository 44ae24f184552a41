// Package policy validates candidate passwords against the configured
// complexity rules.
package policy

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aussiebroadwan/passguard/internal/auth/domain"
)

// Policy is the password complexity configuration.
type Policy struct {
	MinLength          int
	RequireUppercase   bool
	RequireLowercase   bool
	RequireDigit       bool
	RequireNonAlphanum bool
}

// Default mirrors the shipped configuration.
var Default = Policy{
	MinLength:          8,
	RequireUppercase:   true,
	RequireLowercase:   true,
	RequireDigit:       true,
	RequireNonAlphanum: true,
}

const (
	MsgEmpty       = "The password cannot be empty"
	MsgLowercase   = "The password must contain at least one lowercase character."
	MsgUppercase   = "The password must contain at least one uppercase character."
	MsgDigit       = "The password must contain at least one digit."
	MsgNonAlphanum = "The password must contain at least one non-alphanumeric character."
)

// MsgTooShort formats the minimum length failure.
func MsgTooShort(min int) string {
	return fmt.Sprintf("The password must be over %d characters.", min)
}

// Validate checks password against p. Rules run in a fixed order and the
// first failing rule is the only one reported.
func (p Policy) Validate(password string) domain.Result {
	if password == "" {
		return domain.Failed(MsgEmpty)
	}
	if utf8.RuneCountInString(password) < p.MinLength {
		return domain.Failed(MsgTooShort(p.MinLength))
	}
	if p.RequireLowercase && !strings.ContainsFunc(password, isLower) {
		return domain.Failed(MsgLowercase)
	}
	if p.RequireUppercase && !strings.ContainsFunc(password, isUpper) {
		return domain.Failed(MsgUppercase)
	}
	if p.RequireDigit && !strings.ContainsFunc(password, isDigit) {
		return domain.Failed(MsgDigit)
	}
	if p.RequireNonAlphanum && !strings.ContainsFunc(password, isNonAlphanum) {
		return domain.Failed(MsgNonAlphanum)
	}
	return domain.Success
}

// Character classes are ASCII only; any rune outside [A-Za-z0-9] counts as
// non-alphanumeric.
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }
func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isNonAlphanum(r rune) bool {
	return !isLower(r) && !isUpper(r) && !isDigit(r)
}
