package jwtx

import "errors"

// Messages reported to callers, most specific first.
var descriptions = []struct {
	err error
	msg string
}{
	{ErrAudience, "The audience is invalid"},
	{ErrIssuer, "The issuer is invalid"},
	{ErrNoExpiration, "The token has no expiration"},
	{ErrLifetime, "The token lifetime is invalid"},
	{ErrNotYetValid, "The token is not valid yet"},
	{ErrExpired, "The token is expired"},
	{ErrKeyNotFound, "The signature key was not found"},
	{ErrInvalidSig, "The signature is invalid"},
	{ErrUnreadable, "Token Verification Failed"},
	{ErrMalformed, "Unable to decode token"},
}

// Describe maps a Verify error to a client-facing message. When err joins
// several failures the most specific one wins. The second return is false
// for errors outside the verification taxonomy.
func Describe(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	for _, d := range descriptions {
		if errors.Is(err, d.err) {
			return d.msg, true
		}
	}
	return "", false
}
