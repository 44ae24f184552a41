package cryptox

import (
	"strings"
)

var urlUnsafe = strings.NewReplacer("+", "", "=", "", "/", "")

// URLSafe drops the base64 characters that need escaping in URLs and form
// bodies.
func URLSafe(s string) string {
	return urlUnsafe.Replace(s)
}

// RefreshTokenFromHash turns a PHC-encoded password hash into an opaque
// refresh token: the salt and digest segments, concatenated and stripped of
// URL-unsafe characters. Parameter segments are dropped since they are the
// same for every token.
func RefreshTokenFromHash(encodedHash string) string {
	parts := strings.Split(encodedHash, "$")
	if len(parts) < 2 {
		return URLSafe(encodedHash)
	}
	return URLSafe(parts[len(parts)-2] + parts[len(parts)-1])
}
