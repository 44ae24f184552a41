package httpx

import (
	"errors"
	"net/http"
	"strings"
)

const bearerScheme = "Bearer"

var (
	ErrMissingAuthorization   = errors.New("httpx: missing authorization header")
	ErrMalformedAuthorization = errors.New("httpx: malformed authorization header")
)

// BearerToken pulls the token out of the Authorization header. The scheme
// match is case-insensitive and must be followed by a single space.
func BearerToken(r *http.Request) (string, error) {
	values, ok := r.Header["Authorization"]
	if !ok || len(values) == 0 {
		return "", ErrMissingAuthorization
	}

	authz := values[0]
	prefix := bearerScheme + " "
	if len(authz) < len(prefix) || !strings.EqualFold(authz[:len(prefix)], prefix) {
		return "", ErrMalformedAuthorization
	}

	return strings.TrimSpace(authz[len(bearerScheme):]), nil
}

// WriteBearerChallenge answers 401 with a Bearer challenge and a JSON body.
func WriteBearerChallenge(w http.ResponseWriter, body any) {
	w.Header().Set("WWW-Authenticate", bearerScheme)
	WriteJSON(w, http.StatusUnauthorized, body)
}
