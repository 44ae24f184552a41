package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/passguard/internal/auth/apperr"
	"github.com/aussiebroadwan/passguard/internal/auth/service"
	"github.com/aussiebroadwan/passguard/pkg/httpx"
	"github.com/aussiebroadwan/passguard/pkg/slogx"
)

const (
	MsgMissingAuthorization   = "Missing or malformed 'Authorization' header."
	MsgMalformedAuthorization = "Malformed 'Authorization' header."
)

// AuthnMiddleware authenticates the bearer token and stores the resulting
// identity on the request context. Failures answer 401 with a Bearer
// challenge.
func AuthnMiddleware(authn *service.Authenticator) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := httpx.BearerToken(r)
			switch {
			case errors.Is(err, httpx.ErrMissingAuthorization):
				writeChallenge(w, apperr.Unauthorized(MsgMissingAuthorization))
				return
			case err != nil:
				writeChallenge(w, apperr.Unauthorized(MsgMalformedAuthorization))
				return
			}

			id, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				e := apperr.As(err)
				slogx.FromContext(r.Context()).Info("authentication failed", slog.String("reason", e.Message))
				writeChallenge(w, e)
				return
			}

			ctx := service.WithIdentity(r.Context(), id)
			ctx = httpx.WithSubject(ctx, id.Subject())
			ctx = slogx.WithAttrs(ctx, "user_id", id.SubjectID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PasswordExpiryGate rejects authenticated callers whose password has
// expired. Routes that must stay reachable with an expired password simply
// do not install it.
func PasswordExpiryGate(auth *service.AuthService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := service.IdentityFromContext(r.Context())
			if id != nil && id.User != nil && auth.HasPasswordExpired(*id.User) {
				writeError(w, r, apperr.Forbidden(id.Username+" Requires Password Change").
					WithCode(apperr.CodePasswordExpired))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
