package http

import (
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/passguard/internal/auth/apperr"
	"github.com/aussiebroadwan/passguard/pkg/authsdk"
	"github.com/aussiebroadwan/passguard/pkg/httpx"
	"github.com/aussiebroadwan/passguard/pkg/slogx"
)

// MsgInvalidBody is reported when a request body is not valid JSON.
const MsgInvalidBody = "The request body could not be parsed."

// writeError translates err into the JSON error response. System faults are
// logged here and never shown to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.As(err)

	if e.Kind == apperr.KindSystem {
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("err", err))
	}

	toAPIError(e).WriteError(w)
}

func toAPIError(e *apperr.Error) *authsdk.APIError {
	return &authsdk.APIError{
		StatusCode: e.Kind.HTTPStatus(),
		Code:       e.Code,
		Message:    e.Message,
		Errors:     e.Fields,
	}
}

// writeChallenge answers a failed authentication with a Bearer challenge.
func writeChallenge(w http.ResponseWriter, e *apperr.Error) {
	httpx.WriteBearerChallenge(w, authsdk.ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
	})
}
