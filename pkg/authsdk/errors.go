package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/passguard/pkg/httpx"
)

// Error codes returned by the identity service.
const (
	ErrorCodeNotFound        = "Not Found"
	ErrorCodeUnauthorized    = "UnAuthorized"
	ErrorCodeInvalidRequest  = "Invalid Request"
	ErrorCodeAccessDenied    = "Access Denied"
	ErrorCodeSystemError     = "SYSTEM_ERROR"
	ErrorCodePasswordExpired = "PasswordExpired"
	ErrorCodeAuthFailed      = "AUTHFAILED"
	ErrorCodeTooManyRequests = "TooManyRequests"
)

// APIError is an error response from the identity service. It is used both
// by the server to write responses and by the client to report them.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	Code    string              `json:"code"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WriteError writes e as a JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Errors:  e.Errors,
	})
}

// NewAPIError creates an APIError.
func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Message: message}
}

// IsCode reports whether err is an *APIError carrying code.
func IsCode(err error, code string) bool {
	e, ok := err.(*APIError)
	return ok && e.Code == code
}

// parseErrorResponse turns a non-2xx response into an *APIError. Returns
// nil for success responses.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Code != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       errResp.Code,
			Message:    errResp.Message,
			Errors:     errResp.Errors,
		}
	}

	// Fallback: create generic error from status code
	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       ErrorCodeSystemError,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
