package authsdk

import "time"

// ============================================================================
// Identity Types
// ============================================================================

// LoginRequest is the body of POST /api/identity/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`

	// TokenExpireAt overrides the access token lifetime in minutes.
	TokenExpireAt *int `json:"tokenExpireAt,omitempty"`
}

// RegisterRequest is the body of POST /api/identity/register.
type RegisterRequest struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

// ChangePasswordRequest is the body of POST /api/identity/changePassword.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// RefreshTokenRequest is the body of POST /api/identity/refreshToken.
type RefreshTokenRequest struct {
	Token string `json:"token"`
}

// JSONWebToken carries an access token and the refresh token that can be
// exchanged for the next one.
type JSONWebToken struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`

	// Expires is the access token expiry in unix seconds.
	Expires int64 `json:"expires"`
}

// UserProfile is the public view of a user account.
type UserProfile struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// Login statuses.
const (
	StatusSucceeded             = "Succeeded"
	StatusRequirePasswordChange = "RequirePasswordChange"
	StatusRequire2Fa            = "Require2Fa"
	StatusFailed                = "Failed"
)

// LoginResponse is returned by login and refresh.
type LoginResponse struct {
	Status       string       `json:"status"`
	JSONWebToken JSONWebToken `json:"jsonWebToken"`
	UserDetails  UserProfile  `json:"userDetails"`
}

// ============================================================================
// Error Types
// ============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// Errors holds per-field validation failures.
	Errors map[string][]string `json:"errors,omitempty"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`

	// Checks is only present on readiness responses.
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	Database string `json:"database"`
}
