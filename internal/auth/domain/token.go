package domain

import "time"

// Token is what login and refresh hand back: a signed access token, its
// expiry in unix seconds and the opaque refresh token.
type Token struct {
	AccessToken  string
	RefreshToken string
	Expires      int64
}

// TokenPayload is what a valid access token tells us about its bearer.
type TokenPayload struct {
	Subject   string
	SubjectID int64
	ExpiresAt time.Time
}

// TokenValidation is the outcome of validating an access token. Payload is
// only set when Result succeeded.
type TokenValidation struct {
	Result
	Payload *TokenPayload
}

// LoginStatus is reported alongside a successful login or refresh.
type LoginStatus string

const (
	StatusSucceeded             LoginStatus = "Succeeded"
	StatusRequire2Fa            LoginStatus = "Require2Fa" // reserved, never issued
	StatusRequirePasswordChange LoginStatus = "RequirePasswordChange"
	StatusFailed                LoginStatus = "Failed"
)

// LoginResponse is returned by login and refresh.
type LoginResponse struct {
	Status LoginStatus
	Token  Token
	User   UserProfile
}
