package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the passguard identity service. It provides the
// unauthenticated operations and creates authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new identity service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login exchanges credentials for a token pair.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/identity/login", req, "")
	if err != nil {
		return nil, err
	}

	var out LoginResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a new user account.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*UserProfile, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/identity/register", req, "")
	if err != nil {
		return nil, err
	}

	var out UserProfile
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshToken exchanges a refresh token for a new token pair. The old
// refresh token is spent.
func (c *SDKClient) RefreshToken(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/identity/refreshToken",
		RefreshTokenRequest{Token: refreshToken}, "")
	if err != nil {
		return nil, err
	}

	var out LoginResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// AuthenticateWithPassword logs in and wraps the result in a Session. The
// login response is returned too so callers can act on its status.
func (c *SDKClient) AuthenticateWithPassword(ctx context.Context, username, password string) (*Session, *LoginResponse, error) {
	login, err := c.Login(ctx, LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, nil, err
	}
	return newSession(c, login.JSONWebToken), login, nil
}

// NewSessionFromTokens creates a session from tokens obtained elsewhere.
func (c *SDKClient) NewSessionFromTokens(tok JSONWebToken) *Session {
	return newSession(c, tok)
}
