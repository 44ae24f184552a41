package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/passguard/internal/auth/policy"
	"github.com/aussiebroadwan/passguard/internal/auth/service"
	"github.com/aussiebroadwan/passguard/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/passguard/pkg/authsdk"
	"github.com/aussiebroadwan/passguard/pkg/cryptox"
	"github.com/aussiebroadwan/passguard/pkg/jwtx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	cryptox.SetPepper("http-test-pepper")
	m.Run()
}

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testIssuer   = "https://passguard.test"
	testPassword = "Passw0rd!"
)

type testServer struct {
	t      *testing.T
	router *Router
	now    time.Time
	ip     atomic.Int32
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	ts := &testServer{t: t, now: time.Now().UTC()}
	clock := func() time.Time { return ts.now }

	signer, err := jwtx.NewSignerHS256([]byte(testSecret))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics := service.NewMetrics(reg)

	tokens := &service.TokenService{
		Signer: signer,
		Verifier: jwtx.NewVerifierHS256([]byte(testSecret), jwtx.VerifyOptions{
			Issuer:             testIssuer,
			ValidateIssuer:     true,
			ValidateAudience:   true,
			ValidateLifetime:   true,
			ValidateSigningKey: true,
			Now:                clock,
		}),
		Hasher:        service.Argon2Hasher{},
		Issuer:        testIssuer,
		ExpiryMinutes: 30,
		Clock:         clock,
		Metrics:       metrics,
	}

	auth := &service.AuthService{
		Store:                st,
		Tokens:               tokens,
		Lockout:              &service.LockoutTracker{Threshold: 3, Duration: 10 * time.Minute, Clock: clock},
		Hasher:               service.Argon2Hasher{},
		Policy:               policy.Default,
		PasswordLifetimeDays: 90,
		Clock:                clock,
		Metrics:              metrics,
	}

	r := NewRouter("test", st, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.AuthService = auth
	r.Authenticator = service.NewAuthenticator(tokens, st)
	r.Gatherer = reg
	r.ApplyRoutes()

	ts.router = r
	return ts
}

// do sends a request from a fresh client address so rate limits never
// interfere.
func (ts *testServer) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	ts.t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(ts.t, err)
		buf = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, buf)
	n := ts.ip.Add(1)
	req.RemoteAddr = fmt.Sprintf("10.0.%d.%d:4000", n/250, n%250+1)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) register(username string) {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/identity/register", authsdk.RegisterRequest{
		Username:  username,
		FirstName: "First",
		LastName:  "Last",
		Password:  testPassword,
	}, "")
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
}

func (ts *testServer) login(username, password string) authsdk.LoginResponse {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/identity/login", authsdk.LoginRequest{Username: username, Password: password}, "")
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[authsdk.LoginResponse](ts.t, rec)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.register("alice")

	resp := ts.login("alice", testPassword)
	require.Equal(t, authsdk.StatusSucceeded, resp.Status)
	require.NotEmpty(t, resp.JSONWebToken.AccessToken)
	require.NotEmpty(t, resp.JSONWebToken.RefreshToken)
	require.Equal(t, "alice", resp.UserDetails.Username)

	rec := ts.do(http.MethodGet, "/api/identity/profile", nil, resp.JSONWebToken.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decodeBody[authsdk.UserProfile](t, rec)
	require.Equal(t, "alice", profile.Username)
	require.NotNil(t, profile.LastLogin)
}

func TestLoginValidation(t *testing.T) {
	ts := newTestServer(t)

	zero := 0
	rec := ts.do(http.MethodPost, "/api/identity/login", authsdk.LoginRequest{TokenExpireAt: &zero}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody[authsdk.ErrorResponse](t, rec)
	require.Equal(t, authsdk.ErrorCodeInvalidRequest, body.Code)
	require.Equal(t, "One or more validation failures have occurred.", body.Message)
	require.Contains(t, body.Errors, "username")
	require.Contains(t, body.Errors, "password")
	require.Contains(t, body.Errors, "tokenExpireAt")
}

func TestLoginErrors(t *testing.T) {
	ts := newTestServer(t)
	ts.register("alice")

	rec := ts.do(http.MethodPost, "/api/identity/login", authsdk.LoginRequest{Username: "nobody", Password: "x"}, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, authsdk.ErrorCodeNotFound, decodeBody[authsdk.ErrorResponse](t, rec).Code)

	rec = ts.do(http.MethodPost, "/api/identity/login", authsdk.LoginRequest{Username: "alice", Password: "wrong"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, authsdk.ErrorCodeUnauthorized, decodeBody[authsdk.ErrorResponse](t, rec).Code)
}

func TestLockoutOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	ts.register("alice")

	for range 3 {
		rec := ts.do(http.MethodPost, "/api/identity/login", authsdk.LoginRequest{Username: "alice", Password: "wrong"}, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := ts.do(http.MethodPost, "/api/identity/login", authsdk.LoginRequest{Username: "alice", Password: testPassword}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, service.MsgUserLockedOut, decodeBody[authsdk.ErrorResponse](t, rec).Message)
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/identity/register", authsdk.RegisterRequest{Username: "bob", Password: "weak"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody[authsdk.ErrorResponse](t, rec)
	require.Equal(t, []string{"'Last Name' must not be empty."}, body.Errors["lastName"])
	require.Equal(t, []string{policy.MsgTooShort(8)}, body.Errors["password"])
	require.NotContains(t, body.Errors, "username")

	ts.register("carol")
	rec = ts.do(http.MethodPost, "/api/identity/register", authsdk.RegisterRequest{
		Username: "carol", LastName: "L", Password: testPassword,
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, service.MsgUsernameTaken, decodeBody[authsdk.ErrorResponse](t, rec).Message)
}

func TestInvalidJSONBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/identity/login", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, MsgInvalidBody, decodeBody[authsdk.ErrorResponse](t, rec).Message)
}

func TestAuthenticationChallenge(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		header string
		msg    string
	}{
		{"missing header", "", MsgMissingAuthorization},
		{"wrong scheme", "Basic abc", MsgMalformedAuthorization},
		{"bad token", "Bearer not-a-jwt", "Token Verification Failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/identity/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			ts.router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			body := decodeBody[authsdk.ErrorResponse](t, rec)
			require.Equal(t, authsdk.ErrorCodeUnauthorized, body.Code)
			require.Equal(t, tt.msg, body.Message)
		})
	}
}

func TestBearerSchemeIsCaseInsensitive(t *testing.T) {
	ts := newTestServer(t)
	ts.register("alice")
	resp := ts.login("alice", testPassword)

	req := httptest.NewRequest(http.MethodGet, "/api/identity/profile", nil)
	req.Header.Set("Authorization", "bearer "+resp.JSONWebToken.AccessToken)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPasswordExpiryGate(t *testing.T) {
	ts := newTestServer(t)
	ts.register("alice")

	ts.now = ts.now.Add(91 * 24 * time.Hour)
	resp := ts.login("alice", testPassword)
	require.Equal(t, authsdk.StatusRequirePasswordChange, resp.Status)
	token := resp.JSONWebToken.AccessToken

	rec := ts.do(http.MethodGet, "/api/identity/profile", nil, token)
	require.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeBody[authsdk.ErrorResponse](t, rec)
	require.Equal(t, authsdk.ErrorCodePasswordExpired, body.Code)
	require.Equal(t, "alice Requires Password Change", body.Message)

	rec = ts.do(http.MethodPost, "/api/identity/changePassword", authsdk.ChangePasswordRequest{
		OldPassword: testPassword,
		NewPassword: "N3w!passw",
	}, token)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/identity/profile", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestChangePasswordValidation(t *testing.T) {
	ts := newTestServer(t)
	ts.register("alice")
	token := ts.login("alice", testPassword).JSONWebToken.AccessToken

	rec := ts.do(http.MethodPost, "/api/identity/changePassword", authsdk.ChangePasswordRequest{
		OldPassword: testPassword,
		NewPassword: testPassword,
	}, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, []string{service.MsgSamePassword}, decodeBody[authsdk.ErrorResponse](t, rec).Errors["oldPassword"])

	rec = ts.do(http.MethodPost, "/api/identity/changePassword", authsdk.ChangePasswordRequest{
		OldPassword: "Wr0ng!pass",
		NewPassword: "N3w!passw",
	}, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, service.MsgOldPasswordMismatch, decodeBody[authsdk.ErrorResponse](t, rec).Message)
}

func TestLogoutAndRefresh(t *testing.T) {
	ts := newTestServer(t)
	ts.register("alice")
	first := ts.login("alice", testPassword)

	rec := ts.do(http.MethodPost, "/api/identity/refreshToken", authsdk.RefreshTokenRequest{Token: first.JSONWebToken.RefreshToken}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeBody[authsdk.LoginResponse](t, rec)

	rec = ts.do(http.MethodPost, "/api/identity/logout", nil, second.JSONWebToken.AccessToken)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodPost, "/api/identity/refreshToken", authsdk.RefreshTokenRequest{Token: second.JSONWebToken.RefreshToken}, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, service.MsgRefreshTokenNotFound, decodeBody[authsdk.ErrorResponse](t, rec).Message)

	rec = ts.do(http.MethodPost, "/api/identity/refreshToken", authsdk.RefreshTokenRequest{}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/livez", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "test", decodeBody[authsdk.HealthResponse](t, rec).Version)

	rec = ts.do(http.MethodGet, "/readyz", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	health := decodeBody[authsdk.HealthResponse](t, rec)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)

	ts.do(http.MethodGet, "/api/identity/profile", nil, "x.y.z")
	rec = ts.do(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "passguard_token_validations_total")
}

func TestReadyzReportsDatabaseFailure(t *testing.T) {
	h := ReadyzHandler(time.Now(), "v", pingFunc(func(context.Context) error {
		return fmt.Errorf("db down")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decodeBody[authsdk.HealthResponse](t, rec)
	require.Equal(t, "degraded", body.Status)
	require.Equal(t, "error: db down", body.Checks.Database)
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestSystemErrorsAreHidden(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	writeError(rec, req, fmt.Errorf("disk on fire"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody[authsdk.ErrorResponse](t, rec)
	require.Equal(t, authsdk.ErrorCodeSystemError, body.Code)
	require.NotContains(t, body.Message, "disk")
}
