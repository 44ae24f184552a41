package http

import (
	"net/http"

	"github.com/aussiebroadwan/passguard/internal/auth/apperr"
	"github.com/aussiebroadwan/passguard/internal/auth/domain"
	"github.com/aussiebroadwan/passguard/internal/auth/service"
	"github.com/aussiebroadwan/passguard/pkg/authsdk"
	"github.com/aussiebroadwan/passguard/pkg/httpx"
)

// IdentityHandler serves the /api/identity endpoints.
type IdentityHandler struct {
	AuthService *service.AuthService
}

// HandleLogin authenticates a user with a username and password.
//
//	@Summary		Log in
//	@Description	Checks the credentials and issues an access token and refresh token.
//	@Description	A status of RequirePasswordChange means every other authenticated endpoint will answer 403 until the password is changed.
//	@Tags			Identity
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Validation failure"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Bad password, inactive or locked out"
//	@Failure		404		{object}	authsdk.ErrorResponse	"Unknown user"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limit exceeded"
//	@Router			/api/identity/login [post].
func (h *IdentityHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	if err := validateLogin(&req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.AuthService.Login(r.Context(), req.Username, req.Password, req.TokenExpireAt)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toLoginResponse(resp))
}

// HandleLogout revokes the caller's refresh token.
//
//	@Summary	Log out
//	@Tags		Identity
//	@Security	BearerAuth
//	@Success	204
//	@Failure	401	{object}	authsdk.ErrorResponse
//	@Failure	403	{object}	authsdk.ErrorResponse	"Password expired"
//	@Router		/api/identity/logout [post].
func (h *IdentityHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.AuthService.Logout(r.Context(), service.IdentityFromContext(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRefreshToken exchanges a refresh token for a new token pair.
//
//	@Summary	Refresh tokens
//	@Tags		Identity
//	@Accept		json
//	@Produce	json
//	@Param		request	body		authsdk.RefreshTokenRequest	true	"Refresh token"
//	@Success	200		{object}	authsdk.LoginResponse
//	@Failure	400		{object}	authsdk.ErrorResponse
//	@Failure	404		{object}	authsdk.ErrorResponse	"Unknown or revoked refresh token"
//	@Router		/api/identity/refreshToken [post].
func (h *IdentityHandler) HandleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshTokenRequest
	if !decode(w, r, &req) {
		return
	}
	if err := validateRefresh(&req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.AuthService.RefreshToken(r.Context(), req.Token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toLoginResponse(resp))
}

// HandleChangePassword replaces the caller's password. It stays reachable
// when the password has expired.
//
//	@Summary	Change password
//	@Tags		Identity
//	@Security	BearerAuth
//	@Accept		json
//	@Param		request	body	authsdk.ChangePasswordRequest	true	"Old and new password"
//	@Success	204
//	@Failure	400	{object}	authsdk.ErrorResponse	"Validation or policy failure"
//	@Failure	401	{object}	authsdk.ErrorResponse
//	@Router		/api/identity/changePassword [post].
func (h *IdentityHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := validateChangePassword(&req, h.AuthService.Policy); err != nil {
		writeError(w, r, err)
		return
	}

	id := service.IdentityFromContext(r.Context())
	if err := h.AuthService.ChangePassword(r.Context(), id, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleProfile returns the caller's profile.
//
//	@Summary	Get profile
//	@Tags		Identity
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	authsdk.UserProfile
//	@Failure	401	{object}	authsdk.ErrorResponse
//	@Failure	403	{object}	authsdk.ErrorResponse	"Password expired"
//	@Router		/api/identity/profile [get].
func (h *IdentityHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.AuthService.Profile(r.Context(), service.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toProfile(user.Profile()))
}

// HandleRegister creates a user account.
//
//	@Summary	Register
//	@Tags		Identity
//	@Accept		json
//	@Produce	json
//	@Param		request	body		authsdk.RegisterRequest	true	"New account"
//	@Success	200		{object}	authsdk.UserProfile
//	@Failure	400		{object}	authsdk.ErrorResponse	"Validation failure or username taken"
//	@Router		/api/identity/register [post].
func (h *IdentityHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	if err := validateRegister(&req, h.AuthService.Policy); err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := h.AuthService.Register(r.Context(), req.Username, req.FirstName, req.LastName, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toProfile(profile))
}

// decode reads the JSON body into v, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.DecodeJSON(w, r, v); err != nil {
		writeError(w, r, apperr.BadRequest(MsgInvalidBody))
		return false
	}
	return true
}

func toProfile(p domain.UserProfile) authsdk.UserProfile {
	return authsdk.UserProfile{
		ID:        p.ID,
		Username:  p.Username,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		LastLogin: p.LastLoginAt,
	}
}

func toLoginResponse(resp domain.LoginResponse) authsdk.LoginResponse {
	return authsdk.LoginResponse{
		Status: string(resp.Status),
		JSONWebToken: authsdk.JSONWebToken{
			AccessToken:  resp.Token.AccessToken,
			RefreshToken: resp.Token.RefreshToken,
			Expires:      resp.Token.Expires,
		},
		UserDetails: toProfile(resp.User),
	}
}
