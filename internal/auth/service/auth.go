package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/passguard/internal/auth/apperr"
	"github.com/aussiebroadwan/passguard/internal/auth/domain"
	"github.com/aussiebroadwan/passguard/internal/auth/policy"
	"github.com/aussiebroadwan/passguard/internal/auth/store"
	"github.com/aussiebroadwan/passguard/pkg/slogx"
)

// Messages surfaced by AuthService. They are part of the API contract.
const (
	MsgInvalidCredentials   = "Either username or credential provided is invalid"
	MsgUserNotActive        = "User account is not active"
	MsgUserLockedOut        = "User is locked out contact administrator"
	MsgLogoutNoUser         = "User token was not found."
	MsgRefreshTokenNotFound = "User associated with the token not found"
	MsgUserNotFound         = "The specified user could not be found"
	MsgSamePassword         = "Old Password must not be the same as New Password"
	MsgOldPasswordMismatch  = "Old password doesn't match"
	MsgUsernameRequired     = "Username is required."
	MsgUsernameTaken        = "The specified username already exists"
)

// AuthService owns the user credential lifecycle: login, logout, refresh,
// password change and registration.
type AuthService struct {
	Store   store.Store
	Tokens  *TokenService
	Lockout *LockoutTracker
	Hasher  Hasher
	Policy  policy.Policy

	// PasswordLifetimeDays is the maximum password age. Zero disables
	// expiry.
	PasswordLifetimeDays int

	Clock   Clock
	Metrics *Metrics
}

// Login checks the credentials and issues a token. Failed password checks
// are counted against the lockout policy and persisted before returning.
func (s *AuthService) Login(ctx context.Context, username, password string, expiryOverride *int) (domain.LoginResponse, error) {
	var resp domain.LoginResponse
	err := s.inTx(ctx, func(users store.Users) error {
		var err error
		resp, err = s.login(ctx, users, username, password, expiryOverride)
		return err
	})
	if err != nil {
		return domain.LoginResponse{}, err
	}
	return resp, nil
}

func (s *AuthService) login(ctx context.Context, users store.Users, username, password string, expiryOverride *int) (domain.LoginResponse, error) {
	log := slogx.FromContext(ctx)

	user, err := users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Metrics.login("unknown_user")
			return domain.LoginResponse{}, apperr.NotFound(MsgInvalidCredentials)
		}
		return domain.LoginResponse{}, apperr.System(err)
	}

	if !user.Active {
		s.Metrics.login("inactive")
		return domain.LoginResponse{}, apperr.Unauthorized(MsgUserNotActive)
	}

	if s.Lockout.IsLockedOut(user) {
		s.Metrics.login("locked")
		return domain.LoginResponse{}, apperr.Unauthorized(MsgUserLockedOut)
	}

	if !s.Hasher.Verify(password, user.PasswordHash) {
		if s.Lockout.RecordFailure(&user) {
			s.Metrics.lockout()
			log.Warn("user locked out", slog.Int64("user_id", user.ID), slog.Time("until", *user.LockedUntil))
		}
		if err := users.UpdateUser(ctx, user); err != nil {
			return domain.LoginResponse{}, apperr.System(err)
		}
		s.Metrics.login("bad_password")
		return domain.LoginResponse{}, apperr.Unauthorized(MsgInvalidCredentials)
	}

	resp, err := s.issue(ctx, users, &user, expiryOverride)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	s.Metrics.login("succeeded")
	return resp, nil
}

// Logout revokes the refresh token held by the authenticated user.
func (s *AuthService) Logout(ctx context.Context, id *Identity) error {
	if id == nil || id.User == nil {
		return apperr.NotFound(MsgLogoutNoUser)
	}

	user := *id.User
	user.RefreshToken = nil
	if err := s.Store.Users().UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(MsgLogoutNoUser)
		}
		return apperr.System(err)
	}
	return nil
}

// RefreshToken exchanges a stored refresh token for a new token pair. The
// old refresh token stops working. Credentials are not re-checked.
func (s *AuthService) RefreshToken(ctx context.Context, token string) (domain.LoginResponse, error) {
	if token == "" {
		return domain.LoginResponse{}, apperr.NotFound(MsgRefreshTokenNotFound)
	}

	var resp domain.LoginResponse
	err := s.inTx(ctx, func(users store.Users) error {
		user, err := users.GetUserByRefreshToken(ctx, token)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				slogx.FromContext(ctx).Info("refresh token not found")
				return apperr.NotFound(MsgRefreshTokenNotFound)
			}
			return apperr.System(err)
		}

		resp, err = s.issue(ctx, users, &user, nil)
		return err
	})
	if err != nil {
		return domain.LoginResponse{}, err
	}
	return resp, nil
}

// inTx runs fn against a transaction-scoped Users repository. Rejections
// fn reports still commit, so a recorded failed attempt persists; system
// faults roll everything back.
func (s *AuthService) inTx(ctx context.Context, fn func(users store.Users) error) error {
	var rejected error
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		err := fn(tx.Users())
		if err != nil && apperr.As(err).Kind != apperr.KindSystem {
			rejected = err
			return nil
		}
		return err
	})
	if err != nil {
		return apperr.As(err)
	}
	return rejected
}

// issue mints a token pair for user, records the successful login and
// persists it in a single update.
func (s *AuthService) issue(ctx context.Context, users store.Users, user *domain.User, expiryOverride *int) (domain.LoginResponse, error) {
	status := domain.StatusSucceeded
	if s.HasPasswordExpired(*user) {
		status = domain.StatusRequirePasswordChange
	}
	profile := user.Profile()

	token, err := s.Tokens.Create(fmt.Sprint(user.ID), expiryOverride)
	if err != nil {
		return domain.LoginResponse{}, apperr.System(err)
	}

	s.Lockout.RecordSuccess(user)
	user.RefreshToken = &token.RefreshToken

	if err := ctx.Err(); err != nil {
		return domain.LoginResponse{}, apperr.System(err)
	}
	if err := users.UpdateUser(ctx, *user); err != nil {
		return domain.LoginResponse{}, apperr.System(err)
	}

	return domain.LoginResponse{Status: status, Token: token, User: profile}, nil
}

// ChangePassword replaces the authenticated user's password after checking
// the old one.
func (s *AuthService) ChangePassword(ctx context.Context, id *Identity, oldPassword, newPassword string) error {
	if id == nil || id.User == nil {
		return apperr.NotFound(MsgUserNotFound)
	}
	if oldPassword == newPassword {
		return apperr.BadRequest(MsgSamePassword)
	}

	user := *id.User
	if !s.Hasher.Verify(oldPassword, user.PasswordHash) {
		return apperr.BadRequest(MsgOldPasswordMismatch)
	}

	if err := s.UpdatePassword(&user, newPassword); err != nil {
		return err
	}

	if err := s.Store.Users().UpdateUser(ctx, user); err != nil {
		return apperr.System(err)
	}
	*id.User = user
	return nil
}

// UpdatePassword validates password against the policy and sets the new hash
// and change date on user. Nothing is persisted.
func (s *AuthService) UpdatePassword(user *domain.User, password string) error {
	if res := s.Policy.Validate(password); !res.Succeeded {
		return apperr.BadRequest(strings.Join(res.Errors(), ","))
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return apperr.System(err)
	}

	now := s.Clock.now()
	user.PasswordHash = hash
	user.LastPasswordChangedAt = &now
	return nil
}

// Register creates a new active user and returns its profile.
func (s *AuthService) Register(ctx context.Context, username, firstName, lastName, password string) (domain.UserProfile, error) {
	if username == "" {
		return domain.UserProfile{}, apperr.BadRequest(MsgUsernameRequired)
	}

	_, err := s.Store.Users().GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return domain.UserProfile{}, apperr.BadRequest(MsgUsernameTaken)
	case !errors.Is(err, store.ErrNotFound):
		return domain.UserProfile{}, apperr.System(err)
	}

	user := domain.User{
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Active:    true,
	}
	if err := s.UpdatePassword(&user, password); err != nil {
		return domain.UserProfile{}, err
	}

	id, err := s.Store.Users().CreateUser(ctx, user)
	if err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.UserProfile{}, apperr.BadRequest(MsgUsernameTaken)
		}
		return domain.UserProfile{}, apperr.System(err)
	}
	user.ID = id

	slogx.FromContext(ctx).Info("user registered", slog.Int64("user_id", id))
	return user.Profile(), nil
}

// Profile returns the authenticated user.
func (s *AuthService) Profile(ctx context.Context, id *Identity) (domain.User, error) {
	if id == nil {
		return domain.User{}, apperr.NotFound(MsgUserNotFound)
	}
	if id.User != nil {
		return *id.User, nil
	}

	user, err := s.Store.Users().GetUserByID(ctx, id.SubjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, apperr.NotFound(MsgUserNotFound)
		}
		return domain.User{}, apperr.System(err)
	}
	return user, nil
}

// HasPasswordExpired reports whether user must change their password. A
// password that was never changed counts as expired once a lifetime is set.
func (s *AuthService) HasPasswordExpired(user domain.User) bool {
	if s.PasswordLifetimeDays <= 0 {
		return false
	}
	if user.LastPasswordChangedAt == nil {
		return true
	}

	age := s.Clock.now().Sub(*user.LastPasswordChangedAt)
	return int(age/(24*time.Hour)) >= s.PasswordLifetimeDays
}
