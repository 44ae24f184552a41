package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/passguard/internal/auth/apperr"
	"github.com/aussiebroadwan/passguard/internal/auth/domain"
	"github.com/aussiebroadwan/passguard/internal/auth/store"
)

const (
	MsgAuthUserNotFound  = "User Not Found"
	MsgAuthUserNotActive = "User Not Active"
)

// Identity is the authenticated caller of a single request.
type Identity struct {
	Token     string
	SubjectID int64
	Username  string

	// User is the record loaded while authenticating, kept so handlers in
	// the same request do not look it up again.
	User *domain.User
}

type identityKey struct{}

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the request identity, or nil for anonymous
// requests.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// Authenticator resolves a bearer token to an Identity.
type Authenticator struct {
	Tokens *TokenService
	Users  func() store.Users
}

// NewAuthenticator builds an Authenticator over st.
func NewAuthenticator(tokens *TokenService, st store.Store) *Authenticator {
	return &Authenticator{Tokens: tokens, Users: st.Users}
}

// Authenticate validates token and loads its user. Every failure is an
// Unauthorized *apperr.Error; faults outside the taxonomy carry
// CodeAuthFailed and the flattened cause.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Identity, error) {
	v := a.Tokens.Validate(ctx, token)
	if !v.Succeeded {
		return nil, apperr.Unauthorized(strings.Join(v.Errors(), "; "))
	}

	// Subjects that are not user ids name nobody.
	if v.Payload.SubjectID == 0 {
		return nil, apperr.Unauthorized(MsgAuthUserNotFound)
	}

	user, err := a.Users().GetUserByID(ctx, v.Payload.SubjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Unauthorized(MsgAuthUserNotFound)
		}
		return nil, apperr.Unauthorized(apperr.Flatten(err)).WithCode(apperr.CodeAuthFailed)
	}
	if !user.Active {
		return nil, apperr.Unauthorized(MsgAuthUserNotActive)
	}

	return &Identity{
		Token:     token,
		SubjectID: user.ID,
		Username:  user.Username,
		User:      &user,
	}, nil
}

// Subject is the token subject for the identity.
func (id *Identity) Subject() string {
	return strconv.FormatInt(id.SubjectID, 10)
}
