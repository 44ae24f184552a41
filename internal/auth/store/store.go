package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/passguard/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement it and
// hand out sub-repositories, which keeps transactions explicit: a repository
// obtained from a Tx only ever runs inside that Tx.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id int64) (domain.User, error)

	// GetUserByUsername matches the username exactly.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByRefreshToken finds the user currently holding token.
	GetUserByRefreshToken(ctx context.Context, token string) (domain.User, error)

	// CreateUser inserts u and returns its generated id. created_at is
	// stamped by the store. Returns ErrAlreadyExists on a duplicate username.
	CreateUser(ctx context.Context, u domain.User) (int64, error)

	// UpdateUser writes every mutable column of u in one statement and
	// stamps updated_at.
	UpdateUser(ctx context.Context, u domain.User) error

	// ClearExpiredLockouts nulls locked_until on every user whose lock
	// ended strictly before now and returns how many rows changed. A row
	// whose lock changed after it was read is left untouched.
	ClearExpiredLockouts(ctx context.Context, now time.Time) (int64, error)
}
