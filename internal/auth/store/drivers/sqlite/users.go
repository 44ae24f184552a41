package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/passguard/internal/auth/domain"
	"github.com/jmoiron/sqlx"
)

type usersRepo struct {
	q sqlx.ExtContext
}

type userRow struct {
	ID                    int64          `db:"id"`
	Username              string         `db:"username"`
	FirstName             string         `db:"first_name"`
	LastName              string         `db:"last_name"`
	PasswordHash          string         `db:"password_hash"`
	LastPasswordChangedAt sql.NullTime   `db:"last_password_changed_at"`
	Active                bool           `db:"active"`
	LastLoginAt           sql.NullTime   `db:"last_login_at"`
	FailedLoginAttempts   int            `db:"failed_login_attempts"`
	LockedUntil           sql.NullTime   `db:"locked_until"`
	RefreshToken          sql.NullString `db:"refresh_token"`
	CreatedAt             time.Time      `db:"created_at"`
	UpdatedAt             sql.NullTime   `db:"updated_at"`
}

const userColumns = `id, username, first_name, last_name, password_hash,
	last_password_changed_at, active, last_login_at, failed_login_attempts,
	locked_until, refresh_token, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *usersRepo) GetUserByRefreshToken(ctx context.Context, token string) (domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE refresh_token = ? LIMIT 1`, token)
}

func (r *usersRepo) get(ctx context.Context, query string, arg any) (domain.User, error) {
	var row userRow
	if err := sqlx.GetContext(ctx, r.q, &row, query, arg); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	row := toRow(u)
	row.CreatedAt = time.Now().UTC()

	res, err := sqlx.NamedExecContext(ctx, r.q, `
		INSERT INTO users (
			username, first_name, last_name, password_hash,
			last_password_changed_at, active, last_login_at,
			failed_login_attempts, locked_until, refresh_token, created_at
		) VALUES (
			:username, :first_name, :last_name, :password_hash,
			:last_password_changed_at, :active, :last_login_at,
			:failed_login_attempts, :locked_until, :refresh_token, :created_at
		)`, row)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return res.LastInsertId()
}

func (r *usersRepo) UpdateUser(ctx context.Context, u domain.User) error {
	row := toRow(u)
	row.UpdatedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	res, err := sqlx.NamedExecContext(ctx, r.q, `
		UPDATE users SET
			username = :username,
			first_name = :first_name,
			last_name = :last_name,
			password_hash = :password_hash,
			last_password_changed_at = :last_password_changed_at,
			active = :active,
			last_login_at = :last_login_at,
			failed_login_attempts = :failed_login_attempts,
			locked_until = :locked_until,
			refresh_token = :refresh_token,
			updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return mapConstraint(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}

func mapUser(row userRow) domain.User {
	return domain.User{
		ID:                    row.ID,
		Username:              row.Username,
		FirstName:             row.FirstName,
		LastName:              row.LastName,
		PasswordHash:          row.PasswordHash,
		LastPasswordChangedAt: mapNullTimePtr(row.LastPasswordChangedAt),
		Active:                row.Active,
		LastLoginAt:           mapNullTimePtr(row.LastLoginAt),
		FailedLoginAttempts:   row.FailedLoginAttempts,
		LockedUntil:           mapNullTimePtr(row.LockedUntil),
		RefreshToken:          mapNullStringPtr(row.RefreshToken),
		CreatedAt:             row.CreatedAt.UTC(),
		UpdatedAt:             mapNullTimePtr(row.UpdatedAt),
	}
}

func toRow(u domain.User) userRow {
	return userRow{
		ID:                    u.ID,
		Username:              u.Username,
		FirstName:             u.FirstName,
		LastName:              u.LastName,
		PasswordHash:          u.PasswordHash,
		LastPasswordChangedAt: mapOptionalTime(u.LastPasswordChangedAt),
		Active:                u.Active,
		LastLoginAt:           mapOptionalTime(u.LastLoginAt),
		FailedLoginAttempts:   u.FailedLoginAttempts,
		LockedUntil:           mapOptionalTime(u.LockedUntil),
		RefreshToken:          mapOptionalString(u.RefreshToken),
		CreatedAt:             u.CreatedAt,
	}
}

func (r *usersRepo) ClearExpiredLockouts(ctx context.Context, now time.Time) (int64, error) {
	var rows []struct {
		ID          int64        `db:"id"`
		LockedUntil sql.NullTime `db:"locked_until"`
	}
	if err := sqlx.SelectContext(ctx, r.q, &rows,
		`SELECT id, locked_until FROM users WHERE locked_until IS NOT NULL`); err != nil {
		return 0, err
	}

	var cleared int64
	for _, row := range rows {
		// A lock still holds at the instant it ends.
		if !row.LockedUntil.Time.Before(now) {
			continue
		}
		// Matching the value we read leaves a lock set since then alone.
		res, err := r.q.ExecContext(ctx,
			`UPDATE users SET locked_until = NULL WHERE id = ? AND locked_until = ?`,
			row.ID, row.LockedUntil.Time)
		if err != nil {
			return cleared, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return cleared, err
		}
		cleared += n
	}
	return cleared, nil
}
