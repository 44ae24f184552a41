package service

import (
	"time"

	"github.com/aussiebroadwan/passguard/internal/auth/domain"
)

// LockoutTracker applies the failed-login policy to a user record. It only
// mutates the record; persisting it is the caller's job.
type LockoutTracker struct {
	// Threshold is the failure count that trips a lock. Zero disables
	// locking, failures are still counted.
	Threshold int
	Duration  time.Duration
	Clock     Clock
}

// IsLockedOut reports whether u is locked. The lock still holds at the exact
// instant it expires.
func (t *LockoutTracker) IsLockedOut(u domain.User) bool {
	if u.LockedUntil == nil {
		return false
	}
	return !t.Clock.now().After(*u.LockedUntil)
}

// RecordFailure counts a failed login and reports whether it tripped the
// lock. Tripping the lock resets the counter.
func (t *LockoutTracker) RecordFailure(u *domain.User) bool {
	u.FailedLoginAttempts++
	if t.Threshold <= 0 || u.FailedLoginAttempts < t.Threshold {
		return false
	}

	until := t.Clock.now().Add(t.Duration)
	u.LockedUntil = &until
	u.FailedLoginAttempts = 0
	return true
}

// RecordSuccess clears failures and any lock and stamps the login time.
func (t *LockoutTracker) RecordSuccess(u *domain.User) {
	now := t.Clock.now()
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastLoginAt = &now
}
