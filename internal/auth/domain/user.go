package domain

import "time"

type User struct {
	ID                    int64
	Username              string
	FirstName             string
	LastName              string
	PasswordHash          string     // argon2 encoded
	LastPasswordChangedAt *time.Time // nil means never changed
	Active                bool
	LastLoginAt           *time.Time
	FailedLoginAttempts   int
	LockedUntil           *time.Time
	RefreshToken          *string
	CreatedAt             time.Time
	UpdatedAt             *time.Time
}

// UserProfile is the public view of a user.
type UserProfile struct {
	ID          int64
	Username    string
	FirstName   string
	LastName    string
	LastLoginAt *time.Time
}

// Profile projects u onto its public view.
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:          u.ID,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		LastLoginAt: u.LastLoginAt,
	}
}
