package broadsheet

import (
	"time"
)

const (
	// MinUsernameLen is the minimum accepted username length.
	MinUsernameLen = 4
	// MinPasswordLen is the minimum accepted password length.
	MinPasswordLen = 8
)

// A User is identified by its username, which doubles as the natural key in
// the store. PasswordHash holds the bcrypt hash, never the plaintext, and is
// never projected into responses.
type User struct {
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

func NewUser(username string) *User {
	return &User{
		Username:  username,
		CreatedAt: NowFunc(),
	}
}

// ValidateNewUser checks the registration business rules.
func ValidateNewUser(username, password string) error {
	if len(username) < MinUsernameLen {
		return Validation("Username must be at least %d characters long.", MinUsernameLen)
	}

	return ValidatePassword(password)
}

// ValidatePassword checks the password business rule, shared between
// registration and password changes.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return Validation("Password must be at least %d characters long.", MinPasswordLen)
	}

	return nil
}
