// Package authentication provides the credential store and the token service:
// bcrypt password hashing on one side, stateless signed identity tokens on the
// other. Nothing in here touches the database; resolving a token subject to an
// actual user record is the caller's business.
package authentication

import (
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is a fixed work factor, high enough to make offline cracking
// expensive without making signups sluggish.
const bcryptCost = 12

// HashPassword computes a salted bcrypt hash of the plaintext. It only fails
// on platform-level hashing failure.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// CheckPassword reports whether plain matches the stored hash. It returns
// false for any mismatch, including an empty or malformed hash, and never
// errors out to the caller.
func CheckPassword(hash string, plain string) bool {
	if hash == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
