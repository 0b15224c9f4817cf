package security

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/matthewhartstonge/argon2"
)

var ErrEmptyPassword = errors.New("password must not be empty")

const encodedPrefix = "$argon2"

// HashPassword hashes the password with argon2id and returns the PHC-encoded hash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	argon := argon2.DefaultConfig()

	encoded, err := argon.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// VerifyPassword reports whether password matches the stored value.
// Stored values that are not argon2 encodings are legacy plaintext records and are
// compared in constant time.
func VerifyPassword(password, stored string) (bool, error) {
	if stored == "" {
		return false, nil
	}

	if !IsHashed(stored) {
		return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1, nil
	}

	return argon2.VerifyEncoded([]byte(password), []byte(stored))
}

// IsHashed reports whether stored is an argon2 encoded hash.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, encodedPrefix)
}
