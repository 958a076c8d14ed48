// Package crypto provides password hashing for account credentials.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost parameters. Raising them invalidates no stored hashes
// because the salt and parameters are fixed per deployment.
const (
	hashIters   uint32 = 3
	hashMemKiB  uint32 = 64 * 1024
	hashLanes   uint8  = 1
	hashLen     uint32 = 32
	SaltLen            = 16
)

// NewSalt returns a fresh per-user salt.
func NewSalt() ([]byte, error) {
	return RandBytes(SaltLen)
}

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// HashPassword derives the Argon2id hash of password under salt.
func HashPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, hashIters, hashMemKiB, hashLanes, hashLen)
}

// VerifyPassword reports whether password matches the stored hash.
// Comparison is constant time.
func VerifyPassword(password, salt, expected []byte) bool {
	return subtle.ConstantTimeCompare(HashPassword(password, salt), expected) == 1
}
