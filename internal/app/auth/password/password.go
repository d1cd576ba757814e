// Package password derives and checks storable password digests. The stored
// value is hex(argon2id(password ‖ salt)) with the salt kept as a separate
// column next to the digest.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"

	customErrors "github.com/enquestor/dreamer/internal/domain/auth/errors"
	"golang.org/x/crypto/argon2"
)

const saltBytes = 16

// argon2id parameters, sized for an interactive login path.
const (
	argonTime    = 2
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
	argonKeyLen  = 32
)

// GenerateSalt returns a fresh hex-encoded random salt.
func GenerateSalt() (string, error) {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", customErrors.WrapInternal(err, "generate salt")
	}
	return hex.EncodeToString(buf), nil
}

// Digest computes the storable digest for a password and salt. Deterministic:
// the same inputs always produce the same digest.
func Digest(password, salt string) string {
	key := argon2.IDKey([]byte(password), []byte(salt), argonTime, argonMemory, argonThreads, argonKeyLen)
	return hex.EncodeToString(key)
}

// Verify recomputes the digest and compares it against the stored one in
// constant time.
func Verify(password, salt, storedDigest string) bool {
	digest := Digest(password, salt)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(storedDigest)) == 1
}
