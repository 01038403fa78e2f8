package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	mrand "math/rand/v2"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const randomBytes = 32

// GenerateSessionToken produces an opaque join token from two independent
// sources of cryptographic randomness: 32 bytes from crypto/rand plus a
// random UUID, hex-encoded to 96 characters. Collision probability is
// negligible at any realistic session volume.
func GenerateSessionToken() (string, error) {
	buf := make([]byte, randomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	id := strings.ReplaceAll(uuid.New().String(), "-", "")

	return hex.EncodeToString(buf) + id, nil
}

// HashToken produces a one-way verifier for at-rest storage of the token.
// The token is digested first so its length stays inside bcrypt's input
// limit.
func HashToken(token string) (string, error) {
	digest := sha256.Sum256([]byte(token))
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(digest[:])), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(hash), nil
}

// VerifyTokenHash checks a raw token against a stored verifier
func VerifyTokenHash(token, hash string) bool {
	digest := sha256.Sum256([]byte(token))
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(hex.EncodeToString(digest[:]))) == nil
}

// GenerateSessionCode returns a 6-digit code for human display. It is not
// unique and must never be used as a lookup key or security token.
func GenerateSessionCode() string {
	return fmt.Sprintf("%06d", mrand.IntN(1000000))
}
