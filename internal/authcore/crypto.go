// Package authcore holds the low-level, on-disk-contract primitives the
// auth service is built on: salt/token generation, the fixed
// password-hashing scheme, and the bearer-token packing codec. None of
// this depends on storage or transport so it can be unit tested in
// isolation and reused by the schema bootstrap (cmd/migrate) when seeding
// the origin user.
package authcore

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"github.com/google/uuid"
)

const (
	saltSize  = 16
	tokenSize = 32
)

// GenerateSalt draws 16 cryptographically-secure random bytes.
func GenerateSalt() ([saltSize]byte, error) {
	var salt [saltSize]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return salt, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// GenerateSessionToken draws 32 cryptographically-secure random bytes,
// used for both access and refresh tokens.
func GenerateSessionToken() ([tokenSize]byte, error) {
	var token [tokenSize]byte
	if _, err := rand.Read(token[:]); err != nil {
		return token, fmt.Errorf("generate session token: %w", err)
	}
	return token, nil
}

// HashPassword computes SHA-256(password || salt). The concatenation order
// is part of the on-disk contract (SPEC_FULL.md §4.1) and must not change.
func HashPassword(password []byte, salt [saltSize]byte) [sha256.Size]byte {
	h := sha256.New()
	h.Write(password)
	h.Write(salt[:])
	var out [sha256.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// ConstantTimeEqual compares two byte slices in constant time relative to
// their length; it returns false immediately (but still without leaking
// timing on content) when lengths differ. Required for access_token,
// refresh_token and password_hash comparisons (SPEC_FULL.md §5).
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// PackToken concatenates a 16-byte session id with the raw token bytes,
// the wire representation before base64 encoding (SPEC_FULL.md §4.1).
func PackToken(sessionID uuid.UUID, token []byte) []byte {
	out := make([]byte, 0, 16+len(token))
	idBytes := sessionID // [16]byte via uuid.UUID
	out = append(out, idBytes[:]...)
	out = append(out, token...)
	return out
}

// UnpackToken splits a raw (already base64-decoded) packed token back into
// its session id and token bytes. It fails if the buffer is shorter than
// the 16-byte session id.
func UnpackToken(raw []byte) (uuid.UUID, []byte, error) {
	if len(raw) < 16 {
		return uuid.UUID{}, nil, fmt.Errorf("packed token too short: %d bytes", len(raw))
	}
	var id uuid.UUID
	copy(id[:], raw[:16])
	return id, raw[16:], nil
}
