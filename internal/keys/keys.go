// Package keys implements the API-key credential subsystem: secret
// generation, one-way digests, and the store facade that owns every state
// transition on credential records.
package keys

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// Prefix is the recognizable literal every secret starts with.
const Prefix = "wp_"

// secretBytes is the entropy behind each secret. 24 bytes of CSPRNG output
// encode to 32 base64url characters.
const secretBytes = 24

// displayPrefixLen is how many leading characters of the secret are kept
// for display: "wp_" plus 8 characters of the encoded secret.
const displayPrefixLen = 11

// Generate produces a new secret: "wp_" + base64url(24 random bytes, no
// padding). The random source is crypto/rand; if it fails the system cannot
// safely issue credentials and the error is fatal to the operation.
func Generate() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return Prefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// DisplayPrefix returns the first 11 characters of a secret followed by an
// ellipsis marker, e.g. "wp_abc12345...". Eight visible characters of a
// 32-character secret leave the remaining entropy untouched; the prefix is
// for identification only and cannot be reversed into the secret.
func DisplayPrefix(secret string) string {
	if len(secret) <= displayPrefixLen {
		return secret + "..."
	}
	return secret[:displayPrefixLen] + "..."
}

// Digest returns the hex-encoded SHA-256 digest of a secret. It is the
// storage and lookup form of the secret; the raw value is never persisted.
// No salt or KDF: the input is 24 bytes of CSPRNG output, not a password,
// so precomputation attacks are already infeasible and lookup-by-digest
// requires determinism.
func Digest(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}

// wellFormed reports whether a presented token even resembles a secret.
// Used to fail closed before touching the store; callers must not expose
// the distinction between malformed and unknown.
func wellFormed(secret string) bool {
	return strings.HasPrefix(secret, Prefix) && len(secret) > len(Prefix)
}
