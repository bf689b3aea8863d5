package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// TokenByteLength is the entropy of a generated token in bytes.
const TokenByteLength = 32

// GenerateToken generates a cryptographically secure bearer token and
// its storable digest. The raw token is shown to the client once; only
// the digest is persisted.
func GenerateToken() (token string, digest string, err error) {
	b := make([]byte, TokenByteLength)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	token = base64.URLEncoding.EncodeToString(b)
	return token, DigestToken(token), nil
}

// DigestToken returns the hex-encoded SHA-256 digest of a token.
func DigestToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
