package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest turns a password into a comparable one-way hash. It is injected so
// tests can substitute failing or canned implementations.
type Digest interface {
	Sum(password string) (string, error)
}

// SHA256Digest hashes passwords with SHA-256 and hex-encodes the result.
// Hex comparison of digests is sufficient here; this is a shared-secret gate,
// not a credential store.
type SHA256Digest struct{}

func (SHA256Digest) Sum(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}
