// Package sha256 provides SHA-256 hashing utilities.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// dirDigestLen is how many hex characters the image-directory key keeps.
const dirDigestLen = 16

// Hasher hashes byte slices to hex digests.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash hashes the input and returns a hex digest.
func (h *Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DirKey returns the truncated digest used as the directory name for a
// product's images, keyed by its source URL.
func (h *Hasher) DirKey(sourceURL string) string {
	return h.Hash([]byte(sourceURL))[:dirDigestLen]
}
