// Package sha256 fingerprints published datasets so consumers can tell whether
// a run changed anything.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher produces lower-case hex SHA-256 digests.
type Hasher struct{}

// New returns a Hasher.
func New() Hasher {
	return Hasher{}
}

// Hash returns the digest of data.
func (Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
