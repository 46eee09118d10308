package hasher

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/aidbridge/backend/domain"
)

// NewTokenHasher returns a domain.Hasher backed by SHA-256, used for verification tokens.
func NewTokenHasher() domain.Hasher { return sha256Hasher{} }

type sha256Hasher struct{}

func (h sha256Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
