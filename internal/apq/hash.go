package apq

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashLength is the length of a hex encoded SHA-256 digest.
const HashLength = sha256.Size * 2

// HashOf returns the lowercase hex SHA-256 digest of text.
func HashOf(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether text hashes to expected. The comparison is exact;
// an uppercase digest does not match.
func Verify(text, expected string) bool {
	return HashOf(text) == expected
}

// ValidHash reports whether h has the shape of a digest produced by HashOf.
func ValidHash(h string) bool {
	if len(h) != HashLength {
		return false
	}
	for i := 0; i < len(h); i++ {
		c := h[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
