package nodeset

import (
	"crypto/sha256"
	"encoding/hex"
)

// Checksum returns the hex SHA-256 digest of text. It depends only on the
// content, so identical files under different names share a checksum.
func Checksum(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
