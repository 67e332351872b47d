package cryptox

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Fingerprint returns the hex BLAKE3-256 digest of b. It is used for public
// key fingerprints and master key ids.
func Fingerprint(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}
