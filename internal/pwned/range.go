package pwned

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

const (
	// PrefixLen is the number of leading hash characters sent to the
	// provider; the rest never leaves the process.
	PrefixLen = 5

	// SuffixLen is the remainder of the 40-character SHA-1 hex digest.
	SuffixLen = 35
)

// Range splits the uppercase SHA-1 hex digest of password into the
// 5-character prefix used for the k-anonymity range query and the
// 35-character suffix matched locally against the provider's response.
// The full hash and the password itself are never transmitted or logged.
func Range(password string) (prefix, suffix string) {
	sum := sha1.Sum([]byte(password))
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))
	return digest[:PrefixLen], digest[PrefixLen:]
}
