// Package fingerprint derives content digests used to deduplicate source
// questions independently of their identifiers.
//
// Two texts share a fingerprint when they are equal after normalization:
// leading and trailing whitespace is removed and every internal run of
// whitespace (spaces, tabs, newlines) collapses to a single space. Case and
// punctuation are significant.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Size is the length of a fingerprint in hex characters
const Size = sha256.Size * 2

// Normalize returns the canonical form of text that is hashed
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Of returns the lower-case hex SHA-256 of the normalized text
func Of(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}

// Valid reports whether s looks like a fingerprint produced by Of
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
