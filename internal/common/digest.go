package common

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sha256Hex digests a string, typically a refresh token or replay key.
func Sha256Hex(input string) string {
	return Sha256HexBytes([]byte(input))
}

// Sha256HexBytes digests a raw payload without an intermediate string copy.
func Sha256HexBytes(input []byte) string {
	sum := sha256.Sum256(input)
	return hex.EncodeToString(sum[:])
}
