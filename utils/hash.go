package utils

import "crypto/sha256"

// HashIPAddress derives the pseudonymous visitor digest from a raw client
// address. SHA-256 is one-way and deterministic: the same address always
// yields the same digest, and no raw address is ever stored. This is the
// privacy boundary of the analytics system.
func HashIPAddress(rawAddress string) []byte {
	sum := sha256.Sum256([]byte(rawAddress))
	return sum[:]
}
