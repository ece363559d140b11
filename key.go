package securezip

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
)

const (
	// KeySize is the length of the derived key in bytes.
	KeySize = sha256.Size

	// CommitmentSize is the length of the password commitment stored in
	// the container header.
	CommitmentSize = 8

	// saltSize is the per-call salt length used by hmac_sha256.
	saltSize = 16
)

// deriveKey derives the 32-byte transform key from a password.
// Deterministic, no salt at this stage; individual algorithms add their
// own salting where they need it. Callers must only invoke this with a
// non-empty password.
func deriveKey(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return sum[:]
}

// commitment computes the short one-way value used to test password
// correctness. It hashes the password directly, not the derived key, so
// it is identical across algorithm choices for a fixed password.
func commitment(password string) [CommitmentSize]byte {
	sum := sha256.Sum256([]byte(password))
	var c [CommitmentSize]byte
	copy(c[:], sum[:CommitmentSize])
	return c
}

// newSalt generates a random per-call salt.
func newSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}
