package securezip

import (
	"log/slog"

	"github.com/absfs/absfs"
)

// Algorithm identifies the byte-transform used to obfuscate an archive.
type Algorithm uint8

const (
	// AlgorithmXOR cycles the derived key and XORs it against the data.
	// Deterministic and self-inverse. This is the default.
	AlgorithmXOR Algorithm = iota
	// AlgorithmHMACSHA256 derives a keystream from the key and a fresh
	// random salt; the salt is prefixed to the ciphertext.
	AlgorithmHMACSHA256
	// AlgorithmAESLike XORs two SHA-256 derived sub-keys against the data.
	AlgorithmAESLike
	// AlgorithmDoubleXOR runs two XOR passes, the second with the key
	// reversed.
	AlgorithmDoubleXOR
	// AlgorithmCustomHash XORs MD5, SHA-1 and SHA-256 digests of the key
	// against the data.
	AlgorithmCustomHash
)

// String returns the ASCII token stored in the container header.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmXOR:
		return "xor"
	case AlgorithmHMACSHA256:
		return "hmac_sha256"
	case AlgorithmAESLike:
		return "aes_like"
	case AlgorithmDoubleXOR:
		return "double_xor"
	case AlgorithmCustomHash:
		return "custom_hash"
	default:
		return "unknown"
	}
}

// ParseAlgorithm maps a container token back to its Algorithm.
// Unrecognized tokens return an UnknownAlgorithmError.
func ParseAlgorithm(token string) (Algorithm, error) {
	switch token {
	case "xor":
		return AlgorithmXOR, nil
	case "hmac_sha256":
		return AlgorithmHMACSHA256, nil
	case "aes_like":
		return AlgorithmAESLike, nil
	case "double_xor":
		return AlgorithmDoubleXOR, nil
	case "custom_hash":
		return AlgorithmCustomHash, nil
	default:
		return AlgorithmXOR, &UnknownAlgorithmError{Token: token}
	}
}

// Algorithms returns all supported algorithms in wire-token order.
func Algorithms() []Algorithm {
	return []Algorithm{
		AlgorithmXOR,
		AlgorithmHMACSHA256,
		AlgorithmAESLike,
		AlgorithmDoubleXOR,
		AlgorithmCustomHash,
	}
}

const (
	// MinCompressionLevel disables deflate compression entirely.
	MinCompressionLevel = 0
	// MaxCompressionLevel is the strongest deflate setting.
	MaxCompressionLevel = 9
	// DefaultCompressionLevel balances speed and size.
	DefaultCompressionLevel = 6
)

// Config contains configuration for a SecureZipper.
type Config struct {
	// CompressionLevel is the deflate level (0-9) used when building
	// archives. Level 0 stores entries uncompressed. A nil Config uses
	// DefaultCompressionLevel.
	CompressionLevel int

	// FS is the filesystem sources are read from and outputs written to.
	// Defaults to the operating system filesystem.
	FS absfs.FileSystem

	// Logger receives diagnostics, including the suppressed causes of
	// uniform decode failures (at debug level). Defaults to a logger
	// that discards everything.
	Logger *slog.Logger
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.CompressionLevel < MinCompressionLevel || c.CompressionLevel > MaxCompressionLevel {
		return &ConfigurationError{
			Field:   "CompressionLevel",
			Value:   c.CompressionLevel,
			Message: "compression level must be between 0 and 9",
		}
	}
	return nil
}
