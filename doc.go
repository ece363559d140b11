// Package securezip creates and reads zip archives, optionally wrapped in
// a password-protected SECUREZIP container using one of several reversible
// byte-transform algorithms.
//
// # Overview
//
// securezip builds standard zip archives from a file tree on any
// absfs.FileSystem and, when a password is set, wraps the archive bytes in
// a self-describing binary container. The container records which
// algorithm was used, so a reader only needs the password: the algorithm
// is auto-detected on decode.
//
// # Supported Algorithms
//
//   - xor: the 32-byte derived key cycled and XORed against the data
//   - hmac_sha256: a fresh 16-byte salt per call; keystream is
//     SHA-256(key || salt), cycled; salt is prefixed to the ciphertext
//   - aes_like: two sub-keys SHA-256(key || "key1") and
//     SHA-256(key || "key2"), both cycled and XORed
//   - double_xor: one XOR pass with the key, a second with the reversed key
//   - custom_hash: MD5, SHA-1 and SHA-256 digests of the key, all cycled
//     and XORed
//
// All five are keystream obfuscation, not authenticated encryption. They
// hide archive contents from casual inspection; they do not resist a
// determined attacker. Every algorithm except hmac_sha256 is deterministic
// and self-inverse.
//
// # Basic Usage
//
//	zipper, err := securezip.New(nil)
//	if err != nil {
//	    panic(err)
//	}
//
//	// Without a password CreateZip produces a plain zip file.
//	zipper.SetPassword("mypassword123", securezip.AlgorithmHMACSHA256)
//
//	if err := zipper.CreateZip("/data/reports", "/out/reports.zip", false); err != nil {
//	    panic(err)
//	}
//
//	// Later, with the same password (any configured algorithm works,
//	// the container announces the one that was used):
//	if err := zipper.ExtractZip("/out/reports.zip", "/restore"); err != nil {
//	    panic(err)
//	}
//
// # Container Format
//
// Encrypted archives use the following layout (little-endian):
//   - Magic (9 bytes): "SECUREZIP"
//   - Ciphertext length (4 bytes): uint32
//   - Key commitment (8 bytes): first 8 bytes of SHA-256(password)
//   - Token length (1 byte): uint8
//   - Algorithm token (variable): ASCII algorithm name
//   - Ciphertext (variable): transformed archive bytes
//
// The commitment lets a reader reject a wrong password before running any
// transform. DecryptArchive deliberately reports every failure (bad
// magic, truncated header, wrong password, corrupt payload) as the same
// error, so callers cannot be used as a password oracle. The underlying
// cause is available on the configured logger at debug level.
//
// # Concurrency
//
// A SecureZipper holds mutable password and algorithm state. Callers that
// need different passwords concurrently must use separate instances.
// Archives are buffered whole in memory; peak memory is proportional to
// archive size.
package securezip
