package securezip

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
)

// Transform is a reversible byte transform keyed by the derived key.
// Every implementation XORs a keystream against the input; none provide
// authenticated encryption. The key must be non-empty; transforms
// obtained through NewTransform reject an empty key with an error.
type Transform interface {
	// Encode transforms plaintext into ciphertext.
	Encode(key, plaintext []byte) ([]byte, error)

	// Decode recovers plaintext from ciphertext. For self-inverse
	// transforms this is the same operation as Encode.
	Decode(key, ciphertext []byte) ([]byte, error)
}

// transforms is the single dispatch table mapping algorithms to their
// implementations. New variants register here, not in parallel switches.
var transforms = map[Algorithm]Transform{
	AlgorithmXOR:        xorTransform{},
	AlgorithmHMACSHA256: hmacSHA256Transform{},
	AlgorithmAESLike:    aesLikeTransform{},
	AlgorithmDoubleXOR:  doubleXORTransform{},
	AlgorithmCustomHash: customHashTransform{},
}

// NewTransform returns the transform for the given algorithm.
func NewTransform(alg Algorithm) (Transform, error) {
	t, ok := transforms[alg]
	if !ok {
		return nil, &UnknownAlgorithmError{Token: alg.String()}
	}
	return keyedTransform{inner: t}, nil
}

// keyedTransform enforces the non-empty-key contract for every
// algorithm. The keystream loops index with i % len(key)-derived sizes
// and would panic on an empty key.
type keyedTransform struct {
	inner Transform
}

func (t keyedTransform) Encode(key, plaintext []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, &ConfigurationError{Field: "key", Message: "key cannot be empty"}
	}
	return t.inner.Encode(key, plaintext)
}

func (t keyedTransform) Decode(key, ciphertext []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, &ConfigurationError{Field: "key", Message: "key cannot be empty"}
	}
	return t.inner.Decode(key, ciphertext)
}

// xorKeystream XORs data against keystream cycled with ks[i % len(ks)].
func xorKeystream(data, keystream []byte) []byte {
	out := make([]byte, len(data))
	n := len(keystream)
	for i, b := range data {
		out[i] = b ^ keystream[i%n]
	}
	return out
}

// reverseBytes returns a reversed copy of b.
func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

// xorTransform cycles the key itself as the keystream. Self-inverse.
type xorTransform struct{}

func (xorTransform) Encode(key, plaintext []byte) ([]byte, error) {
	return xorKeystream(plaintext, key), nil
}

func (xorTransform) Decode(key, ciphertext []byte) ([]byte, error) {
	return xorKeystream(ciphertext, key), nil
}

// hmacSHA256Transform derives a keystream from the key and a fresh
// random salt. The salt is prefixed to the ciphertext, so this is the
// only transform that needs a dedicated Decode and the only one whose
// output differs between calls.
type hmacSHA256Transform struct{}

func (hmacSHA256Transform) Encode(key, plaintext []byte) ([]byte, error) {
	salt, err := newSalt()
	if err != nil {
		return nil, err
	}

	keystream := sha256.Sum256(append(append([]byte{}, key...), salt...))

	out := make([]byte, 0, saltSize+len(plaintext))
	out = append(out, salt...)
	out = append(out, xorKeystream(plaintext, keystream[:])...)
	return out, nil
}

func (hmacSHA256Transform) Decode(key, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < saltSize {
		return nil, fmt.Errorf("%w: missing %d-byte salt", ErrInvalidCiphertext, saltSize)
	}

	salt := ciphertext[:saltSize]
	keystream := sha256.Sum256(append(append([]byte{}, key...), salt...))

	return xorKeystream(ciphertext[saltSize:], keystream[:]), nil
}

// aesLikeTransform XORs two SHA-256 derived sub-keys against the data.
// Self-inverse.
type aesLikeTransform struct{}

func (aesLikeTransform) apply(key, data []byte) []byte {
	k1 := sha256.Sum256(append(append([]byte{}, key...), []byte("key1")...))
	k2 := sha256.Sum256(append(append([]byte{}, key...), []byte("key2")...))

	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ k1[i%len(k1)] ^ k2[i%len(k2)]
	}
	return out
}

func (t aesLikeTransform) Encode(key, plaintext []byte) ([]byte, error) {
	return t.apply(key, plaintext), nil
}

func (t aesLikeTransform) Decode(key, ciphertext []byte) ([]byte, error) {
	return t.apply(key, ciphertext), nil
}

// doubleXORTransform runs one XOR pass with the key and a second with
// the reversed key, in that order for both directions. Self-inverse.
type doubleXORTransform struct{}

func (doubleXORTransform) apply(key, data []byte) []byte {
	pass1 := xorKeystream(data, key)
	return xorKeystream(pass1, reverseBytes(key))
}

func (t doubleXORTransform) Encode(key, plaintext []byte) ([]byte, error) {
	return t.apply(key, plaintext), nil
}

func (t doubleXORTransform) Decode(key, ciphertext []byte) ([]byte, error) {
	return t.apply(key, ciphertext), nil
}

// customHashTransform XORs MD5, SHA-1 and SHA-256 digests of the key
// against the data, each cycled independently. Self-inverse.
type customHashTransform struct{}

func (customHashTransform) apply(key, data []byte) []byte {
	md5Key := md5.Sum(key)
	sha1Key := sha1.Sum(key)
	sha256Key := sha256.Sum256(key)

	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ md5Key[i%len(md5Key)] ^ sha1Key[i%len(sha1Key)] ^ sha256Key[i%len(sha256Key)]
	}
	return out
}

func (t customHashTransform) Encode(key, plaintext []byte) ([]byte, error) {
	return t.apply(key, plaintext), nil
}

func (t customHashTransform) Decode(key, ciphertext []byte) ([]byte, error) {
	return t.apply(key, ciphertext), nil
}
