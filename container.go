package securezip

import (
	"bytes"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const (
	// Magic identifies SECUREZIP containers.
	Magic = "SECUREZIP"

	// MagicSize is the length of the magic tag in bytes.
	MagicSize = len(Magic)

	// MinContainerSize is the smallest possible container: magic,
	// length, commitment and token length, with an empty token and
	// empty ciphertext.
	MinContainerSize = MagicSize + 4 + CommitmentSize + 1
)

// Header represents the framing of a SECUREZIP container. The ciphertext
// itself follows the header immediately.
type Header struct {
	Length     uint32               // Ciphertext length in bytes
	Commitment [CommitmentSize]byte // First 8 bytes of SHA-256(password)
	Token      string               // ASCII algorithm token
}

// newHeader creates a header for the given ciphertext and parameters.
func newHeader(ciphertext []byte, alg Algorithm, password string) *Header {
	return &Header{
		Length:     uint32(len(ciphertext)),
		Commitment: commitment(password),
		Token:      alg.String(),
	}
}

// Size returns the encoded size of the header in bytes.
func (h *Header) Size() int {
	return MinContainerSize + len(h.Token)
}

// WriteTo writes the header to the given writer.
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	if len(h.Token) > 255 {
		return 0, fmt.Errorf("algorithm token too long: %d bytes", len(h.Token))
	}

	buf := new(bytes.Buffer)

	if _, err := buf.WriteString(Magic); err != nil {
		return 0, fmt.Errorf("failed to write magic: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, h.Length); err != nil {
		return 0, fmt.Errorf("failed to write length: %w", err)
	}
	if _, err := buf.Write(h.Commitment[:]); err != nil {
		return 0, fmt.Errorf("failed to write commitment: %w", err)
	}
	if err := buf.WriteByte(uint8(len(h.Token))); err != nil {
		return 0, fmt.Errorf("failed to write token length: %w", err)
	}
	if _, err := buf.WriteString(h.Token); err != nil {
		return 0, fmt.Errorf("failed to write token: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// ReadFrom reads the header from the given reader. It fails with
// ErrNotContainer when the magic tag is absent and with a FormatError
// when the header is truncated.
func (h *Header) ReadFrom(r io.Reader) (int64, error) {
	var totalRead int64

	magic := make([]byte, MagicSize)
	n, err := io.ReadFull(r, magic)
	totalRead += int64(n)
	if err != nil {
		return totalRead, NewFormatError(totalRead, "failed to read magic", ErrNotContainer)
	}
	if string(magic) != Magic {
		return totalRead, NewFormatError(0, "bad magic tag", ErrNotContainer)
	}

	if err := binary.Read(r, binary.LittleEndian, &h.Length); err != nil {
		return totalRead, NewFormatError(totalRead, "failed to read length", err)
	}
	totalRead += 4

	n, err = io.ReadFull(r, h.Commitment[:])
	totalRead += int64(n)
	if err != nil {
		return totalRead, NewFormatError(totalRead, "failed to read commitment", err)
	}

	var tokenLen uint8
	if err := binary.Read(r, binary.LittleEndian, &tokenLen); err != nil {
		return totalRead, NewFormatError(totalRead, "failed to read token length", err)
	}
	totalRead += 1

	token := make([]byte, tokenLen)
	n, err = io.ReadFull(r, token)
	totalRead += int64(n)
	if err != nil {
		return totalRead, NewFormatError(totalRead, "failed to read token", err)
	}
	h.Token = string(token)

	return totalRead, nil
}

// Container is the parsed form of a SECUREZIP container.
type Container struct {
	// Algorithm is the resolved transform: the token's algorithm when
	// recognized, the caller's fallback otherwise.
	Algorithm Algorithm

	// Token is the raw algorithm token from the header.
	Token string

	// Payload is the ciphertext.
	Payload []byte
}

// Recognized reports whether the header token named a supported
// algorithm. When false, Algorithm holds the caller's fallback.
func (c *Container) Recognized() bool {
	return c.Token == c.Algorithm.String()
}

// checkCiphertextSize rejects ciphertext that cannot be described by the
// header's uint32 length field. Truncating the length would make decode
// return a wrong-sized payload with no error.
func checkCiphertextSize(n int64) error {
	if n > math.MaxUint32 {
		return &ConfigurationError{
			Field:   "ciphertext",
			Value:   n,
			Message: fmt.Sprintf("ciphertext too large for container format: %d bytes exceeds %d", n, uint32(math.MaxUint32)),
		}
	}
	return nil
}

// EncodeContainer frames ciphertext produced by the given algorithm into
// container bytes for the given password. Ciphertext larger than 4 GiB
// minus one byte cannot be framed and is rejected.
func EncodeContainer(ciphertext []byte, alg Algorithm, password string) ([]byte, error) {
	if err := checkCiphertextSize(int64(len(ciphertext))); err != nil {
		return nil, err
	}

	header := newHeader(ciphertext, alg, password)

	buf := bytes.NewBuffer(make([]byte, 0, header.Size()+len(ciphertext)))
	if _, err := header.WriteTo(buf); err != nil {
		return nil, err
	}
	if _, err := buf.Write(ciphertext); err != nil {
		return nil, fmt.Errorf("failed to write ciphertext: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeContainer parses container bytes and verifies the password
// commitment before any transform runs. A mismatched commitment yields
// an AuthenticationError. When the header token is not a supported
// algorithm, the container resolves to the fallback algorithm instead of
// failing; callers can detect this through Recognized.
func DecodeContainer(data []byte, password string, fallback Algorithm) (*Container, error) {
	r := bytes.NewReader(data)

	var header Header
	if _, err := header.ReadFrom(r); err != nil {
		return nil, err
	}

	expected := commitment(password)
	if subtle.ConstantTimeCompare(header.Commitment[:], expected[:]) != 1 {
		return nil, NewAuthenticationError("stored commitment does not match password", ErrPasswordMismatch)
	}

	// Bounds check before allocating: the length field is untrusted
	// input and may claim up to 4 GiB.
	if int64(header.Length) > int64(r.Len()) {
		return nil, NewFormatError(int64(len(data)-r.Len()), "ciphertext shorter than header length", io.ErrUnexpectedEOF)
	}

	payload := make([]byte, header.Length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, NewFormatError(int64(len(data)-r.Len()), "ciphertext shorter than header length", err)
	}

	alg, err := ParseAlgorithm(header.Token)
	if err != nil {
		// Recoverable: the container stays readable with the caller's
		// configured algorithm.
		alg = fallback
	}

	return &Container{
		Algorithm: alg,
		Token:     header.Token,
		Payload:   payload,
	}, nil
}

// IsContainer reports whether data starts with the SECUREZIP magic tag.
// It needs no password, so callers can branch between plain-archive and
// encrypted-container handling before touching credentials.
func IsContainer(data []byte) bool {
	return bytes.HasPrefix(data, []byte(Magic))
}
