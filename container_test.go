package securezip

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestEncodeContainerLayout(t *testing.T) {
	ciphertext := []byte("pretend ciphertext")
	password := "mypassword123"

	data, err := EncodeContainer(ciphertext, AlgorithmHMACSHA256, password)
	if err != nil {
		t.Fatalf("EncodeContainer failed: %v", err)
	}

	token := "hmac_sha256"
	wantLen := MagicSize + 4 + CommitmentSize + 1 + len(token) + len(ciphertext)
	if len(data) != wantLen {
		t.Fatalf("container length = %d, want %d", len(data), wantLen)
	}

	if string(data[:9]) != "SECUREZIP" {
		t.Errorf("magic = %q, want %q", data[:9], "SECUREZIP")
	}

	if got := binary.LittleEndian.Uint32(data[9:13]); got != uint32(len(ciphertext)) {
		t.Errorf("length field = %d, want %d", got, len(ciphertext))
	}

	wantCommitment := sha256.Sum256([]byte(password))
	if !bytes.Equal(data[13:21], wantCommitment[:8]) {
		t.Error("commitment field is not the first 8 bytes of SHA-256(password)")
	}

	if data[21] != uint8(len(token)) {
		t.Errorf("token length = %d, want %d", data[21], len(token))
	}
	if string(data[22:22+len(token)]) != token {
		t.Errorf("token = %q, want %q", data[22:22+len(token)], token)
	}
	if !bytes.Equal(data[22+len(token):], ciphertext) {
		t.Error("ciphertext does not follow the header")
	}
}

func TestEncodeContainerCiphertextSizeLimit(t *testing.T) {
	// The header length field is a uint32; anything larger must be
	// rejected rather than silently truncated.
	if err := checkCiphertextSize(math.MaxUint32); err != nil {
		t.Errorf("size at the limit rejected: %v", err)
	}
	if err := checkCiphertextSize(math.MaxUint32 + 1); !IsConfigurationError(err) {
		t.Errorf("error = %v, want ConfigurationError", err)
	}
	if err := checkCiphertextSize(math.MaxUint32 + 100); !IsConfigurationError(err) {
		t.Errorf("error = %v, want ConfigurationError", err)
	}
	if err := checkCiphertextSize(0); err != nil {
		t.Errorf("empty ciphertext rejected: %v", err)
	}
}

func TestDecodeContainerOverstatedLength(t *testing.T) {
	// A header claiming far more ciphertext than the container carries
	// must fail the bounds check, not allocate the claimed size.
	buf := new(bytes.Buffer)
	buf.WriteString(Magic)
	binary.Write(buf, binary.LittleEndian, uint32(math.MaxUint32))
	c := commitment("pw")
	buf.Write(c[:])
	buf.WriteByte(uint8(len("xor")))
	buf.WriteString("xor")
	buf.Write([]byte("tiny"))

	_, err := DecodeContainer(buf.Bytes(), "pw", AlgorithmXOR)
	if !IsFormatError(err) {
		t.Errorf("error = %v, want FormatError", err)
	}
}

func TestDecodeContainerRoundTrip(t *testing.T) {
	ciphertext := []byte("payload bytes")

	for _, alg := range Algorithms() {
		t.Run(alg.String(), func(t *testing.T) {
			data, err := EncodeContainer(ciphertext, alg, "pw")
			if err != nil {
				t.Fatalf("EncodeContainer failed: %v", err)
			}

			container, err := DecodeContainer(data, "pw", AlgorithmXOR)
			if err != nil {
				t.Fatalf("DecodeContainer failed: %v", err)
			}

			if container.Algorithm != alg {
				t.Errorf("algorithm = %v, want %v", container.Algorithm, alg)
			}
			if !container.Recognized() {
				t.Error("token should be recognized")
			}
			if !bytes.Equal(container.Payload, ciphertext) {
				t.Error("payload mismatch")
			}
		})
	}
}

func TestDecodeContainerTokenOverridesFallback(t *testing.T) {
	data, err := EncodeContainer([]byte("x"), AlgorithmDoubleXOR, "pw")
	if err != nil {
		t.Fatalf("EncodeContainer failed: %v", err)
	}

	// The fallback differs from the stored token; the token wins.
	container, err := DecodeContainer(data, "pw", AlgorithmCustomHash)
	if err != nil {
		t.Fatalf("DecodeContainer failed: %v", err)
	}
	if container.Algorithm != AlgorithmDoubleXOR {
		t.Errorf("algorithm = %v, want %v", container.Algorithm, AlgorithmDoubleXOR)
	}
}

func TestDecodeContainerWrongPassword(t *testing.T) {
	data, err := EncodeContainer([]byte("x"), AlgorithmXOR, "correct")
	if err != nil {
		t.Fatalf("EncodeContainer failed: %v", err)
	}

	_, err = DecodeContainer(data, "wrong", AlgorithmXOR)
	if !IsAuthenticationError(err) {
		t.Errorf("error = %v, want AuthenticationError", err)
	}
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("error = %v, want ErrPasswordMismatch in chain", err)
	}
}

func TestDecodeContainerNotContainer(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"plain zip magic", []byte("PK\x03\x04 rest of a zip file")},
		{"empty", nil},
		{"short magic", []byte("SECURE")},
		{"wrong magic", []byte("SECUREZAP000000000000000000")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeContainer(tt.data, "pw", AlgorithmXOR)
			if !errors.Is(err, ErrNotContainer) {
				t.Errorf("error = %v, want ErrNotContainer in chain", err)
			}
		})
	}
}

func TestDecodeContainerTruncated(t *testing.T) {
	data, err := EncodeContainer([]byte("some ciphertext"), AlgorithmHMACSHA256, "pw")
	if err != nil {
		t.Fatalf("EncodeContainer failed: %v", err)
	}

	// Cut points inside the fixed header, inside the token and inside
	// the ciphertext.
	for _, cut := range []int{10, 15, 21, 23, len(data) - 1} {
		truncated := data[:cut]

		_, err := DecodeContainer(truncated, "pw", AlgorithmXOR)
		if err == nil {
			t.Errorf("cut at %d: expected error", cut)
			continue
		}
		if !IsFormatError(err) {
			t.Errorf("cut at %d: error = %v, want FormatError", cut, err)
		}
	}
}

func TestDecodeContainerUnknownTokenFallsBack(t *testing.T) {
	// Hand-build a container with an unsupported token.
	ciphertext := []byte("opaque")
	buf := new(bytes.Buffer)
	buf.WriteString(Magic)
	binary.Write(buf, binary.LittleEndian, uint32(len(ciphertext)))
	c := commitment("pw")
	buf.Write(c[:])
	buf.WriteByte(uint8(len("rot13")))
	buf.WriteString("rot13")
	buf.Write(ciphertext)

	container, err := DecodeContainer(buf.Bytes(), "pw", AlgorithmDoubleXOR)
	if err != nil {
		t.Fatalf("DecodeContainer failed: %v", err)
	}

	if container.Algorithm != AlgorithmDoubleXOR {
		t.Errorf("algorithm = %v, want fallback %v", container.Algorithm, AlgorithmDoubleXOR)
	}
	if container.Recognized() {
		t.Error("unknown token must not report as recognized")
	}
	if container.Token != "rot13" {
		t.Errorf("token = %q, want %q", container.Token, "rot13")
	}
	if !bytes.Equal(container.Payload, ciphertext) {
		t.Error("payload mismatch")
	}
}

func TestDecodeContainerChecksCommitmentBeforeToken(t *testing.T) {
	// Wrong password on a container with a garbage token: the
	// commitment mismatch must win, no fallback resolution happens.
	buf := new(bytes.Buffer)
	buf.WriteString(Magic)
	binary.Write(buf, binary.LittleEndian, uint32(0))
	c := commitment("correct")
	buf.Write(c[:])
	buf.WriteByte(uint8(len("rot13")))
	buf.WriteString("rot13")

	_, err := DecodeContainer(buf.Bytes(), "wrong", AlgorithmXOR)
	if !IsAuthenticationError(err) {
		t.Errorf("error = %v, want AuthenticationError", err)
	}
}

func TestIsContainer(t *testing.T) {
	data, err := EncodeContainer([]byte("x"), AlgorithmXOR, "pw")
	if err != nil {
		t.Fatalf("EncodeContainer failed: %v", err)
	}

	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"container", data, true},
		{"bare magic", []byte("SECUREZIP"), true},
		{"plain zip", []byte("PK\x03\x04"), false},
		{"empty", nil, false},
		{"partial magic", []byte("SECUREZI"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsContainer(tt.data); got != tt.want {
				t.Errorf("IsContainer = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHeaderWriteToReadFrom(t *testing.T) {
	header := newHeader([]byte("12345"), AlgorithmAESLike, "pw")

	buf := new(bytes.Buffer)
	n, err := header.WriteTo(buf)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if n != int64(header.Size()) {
		t.Errorf("WriteTo wrote %d bytes, Size() = %d", n, header.Size())
	}

	var read Header
	if _, err := read.ReadFrom(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("ReadFrom failed: %v", err)
	}

	if read.Length != 5 {
		t.Errorf("Length = %d, want 5", read.Length)
	}
	if read.Commitment != header.Commitment {
		t.Error("commitment mismatch after round trip")
	}
	if read.Token != "aes_like" {
		t.Errorf("Token = %q, want %q", read.Token, "aes_like")
	}
}
