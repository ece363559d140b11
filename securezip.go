package securezip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/absfs/absfs"
	"github.com/google/uuid"
)

// SecureZipper creates and reads zip archives, wrapping them in a
// SECUREZIP container when a password is set.
//
// A SecureZipper is not safe for concurrent use: SetPassword mutates
// instance state. Use one instance per password.
type SecureZipper struct {
	compressionLevel int
	fs               absfs.FileSystem
	logger           *slog.Logger

	password  string // empty = encryption disabled
	algorithm Algorithm
}

// New creates a SecureZipper. A nil config uses the OS filesystem, the
// default compression level and a logger that discards everything.
func New(config *Config) (*SecureZipper, error) {
	if config == nil {
		config = &Config{CompressionLevel: DefaultCompressionLevel}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	fsys := config.FS
	if fsys == nil {
		fsys = NewOSFS()
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &SecureZipper{
		compressionLevel: config.CompressionLevel,
		fs:               fsys,
		logger:           logger,
		algorithm:        AlgorithmXOR,
	}, nil
}

// SetPassword sets the encryption password and algorithm. An empty
// password clears all encryption state, which is a valid configuration:
// subsequent archives are plain zips. SetPassword always succeeds; an
// unregistered algorithm value falls back to AlgorithmXOR.
func (z *SecureZipper) SetPassword(password string, algorithm Algorithm) {
	if password == "" {
		z.password = ""
		z.algorithm = AlgorithmXOR
		z.logger.Info("encryption disabled")
		return
	}

	if _, ok := transforms[algorithm]; !ok {
		z.logger.Warn("unsupported algorithm, using xor",
			slog.String("algorithm", algorithm.String()))
		algorithm = AlgorithmXOR
	}

	z.password = password
	z.algorithm = algorithm
	z.logger.Info("encryption enabled", slog.String("algorithm", algorithm.String()))
}

// Encrypted reports whether a password is currently set.
func (z *SecureZipper) Encrypted() bool {
	return z.password != ""
}

// Algorithm returns the currently configured algorithm. It is only
// meaningful while a password is set.
func (z *SecureZipper) Algorithm() Algorithm {
	return z.algorithm
}

// EncryptArchive wraps plain archive bytes in a SECUREZIP container
// using the configured password and algorithm.
func (z *SecureZipper) EncryptArchive(plain []byte) ([]byte, error) {
	if !z.Encrypted() {
		return nil, &ConfigurationError{
			Field:   "password",
			Message: "password required for encryption",
			Err:     ErrPasswordNotSet,
		}
	}

	transform, err := NewTransform(z.algorithm)
	if err != nil {
		return nil, err
	}

	ciphertext, err := transform.Encode(deriveKey(z.password), plain)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt archive: %w", err)
	}

	return EncodeContainer(ciphertext, z.algorithm, z.password)
}

// DecryptArchive unwraps a SECUREZIP container and recovers the plain
// archive bytes. The algorithm recorded in the container overrides the
// configured one, so a reader only needs the right password.
//
// Every decode failure is reported as ErrCannotDecrypt: wrong passwords
// and corrupt containers are deliberately indistinguishable to callers.
// The specific cause is logged at debug level.
func (z *SecureZipper) DecryptArchive(data []byte) ([]byte, error) {
	if !z.Encrypted() {
		return nil, &ConfigurationError{
			Field:   "password",
			Message: "password required for decryption",
			Err:     ErrPasswordNotSet,
		}
	}

	container, err := DecodeContainer(data, z.password, z.algorithm)
	if err != nil {
		return nil, z.failDecode(err)
	}

	switch {
	case !container.Recognized():
		z.logger.Warn("unknown algorithm token, using configured algorithm",
			slog.String("token", container.Token),
			slog.String("algorithm", container.Algorithm.String()))
	case container.Algorithm != z.algorithm:
		z.logger.Info("detected container algorithm",
			slog.String("algorithm", container.Algorithm.String()))
	}

	transform, err := NewTransform(container.Algorithm)
	if err != nil {
		return nil, z.failDecode(err)
	}

	plain, err := transform.Decode(deriveKey(z.password), container.Payload)
	if err != nil {
		return nil, z.failDecode(err)
	}

	return plain, nil
}

// failDecode records the real cause and returns the uniform decode
// failure. The cause is intentionally not wrapped: errors.As probing
// must not reveal whether the password or the container was at fault.
func (z *SecureZipper) failDecode(cause error) error {
	z.logger.Debug("archive decode failed", slog.Any("cause", cause))
	return ErrCannotDecrypt
}

// IsEncryptedArchive reports whether data is a SECUREZIP container.
// Usable without a password.
func (z *SecureZipper) IsEncryptedArchive(data []byte) bool {
	return IsContainer(data)
}

// IsEncryptedFile reports whether the file at path starts with the
// SECUREZIP magic tag.
func (z *SecureZipper) IsEncryptedFile(path string) bool {
	f, err := z.fs.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	magic := make([]byte, MagicSize)
	if _, err := io.ReadFull(f, magic); err != nil {
		return false
	}
	return string(magic) == Magic
}

// CreateZip archives the file or directory tree at sourcePath into
// outputPath. With a password set the output is a SECUREZIP container,
// otherwise a plain zip. The output file appears atomically: it is
// written to a temporary name and renamed on success, so no partial
// container is ever left behind.
func (z *SecureZipper) CreateZip(sourcePath, outputPath string, includeHidden bool) error {
	blob, err := BuildArchive(z.fs, sourcePath, includeHidden, z.compressionLevel)
	if err != nil {
		return fmt.Errorf("failed to create zip: %w", err)
	}

	return z.writeZip(blob, outputPath)
}

// CreateZipFromFiles archives an explicit list of files into outputPath.
// When baseDir is non-empty, entry names are relative to it.
func (z *SecureZipper) CreateZipFromFiles(files []string, outputPath, baseDir string) error {
	blob, err := BuildArchiveFromFiles(z.fs, files, baseDir, z.compressionLevel)
	if err != nil {
		return fmt.Errorf("failed to create zip: %w", err)
	}

	return z.writeZip(blob, outputPath)
}

// writeZip encrypts blob when a password is set and writes it to
// outputPath atomically.
func (z *SecureZipper) writeZip(blob []byte, outputPath string) error {
	if z.Encrypted() {
		container, err := z.EncryptArchive(blob)
		if err != nil {
			return err
		}
		blob = container
	}

	if err := z.writeFileAtomic(outputPath, blob); err != nil {
		return fmt.Errorf("failed to write %q: %w", outputPath, err)
	}

	z.logger.Info("created zip file",
		slog.String("path", outputPath),
		slog.Bool("encrypted", z.Encrypted()))
	return nil
}

// ExtractZip extracts the archive at zipPath into destPath. SECUREZIP
// containers require the correct password; plain zips extract without
// one.
func (z *SecureZipper) ExtractZip(zipPath, destPath string) error {
	data, err := z.readFile(zipPath)
	if err != nil {
		return fmt.Errorf("failed to read zip file: %w", err)
	}

	if IsContainer(data) {
		data, err = z.DecryptArchive(data)
		if err != nil {
			return err
		}
	}

	if err := ExtractArchive(z.fs, data, destPath); err != nil {
		return err
	}

	z.logger.Info("extracted zip file",
		slog.String("path", zipPath),
		slog.String("dest", destPath))
	return nil
}

// TestZipExtraction reports whether the archive at zipPath can be
// extracted: the file is readable, a set password matches when the file
// is a container, and the first file entry decompresses cleanly.
func (z *SecureZipper) TestZipExtraction(zipPath string) bool {
	data, err := z.readFile(zipPath)
	if err != nil {
		z.logger.Warn("zip extraction test failed",
			slog.String("path", zipPath), slog.Any("error", err))
		return false
	}

	if IsContainer(data) {
		data, err = z.DecryptArchive(data)
		if err != nil {
			z.logger.Warn("zip extraction test failed",
				slog.String("path", zipPath), slog.Any("error", err))
			return false
		}
	}

	if err := probeArchive(data); err != nil {
		z.logger.Warn("zip extraction test failed",
			slog.String("path", zipPath), slog.Any("error", err))
		return false
	}
	return true
}

// probeArchive verifies that data parses as a zip and that its first
// file entry decompresses. Archives with no file entries pass.
func probeArchive(data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open entry %q: %w", f.Name, err)
		}

		_, err = io.Copy(io.Discard, rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("failed to decompress entry %q: %w", f.Name, err)
		}
		break
	}
	return nil
}

// readFile reads a whole file from the configured filesystem.
func (z *SecureZipper) readFile(path string) ([]byte, error) {
	f, err := z.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// writeFileAtomic writes data to a uniquely named temporary file next to
// outputPath and renames it into place. The temporary file is removed on
// every failure path.
func (z *SecureZipper) writeFileAtomic(outputPath string, data []byte) (err error) {
	dir := filepath.Dir(outputPath)
	if err := z.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmpName := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(outputPath), uuid.New()))

	f, err := z.fs.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	defer func() {
		if err != nil {
			f.Close()
			z.fs.Remove(tmpName)
		}
	}()

	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err = z.fs.Rename(tmpName, outputPath); err != nil {
		return fmt.Errorf("failed to rename into place: %w", err)
	}
	return nil
}
