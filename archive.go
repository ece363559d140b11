package securezip

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/absfs/absfs"
	"golang.org/x/sync/errgroup"
)

// The archive codec builds and reads plain zip blobs from a file tree on
// an absfs.FileSystem. The engine treats these blobs as opaque bytes; the
// container codec never looks inside them.

// BuildArchive builds a zip archive from a single file or a directory
// tree rooted at sourcePath. Hidden entries (name starting with a dot)
// are skipped unless includeHidden is set; skipping a hidden directory
// skips its whole subtree. level is the deflate level, 0 through 9.
func BuildArchive(fsys absfs.FileSystem, sourcePath string, includeHidden bool, level int) ([]byte, error) {
	info, err := fsys.Stat(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("source path does not exist: %w", err)
	}

	buf := new(bytes.Buffer)
	zw := newZipWriter(buf, level)

	if info.IsDir() {
		err = addTree(zw, fsys, sourcePath, "", includeHidden)
	} else {
		err = addFileEntry(zw, fsys, sourcePath, info.Name())
	}
	if err != nil {
		zw.Close()
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	return buf.Bytes(), nil
}

// BuildArchiveFromFiles builds a zip archive from an explicit list of
// files. When baseDir is non-empty, entry names are the paths relative
// to it; otherwise each entry uses its base name.
func BuildArchiveFromFiles(fsys absfs.FileSystem, files []string, baseDir string, level int) ([]byte, error) {
	if len(files) == 0 {
		return nil, &ConfigurationError{Field: "files", Message: "file list cannot be empty"}
	}

	buf := new(bytes.Buffer)
	zw := newZipWriter(buf, level)

	for _, file := range files {
		if _, err := fsys.Stat(file); err != nil {
			zw.Close()
			return nil, fmt.Errorf("file does not exist: %w", err)
		}

		arcname := filepath.Base(file)
		if baseDir != "" {
			rel, err := filepath.Rel(baseDir, file)
			if err != nil {
				zw.Close()
				return nil, fmt.Errorf("failed to compute path of %q relative to %q: %w", file, baseDir, err)
			}
			arcname = filepath.ToSlash(rel)
		}

		if err := addFileEntry(zw, fsys, file, arcname); err != nil {
			zw.Close()
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	return buf.Bytes(), nil
}

// ListArchive returns the entry names of a plain zip blob. Directory
// entries keep their trailing slash.
func ListArchive(data []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names, nil
}

// ExtractArchive extracts a plain zip blob into destPath on fsys.
// Directories are created first, then file entries are written
// concurrently with a bounded worker group.
func ExtractArchive(fsys absfs.FileSystem, data []byte, destPath string) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	if err := fsys.MkdirAll(destPath, 0o755); err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}

	var files []*zip.File
	for _, f := range zr.File {
		target, err := entryPath(destPath, f.Name)
		if err != nil {
			return err
		}

		if strings.HasSuffix(f.Name, "/") {
			if err := fsys.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", target, err)
			}
			continue
		}

		if dir := filepath.Dir(target); dir != "." {
			if err := fsys.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", dir, err)
			}
		}
		files = append(files, f)
	}

	group := errgroup.Group{}
	group.SetLimit(runtime.NumCPU())

	for _, f := range files {
		f := f
		group.Go(func() error {
			target, err := entryPath(destPath, f.Name)
			if err != nil {
				return err
			}
			return extractEntry(fsys, f, target)
		})
	}

	if err := group.Wait(); err != nil {
		return fmt.Errorf("failed to extract archive: %w", err)
	}
	return nil
}

// newZipWriter wraps w in a zip writer compressing at the given deflate
// level.
func newZipWriter(w io.Writer, level int) *zip.Writer {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})
	return zw
}

// addTree recursively adds the directory tree under dir to the archive.
// rel is the archive-side prefix for entries in dir, empty at the root.
func addTree(zw *zip.Writer, fsys absfs.FileSystem, dir, rel string, includeHidden bool) error {
	infos, err := readDir(fsys, dir)
	if err != nil {
		return err
	}

	for _, info := range infos {
		name := info.Name()
		if !includeHidden && isHidden(name) {
			continue
		}

		childPath := filepath.Join(dir, name)
		childRel := path.Join(rel, name)

		if info.IsDir() {
			// Explicit directory entry so empty directories survive
			// the round trip.
			if _, err := zw.CreateHeader(&zip.FileHeader{Name: childRel + "/"}); err != nil {
				return fmt.Errorf("failed to add directory %q: %w", childRel, err)
			}
			if err := addTree(zw, fsys, childPath, childRel, includeHidden); err != nil {
				return err
			}
			continue
		}

		if err := addFileEntry(zw, fsys, childPath, childRel); err != nil {
			return err
		}
	}
	return nil
}

// addFileEntry copies one file into the archive under arcname.
func addFileEntry(zw *zip.Writer, fsys absfs.FileSystem, filePath, arcname string) error {
	f, err := fsys.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", filePath, err)
	}
	defer f.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: arcname, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("failed to add file %q: %w", arcname, err)
	}

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to write entry %q: %w", arcname, err)
	}
	return nil
}

// extractEntry writes a single archive file entry to target on fsys.
func extractEntry(fsys absfs.FileSystem, f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open entry %q: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := fsys.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", target, err)
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %q: %w", target, err)
	}
	return out.Close()
}

// entryPath resolves an archive entry name under dest, rejecting names
// that would escape it.
func entryPath(dest, name string) (string, error) {
	cleaned := path.Clean(name)
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", NewFormatError(-1, fmt.Sprintf("unsafe entry name %q", name), nil)
	}
	return filepath.Join(dest, filepath.FromSlash(cleaned)), nil
}

// readDir lists dir sorted by name for deterministic archive layout.
func readDir(fsys absfs.FileSystem, dir string) ([]os.FileInfo, error) {
	d, err := fsys.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory %q: %w", dir, err)
	}
	defer d.Close()

	infos, err := d.Readdir(-1)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %q: %w", dir, err)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })
	return infos, nil
}

// isHidden reports whether a name denotes a hidden file or directory.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
