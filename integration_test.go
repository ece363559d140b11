package securezip

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

// TestEndToEndEncryptedWorkflow drives the whole pipeline on an
// in-memory filesystem: build a tree, create an encrypted zip, then
// extract it with a fresh engine and compare every file.
func TestEndToEndEncryptedWorkflow(t *testing.T) {
	fsys := setupFS(t)

	tree := map[string][]byte{
		"/project/README.md":        []byte("# project\n"),
		"/project/src/main.go":      []byte("package main\n"),
		"/project/src/util/util.go": []byte("package util\n"),
		"/project/data/blob.bin":    bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 256),
	}
	for path, content := range tree {
		writeFile(t, fsys, path, content)
	}

	for _, alg := range Algorithms() {
		t.Run(alg.String(), func(t *testing.T) {
			writer, err := New(&Config{FS: fsys, CompressionLevel: DefaultCompressionLevel})
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			writer.SetPassword("integration-pw", alg)

			zipPath := fmt.Sprintf("/out/%s.zip", alg)
			if err := writer.CreateZip("/project", zipPath, false); err != nil {
				t.Fatalf("CreateZip failed: %v", err)
			}

			if !writer.IsEncryptedFile(zipPath) {
				t.Fatal("output is not a container")
			}
			if !writer.TestZipExtraction(zipPath) {
				t.Error("TestZipExtraction = false with the right password")
			}

			reader, err := New(&Config{FS: fsys, CompressionLevel: DefaultCompressionLevel})
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			reader.SetPassword("integration-pw", alg)

			destPath := fmt.Sprintf("/restore/%s", alg)
			if err := reader.ExtractZip(zipPath, destPath); err != nil {
				t.Fatalf("ExtractZip failed: %v", err)
			}

			for path, content := range tree {
				restored := destPath + path[len("/project"):]
				if got := readFileFS(t, fsys, restored); !bytes.Equal(got, content) {
					t.Errorf("%s: content mismatch after round trip", restored)
				}
			}
		})
	}
}

// TestEndToEndPlainWorkflow checks that without a password the output is
// an ordinary zip that any engine can extract.
func TestEndToEndPlainWorkflow(t *testing.T) {
	fsys := setupFS(t)
	writeFile(t, fsys, "/docs/note.txt", []byte("no password here"))

	writer, err := New(&Config{FS: fsys, CompressionLevel: DefaultCompressionLevel})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := writer.CreateZip("/docs", "/out/docs.zip", false); err != nil {
		t.Fatalf("CreateZip failed: %v", err)
	}

	if writer.IsEncryptedFile("/out/docs.zip") {
		t.Fatal("plain output reported as container")
	}

	// A different engine with some password set still extracts a plain
	// zip directly.
	reader, err := New(&Config{FS: fsys, CompressionLevel: DefaultCompressionLevel})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	reader.SetPassword("irrelevant", AlgorithmAESLike)

	if err := reader.ExtractZip("/out/docs.zip", "/restore"); err != nil {
		t.Fatalf("ExtractZip failed: %v", err)
	}
	if got := readFileFS(t, fsys, "/restore/note.txt"); !bytes.Equal(got, []byte("no password here")) {
		t.Errorf("restored content = %q", got)
	}
}

// TestEndToEndWrongPassword creates an encrypted archive and confirms
// that the wrong password fails uniformly and writes nothing.
func TestEndToEndWrongPassword(t *testing.T) {
	fsys := setupFS(t)
	writeFile(t, fsys, "/src/secret.txt", []byte("classified"))

	writer, err := New(&Config{FS: fsys, CompressionLevel: DefaultCompressionLevel})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	writer.SetPassword("right-pw", AlgorithmHMACSHA256)
	if err := writer.CreateZip("/src", "/out/secret.zip", false); err != nil {
		t.Fatalf("CreateZip failed: %v", err)
	}

	reader, err := New(&Config{FS: fsys, CompressionLevel: DefaultCompressionLevel})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	reader.SetPassword("wrong-pw", AlgorithmHMACSHA256)

	if err := reader.ExtractZip("/out/secret.zip", "/leak"); !errors.Is(err, ErrCannotDecrypt) {
		t.Fatalf("error = %v, want ErrCannotDecrypt", err)
	}
	if reader.TestZipExtraction("/out/secret.zip") {
		t.Error("TestZipExtraction = true with the wrong password")
	}

	// Nothing should have been written under the destination.
	if _, err := fsys.Stat("/leak/secret.txt"); err == nil {
		t.Error("extraction wrote files despite failing to decrypt")
	}
}

// TestEndToEndCrossAlgorithmRead covers algorithm auto-detection through
// the file-level API: archives written with every algorithm are all
// readable by one engine configured with plain xor.
func TestEndToEndCrossAlgorithmRead(t *testing.T) {
	fsys := setupFS(t)
	writeFile(t, fsys, "/src/data.txt", []byte("same bytes, five wrappers"))

	for _, alg := range Algorithms() {
		writer, err := New(&Config{FS: fsys, CompressionLevel: DefaultCompressionLevel})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		writer.SetPassword("shared-pw", alg)

		if err := writer.CreateZip("/src", fmt.Sprintf("/out/%s.zip", alg), false); err != nil {
			t.Fatalf("CreateZip(%s) failed: %v", alg, err)
		}
	}

	reader, err := New(&Config{FS: fsys, CompressionLevel: DefaultCompressionLevel})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	reader.SetPassword("shared-pw", AlgorithmXOR)

	for _, alg := range Algorithms() {
		destPath := fmt.Sprintf("/restore/%s", alg)
		if err := reader.ExtractZip(fmt.Sprintf("/out/%s.zip", alg), destPath); err != nil {
			t.Fatalf("ExtractZip(%s) failed: %v", alg, err)
		}

		got := readFileFS(t, fsys, destPath+"/data.txt")
		if !bytes.Equal(got, []byte("same bytes, five wrappers")) {
			t.Errorf("%s: content mismatch", alg)
		}
	}
}
