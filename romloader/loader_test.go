package romloader

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// testExtensions is a common set of content extensions used across tests
var testExtensions = []string{".sms"}

type archiveEntry struct {
	name string
	data []byte
}

// createTestZipFile creates a temporary .zip file containing the entries
func createTestZipFile(t *testing.T, entries ...archiveEntry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zip")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, e := range entries {
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("Failed to create file in zip: %v", err)
		}
		if _, err := fw.Write(e.data); err != nil {
			t.Fatalf("Failed to write to zip: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return path
}

// createTestGzipFile creates a temporary .gz file containing content data
func createTestGzipFile(t *testing.T, data []byte, ext string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test"+ext+".gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create gzip file: %v", err)
	}
	defer f.Close()

	w := gzip.NewWriter(f)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Failed to write to gzip: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close gzip: %v", err)
	}
	return path
}

// createTestTarGz creates a temporary .tar.gz file with the entries
func createTestTarGz(t *testing.T, entries ...archiveEntry) string {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0644, Size: int64(len(e.data)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write(e.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "test.tar.gz")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func assertFile(t *testing.T, path string, want []byte) {
	t.Helper()
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("%s: expected %v, got %v", filepath.Base(path), want, got)
	}
}

// TestExtract_Zip tests extracting matching files from ZIP archives
func TestExtract_Zip(t *testing.T) {
	testData := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	path := createTestZipFile(t,
		archiveEntry{"readme.txt", []byte("hello")},
		archiveEntry{"game.sms", testData},
	)
	dest := t.TempDir()

	paths, err := Extract(path, dest, testExtensions)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected 1 extracted file, got %v", paths)
	}
	if paths[0] != filepath.Join(dest, "game.sms") {
		t.Errorf("unexpected path %s", paths[0])
	}
	assertFile(t, paths[0], testData)

	if _, err := os.Stat(filepath.Join(dest, "readme.txt")); !os.IsNotExist(err) {
		t.Error("non-matching entry should not be extracted")
	}
}

// TestExtract_ZipAllFiles tests that an empty extension list extracts everything
func TestExtract_ZipAllFiles(t *testing.T) {
	path := createTestZipFile(t,
		archiveEntry{"disc.cue", []byte("FILE")},
		archiveEntry{"disc.bin", []byte{1, 2, 3}},
	)
	paths, err := Extract(path, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("expected 2 files, got %v", paths)
	}
}

// TestExtract_ZipWithSubdirectory tests that nested entries are flattened
func TestExtract_ZipWithSubdirectory(t *testing.T) {
	testData := []byte{0x01, 0x02}
	path := createTestZipFile(t, archiveEntry{"roms/europe/game.sms", testData})
	dest := t.TempDir()

	paths, err := Extract(path, dest, testExtensions)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	assertFile(t, filepath.Join(dest, "game.sms"), testData)
	if len(paths) != 1 {
		t.Errorf("expected one path, got %v", paths)
	}
}

// TestExtract_PathTraversal tests that entries cannot escape the destination
func TestExtract_PathTraversal(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "dest")
	path := createTestZipFile(t, archiveEntry{"../../evil.sms", []byte{0x66}})

	// archive/zip may reject the name outright (GODEBUG zipinsecurepath).
	paths, err := Extract(path, dest, testExtensions)
	if err == nil && paths[0] != filepath.Join(dest, "evil.sms") {
		t.Errorf("entry escaped destination: %s", paths[0])
	}
	if _, err := os.Stat(filepath.Join(root, "evil.sms")); !os.IsNotExist(err) {
		t.Error("file written outside destination")
	}
}

// TestExtract_DuplicateNames tests that the first entry with a name wins
func TestExtract_DuplicateNames(t *testing.T) {
	path := createTestZipFile(t,
		archiveEntry{"a/game.sms", []byte{1}},
		archiveEntry{"b/game.sms", []byte{2}},
	)
	dest := t.TempDir()
	paths, err := Extract(path, dest, testExtensions)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected 1 path, got %v", paths)
	}
	assertFile(t, paths[0], []byte{1})
}

// TestExtract_Gzip tests extracting a plain gzip file
func TestExtract_Gzip(t *testing.T) {
	testData := []byte{0x11, 0x22, 0x33, 0x44, 0x55}
	path := createTestGzipFile(t, testData, ".sms")
	dest := t.TempDir()

	paths, err := Extract(path, dest, testExtensions)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if filepath.Base(paths[0]) != "test.sms" {
		t.Errorf("expected test.sms, got %s", paths[0])
	}
	assertFile(t, paths[0], testData)
}

// TestExtract_TarGz tests extracting from a tar.gz archive
func TestExtract_TarGz(t *testing.T) {
	testData := []byte{0x09, 0x08, 0x07}
	path := createTestTarGz(t,
		archiveEntry{"notes.txt", []byte("x")},
		archiveEntry{"dir/game.sms", testData},
	)
	dest := t.TempDir()

	paths, err := Extract(path, dest, testExtensions)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected 1 path, got %v", paths)
	}
	assertFile(t, paths[0], testData)
}

// TestExtract_NoContentInArchive tests archives without a matching file
func TestExtract_NoContentInArchive(t *testing.T) {
	path := createTestZipFile(t, archiveEntry{"readme.txt", []byte("hello")})

	_, err := Extract(path, t.TempDir(), testExtensions)
	if !errors.Is(err, ErrNoContentFile) {
		t.Errorf("Expected ErrNoContentFile, got %v", err)
	}
}

// TestExtract_FileTooLarge tests the per-file size limit
func TestExtract_FileTooLarge(t *testing.T) {
	old := MaxFileSize
	MaxFileSize = 8
	defer func() { MaxFileSize = old }()

	path := createTestZipFile(t, archiveEntry{"game.sms", make([]byte, 16)})
	dest := t.TempDir()

	_, err := Extract(path, dest, testExtensions)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Expected ErrFileTooLarge, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "game.sms")); !os.IsNotExist(err) {
		t.Error("oversized partial file should be removed")
	}
}

// TestExtract_FileNotFound tests error handling for missing files
func TestExtract_FileNotFound(t *testing.T) {
	_, err := Extract("/nonexistent/path/test.zip", t.TempDir(), testExtensions)
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

// TestExtract_UnsupportedFormat tests a file that is not an archive
func TestExtract_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sms")
	if err := os.WriteFile(path, []byte{0x01, 0x02, 0x03, 0x04}, 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Extract(path, t.TempDir(), testExtensions)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

// TestDetectFormat tests magic byte and name based detection
func TestDetectFormat(t *testing.T) {
	testCases := []struct {
		name     string
		header   []byte
		path     string
		expected formatType
	}{
		{"zip magic", magicZIP, "file.dat", formatZIP},
		{"empty zip magic", magicZIPEnd, "file.dat", formatZIP},
		{"7z magic", magic7z, "file.dat", format7z},
		{"gzip magic", magicGzip, "file.dat", formatGzip},
		{"rar magic", magicRAR, "file.dat", formatRAR},
		{"zip extension", nil, "file.ZIP", formatZIP},
		{"7z extension", nil, "file.7z", format7z},
		{"tgz extension", nil, "file.tgz", formatGzip},
		{"tar.gz extension", nil, "file.tar.gz", formatGzip},
		{"rar extension", nil, "file.RAR", formatRAR},
		{"raw content", []byte{0, 1, 2, 3}, "file.sms", formatUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := detectFormat(tc.header, tc.path); got != tc.expected {
				t.Errorf("detectFormat = %d, want %d", got, tc.expected)
			}
		})
	}
}

// TestHasExtension tests extension matching
func TestHasExtension(t *testing.T) {
	testCases := []struct {
		name       string
		file       string
		extensions []string
		expected   bool
	}{
		{"match", "game.sms", []string{".sms"}, true},
		{"case insensitive", "GAME.SMS", []string{".sms"}, true},
		{"without dot", "game.sfc", []string{"smc", "sfc"}, true},
		{"no match", "game.txt", []string{".sms"}, false},
		{"empty list matches all", "anything.bin", nil, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := hasExtension(tc.file, tc.extensions); got != tc.expected {
				t.Errorf("hasExtension(%q, %v) = %v", tc.file, tc.extensions, got)
			}
		})
	}
}

// TestIsArchive tests archive name recognition
func TestIsArchive(t *testing.T) {
	for _, name := range []string{"a.zip", "a.7z", "a.rar", "a.tar.gz", "A.ZIP"} {
		if !IsArchive(name) {
			t.Errorf("IsArchive(%q) = false", name)
		}
	}
	if IsArchive("a.sms") {
		t.Error("IsArchive(a.sms) = true")
	}
}

// TestReadFile tests reading loose content with the size limit
func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.sms")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0644); err != nil {
		t.Fatal(err)
	}
	data, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, []byte{1, 2, 3}) {
		t.Errorf("got %v", data)
	}

	old := MaxFileSize
	MaxFileSize = 2
	defer func() { MaxFileSize = old }()
	if _, err := ReadFile(path); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Expected ErrFileTooLarge, got %v", err)
	}
}
