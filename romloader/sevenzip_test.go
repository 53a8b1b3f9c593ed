package romloader

import (
	"os"
	"path/filepath"
	"testing"
)

// TestExtract7z_InvalidInputs tests error handling for files that are not
// valid 7z archives
func TestExtract7z_InvalidInputs(t *testing.T) {
	testCases := []struct {
		name    string
		content []byte
	}{
		{"not a 7z", []byte("not a 7z file")},
		{"empty", []byte{}},
		{"partial magic", []byte{0x37, 0x7A, 0xBC}},
		{"corrupted", append(append([]byte{}, magic7z...), make([]byte, 100)...)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.7z")
			if err := os.WriteFile(path, tc.content, 0644); err != nil {
				t.Fatalf("Failed to create test file: %v", err)
			}
			x := &extractor{destDir: t.TempDir(), extensions: testExtensions, seen: map[string]bool{}}
			if err := x.from7z(path); err == nil {
				t.Error("Expected error for invalid 7z file")
			}
		})
	}
}

// TestExtract_7zMissing tests a missing 7z path
func TestExtract_7zMissing(t *testing.T) {
	x := &extractor{destDir: t.TempDir(), seen: map[string]bool{}}
	if err := x.from7z("/nonexistent/path/test.7z"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}
