// Package romloader unpacks content archives (ZIP, 7z, RAR, gzip, tar.gz)
// for cores that cannot read them directly, and reads loose content files
// with a size limit.
package romloader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Magic bytes for format detection
var (
	magicZIP    = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEnd = []byte{0x50, 0x4B, 0x05, 0x06} // empty zip
	magic7z     = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip   = []byte{0x1F, 0x8B}
	magicRAR    = []byte{0x52, 0x61, 0x72, 0x21} // "Rar!"
)

// MaxFileSize bounds a single extracted or loaded file.
var MaxFileSize int64 = 512 * 1024 * 1024

// ArchiveExtensions lists the archive suffixes tried next to missing content,
// in order.
var ArchiveExtensions = []string{".zip", ".7z", ".rar", ".tar.gz", ".tgz", ".gz"}

// ErrNoContentFile is returned when an archive holds no file with a wanted
// extension.
var ErrNoContentFile = errors.New("no content file found in archive")

// ErrUnsupportedFormat is returned for unrecognized file formats
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrFileTooLarge is returned when extracted content exceeds size limit
var ErrFileTooLarge = errors.New("file exceeds maximum size limit")

// formatType represents the detected file format
type formatType int

const (
	formatUnknown formatType = iota
	formatZIP
	format7z
	formatGzip
	formatRAR
)

// Extract unpacks every regular file whose name carries one of extensions
// (all files when extensions is empty) from the archive at path into
// destDir. Entries are flattened to their base names; a later entry with
// the same name is skipped. It returns the extracted paths in archive order.
func Extract(path, destDir string, extensions []string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	header := make([]byte, 16)
	n, err := f.Read(header)
	f.Close()
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file header: %w", err)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination: %w", err)
	}

	x := &extractor{destDir: destDir, extensions: extensions, seen: make(map[string]bool)}
	switch detectFormat(header[:n], path) {
	case formatZIP:
		err = x.fromZIP(path)
	case format7z:
		err = x.from7z(path)
	case formatGzip:
		err = x.fromGzip(path)
	case formatRAR:
		err = x.fromRAR(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}
	if len(x.paths) == 0 {
		return nil, ErrNoContentFile
	}
	return x.paths, nil
}

// IsArchive reports whether path looks like a supported archive by name.
func IsArchive(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range ArchiveExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ReadFile reads a loose content file, failing with ErrFileTooLarge above
// MaxFileSize.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return limitedRead(f)
}

// detectFormat determines the archive format from magic bytes, falling back
// to the file name.
func detectFormat(header []byte, path string) formatType {
	// Check magic bytes first (more reliable)
	if len(header) >= 4 {
		if bytes.HasPrefix(header, magicZIP) || bytes.HasPrefix(header, magicZIPEnd) {
			return formatZIP
		}
		if bytes.HasPrefix(header, magicRAR) {
			return formatRAR
		}
	}
	if len(header) >= 6 && bytes.HasPrefix(header, magic7z) {
		return format7z
	}
	if len(header) >= 2 && bytes.HasPrefix(header, magicGzip) {
		return formatGzip
	}

	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return formatZIP
	case strings.HasSuffix(lower, ".7z"):
		return format7z
	case strings.HasSuffix(lower, ".gz"), strings.HasSuffix(lower, ".tgz"):
		return formatGzip
	case strings.HasSuffix(lower, ".rar"):
		return formatRAR
	}
	return formatUnknown
}

// hasExtension checks name against extensions, case-insensitively. Entries
// may be given with or without the leading dot.
func hasExtension(name string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// limitedRead reads from r up to MaxFileSize bytes, returning an error if exceeded
func limitedRead(r io.Reader) ([]byte, error) {
	lr := io.LimitReader(r, MaxFileSize+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

type extractor struct {
	destDir    string
	extensions []string
	seen       map[string]bool
	paths      []string
}

// wants reports whether an archive entry should be written.
func (x *extractor) wants(name string) bool {
	base := filepath.Base(filepath.FromSlash(strings.ReplaceAll(name, "\\", "/")))
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return false
	}
	return hasExtension(base, x.extensions) && !x.seen[base]
}

// write copies one entry into destDir under its base name.
func (x *extractor) write(name string, r io.Reader) error {
	base := filepath.Base(filepath.FromSlash(strings.ReplaceAll(name, "\\", "/")))
	dst := filepath.Join(x.destDir, base)

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", base, err)
	}
	n, err := io.Copy(out, io.LimitReader(r, MaxFileSize+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > MaxFileSize {
		err = ErrFileTooLarge
	}
	if err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to extract %s: %w", name, err)
	}

	x.seen[base] = true
	x.paths = append(x.paths, dst)
	return nil
}
