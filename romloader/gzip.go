package romloader

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// fromGzip extracts a plain .gz file or the matching members of a tar.gz
func (x *extractor) fromGzip(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open gzip: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gr.Close()

	lowerPath := strings.ToLower(path)
	if strings.HasSuffix(lowerPath, ".tar.gz") || strings.HasSuffix(lowerPath, ".tgz") {
		return x.fromTar(gr)
	}

	// Plain .gz: the member is named after the archive minus ".gz", unless
	// the header carries a name.
	name := gr.Name
	if name == "" {
		name = filepath.Base(path)
		if strings.HasSuffix(strings.ToLower(name), ".gz") {
			name = name[:len(name)-3]
		}
	}
	if !x.wants(name) {
		return nil
	}
	return x.write(name, gr)
}

// fromTar extracts matching regular files from a tar stream
func (x *extractor) fromTar(r io.Reader) error {
	tr := tar.NewReader(r)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read tar entry: %w", err)
		}

		if header.Typeflag != tar.TypeReg || !x.wants(header.Name) {
			continue
		}
		if err := x.write(header.Name, tr); err != nil {
			return err
		}
	}
	return nil
}
