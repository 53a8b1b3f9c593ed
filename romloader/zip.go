package romloader

import (
	"archive/zip"
	"fmt"
)

// fromZIP extracts matching files from a ZIP archive
func (x *extractor) fromZIP(path string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !x.wants(f.Name) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s in archive: %w", f.Name, err)
		}
		err = x.write(f.Name, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
