package romloader

import (
	"fmt"

	"github.com/bodgit/sevenzip"
)

// from7z extracts matching files from a 7z archive
func (x *extractor) from7z(path string) error {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open 7z: %w", err)
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
