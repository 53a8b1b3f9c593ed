package romloader

import (
	"fmt"
	"io"

	"github.com/nwaples/rardecode/v2"
)

// fromRAR extracts matching files from a RAR archive
func (x *extractor) fromRAR(path string) (err error) {
	// rardecode can panic on truncated headers.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read rar: %v", r)
		}
	}()

	r, err := rardecode.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open rar: %w", err)
	}
	defer r.Close()

	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read rar entry: %w", err)
		}

		if header.IsDir || !x.wants(header.Name) {
			continue
		}
		if err := x.write(header.Name, r); err != nil {
			return err
		}
	}
	return nil
}
