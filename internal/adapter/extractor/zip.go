package extractor

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/afero"
)

func extractZip(ctx context.Context, file afero.File, s *sink) error {
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("cannot stat archive: %w", err)
	}

	// Unsafe names are rejected per entry by safeJoin
	zr, err := zip.NewReader(file, info.Size())
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("cannot open zip: %w", err)
	}

	for _, zf := range zr.File {
		if err := isDone(ctx); err != nil {
			return err
		}

		if err := extractZipEntry(zf, s); err != nil {
			return err
		}
	}

	return nil
}

func extractZipEntry(zf *zip.File, s *sink) error {
	mode := zf.Mode()

	switch {
	case mode.IsDir() || strings.HasSuffix(zf.Name, "/"):
		return s.dir(zf.Name)
	case mode&fs.ModeType != 0:
		s.skip(zf.Name, mode.Type().String())

		return nil
	}

	rc, err := zf.Open()
	if err != nil {
		return fmt.Errorf("cannot open zip entry %s: %w", zf.Name, err)
	}
	defer rc.Close()

	return s.file(zf.Name, rc)
}
