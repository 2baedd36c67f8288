package extractor

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/bodgit/sevenzip"
	"github.com/spf13/afero"
)

// 7z needs random access to the whole archive, so it does not share the
// streaming path of the tar formats.
func extractSevenZip(ctx context.Context, file afero.File, s *sink) error {
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("cannot stat archive: %w", err)
	}

	r, err := sevenzip.NewReader(file, info.Size())
	if err != nil {
		return fmt.Errorf("cannot open 7z: %w", err)
	}

	for _, f := range r.File {
		if err := isDone(ctx); err != nil {
			return err
		}

		if err := extractSevenZipEntry(f, s); err != nil {
			return err
		}
	}

	return nil
}

func extractSevenZipEntry(f *sevenzip.File, s *sink) error {
	mode := f.FileInfo().Mode()

	switch {
	case mode.IsDir():
		return s.dir(f.Name)
	case mode&fs.ModeType != 0:
		s.skip(f.Name, mode.Type().String())

		return nil
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("cannot open 7z entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	return s.file(f.Name, rc)
}
