package extractor

import (
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/nwaples/rardecode/v2"
)

func extractRar(ctx context.Context, r io.Reader, s *sink) error {
	rr, err := rardecode.NewReader(r)
	if err != nil {
		return fmt.Errorf("cannot open rar: %w", err)
	}

	for {
		if err := isDone(ctx); err != nil {
			return err
		}

		hdr, err := rr.Next()
		if isEOF(err) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("cannot read rar header: %w", err)
		}

		mode := hdr.Mode()

		switch {
		case hdr.IsDir:
			err = s.dir(hdr.Name)
		case mode&fs.ModeType != 0:
			s.skip(hdr.Name, mode.Type().String())
		default:
			err = s.file(hdr.Name, rr)
		}

		if err != nil {
			return err
		}
	}
}
