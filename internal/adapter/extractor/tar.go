package extractor

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

func extractTarGz(ctx context.Context, r io.Reader, s *sink) error {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("cannot create gzip reader: %w", err)
	}
	defer gzr.Close()

	return extractTar(ctx, gzr, s)
}

func extractTarXz(ctx context.Context, r io.Reader, s *sink) error {
	xzr, err := xz.NewReader(r)
	if err != nil {
		return fmt.Errorf("cannot create xz reader: %w", err)
	}

	return extractTar(ctx, xzr, s)
}

func extractTarZst(ctx context.Context, r io.Reader, s *sink) error {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("cannot create zstd reader: %w", err)
	}
	defer dec.Close()

	return extractTar(ctx, dec, s)
}

func extractTar(ctx context.Context, r io.Reader, s *sink) error {
	tr := tar.NewReader(r)

	for {
		if err := isDone(ctx); err != nil {
			return err
		}

		hdr, err := tr.Next()
		if isEOF(err) {
			return nil
		}

		if err != nil && !errors.Is(err, tar.ErrInsecurePath) {
			return fmt.Errorf("cannot read tar header: %w", err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			err = s.dir(hdr.Name)
		case tar.TypeReg:
			err = s.file(hdr.Name, tr)
		default:
			s.skip(hdr.Name, fmt.Sprintf("type %c", hdr.Typeflag))
		}

		if err != nil {
			return err
		}
	}
}
