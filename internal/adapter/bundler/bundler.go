package bundler

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/jgivc/fileviewer/internal/common"
	"github.com/spf13/afero"
)

const (
	MIMETypeZip = "application/zip"

	NameSelected = "selected_files.zip"
	NameAll      = "all_files.zip"
)

type bundler struct {
	fs  afero.Fs
	log *slog.Logger
}

func NewBundler(log *slog.Logger) *bundler {
	return NewBundlerWithFS(afero.NewOsFs(), log)
}

func NewBundlerWithFS(fs afero.Fs, log *slog.Logger) *bundler {
	return &bundler{
		fs:  fs,
		log: log.With(slog.String("item", "Bundler")),
	}
}

/*
Bundle zips paths in memory. Entries are named by base name only.
Files sharing a base name collapse into one entry holding the content of
the last of them, placed where the first of them appeared.
*/
func (b *bundler) Bundle(paths []string) ([]byte, error) {
	if len(paths) < 1 {
		return nil, common.ErrNothingToBundle
	}

	names, sources := entries(paths)

	buf := bytes.Buffer{}
	zw := zip.NewWriter(&buf)

	for _, name := range names {
		if err := b.add(zw, name, sources[name]); err != nil {
			zw.Close()

			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("cannot finish zip: %w", err)
	}

	b.log.Debug("Bundled", slog.Int("file_count", len(names)), slog.Int("size", buf.Len()))

	return buf.Bytes(), nil
}

func (b *bundler) add(zw *zip.Writer, name, path string) error {
	file, err := b.fs.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", path, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("cannot build zip header for %s: %w", path, err)
	}

	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("cannot create zip entry %s: %w", name, err)
	}

	if _, err := io.Copy(w, file); err != nil {
		return fmt.Errorf("cannot write zip entry %s: %w", name, err)
	}

	return nil
}

// entries returns entry names in first-seen order and the path that wins
// for each name.
func entries(paths []string) ([]string, map[string]string) {
	names := make([]string, 0, len(paths))
	sources := make(map[string]string, len(paths))

	for _, path := range paths {
		name := filepath.Base(path)
		if _, exists := sources[name]; !exists {
			names = append(names, name)
		}

		sources[name] = path
	}

	return names, sources
}
