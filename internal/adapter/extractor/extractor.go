// Package extractor unpacks archives into a directory, dispatching on the
// archive format produced by the classifier.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jgivc/fileviewer/internal/common"
	"github.com/jgivc/fileviewer/internal/entity"
	"github.com/spf13/afero"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

type extractor struct {
	fs  afero.Fs
	log *slog.Logger
}

func NewExtractor(log *slog.Logger) *extractor {
	return NewExtractorWithFS(afero.NewOsFs(), log)
}

func NewExtractorWithFS(fs afero.Fs, log *slog.Logger) *extractor {
	return &extractor{
		fs:  fs,
		log: log.With(slog.String("item", "Extractor")),
	}
}

// Extract unpacks archivePath into targetDir and returns the regular files
// written. Extraction fails as a unit: on any error targetDir is removed and
// the error wraps common.ErrExtract.
func (e *extractor) Extract(ctx context.Context, archivePath string, kind entity.Kind, targetDir string) (files []string, err error) {
	if !kind.IsArchive() {
		return nil, fmt.Errorf("%w: %w: %s", common.ErrExtract, common.ErrUnsupportedArchive, filepath.Base(archivePath))
	}

	if targetDir == "" {
		return nil, fmt.Errorf("%w: target directory cannot be empty", common.ErrExtract)
	}

	log := e.log.With(slog.String("archive", archivePath), slog.String("format", kind.Format.String()))

	if err := e.fs.MkdirAll(targetDir, dirPerm); err != nil {
		return nil, fmt.Errorf("%w: cannot create target directory: %w", common.ErrExtract, err)
	}

	defer func() {
		if err == nil {
			return
		}

		if rmErr := e.fs.RemoveAll(targetDir); rmErr != nil {
			log.Error("Cannot remove partially extracted files", slog.String("dir", targetDir), slog.Any("error", rmErr))
		}

		files = nil
		err = fmt.Errorf("%w: %w", common.ErrExtract, err)
	}()

	file, err := e.fs.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("cannot open archive: %w", err)
	}
	defer file.Close()

	s := &sink{
		fs:   e.fs,
		root: filepath.Clean(targetDir),
		seen: make(map[string]struct{}),
		log:  log,
	}

	switch kind.Format {
	case entity.FormatZip:
		err = extractZip(ctx, file, s)
	case entity.FormatTarGz:
		err = extractTarGz(ctx, file, s)
	case entity.FormatTarXz:
		err = extractTarXz(ctx, file, s)
	case entity.FormatTarZst:
		err = extractTarZst(ctx, file, s)
	case entity.FormatTar:
		err = extractTar(ctx, file, s)
	case entity.FormatSevenZip:
		err = extractSevenZip(ctx, file, s)
	case entity.FormatRar:
		err = extractRar(ctx, file, s)
	default:
		err = common.ErrUnsupportedArchive
	}

	if err != nil {
		return nil, err
	}

	log.Info("Extracted", slog.String("dir", targetDir), slog.Int("file_count", len(s.files)))

	return s.files, nil
}

// sink writes archive members below root.
type sink struct {
	fs    afero.Fs
	root  string
	files []string
	seen  map[string]struct{}
	log   *slog.Logger
}

func (s *sink) dir(name string) error {
	fullPath, err := safeJoin(s.root, name)
	if err != nil {
		return err
	}

	if err := s.fs.MkdirAll(fullPath, dirPerm); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", name, err)
	}

	return nil
}

func (s *sink) file(name string, r io.Reader) error {
	fullPath, err := safeJoin(s.root, name)
	if err != nil {
		return err
	}

	if fullPath == s.root {
		return fmt.Errorf("%w: %s", common.ErrUnsafePath, name)
	}

	if err := s.fs.MkdirAll(filepath.Dir(fullPath), dirPerm); err != nil {
		return fmt.Errorf("cannot create directory for %s: %w", name, err)
	}

	file, err := s.fs.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("cannot create file %s: %w", name, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, r); err != nil {
		return fmt.Errorf("cannot write file %s: %w", name, err)
	}

	if _, exists := s.seen[fullPath]; !exists {
		s.seen[fullPath] = struct{}{}
		s.files = append(s.files, fullPath)
	}

	return nil
}

func (s *sink) skip(name, reason string) {
	s.log.Debug("Skip archive entry", slog.String("name", name), slog.String("reason", reason))
}

// safeJoin joins member to root and rejects results outside root.
func safeJoin(root, member string) (string, error) {
	member = strings.ReplaceAll(member, "\\", "/")
	fullPath := filepath.Join(root, filepath.FromSlash(member))

	if fullPath != root && !strings.HasPrefix(fullPath, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", common.ErrUnsafePath, member)
	}

	return fullPath, nil
}

func isDone(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("extraction canceled: %w", ctx.Err())
	default:
		return nil
	}
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
