package fsadapter

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/jgivc/fileviewer/internal/adapter/classifier"
	"github.com/jgivc/fileviewer/internal/entity"
	"github.com/jgivc/fileviewer/internal/util"
	"github.com/spf13/afero"
)

type fsAdapter struct {
	fs  afero.Fs
	log *slog.Logger
}

func NewFSAdapter(log *slog.Logger) *fsAdapter {
	return NewFSAdapterWithFS(afero.NewOsFs(), log)
}

func NewFSAdapterWithFS(fs afero.Fs, log *slog.Logger) *fsAdapter {
	return &fsAdapter{
		fs:  fs,
		log: log.With(slog.String("item", "FSAdapter")),
	}
}

/*
ListFiles returns the regular files below root in walk order.
Directories are traversed but not returned. Symlinks are returned when they
point at a regular file; symlinked directories are not followed.
*/
func (a *fsAdapter) ListFiles(root string) ([]string, error) {
	var files []string

	err := afero.Walk(a.fs, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}

		switch mode := info.Mode(); {
		case mode.IsRegular():
			files = append(files, path)
		case mode&os.ModeSymlink != 0:
			if stat, err := a.fs.Stat(path); err == nil && stat.Mode().IsRegular() {
				files = append(files, path)
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cannot walk %s: %w", root, err)
	}

	return files, nil
}

// ToFile describes the file at path. RelPath is relative to root.
func (a *fsAdapter) ToFile(root, path string) (*entity.File, error) {
	stat, err := a.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot stat file: %w", err)
	}

	relPath, err := filepath.Rel(root, path)
	if err != nil {
		relPath = filepath.Base(path)
	}

	return &entity.File{
		ID:         util.GetIDFromString(&path),
		Name:       filepath.Base(path),
		RelPath:    filepath.ToSlash(relPath),
		SourcePath: path,
		Size:       stat.Size(),
		SizeHuman:  humanize.Bytes(uint64(stat.Size())),
		Kind:       classifier.Classify(path),
	}, nil
}

// ToFiles describes every path, skipping files that can no longer be read.
func (a *fsAdapter) ToFiles(root string, paths []string) []*entity.File {
	files := make([]*entity.File, 0, len(paths))

	for _, path := range paths {
		file, err := a.ToFile(root, path)
		if err != nil {
			a.log.Error("Cannot describe file", slog.String("path", path), slog.Any("error", err))

			continue
		}

		files = append(files, file)
	}

	return files
}

func (a *fsAdapter) Open(path string) (afero.File, error) {
	return a.fs.Open(path)
}
