package fsadapter

import (
	"fmt"
	"path/filepath"

	"github.com/jgivc/fileviewer/internal/common"
	"github.com/jgivc/fileviewer/internal/entity"
)

const (
	buildIndexThreshold = 5

	rawURLFormat = "/raw/%s/"
)

// FileResolver finds files of a file set by id or by path.
type FileResolver struct {
	files     []*entity.File
	idIndex   map[string]int
	pathIndex map[string]int
}

func NewFileResolver(files []*entity.File) *FileResolver {
	return &FileResolver{files: files}
}

func (r *FileResolver) GetFile(id string) (*entity.File, error) {
	if r.idIndex == nil && len(r.files) > buildIndexThreshold {
		r.buildIndex()
	}

	if r.idIndex != nil {
		if idx, ok := r.idIndex[id]; ok {
			return r.files[idx], nil
		}

		return nil, fmt.Errorf("%w: %s", common.ErrFileNotFoundError, id)
	}

	for i := range r.files {
		if r.files[i].ID == id {
			return r.files[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", common.ErrFileNotFoundError, id)
}

// RawURL returns the download url of the file stored at path.
func (r *FileResolver) RawURL(path string) (string, bool) {
	path = filepath.Clean(path)

	if r.pathIndex == nil && len(r.files) > buildIndexThreshold {
		r.buildIndex()
	}

	if r.pathIndex != nil {
		if idx, ok := r.pathIndex[path]; ok {
			return RawURL(r.files[idx].ID), true
		}

		return "", false
	}

	for i := range r.files {
		if filepath.Clean(r.files[i].SourcePath) == path {
			return RawURL(r.files[i].ID), true
		}
	}

	return "", false
}

func (r *FileResolver) GetFiles() []*entity.File {
	return r.files
}

func (r *FileResolver) buildIndex() {
	idIndex := make(map[string]int, len(r.files))
	pathIndex := make(map[string]int, len(r.files))
	for i, file := range r.files {
		idIndex[file.ID] = i
		pathIndex[filepath.Clean(file.SourcePath)] = i
	}

	r.idIndex = idIndex
	r.pathIndex = pathIndex
}

func RawURL(id string) string {
	return fmt.Sprintf(rawURLFormat, id)
}
