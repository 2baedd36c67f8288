package fsadapter

import (
	"fmt"
	"testing"

	"github.com/jgivc/fileviewer/internal/common"
	"github.com/jgivc/fileviewer/internal/entity"
	"github.com/jgivc/fileviewer/internal/util"
	"github.com/stretchr/testify/require"
)

func makeFiles(n int) []*entity.File {
	files := make([]*entity.File, 0, n)
	for i := 0; i < n; i++ {
		path := fmt.Sprintf("/root/file%d.txt", i)
		files = append(files, &entity.File{
			ID:         util.GetIDFromString(&path),
			Name:       fmt.Sprintf("file%d.txt", i),
			SourcePath: path,
		})
	}

	return files
}

func TestFileResolver(t *testing.T) {
	// Below and above the index threshold
	for _, n := range []int{3, 10} {
		t.Run(fmt.Sprintf("%d files", n), func(t *testing.T) {
			files := makeFiles(n)
			r := NewFileResolver(files)

			last := files[n-1]
			file, err := r.GetFile(last.ID)
			require.NoError(t, err)
			require.Same(t, last, file)

			_, err = r.GetFile("0000000000000000000000000000000000000000")
			require.ErrorIs(t, err, common.ErrFileNotFoundError)

			url, ok := r.RawURL("/root/sub/../" + last.Name)
			require.True(t, ok)
			require.Equal(t, "/raw/"+last.ID+"/", url)

			_, ok = r.RawURL("/root/unknown.txt")
			require.False(t, ok)
		})
	}
}
