package classifier

import (
	"testing"

	"github.com/jgivc/fileviewer/internal/entity"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		category entity.Category
		format   entity.Format
		language string
	}{
		{name: "a.zip", category: entity.CategoryArchive, format: entity.FormatZip},
		{name: "A.ZIP", category: entity.CategoryArchive, format: entity.FormatZip},
		{name: "a.rar", category: entity.CategoryArchive, format: entity.FormatRar},
		{name: "a.7z", category: entity.CategoryArchive, format: entity.FormatSevenZip},
		{name: "a.tar.gz", category: entity.CategoryArchive, format: entity.FormatTarGz},
		{name: "dir/a.TAR.GZ", category: entity.CategoryArchive, format: entity.FormatTarGz},
		{name: "a.tgz", category: entity.CategoryArchive, format: entity.FormatTarGz},
		{name: "a.tar.xz", category: entity.CategoryArchive, format: entity.FormatTarXz},
		{name: "a.tar.zst", category: entity.CategoryArchive, format: entity.FormatTarZst},
		{name: "a.tar", category: entity.CategoryArchive, format: entity.FormatTar},
		{name: "a.gz", category: entity.CategoryUnsupported},
		{name: "photo.JPG", category: entity.CategoryImage},
		{name: "photo.jpeg", category: entity.CategoryImage},
		{name: "b.png", category: entity.CategoryImage},
		{name: "b.gif", category: entity.CategoryImage},
		{name: "b.webp", category: entity.CategoryImage},
		{name: "clip.mp4", category: entity.CategoryVideo},
		{name: "clip.avi", category: entity.CategoryVideo},
		{name: "clip.MOV", category: entity.CategoryVideo},
		{name: "notes.txt", category: entity.CategoryText, language: LanguagePlain},
		{name: "index.html", category: entity.CategoryText, language: "html"},
		{name: "app.js", category: entity.CategoryText, language: "javascript"},
		{name: "style.css", category: entity.CategoryText, language: "css"},
		{name: "data.json", category: entity.CategoryText, language: "json"},
		{name: "main.py", category: entity.CategoryText, language: "python"},
		{name: "README.md", category: entity.CategoryText, language: "markdown"},
		{name: "doc.pdf", category: entity.CategoryPDF},
		{name: "binary.exe", category: entity.CategoryUnsupported},
		{name: "noext", category: entity.CategoryUnsupported},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			kind := Classify(tc.name)
			require.Equal(t, tc.category, kind.Category)
			require.Equal(t, tc.format, kind.Format)
			require.Equal(t, tc.language, kind.Language)
			require.NotEmpty(t, kind.MIMEType)
		})
	}
}

func TestClassifyUnsupportedMIMEType(t *testing.T) {
	require.Equal(t, MIMETypeUnknown, Classify("blob.bin").MIMEType)
}

func TestStem(t *testing.T) {
	require.Equal(t, "bundle", Stem("/tmp/bundle.tar.gz"))
	require.Equal(t, "Bundle", Stem("Bundle.TAR.GZ"))
	require.Equal(t, "data", Stem("data.zip"))
	require.Equal(t, "noext", Stem("noext"))
}
