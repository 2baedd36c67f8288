package renderer

import (
	"encoding/base64"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/jgivc/fileviewer/internal/adapter/classifier"
	"github.com/jgivc/fileviewer/internal/config"
	"github.com/jgivc/fileviewer/internal/entity"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

type mapResolver map[string]string

func (r mapResolver) RawURL(path string) (string, bool) {
	u, ok := r[path]

	return u, ok
}

func newTestRenderer(t *testing.T, maxTextSize int64, files map[string][]byte) *renderer {
	t.Helper()

	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, content, 0o644))
	}

	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	return NewRendererWithFS(fs, &config.RenderConfig{MaxTextSize: maxTextSize}, log)
}

func fileAt(path string) *entity.File {
	return &entity.File{
		Name:       path[strings.LastIndex(path, "/")+1:],
		SourcePath: path,
		Kind:       classifier.Classify(path),
	}
}

func TestRender(t *testing.T) {
	files := map[string][]byte{
		"/root/doc.pdf":      []byte("%PDF-1.4 fake"),
		"/root/b.png":        pngHeader,
		"/root/fake.png":     []byte("just text"),
		"/root/clip.mp4":     []byte("video"),
		"/root/main.py":      []byte("print('hi')\n"),
		"/root/notes.txt":    []byte("plain notes"),
		"/root/bin.exe":      {0, 1, 2, 3},
		"/root/latin1.txt":   {'c', 'a', 'f', 0xe9},
		"/root/nested.zip":   []byte("PK"),
		"/root/img/logo.png": pngHeader,
		"/root/README.md":    []byte("---\ntitle: Hello\n---\n# Head\n\n![logo](img/logo.png)\n\n<script>alert(1)</script>\n"),
	}
	res := mapResolver{}
	for path := range files {
		res[path] = "/raw" + path + "/"
	}

	r := newTestRenderer(t, 1<<20, files)

	t.Run("PDF", func(t *testing.T) {
		p := r.Render(fileAt("/root/doc.pdf"), res)
		require.Empty(t, p.Warning)
		require.Equal(t, "data:application/pdf;base64,"+base64.StdEncoding.EncodeToString(files["/root/doc.pdf"]), string(p.DataURI))
	})

	t.Run("Image", func(t *testing.T) {
		p := r.Render(fileAt("/root/b.png"), res)
		require.Empty(t, p.Warning)
		require.Equal(t, "/raw/root/b.png/", p.RawURL)
	})

	t.Run("Invalid image", func(t *testing.T) {
		p := r.Render(fileAt("/root/fake.png"), res)
		require.Contains(t, p.Warning, "not valid image data")
	})

	t.Run("Video", func(t *testing.T) {
		p := r.Render(fileAt("/root/clip.mp4"), res)
		require.Empty(t, p.Warning)
		require.Equal(t, "/raw/root/clip.mp4/", p.RawURL)
	})

	t.Run("Code", func(t *testing.T) {
		p := r.Render(fileAt("/root/main.py"), res)
		require.Empty(t, p.Warning)
		require.Equal(t, "print('hi')\n", p.Text)
		require.Equal(t, "python", Language(p.File.Kind))
		require.Empty(t, p.HTML)
	})

	t.Run("Plain text", func(t *testing.T) {
		p := r.Render(fileAt("/root/notes.txt"), res)
		require.Equal(t, "plain notes", p.Text)
		require.Equal(t, classifier.LanguagePlain, Language(p.File.Kind))
	})

	t.Run("Invalid text", func(t *testing.T) {
		p := r.Render(fileAt("/root/latin1.txt"), res)
		require.Contains(t, p.Warning, "UTF-8")
		require.Empty(t, p.Text)
	})

	t.Run("Unsupported", func(t *testing.T) {
		p := r.Render(fileAt("/root/bin.exe"), res)
		require.Empty(t, p.Warning)
		require.Empty(t, p.Text)
		require.Equal(t, "/raw/root/bin.exe/", p.RawURL)
	})

	t.Run("Nested archive", func(t *testing.T) {
		p := r.Render(fileAt("/root/nested.zip"), res)
		require.Empty(t, p.Warning)
		require.Equal(t, "/raw/root/nested.zip/", p.RawURL)
	})

	t.Run("Markdown", func(t *testing.T) {
		p := r.Render(fileAt("/root/README.md"), res)
		require.Empty(t, p.Warning)
		require.Equal(t, "Hello", p.Title)
		require.Contains(t, string(p.HTML), "<h1>Head</h1>")
		require.Contains(t, string(p.HTML), `src="/raw/root/img/logo.png/"`)
		require.NotContains(t, string(p.HTML), "<script>")
		require.Contains(t, p.Text, "# Head")
	})

	t.Run("Missing file", func(t *testing.T) {
		for _, path := range []string{"/root/gone.txt", "/root/gone.png", "/root/gone.pdf", "/root/gone.bin"} {
			p := r.Render(fileAt(path), res)
			require.NotEmpty(t, p.Warning, path)
		}
	})
}

func TestRenderTruncatesLargeText(t *testing.T) {
	r := newTestRenderer(t, 4, map[string][]byte{
		"/root/big.txt":   []byte("abcdefgh"),
		"/root/exact.txt": []byte("abcd"),
		"/root/utf.txt":   []byte("abcé"), // é is two bytes, cut in half at 4
	})

	p := r.Render(fileAt("/root/big.txt"), mapResolver{})
	require.Equal(t, "abcd", p.Text)
	require.Contains(t, p.Warning, "truncated")

	p = r.Render(fileAt("/root/exact.txt"), mapResolver{})
	require.Equal(t, "abcd", p.Text)
	require.Empty(t, p.Warning)

	p = r.Render(fileAt("/root/utf.txt"), mapResolver{})
	require.Equal(t, "abc", p.Text)
	require.Contains(t, p.Warning, "truncated")
}

func TestRenderUnlimitedText(t *testing.T) {
	r := newTestRenderer(t, 0, map[string][]byte{"/root/a.txt": []byte("abcdefgh")})

	p := r.Render(fileAt("/root/a.txt"), nil)
	require.Equal(t, "abcdefgh", p.Text)
	require.Empty(t, p.Warning)
	require.Empty(t, p.RawURL)
}
