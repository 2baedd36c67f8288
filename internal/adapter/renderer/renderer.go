package renderer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jgivc/fileviewer/internal/adapter/classifier"
	"github.com/jgivc/fileviewer/internal/adapter/mdadapter"
	"github.com/jgivc/fileviewer/internal/config"
	"github.com/jgivc/fileviewer/internal/entity"
	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

const (
	languageMarkdown = "markdown"
	sniffSize        = 512
	dataURIPDFPrefix = "data:application/pdf;base64,"
	mimeTypeSVG      = "image/svg+xml"
)

// Resolver maps a local path to the url its bytes are served from.
type Resolver interface {
	RawURL(path string) (string, bool)
}

type renderer struct {
	fs  afero.Fs
	cfg *config.RenderConfig
	md  goldmark.Markdown
	log *slog.Logger
}

func NewRenderer(cfg *config.RenderConfig, log *slog.Logger) *renderer {
	return NewRendererWithFS(afero.NewOsFs(), cfg, log)
}

func NewRendererWithFS(fs afero.Fs, cfg *config.RenderConfig, log *slog.Logger) *renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			&frontmatter.Extender{},
			mdadapter.NewLinksExtension(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	return &renderer{
		fs:  fs,
		cfg: cfg,
		md:  md,
		log: log.With(slog.String("item", "Renderer")),
	}
}

// Render builds the inline preview of file. It never fails: problems are
// reported through Preview.Warning so the rest of the file set stays usable.
func (r *renderer) Render(file *entity.File, res Resolver) *entity.Preview {
	p := &entity.Preview{File: file}

	if res != nil {
		if rawURL, ok := res.RawURL(file.SourcePath); ok {
			p.RawURL = rawURL
		}
	}

	var err error

	switch file.Kind.Category {
	case entity.CategoryPDF:
		err = r.renderPDF(p)
	case entity.CategoryImage:
		err = r.renderImage(p)
	case entity.CategoryVideo:
		err = r.checkReadable(file.SourcePath)
	case entity.CategoryText:
		err = r.renderText(p, res)
	default:
		// Archives found inside the file set fall here too.
		err = r.checkReadable(file.SourcePath)
	}

	if err != nil {
		r.log.Warn("Cannot render file", slog.String("path", file.SourcePath), slog.Any("error", err))
		p.Warning = fmt.Sprintf("Cannot preview %s: %s", file.Name, err)
	}

	return p
}

func (r *renderer) renderPDF(p *entity.Preview) error {
	data, err := afero.ReadFile(r.fs, p.File.SourcePath)
	if err != nil {
		return err
	}

	p.DataURI = template.URL(dataURIPDFPrefix + base64.StdEncoding.EncodeToString(data))

	return nil
}

func (r *renderer) renderImage(p *entity.Preview) error {
	if p.File.Kind.MIMEType == mimeTypeSVG {
		return r.checkReadable(p.File.SourcePath)
	}

	head, err := r.readHead(p.File.SourcePath, sniffSize)
	if err != nil {
		return err
	}

	if contentType := http.DetectContentType(head); !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("not valid image data (%s)", contentType)
	}

	return nil
}

func (r *renderer) renderText(p *entity.Preview, res Resolver) error {
	limit := r.cfg.MaxTextSize

	// One extra byte tells a file of exactly limit bytes from a larger one.
	var n int64
	if limit > 0 {
		n = limit + 1
	}

	data, err := r.readHead(p.File.SourcePath, n)
	if err != nil {
		return err
	}

	truncated := limit > 0 && int64(len(data)) > limit
	if truncated {
		data = trimToValidUTF8(data[:limit])
	}

	if !utf8.Valid(data) {
		return fmt.Errorf("not valid UTF-8 text")
	}

	p.Text = string(data)

	if truncated {
		p.Warning = fmt.Sprintf("File is larger than %d bytes, preview is truncated", limit)
	}

	if p.File.Kind.Language != languageMarkdown {
		return nil
	}

	if err := r.renderMarkdown(p, data, res); err != nil {
		r.log.Warn("Cannot convert markdown, showing source", slog.String("path", p.File.SourcePath), slog.Any("error", err))
	}

	return nil
}

func (r *renderer) renderMarkdown(p *entity.Preview, data []byte, res Resolver) error {
	pc := parser.NewContext()
	pc.Set(mdadapter.ResolverKey, mdadapter.Resolver(res))
	pc.Set(mdadapter.BaseDirKey, filepath.Dir(p.File.SourcePath))

	var buf bytes.Buffer
	if err := r.md.Convert(data, &buf, parser.WithContext(pc)); err != nil {
		return fmt.Errorf("cannot convert markdown: %w", err)
	}

	p.HTML = template.HTML(buf.String())

	if fm := frontmatter.Get(pc); fm != nil {
		var meta struct {
			Title string `yaml:"title"`
		}

		if err := fm.Decode(&meta); err != nil {
			r.log.Debug("Cannot decode frontmatter", slog.String("path", p.File.SourcePath), slog.Any("error", err))
		} else {
			p.Title = meta.Title
		}
	}

	return nil
}

// readHead reads at most n bytes of the file, n <= 0 reads all of it.
func (r *renderer) readHead(path string, n int64) ([]byte, error) {
	file, err := r.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var src io.Reader = file
	if n > 0 {
		src = io.LimitReader(file, n)
	}

	return io.ReadAll(src)
}

func (r *renderer) checkReadable(path string) error {
	file, err := r.fs.Open(path)
	if err != nil {
		return err
	}

	return file.Close()
}

// trimToValidUTF8 drops a rune cut in half at the end of data.
func trimToValidUTF8(data []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(data) > 0 && !utf8.Valid(data); i++ {
		data = data[:len(data)-1]
	}

	return data
}

// Language returns the highlighting hint for a preview, plaintext when unknown.
func Language(kind entity.Kind) string {
	if kind.Language == "" {
		return classifier.LanguagePlain
	}

	return kind.Language
}
