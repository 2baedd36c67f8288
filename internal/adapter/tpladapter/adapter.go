package tpladapter

import (
	"bytes"
	"fmt"
	"html/template"
	"os"

	_ "embed"

	"github.com/jgivc/fileviewer/internal/adapter/fsadapter"
	"github.com/jgivc/fileviewer/internal/adapter/renderer"
	"github.com/jgivc/fileviewer/internal/entity"
)

const (
	funcNameRawURL   = "rawURL"
	funcNameLanguage = "language"
	funcNameCategory = "category"
	funcNameSelected = "selected"
)

//go:embed template.html
var defaultTemplate string

type tplAdapter struct {
	tpl *template.Template
}

// NewTplAdapter parses the page template. An empty templateFileName selects
// the embedded one.
func NewTplAdapter(templateFileName string) (*tplAdapter, error) {
	tpl := template.New("page").Funcs(template.FuncMap{
		funcNameRawURL:   fsadapter.RawURL,
		funcNameLanguage: renderer.Language,
		funcNameCategory: category,
		funcNameSelected: selected,
	})

	src := defaultTemplate
	if templateFileName != "" {
		data, err := os.ReadFile(templateFileName)
		if err != nil {
			return nil, fmt.Errorf("cannot read template: %w", err)
		}

		src = string(data)
	}

	if _, err := tpl.Parse(src); err != nil {
		return nil, fmt.Errorf("cannot parse template: %w", err)
	}

	return &tplAdapter{tpl: tpl}, nil
}

func (a *tplAdapter) Render(page *entity.Page) ([]byte, error) {
	buf := bytes.Buffer{}
	if err := a.tpl.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("cannot execute template: %w", err)
	}

	return buf.Bytes(), nil
}

// category returns the lowercase kind name used as css class and switch key.
func category(kind entity.Kind) string {
	switch kind.Category {
	case entity.CategoryArchive:
		return "archive"
	case entity.CategoryImage:
		return "image"
	case entity.CategoryVideo:
		return "video"
	case entity.CategoryText:
		return "text"
	case entity.CategoryPDF:
		return "pdf"
	}

	return "unsupported"
}

func selected(preview *entity.Preview, file *entity.File) bool {
	return preview != nil && preview.File != nil && file != nil && preview.File.ID == file.ID
}
