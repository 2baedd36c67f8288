package tpladapter

import (
	"html/template"
	"os"
	"path/filepath"
	"testing"

	"github.com/jgivc/fileviewer/internal/adapter/classifier"
	"github.com/jgivc/fileviewer/internal/entity"
	"github.com/stretchr/testify/require"
)

func testFile(name string) *entity.File {
	return &entity.File{
		ID:        "da39a3ee5e6b4b0d3255bfef95601890afd80709",
		Name:      name,
		RelPath:   "sub/" + name,
		SizeHuman: "3 B",
		Kind:      classifier.Classify(name),
	}
}

func TestRenderDefaultTemplate(t *testing.T) {
	a, err := NewTplAdapter("")
	require.NoError(t, err)

	code := testFile("main.py")
	img := testFile("b.png")
	md := testFile("README.md")
	pdf := testFile("doc.pdf")

	testCases := []struct {
		name     string
		page     *entity.Page
		contains []string
		excludes []string
	}{
		{
			name:     "Empty",
			page:     &entity.Page{},
			contains: []string{`action="/process/"`, "No files."},
			excludes: []string{`action="/bundle/"`},
		},
		{
			name: "Listing",
			page: &entity.Page{
				Session: &entity.Session{Source: "http://example.com/a.zip"},
				Notice:  &entity.Notice{Level: entity.NoticeError, Text: "Cannot extract <a.zip>"},
				Files:   []*entity.File{code, img},
				Query:   "py",
			},
			contains: []string{
				`value="http://example.com/a.zip"`,
				`class="notice error"`,
				"Cannot extract &lt;a.zip&gt;",
				`value="da39a3ee5e6b4b0d3255bfef95601890afd80709"`,
				"sub/main.py",
				`name="all" value="1"`,
				`class="image"`,
			},
		},
		{
			name: "Code preview",
			page: &entity.Page{
				Files:   []*entity.File{code},
				Preview: &entity.Preview{File: code, Text: "print('<hi>')", RawURL: "/raw/x/"},
			},
			contains: []string{`class="text current"`, `class="language-python"`, "print(&#39;&lt;hi&gt;&#39;)", `href="/raw/x/"`},
		},
		{
			name: "Image preview",
			page: &entity.Page{
				Preview: &entity.Preview{File: img, RawURL: "/raw/y/"},
			},
			contains: []string{`<img class="preview" src="/raw/y/"`},
		},
		{
			name: "Broken image",
			page: &entity.Page{
				Preview: &entity.Preview{File: img, RawURL: "/raw/y/", Warning: "Cannot preview b.png"},
			},
			contains: []string{`class="warning"`, "Cannot preview b.png"},
			excludes: []string{"<img"},
		},
		{
			name: "Markdown preview",
			page: &entity.Page{
				Preview: &entity.Preview{File: md, Title: "Hello", HTML: template.HTML("<h1>Head</h1>"), Text: "# Head"},
			},
			contains: []string{"<h2>Hello</h2>", "<article><h1>Head</h1></article>"},
			excludes: []string{"<pre>"},
		},
		{
			name: "PDF preview",
			page: &entity.Page{
				Preview: &entity.Preview{File: pdf, DataURI: template.URL("data:application/pdf;base64,QUJD")},
			},
			contains: []string{`<iframe class="preview" src="data:application/pdf;base64,QUJD"`},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := a.Render(tc.page)
			require.NoError(t, err)

			for _, s := range tc.contains {
				require.Contains(t, string(out), s)
			}

			for _, s := range tc.excludes {
				require.NotContains(t, string(out), s)
			}
		})
	}
}

func TestCustomTemplate(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.html")
	require.NoError(t, os.WriteFile(good, []byte(`{{ range .Files }}{{ rawURL .ID }} {{ category .Kind }} {{ language .Kind }};{{ end }}`), 0o644))

	a, err := NewTplAdapter(good)
	require.NoError(t, err)

	out, err := a.Render(&entity.Page{Files: []*entity.File{testFile("notes.txt"), testFile("app.bin")}})
	require.NoError(t, err)
	require.Equal(t,
		"/raw/da39a3ee5e6b4b0d3255bfef95601890afd80709/ text plaintext;/raw/da39a3ee5e6b4b0d3255bfef95601890afd80709/ unsupported plaintext;",
		string(out),
	)

	bad := filepath.Join(dir, "bad.html")
	require.NoError(t, os.WriteFile(bad, []byte(`{{ range .Files }}`), 0o644))

	_, err = NewTplAdapter(bad)
	require.Error(t, err)

	_, err = NewTplAdapter(filepath.Join(dir, "missing.html"))
	require.Error(t, err)
}
