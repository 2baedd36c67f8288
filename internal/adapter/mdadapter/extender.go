package mdadapter

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/util"
)

var (
	// ResolverKey holds the Resolver used to rewrite links.
	ResolverKey = parser.NewContextKey()
	// BaseDirKey holds the directory of the markdown file being converted.
	BaseDirKey = parser.NewContextKey()
)

// Resolver maps a local file path to the url it is served from.
type Resolver interface {
	RawURL(path string) (string, bool)
}

// LinksExtension rewrites relative links and images that point at files
// of the current file set. Links without a match are left untouched.
type LinksExtension struct{}

func NewLinksExtension() goldmark.Extender {
	return &LinksExtension{}
}

func (e *LinksExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithASTTransformers(
			util.Prioritized(NewLinksTransformer(), 500),
		),
	)
}
