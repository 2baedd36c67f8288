package mdadapter

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

type LinksTransformer struct{}

func NewLinksTransformer() parser.ASTTransformer {
	return &LinksTransformer{}
}

func (t *LinksTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	res, ok := pc.Get(ResolverKey).(Resolver)
	if !ok || res == nil {
		return
	}

	baseDir, _ := pc.Get(BaseDirKey).(string)

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Link:
			if dest, ok := resolve(res, baseDir, node.Destination); ok {
				node.Destination = dest
			}
		case *ast.Image:
			if dest, ok := resolve(res, baseDir, node.Destination); ok {
				node.Destination = dest
			}
		}

		return ast.WalkContinue, nil
	})
}

func resolve(res Resolver, baseDir string, destination []byte) ([]byte, bool) {
	dest := string(destination)
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "/") {
		return nil, false
	}

	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return nil, false
	}

	rawURL, ok := res.RawURL(filepath.Join(baseDir, filepath.FromSlash(u.Path)))
	if !ok {
		return nil, false
	}

	if u.Fragment != "" {
		rawURL += "#" + u.Fragment
	}

	return []byte(rawURL), true
}
