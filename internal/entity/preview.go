package entity

import "html/template"

// Preview describes how a single file is shown inline.
type Preview struct {
	File    *File
	Text    string        // Text/code content
	HTML    template.HTML // Rendered markdown
	Title   string        // Markdown frontmatter title
	DataURI template.URL  // Embedded PDF
	RawURL  string
	Warning string
}
