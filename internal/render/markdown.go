// Package render converts reports into HTML fragments, SVG charts and PDF
// documents.
package render

import (
	"bytes"
	"html/template"

	"github.com/rotisserie/eris"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Raw HTML in the source is dropped by goldmark's default renderer, so the
// output is safe to embed in pages.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// MarkdownHTML converts GitHub-flavoured markdown to an HTML fragment.
func MarkdownHTML(source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", eris.Wrap(err, "render: markdown convert")
	}
	return template.HTML(buf.String()), nil
}
