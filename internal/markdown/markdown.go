// Package markdown provides the default markup converter for the pipeline.
//
// The pipeline treats markup conversion as a pure function from body text to
// HTML; any converter satisfying the Converter contract can be plugged in.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Converter turns raw markup into HTML. The pipeline calls it exactly once
// per document, after metadata extraction.
type Converter func(body string) (string, error)

// Default returns a goldmark-backed converter with footnotes, tables,
// strikethrough, autolinks, typographic replacements and heading anchors
// enabled.
func Default() Converter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)

	return func(body string) (string, error) {
		var buf bytes.Buffer
		if err := md.Convert([]byte(body), &buf); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
}
