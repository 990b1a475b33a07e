package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault_RendersBasicMarkdown(t *testing.T) {
	convert := Default()

	out, err := convert("# Heading\n\nSome *text*.\n")
	require.NoError(t, err)
	require.Contains(t, out, "<h1")
	require.Contains(t, out, "<em>text</em>")
}

func TestDefault_RendersTables(t *testing.T) {
	convert := Default()

	out, err := convert("| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	require.Contains(t, out, "<table>")
}

func TestDefault_RendersFencedCode(t *testing.T) {
	convert := Default()

	out, err := convert("```go\nfmt.Println(42)\n```\n")
	require.NoError(t, err)
	require.Contains(t, out, "<pre><code")
}

func TestDefault_RendersFootnotes(t *testing.T) {
	convert := Default()

	out, err := convert("text[^1]\n\n[^1]: a footnote\n")
	require.NoError(t, err)
	require.Contains(t, out, "fn:1")
}

func TestDefault_PassesRawHTMLThrough(t *testing.T) {
	convert := Default()

	out, err := convert("<!--excerpt-start-->text<!--excerpt-end-->\n")
	require.NoError(t, err)
	require.Contains(t, out, "<!--excerpt-start-->")
}
