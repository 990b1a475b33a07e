package frontmatter

import (
	"strings"

	"golang.org/x/net/html"
)

const (
	excerptStartTag = "<!--excerpt-start-->"
	excerptEndTag   = "<!--excerpt-end-->"

	// Without explicit markers the excerpt runs to the first space after this
	// many characters of clean text.
	excerptFallbackLength = 250
)

// Excerpt extracts a short plain-text excerpt from rendered content.
//
// If the content carries excerpt markers the delimited region is used,
// otherwise the first ~250 characters of tag-stripped text.
func Excerpt(content string) string {
	if content == "" {
		return ""
	}

	if strings.Contains(content, excerptStartTag) || strings.Contains(content, excerptEndTag) {
		excerpt := content
		if _, after, found := strings.Cut(excerpt, excerptStartTag); found {
			excerpt = after
		}
		if before, _, found := strings.Cut(excerpt, excerptEndTag); found {
			excerpt = before
		}
		return collapse(stripHTML(excerpt))
	}

	clean := stripHTML(content)
	if len(clean) <= excerptFallbackLength {
		return collapse(clean)
	}

	end := excerptFallbackLength
	for end < len(clean) && clean[end] != ' ' {
		end++
	}
	return collapse(clean[:end])
}

// stripHTML drops tags and keeps text content, using a tolerant tokenizer so
// partial or malformed markup never fails the excerpt.
func stripHTML(fragment string) string {
	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(tokenizer.Text())
		}
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
