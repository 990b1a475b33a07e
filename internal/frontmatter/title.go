package frontmatter

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// DeriveTitle produces a display title from a node name: underscores become
// spaces and each word is title-cased. Used when the metadata block does not
// carry an explicit title.
func DeriveTitle(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}

// Title returns the explicit title from metadata or derives one from name.
func Title(metadata map[string]any, name string) string {
	if t, ok := metadata["title"].(string); ok && t != "" {
		return t
	}
	return DeriveTitle(name)
}
