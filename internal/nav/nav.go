// Package nav derives the URL-facing view of the content tree: canonical
// hrefs, breadcrumb chains and the site navigation structure.
//
// Everything here is computed on demand from the tree's current shape.
// Nothing is cached, so hrefs stay correct across reparenting; callers that
// mutate the tree after computing navigation must recompute it.
package nav

import (
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
	"git.home.luguber.info/inful/sitegen/internal/tree"
)

// Options controls href rendering.
type Options struct {
	// Lowercase folds hrefs to lower case. Default preserves the case of
	// node names.
	Lowercase bool
}

// Href computes the canonical href of a node: the slash-joined chain of
// ancestor names from the root. The root's href is "/". Index pages (and
// therefore page 1 of any pagination) resolve to their folder's href, which
// keeps `{folder}` canonical and `{folder}/page1` a render-time alias only.
func Href(n *tree.Node, opts Options) string {
	href := n.Path()
	if n.IsIndex() {
		href = n.Parent().Path()
	}
	if opts.Lowercase {
		href = strings.ToLower(href)
	}
	return href
}

// Crumb is one entry of a breadcrumb chain. An empty Href marks a non-link
// crumb (the current position, or a folder with no index of its own).
type Crumb struct {
	Label string
	Href  string
}

// Breadcrumbs computes the ordered crumb chain from the root to the node
// inclusive. The final crumb is unlinked, except on paginated pages past
// page 1 where it links back to page 1 so the current section stays
// reachable.
func Breadcrumbs(n *tree.Node, opts Options) []Crumb {
	current := n
	label := frontmatter.Title(n.Metadata, n.Name)
	if n.IsIndex() {
		// An index page stands for its folder.
		current = n.Parent()
		if current.Kind != tree.KindRoot {
			label = frontmatter.Title(n.Metadata, current.Name)
		} else {
			label = "home"
		}
	}

	var crumbs []Crumb
	ancestors := current.Ancestors()
	for i := len(ancestors) - 1; i >= 0; i-- {
		a := ancestors[i]
		switch {
		case a.Kind == tree.KindRoot:
			crumbs = append(crumbs, Crumb{Label: "home", Href: Href(a, opts)})
		case a.Index() != nil:
			crumbs = append(crumbs, Crumb{Label: frontmatter.DeriveTitle(a.Name), Href: Href(a, opts)})
		default:
			crumbs = append(crumbs, Crumb{Label: frontmatter.DeriveTitle(a.Name)})
		}
	}

	final := Crumb{Label: label}
	if p := n.Pagination; p != nil && p.PageNumber > 1 && p.First != nil {
		final.Href = Href(p.First, opts)
	}
	return append(crumbs, final)
}

// Entry is one node of the navigation structure. A folder without an index
// page becomes a label-only submenu header (empty Href) while still listing
// its children.
type Entry struct {
	Label    string
	Href     string
	Children []Entry
}

// BuildOptions controls which nodes enter the navigation.
type BuildOptions struct {
	Options

	// HomeName, when set, prepends a home entry with this label.
	HomeName string

	// Exclude lists node names or paths to leave out.
	Exclude []string

	// IncludePosts whitelists posts (excluded by default) by name or path.
	IncludePosts []string
}

// Build computes the nested navigation structure from the root's children
// downward. Nesting depth mirrors tree depth exactly; posts are excluded
// unless whitelisted, and paginated pages past page 1 never appear.
func Build(root *tree.Node, opts BuildOptions) []Entry {
	entries := buildLevel(root, opts)
	if opts.HomeName != "" {
		entries = append([]Entry{{Label: opts.HomeName, Href: "/"}}, entries...)
	}
	return entries
}

func buildLevel(parent *tree.Node, opts BuildOptions) []Entry {
	var entries []Entry
	for _, n := range parent.Children() {
		if excluded(n, opts.Exclude) {
			continue
		}

		if n.Kind == tree.KindFolder {
			entry := Entry{
				Label:    frontmatter.DeriveTitle(n.Name),
				Children: buildLevel(n, opts),
			}
			if n.Index() != nil {
				entry.Href = Href(n, opts.Options)
			}
			entries = append(entries, entry)
			continue
		}

		if p := n.Pagination; p != nil && p.PageNumber > 1 {
			continue
		}
		if n.IsPost() && !whitelisted(n, opts.IncludePosts) {
			continue
		}

		entries = append(entries, Entry{
			Label: frontmatter.Title(n.Metadata, n.Name),
			Href:  Href(n, opts.Options),
		})
	}
	return entries
}

func excluded(n *tree.Node, patterns []string) bool {
	for _, p := range patterns {
		if n.Name == p || n.Path() == p {
			return true
		}
	}
	return false
}

func whitelisted(n *tree.Node, patterns []string) bool {
	for _, p := range patterns {
		if n.Name == p || n.Path() == p {
			return true
		}
	}
	return false
}
