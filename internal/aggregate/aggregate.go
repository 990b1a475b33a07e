// Package aggregate computes the post listings surfaced on index pages:
// per-folder listings, the home listing, category and archive groupings, and
// paginated views.
//
// All computations read the tree's shape at call time. If the caller mutates
// the tree afterwards, previously computed listings are stale and must be
// recomputed; nothing here auto-invalidates.
package aggregate

import (
	"sort"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/tree"
)

// PublishDateKey is the UserData key carrying a node's resolved publish
// date (a time.Time), set by the content-processing phase.
const PublishDateKey = "publish_date"

// Mode selects which descendants a folder's listing includes.
type Mode int

const (
	// ModeDirect includes only posts that are direct children of the folder.
	ModeDirect Mode = iota
	// ModeRecursive includes all post descendants regardless of depth.
	ModeRecursive
)

// EffectiveDate returns the node's ordering date: the resolved publish date
// when present, otherwise the source file timestamp. ok is false when the
// node has neither (synthetic nodes without dates).
func EffectiveDate(n *tree.Node) (time.Time, bool) {
	if d, ok := n.UserData[PublishDateKey].(time.Time); ok && !d.IsZero() {
		return d, true
	}
	if !n.SourceTimestamp.IsZero() {
		return n.SourceTimestamp, true
	}
	return time.Time{}, false
}

// SortPosts orders posts by effective date descending, breaking ties by name
// ascending. Posts without any date sort last, keeping their relative input
// order. The sort is in place and stable.
func SortPosts(posts []*tree.Node) {
	sort.SliceStable(posts, func(i, j int) bool {
		di, oki := EffectiveDate(posts[i])
		dj, okj := EffectiveDate(posts[j])

		switch {
		case oki && !okj:
			return true
		case !oki:
			return false
		case !di.Equal(dj):
			return di.After(dj)
		default:
			return posts[i].Name < posts[j].Name
		}
	})
}

// Posts computes a folder's listing in the given mode, sorted.
func Posts(folder *tree.Node, mode Mode) []*tree.Node {
	var posts []*tree.Node

	switch mode {
	case ModeRecursive:
		for _, n := range tree.Leaves(folder) {
			if n.IsPost() {
				posts = append(posts, n)
			}
		}
	default:
		for _, n := range folder.Children() {
			if n.IsPost() {
				posts = append(posts, n)
			}
		}
	}

	SortPosts(posts)
	return posts
}

// IndexOptions selects which index-less folders receive a generated listing
// index and how the listing is computed.
type IndexOptions struct {
	Mode Mode

	// Include/Exclude select folders by name or path. At most one is used;
	// Include wins when both are set.
	Include []string
	Exclude []string

	// PerPage > 0 paginates each generated listing.
	PerPage int
}

// BuildIndexes synthesizes an aggregated index page for every folder under
// root (excluding root itself) that lacks one, subject to the
// include/exclude selection. Returns the folders that received an index.
func BuildIndexes(root *tree.Node, opts IndexOptions) ([]*tree.Node, error) {
	var candidates []*tree.Node
	for n := range tree.Filter(root, func(n *tree.Node) bool {
		return n != root && n.Kind == tree.KindFolder && n.Index() == nil
	}) {
		candidates = append(candidates, n)
	}

	selected := selectNodes(candidates, opts.Include, opts.Exclude)
	for _, folder := range selected {
		listing := tree.NewListing(folder.Name, Posts(folder, opts.Mode))
		folder.SetIndex(listing)

		if opts.PerPage > 0 {
			if _, err := Paginate(listing, opts.PerPage); err != nil {
				return nil, err
			}
		}
	}
	return selected, nil
}

// HomeOptions controls the root listing.
type HomeOptions struct {
	Mode Mode

	// Include/Exclude select posts by their parent folder's name or path.
	Include []string
	Exclude []string

	PerPage int
}

// Home computes the root's listing. It is always computed and returned,
// whether or not the root has explicit index content; when the root lacks an
// index, a synthetic listing page named "home" is installed as one.
func Home(root *tree.Node, opts HomeOptions) ([]*tree.Node, error) {
	var posts []*tree.Node
	switch opts.Mode {
	case ModeDirect:
		posts = Posts(root, ModeDirect)
	default:
		posts = Posts(root, ModeRecursive)
	}

	if len(opts.Include) > 0 || len(opts.Exclude) > 0 {
		filtered := posts[:0:0]
		for _, p := range posts {
			parent := p.Parent()
			if parent == nil {
				continue
			}
			if len(selectNodes([]*tree.Node{parent}, opts.Include, opts.Exclude)) == 1 {
				filtered = append(filtered, p)
			}
		}
		posts = filtered
	}

	if root.Index() == nil {
		listing := tree.NewListing("home", posts)
		root.SetIndex(listing)
		if opts.PerPage > 0 {
			if _, err := Paginate(listing, opts.PerPage); err != nil {
				return nil, err
			}
		}
	}

	return posts, nil
}

// selectNodes applies include/exclude matching by node name or path.
func selectNodes(nodes []*tree.Node, include, exclude []string) []*tree.Node {
	if len(include) > 0 {
		var out []*tree.Node
		for _, n := range nodes {
			if matchesAny(n, include) {
				out = append(out, n)
			}
		}
		return out
	}
	if len(exclude) > 0 {
		var out []*tree.Node
		for _, n := range nodes {
			if !matchesAny(n, exclude) {
				out = append(out, n)
			}
		}
		return out
	}
	return nodes
}

func matchesAny(n *tree.Node, patterns []string) bool {
	for _, p := range patterns {
		if n.Name == p || n.Path() == p {
			return true
		}
	}
	return false
}
