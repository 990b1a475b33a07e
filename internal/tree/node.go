// Package tree implements the content tree: a mutable hierarchy of folders
// and pages built from a content directory, reshaped by callers between
// pipeline phases and read by the aggregation and navigation layers.
//
// The tree is ordinary shared mutable state with no locking. The intended
// model is build → caller mutates → pipeline computes; concurrent mutation is
// unsupported.
package tree

import (
	"fmt"
	"time"
)

// Kind discriminates the node variants.
type Kind int

const (
	KindRoot Kind = iota
	KindFolder
	KindPage
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "Root"
	case KindFolder:
		return "Folder"
	case KindPage:
		return "Page"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is an element of the content tree. Root and Folder nodes carry
// children; Page nodes carry content. Shared capabilities (name, parent,
// user data) live on the struct, variant payloads are nil for kinds that do
// not use them.
type Node struct {
	Name string
	Kind Kind

	// Metadata is the parsed metadata block for pages; empty for folders
	// unless explicitly set.
	Metadata map[string]any

	// Body is the raw text remaining after metadata extraction; HTML is the
	// converted markup, populated exactly once by the pipeline.
	Body string
	HTML string

	// UserData carries computed or caller-defined fields (author, excerpt,
	// publish date) without polluting the structural fields.
	UserData map[string]any

	// SourcePath and SourceTimestamp identify the backing file; zero for
	// synthetic nodes.
	SourcePath      string
	SourceTimestamp time.Time

	// Listing payload, set on synthetic aggregated pages only.
	Posts      []*Node
	Groups     []Group
	Pagination *Pagination

	parent   *Node
	children []*Node
	index    *Node
}

// Group is one bucket of a grouped listing, e.g. a category or archive month.
type Group struct {
	Key   string
	Posts []*Node
}

// Pagination links the pages split out of one aggregated listing.
type Pagination struct {
	PageNumber int
	PageCount  int
	First      *Node
	Last       *Node
	Prev       *Node
	Next       *Node
}

// NewRoot creates the root node. Its name is fixed to "/".
func NewRoot() *Node {
	return &Node{Name: "/", Kind: KindRoot, UserData: map[string]any{}}
}

// NewFolder creates an unparented folder node.
func NewFolder(name string) *Node {
	return &Node{Name: name, Kind: KindFolder, UserData: map[string]any{}}
}

// NewPage creates an unparented page node.
func NewPage(name string) *Node {
	return &Node{
		Name:     name,
		Kind:     KindPage,
		Metadata: map[string]any{},
		UserData: map[string]any{},
	}
}

// NewListing creates a synthetic page aggregating the given posts. The
// listing payload is non-nil even for an empty post set, which is what
// distinguishes an (empty) listing from a regular page.
func NewListing(name string, posts []*Node) *Node {
	n := NewPage(name)
	if posts == nil {
		posts = []*Node{}
	}
	n.Posts = posts
	return n
}

// NewGroupedListing creates a synthetic page aggregating grouped posts.
func NewGroupedListing(name string, groups []Group) *Node {
	n := NewPage(name)
	n.Groups = groups
	return n
}

// Parent returns the node's parent, nil for the root and detached subtrees.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's ordered children. The slice is live tree
// state; use Reparent/Remove to modify it.
func (n *Node) Children() []*Node { return n.children }

// Index returns the folder's index page, if any. The index page is parented
// to the folder but is not among its children.
func (n *Node) Index() *Node { return n.index }

// SetIndex installs page as the folder's index, detaching it from wherever
// it currently lives. A nil page clears the index.
func (n *Node) SetIndex(page *Node) {
	if n.index != nil {
		n.index.parent = nil
	}
	if page == nil {
		n.index = nil
		return
	}
	if page.parent != nil {
		if page.IsIndex() {
			page.parent.index = nil
		} else {
			page.parent.removeChild(page)
		}
	}
	n.index = page
	page.parent = n
}

// IsIndex reports whether the node is its parent's index page.
func (n *Node) IsIndex() bool {
	return n.parent != nil && n.parent.index == n
}

// IsLeaf reports whether the node is a page (of any provenance).
func (n *Node) IsLeaf() bool { return n.Kind == KindPage }

// IsPage reports whether the node is top-level content: a leaf whose parent
// is the root.
func (n *Node) IsPage() bool {
	return n.IsLeaf() && n.parent != nil && n.parent.Kind == KindRoot
}

// IsPost reports whether the node is nested content eligible for listings: a
// leaf at depth two or more that is neither an index page nor a synthetic
// listing.
func (n *Node) IsPost() bool {
	return n.IsLeaf() && !n.IsPage() && !n.IsIndex() &&
		n.Posts == nil && n.Groups == nil && n.parent != nil
}

// Ancestors returns the chain from the direct parent up to the root.
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for p := n.parent; p != nil; p = p.parent {
		out = append(out, p)
	}
	return out
}

// Root returns the topmost ancestor, which is the node itself if detached.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Depth returns the number of edges between the node and its root.
func (n *Node) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Path returns the node's slash-joined location from its root, e.g.
// "/blog/first". The root's path is "/". Paths are derived on demand from
// the current ancestor chain, never cached.
func (n *Node) Path() string {
	if n.parent == nil {
		return "/"
	}
	parent := n.parent.Path()
	if parent == "/" {
		return "/" + n.Name
	}
	return parent + "/" + n.Name
}

// Child returns the direct child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// HasDescendant reports whether other is n or a descendant of n, following
// both children and index-page edges.
func (n *Node) HasDescendant(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

func (n *Node) removeChild(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.Kind, n.Name)
}
