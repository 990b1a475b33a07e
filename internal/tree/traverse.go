package tree

import (
	"fmt"
	"iter"
	"strings"
)

// Walk visits every node under start in pre-order: the node itself, then its
// index page, then each child subtree in child order. Returning false from
// visit stops the walk.
func Walk(start *Node, visit func(*Node) bool) {
	walk(start, visit)
}

func walk(n *Node, visit func(*Node) bool) bool {
	if !visit(n) {
		return false
	}
	if n.index != nil {
		if !visit(n.index) {
			return false
		}
	}
	for _, c := range n.children {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

// Filter returns a restartable sequence of the nodes under start satisfying
// pred, in pre-order. The node set is snapshotted when Filter is called;
// later tree mutations do not affect an obtained sequence.
func Filter(start *Node, pred func(*Node) bool) iter.Seq[*Node] {
	var snapshot []*Node
	Walk(start, func(n *Node) bool {
		if pred(n) {
			snapshot = append(snapshot, n)
		}
		return true
	})

	return func(yield func(*Node) bool) {
		for _, n := range snapshot {
			if !yield(n) {
				return
			}
		}
	}
}

// Flatten returns a restartable sequence of all leaf descendants of start in
// pre-order, regardless of nesting depth. Like Filter, the snapshot is taken
// at call time.
func Flatten(start *Node) iter.Seq[*Node] {
	return Filter(start, func(n *Node) bool {
		return n != start && n.IsLeaf()
	})
}

// Leaves materializes Flatten into a slice.
func Leaves(start *Node) []*Node {
	var out []*Node
	for n := range Flatten(start) {
		out = append(out, n)
	}
	return out
}

// GroupBy partitions nodes into ordered groups keyed by keyFn. The partition
// is stable: groups appear in first-seen key order and each group preserves
// the relative input order of its members.
func GroupBy(nodes []*Node, keyFn func(*Node) string) []Group {
	var groups []Group
	byKey := map[string]int{}

	for _, n := range nodes {
		key := keyFn(n)
		i, ok := byKey[key]
		if !ok {
			i = len(groups)
			byKey[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Posts = append(groups[i].Posts, n)
	}

	return groups
}

// Get resolves a slash-separated path to a descendant of start. Paths may be
// absolute ("/blog/first") or relative ("blog/first"); both resolve against
// start. Index pages match their folder's path.
func Get(start *Node, path string) (*Node, error) {
	current := start
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part == "" {
			continue
		}
		next := current.Child(part)
		if next == nil {
			return nil, fmt.Errorf("path %q does not exist under %s", path, start)
		}
		current = next
	}
	return current, nil
}
