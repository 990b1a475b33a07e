package tree

import "fmt"

// CycleError reports a reparent that would make a node its own ancestor.
type CycleError struct {
	Node      string
	NewParent string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cannot reparent %q under %q: new parent is the node itself or one of its descendants",
		e.Node, e.NewParent)
}

// CollisionError reports an insert that would duplicate a sibling name.
type CollisionError struct {
	Parent string
	Name   string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("%q already has a child named %q", e.Parent, e.Name)
}

// AtEnd appends the node after all existing children.
const AtEnd = -1

// Reparent moves node (with its whole subtree) under newParent, inserting at
// position (AtEnd appends). The node is removed from its current parent
// first and its back-reference updated, so the tree stays consistent.
//
// The move is rejected with CycleError when newParent is the node or one of
// its descendants, and with CollisionError when newParent already has a
// child with the node's name. On error the tree is left unchanged.
func Reparent(node, newParent *Node, position int) error {
	if newParent.Kind == KindPage {
		return fmt.Errorf("%s does not accept children", newParent)
	}
	if node.HasDescendant(newParent) {
		return &CycleError{Node: node.Name, NewParent: newParent.Name}
	}
	if existing := newParent.Child(node.Name); existing != nil && existing != node {
		return &CollisionError{Parent: newParent.Name, Name: node.Name}
	}

	Remove(node)

	if position < 0 || position > len(newParent.children) {
		position = len(newParent.children)
	}
	newParent.children = append(newParent.children[:position],
		append([]*Node{node}, newParent.children[position:]...)...)
	node.parent = newParent
	return nil
}

// Remove detaches node and its subtree from the tree. The subtree stays
// internally valid; the detached node becomes the root of its own tree.
// Removing an index page clears the parent's index slot.
func Remove(node *Node) {
	if node.parent == nil {
		return
	}
	if node.IsIndex() {
		node.parent.index = nil
	} else {
		node.parent.removeChild(node)
	}
	node.parent = nil
}

// Fold creates a new folder named name under parent and reparents the given
// nodes into it, preserving their order. All failure modes are checked up
// front so the tree is never left partially regrouped.
func Fold(parent *Node, name string, nodes []*Node) (*Node, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("cannot group an empty list of nodes")
	}
	if existing := parent.Child(name); existing != nil {
		return nil, &CollisionError{Parent: parent.Name, Name: name}
	}
	seen := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if n.HasDescendant(parent) {
			return nil, &CycleError{Node: n.Name, NewParent: name}
		}
		if _, dup := seen[n.Name]; dup {
			return nil, &CollisionError{Parent: name, Name: n.Name}
		}
		seen[n.Name] = struct{}{}
	}

	folder := NewFolder(name)
	if err := Reparent(folder, parent, AtEnd); err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if err := Reparent(n, folder, AtEnd); err != nil {
			return nil, err
		}
	}
	return folder, nil
}
