package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// requireConsistent checks the §invariants every mutation must preserve:
// each reachable non-root node has exactly one parent, and that parent's
// children (or index slot) contains it exactly once.
func requireConsistent(t *testing.T, root *Node) {
	t.Helper()
	seen := map[*Node]bool{}
	Walk(root, func(n *Node) bool {
		require.False(t, seen[n], "node %s reachable twice", n)
		seen[n] = true

		if n == root {
			require.Nil(t, n.Parent())
			return true
		}

		parent := n.Parent()
		require.NotNil(t, parent, "node %s has no parent", n)

		count := 0
		for _, c := range parent.Children() {
			if c == n {
				count++
			}
		}
		if parent.Index() == n {
			count++
		}
		require.Equal(t, 1, count, "parent of %s references it %d times", n, count)
		return true
	})
}

func TestReparent_MovesSubtreeAndUpdatesBackReference(t *testing.T) {
	root, _, blog, first, _, _ := buildFixture(t)

	require.NoError(t, Reparent(first, root, AtEnd))
	require.Equal(t, root, first.Parent())
	require.NotContains(t, blog.Children(), first)
	require.Equal(t, first, root.Children()[len(root.Children())-1])
	requireConsistent(t, root)
}

func TestReparent_AtPosition_InsertsThere(t *testing.T) {
	root, _, blog, first, _, _ := buildFixture(t)

	require.NoError(t, Reparent(first, root, 0))
	require.Equal(t, first, root.Children()[0])
	requireConsistent(t, root)
	_ = blog
}

func TestReparent_IntoOwnDescendant_FailsWithCycleErrorAndTreeUnchanged(t *testing.T) {
	root, _, blog, first, second, _ := buildFixture(t)

	before := []*Node{first, second}
	err := Reparent(blog, first, AtEnd)

	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	require.Equal(t, before, blog.Children())
	require.Equal(t, root, blog.Parent())
	requireConsistent(t, root)
}

func TestReparent_IntoItself_FailsWithCycleError(t *testing.T) {
	root, _, blog, _, _, _ := buildFixture(t)

	var cycleErr *CycleError
	require.ErrorAs(t, Reparent(blog, blog, AtEnd), &cycleErr)
	requireConsistent(t, root)
}

func TestReparent_NameCollision_FailsAndTreeUnchanged(t *testing.T) {
	root, _, blog, _, _, _ := buildFixture(t)
	shadow := NewPage("first")
	other := NewFolder("other")
	require.NoError(t, Reparent(other, root, AtEnd))
	require.NoError(t, Reparent(shadow, other, AtEnd))

	err := Reparent(shadow, blog, AtEnd)

	var collisionErr *CollisionError
	require.ErrorAs(t, err, &collisionErr)
	require.Equal(t, other, shadow.Parent())
	require.Len(t, blog.Children(), 2)
	requireConsistent(t, root)
}

func TestReparent_IntoLeaf_Fails(t *testing.T) {
	_, about, _, first, _, _ := buildFixture(t)
	require.Error(t, Reparent(first, about, AtEnd))
}

func TestRemove_DetachesSubtreeAndClearsParent(t *testing.T) {
	root, _, blog, first, _, _ := buildFixture(t)

	Remove(blog)
	require.Nil(t, blog.Parent())
	require.NotContains(t, root.Children(), blog)
	// The detached subtree stays internally valid.
	require.Equal(t, blog, first.Root())
	requireConsistent(t, root)
	requireConsistent(t, blog)
}

func TestRemove_IndexPage_ClearsIndexSlot(t *testing.T) {
	_, _, blog, first, _, _ := buildFixture(t)
	blog.SetIndex(first)

	Remove(first)
	require.Nil(t, blog.Index())
	require.Nil(t, first.Parent())
}

func TestRemove_DetachedNode_IsNoOp(t *testing.T) {
	n := NewPage("loose")
	Remove(n)
	require.Nil(t, n.Parent())
}

func TestMutationSequence_PreservesInvariants(t *testing.T) {
	// Scenario: reparent all children of two author folders onto blog, then
	// remove the empty folders; user data set during the move survives.
	root := NewRoot()
	blog := NewFolder("blog")
	require.NoError(t, Reparent(blog, root, AtEnd))

	authors := []string{"arthur_dent", "ford_prefect"}
	for i, author := range authors {
		folder := NewFolder(author)
		require.NoError(t, Reparent(folder, blog, AtEnd))
		for _, post := range []string{"post_a", "post_b"} {
			p := NewPage(author + "_" + post)
			require.NoError(t, Reparent(p, folder, AtEnd))
		}
		_ = i
	}

	for _, author := range authors {
		folder := blog.Child(author)
		require.NotNil(t, folder)
		for _, post := range append([]*Node{}, folder.Children()...) {
			post.UserData["author"] = author
			require.NoError(t, Reparent(post, blog, AtEnd))
		}
		require.Empty(t, folder.Children())
		Remove(folder)
	}

	require.Len(t, blog.Children(), 4)
	for _, post := range blog.Children() {
		require.True(t, post.IsPost())
		require.NotEmpty(t, post.UserData["author"])
	}
	requireConsistent(t, root)
}

func TestFold_GroupsNodesUnderNewFolder(t *testing.T) {
	root, _, blog, first, second, _ := buildFixture(t)

	folder, err := Fold(root, "2022", []*Node{first, second})
	require.NoError(t, err)
	require.Equal(t, []*Node{first, second}, folder.Children())
	require.Equal(t, root, folder.Parent())
	require.Empty(t, blog.Children())
	requireConsistent(t, root)
}

func TestFold_EmptyNodeList_Fails(t *testing.T) {
	root, _, _, _, _, _ := buildFixture(t)
	_, err := Fold(root, "empty", nil)
	require.Error(t, err)
	require.Nil(t, root.Child("empty"))
}

func TestFold_DuplicateNames_FailsWithoutMutation(t *testing.T) {
	root, _, blog, first, _, _ := buildFixture(t)
	dup := NewPage("first")
	other := NewFolder("other")
	require.NoError(t, Reparent(other, root, AtEnd))
	require.NoError(t, Reparent(dup, other, AtEnd))

	_, err := Fold(root, "mixed", []*Node{first, dup})

	var collisionErr *CollisionError
	require.ErrorAs(t, err, &collisionErr)
	require.Nil(t, root.Child("mixed"))
	require.Equal(t, blog, first.Parent())
	requireConsistent(t, root)
}
