package aggregate

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/tree"
)

func date(day int) time.Time {
	return time.Date(2022, time.March, day, 12, 0, 0, 0, time.UTC)
}

func post(t *testing.T, parent *tree.Node, name string, published time.Time) *tree.Node {
	t.Helper()
	p := tree.NewPage(name)
	if !published.IsZero() {
		p.UserData[PublishDateKey] = published
	}
	require.NoError(t, tree.Reparent(p, parent, tree.AtEnd))
	return p
}

func names(nodes []*tree.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func blogFixture(t *testing.T) (*tree.Node, *tree.Node) {
	t.Helper()
	root := tree.NewRoot()
	blog := tree.NewFolder("blog")
	require.NoError(t, tree.Reparent(blog, root, tree.AtEnd))
	return root, blog
}

func TestEffectiveDate_PublishDateWinsOverTimestamp(t *testing.T) {
	n := tree.NewPage("p")
	n.SourceTimestamp = date(1)
	n.UserData[PublishDateKey] = date(20)

	d, ok := EffectiveDate(n)
	require.True(t, ok)
	require.Equal(t, date(20), d)

	delete(n.UserData, PublishDateKey)
	d, ok = EffectiveDate(n)
	require.True(t, ok)
	require.Equal(t, date(1), d)
}

func TestEffectiveDate_NoDates_NotOK(t *testing.T) {
	_, ok := EffectiveDate(tree.NewPage("p"))
	require.False(t, ok)
}

func TestSortPosts_DateDescendingNameAscendingUndatedLast(t *testing.T) {
	_, blog := blogFixture(t)
	older := post(t, blog, "older", date(1))
	newest := post(t, blog, "newest", date(9))
	tieB := post(t, blog, "b_tie", date(5))
	tieA := post(t, blog, "a_tie", date(5))
	undated1 := post(t, blog, "z_undated", time.Time{})
	undated2 := post(t, blog, "a_undated", time.Time{})

	posts := []*tree.Node{older, undated1, tieB, newest, undated2, tieA}
	SortPosts(posts)

	// Undated posts keep their relative input order at the end.
	require.Equal(t,
		[]string{"newest", "a_tie", "b_tie", "older", "z_undated", "a_undated"},
		names(posts))
}

func TestPosts_DirectModeIgnoresNestedPosts(t *testing.T) {
	_, blog := blogFixture(t)
	post(t, blog, "top", date(2))
	nested := tree.NewFolder("nested")
	require.NoError(t, tree.Reparent(nested, blog, tree.AtEnd))
	post(t, nested, "deep", date(3))

	require.Equal(t, []string{"top"}, names(Posts(blog, ModeDirect)))
	require.Equal(t, []string{"deep", "top"}, names(Posts(blog, ModeRecursive)))
}

func TestBuildIndexes_SynthesizesSortedListingIndex(t *testing.T) {
	root, blog := blogFixture(t)
	post(t, blog, "first", date(1))
	post(t, blog, "second", date(2))

	folders, err := BuildIndexes(root, IndexOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"blog"}, names(folders))

	index := blog.Index()
	require.NotNil(t, index)
	require.Equal(t, []string{"second", "first"}, names(index.Posts))
	require.True(t, index.IsIndex())
}

func TestBuildIndexes_RespectsExcludeList(t *testing.T) {
	root, blog := blogFixture(t)
	post(t, blog, "p", date(1))
	notes := tree.NewFolder("notes")
	require.NoError(t, tree.Reparent(notes, root, tree.AtEnd))
	post(t, notes, "n", date(1))

	_, err := BuildIndexes(root, IndexOptions{Exclude: []string{"notes"}})
	require.NoError(t, err)
	require.NotNil(t, blog.Index())
	require.Nil(t, notes.Index())
}

func TestBuildIndexes_ExistingIndexUntouched(t *testing.T) {
	root, blog := blogFixture(t)
	post(t, blog, "p", date(1))
	custom := tree.NewPage("blog")
	blog.SetIndex(custom)

	_, err := BuildIndexes(root, IndexOptions{})
	require.NoError(t, err)
	require.Equal(t, custom, blog.Index())
}

func TestHome_AlwaysComputedAndInstalledWhenNoIndex(t *testing.T) {
	root, blog := blogFixture(t)
	post(t, blog, "first", date(1))
	post(t, blog, "second", date(2))

	posts, err := Home(root, HomeOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"second", "first"}, names(posts))

	require.NotNil(t, root.Index())
	require.Equal(t, "home", root.Index().Name)
	require.Equal(t, []string{"second", "first"}, names(root.Index().Posts))
}

func TestHome_ExplicitIndexKept_ListingStillComputed(t *testing.T) {
	root, blog := blogFixture(t)
	post(t, blog, "only", date(1))
	custom := tree.NewPage("/")
	root.SetIndex(custom)

	posts, err := Home(root, HomeOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"only"}, names(posts))
	require.Equal(t, custom, root.Index())
}

func TestHome_ExcludeByParentFolder(t *testing.T) {
	root, blog := blogFixture(t)
	post(t, blog, "kept", date(1))
	drafts := tree.NewFolder("drafts")
	require.NoError(t, tree.Reparent(drafts, root, tree.AtEnd))
	post(t, drafts, "hidden", date(2))

	posts, err := Home(root, HomeOptions{Exclude: []string{"drafts"}})
	require.NoError(t, err)
	require.Equal(t, []string{"kept"}, names(posts))
}

func TestPaginate_SplitsIntoCeilPages(t *testing.T) {
	root, blog := blogFixture(t)
	for i := 1; i <= 12; i++ {
		post(t, blog, fmt.Sprintf("post_%02d", i), date(i))
	}

	_, err := BuildIndexes(root, IndexOptions{})
	require.NoError(t, err)

	pages, err := Paginate(blog.Index(), 5)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	// Page 1 is the folder's index; later pages are its children.
	require.Equal(t, pages[0], blog.Index())
	require.Equal(t, "page2", pages[1].Name)
	require.Equal(t, "page3", pages[2].Name)
	require.Equal(t, blog, pages[1].Parent())

	// Concatenating all pages reproduces the sorted listing exactly.
	var all []string
	for _, p := range pages {
		all = append(all, names(p.Posts)...)
	}
	require.Equal(t, names(Posts(blog, ModeDirect)), all)

	// Page 2 carries items 6..10 of the sorted listing.
	require.Equal(t, all[5:10], names(pages[1].Posts))

	// Pagination links.
	require.Equal(t, 3, pages[0].Pagination.PageCount)
	require.Equal(t, pages[0], pages[2].Pagination.First)
	require.Equal(t, pages[2], pages[0].Pagination.Last)
	require.Nil(t, pages[0].Pagination.Prev)
	require.Equal(t, pages[1], pages[0].Pagination.Next)
	require.Equal(t, pages[1], pages[2].Pagination.Prev)
	require.Nil(t, pages[2].Pagination.Next)
}

func TestPaginate_EmptyListing_ZeroPagesNoMetadata(t *testing.T) {
	root, blog := blogFixture(t)
	_ = root
	listing := tree.NewListing("blog", nil)
	listing.Posts = []*tree.Node{}
	blog.SetIndex(listing)

	pages, err := Paginate(listing, 5)
	require.NoError(t, err)
	require.Empty(t, pages)
	require.Nil(t, listing.Pagination)
	require.Equal(t, listing, blog.Index())
}

func TestPaginate_FewerThanPageSize_SinglePageStillTagged(t *testing.T) {
	root, blog := blogFixture(t)
	post(t, blog, "only", date(1))
	_, err := BuildIndexes(root, IndexOptions{})
	require.NoError(t, err)

	pages, err := Paginate(blog.Index(), 5)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.NotNil(t, pages[0].Pagination)
	require.Equal(t, 1, pages[0].Pagination.PageCount)
}

func TestPaginate_AlreadyPaginated_Fails(t *testing.T) {
	root, blog := blogFixture(t)
	post(t, blog, "only", date(1))
	_, err := BuildIndexes(root, IndexOptions{})
	require.NoError(t, err)

	pages, err := Paginate(blog.Index(), 5)
	require.NoError(t, err)
	_, err = Paginate(pages[0], 5)
	require.Error(t, err)
}

func TestPaginate_NonIndexListing_ReplacedByFolder(t *testing.T) {
	root, blog := blogFixture(t)
	p1 := post(t, blog, "p1", date(1))
	p2 := post(t, blog, "p2", date(2))

	listing := tree.NewListing("go", []*tree.Node{p2, p1})
	require.NoError(t, tree.Reparent(listing, root, tree.AtEnd))

	pages, err := Paginate(listing, 1)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	folder := root.Child("go")
	require.NotNil(t, folder)
	require.Equal(t, tree.KindFolder, folder.Kind)
	require.Equal(t, pages[0], folder.Index())
	require.Equal(t, []string{"page2"}, names(folder.Children()))
	require.Equal(t, "/go/page2", pages[1].Path())
}

func TestBuildCategories_FirstSeenOrderAndUncategorizedBucket(t *testing.T) {
	root, blog := blogFixture(t)
	a := post(t, blog, "a", date(1))
	a.Metadata["category"] = "go"
	b := post(t, blog, "b", date(2))
	b.Metadata["category"] = "life"
	c := post(t, blog, "c", date(3))
	c.Metadata["category"] = "go"
	post(t, blog, "d", date(4))

	set, err := BuildCategories(root, CategoryOptions{
		AllowUncategorized: true,
		UncategorizedName:  "uncategorized",
		ListPageName:       "categories",
		Group:              true,
	})
	require.NoError(t, err)

	require.Equal(t, []string{"go", "life", "uncategorized"},
		[]string{set.Groups[0].Key, set.Groups[1].Key, set.Groups[2].Key})
	// Groups are internally sorted by date descending.
	require.Equal(t, []string{"c", "a"}, names(set.Groups[0].Posts))

	require.NotNil(t, set.Folder)
	require.Equal(t, "categories", set.Folder.Name)
	require.Equal(t, set.ListPage, set.Folder.Index())
	require.Equal(t, "/categories/go", set.Pages["go"].Path())
}

func TestBuildCategories_UncategorizedNotAllowed_Fails(t *testing.T) {
	root, blog := blogFixture(t)
	post(t, blog, "stray", date(1))

	_, err := BuildCategories(root, CategoryOptions{AllowUncategorized: false})
	require.Error(t, err)
}

func TestBuildArchive_DescendingChronologicalGroups(t *testing.T) {
	root, blog := blogFixture(t)
	jan := post(t, blog, "jan", time.Date(2022, time.January, 2, 11, 42, 0, 0, time.UTC))
	feb := post(t, blog, "feb", time.Date(2022, time.February, 1, 0, 0, 0, 0, time.UTC))
	old := post(t, blog, "old", time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC))
	_, _, _ = jan, feb, old

	set, err := BuildArchive(root, ArchiveOptions{
		ByMonth:      true,
		ByYear:       true,
		MonthFormat:  "January, 2006",
		YearFormat:   "2006",
		ListPageName: "archive",
		Group:        true,
	})
	require.NoError(t, err)

	require.Equal(t, "February, 2022", set.ByMonth[0].Key)
	require.Equal(t, "January, 2022", set.ByMonth[1].Key)
	require.Equal(t, "June, 2021", set.ByMonth[2].Key)
	require.Equal(t, "2022", set.ByYear[0].Key)
	require.Equal(t, "2021", set.ByYear[1].Key)

	require.NotNil(t, set.Folder)
	require.Equal(t, set.ListPage, set.Folder.Index())
	require.Equal(t, "/archive/2022", set.PagesByYear["2022"].Path())
}

func TestBuildArchive_NoDatedPosts_Fails(t *testing.T) {
	root, blog := blogFixture(t)
	post(t, blog, "undated", time.Time{})

	_, err := BuildArchive(root, ArchiveOptions{ByYear: true, YearFormat: "2006"})
	require.Error(t, err)
}
