package aggregate

import (
	"fmt"
	"sort"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/tree"
)

// CategoryOptions controls category page generation.
type CategoryOptions struct {
	// Key is the metadata key carrying the category. Defaults to "category".
	Key string

	// AllowUncategorized puts posts without a category into the
	// UncategorizedName bucket instead of failing the build.
	AllowUncategorized bool
	UncategorizedName  string

	// ListPageName names the page listing every category with its posts.
	// Empty disables the list page.
	ListPageName string

	// Group moves all category pages under a folder named ListPageName.
	Group bool

	PerPage int
}

// CategorySet is the result of BuildCategories.
type CategorySet struct {
	// Groups holds posts per category in first-seen order, each group
	// internally sorted like a listing.
	Groups []tree.Group

	// Pages maps category name to its page (first page when paginated).
	Pages map[string]*tree.Node

	ListPage          *tree.Node
	Folder            *tree.Node
	UncategorizedName string
}

// BuildCategories groups all posts under root by their category metadata and
// installs one aggregated page per category, plus an optional list page.
func BuildCategories(root *tree.Node, opts CategoryOptions) (*CategorySet, error) {
	key := opts.Key
	if key == "" {
		key = "category"
	}

	var posts []*tree.Node
	for _, n := range tree.Leaves(root) {
		if n.IsPost() {
			posts = append(posts, n)
		}
	}

	groups := tree.GroupBy(posts, func(n *tree.Node) string {
		if c, ok := n.Metadata[key].(string); ok {
			return c
		}
		return ""
	})

	for i := range groups {
		if groups[i].Key != "" {
			continue
		}
		if !opts.AllowUncategorized {
			return nil, fmt.Errorf("%d posts have no %q metadata but uncategorized posts are not allowed",
				len(groups[i].Posts), key)
		}
		groups[i].Key = opts.UncategorizedName
	}

	for i := range groups {
		SortPosts(groups[i].Posts)
	}

	set := &CategorySet{
		Groups:            groups,
		Pages:             map[string]*tree.Node{},
		UncategorizedName: opts.UncategorizedName,
	}
	if len(groups) == 0 {
		return set, nil
	}

	pages, err := buildGroupPages(root, groups, opts.PerPage)
	if err != nil {
		return nil, err
	}
	for i, g := range groups {
		set.Pages[g.Key] = pages[i]
	}

	if opts.Group {
		folder, err := foldGroupPages(root, opts.ListPageName, pages)
		if err != nil {
			return nil, err
		}
		set.Folder = folder
	}

	if opts.ListPageName != "" {
		set.ListPage = tree.NewGroupedListing(opts.ListPageName, groups)
		if set.Folder != nil {
			set.Folder.SetIndex(set.ListPage)
		} else if err := tree.Reparent(set.ListPage, root, tree.AtEnd); err != nil {
			return nil, err
		}
	}

	return set, nil
}

// ArchiveOptions controls archive page generation.
type ArchiveOptions struct {
	ByMonth bool
	ByYear  bool

	// MonthFormat and YearFormat are Go time layouts used both as group keys
	// and for descending chronological ordering of the groups.
	MonthFormat string
	YearFormat  string

	ListPageName string
	Group        bool
	PerPage      int
}

// ArchiveSet is the result of BuildArchive.
type ArchiveSet struct {
	// ByMonth and ByYear hold posts per period, most recent period first,
	// each group internally sorted like a listing.
	ByMonth []tree.Group
	ByYear  []tree.Group

	// PagesByMonth and PagesByYear map the period key to its page (first
	// page when paginated).
	PagesByMonth map[string]*tree.Node
	PagesByYear  map[string]*tree.Node

	ListPage *tree.Node
	Folder   *tree.Node
}

// BuildArchive groups dated posts under root by year and/or year-month and
// installs one aggregated page per period, plus an optional list page.
// Posts without an effective date are left out of the archive.
func BuildArchive(root *tree.Node, opts ArchiveOptions) (*ArchiveSet, error) {
	if !opts.ByMonth && !opts.ByYear {
		return nil, fmt.Errorf("archive requested with neither by_month nor by_year")
	}

	var posts []*tree.Node
	for _, n := range tree.Leaves(root) {
		if _, dated := EffectiveDate(n); n.IsPost() && dated {
			posts = append(posts, n)
		}
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("no dated posts to archive")
	}

	set := &ArchiveSet{
		PagesByMonth: map[string]*tree.Node{},
		PagesByYear:  map[string]*tree.Node{},
	}

	if opts.ByMonth {
		set.ByMonth = archiveGroups(posts, opts.MonthFormat)
	}
	if opts.ByYear {
		set.ByYear = archiveGroups(posts, opts.YearFormat)
	}

	monthPages, err := buildGroupPages(root, set.ByMonth, opts.PerPage)
	if err != nil {
		return nil, err
	}
	yearPages, err := buildGroupPages(root, set.ByYear, opts.PerPage)
	if err != nil {
		return nil, err
	}
	for i, g := range set.ByMonth {
		set.PagesByMonth[g.Key] = monthPages[i]
	}
	for i, g := range set.ByYear {
		set.PagesByYear[g.Key] = yearPages[i]
	}

	if opts.Group {
		folder, err := foldGroupPages(root, opts.ListPageName, append(monthPages, yearPages...))
		if err != nil {
			return nil, err
		}
		set.Folder = folder
	}

	if opts.ListPageName != "" {
		set.ListPage = tree.NewGroupedListing(opts.ListPageName,
			append(append([]tree.Group{}, set.ByMonth...), set.ByYear...))
		if set.Folder != nil {
			set.Folder.SetIndex(set.ListPage)
		} else if err := tree.Reparent(set.ListPage, root, tree.AtEnd); err != nil {
			return nil, err
		}
	}

	return set, nil
}

// archiveGroups partitions posts by their effective date formatted with
// layout and orders the groups in descending chronological order.
func archiveGroups(posts []*tree.Node, layout string) []tree.Group {
	groups := tree.GroupBy(posts, func(n *tree.Node) string {
		d, _ := EffectiveDate(n)
		return d.Format(layout)
	})

	sort.SliceStable(groups, func(i, j int) bool {
		di, erri := time.Parse(layout, groups[i].Key)
		dj, errj := time.Parse(layout, groups[j].Key)
		if erri != nil || errj != nil {
			return false
		}
		return di.After(dj)
	})

	for i := range groups {
		SortPosts(groups[i].Posts)
	}
	return groups
}

// buildGroupPages attaches one listing page per group under root, paginating
// when requested, and returns the first page of each group in group order.
func buildGroupPages(root *tree.Node, groups []tree.Group, perPage int) ([]*tree.Node, error) {
	pages := make([]*tree.Node, 0, len(groups))
	for _, g := range groups {
		page := tree.NewListing(g.Key, g.Posts)
		if err := tree.Reparent(page, root, tree.AtEnd); err != nil {
			return nil, err
		}
		if perPage > 0 {
			if _, err := Paginate(page, perPage); err != nil {
				return nil, err
			}
			// Pagination replaced the listing with a folder whose index is
			// page 1; surface page 1 as the group's page.
			if folder := root.Child(g.Key); folder != nil && folder.Index() != nil {
				page = folder.Index()
			}
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// foldGroupPages moves the group pages (or their pagination folders) under a
// new folder named name.
func foldGroupPages(root *tree.Node, name string, pages []*tree.Node) (*tree.Node, error) {
	if name == "" {
		name = "groups"
	}
	toMove := make([]*tree.Node, 0, len(pages))
	for _, p := range pages {
		// A paginated group page is the index of its pagination folder; move
		// the folder so all pages travel together.
		if p.IsIndex() {
			toMove = append(toMove, p.Parent())
		} else {
			toMove = append(toMove, p)
		}
	}
	return tree.Fold(root, name, toMove)
}
