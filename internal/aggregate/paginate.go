package aggregate

import (
	"fmt"

	"git.home.luguber.info/inful/sitegen/internal/tree"
)

// Paginate splits an aggregated listing into ceil(len/perPage) pages and
// installs them in the tree in the listing's place.
//
// Page 1 keeps the listing's name and position (it becomes the folder's
// index when the listing was one, otherwise the listing is replaced by a
// folder holding page 1 as its index). Pages 2..n are named "page2".."pageN"
// so their hrefs derive from their tree position.
//
// An empty listing yields zero pages and the listing is left untouched with
// no pagination metadata. A listing with at most perPage posts yields
// exactly one page, still tagged as paginated so templates render
// consistently.
func Paginate(listing *tree.Node, perPage int) ([]*tree.Node, error) {
	if perPage <= 0 {
		return nil, fmt.Errorf("cannot paginate with less than 1 post per page")
	}
	if listing.Pagination != nil {
		return nil, fmt.Errorf("%q is already paginated", listing.Name)
	}
	if listing.Posts == nil {
		return nil, fmt.Errorf("%q is not an aggregated listing", listing.Name)
	}
	if listing.Parent() == nil {
		return nil, fmt.Errorf("%q is not attached to a tree", listing.Name)
	}
	if len(listing.Posts) == 0 {
		return nil, nil
	}

	total := len(listing.Posts)
	count := (total + perPage - 1) / perPage

	pages := make([]*tree.Node, 0, count)
	for i := 0; i < count; i++ {
		start := i * perPage
		end := min(start+perPage, total)

		name := listing.Name
		if i > 0 {
			name = fmt.Sprintf("page%d", i+1)
		}

		page := tree.NewListing(name, listing.Posts[start:end])
		page.Metadata = listing.Metadata
		page.Body = listing.Body
		page.HTML = listing.HTML
		for k, v := range listing.UserData {
			page.UserData[k] = v
		}
		page.Pagination = &tree.Pagination{PageNumber: i + 1, PageCount: count}
		pages = append(pages, page)
	}

	for i, page := range pages {
		page.Pagination.First = pages[0]
		page.Pagination.Last = pages[count-1]
		if i > 0 {
			page.Pagination.Prev = pages[i-1]
		}
		if i < count-1 {
			page.Pagination.Next = pages[i+1]
		}
	}

	folder, err := pageFolder(listing)
	if err != nil {
		return nil, err
	}

	folder.SetIndex(pages[0])
	for _, page := range pages[1:] {
		if err := tree.Reparent(page, folder, tree.AtEnd); err != nil {
			return nil, err
		}
	}

	return pages, nil
}

// pageFolder determines where paginated pages live: the listing's own folder
// when it was an index page, otherwise a new folder replacing the listing at
// its position among its siblings.
func pageFolder(listing *tree.Node) (*tree.Node, error) {
	parent := listing.Parent()

	if listing.IsIndex() {
		return parent, nil
	}

	position := tree.AtEnd
	for i, c := range parent.Children() {
		if c == listing {
			position = i
			break
		}
	}

	tree.Remove(listing)
	folder := tree.NewFolder(listing.Name)
	if err := tree.Reparent(folder, parent, position); err != nil {
		return nil, err
	}
	return folder, nil
}
