package site

import (
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/aggregate"
	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
	"git.home.luguber.info/inful/sitegen/internal/nav"
	"git.home.luguber.info/inful/sitegen/internal/tree"
)

// render writes the whole site: one directory per page with an index.html,
// not-found pages for index-less folders when configured, the page1 alias
// for paginated indexes, and a copy of the static directory.
func (g *Generator) render() error {
	if g.renderer == nil {
		r, err := NewTemplateRenderer(g.cfg.TemplatesDirectory)
		if err != nil {
			return sgerrors.Wrap(err, sgerrors.CategoryRender, sgerrors.SeverityFatal,
				"failed to load templates").WithContext("dir", g.cfg.TemplatesDirectory)
		}
		g.renderer = r
	}

	if err := os.RemoveAll(g.cfg.BuildDirectory); err != nil {
		return sgerrors.Wrap(err, sgerrors.CategoryFileSystem, sgerrors.SeverityFatal,
			"failed to clean build directory").WithContext("dir", g.cfg.BuildDirectory)
	}
	if err := os.MkdirAll(g.cfg.BuildDirectory, 0o755); err != nil {
		return sgerrors.Wrap(err, sgerrors.CategoryFileSystem, sgerrors.SeverityFatal,
			"failed to create build directory").WithContext("dir", g.cfg.BuildDirectory)
	}

	info := g.siteInfo()

	var failed error
	tree.Walk(g.root, func(n *tree.Node) bool {
		switch {
		case n.Kind == tree.KindPage:
			failed = g.writePage(n, info)
		case n.Kind == tree.KindFolder && n.Index() == nil && g.cfg.NotFoundForMissingIndex:
			failed = g.writeNotFound(n, info)
		}
		return failed == nil
	})
	if failed != nil {
		return failed
	}

	return g.copyStatic()
}

func (g *Generator) siteInfo() *SiteInfo {
	return &SiteInfo{
		Name:       g.cfg.Name,
		URL:        g.cfg.URL,
		Subtitle:   g.cfg.Subtitle,
		Language:   g.cfg.Language,
		AuthorLink: g.cfg.AuthorLink,
		Navigation: g.navigation,
	}
}

func (g *Generator) writePage(n *tree.Node, info *SiteInfo) error {
	opts := g.hrefOptions()
	href := nav.Href(n, opts)
	page := g.pageModel(n, info)
	name := templateFor(n)

	if err := g.renderTo(href, name, page); err != nil {
		return err
	}
	g.report.PagesWritten++

	// Page 1 of a paginated index is also reachable as {folder}/page1, so
	// prev-links from page 2 and hand-written links both resolve.
	if n.IsIndex() && n.Pagination != nil && n.Pagination.PageNumber == 1 {
		alias := strings.TrimSuffix(href, "/") + "/page1"
		if err := g.renderTo(alias, name, page); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) writeNotFound(folder *tree.Node, info *SiteInfo) error {
	opts := g.hrefOptions()
	page := &Page{
		Site:        info,
		Title:       "Page Not Found",
		Href:        nav.Href(folder, opts),
		Content:     template.HTML("<p>The page you are looking for does not exist.</p>"),
		Breadcrumbs: nav.Breadcrumbs(folder, opts),
		NotFound:    true,
	}
	if err := g.renderTo(page.Href, "404", page); err != nil {
		return err
	}
	g.report.PagesWritten++
	return nil
}

// renderTo renders page into <build>/<href>/index.html.
func (g *Generator) renderTo(href, name string, page *Page) error {
	dir := filepath.Join(g.cfg.BuildDirectory, filepath.FromSlash(strings.TrimPrefix(href, "/")))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return sgerrors.Wrap(err, sgerrors.CategoryFileSystem, sgerrors.SeverityFatal,
			"failed to create output directory").WithContext("dir", dir)
	}

	out, err := os.Create(filepath.Join(dir, "index.html"))
	if err != nil {
		return sgerrors.Wrap(err, sgerrors.CategoryFileSystem, sgerrors.SeverityFatal,
			"failed to create output file").WithContext("href", href)
	}
	defer out.Close()

	if err := g.renderer.Render(out, name, page); err != nil {
		return sgerrors.Wrap(err, sgerrors.CategoryRender, sgerrors.SeverityFatal,
			"failed to render page").WithContext("href", href).WithContext("template", name)
	}
	return nil
}

// pageModel flattens a node into its render model.
func (g *Generator) pageModel(n *tree.Node, info *SiteInfo) *Page {
	opts := g.hrefOptions()

	page := &Page{
		Site:        info,
		Title:       frontmatter.Title(n.Metadata, n.Name),
		Href:        nav.Href(n, opts),
		Content:     template.HTML(n.HTML),
		Excerpt:     frontmatter.Excerpt(n.HTML),
		Metadata:    n.Metadata,
		IsPost:      n.IsPost(),
		Breadcrumbs: nav.Breadcrumbs(n, opts),
	}

	if d, ok := aggregate.EffectiveDate(n); ok && (n.IsPost() || hasExplicitDate(n)) {
		page.PublishDate = d.Format(g.cfg.DisplayDateFormat)
	}

	for _, p := range n.Posts {
		page.Posts = append(page.Posts, g.postRef(p, opts))
	}

	for _, grp := range n.Groups {
		ref := GroupRef{Key: grp.Key}
		if gp := g.groupPages[grp.Key]; gp != nil {
			ref.Href = nav.Href(gp, opts)
		}
		for _, p := range grp.Posts {
			ref.Posts = append(ref.Posts, g.postRef(p, opts))
		}
		page.Groups = append(page.Groups, ref)
	}

	if p := n.Pagination; p != nil {
		pi := &PaginationInfo{PageNumber: p.PageNumber, PageCount: p.PageCount}
		if p.First != nil {
			pi.FirstHref = nav.Href(p.First, opts)
		}
		if p.Last != nil {
			pi.LastHref = nav.Href(p.Last, opts)
		}
		if p.Prev != nil {
			pi.PrevHref = nav.Href(p.Prev, opts)
		}
		if p.Next != nil {
			pi.NextHref = nav.Href(p.Next, opts)
		}
		page.Pagination = pi
	}

	return page
}

func (g *Generator) postRef(p *tree.Node, opts nav.Options) PostRef {
	ref := PostRef{
		Title:   frontmatter.Title(p.Metadata, p.Name),
		Href:    nav.Href(p, opts),
		Excerpt: frontmatter.Excerpt(p.HTML),
	}
	if d, ok := aggregate.EffectiveDate(p); ok {
		ref.PublishDate = d.Format(g.cfg.DisplayDateFormat)
	}
	return ref
}

// templateFor picks the template name: an explicit metadata override, then a
// shape-based default.
func templateFor(n *tree.Node) string {
	if t, ok := n.Metadata["template"].(string); ok && t != "" {
		return t
	}
	switch {
	case n.Groups != nil:
		return "grouped"
	case n.Posts != nil:
		return "listing"
	default:
		return "page"
	}
}

func hasExplicitDate(n *tree.Node) bool {
	_, ok := n.UserData[aggregate.PublishDateKey].(time.Time)
	return ok
}

func (g *Generator) copyStatic() error {
	src := g.cfg.StaticDirectory
	if src == "" {
		return nil
	}
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}

	if err := os.CopyFS(g.cfg.BuildDirectory, os.DirFS(src)); err != nil {
		return sgerrors.Wrap(err, sgerrors.CategoryFileSystem, sgerrors.SeverityFatal,
			"failed to copy static files").WithContext("dir", src)
	}
	return nil
}
