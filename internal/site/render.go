package site

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitegen/internal/nav"
)

// Page is the render model handed to templates. It is a flattened,
// template-friendly view of one content node plus the site-wide context.
type Page struct {
	Site *SiteInfo

	Title       string
	Href        string
	Content     template.HTML
	Excerpt     string
	Metadata    map[string]any
	IsPost      bool
	PublishDate string
	Breadcrumbs []nav.Crumb

	// Posts is set on aggregated listing pages, Groups on grouped listings
	// (the category and archive list pages).
	Posts  []PostRef
	Groups []GroupRef

	Pagination *PaginationInfo

	NotFound bool
}

// PostRef is one post entry of a listing.
type PostRef struct {
	Title       string
	Href        string
	Excerpt     string
	PublishDate string
}

// GroupRef is one group of a grouped listing. Href links to the group's own
// page when one exists.
type GroupRef struct {
	Key   string
	Href  string
	Posts []PostRef
}

// PaginationInfo carries pagination links as hrefs.
type PaginationInfo struct {
	PageNumber int
	PageCount  int
	FirstHref  string
	LastHref   string
	PrevHref   string
	NextHref   string
}

// SiteInfo is the site-wide context shared by every rendered page.
type SiteInfo struct {
	Name       string
	URL        string
	Subtitle   string
	Language   string
	AuthorLink string
	Navigation []nav.Entry
}

// Renderer renders one page. name selects the template ("page", "listing",
// "grouped", "404", or a per-page override from metadata).
type Renderer interface {
	Render(w io.Writer, name string, page *Page) error
}

// TemplateRenderer renders pages with html/template. User templates from the
// templates directory override the built-in default layout; any name without
// a matching template falls back to the default.
type TemplateRenderer struct {
	templates *template.Template
}

// NewTemplateRenderer parses the built-in layout and, when dir exists, every
// *.html file in it.
func NewTemplateRenderer(dir string) (*TemplateRenderer, error) {
	t, err := template.New("default").Parse(defaultTemplate)
	if err != nil {
		return nil, err
	}

	if dir != "" {
		if _, statErr := os.Stat(dir); statErr == nil {
			matches, globErr := filepath.Glob(filepath.Join(dir, "*.html"))
			if globErr != nil {
				return nil, globErr
			}
			if len(matches) > 0 {
				if t, err = t.ParseGlob(filepath.Join(dir, "*.html")); err != nil {
					return nil, err
				}
			}
		}
	}

	return &TemplateRenderer{templates: t}, nil
}

func (r *TemplateRenderer) Render(w io.Writer, name string, page *Page) error {
	tmpl := r.templates.Lookup(name + ".html")
	if tmpl == nil {
		tmpl = r.templates.Lookup(name)
	}
	if tmpl == nil {
		tmpl = r.templates.Lookup("default")
	}
	if tmpl == nil {
		return fmt.Errorf("no template found for %q and no default layout", name)
	}
	return tmpl.Execute(w, page)
}

const defaultTemplate = `<!DOCTYPE html>
<html lang="{{.Site.Language}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} | {{.Site.Name}}</title>
</head>
<body>
<header>
<h1><a href="/">{{.Site.Name}}</a></h1>
{{with .Site.Subtitle}}<p class="subtitle">{{.}}</p>{{end}}
<nav class="site-nav"><ul>
{{range .Site.Navigation}}<li>{{if .Href}}<a href="{{.Href}}">{{.Label}}</a>{{else}}<span>{{.Label}}</span>{{end}}{{if .Children}}<ul>
{{range .Children}}<li>{{if .Href}}<a href="{{.Href}}">{{.Label}}</a>{{else}}<span>{{.Label}}</span>{{end}}</li>
{{end}}</ul>{{end}}</li>
{{end}}</ul></nav>
</header>
<main>
<nav class="breadcrumbs">{{range .Breadcrumbs}}{{if .Href}}<a href="{{.Href}}">{{.Label}}</a> {{else}}<span>{{.Label}}</span> {{end}}{{end}}</nav>
<article>
<h2>{{.Title}}</h2>
{{with .PublishDate}}<time>{{.}}</time>{{end}}
{{.Content}}
</article>
{{if .Posts}}<section class="posts"><ul>
{{range .Posts}}<li><a href="{{.Href}}">{{.Title}}</a>{{with .PublishDate}} <time>{{.}}</time>{{end}}{{with .Excerpt}}<p>{{.}}</p>{{end}}</li>
{{end}}</ul></section>{{end}}
{{if .Groups}}<section class="groups">
{{range .Groups}}<h3>{{if .Href}}<a href="{{.Href}}">{{.Key}}</a>{{else}}{{.Key}}{{end}}</h3>
<ul>{{range .Posts}}<li><a href="{{.Href}}">{{.Title}}</a></li>
{{end}}</ul>
{{end}}</section>{{end}}
{{with .Pagination}}<nav class="pagination">
{{with .PrevHref}}<a rel="prev" href="{{.}}">newer</a>{{end}}
<span>page {{.PageNumber}} of {{.PageCount}}</span>
{{with .NextHref}}<a rel="next" href="{{.}}">older</a>{{end}}
</nav>{{end}}
</main>
<footer>
{{with .Site.AuthorLink}}<a href="{{.}}">author</a>{{end}}
</footer>
</body>
</html>
`
