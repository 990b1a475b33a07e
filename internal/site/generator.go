// Package site runs the full generation pipeline: load the content tree,
// convert markup, resolve publish dates, build aggregated listings, category
// and archive pages and the navigation, then render everything into the
// build directory.
package site

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/aggregate"
	"git.home.luguber.info/inful/sitegen/internal/config"
	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/markdown"
	"git.home.luguber.info/inful/sitegen/internal/nav"
	"git.home.luguber.info/inful/sitegen/internal/tree"
)

// Diagnostic is one non-fatal per-document failure collected during a build.
type Diagnostic struct {
	Path string
	Err  error
}

// Report summarizes a finished build.
type Report struct {
	Skipped      []Diagnostic
	PagesWritten int
}

// DateParseError reports a declared publish date that does not match the
// configured read format. It is a warning: ordering falls back to the source
// file timestamp.
type DateParseError struct {
	Path  string
	Value string
	Err   error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("cannot parse publish date %q in %s: %v", e.Value, e.Path, e.Err)
}

func (e *DateParseError) Unwrap() error { return e.Err }

// Mutator reshapes the content tree between content processing and
// aggregation. Hrefs, listings and navigation are all computed after the
// hook runs, so moves made here are reflected everywhere.
type Mutator func(root *tree.Node) error

// Generator drives one build from configuration to written output. A
// Generator is single-use; create a fresh one per build.
type Generator struct {
	cfg      *config.Config
	logger   *slog.Logger
	convert  markdown.Converter
	renderer Renderer
	mutate   Mutator

	root       *tree.Node
	navigation []nav.Entry
	navExclude []string

	// groupPages maps a category or archive key to its page so grouped list
	// pages can link to it.
	groupPages map[string]*tree.Node

	report Report
}

// New creates a generator with the default goldmark converter and template
// renderer. Both can be replaced before Build.
func New(cfg *config.Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		cfg:        cfg,
		logger:     logger,
		convert:    markdown.Default(),
		groupPages: map[string]*tree.Node{},
	}
}

// SetConverter replaces the markup converter.
func (g *Generator) SetConverter(c markdown.Converter) { g.convert = c }

// SetRenderer replaces the page renderer.
func (g *Generator) SetRenderer(r Renderer) { g.renderer = r }

// SetMutator installs a tree mutation hook.
func (g *Generator) SetMutator(m Mutator) { g.mutate = m }

// Tree returns the content tree after Build has loaded it. Nil before Build.
func (g *Generator) Tree() *tree.Node { return g.root }

// Build runs the pipeline to completion. The returned report is valid even
// on error and carries whatever diagnostics accumulated before the failure.
func (g *Generator) Build(ctx context.Context) (*Report, error) {
	phases := []struct {
		name string
		run  func() error
	}{
		{"load", g.load},
		{"process", g.process},
		{"mutate", g.runMutator},
		{"indexes", g.buildIndexes},
		{"categories", g.buildCategories},
		{"archive", g.buildArchive},
		{"home", g.buildHome},
		{"navigation", g.buildNavigation},
		{"render", g.render},
	}

	for _, phase := range phases {
		if err := ctx.Err(); err != nil {
			return &g.report, err
		}
		start := time.Now()
		if err := phase.run(); err != nil {
			return &g.report, err
		}
		g.logger.Debug("phase complete", "phase", phase.name, "duration", time.Since(start))
	}

	g.logger.Info("build complete",
		"pages", g.report.PagesWritten,
		"skipped", len(g.report.Skipped))
	return &g.report, nil
}

func (g *Generator) load() error {
	root, report, err := tree.FromDirectory(g.cfg.ContentDirectory, tree.BuildOptions{
		Extensions:  g.cfg.AcceptedExtensions,
		SkipOnError: g.cfg.SkipOnError,
	})
	if err != nil {
		return sgerrors.Wrap(err, sgerrors.CategoryFileSystem, sgerrors.SeverityFatal,
			"failed to load content tree").WithContext("dir", g.cfg.ContentDirectory)
	}

	for _, d := range report.Skipped {
		g.logger.Warn("skipped document", "path", d.Path, "error", d.Err)
		g.report.Skipped = append(g.report.Skipped, Diagnostic{Path: d.Path, Err: d.Err})
	}

	g.root = root
	return nil
}

// process converts every page's body to HTML exactly once and resolves
// declared publish dates into ordering dates.
func (g *Generator) process() error {
	var failed error
	tree.Walk(g.root, func(n *tree.Node) bool {
		if n.Kind != tree.KindPage {
			return true
		}

		g.resolveDate(n)

		if n.Body == "" {
			return true
		}
		html, err := g.convert(n.Body)
		if err != nil {
			wrapped := sgerrors.Wrap(err, sgerrors.CategoryRender, sgerrors.SeverityError,
				"markup conversion failed").WithContext("path", n.SourcePath)
			if g.cfg.SkipOnError {
				g.logger.Warn("skipped document", "path", n.SourcePath, "error", err)
				g.report.Skipped = append(g.report.Skipped, Diagnostic{Path: n.SourcePath, Err: wrapped})
				return true
			}
			failed = wrapped
			return false
		}
		n.HTML = html
		return true
	})
	return failed
}

// resolveDate parses the declared publish date into the node's ordering
// date. An unparsable date is a warning, not a failure: ordering falls back
// to the source file timestamp.
func (g *Generator) resolveDate(n *tree.Node) {
	raw, ok := n.Metadata[g.cfg.PublishDateKey]
	if !ok {
		return
	}
	s, ok := raw.(string)
	if !ok {
		g.logger.Warn("publish date is not a string, falling back to file timestamp",
			"path", n.SourcePath, "key", g.cfg.PublishDateKey)
		return
	}
	d, err := time.Parse(g.cfg.ReadDateFormat, s)
	if err != nil {
		g.logger.Warn("unparsable publish date, falling back to file timestamp",
			"error", &DateParseError{Path: n.SourcePath, Value: s, Err: err})
		return
	}
	n.UserData[aggregate.PublishDateKey] = d
}

func (g *Generator) runMutator() error {
	if g.mutate == nil {
		return nil
	}
	if err := g.mutate(g.root); err != nil {
		return sgerrors.Wrap(err, sgerrors.CategoryStructure, sgerrors.SeverityFatal,
			"tree mutation hook failed")
	}
	return nil
}

// buildIndexes gives every index-less folder an aggregated listing index.
// With not_found_for_missing_index set, folders keep their missing index and
// get a not-found page at render time instead.
func (g *Generator) buildIndexes() error {
	if g.cfg.NotFoundForMissingIndex {
		return nil
	}

	mode := aggregate.ModeDirect
	if g.cfg.Aggregate.Recursive {
		mode = aggregate.ModeRecursive
	}

	_, err := aggregate.BuildIndexes(g.root, aggregate.IndexOptions{
		Mode:    mode,
		Include: g.cfg.Aggregate.LocalInclude,
		Exclude: g.cfg.Aggregate.LocalExclude,
		PerPage: g.cfg.PostsPerPage,
	})
	if err != nil {
		return sgerrors.Wrap(err, sgerrors.CategoryStructure, sgerrors.SeverityFatal,
			"failed to build folder indexes")
	}
	return nil
}

func (g *Generator) buildCategories() error {
	if !g.cfg.Categories.Build {
		return nil
	}

	set, err := aggregate.BuildCategories(g.root, aggregate.CategoryOptions{
		AllowUncategorized: g.cfg.Categories.AllowUncategorized,
		UncategorizedName:  g.cfg.Categories.UncategorizedName,
		ListPageName:       g.cfg.Categories.ListPageName,
		Group:              g.cfg.Categories.Group,
		PerPage:            g.cfg.PostsPerPage,
	})
	if err != nil {
		return sgerrors.Wrap(err, sgerrors.CategoryStructure, sgerrors.SeverityFatal,
			"failed to build category pages")
	}

	for key, page := range set.Pages {
		g.groupPages[key] = page
	}

	if g.cfg.Navigation.ExcludeCategories {
		if set.Folder != nil {
			g.navExclude = append(g.navExclude, set.Folder.Name)
		} else {
			for _, grp := range set.Groups {
				g.navExclude = append(g.navExclude, grp.Key)
			}
			if set.ListPage != nil {
				g.navExclude = append(g.navExclude, set.ListPage.Name)
			}
		}
	}
	return nil
}

func (g *Generator) buildArchive() error {
	if !g.cfg.Archive.ByMonth && !g.cfg.Archive.ByYear {
		return nil
	}

	set, err := aggregate.BuildArchive(g.root, aggregate.ArchiveOptions{
		ByMonth:      g.cfg.Archive.ByMonth,
		ByYear:       g.cfg.Archive.ByYear,
		MonthFormat:  g.cfg.Archive.MonthFormat,
		YearFormat:   g.cfg.Archive.YearFormat,
		ListPageName: g.cfg.Archive.ListPageName,
		Group:        g.cfg.Archive.Group,
		PerPage:      g.cfg.PostsPerPage,
	})
	if err != nil {
		return sgerrors.Wrap(err, sgerrors.CategoryStructure, sgerrors.SeverityFatal,
			"failed to build archive pages")
	}

	for key, page := range set.PagesByMonth {
		g.groupPages[key] = page
	}
	for key, page := range set.PagesByYear {
		g.groupPages[key] = page
	}

	if g.cfg.Navigation.ExcludeArchive {
		if set.Folder != nil {
			g.navExclude = append(g.navExclude, set.Folder.Name)
		} else {
			for _, grp := range set.ByMonth {
				g.navExclude = append(g.navExclude, grp.Key)
			}
			for _, grp := range set.ByYear {
				g.navExclude = append(g.navExclude, grp.Key)
			}
			if set.ListPage != nil {
				g.navExclude = append(g.navExclude, set.ListPage.Name)
			}
		}
	}
	return nil
}

func (g *Generator) buildHome() error {
	_, err := aggregate.Home(g.root, aggregate.HomeOptions{
		Mode:    aggregate.ModeRecursive,
		Include: g.cfg.Aggregate.HomeInclude,
		Exclude: g.cfg.Aggregate.HomeExclude,
		PerPage: g.cfg.PostsPerPage,
	})
	if err != nil {
		return sgerrors.Wrap(err, sgerrors.CategoryStructure, sgerrors.SeverityFatal,
			"failed to build home page")
	}
	return nil
}

func (g *Generator) buildNavigation() error {
	exclude := append([]string{}, g.cfg.Navigation.Exclude...)
	exclude = append(exclude, g.navExclude...)

	g.navigation = nav.Build(g.root, nav.BuildOptions{
		Options:      g.hrefOptions(),
		HomeName:     g.cfg.Navigation.HomeName,
		Exclude:      exclude,
		IncludePosts: g.cfg.Navigation.IncludePosts,
	})
	return nil
}

func (g *Generator) hrefOptions() nav.Options {
	return nav.Options{Lowercase: g.cfg.LowercaseHrefs}
}
