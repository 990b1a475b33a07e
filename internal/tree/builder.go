package tree

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
)

// IOError reports an unreadable file or directory during tree construction.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// BuildOptions configures the directory walk.
type BuildOptions struct {
	// Extensions lists the accepted content file extensions (with dot).
	// Defaults to [".md"].
	Extensions []string

	// SkipOnError records unreadable or unparsable documents in the report
	// and continues instead of aborting the whole build. The default favors
	// determinism: abort on first error.
	SkipOnError bool
}

// Diagnostic is one collected per-document failure from a skip-on-error build.
type Diagnostic struct {
	Path string
	Err  error
}

// Report collects the non-fatal diagnostics of a build.
type Report struct {
	Skipped []Diagnostic
}

// FromDirectory builds a content tree by walking dir.
//
// Directories become folders, files with an accepted extension become pages
// with their metadata extracted, and a file named index.* becomes its
// folder's index page. Entries are sorted by name explicitly; no filesystem
// iteration order is assumed.
func FromDirectory(dir string, opts BuildOptions) (*Node, *Report, error) {
	extensions := opts.Extensions
	if len(extensions) == 0 {
		extensions = []string{".md"}
	}

	root := NewRoot()
	report := &Report{}
	if err := buildInto(root, dir, extensions, opts.SkipOnError, report); err != nil {
		return nil, nil, err
	}
	return root, report, nil
}

func buildInto(parent *Node, dir string, extensions []string, skip bool, report *Report) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		ioErr := &IOError{Path: dir, Err: err}
		if skip {
			report.Skipped = append(report.Skipped, Diagnostic{Path: dir, Err: ioErr})
			return nil
		}
		return ioErr
	}

	slices.SortFunc(entries, func(a, b os.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			folder := NewFolder(entry.Name())
			if err := attach(parent, folder); err != nil {
				return err
			}
			if err := buildInto(folder, path, extensions, skip, report); err != nil {
				return err
			}
			continue
		}

		ext := filepath.Ext(entry.Name())
		if !slices.Contains(extensions, ext) {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ext)
		page, err := loadPage(name, path)
		if err != nil {
			if skip {
				report.Skipped = append(report.Skipped, Diagnostic{Path: path, Err: err})
				continue
			}
			return err
		}

		if name == "index" {
			page.Name = parent.Name
			parent.SetIndex(page)
			continue
		}
		if err := attach(parent, page); err != nil {
			return err
		}
	}

	return nil
}

// attach links a freshly built node under parent. Sibling name collisions
// (e.g. a directory and a file sharing a stem) are construction-time errors
// regardless of the skip policy.
func attach(parent, node *Node) error {
	if existing := parent.Child(node.Name); existing != nil {
		return &CollisionError{Parent: parent.Name, Name: node.Name}
	}
	parent.children = append(parent.children, node)
	node.parent = parent
	return nil
}

// loadPage reads a content file and extracts its metadata block.
func loadPage(name, path string) (*Node, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}

	block, body, had, err := frontmatter.Split(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	page := NewPage(name)
	page.SourcePath = path
	page.SourceTimestamp = info.ModTime()
	page.Body = body

	if had {
		metadata, err := frontmatter.Parse(block)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		page.Metadata = metadata
	}

	return page, nil
}
