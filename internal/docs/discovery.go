// Package docs walks the source tree and classifies its files: markdown
// pages go through macro expansion, everything else is copied through
// unchanged.
package docs

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docmacro/internal/errors"
)

// Page is one markdown source file.
type Page struct {
	// AbsPath locates the file on disk.
	AbsPath string
	// RelPath is the path relative to the docs dir, slash-separated; it is
	// the page identity used in diagnostics, variables, and reports.
	RelPath string
}

// URL returns the page's output-relative URL.
func (p Page) URL() string {
	rel := strings.TrimSuffix(p.RelPath, filepath.Ext(p.RelPath))
	if base := filepath.Base(rel); base == "index" || base == "README" {
		rel = filepath.Dir(rel)
		if rel == "." {
			rel = ""
		}
	}
	if rel == "" {
		return "/"
	}
	return "/" + rel + "/"
}

// Asset is a non-markdown file copied through unchanged.
type Asset struct {
	AbsPath string
	RelPath string
}

// Tree is the discovered source tree.
type Tree struct {
	Root   string
	Pages  []Page
	Assets []Asset
}

// Discover walks docsDir. Hidden files and directories (dot-prefixed) are
// skipped. A missing docs dir is a fatal resource error.
func Discover(docsDir string) (*Tree, error) {
	tree := &Tree{Root: docsDir}

	err := filepath.WalkDir(docsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == docsDir {
				return errors.ResourceError("docs directory", docsDir)
			}
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != docsDir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(docsDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if strings.EqualFold(filepath.Ext(path), ".md") {
			tree.Pages = append(tree.Pages, Page{AbsPath: path, RelPath: rel})
		} else {
			tree.Assets = append(tree.Assets, Asset{AbsPath: path, RelPath: rel})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Deterministic processing order regardless of filesystem quirks.
	sort.Slice(tree.Pages, func(i, j int) bool { return tree.Pages[i].RelPath < tree.Pages[j].RelPath })
	sort.Slice(tree.Assets, func(i, j int) bool { return tree.Assets[i].RelPath < tree.Assets[j].RelPath })
	return tree, nil
}

// FilesVar exposes all discovered file paths to macros as the `files`
// variable.
func (t *Tree) FilesVar() []any {
	out := make([]any, 0, len(t.Pages)+len(t.Assets))
	for _, p := range t.Pages {
		out = append(out, p.RelPath)
	}
	for _, a := range t.Assets {
		out = append(out, a.RelPath)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].(string) < out[j].(string) })
	return out
}

// NavigationVar exposes the page tree to macros as the `navigation`
// variable: a sequence of section records, each holding its pages in
// order. The top-level section has an empty name.
func (t *Tree) NavigationVar() []any {
	bySection := make(map[string][]any)
	var order []string
	for _, p := range t.Pages {
		section := ""
		if dir := filepath.Dir(p.RelPath); dir != "." {
			section = filepath.ToSlash(dir)
		}
		if _, seen := bySection[section]; !seen {
			order = append(order, section)
		}
		bySection[section] = append(bySection[section], map[string]any{
			"file": p.RelPath,
			"url":  p.URL(),
		})
	}
	sort.Strings(order)

	nav := make([]any, 0, len(order))
	for _, section := range order {
		nav = append(nav, map[string]any{
			"section": section,
			"pages":   bySection[section],
		})
	}
	return nav
}
