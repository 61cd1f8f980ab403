package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docmacro/internal/docs"
	"git.home.luguber.info/inful/docmacro/internal/errors"
	"git.home.luguber.info/inful/docmacro/internal/frontmatter"
	"git.home.luguber.info/inful/docmacro/internal/render"
)

// RenderFile renders a single page and returns the recomposed document
// (front matter plus expanded body) without touching the output directory.
// file may be absolute, relative to the working directory, or relative to
// the docs dir.
func (s *DefaultService) RenderFile(ctx context.Context, req Request, file string) (string, error) {
	sess, err := s.setup(ctx, req)
	if err != nil {
		return "", err
	}

	absPath, relPath, err := resolvePagePath(sess.docsDir, file)
	if err != nil {
		return "", err
	}

	raw, err := os.ReadFile(absPath)
	if err != nil {
		return "", errors.ResourceError("page", absPath)
	}
	doc, err := frontmatter.Parse(raw)
	if err != nil {
		return "", errors.RenderError(relPath, err)
	}

	page := docs.Page{AbsPath: absPath, RelPath: relPath}
	rendered, err := sess.controller.RenderPage(render.Page{
		File:   relPath,
		Title:  doc.Title(),
		Meta:   doc.Meta,
		Source: string(doc.Body),
		URL:    page.URL(),
	})
	if err != nil {
		return "", err
	}
	if rendered.Err != nil && sess.failFast {
		return "", rendered.Err
	}

	out, err := doc.Recompose([]byte(rendered.Output), nil)
	if err != nil {
		return "", errors.InternalError("recompose page", err)
	}
	return string(out), nil
}

// Description reports what a configured build would have available, for the
// `modules` command.
type Description struct {
	CatalogModules []string
	LoadedModules  []string
	Macros         []string
	Filters        []string
	Variables      []string
}

// Describe runs setup only and reports the resulting catalog, loaded
// modules, and registry state.
func (s *DefaultService) Describe(ctx context.Context, req Request) (*Description, error) {
	sess, err := s.setup(ctx, req)
	if err != nil {
		return nil, err
	}

	variables, err := sess.store.Keys()
	if err != nil {
		return nil, err
	}

	return &Description{
		CatalogModules: s.catalog().Names(),
		LoadedModules:  sess.loader.Loaded(),
		Macros:         sess.registry.MacroNames(),
		Filters:        sess.registry.FilterNames(),
		Variables:      variables,
	}, nil
}

// resolvePagePath maps a user-supplied file argument onto the docs tree.
func resolvePagePath(docsDir, file string) (absPath, relPath string, err error) {
	candidates := []string{file}
	if !filepath.IsAbs(file) {
		candidates = append(candidates, filepath.Join(docsDir, file))
	}
	for _, candidate := range candidates {
		info, statErr := os.Stat(candidate)
		if statErr != nil || info.IsDir() {
			continue
		}
		abs, absErr := filepath.Abs(candidate)
		if absErr != nil {
			continue
		}
		absDocs, absErr := filepath.Abs(docsDir)
		if absErr != nil {
			return "", "", errors.InternalError("resolve docs dir", absErr)
		}
		rel, relErr := filepath.Rel(absDocs, abs)
		if relErr != nil || strings.HasPrefix(rel, "..") {
			// Outside the docs tree; identify the page by its base name.
			rel = filepath.Base(abs)
		}
		return abs, filepath.ToSlash(rel), nil
	}
	return "", "", errors.ResourceError("page", file)
}
