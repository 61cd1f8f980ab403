// Package linkreport is an opt-in extension module that collects the links
// of every rendered page and writes a links.json report after the build.
// It doubles as the end-to-end exercise of the hook pipeline.
package linkreport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/docmacro/internal/extension"
	"git.home.luguber.info/inful/docmacro/internal/markdown"
)

// ModuleName is the catalog name; enable via `modules: [docmacro/linkreport]`.
const ModuleName = "docmacro/linkreport"

// ReportFile is written under the output directory.
const ReportFile = "links.json"

// Register adds the module to a catalog.
func Register(catalog *extension.Catalog) {
	catalog.Add(ModuleName, func() any { return &Module{} })
}

// PageLinks is one report entry.
type PageLinks struct {
	Page  string   `json:"page"`
	Links []string `json:"links"`
}

// Module collects links post-render and writes the report post-build.
type Module struct {
	pages []PageLinks
}

// Define registers the module; collection state starts empty each build.
func (m *Module) Define(env *extension.Env) error {
	m.pages = nil
	env.Chatter(ModuleName, "link report enabled")
	return nil
}

// OnPostRender harvests links from the page text left behind by rendering,
// markdown syntax and inline HTML alike. Failed pages carry a diagnostic
// body; they are skipped.
func (m *Module) OnPostRender(env *extension.Env) error {
	if env.Page == nil || env.RenderErr != nil {
		return nil
	}

	links := collectLinks(env.Markdown)
	if len(links) == 0 {
		return nil
	}
	m.pages = append(m.pages, PageLinks{Page: env.Page.File, Links: links})
	env.Chatter(ModuleName, "collected %d links from %s", len(links), env.Page.File)
	return nil
}

// OnPostBuild writes the report under the output directory.
func (m *Module) OnPostBuild(env *extension.Env) error {
	if env.OutputDir == "" {
		return nil
	}

	sort.Slice(m.pages, func(i, j int) bool { return m.pages[i].Page < m.pages[j].Page })

	data, err := json.MarshalIndent(m.pages, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(env.OutputDir, ReportFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	env.Chatter(ModuleName, "wrote %s (%d pages)", path, len(m.pages))
	return nil
}

// collectLinks merges markdown link destinations with hrefs from inline
// HTML, deduplicated and sorted.
func collectLinks(body string) []string {
	seen := make(map[string]struct{})

	mdLinks, err := markdown.ExtractLinks([]byte(body))
	if err == nil {
		for _, l := range mdLinks {
			if l.Destination != "" {
				seen[l.Destination] = struct{}{}
			}
		}
	}

	for _, href := range htmlHrefs(body) {
		seen[href] = struct{}{}
	}

	links := make([]string, 0, len(seen))
	for l := range seen {
		links = append(links, l)
	}
	sort.Strings(links)
	return links
}

// htmlHrefs tokenizes the body as HTML and pulls href/src attributes from
// anchors and images embedded in the markdown.
func htmlHrefs(body string) []string {
	var out []string
	tokenizer := html.NewTokenizer(strings.NewReader(body))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			return out
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		token := tokenizer.Token()
		want := ""
		switch token.Data {
		case "a":
			want = "href"
		case "img":
			want = "src"
		default:
			continue
		}
		for _, attr := range token.Attr {
			if attr.Key == want && attr.Val != "" {
				out = append(out, attr.Val)
			}
		}
	}
}
