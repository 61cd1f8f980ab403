// Package incremental decides which pages need re-rendering based on
// content fingerprints and a build input signature.
package incremental

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/docmacro/internal/config"
	"git.home.luguber.info/inful/docmacro/internal/frontmatter"
	"git.home.luguber.info/inful/docmacro/internal/history"
)

// PageFingerprint hashes a page's front matter and body. Front matter is
// serialized with sorted keys and LF newlines so the fingerprint is stable
// across filesystems and map orderings.
func PageFingerprint(meta map[string]any, body []byte) (string, error) {
	serialized := ""
	if len(meta) > 0 {
		out, err := frontmatter.Serialize(meta, frontmatter.Style{Newline: "\n"})
		if err != nil {
			return "", fmt.Errorf("serialize front matter for fingerprint: %w", err)
		}
		serialized = string(out)
	}
	return mdfp.CalculateFingerprintFromParts(serialized, string(body)), nil
}

// BuildSignature hashes the build inputs that affect every page: the macros
// configuration and the set of registered macro and filter names. Any change
// invalidates all cached page fingerprints.
func BuildSignature(cfg *config.Config, macroNames, filterNames []string) (string, error) {
	macros := append([]string(nil), macroNames...)
	filters := append([]string(nil), filterNames...)
	sort.Strings(macros)
	sort.Strings(filters)

	inputs := struct {
		Macros  config.MacrosConfig `json:"macros"`
		Extra   map[string]any      `json:"extra"`
		Names   []string            `json:"macro_names"`
		Filters []string            `json:"filter_names"`
	}{
		Macros:  cfg.Macros,
		Extra:   cfg.Extra,
		Names:   macros,
		Filters: filters,
	}

	data, err := json.Marshal(inputs)
	if err != nil {
		return "", fmt.Errorf("marshal build signature inputs: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Checker answers "does this page need re-rendering" against the history
// store. When the build signature differs from the previous build's, every
// page is considered changed.
type Checker struct {
	store       *history.Store
	signature   string
	invalidated bool
}

// NewChecker compares signature against the store's latest build. A nil
// store disables skipping entirely.
func NewChecker(ctx context.Context, store *history.Store, signature string) (*Checker, error) {
	c := &Checker{store: store, signature: signature}
	if store == nil {
		c.invalidated = true
		return c, nil
	}
	previous, err := store.LatestBuildSignature(ctx)
	if err != nil {
		return nil, err
	}
	c.invalidated = previous == "" || previous != signature
	return c, nil
}

// Signature returns the signature this checker was built with.
func (c *Checker) Signature() string {
	return c.signature
}

// ShouldRender reports whether the page changed since its last recorded
// build. It returns the page's current fingerprint so callers can record it
// after rendering.
func (c *Checker) ShouldRender(ctx context.Context, relPath string, meta map[string]any, body []byte) (bool, string, error) {
	fp, err := PageFingerprint(meta, body)
	if err != nil {
		return true, "", err
	}
	if c.invalidated {
		return true, fp, nil
	}
	previous, err := c.store.LatestFingerprint(ctx, relPath)
	if err != nil {
		return true, fp, err
	}
	return previous == "" || previous != fp, fp, nil
}
