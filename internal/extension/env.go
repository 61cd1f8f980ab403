// Package extension implements the module loading protocol: the environment
// object handed to extension code, the catalog of loadable modules, the
// loader that runs registration entry points, and the lifecycle hook
// pipeline.
package extension

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/docmacro/internal/registry"
	"git.home.luguber.info/inful/docmacro/internal/vars"
)

// PageInfo identifies the page currently being rendered. Nil outside the
// pre-render/post-render window.
type PageInfo struct {
	// File is the page path relative to the docs dir.
	File string
	// Title is the page title as known before rendering (front-matter).
	Title string
	// Meta is the parsed front-matter mapping.
	Meta map[string]any
	// URL is the page's output-relative URL.
	URL string
}

// Env is the environment object passed to every extension entry point and
// hook. One Env exists per build; the per-page fields are reset by the
// render controller before each page and must not be read between pages.
type Env struct {
	// Variables is the shared store. Module registration code may read and
	// write it; hooks should treat it as read-mostly.
	Variables *vars.Store

	// Registry exposes macro/filter registration.
	Registry *registry.Registry

	// Conf is the macros section of the configuration as a plain mapping,
	// for modules that key their behavior off configuration values.
	Conf map[string]any

	// ProjectDir is the directory holding the configuration file.
	ProjectDir string

	// DocsDir and OutputDir locate the source tree and the build output.
	DocsDir   string
	OutputDir string

	// Page and Markdown are the current page context during the
	// pre-render/post-render window. Hooks may replace Markdown; the
	// controller uses the value left behind.
	Page     *PageInfo
	Markdown string

	// RenderErr carries the evaluation failure to post-render hooks; nil on
	// success.
	RenderErr error

	verbose bool
	logger  *slog.Logger
}

// NewEnv builds the shared environment around a store and registry.
func NewEnv(store *vars.Store, reg *registry.Registry) *Env {
	return &Env{
		Variables: store,
		Registry:  reg,
		logger:    slog.Default(),
	}
}

// SetVerbose enables the chatter channel.
func (e *Env) SetVerbose(verbose bool) { e.verbose = verbose }

// Verbose reports whether the chatter channel is enabled.
func (e *Env) Verbose() bool { return e.verbose }

// SetLogger overrides the logger used by Chatter.
func (e *Env) SetLogger(logger *slog.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// Chatter logs a message on behalf of a module, but only when verbose mode
// is on. Modules use this instead of logging directly so normal builds stay
// quiet.
func (e *Env) Chatter(module, format string, args ...any) {
	if !e.verbose {
		return
	}
	e.logger.Info(fmt.Sprintf("[macros - %s] %s", module, fmt.Sprintf(format, args...)))
}

// ResetPage clears the per-page fields. Called by the render controller
// after each page so no page context leaks into the next.
func (e *Env) ResetPage() {
	e.Page = nil
	e.Markdown = ""
	e.RenderErr = nil
}
