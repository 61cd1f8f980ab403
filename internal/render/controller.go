// Package render implements the per-page render controller: the render
// decision, the per-page variable layer, hook invocation around the engine
// call, and failure recovery.
package render

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/docmacro/internal/engine"
	"git.home.luguber.info/inful/docmacro/internal/extension"
	"git.home.luguber.info/inful/docmacro/internal/logfields"
	"git.home.luguber.info/inful/docmacro/internal/vars"
)

// State tracks a page through the controller.
type State int

const (
	StateCreated State = iota
	StateDecisionMade
	StateSkipped
	StateRendering
	StateRendered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateDecisionMade:
		return "decision_made"
	case StateSkipped:
		return "skipped"
	case StateRendering:
		return "rendering"
	case StateRendered:
		return "rendered"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Page is one document handed to the controller.
type Page struct {
	// File is the page path relative to the docs dir; it identifies the
	// page in diagnostics.
	File string
	// Title from front-matter; empty when absent.
	Title string
	// Meta is the parsed front-matter mapping.
	Meta map[string]any
	// Source is the raw markdown body.
	Source string
	// URL is the page's output-relative URL.
	URL string
}

// Result is the outcome for one page.
type Result struct {
	State  State
	Output string
	Title  string
	// Err holds the evaluation failure when State is StateFailed; the
	// build continued and Output carries the diagnostic text.
	Err error
}

// Controller runs pages through decision, hooks, and the engine. It is
// re-entered once per page; per-page state lives on the stack and in the
// Env's page window, which is reset after every page.
type Controller struct {
	store           *vars.Store
	engine          *engine.Engine
	pipeline        *extension.Pipeline
	env             *extension.Env
	renderByDefault bool
	failFast        bool
}

// NewController wires a controller for one build.
func NewController(store *vars.Store, eng *engine.Engine, pipeline *extension.Pipeline, env *extension.Env, renderByDefault, failFast bool) *Controller {
	return &Controller{
		store:           store,
		engine:          eng,
		pipeline:        pipeline,
		env:             env,
		renderByDefault: renderByDefault,
		failFast:        failFast,
	}
}

// RenderPage processes one page. A non-nil error is fatal to the build
// (hook failure, or an evaluation failure under fail-fast); an evaluation
// failure in degraded mode comes back as a StateFailed result instead.
func (c *Controller) RenderPage(page Page) (*Result, error) {
	decision := Decide(c.renderByDefault,
		FlagFromMeta(page.Meta, MetaIgnoreMacros),
		FlagFromMeta(page.Meta, MetaRenderMacros))

	if decision == DecisionSkip {
		slog.Debug("Macro rendering skipped", logfields.Page(page.File))
		return &Result{State: StateSkipped, Output: page.Source, Title: page.Title}, nil
	}

	defer c.env.ResetPage()

	// Page metadata is layered over a copy of the shared store so nothing
	// this page does leaks into the next one.
	base, err := c.store.Copy()
	if err != nil {
		return nil, err
	}
	pageVars := vars.DeepMerge(base, page.Meta)
	pageVars[vars.KeyPage] = map[string]any{
		"file":  page.File,
		"title": page.Title,
		"url":   page.URL,
		"meta":  vars.DeepCopy(page.Meta),
	}

	c.env.Page = &extension.PageInfo{
		File:  page.File,
		Title: page.Title,
		Meta:  page.Meta,
		URL:   page.URL,
	}
	c.env.Markdown = page.Source
	c.env.RenderErr = nil

	if err := c.pipeline.RunPreRender(c.env); err != nil {
		return nil, err
	}

	result := &Result{Title: page.Title}
	output, renderErr := c.engine.Render(page.File, c.env.Markdown, pageVars)
	if renderErr != nil {
		if c.failFast {
			slog.Error("Macro rendering failed",
				logfields.Page(page.File), logfields.Error(renderErr))
			return nil, renderErr
		}
		result.State = StateFailed
		result.Err = renderErr
		c.env.Markdown = formatDiagnostic(page, renderErr)
		c.env.RenderErr = renderErr
		slog.Warn("Macro rendering failed, substituting diagnostic",
			logfields.Page(page.File), logfields.Error(renderErr))
	} else {
		result.State = StateRendered
		c.env.Markdown = output
	}

	// The title goes through the same engine independently of the body.
	if page.Title != "" {
		title, titleErr := c.engine.Render(page.File, page.Title, pageVars)
		switch {
		case titleErr == nil:
			result.Title = title
		case c.failFast:
			return nil, titleErr
		default:
			slog.Warn("Title rendering failed, keeping raw title",
				logfields.Page(page.File), logfields.Error(titleErr))
		}
	}

	// Post-render hooks run on success and on recovered failure alike.
	if err := c.pipeline.RunPostRender(c.env); err != nil {
		return nil, err
	}

	result.Output = c.env.Markdown
	return result, nil
}

// formatDiagnostic builds the replacement body for a failed page: the error
// description, the page identity, and the original source.
func formatDiagnostic(page Page, err error) string {
	return fmt.Sprintf(
		"# Macro Rendering Error\n\n"+
			"_File_: `%s`\n\n"+
			"_Error_: %v\n\n"+
			"----\n\n"+
			"```markdown\n%s\n```\n",
		page.File, err, page.Source)
}
