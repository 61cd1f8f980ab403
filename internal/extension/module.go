package extension

import "git.home.luguber.info/inful/docmacro/internal/registry"

// Module is the modern registration entry point. Define runs once during
// setup and may register macros and filters, mutate variables, and capture
// the Env for later hook invocations.
type Module interface {
	Define(env *Env) error
}

// MacroRegistrar is the bare registration function handed to legacy modules.
type MacroRegistrar func(name string, fn registry.MacroFunc)

// LegacyModule is the backward-compatible registration form: the raw
// variable mapping plus a macro-registration function. A module may
// implement Module, LegacyModule, or both; when both are present both run,
// modern first (recorded in DESIGN.md). A loaded value implementing neither
// is a registration error.
type LegacyModule interface {
	DeclareVariables(variables map[string]any, macro MacroRegistrar)
}

// Optional lifecycle hooks, probed once at load time as optional
// interfaces. Each receives the shared Env at its designated lifecycle
// point.
type (
	// PreRenderHook runs immediately before a page's text is handed to the
	// template engine.
	PreRenderHook interface {
		OnPreRender(env *Env) error
	}

	// PostRenderHook runs immediately after evaluation, on success and on
	// failure alike (check env.RenderErr to distinguish).
	PostRenderHook interface {
		OnPostRender(env *Env) error
	}

	// PostBuildHook runs once after all pages have been processed.
	PostBuildHook interface {
		OnPostBuild(env *Env) error
	}
)
