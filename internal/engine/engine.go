// Package engine wraps the gonja Jinja2 engine behind the small capability
// the render controller needs: given text and a variable mapping, produce
// expanded text, raising on evaluation failure. Markers, the include
// directory, and the undefined-identifier policy are fixed at construction.
package engine

import (
	"os"
	"regexp"

	"github.com/nikolalohinski/gonja/v2/builtins"
	gonjacfg "github.com/nikolalohinski/gonja/v2/config"
	"github.com/nikolalohinski/gonja/v2/exec"

	"git.home.luguber.info/inful/docmacro/internal/config"
	"git.home.luguber.info/inful/docmacro/internal/errors"
	"git.home.luguber.info/inful/docmacro/internal/registry"
)

// Options configure a new Engine.
type Options struct {
	Markers    Markers
	IncludeDir string
	Policy     config.UndefinedPolicy

	// Macros become engine globals; Filters are layered over the engine's
	// builtin filters.
	Macros  map[string]registry.MacroFunc
	Filters map[string]registry.FilterFunc
}

// Engine renders page text. Safe to reuse across pages within a build;
// construction happens once after module loading.
type Engine struct {
	cfg        *gonjacfg.Config
	env        *exec.Environment
	markers    Markers
	includeDir string
	policy     config.UndefinedPolicy
	globals    map[string]struct{}
	identRe    *regexp.Regexp
}

// New builds an engine. A configured include directory that does not exist
// is a fatal resource error.
func New(opts Options) (*Engine, error) {
	if opts.IncludeDir != "" {
		if info, err := os.Stat(opts.IncludeDir); err != nil || !info.IsDir() {
			return nil, errors.ResourceError("include directory", opts.IncludeDir)
		}
	}
	policy, err := config.ParseUndefinedPolicy(string(opts.Policy))
	if err != nil {
		return nil, err
	}

	markers := opts.Markers.withDefaults()
	cfg := &gonjacfg.Config{
		BlockStartString:    markers.BlockStart,
		BlockEndString:      markers.BlockEnd,
		VariableStartString: markers.VariableStart,
		VariableEndString:   markers.VariableEnd,
		CommentStartString:  markers.CommentStart,
		CommentEndString:    markers.CommentEnd,
		AutoEscape:          false,
		StrictUndefined:     policy == config.PolicyStrict,
	}

	filters := builtins.Filters
	if len(opts.Filters) > 0 {
		wrapped := make(map[string]exec.FilterFunction, len(opts.Filters))
		for name, fn := range opts.Filters {
			wrapped[name] = wrapFilter(fn)
		}
		filters = filters.Update(exec.NewFilterSet(wrapped))
	}

	globalNames := make(map[string]struct{}, len(opts.Macros))
	globalFunctions := builtins.GlobalFunctions
	if len(opts.Macros) > 0 {
		wrapped := make(map[string]any, len(opts.Macros))
		for name, fn := range opts.Macros {
			wrapped[name] = wrapMacro(fn)
			globalNames[name] = struct{}{}
		}
		globalFunctions = globalFunctions.Update(exec.NewContext(wrapped))
	}

	env := &exec.Environment{
		Filters:           filters,
		Tests:             builtins.Tests,
		ControlStructures: builtins.ControlStructures,
		Methods:           builtins.Methods,
		Context:           globalFunctions,
	}

	return &Engine{
		cfg:        cfg,
		env:        env,
		markers:    markers,
		includeDir: opts.IncludeDir,
		policy:     policy,
		globals:    globalNames,
		identRe:    identifierPattern(markers),
	}, nil
}

// Policy returns the undefined-identifier policy in effect.
func (e *Engine) Policy() config.UndefinedPolicy { return e.policy }

// Markers returns the delimiters in effect.
func (e *Engine) Markers() Markers { return e.markers }

// Render evaluates source with the given variables. name identifies the
// page for include resolution and diagnostics. pageVars may be amended with
// policy placeholders; callers pass per-page copies, never the shared store.
func (e *Engine) Render(name, source string, pageVars map[string]any) (string, error) {
	if pageVars == nil {
		pageVars = map[string]any{}
	}
	e.applyUndefinedPolicy(source, pageVars)

	loader := newSourceLoader(name, source, e.includeDir)
	tmpl, err := exec.NewTemplate(name, e.cfg, loader, e.env)
	if err != nil {
		return "", errors.RenderError(name, err)
	}

	out, err := tmpl.ExecuteToString(exec.NewContext(pageVars))
	if err != nil {
		return "", errors.RenderError(name, err)
	}
	return out, nil
}

// wrapMacro adapts a registry macro to the engine's callable signature.
func wrapMacro(fn registry.MacroFunc) func(*exec.Evaluator, *exec.VarArgs) *exec.Value {
	return func(_ *exec.Evaluator, params *exec.VarArgs) *exec.Value {
		var args []any
		if params != nil {
			for _, arg := range params.Args {
				args = append(args, arg.Interface())
			}
		}
		result, err := fn(args...)
		if err != nil {
			return exec.AsValue(exec.ErrInvalidCall(err))
		}
		return exec.AsValue(result)
	}
}

// wrapFilter adapts a registry filter to the engine's filter signature.
func wrapFilter(fn registry.FilterFunc) exec.FilterFunction {
	return func(_ *exec.Evaluator, in *exec.Value, params *exec.VarArgs) *exec.Value {
		var args []any
		if params != nil {
			for _, arg := range params.Args {
				args = append(args, arg.Interface())
			}
		}
		result, err := fn(in.Interface(), args...)
		if err != nil {
			return exec.AsValue(err)
		}
		return exec.AsValue(result)
	}
}
