// Package builtin ships the standard context module, loaded into every
// build before any configured extension. It contributes the git,
// environment, and build variables plus a handful of general-purpose macros
// and filters.
package builtin

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docmacro/internal/extension"
	"git.home.luguber.info/inful/docmacro/internal/vars"
	"git.home.luguber.info/inful/docmacro/internal/version"
)

// ModuleName is the catalog name of the standard context module.
const ModuleName = "docmacro/context"

// Register adds the module to a catalog.
func Register(catalog *extension.Catalog) {
	catalog.Add(ModuleName, func() any { return &ContextModule{} })
}

// FilterNames lists the filters the context module contributes, for the
// `filters_builtin` documentation variable.
func FilterNames() []string {
	return []string{"fix_url", "pretty", "slugify"}
}

// ContextModule implements the modern registration entry point.
type ContextModule struct{}

// Define seeds standard variables and registers the built-in macros and
// filters.
func (m *ContextModule) Define(env *extension.Env) error {
	env.Variables.Set(vars.KeyGit, gitVariables(env.ProjectDir))
	env.Variables.Set(vars.KeyEnvironment, environmentVariables())
	env.Variables.Set(vars.KeyBuild, map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   version.Version,
	})

	env.Registry.RegisterMacro("now", nowMacro)
	env.Registry.RegisterMacro("context", contextMacro(env))
	env.Registry.RegisterMacro("macros_info", macrosInfoMacro(env))

	env.Registry.RegisterFilter("pretty", prettyFilter)
	env.Registry.RegisterFilter("slugify", slugifyFilter)
	env.Registry.RegisterFilter("fix_url", fixURLFilter)

	env.Chatter(ModuleName, "standard context loaded")
	return nil
}

func environmentVariables() map[string]any {
	hostname, _ := os.Hostname()
	cwd, _ := os.Getwd()
	return map[string]any{
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"go_version": runtime.Version(),
		"hostname":   hostname,
		"user":       os.Getenv("USER"),
		"cwd":        cwd,
	}
}

// nowMacro returns the current time, RFC3339 by default, or formatted with
// a Go layout passed as the first argument.
func nowMacro(args ...any) (any, error) {
	layout := time.RFC3339
	if len(args) > 0 {
		s, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("now: layout must be a string, got %T", args[0])
		}
		layout = s
	}
	return time.Now().Format(layout), nil
}

// contextMacro lists the defined variable names, optionally filtered by
// prefix. Handy inside pages when debugging what a module contributed.
func contextMacro(env *extension.Env) func(args ...any) (any, error) {
	return func(args ...any) (any, error) {
		prefix := ""
		if len(args) > 0 {
			s, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("context: prefix must be a string, got %T", args[0])
			}
			prefix = s
		}

		keys, err := env.Variables.Keys()
		if err != nil {
			return nil, err
		}
		if prefix == "" {
			return keys, nil
		}
		filtered := make([]string, 0, len(keys))
		for _, k := range keys {
			if strings.HasPrefix(k, prefix) {
				filtered = append(filtered, k)
			}
		}
		return filtered, nil
	}
}

// macrosInfoMacro reports the registered macro and filter names.
func macrosInfoMacro(env *extension.Env) func(args ...any) (any, error) {
	return func(args ...any) (any, error) {
		macros := env.Registry.MacroNames()
		filters := env.Registry.FilterNames()
		sort.Strings(macros)
		sort.Strings(filters)
		return map[string]any{
			"macros":  macros,
			"filters": filters,
		}, nil
	}
}

// prettyFilter renders a value as indented YAML, for dumping structures
// into pages.
func prettyFilter(in any, _ ...any) (any, error) {
	if in == nil {
		return "", nil
	}
	data, err := yaml.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("pretty: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// fixURLFilter normalizes a URL for use inside a page: absolute URLs and
// anchors pass through, anything else becomes explicitly relative.
func fixURLFilter(in any, _ ...any) (any, error) {
	s, ok := in.(string)
	if !ok {
		return nil, fmt.Errorf("fix_url: expected string, got %T", in)
	}
	switch {
	case s == "",
		strings.HasPrefix(s, "#"),
		strings.HasPrefix(s, "/"),
		strings.HasPrefix(s, "./"),
		strings.HasPrefix(s, "../"),
		strings.Contains(s, "://"):
		return s, nil
	default:
		return "./" + s, nil
	}
}
