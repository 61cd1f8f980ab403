// Package registry holds the macro and filter namespaces exposed to
// extension modules. Macros and filters are independent namespaces; within
// each, the last registration under a name wins.
package registry

import (
	"sort"

	"git.home.luguber.info/inful/docmacro/internal/vars"
)

// MacroFunc is a named callable invocable from page text.
type MacroFunc func(args ...any) (any, error)

// FilterFunc transforms a single value during evaluation.
type FilterFunc func(in any, args ...any) (any, error)

// Registry is the capability surface handed to extension code: macro and
// filter registration plus read/write access to the variable store it was
// built around. Not safe for concurrent use; module loading is sequential.
type Registry struct {
	store   *vars.Store
	macros  map[string]MacroFunc
	filters map[string]FilterFunc
}

// New creates an empty registry bound to the given store.
func New(store *vars.Store) *Registry {
	return &Registry{
		store:   store,
		macros:  make(map[string]MacroFunc),
		filters: make(map[string]FilterFunc),
	}
}

// Variables returns the store the registry was built around.
func (r *Registry) Variables() *vars.Store {
	return r.store
}

// RegisterMacro binds fn under name in the macro namespace and returns fn
// unchanged. Rebinding an existing name is allowed; the new binding wins.
func (r *Registry) RegisterMacro(name string, fn MacroFunc) MacroFunc {
	r.macros[name] = fn
	return fn
}

// RegisterFilter binds fn under name in the filter namespace and returns fn
// unchanged. Rebinding an existing name is allowed; the new binding wins.
func (r *Registry) RegisterFilter(name string, fn FilterFunc) FilterFunc {
	r.filters[name] = fn
	return fn
}

// Macro looks up a macro by name.
func (r *Registry) Macro(name string) (MacroFunc, bool) {
	fn, ok := r.macros[name]
	return fn, ok
}

// Filter looks up a filter by name.
func (r *Registry) Filter(name string) (FilterFunc, bool) {
	fn, ok := r.filters[name]
	return fn, ok
}

// Macros returns a copy of the macro namespace.
func (r *Registry) Macros() map[string]MacroFunc {
	out := make(map[string]MacroFunc, len(r.macros))
	for name, fn := range r.macros {
		out[name] = fn
	}
	return out
}

// Filters returns a copy of the filter namespace.
func (r *Registry) Filters() map[string]FilterFunc {
	out := make(map[string]FilterFunc, len(r.filters))
	for name, fn := range r.filters {
		out[name] = fn
	}
	return out
}

// MacroNames returns the registered macro names, sorted.
func (r *Registry) MacroNames() []string {
	names := make([]string, 0, len(r.macros))
	for name := range r.macros {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FilterNames returns the registered filter names, sorted.
func (r *Registry) FilterNames() []string {
	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
