package extension

import "sort"

// Catalog resolves module names to module values. It is the compile-time
// replacement for dynamic import: built-in modules and any modules linked
// into the binary register themselves here, and configuration selects from
// the registered names.
type Catalog struct {
	factories map[string]func() any
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]func() any)}
}

// Add registers a module factory under name. The factory runs once per
// build so module instances never carry state across builds. Re-adding a
// name replaces the factory.
func (c *Catalog) Add(name string, factory func() any) {
	c.factories[name] = factory
}

// Lookup instantiates the module registered under name.
func (c *Catalog) Lookup(name string) (any, bool) {
	factory, ok := c.factories[name]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// Has reports whether a module is registered under name.
func (c *Catalog) Has(name string) bool {
	_, ok := c.factories[name]
	return ok
}

// Names returns all registered module names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
