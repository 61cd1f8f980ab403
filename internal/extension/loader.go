package extension

import (
	"context"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/docmacro/internal/errors"
	"git.home.luguber.info/inful/docmacro/internal/logfields"
	"git.home.luguber.info/inful/docmacro/internal/registry"
)

// DefaultLocalModule is the local project module name implied when none is
// configured. Its absence is not an error; an explicitly configured name
// must exist.
const DefaultLocalModule = "main"

// Loader resolves configured module names against the catalog, runs each
// module's registration entry point, and harvests optional lifecycle hooks
// into the pipeline. Loading happens once per build, in configured order.
type Loader struct {
	catalog   *Catalog
	installer Installer
	pipeline  *Pipeline
	env       *Env
	loaded    []string
}

// NewLoader wires a loader. A nil installer falls back to
// DisabledInstaller.
func NewLoader(catalog *Catalog, installer Installer, pipeline *Pipeline, env *Env) *Loader {
	if installer == nil {
		installer = DisabledInstaller{}
	}
	return &Loader{
		catalog:   catalog,
		installer: installer,
		pipeline:  pipeline,
		env:       env,
	}
}

// Loaded returns the names of modules loaded so far, in load order.
func (l *Loader) Loaded() []string {
	return append([]string(nil), l.loaded...)
}

// LoadAll runs the full loading algorithm: every named module in configured
// order, then the local project module. localName may be empty, meaning the
// default name whose absence is silently skipped.
func (l *Loader) LoadAll(ctx context.Context, modules []string, localName string) error {
	for _, spec := range modules {
		if err := l.LoadNamed(ctx, spec); err != nil {
			return err
		}
	}
	return l.LoadLocal(localName)
}

// LoadNamed loads one configured module given as "source:module" or a bare
// "module". On a catalog miss it asks the installer once and retries the
// lookup exactly once; a second miss is fatal.
func (l *Loader) LoadNamed(ctx context.Context, spec string) error {
	source, name := splitModuleSpec(spec)

	mod, ok := l.catalog.Lookup(name)
	if !ok {
		slog.Debug("Module not in catalog, attempting install",
			logfields.Module(name), logfields.Name(source))
		if err := l.installer.Install(ctx, source, name); err != nil {
			return errors.ModuleLoadError(name, err)
		}
		mod, ok = l.catalog.Lookup(name)
		if !ok {
			return errors.ModuleLoadError(name, nil).
				WithContext("source", source).
				WithContext("reason", "module still missing after install")
		}
	}

	return l.register(name, mod)
}

// LoadLocal loads the local project module. A missing module under the
// default name is silently skipped; a missing explicitly configured name is
// fatal.
func (l *Loader) LoadLocal(name string) error {
	explicit := name != "" && name != DefaultLocalModule
	if name == "" {
		name = DefaultLocalModule
	}

	mod, ok := l.catalog.Lookup(name)
	if !ok {
		if explicit {
			return errors.ModuleLoadError(name, nil).
				WithContext("reason", "configured local module not found")
		}
		slog.Debug("No local project module", logfields.Module(name))
		return nil
	}

	return l.register(name, mod)
}

// register runs the module's registration entry point(s) and harvests its
// optional hooks. A module with neither entry point fails, even when it
// carries hooks.
func (l *Loader) register(name string, mod any) error {
	ran := false

	if m, ok := mod.(Module); ok {
		if err := m.Define(l.env); err != nil {
			return errors.ModuleLoadError(name, err).
				WithContext("reason", "registration entry point failed")
		}
		ran = true
	}
	if m, ok := mod.(LegacyModule); ok {
		m.DeclareVariables(l.env.Variables.Raw(), func(macroName string, fn registry.MacroFunc) {
			l.env.Registry.RegisterMacro(macroName, fn)
		})
		ran = true
	}
	if !ran {
		return errors.RegistrationError(name)
	}

	if h, ok := mod.(PreRenderHook); ok {
		l.pipeline.AddPreRender(name, h.OnPreRender)
	}
	if h, ok := mod.(PostRenderHook); ok {
		l.pipeline.AddPostRender(name, h.OnPostRender)
	}
	if h, ok := mod.(PostBuildHook); ok {
		l.pipeline.AddPostBuild(name, h.OnPostBuild)
	}

	l.loaded = append(l.loaded, name)
	slog.Debug("Extension module loaded", logfields.Module(name))
	return nil
}

// splitModuleSpec separates "source:module" into its parts; a bare module
// name is its own source.
func splitModuleSpec(spec string) (source, module string) {
	if idx := strings.Index(spec, ":"); idx >= 0 {
		return spec[:idx], spec[idx+1:]
	}
	return spec, spec
}
