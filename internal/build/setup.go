package build

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docmacro/internal/config"
	"git.home.luguber.info/inful/docmacro/internal/docs"
	"git.home.luguber.info/inful/docmacro/internal/engine"
	"git.home.luguber.info/inful/docmacro/internal/errors"
	"git.home.luguber.info/inful/docmacro/internal/extension"
	"git.home.luguber.info/inful/docmacro/internal/extension/builtin"
	"git.home.luguber.info/inful/docmacro/internal/logfields"
	"git.home.luguber.info/inful/docmacro/internal/registry"
	"git.home.luguber.info/inful/docmacro/internal/render"
	"git.home.luguber.info/inful/docmacro/internal/vars"
)

// session holds the fully wired collaborators for one build: the seeded
// store, the loaded extension modules, the engine, and the controller.
type session struct {
	cfg        *config.Config
	store      *vars.Store
	registry   *registry.Registry
	env        *extension.Env
	pipeline   *extension.Pipeline
	loader     *extension.Loader
	engine     *engine.Engine
	controller *render.Controller
	tree       *docs.Tree
	docsDir    string
	outputDir  string
	failFast   bool
}

// setup runs the variable seeding and module loading sequence. Order
// matters: extra and config first, then external yaml, then the standard
// context module, then extra's entries at the top level, and the configured
// extension modules last so module code has the final word.
func (s *DefaultService) setup(ctx context.Context, req Request) (*session, error) {
	cfg := req.Config
	if cfg == nil {
		return nil, errors.ConfigError("no configuration provided")
	}

	docsDir := cfg.ResolveDocsDir()
	outputDir := cfg.ResolveOutputDir()
	if req.OutputDir != "" {
		outputDir = req.OutputDir
	}

	tree, err := docs.Discover(docsDir)
	if err != nil {
		return nil, err
	}

	store := vars.New()
	reg := registry.New(store)

	store.Set(vars.KeyExtra, vars.DeepCopy(cfg.Extra))
	store.Set(vars.KeyConfig, cfg.AsMap())
	store.Set(vars.KeyFiles, tree.FilesVar())
	store.Set(vars.KeyNavigation, tree.NavigationVar())

	if err := seedIncludeYAML(store, cfg, s.logger()); err != nil {
		return nil, err
	}

	store.MarkReady()

	env := extension.NewEnv(store, reg)
	env.Conf = cfg.MacrosMap()
	env.ProjectDir = cfg.ProjectDir()
	env.DocsDir = docsDir
	env.OutputDir = outputDir
	env.SetVerbose(cfg.Macros.Verbose || req.Verbose)
	env.SetLogger(s.logger())

	pipeline := extension.NewPipeline()
	loader := extension.NewLoader(s.catalog(), s.Installer, pipeline, env)

	// The standard context module always loads first.
	if err := loader.LoadNamed(ctx, builtin.ModuleName); err != nil {
		return nil, err
	}

	// Extra entries become plain top-level names after the context module
	// seeds its variables, so user values shadow the standard ones.
	store.Merge(vars.DeepCopy(cfg.Extra))

	modules := make([]string, 0, len(cfg.Macros.Modules))
	for _, m := range cfg.Macros.Modules {
		if m == builtin.ModuleName {
			continue
		}
		modules = append(modules, m)
	}
	if err := loader.LoadAll(ctx, modules, cfg.Macros.ModuleName); err != nil {
		return nil, err
	}

	// Documentation copies of the final registry state.
	store.Set(vars.KeyMacros, toAnySlice(reg.MacroNames()))
	store.Set(vars.KeyFilters, toAnySlice(reg.FilterNames()))
	store.Set(vars.KeyFiltersBuiltin, toAnySlice(builtin.FilterNames()))

	eng, err := engine.New(engine.Options{
		Markers:    markersFromConfig(cfg.Macros),
		IncludeDir: cfg.ResolveIncludeDir(),
		Policy:     cfg.Macros.OnUndefined,
		Macros:     reg.Macros(),
		Filters:    reg.Filters(),
	})
	if err != nil {
		return nil, err
	}

	failFast := cfg.Macros.OnErrorFail
	if req.FailFast != nil {
		failFast = *req.FailFast
	}

	controller := render.NewController(store, eng, pipeline, env,
		cfg.Macros.RenderAll(), failFast)

	return &session{
		cfg:        cfg,
		store:      store,
		registry:   reg,
		env:        env,
		pipeline:   pipeline,
		loader:     loader,
		engine:     eng,
		controller: controller,
		tree:       tree,
		docsDir:    docsDir,
		outputDir:  outputDir,
		failFast:   failFast,
	}, nil
}

// seedIncludeYAML merges external yaml files into the store in listed
// order. A missing file is a warning, not a failure.
func seedIncludeYAML(store *vars.Store, cfg *config.Config, logger *slog.Logger) error {
	for _, entry := range cfg.Macros.IncludeYAML {
		path := entry.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.ProjectDir(), path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("include_yaml file not readable, skipping",
				logfields.Path(path), logfields.Error(err))
			continue
		}

		var parsed map[string]any
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return errors.ConfigValueError("macros.include_yaml", entry.File, err.Error())
		}

		if entry.Key == "" {
			store.Merge(parsed)
		} else {
			store.MergeUnder(entry.Key, parsed)
		}
	}
	return nil
}

// markersFromConfig maps the six j2 delimiter options onto engine markers;
// empty strings mean the engine defaults.
func markersFromConfig(m config.MacrosConfig) engine.Markers {
	return engine.Markers{
		BlockStart:    m.J2BlockStartString,
		BlockEnd:      m.J2BlockEndString,
		VariableStart: m.J2VariableStartString,
		VariableEnd:   m.J2VariableEndString,
		CommentStart:  m.J2CommentStartString,
		CommentEnd:    m.J2CommentEndString,
	}
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
