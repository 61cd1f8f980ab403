// Package config loads and validates docmacro.yaml. Defaults are applied in
// Load; validation failures surface as fatal config errors before any page
// is processed.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docmacro/internal/errors"
	"git.home.luguber.info/inful/docmacro/internal/vars"
)

// Config is the full docmacro.yaml schema.
type Config struct {
	SiteName  string         `yaml:"site_name"`
	DocsDir   string         `yaml:"docs_dir"`
	OutputDir string         `yaml:"output_dir"`
	Extra     map[string]any `yaml:"extra"`
	Macros    MacrosConfig   `yaml:"macros"`
	History   HistoryConfig  `yaml:"history"`
	Watch     WatchConfig    `yaml:"watch"`
	Metrics   MetricsConfig  `yaml:"metrics"`
	Events    EventsConfig   `yaml:"events"`

	// path is the loaded file; raw is the file parsed as a plain mapping,
	// kept for the defensive `config` variable exposed to pages.
	path string
	raw  map[string]any
}

// MacrosConfig configures the macro-expansion engine itself.
type MacrosConfig struct {
	ModuleName      string        `yaml:"module_name"`
	Modules         []string      `yaml:"modules"`
	RenderByDefault *bool         `yaml:"render_by_default"`
	IncludeDir      string        `yaml:"include_dir"`
	IncludeYAML     []IncludeYAML `yaml:"include_yaml"`

	J2BlockStartString    string `yaml:"j2_block_start_string"`
	J2BlockEndString      string `yaml:"j2_block_end_string"`
	J2VariableStartString string `yaml:"j2_variable_start_string"`
	J2VariableEndString   string `yaml:"j2_variable_end_string"`
	J2CommentStartString  string `yaml:"j2_comment_start_string"`
	J2CommentEndString    string `yaml:"j2_comment_end_string"`

	OnUndefined UndefinedPolicy `yaml:"on_undefined"`
	OnErrorFail bool            `yaml:"on_error_fail"`
	Verbose     bool            `yaml:"verbose"`
}

// RenderAll reports the global render decision default: opt-out mode when
// true, opt-in mode when false.
func (m MacrosConfig) RenderAll() bool {
	if m.RenderByDefault == nil {
		return true
	}
	return *m.RenderByDefault
}

// IncludeYAML is one entry of macros.include_yaml: either a bare filename
// merged at the top level, or a single-entry {key: filename} mapping merged
// under that key.
type IncludeYAML struct {
	Key  string
	File string
}

// UnmarshalYAML accepts both the scalar and the keyed form.
func (iy *IncludeYAML) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&iy.File)
	case yaml.MappingNode:
		var m map[string]string
		if err := node.Decode(&m); err != nil {
			return err
		}
		if len(m) != 1 {
			return fmt.Errorf("include_yaml mapping entry must have exactly one key, got %d", len(m))
		}
		for k, v := range m {
			iy.Key = k
			iy.File = v
		}
		return nil
	default:
		return fmt.Errorf("include_yaml entry must be a filename or a {key: filename} mapping")
	}
}

// HistoryConfig enables the sqlite build history backing incremental mode.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// WatchConfig tunes the live-rebuild loop.
type WatchConfig struct {
	Debounce        string `yaml:"debounce"`
	RebuildInterval string `yaml:"rebuild_interval"`

	debounce        time.Duration
	rebuildInterval time.Duration
}

// DebounceDuration returns the parsed debounce window.
func (w WatchConfig) DebounceDuration() time.Duration { return w.debounce }

// RebuildIntervalDuration returns the parsed periodic rebuild interval;
// zero disables periodic rebuilds.
func (w WatchConfig) RebuildIntervalDuration() time.Duration { return w.rebuildInterval }

// MetricsConfig enables the prometheus endpoint in watch mode.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// EventsConfig enables NATS build-event publishing.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// Load reads, defaults, and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ResourceError("configuration file", path)
		}
		return nil, errors.FileSystemError("read config", err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal,
			"could not parse configuration file").WithContext("path", path)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(expanded, &raw); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal,
			"could not parse configuration file").WithContext("path", path)
	}
	cfg.raw = raw
	cfg.path = path

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SiteName == "" {
		c.SiteName = "Documentation"
	}
	if c.DocsDir == "" {
		c.DocsDir = "docs"
	}
	if c.OutputDir == "" {
		c.OutputDir = "site"
	}
	if c.Macros.ModuleName == "" {
		c.Macros.ModuleName = "main"
	}
	if c.Macros.OnUndefined == "" {
		c.Macros.OnUndefined = PolicyKeep
	}
	if c.History.Enabled && c.History.Path == "" {
		c.History.Path = filepath.Join(c.OutputDir, ".docmacro", "history.db")
	}
	if c.Watch.Debounce == "" {
		c.Watch.Debounce = "400ms"
	}
	if c.Watch.RebuildInterval == "" {
		c.Watch.RebuildInterval = "0s"
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = ":9090"
	}
	if c.Events.Subject == "" {
		c.Events.Subject = "docmacro.builds"
	}
}

func (c *Config) validate() error {
	if _, err := ParseUndefinedPolicy(string(c.Macros.OnUndefined)); err != nil {
		return err
	}

	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return errors.ConfigValueError("watch.debounce", c.Watch.Debounce,
			"must be a positive duration")
	}
	c.Watch.debounce = d

	ri, err := time.ParseDuration(c.Watch.RebuildInterval)
	if err != nil || ri < 0 {
		return errors.ConfigValueError("watch.rebuild_interval", c.Watch.RebuildInterval,
			"must be a non-negative duration")
	}
	c.Watch.rebuildInterval = ri

	for _, entry := range c.Macros.IncludeYAML {
		if entry.File == "" {
			return errors.ConfigValueError("macros.include_yaml", entry,
				"entry is missing a filename")
		}
	}
	return nil
}

// Path returns the loaded configuration file path.
func (c *Config) Path() string { return c.path }

// ProjectDir returns the directory holding the configuration file; relative
// paths in the file resolve against it.
func (c *Config) ProjectDir() string {
	if c.path == "" {
		return "."
	}
	return filepath.Dir(c.path)
}

// ResolveDocsDir returns the absolute-ish docs directory.
func (c *Config) ResolveDocsDir() string {
	return c.resolve(c.DocsDir)
}

// ResolveOutputDir returns the output directory resolved against the
// project dir.
func (c *Config) ResolveOutputDir() string {
	return c.resolve(c.OutputDir)
}

// ResolveIncludeDir returns the template include directory; it defaults to
// the docs dir when unconfigured.
func (c *Config) ResolveIncludeDir() string {
	if c.Macros.IncludeDir == "" {
		return c.ResolveDocsDir()
	}
	return c.resolve(c.Macros.IncludeDir)
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.ProjectDir(), path)
}

// AsMap returns a structurally independent copy of the raw configuration
// mapping. Pages see it as the `config` variable; mutating it must never
// affect the loaded configuration.
func (c *Config) AsMap() map[string]any {
	return vars.DeepCopy(c.raw)
}

// MacrosMap returns the macros section as a plain mapping for the extension
// environment.
func (c *Config) MacrosMap() map[string]any {
	if section, ok := c.raw["macros"].(map[string]any); ok {
		return vars.DeepCopy(section)
	}
	return map[string]any{}
}
