package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmacro/internal/config"
)

// writeProject lays out a project dir with a config file and docs tree and
// returns the loaded config.
func writeProject(t *testing.T, configBody string, files map[string]string) *config.Config {
	t.Helper()
	dir := t.TempDir()

	for rel, content := range files {
		path := filepath.Join(dir, "docs", filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfgPath := filepath.Join(dir, "docmacro.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configBody), 0o644))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	return cfg
}

func TestRun_RendersPagesAndCopiesAssets(t *testing.T) {
	cfg := writeProject(t, `
site_name: Test Site
extra:
  product: Widget
`, map[string]string{
		"index.md":       "# {{ product }}\n",
		"guide/setup.md": "---\ntitle: Setup\n---\nInstall {{ product }} now.\n",
		"guide/logo.png": "binary-bytes",
	})

	svc := NewService()
	result, err := svc.Run(context.Background(), Request{Config: cfg})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 2, result.Rendered)
	assert.Equal(t, 1, result.Copied)
	assert.Zero(t, result.Failed)
	assert.NotEmpty(t, result.BuildID)

	out, err := os.ReadFile(filepath.Join(result.OutputDir, "index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "# Widget")
	// No front matter in the source means none is invented in the output.
	assert.NotContains(t, string(out), "---")

	out, err = os.ReadFile(filepath.Join(result.OutputDir, "guide", "setup.md"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "Install Widget now.")
	assert.Contains(t, string(out), "title: Setup")

	asset, err := os.ReadFile(filepath.Join(result.OutputDir, "guide", "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, "binary-bytes", string(asset))
}

func TestRun_IgnoreMacrosPassesSourceThrough(t *testing.T) {
	cfg := writeProject(t, "site_name: S\n", map[string]string{
		"raw.md": "---\nignore_macros: true\n---\nLiteral {{ not_defined }} stays.\n",
	})

	svc := NewService()
	result, err := svc.Run(context.Background(), Request{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)

	out, err := os.ReadFile(filepath.Join(result.OutputDir, "raw.md"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "Literal {{ not_defined }} stays.")
}

func TestRun_DegradedOnEvaluationFailure(t *testing.T) {
	cfg := writeProject(t, `
site_name: S
macros:
  on_undefined: strict
`, map[string]string{
		"bad.md":  "Value: {{ missing_variable }}\n",
		"good.md": "All fine.\n",
	})

	svc := NewService()
	result, err := svc.Run(context.Background(), Request{Config: cfg})
	require.NoError(t, err)

	assert.Equal(t, StatusDegraded, result.Status)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Rendered)

	out, err := os.ReadFile(filepath.Join(result.OutputDir, "bad.md"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "# Macro Rendering Error")
	assert.Contains(t, string(out), "bad.md")
}

func TestRun_FailFastAborts(t *testing.T) {
	cfg := writeProject(t, `
site_name: S
macros:
  on_undefined: strict
  on_error_fail: true
`, map[string]string{
		"bad.md": "{{ missing_variable }}\n",
	})

	svc := NewService()
	result, err := svc.Run(context.Background(), Request{Config: cfg})
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, StatusFailed, result.Status)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	cfg := writeProject(t, "site_name: S\n", map[string]string{
		"index.md":  "# Hi\n",
		"asset.css": "body{}",
	})

	svc := NewService()
	result, err := svc.Run(context.Background(), Request{Config: cfg, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rendered)
	assert.Zero(t, result.Copied)

	_, err = os.Stat(result.OutputDir)
	assert.True(t, os.IsNotExist(err))
}

func TestRun_IncrementalSkipsUnchangedPages(t *testing.T) {
	dir := t.TempDir()
	configBody := fmt.Sprintf(`
site_name: S
output_dir: %s
history:
  enabled: true
  path: %s
`, filepath.Join(dir, "site"), filepath.Join(dir, "history.db"))

	cfg := writeProject(t, configBody, map[string]string{
		"a.md": "Page A\n",
		"b.md": "Page B\n",
	})

	svc := NewService()
	ctx := context.Background()

	first, err := svc.Run(ctx, Request{Config: cfg, Incremental: true})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Rendered)

	second, err := svc.Run(ctx, Request{Config: cfg, Incremental: true})
	require.NoError(t, err)
	assert.Zero(t, second.Rendered)
	assert.Equal(t, 2, second.Skipped)

	// Touching one page re-renders just that page.
	pagePath := filepath.Join(cfg.ProjectDir(), "docs", "a.md")
	require.NoError(t, os.WriteFile(pagePath, []byte("Page A changed\n"), 0o644))

	third, err := svc.Run(ctx, Request{Config: cfg, Incremental: true})
	require.NoError(t, err)
	assert.Equal(t, 1, third.Rendered)
	assert.Equal(t, 1, third.Skipped)
}

func TestRun_IncludeYAMLSeedsVariables(t *testing.T) {
	cfg := writeProject(t, `
site_name: S
macros:
  include_yaml:
    - vars.yaml
    - team: team.yaml
`, map[string]string{
		"index.md": "{{ release }} by {{ team.lead }}\n",
	})
	require.NoError(t, os.WriteFile(filepath.Join(cfg.ProjectDir(), "vars.yaml"),
		[]byte("release: v2.1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.ProjectDir(), "team.yaml"),
		[]byte("lead: Alex\n"), 0o644))

	svc := NewService()
	result, err := svc.Run(context.Background(), Request{Config: cfg})
	require.NoError(t, err)

	out, err := os.ReadFile(filepath.Join(result.OutputDir, "index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "v2.1 by Alex")
}

func TestRun_LinkReportModuleWritesReport(t *testing.T) {
	cfg := writeProject(t, `
site_name: S
macros:
  modules: [docmacro/linkreport]
`, map[string]string{
		"index.md": "[Guide](guide/setup.md)\n",
	})

	svc := NewService()
	result, err := svc.Run(context.Background(), Request{Config: cfg})
	require.NoError(t, err)

	report, err := os.ReadFile(filepath.Join(result.OutputDir, "links.json"))
	require.NoError(t, err)
	assert.Contains(t, string(report), "guide/setup.md")
}

func TestRenderFile_ExpandsSinglePage(t *testing.T) {
	cfg := writeProject(t, `
site_name: S
extra:
  product: Widget
`, map[string]string{
		"index.md": "---\ntitle: Home\n---\nHello {{ product }}\n",
	})

	svc := NewService()
	out, err := svc.RenderFile(context.Background(), Request{Config: cfg}, "index.md")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello Widget")
	assert.Contains(t, out, "title: Home")
}

func TestDescribe_ListsModulesAndRegistry(t *testing.T) {
	cfg := writeProject(t, "site_name: S\n", map[string]string{
		"index.md": "x\n",
	})

	svc := NewService()
	desc, err := svc.Describe(context.Background(), Request{Config: cfg})
	require.NoError(t, err)

	assert.Contains(t, desc.CatalogModules, "docmacro/context")
	assert.Contains(t, desc.CatalogModules, "docmacro/linkreport")
	assert.Contains(t, desc.LoadedModules, "docmacro/context")
	assert.Contains(t, desc.Macros, "now")
	assert.Contains(t, desc.Filters, "slugify")
	assert.Contains(t, desc.Variables, "config")
	assert.Contains(t, desc.Variables, "extra")
}

func TestRun_UnknownModuleFails(t *testing.T) {
	cfg := writeProject(t, `
site_name: S
macros:
  modules: [no/such/module]
`, map[string]string{
		"index.md": "x\n",
	})

	svc := NewService()
	_, err := svc.Run(context.Background(), Request{Config: cfg})
	require.Error(t, err)
}
