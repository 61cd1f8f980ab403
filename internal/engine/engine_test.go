package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmacro/internal/config"
	docerrors "git.home.luguber.info/inful/docmacro/internal/errors"
	"git.home.luguber.info/inful/docmacro/internal/registry"
)

func newEngine(t *testing.T, policy config.UndefinedPolicy) *Engine {
	t.Helper()
	e, err := New(Options{Policy: policy})
	require.NoError(t, err)
	return e
}

func TestRender_SimpleSubstitution(t *testing.T) {
	e := newEngine(t, config.PolicyKeep)

	out, err := e.Render("index.md", "# {{ site_name }}", map[string]any{"site_name": "Docs"})
	require.NoError(t, err)
	assert.Equal(t, "# Docs", out)
}

func TestRender_UndefinedPolicy_Keep(t *testing.T) {
	e := newEngine(t, config.PolicyKeep)

	out, err := e.Render("p.md", "{{x}}", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "{{x}}", out)
}

func TestRender_UndefinedPolicy_Keep_DefinedNamesStillResolve(t *testing.T) {
	e := newEngine(t, config.PolicyKeep)

	out, err := e.Render("p.md", "{{x}} {{y}}", map[string]any{"y": "set"})
	require.NoError(t, err)
	assert.Equal(t, "{{x}} set", out)
}

func TestRender_UndefinedPolicy_Keep_CallFails(t *testing.T) {
	e := newEngine(t, config.PolicyKeep)

	_, err := e.Render("p.md", "{{ x() }}", map[string]any{})
	require.Error(t, err)
	assert.True(t, docerrors.IsCategory(err, docerrors.CategoryRender))
}

func TestRender_UndefinedPolicy_Silent(t *testing.T) {
	e := newEngine(t, config.PolicySilent)

	out, err := e.Render("p.md", "a{{x}}b", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "ab", out)
}

func TestRender_UndefinedPolicy_Strict(t *testing.T) {
	e := newEngine(t, config.PolicyStrict)

	_, err := e.Render("p.md", "{{x}}", map[string]any{})
	require.Error(t, err)
	assert.True(t, docerrors.IsCategory(err, docerrors.CategoryRender))
}

func TestRender_UndefinedPolicy_Lax(t *testing.T) {
	e := newEngine(t, config.PolicyLax)

	out, err := e.Render("p.md", "a{{x}}b", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "ab", out)

	out, err = e.Render("p.md", "a{{ x.y }}b", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "ab", out)

	out, err = e.Render("p.md", "a{{ x() }}b", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "ab", out)
}

func TestRender_CustomMarkers(t *testing.T) {
	e, err := New(Options{
		Markers: Markers{VariableStart: "[[", VariableEnd: "]]"},
		Policy:  config.PolicyKeep,
	})
	require.NoError(t, err)

	out, err := e.Render("p.md", "[[ name ]] and [[missing]]", map[string]any{"name": "ok"})
	require.NoError(t, err)
	assert.Equal(t, "ok and [[missing]]", out)
}

func TestRender_MacroGlobal(t *testing.T) {
	e, err := New(Options{
		Policy: config.PolicyStrict,
		Macros: map[string]registry.MacroFunc{
			"greet": func(args ...any) (any, error) {
				if len(args) == 1 {
					return "hello " + args[0].(string), nil
				}
				return "hello", nil
			},
		},
	})
	require.NoError(t, err)

	out, err := e.Render("p.md", "{{ greet('docs') }}", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "hello docs", out)
}

func TestRender_CustomFilter(t *testing.T) {
	e, err := New(Options{
		Policy: config.PolicyStrict,
		Filters: map[string]registry.FilterFunc{
			"shout": func(in any, args ...any) (any, error) {
				return in.(string) + "!", nil
			},
		},
	})
	require.NoError(t, err)

	out, err := e.Render("p.md", "{{ word | shout }}", map[string]any{"word": "go"})
	require.NoError(t, err)
	assert.Equal(t, "go!", out)
}

func TestRender_Include(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "snippet.md"), []byte("included {{ name }}"), 0o644))

	e, err := New(Options{IncludeDir: dir, Policy: config.PolicyStrict})
	require.NoError(t, err)

	out, err := e.Render("p.md", `{% include "snippet.md" %}`, map[string]any{"name": "bit"})
	require.NoError(t, err)
	assert.Equal(t, "included bit", out)
}

func TestNew_MissingIncludeDir_ResourceError(t *testing.T) {
	_, err := New(Options{IncludeDir: filepath.Join(t.TempDir(), "absent"), Policy: config.PolicyKeep})
	require.Error(t, err)
	assert.True(t, docerrors.IsCategory(err, docerrors.CategoryResource))
}

func TestNew_UnknownPolicy_ConfigError(t *testing.T) {
	_, err := New(Options{Policy: config.UndefinedPolicy("bogus")})
	require.Error(t, err)
	assert.True(t, docerrors.IsCategory(err, docerrors.CategoryConfig))
}

func TestHarvestIdentifiers_Classification(t *testing.T) {
	re := identifierPattern(DefaultMarkers())
	uses := harvestIdentifiers("{{a}} {{ b.c }} {{ d(1) }} {{ e | upper }}", re)

	assert.Equal(t, usePlain, uses["a"])
	assert.Equal(t, useAttribute, uses["b"])
	assert.Equal(t, useCall, uses["d"])
	assert.Equal(t, usePlain, uses["e"])
}

func TestHarvestIdentifiers_StrongestUseWins(t *testing.T) {
	re := identifierPattern(DefaultMarkers())
	uses := harvestIdentifiers("{{x}} {{ x() }}", re)
	assert.Equal(t, useCall, uses["x"])
}
