package incremental

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmacro/internal/config"
	"git.home.luguber.info/inful/docmacro/internal/history"
)

func TestPageFingerprint_Deterministic(t *testing.T) {
	meta := map[string]any{"title": "Guide", "weight": 3}
	body := []byte("# Guide\n\ncontent\n")

	fp1, err := PageFingerprint(meta, body)
	require.NoError(t, err)
	fp2, err := PageFingerprint(map[string]any{"weight": 3, "title": "Guide"}, body)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
	assert.NotEmpty(t, fp1)
}

func TestPageFingerprint_ChangesWithContent(t *testing.T) {
	meta := map[string]any{"title": "Guide"}

	fp1, err := PageFingerprint(meta, []byte("one\n"))
	require.NoError(t, err)
	fp2, err := PageFingerprint(meta, []byte("two\n"))
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp2)

	fp3, err := PageFingerprint(map[string]any{"title": "Other"}, []byte("one\n"))
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3)
}

func TestBuildSignature_SensitiveToInputs(t *testing.T) {
	cfg := &config.Config{Extra: map[string]any{"version": "1.0"}}

	sig1, err := BuildSignature(cfg, []string{"now", "context"}, nil)
	require.NoError(t, err)

	// Macro name order must not matter.
	sig2, err := BuildSignature(cfg, []string{"context", "now"}, nil)
	require.NoError(t, err)
	assert.Equal(t, sig1, sig2)

	// A new macro does.
	sig3, err := BuildSignature(cfg, []string{"now", "context", "extra_macro"}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, sig1, sig3)

	// And so does extra.
	cfg2 := &config.Config{Extra: map[string]any{"version": "2.0"}}
	sig4, err := BuildSignature(cfg2, []string{"now", "context"}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, sig1, sig4)
}

func TestChecker_FirstBuildRendersEverything(t *testing.T) {
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	checker, err := NewChecker(ctx, store, "sig-a")
	require.NoError(t, err)

	render, fp, err := checker.ShouldRender(ctx, "index.md", nil, []byte("body\n"))
	require.NoError(t, err)
	assert.True(t, render)
	assert.NotEmpty(t, fp)
}

func TestChecker_SkipsUnchangedPage(t *testing.T) {
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	meta := map[string]any{"title": "Home"}
	body := []byte("# Home\n")
	fp, err := PageFingerprint(meta, body)
	require.NoError(t, err)

	require.NoError(t, store.RecordBuild(ctx, history.BuildRecord{BuildID: "b1", Status: "ok", Signature: "sig-a"}))
	require.NoError(t, store.RecordPage(ctx, history.PageRecord{BuildID: "b1", Path: "index.md", Fingerprint: fp, Outcome: "rendered"}))

	checker, err := NewChecker(ctx, store, "sig-a")
	require.NoError(t, err)

	render, _, err := checker.ShouldRender(ctx, "index.md", meta, body)
	require.NoError(t, err)
	assert.False(t, render)

	render, _, err = checker.ShouldRender(ctx, "index.md", meta, []byte("# Home edited\n"))
	require.NoError(t, err)
	assert.True(t, render)
}

func TestChecker_SignatureChangeInvalidatesAll(t *testing.T) {
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	body := []byte("stable\n")
	fp, err := PageFingerprint(nil, body)
	require.NoError(t, err)

	require.NoError(t, store.RecordBuild(ctx, history.BuildRecord{BuildID: "b1", Status: "ok", Signature: "sig-a"}))
	require.NoError(t, store.RecordPage(ctx, history.PageRecord{BuildID: "b1", Path: "page.md", Fingerprint: fp, Outcome: "rendered"}))

	checker, err := NewChecker(ctx, store, "sig-b")
	require.NoError(t, err)

	render, _, err := checker.ShouldRender(ctx, "page.md", nil, body)
	require.NoError(t, err)
	assert.True(t, render)
}

func TestChecker_NilStoreAlwaysRenders(t *testing.T) {
	ctx := context.Background()
	checker, err := NewChecker(ctx, nil, "sig")
	require.NoError(t, err)

	render, fp, err := checker.ShouldRender(ctx, "page.md", nil, []byte("x\n"))
	require.NoError(t, err)
	assert.True(t, render)
	assert.NotEmpty(t, fp)
}
