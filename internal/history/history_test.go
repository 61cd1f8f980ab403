package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.FileExists(t, path)
}

func TestLatestFingerprint_UnknownPage(t *testing.T) {
	store := openMemory(t)

	fp, err := store.LatestFingerprint(context.Background(), "guide/setup.md")
	require.NoError(t, err)
	assert.Empty(t, fp)
}

func TestLatestFingerprint_ReturnsNewest(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()

	require.NoError(t, store.RecordPage(ctx, PageRecord{BuildID: "b1", Path: "index.md", Fingerprint: "fp-old", Outcome: "rendered"}))
	require.NoError(t, store.RecordPage(ctx, PageRecord{BuildID: "b2", Path: "index.md", Fingerprint: "fp-new", Outcome: "rendered"}))
	require.NoError(t, store.RecordPage(ctx, PageRecord{BuildID: "b2", Path: "other.md", Fingerprint: "fp-other", Outcome: "rendered"}))

	fp, err := store.LatestFingerprint(ctx, "index.md")
	require.NoError(t, err)
	assert.Equal(t, "fp-new", fp)
}

func TestLatestBuildSignature(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()

	sig, err := store.LatestBuildSignature(ctx)
	require.NoError(t, err)
	assert.Empty(t, sig)

	started := time.Now().Add(-time.Minute)
	require.NoError(t, store.RecordBuild(ctx, BuildRecord{BuildID: "b1", Status: "ok", Signature: "sig-1", StartedAt: started}))
	require.NoError(t, store.RecordBuild(ctx, BuildRecord{BuildID: "b2", Status: "ok", Signature: "sig-2", StartedAt: started.Add(30 * time.Second)}))

	sig, err = store.LatestBuildSignature(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sig-2", sig)
}

func TestRecentBuilds_NewestFirst(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"b1", "b2", "b3"} {
		require.NoError(t, store.RecordBuild(ctx, BuildRecord{
			BuildID:   id,
			Status:    "ok",
			Signature: "sig",
			Rendered:  i + 1,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Duration:  250 * time.Millisecond,
		}))
	}

	builds, err := store.RecentBuilds(ctx, 2)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	assert.Equal(t, "b3", builds[0].BuildID)
	assert.Equal(t, "b2", builds[1].BuildID)
	assert.Equal(t, 250*time.Millisecond, builds[0].Duration)
	assert.Equal(t, base.Add(2*time.Minute).Unix(), builds[0].StartedAt.Unix())
}
