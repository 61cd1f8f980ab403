package vars

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docerrors "git.home.luguber.info/inful/docmacro/internal/errors"
)

func TestDeepMerge_RightBiasedAndRecursive(t *testing.T) {
	left := map[string]any{"a": map[string]any{"x": 1, "y": 2}}
	right := map[string]any{"a": map[string]any{"y": 3, "z": 4}}

	merged := DeepMerge(left, right)

	assert.Equal(t, map[string]any{"a": map[string]any{"x": 1, "y": 3, "z": 4}}, merged)
	// Inputs stay untouched.
	assert.Equal(t, map[string]any{"a": map[string]any{"x": 1, "y": 2}}, left)
}

func TestDeepMerge_NonMapCollision_RightWins(t *testing.T) {
	left := map[string]any{"a": map[string]any{"x": 1}, "b": "old"}
	right := map[string]any{"a": "flattened", "b": "new"}

	merged := DeepMerge(left, right)

	assert.Equal(t, "flattened", merged["a"])
	assert.Equal(t, "new", merged["b"])
}

func TestStore_Copy_Independence(t *testing.T) {
	s := New()
	s.Set("site", map[string]any{"name": "Docs", "nav": []any{"a", "b"}})
	s.MarkReady()

	snapshot, err := s.Copy()
	require.NoError(t, err)

	snapshot["site"].(map[string]any)["name"] = "Mutated"
	snapshot["site"].(map[string]any)["nav"].([]any)[0] = "z"

	original, err := s.Get("site")
	require.NoError(t, err)
	assert.Equal(t, "Docs", original.(map[string]any)["name"])
	assert.Equal(t, "a", original.(map[string]any)["nav"].([]any)[0])
}

func TestStore_ReadBeforeReady_AccessTooEarly(t *testing.T) {
	s := New()
	s.Set("x", 1) // seeding is fine

	_, err := s.Get("x")
	require.Error(t, err)
	assert.True(t, docerrors.IsCategory(err, docerrors.CategoryAccessTooEarly))

	_, err = s.Keys()
	assert.True(t, docerrors.IsCategory(err, docerrors.CategoryAccessTooEarly))

	_, err = s.Copy()
	assert.True(t, docerrors.IsCategory(err, docerrors.CategoryAccessTooEarly))

	s.MarkReady()
	v, err := s.Get("x")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestStore_MergeUnder(t *testing.T) {
	s := New()
	s.Set("team", map[string]any{"lead": "ada"})
	s.MergeUnder("team", map[string]any{"size": 4})
	s.MarkReady()

	v, err := s.Get("team")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"lead": "ada", "size": 4}, v)
}

func TestStore_Keys_Sorted(t *testing.T) {
	s := New()
	s.Set("zeta", 1)
	s.Set("alpha", 2)
	s.MarkReady()

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, keys)
}
