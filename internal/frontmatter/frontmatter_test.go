package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_NoFrontMatter(t *testing.T) {
	doc, err := Parse([]byte("# Just a page\n"))
	require.NoError(t, err)
	assert.False(t, doc.HasFrontMatter)
	assert.Empty(t, doc.Meta)
	assert.Equal(t, "# Just a page\n", string(doc.Body))
}

func TestParse_WithFrontMatter(t *testing.T) {
	content := []byte("---\ntitle: Guide\nrender_macros: true\n---\nbody text\n")

	doc, err := Parse(content)
	require.NoError(t, err)
	assert.True(t, doc.HasFrontMatter)
	assert.Equal(t, "Guide", doc.Meta["title"])
	assert.Equal(t, true, doc.Meta["render_macros"])
	assert.Equal(t, "body text\n", string(doc.Body))
	assert.Equal(t, "Guide", doc.Title())
}

func TestParse_EmptyBlock(t *testing.T) {
	doc, err := Parse([]byte("---\n---\nbody\n"))
	require.NoError(t, err)
	assert.True(t, doc.HasFrontMatter)
	assert.Empty(t, doc.Meta)
	assert.Equal(t, "body\n", string(doc.Body))
}

func TestParse_MissingClosingDelimiter(t *testing.T) {
	_, err := Parse([]byte("---\ntitle: broken\nno closing\n"))
	assert.ErrorIs(t, err, ErrMissingClosingDelimiter)
}

func TestParse_CRLF(t *testing.T) {
	content := []byte("---\r\ntitle: Win\r\n---\r\nbody\r\n")

	doc, err := Parse(content)
	require.NoError(t, err)
	assert.Equal(t, "Win", doc.Meta["title"])
	assert.Equal(t, "body\r\n", string(doc.Body))

	out, err := doc.Recompose([]byte("new body\r\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "---\r\ntitle: Win\r\n---\r\nnew body\r\n", string(out))
}

func TestRecompose_PreservesOriginalMetaVerbatim(t *testing.T) {
	content := []byte("---\ntitle: Guide\ntags: [a, b]\n---\nold\n")

	doc, err := Parse(content)
	require.NoError(t, err)

	out, err := doc.Recompose([]byte("rendered\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: Guide\ntags: [a, b]\n---\nrendered\n", string(out))
}

func TestRecompose_WithUpdatedFields(t *testing.T) {
	doc, err := Parse([]byte("---\ntitle: Raw {{x}}\n---\nbody\n"))
	require.NoError(t, err)

	out, err := doc.Recompose([]byte("body\n"), map[string]any{"title": "Rendered"})
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: Rendered\n---\nbody\n", string(out))
}

func TestRecompose_NoFrontMatter_BodyOnly(t *testing.T) {
	doc, err := Parse([]byte("plain\n"))
	require.NoError(t, err)

	out, err := doc.Recompose([]byte("changed\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "changed\n", string(out))
}

func TestSerialize_SortedKeys(t *testing.T) {
	out, err := Serialize(map[string]any{
		"zeta":  1,
		"alpha": map[string]any{"b": true, "a": "x"},
		"list":  []string{"one", "two"},
	}, Style{})
	require.NoError(t, err)
	assert.Equal(t, "alpha:\n  a: x\n  b: true\nlist:\n  - one\n  - two\nzeta: 1\n", string(out))
}

func TestSerialize_Empty(t *testing.T) {
	out, err := Serialize(nil, Style{})
	require.NoError(t, err)
	assert.Empty(t, out)
}
