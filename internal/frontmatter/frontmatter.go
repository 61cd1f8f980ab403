// Package frontmatter splits `---` delimited YAML front-matter from page
// bodies and recomposes documents after rendering, preserving the original
// newline shape.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter reports an opening front-matter delimiter with
// no closing one.
var ErrMissingClosingDelimiter = errors.New("front-matter opening delimiter found but closing delimiter is missing")

// Style captures the newline shape needed for stable recomposition. It does
// not attempt to preserve the original YAML formatting.
type Style struct {
	Newline string
}

// Document is a parsed page: metadata mapping, raw body, and enough shape
// information to put the two back together.
type Document struct {
	// Meta is the parsed front-matter; empty map when the page has none.
	Meta map[string]any
	// Body is everything after the front-matter block.
	Body []byte
	// HasFrontMatter reports whether the source carried a block at all.
	HasFrontMatter bool

	rawMeta []byte
	style   Style
}

// Parse splits content into front-matter and body. A document that does
// not open with a delimiter has no front-matter and its body is the whole
// input.
func Parse(content []byte) (*Document, error) {
	style := detectStyle(content)
	doc := &Document{Meta: map[string]any{}, Body: content, style: style}

	nl := style.Newline
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return doc, nil
	}

	rest := content[len(open):]
	var rawMeta, body []byte
	switch {
	case bytes.HasPrefix(rest, open):
		// Empty front-matter block.
		rawMeta = []byte{}
		body = rest[len(open):]
	default:
		closeSeq := []byte(nl + "---" + nl)
		idx := bytes.Index(rest, closeSeq)
		if idx < 0 {
			return nil, ErrMissingClosingDelimiter
		}
		rawMeta = rest[:idx+len(nl)]
		body = rest[idx+len(closeSeq):]
	}

	meta := map[string]any{}
	if len(rawMeta) > 0 {
		if err := yaml.Unmarshal(rawMeta, &meta); err != nil {
			return nil, err
		}
		if meta == nil {
			meta = map[string]any{}
		}
	}

	doc.Meta = meta
	doc.Body = body
	doc.HasFrontMatter = true
	doc.rawMeta = rawMeta
	return doc, nil
}

// Recompose reassembles the document around a new body. When fields is
// nil the original front-matter bytes are reused verbatim; otherwise fields
// is serialized in their place (keys sorted for stable output).
func (d *Document) Recompose(body []byte, fields map[string]any) ([]byte, error) {
	if !d.HasFrontMatter {
		return body, nil
	}

	nl := d.style.Newline
	if nl == "" {
		nl = "\n"
	}

	rawMeta := d.rawMeta
	if fields != nil {
		serialized, err := Serialize(fields, d.style)
		if err != nil {
			return nil, err
		}
		rawMeta = serialized
	}

	delim := []byte("---" + nl)
	out := make([]byte, 0, 2*len(delim)+len(rawMeta)+len(body))
	out = append(out, delim...)
	out = append(out, rawMeta...)
	out = append(out, delim...)
	out = append(out, body...)
	return out, nil
}

// Title returns the front-matter title, or empty.
func (d *Document) Title() string {
	if t, ok := d.Meta["title"].(string); ok {
		return t
	}
	return ""
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			break
		}
	}
	return Style{Newline: newline}
}
