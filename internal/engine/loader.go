package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nikolalohinski/gonja/v2/loaders"
)

// sourceLoader serves the page being rendered from memory and resolves
// {% include %} paths against the configured include directory.
type sourceLoader struct {
	name       string
	source     string
	includeDir string
}

func newSourceLoader(name, source, includeDir string) sourceLoader {
	return sourceLoader{name: name, source: source, includeDir: includeDir}
}

func (l sourceLoader) Read(path string) (io.Reader, error) {
	if path == l.name {
		return strings.NewReader(l.source), nil
	}
	if l.includeDir == "" {
		return nil, fmt.Errorf("no include directory configured, cannot load %q", path)
	}
	data, err := os.ReadFile(filepath.Join(l.includeDir, path))
	if err != nil {
		return nil, fmt.Errorf("include %q: %w", path, err)
	}
	return strings.NewReader(string(data)), nil
}

func (l sourceLoader) Resolve(path string) (string, error) {
	return path, nil
}

func (l sourceLoader) Inherit(_ string) (loaders.Loader, error) {
	return l, nil
}
