// Package vars implements the layered variable store that feeds page
// rendering. The store is seeded once during build setup (config extras,
// external yaml files, extension modules) and then read per page through
// structurally independent copies.
package vars

import (
	"sort"

	"git.home.luguber.info/inful/docmacro/internal/errors"
)

// Reserved top-level keys. Setup owns these; extension code may read them
// and may overwrite them, but the builder reseeds them each build.
const (
	KeyExtra          = "extra"
	KeyConfig         = "config"
	KeyMacros         = "macros"
	KeyFilters        = "filters"
	KeyFiltersBuiltin = "filters_builtin"
	KeyPage           = "page"
	KeyNavigation     = "navigation"
	KeyFiles          = "files"
	KeyGit            = "git"
	KeyEnvironment    = "environment"
	KeyBuild          = "build"
)

// State tracks the store lifecycle. Reads against an Uninitialized store are
// a programming error in the caller (an extension running before setup), not
// a missing-key situation.
type State int

const (
	Uninitialized State = iota
	Ready
)

// Store is a mapping from string keys to arbitrary values: scalars, nested
// maps, slices, or callables. Not safe for concurrent use; the build
// processes pages sequentially and setup is single-writer.
type Store struct {
	values map[string]any
	state  State
}

// New returns an empty store in the Uninitialized state. Seeding via Set and
// Merge is allowed immediately; reads require MarkReady first.
func New() *Store {
	return &Store{values: make(map[string]any)}
}

// MarkReady transitions the store to Ready. Called by setup once the
// baseline variables exist, before extension modules load.
func (s *Store) MarkReady() {
	s.state = Ready
}

// State reports the current lifecycle state.
func (s *Store) State() State {
	return s.state
}

// Set stores a value under key. Permitted in any state since seeding is what
// the setup phase does.
func (s *Store) Set(key string, value any) {
	s.values[key] = value
}

// Get returns the value under key, or nil when absent. Reading an
// Uninitialized store returns an AccessTooEarly error.
func (s *Store) Get(key string) (any, error) {
	if s.state != Ready {
		return nil, errors.AccessTooEarly("variable store")
	}
	return s.values[key], nil
}

// Has reports whether key is present. Subject to the same lifecycle gate as
// Get.
func (s *Store) Has(key string) (bool, error) {
	if s.state != Ready {
		return false, errors.AccessTooEarly("variable store")
	}
	_, ok := s.values[key]
	return ok, nil
}

// Keys returns all top-level keys, sorted for stable diagnostics.
func (s *Store) Keys() ([]string, error) {
	if s.state != Ready {
		return nil, errors.AccessTooEarly("variable store")
	}
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of top-level keys.
func (s *Store) Len() int {
	return len(s.values)
}

// Raw exposes the live underlying map. It exists for the legacy extension
// registration form, which receives the raw variable mapping; everything
// else should go through Get/Set/Merge/Copy.
func (s *Store) Raw() map[string]any {
	return s.values
}

// Merge deep-merges src into the store. Keys present as nested
// map[string]any on both sides recurse; any other collision is won by src.
func (s *Store) Merge(src map[string]any) {
	s.values = DeepMerge(s.values, src)
}

// MergeUnder deep-merges src into the store under a single top-level key.
func (s *Store) MergeUnder(key string, src any) {
	s.Merge(map[string]any{key: src})
}

// Copy returns a structurally independent snapshot of the store's values:
// nested maps and slices are copied all the way down, leaf values (scalars,
// callables) are shared. Mutating the copy never affects the store.
func (s *Store) Copy() (map[string]any, error) {
	if s.state != Ready {
		return nil, errors.AccessTooEarly("variable store")
	}
	return DeepCopy(s.values), nil
}

// DeepMerge combines two maps right-biased: for keys holding nested
// map[string]any on both sides the merge recurses, for everything else the
// src value overwrites. Neither input is mutated.
func DeepMerge(dst map[string]any, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		if existing, ok := out[k]; ok {
			if em, okm := existing.(map[string]any); okm {
				if nm, okn := v.(map[string]any); okn {
					out[k] = DeepMerge(em, nm)
					continue
				}
			}
		}
		out[k] = v
	}
	return out
}

// DeepCopy copies a map so that nested maps and slices are independent.
func DeepCopy(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = deepCopyValue(v)
	}
	return result
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return DeepCopy(val)
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = deepCopyValue(item)
		}
		return result
	default:
		return v
	}
}
