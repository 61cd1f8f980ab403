package config

import (
	"git.home.luguber.info/inful/docmacro/internal/errors"
)

// UndefinedPolicy selects the behavior for identifiers that resolve to
// nothing during rendering.
type UndefinedPolicy string

const (
	// PolicyKeep leaves an unresolved identifier in the output exactly as
	// it appeared in the source syntax, so a later templating pass can
	// still consume it. This is the default.
	PolicyKeep UndefinedPolicy = "keep"

	// PolicySilent renders an unresolved identifier as an empty value.
	PolicySilent UndefinedPolicy = "silent"

	// PolicyStrict turns any use of an unresolved identifier into an
	// evaluation failure.
	PolicyStrict UndefinedPolicy = "strict"

	// PolicyLax renders an unresolved identifier, and any operation on it
	// (attribute access, calls), as an empty value.
	PolicyLax UndefinedPolicy = "lax"
)

// ParseUndefinedPolicy validates a configured policy name. The empty string
// means the default. Unknown names are a configuration error, raised at
// setup before any page is processed.
func ParseUndefinedPolicy(name string) (UndefinedPolicy, error) {
	switch UndefinedPolicy(name) {
	case "":
		return PolicyKeep, nil
	case PolicyKeep, PolicySilent, PolicyStrict, PolicyLax:
		return UndefinedPolicy(name), nil
	default:
		return "", errors.ConfigValueError("macros.on_undefined", name,
			"must be one of keep, silent, strict, lax")
	}
}
