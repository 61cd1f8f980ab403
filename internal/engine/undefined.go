package engine

import (
	"fmt"
	"regexp"

	"github.com/nikolalohinski/gonja/v2/exec"

	"git.home.luguber.info/inful/docmacro/internal/config"
)

// identifierUse records how an identifier appears in a variable expression.
type identifierUse int

const (
	usePlain identifierUse = iota
	useAttribute
	useCall
)

// Global names the engine itself defines; never treated as unresolved.
var builtinGlobalNames = map[string]struct{}{
	"range":     {},
	"dict":      {},
	"cycler":    {},
	"joiner":    {},
	"lipsum":    {},
	"namespace": {},
	"loop":      {},
}

// harvestIdentifiers scans the variable expressions of source for leading
// identifiers and classifies each one's strongest use (call > attribute >
// plain). It is a conservative text scan over the configured markers, not a
// parse; it exists only to pick placeholders for the keep and lax policies.
func harvestIdentifiers(source string, re *regexp.Regexp) map[string]identifierUse {
	uses := make(map[string]identifierUse)
	for _, m := range re.FindAllStringSubmatch(source, -1) {
		name := m[1]
		use := usePlain
		if len(m) > 2 {
			switch m[2] {
			case "(":
				use = useCall
			case ".", "[":
				use = useAttribute
			}
		}
		if prev, ok := uses[name]; !ok || use > prev {
			uses[name] = use
		}
	}
	return uses
}

// identifierPattern matches the first identifier of each variable
// expression plus the character that follows it.
func identifierPattern(m Markers) *regexp.Regexp {
	return regexp.MustCompile(
		regexp.QuoteMeta(m.VariableStart) + `\s*([A-Za-z_][A-Za-z0-9_]*)\s*([.\[(|]?)`)
}

// applyUndefinedPolicy injects placeholders into pageVars for unresolved
// identifiers, implementing the keep and lax behaviors on top of the
// engine's lenient mode. strict and silent need no injection: strict is the
// engine's own strict mode, silent is plain lenient evaluation.
func (e *Engine) applyUndefinedPolicy(source string, pageVars map[string]any) {
	if e.policy != config.PolicyKeep && e.policy != config.PolicyLax {
		return
	}

	for name, use := range harvestIdentifiers(source, e.identRe) {
		if _, ok := pageVars[name]; ok {
			continue
		}
		if _, ok := e.globals[name]; ok {
			continue
		}
		if _, ok := builtinGlobalNames[name]; ok {
			continue
		}

		switch e.policy {
		case config.PolicyKeep:
			switch use {
			case usePlain:
				// Reproduce the source syntax so a later templating pass
				// can still consume the expression.
				pageVars[name] = e.markers.VariableStart + name + e.markers.VariableEnd
			case useCall:
				pageVars[name] = failingCallable(name)
			}
			// Attribute access on an unresolved name renders empty, same
			// as lenient evaluation.
		case config.PolicyLax:
			switch use {
			case useCall:
				pageVars[name] = swallowingCallable()
			case useAttribute:
				pageVars[name] = map[string]any{}
			default:
				pageVars[name] = ""
			}
		}
	}
}

// failingCallable turns a call on an unresolved name into an evaluation
// failure, matching the keep policy's reference behavior.
func failingCallable(name string) func(*exec.Evaluator, *exec.VarArgs) *exec.Value {
	return func(_ *exec.Evaluator, _ *exec.VarArgs) *exec.Value {
		return exec.AsValue(exec.ErrInvalidCall(fmt.Errorf("undefined macro %q", name)))
	}
}

// swallowingCallable accepts any arguments and renders empty.
func swallowingCallable() func(*exec.Evaluator, *exec.VarArgs) *exec.Value {
	return func(_ *exec.Evaluator, _ *exec.VarArgs) *exec.Value {
		return exec.AsValue("")
	}
}
