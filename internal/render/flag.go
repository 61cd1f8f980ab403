package render

// Flag is the three-valued state of a per-page metadata boolean. Absence is
// meaningful in the render decision, so a nullable bool is not enough.
type Flag int

const (
	FlagUnset Flag = iota
	FlagTrue
	FlagFalse
)

// Metadata keys recognized by the render decision.
const (
	MetaIgnoreMacros = "ignore_macros"
	MetaRenderMacros = "render_macros"
)

// FlagFromMeta reads a tri-state boolean from page metadata. Non-boolean
// values count as unset.
func FlagFromMeta(meta map[string]any, key string) Flag {
	v, ok := meta[key]
	if !ok {
		return FlagUnset
	}
	b, ok := v.(bool)
	if !ok {
		return FlagUnset
	}
	if b {
		return FlagTrue
	}
	return FlagFalse
}

// Decision is the resolved per-page outcome: exactly render or skip, never
// unset.
type Decision int

const (
	DecisionRender Decision = iota
	DecisionSkip
)

// Decide resolves the decision table. In opt-out mode (renderByDefault
// true) a page is skipped only when it asks to be; in opt-in mode a page is
// rendered only when it asks to be.
func Decide(renderByDefault bool, ignore, render Flag) Decision {
	if renderByDefault {
		if ignore == FlagTrue || render == FlagFalse {
			return DecisionSkip
		}
		return DecisionRender
	}
	if render == FlagTrue || ignore == FlagFalse {
		return DecisionRender
	}
	return DecisionSkip
}
