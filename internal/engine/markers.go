package engine

// Markers are the six template delimiters. Empty fields fall back to the
// engine defaults, so overriding only some of them is fine.
type Markers struct {
	BlockStart    string
	BlockEnd      string
	VariableStart string
	VariableEnd   string
	CommentStart  string
	CommentEnd    string
}

// DefaultMarkers returns the standard Jinja delimiters.
func DefaultMarkers() Markers {
	return Markers{
		BlockStart:    "{%",
		BlockEnd:      "%}",
		VariableStart: "{{",
		VariableEnd:   "}}",
		CommentStart:  "{#",
		CommentEnd:    "#}",
	}
}

func (m Markers) withDefaults() Markers {
	def := DefaultMarkers()
	if m.BlockStart == "" {
		m.BlockStart = def.BlockStart
	}
	if m.BlockEnd == "" {
		m.BlockEnd = def.BlockEnd
	}
	if m.VariableStart == "" {
		m.VariableStart = def.VariableStart
	}
	if m.VariableEnd == "" {
		m.VariableEnd = def.VariableEnd
	}
	if m.CommentStart == "" {
		m.CommentStart = def.CommentStart
	}
	if m.CommentEnd == "" {
		m.CommentEnd = def.CommentEnd
	}
	return m
}
