// Package template implements cursor-context resolution for Jinja2 templates.
//
// Given a document's text and a cursor position, the resolver classifies what
// the cursor is "on": an attribute access, a call-argument position, an
// include target, a bare word, or nothing. Resolution is a pure function of
// (text, position): it never errors, never performs I/O, and holds no state
// between calls. Absence of a match is a valid empty result.
package template

// Pos is a zero-based (line, character) cursor position.
// Character counts UTF-16 code units, matching the LSP wire format.
type Pos struct {
	Line      int
	Character int
}

// ContextKind enumerates the recognized cursor contexts.
type ContextKind int

const (
	// KindNone means the cursor is on whitespace or punctuation with no
	// adjacent identifier.
	KindNone ContextKind = iota

	// KindAttribute means the text before the cursor matches <expr>.<partial>.
	KindAttribute

	// KindCall means the cursor sits inside the argument list of a call.
	KindCall

	// KindWord means the cursor is on a bare identifier.
	KindWord

	// KindInclude means the cursor is inside the quoted path argument of an
	// include-like directive.
	KindInclude
)

// String returns a human-readable name for the ContextKind.
func (k ContextKind) String() string {
	switch k {
	case KindAttribute:
		return "Attribute"
	case KindCall:
		return "Call"
	case KindWord:
		return "Word"
	case KindInclude:
		return "Include"
	default:
		return "None"
	}
}

// ResolvedContext describes what the cursor is on.
// Exactly one variant is produced per (document, position) query; the Kind
// field says which of the remaining fields are meaningful.
type ResolvedContext struct {
	Kind ContextKind

	// Base is the expression before the final dot (KindAttribute).
	Base string

	// Partial is the identifier fragment after the final dot, possibly empty
	// (KindAttribute).
	Partial string

	// InsideCall reports whether an unmatched "(" precedes the cursor
	// (KindAttribute).
	InsideCall bool

	// Callee is the expression before the unmatched "(" (KindCall).
	Callee string

	// Word is the identifier under the cursor (KindWord).
	Word string

	// TargetPath is the quoted include path, without quotes (KindInclude).
	TargetPath string
}

// MacroCall identifies a macro and, when imported, the template it comes from.
// An empty SourceTemplate means the macro is assumed to be defined in the
// querying document itself.
type MacroCall struct {
	Name           string
	SourceTemplate string
}

// Imported reports whether the macro was brought in by a from-import.
func (m MacroCall) Imported() bool { return m.SourceTemplate != "" }
