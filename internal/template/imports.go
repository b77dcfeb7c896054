package template

import (
	"regexp"
	"strings"
)

var (
	fromImportRe = regexp.MustCompile(`\{%-?\s*from\s+["']([^"']+)["']\s+import\s+([^%]+?)\s*-?%\}`)
	macroDefRe   = regexp.MustCompile(`\{%-?\s*macro\s+([A-Za-z_][A-Za-z0-9_]*)\s*(\([^)]*\))?`)
)

// ResolveMacroOrImport scans the document for from-import directives naming
// the macro. If the macro (or its "as" alias) appears in an import list, the
// returned MacroCall carries the source template path; otherwise the macro is
// assumed to be defined in the same document and SourceTemplate is empty.
func ResolveMacroOrImport(text, macroName string) MacroCall {
	for _, m := range fromImportRe.FindAllStringSubmatch(text, -1) {
		path, imports := m[1], m[2]
		for _, part := range strings.Split(imports, ",") {
			fields := strings.Fields(part)
			switch {
			case len(fields) == 0:
				continue
			case fields[0] == macroName:
				return MacroCall{Name: macroName, SourceTemplate: path}
			case len(fields) >= 3 && fields[1] == "as" && fields[2] == macroName:
				return MacroCall{Name: macroName, SourceTemplate: path}
			}
		}
	}
	return MacroCall{Name: macroName}
}

// FindMacroDefinition locates a {% macro name(...) %} directive in the
// document and returns the position of the macro name.
func FindMacroDefinition(text, macroName string) (Pos, bool) {
	for i, line := range strings.Split(text, "\n") {
		for _, m := range macroDefRe.FindAllStringSubmatchIndex(line, -1) {
			name := line[m[2]:m[3]]
			if name == macroName {
				return Pos{Line: i, Character: m[2]}, true
			}
		}
	}
	return Pos{}, false
}

// MacroSignature returns the literal "name(args)" text of a macro defined in
// the document, for hover fallback when the backend is unavailable.
func MacroSignature(text, macroName string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		for _, m := range macroDefRe.FindAllStringSubmatchIndex(line, -1) {
			name := line[m[2]:m[3]]
			if name != macroName {
				continue
			}
			if m[4] >= 0 {
				return name + line[m[4]:m[5]], true
			}
			return name + "()", true
		}
	}
	return "", false
}
