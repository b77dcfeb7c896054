// Package stub generates and parses the .pyi stub artifacts that carry a
// template's declared names to the Python backend.
//
// A stub lives in a cache directory next to its template
// (<dir>/.typedjinja/<base>.pyi by default) and is regenerated whenever the
// template is saved. The line format is "name : type [# documentation]"; it
// doubles as the completion/hover fallback source when the backend is not
// installed.
package stub

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/typedjinja/tjls/internal/template"
)

// DefaultCacheDir is the stub cache directory created next to each template.
const DefaultCacheDir = ".typedjinja"

// Decl is one top-level declaration parsed from a stub file.
type Decl struct {
	Name string
	Type string
	Doc  string
}

// Info is the ordered set of declarations in a stub file.
type Info []Decl

// Lookup returns the declaration with the given name.
func (i Info) Lookup(name string) (Decl, bool) {
	for _, d := range i {
		if d.Name == name {
			return d, true
		}
	}
	return Decl{}, false
}

// Generate renders a .pyi stub from a parsed types block: imports first, then
// one "name: type" line per annotation. Docstrings ride along as trailing
// comments so the line-oriented parser can recover them.
func Generate(block template.TypesBlock) string {
	var b strings.Builder
	if len(block.Imports) > 0 {
		for _, imp := range block.Imports {
			b.WriteString(imp)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	for _, a := range block.Annotations {
		b.WriteString(a.Name)
		b.WriteString(": ")
		b.WriteString(a.Type)
		if a.Doc != "" && !strings.Contains(a.Type, "#") {
			b.WriteString("  # ")
			b.WriteString(a.Doc)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// PathFor returns the stub path for a template: a cache directory beside the
// template holding <template-basename>.pyi.
func PathFor(templatePath, cacheDir string) string {
	if cacheDir == "" {
		cacheDir = DefaultCacheDir
	}
	base := filepath.Base(templatePath)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return filepath.Join(filepath.Dir(templatePath), cacheDir, base+".pyi")
}

// Sync parses the template content and writes the stub artifact for it.
// Templates without a types block produce no stub and an empty path.
// Malformed annotation lines are skipped rather than failing the write; they
// surface as diagnostics instead.
func Sync(templatePath, content, cacheDir string) (string, error) {
	block := template.ParseTypesBlock(content)
	if !block.Found {
		return "", nil
	}
	path := PathFor(templatePath, cacheDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("create stub cache dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(Generate(block)), 0o644); err != nil {
		return "", fmt.Errorf("write stub: %w", err)
	}
	return path, nil
}

var declRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*:\s*([^#]+?)(?:\s*#\s*(.*))?$`)

// Parse reads declarations from stub text. Lines that do not match the
// declaration format (imports, blanks, continuations) are skipped.
func Parse(stubText string) Info {
	var info Info
	for _, line := range strings.Split(stubText, "\n") {
		m := declRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		info = append(info, Decl{
			Name: m[1],
			Type: strings.TrimSpace(m[2]),
			Doc:  strings.TrimSpace(m[3]),
		})
	}
	return info
}

// Load reads and parses a stub file. A missing file is a valid empty result.
func Load(path string) Info {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return Parse(string(data))
}
