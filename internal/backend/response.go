package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/sirupsen/logrus"
)

// Candidate is one completion result from the backend.
type Candidate struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Docstring string `json:"docstring"`
}

// HoverInfo is the backend's answer for hover and hover_macro modes.
type HoverInfo struct {
	Type string `json:"type"`
	Doc  string `json:"doc"`
}

// Empty reports whether the backend had nothing to say.
func (h HoverInfo) Empty() bool { return h.Type == "" && h.Doc == "" }

// DefLocation is a definition target reported by the backend.
// Lines and columns are zero-based.
type DefLocation struct {
	FilePath string `json:"file_path"`
	Line     int    `json:"line"`
	Col      int    `json:"col"`
	EndLine  int    `json:"end_line"`
	EndCol   int    `json:"end_col"`
}

// Param is one parameter from a signature response.
type Param struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Default    string `json:"default"`
	Annotation string `json:"annotation"`
	Docstring  string `json:"docstring"`
}

// Diag is one diagnostic reported by the backend's diagnostics mode.
type Diag struct {
	Message  string `json:"message"`
	Line     int    `json:"line"`
	Col      int    `json:"col"`
	EndLine  int    `json:"end_line"`
	EndCol   int    `json:"end_col"`
	Severity string `json:"severity"`
}

// Response schemas. The backend is an external process; its output is
// validated before it is trusted. Anything that does not conform is treated
// as "no result", per the error-handling contract.
const (
	candidatesSchema = `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["name"],
			"properties": {
				"name": {"type": "string"},
				"type": {"type": "string"},
				"docstring": {"type": ["string", "null"]}
			}
		}
	}`

	hoverSchema = `{
		"type": "object",
		"properties": {
			"type": {"type": ["string", "null"]},
			"doc": {"type": ["string", "null"]}
		}
	}`

	locationSchema = `{
		"type": "object",
		"required": ["file_path", "line"],
		"properties": {
			"file_path": {"type": "string"},
			"line": {"type": "integer"},
			"col": {"type": "integer"},
			"end_line": {"type": "integer"},
			"end_col": {"type": "integer"}
		}
	}`

	paramsSchema = `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["name"],
			"properties": {
				"name": {"type": "string"},
				"kind": {"type": ["string", "null"]},
				"default": {"type": ["string", "null"]},
				"annotation": {"type": ["string", "null"]},
				"docstring": {"type": ["string", "null"]}
			}
		}
	}`

	diagsSchema = `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["message", "line"],
			"properties": {
				"message": {"type": "string"},
				"line": {"type": "integer"},
				"col": {"type": "integer"},
				"end_line": {"type": "integer"},
				"end_col": {"type": "integer"},
				"severity": {"type": ["string", "null"]}
			}
		}
	}`
)

var (
	schemaOnce sync.Once
	schemas    map[string]*jsonschema.Schema
)

func compiledSchemas() map[string]*jsonschema.Schema {
	schemaOnce.Do(func() {
		schemas = make(map[string]*jsonschema.Schema)
		compiler := jsonschema.NewCompiler()
		for name, text := range map[string]string{
			"candidates": candidatesSchema,
			"hover":      hoverSchema,
			"location":   locationSchema,
			"params":     paramsSchema,
			"diags":      diagsSchema,
		} {
			url := name + ".schema.json"
			doc, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
			if err != nil {
				panic(fmt.Sprintf("backend: bad embedded schema %s: %v", name, err))
			}
			if err := compiler.AddResource(url, doc); err != nil {
				panic(fmt.Sprintf("backend: add schema %s: %v", name, err))
			}
			sch, err := compiler.Compile(url)
			if err != nil {
				panic(fmt.Sprintf("backend: compile schema %s: %v", name, err))
			}
			schemas[name] = sch
		}
	})
	return schemas
}

// validate checks raw JSON against a named schema. Non-JSON and
// schema-invalid payloads both report false.
func validate(name string, raw []byte, log *logrus.Logger) bool {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		log.WithField("schema", name).Debugf("backend returned non-JSON output")
		return false
	}
	if err := compiledSchemas()[name].Validate(doc); err != nil {
		log.WithField("schema", name).Debugf("backend response rejected: %v", err)
		return false
	}
	return true
}

func decodeCandidates(raw []byte, log *logrus.Logger) []Candidate {
	if len(raw) == 0 || !validate("candidates", raw, log) {
		return nil
	}
	var out []Candidate
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func decodeHover(raw []byte, log *logrus.Logger) (HoverInfo, bool) {
	if len(raw) == 0 || !validate("hover", raw, log) {
		return HoverInfo{}, false
	}
	var out HoverInfo
	if err := json.Unmarshal(raw, &out); err != nil {
		return HoverInfo{}, false
	}
	return out, !out.Empty()
}

func decodeLocation(raw []byte, log *logrus.Logger) (DefLocation, bool) {
	if len(raw) == 0 || !validate("location", raw, log) {
		return DefLocation{}, false
	}
	var out DefLocation
	if err := json.Unmarshal(raw, &out); err != nil {
		return DefLocation{}, false
	}
	return out, out.FilePath != ""
}

func decodeParams(raw []byte, log *logrus.Logger) []Param {
	if len(raw) == 0 || !validate("params", raw, log) {
		return nil
	}
	var out []Param
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func decodeDiags(raw []byte, log *logrus.Logger) []Diag {
	if len(raw) == 0 || !validate("diags", raw, log) {
		return nil
	}
	var out []Diag
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
