// Package config loads tjls settings from defaults, an optional .tjls.toml
// in the workspace root, TJLS_-prefixed environment variables, and per-call
// override maps (LSP initializationOptions), in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// FileName is the workspace configuration file name.
const FileName = ".tjls.toml"

// envPrefix namespaces environment configuration (e.g. TJLS_STRATEGY=lexer).
const envPrefix = "TJLS_"

// Settings holds all tjls configuration.
type Settings struct {
	// Python is the interpreter used to run the typedjinja backend.
	Python string `koanf:"python"`

	// BackendModule is the Python module invoked with -m.
	BackendModule string `koanf:"backend_module"`

	// BackendTimeout bounds a single backend invocation.
	BackendTimeout time.Duration `koanf:"backend_timeout"`

	// Strategy selects the context-resolution strategy: "regex" or "lexer".
	Strategy string `koanf:"strategy"`

	// CacheDir is the stub cache directory name created next to templates.
	CacheDir string `koanf:"cache_dir"`

	// TemplateGlobs are the doublestar patterns used for workspace scans.
	TemplateGlobs []string `koanf:"template_globs"`

	// LogLevel is the logrus level for the stderr log.
	LogLevel string `koanf:"log_level"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Python:         "python3",
		BackendModule:  "typedjinja",
		BackendTimeout: 5 * time.Second,
		Strategy:       "regex",
		CacheDir:       ".typedjinja",
		TemplateGlobs:  []string{"**/*.jinja", "**/*.jinja2", "**/*.j2", "**/*.html"},
		LogLevel:       "info",
	}
}

// Load builds Settings for a workspace root. A missing config file is fine;
// a present but unreadable one is an error.
func Load(root string) (Settings, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Default(), fmt.Errorf("load defaults: %w", err)
	}

	if root != "" {
		path := filepath.Join(root, FileName)
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return Default(), fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, envPrefix)), value
		},
	}), nil); err != nil {
		return Default(), fmt.Errorf("load environment: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return Default(), fmt.Errorf("unmarshal settings: %w", err)
	}
	return s, nil
}

// Resolve merges an override map (e.g. LSP initializationOptions) over base
// settings. A nil or empty map returns base unchanged; an unusable map is
// ignored rather than failing the session.
func Resolve(opts map[string]any, base Settings) Settings {
	if len(opts) == 0 {
		return base
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(base, "koanf"), nil); err != nil {
		return base
	}
	if err := k.Load(confmap.Provider(opts, "."), nil); err != nil {
		return base
	}

	result := base
	if err := k.Unmarshal("", &result); err != nil {
		return base
	}
	return result
}
