package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `python = "/usr/local/bin/python3.12"
strategy = "lexer"
backend_timeout = "2s"
template_globs = ["templates/**/*.jinja"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	s, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/bin/python3.12", s.Python)
	assert.Equal(t, "lexer", s.Strategy)
	assert.Equal(t, 2*time.Second, s.BackendTimeout)
	assert.Equal(t, []string{"templates/**/*.jinja"}, s.TemplateGlobs)

	// Untouched keys keep their defaults.
	assert.Equal(t, "typedjinja", s.BackendModule)
	assert.Equal(t, ".typedjinja", s.CacheDir)
}

func TestLoadBadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("not toml ==="), 0o644))

	s, err := Load(dir)
	assert.Error(t, err)
	assert.Equal(t, Default(), s, "errors fall back to defaults")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`strategy = "lexer"`), 0o644))
	t.Setenv("TJLS_STRATEGY", "regex")
	t.Setenv("TJLS_PYTHON", "python3.13")

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "regex", s.Strategy)
	assert.Equal(t, "python3.13", s.Python)
}

func TestLoadEmptyRoot(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Strategy, s.Strategy)
}

func TestResolve(t *testing.T) {
	base := Default()

	s := Resolve(map[string]any{
		"python":   "/venv/bin/python",
		"strategy": "lexer",
	}, base)

	assert.Equal(t, "/venv/bin/python", s.Python)
	assert.Equal(t, "lexer", s.Strategy)
	assert.Equal(t, base.BackendModule, s.BackendModule)
}

func TestResolveEmptyMap(t *testing.T) {
	base := Default()
	assert.Equal(t, base, Resolve(nil, base))
	assert.Equal(t, base, Resolve(map[string]any{}, base))
}

func TestResolveUnknownKeysIgnored(t *testing.T) {
	base := Default()
	s := Resolve(map[string]any{"no_such_setting": true}, base)
	assert.Equal(t, base, s)
}
