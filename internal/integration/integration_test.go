// Package integration runs black-box tests against the built tjls binary.
//
// The binary is built once with coverage instrumentation; each test invokes a
// subcommand and snapshots its output.
package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	binaryPath  string
	coverageDir string
)

func TestMain(m *testing.M) {
	// Build the binary once before running tests
	tmpDir, err := os.MkdirTemp("", "tjls-test")
	if err != nil {
		panic(err)
	}

	binaryPath = filepath.Join(tmpDir, "tjls")

	// Create coverage directory in project root for persistent coverage data
	// If GOCOVERDIR is set externally, use that; otherwise use "./coverage"
	coverageDir = os.Getenv("GOCOVERDIR")
	if coverageDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			_ = os.RemoveAll(tmpDir)
			panic("failed to get working directory: " + err.Error())
		}
		coverageDir = filepath.Join(wd, "..", "..", "coverage")
	}
	coverageDir, err = filepath.Abs(coverageDir)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		panic("failed to get absolute coverage directory path: " + err.Error())
	}
	if err := os.MkdirAll(coverageDir, 0o750); err != nil {
		_ = os.RemoveAll(tmpDir)
		panic("failed to create coverage directory: " + err.Error())
	}

	// Build the module's main package with coverage instrumentation
	cmd := exec.Command("go", "build", "-cover", "-o", binaryPath, "github.com/typedjinja/tjls")
	if out, err := cmd.CombinedOutput(); err != nil {
		_ = os.RemoveAll(tmpDir)
		panic("failed to build binary: " + string(out))
	}

	code := m.Run()

	_ = os.RemoveAll(tmpDir)
	os.Exit(code)
}

func runTJLS(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "GOCOVERDIR="+coverageDir)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func TestCheck(t *testing.T) {
	testCases := []struct {
		name     string
		template string
		args     []string
		wantFail bool
	}{
		{"clean-json", filepath.Join("testdata", "clean", "profile.jinja"), []string{"--format", "json"}, false},
		{"broken-json", filepath.Join("testdata", "broken", "profile.jinja"), []string{"--format", "json"}, true},
		{"broken-text", filepath.Join("testdata", "broken", "profile.jinja"), []string{"--format", "text", "--color", "off"}, true},
		{"broken-sarif", filepath.Join("testdata", "broken", "profile.jinja"), []string{"--format", "sarif"}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"check"}, tc.args...)
			args = append(args, tc.template)
			output, err := runTJLS(t, args...)

			if tc.wantFail {
				assert.Error(t, err, "templates with issues must exit non-zero")
			} else {
				assert.NoError(t, err, output)
			}

			snaps.WithConfig(snaps.Ext(".txt")).MatchStandaloneSnapshot(t, output)
		})
	}
}

func TestStubgen(t *testing.T) {
	root := t.TempDir()
	content := "{# @types\nuser: User\n#}\n{{ user }}\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "page.jinja"), []byte(content), 0o644))

	output, err := runTJLS(t, "stubgen", root)
	require.NoError(t, err, output)
	assert.Contains(t, output, "wrote 1 stub(s)")

	stubPath := filepath.Join(root, ".typedjinja", "page.pyi")
	data, err := os.ReadFile(stubPath)
	require.NoError(t, err)
	assert.Equal(t, "user: User\n", string(data))
}

func TestVersion(t *testing.T) {
	output, err := runTJLS(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v\noutput: %s", err, output)
	}

	// Version output contains "dev" in tests
	if len(output) == 0 {
		t.Error("expected version output, got empty")
	}
}
